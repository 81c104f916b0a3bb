package middleware

import (
	"log"
	"net"
	"net/http"
	"strconv"

	"github.com/geoflow/geoflow/internal/auth"
)

// Header names carrying the acting user and client application. The service
// sits behind an authenticating proxy that stamps the uid header.
const (
	HeaderUserID      = "X-Geoflow-UID"
	HeaderApplication = "X-Geoflow-Application"
)

// SessionMiddleware reads the acting user from the request headers and places
// an auth.Session on the context. Requests without a valid uid pass through
// without a session; handlers that mutate state reject them.
func SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get(HeaderUserID)
		if raw == "" {
			next.ServeHTTP(w, r)
			return
		}
		uid, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || uid <= 0 {
			log.Printf("[HTTP] ignoring malformed %s header %q", HeaderUserID, raw)
			next.ServeHTTP(w, r)
			return
		}

		host, portStr, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
			portStr = "0"
		}
		port, _ := strconv.Atoi(portStr)

		application := r.Header.Get(HeaderApplication)
		if application == "" {
			application = "geoflow"
		}

		session := auth.Session{
			UserID:      uid,
			Application: application,
			RemoteAddr:  host,
			RemotePort:  port,
			Query:       r.Method + " " + r.URL.Path,
		}
		next.ServeHTTP(w, r.WithContext(auth.ContextWithSession(r.Context(), session)))
	})
}
