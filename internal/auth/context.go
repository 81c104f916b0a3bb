package auth

import "context"

// Session carries the acting user and request metadata for one mutation. It
// is threaded explicitly through every workflow call and copied into audit
// records; nothing in the service reads it from ambient state.
type Session struct {
	UserID      int64
	Application string
	RemoteAddr  string
	RemotePort  int
	Query       string
}

type contextKey string

const sessionKey contextKey = "session"

// ContextWithSession returns a new context carrying the session.
func ContextWithSession(ctx context.Context, session Session) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, sessionKey, session)
}

// SessionFromContext retrieves the session placed by the HTTP layer, if any.
func SessionFromContext(ctx context.Context) (Session, bool) {
	if ctx == nil {
		return Session{}, false
	}
	value := ctx.Value(sessionKey)
	if value == nil {
		return Session{}, false
	}
	session, ok := value.(Session)
	if !ok || session.UserID == 0 {
		return Session{}, false
	}
	return session, true
}
