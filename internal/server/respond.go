package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/geoflow/geoflow/internal/auth"
	"github.com/geoflow/geoflow/internal/domain"
	"github.com/geoflow/geoflow/internal/workflow"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("[HTTP] failed to encode response: %v", err)
	}
}

// writeError maps domain errors onto HTTP statuses. Unknown errors become an
// opaque 500 so internals never leak to clients.
func writeError(w http.ResponseWriter, err error) {
	var (
		denied     auth.AuthorizationDenied
		notFound   domain.NotFound
		validation domain.ValidationFailed
		ordering   domain.TimestampOrderingViolation
		gap        domain.SequenceGap
		mixed      domain.MixedEntity
		unique     domain.UniqueViolation
		fk         domain.ForeignKeyViolation
		check      domain.CheckViolation
	)
	switch {
	case errors.Is(err, workflow.ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: err.Error()})
	case errors.As(err, &denied):
		writeJSON(w, http.StatusForbidden, errorBody{Error: denied.Error()})
	case errors.As(err, &notFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: notFound.Error()})
	case errors.As(err, &unique):
		writeJSON(w, http.StatusConflict, errorBody{Error: unique.Error()})
	case errors.As(err, &fk):
		writeJSON(w, http.StatusConflict, errorBody{Error: fk.Error()})
	case errors.As(err, &check):
		writeJSON(w, http.StatusConflict, errorBody{Error: check.Error()})
	case errors.As(err, &validation):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: validation.Error()})
	case errors.As(err, &ordering):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: ordering.Error()})
	case errors.As(err, &gap):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: gap.Error()})
	case errors.As(err, &mixed):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: mixed.Error()})
	default:
		log.Printf("[HTTP] internal error: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal server error"})
	}
}

// requireSession pulls the session placed by the middleware, writing a 401
// when the request carried no authenticated user.
func requireSession(w http.ResponseWriter, r *http.Request) (auth.Session, bool) {
	session, ok := auth.SessionFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "missing or invalid user header"})
		return auth.Session{}, false
	}
	return session, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "malformed request body"})
		return false
	}
	return true
}
