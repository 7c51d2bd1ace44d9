package handler

import (
	"errors"
	"net/http"

	"mosqueconnect/internal/httpx"
	"mosqueconnect/internal/middleware"
	"mosqueconnect/internal/user"
)

// errNoSession marks a request that reached a handler without session claims.
var errNoSession = errors.New("no session claims on request")

func writeJSON(w http.ResponseWriter, status int, body any) {
	httpx.WriteJSON(w, status, body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	errorType := "invalid_request_error"
	if status >= 500 {
		errorType = "server_error"
	}
	httpx.WriteJSONError(w, status, message, errorType)
}

// currentUser loads the application user row for the authenticated session.
// Handlers behind RequireSession use this to turn claims into a user.
func currentUser(r *http.Request, users *user.Manager) (*user.User, error) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok {
		return nil, errNoSession
	}
	return users.GetBySubjectID(r.Context(), claims.SubjectID())
}
