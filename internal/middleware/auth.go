// Package middleware provides HTTP middleware for MosqueConnect.
package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"mosqueconnect/internal/httpx"
	"mosqueconnect/internal/identity"
	"mosqueconnect/internal/role"
	"mosqueconnect/internal/user"
)

// Sentinel errors for token extraction failures.
// These are for logging and must not be exposed in responses.
var (
	ErrMissingAuthHeader = errors.New("missing authorization header")
	ErrInvalidAuthScheme = errors.New("invalid authorization scheme: expected Bearer")
	ErrEmptyToken        = errors.New("empty bearer token")
)

// ExtractBearerToken extracts the token from an "Authorization: Bearer <token>" header.
func ExtractBearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", ErrMissingAuthHeader
	}

	const prefix = "Bearer "
	if !strings.HasPrefix(authHeader, prefix) {
		return "", ErrInvalidAuthScheme
	}

	token := strings.TrimPrefix(authHeader, prefix)
	if token == "" {
		return "", ErrEmptyToken
	}

	return token, nil
}

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// ClaimsContextKey is the context key for storing verified session claims.
const ClaimsContextKey contextKey = "claims"

// GetClaims retrieves the verified session claims from the request context.
func GetClaims(ctx context.Context) (*identity.SessionClaims, bool) {
	claims, ok := ctx.Value(ClaimsContextKey).(*identity.SessionClaims)
	return claims, ok
}

// SessionVerifier validates a session token and returns its claims.
type SessionVerifier interface {
	Verify(ctx context.Context, tokenString string) (*identity.SessionClaims, error)
}

// RequireSession returns middleware that authenticates requests against the
// identity provider's session tokens.
//
// Flow:
//  1. Extract bearer token from Authorization header
//  2. Verify signature, issuer and expiry against the provider's JWKS
//  3. Attach the claims to the request context and continue
//
// Error responses:
//   - 401 Unauthorized: missing header, malformed header, or invalid token
func RequireSession(verifier SessionVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := ExtractBearerToken(r)
			if err != nil {
				httpx.WriteUnauthorized(w)
				return
			}

			claims, err := verifier.Verify(r.Context(), token)
			if err != nil {
				httpx.WriteUnauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), ClaimsContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RoleReader reports the stored role for a subject id.
type RoleReader interface {
	GetBySubjectID(ctx context.Context, subjectID string) (*user.User, error)
}

// RequireRole returns middleware that gates a route on the caller's resolved
// role. It runs after RequireSession and reads the application user row; an
// allowlisted email counts as super_admin even when the row lags behind.
//
// Error responses:
//   - 401 Unauthorized: no session claims on the request
//   - 403 Forbidden: role not in the allowed set, or no user row
//   - 500 Internal Server Error: storage failure
func RequireRole(users RoleReader, allow role.Allowlist, roles ...user.Role) func(http.Handler) http.Handler {
	allowed := make(map[user.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := GetClaims(r.Context())
			if !ok {
				httpx.WriteUnauthorized(w)
				return
			}

			u, err := users.GetBySubjectID(r.Context(), claims.SubjectID())
			if err != nil {
				if errors.Is(err, user.ErrNotFound) {
					httpx.WriteForbidden(w)
					return
				}
				httpx.WriteJSONError(w, http.StatusInternalServerError, "internal error", "server_error")
				return
			}

			resolved := u.Role
			if allow.Contains(u.Email) {
				resolved = user.RoleSuperAdmin
			}

			if _, ok := allowed[resolved]; !ok {
				httpx.WriteForbidden(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
