package handler

import (
	"context"
	"log"
	"net/http"

	"mosqueconnect/internal/identity"
	"mosqueconnect/internal/middleware"
	"mosqueconnect/internal/onboarding"
	"mosqueconnect/internal/role"
	"mosqueconnect/internal/user"
)

// IdentityFetcher retrieves a full identity profile from the provider.
type IdentityFetcher interface {
	GetUser(ctx context.Context, subjectID string) (*identity.Identity, error)
}

// AuthHandler serves the post-sign-in and onboarding entry points.
type AuthHandler struct {
	provider IdentityFetcher
	resolver *role.Resolver
	router   *onboarding.Router
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(provider IdentityFetcher, resolver *role.Resolver, router *onboarding.Router) *AuthHandler {
	return &AuthHandler{provider: provider, resolver: resolver, router: router}
}

// resolutionResponse is the JSON response for both entry points.
type resolutionResponse struct {
	Role       string `json:"role"`
	RedirectTo string `json:"redirect_to"`
	Degraded   bool   `json:"degraded,omitempty"`
}

// PostSignIn handles GET /auth/post-sign-in.
//
// The optional role query parameter carries the sign-up intent from the
// frontend. Resolution never fails: a provider or storage hiccup degrades
// to the community experience instead of blocking the redirect.
func (h *AuthHandler) PostSignIn(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, r.URL.Query().Get("role"))
}

// Onboarding handles GET /auth/onboarding/{role}.
//
// The path parameter names the requested self-service role. Only
// community_user and mosque_admin are accepted; anything else is rejected
// before resolution so super_admin can never be requested through a URL.
func (h *AuthHandler) Onboarding(w http.ResponseWriter, r *http.Request) {
	requested := r.PathValue("role")
	intent, ok := user.ParseRole(requested)
	if !ok || intent == user.RoleSuperAdmin {
		writeError(w, http.StatusBadRequest, "invalid onboarding role")
		return
	}
	h.resolve(w, r, requested)
}

func (h *AuthHandler) resolve(w http.ResponseWriter, r *http.Request, requestedRole string) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	// Intent only applies when it names a valid self-service role; Derive
	// rejects super_admin on its own, but garbage is dropped here.
	var intent user.Role
	if parsed, ok := user.ParseRole(requestedRole); ok {
		intent = parsed
	}

	ident := h.fetchIdentity(r.Context(), claims)
	res := h.resolver.Resolve(r.Context(), ident, intent)
	dest := h.router.NextStep(r.Context(), &res)

	writeJSON(w, http.StatusOK, resolutionResponse{
		Role:       string(res.Role),
		RedirectTo: dest.Path(),
		Degraded:   res.Degraded,
	})
}

// fetchIdentity loads the full profile from the provider, falling back to
// the session claims when the provider is unreachable. The fallback keeps
// sign-in working through a provider outage with whatever the token carries.
func (h *AuthHandler) fetchIdentity(ctx context.Context, claims *identity.SessionClaims) *identity.Identity {
	ident, err := h.provider.GetUser(ctx, claims.SubjectID())
	if err != nil {
		log.Printf("auth: failed to fetch identity %s: %v", claims.SubjectID(), err)
		ident = &identity.Identity{SubjectID: claims.SubjectID()}
		if claims.Email != "" {
			ident.Emails = []string{claims.Email}
		}
	}
	return ident
}
