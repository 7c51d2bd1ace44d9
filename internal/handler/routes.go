package handler

import (
	"net/http"

	"mosqueconnect/internal/identity"
	"mosqueconnect/internal/middleware"
	"mosqueconnect/internal/mosque"
	"mosqueconnect/internal/notification"
	"mosqueconnect/internal/onboarding"
	"mosqueconnect/internal/role"
	"mosqueconnect/internal/user"
)

// Deps carries the wired dependencies for route registration.
type Deps struct {
	DB              Pinger
	Users           *user.Manager
	Mosques         *mosque.Manager
	Notifications   *notification.Manager
	Provider        IdentityFetcher
	Resolver        *role.Resolver
	Router          *onboarding.Router
	Syncer          *role.Syncer
	SessionVerifier middleware.SessionVerifier
	WebhookVerifier *identity.WebhookVerifier
	Allowlist       role.Allowlist
}

// RegisterRoutes registers all HTTP routes with the provided mux.
func RegisterRoutes(mux *http.ServeMux, deps Deps) {
	session := middleware.RequireSession(deps.SessionVerifier)
	mosqueAdminOnly := middleware.RequireRole(deps.Users, deps.Allowlist, user.RoleMosqueAdmin, user.RoleSuperAdmin)
	superAdminOnly := middleware.RequireRole(deps.Users, deps.Allowlist, user.RoleSuperAdmin)

	// Health and status endpoints (no auth required)
	mux.HandleFunc("GET /health", HealthCheck)
	mux.HandleFunc("GET /api/v1/status", statusHandler(deps.DB))

	// Identity lifecycle webhook: authenticated by signature, not session
	webhooks := NewWebhookHandler(deps.WebhookVerifier, deps.Syncer)
	mux.HandleFunc("POST /api/webhooks/identity", webhooks.Handle)

	// Post-sign-in and onboarding entry points
	auth := NewAuthHandler(deps.Provider, deps.Resolver, deps.Router)
	mux.Handle("GET /auth/post-sign-in", session(http.HandlerFunc(auth.PostSignIn)))
	mux.Handle("GET /auth/onboarding/{role}", session(http.HandlerFunc(auth.Onboarding)))

	// Public mosque directory
	mosques := NewMosquesHandler(deps.Users, deps.Mosques)
	mux.HandleFunc("GET /api/v1/mosques", mosques.List)
	mux.HandleFunc("GET /api/v1/mosques/nearby", mosques.Nearby)
	mux.HandleFunc("GET /api/v1/mosques/{id}", mosques.Get)

	// Community engagement (session required)
	mux.Handle("POST /api/v1/mosques", session(http.HandlerFunc(mosques.Register)))
	mux.Handle("POST /api/v1/mosques/{id}/follow", session(http.HandlerFunc(mosques.ToggleFollow)))
	mux.Handle("GET /api/v1/mosques/{id}/follow", session(http.HandlerFunc(mosques.FollowStatus)))
	mux.Handle("POST /api/v1/mosques/{id}/ratings", session(http.HandlerFunc(mosques.Rate)))

	// The authenticated user's own surface
	me := NewMeHandler(deps.Users, deps.Mosques, deps.Notifications)
	mux.Handle("GET /api/v1/me", session(http.HandlerFunc(me.Get)))
	mux.Handle("POST /api/v1/me/location", session(http.HandlerFunc(me.UpdateLocation)))
	mux.Handle("GET /api/v1/community/dashboard", session(http.HandlerFunc(me.Dashboard)))
	mux.Handle("GET /api/v1/me/notifications", session(http.HandlerFunc(me.ListNotifications)))
	mux.Handle("PUT /api/v1/me/notifications", session(http.HandlerFunc(me.SaveNotifications)))
	mux.Handle("GET /api/v1/me/notifications/{mosqueID}", session(http.HandlerFunc(me.GetNotifications)))

	// Mosque management (owning admin only)
	mosqueAdmin := NewMosqueAdminHandler(deps.Users, deps.Mosques)
	manage := func(h http.HandlerFunc) http.Handler { return session(mosqueAdminOnly(h)) }
	mux.Handle("GET /api/v1/mosque", manage(mosqueAdmin.GetMosque))
	mux.Handle("PUT /api/v1/mosque", manage(mosqueAdmin.UpdateMosque))
	mux.Handle("GET /api/v1/mosque/prayer-times", manage(mosqueAdmin.GetPrayerTimes))
	mux.Handle("PUT /api/v1/mosque/prayer-times", manage(mosqueAdmin.SavePrayerTimes))
	mux.Handle("GET /api/v1/mosque/events", manage(mosqueAdmin.ListEvents))
	mux.Handle("POST /api/v1/mosque/events", manage(mosqueAdmin.CreateEvent))
	mux.Handle("DELETE /api/v1/mosque/events/{id}", manage(mosqueAdmin.DeleteEvent))
	mux.Handle("GET /api/v1/mosque/charity", manage(mosqueAdmin.ListCampaigns))
	mux.Handle("POST /api/v1/mosque/charity", manage(mosqueAdmin.CreateCampaign))
	mux.Handle("DELETE /api/v1/mosque/charity/{id}", manage(mosqueAdmin.DeleteCampaign))

	// Super admin surface
	admin := NewAdminHandler(deps.Users, deps.Mosques)
	oversee := func(h http.HandlerFunc) http.Handler { return session(superAdminOnly(h)) }
	mux.Handle("GET /api/v1/admin/users", oversee(admin.ListUsers))
	mux.Handle("GET /api/v1/admin/users/{id}", oversee(admin.GetUser))
	mux.Handle("GET /api/v1/admin/mosques", oversee(admin.ListMosques))
	mux.Handle("POST /api/v1/admin/mosques/{id}/approve", oversee(admin.ApproveMosque))
	mux.Handle("POST /api/v1/admin/mosques/{id}/revoke", oversee(admin.RevokeMosque))
	mux.Handle("DELETE /api/v1/admin/mosques/{id}", oversee(admin.DeleteMosque))
}
