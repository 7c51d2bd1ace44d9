// Package onboarding decides where a user lands after signing in, based on
// their resolved role and how far through setup they are.
package onboarding

import (
	"context"
	"errors"
	"log"

	"mosqueconnect/internal/mosque"
	"mosqueconnect/internal/role"
	"mosqueconnect/internal/user"
)

// Destination is a named post-sign-in landing step.
type Destination string

const (
	DestAdminDashboard     Destination = "admin_dashboard"
	DestMosqueDashboard    Destination = "mosque_dashboard"
	DestMosqueRegistration Destination = "mosque_registration"
	DestCommunityDashboard Destination = "community_dashboard"
	DestLocationSetup      Destination = "location_setup"
)

// Path returns the frontend route for a destination.
func (d Destination) Path() string {
	switch d {
	case DestAdminDashboard:
		return "/admin/dashboard"
	case DestMosqueDashboard:
		return "/mosque/dashboard"
	case DestMosqueRegistration:
		return "/auth/onboarding/mosque_admin"
	case DestLocationSetup:
		return "/auth/onboarding/community_user"
	default:
		return "/community/dashboard"
	}
}

// Router computes the next onboarding step for a resolved user.
type Router struct {
	mosques *mosque.Manager
}

// NewRouter creates a new onboarding router.
func NewRouter(mosques *mosque.Manager) *Router {
	return &Router{mosques: mosques}
}

// NextStep maps a role resolution to a landing destination.
//
// Super admins always land on the admin dashboard. Mosque admins land on
// their dashboard once they have registered a mosque, otherwise on the
// registration form. Community users land on their dashboard once they have
// set a location, otherwise on location setup. A degraded resolution, or any
// lookup failure here, falls back to the community dashboard so a storage
// hiccup never blocks navigation.
func (r *Router) NextStep(ctx context.Context, res *role.Resolution) Destination {
	if res.Degraded {
		return DestCommunityDashboard
	}

	switch res.Role {
	case user.RoleSuperAdmin:
		return DestAdminDashboard

	case user.RoleMosqueAdmin:
		if res.User == nil {
			return DestMosqueRegistration
		}
		if _, err := r.mosques.GetByAdminID(ctx, res.User.ID); err != nil {
			if errors.Is(err, mosque.ErrNotFound) {
				return DestMosqueRegistration
			}
			log.Printf("onboarding: mosque lookup failed for %s: %v", res.User.SubjectID, err)
			return DestCommunityDashboard
		}
		return DestMosqueDashboard

	default:
		if res.User != nil && res.User.HasLocation() {
			return DestCommunityDashboard
		}
		return DestLocationSetup
	}
}
