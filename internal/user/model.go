package user

import (
	"time"

	"github.com/google/uuid"
)

// Role is the application-level role. It is a closed set with a strict
// privilege ordering used for gating only.
type Role string

const (
	// RoleCommunityUser is the default role.
	RoleCommunityUser Role = "community_user"
	// RoleMosqueAdmin owns at most one mosque profile.
	RoleMosqueAdmin Role = "mosque_admin"
	// RoleSuperAdmin bypasses all ownership checks.
	RoleSuperAdmin Role = "super_admin"
)

// Valid reports whether r is a member of the role set.
func (r Role) Valid() bool {
	switch r {
	case RoleCommunityUser, RoleMosqueAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// Elevated reports whether r carries privileges beyond the default role.
func (r Role) Elevated() bool {
	return r == RoleMosqueAdmin || r == RoleSuperAdmin
}

// ParseRole parses a role string. Returns false for anything outside the set.
func ParseRole(s string) (Role, bool) {
	r := Role(s)
	return r, r.Valid()
}

// User is the application's record for an identity, keyed by the identity
// provider's subject id. It is a derived, eventually-consistent projection:
// lifecycle webhooks and interactive resolution both converge on this row via
// idempotent upserts.
type User struct {
	ID        uuid.UUID `json:"id"`
	SubjectID string    `json:"subject_id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name,omitempty"`
	LastName  string    `json:"last_name,omitempty"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	Role      Role      `json:"role"`
	Latitude  *float64  `json:"latitude,omitempty"`
	Longitude *float64  `json:"longitude,omitempty"`
	City      string    `json:"city,omitempty"`
	Country   string    `json:"country,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasLocation reports whether the user completed location capture.
func (u *User) HasLocation() bool {
	return u.Latitude != nil && u.Longitude != nil
}

// Location is a user's geolocation as captured during onboarding.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	City      string  `json:"city,omitempty"`
	Country   string  `json:"country,omitempty"`
}
