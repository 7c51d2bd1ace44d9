// Package role implements role resolution: a single canonical application
// role per identity, reconciled between the identity provider's metadata bag
// and the application user row, on both the webhook and interactive paths.
package role

import (
	"strings"

	"mosqueconnect/internal/user"
)

// Allowlist is the injected set of privileged email addresses that always
// resolve to super_admin, overriding any stored role or intent.
type Allowlist struct {
	emails map[string]struct{}
}

// NewAllowlist builds an allowlist from configured email addresses.
func NewAllowlist(emails []string) Allowlist {
	set := make(map[string]struct{}, len(emails))
	for _, e := range emails {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" {
			set[e] = struct{}{}
		}
	}
	return Allowlist{emails: set}
}

// Contains reports whether the email is on the allowlist.
// Comparison is case-insensitive; empty emails never match.
func (a Allowlist) Contains(email string) bool {
	if email == "" {
		return false
	}
	_, ok := a.emails[strings.ToLower(email)]
	return ok
}

// Derive applies the canonical role derivation rule. The ordering is
// load-bearing:
//
//  1. Allowlisted email wins unconditionally, so a seeded owner identity can
//     never be demoted by imported metadata or a stale intent parameter.
//  2. An elevated role already recorded in the identity metadata bag is
//     sticky; a later visit with a conflicting intent must not demote it.
//  3. An intent signal may only select from the self-service roles.
//  4. Anything else falls back to the default role.
func Derive(allow Allowlist, email, metadataRole string, intent user.Role) user.Role {
	if allow.Contains(email) {
		return user.RoleSuperAdmin
	}

	if r, ok := user.ParseRole(metadataRole); ok && r.Elevated() {
		return r
	}

	if intent == user.RoleCommunityUser || intent == user.RoleMosqueAdmin {
		return intent
	}

	return user.RoleCommunityUser
}
