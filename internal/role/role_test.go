package role

import (
	"testing"

	"mosqueconnect/internal/user"
)

func TestDerive_AllowlistAlwaysWins(t *testing.T) {
	allow := NewAllowlist([]string{"owner@y.com"})

	tests := []struct {
		name         string
		metadataRole string
		intent       user.Role
	}{
		{"no other signal", "", ""},
		{"conflicting metadata", "community_user", ""},
		{"conflicting elevated metadata", "mosque_admin", ""},
		{"conflicting intent", "", user.RoleCommunityUser},
		{"everything conflicting", "mosque_admin", user.RoleCommunityUser},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Derive(allow, "owner@y.com", tt.metadataRole, tt.intent)
			if got != user.RoleSuperAdmin {
				t.Errorf("expected super_admin, got %q", got)
			}
		})
	}
}

func TestDerive_AllowlistCaseInsensitive(t *testing.T) {
	allow := NewAllowlist([]string{"Owner@Y.com"})

	if got := Derive(allow, "owner@y.com", "", ""); got != user.RoleSuperAdmin {
		t.Errorf("expected super_admin for case-insensitive match, got %q", got)
	}
}

func TestDerive_ElevatedMetadataSticky(t *testing.T) {
	allow := NewAllowlist(nil)

	// A later visit with a conflicting intent must not demote an admin.
	if got := Derive(allow, "a@x.com", "mosque_admin", user.RoleCommunityUser); got != user.RoleMosqueAdmin {
		t.Errorf("expected mosque_admin to stick, got %q", got)
	}
	if got := Derive(allow, "a@x.com", "super_admin", user.RoleCommunityUser); got != user.RoleSuperAdmin {
		t.Errorf("expected super_admin to stick, got %q", got)
	}
}

func TestDerive_DefaultMetadataIgnored(t *testing.T) {
	allow := NewAllowlist(nil)

	// community_user in metadata is not elevated, so intent still applies.
	if got := Derive(allow, "a@x.com", "community_user", user.RoleMosqueAdmin); got != user.RoleMosqueAdmin {
		t.Errorf("expected intent to apply over default metadata, got %q", got)
	}
}

func TestDerive_IntentSelfServiceOnly(t *testing.T) {
	allow := NewAllowlist(nil)

	if got := Derive(allow, "a@x.com", "", user.RoleMosqueAdmin); got != user.RoleMosqueAdmin {
		t.Errorf("expected mosque_admin intent to apply, got %q", got)
	}

	// super_admin cannot be self-served via intent.
	if got := Derive(allow, "a@x.com", "", user.RoleSuperAdmin); got != user.RoleCommunityUser {
		t.Errorf("expected super_admin intent to be rejected, got %q", got)
	}
}

func TestDerive_FallsBackToDefault(t *testing.T) {
	allow := NewAllowlist(nil)

	if got := Derive(allow, "a@x.com", "", ""); got != user.RoleCommunityUser {
		t.Errorf("expected community_user default, got %q", got)
	}
	if got := Derive(allow, "a@x.com", "garbage", user.Role("garbage")); got != user.RoleCommunityUser {
		t.Errorf("expected unrecognized signals to fall back, got %q", got)
	}
}

func TestAllowlist_Contains(t *testing.T) {
	allow := NewAllowlist([]string{" Owner@Y.com ", ""})

	if !allow.Contains("owner@y.com") {
		t.Error("expected trimmed, lowered entry to match")
	}
	if allow.Contains("") {
		t.Error("expected empty email to never match")
	}
	if allow.Contains("other@y.com") {
		t.Error("expected non-member to not match")
	}
}
