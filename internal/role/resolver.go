package role

import (
	"context"
	"errors"
	"fmt"
	"log"

	"mosqueconnect/internal/identity"
	"mosqueconnect/internal/user"
)

// MetadataWriter mirrors the resolved role into the identity provider's
// metadata bag. The write is best-effort: external route gating reads the
// mirror, but the application row stays authoritative.
type MetadataWriter interface {
	WriteRoleMetadata(ctx context.Context, subjectID, role string) error
}

// Resolution is the outcome of interactive role resolution.
type Resolution struct {
	Role user.Role
	User *user.User

	// Degraded is set when the user row could not be created or read; the
	// caller presents the lowest-privilege experience instead of failing
	// navigation.
	Degraded bool
}

// Resolver reconciles an authenticated identity with the application user
// row on the interactive path (post-sign-in and onboarding entry points).
type Resolver struct {
	users  *user.Manager
	mirror MetadataWriter
	allow  Allowlist
}

// NewResolver creates a resolver.
func NewResolver(users *user.Manager, mirror MetadataWriter, allow Allowlist) *Resolver {
	return &Resolver{users: users, mirror: mirror, allow: allow}
}

// Resolve determines the canonical role for an authenticated identity.
//
// If no application row exists yet it is created now with the derived role
// (self-healing for a webhook that has not arrived or was dropped). If a row
// exists, its stored role is authoritative, except that an allowlisted email
// always resolves to super_admin. The resolved role is mirrored into the
// identity metadata bag best-effort; mirror failures never block navigation.
func (r *Resolver) Resolve(ctx context.Context, ident *identity.Identity, intent user.Role) Resolution {
	email := ident.PrimaryEmail()

	u, err := r.users.GetBySubjectID(ctx, ident.SubjectID)
	switch {
	case err == nil:
		resolved := u.Role
		if r.allow.Contains(email) {
			resolved = user.RoleSuperAdmin
		}
		r.writeMirror(ctx, ident.SubjectID, resolved)
		return Resolution{Role: resolved, User: u}

	case errors.Is(err, user.ErrNotFound):
		derived := Derive(r.allow, email, ident.MetadataRole(), intent)

		created, err := r.users.Upsert(ctx, user.UpsertInput{
			SubjectID: ident.SubjectID,
			Email:     email,
			FirstName: ident.FirstName,
			LastName:  ident.LastName,
			AvatarURL: ident.AvatarURL,
			Role:      derived,
		})
		if err != nil {
			// A transient persistence failure must not block the page: present
			// the lowest-privilege experience and let a later visit heal it.
			log.Printf("role resolution: failed to create user %s: %v", ident.SubjectID, err)
			return Resolution{Role: user.RoleCommunityUser, Degraded: true}
		}

		r.writeMirror(ctx, ident.SubjectID, derived)
		return Resolution{Role: derived, User: created}

	default:
		log.Printf("role resolution: failed to read user %s: %v", ident.SubjectID, err)
		return Resolution{Role: user.RoleCommunityUser, Degraded: true}
	}
}

func (r *Resolver) writeMirror(ctx context.Context, subjectID string, resolved user.Role) {
	if r.mirror == nil {
		return
	}
	if err := r.mirror.WriteRoleMetadata(ctx, subjectID, string(resolved)); err != nil {
		log.Printf("role resolution: failed to mirror role for %s: %v", subjectID, err)
	}
}

// Syncer applies verified identity lifecycle events to the application user
// store (the asynchronous reconciliation path).
type Syncer struct {
	users *user.Manager
	allow Allowlist
}

// NewSyncer creates a webhook event syncer.
func NewSyncer(users *user.Manager, allow Allowlist) *Syncer {
	return &Syncer{users: users, allow: allow}
}

// Apply processes one verified lifecycle event. Created and updated events
// upsert the user row with the derived role; deleted events remove it.
// Every write is idempotent by subject id, so provider redelivery is safe.
// A returned error means persistence failed and the delivery should be
// retried by the sender.
func (s *Syncer) Apply(ctx context.Context, evt *identity.Event) error {
	switch evt.Type {
	case identity.EventUserCreated, identity.EventUserUpdated:
		ident := evt.Identity()
		derived := Derive(s.allow, ident.PrimaryEmail(), ident.MetadataRole(), "")

		_, err := s.users.Upsert(ctx, user.UpsertInput{
			SubjectID: ident.SubjectID,
			Email:     ident.PrimaryEmail(),
			FirstName: ident.FirstName,
			LastName:  ident.LastName,
			AvatarURL: ident.AvatarURL,
			Role:      derived,
		})
		if err != nil {
			return fmt.Errorf("failed to sync %s event: %w", evt.Type, err)
		}
		return nil

	case identity.EventUserDeleted:
		subjectID := evt.Identity().SubjectID
		if subjectID == "" {
			return nil
		}
		if err := s.users.DeleteBySubjectID(ctx, subjectID); err != nil {
			return fmt.Errorf("failed to sync %s event: %w", evt.Type, err)
		}
		return nil

	default:
		// Unrecognized event types are acknowledged without mutation.
		return nil
	}
}
