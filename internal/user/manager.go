package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Domain errors
var (
	ErrNotFound           = errors.New("user not found")
	ErrInvalidSubjectID   = errors.New("invalid subject id")
	ErrInvalidRole        = errors.New("invalid role")
	ErrInvalidCoordinates = errors.New("invalid coordinates")
)

// Manager handles business logic for application users.
type Manager struct {
	ds *Datastore
}

// NewManager creates a new user manager.
func NewManager(ds *Datastore) *Manager {
	return &Manager{ds: ds}
}

// UpsertInput carries the identity profile fields written on upsert.
type UpsertInput struct {
	SubjectID string
	Email     string
	FirstName string
	LastName  string
	AvatarURL string
	Role      Role
}

// Upsert creates or updates the application row for an identity.
// The write is idempotent by subject id.
func (m *Manager) Upsert(ctx context.Context, in UpsertInput) (*User, error) {
	if strings.TrimSpace(in.SubjectID) == "" {
		return nil, ErrInvalidSubjectID
	}
	if !in.Role.Valid() {
		return nil, ErrInvalidRole
	}

	u := &User{
		SubjectID: in.SubjectID,
		Email:     strings.ToLower(strings.TrimSpace(in.Email)),
		FirstName: in.FirstName,
		LastName:  in.LastName,
		AvatarURL: in.AvatarURL,
		Role:      in.Role,
	}

	if err := m.ds.Upsert(ctx, u); err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}

	return u, nil
}

// GetBySubjectID retrieves a user by identity subject id.
func (m *Manager) GetBySubjectID(ctx context.Context, subjectID string) (*User, error) {
	if subjectID == "" {
		return nil, ErrInvalidSubjectID
	}

	u, err := m.ds.GetBySubjectID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// GetByID retrieves a user by application id.
func (m *Manager) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	u, err := m.ds.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// UpdateLocation validates and persists the captured geolocation.
func (m *Manager) UpdateLocation(ctx context.Context, id uuid.UUID, loc Location) error {
	if loc.Latitude < -90 || loc.Latitude > 90 || loc.Longitude < -180 || loc.Longitude > 180 {
		return ErrInvalidCoordinates
	}

	rowsAffected, err := m.ds.UpdateLocation(ctx, id, loc)
	if err != nil {
		return fmt.Errorf("failed to update location: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteBySubjectID removes the application row for an identity.
// Missing rows are fine: deletion events can arrive more than once.
func (m *Manager) DeleteBySubjectID(ctx context.Context, subjectID string) error {
	if subjectID == "" {
		return ErrInvalidSubjectID
	}

	if _, err := m.ds.DeleteBySubjectID(ctx, subjectID); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

// List retrieves users, newest first. Limit defaults to 20, capped at 100.
func (m *Manager) List(ctx context.Context, limit, offset int) ([]*User, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	users, err := m.ds.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}
