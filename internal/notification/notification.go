// Package notification stores per-user, per-mosque notification preferences.
// Preferences default to everything on; a row exists only once a user has
// changed something.
package notification

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no preferences row exists for a pair.
var ErrNotFound = errors.New("notification preferences not found")

// Preferences controls which mosque updates a user is notified about.
type Preferences struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	MosqueID    uuid.UUID `json:"mosque_id"`
	PrayerTimes bool      `json:"prayer_times"`
	Events      bool      `json:"events"`
	Charity     bool      `json:"charity"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DBTX is the interface for database operations.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Datastore handles database operations for notification preferences.
type Datastore struct {
	db DBTX
}

// NewDatastore creates a new notification datastore.
func NewDatastore(db DBTX) *Datastore {
	return &Datastore{db: db}
}

const prefColumns = `id, user_id, mosque_id, prayer_times, events, charity, created_at, updated_at`

// Upsert saves a user's preferences for a mosque, one row per pair.
func (ds *Datastore) Upsert(ctx context.Context, p *Preferences) error {
	now := time.Now()

	query := `
		INSERT INTO notification_preferences (id, user_id, mosque_id, prayer_times, events, charity, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id, mosque_id)
		DO UPDATE SET prayer_times = $4, events = $5, charity = $6, updated_at = $8
		RETURNING id, created_at, updated_at`

	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}

	return ds.db.QueryRowContext(ctx, query,
		p.ID, p.UserID, p.MosqueID, p.PrayerTimes, p.Events, p.Charity, now, now,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

// Get retrieves a user's preferences for a mosque.
func (ds *Datastore) Get(ctx context.Context, userID, mosqueID uuid.UUID) (*Preferences, error) {
	query := `SELECT ` + prefColumns + ` FROM notification_preferences WHERE user_id = $1 AND mosque_id = $2`

	p := &Preferences{}
	err := ds.db.QueryRowContext(ctx, query, userID, mosqueID).Scan(
		&p.ID, &p.UserID, &p.MosqueID, &p.PrayerTimes, &p.Events, &p.Charity, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ListByUser retrieves all of a user's saved preferences.
func (ds *Datastore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*Preferences, error) {
	query := `SELECT ` + prefColumns + ` FROM notification_preferences WHERE user_id = $1 ORDER BY created_at ASC`

	rows, err := ds.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var prefs []*Preferences
	for rows.Next() {
		p := &Preferences{}
		if err := rows.Scan(
			&p.ID, &p.UserID, &p.MosqueID, &p.PrayerTimes, &p.Events, &p.Charity, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, err
		}
		prefs = append(prefs, p)
	}
	return prefs, rows.Err()
}

// Manager handles business logic for notification preferences.
type Manager struct {
	ds *Datastore
}

// NewManager creates a new notification manager.
func NewManager(ds *Datastore) *Manager {
	return &Manager{ds: ds}
}

// SaveInput is the payload for updating preferences.
type SaveInput struct {
	MosqueID    uuid.UUID
	PrayerTimes bool
	Events      bool
	Charity     bool
}

// Save replaces a user's preferences for a mosque.
func (m *Manager) Save(ctx context.Context, userID uuid.UUID, input SaveInput) (*Preferences, error) {
	p := &Preferences{
		UserID:      userID,
		MosqueID:    input.MosqueID,
		PrayerTimes: input.PrayerTimes,
		Events:      input.Events,
		Charity:     input.Charity,
	}
	if err := m.ds.Upsert(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to save preferences: %w", err)
	}
	return p, nil
}

// Get retrieves a user's preferences for a mosque. When no row exists the
// defaults apply, everything on.
func (m *Manager) Get(ctx context.Context, userID, mosqueID uuid.UUID) (*Preferences, error) {
	p, err := m.ds.Get(ctx, userID, mosqueID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &Preferences{
				UserID:      userID,
				MosqueID:    mosqueID,
				PrayerTimes: true,
				Events:      true,
				Charity:     true,
			}, nil
		}
		return nil, fmt.Errorf("failed to get preferences: %w", err)
	}
	return p, nil
}

// ListByUser retrieves all of a user's saved preferences.
func (m *Manager) ListByUser(ctx context.Context, userID uuid.UUID) ([]*Preferences, error) {
	prefs, err := m.ds.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list preferences: %w", err)
	}
	return prefs, nil
}
