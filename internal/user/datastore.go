package user

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// DBTX is the interface for database operations.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Datastore handles database operations for application users.
type Datastore struct {
	db DBTX
}

// NewDatastore creates a new user datastore.
func NewDatastore(db DBTX) *Datastore {
	return &Datastore{db: db}
}

const userColumns = `id, subject_id, email, first_name, last_name, avatar_url, role,
		latitude, longitude, city, country, created_at, updated_at`

// Upsert creates or updates a user row keyed by subject id. Both the webhook
// path and the interactive resolution path land here, so the write must stay
// idempotent under redelivery and concurrent first visits.
func (ds *Datastore) Upsert(ctx context.Context, u *User) error {
	now := time.Now()

	query := `
		INSERT INTO users (id, subject_id, email, first_name, last_name, avatar_url, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (subject_id)
		DO UPDATE SET email = $3, first_name = $4, last_name = $5, avatar_url = $6, role = $7, updated_at = $9
		RETURNING ` + userColumns

	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}

	row := ds.db.QueryRowContext(ctx, query,
		u.ID, u.SubjectID, u.Email, u.FirstName, u.LastName, u.AvatarURL,
		u.Role, now, now,
	)
	return scanUser(row, u)
}

// GetBySubjectID retrieves a user by identity subject id.
func (ds *Datastore) GetBySubjectID(ctx context.Context, subjectID string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE subject_id = $1`

	u := &User{}
	if err := scanUser(ds.db.QueryRowContext(ctx, query, subjectID), u); err != nil {
		return nil, err
	}
	return u, nil
}

// GetByID retrieves a user by application id.
func (ds *Datastore) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	u := &User{}
	if err := scanUser(ds.db.QueryRowContext(ctx, query, id), u); err != nil {
		return nil, err
	}
	return u, nil
}

// UpdateLocation persists the captured geolocation onto the user row.
func (ds *Datastore) UpdateLocation(ctx context.Context, id uuid.UUID, loc Location) (int64, error) {
	query := `
		UPDATE users
		SET latitude = $2, longitude = $3, city = $4, country = $5, updated_at = $6
		WHERE id = $1`

	result, err := ds.db.ExecContext(ctx, query, id, loc.Latitude, loc.Longitude, loc.City, loc.Country, time.Now())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// DeleteBySubjectID removes the user row for an identity. Zero rows affected
// is not an error: deletion events can be redelivered.
func (ds *Datastore) DeleteBySubjectID(ctx context.Context, subjectID string) (int64, error) {
	query := `DELETE FROM users WHERE subject_id = $1`
	result, err := ds.db.ExecContext(ctx, query, subjectID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// List retrieves users ordered by creation time, newest first.
func (ds *Datastore) List(ctx context.Context, limit, offset int) ([]*User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	rows, err := ds.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		u := &User{}
		if err := scanUserRows(rows, u); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row *sql.Row, u *User) error {
	return scanUserRows(row, u)
}

func scanUserRows(row rowScanner, u *User) error {
	var lat, lng sql.NullFloat64

	err := row.Scan(
		&u.ID, &u.SubjectID, &u.Email, &u.FirstName, &u.LastName, &u.AvatarURL,
		&u.Role, &lat, &lng, &u.City, &u.Country, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return err
	}

	if lat.Valid {
		u.Latitude = &lat.Float64
	}
	if lng.Valid {
		u.Longitude = &lng.Float64
	}
	return nil
}
