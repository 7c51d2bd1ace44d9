package mosque

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

// Datastore handles database operations for mosques and their dependent
// records (prayer times, events, charity campaigns, followers, ratings).
type Datastore struct {
	db DBTX
}

// NewDatastore creates a new mosque datastore.
func NewDatastore(db DBTX) *Datastore {
	return &Datastore{db: db}
}

const mosqueColumns = `id, admin_id, name, description, address, city, country,
		latitude, longitude, phone, website, image_url, verified, created_at, updated_at`

// Create inserts a mosque row. The unique index on admin_id makes the insert
// itself report a second registration by the same admin; callers map that
// conflict, there is no separate pre-check.
func (ds *Datastore) Create(ctx context.Context, m *Mosque) error {
	now := time.Now()

	query := `
		INSERT INTO mosques (id, admin_id, name, description, address, city, country,
			latitude, longitude, phone, website, image_url, verified, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING created_at, updated_at`

	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}

	return ds.db.QueryRowContext(ctx, query,
		m.ID, m.AdminID, m.Name, m.Description, m.Address, m.City, m.Country,
		m.Latitude, m.Longitude, m.Phone, m.Website, m.ImageURL, m.Verified, now, now,
	).Scan(&m.CreatedAt, &m.UpdatedAt)
}

// GetByID retrieves a mosque by id.
func (ds *Datastore) GetByID(ctx context.Context, id uuid.UUID) (*Mosque, error) {
	query := `SELECT ` + mosqueColumns + ` FROM mosques WHERE id = $1`
	return ds.scanOne(ds.db.QueryRowContext(ctx, query, id))
}

// GetByAdminID retrieves the mosque owned by an admin user.
func (ds *Datastore) GetByAdminID(ctx context.Context, adminID uuid.UUID) (*Mosque, error) {
	query := `SELECT ` + mosqueColumns + ` FROM mosques WHERE admin_id = $1`
	return ds.scanOne(ds.db.QueryRowContext(ctx, query, adminID))
}

// ListVerified retrieves all verified mosques ordered by name.
func (ds *Datastore) ListVerified(ctx context.Context) ([]*Mosque, error) {
	query := `SELECT ` + mosqueColumns + ` FROM mosques WHERE verified = TRUE ORDER BY name ASC`
	return ds.list(ctx, query)
}

// ListAll retrieves all mosques including unverified ones, newest first.
func (ds *Datastore) ListAll(ctx context.Context, limit, offset int) ([]*Mosque, error) {
	query := `SELECT ` + mosqueColumns + ` FROM mosques ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	return ds.list(ctx, query, limit, offset)
}

// SetVerified flips the verification flag.
func (ds *Datastore) SetVerified(ctx context.Context, id uuid.UUID, verified bool) (int64, error) {
	query := `UPDATE mosques SET verified = $2, updated_at = $3 WHERE id = $1`
	result, err := ds.db.ExecContext(ctx, query, id, verified, time.Now())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// UpdateDetails updates the editable profile fields of a mosque.
func (ds *Datastore) UpdateDetails(ctx context.Context, m *Mosque) (int64, error) {
	query := `
		UPDATE mosques
		SET name = $2, description = $3, address = $4, city = $5, country = $6,
			latitude = $7, longitude = $8, phone = $9, website = $10, image_url = $11,
			updated_at = $12
		WHERE id = $1`

	result, err := ds.db.ExecContext(ctx, query,
		m.ID, m.Name, m.Description, m.Address, m.City, m.Country,
		m.Latitude, m.Longitude, m.Phone, m.Website, m.ImageURL, time.Now(),
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// Delete removes a mosque and, via cascades, its dependent records.
func (ds *Datastore) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	query := `DELETE FROM mosques WHERE id = $1`
	result, err := ds.db.ExecContext(ctx, query, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (ds *Datastore) scanOne(row *sql.Row) (*Mosque, error) {
	m := &Mosque{}
	err := row.Scan(
		&m.ID, &m.AdminID, &m.Name, &m.Description, &m.Address, &m.City, &m.Country,
		&m.Latitude, &m.Longitude, &m.Phone, &m.Website, &m.ImageURL, &m.Verified,
		&m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (ds *Datastore) list(ctx context.Context, query string, args ...any) ([]*Mosque, error) {
	rows, err := ds.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var mosques []*Mosque
	for rows.Next() {
		m := &Mosque{}
		if err := rows.Scan(
			&m.ID, &m.AdminID, &m.Name, &m.Description, &m.Address, &m.City, &m.Country,
			&m.Latitude, &m.Longitude, &m.Phone, &m.Website, &m.ImageURL, &m.Verified,
			&m.CreatedAt, &m.UpdatedAt,
		); err != nil {
			return nil, err
		}
		mosques = append(mosques, m)
	}
	return mosques, rows.Err()
}

// --- Prayer times ---

// UpsertPrayerTimes saves a mosque's daily schedule, one row per mosque.
func (ds *Datastore) UpsertPrayerTimes(ctx context.Context, pt *PrayerTimes) error {
	now := time.Now()

	query := `
		INSERT INTO prayer_times (id, mosque_id, fajr, dhuhr, asr, maghrib, isha, jummah, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (mosque_id)
		DO UPDATE SET fajr = $3, dhuhr = $4, asr = $5, maghrib = $6, isha = $7, jummah = $8, updated_at = $9
		RETURNING id, updated_at`

	if pt.ID == uuid.Nil {
		pt.ID = uuid.New()
	}

	var jummah sql.NullString
	if pt.Jummah != "" {
		jummah = sql.NullString{String: pt.Jummah, Valid: true}
	}

	return ds.db.QueryRowContext(ctx, query,
		pt.ID, pt.MosqueID, pt.Fajr, pt.Dhuhr, pt.Asr, pt.Maghrib, pt.Isha, jummah, now,
	).Scan(&pt.ID, &pt.UpdatedAt)
}

// GetPrayerTimes retrieves a mosque's schedule.
func (ds *Datastore) GetPrayerTimes(ctx context.Context, mosqueID uuid.UUID) (*PrayerTimes, error) {
	query := `
		SELECT id, mosque_id, fajr, dhuhr, asr, maghrib, isha, jummah, updated_at
		FROM prayer_times WHERE mosque_id = $1`

	pt := &PrayerTimes{}
	var jummah sql.NullString
	err := ds.db.QueryRowContext(ctx, query, mosqueID).Scan(
		&pt.ID, &pt.MosqueID, &pt.Fajr, &pt.Dhuhr, &pt.Asr, &pt.Maghrib, &pt.Isha, &jummah, &pt.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	pt.Jummah = jummah.String
	return pt, nil
}

// --- Events ---

// CreateEvent inserts an event for a mosque.
func (ds *Datastore) CreateEvent(ctx context.Context, e *Event) error {
	now := time.Now()

	query := `
		INSERT INTO events (id, mosque_id, title, description, category, event_date, location, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`

	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}

	return ds.db.QueryRowContext(ctx, query,
		e.ID, e.MosqueID, e.Title, e.Description, e.Category, e.EventDate, e.Location, now, now,
	).Scan(&e.CreatedAt, &e.UpdatedAt)
}

// ListUpcomingEvents retrieves future events for a mosque, soonest first.
func (ds *Datastore) ListUpcomingEvents(ctx context.Context, mosqueID uuid.UUID, limit int) ([]*Event, error) {
	query := `
		SELECT id, mosque_id, title, description, category, event_date, location, created_at, updated_at
		FROM events
		WHERE mosque_id = $1 AND event_date >= now()
		ORDER BY event_date ASC
		LIMIT $2`

	rows, err := ds.db.QueryContext(ctx, query, mosqueID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		e := &Event{}
		if err := rows.Scan(
			&e.ID, &e.MosqueID, &e.Title, &e.Description, &e.Category, &e.EventDate,
			&e.Location, &e.CreatedAt, &e.UpdatedAt,
		); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// DeleteEvent removes an event, scoped to its mosque so an admin cannot
// delete another mosque's event by id.
func (ds *Datastore) DeleteEvent(ctx context.Context, id, mosqueID uuid.UUID) (int64, error) {
	query := `DELETE FROM events WHERE id = $1 AND mosque_id = $2`
	result, err := ds.db.ExecContext(ctx, query, id, mosqueID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// --- Charity campaigns ---

// CreateCampaign inserts a charity campaign for a mosque.
func (ds *Datastore) CreateCampaign(ctx context.Context, c *CharityCampaign) error {
	now := time.Now()

	query := `
		INSERT INTO charity_campaigns (id, mosque_id, title, description, goal_amount, current_amount, end_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`

	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}

	return ds.db.QueryRowContext(ctx, query,
		c.ID, c.MosqueID, c.Title, c.Description, c.GoalAmount, c.CurrentAmount, c.EndDate, now, now,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
}

// ListCampaigns retrieves a mosque's campaigns, newest first.
func (ds *Datastore) ListCampaigns(ctx context.Context, mosqueID uuid.UUID, limit int) ([]*CharityCampaign, error) {
	query := `
		SELECT id, mosque_id, title, description, goal_amount, current_amount, end_date, created_at, updated_at
		FROM charity_campaigns
		WHERE mosque_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := ds.db.QueryContext(ctx, query, mosqueID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var campaigns []*CharityCampaign
	for rows.Next() {
		c := &CharityCampaign{}
		var goal sql.NullFloat64
		var end sql.NullTime
		if err := rows.Scan(
			&c.ID, &c.MosqueID, &c.Title, &c.Description, &goal, &c.CurrentAmount,
			&end, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, err
		}
		if goal.Valid {
			c.GoalAmount = &goal.Float64
		}
		if end.Valid {
			c.EndDate = &end.Time
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, rows.Err()
}

// DeleteCampaign removes a campaign, scoped to its mosque.
func (ds *Datastore) DeleteCampaign(ctx context.Context, id, mosqueID uuid.UUID) (int64, error) {
	query := `DELETE FROM charity_campaigns WHERE id = $1 AND mosque_id = $2`
	result, err := ds.db.ExecContext(ctx, query, id, mosqueID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// --- Followers ---

// IsFollowing checks whether a user follows a mosque.
func (ds *Datastore) IsFollowing(ctx context.Context, userID, mosqueID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM mosque_followers WHERE user_id = $1 AND mosque_id = $2)`
	var exists bool
	err := ds.db.QueryRowContext(ctx, query, userID, mosqueID).Scan(&exists)
	return exists, err
}

// InsertFollow records that a user follows a mosque. The unique constraint
// makes a duplicate follow a no-op conflict for the caller to absorb.
func (ds *Datastore) InsertFollow(ctx context.Context, userID, mosqueID uuid.UUID) error {
	query := `
		INSERT INTO mosque_followers (id, user_id, mosque_id, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, mosque_id) DO NOTHING`

	_, err := ds.db.ExecContext(ctx, query, uuid.New(), userID, mosqueID, time.Now())
	return err
}

// DeleteFollow removes a follow edge.
func (ds *Datastore) DeleteFollow(ctx context.Context, userID, mosqueID uuid.UUID) (int64, error) {
	query := `DELETE FROM mosque_followers WHERE user_id = $1 AND mosque_id = $2`
	result, err := ds.db.ExecContext(ctx, query, userID, mosqueID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// ListFollowed retrieves the mosques a user follows, by name.
func (ds *Datastore) ListFollowed(ctx context.Context, userID uuid.UUID) ([]*Mosque, error) {
	query := `
		SELECT m.id, m.admin_id, m.name, m.description, m.address, m.city, m.country,
			m.latitude, m.longitude, m.phone, m.website, m.image_url, m.verified, m.created_at, m.updated_at
		FROM mosques m
		INNER JOIN mosque_followers f ON f.mosque_id = m.id
		WHERE f.user_id = $1
		ORDER BY m.name ASC`

	return ds.list(ctx, query, userID)
}

// --- Ratings ---

// UpsertRating saves a user's rating of a mosque, one row per (mosque, user).
func (ds *Datastore) UpsertRating(ctx context.Context, r *Rating) error {
	now := time.Now()

	query := `
		INSERT INTO mosque_ratings (id, mosque_id, user_id, rating, comment, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (mosque_id, user_id)
		DO UPDATE SET rating = $4, comment = $5, updated_at = $7
		RETURNING id, created_at, updated_at`

	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}

	return ds.db.QueryRowContext(ctx, query,
		r.ID, r.MosqueID, r.UserID, r.Rating, r.Comment, now, now,
	).Scan(&r.ID, &r.CreatedAt, &r.UpdatedAt)
}

// ListRatings retrieves a mosque's ratings, newest first.
func (ds *Datastore) ListRatings(ctx context.Context, mosqueID uuid.UUID) ([]*Rating, error) {
	query := `
		SELECT id, mosque_id, user_id, rating, comment, created_at, updated_at
		FROM mosque_ratings
		WHERE mosque_id = $1
		ORDER BY created_at DESC`

	rows, err := ds.db.QueryContext(ctx, query, mosqueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ratings []*Rating
	for rows.Next() {
		r := &Rating{}
		if err := rows.Scan(
			&r.ID, &r.MosqueID, &r.UserID, &r.Rating, &r.Comment, &r.CreatedAt, &r.UpdatedAt,
		); err != nil {
			return nil, err
		}
		ratings = append(ratings, r)
	}
	return ratings, rows.Err()
}
