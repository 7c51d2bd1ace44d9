package mosque

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound is returned when a mosque or dependent record does not exist.
	ErrNotFound = errors.New("mosque not found")
	// ErrAlreadyOwned is returned when an admin who already owns a mosque
	// tries to register another one.
	ErrAlreadyOwned = errors.New("admin already owns a mosque")
	// ErrNotVerified is returned when a management write is attempted against
	// a mosque a super admin has not verified yet.
	ErrNotVerified = errors.New("mosque is not verified")
	// ErrInvalidName is returned when a mosque name is empty.
	ErrInvalidName = errors.New("mosque name is required")
	// ErrInvalidAddress is returned when a mosque address is empty.
	ErrInvalidAddress = errors.New("mosque address is required")
	// ErrInvalidCoordinates is returned when latitude or longitude is out of range.
	ErrInvalidCoordinates = errors.New("invalid coordinates")
	// ErrInvalidRating is returned when a rating is outside 1 to 5.
	ErrInvalidRating = errors.New("rating must be between 1 and 5")
	// ErrInvalidTitle is returned when an event or campaign title is empty.
	ErrInvalidTitle = errors.New("title is required")
	// ErrInvalidPrayerTimes is returned when a required prayer time is missing.
	ErrInvalidPrayerTimes = errors.New("all five daily prayer times are required")
)

const pgUniqueViolation = "23505"

// Manager handles business logic for mosques and their dependent records.
type Manager struct {
	ds *Datastore
}

// NewManager creates a new mosque manager.
func NewManager(ds *Datastore) *Manager {
	return &Manager{ds: ds}
}

// CreateInput is the payload for registering a mosque.
type CreateInput struct {
	AdminID     uuid.UUID
	Name        string
	Description string
	Address     string
	City        string
	Country     string
	Latitude    float64
	Longitude   float64
	Phone       string
	Website     string
	ImageURL    string
}

// Create registers a new mosque owned by an admin. The mosque starts
// unverified and is excluded from the public directory until approved.
// The database enforces one mosque per admin; a conflict maps to
// ErrAlreadyOwned rather than being pre-checked, so concurrent
// registrations cannot race past the rule.
func (m *Manager) Create(ctx context.Context, input CreateInput) (*Mosque, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrInvalidName
	}
	if strings.TrimSpace(input.Address) == "" {
		return nil, ErrInvalidAddress
	}
	if !validCoordinates(input.Latitude, input.Longitude) {
		return nil, ErrInvalidCoordinates
	}

	mosque := &Mosque{
		AdminID:     uuid.NullUUID{UUID: input.AdminID, Valid: true},
		Name:        name,
		Description: input.Description,
		Address:     strings.TrimSpace(input.Address),
		City:        input.City,
		Country:     input.Country,
		Latitude:    input.Latitude,
		Longitude:   input.Longitude,
		Phone:       input.Phone,
		Website:     input.Website,
		ImageURL:    input.ImageURL,
		Verified:    false,
	}

	if err := m.ds.Create(ctx, mosque); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrAlreadyOwned
		}
		return nil, fmt.Errorf("failed to create mosque: %w", err)
	}
	return mosque, nil
}

// GetByID retrieves a mosque by id.
func (m *Manager) GetByID(ctx context.Context, id uuid.UUID) (*Mosque, error) {
	mosque, err := m.ds.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get mosque: %w", err)
	}
	return mosque, nil
}

// GetByAdminID retrieves the mosque owned by an admin user.
func (m *Manager) GetByAdminID(ctx context.Context, adminID uuid.UUID) (*Mosque, error) {
	mosque, err := m.ds.GetByAdminID(ctx, adminID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get mosque by admin: %w", err)
	}
	return mosque, nil
}

// ListVerified retrieves the public directory of verified mosques.
func (m *Manager) ListVerified(ctx context.Context) ([]*Mosque, error) {
	mosques, err := m.ds.ListVerified(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list mosques: %w", err)
	}
	return mosques, nil
}

// ListAll retrieves all mosques, verified or not, for the admin surface.
func (m *Manager) ListAll(ctx context.Context, limit, offset int) ([]*Mosque, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	mosques, err := m.ds.ListAll(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list mosques: %w", err)
	}
	return mosques, nil
}

// UpdateDetails replaces the profile fields of the mosque owned by adminID.
// Profile edits are allowed before verification so a pending registration
// can be corrected.
func (m *Manager) UpdateDetails(ctx context.Context, adminID uuid.UUID, input CreateInput) (*Mosque, error) {
	mosque, err := m.GetByAdminID(ctx, adminID)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrInvalidName
	}
	if strings.TrimSpace(input.Address) == "" {
		return nil, ErrInvalidAddress
	}
	if !validCoordinates(input.Latitude, input.Longitude) {
		return nil, ErrInvalidCoordinates
	}

	mosque.Name = name
	mosque.Description = input.Description
	mosque.Address = strings.TrimSpace(input.Address)
	mosque.City = input.City
	mosque.Country = input.Country
	mosque.Latitude = input.Latitude
	mosque.Longitude = input.Longitude
	mosque.Phone = input.Phone
	mosque.Website = input.Website
	mosque.ImageURL = input.ImageURL

	rows, err := m.ds.UpdateDetails(ctx, mosque)
	if err != nil {
		return nil, fmt.Errorf("failed to update mosque: %w", err)
	}
	if rows == 0 {
		return nil, ErrNotFound
	}
	return mosque, nil
}

// SetVerified approves or revokes a mosque's public listing.
func (m *Manager) SetVerified(ctx context.Context, id uuid.UUID, verified bool) error {
	rows, err := m.ds.SetVerified(ctx, id, verified)
	if err != nil {
		return fmt.Errorf("failed to update verification: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a mosque and its dependent records.
func (m *Manager) Delete(ctx context.Context, id uuid.UUID) error {
	rows, err := m.ds.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete mosque: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// detailListLimit bounds the dependent lists assembled into a detail view.
const detailListLimit = 20

// GetDetail assembles the public detail view of a verified mosque. Only
// verified mosques are visible here; unverified ones read as not found.
func (m *Manager) GetDetail(ctx context.Context, id uuid.UUID) (*Detail, error) {
	mosque, err := m.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !mosque.Verified {
		return nil, ErrNotFound
	}

	detail := &Detail{Mosque: mosque}

	pt, err := m.ds.GetPrayerTimes(ctx, id)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to get prayer times: %w", err)
	}
	detail.PrayerTimes = pt

	if detail.Events, err = m.ds.ListUpcomingEvents(ctx, id, detailListLimit); err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	if detail.Charity, err = m.ds.ListCampaigns(ctx, id, detailListLimit); err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	if detail.Ratings, err = m.ds.ListRatings(ctx, id); err != nil {
		return nil, fmt.Errorf("failed to list ratings: %w", err)
	}
	return detail, nil
}

// Nearest ranks verified mosques by great-circle distance from a point.
// The directory is small enough to rank in memory.
func (m *Manager) Nearest(ctx context.Context, lat, lng float64, limit int) ([]*Nearby, error) {
	if !validCoordinates(lat, lng) {
		return nil, ErrInvalidCoordinates
	}
	if limit <= 0 {
		limit = 5
	}

	mosques, err := m.ds.ListVerified(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list mosques: %w", err)
	}

	nearby := make([]*Nearby, 0, len(mosques))
	for _, mosque := range mosques {
		nearby = append(nearby, &Nearby{
			Mosque:     mosque,
			DistanceKm: DistanceKm(lat, lng, mosque.Latitude, mosque.Longitude),
		})
	}
	sort.Slice(nearby, func(i, j int) bool { return nearby[i].DistanceKm < nearby[j].DistanceKm })

	if len(nearby) > limit {
		nearby = nearby[:limit]
	}
	return nearby, nil
}

// --- Management writes, gated on ownership and verification ---

// requireOwnedVerified loads the mosque owned by adminID and refuses
// management writes until a super admin has verified it.
func (m *Manager) requireOwnedVerified(ctx context.Context, adminID uuid.UUID) (*Mosque, error) {
	mosque, err := m.GetByAdminID(ctx, adminID)
	if err != nil {
		return nil, err
	}
	if !mosque.Verified {
		return nil, ErrNotVerified
	}
	return mosque, nil
}

// PrayerTimesInput is the payload for saving a mosque's daily schedule.
type PrayerTimesInput struct {
	Fajr    string
	Dhuhr   string
	Asr     string
	Maghrib string
	Isha    string
	Jummah  string
}

// SavePrayerTimes replaces the schedule of the mosque owned by adminID.
func (m *Manager) SavePrayerTimes(ctx context.Context, adminID uuid.UUID, input PrayerTimesInput) (*PrayerTimes, error) {
	mosque, err := m.requireOwnedVerified(ctx, adminID)
	if err != nil {
		return nil, err
	}

	for _, t := range []string{input.Fajr, input.Dhuhr, input.Asr, input.Maghrib, input.Isha} {
		if strings.TrimSpace(t) == "" {
			return nil, ErrInvalidPrayerTimes
		}
	}

	pt := &PrayerTimes{
		MosqueID: mosque.ID,
		Fajr:     input.Fajr,
		Dhuhr:    input.Dhuhr,
		Asr:      input.Asr,
		Maghrib:  input.Maghrib,
		Isha:     input.Isha,
		Jummah:   input.Jummah,
	}
	if err := m.ds.UpsertPrayerTimes(ctx, pt); err != nil {
		return nil, fmt.Errorf("failed to save prayer times: %w", err)
	}
	return pt, nil
}

// GetOwnedPrayerTimes retrieves the schedule of the mosque owned by adminID.
func (m *Manager) GetOwnedPrayerTimes(ctx context.Context, adminID uuid.UUID) (*PrayerTimes, error) {
	mosque, err := m.GetByAdminID(ctx, adminID)
	if err != nil {
		return nil, err
	}

	pt, err := m.ds.GetPrayerTimes(ctx, mosque.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get prayer times: %w", err)
	}
	return pt, nil
}

// CreateEvent adds an event to the mosque owned by adminID.
func (m *Manager) CreateEvent(ctx context.Context, adminID uuid.UUID, e *Event) (*Event, error) {
	mosque, err := m.requireOwnedVerified(ctx, adminID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(e.Title) == "" {
		return nil, ErrInvalidTitle
	}

	e.MosqueID = mosque.ID
	if err := m.ds.CreateEvent(ctx, e); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}
	return e, nil
}

// ListOwnedEvents retrieves upcoming events for the mosque owned by adminID.
func (m *Manager) ListOwnedEvents(ctx context.Context, adminID uuid.UUID) ([]*Event, error) {
	mosque, err := m.GetByAdminID(ctx, adminID)
	if err != nil {
		return nil, err
	}

	events, err := m.ds.ListUpcomingEvents(ctx, mosque.ID, detailListLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}

// DeleteEvent removes an event from the mosque owned by adminID.
func (m *Manager) DeleteEvent(ctx context.Context, adminID, eventID uuid.UUID) error {
	mosque, err := m.GetByAdminID(ctx, adminID)
	if err != nil {
		return err
	}

	rows, err := m.ds.DeleteEvent(ctx, eventID, mosque.ID)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateCampaign adds a charity campaign to the mosque owned by adminID.
func (m *Manager) CreateCampaign(ctx context.Context, adminID uuid.UUID, c *CharityCampaign) (*CharityCampaign, error) {
	mosque, err := m.requireOwnedVerified(ctx, adminID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(c.Title) == "" {
		return nil, ErrInvalidTitle
	}

	c.MosqueID = mosque.ID
	if err := m.ds.CreateCampaign(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to create campaign: %w", err)
	}
	return c, nil
}

// ListOwnedCampaigns retrieves campaigns for the mosque owned by adminID.
func (m *Manager) ListOwnedCampaigns(ctx context.Context, adminID uuid.UUID) ([]*CharityCampaign, error) {
	mosque, err := m.GetByAdminID(ctx, adminID)
	if err != nil {
		return nil, err
	}

	campaigns, err := m.ds.ListCampaigns(ctx, mosque.ID, detailListLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	return campaigns, nil
}

// DeleteCampaign removes a campaign from the mosque owned by adminID.
func (m *Manager) DeleteCampaign(ctx context.Context, adminID, campaignID uuid.UUID) error {
	mosque, err := m.GetByAdminID(ctx, adminID)
	if err != nil {
		return err
	}

	rows, err := m.ds.DeleteCampaign(ctx, campaignID, mosque.ID)
	if err != nil {
		return fmt.Errorf("failed to delete campaign: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Community engagement ---

// ToggleFollow flips a user's follow state for a verified mosque and
// reports the resulting state, true when now following.
func (m *Manager) ToggleFollow(ctx context.Context, userID, mosqueID uuid.UUID) (bool, error) {
	mosque, err := m.GetByID(ctx, mosqueID)
	if err != nil {
		return false, err
	}
	if !mosque.Verified {
		return false, ErrNotFound
	}

	following, err := m.ds.IsFollowing(ctx, userID, mosqueID)
	if err != nil {
		return false, fmt.Errorf("failed to check follow state: %w", err)
	}

	if following {
		if _, err := m.ds.DeleteFollow(ctx, userID, mosqueID); err != nil {
			return false, fmt.Errorf("failed to unfollow: %w", err)
		}
		return false, nil
	}

	if err := m.ds.InsertFollow(ctx, userID, mosqueID); err != nil {
		return false, fmt.Errorf("failed to follow: %w", err)
	}
	return true, nil
}

// IsFollowing reports whether a user follows a mosque.
func (m *Manager) IsFollowing(ctx context.Context, userID, mosqueID uuid.UUID) (bool, error) {
	following, err := m.ds.IsFollowing(ctx, userID, mosqueID)
	if err != nil {
		return false, fmt.Errorf("failed to check follow state: %w", err)
	}
	return following, nil
}

// ListFollowed retrieves the mosques a user follows.
func (m *Manager) ListFollowed(ctx context.Context, userID uuid.UUID) ([]*Mosque, error) {
	mosques, err := m.ds.ListFollowed(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list followed mosques: %w", err)
	}
	return mosques, nil
}

// Rate saves a user's rating of a verified mosque, replacing any prior one.
func (m *Manager) Rate(ctx context.Context, userID, mosqueID uuid.UUID, rating int, comment string) (*Rating, error) {
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}

	mosque, err := m.GetByID(ctx, mosqueID)
	if err != nil {
		return nil, err
	}
	if !mosque.Verified {
		return nil, ErrNotFound
	}

	r := &Rating{
		MosqueID: mosqueID,
		UserID:   userID,
		Rating:   rating,
		Comment:  comment,
	}
	if err := m.ds.UpsertRating(ctx, r); err != nil {
		return nil, fmt.Errorf("failed to save rating: %w", err)
	}
	return r, nil
}

func validCoordinates(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
