package mosque

import (
	"time"

	"github.com/google/uuid"
)

// Mosque is a community mosque profile. A mosque is owned by at most one
// admin user and stays hidden from the public directory until a super admin
// verifies it.
type Mosque struct {
	ID          uuid.UUID     `json:"id"`
	AdminID     uuid.NullUUID `json:"-"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Address     string        `json:"address"`
	City        string        `json:"city,omitempty"`
	Country     string        `json:"country,omitempty"`
	Latitude    float64       `json:"latitude"`
	Longitude   float64       `json:"longitude"`
	Phone       string        `json:"phone,omitempty"`
	Website     string        `json:"website,omitempty"`
	ImageURL    string        `json:"image_url,omitempty"`
	Verified    bool          `json:"verified"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// PrayerTimes is the single daily schedule a mosque publishes.
// One row per mosque, replaced wholesale on save.
type PrayerTimes struct {
	ID        uuid.UUID `json:"id"`
	MosqueID  uuid.UUID `json:"mosque_id"`
	Fajr      string    `json:"fajr"`
	Dhuhr     string    `json:"dhuhr"`
	Asr       string    `json:"asr"`
	Maghrib   string    `json:"maghrib"`
	Isha      string    `json:"isha"`
	Jummah    string    `json:"jummah,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Event is a mosque-hosted community event.
type Event struct {
	ID          uuid.UUID `json:"id"`
	MosqueID    uuid.UUID `json:"mosque_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category,omitempty"`
	EventDate   time.Time `json:"event_date"`
	Location    string    `json:"location,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CharityCampaign is a fundraising campaign run by a mosque.
type CharityCampaign struct {
	ID            uuid.UUID  `json:"id"`
	MosqueID      uuid.UUID  `json:"mosque_id"`
	Title         string     `json:"title"`
	Description   string     `json:"description,omitempty"`
	GoalAmount    *float64   `json:"goal_amount,omitempty"`
	CurrentAmount float64    `json:"current_amount"`
	EndDate       *time.Time `json:"end_date,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Rating is a user's rating of a mosque, one per (mosque, user).
type Rating struct {
	ID        uuid.UUID `json:"id"`
	MosqueID  uuid.UUID `json:"mosque_id"`
	UserID    uuid.UUID `json:"user_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Nearby pairs a mosque with its great-circle distance from a reference
// point, in kilometers.
type Nearby struct {
	Mosque     *Mosque `json:"mosque"`
	DistanceKm float64 `json:"distance_km"`
}

// Detail is the public detail view of a mosque.
type Detail struct {
	Mosque      *Mosque            `json:"mosque"`
	PrayerTimes *PrayerTimes       `json:"prayer_times,omitempty"`
	Events      []*Event           `json:"events"`
	Charity     []*CharityCampaign `json:"charity"`
	Ratings     []*Rating          `json:"ratings"`
}
