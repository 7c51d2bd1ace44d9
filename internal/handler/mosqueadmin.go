package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"mosqueconnect/internal/mosque"
	"mosqueconnect/internal/user"

	"github.com/google/uuid"
)

// MosqueAdminHandler serves the management surface for the mosque owned by
// the authenticated admin. Every operation is scoped to that one mosque;
// there is no way to name another mosque's id.
type MosqueAdminHandler struct {
	users   *user.Manager
	mosques *mosque.Manager
}

// NewMosqueAdminHandler creates a new mosque admin handler.
func NewMosqueAdminHandler(users *user.Manager, mosques *mosque.Manager) *MosqueAdminHandler {
	return &MosqueAdminHandler{users: users, mosques: mosques}
}

// admin resolves the authenticated admin's user row, writing the error
// response itself when that fails.
func (h *MosqueAdminHandler) admin(w http.ResponseWriter, r *http.Request) (*user.User, bool) {
	u, err := currentUser(r, h.users)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return nil, false
		}
		log.Printf("failed to load current user: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to load user")
		return nil, false
	}
	return u, true
}

// writeManagementError maps the shared ownership and verification failures.
func writeManagementError(w http.ResponseWriter, err error, action string) {
	switch {
	case errors.Is(err, mosque.ErrNotFound):
		writeError(w, http.StatusNotFound, "no mosque registered for this admin")
	case errors.Is(err, mosque.ErrNotVerified):
		writeError(w, http.StatusForbidden, "mosque is awaiting verification")
	default:
		log.Printf("failed to %s: %v", action, err)
		writeError(w, http.StatusInternalServerError, "failed to "+action)
	}
}

// GetMosque handles GET /api/v1/mosque
func (h *MosqueAdminHandler) GetMosque(w http.ResponseWriter, r *http.Request) {
	u, ok := h.admin(w, r)
	if !ok {
		return
	}

	m, err := h.mosques.GetByAdminID(r.Context(), u.ID)
	if err != nil {
		writeManagementError(w, err, "get mosque")
		return
	}

	writeJSON(w, http.StatusOK, m)
}

// UpdateMosque handles PUT /api/v1/mosque
func (h *MosqueAdminHandler) UpdateMosque(w http.ResponseWriter, r *http.Request) {
	u, ok := h.admin(w, r)
	if !ok {
		return
	}

	var req registerMosqueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	m, err := h.mosques.UpdateDetails(r.Context(), u.ID, mosque.CreateInput{
		Name:        req.Name,
		Description: req.Description,
		Address:     req.Address,
		City:        req.City,
		Country:     req.Country,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		Phone:       req.Phone,
		Website:     req.Website,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		switch {
		case errors.Is(err, mosque.ErrInvalidName):
			writeError(w, http.StatusBadRequest, "name is required")
		case errors.Is(err, mosque.ErrInvalidAddress):
			writeError(w, http.StatusBadRequest, "address is required")
		case errors.Is(err, mosque.ErrInvalidCoordinates):
			writeError(w, http.StatusBadRequest, "invalid coordinates")
		default:
			writeManagementError(w, err, "update mosque")
		}
		return
	}

	writeJSON(w, http.StatusOK, m)
}

// prayerTimesRequest is the JSON request for saving the daily schedule.
type prayerTimesRequest struct {
	Fajr    string `json:"fajr"`
	Dhuhr   string `json:"dhuhr"`
	Asr     string `json:"asr"`
	Maghrib string `json:"maghrib"`
	Isha    string `json:"isha"`
	Jummah  string `json:"jummah"`
}

// GetPrayerTimes handles GET /api/v1/mosque/prayer-times
func (h *MosqueAdminHandler) GetPrayerTimes(w http.ResponseWriter, r *http.Request) {
	u, ok := h.admin(w, r)
	if !ok {
		return
	}

	pt, err := h.mosques.GetOwnedPrayerTimes(r.Context(), u.ID)
	if err != nil {
		if errors.Is(err, mosque.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no prayer times set")
			return
		}
		log.Printf("failed to get prayer times: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to get prayer times")
		return
	}

	writeJSON(w, http.StatusOK, pt)
}

// SavePrayerTimes handles PUT /api/v1/mosque/prayer-times
func (h *MosqueAdminHandler) SavePrayerTimes(w http.ResponseWriter, r *http.Request) {
	u, ok := h.admin(w, r)
	if !ok {
		return
	}

	var req prayerTimesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	pt, err := h.mosques.SavePrayerTimes(r.Context(), u.ID, mosque.PrayerTimesInput{
		Fajr:    req.Fajr,
		Dhuhr:   req.Dhuhr,
		Asr:     req.Asr,
		Maghrib: req.Maghrib,
		Isha:    req.Isha,
		Jummah:  req.Jummah,
	})
	if err != nil {
		if errors.Is(err, mosque.ErrInvalidPrayerTimes) {
			writeError(w, http.StatusBadRequest, "all five daily prayer times are required")
			return
		}
		writeManagementError(w, err, "save prayer times")
		return
	}

	writeJSON(w, http.StatusOK, pt)
}

// ListEvents handles GET /api/v1/mosque/events
func (h *MosqueAdminHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	u, ok := h.admin(w, r)
	if !ok {
		return
	}

	events, err := h.mosques.ListOwnedEvents(r.Context(), u.ID)
	if err != nil {
		writeManagementError(w, err, "list events")
		return
	}
	if events == nil {
		events = []*mosque.Event{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"events": events,
		"count":  len(events),
	})
}

// createEventRequest is the JSON request for creating an event.
type createEventRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	EventDate   time.Time `json:"event_date"`
	Location    string    `json:"location"`
}

// CreateEvent handles POST /api/v1/mosque/events
func (h *MosqueAdminHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	u, ok := h.admin(w, r)
	if !ok {
		return
	}

	var req createEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.EventDate.IsZero() {
		writeError(w, http.StatusBadRequest, "event_date is required")
		return
	}

	event, err := h.mosques.CreateEvent(r.Context(), u.ID, &mosque.Event{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		EventDate:   req.EventDate,
		Location:    req.Location,
	})
	if err != nil {
		if errors.Is(err, mosque.ErrInvalidTitle) {
			writeError(w, http.StatusBadRequest, "title is required")
			return
		}
		writeManagementError(w, err, "create event")
		return
	}

	writeJSON(w, http.StatusCreated, event)
}

// DeleteEvent handles DELETE /api/v1/mosque/events/{id}
func (h *MosqueAdminHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	u, ok := h.admin(w, r)
	if !ok {
		return
	}

	eventID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid event ID")
		return
	}

	if err := h.mosques.DeleteEvent(r.Context(), u.ID, eventID); err != nil {
		if errors.Is(err, mosque.ErrNotFound) {
			writeError(w, http.StatusNotFound, "event not found")
			return
		}
		log.Printf("failed to delete event: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to delete event")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ListCampaigns handles GET /api/v1/mosque/charity
func (h *MosqueAdminHandler) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	u, ok := h.admin(w, r)
	if !ok {
		return
	}

	campaigns, err := h.mosques.ListOwnedCampaigns(r.Context(), u.ID)
	if err != nil {
		writeManagementError(w, err, "list campaigns")
		return
	}
	if campaigns == nil {
		campaigns = []*mosque.CharityCampaign{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"campaigns": campaigns,
		"count":     len(campaigns),
	})
}

// createCampaignRequest is the JSON request for creating a charity campaign.
type createCampaignRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	GoalAmount  *float64   `json:"goal_amount"`
	EndDate     *time.Time `json:"end_date"`
}

// CreateCampaign handles POST /api/v1/mosque/charity
func (h *MosqueAdminHandler) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	u, ok := h.admin(w, r)
	if !ok {
		return
	}

	var req createCampaignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	campaign, err := h.mosques.CreateCampaign(r.Context(), u.ID, &mosque.CharityCampaign{
		Title:       req.Title,
		Description: req.Description,
		GoalAmount:  req.GoalAmount,
		EndDate:     req.EndDate,
	})
	if err != nil {
		if errors.Is(err, mosque.ErrInvalidTitle) {
			writeError(w, http.StatusBadRequest, "title is required")
			return
		}
		writeManagementError(w, err, "create campaign")
		return
	}

	writeJSON(w, http.StatusCreated, campaign)
}

// DeleteCampaign handles DELETE /api/v1/mosque/charity/{id}
func (h *MosqueAdminHandler) DeleteCampaign(w http.ResponseWriter, r *http.Request) {
	u, ok := h.admin(w, r)
	if !ok {
		return
	}

	campaignID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid campaign ID")
		return
	}

	if err := h.mosques.DeleteCampaign(r.Context(), u.ID, campaignID); err != nil {
		if errors.Is(err, mosque.ErrNotFound) {
			writeError(w, http.StatusNotFound, "campaign not found")
			return
		}
		log.Printf("failed to delete campaign: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to delete campaign")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
