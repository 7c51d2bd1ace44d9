package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"mosqueconnect/internal/mosque"
	"mosqueconnect/internal/notification"
	"mosqueconnect/internal/user"

	"github.com/google/uuid"
)

// MeHandler serves the authenticated user's own profile and preferences.
type MeHandler struct {
	users         *user.Manager
	mosques       *mosque.Manager
	notifications *notification.Manager
}

// NewMeHandler creates a new me handler.
func NewMeHandler(users *user.Manager, mosques *mosque.Manager, notifications *notification.Manager) *MeHandler {
	return &MeHandler{users: users, mosques: mosques, notifications: notifications}
}

// Get handles GET /api/v1/me
func (h *MeHandler) Get(w http.ResponseWriter, r *http.Request) {
	u, err := currentUser(r, h.users)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		log.Printf("failed to load current user: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to load user")
		return
	}

	writeJSON(w, http.StatusOK, u)
}

// UpdateLocation handles POST /api/v1/me/location
//
// Location capture completes community onboarding; after this the user
// lands on their dashboard instead of the location form.
func (h *MeHandler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	u, err := currentUser(r, h.users)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		log.Printf("failed to load current user: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to load user")
		return
	}

	var loc user.Location
	if err := json.NewDecoder(r.Body).Decode(&loc); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if err := h.users.UpdateLocation(r.Context(), u.ID, loc); err != nil {
		switch {
		case errors.Is(err, user.ErrInvalidCoordinates):
			writeError(w, http.StatusBadRequest, "invalid coordinates")
		case errors.Is(err, user.ErrNotFound):
			writeError(w, http.StatusNotFound, "user not found")
		default:
			log.Printf("failed to update location: %v", err)
			writeError(w, http.StatusInternalServerError, "failed to update location")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// dashboardNearbyLimit is the number of nearest mosques shown on the
// community dashboard.
const dashboardNearbyLimit = 5

// Dashboard handles GET /api/v1/community/dashboard
//
// The dashboard combines the mosques the user follows with the nearest
// verified mosques around their saved location. Without a location the
// nearby list is empty rather than an error.
func (h *MeHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	u, err := currentUser(r, h.users)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		log.Printf("failed to load current user: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to load user")
		return
	}

	followed, err := h.mosques.ListFollowed(r.Context(), u.ID)
	if err != nil {
		log.Printf("failed to list followed mosques: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to load dashboard")
		return
	}

	nearby := []*mosque.Nearby{}
	if u.HasLocation() {
		nearby, err = h.mosques.Nearest(r.Context(), *u.Latitude, *u.Longitude, dashboardNearbyLimit)
		if err != nil {
			log.Printf("failed to rank nearby mosques: %v", err)
			writeError(w, http.StatusInternalServerError, "failed to load dashboard")
			return
		}
	}
	if followed == nil {
		followed = []*mosque.Mosque{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user":     u,
		"followed": followed,
		"nearby":   nearby,
	})
}

// ListNotifications handles GET /api/v1/me/notifications
func (h *MeHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	u, err := currentUser(r, h.users)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		log.Printf("failed to load current user: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to load user")
		return
	}

	prefs, err := h.notifications.ListByUser(r.Context(), u.ID)
	if err != nil {
		log.Printf("failed to list notification preferences: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list preferences")
		return
	}
	if prefs == nil {
		prefs = []*notification.Preferences{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"preferences": prefs,
		"count":       len(prefs),
	})
}

// GetNotifications handles GET /api/v1/me/notifications/{mosqueID}
//
// Answers with defaults (everything on) when the user never saved
// preferences for this mosque.
func (h *MeHandler) GetNotifications(w http.ResponseWriter, r *http.Request) {
	u, err := currentUser(r, h.users)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		log.Printf("failed to load current user: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to load user")
		return
	}

	mosqueID, err := uuid.Parse(r.PathValue("mosqueID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid mosque ID")
		return
	}

	prefs, err := h.notifications.Get(r.Context(), u.ID, mosqueID)
	if err != nil {
		log.Printf("failed to get notification preferences: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to get preferences")
		return
	}

	writeJSON(w, http.StatusOK, prefs)
}

// saveNotificationsRequest is the JSON request for saving preferences.
type saveNotificationsRequest struct {
	MosqueID    string `json:"mosque_id"`
	PrayerTimes bool   `json:"prayer_times"`
	Events      bool   `json:"events"`
	Charity     bool   `json:"charity"`
}

// SaveNotifications handles PUT /api/v1/me/notifications
func (h *MeHandler) SaveNotifications(w http.ResponseWriter, r *http.Request) {
	u, err := currentUser(r, h.users)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		log.Printf("failed to load current user: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to load user")
		return
	}

	var req saveNotificationsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	mosqueID, err := uuid.Parse(req.MosqueID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid mosque ID")
		return
	}

	prefs, err := h.notifications.Save(r.Context(), u.ID, notification.SaveInput{
		MosqueID:    mosqueID,
		PrayerTimes: req.PrayerTimes,
		Events:      req.Events,
		Charity:     req.Charity,
	})
	if err != nil {
		log.Printf("failed to save notification preferences: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to save preferences")
		return
	}

	writeJSON(w, http.StatusOK, prefs)
}
