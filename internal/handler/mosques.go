package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"mosqueconnect/internal/mosque"
	"mosqueconnect/internal/user"

	"github.com/google/uuid"
)

// MosquesHandler serves the public mosque directory and community
// engagement endpoints.
type MosquesHandler struct {
	users   *user.Manager
	mosques *mosque.Manager
}

// NewMosquesHandler creates a new mosques handler.
func NewMosquesHandler(users *user.Manager, mosques *mosque.Manager) *MosquesHandler {
	return &MosquesHandler{users: users, mosques: mosques}
}

// List handles GET /api/v1/mosques
func (h *MosquesHandler) List(w http.ResponseWriter, r *http.Request) {
	mosques, err := h.mosques.ListVerified(r.Context())
	if err != nil {
		log.Printf("failed to list mosques: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list mosques")
		return
	}
	if mosques == nil {
		mosques = []*mosque.Mosque{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"mosques": mosques,
		"count":   len(mosques),
	})
}

// Get handles GET /api/v1/mosques/{id}
func (h *MosquesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid mosque ID")
		return
	}

	detail, err := h.mosques.GetDetail(r.Context(), id)
	if err != nil {
		if errors.Is(err, mosque.ErrNotFound) {
			writeError(w, http.StatusNotFound, "mosque not found")
			return
		}
		log.Printf("failed to get mosque: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to get mosque")
		return
	}

	writeJSON(w, http.StatusOK, detail)
}

// Nearby handles GET /api/v1/mosques/nearby
func (h *MosquesHandler) Nearby(w http.ResponseWriter, r *http.Request) {
	lat, errLat := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lng, errLng := strconv.ParseFloat(r.URL.Query().Get("lng"), 64)
	if errLat != nil || errLng != nil {
		writeError(w, http.StatusBadRequest, "lat and lng are required")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	nearby, err := h.mosques.Nearest(r.Context(), lat, lng, limit)
	if err != nil {
		if errors.Is(err, mosque.ErrInvalidCoordinates) {
			writeError(w, http.StatusBadRequest, "invalid coordinates")
			return
		}
		log.Printf("failed to rank nearby mosques: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list nearby mosques")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"mosques": nearby,
		"count":   len(nearby),
	})
}

// registerMosqueRequest is the JSON request for registering a mosque.
type registerMosqueRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Address     string  `json:"address"`
	City        string  `json:"city"`
	Country     string  `json:"country"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Phone       string  `json:"phone"`
	Website     string  `json:"website"`
	ImageURL    string  `json:"image_url"`
}

// Register handles POST /api/v1/mosques
//
// Registration completes mosque admin onboarding. The caller becomes the
// owner; an admin who already owns a mosque gets 409 regardless of timing,
// the database enforces the rule.
func (h *MosquesHandler) Register(w http.ResponseWriter, r *http.Request) {
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

	var req registerMosqueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	m, err := h.mosques.Create(r.Context(), mosque.CreateInput{
		AdminID:     u.ID,
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
		case errors.Is(err, mosque.ErrAlreadyOwned):
			writeError(w, http.StatusConflict, "admin already owns a mosque")
		case errors.Is(err, mosque.ErrInvalidName):
			writeError(w, http.StatusBadRequest, "name is required")
		case errors.Is(err, mosque.ErrInvalidAddress):
			writeError(w, http.StatusBadRequest, "address is required")
		case errors.Is(err, mosque.ErrInvalidCoordinates):
			writeError(w, http.StatusBadRequest, "invalid coordinates")
		default:
			log.Printf("failed to register mosque: %v", err)
			writeError(w, http.StatusInternalServerError, "failed to register mosque")
		}
		return
	}

	writeJSON(w, http.StatusCreated, m)
}

// ToggleFollow handles POST /api/v1/mosques/{id}/follow
func (h *MosquesHandler) ToggleFollow(w http.ResponseWriter, r *http.Request) {
	u, mosqueID, ok := h.userAndMosqueID(w, r)
	if !ok {
		return
	}

	following, err := h.mosques.ToggleFollow(r.Context(), u.ID, mosqueID)
	if err != nil {
		if errors.Is(err, mosque.ErrNotFound) {
			writeError(w, http.StatusNotFound, "mosque not found")
			return
		}
		log.Printf("failed to toggle follow: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to toggle follow")
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"following": following})
}

// FollowStatus handles GET /api/v1/mosques/{id}/follow
func (h *MosquesHandler) FollowStatus(w http.ResponseWriter, r *http.Request) {
	u, mosqueID, ok := h.userAndMosqueID(w, r)
	if !ok {
		return
	}

	following, err := h.mosques.IsFollowing(r.Context(), u.ID, mosqueID)
	if err != nil {
		log.Printf("failed to check follow state: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to check follow state")
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"following": following})
}

// rateMosqueRequest is the JSON request for rating a mosque.
type rateMosqueRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// Rate handles POST /api/v1/mosques/{id}/ratings
func (h *MosquesHandler) Rate(w http.ResponseWriter, r *http.Request) {
	u, mosqueID, ok := h.userAndMosqueID(w, r)
	if !ok {
		return
	}

	var req rateMosqueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	rating, err := h.mosques.Rate(r.Context(), u.ID, mosqueID, req.Rating, req.Comment)
	if err != nil {
		switch {
		case errors.Is(err, mosque.ErrInvalidRating):
			writeError(w, http.StatusBadRequest, "rating must be between 1 and 5")
		case errors.Is(err, mosque.ErrNotFound):
			writeError(w, http.StatusNotFound, "mosque not found")
		default:
			log.Printf("failed to save rating: %v", err)
			writeError(w, http.StatusInternalServerError, "failed to save rating")
		}
		return
	}

	writeJSON(w, http.StatusOK, rating)
}

func (h *MosquesHandler) userAndMosqueID(w http.ResponseWriter, r *http.Request) (*user.User, uuid.UUID, bool) {
	u, err := currentUser(r, h.users)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return nil, uuid.Nil, false
		}
		log.Printf("failed to load current user: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to load user")
		return nil, uuid.Nil, false
	}

	mosqueID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid mosque ID")
		return nil, uuid.Nil, false
	}
	return u, mosqueID, true
}
