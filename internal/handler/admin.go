package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"mosqueconnect/internal/mosque"
	"mosqueconnect/internal/user"

	"github.com/google/uuid"
)

// AdminHandler serves the super admin surface: user oversight and mosque
// verification.
type AdminHandler struct {
	users   *user.Manager
	mosques *mosque.Manager
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(users *user.Manager, mosques *mosque.Manager) *AdminHandler {
	return &AdminHandler{users: users, mosques: mosques}
}

// ListUsers handles GET /api/v1/admin/users
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	users, err := h.users.List(r.Context(), limit, offset)
	if err != nil {
		log.Printf("failed to list users: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list users")
		return
	}
	if users == nil {
		users = []*user.User{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"users": users,
		"count": len(users),
	})
}

// GetUser handles GET /api/v1/admin/users/{id}
func (h *AdminHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user ID")
		return
	}

	u, err := h.users.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		log.Printf("failed to get user: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to get user")
		return
	}

	writeJSON(w, http.StatusOK, u)
}

// ListMosques handles GET /api/v1/admin/mosques
//
// Unlike the public directory this includes unverified mosques, which is
// the verification queue.
func (h *AdminHandler) ListMosques(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	mosques, err := h.mosques.ListAll(r.Context(), limit, offset)
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

// ApproveMosque handles POST /api/v1/admin/mosques/{id}/approve
func (h *AdminHandler) ApproveMosque(w http.ResponseWriter, r *http.Request) {
	h.setVerified(w, r, true)
}

// RevokeMosque handles POST /api/v1/admin/mosques/{id}/revoke
func (h *AdminHandler) RevokeMosque(w http.ResponseWriter, r *http.Request) {
	h.setVerified(w, r, false)
}

func (h *AdminHandler) setVerified(w http.ResponseWriter, r *http.Request, verified bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid mosque ID")
		return
	}

	if err := h.mosques.SetVerified(r.Context(), id, verified); err != nil {
		if errors.Is(err, mosque.ErrNotFound) {
			writeError(w, http.StatusNotFound, "mosque not found")
			return
		}
		log.Printf("failed to update verification: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to update verification")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"id": id, "verified": verified})
}

// DeleteMosque handles DELETE /api/v1/admin/mosques/{id}
func (h *AdminHandler) DeleteMosque(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid mosque ID")
		return
	}

	if err := h.mosques.Delete(r.Context(), id); err != nil {
		if errors.Is(err, mosque.ErrNotFound) {
			writeError(w, http.StatusNotFound, "mosque not found")
			return
		}
		log.Printf("failed to delete mosque: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to delete mosque")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
