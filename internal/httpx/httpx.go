// Package httpx provides shared JSON response helpers.
package httpx

import (
	"encoding/json"
	"log"
	"net/http"
)

// APIError is the JSON error envelope.
type APIError struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains the error message and type.
type ErrorDetail struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("failed to write JSON response: %v", err)
	}
}

// WriteJSONError writes a JSON error response.
// Response format: {"error": {"message": "<message>", "type": "<errorType>"}}
func WriteJSONError(w http.ResponseWriter, status int, message, errorType string) {
	WriteJSON(w, status, APIError{
		Error: ErrorDetail{
			Message: message,
			Type:    errorType,
		},
	})
}

// WriteUnauthorized writes a 401 Unauthorized JSON response.
// Use when the Authorization header is missing, malformed, or invalid.
func WriteUnauthorized(w http.ResponseWriter) {
	WriteJSONError(w, http.StatusUnauthorized, "unauthorized", "authentication_error")
}

// WriteForbidden writes a 403 Forbidden JSON response.
// Use when the caller is authenticated but lacks the required role.
func WriteForbidden(w http.ResponseWriter) {
	WriteJSONError(w, http.StatusForbidden, "forbidden", "authentication_error")
}
