package handler

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"
)

func HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]string{"status": "healthy"}); err != nil {
		log.Printf("failed to write health response: %v", err)
	}
}

// Pinger reports database reachability.
type Pinger interface {
	Health(ctx context.Context) error
}

// statusHandler reports service identity and database reachability.
func statusHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		dbStatus := "ok"
		status := "operational"
		if err := db.Health(ctx); err != nil {
			log.Printf("status: database unreachable: %v", err)
			dbStatus = "unreachable"
			status = "degraded"
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"service":  "mosqueconnect",
			"version":  "0.1.0",
			"status":   status,
			"database": dbStatus,
		})
	}
}
