package handler

import (
	"errors"
	"io"
	"log"
	"net/http"

	"mosqueconnect/internal/identity"
	"mosqueconnect/internal/role"
)

// webhookBodyLimit bounds the accepted payload size. Provider events are
// small; anything near this size is not a legitimate delivery.
const webhookBodyLimit = 1 << 20

// WebhookHandler receives identity lifecycle events from the provider.
type WebhookHandler struct {
	verifier *identity.WebhookVerifier
	syncer   *role.Syncer
}

// NewWebhookHandler creates a new webhook handler.
func NewWebhookHandler(verifier *identity.WebhookVerifier, syncer *role.Syncer) *WebhookHandler {
	return &WebhookHandler{verifier: verifier, syncer: syncer}
}

// Handle processes POST /api/webhooks/identity.
//
// The signature is verified over the raw body before anything is parsed, so
// a forged or replayed delivery never reaches the store. A verified event
// that fails to persist returns 500 so the provider redelivers it; every
// write is idempotent by subject id, so redelivery is safe.
func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, webhookBodyLimit))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body")
		return
	}

	err = h.verifier.Verify(payload,
		r.Header.Get(identity.HeaderWebhookID),
		r.Header.Get(identity.HeaderWebhookTimestamp),
		r.Header.Get(identity.HeaderWebhookSignature),
	)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrMissingWebhookHeaders):
			writeError(w, http.StatusBadRequest, "missing webhook headers")
		case errors.Is(err, identity.ErrTimestampOutOfRange):
			writeError(w, http.StatusUnauthorized, "webhook timestamp out of tolerance")
		default:
			writeError(w, http.StatusUnauthorized, "invalid webhook signature")
		}
		return
	}

	evt, err := identity.ParseEvent(payload)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid webhook payload")
		return
	}

	if err := h.syncer.Apply(r.Context(), evt); err != nil {
		log.Printf("webhook: failed to apply %s: %v", evt.Type, err)
		writeError(w, http.StatusInternalServerError, "failed to process event")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"received": evt.Type})
}
