package identity

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Lifecycle event types delivered by the provider.
const (
	EventUserCreated = "user.created"
	EventUserUpdated = "user.updated"
	EventUserDeleted = "user.deleted"
)

// Webhook envelope headers. All three must be present before any payload
// parsing happens.
const (
	HeaderWebhookID        = "webhook-id"
	HeaderWebhookTimestamp = "webhook-timestamp"
	HeaderWebhookSignature = "webhook-signature"
)

// Sentinel errors for webhook envelope verification failures.
var (
	ErrMissingWebhookHeaders = errors.New("missing webhook headers")
	ErrInvalidSignature      = errors.New("webhook signature verification failed")
	ErrTimestampOutOfRange   = errors.New("webhook timestamp outside tolerance")
)

// DefaultWebhookTolerance bounds how far a delivery timestamp may drift from
// the server clock before the envelope is rejected as a replay.
const DefaultWebhookTolerance = 5 * time.Minute

const webhookSecretPrefix = "whsec_"

// WebhookVerifier verifies signed webhook envelopes. The provider signs
// "<id>.<timestamp>.<payload>" with HMAC-SHA256 over a shared secret and
// sends the base64 signature in a space-separated "v1,<sig>" header, so a
// single header can carry signatures for rotated secrets.
type WebhookVerifier struct {
	secret    []byte
	tolerance time.Duration
	now       func() time.Time
}

// NewWebhookVerifier creates a verifier from the shared secret as configured
// at the provider ("whsec_" prefix followed by the base64 key).
func NewWebhookVerifier(secret string) (*WebhookVerifier, error) {
	raw := strings.TrimPrefix(secret, webhookSecretPrefix)
	if raw == "" {
		return nil, errors.New("webhook secret is required")
	}

	key, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("webhook secret must be base64: %w", err)
	}

	return &WebhookVerifier{
		secret:    key,
		tolerance: DefaultWebhookTolerance,
		now:       time.Now,
	}, nil
}

// Verify checks the envelope signature for a delivery. It must be called with
// the raw request body before the payload is parsed. Returns nil only when a
// well-formed, timely, correctly signed envelope is presented.
func (v *WebhookVerifier) Verify(payload []byte, msgID, timestamp, signatureHeader string) error {
	if msgID == "" || timestamp == "" || signatureHeader == "" {
		return ErrMissingWebhookHeaders
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: malformed timestamp", ErrInvalidSignature)
	}

	drift := v.now().Sub(time.Unix(ts, 0))
	if drift > v.tolerance || drift < -v.tolerance {
		return ErrTimestampOutOfRange
	}

	mac := hmac.New(sha256.New, v.secret)
	fmt.Fprintf(mac, "%s.%s.", msgID, timestamp)
	mac.Write(payload)
	expected := mac.Sum(nil)

	// The header may carry several versioned signatures; any valid v1
	// signature accepts the delivery.
	for _, part := range strings.Fields(signatureHeader) {
		version, sig, found := strings.Cut(part, ",")
		if !found || version != "v1" {
			continue
		}

		decoded, err := base64.StdEncoding.DecodeString(sig)
		if err != nil {
			continue
		}

		if hmac.Equal(decoded, expected) {
			return nil
		}
	}

	return ErrInvalidSignature
}

// Event is a verified lifecycle event from the provider.
type Event struct {
	Type string      `json:"type"`
	Data userPayload `json:"data"`
}

// Identity returns the provider identity carried in the event payload.
func (e *Event) Identity() *Identity {
	return e.Data.toIdentity()
}

// ParseEvent decodes a verified webhook payload into an Event.
func ParseEvent(payload []byte) (*Event, error) {
	var evt Event
	if err := json.Unmarshal(payload, &evt); err != nil {
		return nil, fmt.Errorf("failed to decode webhook event: %w", err)
	}
	if evt.Type == "" {
		return nil, errors.New("webhook event has no type")
	}
	return &evt, nil
}
