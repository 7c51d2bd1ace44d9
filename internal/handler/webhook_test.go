package handler

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"database/sql"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"mosqueconnect/internal/identity"
	"mosqueconnect/internal/role"
	"mosqueconnect/internal/user"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
)

// base64 of "test-secret-key-12345678"
const testWebhookSecret = "whsec_dGVzdC1zZWNyZXQta2V5LTEyMzQ1Njc4"

func setupWebhookTest(t *testing.T) (*WebhookHandler, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}

	verifier, err := identity.NewWebhookVerifier(testWebhookSecret)
	if err != nil {
		t.Fatalf("failed to create verifier: %v", err)
	}

	users := user.NewManager(user.NewDatastore(db))
	syncer := role.NewSyncer(users, role.NewAllowlist(nil))
	return NewWebhookHandler(verifier, syncer), mock, func() { db.Close() }
}

func signedWebhookRequest(t *testing.T, payload string) *http.Request {
	t.Helper()

	msgID := "msg_123"
	timestamp := strconv.FormatInt(time.Now().Unix(), 10)

	key, err := base64.StdEncoding.DecodeString("dGVzdC1zZWNyZXQta2V5LTEyMzQ1Njc4")
	if err != nil {
		t.Fatalf("failed to decode secret: %v", err)
	}
	mac := hmac.New(sha256.New, key)
	fmt.Fprintf(mac, "%s.%s.%s", msgID, timestamp, payload)
	sig := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/identity", bytes.NewBufferString(payload))
	req.Header.Set(identity.HeaderWebhookID, msgID)
	req.Header.Set(identity.HeaderWebhookTimestamp, timestamp)
	req.Header.Set(identity.HeaderWebhookSignature, "v1,"+sig)
	return req
}

func webhookUserRow(subjectID string, r user.Role) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "subject_id", "email", "first_name", "last_name", "avatar_url", "role",
		"latitude", "longitude", "city", "country", "created_at", "updated_at",
	}).AddRow(uuid.New(), subjectID, "a@x.com", "", "", "", string(r), nil, nil, "", "", now, now)
}

func TestWebhookHandler_CreatedEvent(t *testing.T) {
	handler, mock, cleanup := setupWebhookTest(t)
	defer cleanup()

	mock.ExpectQuery(`INSERT INTO users`).
		WillReturnRows(webhookUserRow("user_abc", user.RoleCommunityUser))

	payload := `{"type": "user.created", "data": {"id": "user_abc", "email_addresses": [{"email_address": "a@x.com"}]}}`
	rec := httptest.NewRecorder()
	handler.Handle(rec, signedWebhookRequest(t, payload))

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestWebhookHandler_ForgedSignatureRejectedBeforeParsing(t *testing.T) {
	handler, mock, cleanup := setupWebhookTest(t)
	defer cleanup()

	payload := `{"type": "user.created", "data": {"id": "user_abc"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/identity", bytes.NewBufferString(payload))
	req.Header.Set(identity.HeaderWebhookID, "msg_123")
	req.Header.Set(identity.HeaderWebhookTimestamp, strconv.FormatInt(time.Now().Unix(), 10))
	req.Header.Set(identity.HeaderWebhookSignature, "v1,Zm9yZ2VkIHNpZ25hdHVyZQ==")

	rec := httptest.NewRecorder()
	handler.Handle(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", rec.Code)
	}
	// Nothing reached the store.
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unexpected store activity: %v", err)
	}
}

func TestWebhookHandler_MissingHeaders(t *testing.T) {
	handler, _, cleanup := setupWebhookTest(t)
	defer cleanup()

	payload := `{"type": "user.created", "data": {"id": "user_abc"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/identity", bytes.NewBufferString(payload))

	rec := httptest.NewRecorder()
	handler.Handle(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}
}

func TestWebhookHandler_MalformedPayloadAfterValidSignature(t *testing.T) {
	handler, _, cleanup := setupWebhookTest(t)
	defer cleanup()

	rec := httptest.NewRecorder()
	handler.Handle(rec, signedWebhookRequest(t, `not json`))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}
}

func TestWebhookHandler_PersistenceFailureReturns500(t *testing.T) {
	handler, mock, cleanup := setupWebhookTest(t)
	defer cleanup()

	mock.ExpectQuery(`INSERT INTO users`).
		WillReturnError(sql.ErrConnDone)

	payload := `{"type": "user.updated", "data": {"id": "user_abc"}}`
	rec := httptest.NewRecorder()
	handler.Handle(rec, signedWebhookRequest(t, payload))

	// 500 tells the provider to redeliver; the upsert is idempotent.
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", rec.Code)
	}
}

func TestWebhookHandler_DeletedEvent(t *testing.T) {
	handler, mock, cleanup := setupWebhookTest(t)
	defer cleanup()

	mock.ExpectExec(`DELETE FROM users WHERE subject_id = \$1`).
		WithArgs("user_abc").
		WillReturnResult(sqlmock.NewResult(0, 1))

	payload := `{"type": "user.deleted", "data": {"id": "user_abc", "deleted": true}}`
	rec := httptest.NewRecorder()
	handler.Handle(rec, signedWebhookRequest(t, payload))

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}
