package middleware

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"mosqueconnect/internal/identity"
	"mosqueconnect/internal/role"
	"mosqueconnect/internal/user"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		want    string
		wantErr error
	}{
		{"valid", "Bearer tok_123", "tok_123", nil},
		{"missing header", "", "", ErrMissingAuthHeader},
		{"wrong scheme", "Basic abc", "", ErrInvalidAuthScheme},
		{"empty token", "Bearer ", "", ErrEmptyToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			got, err := ExtractBearerToken(req)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected error %v, got %v", tt.wantErr, err)
			}
			if got != tt.want {
				t.Errorf("expected token %q, got %q", tt.want, got)
			}
		})
	}
}

type stubVerifier struct {
	claims *identity.SessionClaims
	err    error
}

func (s *stubVerifier) Verify(_ context.Context, _ string) (*identity.SessionClaims, error) {
	return s.claims, s.err
}

func sessionClaims(subject string) *identity.SessionClaims {
	return &identity.SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: subject},
	}
}

func TestRequireSession_AttachesClaims(t *testing.T) {
	verifier := &stubVerifier{claims: sessionClaims("user_abc")}

	var got *identity.SessionClaims
	handler := RequireSession(verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = GetClaims(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer tok_123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if got == nil || got.SubjectID() != "user_abc" {
		t.Error("expected claims attached to request context")
	}
}

func TestRequireSession_RejectsMissingHeader(t *testing.T) {
	handler := RequireSession(&stubVerifier{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestRequireSession_RejectsInvalidToken(t *testing.T) {
	verifier := &stubVerifier{err: errors.New("token expired")}
	handler := RequireSession(verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer bad")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func setupRoleTest(t *testing.T) (*user.Manager, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	return user.NewManager(user.NewDatastore(db)), mock, func() { db.Close() }
}

func userRow(subjectID, email string, r user.Role) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "subject_id", "email", "first_name", "last_name", "avatar_url", "role",
		"latitude", "longitude", "city", "country", "created_at", "updated_at",
	}).AddRow(uuid.New(), subjectID, email, "", "", "", string(r), nil, nil, "", "", now, now)
}

func withClaims(req *http.Request, subject string) *http.Request {
	ctx := context.WithValue(req.Context(), ClaimsContextKey, sessionClaims(subject))
	return req.WithContext(ctx)
}

func TestRequireRole_AllowsMatchingRole(t *testing.T) {
	users, mock, cleanup := setupRoleTest(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT .+ FROM users WHERE subject_id = \$1`).
		WithArgs("user_abc").
		WillReturnRows(userRow("user_abc", "a@x.com", user.RoleMosqueAdmin))

	handler := RequireRole(users, role.NewAllowlist(nil), user.RoleMosqueAdmin)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, withClaims(httptest.NewRequest(http.MethodGet, "/", nil), "user_abc"))

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestRequireRole_RejectsWrongRole(t *testing.T) {
	users, mock, cleanup := setupRoleTest(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT .+ FROM users WHERE subject_id = \$1`).
		WillReturnRows(userRow("user_abc", "a@x.com", user.RoleCommunityUser))

	handler := RequireRole(users, role.NewAllowlist(nil), user.RoleSuperAdmin)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("handler should not be reached")
		}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, withClaims(httptest.NewRequest(http.MethodGet, "/", nil), "user_abc"))

	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", rec.Code)
	}
}

func TestRequireRole_AllowlistCountsAsSuperAdmin(t *testing.T) {
	users, mock, cleanup := setupRoleTest(t)
	defer cleanup()

	// Stored role lags behind; the allowlist still opens the admin surface.
	mock.ExpectQuery(`SELECT .+ FROM users WHERE subject_id = \$1`).
		WillReturnRows(userRow("user_owner", "owner@y.com", user.RoleCommunityUser))

	handler := RequireRole(users, role.NewAllowlist([]string{"owner@y.com"}), user.RoleSuperAdmin)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, withClaims(httptest.NewRequest(http.MethodGet, "/", nil), "user_owner"))

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestRequireRole_NoUserRowForbidden(t *testing.T) {
	users, mock, cleanup := setupRoleTest(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT .+ FROM users WHERE subject_id = \$1`).
		WillReturnError(sql.ErrNoRows)

	handler := RequireRole(users, role.NewAllowlist(nil), user.RoleMosqueAdmin)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("handler should not be reached")
		}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, withClaims(httptest.NewRequest(http.MethodGet, "/", nil), "user_abc"))

	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", rec.Code)
	}
}

func TestRequireRole_NoClaimsUnauthorized(t *testing.T) {
	users, _, cleanup := setupRoleTest(t)
	defer cleanup()

	handler := RequireRole(users, role.NewAllowlist(nil), user.RoleMosqueAdmin)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("handler should not be reached")
		}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}
