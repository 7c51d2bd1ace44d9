package user

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
)

func userRows(id uuid.UUID, subjectID, email string, role Role, now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "subject_id", "email", "first_name", "last_name", "avatar_url", "role",
		"latitude", "longitude", "city", "country", "created_at", "updated_at",
	}).AddRow(id, subjectID, email, "Amina", "Khan", "", string(role), nil, nil, "", "", now, now)
}

func TestManager_Upsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	ds := NewDatastore(db)
	mgr := NewManager(ds)
	ctx := context.Background()

	id := uuid.New()
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs(sqlmock.AnyArg(), "user_abc", "a@x.com", "Amina", "Khan", "", RoleMosqueAdmin, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(userRows(id, "user_abc", "a@x.com", RoleMosqueAdmin, now))

	u, err := mgr.Upsert(ctx, UpsertInput{
		SubjectID: "user_abc",
		Email:     "A@X.com",
		FirstName: "Amina",
		LastName:  "Khan",
		Role:      RoleMosqueAdmin,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if u.SubjectID != "user_abc" {
		t.Errorf("expected subject 'user_abc', got %q", u.SubjectID)
	}
	if u.Role != RoleMosqueAdmin {
		t.Errorf("expected role mosque_admin, got %q", u.Role)
	}
}

func TestManager_Upsert_EmptySubjectID(t *testing.T) {
	ds := NewDatastore(nil) // nil db is fine, we won't hit it
	mgr := NewManager(ds)

	_, err := mgr.Upsert(context.Background(), UpsertInput{Email: "a@x.com", Role: RoleCommunityUser})
	if err != ErrInvalidSubjectID {
		t.Errorf("expected ErrInvalidSubjectID, got %v", err)
	}
}

func TestManager_Upsert_InvalidRole(t *testing.T) {
	ds := NewDatastore(nil)
	mgr := NewManager(ds)

	_, err := mgr.Upsert(context.Background(), UpsertInput{SubjectID: "user_abc", Role: Role("owner")})
	if err != ErrInvalidRole {
		t.Errorf("expected ErrInvalidRole, got %v", err)
	}
}

func TestManager_GetBySubjectID_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	ds := NewDatastore(db)
	mgr := NewManager(ds)

	mock.ExpectQuery(`SELECT .+ FROM users WHERE subject_id = \$1`).
		WithArgs("user_missing").
		WillReturnError(sql.ErrNoRows)

	_, err = mgr.GetBySubjectID(context.Background(), "user_missing")
	if err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestManager_UpdateLocation(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	ds := NewDatastore(db)
	mgr := NewManager(ds)

	id := uuid.New()
	mock.ExpectExec(`UPDATE users`).
		WithArgs(id, 51.5074, -0.1278, "London", "UK", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = mgr.UpdateLocation(context.Background(), id, Location{
		Latitude:  51.5074,
		Longitude: -0.1278,
		City:      "London",
		Country:   "UK",
	})
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestManager_UpdateLocation_InvalidCoordinates(t *testing.T) {
	ds := NewDatastore(nil)
	mgr := NewManager(ds)

	err := mgr.UpdateLocation(context.Background(), uuid.New(), Location{Latitude: 120, Longitude: 0})
	if err != ErrInvalidCoordinates {
		t.Errorf("expected ErrInvalidCoordinates, got %v", err)
	}
}

func TestManager_UpdateLocation_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	ds := NewDatastore(db)
	mgr := NewManager(ds)

	mock.ExpectExec(`UPDATE users`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = mgr.UpdateLocation(context.Background(), uuid.New(), Location{Latitude: 0, Longitude: 0})
	if err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestManager_DeleteBySubjectID_Idempotent(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	ds := NewDatastore(db)
	mgr := NewManager(ds)

	// Zero rows affected is not an error: deletions can be redelivered.
	mock.ExpectExec(`DELETE FROM users WHERE subject_id = \$1`).
		WithArgs("user_gone").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := mgr.DeleteBySubjectID(context.Background(), "user_gone"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestManager_List_ClampsLimit(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	ds := NewDatastore(db)
	mgr := NewManager(ds)
	now := time.Now()

	mock.ExpectQuery(`SELECT .+ FROM users ORDER BY created_at DESC`).
		WithArgs(100, 0).
		WillReturnRows(userRows(uuid.New(), "user_abc", "a@x.com", RoleCommunityUser, now))

	users, err := mgr.List(context.Background(), 500, -1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(users) != 1 {
		t.Errorf("expected 1 user, got %d", len(users))
	}
}

func TestRole_Valid(t *testing.T) {
	for _, r := range []Role{RoleCommunityUser, RoleMosqueAdmin, RoleSuperAdmin} {
		if !r.Valid() {
			t.Errorf("expected %q to be valid", r)
		}
	}
	if Role("owner").Valid() {
		t.Error("expected 'owner' to be invalid")
	}
}

func TestUser_HasLocation(t *testing.T) {
	lat, lng := 1.0, 2.0

	u := &User{}
	if u.HasLocation() {
		t.Error("expected no location")
	}

	u.Latitude = &lat
	if u.HasLocation() {
		t.Error("expected incomplete location to not count")
	}

	u.Longitude = &lng
	if !u.HasLocation() {
		t.Error("expected location to be set")
	}
}

func TestManager_GetBySubjectID_WrapsOtherErrors(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	ds := NewDatastore(db)
	mgr := NewManager(ds)

	mock.ExpectQuery(`SELECT .+ FROM users WHERE subject_id = \$1`).
		WillReturnError(sql.ErrConnDone)

	_, err = mgr.GetBySubjectID(context.Background(), "user_abc")
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("expected wrapped connection error, got %v", err)
	}
}
