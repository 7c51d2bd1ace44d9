package onboarding

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"mosqueconnect/internal/mosque"
	"mosqueconnect/internal/role"
	"mosqueconnect/internal/user"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
)

func setupRouterTest(t *testing.T) (*Router, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	return NewRouter(mosque.NewManager(mosque.NewDatastore(db))), mock, func() { db.Close() }
}

func mosqueRow(id uuid.UUID) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "admin_id", "name", "description", "address", "city", "country",
		"latitude", "longitude", "phone", "website", "image_url", "verified",
		"created_at", "updated_at",
	}).AddRow(id, uuid.New(), "Central Mosque", "", "1 Main St", "", "", 51.5, -0.12, "", "", "", true, now, now)
}

func TestNextStep_SuperAdmin(t *testing.T) {
	router, _, cleanup := setupRouterTest(t)
	defer cleanup()

	res := &role.Resolution{Role: user.RoleSuperAdmin, User: &user.User{}}
	if got := router.NextStep(context.Background(), res); got != DestAdminDashboard {
		t.Errorf("expected admin dashboard, got %q", got)
	}
}

func TestNextStep_MosqueAdminWithMosque(t *testing.T) {
	router, mock, cleanup := setupRouterTest(t)
	defer cleanup()

	adminID := uuid.New()
	mock.ExpectQuery(`SELECT .+ FROM mosques WHERE admin_id = \$1`).
		WithArgs(adminID).
		WillReturnRows(mosqueRow(uuid.New()))

	res := &role.Resolution{Role: user.RoleMosqueAdmin, User: &user.User{ID: adminID}}
	if got := router.NextStep(context.Background(), res); got != DestMosqueDashboard {
		t.Errorf("expected mosque dashboard, got %q", got)
	}
}

func TestNextStep_MosqueAdminWithoutMosque(t *testing.T) {
	router, mock, cleanup := setupRouterTest(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT .+ FROM mosques WHERE admin_id = \$1`).
		WillReturnError(sql.ErrNoRows)

	res := &role.Resolution{Role: user.RoleMosqueAdmin, User: &user.User{ID: uuid.New()}}
	if got := router.NextStep(context.Background(), res); got != DestMosqueRegistration {
		t.Errorf("expected mosque registration, got %q", got)
	}
}

func TestNextStep_MosqueAdminLookupFailureFallsBack(t *testing.T) {
	router, mock, cleanup := setupRouterTest(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT .+ FROM mosques WHERE admin_id = \$1`).
		WillReturnError(sql.ErrConnDone)

	res := &role.Resolution{Role: user.RoleMosqueAdmin, User: &user.User{ID: uuid.New()}}
	if got := router.NextStep(context.Background(), res); got != DestCommunityDashboard {
		t.Errorf("expected community dashboard fallback, got %q", got)
	}
}

func TestNextStep_CommunityUserWithLocation(t *testing.T) {
	router, _, cleanup := setupRouterTest(t)
	defer cleanup()

	lat, lng := 51.5, -0.12
	res := &role.Resolution{
		Role: user.RoleCommunityUser,
		User: &user.User{ID: uuid.New(), Latitude: &lat, Longitude: &lng},
	}
	if got := router.NextStep(context.Background(), res); got != DestCommunityDashboard {
		t.Errorf("expected community dashboard, got %q", got)
	}
}

func TestNextStep_CommunityUserWithoutLocation(t *testing.T) {
	router, _, cleanup := setupRouterTest(t)
	defer cleanup()

	res := &role.Resolution{Role: user.RoleCommunityUser, User: &user.User{ID: uuid.New()}}
	if got := router.NextStep(context.Background(), res); got != DestLocationSetup {
		t.Errorf("expected location setup, got %q", got)
	}
}

func TestNextStep_DegradedNeverBlocks(t *testing.T) {
	router, _, cleanup := setupRouterTest(t)
	defer cleanup()

	res := &role.Resolution{Role: user.RoleCommunityUser, Degraded: true}
	if got := router.NextStep(context.Background(), res); got != DestCommunityDashboard {
		t.Errorf("expected community dashboard for degraded resolution, got %q", got)
	}
}

func TestDestination_Path(t *testing.T) {
	tests := []struct {
		dest Destination
		want string
	}{
		{DestAdminDashboard, "/admin/dashboard"},
		{DestMosqueDashboard, "/mosque/dashboard"},
		{DestMosqueRegistration, "/auth/onboarding/mosque_admin"},
		{DestLocationSetup, "/auth/onboarding/community_user"},
		{DestCommunityDashboard, "/community/dashboard"},
	}
	for _, tt := range tests {
		if got := tt.dest.Path(); got != tt.want {
			t.Errorf("%s: expected %q, got %q", tt.dest, tt.want, got)
		}
	}
}
