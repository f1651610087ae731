package service

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/seams-estates/seams/internal/auth"
	"github.com/seams-estates/seams/internal/models"
	"github.com/seams-estates/seams/internal/storage/sqlite"
)

// fixedNow is the clock every service sees in tests.
var fixedNow = time.Date(2024, time.June, 15, 9, 30, 0, 0, time.UTC)

type testEnv struct {
	store   *sqlite.SQLiteStore
	auth    *AuthService
	estate  *EstateService
	ledger  *LedgerService
	maint   *MaintenanceService
	notes   *NotificationService
	reports *ReportService

	admin auth.Principal
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	authenticator := auth.NewPasswordAuthenticator(store).WithCost(bcrypt.MinCost)
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)

	env := &testEnv{
		store:   store,
		auth:    NewAuthService(authenticator, jwtManager, store, logger),
		estate:  NewEstateService(store, logger, 30),
		ledger:  NewLedgerService(store, logger, nil),
		maint:   NewMaintenanceService(store, logger),
		notes:   NewNotificationService(store, logger),
		reports: NewReportService(store, logger),
	}
	clock := func() time.Time { return fixedNow }
	env.auth.now = clock
	env.estate.now = clock
	env.ledger.now = clock
	env.maint.now = clock
	env.reports.now = clock

	admin := &models.User{Username: "admin", FirstName: "Estate", LastName: "Admin", Role: models.RoleEstateAdmin}
	require.NoError(t, env.auth.Bootstrap(context.Background(), admin, "admin-password"))
	env.admin = principal(admin, "")

	return env
}

func principal(u *models.User, tenantID string) auth.Principal {
	return auth.Principal{UserID: u.ID, Username: u.Username, Role: u.Role, TenantID: tenantID}
}

// staff creates an approved account of the given role.
func (e *testEnv) staff(t *testing.T, username string, role models.Role) auth.Principal {
	t.Helper()
	created, err := e.auth.CreateUser(context.Background(), e.admin, CreateUserInput{
		Username: username,
		Password: "staff-password",
		Role:     role.String(),
	})
	require.NoError(t, err)
	return principal(created.User, "")
}

// house adds a vacant house with the given monthly rent.
func (e *testEnv) house(t *testing.T, number, rent string) *models.House {
	t.Helper()
	h, err := e.estate.CreateHouse(context.Background(), e.admin, HouseInput{
		HouseNumber: number,
		HouseType:   models.HouseTwoBedroom,
		RentAmount:  decimal.RequireFromString(rent),
	})
	require.NoError(t, err)
	return h
}

// tenant moves a new tenant account into a new house and returns the tenancy with its principal.
func (e *testEnv) tenant(t *testing.T, number, rent string) (*models.Tenant, auth.Principal) {
	t.Helper()
	ctx := context.Background()

	created, err := e.auth.CreateUser(ctx, e.admin, CreateUserInput{
		Username:  "tenant-" + number,
		FirstName: "Amina",
		LastName:  "Otieno",
		Password:  "tenant-password",
		Role:      "tenant",
	})
	require.NoError(t, err)

	h := e.house(t, number, rent)
	tenant, err := e.estate.CreateTenant(ctx, e.admin, TenantInput{
		UserID:        created.User.ID,
		HouseID:       h.ID,
		ContractStart: models.MustDate("2024-01-01"),
		ContractEnd:   models.MustDate("2024-12-31"),
	})
	require.NoError(t, err)
	return tenant, principal(created.User, tenant.ID)
}

func amt(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
