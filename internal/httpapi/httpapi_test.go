package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/seams-estates/seams/internal/auth"
	"github.com/seams-estates/seams/internal/metrics"
	"github.com/seams-estates/seams/internal/models"
	"github.com/seams-estates/seams/internal/service"
	"github.com/seams-estates/seams/internal/storage/sqlite"
)

type testServer struct {
	*httptest.Server
	t *testing.T
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	jwtManager := auth.NewJWTManager("api-secret", time.Hour)
	authSvc := service.NewAuthService(auth.NewPasswordAuthenticator(store).WithCost(bcrypt.MinCost), jwtManager, store, logger)
	m := metrics.New(prometheus.NewRegistry())

	require.NoError(t, authSvc.Bootstrap(context.Background(),
		&models.User{Username: "admin", Role: models.RoleEstateAdmin}, "admin-password"))

	api := New(Deps{
		Auth:          authSvc,
		Estate:        service.NewEstateService(store, logger, 30),
		Ledger:        service.NewLedgerService(store, logger, m),
		Maintenance:   service.NewMaintenanceService(store, logger),
		Notifications: service.NewNotificationService(store, logger),
		Reports:       service.NewReportService(store, logger),
		Tokens:        jwtManager,
		Health:        store.Ping,
		Metrics:       m,
		Logger:        logger,
	})

	server := httptest.NewServer(api.Handler())
	t.Cleanup(server.Close)
	return &testServer{Server: server, t: t}
}

// do sends a JSON request and decodes the response into out when non-nil.
func (s *testServer) do(method, path, token string, body, out any) int {
	s.t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(s.t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, s.URL+path, reader)
	require.NoError(s.t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.Client().Do(req)
	require.NoError(s.t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(s.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (s *testServer) login(username, password string) string {
	s.t.Helper()
	var result service.LoginResult
	status := s.do(http.MethodPost, "/api/auth/login/", "", map[string]string{"username": username, "password": password}, &result)
	require.Equal(s.t, http.StatusOK, status)
	return result.Token
}

// seedTenant creates a house and a tenant account through the API and returns the tenancy id.
func (s *testServer) seedTenant(admin, number string) string {
	s.t.Helper()

	var house models.House
	require.Equal(s.t, http.StatusCreated, s.do(http.MethodPost, "/api/houses/", admin,
		`{"house_number":"`+number+`","house_type":"2_bedroom","rent_amount":10000}`, &house))

	var created service.CreatedUser
	require.Equal(s.t, http.StatusCreated, s.do(http.MethodPost, "/api/users/", admin,
		map[string]string{"username": "tenant-" + number, "password": "tenant-password", "role": "tenant", "first_name": "Amina"}, &created))

	var tenant models.Tenant
	require.Equal(s.t, http.StatusCreated, s.do(http.MethodPost, "/api/tenants/", admin,
		map[string]string{"user_id": created.User.ID, "house_id": house.ID, "contract_end": "2099-12-31"}, &tenant))
	return tenant.ID
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	var health map[string]string
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/health", "", nil, &health))
	assert.Equal(t, "ok", health["status"])

	resp, err := s.Client().Get(s.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `seams_http_requests_total{method="GET",path="GET /health",status="200"} 1`)
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t)

	var errBody errorBody
	status := s.do(http.MethodPost, "/api/auth/login/", "", map[string]string{"username": "admin", "password": "nope"}, &errBody)
	assert.Equal(t, http.StatusUnauthorized, status)

	admin := s.login("admin", "admin-password")

	var me models.User
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/auth/me/", admin, nil, &me))
	assert.Equal(t, "admin", me.Username)
	assert.Equal(t, models.RoleEstateAdmin, me.Role)

	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/api/auth/me/", "", nil, nil))
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/api/auth/me/", "forged", nil, nil))

	var reg map[string]any
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/auth/register/", "", service.RegisterTenantInput{
		Username: "wanjiku", Email: "w@example.com", Password: "secret-pass",
		FirstName: "Wanjiku", LastName: "Kamau", HouseNumber: "C3",
	}, &reg))

	status = s.do(http.MethodPost, "/api/auth/login/", "", map[string]string{"username": "wanjiku", "password": "secret-pass"}, &errBody)
	assert.Equal(t, http.StatusForbidden, status)

	var pending []models.User
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/users/pending/", admin, nil, &pending))
	require.Len(t, pending, 1)

	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/users/"+pending[0].ID+"/approve/", admin, nil, nil))
	s.login("wanjiku", "secret-pass")
}

func TestLedgerEndpoints(t *testing.T) {
	s := newTestServer(t)
	admin := s.login("admin", "admin-password")
	tenantID := s.seedTenant(admin, "A1")
	tenant := s.login("tenant-A1", "tenant-password")

	var bill models.Bill
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/bills/", admin,
		map[string]any{"tenant": tenantID, "bill_type": "rent", "amount": "10000", "month_for": "2024-06-01"}, &bill))
	assert.False(t, bill.Paid)

	assert.Equal(t, http.StatusForbidden, s.do(http.MethodPost, "/api/bills/", tenant,
		map[string]any{"tenant": tenantID, "bill_type": "rent", "amount": 1}, nil))

	t.Run("bad amounts are validation errors", func(t *testing.T) {
		for _, body := range []string{
			`{"tenant":"` + tenantID + `","amount":-50,"payment_method":"cash"}`,
			`{"tenant":"` + tenantID + `","amount":"abc","payment_method":"cash"}`,
			`{"tenant":"` + tenantID + `","amount":0.001,"payment_method":"cash"}`,
			`{"tenant":"` + tenantID + `","amount":10000000000000000000,"payment_method":"cash"}`,
			`{"tenant":`,
		} {
			var eb errorBody
			assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/api/payments/", tenant, body, &eb), body)
			assert.NotEmpty(t, eb.Details, body)
		}
	})

	var payment models.Payment
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/payments/", tenant,
		map[string]any{"tenant": tenantID, "amount": 10000, "payment_method": "mpesa", "reference_number": "QX12"}, &payment))
	assert.False(t, payment.Verified)
	assert.Equal(t, "QX12", payment.ReferenceNumber)

	assert.Equal(t, http.StatusForbidden, s.do(http.MethodPost, "/api/payments/"+payment.ID+"/verify/", tenant, nil, nil))

	var result map[string]any
	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/payments/"+payment.ID+"/verify/", admin, nil, &result))
	assert.Equal(t, float64(1), result["bills_marked_paid"])
	assert.Equal(t, "Payment verified. 1 bill marked paid", result["message"])

	var eb errorBody
	assert.Equal(t, http.StatusConflict, s.do(http.MethodPost, "/api/payments/"+payment.ID+"/verify/", admin, nil, &eb))
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodPost, "/api/payments/unknown/verify/", admin, nil, nil))

	var bills []models.Bill
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/bills/?tenant="+tenantID, tenant, nil, &bills))
	require.Len(t, bills, 1)
	assert.True(t, bills[0].Paid)
	assert.Equal(t, payment.ID, bills[0].PaidBy)

	var st service.TenantStatement
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/tenants/"+tenantID+"/balance/", tenant, nil, &st))
	assert.Equal(t, "10000", st.Statement.Balance.String())
	assert.Equal(t, "KES 10,000.00", st.Display)

	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/api/payments/", "", nil, nil))
}

func TestEstateAndReports(t *testing.T) {
	s := newTestServer(t)
	admin := s.login("admin", "admin-password")
	tenantID := s.seedTenant(admin, "A1")

	var vacant []models.House
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/houses/vacant/", admin, nil, &vacant))
	assert.Empty(t, vacant)

	var stats models.HouseStats
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/houses/stats/", admin, nil, &stats))
	assert.Equal(t, 1, stats.Occupied)

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/api/houses/", admin,
		`{"house_number":"A1","house_type":"2_bedroom","rent_amount":1}`, nil))

	var debtors []map[string]any
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/reports/debtors/", admin, nil, &debtors))
	require.Len(t, debtors, 1)
	assert.Equal(t, tenantID, debtors[0]["tenant_id"])
	assert.Equal(t, "KES 10,000.00", debtors[0]["balance_display"])

	var ping map[string]string
	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/reports/debtors/"+tenantID+"/ping/", admin, nil, &ping))
	assert.Equal(t, "Reminder sent to Amina", ping["message"])

	tenant := s.login("tenant-A1", "tenant-password")
	var notes []models.Notification
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/notifications/?unread=true", tenant, nil, &notes))
	require.Len(t, notes, 1)
	assert.True(t, strings.HasPrefix(notes[0].Message, "PAYMENT REMINDER"))
	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/notifications/"+notes[0].ID+"/read/", tenant, nil, nil))

	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/api/reports/dashboard/", tenant, nil, nil))

	var sync service.SyncReport
	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/admin/sync/", admin, nil, &sync))
	assert.Equal(t, service.SyncReport{}, sync)

	assert.Equal(t, http.StatusNoContent, s.do(http.MethodDelete, "/api/tenants/"+tenantID+"/", admin, nil, nil))
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/houses/vacant/", admin, nil, &vacant))
	assert.Len(t, vacant, 1)
}

func TestContractEndpoints(t *testing.T) {
	s := newTestServer(t)
	admin := s.login("admin", "admin-password")
	tenantID := s.seedTenant(admin, "A1")
	otherID := s.seedTenant(admin, "A2")
	tenant := s.login("tenant-A1", "tenant-password")

	var contract models.Contract
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/contracts/", admin, map[string]any{
		"tenant":       tenantID,
		"start_date":   "2024-01-01",
		"end_date":     "2024-12-31",
		"deposit_paid": "10000",
	}, &contract))
	assert.Equal(t, "A1", contract.HouseNumber)
	assert.Equal(t, "Amina", contract.TenantName)
	assert.True(t, contract.MonthlyRent.Equal(decimal.NewFromInt(10000)))

	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/contracts/", admin, map[string]any{
		"tenant": otherID, "start_date": "2024-02-01", "end_date": "2025-01-31",
	}, nil))

	var eb errorBody
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/api/contracts/", admin, map[string]any{
		"tenant": tenantID, "start_date": "2024-01-01", "end_date": "2023-01-01",
	}, &eb))
	require.NotEmpty(t, eb.Details)
	assert.Equal(t, "end_date", eb.Details[0].Field)

	assert.Equal(t, http.StatusForbidden, s.do(http.MethodPost, "/api/contracts/", tenant, map[string]any{
		"tenant": tenantID, "start_date": "2024-01-01", "end_date": "2024-12-31",
	}, nil))

	var all []models.Contract
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/contracts/", admin, nil, &all))
	assert.Len(t, all, 2)
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/contracts/?tenant="+otherID, admin, nil, &all))
	require.Len(t, all, 1)
	assert.Equal(t, "A2", all[0].HouseNumber)

	var own []models.Contract
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/contracts/", tenant, nil, &own))
	require.Len(t, own, 1)
	assert.Equal(t, contract.ID, own[0].ID)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/api/contracts/?tenant="+otherID, tenant, nil, nil))

	var got models.Contract
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/contracts/"+contract.ID+"/", tenant, nil, &got))
	assert.Equal(t, "2024-12-31", got.EndDate.String())

	assert.Equal(t, http.StatusForbidden, s.do(http.MethodDelete, "/api/contracts/"+contract.ID+"/", tenant, nil, nil))
	assert.Equal(t, http.StatusNoContent, s.do(http.MethodDelete, "/api/contracts/"+contract.ID+"/", admin, nil, nil))
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/contracts/"+contract.ID+"/", admin, nil, nil))
}

func TestMaintenanceEndpoints(t *testing.T) {
	s := newTestServer(t)
	admin := s.login("admin", "admin-password")
	s.seedTenant(admin, "A1")
	tenant := s.login("tenant-A1", "tenant-password")

	var tech service.CreatedUser
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/users/", admin,
		map[string]string{"username": "fundi", "role": "technician"}, &tech))
	require.NotEmpty(t, tech.TemporaryPassword)

	var req models.MaintenanceRequest
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/maintenance/", tenant,
		map[string]string{"issue_description": "Leaking roof", "category": "structural", "priority": "high"}, &req))
	assert.Equal(t, "MR-001", req.RequestNumber)

	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/maintenance/"+req.ID+"/assign/", admin,
		map[string]string{"technician_id": tech.User.ID}, &req))
	assert.Equal(t, models.MaintenanceAssigned, req.Status)

	techToken := s.login("fundi", tech.TemporaryPassword)
	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/maintenance/"+req.ID+"/status/", techToken,
		map[string]any{"status": "completed", "actual_cost": "4200"}, &req))
	assert.Equal(t, models.MaintenanceCompleted, req.Status)
	require.NotNil(t, req.CompletedAt)

	var stats service.MaintenanceStats
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/maintenance/stats/", admin, nil, &stats))
	assert.Equal(t, 1, stats.ByStatus[models.MaintenanceCompleted])

	var dash service.Dashboard
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/reports/dashboard/", admin, nil, &dash))
	assert.Equal(t, "4200", dash.TotalExpenses.String())
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{service.Invalid("amount", "bad"), http.StatusBadRequest},
		{service.ErrUnauthenticated, http.StatusUnauthorized},
		{auth.ErrInvalidCredentials, http.StatusUnauthorized},
		{auth.ErrAccountPending, http.StatusForbidden},
		{service.ErrPermissionDenied, http.StatusForbidden},
		{service.ErrNotFound, http.StatusNotFound},
		{service.ErrAlreadyVerified, http.StatusConflict},
		{io.ErrUnexpectedEOF, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}
