// Package httpapi serves the REST API under /api.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/seams-estates/seams/internal/metrics"
	"github.com/seams-estates/seams/internal/middleware"
	"github.com/seams-estates/seams/internal/service"
)

// Deps are the services the API dispatches to.
type Deps struct {
	Auth          *service.AuthService
	Estate        *service.EstateService
	Ledger        *service.LedgerService
	Maintenance   *service.MaintenanceService
	Notifications *service.NotificationService
	Reports       *service.ReportService

	Tokens middleware.TokenValidator

	// Health reports whether the backing store is reachable. It may be nil.
	Health func(ctx context.Context) error

	// Metrics is optional; when set, /metrics is served and requests are measured.
	Metrics *metrics.Metrics

	Logger     *slog.Logger
	CORSOrigin string
}

// API holds the routes and their dependencies.
type API struct {
	Deps
	logger *slog.Logger
	mux    *http.ServeMux
}

// New registers every route.
func New(deps Deps) *API {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	a := &API{Deps: deps, logger: logger, mux: http.NewServeMux()}
	a.routes()
	return a
}

// handle registers an exact-match route; paths keep their trailing slash.
func (a *API) handle(method, path string, h http.HandlerFunc) {
	a.mux.HandleFunc(method+" "+path+"{$}", h)
}

// Mount attaches another handler, such as a Connect service, under path.
func (a *API) Mount(path string, h http.Handler) {
	a.mux.Handle(path, h)
}

func (a *API) routes() {
	a.mux.HandleFunc("GET /health", a.health)
	if a.Metrics != nil {
		a.mux.Handle("GET /metrics", a.Metrics.Handler())
	}

	a.handle("POST", "/api/auth/login/", a.login)
	a.handle("POST", "/api/auth/register/", a.register)
	a.handle("GET", "/api/auth/me/", a.me)

	a.handle("GET", "/api/users/", a.listUsers)
	a.handle("POST", "/api/users/", a.createUser)
	a.handle("GET", "/api/users/pending/", a.listPending)
	a.handle("POST", "/api/users/{id}/approve/", a.approveUser)
	a.handle("POST", "/api/users/{id}/reject/", a.rejectUser)

	a.handle("GET", "/api/houses/", a.listHouses)
	a.handle("POST", "/api/houses/", a.createHouse)
	a.handle("GET", "/api/houses/stats/", a.houseStats)
	a.handle("GET", "/api/houses/vacant/", a.vacantHouses)
	a.handle("GET", "/api/houses/{id}/", a.getHouse)
	a.handle("PUT", "/api/houses/{id}/", a.updateHouse)
	a.handle("DELETE", "/api/houses/{id}/", a.deleteHouse)

	a.handle("GET", "/api/tenants/", a.listTenants)
	a.handle("POST", "/api/tenants/", a.createTenant)
	a.handle("GET", "/api/tenants/expiring/", a.expiringTenants)
	a.handle("GET", "/api/tenants/{id}/", a.getTenant)
	a.handle("DELETE", "/api/tenants/{id}/", a.deleteTenant)
	a.handle("GET", "/api/tenants/{id}/balance/", a.tenantBalance)

	a.handle("GET", "/api/contracts/", a.listContracts)
	a.handle("POST", "/api/contracts/", a.createContract)
	a.handle("GET", "/api/contracts/{id}/", a.getContract)
	a.handle("DELETE", "/api/contracts/{id}/", a.deleteContract)

	a.handle("GET", "/api/bills/", a.listBills)
	a.handle("POST", "/api/bills/", a.postBill)
	a.handle("GET", "/api/payments/", a.listPayments)
	a.handle("POST", "/api/payments/", a.recordPayment)
	a.handle("POST", "/api/payments/{id}/verify/", a.verifyPayment)

	a.handle("GET", "/api/maintenance/", a.listMaintenance)
	a.handle("POST", "/api/maintenance/", a.reportMaintenance)
	a.handle("GET", "/api/maintenance/stats/", a.maintenanceStats)
	a.handle("GET", "/api/maintenance/{id}/", a.getMaintenance)
	a.handle("POST", "/api/maintenance/{id}/assign/", a.assignMaintenance)
	a.handle("POST", "/api/maintenance/{id}/status/", a.updateMaintenanceStatus)

	a.handle("GET", "/api/notifications/", a.listNotifications)
	a.handle("POST", "/api/notifications/{id}/read/", a.markNotificationRead)

	a.handle("GET", "/api/reports/dashboard/", a.dashboard)
	a.handle("GET", "/api/reports/trends/", a.trends)
	a.handle("GET", "/api/reports/debtors/", a.debtors)
	a.handle("POST", "/api/reports/debtors/{id}/ping/", a.pingDebtor)
	a.handle("GET", "/api/reports/occupancy/", a.occupancy)

	a.handle("POST", "/api/admin/sync/", a.syncStatuses)
}

// Handler returns the routes wrapped in the middleware stack.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.mux
	if a.Metrics != nil {
		h = a.Metrics.Middleware(h)
	}
	origin := a.CORSOrigin
	if origin == "" {
		origin = "*"
	}
	return middleware.Chain(h,
		middleware.RequestID,
		middleware.RequestLogger(a.logger),
		middleware.CORS(origin),
		middleware.Authenticate(a.Tokens),
	)
}

func (a *API) health(w http.ResponseWriter, r *http.Request) {
	if a.Health != nil {
		if err := a.Health(r.Context()); err != nil {
			a.logger.Error("Health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
