package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/seams-estates/seams/internal/auth"
	"github.com/seams-estates/seams/internal/ledger"
	"github.com/seams-estates/seams/internal/models"
	"github.com/seams-estates/seams/internal/money"
	"github.com/seams-estates/seams/internal/storage"
)

// trendMonths is how many calendar months the trends report covers.
const trendMonths = 6

// ReportStore is the persistence the report service reads.
type ReportStore interface {
	ListHouses(ctx context.Context, filter storage.HouseFilter) ([]*models.House, error)
	ListTenants(ctx context.Context) ([]*models.Tenant, error)
	GetTenant(ctx context.Context, id string) (*models.Tenant, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	ListBills(ctx context.Context, tenantID string) ([]models.Bill, error)
	ListPayments(ctx context.Context, tenantID string) ([]models.Payment, error)
	ListMaintenance(ctx context.Context, filter storage.MaintenanceFilter) ([]*models.MaintenanceRequest, error)
	CreateNotification(ctx context.Context, n *models.Notification) error
}

// Dashboard is the finance summary for the current month and all time.
type Dashboard struct {
	TotalIncome     decimal.Decimal `json:"total_income"`
	MonthlyIncome   decimal.Decimal `json:"monthly_income"`
	TotalExpenses   decimal.Decimal `json:"total_expenses"`
	MonthlyExpenses decimal.Decimal `json:"monthly_expenses"`
	NetProfit       decimal.Decimal `json:"net_profit"`
	PendingPayments int             `json:"pending_payments"`
}

// Trends holds monthly income and expense series, oldest month first.
type Trends struct {
	Labels  []string          `json:"labels"`
	Income  []decimal.Decimal `json:"income"`
	Expense []decimal.Decimal `json:"expense"`
}

// CategoryCount is one row of the maintenance-by-category breakdown.
type CategoryCount struct {
	Category models.MaintenanceCategory `json:"category"`
	Count    int                        `json:"count"`
}

// Occupancy combines house status counts with maintenance categories.
type Occupancy struct {
	Houses                *models.HouseStats `json:"occupancy"`
	MaintenanceCategories []CategoryCount    `json:"maintenance_categories"`
}

// ReportService produces finance and occupancy reports.
type ReportService struct {
	store  ReportStore
	logger *slog.Logger
	now    func() time.Time
}

func NewReportService(store ReportStore, logger *slog.Logger) *ReportService {
	return &ReportService{store: store, logger: logger, now: time.Now}
}

func sameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}

// Dashboard sums verified income and completed maintenance spend.
func (s *ReportService) Dashboard(ctx context.Context, actor auth.Principal) (*Dashboard, error) {
	if err := authorize(actor, auth.ViewReports); err != nil {
		return nil, err
	}

	payments, err := s.store.ListPayments(ctx, "")
	if err != nil {
		return nil, err
	}
	reqs, err := s.store.ListMaintenance(ctx, storage.MaintenanceFilter{Status: models.MaintenanceCompleted})
	if err != nil {
		return nil, err
	}

	now := s.now()
	d := &Dashboard{
		TotalIncome:     decimal.Zero,
		MonthlyIncome:   decimal.Zero,
		TotalExpenses:   decimal.Zero,
		MonthlyExpenses: decimal.Zero,
	}
	for _, p := range payments {
		if !p.Verified {
			d.PendingPayments++
			continue
		}
		d.TotalIncome = d.TotalIncome.Add(p.Amount)
		if sameMonth(p.PaymentDate.Time, now) {
			d.MonthlyIncome = d.MonthlyIncome.Add(p.Amount)
		}
	}
	for _, r := range reqs {
		cost := r.Cost()
		d.TotalExpenses = d.TotalExpenses.Add(cost)
		if r.CompletedAt != nil && sameMonth(*r.CompletedAt, now) {
			d.MonthlyExpenses = d.MonthlyExpenses.Add(cost)
		}
	}
	d.NetProfit = d.TotalIncome.Sub(d.TotalExpenses)
	return d, nil
}

// Trends reports verified income and completed maintenance spend per month.
func (s *ReportService) Trends(ctx context.Context, actor auth.Principal) (*Trends, error) {
	if err := authorize(actor, auth.ViewReports); err != nil {
		return nil, err
	}

	payments, err := s.store.ListPayments(ctx, "")
	if err != nil {
		return nil, err
	}
	reqs, err := s.store.ListMaintenance(ctx, storage.MaintenanceFilter{Status: models.MaintenanceCompleted})
	if err != nil {
		return nil, err
	}

	first := models.NewDate(s.now()).MonthStart().AddDate(0, -(trendMonths - 1), 0)
	index := func(t time.Time) int {
		return (t.Year()-first.Year())*12 + int(t.Month()) - int(first.Month())
	}

	tr := &Trends{}
	for i := 0; i < trendMonths; i++ {
		tr.Labels = append(tr.Labels, first.AddDate(0, i, 0).Format("Jan 2006"))
		tr.Income = append(tr.Income, decimal.Zero)
		tr.Expense = append(tr.Expense, decimal.Zero)
	}
	for _, p := range payments {
		if i := index(p.PaymentDate.Time); p.Verified && i >= 0 && i < trendMonths {
			tr.Income[i] = tr.Income[i].Add(p.Amount)
		}
	}
	for _, r := range reqs {
		if r.CompletedAt == nil {
			continue
		}
		if i := index(*r.CompletedAt); i >= 0 && i < trendMonths {
			tr.Expense[i] = tr.Expense[i].Add(r.Cost())
		}
	}
	return tr, nil
}

// Debtors lists current tenants who owe money, largest balance first.
func (s *ReportService) Debtors(ctx context.Context, actor auth.Principal) ([]ledger.Debtor, error) {
	if err := authorize(actor, auth.ViewReports); err != nil {
		return nil, err
	}

	tenants, err := s.store.ListTenants(ctx)
	if err != nil {
		return nil, err
	}
	bills, err := s.store.ListBills(ctx, "")
	if err != nil {
		return nil, err
	}
	payments, err := s.store.ListPayments(ctx, "")
	if err != nil {
		return nil, err
	}

	billsBy := make(map[string][]models.Bill)
	for _, b := range bills {
		billsBy[b.TenantID] = append(billsBy[b.TenantID], b)
	}
	paymentsBy := make(map[string][]models.Payment)
	for _, p := range payments {
		paymentsBy[p.TenantID] = append(paymentsBy[p.TenantID], p)
	}

	var ledgers []ledger.TenantLedger
	for _, t := range tenants {
		if t.House == nil || t.Status == models.TenantExpired {
			continue
		}
		ledgers = append(ledgers, ledger.TenantLedger{Tenant: t, Bills: billsBy[t.ID], Payments: paymentsBy[t.ID]})
	}
	return nonNil(ledger.Debtors(ledgers, money.Format)), nil
}

// Occupancy reports house status counts and maintenance volume per category.
func (s *ReportService) Occupancy(ctx context.Context, actor auth.Principal) (*Occupancy, error) {
	if err := authorize(actor, auth.ViewReports); err != nil {
		return nil, err
	}

	houses, err := s.store.ListHouses(ctx, storage.HouseFilter{})
	if err != nil {
		return nil, err
	}
	reqs, err := s.store.ListMaintenance(ctx, storage.MaintenanceFilter{})
	if err != nil {
		return nil, err
	}

	counts := make(map[models.MaintenanceCategory]int)
	for _, r := range reqs {
		counts[r.Category]++
	}
	categories := []CategoryCount{}
	for c, n := range counts {
		categories = append(categories, CategoryCount{Category: c, Count: n})
	}
	sort.Slice(categories, func(i, j int) bool {
		if categories[i].Count != categories[j].Count {
			return categories[i].Count > categories[j].Count
		}
		return categories[i].Category < categories[j].Category
	})

	return &Occupancy{Houses: computeHouseStats(houses), MaintenanceCategories: categories}, nil
}

// PingDebtor sends a payment reminder to a tenant.
func (s *ReportService) PingDebtor(ctx context.Context, actor auth.Principal, tenantID string) (string, error) {
	if err := authorize(actor, auth.ViewReports); err != nil {
		return "", err
	}
	if tenantID == "" {
		return "", Invalid("tenant_id", "This field is required")
	}

	tenant, err := s.store.GetTenant(ctx, tenantID)
	if err != nil {
		return "", err
	}
	user, err := s.store.GetUser(ctx, tenant.UserID)
	if err != nil {
		return "", err
	}
	bills, err := s.store.ListBills(ctx, tenantID)
	if err != nil {
		return "", err
	}
	payments, err := s.store.ListPayments(ctx, tenantID)
	if err != nil {
		return "", err
	}
	balance := ledger.Display(ledger.ComputeOutstandingBalance(tenant.Rent(), bills, payments))

	name := user.FirstName
	if name == "" {
		name = user.Username
	}
	n := &models.Notification{
		RecipientID: user.ID,
		Message: fmt.Sprintf(
			"PAYMENT REMINDER: Dear %s, you have an outstanding balance of %s for %s. Please pay immediately to avoid penalties.",
			name, money.Format(balance), s.now().Format("January"),
		),
		Link: "/tenant-dashboard",
	}
	if err := s.store.CreateNotification(ctx, n); err != nil {
		return "", err
	}

	s.logger.Info("Debtor pinged", "tenant_id", tenantID, "balance", balance.String(), "by", actor.UserID)
	return "Reminder sent to " + name, nil
}
