// Package seed fills a fresh database with plausible demo data.
//
// Everything goes through the services, so seeded rows pass the same
// validation and FIFO settlement as real traffic.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/shopspring/decimal"

	"github.com/seams-estates/seams/internal/auth"
	"github.com/seams-estates/seams/internal/models"
	"github.com/seams-estates/seams/internal/service"
)

// Services are the write paths the seeder drives.
type Services struct {
	Auth        *service.AuthService
	Estate      *service.EstateService
	Ledger      *service.LedgerService
	Maintenance *service.MaintenanceService
}

// Options controls the amount and shape of the data.
type Options struct {
	Houses int
	// Months of rent history per tenant, ending with the current month.
	Months int
	// Occupancy is the share of houses given a tenant, 0 to 1.
	Occupancy float64
	// Seed makes a run reproducible. Zero picks a random seed.
	Seed uint64
	// Password is set on every seeded account.
	Password string
	Now      time.Time
}

// DefaultOptions returns a small estate.
func DefaultOptions() Options {
	return Options{
		Houses:    12,
		Months:    3,
		Occupancy: 0.75,
		Password:  "demo-password",
	}
}

// Summary counts what was created.
type Summary struct {
	Houses      int `json:"houses"`
	Tenants     int `json:"tenants"`
	Contracts   int `json:"contracts"`
	Bills       int `json:"bills"`
	Payments    int `json:"payments"`
	Verified    int `json:"verified"`
	Maintenance int `json:"maintenance"`
}

var houseTypes = []struct {
	kind models.HouseType
	rent int
	beds int
}{
	{"bedsitter", 6000, 0},
	{"1_bedroom", 10000, 1},
	{"2_bedroom", 15000, 2},
	{"3_bedroom", 22000, 3},
	{"4_bedroom", 30000, 4},
}

var (
	paymentMethods = []models.PaymentMethod{models.MethodMpesa, models.MethodMpesa, models.MethodBank, models.MethodCash, models.MethodCheque}
	categories     = []models.MaintenanceCategory{"plumbing", "electrical", "structural", "pest_control", "general"}
	priorities     = []models.Priority{"low", "medium", "high", "urgent"}
	blocks         = []string{"A", "B", "C", "D"}
)

// Seeder creates demo data as a given admin.
type Seeder struct {
	svc    Services
	admin  auth.Principal
	opts   Options
	faker  *gofakeit.Faker
	logger *slog.Logger
}

// New creates a Seeder.
func New(svc Services, admin auth.Principal, opts Options, logger *slog.Logger) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	if opts.Password == "" {
		opts.Password = DefaultOptions().Password
	}
	if opts.Months < 1 {
		opts.Months = 1
	}
	return &Seeder{
		svc:    svc,
		admin:  admin,
		opts:   opts,
		faker:  gofakeit.New(opts.Seed),
		logger: logger,
	}
}

// Run creates houses, tenants, a rent history with payments, and a few maintenance requests.
func (s *Seeder) Run(ctx context.Context) (*Summary, error) {
	summary := &Summary{}

	tech, err := s.svc.Auth.CreateUser(ctx, s.admin, service.CreateUserInput{
		Username:  s.username("fundi"),
		Email:     s.faker.Email(),
		Password:  s.opts.Password,
		FirstName: s.faker.FirstName(),
		LastName:  s.faker.LastName(),
		Role:      models.RoleTechnician.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create technician: %w", err)
	}

	for i := range s.opts.Houses {
		house, err := s.house(ctx, i)
		if err != nil {
			return summary, err
		}
		summary.Houses++

		if s.faker.Float64Range(0, 1) < s.opts.Occupancy {
			if err := s.tenancy(ctx, house, summary); err != nil {
				return summary, err
			}
		}

		if s.faker.IntRange(0, 3) == 0 {
			if err := s.issue(ctx, house, tech.User.ID); err != nil {
				return summary, err
			}
			summary.Maintenance++
		}
	}

	s.logger.Info("Seed complete",
		"houses", summary.Houses,
		"tenants", summary.Tenants,
		"bills", summary.Bills,
		"payments", summary.Payments,
		"verified", summary.Verified,
		"maintenance", summary.Maintenance,
	)
	return summary, nil
}

func (s *Seeder) house(ctx context.Context, i int) (*models.House, error) {
	ht := houseTypes[s.faker.IntRange(0, len(houseTypes)-1)]
	number := fmt.Sprintf("%s%d", blocks[i%len(blocks)], i/len(blocks)+1)
	house, err := s.svc.Estate.CreateHouse(ctx, s.admin, service.HouseInput{
		HouseNumber: number,
		HouseType:   ht.kind,
		Location:    s.faker.Street(),
		RentAmount:  decimal.NewFromInt(int64(ht.rent)),
		Bedrooms:    ht.beds,
		Bathrooms:   max(1, ht.beds-1),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create house %s: %w", number, err)
	}
	return house, nil
}

func (s *Seeder) tenancy(ctx context.Context, house *models.House, summary *Summary) error {
	first, last := s.faker.FirstName(), s.faker.LastName()
	created, err := s.svc.Auth.CreateUser(ctx, s.admin, service.CreateUserInput{
		Username:  s.username(first + "." + last),
		Email:     s.faker.Email(),
		Password:  s.opts.Password,
		FirstName: first,
		LastName:  last,
		Phone:     s.faker.Phone(),
		Role:      models.RoleTenant.String(),
	})
	if err != nil {
		return fmt.Errorf("failed to create tenant user: %w", err)
	}

	start := models.NewDate(s.opts.Now).MonthStart().AddDate(0, -(s.opts.Months - 1), 0)
	tenant, err := s.svc.Estate.CreateTenant(ctx, s.admin, service.TenantInput{
		UserID:           created.User.ID,
		HouseID:          house.ID,
		MoveInDate:       models.NewDate(start),
		ContractEnd:      models.NewDate(start.AddDate(1, 0, 0)),
		EmergencyContact: s.faker.Name(),
		EmergencyPhone:   s.faker.Phone(),
	})
	if err != nil {
		return fmt.Errorf("failed to create tenancy for %s: %w", house.HouseNumber, err)
	}
	summary.Tenants++

	if _, err := s.svc.Estate.CreateContract(ctx, s.admin, service.ContractInput{
		TenantID:    tenant.ID,
		StartDate:   tenant.ContractStart,
		EndDate:     tenant.ContractEnd,
		DepositPaid: house.RentAmount,
	}); err != nil {
		return fmt.Errorf("failed to create contract for %s: %w", house.HouseNumber, err)
	}
	summary.Contracts++

	for m := range s.opts.Months {
		month := models.NewDate(start.AddDate(0, m, 0))
		if _, err := s.svc.Ledger.PostBill(ctx, s.admin, service.PostBillInput{
			TenantID:    tenant.ID,
			BillType:    models.ChargeRent,
			Amount:      house.RentAmount,
			MonthFor:    month,
			Description: "Rent " + month.Format("January 2006"),
		}); err != nil {
			return fmt.Errorf("failed to post rent: %w", err)
		}
		summary.Bills++

		// Most months are paid, the last one often is not.
		if m == s.opts.Months-1 && s.faker.Bool() {
			continue
		}
		payment, err := s.svc.Ledger.RecordPayment(ctx, s.admin, service.RecordPaymentInput{
			TenantID:        tenant.ID,
			Amount:          house.RentAmount,
			PaymentType:     models.ChargeRent,
			PaymentMethod:   paymentMethods[s.faker.IntRange(0, len(paymentMethods)-1)],
			ReferenceNumber: strings.ToUpper(s.faker.LetterN(10)),
			PaymentDate:     month.AddDays(s.faker.IntRange(0, 9)),
			MonthFor:        month,
		})
		if err != nil {
			return fmt.Errorf("failed to record payment: %w", err)
		}
		summary.Payments++

		if s.faker.IntRange(0, 4) > 0 {
			if _, err := s.svc.Ledger.VerifyPayment(ctx, s.admin, payment.ID); err != nil {
				return fmt.Errorf("failed to verify payment: %w", err)
			}
			summary.Verified++
		}
	}

	if s.faker.Bool() {
		if _, err := s.svc.Ledger.PostBill(ctx, s.admin, service.PostBillInput{
			TenantID: tenant.ID,
			BillType: models.ChargeWater,
			Amount:   decimal.NewFromInt(int64(s.faker.IntRange(3, 12) * 100)),
		}); err != nil {
			return fmt.Errorf("failed to post water bill: %w", err)
		}
		summary.Bills++
	}
	return nil
}

func (s *Seeder) issue(ctx context.Context, house *models.House, technicianID string) error {
	req, err := s.svc.Maintenance.Report(ctx, s.admin, service.ReportIssueInput{
		HouseID:     house.ID,
		Description: s.faker.Sentence(8),
		Category:    categories[s.faker.IntRange(0, len(categories)-1)],
		Priority:    priorities[s.faker.IntRange(0, len(priorities)-1)],
	})
	if err != nil {
		return fmt.Errorf("failed to report issue: %w", err)
	}
	if s.faker.Bool() {
		return nil
	}

	if _, err := s.svc.Maintenance.Assign(ctx, s.admin, req.ID, technicianID); err != nil {
		return fmt.Errorf("failed to assign issue: %w", err)
	}
	if s.faker.Bool() {
		cost := decimal.NewFromInt(int64(s.faker.IntRange(5, 80) * 100))
		if _, err := s.svc.Maintenance.UpdateStatus(ctx, s.admin, req.ID, service.StatusUpdateInput{
			Status:     models.MaintenanceCompleted,
			Notes:      "Fixed on site",
			ActualCost: decimal.NewNullDecimal(cost),
		}); err != nil {
			return fmt.Errorf("failed to complete issue: %w", err)
		}
	}
	return nil
}

// username builds a unique, valid login from a display name.
func (s *Seeder) username(base string) string {
	base = strings.ToLower(strings.ReplaceAll(base, " ", ""))
	if len(base) > 40 {
		base = base[:40]
	}
	return fmt.Sprintf("%s%d", base, s.faker.IntRange(100, 999999))
}
