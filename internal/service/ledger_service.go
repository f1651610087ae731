package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/seams-estates/seams/internal/auth"
	"github.com/seams-estates/seams/internal/ledger"
	"github.com/seams-estates/seams/internal/models"
	"github.com/seams-estates/seams/internal/money"
	"github.com/seams-estates/seams/internal/storage"
)

// Recorder receives ledger events for metrics.
type Recorder interface {
	PaymentRecorded(method models.PaymentMethod, amount decimal.Decimal)
	PaymentVerified(billsMarkedPaid int)
	BillPosted(billType models.ChargeType, amount decimal.Decimal)
}

type nopRecorder struct{}

func (nopRecorder) PaymentRecorded(models.PaymentMethod, decimal.Decimal) {}
func (nopRecorder) PaymentVerified(int)                                  {}
func (nopRecorder) BillPosted(models.ChargeType, decimal.Decimal)        {}

// LedgerStore is the persistence the ledger service needs.
type LedgerStore interface {
	storage.LedgerStore
	GetTenant(ctx context.Context, id string) (*models.Tenant, error)
	CreateNotification(ctx context.Context, n *models.Notification) error
}

// RecordPaymentInput carries a payment submission.
type RecordPaymentInput struct {
	TenantID        string               `json:"tenant" validate:"required"`
	Amount          decimal.Decimal      `json:"amount" validate:"gt=0,money"`
	PaymentType     models.ChargeType    `json:"payment_type" validate:"required,oneof=rent water electricity garbage damage deposit other"`
	PaymentMethod   models.PaymentMethod `json:"payment_method" validate:"required,oneof=mpesa bank cash cheque"`
	ReferenceNumber string               `json:"reference_number" validate:"max=50"`
	PaymentDate     models.Date          `json:"payment_date"`
	MonthFor        models.Date          `json:"month_for"`
}

// PostBillInput carries a new charge.
type PostBillInput struct {
	TenantID    string            `json:"tenant" validate:"required"`
	BillType    models.ChargeType `json:"bill_type" validate:"required,oneof=rent water electricity garbage damage deposit other"`
	Amount      decimal.Decimal   `json:"amount" validate:"gt=0,money"`
	MonthFor    models.Date       `json:"month_for"`
	Description string            `json:"description" validate:"max=500"`
}

// TenantStatement is a tenant's ledger with its reduced totals.
type TenantStatement struct {
	Tenant    *models.Tenant   `json:"tenant"`
	Statement ledger.Statement `json:"statement"`
	Display   string           `json:"outstanding_display"`
	Bills     []models.Bill    `json:"bills"`
	Payments  []models.Payment `json:"payments"`
}

// LedgerService records payments, posts bills and verifies payments.
type LedgerService struct {
	store    LedgerStore
	logger   *slog.Logger
	recorder Recorder
	now      func() time.Time
}

// NewLedgerService creates a LedgerService. recorder may be nil.
func NewLedgerService(store LedgerStore, logger *slog.Logger, recorder Recorder) *LedgerService {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &LedgerService{
		store:    store,
		logger:   logger,
		recorder: recorder,
		now:      time.Now,
	}
}

// resolveTenant loads the tenant, reporting an unknown id as a validation failure.
func (s *LedgerService) resolveTenant(ctx context.Context, tenantID string) (*models.Tenant, error) {
	tenant, err := s.store.GetTenant(ctx, tenantID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, Invalid("tenant", "Tenant does not exist")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load tenant: %w", err)
	}
	return tenant, nil
}

// RecordPayment stores a new unverified payment. No bill changes.
func (s *LedgerService) RecordPayment(ctx context.Context, actor auth.Principal, in RecordPaymentInput) (*models.Payment, error) {
	if err := authenticated(actor); err != nil {
		return nil, err
	}
	if !actor.Can(auth.RecordAnyPayment) && !(actor.Can(auth.RecordOwnPayment) && actor.OwnsTenancy(in.TenantID)) {
		return nil, fmt.Errorf("%w: cannot record payments for this tenant", ErrPermissionDenied)
	}

	if in.PaymentType == "" {
		in.PaymentType = models.ChargeRent
	}
	in.ReferenceNumber = strings.TrimSpace(in.ReferenceNumber)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	if _, err := s.resolveTenant(ctx, in.TenantID); err != nil {
		return nil, err
	}

	now := s.now()
	if in.ReferenceNumber == "" {
		in.ReferenceNumber = fmt.Sprintf("REF-%d", now.UnixMilli())
	}
	if in.PaymentDate.IsZero() {
		in.PaymentDate = models.NewDate(now)
	}
	if in.MonthFor.IsZero() {
		in.MonthFor = in.PaymentDate.MonthStart()
	}

	payment := &models.Payment{
		TenantID:        in.TenantID,
		Amount:          in.Amount,
		PaymentType:     in.PaymentType,
		PaymentMethod:   in.PaymentMethod,
		ReferenceNumber: in.ReferenceNumber,
		PaymentDate:     in.PaymentDate,
		MonthFor:        in.MonthFor,
	}
	if err := s.store.CreatePayment(ctx, payment); err != nil {
		s.logger.Error("RecordPayment failed", "tenant_id", in.TenantID, "error", err)
		return nil, err
	}

	s.recorder.PaymentRecorded(payment.PaymentMethod, payment.Amount)
	s.logger.Info("Payment recorded",
		"payment_id", payment.ID,
		"tenant_id", payment.TenantID,
		"amount", payment.Amount.String(),
		"method", payment.PaymentMethod,
		"recorded_by", actor.UserID,
	)
	return payment, nil
}

// PostBill stores a new unpaid bill against a tenant.
func (s *LedgerService) PostBill(ctx context.Context, actor auth.Principal, in PostBillInput) (*models.Bill, error) {
	if err := authorize(actor, auth.PostBills); err != nil {
		return nil, err
	}
	in.Description = strings.TrimSpace(in.Description)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	if _, err := s.resolveTenant(ctx, in.TenantID); err != nil {
		return nil, err
	}

	if in.MonthFor.IsZero() {
		in.MonthFor = models.NewDate(s.now()).MonthStart()
	}

	bill := &models.Bill{
		TenantID:    in.TenantID,
		BillType:    in.BillType,
		Amount:      in.Amount,
		MonthFor:    in.MonthFor,
		Description: in.Description,
	}
	if err := s.store.CreateBill(ctx, bill); err != nil {
		s.logger.Error("PostBill failed", "tenant_id", in.TenantID, "error", err)
		return nil, err
	}

	s.recorder.BillPosted(bill.BillType, bill.Amount)
	s.logger.Info("Bill posted",
		"bill_id", bill.ID,
		"tenant_id", bill.TenantID,
		"bill_type", bill.BillType,
		"amount", bill.Amount.String(),
	)
	return bill, nil
}

// VerifyPayment confirms a payment and settles bills oldest first.
// It fails with ErrNotFound for unknown ids and ErrAlreadyVerified on repeats.
func (s *LedgerService) VerifyPayment(ctx context.Context, actor auth.Principal, paymentID string) (*models.Verification, error) {
	if err := authorize(actor, auth.VerifyPayments); err != nil {
		return nil, err
	}

	var unallocated decimal.Decimal
	policy := func(p models.Payment, unpaid []models.Bill) []string {
		alloc := ledger.AllocateFIFO(p, unpaid)
		unallocated = alloc.Remaining
		return alloc.BillIDs
	}

	payment, billIDs, err := s.store.VerifyPayment(ctx, paymentID, actor.UserID, s.now(), policy)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrAlreadyVerified) {
			s.logger.Warn("VerifyPayment rejected", "payment_id", paymentID, "error", err)
		} else {
			s.logger.Error("VerifyPayment failed", "payment_id", paymentID, "error", err)
		}
		return nil, err
	}

	result := &models.Verification{
		Payment:         payment,
		BillsMarkedPaid: len(billIDs),
		BillIDs:         billIDs,
		Unallocated:     unallocated,
		Message:         verificationMessage(len(billIDs)),
	}
	if result.BillIDs == nil {
		result.BillIDs = []string{}
	}

	s.recorder.PaymentVerified(result.BillsMarkedPaid)
	s.logger.Info("Payment verified",
		"payment_id", payment.ID,
		"tenant_id", payment.TenantID,
		"bills_marked_paid", result.BillsMarkedPaid,
		"verified_by", actor.UserID,
	)

	s.notifyTenant(ctx, payment)
	return result, nil
}

func verificationMessage(n int) string {
	if n == 1 {
		return "Payment verified. 1 bill marked paid"
	}
	return fmt.Sprintf("Payment verified. %d bills marked paid", n)
}

// notifyTenant tells the paying tenant their payment cleared. Failures are logged only.
func (s *LedgerService) notifyTenant(ctx context.Context, payment *models.Payment) {
	tenant, err := s.store.GetTenant(ctx, payment.TenantID)
	if err != nil {
		s.logger.Warn("Verification notice skipped", "tenant_id", payment.TenantID, "error", err)
		return
	}
	n := &models.Notification{
		RecipientID: tenant.UserID,
		Message:     fmt.Sprintf("Your payment of %s (ref %s) has been verified.", money.Format(payment.Amount), payment.ReferenceNumber),
		Link:        "/tenant-dashboard",
	}
	if err := s.store.CreateNotification(ctx, n); err != nil {
		s.logger.Warn("Verification notice failed", "tenant_id", payment.TenantID, "error", err)
	}
}

// scopeTenant returns the tenant id a caller may read.
// Tenants always read their own ledger; staff may read any, or all when tenantID is empty.
func scopeTenant(actor auth.Principal, tenantID string) (string, error) {
	if err := authenticated(actor); err != nil {
		return "", err
	}
	if actor.Can(auth.ViewAllLedgers) {
		return tenantID, nil
	}
	if actor.Role == models.RoleTenant && actor.TenantID != "" {
		if tenantID == "" || tenantID == actor.TenantID {
			return actor.TenantID, nil
		}
	}
	return "", fmt.Errorf("%w: cannot read this ledger", ErrPermissionDenied)
}

// ListBills returns bills for one tenant, or all bills for staff.
func (s *LedgerService) ListBills(ctx context.Context, actor auth.Principal, tenantID string) ([]models.Bill, error) {
	scoped, err := scopeTenant(actor, tenantID)
	if err != nil {
		return nil, err
	}
	return s.store.ListBills(ctx, scoped)
}

// ListPayments returns payments for one tenant, or all payments for staff.
func (s *LedgerService) ListPayments(ctx context.Context, actor auth.Principal, tenantID string) ([]models.Payment, error) {
	scoped, err := scopeTenant(actor, tenantID)
	if err != nil {
		return nil, err
	}
	return s.store.ListPayments(ctx, scoped)
}

// Statement reduces a tenant's ledger to its outstanding balance.
func (s *LedgerService) Statement(ctx context.Context, actor auth.Principal, tenantID string) (*TenantStatement, error) {
	scoped, err := scopeTenant(actor, tenantID)
	if err != nil {
		return nil, err
	}
	if scoped == "" {
		return nil, Invalid("tenant", "This field is required")
	}

	tenant, err := s.store.GetTenant(ctx, scoped)
	if err != nil {
		return nil, err
	}
	bills, err := s.store.ListBills(ctx, scoped)
	if err != nil {
		return nil, err
	}
	payments, err := s.store.ListPayments(ctx, scoped)
	if err != nil {
		return nil, err
	}

	st := ledger.Summarize(tenant, bills, payments)
	return &TenantStatement{
		Tenant:    tenant,
		Statement: st,
		Display:   money.Format(st.Outstanding),
		Bills:     nonNil(bills),
		Payments:  nonNil(payments),
	}, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
