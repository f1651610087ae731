package service

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seams-estates/seams/internal/auth"
	"github.com/seams-estates/seams/internal/models"
)

type countingRecorder struct {
	mu       sync.Mutex
	recorded int
	verified int
	posted   int
}

func (r *countingRecorder) PaymentRecorded(models.PaymentMethod, decimal.Decimal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recorded++
}

func (r *countingRecorder) PaymentVerified(int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.verified++
}

func (r *countingRecorder) BillPosted(models.ChargeType, decimal.Decimal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.posted++
}

func TestRecordPayment(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tenant, tenantActor := env.tenant(t, "A1", "10000")

	t.Run("tenant records own payment with defaults", func(t *testing.T) {
		p, err := env.ledger.RecordPayment(ctx, tenantActor, RecordPaymentInput{
			TenantID:      tenant.ID,
			Amount:        amt("10000"),
			PaymentMethod: models.MethodMpesa,
		})
		require.NoError(t, err)
		assert.False(t, p.Verified)
		assert.Equal(t, models.ChargeRent, p.PaymentType)
		assert.Equal(t, "REF-1718443800000", p.ReferenceNumber)
		assert.Equal(t, "2024-06-15", p.PaymentDate.String())
		assert.Equal(t, "2024-06-01", p.MonthFor.String())
	})

	t.Run("non-positive amount is rejected", func(t *testing.T) {
		for _, a := range []string{"-50", "0"} {
			_, err := env.ledger.RecordPayment(ctx, env.admin, RecordPaymentInput{
				TenantID:      tenant.ID,
				Amount:        amt(a),
				PaymentType:   models.ChargeRent,
				PaymentMethod: models.MethodCash,
				PaymentDate:   models.NewDate(fixedNow),
			})
			var verr *ValidationError
			require.ErrorAs(t, err, &verr, "amount %s", a)
			assert.Equal(t, "amount", verr.Fields[0].Field)
		}
	})

	t.Run("amount outside the stored precision is rejected", func(t *testing.T) {
		for _, a := range []string{"0.001", "10000000000000000000", "100000000"} {
			_, err := env.ledger.RecordPayment(ctx, env.admin, RecordPaymentInput{
				TenantID:      tenant.ID,
				Amount:        amt(a),
				PaymentMethod: models.MethodCash,
			})
			var verr *ValidationError
			require.ErrorAs(t, err, &verr, "amount %s", a)
			assert.Equal(t, "amount", verr.Fields[0].Field)
			assert.Contains(t, verr.Fields[0].Message, "2 decimal places")
		}

		p, err := env.ledger.RecordPayment(ctx, env.admin, RecordPaymentInput{
			TenantID:      tenant.ID,
			Amount:        amt("99999999.99"),
			PaymentMethod: models.MethodCash,
		})
		require.NoError(t, err)
		assert.True(t, p.Amount.Equal(amt("99999999.99")))
	})

	t.Run("unknown method is rejected", func(t *testing.T) {
		_, err := env.ledger.RecordPayment(ctx, env.admin, RecordPaymentInput{
			TenantID:      tenant.ID,
			Amount:        amt("100"),
			PaymentMethod: "paypal",
		})
		assert.True(t, IsValidation(err))
	})

	t.Run("unknown tenant is a validation failure", func(t *testing.T) {
		_, err := env.ledger.RecordPayment(ctx, env.admin, RecordPaymentInput{
			TenantID:      "missing",
			Amount:        amt("100"),
			PaymentMethod: models.MethodCash,
		})
		assert.True(t, IsValidation(err))
	})

	t.Run("tenant cannot pay for another tenancy", func(t *testing.T) {
		other, _ := env.tenant(t, "A2", "8000")
		_, err := env.ledger.RecordPayment(ctx, tenantActor, RecordPaymentInput{
			TenantID:      other.ID,
			Amount:        amt("100"),
			PaymentMethod: models.MethodCash,
		})
		assert.ErrorIs(t, err, ErrPermissionDenied)
	})

	t.Run("anonymous caller is rejected", func(t *testing.T) {
		_, err := env.ledger.RecordPayment(ctx, auth.Principal{}, RecordPaymentInput{TenantID: tenant.ID})
		assert.ErrorIs(t, err, ErrUnauthenticated)
	})
}

func TestRecordPaymentDoesNotChangeBills(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tenant, _ := env.tenant(t, "A1", "10000")

	_, err := env.ledger.PostBill(ctx, env.admin, PostBillInput{TenantID: tenant.ID, BillType: models.ChargeRent, Amount: amt("10000")})
	require.NoError(t, err)

	_, err = env.ledger.RecordPayment(ctx, env.admin, RecordPaymentInput{
		TenantID: tenant.ID, Amount: amt("10000"), PaymentMethod: models.MethodBank,
	})
	require.NoError(t, err)

	bills, err := env.ledger.ListBills(ctx, env.admin, tenant.ID)
	require.NoError(t, err)
	require.Len(t, bills, 1)
	assert.False(t, bills[0].Paid)
}

func TestPostBill(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tenant, tenantActor := env.tenant(t, "A1", "10000")
	recorder := &countingRecorder{}
	env.ledger.recorder = recorder

	bill, err := env.ledger.PostBill(ctx, env.admin, PostBillInput{
		TenantID:    tenant.ID,
		BillType:    models.ChargeWater,
		Amount:      amt("450.50"),
		Description: "  June water ",
	})
	require.NoError(t, err)
	assert.False(t, bill.Paid)
	assert.Equal(t, "June water", bill.Description)
	assert.Equal(t, "2024-06-01", bill.MonthFor.String())
	assert.Equal(t, 1, recorder.posted)

	_, err = env.ledger.PostBill(ctx, tenantActor, PostBillInput{TenantID: tenant.ID, BillType: models.ChargeWater, Amount: amt("1")})
	assert.ErrorIs(t, err, ErrPermissionDenied)

	_, err = env.ledger.PostBill(ctx, env.admin, PostBillInput{TenantID: tenant.ID, BillType: "parking", Amount: amt("1")})
	assert.True(t, IsValidation(err))

	_, err = env.ledger.PostBill(ctx, env.admin, PostBillInput{TenantID: tenant.ID, BillType: models.ChargeWater, Amount: amt("-1")})
	assert.True(t, IsValidation(err))

	for _, a := range []string{"450.505", "123456789"} {
		_, err = env.ledger.PostBill(ctx, env.admin, PostBillInput{TenantID: tenant.ID, BillType: models.ChargeWater, Amount: amt(a)})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr, "amount %s", a)
		assert.Equal(t, "amount", verr.Fields[0].Field)
	}
}

func TestVerifyPayment(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tenant, tenantActor := env.tenant(t, "A1", "10000")
	manager := env.staff(t, "manager", models.RoleManager)

	post := func(billType models.ChargeType, amount, month string) *models.Bill {
		b, err := env.ledger.PostBill(ctx, env.admin, PostBillInput{
			TenantID: tenant.ID, BillType: billType, Amount: amt(amount), MonthFor: models.MustDate(month),
		})
		require.NoError(t, err)
		return b
	}
	may := post(models.ChargeRent, "10000", "2024-05-01")
	june := post(models.ChargeRent, "10000", "2024-06-01")
	water := post(models.ChargeWater, "500", "2024-04-01")

	payment, err := env.ledger.RecordPayment(ctx, tenantActor, RecordPaymentInput{
		TenantID:      tenant.ID,
		Amount:        amt("15000"),
		PaymentType:   models.ChargeRent,
		PaymentMethod: models.MethodMpesa,
	})
	require.NoError(t, err)

	_, err = env.ledger.VerifyPayment(ctx, tenantActor, payment.ID)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	result, err := env.ledger.VerifyPayment(ctx, manager, payment.ID)
	require.NoError(t, err)
	assert.True(t, result.Payment.Verified)
	assert.Equal(t, manager.UserID, result.Payment.VerifiedBy)
	assert.Equal(t, 1, result.BillsMarkedPaid)
	assert.Equal(t, []string{may.ID}, result.BillIDs)
	assert.True(t, result.Unallocated.Equal(amt("5000")))
	assert.Equal(t, "Payment verified. 1 bill marked paid", result.Message)

	bills, err := env.ledger.ListBills(ctx, env.admin, tenant.ID)
	require.NoError(t, err)
	paid := map[string]bool{}
	for _, b := range bills {
		paid[b.ID] = b.Paid
	}
	assert.True(t, paid[may.ID])
	assert.False(t, paid[june.ID])
	assert.False(t, paid[water.ID])

	t.Run("second verification fails and changes nothing", func(t *testing.T) {
		_, err := env.ledger.VerifyPayment(ctx, env.admin, payment.ID)
		assert.ErrorIs(t, err, ErrAlreadyVerified)

		again, err := env.ledger.ListBills(ctx, env.admin, tenant.ID)
		require.NoError(t, err)
		assert.Equal(t, bills, again)
	})

	t.Run("unknown payment", func(t *testing.T) {
		_, err := env.ledger.VerifyPayment(ctx, env.admin, "no-such-payment")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("tenant is notified", func(t *testing.T) {
		notes, err := env.notes.List(ctx, tenantActor, true)
		require.NoError(t, err)
		require.NotEmpty(t, notes)
		assert.Contains(t, notes[0].Message, "KES 15,000.00")
	})
}

func TestVerifyPaymentConcurrent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tenant, _ := env.tenant(t, "A1", "10000")
	recorder := &countingRecorder{}
	env.ledger.recorder = recorder

	_, err := env.ledger.PostBill(ctx, env.admin, PostBillInput{TenantID: tenant.ID, BillType: models.ChargeRent, Amount: amt("10000")})
	require.NoError(t, err)
	payment, err := env.ledger.RecordPayment(ctx, env.admin, RecordPaymentInput{
		TenantID: tenant.ID, Amount: amt("10000"), PaymentMethod: models.MethodCash,
	})
	require.NoError(t, err)

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		repeats   int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.ledger.VerifyPayment(ctx, env.admin, payment.ID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case assert.ErrorIs(t, err, ErrAlreadyVerified):
				repeats++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, workers-1, repeats)
	assert.Equal(t, 1, recorder.verified)
}

func TestStatement(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tenant, tenantActor := env.tenant(t, "A1", "10000")

	st, err := env.ledger.Statement(ctx, tenantActor, "")
	require.NoError(t, err)
	assert.True(t, st.Statement.Balance.Equal(amt("10000")))
	assert.Equal(t, "KES 10,000.00", st.Display)
	assert.NotNil(t, st.Bills)
	assert.NotNil(t, st.Payments)

	_, err = env.ledger.PostBill(ctx, env.admin, PostBillInput{TenantID: tenant.ID, BillType: models.ChargeWater, Amount: amt("2000")})
	require.NoError(t, err)
	p, err := env.ledger.RecordPayment(ctx, tenantActor, RecordPaymentInput{
		TenantID: tenant.ID, Amount: amt("12000"), PaymentMethod: models.MethodMpesa,
	})
	require.NoError(t, err)

	st, err = env.ledger.Statement(ctx, env.admin, tenant.ID)
	require.NoError(t, err)
	assert.True(t, st.Statement.Balance.Equal(amt("12000")), "unverified payments do not reduce the balance")
	assert.True(t, st.Statement.Pending.Equal(amt("12000")))

	_, err = env.ledger.VerifyPayment(ctx, env.admin, p.ID)
	require.NoError(t, err)

	st, err = env.ledger.Statement(ctx, env.admin, tenant.ID)
	require.NoError(t, err)
	assert.True(t, st.Statement.Outstanding.IsZero())
	assert.Equal(t, "KES 0.00", st.Display)

	t.Run("tenants only read their own ledger", func(t *testing.T) {
		other, _ := env.tenant(t, "A2", "5000")
		_, err := env.ledger.Statement(ctx, tenantActor, other.ID)
		assert.ErrorIs(t, err, ErrPermissionDenied)
	})

	t.Run("technicians cannot read ledgers", func(t *testing.T) {
		tech := env.staff(t, "tech", models.RoleTechnician)
		_, err := env.ledger.ListPayments(ctx, tech, tenant.ID)
		assert.ErrorIs(t, err, ErrPermissionDenied)
	})
}
