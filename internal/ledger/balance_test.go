package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seams-estates/seams/internal/models"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func bill(id string, amount string, paid bool) models.Bill {
	return models.Bill{ID: id, TenantID: "t1", BillType: models.ChargeWater, Amount: d(amount), Paid: paid}
}

func payment(amount string, verified bool) models.Payment {
	return models.Payment{TenantID: "t1", Amount: d(amount), PaymentType: models.ChargeRent, Verified: verified}
}

func TestComputeOutstandingBalance(t *testing.T) {
	tests := []struct {
		name     string
		rent     string
		bills    []models.Bill
		payments []models.Payment
		want     string
		display  string
	}{
		{
			name:    "rent only",
			rent:    "10000",
			want:    "10000",
			display: "10000",
		},
		{
			name:     "overpayment clamps to zero",
			rent:     "10000",
			bills:    []models.Bill{bill("b1", "2000", false)},
			payments: []models.Payment{payment("12000", true)},
			want:     "0",
			display:  "0",
		},
		{
			name:     "unverified payment does not reduce balance",
			rent:     "10000",
			payments: []models.Payment{payment("10000", false)},
			want:     "10000",
			display:  "10000",
		},
		{
			name:     "credit stays negative before clamping",
			rent:     "5000",
			payments: []models.Payment{payment("7500.50", true)},
			want:     "-2500.50",
			display:  "0",
		},
		{
			name:     "bills and mixed payments",
			rent:     "8000",
			bills:    []models.Bill{bill("b1", "450.25", false), bill("b2", "300", true)},
			payments: []models.Payment{payment("5000", true), payment("1000", false)},
			want:     "3750.25",
			display:  "3750.25",
		},
		{
			name:    "negative rent counts as missing",
			rent:    "-100",
			bills:   []models.Bill{bill("b1", "200", false)},
			want:    "200",
			display: "200",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeOutstandingBalance(d(tt.rent), tt.bills, tt.payments)
			assert.True(t, got.Equal(d(tt.want)), "balance: got %s, want %s", got, tt.want)
			assert.True(t, Display(got).Equal(d(tt.display)), "display: got %s, want %s", Display(got), tt.display)
		})
	}
}

func TestComputeOutstandingBalanceIsPure(t *testing.T) {
	bills := []models.Bill{bill("b1", "120.10", false), bill("b2", "79.90", false)}
	payments := []models.Payment{payment("50", true), payment("25", false)}

	first := ComputeOutstandingBalance(d("1000"), bills, payments)
	second := ComputeOutstandingBalance(d("1000"), bills, payments)

	assert.True(t, first.Equal(second))
	assert.Equal(t, "120.1", bills[0].Amount.String(), "inputs must not be modified")
	assert.False(t, bills[0].Paid)
}

func TestDisplayNeverNegative(t *testing.T) {
	for _, v := range []string{"-0.01", "-1000000", "0", "0.01", "42"} {
		assert.False(t, Display(d(v)).IsNegative(), "Display(%s)", v)
	}
}

func TestVerifiedTotalBoundedByTotal(t *testing.T) {
	sets := [][]models.Payment{
		nil,
		{payment("100", false)},
		{payment("100", true), payment("0.50", false)},
		{payment("3000", true), payment("2000", true)},
	}
	for _, ps := range sets {
		assert.True(t, VerifiedTotal(ps).LessThanOrEqual(PaymentTotal(ps)))
	}
}

func TestSummarize(t *testing.T) {
	tenant := &models.Tenant{
		ID:    "t1",
		House: &models.House{HouseNumber: "A1", RentAmount: d("10000")},
	}
	bills := []models.Bill{bill("b1", "2000", false), bill("b2", "500", true)}
	payments := []models.Payment{payment("11000", true), payment("3000", false)}

	st := Summarize(tenant, bills, payments)

	assert.True(t, st.Rent.Equal(d("10000")))
	assert.True(t, st.Billed.Equal(d("2500")))
	assert.True(t, st.Unpaid.Equal(d("2000")))
	assert.True(t, st.PaidIn.Equal(d("11000")))
	assert.True(t, st.Pending.Equal(d("3000")))
	assert.True(t, st.Balance.Equal(d("1500")))
	assert.True(t, st.Outstanding.Equal(d("1500")))
	assert.True(t, st.Credit.IsZero())
	assert.Equal(t, 2, st.BillCount)
	assert.Equal(t, 2, st.PaymentCount)
}

func TestSummarizeWithoutHouse(t *testing.T) {
	st := Summarize(&models.Tenant{ID: "t1"}, nil, []models.Payment{payment("200", true)})

	require.True(t, st.Rent.IsZero())
	assert.True(t, st.Balance.Equal(d("-200")))
	assert.True(t, st.Outstanding.IsZero())
	assert.True(t, st.Credit.Equal(d("200")))
}

func TestDebtors(t *testing.T) {
	house := func(n, rent string) *models.House {
		return &models.House{HouseNumber: n, RentAmount: d(rent)}
	}
	ledgers := []TenantLedger{
		{Tenant: &models.Tenant{ID: "t1", Name: "Paid Up", House: house("A1", "5000")},
			Payments: []models.Payment{payment("5000", true)}},
		{Tenant: &models.Tenant{ID: "t2", Name: "Small Debt", House: house("A2", "5000")},
			Payments: []models.Payment{payment("4000", true)}},
		{Tenant: &models.Tenant{ID: "t3", Name: "Large Debt", House: house("A3", "9000")}},
	}

	debtors := Debtors(ledgers, func(v decimal.Decimal) string { return "KES " + v.StringFixed(2) })

	require.Len(t, debtors, 2)
	assert.Equal(t, "t3", debtors[0].TenantID)
	assert.Equal(t, "A3", debtors[0].HouseNumber)
	assert.Equal(t, "KES 9000.00", debtors[0].Formatted)
	assert.Equal(t, "t2", debtors[1].TenantID)
	assert.True(t, debtors[1].Balance.Equal(d("1000")))
}

func TestContractStatus(t *testing.T) {
	today := models.MustDate("2024-06-01")

	tests := []struct {
		end  string
		want models.TenantStatus
	}{
		{"2024-05-31", models.TenantExpired},
		{"2024-06-01", models.TenantExpiring},
		{"2024-07-01", models.TenantExpiring},
		{"2024-07-02", models.TenantActive},
		{"2025-06-01", models.TenantActive},
	}

	for _, tt := range tests {
		t.Run(tt.end, func(t *testing.T) {
			assert.Equal(t, tt.want, ContractStatus(models.MustDate(tt.end), today, DefaultExpiryWindowDays))
		})
	}

	assert.Equal(t, models.TenantActive, ContractStatus(models.Date{}, today, DefaultExpiryWindowDays))
}

func TestDaysRemaining(t *testing.T) {
	today := models.NewDate(time.Date(2024, 1, 10, 15, 0, 0, 0, time.UTC))
	assert.Equal(t, 5, DaysRemaining(models.MustDate("2024-01-15"), today))
	assert.Equal(t, -10, DaysRemaining(models.MustDate("2023-12-31"), today))
}
