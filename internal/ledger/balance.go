// Package ledger reduces a tenant's rent, bills and payments to an amount owed.
//
// Every balance in the system goes through ComputeOutstandingBalance: the server
// statement endpoint, the debtors report and the API client all call it, so
// there is one definition of what a tenant owes.
package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/seams-estates/seams/internal/models"
)

// Statement is the reduced view of one tenant's ledger.
type Statement struct {
	Rent decimal.Decimal `json:"rent"`

	// Billed is the sum of every bill, paid or not.
	Billed decimal.Decimal `json:"billed"`

	// Unpaid is the sum of bills not yet covered by a verified payment.
	Unpaid decimal.Decimal `json:"unpaid"`

	// PaidIn is the sum of verified payments.
	PaidIn decimal.Decimal `json:"paid_in"`

	// Pending is the sum of payments awaiting verification.
	Pending decimal.Decimal `json:"pending"`

	// Balance is the raw amount owed; negative means credit.
	Balance decimal.Decimal `json:"balance"`

	// Outstanding is Balance clamped at zero for display.
	Outstanding decimal.Decimal `json:"outstanding"`

	// Credit is the overpayment when Balance is negative, otherwise zero.
	Credit decimal.Decimal `json:"credit"`

	BillCount    int `json:"bill_count"`
	PaymentCount int `json:"payment_count"`
}

// ComputeOutstandingBalance returns rent + all bills - verified payments.
//
// Negative rent is treated as missing. The result is not clamped; use Display
// for the value shown to users.
func ComputeOutstandingBalance(rent decimal.Decimal, bills []models.Bill, payments []models.Payment) decimal.Decimal {
	balance := normalizeRent(rent)
	for _, b := range bills {
		balance = balance.Add(b.Amount)
	}
	for _, p := range payments {
		if p.Verified {
			balance = balance.Sub(p.Amount)
		}
	}
	return balance
}

// Display clamps a balance at zero.
func Display(balance decimal.Decimal) decimal.Decimal {
	if balance.IsNegative() {
		return decimal.Zero
	}
	return balance
}

// VerifiedTotal sums verified payments.
func VerifiedTotal(payments []models.Payment) decimal.Decimal {
	total := decimal.Zero
	for _, p := range payments {
		if p.Verified {
			total = total.Add(p.Amount)
		}
	}
	return total
}

// PaymentTotal sums every payment regardless of verification.
func PaymentTotal(payments []models.Payment) decimal.Decimal {
	total := decimal.Zero
	for _, p := range payments {
		total = total.Add(p.Amount)
	}
	return total
}

// Summarize builds a Statement for a tenant.
func Summarize(tenant *models.Tenant, bills []models.Bill, payments []models.Payment) Statement {
	st := Statement{
		Rent:         normalizeRent(tenant.Rent()),
		Billed:       decimal.Zero,
		Unpaid:       decimal.Zero,
		Pending:      decimal.Zero,
		BillCount:    len(bills),
		PaymentCount: len(payments),
	}

	for _, b := range bills {
		st.Billed = st.Billed.Add(b.Amount)
		if !b.Paid {
			st.Unpaid = st.Unpaid.Add(b.Amount)
		}
	}

	st.PaidIn = VerifiedTotal(payments)
	st.Pending = PaymentTotal(payments).Sub(st.PaidIn)

	st.Balance = ComputeOutstandingBalance(tenant.Rent(), bills, payments)
	st.Outstanding = Display(st.Balance)
	st.Credit = decimal.Zero
	if st.Balance.IsNegative() {
		st.Credit = st.Balance.Neg()
	}

	return st
}

func normalizeRent(rent decimal.Decimal) decimal.Decimal {
	if rent.IsNegative() {
		return decimal.Zero
	}
	return rent
}
