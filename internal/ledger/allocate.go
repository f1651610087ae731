package ledger

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/seams-estates/seams/internal/models"
)

// Allocation is the set of bills a verified payment settles.
type Allocation struct {
	// BillIDs are the covered bills, oldest first.
	BillIDs []string

	// Applied is the sum of the covered bill amounts.
	Applied decimal.Decimal

	// Remaining is the part of the payment no bill absorbed.
	Remaining decimal.Decimal
}

// AllocateFIFO decides which bills a payment pays off.
//
// Candidates are unpaid bills of the payment's type. They are walked oldest
// first by month_for, then created_at, then input order. A bill is covered only
// when the remaining amount covers it in full; the walk stops at the first bill
// it cannot cover so an older debt is never skipped for a newer one.
func AllocateFIFO(payment models.Payment, bills []models.Bill) Allocation {
	candidates := make([]models.Bill, 0, len(bills))
	for _, b := range bills {
		if b.Paid || b.BillType != payment.PaymentType || b.TenantID != payment.TenantID {
			continue
		}
		candidates = append(candidates, b)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if !a.MonthFor.Equal(b.MonthFor.Time) {
			return a.MonthFor.Before(b.MonthFor.Time)
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})

	alloc := Allocation{Applied: decimal.Zero, Remaining: payment.Amount}
	for _, b := range candidates {
		if alloc.Remaining.LessThan(b.Amount) {
			break
		}
		alloc.BillIDs = append(alloc.BillIDs, b.ID)
		alloc.Applied = alloc.Applied.Add(b.Amount)
		alloc.Remaining = alloc.Remaining.Sub(b.Amount)
	}

	return alloc
}
