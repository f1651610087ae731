package ledger

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/seams-estates/seams/internal/models"
)

// Debtor is a tenant who owes money.
type Debtor struct {
	TenantID    string          `json:"tenant_id"`
	UserID      string          `json:"user_id"`
	Name        string          `json:"name"`
	HouseNumber string          `json:"house_number"`
	Balance     decimal.Decimal `json:"balance"`
	Formatted   string          `json:"balance_display"`
}

// TenantLedger bundles one tenant with the lists that feed the balance.
type TenantLedger struct {
	Tenant   *models.Tenant
	Bills    []models.Bill
	Payments []models.Payment
}

// Debtors returns tenants with a positive balance, largest first.
// format renders the display string; it may be nil.
func Debtors(ledgers []TenantLedger, format func(decimal.Decimal) string) []Debtor {
	var debtors []Debtor
	for _, l := range ledgers {
		balance := ComputeOutstandingBalance(l.Tenant.Rent(), l.Bills, l.Payments)
		if !balance.IsPositive() {
			continue
		}
		d := Debtor{
			TenantID:    l.Tenant.ID,
			UserID:      l.Tenant.UserID,
			Name:        l.Tenant.Name,
			HouseNumber: l.Tenant.HouseNumber(),
			Balance:     balance,
		}
		if format != nil {
			d.Formatted = format(balance)
		}
		debtors = append(debtors, d)
	}

	sort.SliceStable(debtors, func(i, j int) bool {
		return debtors[i].Balance.GreaterThan(debtors[j].Balance)
	})
	return debtors
}
