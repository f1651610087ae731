package ledger

import "github.com/seams-estates/seams/internal/models"

// DefaultExpiryWindowDays is how close to its end a contract counts as expiring.
const DefaultExpiryWindowDays = 30

// ContractStatus derives a tenant's status from the contract end date.
// A contract ending today is still active or expiring, never expired.
func ContractStatus(end, today models.Date, windowDays int) models.TenantStatus {
	if end.IsZero() {
		return models.TenantActive
	}
	if end.Before(today.Time) {
		return models.TenantExpired
	}
	if !end.After(today.AddDays(windowDays).Time) {
		return models.TenantExpiring
	}
	return models.TenantActive
}

// DaysRemaining is the number of days until end; negative once it has passed.
func DaysRemaining(end, today models.Date) int {
	return int(end.Sub(today.Time).Hours() / 24)
}
