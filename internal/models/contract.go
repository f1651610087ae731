package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Contract is one lease agreement between a tenant and a house.
// A tenant keeps every past contract; the tenant's own dates track the current one.
type Contract struct {
	ID       string `json:"id"`
	TenantID string `json:"tenant"`
	HouseID  string `json:"house"`

	// TenantName and HouseNumber are populated on reads.
	TenantName  string `json:"tenant_name"`
	HouseNumber string `json:"house_number"`

	StartDate   Date            `json:"start_date"`
	EndDate     Date            `json:"end_date"`
	MonthlyRent decimal.Decimal `json:"monthly_rent"`
	DepositPaid decimal.Decimal `json:"deposit_paid"`
	CreatedAt   time.Time       `json:"created_at"`
}
