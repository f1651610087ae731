package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TenantStatus is derived from the contract end date.
type TenantStatus string

const (
	TenantActive   TenantStatus = "active"
	TenantExpiring TenantStatus = "expiring"
	TenantExpired  TenantStatus = "expired"
)

// Tenant links a user account to a house for the length of a contract.
type Tenant struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`

	// HouseID is empty when the tenant has no current house.
	HouseID string `json:"house_id,omitempty"`

	// House is populated on reads; it is ignored on writes.
	House *House `json:"house,omitempty"`

	// Name and Email are denormalized from the user for listings.
	Name  string `json:"name"`
	Email string `json:"email"`

	MoveInDate       Date         `json:"move_in_date"`
	ContractStart    Date         `json:"contract_start"`
	ContractEnd      Date         `json:"contract_end"`
	EmergencyContact string       `json:"emergency_contact"`
	EmergencyPhone   string       `json:"emergency_phone"`
	Status           TenantStatus `json:"status"`
	CreatedAt        time.Time    `json:"created_at"`
}

// Rent returns the monthly rent of the tenant's house, or zero when unknown.
func (t *Tenant) Rent() decimal.Decimal {
	if t == nil || t.House == nil {
		return decimal.Zero
	}
	return t.House.RentAmount
}

// HouseNumber returns the house label, or "" when the tenant has no house.
func (t *Tenant) HouseNumber() string {
	if t == nil || t.House == nil {
		return ""
	}
	return t.House.HouseNumber
}
