package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ChargeType classifies both bills and payments.
type ChargeType string

const (
	ChargeRent        ChargeType = "rent"
	ChargeWater       ChargeType = "water"
	ChargeElectricity ChargeType = "electricity"
	ChargeGarbage     ChargeType = "garbage"
	ChargeDamage      ChargeType = "damage"
	ChargeDeposit     ChargeType = "deposit"
	ChargeOther       ChargeType = "other"
)

// ChargeTypes lists every charge type in display order.
var ChargeTypes = []ChargeType{
	ChargeRent, ChargeWater, ChargeElectricity, ChargeGarbage, ChargeDamage, ChargeDeposit, ChargeOther,
}

func (c ChargeType) Valid() bool {
	for _, t := range ChargeTypes {
		if c == t {
			return true
		}
	}
	return false
}

// PaymentMethod is how funds were transferred.
type PaymentMethod string

const (
	MethodMpesa  PaymentMethod = "mpesa"
	MethodBank   PaymentMethod = "bank"
	MethodCash   PaymentMethod = "cash"
	MethodCheque PaymentMethod = "cheque"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodMpesa, MethodBank, MethodCash, MethodCheque:
		return true
	}
	return false
}

// Bill is a charge posted against a tenant.
// Paid only changes when a payment covering it is verified.
type Bill struct {
	ID          string          `json:"id"`
	TenantID    string          `json:"tenant"`
	BillType    ChargeType      `json:"bill_type"`
	Amount      decimal.Decimal `json:"amount"`
	MonthFor    Date            `json:"month_for"`
	Description string          `json:"description"`
	Paid        bool            `json:"paid"`

	// PaidAt and PaidBy are set when a verified payment covered the bill.
	PaidAt *time.Time `json:"paid_at,omitempty"`
	PaidBy string     `json:"paid_by_payment,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Payment is a funds transfer submitted for a tenant.
// Verified flips from false to true exactly once.
type Payment struct {
	ID              string          `json:"id"`
	TenantID        string          `json:"tenant"`
	Amount          decimal.Decimal `json:"amount"`
	PaymentType     ChargeType      `json:"payment_type"`
	PaymentMethod   PaymentMethod   `json:"payment_method"`
	ReferenceNumber string          `json:"reference_number"`
	PaymentDate     Date            `json:"payment_date"`
	MonthFor        Date            `json:"month_for"`
	Verified        bool            `json:"is_verified"`
	VerifiedAt      *time.Time      `json:"verified_at,omitempty"`
	VerifiedBy      string          `json:"verified_by,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// Verification is the outcome of confirming a payment.
type Verification struct {
	Payment         *Payment        `json:"payment"`
	BillsMarkedPaid int             `json:"bills_marked_paid"`
	BillIDs         []string        `json:"bill_ids"`
	Unallocated     decimal.Decimal `json:"unallocated"`
	Message         string          `json:"message"`
}
