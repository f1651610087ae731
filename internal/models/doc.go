// Package models defines the core domain models for the SEAMS estate backend.
//
// # Ledger models
//
// The ledger is built from three flat lists per tenant:
//   - House: carries the monthly rent, the recurring base charge
//   - Bill: a charge posted against a tenant by an administrator
//   - Payment: funds submitted by a tenant, unverified until an administrator confirms them
//
// Balances are never stored. They are recomputed from these lists by the ledger package.
//
// # Supporting models
//
//   - Tenant: links a user to a house with contract dates
//   - User: an account with a role and an approval status
//   - MaintenanceRequest: a reported issue against a house
//   - Notification: an in-app message for one user
//
// # Conventions
//
//  1. Money is decimal.Decimal, encoded as a plain JSON number
//  2. Calendar dates use Date (YYYY-MM-DD); instants use time.Time
//  3. Relationships are ID strings, not pointers; read models may embed the related record
package models

import "github.com/shopspring/decimal"

func init() {
	// Amounts travel as plain numeric JSON values.
	decimal.MarshalJSONWithoutQuotes = true
}
