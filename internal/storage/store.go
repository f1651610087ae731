// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/seams-estates/seams/internal/models"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyVerified is returned when verifying a payment that is already verified.
	ErrAlreadyVerified = errors.New("payment already verified")

	// ErrConflict is returned when a write violates a uniqueness constraint.
	ErrConflict = errors.New("record already exists")
)

// AllocationPolicy picks which of a tenant's unpaid bills a payment settles.
// It returns the IDs of the bills to mark paid.
type AllocationPolicy func(payment models.Payment, unpaid []models.Bill) []string

// HouseFilter narrows ListHouses. Zero values match everything.
type HouseFilter struct {
	Status models.HouseStatus
}

// UserFilter narrows ListUsers. Zero values match everything.
type UserFilter struct {
	Role     models.Role
	Approval models.ApprovalStatus
}

// MaintenanceFilter narrows ListMaintenance. Zero values match everything.
type MaintenanceFilter struct {
	ReportedBy string
	AssignedTo string
	Status     models.MaintenanceStatus
}

// ContractFilter narrows ListContracts. Zero values match everything.
type ContractFilter struct {
	TenantID string
	HouseID  string
}

// HouseStore persists houses.
type HouseStore interface {
	CreateHouse(ctx context.Context, house *models.House) error
	GetHouse(ctx context.Context, id string) (*models.House, error)
	GetHouseByNumber(ctx context.Context, number string) (*models.House, error)
	ListHouses(ctx context.Context, filter HouseFilter) ([]*models.House, error)
	UpdateHouse(ctx context.Context, house *models.House) error
	SetHouseStatus(ctx context.Context, id string, status models.HouseStatus) error
	DeleteHouse(ctx context.Context, id string) error
}

// TenantStore persists tenancies. Reads populate Tenant.House and the user's name.
type TenantStore interface {
	CreateTenant(ctx context.Context, tenant *models.Tenant) error
	GetTenant(ctx context.Context, id string) (*models.Tenant, error)
	GetTenantByUser(ctx context.Context, userID string) (*models.Tenant, error)
	ListTenants(ctx context.Context) ([]*models.Tenant, error)
	SetTenantStatus(ctx context.Context, id string, status models.TenantStatus) error
	DeleteTenant(ctx context.Context, id string) error
}

// ContractStore persists lease contracts. Reads populate tenant name and house number.
type ContractStore interface {
	CreateContract(ctx context.Context, contract *models.Contract) error
	GetContract(ctx context.Context, id string) (*models.Contract, error)

	// ListContracts orders by start date, latest first.
	ListContracts(ctx context.Context, filter ContractFilter) ([]*models.Contract, error)
	DeleteContract(ctx context.Context, id string) error
}

// LedgerStore persists bills and payments.
// Lists are ordered oldest first by month_for, then creation order.
type LedgerStore interface {
	CreateBill(ctx context.Context, bill *models.Bill) error
	GetBill(ctx context.Context, id string) (*models.Bill, error)

	// ListBills returns a tenant's bills, or every bill when tenantID is empty.
	ListBills(ctx context.Context, tenantID string) ([]models.Bill, error)

	CreatePayment(ctx context.Context, payment *models.Payment) error
	GetPayment(ctx context.Context, id string) (*models.Payment, error)

	// ListPayments returns a tenant's payments, or every payment when tenantID is empty.
	ListPayments(ctx context.Context, tenantID string) ([]models.Payment, error)

	// VerifyPayment flips the payment to verified and marks the bills chosen by
	// policy as paid, atomically. It fails with ErrNotFound or ErrAlreadyVerified.
	VerifyPayment(ctx context.Context, id, verifiedBy string, at time.Time, policy AllocationPolicy) (*models.Payment, []string, error)
}

// UserStore persists accounts.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	ListUsers(ctx context.Context, filter UserFilter) ([]*models.User, error)
	SetApproval(ctx context.Context, id string, status models.ApprovalStatus, by string, at time.Time, reason string) error
}

// NotificationStore persists in-app notifications.
type NotificationStore interface {
	CreateNotification(ctx context.Context, n *models.Notification) error
	GetNotification(ctx context.Context, id string) (*models.Notification, error)
	ListNotifications(ctx context.Context, recipientID string, unreadOnly bool) ([]*models.Notification, error)
	MarkNotificationRead(ctx context.Context, id string) error
}

// MaintenanceStore persists maintenance requests.
type MaintenanceStore interface {
	// CreateMaintenance assigns the next MR-### request number.
	CreateMaintenance(ctx context.Context, req *models.MaintenanceRequest) error
	GetMaintenance(ctx context.Context, id string) (*models.MaintenanceRequest, error)
	ListMaintenance(ctx context.Context, filter MaintenanceFilter) ([]*models.MaintenanceRequest, error)
	UpdateMaintenance(ctx context.Context, req *models.MaintenanceRequest) error
}

// Store is the full persistence surface used by the server.
// This abstraction allows swapping storage backends without changing the service layer.
type Store interface {
	HouseStore
	TenantStore
	ContractStore
	LedgerStore
	UserStore
	NotificationStore
	MaintenanceStore

	// Close releases any resources held by the store.
	Close() error
}
