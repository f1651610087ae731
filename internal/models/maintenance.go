package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MaintenanceStatus is the lifecycle state of a maintenance request.
type MaintenanceStatus string

const (
	MaintenanceNew        MaintenanceStatus = "new"
	MaintenancePending    MaintenanceStatus = "pending"
	MaintenanceAssigned   MaintenanceStatus = "assigned"
	MaintenanceInProgress MaintenanceStatus = "in_progress"
	MaintenanceCompleted  MaintenanceStatus = "completed"
	MaintenanceCancelled  MaintenanceStatus = "cancelled"
)

// MaintenanceStatuses lists every status in workflow order.
var MaintenanceStatuses = []MaintenanceStatus{
	MaintenanceNew, MaintenancePending, MaintenanceAssigned,
	MaintenanceInProgress, MaintenanceCompleted, MaintenanceCancelled,
}

func (s MaintenanceStatus) Valid() bool {
	for _, v := range MaintenanceStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// MaintenanceCategory groups requests by trade.
type MaintenanceCategory string

const (
	CategoryPlumbing    MaintenanceCategory = "plumbing"
	CategoryElectrical  MaintenanceCategory = "electrical"
	CategoryStructural  MaintenanceCategory = "structural"
	CategoryPestControl MaintenanceCategory = "pest_control"
	CategoryGeneral     MaintenanceCategory = "general"
)

func (c MaintenanceCategory) Valid() bool {
	switch c {
	case CategoryPlumbing, CategoryElectrical, CategoryStructural, CategoryPestControl, CategoryGeneral:
		return true
	}
	return false
}

// Priority ranks maintenance urgency.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// MaintenanceRequest is an issue reported against a house.
type MaintenanceRequest struct {
	ID string `json:"id"`

	// RequestNumber is the sequential public label (MR-001, MR-002, ...).
	RequestNumber string `json:"request_id"`

	HouseID     string `json:"house"`
	HouseNumber string `json:"house_number"`
	ReportedBy  string `json:"reported_by"`
	AssignedTo  string `json:"assigned_to,omitempty"`

	Description string              `json:"issue_description"`
	Category    MaintenanceCategory `json:"category"`
	Priority    Priority            `json:"priority"`
	Status      MaintenanceStatus   `json:"status"`
	Notes       string              `json:"notes"`

	EstimatedCost decimal.NullDecimal `json:"estimated_cost"`
	ActualCost    decimal.NullDecimal `json:"actual_cost"`

	CreatedAt   time.Time  `json:"created_at"`
	AssignedAt  *time.Time `json:"assigned_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Cost returns the actual cost, falling back to the estimate.
func (m *MaintenanceRequest) Cost() decimal.Decimal {
	if m.ActualCost.Valid {
		return m.ActualCost.Decimal
	}
	if m.EstimatedCost.Valid {
		return m.EstimatedCost.Decimal
	}
	return decimal.Zero
}
