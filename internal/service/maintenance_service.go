package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/seams-estates/seams/internal/auth"
	"github.com/seams-estates/seams/internal/models"
	"github.com/seams-estates/seams/internal/storage"
)

// MaintenanceStore is the persistence the maintenance service needs.
type MaintenanceStore interface {
	storage.MaintenanceStore
	GetHouse(ctx context.Context, id string) (*models.House, error)
	GetTenantByUser(ctx context.Context, userID string) (*models.Tenant, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	CreateNotification(ctx context.Context, n *models.Notification) error
}

// ReportIssueInput is a new maintenance request. Tenants may omit the house.
type ReportIssueInput struct {
	HouseID       string                     `json:"house"`
	Description   string                     `json:"issue_description" validate:"required,max=2000"`
	Category      models.MaintenanceCategory `json:"category" validate:"omitempty,oneof=plumbing electrical structural pest_control general"`
	Priority      models.Priority            `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	EstimatedCost decimal.NullDecimal        `json:"estimated_cost" validate:"omitempty,money"`
}

// StatusUpdateInput moves a request through its workflow.
type StatusUpdateInput struct {
	Status     models.MaintenanceStatus `json:"status" validate:"required,oneof=new pending assigned in_progress completed cancelled"`
	Notes      string                   `json:"notes"`
	ActualCost decimal.NullDecimal      `json:"actual_cost" validate:"omitempty,money"`
}

// MaintenanceStats counts requests by status.
type MaintenanceStats struct {
	Total    int                              `json:"total"`
	ByStatus map[models.MaintenanceStatus]int `json:"by_status"`
}

// MaintenanceService handles reported issues and technician work.
type MaintenanceService struct {
	store  MaintenanceStore
	logger *slog.Logger
	now    func() time.Time
}

func NewMaintenanceService(store MaintenanceStore, logger *slog.Logger) *MaintenanceService {
	return &MaintenanceService{store: store, logger: logger, now: time.Now}
}

// Report creates a request. Tenants report against their own house.
func (s *MaintenanceService) Report(ctx context.Context, actor auth.Principal, in ReportIssueInput) (*models.MaintenanceRequest, error) {
	if err := authorize(actor, auth.ReportMaintenance); err != nil {
		return nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if in.EstimatedCost.Valid && in.EstimatedCost.Decimal.IsNegative() {
		return nil, Invalid("estimated_cost", "Must be greater than or equal to 0")
	}

	if actor.Role == models.RoleTenant {
		tenant, err := s.store.GetTenantByUser(ctx, actor.UserID)
		if err != nil || tenant.HouseID == "" {
			return nil, Invalid("house", "You have no house on record")
		}
		if in.HouseID != "" && in.HouseID != tenant.HouseID {
			return nil, fmt.Errorf("%w: tenants report issues for their own house", ErrPermissionDenied)
		}
		in.HouseID = tenant.HouseID
	}
	if in.HouseID == "" {
		return nil, Invalid("house", "This field is required")
	}

	house, err := s.store.GetHouse(ctx, in.HouseID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, Invalid("house", "House does not exist")
	}
	if err != nil {
		return nil, err
	}

	req := &models.MaintenanceRequest{
		HouseID:       house.ID,
		HouseNumber:   house.HouseNumber,
		ReportedBy:    actor.UserID,
		Description:   in.Description,
		Category:      in.Category,
		Priority:      in.Priority,
		EstimatedCost: in.EstimatedCost,
	}
	if err := s.store.CreateMaintenance(ctx, req); err != nil {
		return nil, err
	}

	s.logger.Info("Maintenance reported", "request", req.RequestNumber, "house_number", house.HouseNumber, "reported_by", actor.UserID)
	return req, nil
}

// List returns the requests the caller may see.
func (s *MaintenanceService) List(ctx context.Context, actor auth.Principal) ([]*models.MaintenanceRequest, error) {
	if err := authenticated(actor); err != nil {
		return nil, err
	}

	var filter storage.MaintenanceFilter
	switch {
	case actor.Can(auth.ViewAllMaintenance):
	case actor.Role == models.RoleTechnician:
		filter.AssignedTo = actor.UserID
	case actor.Role == models.RoleTenant:
		filter.ReportedBy = actor.UserID
	default:
		return nil, fmt.Errorf("%w: cannot list maintenance", ErrPermissionDenied)
	}

	reqs, err := s.store.ListMaintenance(ctx, filter)
	return nonNil(reqs), err
}

// Get returns one request if the caller may see it.
func (s *MaintenanceService) Get(ctx context.Context, actor auth.Principal, id string) (*models.MaintenanceRequest, error) {
	if err := authenticated(actor); err != nil {
		return nil, err
	}
	req, err := s.store.GetMaintenance(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canSee(actor, req) {
		return nil, fmt.Errorf("%w: cannot read this request", ErrPermissionDenied)
	}
	return req, nil
}

func canSee(actor auth.Principal, req *models.MaintenanceRequest) bool {
	switch {
	case actor.Can(auth.ViewAllMaintenance):
		return true
	case actor.Role == models.RoleTechnician:
		return req.AssignedTo == actor.UserID
	case actor.Role == models.RoleTenant:
		return req.ReportedBy == actor.UserID
	}
	return false
}

// Assign hands a request to a technician.
func (s *MaintenanceService) Assign(ctx context.Context, actor auth.Principal, id, technicianID string) (*models.MaintenanceRequest, error) {
	if err := authorize(actor, auth.AssignMaintenance); err != nil {
		return nil, err
	}
	if technicianID == "" {
		return nil, Invalid("technician_id", "This field is required")
	}

	tech, err := s.store.GetUser(ctx, technicianID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, Invalid("technician_id", "Technician does not exist")
	}
	if err != nil {
		return nil, err
	}
	if tech.Role != models.RoleTechnician {
		return nil, Invalid("technician_id", "User is not a technician")
	}

	req, err := s.store.GetMaintenance(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	req.AssignedTo = tech.ID
	req.Status = models.MaintenanceAssigned
	req.AssignedAt = &now
	if err := s.store.UpdateMaintenance(ctx, req); err != nil {
		return nil, err
	}

	n := &models.Notification{
		RecipientID: tech.ID,
		Message:     fmt.Sprintf("You have been assigned %s at house %s.", req.RequestNumber, req.HouseNumber),
		Link:        "/technician-dashboard",
	}
	if err := s.store.CreateNotification(ctx, n); err != nil {
		s.logger.Warn("Assignment notice failed", "technician_id", tech.ID, "error", err)
	}

	s.logger.Info("Maintenance assigned", "request", req.RequestNumber, "technician_id", tech.ID)
	return req, nil
}

// UpdateStatus moves a request to a new status. Completing it stamps completed_at.
func (s *MaintenanceService) UpdateStatus(ctx context.Context, actor auth.Principal, id string, in StatusUpdateInput) (*models.MaintenanceRequest, error) {
	if err := authenticated(actor); err != nil {
		return nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if in.ActualCost.Valid && in.ActualCost.Decimal.IsNegative() {
		return nil, Invalid("actual_cost", "Must be greater than or equal to 0")
	}

	req, err := s.store.GetMaintenance(ctx, id)
	if err != nil {
		return nil, err
	}
	assignee := actor.Can(auth.WorkMaintenance) && req.AssignedTo == actor.UserID
	if !actor.Can(auth.AssignMaintenance) && !assignee {
		return nil, fmt.Errorf("%w: only staff or the assigned technician may update status", ErrPermissionDenied)
	}

	req.Status = in.Status
	if in.Notes != "" {
		req.Notes = in.Notes
	}
	if in.ActualCost.Valid {
		req.ActualCost = in.ActualCost
	}
	if in.Status == models.MaintenanceCompleted {
		now := s.now()
		req.CompletedAt = &now
	} else {
		req.CompletedAt = nil
	}

	if err := s.store.UpdateMaintenance(ctx, req); err != nil {
		return nil, err
	}

	s.logger.Info("Maintenance status updated", "request", req.RequestNumber, "status", req.Status, "by", actor.UserID)
	return req, nil
}

// Stats counts the requests visible to the caller by status.
func (s *MaintenanceService) Stats(ctx context.Context, actor auth.Principal) (*MaintenanceStats, error) {
	reqs, err := s.List(ctx, actor)
	if err != nil {
		return nil, err
	}
	stats := &MaintenanceStats{Total: len(reqs), ByStatus: make(map[models.MaintenanceStatus]int)}
	for _, st := range models.MaintenanceStatuses {
		stats.ByStatus[st] = 0
	}
	for _, r := range reqs {
		stats.ByStatus[r.Status]++
	}
	return stats, nil
}
