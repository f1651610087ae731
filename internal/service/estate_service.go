package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/seams-estates/seams/internal/auth"
	"github.com/seams-estates/seams/internal/ledger"
	"github.com/seams-estates/seams/internal/models"
	"github.com/seams-estates/seams/internal/storage"
)

// EstateStore is the persistence the estate service needs.
type EstateStore interface {
	storage.HouseStore
	storage.TenantStore
	storage.ContractStore
	GetUser(ctx context.Context, id string) (*models.User, error)
}

// HouseInput carries the editable fields of a house.
type HouseInput struct {
	HouseNumber string             `json:"house_number" validate:"required,max=10"`
	HouseType   models.HouseType   `json:"house_type" validate:"required,oneof=1_bedroom 2_bedroom 3_bedroom 4_bedroom bedsitter"`
	Status      models.HouseStatus `json:"status" validate:"omitempty,oneof=vacant occupied under_repair reserved"`
	Location    string             `json:"location" validate:"max=100"`
	RentAmount  decimal.Decimal    `json:"rent_amount" validate:"gte=0,money"`
	Bedrooms    int                `json:"bedrooms" validate:"gte=0"`
	Bathrooms   int                `json:"bathrooms" validate:"gte=0"`
	Description string             `json:"description"`
}

// TenantInput carries a new tenancy.
type TenantInput struct {
	UserID           string      `json:"user_id" validate:"required"`
	HouseID          string      `json:"house_id" validate:"required"`
	MoveInDate       models.Date `json:"move_in_date"`
	ContractStart    models.Date `json:"contract_start"`
	ContractEnd      models.Date `json:"contract_end"`
	EmergencyContact string      `json:"emergency_contact" validate:"max=100"`
	EmergencyPhone   string      `json:"emergency_phone" validate:"max=15"`
}

// SyncReport summarizes a status reconciliation run.
type SyncReport struct {
	HousesOccupied int `json:"houses_occupied"`
	HousesVacated  int `json:"houses_vacated"`
	TenantsUpdated int `json:"tenants_updated"`
}

// EstateService manages houses and tenancies.
type EstateService struct {
	store        EstateStore
	logger       *slog.Logger
	expiryWindow int
	now          func() time.Time
}

// NewEstateService creates an EstateService. expiryWindowDays <= 0 uses the default.
func NewEstateService(store EstateStore, logger *slog.Logger, expiryWindowDays int) *EstateService {
	if expiryWindowDays <= 0 {
		expiryWindowDays = ledger.DefaultExpiryWindowDays
	}
	return &EstateService{store: store, logger: logger, expiryWindow: expiryWindowDays, now: time.Now}
}

func (s *EstateService) today() models.Date {
	return models.NewDate(s.now())
}

// CreateHouse adds a house to the inventory.
func (s *EstateService) CreateHouse(ctx context.Context, actor auth.Principal, in HouseInput) (*models.House, error) {
	if err := authorize(actor, auth.ManageHouses); err != nil {
		return nil, err
	}
	in.HouseNumber = strings.TrimSpace(in.HouseNumber)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	house := &models.House{
		HouseNumber: in.HouseNumber,
		HouseType:   in.HouseType,
		Status:      in.Status,
		Location:    in.Location,
		RentAmount:  in.RentAmount,
		Bedrooms:    in.Bedrooms,
		Bathrooms:   in.Bathrooms,
		Description: in.Description,
	}
	if err := s.store.CreateHouse(ctx, house); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, Invalid("house_number", "House number already exists")
		}
		return nil, err
	}

	s.logger.Info("House created", "house_id", house.ID, "house_number", house.HouseNumber)
	return house, nil
}

// UpdateHouse replaces the editable fields of a house.
func (s *EstateService) UpdateHouse(ctx context.Context, actor auth.Principal, id string, in HouseInput) (*models.House, error) {
	if err := authorize(actor, auth.ManageHouses); err != nil {
		return nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}

	house, err := s.store.GetHouse(ctx, id)
	if err != nil {
		return nil, err
	}
	house.HouseNumber = strings.TrimSpace(in.HouseNumber)
	house.HouseType = in.HouseType
	if in.Status != "" {
		house.Status = in.Status
	}
	house.Location = in.Location
	house.RentAmount = in.RentAmount
	house.Bedrooms = in.Bedrooms
	house.Bathrooms = in.Bathrooms
	house.Description = in.Description

	if err := s.store.UpdateHouse(ctx, house); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, Invalid("house_number", "House number already exists")
		}
		return nil, err
	}
	return house, nil
}

// GetHouse returns one house. Any signed-in user may read houses.
func (s *EstateService) GetHouse(ctx context.Context, actor auth.Principal, id string) (*models.House, error) {
	if err := authenticated(actor); err != nil {
		return nil, err
	}
	return s.store.GetHouse(ctx, id)
}

// ListHouses returns houses, optionally filtered by status.
func (s *EstateService) ListHouses(ctx context.Context, actor auth.Principal, status models.HouseStatus) ([]*models.House, error) {
	if err := authenticated(actor); err != nil {
		return nil, err
	}
	if status != "" && !status.Valid() {
		return nil, Invalid("status", "Must be one of: vacant occupied under_repair reserved")
	}
	houses, err := s.store.ListHouses(ctx, storage.HouseFilter{Status: status})
	return nonNil(houses), err
}

// DeleteHouse removes a house from the inventory.
func (s *EstateService) DeleteHouse(ctx context.Context, actor auth.Principal, id string) error {
	if err := authorize(actor, auth.ManageHouses); err != nil {
		return err
	}
	return s.store.DeleteHouse(ctx, id)
}

// HouseStats counts houses by status.
func (s *EstateService) HouseStats(ctx context.Context, actor auth.Principal) (*models.HouseStats, error) {
	if err := authenticated(actor); err != nil {
		return nil, err
	}
	houses, err := s.store.ListHouses(ctx, storage.HouseFilter{})
	if err != nil {
		return nil, err
	}
	return computeHouseStats(houses), nil
}

func computeHouseStats(houses []*models.House) *models.HouseStats {
	stats := &models.HouseStats{Total: len(houses)}
	for _, h := range houses {
		switch h.Status {
		case models.HouseOccupied:
			stats.Occupied++
		case models.HouseVacant:
			stats.Vacant++
		case models.HouseUnderRepair:
			stats.UnderRepair++
		case models.HouseReserved:
			stats.Reserved++
		}
	}
	if stats.Total > 0 {
		rate := float64(stats.Occupied) / float64(stats.Total) * 100
		stats.OccupancyRate = math.Round(rate*10) / 10
	}
	return stats
}

// CreateTenant moves a user into a house and marks the house occupied.
func (s *EstateService) CreateTenant(ctx context.Context, actor auth.Principal, in TenantInput) (*models.Tenant, error) {
	if err := authorize(actor, auth.ManageTenants); err != nil {
		return nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}

	user, err := s.store.GetUser(ctx, in.UserID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, Invalid("user_id", "User does not exist")
	}
	if err != nil {
		return nil, err
	}
	if user.Role != models.RoleTenant {
		return nil, Invalid("user_id", "User is not a tenant account")
	}

	house, err := s.store.GetHouse(ctx, in.HouseID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, Invalid("house_id", "House does not exist")
	}
	if err != nil {
		return nil, err
	}

	today := s.today()
	if in.MoveInDate.IsZero() {
		in.MoveInDate = today
	}
	if in.ContractStart.IsZero() {
		in.ContractStart = in.MoveInDate
	}
	if in.ContractEnd.IsZero() {
		in.ContractEnd = models.NewDate(in.ContractStart.AddDate(1, 0, 0))
	}
	if in.ContractEnd.Before(in.ContractStart.Time) {
		return nil, Invalid("contract_end", "Must not be before contract_start")
	}

	tenant := &models.Tenant{
		UserID:           in.UserID,
		HouseID:          house.ID,
		MoveInDate:       in.MoveInDate,
		ContractStart:    in.ContractStart,
		ContractEnd:      in.ContractEnd,
		EmergencyContact: in.EmergencyContact,
		EmergencyPhone:   in.EmergencyPhone,
		Status:           ledger.ContractStatus(in.ContractEnd, today, s.expiryWindow),
	}
	if err := s.store.CreateTenant(ctx, tenant); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, Invalid("user_id", "User already has a tenancy")
		}
		return nil, err
	}

	if err := s.store.SetHouseStatus(ctx, house.ID, models.HouseOccupied); err != nil {
		return nil, fmt.Errorf("failed to mark house occupied: %w", err)
	}

	s.logger.Info("Tenant created", "tenant_id", tenant.ID, "house_number", house.HouseNumber)
	return s.store.GetTenant(ctx, tenant.ID)
}

// GetTenant returns one tenancy. Tenants may only read their own.
func (s *EstateService) GetTenant(ctx context.Context, actor auth.Principal, id string) (*models.Tenant, error) {
	if err := authenticated(actor); err != nil {
		return nil, err
	}
	if !actor.Can(auth.ViewAllLedgers) && !actor.OwnsTenancy(id) {
		return nil, fmt.Errorf("%w: cannot read this tenant", ErrPermissionDenied)
	}
	return s.store.GetTenant(ctx, id)
}

// ListTenants returns every tenancy for staff and only the caller's own for tenants.
func (s *EstateService) ListTenants(ctx context.Context, actor auth.Principal) ([]*models.Tenant, error) {
	if err := authenticated(actor); err != nil {
		return nil, err
	}
	if actor.Can(auth.ViewAllLedgers) {
		tenants, err := s.store.ListTenants(ctx)
		return nonNil(tenants), err
	}
	if actor.Role == models.RoleTenant {
		own, err := s.store.GetTenantByUser(ctx, actor.UserID)
		if errors.Is(err, storage.ErrNotFound) {
			return []*models.Tenant{}, nil
		}
		if err != nil {
			return nil, err
		}
		return []*models.Tenant{own}, nil
	}
	return nil, fmt.Errorf("%w: cannot list tenants", ErrPermissionDenied)
}

// DeleteTenant ends a tenancy and frees its house.
func (s *EstateService) DeleteTenant(ctx context.Context, actor auth.Principal, id string) error {
	if err := authorize(actor, auth.ManageTenants); err != nil {
		return err
	}
	tenant, err := s.store.GetTenant(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteTenant(ctx, id); err != nil {
		return err
	}
	if tenant.HouseID != "" {
		if err := s.store.SetHouseStatus(ctx, tenant.HouseID, models.HouseVacant); err != nil {
			return fmt.Errorf("failed to mark house vacant: %w", err)
		}
	}
	s.logger.Info("Tenant removed", "tenant_id", id, "house_id", tenant.HouseID)
	return nil
}

// ExpiringTenants lists tenancies whose contract ends within the expiry window.
func (s *EstateService) ExpiringTenants(ctx context.Context, actor auth.Principal) ([]*models.Tenant, error) {
	if err := authorize(actor, auth.ManageTenants); err != nil {
		return nil, err
	}
	tenants, err := s.store.ListTenants(ctx)
	if err != nil {
		return nil, err
	}
	today := s.today()
	expiring := []*models.Tenant{}
	for _, t := range tenants {
		if ledger.ContractStatus(t.ContractEnd, today, s.expiryWindow) == models.TenantExpiring {
			expiring = append(expiring, t)
		}
	}
	return expiring, nil
}

// RefreshTenantStatuses re-derives every tenant's status from its contract dates.
func (s *EstateService) RefreshTenantStatuses(ctx context.Context) (int, error) {
	tenants, err := s.store.ListTenants(ctx)
	if err != nil {
		return 0, err
	}
	today := s.today()
	updated := 0
	for _, t := range tenants {
		status := ledger.ContractStatus(t.ContractEnd, today, s.expiryWindow)
		if status == t.Status {
			continue
		}
		if err := s.store.SetTenantStatus(ctx, t.ID, status); err != nil {
			return updated, fmt.Errorf("failed to update tenant %s: %w", t.ID, err)
		}
		s.logger.Debug("Tenant status changed", "tenant_id", t.ID, "from", t.Status, "to", status)
		updated++
	}
	return updated, nil
}

// Sync runs SyncHouseStatuses on behalf of an administrator.
func (s *EstateService) Sync(ctx context.Context, actor auth.Principal) (*SyncReport, error) {
	if err := authorize(actor, auth.ManageHouses); err != nil {
		return nil, err
	}
	return s.SyncHouseStatuses(ctx)
}

// SyncHouseStatuses marks houses occupied or vacant to match current tenancies.
// Houses under repair or reserved are left alone.
func (s *EstateService) SyncHouseStatuses(ctx context.Context) (*SyncReport, error) {
	report := &SyncReport{}

	updated, err := s.RefreshTenantStatuses(ctx)
	if err != nil {
		return nil, err
	}
	report.TenantsUpdated = updated

	tenants, err := s.store.ListTenants(ctx)
	if err != nil {
		return nil, err
	}
	occupied := make(map[string]bool)
	for _, t := range tenants {
		if t.HouseID != "" && t.Status != models.TenantExpired {
			occupied[t.HouseID] = true
		}
	}

	houses, err := s.store.ListHouses(ctx, storage.HouseFilter{})
	if err != nil {
		return nil, err
	}
	for _, h := range houses {
		switch {
		case occupied[h.ID] && h.Status == models.HouseVacant:
			if err := s.store.SetHouseStatus(ctx, h.ID, models.HouseOccupied); err != nil {
				return nil, err
			}
			report.HousesOccupied++
		case !occupied[h.ID] && h.Status == models.HouseOccupied:
			if err := s.store.SetHouseStatus(ctx, h.ID, models.HouseVacant); err != nil {
				return nil, err
			}
			report.HousesVacated++
		}
	}

	s.logger.Info("House status sync complete",
		"houses_occupied", report.HousesOccupied,
		"houses_vacated", report.HousesVacated,
		"tenants_updated", report.TenantsUpdated,
	)
	return report, nil
}
