package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/seams-estates/seams/internal/auth"
	"github.com/seams-estates/seams/internal/models"
	"github.com/seams-estates/seams/internal/storage"
)

// ContractInput carries a new lease contract. House defaults to the tenant's
// current house and a zero monthly rent to that house's rent.
type ContractInput struct {
	TenantID    string          `json:"tenant" validate:"required"`
	HouseID     string          `json:"house"`
	StartDate   models.Date     `json:"start_date"`
	EndDate     models.Date     `json:"end_date"`
	MonthlyRent decimal.Decimal `json:"monthly_rent" validate:"gte=0,money"`
	DepositPaid decimal.Decimal `json:"deposit_paid" validate:"gte=0,money"`
}

// ContractQuery narrows ListContracts.
type ContractQuery struct {
	TenantID string
	HouseID  string
}

// CreateContract records a lease contract for a tenancy.
func (s *EstateService) CreateContract(ctx context.Context, actor auth.Principal, in ContractInput) (*models.Contract, error) {
	if err := authorize(actor, auth.ManageTenants); err != nil {
		return nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}
	switch {
	case in.StartDate.IsZero():
		return nil, Invalid("start_date", "This field is required")
	case in.EndDate.IsZero():
		return nil, Invalid("end_date", "This field is required")
	case in.EndDate.Before(in.StartDate.Time):
		return nil, Invalid("end_date", "Must not be before start_date")
	}

	tenant, err := s.store.GetTenant(ctx, in.TenantID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, Invalid("tenant", "Tenant does not exist")
	}
	if err != nil {
		return nil, err
	}

	houseID := in.HouseID
	if houseID == "" {
		houseID = tenant.HouseID
	}
	if houseID == "" {
		return nil, Invalid("house", "Tenant has no house; choose one")
	}
	house, err := s.store.GetHouse(ctx, houseID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, Invalid("house", "House does not exist")
	}
	if err != nil {
		return nil, err
	}

	rent := in.MonthlyRent
	if rent.IsZero() {
		rent = house.RentAmount
	}

	contract := &models.Contract{
		TenantID:    tenant.ID,
		HouseID:     house.ID,
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		MonthlyRent: rent,
		DepositPaid: in.DepositPaid,
	}
	if err := s.store.CreateContract(ctx, contract); err != nil {
		return nil, err
	}

	s.logger.Info("Contract created", "contract_id", contract.ID, "tenant_id", tenant.ID, "house_number", house.HouseNumber)
	return s.store.GetContract(ctx, contract.ID)
}

// GetContract returns one contract. Tenants may only read their own.
func (s *EstateService) GetContract(ctx context.Context, actor auth.Principal, id string) (*models.Contract, error) {
	if err := authenticated(actor); err != nil {
		return nil, err
	}
	contract, err := s.store.GetContract(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.Can(auth.ViewAllLedgers) && !actor.OwnsTenancy(contract.TenantID) {
		return nil, fmt.Errorf("%w: cannot read this contract", ErrPermissionDenied)
	}
	return contract, nil
}

// ListContracts returns contracts, latest start first. Tenants only see their own.
func (s *EstateService) ListContracts(ctx context.Context, actor auth.Principal, q ContractQuery) ([]*models.Contract, error) {
	if err := authenticated(actor); err != nil {
		return nil, err
	}
	filter := storage.ContractFilter{TenantID: q.TenantID, HouseID: q.HouseID}
	if !actor.Can(auth.ViewAllLedgers) {
		if actor.Role != models.RoleTenant {
			return nil, fmt.Errorf("%w: cannot list contracts", ErrPermissionDenied)
		}
		if actor.TenantID == "" {
			return []*models.Contract{}, nil
		}
		if q.TenantID != "" && !actor.OwnsTenancy(q.TenantID) {
			return nil, fmt.Errorf("%w: cannot list another tenant's contracts", ErrPermissionDenied)
		}
		filter.TenantID = actor.TenantID
	}
	contracts, err := s.store.ListContracts(ctx, filter)
	return nonNil(contracts), err
}

// DeleteContract removes a contract record.
func (s *EstateService) DeleteContract(ctx context.Context, actor auth.Principal, id string) error {
	if err := authorize(actor, auth.ManageTenants); err != nil {
		return err
	}
	if err := s.store.DeleteContract(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Contract deleted", "contract_id", id)
	return nil
}
