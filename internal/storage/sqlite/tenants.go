package sqlite

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/seams-estates/seams/internal/models"
)

const tenantSelect = `
SELECT t.id, t.user_id, t.house_id, t.move_in_date, t.contract_start, t.contract_end,
       t.emergency_contact, t.emergency_phone, t.status, t.created_at,
       u.first_name, u.last_name, u.username, u.email,
       h.house_number, h.house_type, h.status, h.location, h.rent_amount,
       h.bedrooms, h.bathrooms, h.description, h.created_at
FROM tenants t
JOIN users u ON u.id = t.user_id
LEFT JOIN houses h ON h.id = t.house_id`

func scanTenant(row scanner) (*models.Tenant, error) {
	t := &models.Tenant{}
	var (
		houseID                      sql.NullString
		created                      int64
		first, last, username, email string
		number, htype, hstatus, loc  sql.NullString
		rent                         decimal.NullDecimal
		beds, baths, hcreated        sql.NullInt64
		desc                         sql.NullString
	)
	if err := row.Scan(&t.ID, &t.UserID, &houseID, &t.MoveInDate, &t.ContractStart, &t.ContractEnd,
		&t.EmergencyContact, &t.EmergencyPhone, &t.Status, &created,
		&first, &last, &username, &email,
		&number, &htype, &hstatus, &loc, &rent, &beds, &baths, &desc, &hcreated); err != nil {
		return nil, err
	}

	t.CreatedAt = fromUnix(created)
	user := models.User{FirstName: first, LastName: last, Username: username}
	t.Name = user.FullName()
	t.Email = email

	if houseID.Valid && number.Valid {
		t.HouseID = houseID.String
		t.House = &models.House{
			ID:          houseID.String,
			HouseNumber: number.String,
			HouseType:   models.HouseType(htype.String),
			Status:      models.HouseStatus(hstatus.String),
			Location:    loc.String,
			RentAmount:  rent.Decimal,
			Bedrooms:    int(beds.Int64),
			Bathrooms:   int(baths.Int64),
			Description: desc.String,
			CreatedAt:   fromUnix(hcreated.Int64),
		}
	}
	return t, nil
}

// CreateTenant persists a new tenancy.
func (s *SQLiteStore) CreateTenant(ctx context.Context, tenant *models.Tenant) error {
	if tenant.ID == "" {
		tenant.ID = uuid.New().String()
	}
	if tenant.Status == "" {
		tenant.Status = models.TenantActive
	}
	stamp(&tenant.CreatedAt)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tenants (id, user_id, house_id, move_in_date, contract_start, contract_end,
		 emergency_contact, emergency_phone, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tenant.ID, tenant.UserID, nullString(tenant.HouseID), tenant.MoveInDate, tenant.ContractStart,
		tenant.ContractEnd, tenant.EmergencyContact, tenant.EmergencyPhone, tenant.Status, tenant.CreatedAt.Unix(),
	)
	if err != nil {
		return mapError(err, "insert tenant")
	}
	return nil
}

// GetTenant retrieves a tenant with its house.
func (s *SQLiteStore) GetTenant(ctx context.Context, id string) (*models.Tenant, error) {
	t, err := scanTenant(s.db.QueryRowContext(ctx, tenantSelect+` WHERE t.id = ?`, id))
	if err != nil {
		return nil, mapError(err, "get tenant")
	}
	return t, nil
}

// GetTenantByUser retrieves the tenancy owned by a user account.
func (s *SQLiteStore) GetTenantByUser(ctx context.Context, userID string) (*models.Tenant, error) {
	t, err := scanTenant(s.db.QueryRowContext(ctx, tenantSelect+` WHERE t.user_id = ?`, userID))
	if err != nil {
		return nil, mapError(err, "get tenant by user")
	}
	return t, nil
}

// ListTenants returns all tenants, most recent move-in first.
func (s *SQLiteStore) ListTenants(ctx context.Context) ([]*models.Tenant, error) {
	rows, err := s.db.QueryContext(ctx, tenantSelect+` ORDER BY t.move_in_date DESC, t.rowid`)
	if err != nil {
		return nil, mapError(err, "list tenants")
	}
	defer rows.Close()

	var tenants []*models.Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, mapError(err, "scan tenant")
		}
		tenants = append(tenants, t)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "iterate tenants")
	}
	return tenants, nil
}

// SetTenantStatus changes only the derived contract status.
func (s *SQLiteStore) SetTenantStatus(ctx context.Context, id string, status models.TenantStatus) error {
	res, err := s.db.ExecContext(ctx, `UPDATE tenants SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return mapError(err, "set tenant status")
	}
	return expectOne(res, "set tenant status")
}

// DeleteTenant removes a tenancy together with its bills and payments.
func (s *SQLiteStore) DeleteTenant(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tenants WHERE id = ?`, id)
	if err != nil {
		return mapError(err, "delete tenant")
	}
	return expectOne(res, "delete tenant")
}
