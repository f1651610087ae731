package sqlite

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/seams-estates/seams/internal/models"
	"github.com/seams-estates/seams/internal/storage"
)

const contractSelect = `
SELECT c.id, c.tenant_id, c.house_id, c.start_date, c.end_date, c.monthly_rent, c.deposit_paid,
       c.created_at, u.first_name, u.last_name, u.username, h.house_number
FROM contracts c
JOIN tenants t ON t.id = c.tenant_id
JOIN users u ON u.id = t.user_id
JOIN houses h ON h.id = c.house_id`

func scanContract(row scanner) (*models.Contract, error) {
	c := &models.Contract{}
	var (
		created               int64
		first, last, username string
	)
	if err := row.Scan(&c.ID, &c.TenantID, &c.HouseID, &c.StartDate, &c.EndDate, &c.MonthlyRent,
		&c.DepositPaid, &created, &first, &last, &username, &c.HouseNumber); err != nil {
		return nil, err
	}
	c.CreatedAt = fromUnix(created)
	user := models.User{FirstName: first, LastName: last, Username: username}
	c.TenantName = user.FullName()
	return c, nil
}

// CreateContract persists a new contract.
func (s *SQLiteStore) CreateContract(ctx context.Context, c *models.Contract) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	stamp(&c.CreatedAt)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO contracts (id, tenant_id, house_id, start_date, end_date, monthly_rent, deposit_paid, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.TenantID, c.HouseID, c.StartDate, c.EndDate, c.MonthlyRent.String(), c.DepositPaid.String(), c.CreatedAt.Unix(),
	)
	if err != nil {
		return mapError(err, "insert contract")
	}
	return nil
}

// GetContract retrieves a contract with its tenant name and house number.
func (s *SQLiteStore) GetContract(ctx context.Context, id string) (*models.Contract, error) {
	c, err := scanContract(s.db.QueryRowContext(ctx, contractSelect+` WHERE c.id = ?`, id))
	if err != nil {
		return nil, mapError(err, "get contract")
	}
	return c, nil
}

// ListContracts returns contracts, latest start first.
func (s *SQLiteStore) ListContracts(ctx context.Context, filter storage.ContractFilter) ([]*models.Contract, error) {
	var (
		where []string
		args  []any
	)
	if filter.TenantID != "" {
		where = append(where, "c.tenant_id = ?")
		args = append(args, filter.TenantID)
	}
	if filter.HouseID != "" {
		where = append(where, "c.house_id = ?")
		args = append(args, filter.HouseID)
	}

	query := contractSelect
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY c.start_date DESC, c.rowid DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "list contracts")
	}
	defer rows.Close()

	var contracts []*models.Contract
	for rows.Next() {
		c, err := scanContract(rows)
		if err != nil {
			return nil, mapError(err, "scan contract")
		}
		contracts = append(contracts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "iterate contracts")
	}
	return contracts, nil
}

// DeleteContract removes one contract.
func (s *SQLiteStore) DeleteContract(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM contracts WHERE id = ?`, id)
	if err != nil {
		return mapError(err, "delete contract")
	}
	return expectOne(res, "delete contract")
}
