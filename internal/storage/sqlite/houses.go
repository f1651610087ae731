package sqlite

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/seams-estates/seams/internal/models"
	"github.com/seams-estates/seams/internal/storage"
)

const houseColumns = `id, house_number, house_type, status, location, rent_amount, bedrooms, bathrooms, description, created_at`

func scanHouse(row scanner) (*models.House, error) {
	h := &models.House{}
	var created int64
	if err := row.Scan(&h.ID, &h.HouseNumber, &h.HouseType, &h.Status, &h.Location,
		&h.RentAmount, &h.Bedrooms, &h.Bathrooms, &h.Description, &created); err != nil {
		return nil, err
	}
	h.CreatedAt = fromUnix(created)
	return h, nil
}

// CreateHouse persists a new house.
func (s *SQLiteStore) CreateHouse(ctx context.Context, house *models.House) error {
	if house.ID == "" {
		house.ID = uuid.New().String()
	}
	if house.Status == "" {
		house.Status = models.HouseVacant
	}
	stamp(&house.CreatedAt)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO houses (`+houseColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		house.ID, house.HouseNumber, house.HouseType, house.Status, house.Location,
		house.RentAmount.String(), house.Bedrooms, house.Bathrooms, house.Description, house.CreatedAt.Unix(),
	)
	if err != nil {
		return mapError(err, "insert house")
	}
	return nil
}

// GetHouse retrieves a house by ID.
func (s *SQLiteStore) GetHouse(ctx context.Context, id string) (*models.House, error) {
	h, err := scanHouse(s.db.QueryRowContext(ctx, `SELECT `+houseColumns+` FROM houses WHERE id = ?`, id))
	if err != nil {
		return nil, mapError(err, "get house")
	}
	return h, nil
}

// GetHouseByNumber retrieves a house by its unit label.
func (s *SQLiteStore) GetHouseByNumber(ctx context.Context, number string) (*models.House, error) {
	h, err := scanHouse(s.db.QueryRowContext(ctx, `SELECT `+houseColumns+` FROM houses WHERE house_number = ?`, number))
	if err != nil {
		return nil, mapError(err, "get house by number")
	}
	return h, nil
}

// ListHouses returns houses ordered by house number.
func (s *SQLiteStore) ListHouses(ctx context.Context, filter storage.HouseFilter) ([]*models.House, error) {
	query := `SELECT ` + houseColumns + ` FROM houses`
	var where []string
	var args []any
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, filter.Status)
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY house_number"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "list houses")
	}
	defer rows.Close()

	var houses []*models.House
	for rows.Next() {
		h, err := scanHouse(rows)
		if err != nil {
			return nil, mapError(err, "scan house")
		}
		houses = append(houses, h)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "iterate houses")
	}
	return houses, nil
}

// UpdateHouse overwrites the mutable fields of a house.
func (s *SQLiteStore) UpdateHouse(ctx context.Context, house *models.House) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE houses SET house_number = ?, house_type = ?, status = ?, location = ?, rent_amount = ?,
		 bedrooms = ?, bathrooms = ?, description = ? WHERE id = ?`,
		house.HouseNumber, house.HouseType, house.Status, house.Location, house.RentAmount.String(),
		house.Bedrooms, house.Bathrooms, house.Description, house.ID,
	)
	if err != nil {
		return mapError(err, "update house")
	}
	return expectOne(res, "update house")
}

// SetHouseStatus changes only the occupancy status.
func (s *SQLiteStore) SetHouseStatus(ctx context.Context, id string, status models.HouseStatus) error {
	res, err := s.db.ExecContext(ctx, `UPDATE houses SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return mapError(err, "set house status")
	}
	return expectOne(res, "set house status")
}

// DeleteHouse removes a house; tenants keep their record with no house.
func (s *SQLiteStore) DeleteHouse(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM houses WHERE id = ?`, id)
	if err != nil {
		return mapError(err, "delete house")
	}
	return expectOne(res, "delete house")
}
