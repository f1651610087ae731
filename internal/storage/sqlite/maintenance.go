package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/seams-estates/seams/internal/models"
	"github.com/seams-estates/seams/internal/storage"
)

const maintenanceColumns = `id, seq, house_id, house_number, reported_by, assigned_to, issue_description,
 category, priority, status, notes, estimated_cost, actual_cost, created_at, assigned_at, completed_at`

// RequestNumber formats a maintenance sequence number as MR-001.
func RequestNumber(seq int64) string {
	return fmt.Sprintf("MR-%03d", seq)
}

func scanMaintenance(row scanner) (*models.MaintenanceRequest, error) {
	m := &models.MaintenanceRequest{}
	var (
		seq                             int64
		houseID, reportedBy, assignedTo sql.NullString
		created                         int64
		assignedAt, completedAt         sql.NullInt64
	)
	if err := row.Scan(&m.ID, &seq, &houseID, &m.HouseNumber, &reportedBy, &assignedTo, &m.Description,
		&m.Category, &m.Priority, &m.Status, &m.Notes, &m.EstimatedCost, &m.ActualCost,
		&created, &assignedAt, &completedAt); err != nil {
		return nil, err
	}
	m.RequestNumber = RequestNumber(seq)
	m.HouseID = houseID.String
	m.ReportedBy = reportedBy.String
	m.AssignedTo = assignedTo.String
	m.CreatedAt = fromUnix(created)
	m.AssignedAt = fromNullUnix(assignedAt)
	m.CompletedAt = fromNullUnix(completedAt)
	return m, nil
}

func nullDecimal(d decimal.NullDecimal) sql.NullString {
	if !d.Valid {
		return sql.NullString{}
	}
	return sql.NullString{String: d.Decimal.String(), Valid: true}
}

// CreateMaintenance stores a request and allocates its MR number.
func (s *SQLiteStore) CreateMaintenance(ctx context.Context, req *models.MaintenanceRequest) error {
	if req.ID == "" {
		req.ID = uuid.New().String()
	}
	if req.Status == "" {
		req.Status = models.MaintenanceNew
	}
	if req.Category == "" {
		req.Category = models.CategoryGeneral
	}
	if req.Priority == "" {
		req.Priority = models.PriorityMedium
	}
	stamp(&req.CreatedAt)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM maintenance_requests`).Scan(&seq); err != nil {
		return mapError(err, "allocate request number")
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO maintenance_requests (`+maintenanceColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		req.ID, seq, nullString(req.HouseID), req.HouseNumber, nullString(req.ReportedBy), nullString(req.AssignedTo),
		req.Description, req.Category, req.Priority, req.Status, req.Notes,
		nullDecimal(req.EstimatedCost), nullDecimal(req.ActualCost),
		req.CreatedAt.Unix(), nullUnix(req.AssignedAt), nullUnix(req.CompletedAt),
	)
	if err != nil {
		return mapError(err, "insert maintenance request")
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	req.RequestNumber = RequestNumber(seq)
	return nil
}

func (s *SQLiteStore) GetMaintenance(ctx context.Context, id string) (*models.MaintenanceRequest, error) {
	m, err := scanMaintenance(s.db.QueryRowContext(ctx,
		`SELECT `+maintenanceColumns+` FROM maintenance_requests WHERE id = ?`, id))
	if err != nil {
		return nil, mapError(err, "get maintenance request")
	}
	return m, nil
}

// ListMaintenance returns requests newest first.
func (s *SQLiteStore) ListMaintenance(ctx context.Context, filter storage.MaintenanceFilter) ([]*models.MaintenanceRequest, error) {
	query := `SELECT ` + maintenanceColumns + ` FROM maintenance_requests`
	var where []string
	var args []any
	if filter.ReportedBy != "" {
		where = append(where, "reported_by = ?")
		args = append(args, filter.ReportedBy)
	}
	if filter.AssignedTo != "" {
		where = append(where, "assigned_to = ?")
		args = append(args, filter.AssignedTo)
	}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, filter.Status)
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY seq DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "list maintenance requests")
	}
	defer rows.Close()

	var out []*models.MaintenanceRequest
	for rows.Next() {
		m, err := scanMaintenance(rows)
		if err != nil {
			return nil, mapError(err, "scan maintenance request")
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "iterate maintenance requests")
	}
	return out, nil
}

// UpdateMaintenance overwrites assignment, status, notes, costs and timestamps.
func (s *SQLiteStore) UpdateMaintenance(ctx context.Context, req *models.MaintenanceRequest) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE maintenance_requests SET assigned_to = ?, status = ?, notes = ?, category = ?, priority = ?,
		 estimated_cost = ?, actual_cost = ?, assigned_at = ?, completed_at = ? WHERE id = ?`,
		nullString(req.AssignedTo), req.Status, req.Notes, req.Category, req.Priority,
		nullDecimal(req.EstimatedCost), nullDecimal(req.ActualCost),
		nullUnix(req.AssignedAt), nullUnix(req.CompletedAt), req.ID,
	)
	if err != nil {
		return mapError(err, "update maintenance request")
	}
	return expectOne(res, "update maintenance request")
}
