package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/seams-estates/seams/internal/models"
	"github.com/seams-estates/seams/internal/storage"
)

const userColumns = `id, username, email, first_name, last_name, phone, role, password_hash,
 approval_status, house_number, approved_by, approved_at, rejection_reason, created_at`

func scanUser(row scanner) (*models.User, error) {
	u := &models.User{}
	var (
		role       string
		approvedBy sql.NullString
		approvedAt sql.NullInt64
		created    int64
	)
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName, &u.Phone, &role,
		&u.PasswordHash, &u.ApprovalStatus, &u.HouseNumber, &approvedBy, &approvedAt,
		&u.RejectionReason, &created); err != nil {
		return nil, err
	}

	parsed, err := models.ParseRole(role)
	if err != nil {
		return nil, fmt.Errorf("user %s: %w", u.ID, err)
	}
	u.Role = parsed
	u.ApprovedBy = approvedBy.String
	u.ApprovedAt = fromNullUnix(approvedAt)
	u.CreatedAt = fromUnix(created)
	return u, nil
}

// CreateUser inserts a new user into the database.
func (s *SQLiteStore) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.ApprovalStatus == "" {
		user.ApprovalStatus = models.ApprovalApproved
	}
	stamp(&user.CreatedAt)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.Username, user.Email, user.FirstName, user.LastName, user.Phone, user.Role.String(),
		user.PasswordHash, user.ApprovalStatus, user.HouseNumber, nullString(user.ApprovedBy),
		nullUnix(user.ApprovedAt), user.RejectionReason, user.CreatedAt.Unix(),
	)
	if err != nil {
		return mapError(err, "create user")
	}
	return nil
}

// GetUser retrieves a user by ID.
func (s *SQLiteStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if err != nil {
		return nil, mapError(err, "get user")
	}
	return u, nil
}

// GetUserByUsername retrieves a user by login name.
func (s *SQLiteStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username))
	if err != nil {
		return nil, mapError(err, "get user by username")
	}
	return u, nil
}

// ListUsers returns users newest first.
func (s *SQLiteStore) ListUsers(ctx context.Context, filter storage.UserFilter) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users`
	var where []string
	var args []any
	if filter.Role != models.RoleUnknown {
		where = append(where, "role = ?")
		args = append(args, filter.Role.String())
	}
	if filter.Approval != "" {
		where = append(where, "approval_status = ?")
		args = append(args, filter.Approval)
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, rowid DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "list users")
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, mapError(err, "scan user")
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "iterate users")
	}
	return users, nil
}

// SetApproval records an approval decision.
func (s *SQLiteStore) SetApproval(ctx context.Context, id string, status models.ApprovalStatus, by string, at time.Time, reason string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET approval_status = ?, approved_by = ?, approved_at = ?, rejection_reason = ? WHERE id = ?`,
		status, nullString(by), at.Unix(), reason, id,
	)
	if err != nil {
		return mapError(err, "set approval")
	}
	return expectOne(res, "set approval")
}
