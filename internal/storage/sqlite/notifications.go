package sqlite

import (
	"context"

	"github.com/google/uuid"

	"github.com/seams-estates/seams/internal/models"
)

const notificationColumns = `id, recipient_id, message, link, is_read, created_at`

func scanNotification(row scanner) (*models.Notification, error) {
	n := &models.Notification{}
	var created int64
	if err := row.Scan(&n.ID, &n.RecipientID, &n.Message, &n.Link, &n.IsRead, &created); err != nil {
		return nil, err
	}
	n.CreatedAt = fromUnix(created)
	return n, nil
}

// CreateNotification stores a notification for one recipient.
func (s *SQLiteStore) CreateNotification(ctx context.Context, n *models.Notification) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	stamp(&n.CreatedAt)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO notifications (`+notificationColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		n.ID, n.RecipientID, n.Message, n.Link, n.IsRead, n.CreatedAt.Unix(),
	)
	if err != nil {
		return mapError(err, "insert notification")
	}
	return nil
}

func (s *SQLiteStore) GetNotification(ctx context.Context, id string) (*models.Notification, error) {
	n, err := scanNotification(s.db.QueryRowContext(ctx,
		`SELECT `+notificationColumns+` FROM notifications WHERE id = ?`, id))
	if err != nil {
		return nil, mapError(err, "get notification")
	}
	return n, nil
}

// ListNotifications returns a user's notifications, newest first.
func (s *SQLiteStore) ListNotifications(ctx context.Context, recipientID string, unreadOnly bool) ([]*models.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE recipient_id = ?`
	if unreadOnly {
		query += ` AND is_read = 0`
	}
	query += ` ORDER BY created_at DESC, rowid DESC`

	rows, err := s.db.QueryContext(ctx, query, recipientID)
	if err != nil {
		return nil, mapError(err, "list notifications")
	}
	defer rows.Close()

	var out []*models.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, mapError(err, "scan notification")
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "iterate notifications")
	}
	return out, nil
}

func (s *SQLiteStore) MarkNotificationRead(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE notifications SET is_read = 1 WHERE id = ?`, id)
	if err != nil {
		return mapError(err, "mark notification read")
	}
	return expectOne(res, "mark notification read")
}
