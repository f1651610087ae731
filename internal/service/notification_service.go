package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/seams-estates/seams/internal/auth"
	"github.com/seams-estates/seams/internal/models"
	"github.com/seams-estates/seams/internal/storage"
)

// NotificationService serves a user's in-app notifications.
type NotificationService struct {
	store  storage.NotificationStore
	logger *slog.Logger
}

func NewNotificationService(store storage.NotificationStore, logger *slog.Logger) *NotificationService {
	return &NotificationService{store: store, logger: logger}
}

// List returns the caller's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, actor auth.Principal, unreadOnly bool) ([]*models.Notification, error) {
	if err := authenticated(actor); err != nil {
		return nil, err
	}
	out, err := s.store.ListNotifications(ctx, actor.UserID, unreadOnly)
	return nonNil(out), err
}

// MarkRead marks one of the caller's notifications read.
func (s *NotificationService) MarkRead(ctx context.Context, actor auth.Principal, id string) error {
	if err := authenticated(actor); err != nil {
		return err
	}
	n, err := s.store.GetNotification(ctx, id)
	if err != nil {
		return err
	}
	if n.RecipientID != actor.UserID {
		return fmt.Errorf("%w: notification belongs to another user", ErrPermissionDenied)
	}
	return s.store.MarkNotificationRead(ctx, id)
}
