package repository

import (
	"context"

	"clinic_notify/internal/model"
)

// NotificationRepository is scoped by user id on every call. Updates and
// deletes that match no row succeed without error.
type NotificationRepository interface {
	CreateNotification(ctx context.Context, notification model.Notification) (model.Notification, error)
	ListNotifications(ctx context.Context, userID string, limit int) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, userID, id string) error
	MarkAllNotificationsRead(ctx context.Context, userID string) error
	DeleteNotification(ctx context.Context, userID, id string) error
}
