package notification_database

import (
	"context"
	"time"
)

type Service interface {
	InsertNotification(ctx context.Context, record Record) error
	QueryNotification(ctx context.Context, notificationID string) (*Record, error)
	UpdateResolution(ctx context.Context, notificationID string, resourceKind string, resourceID string, resolveErr error) error
	QueryRecentNotifications(ctx context.Context, since time.Time) ([]Record, error)
	QueryUnresolvedNotifications(ctx context.Context, since time.Time, interval time.Duration) ([]Record, error)
	GenerateULID(prefix string) string
	Close()
}
