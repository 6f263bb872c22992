package notifications

import (
	"context"
	"time"

	"github.com/zrupay/zru-go/internal/notification_database"
	"github.com/zrupay/zru-go/pkg/notification"
)

type Service interface {
	Process(ctx context.Context, payload notification.Payload) (*Result, error)
	GetNotification(ctx context.Context, notificationID string) (*notification_database.Record, error)
	ListNotifications(ctx context.Context, since time.Time) ([]notification_database.Record, error)
	Reresolve(ctx context.Context, record notification_database.Record) (*Result, error)
	RetryUnresolved(ctx context.Context, window, interval time.Duration) error
	WatchUnresolvedNotifications(ctx context.Context, window, interval time.Duration)
}
