package notifications

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/zrupay/zru-go/internal/constants"
	"github.com/zrupay/zru-go/internal/deduplication"
	prometheus_monitoring "github.com/zrupay/zru-go/internal/monitoring"
	"github.com/zrupay/zru-go/internal/notification_database"
	"github.com/zrupay/zru-go/pkg/notification"
	"github.com/zrupay/zru-go/pkg/resource"
)

const (
	watchUnresolvedRateLimit = 100 * time.Millisecond
)

var (
	ErrInvalidSignature = errors.New("notification signature does not match")
	ErrHistoryDisabled  = errors.New("notification history is not enabled")
)

// Result describes one processed delivery. Resource and Sale are nil when
// the notification does not refer to them.
type Result struct {
	NotificationID string
	Duplicate      bool
	Kind           resource.Kind
	Resource       *resource.Object
	Sale           *resource.Sale
}

// FetchError is returned when a notified resource could not be fetched.
type FetchError struct {
	NotificationID string
	Kind           resource.Kind
	ResourceID     string
	Err            error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("notification %s: failed to fetch %s %s: %v", e.NotificationID, e.Kind, e.ResourceID, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

type ServiceImpl struct {
	client                      notification.ResourceClient
	notificationDatabaseService notification_database.Service
	deduplicationService        deduplication.Service
	logger                      *zap.Logger
}

// creates a new ServiceImpl; the database and deduplication services may be nil
func New(
	client notification.ResourceClient,
	notificationDatabaseService notification_database.Service,
	deduplicationService deduplication.Service,
	logger *zap.Logger,
) *ServiceImpl {
	if logger == nil {
		logger = zap.L()
	}
	return &ServiceImpl{
		client:                      client,
		notificationDatabaseService: notificationDatabaseService,
		deduplicationService:        deduplicationService,
		logger:                      logger,
	}
}

// Process verifies a delivery and resolves the resources it refers to.
func (s *ServiceImpl) Process(ctx context.Context, payload notification.Payload) (*Result, error) {
	prometheus_monitoring.TickNotificationReceived()

	n := notification.New(payload, s.client, notification.WithLogger(s.logger))
	log := s.logger.With(
		zap.String("type", string(n.Type())),
		zap.String("id", n.ID()),
		zap.String("status", string(n.Status())),
	)

	if !n.CheckSignature() {
		prometheus_monitoring.TickSignatureInvalid()
		log.Warn("rejected notification with invalid signature")
		return nil, ErrInvalidSignature
	}

	dedupKey := deduplication.Key(n)
	if s.deduplicationService != nil {
		firstTime, err := s.deduplicationService.MarkSeen(ctx, dedupKey)
		if err != nil {
			log.Warn("deduplication unavailable, processing anyway", zap.Error(err))
		} else if !firstTime {
			prometheus_monitoring.TickDuplicate()
			log.Info("skipped duplicate notification")
			return &Result{Duplicate: true}, nil
		}
	}

	result := &Result{}
	var stored bool
	result.NotificationID, stored = s.record(ctx, log, n)
	log = log.With(zap.String("notification_id", result.NotificationID))

	err := s.resolve(ctx, n, result)
	if stored {
		s.recordResolution(ctx, log, result, err)
	}

	if err != nil {
		if s.deduplicationService != nil {
			forgetErr := s.deduplicationService.Forget(ctx, dedupKey)
			if forgetErr != nil {
				log.Warn("failed to release deduplication key", zap.Error(forgetErr))
			}
		}
		log.Error("failed to resolve notification", zap.Error(err))
		return nil, err
	}

	log.Info("processed notification",
		zap.String("kind", string(result.Kind)),
		zap.Bool("sale", result.Sale != nil),
	)
	return result, nil
}

// record stores the delivery and returns its id. Storage failures are
// logged and do not stop processing.
func (s *ServiceImpl) record(ctx context.Context, log *zap.Logger, n *notification.Notification) (string, bool) {
	if s.notificationDatabaseService == nil {
		return "", false
	}

	saleID, _ := n.SaleID()
	record := notification_database.Record{
		NotificationID: s.notificationDatabaseService.GenerateULID(constants.NotificationIDPrefix),
		Type:           string(n.Type()),
		Status:         string(n.Status()),
		ResourceID:     n.ID(),
		SaleID:         saleID,
		Signature:      n.Signature(),
		Verified:       true,
		Payload:        n.Payload(),
		ReceivedAt:     time.Now().UTC(),
	}

	err := s.notificationDatabaseService.InsertNotification(ctx, record)
	if err != nil {
		prometheus_monitoring.TickRecordFailed()
		log.Error("failed to record notification", zap.Error(err))
		return record.NotificationID, false
	}
	return record.NotificationID, true
}

func (s *ServiceImpl) recordResolution(ctx context.Context, log *zap.Logger, result *Result, resolveErr error) {
	// kind and id always describe the same resource: the failed one, if any
	kind := result.Kind
	resolvedID := ""
	if result.Resource != nil {
		resolvedID = result.Resource.ID()
	}
	var fetchErr *FetchError
	if errors.As(resolveErr, &fetchErr) {
		kind = fetchErr.Kind
		resolvedID = fetchErr.ResourceID
	}

	err := s.notificationDatabaseService.UpdateResolution(ctx, result.NotificationID, string(kind), resolvedID, resolveErr)
	if err != nil {
		prometheus_monitoring.TickRecordFailed()
		log.Error("failed to record resolution", zap.Error(err))
	}
}

func (s *ServiceImpl) resolve(ctx context.Context, n *notification.Notification, result *Result) error {
	kind, ok := n.ResourceKind()
	if ok {
		result.Kind = kind
		obj, err := n.Resource(ctx)
		if err != nil {
			prometheus_monitoring.TickResourceFetchFailed(string(kind))
			return &FetchError{NotificationID: result.NotificationID, Kind: kind, ResourceID: n.ID(), Err: err}
		}
		prometheus_monitoring.TickResourceFetched(string(kind))
		result.Resource = obj
	}

	sale, err := n.Sale(ctx)
	if err != nil {
		saleID, _ := n.SaleID()
		prometheus_monitoring.TickResourceFetchFailed(string(resource.KindSale))
		return &FetchError{NotificationID: result.NotificationID, Kind: resource.KindSale, ResourceID: saleID, Err: err}
	}
	if sale != nil {
		prometheus_monitoring.TickResourceFetched(string(resource.KindSale))
		result.Sale = sale
	}

	return nil
}

// Reresolve retries resolving a stored notification and records the outcome.
// The signature was checked when the notification was received.
func (s *ServiceImpl) Reresolve(ctx context.Context, record notification_database.Record) (*Result, error) {
	if s.notificationDatabaseService == nil {
		return nil, ErrHistoryDisabled
	}

	n := notification.New(notification.Payload(record.Payload), s.client, notification.WithLogger(s.logger))
	log := s.logger.With(zap.String("notification_id", record.NotificationID))

	result := &Result{NotificationID: record.NotificationID}
	err := s.resolve(ctx, n, result)
	s.recordResolution(ctx, log, result, err)
	if err != nil {
		return nil, err
	}

	log.Info("resolved notification on retry", zap.String("kind", string(result.Kind)))
	return result, nil
}

// RetryUnresolved re-resolves notifications received within window whose last
// attempt failed at least interval ago.
func (s *ServiceImpl) RetryUnresolved(ctx context.Context, window, interval time.Duration) error {
	if s.notificationDatabaseService == nil {
		return ErrHistoryDisabled
	}

	records, err := s.notificationDatabaseService.QueryUnresolvedNotifications(ctx, time.Now().UTC().Add(-1*window), interval)
	if err != nil {
		prometheus_monitoring.SetWatchUnresolvedStatus(0)
		return fmt.Errorf("failed to query unresolved notifications: %w", err)
	}

	failed := 0
	for i, record := range records {
		if i > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(watchUnresolvedRateLimit):
			}
		}

		_, err := s.Reresolve(ctx, record)
		if err != nil {
			s.logger.Warn("retry of notification failed", zap.String("notification_id", record.NotificationID), zap.Error(err))
			failed++
		}
	}

	if failed > 0 {
		prometheus_monitoring.SetWatchUnresolvedStatus(0)
		return fmt.Errorf("%d of %d unresolved notifications failed again", failed, len(records))
	}
	prometheus_monitoring.SetWatchUnresolvedStatus(1)
	return nil
}

// WatchUnresolvedNotifications runs RetryUnresolved every interval until ctx
// is done.
func (s *ServiceImpl) WatchUnresolvedNotifications(ctx context.Context, window, interval time.Duration) {
	if s.notificationDatabaseService == nil {
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			s.logger.Debug("WatchUnresolvedNotifications, running iteration")
			err := s.RetryUnresolved(ctx, window, interval)
			if err != nil {
				s.logger.Warn("WatchUnresolvedNotifications iteration failed", zap.Error(err))
				continue
			}
			s.logger.Debug("WatchUnresolvedNotifications, completed iteration")
		}
	}()
}

func (s *ServiceImpl) GetNotification(ctx context.Context, notificationID string) (*notification_database.Record, error) {
	if s.notificationDatabaseService == nil {
		return nil, ErrHistoryDisabled
	}
	return s.notificationDatabaseService.QueryNotification(ctx, notificationID)
}

func (s *ServiceImpl) ListNotifications(ctx context.Context, since time.Time) ([]notification_database.Record, error) {
	if s.notificationDatabaseService == nil {
		return nil, ErrHistoryDisabled
	}
	return s.notificationDatabaseService.QueryRecentNotifications(ctx, since)
}
