package prometheus_monitoring

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// https://prometheus.io/docs/guides/go-application/

const (
	namespace = "zru"
)

var (
	serviceStatusMetric = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "service_status",
		Help:      "Health status indicator for the notification service",
	})
	zruAPIStatusMetric = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "api_status",
		Help:      "Health status indicator for the ZRU API",
	})
	watchUnresolvedStatusMetric = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "watch_unresolved_status",
		Help:      "Health status indicator for the unresolved notification watcher",
	})
	notificationsReceivedMetric = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_received",
		Help:      "The total number of notifications delivered to the webhook",
	})
	notificationsSignatureInvalidMetric = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_signature_invalid",
		Help:      "The total number of notifications rejected because the signature did not match",
	})
	notificationsDuplicateMetric = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_duplicate",
		Help:      "The total number of notifications that were already processed",
	})
	notificationsRecordFailedMetric = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_record_failed",
		Help:      "The total number of notifications that could not be written to the database",
	})
	resourceFetchedMetric = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "resource_fetched",
		Help:      "The total number of resources resolved from notifications",
	}, []string{"kind"})
	resourceFetchFailedMetric = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "resource_fetch_failed",
		Help:      "The total number of times resolving a notified resource failed",
	}, []string{"kind"})
)

// StatusChecker reports an error when the ZRU API cannot be reached.
type StatusChecker func(ctx context.Context) error

// RecordMetrics polls checker every interval until ctx is done.
func RecordMetrics(ctx context.Context, checker StatusChecker, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			CheckStatus(ctx, checker)

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
}

// CheckStatus runs one health check and updates the status gauges.
func CheckStatus(ctx context.Context, checker StatusChecker) {
	serviceStatusMetric.Set(1)

	err := checker(ctx)
	if err != nil {
		zruAPIStatusMetric.Set(0)
		zap.L().Warn("checked ZRU status, got error", zap.Error(err))
		return
	}
	zruAPIStatusMetric.Set(1)
}

func SetWatchUnresolvedStatus(status float64) {
	watchUnresolvedStatusMetric.Set(status)
}

func TickNotificationReceived() {
	notificationsReceivedMetric.Inc()
}

func TickSignatureInvalid() {
	notificationsSignatureInvalidMetric.Inc()
}

func TickDuplicate() {
	notificationsDuplicateMetric.Inc()
}

func TickRecordFailed() {
	notificationsRecordFailedMetric.Inc()
}

func TickResourceFetched(kind string) {
	resourceFetchedMetric.WithLabelValues(kind).Inc()
}

func TickResourceFetchFailed(kind string) {
	resourceFetchFailedMetric.WithLabelValues(kind).Inc()
}
