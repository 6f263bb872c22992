package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/zrupay/zru-go/internal/notification_database"
	"github.com/zrupay/zru-go/internal/notifications"
	"github.com/zrupay/zru-go/pkg/notification"
)

type ApiServicer interface {
	GetStatus(ctx context.Context) (ImplResponse, error)
	PostNotification(ctx context.Context, payload notification.Payload) (ImplResponse, error)
	GetNotification(ctx context.Context, notificationID string) (ImplResponse, error)
	GetNotifications(ctx context.Context, since time.Time) (ImplResponse, error)
}

// Pinger checks that the ZRU API answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

type ApiService struct {
	zruClient            Pinger
	notificationsService notifications.Service
}

// NewApiService creates an api service
func NewApiService(
	zruClient Pinger,
	notificationsService notifications.Service,
) ApiServicer {
	return &ApiService{
		zruClient:            zruClient,
		notificationsService: notificationsService,
	}
}

type NotificationAccepted struct {
	NotificationID string `json:"notification_id,omitempty"`
	Duplicate      bool   `json:"duplicate"`
	ResourceKind   string `json:"resource_kind,omitempty"`
	ResourceID     string `json:"resource_id,omitempty"`
	SaleID         string `json:"sale_id,omitempty"`
}

type NotificationRecord struct {
	NotificationID     string                 `json:"notification_id"`
	Type               string                 `json:"type"`
	Status             string                 `json:"status"`
	ResourceID         string                 `json:"resource_id"`
	SaleID             string                 `json:"sale_id,omitempty"`
	Verified           bool                   `json:"verified"`
	Payload            map[string]interface{} `json:"payload"`
	ReceivedAt         time.Time              `json:"received_at"`
	ResourceKind       string                 `json:"resource_kind,omitempty"`
	ResolvedResourceID string                 `json:"resolved_resource_id,omitempty"`
	ResolvedAt         *time.Time             `json:"resolved_at,omitempty"`
	ResolveError       string                 `json:"resolve_error,omitempty"`
}

// Health check for microservice
func (s *ApiService) GetStatus(ctx context.Context) (ImplResponse, error) {
	status := Status{
		Status: "UP",
	}

	// check ZRU API
	err := s.zruClient.Ping(ctx)
	if err != nil {
		status.Status = fmt.Sprintf("Failed to check ZRU status: %v", err)
	}

	return Response(http.StatusOK, status), nil
}

// receives ZRU notifications; anything but a 200 makes ZRU deliver again
func (s *ApiService) PostNotification(ctx context.Context, payload notification.Payload) (ImplResponse, error) {
	result, err := s.notificationsService.Process(ctx, payload)
	if errors.Is(err, notifications.ErrInvalidSignature) {
		return Response(http.StatusBadRequest, ErrorBody{Error: err.Error()}), nil
	}
	var fetchErr *notifications.FetchError
	if errors.As(err, &fetchErr) {
		return Response(http.StatusBadGateway, ErrorBody{Error: err.Error()}), err
	}
	if err != nil {
		return Response(http.StatusInternalServerError, nil), err
	}

	accepted := NotificationAccepted{
		NotificationID: result.NotificationID,
		Duplicate:      result.Duplicate,
		ResourceKind:   string(result.Kind),
	}
	if result.Resource != nil {
		accepted.ResourceID = result.Resource.ID()
	}
	if result.Sale != nil {
		accepted.SaleID = result.Sale.ID()
	}

	return Response(http.StatusOK, accepted), nil
}

// Gets a stored notification by id
func (s *ApiService) GetNotification(ctx context.Context, notificationID string) (ImplResponse, error) {
	record, err := s.notificationsService.GetNotification(ctx, notificationID)
	if errors.Is(err, notifications.ErrHistoryDisabled) {
		return Response(http.StatusNotFound, ErrorBody{Error: err.Error()}), nil
	}
	if errors.Is(err, notification_database.ErrNotFound) {
		return Response(http.StatusNotFound, ErrorBody{Error: err.Error()}), nil
	}
	if err != nil {
		return Response(http.StatusInternalServerError, nil), err
	}

	return Response(http.StatusOK, toNotificationRecord(*record)), nil
}

// Lists notifications received since a point in time
func (s *ApiService) GetNotifications(ctx context.Context, since time.Time) (ImplResponse, error) {
	records, err := s.notificationsService.ListNotifications(ctx, since)
	if errors.Is(err, notifications.ErrHistoryDisabled) {
		return Response(http.StatusNotFound, ErrorBody{Error: err.Error()}), nil
	}
	if err != nil {
		return Response(http.StatusInternalServerError, nil), err
	}

	out := make([]NotificationRecord, 0, len(records))
	for _, r := range records {
		out = append(out, toNotificationRecord(r))
	}
	return Response(http.StatusOK, out), nil
}

func toNotificationRecord(r notification_database.Record) NotificationRecord {
	return NotificationRecord{
		NotificationID:     r.NotificationID,
		Type:               r.Type,
		Status:             r.Status,
		ResourceID:         r.ResourceID,
		SaleID:             r.SaleID,
		Verified:           r.Verified,
		Payload:            r.Payload,
		ReceivedAt:         r.ReceivedAt,
		ResourceKind:       r.ResourceKind,
		ResolvedResourceID: r.ResolvedResourceID,
		ResolvedAt:         r.ResolvedAt,
		ResolveError:       r.ResolveError,
	}
}
