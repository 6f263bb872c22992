package api

import (
	"context"
	"net/http"
	"time"

	"github.com/zrupay/zru-go/pkg/notification"
)

type MockedApiService struct{}

// NewMockedApiService creates an api service
func NewMockedApiService() ApiServicer {
	return &MockedApiService{}
}

// Health check for microservice
func (s *MockedApiService) GetStatus(ctx context.Context) (ImplResponse, error) {
	resp := Status{
		Maintenance: false,
		Status:      "UP",
	}

	return Response(http.StatusOK, resp), nil
}

// accepts every notification
func (s *MockedApiService) PostNotification(ctx context.Context, payload notification.Payload) (ImplResponse, error) {
	n := notification.New(payload, nil)
	accepted := NotificationAccepted{
		NotificationID: "NOTIFICATION-01D78XYFJ1PRM1WPBCBT3VHMNV",
		ResourceID:     n.ID(),
	}
	if kind, ok := n.ResourceKind(); ok {
		accepted.ResourceKind = string(kind)
	}
	if saleID, ok := n.SaleID(); ok {
		accepted.SaleID = saleID
	}

	return Response(http.StatusOK, accepted), nil
}

func (s *MockedApiService) GetNotification(ctx context.Context, notificationID string) (ImplResponse, error) {
	record := NotificationRecord{
		NotificationID: notificationID,
		Type:           "P",
		Status:         "D",
		ResourceID:     "c8325bb3-c24e-4c0c-b0ff-14fe89bf9f1f",
		Verified:       true,
		Payload: map[string]interface{}{
			"id":     "c8325bb3-c24e-4c0c-b0ff-14fe89bf9f1f",
			"type":   "P",
			"status": "D",
		},
		ReceivedAt:   time.Date(2021, 5, 11, 2, 0, 3, 0, time.UTC),
		ResourceKind: "transaction",
	}

	return Response(http.StatusOK, record), nil
}

func (s *MockedApiService) GetNotifications(ctx context.Context, since time.Time) (ImplResponse, error) {
	return Response(http.StatusOK, []NotificationRecord{}), nil
}
