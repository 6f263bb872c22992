package notifications_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/zrupay/zru-go/internal/deduplication"
	"github.com/zrupay/zru-go/internal/notification_database"
	"github.com/zrupay/zru-go/internal/notifications"
	"github.com/zrupay/zru-go/pkg/notification"
	"github.com/zrupay/zru-go/pkg/resource"
)

const (
	secret        = "s3cr3t"
	transactionID = "c8325bb3-c24e-4c0c-b0ff-14fe89bf9f1f"
	saleID        = "d1bb7082-7a97-48c6-893d-4d5febcd463b"
)

type fakeClient struct {
	mu     sync.Mutex
	err    error
	failOn resource.Kind
	calls  []resource.Kind
}

func (c *fakeClient) Retrieve(ctx context.Context, kind resource.Kind, id string) (*resource.Object, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, kind)
	if c.err != nil && (c.failOn == "" || c.failOn == kind) {
		return nil, c.err
	}
	return resource.NewObject(kind, map[string]any{"id": id, "status": "D"}), nil
}

func (c *fakeClient) SecretKey() string {
	return secret
}

func (c *fakeClient) total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

type resolution struct {
	kind       string
	resourceID string
	err        error
}

// fakeDatabase keeps records in memory.
type fakeDatabase struct {
	mu          sync.Mutex
	seq         int
	insertErr   error
	records     map[string]notification_database.Record
	resolutions map[string]resolution
}

func newFakeDatabase() *fakeDatabase {
	return &fakeDatabase{
		records:     map[string]notification_database.Record{},
		resolutions: map[string]resolution{},
	}
}

func (d *fakeDatabase) InsertNotification(ctx context.Context, record notification_database.Record) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.insertErr != nil {
		return d.insertErr
	}
	d.records[record.NotificationID] = record
	return nil
}

func (d *fakeDatabase) QueryNotification(ctx context.Context, notificationID string) (*notification_database.Record, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	r, ok := d.records[notificationID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", notification_database.ErrNotFound, notificationID)
	}
	return &r, nil
}

func (d *fakeDatabase) UpdateResolution(ctx context.Context, notificationID string, resourceKind string, resourceID string, resolveErr error) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.resolutions[notificationID] = resolution{kind: resourceKind, resourceID: resourceID, err: resolveErr}
	return nil
}

func (d *fakeDatabase) QueryRecentNotifications(ctx context.Context, since time.Time) ([]notification_database.Record, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := []notification_database.Record{}
	for _, r := range d.records {
		if !r.ReceivedAt.Before(since) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (d *fakeDatabase) QueryUnresolvedNotifications(ctx context.Context, since time.Time, interval time.Duration) ([]notification_database.Record, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := []notification_database.Record{}
	for id, res := range d.resolutions {
		if res.err != nil {
			out = append(out, d.records[id])
		}
	}
	return out, nil
}

func (d *fakeDatabase) GenerateULID(prefix string) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seq++
	return fmt.Sprintf("%s-%d", prefix, d.seq)
}

func (d *fakeDatabase) Close() {}

func signed(p notification.Payload) notification.Payload {
	p["signature"] = notification.Sign(p, secret)
	return p
}

func transactionPayload() notification.Payload {
	return signed(notification.Payload{
		"id":      transactionID,
		"type":    "P",
		"status":  "D",
		"sale_id": saleID,
	})
}

func newDedup(t *testing.T) *deduplication.ServiceImpl {
	t.Helper()
	mr := miniredis.RunT(t)
	return deduplication.NewWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Hour)
}

func TestProcessWithoutStorage(t *testing.T) {
	client := &fakeClient{}
	s := notifications.New(client, nil, nil, zap.NewNop())

	result, err := s.Process(context.Background(), transactionPayload())
	require.NoError(t, err)
	assert.False(t, result.Duplicate)
	assert.Empty(t, result.NotificationID)
	assert.Equal(t, resource.KindTransaction, result.Kind)
	require.NotNil(t, result.Resource)
	assert.Equal(t, transactionID, result.Resource.ID())
	require.NotNil(t, result.Sale)
	assert.Equal(t, saleID, result.Sale.ID())
	assert.Equal(t, []resource.Kind{resource.KindTransaction, resource.KindSale}, client.calls)
}

func TestProcessInvalidSignature(t *testing.T) {
	client := &fakeClient{}
	db := newFakeDatabase()
	s := notifications.New(client, db, nil, zap.NewNop())

	p := transactionPayload()
	p["status"] = "C"
	_, err := s.Process(context.Background(), p)
	assert.ErrorIs(t, err, notifications.ErrInvalidSignature)
	assert.Zero(t, client.total())
	assert.Empty(t, db.records)
}

func TestProcessRecordsNotification(t *testing.T) {
	client := &fakeClient{}
	db := newFakeDatabase()
	s := notifications.New(client, db, nil, zap.NewNop())

	result, err := s.Process(context.Background(), transactionPayload())
	require.NoError(t, err)
	require.Equal(t, "NOTIFICATION-1", result.NotificationID)

	record, err := s.GetNotification(context.Background(), result.NotificationID)
	require.NoError(t, err)
	assert.Equal(t, "P", record.Type)
	assert.Equal(t, "D", record.Status)
	assert.Equal(t, transactionID, record.ResourceID)
	assert.Equal(t, saleID, record.SaleID)
	assert.True(t, record.Verified)

	assert.Equal(t, resolution{kind: "transaction", resourceID: transactionID}, db.resolutions[result.NotificationID])

	recent, err := s.ListNotifications(context.Background(), time.Now().Add(-time.Minute))
	require.NoError(t, err)
	assert.Len(t, recent, 1)
}

func TestProcessDuplicate(t *testing.T) {
	client := &fakeClient{}
	db := newFakeDatabase()
	s := notifications.New(client, db, newDedup(t), zap.NewNop())

	_, err := s.Process(context.Background(), transactionPayload())
	require.NoError(t, err)
	calls := client.total()

	result, err := s.Process(context.Background(), transactionPayload())
	require.NoError(t, err)
	assert.True(t, result.Duplicate)
	assert.Equal(t, calls, client.total())
	assert.Len(t, db.records, 1)
}

func TestProcessFetchErrorIsRetryable(t *testing.T) {
	notFound := errors.New("not found")
	client := &fakeClient{err: notFound}
	db := newFakeDatabase()
	s := notifications.New(client, db, newDedup(t), zap.NewNop())

	_, err := s.Process(context.Background(), transactionPayload())
	require.Error(t, err)
	assert.ErrorIs(t, err, notFound)

	var fetchErr *notifications.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, resource.KindTransaction, fetchErr.Kind)
	assert.Equal(t, "NOTIFICATION-1", fetchErr.NotificationID)
	assert.Contains(t, err.Error(), "NOTIFICATION-1")

	res := db.resolutions["NOTIFICATION-1"]
	assert.Equal(t, "transaction", res.kind)
	assert.ErrorIs(t, res.err, notFound)

	// the dedup key was released, so a redelivery is processed again
	client.mu.Lock()
	client.err = nil
	client.mu.Unlock()
	result, err := s.Process(context.Background(), transactionPayload())
	require.NoError(t, err)
	assert.False(t, result.Duplicate)
}

func TestProcessSaleFetchError(t *testing.T) {
	client := &fakeClient{}
	s := notifications.New(client, nil, nil, zap.NewNop())

	// an unknown type resolves nothing but the sale
	p := signed(notification.Payload{"id": "x", "type": "Z", "sale_id": saleID})
	client.err = errors.New("boom")

	_, err := s.Process(context.Background(), p)
	var fetchErr *notifications.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, resource.KindSale, fetchErr.Kind)
	assert.Equal(t, saleID, fetchErr.ResourceID)
	assert.Equal(t, []resource.Kind{resource.KindSale}, client.calls)
}

func TestProcessSaleFetchErrorRecordsSale(t *testing.T) {
	saleErr := errors.New("sale unavailable")
	client := &fakeClient{err: saleErr, failOn: resource.KindSale}
	db := newFakeDatabase()
	s := notifications.New(client, db, nil, zap.NewNop())

	_, err := s.Process(context.Background(), transactionPayload())
	var fetchErr *notifications.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, resource.KindSale, fetchErr.Kind)

	res := db.resolutions["NOTIFICATION-1"]
	assert.Equal(t, "sale", res.kind)
	assert.Equal(t, saleID, res.resourceID)
	assert.ErrorIs(t, res.err, saleErr)
}

func TestProcessStorageFailureDoesNotStopResolution(t *testing.T) {
	client := &fakeClient{}
	db := newFakeDatabase()
	db.insertErr = errors.New("database down")
	s := notifications.New(client, db, nil, zap.NewNop())

	result, err := s.Process(context.Background(), transactionPayload())
	require.NoError(t, err)
	assert.NotNil(t, result.Resource)
	assert.Empty(t, db.resolutions)
}

func TestHistoryDisabled(t *testing.T) {
	s := notifications.New(&fakeClient{}, nil, nil, nil)

	_, err := s.GetNotification(context.Background(), "NOTIFICATION-1")
	assert.ErrorIs(t, err, notifications.ErrHistoryDisabled)
	_, err = s.ListNotifications(context.Background(), time.Now())
	assert.ErrorIs(t, err, notifications.ErrHistoryDisabled)
	assert.ErrorIs(t, s.RetryUnresolved(context.Background(), time.Hour, time.Minute), notifications.ErrHistoryDisabled)
}

func TestRetryUnresolved(t *testing.T) {
	ctx := context.Background()
	client := &fakeClient{err: errors.New("zru unavailable")}
	db := newFakeDatabase()
	s := notifications.New(client, db, nil, zap.NewNop())

	_, err := s.Process(ctx, transactionPayload())
	require.Error(t, err)
	require.Error(t, db.resolutions["NOTIFICATION-1"].err)

	// still failing
	err = s.RetryUnresolved(ctx, time.Hour, 0)
	assert.Error(t, err)

	client.mu.Lock()
	client.err = nil
	client.mu.Unlock()

	require.NoError(t, s.RetryUnresolved(ctx, time.Hour, 0))
	assert.Equal(t, resolution{kind: "transaction", resourceID: transactionID}, db.resolutions["NOTIFICATION-1"])

	// nothing left to retry
	calls := client.total()
	require.NoError(t, s.RetryUnresolved(ctx, time.Hour, 0))
	assert.Equal(t, calls, client.total())
}

func TestWatchUnresolvedNotifications(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := &fakeClient{err: errors.New("zru unavailable")}
	db := newFakeDatabase()
	s := notifications.New(client, db, nil, zap.NewNop())

	_, err := s.Process(ctx, transactionPayload())
	require.Error(t, err)

	client.mu.Lock()
	client.err = nil
	client.mu.Unlock()

	s.WatchUnresolvedNotifications(ctx, time.Hour, 5*time.Millisecond)
	assert.Eventually(t, func() bool {
		db.mu.Lock()
		defer db.mu.Unlock()
		return db.resolutions["NOTIFICATION-1"].err == nil
	}, time.Second, 5*time.Millisecond)
}
