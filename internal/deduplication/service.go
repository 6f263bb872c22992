package deduplication

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/zrupay/zru-go/pkg/notification"
)

const (
	keyPrefix = "dedup:"
)

type ServiceImpl struct {
	client *redis.Client
	ttl    time.Duration
}

// creates a new ServiceImpl, connecting to Redis
func New(ctx context.Context, addr, password string, db int, ttl time.Duration) (*ServiceImpl, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	_, err := client.Ping(ctx).Result()
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("unable to connect to Redis: %w", err)
	}

	return NewWithClient(client, ttl), nil
}

func NewWithClient(client *redis.Client, ttl time.Duration) *ServiceImpl {
	return &ServiceImpl{
		client: client,
		ttl:    ttl,
	}
}

// MarkSeen reports whether key was not seen within the TTL, and marks it.
func (s *ServiceImpl) MarkSeen(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, fmt.Errorf("empty deduplication key")
	}

	firstTime, err := s.client.SetNX(ctx, keyPrefix+key, time.Now().UTC().Unix(), s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark %s as seen: %w", key, err)
	}

	return firstTime, nil
}

// Forget drops key so the next delivery with it is processed again.
func (s *ServiceImpl) Forget(ctx context.Context, key string) error {
	err := s.client.Del(ctx, keyPrefix+key).Err()
	if err != nil {
		return fmt.Errorf("failed to forget %s: %w", key, err)
	}
	return nil
}

func (s *ServiceImpl) Close() error {
	return s.client.Close()
}

// Key identifies a delivery: its signature when signed, otherwise the
// fields that tell one event from another.
func Key(n *notification.Notification) string {
	if sig := n.Signature(); sig != "" {
		return sig
	}

	saleID, _ := n.SaleID()
	return strings.Join([]string{
		string(n.Type()),
		n.ID(),
		string(n.Status()),
		saleID,
	}, "|")
}
