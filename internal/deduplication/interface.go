package deduplication

import (
	"context"
)

type Service interface {
	MarkSeen(ctx context.Context, key string) (firstTime bool, err error)
	Forget(ctx context.Context, key string) error
	Close() error
}
