package cache

import (
	"context"
	"time"
)

// BytesCache stores raw bytes with a TTL. A miss is (nil, false, nil).
type BytesCache interface {
	GetBytes(ctx context.Context, key string) (b []byte, ok bool, err error)
	SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Close() error
}

// Key joins parts with ':' under the finsight namespace.
func Key(parts ...string) string {
	k := "finsight"
	for _, p := range parts {
		k += ":" + p
	}
	return k
}
