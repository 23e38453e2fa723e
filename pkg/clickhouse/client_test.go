package clickhouse

import (
	"context"
	"testing"
	"time"

	ch "github.com/ClickHouse/clickhouse-go/v2"
	"github.com/stretchr/testify/assert"
)

func TestBuildOptions(t *testing.T) {
	cfg := defaultConfig()
	for _, opt := range []ClientOption{
		WithAddr("ch.local", 8123),
		WithDatabase("finsight"),
		WithCredentials("svc", "secret"),
		WithHTTP(true),
		WithAsyncInsert(true, true),
		WithMaxExecutionTime(90 * time.Second),
		WithTimeouts(0, 20*time.Second),
	} {
		opt(cfg)
	}

	opts := buildOptions(cfg)
	assert.Equal(t, []string{"ch.local:8123"}, opts.Addr)
	assert.Equal(t, "finsight", opts.Auth.Database)
	assert.Equal(t, "svc", opts.Auth.Username)
	assert.Equal(t, ch.HTTP, opts.Protocol)
	assert.Equal(t, 5*time.Second, opts.DialTimeout)
	assert.Equal(t, 20*time.Second, opts.ReadTimeout)
	assert.Equal(t, 90, opts.Settings["max_execution_time"])
	assert.Equal(t, 1, opts.Settings["async_insert"])
	assert.Equal(t, 1, opts.Settings["wait_for_async_insert"])
}

func TestBuildOptionsNativeDefaults(t *testing.T) {
	cfg := defaultConfig()
	WithAddr("localhost", 0)(cfg)
	opts := buildOptions(cfg)
	assert.Equal(t, []string{"localhost:9000"}, opts.Addr)
	assert.Equal(t, ch.Native, opts.Protocol)
	assert.Empty(t, opts.Settings)
}

func TestNewClientRequiresHost(t *testing.T) {
	_, err := NewClient(context.Background())
	assert.ErrorContains(t, err, "host is required")
}
