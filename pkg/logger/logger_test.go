package logger

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsBadLevel(t *testing.T) {
	_, err := New(&Config{Level: "loud"})
	assert.Error(t, err)
}

func TestLoggerWritesJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	l, err := New(&Config{Level: "info", Format: "json", Output: path})
	require.NoError(t, err)

	l.With(String("component", "ingest")).Info("filing parsed",
		String("file_id", "a.htm"),
		Int("sections", 3),
		Float64("score", 0.25),
		Duration("duration_ms", 1500*time.Millisecond),
		Error(errors.New("boom")),
	)
	l.Debug("dropped at info level")

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(b)
	assert.Contains(t, out, `"component":"ingest"`)
	assert.Contains(t, out, `"file_id":"a.htm"`)
	assert.Contains(t, out, `"duration_ms":1500`)
	assert.Contains(t, out, `"error":"boom"`)
	assert.False(t, strings.Contains(out, "dropped at info level"))
}

func TestFieldKeyValues(t *testing.T) {
	k, v := Strings("topics", []string{"a", "b"}).GetKeyValue()
	assert.Equal(t, "topics", k)
	assert.Equal(t, "a, b", v)

	k, v = Error(nil).GetKeyValue()
	assert.Equal(t, "error", k)
	assert.Nil(t, v)
}
