package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func logLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestLogger_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(InfoLevel, &buf)

	logger.Info("delivery completed")

	entry := logLine(t, &buf)
	assert.Equal(t, "delivery completed", entry["msg"])
	assert.Equal(t, "INFO", entry["level"])
	assert.Contains(t, entry, "time")
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(WarnLevel, &buf)

	logger.Debug("ignored")
	logger.Info("ignored")
	assert.Zero(t, buf.Len(), "debug and info should be filtered at warn level")

	logger.Warn("kept")
	assert.NotZero(t, buf.Len())
}

func TestLogger_WithFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(InfoLevel, &buf)

	logger.WithFields(map[string]interface{}{
		"url":        "https://example.com",
		"event_type": "created",
	}).Info("delivered")

	entry := logLine(t, &buf)
	assert.Equal(t, "https://example.com", entry["url"])
	assert.Equal(t, "created", entry["event_type"])
}

func TestLogger_WithError(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(InfoLevel, &buf)

	logger.WithError(errors.New("boom")).Error("delivery failed")
	entry := logLine(t, &buf)
	assert.Equal(t, "boom", entry["error"])

	// nil error adds nothing
	buf.Reset()
	logger.WithError(nil).Info("fine")
	entry = logLine(t, &buf)
	assert.NotContains(t, entry, "error")
}

func TestLogger_Formatted(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(DebugLevel, &buf)

	logger.Debugf("delivered to %d subscribers", 3)
	entry := logLine(t, &buf)
	assert.Equal(t, "delivered to 3 subscribers", entry["msg"])
}

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()

	assert.Empty(t, GetRequestID(ctx))
	assert.Empty(t, GetEventID(ctx))

	ctx = WithRequestID(ctx, "req-123")
	ctx = WithEventID(ctx, "evt-456")
	assert.Equal(t, "req-123", GetRequestID(ctx))
	assert.Equal(t, "evt-456", GetEventID(ctx))
}

func TestFromContext(t *testing.T) {
	var buf bytes.Buffer
	base := NewLogger(InfoLevel, &buf)

	ctx := WithLogger(context.Background(), base)
	ctx = WithRequestID(ctx, "req-123")
	ctx = WithEventID(ctx, "evt-456")

	FromContext(ctx).Info("annotated")

	entry := logLine(t, &buf)
	assert.Equal(t, "req-123", entry["request_id"])
	assert.Equal(t, "evt-456", entry["event_id"])
}
