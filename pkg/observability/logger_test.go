package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nareshthota-64/Sales-CRM/pkg/contextkeys"
)

func lastLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.NotEmpty(t, lines)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(lines[len(lines)-1], &entry))
	return entry
}

func TestLoggerEmitsJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(InfoLevel, &buf)

	logger.WithField("subject", "u-1").Info("identity verified")

	entry := lastLine(t, &buf)
	assert.Equal(t, "identity verified", entry["msg"])
	assert.Equal(t, "u-1", entry["subject"])
	assert.Equal(t, "INFO", entry["level"])
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(WarnLevel, &buf)

	logger.Info("quiet")
	assert.Zero(t, buf.Len(), "info should be filtered at warn level")

	logger.Warn("loud")
	assert.NotZero(t, buf.Len())
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(InfoLevel, &buf)

	logger.WithError(errors.New("boom")).Error("operation failed")

	entry := lastLine(t, &buf)
	assert.Equal(t, "boom", entry["error"])

	// Nil errors add nothing
	assert.Same(t, logger, logger.WithError(nil))
}

func TestFromContextAnnotations(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(InfoLevel, &buf)

	ctx := WithLogger(context.Background(), logger)
	ctx = contextkeys.WithRequestID(ctx, "req-123")
	ctx = contextkeys.WithUserID(ctx, "u-1")

	FromContext(ctx).Info("handled")

	entry := lastLine(t, &buf)
	assert.Equal(t, "req-123", entry["request_id"])
	assert.Equal(t, "u-1", entry["user_id"])
}

func TestGetLoggerFallback(t *testing.T) {
	assert.NotNil(t, GetLogger(context.Background()), "bare context still yields a logger")

	// A nil logger stored in context is a typed nil; the fallback must
	// catch it too or every caller chaining WithField panics
	ctx := WithLogger(context.Background(), nil)
	assert.NotNil(t, GetLogger(ctx), "nil logger in context still yields a logger")
	assert.NotPanics(t, func() { FromContext(ctx).Info("still works") })
}
