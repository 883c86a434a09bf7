package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitLogging_ProductionIsJSONWithContextFields(t *testing.T) {
	prev := GlobalLogger
	defer func() { GlobalLogger = prev }()

	var buf bytes.Buffer
	InitLogging("production", "info", &buf)

	ctx := WithCorrelationID(context.Background(), "corr-1")
	ctx = context.WithValue(ctx, RequestID, "req-9")
	GlobalLogger.InfoContext(ctx, "hello", slog.String("k", "v"))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "hello", line["msg"])
	assert.Equal(t, "corr-1", line["correlation_id"])
	assert.Equal(t, "req-9", line["request_id"])
	assert.Equal(t, "v", line["k"])
}

func TestInitLogging_LevelFiltering(t *testing.T) {
	prev := GlobalLogger
	defer func() { GlobalLogger = prev }()

	var buf bytes.Buffer
	InitLogging("development", "warn", &buf)
	GlobalLogger.Info("quiet")
	assert.Empty(t, buf.String())
	GlobalLogger.Warn("loud")
	assert.Contains(t, buf.String(), "loud")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel(" error "))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
}

func TestOpLogger(t *testing.T) {
	prev := GlobalLogger
	defer func() { GlobalLogger = prev }()

	var buf bytes.Buffer
	InitLogging("development", "debug", &buf)
	l := NewOpLogger("posts")
	ctx := context.Background()

	l.LogStart(ctx, "fetch", nil)
	l.LogEnd(ctx, "fetch", time.Now(), map[string]any{"count": 5})
	l.LogRejected(ctx, "login", "bad password")
	l.LogError(ctx, "create", errors.New("boom"))
	l.LogNoop(ctx, "like", map[string]any{"post_id": "p9"})

	out := buf.String()
	assert.Contains(t, out, "container=posts")
	assert.Contains(t, out, "operation=fetch")
	assert.Contains(t, out, "count=5")
	assert.Contains(t, out, "error=boom")
	assert.Contains(t, out, "post_id=p9")
}

func TestCorrelationIDs(t *testing.T) {
	a, b := GenerateCorrelationID(), GenerateCorrelationID()
	assert.NotEqual(t, a, b)
	assert.Empty(t, ExtractCorrelationID(context.Background()))
	assert.Equal(t, a, ExtractCorrelationID(WithCorrelationID(context.Background(), a)))
}

func TestRecordAuthAttempt(t *testing.T) {
	before := testutil.ToFloat64(AuthAttemptsTotal.WithLabelValues("login", "failure"))
	RecordAuthAttempt("login", false)
	assert.Equal(t, before+1, testutil.ToFloat64(AuthAttemptsTotal.WithLabelValues("login", "failure")))
}

func TestInitTracing_Disabled(t *testing.T) {
	shutdown, err := InitTracing(TracingConfig{ServiceName: "test", Enabled: false})
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))

	span, ctx := StartOperation(context.Background(), "auth", "login")
	assert.NotNil(t, ctx)
	span.SetError(errors.New("x"))
	span.End()
}
