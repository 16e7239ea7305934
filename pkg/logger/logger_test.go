package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("cart-service", "info", &buf)

	log.Info("item added to cart", slog.Int64("cart_id", 7))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "item added to cart", entry["msg"])
	assert.Equal(t, "cart-service", entry["service"])
	assert.Equal(t, float64(7), entry["cart_id"])
}

func TestNewWithWriter_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("product-service", "warn", &buf)

	log.Info("should be dropped")
	assert.Empty(t, buf.Bytes())

	log.Warn("should be written")
	assert.NotEmpty(t, buf.Bytes())
}

func TestNewWithWriter_UnknownLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("product-service", "bogus", &buf)

	log.Debug("dropped")
	assert.Empty(t, buf.Bytes())

	log.Info("written")
	assert.NotEmpty(t, buf.Bytes())
}

func TestCorrelationIDRoundTrip(t *testing.T) {
	ctx := WithCorrelationID(context.Background(), "req-123")

	assert.Equal(t, "req-123", CorrelationIDFromContext(ctx))
	assert.Empty(t, CorrelationIDFromContext(context.Background()))
}

func TestLoggerContextRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("cart-service", "info", &buf)

	ctx := NewContext(context.Background(), log)
	assert.Same(t, log, FromContext(ctx))
}

func TestFromContext_Missing(t *testing.T) {
	assert.Same(t, slog.Default(), FromContext(context.Background()))
}

func TestWithContext_AddsCorrelationID(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("cart-service", "info", &buf)

	ctx := WithCorrelationID(context.Background(), "req-123")
	WithContext(ctx, log).Info("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "req-123", entry["correlation_id"])
}
