package oteladapters_test

import (
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homeshelf/lending-ledger-go/ledger/oteladapters"
)

func Test_SlogBridgeLogger_Construction(t *testing.T) {
	logger := oteladapters.NewSlogBridgeLogger("homeshelf")
	assert.NotNil(t, logger)
}

func Test_SlogBridgeLoggerWithHandler_EmitsAllLevels(t *testing.T) {
	// arrange
	handler := &capturingHandler{level: slog.LevelDebug}
	logger := oteladapters.NewSlogBridgeLoggerWithHandler(handler)
	ctx := context.Background()

	// act
	logger.DebugContext(ctx, "debug message")
	logger.InfoContext(ctx, "info message", "operation", "add_book")
	logger.WarnContext(ctx, "warn message")
	logger.ErrorContext(ctx, "error message")

	// assert
	records := handler.snapshot()
	require.Len(t, records, 4)
	assert.Equal(t, slog.LevelDebug, records[0].Level)
	assert.Equal(t, "info message", records[1].Message)
	assert.Equal(t, slog.LevelWarn, records[2].Level)
	assert.Equal(t, slog.LevelError, records[3].Level)
}

func Test_SlogBridgeLoggerWithHandler_PassesAttributes(t *testing.T) {
	// arrange
	handler := &capturingHandler{level: slog.LevelInfo}
	logger := oteladapters.NewSlogBridgeLoggerWithHandler(handler)

	// act
	logger.InfoContext(context.Background(), "unit of work committed", "operation", "borrow_book")

	// assert
	records := handler.snapshot()
	require.Len(t, records, 1)

	found := false
	records[0].Attrs(func(attr slog.Attr) bool {
		if attr.Key == "operation" && attr.Value.String() == "borrow_book" {
			found = true
		}
		return true
	})
	assert.True(t, found)
}

// capturingHandler records slog records for assertions.
type capturingHandler struct {
	level   slog.Level
	mu      sync.Mutex
	records []slog.Record
}

func (h *capturingHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *capturingHandler) Handle(_ context.Context, record slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.records = append(h.records, record)

	return nil
}

func (h *capturingHandler) WithAttrs(_ []slog.Attr) slog.Handler { return h }

func (h *capturingHandler) WithGroup(_ string) slog.Handler { return h }

func (h *capturingHandler) snapshot() []slog.Record {
	h.mu.Lock()
	defer h.mu.Unlock()

	return append([]slog.Record(nil), h.records...)
}
