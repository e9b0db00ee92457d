package logging

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHandler struct {
	level   slog.Level
	err     error
	records []slog.Record
}

func (h *recordingHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *recordingHandler) Handle(_ context.Context, record slog.Record) error {
	h.records = append(h.records, record)
	return h.err
}

func (h *recordingHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *recordingHandler) WithGroup(string) slog.Handler      { return h }

func TestMultiHandlerFanOut(t *testing.T) {
	stdout := &recordingHandler{level: slog.LevelInfo}
	sink := &recordingHandler{level: slog.LevelError}
	m := NewMultiHandler(stdout, sink)

	ctx := context.Background()
	assert.True(t, m.Enabled(ctx, slog.LevelInfo))
	assert.False(t, m.Enabled(ctx, slog.LevelDebug))

	require.NoError(t, m.Handle(ctx, slog.Record{Level: slog.LevelInfo, Message: "info line"}))
	require.NoError(t, m.Handle(ctx, slog.Record{Level: slog.LevelError, Message: "error line"}))

	assert.Len(t, stdout.records, 2)
	require.Len(t, sink.records, 1)
	assert.Equal(t, "error line", sink.records[0].Message)
}

func TestMultiHandlerFailingSinkDoesNotStopDelivery(t *testing.T) {
	sinkErr := errors.New("sink down")
	failing := &recordingHandler{level: slog.LevelInfo, err: sinkErr}
	healthy := &recordingHandler{level: slog.LevelInfo}
	m := NewMultiHandler(failing, healthy)

	err := m.Handle(context.Background(), slog.Record{Level: slog.LevelInfo, Message: "hello"})
	assert.ErrorIs(t, err, sinkErr)
	assert.Len(t, healthy.records, 1, "the healthy sink still gets the record")
}

func TestLevelFromEnv(t *testing.T) {
	for name, want := range map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	} {
		t.Setenv("LOG_LEVEL", name)
		assert.Equal(t, want, levelFromEnv(), "LOG_LEVEL=%q", name)
	}
}
