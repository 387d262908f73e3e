package testutil

import (
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlerCapturesRecords(t *testing.T) {
	logger, handler := NewTestLogger(t)

	logger.Info("workbook opened", slog.String("path", "activity.xlsx"))
	logger.Error("registry read failed", slog.Int("row", 12))

	require.Equal(t, 2, handler.Count())
	assert.True(t, handler.ContainsMessage("workbook opened"))
	assert.True(t, handler.ContainsAttr("path", "activity.xlsx"))
	assert.False(t, handler.ContainsMessage("never logged"))
}

func TestHandlerFiltersByLevel(t *testing.T) {
	logger, handler := NewTestLogger(t)

	logger.Debug("cell salvage attempt")
	logger.Info("sheet selected")
	logger.Warn("header recovery engaged")
	logger.Error("ingestion exhausted")

	assert.Len(t, handler.GetRecordsByLevel(slog.LevelInfo), 1)
	assert.Len(t, handler.GetRecordsByLevel(slog.LevelDebug), 1)
	require.Len(t, handler.GetRecordsByLevel(slog.LevelError), 1)
	assert.Equal(t, "ingestion exhausted", handler.GetRecordsByLevel(slog.LevelError)[0].Message)
}

func TestHandlerWithAttrsSharesBuffer(t *testing.T) {
	logger, handler := NewTestLogger(t)

	logger.With(slog.String("component", "matching")).Info("candidate pool built")

	require.Equal(t, 1, handler.Count())
	assert.True(t, handler.ContainsAttr("component", "matching"))
}

func TestHandlerClear(t *testing.T) {
	logger, handler := NewTestLogger(t)

	logger.Info("first")
	logger.Info("second")
	require.Equal(t, 2, handler.Count())

	handler.Clear()
	assert.Equal(t, 0, handler.Count())
	assert.Empty(t, handler.GetRecords())
}

func TestAssertionHelpers(t *testing.T) {
	logger, handler := NewTestLogger(t)

	logger.Info("rows matched", slog.Int("count", 42))
	logger.Warn("unmatched rows dropped", slog.Int("count", 3))

	AssertLogContains(t, handler, slog.LevelInfo, "rows matched")
	AssertLogAttr(t, handler, "count", 42)
	AssertNoErrors(t, handler)

	logger.Error("export failed")
	assert.Len(t, handler.GetRecordsByLevel(slog.LevelError), 1)
}

func TestHandlerConcurrentLogging(t *testing.T) {
	logger, handler := NewTestLogger(t)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			logger.Info("concurrent record", slog.Int("worker", n))
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 10, handler.Count())
}
