package logger

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsyncHandlerWritesConsoleAndFile(t *testing.T) {
	dir := t.TempDir()
	var console bytes.Buffer
	handler := newAsyncHandler(&console, dir, slog.LevelInfo, time.Hour)
	log := slog.New(handler)

	log.Debug("hidden message")
	log.Info("visit recorded", "name", "alice")
	log.With("request_id", "r-1").WithGroup("http").Warn("slow request", "latency", "2s")
	require.NoError(t, handler.Close())

	out := console.String()
	assert.NotContains(t, out, "hidden message")
	assert.Contains(t, out, "visit recorded")
	assert.Contains(t, out, "name=alice")
	assert.Contains(t, out, "request_id=r-1")
	assert.Contains(t, out, "http.latency=2s")

	data, err := os.ReadFile(filepath.Join(dir, time.Now().Format("2006-01-02")+".log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "visit recorded")
}

func TestAsyncHandlerWriteAfterClose(t *testing.T) {
	var console bytes.Buffer
	handler := newAsyncHandler(&console, "", slog.LevelDebug, 0)
	require.NoError(t, handler.Close())
	require.NoError(t, handler.Close())

	slog.New(handler).Info("late line")
	assert.True(t, strings.Contains(console.String(), "late line"))
}

func TestCleanOldLogs(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "2000-01-01.log")
	require.NoError(t, os.WriteFile(old, []byte("old"), 0644))
	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(old, past, past))

	var console bytes.Buffer
	handler := newAsyncHandler(&console, dir, slog.LevelInfo, 24*time.Hour)
	require.NoError(t, handler.Close())

	_, err := os.Stat(old)
	assert.True(t, os.IsNotExist(err))
}

func TestShutdownCallbackInvoke(t *testing.T) {
	var console bytes.Buffer
	handler := newAsyncHandler(&console, "", slog.LevelInfo, 0)
	cb := &ShutdownCallback{handler: handler}
	assert.NoError(t, cb.Invoke(context.Background()))
}
