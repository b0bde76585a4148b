package logging

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedBatch struct {
	name    string
	entries []LogEntry
}

type emitRecorder struct {
	mu      sync.Mutex
	batches []recordedBatch
}

func (r *emitRecorder) emit(_ context.Context, name string, data ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries, _ := data[0].([]LogEntry)
	r.batches = append(r.batches, recordedBatch{name: name, entries: entries})
}

func (r *emitRecorder) entries() []LogEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []LogEntry
	for _, b := range r.batches {
		out = append(out, b.entries...)
	}
	return out
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("WARN"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("whatever"))
}

func TestSimpleHandler_FormatAndLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, levelVar, _ := Setup("info", &buf)

	logger.Debug("隐藏的调试日志")
	logger.Info("📅 日历抓取完成", "count", 3)

	out := buf.String()
	assert.NotContains(t, out, "隐藏的调试日志")
	assert.Contains(t, out, "[INFO] 📅 日历抓取完成 count=3")
	assert.Contains(t, out, "[PID:")

	levelVar.Set(slog.LevelDebug)
	logger.Debug("现在可见")
	assert.Contains(t, buf.String(), "[DEBUG] 现在可见")
}

func TestSimpleHandler_WithAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger, _, _ := Setup("info", &buf)

	logger.With("component", "tray").Info("托盘已启动")
	assert.Contains(t, buf.String(), "托盘已启动 component=tray")
}

func TestBroadcastHandler_FlushesOnStop(t *testing.T) {
	var buf bytes.Buffer
	logger, _, broadcast := Setup("info", &buf)

	rec := &emitRecorder{}
	broadcast.Emitter.SetEmitFunc(rec.emit)

	logger.Info("未启动时丢弃")
	broadcast.Emitter.Start(context.Background())
	require.True(t, broadcast.Emitter.IsEnabled())

	logger.Warn("⚠️ 日历抓取失败", "error", "exit status 1")
	broadcast.Emitter.Stop()
	assert.False(t, broadcast.Emitter.IsEnabled())

	entries := rec.entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "WARN", entries[0].Level)
	assert.Equal(t, "⚠️ 日历抓取失败 error=exit status 1", entries[0].Message)

	rec.mu.Lock()
	assert.Equal(t, EventLogBatch, rec.batches[0].name)
	rec.mu.Unlock()
}

func TestEventEmitter_StopIsIdempotent(t *testing.T) {
	e := NewEventEmitter()
	e.SetEmitFunc(func(context.Context, string, ...interface{}) {})
	e.Stop()
	e.Start(context.Background())
	e.Stop()
	e.Stop()
	assert.False(t, e.IsEnabled())
}

func TestFormatMessage_TruncatesOnRuneBoundary(t *testing.T) {
	var buf bytes.Buffer
	logger, _, broadcast := Setup("info", &buf)
	rec := &emitRecorder{}
	broadcast.Emitter.SetEmitFunc(rec.emit)
	broadcast.Emitter.Start(context.Background())

	// 前缀 1 字节让 500 字节边界落在汉字中间
	logger.Info("a" + strings.Repeat("日", 300))
	broadcast.Emitter.Stop()

	out := buf.String()
	assert.True(t, utf8.ValidString(out), "控制台输出不能包含被截断的字符")
	assert.Contains(t, out, "... (显示截断)")

	entries := rec.entries()
	require.Len(t, entries, 1)
	assert.True(t, utf8.ValidString(entries[0].Message))
	assert.LessOrEqual(t, len(strings.TrimSuffix(entries[0].Message, "... (显示截断)")), maxMessageBytes)
}

func TestParseSize(t *testing.T) {
	cases := map[string]int64{
		"10MB":   10 * 1024 * 1024,
		"512kb":  512 * 1024,
		"1GB":    1024 * 1024 * 1024,
		"2048":   2048,
		" 3 MB ": 3 * 1024 * 1024,
	}
	for in, want := range cases {
		got, err := ParseSize(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, bad := range []string{"", "MB", "ten", "-1MB", "0"} {
		_, err := ParseSize(bad)
		assert.Error(t, err, bad)
	}
}

func TestNewFileWriter_WritesLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")
	fw, err := NewFileWriter(path, "512KB", 3, false)
	require.NoError(t, err)
	assert.Equal(t, 1, fw.MaxSize, "不足 1MB 向上取整")
	assert.Equal(t, 3, fw.MaxBackups)

	var console bytes.Buffer
	logger, _, _ := Setup("info", io.MultiWriter(fw, &console))
	logger.Warn("⚠️ 日历抓取失败", "error", "exit status 1")
	require.NoError(t, fw.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[WARN] ⚠️ 日历抓取失败 error=exit status 1")
	assert.Equal(t, console.String(), string(data))

	_, err = NewFileWriter(path, "huge", 3, false)
	assert.Error(t, err)
}
