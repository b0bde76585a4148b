package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

// LogEntry 推送到前端日志面板的一条日志
type LogEntry struct {
	Time    string `json:"time"`
	Level   string `json:"level"`
	Message string `json:"message"`
}

// ParseLevel 将配置中的级别字符串转换为 slog.Level，未知值按 info 处理
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func levelName(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}

// SimpleHandler 控制台日志处理器
// 输出格式: [时间] [PID:n] [GID:n] [LEVEL] 消息 k=v
type SimpleHandler struct {
	level *slog.LevelVar
	out   io.Writer
	mu    *sync.Mutex
	attrs []slog.Attr
}

// NewSimpleHandler 创建处理器，out 为 nil 时输出到 stdout
func NewSimpleHandler(out io.Writer, level *slog.LevelVar) *SimpleHandler {
	if out == nil {
		out = os.Stdout
	}
	if level == nil {
		level = new(slog.LevelVar)
	}
	return &SimpleHandler{level: level, out: out, mu: &sync.Mutex{}}
}

func (h *SimpleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *SimpleHandler) Handle(_ context.Context, r slog.Record) error {
	line := fmt.Sprintf("[%s] [PID:%d] [GID:%d] [%s] %s\n",
		r.Time.Format("2006-01-02 15:04:05.000"),
		os.Getpid(),
		getGoroutineID(),
		levelName(r.Level),
		formatMessage(r, h.attrs))

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.out, line)
	return err
}

func (h *SimpleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &clone
}

func (h *SimpleHandler) WithGroup(_ string) slog.Handler {
	return h
}

// formatMessage 拼接消息与属性，显示内容过长时截断
func formatMessage(r slog.Record, extra []slog.Attr) string {
	message := r.Message

	var attrs []string
	for _, a := range extra {
		attrs = append(attrs, fmt.Sprintf("%s=%v", a.Key, a.Value))
	}
	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, fmt.Sprintf("%s=%v", a.Key, a.Value))
		return true
	})

	if len(attrs) > 0 {
		message = message + " " + strings.Join(attrs, " ")
	}
	if len(message) > maxMessageBytes {
		message = truncateUTF8(message, maxMessageBytes) + "... (显示截断)"
	}
	return message
}

const maxMessageBytes = 500

// truncateUTF8 截断到不超过 n 字节，且不切断多字节字符
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func getGoroutineID() int {
	buf := make([]byte, 64)
	buf = buf[:runtime.Stack(buf, false)]
	fields := strings.Fields(string(buf))
	if len(fields) < 2 {
		return 0
	}
	id, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0
	}
	return id
}

// BroadcastHandler 包装下游处理器，同时把日志投递给前端发射器
type BroadcastHandler struct {
	next    slog.Handler
	attrs   []slog.Attr
	Emitter *EventEmitter
}

// NewBroadcastHandler 创建广播处理器
func NewBroadcastHandler(next slog.Handler, emitter *EventEmitter) *BroadcastHandler {
	if emitter == nil {
		emitter = NewEventEmitter()
	}
	return &BroadcastHandler{next: next, Emitter: emitter}
}

func (h *BroadcastHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *BroadcastHandler) Handle(ctx context.Context, r slog.Record) error {
	h.Emitter.Emit(LogEntry{
		Time:    r.Time.Format(time.RFC3339),
		Level:   levelName(r.Level),
		Message: formatMessage(r, h.attrs),
	})
	return h.next.Handle(ctx, r)
}

func (h *BroadcastHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &BroadcastHandler{
		next:    h.next.WithAttrs(attrs),
		attrs:   append(append([]slog.Attr{}, h.attrs...), attrs...),
		Emitter: h.Emitter,
	}
}

func (h *BroadcastHandler) WithGroup(name string) slog.Handler {
	return &BroadcastHandler{next: h.next.WithGroup(name), attrs: h.attrs, Emitter: h.Emitter}
}

// Setup 创建应用 logger，返回 logger、可热更新的级别和广播处理器
func Setup(level string, out io.Writer) (*slog.Logger, *slog.LevelVar, *BroadcastHandler) {
	levelVar := new(slog.LevelVar)
	levelVar.Set(ParseLevel(level))

	broadcast := NewBroadcastHandler(NewSimpleHandler(out, levelVar), nil)
	return slog.New(broadcast), levelVar, broadcast
}
