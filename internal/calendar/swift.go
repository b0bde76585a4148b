package calendar

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

//go:embed scripts/fetch_calendar.swift
var fetchScript []byte

// ScriptName 临时脚本文件名前缀
const ScriptName = "fetch_calendar"

// SwiftSource 通过 swift 解释器运行 EventKit 脚本读取 macOS 日历
type SwiftSource struct {
	// Interpreter 解释器路径，默认 /usr/bin/swift
	Interpreter string
	// TempDir 脚本写入目录，空值使用系统临时目录
	TempDir string
	// Timeout 子进程超时，0 表示只受 ctx 约束
	Timeout time.Duration

	Logger *slog.Logger
}

// NewSwiftSource 创建 swift 日历源
func NewSwiftSource(interpreter string, timeout time.Duration, logger *slog.Logger) *SwiftSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &SwiftSource{
		Interpreter: interpreter,
		Timeout:     timeout,
		Logger:      logger,
	}
}

// Script 返回内嵌的脚本内容
func Script() []byte {
	return fetchScript
}

// FetchUpcoming 写出脚本、运行解释器并返回 stdout
// 每次调用使用独立的临时文件，并发调用不会互相覆盖
func (s *SwiftSource) FetchUpcoming(ctx context.Context, window time.Duration) ([]byte, error) {
	interpreter := s.Interpreter
	if interpreter == "" {
		interpreter = "/usr/bin/swift"
	}
	dir := s.TempDir
	if dir == "" {
		dir = os.TempDir()
	}

	scriptPath := filepath.Join(dir, fmt.Sprintf("%s-%s.swift", ScriptName, uuid.NewString()))
	if err := os.WriteFile(scriptPath, fetchScript, 0600); err != nil {
		return nil, fmt.Errorf("failed to write calendar script: %w", err)
	}
	defer func() {
		if err := os.Remove(scriptPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.logger().Debug("清理临时日历脚本失败", "path", scriptPath, "error", err)
		}
	}()

	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, interpreter, scriptPath, formatHours(window))
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// 被 kill 后不再等待残留的子进程输出管道
	cmd.WaitDelay = time.Second

	started := time.Now()
	err := cmd.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("calendar script aborted after %s: %w", time.Since(started).Round(time.Millisecond), ctxErr)
	}
	if err != nil {
		return nil, fmt.Errorf("calendar script failed: %w (stderr: %s)", err, truncate(stderr.String(), 300))
	}

	s.logger().Debug("日历脚本执行完成",
		"interpreter", interpreter,
		"duration", time.Since(started).Round(time.Millisecond),
		"bytes", stdout.Len())

	return stdout.Bytes(), nil
}

func (s *SwiftSource) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// formatHours 将窗口转换为脚本参数（小时，可带小数）
func formatHours(window time.Duration) string {
	if window <= 0 {
		window = 24 * time.Hour
	}
	return strconv.FormatFloat(window.Hours(), 'f', -1, 64)
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
