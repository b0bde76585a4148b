// Package link 用系统默认程序打开链接（会议链接、日程中的 URL 等）。
package link

import (
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"

	"github.com/pkg/browser"
)

func init() {
	// 浏览器进程的输出不应混入应用日志
	browser.Stdout = io.Discard
	browser.Stderr = io.Discard
}

// Launcher 把 URL 交给操作系统
type Launcher interface {
	OpenURL(url string) error
}

// LauncherFunc 函数适配器
type LauncherFunc func(url string) error

func (f LauncherFunc) OpenURL(url string) error { return f(url) }

// SystemLauncher 使用系统默认处理程序（macOS open / Windows rundll32 / Linux xdg-open）
var SystemLauncher Launcher = LauncherFunc(browser.OpenURL)

// Opener 打开链接，所有失败静默处理（仅记录日志）
type Opener struct {
	launcher Launcher
	logger   *slog.Logger
}

// NewOpener 创建 Opener，launcher 为 nil 时使用系统默认
func NewOpener(launcher Launcher, logger *slog.Logger) *Opener {
	if launcher == nil {
		launcher = SystemLauncher
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Opener{launcher: launcher, logger: logger}
}

// Open 打开链接，不向调用方返回任何错误
func (o *Opener) Open(rawURL string) {
	target, err := Validate(rawURL)
	if err != nil {
		o.logger.Warn("⚠️ 忽略无效链接", "url", rawURL, "error", err)
		return
	}

	if err := o.launcher.OpenURL(target); err != nil {
		o.logger.Warn("⚠️ 打开链接失败", "url", target, "error", err)
		return
	}
	o.logger.Debug("🔗 已打开链接", "url", target)
}

// Validate 检查 URL 是否为可交给系统打开的绝对地址
func Validate(rawURL string) (string, error) {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return "", fmt.Errorf("empty url")
	}

	u, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("failed to parse url: %w", err)
	}
	if u.Scheme == "" {
		return "", fmt.Errorf("url has no scheme")
	}
	// mailto:/tel: 等不透明地址没有 host
	if u.Opaque == "" && u.Host == "" && u.Scheme != "file" {
		return "", fmt.Errorf("url has no host")
	}
	return u.String(), nil
}
