// Package window 管理主窗口的提醒模式（全屏 + 置顶 + 聚焦）以及显示/聚焦操作。
package window

import (
	"errors"
	"fmt"
	"log/slog"
)

// ErrWindowNotFound 指定名称的窗口不存在（例如 Wails 尚未完成启动）
var ErrWindowNotFound = errors.New("window: not found")

// Window 单个原生窗口上的操作，每个调用都可能失败
type Window interface {
	Show() error
	Focus() error
	SetFullscreen(fullscreen bool) error
	SetAlwaysOnTop(onTop bool) error
}

// Locator 按名称查找窗口
type Locator interface {
	Window(name string) (Window, bool)
}

// Controller 提醒模式控制器，不缓存窗口状态，每次直接作用于系统窗口
type Controller struct {
	locator Locator
	name    string
	logger  *slog.Logger
}

// NewController 创建控制器
func NewController(locator Locator, name string, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{locator: locator, name: name, logger: logger}
}

// Name 目标窗口名称
func (c *Controller) Name() string {
	return c.name
}

// EnterAlertMode 依次显示、全屏、置顶、聚焦
// 任一步失败即停止并返回错误，不会中止进程
func (c *Controller) EnterAlertMode() error {
	w, ok := c.locator.Window(c.name)
	if !ok {
		c.logger.Warn("⚠️ 进入提醒模式失败：窗口不存在", "window", c.name)
		return fmt.Errorf("enter alert mode %q: %w", c.name, ErrWindowNotFound)
	}

	steps := []struct {
		name string
		fn   func() error
	}{
		{"show", w.Show},
		{"fullscreen", func() error { return w.SetFullscreen(true) }},
		{"always_on_top", func() error { return w.SetAlwaysOnTop(true) }},
		{"focus", w.Focus},
	}

	for _, step := range steps {
		if err := step.fn(); err != nil {
			c.logger.Error("❌ 进入提醒模式失败", "window", c.name, "step", step.name, "error", err)
			return fmt.Errorf("enter alert mode %q: %s: %w", c.name, step.name, err)
		}
	}

	c.logger.Info("🚨 已进入提醒模式", "window", c.name)
	return nil
}

// ExitAlertMode 取消置顶、退出全屏
// 两步都会尝试执行，失败只记录日志，合并后返回供调用方参考
func (c *Controller) ExitAlertMode() error {
	w, ok := c.locator.Window(c.name)
	if !ok {
		c.logger.Debug("退出提醒模式跳过：窗口不存在", "window", c.name)
		return nil
	}

	var errs []error
	if err := w.SetAlwaysOnTop(false); err != nil {
		c.logger.Warn("⚠️ 取消置顶失败", "window", c.name, "error", err)
		errs = append(errs, fmt.Errorf("always_on_top: %w", err))
	}
	if err := w.SetFullscreen(false); err != nil {
		c.logger.Warn("⚠️ 退出全屏失败", "window", c.name, "error", err)
		errs = append(errs, fmt.Errorf("fullscreen: %w", err))
	}

	if len(errs) == 0 {
		c.logger.Info("✅ 已退出提醒模式", "window", c.name)
	}
	return errors.Join(errs...)
}

// ShowAndFocus 显示并聚焦窗口，窗口不存在时什么也不做
func (c *Controller) ShowAndFocus() {
	w, ok := c.locator.Window(c.name)
	if !ok {
		c.logger.Debug("显示窗口跳过：窗口不存在", "window", c.name)
		return
	}
	if err := w.Show(); err != nil {
		c.logger.Warn("⚠️ 显示窗口失败", "window", c.name, "error", err)
	}
	if err := w.Focus(); err != nil {
		c.logger.Warn("⚠️ 聚焦窗口失败", "window", c.name, "error", err)
	}
}
