// app_api.go - 暴露给前端的 API 方法 (Wails Bindings)
// 这些方法会被自动生成为 JavaScript 调用：window.go.main.App.<Method>

package main

import (
	"context"
	"time"

	"upcoming/internal/calendar"
)

// ============================================================
// 日历 API
// ============================================================

// GetCalendarEvents 返回未来窗口内事件的 JSON 数组字符串
// 任何失败都返回 "[]"
func (a *App) GetCalendarEvents() string {
	raw := a.fetcher.FetchJSON(a.requestContext())

	if events, err := calendar.ParseEvents(raw); err == nil {
		a.logger.Debug("📅 日历抓取完成", "count", len(events))
		a.emitCalendarFetched(len(events))
	}
	return raw
}

// GetUpcomingEvents 返回解析后的事件列表，失败时返回错误（前端 Promise reject）
func (a *App) GetUpcomingEvents() ([]calendar.CalendarEvent, error) {
	events, err := a.fetcher.Upcoming(a.requestContext())
	if err != nil {
		a.logger.Warn("⚠️ 获取日历事件失败", "error", err)
		return nil, err
	}
	a.emitCalendarFetched(len(events))
	return events, nil
}

// ============================================================
// 窗口 API
// ============================================================

// EnterAlertMode 主窗口进入提醒模式（显示 + 全屏 + 置顶 + 聚焦）
func (a *App) EnterAlertMode() error {
	if err := a.windowCtl.EnterAlertMode(); err != nil {
		a.emitError("进入提醒模式失败", err.Error())
		return err
	}
	a.emitAlertMode(true)
	return nil
}

// ExitAlertMode 主窗口退出提醒模式，尽力而为
func (a *App) ExitAlertMode() {
	if err := a.windowCtl.ExitAlertMode(); err != nil {
		a.logger.Debug("退出提醒模式部分失败", "error", err)
	}
	a.emitAlertMode(false)
}

// ShowWindow 显示并聚焦主窗口（托盘“Show Dashboard”/左键点击）
func (a *App) ShowWindow() {
	a.windowCtl.ShowAndFocus()
}

// ============================================================
// 链接 API
// ============================================================

// OpenLink 用系统默认程序打开链接，失败静默
func (a *App) OpenLink(url string) {
	a.links.Open(url)
}

// ============================================================
// 应用信息 API
// ============================================================

// AppInfo 应用信息
type AppInfo struct {
	Version        string `json:"version"`
	Uptime         string `json:"uptime"`
	UptimeSeconds  int64  `json:"uptime_seconds"`
	StartTime      string `json:"start_time"`
	ConfigPath     string `json:"config_path"`
	Interpreter    string `json:"interpreter"`
	LookaheadHours int    `json:"lookahead_hours"`
	FetchTimeout   string `json:"fetch_timeout"`
}

// GetAppInfo 获取应用信息
func (a *App) GetAppInfo() AppInfo {
	a.mu.RLock()
	defer a.mu.RUnlock()

	uptime := time.Since(a.startTime)
	info := AppInfo{
		Version:       Version,
		Uptime:        formatDuration(uptime),
		UptimeSeconds: int64(uptime.Seconds()),
		StartTime:     a.startTime.Format(time.RFC3339),
		ConfigPath:    a.configPath,
	}
	if a.config != nil {
		info.Interpreter = a.config.Calendar.Interpreter
		info.LookaheadHours = int(a.config.Calendar.Lookahead.Hours())
		info.FetchTimeout = a.config.Calendar.FetchTimeout.String()
	}
	return info
}

// requestContext 子进程调用使用的上下文；应用关闭时一并取消
func (a *App) requestContext() context.Context {
	if ctx := a.wailsContext(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// formatDuration 格式化时长为 "1h2m3s" 风格（去掉秒以下精度）
func formatDuration(d time.Duration) string {
	return d.Truncate(time.Second).String()
}
