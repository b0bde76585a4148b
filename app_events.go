// app_events.go - Wails 事件发射
// 将 Go 后端状态变化通知到前端

package main

// 事件名称常量
const (
	EventAppInfo         = "app:info"
	EventAlertMode       = "alert:mode"
	EventCalendarFetched = "calendar:fetched"
	EventConfigReloaded  = "config:reloaded"
	EventError           = "error"
)

func (a *App) emit(eventName string, data ...interface{}) {
	ctx := a.wailsContext()
	if ctx == nil {
		return
	}
	a.hooks.emit(ctx, eventName, data...)
}

// emitAppInfo 发送应用信息到前端
func (a *App) emitAppInfo() {
	a.emit(EventAppInfo, a.GetAppInfo())
}

// emitAlertMode 通知前端提醒模式变化
func (a *App) emitAlertMode(active bool) {
	a.emit(EventAlertMode, active)
}

// emitCalendarFetched 通知前端一次抓取完成
func (a *App) emitCalendarFetched(count int) {
	a.emit(EventCalendarFetched, map[string]int{"count": count})
}

// emitConfigReloaded 通知前端配置已重载
func (a *App) emitConfigReloaded() {
	a.emit(EventConfigReloaded, a.GetAppInfo())
}

// emitError 发送错误通知到前端
func (a *App) emitError(title, message string) {
	a.emit(EventError, map[string]string{
		"title":   title,
		"message": message,
	})
}
