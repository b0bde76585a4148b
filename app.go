// app.go - Wails 应用核心结构
// 持有日历抓取、窗口控制、链接打开与托盘，负责生命周期管理

package main

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"upcoming/config"
	"upcoming/internal/calendar"
	"upcoming/internal/link"
	"upcoming/internal/logging"
	"upcoming/internal/tray"
	"upcoming/internal/window"

	"github.com/wailsapp/wails/v2/pkg/runtime"
)

// runtimeHooks 对 Wails 运行时与进程退出的依赖，测试时替换
type runtimeHooks struct {
	emit func(ctx context.Context, eventName string, optionalData ...interface{})
	quit func(ctx context.Context)
	hide func(ctx context.Context)
	exit func(code int)
}

func defaultHooks() runtimeHooks {
	return runtimeHooks{
		emit: runtime.EventsEmit,
		quit: runtime.Quit,
		hide: runtime.WindowHide,
		exit: os.Exit,
	}
}

// App 是 Wails 应用的核心结构
// 它封装了所有业务组件，并暴露方法给前端调用
type App struct {
	// Wails 上下文（OnStartup 之后才有值）
	ctx context.Context

	// 核心组件
	config        *config.Config
	configWatcher *config.ConfigWatcher
	configPath    string
	logger        *slog.Logger
	logLevel      *slog.LevelVar
	logHandler    *logging.BroadcastHandler

	fetcher   *calendar.Fetcher
	locator   *window.WailsLocator
	windowCtl *window.Controller
	links     *link.Opener
	trayCtl   tray.Controller

	hooks     runtimeHooks
	startTray func(ctx context.Context, opts tray.Options) (tray.Controller, error)

	// 应用状态
	startTime time.Time
	mu        sync.RWMutex
	quitting  int32
}

// NewApp 创建新的应用实例，组件在此构造，绑定方法在 OnStartup 之前也可调用
func NewApp(cfg *config.Config, configPath string, logger *slog.Logger, levelVar *slog.LevelVar, handler *logging.BroadcastHandler) *App {
	if logger == nil {
		logger = slog.Default()
	}
	if levelVar == nil {
		levelVar = new(slog.LevelVar)
	}

	locator := window.NewWailsLocator(cfg.App.WindowName)
	source := calendar.NewSwiftSource(cfg.Calendar.Interpreter, cfg.Calendar.FetchTimeout, logger)

	return &App{
		config:     cfg,
		configPath: configPath,
		logger:     logger,
		logLevel:   levelVar,
		logHandler: handler,
		fetcher:    calendar.NewFetcher(source, cfg.Calendar.Lookahead, logger),
		locator:    locator,
		windowCtl:  window.NewController(locator, cfg.App.WindowName, logger),
		links:      link.NewOpener(nil, logger),
		hooks:      defaultHooks(),
		startTray:  tray.Start,
		startTime:  time.Now(),
	}
}

// startup 在 Wails 应用启动时调用
func (a *App) startup(ctx context.Context) {
	a.mu.Lock()
	a.ctx = ctx
	a.mu.Unlock()

	a.locator.Attach(ctx)

	a.logger.Info("🚀 Upcoming 启动中...",
		"version", Version,
		"config_file", a.configPath)

	// 1. 日志推送到前端
	a.setupLogEmitter(ctx)

	// 2. 托盘（进程内唯一）
	a.setupTray(ctx)

	// 3. 配置热重载
	a.setupConfigReload()

	a.logger.Info("✅ Upcoming 启动完成",
		"window", a.windowCtl.Name(),
		"lookahead", a.fetcher.Window())
}

// shutdown 在 Wails 应用关闭时调用
func (a *App) shutdown(ctx context.Context) {
	a.mu.Lock()
	trayCtl := a.trayCtl
	configWatcher := a.configWatcher
	handler := a.logHandler
	a.trayCtl = nil
	a.mu.Unlock()

	a.logger.Info("🛑 正在关闭 Upcoming...")

	if trayCtl != nil {
		trayCtl.Stop()
	}
	if configWatcher != nil {
		_ = configWatcher.Close()
	}

	// 终止仍在运行的日历子进程
	a.fetcher.Close()

	a.locator.Detach()
	a.logger.Info("✅ Upcoming 已关闭")

	if handler != nil {
		handler.Emitter.Stop()
	}
}

// domReady 在前端 DOM 准备就绪时调用
func (a *App) domReady(ctx context.Context) {
	a.emitAppInfo()
}

// beforeClose 在窗口关闭前调用，返回 true 阻止关闭
// 菜单栏工具：点窗口关闭按钮只隐藏到托盘，真正退出走托盘“Quit”
func (a *App) beforeClose(ctx context.Context) bool {
	if atomic.LoadInt32(&a.quitting) == 1 {
		return false
	}
	a.hooks.hide(ctx)
	a.logger.Debug("窗口已隐藏到托盘")
	return true
}

// setupLogEmitter 启动日志事件发射器
func (a *App) setupLogEmitter(ctx context.Context) {
	if a.logHandler == nil {
		return
	}
	a.mu.RLock()
	enabled := a.config.Logging.EmitToFrontend
	a.mu.RUnlock()

	if enabled {
		a.logHandler.Emitter.Start(ctx)
	}
}

// setupTray 创建托盘图标与菜单
func (a *App) setupTray(ctx context.Context) {
	a.mu.RLock()
	tooltip := a.config.Tray.Tooltip
	a.mu.RUnlock()

	ctrl, err := a.startTray(ctx, tray.Options{
		Icon:    tray.DefaultIcon(),
		Tooltip: tooltip,
		OnShow:  a.ShowWindow,
		OnQuit:  a.requestQuit,
	})
	if err != nil {
		a.logger.Error("❌ 托盘启动失败", "error", err)
		return
	}

	a.mu.Lock()
	a.trayCtl = ctrl
	a.mu.Unlock()
	a.logger.Info("📌 托盘已启动")
}

// setupConfigReload 设置配置热重载
func (a *App) setupConfigReload() {
	if a.configWatcher == nil {
		return
	}
	a.configWatcher.AddReloadCallback(a.applyConfig)
	a.logger.Info("🔄 配置热重载已启用")
}

// applyConfig 把新配置应用到运行中的组件
func (a *App) applyConfig(newCfg *config.Config) {
	a.mu.Lock()
	oldCfg := a.config
	a.config = newCfg
	a.mu.Unlock()

	a.logLevel.Set(logging.ParseLevel(newCfg.Logging.Level))

	source := calendar.NewSwiftSource(newCfg.Calendar.Interpreter, newCfg.Calendar.FetchTimeout, a.logger)
	a.fetcher.Update(source, newCfg.Calendar.Lookahead)

	if a.logHandler != nil {
		a.mu.RLock()
		ctx := a.ctx
		a.mu.RUnlock()
		switch {
		case newCfg.Logging.EmitToFrontend && ctx != nil:
			a.logHandler.Emitter.Start(ctx)
		case !newCfg.Logging.EmitToFrontend:
			a.logHandler.Emitter.Stop()
		}
	}

	if oldCfg != nil && (oldCfg.App.WindowName != newCfg.App.WindowName || oldCfg.Tray.Tooltip != newCfg.Tray.Tooltip) {
		a.logger.Warn("⚠️ 窗口名称/托盘提示变更需要重启后生效")
	}
	if oldCfg != nil && logFileSettingsChanged(oldCfg.Logging, newCfg.Logging) {
		a.logger.Warn("⚠️ 日志文件配置变更需要重启后生效")
	}

	a.logger.Info("🔄 配置已重新加载")
	a.emitConfigReloaded()
}

// logFileSettingsChanged 日志文件在启动时打开，相关字段变化无法热更新
func logFileSettingsChanged(old, cur config.LoggingConfig) bool {
	return old.FileEnabled != cur.FileEnabled ||
		old.FilePath != cur.FilePath ||
		old.MaxFileSize != cur.MaxFileSize ||
		old.MaxFiles != cur.MaxFiles ||
		old.CompressRotated != cur.CompressRotated
}

// requestQuit 托盘“Quit”：有 Wails 上下文时走正常关闭流程，否则直接退出
func (a *App) requestQuit() {
	if !atomic.CompareAndSwapInt32(&a.quitting, 0, 1) {
		return
	}
	a.logger.Info("👋 用户选择退出")

	a.mu.RLock()
	ctx := a.ctx
	a.mu.RUnlock()

	if ctx == nil {
		a.hooks.exit(0)
		return
	}
	// Quit 可能同步触发 beforeClose 等回调，避免阻塞托盘事件循环
	go a.hooks.quit(ctx)
}

// wailsContext 返回 Wails 上下文，未启动时为 nil
func (a *App) wailsContext() context.Context {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.ctx
}
