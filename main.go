// main.go - Upcoming 应用入口
// 菜单栏日历提醒工具：托盘 + 提醒窗口 + 系统日历查询

package main

import (
	"embed"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"upcoming/config"
	"upcoming/internal/logging"
	"upcoming/internal/tray"
	"upcoming/internal/utils"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	"github.com/wailsapp/wails/v2/pkg/options/mac"
)

// 版本信息
var (
	Version   = "0.3.0"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// 命令行参数
var (
	configPath  = flag.String("config", "", "配置文件路径（默认位于应用数据目录）")
	showVersion = flag.Bool("version", false, "显示版本信息")
)

// 嵌入前端资源
//
//go:embed all:frontend/dist
var assets embed.FS

// 嵌入默认配置文件
//
//go:embed config/config.yaml
var defaultConfigContent []byte

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("Upcoming\n")
		fmt.Printf("Version: %s\n", Version)
		fmt.Printf("Commit: %s\n", Commit)
		fmt.Printf("Built: %s\n", BuildTime)
		os.Exit(0)
	}

	cfg, watcher, path := loadConfig(*configPath)

	logOut, closeLog := openLogOutput(cfg.Logging)
	defer closeLog()

	logger, levelVar, broadcastHandler := logging.Setup(cfg.Logging.Level, logOut)
	slog.SetDefault(logger)
	if watcher != nil {
		watcher.UpdateLogger(logger)
	}

	app := NewApp(cfg, path, logger, levelVar, broadcastHandler)
	app.configWatcher = watcher

	err := wails.Run(&options.App{
		Title:     cfg.App.Title,
		Width:     cfg.App.Width,
		Height:    cfg.App.Height,
		MinWidth:  480,
		MinHeight: 360,

		AssetServer: &assetserver.Options{
			Assets: assets,
		},

		BackgroundColour: &options.RGBA{R: 18, G: 18, B: 24, A: 1},

		// 生命周期回调
		OnStartup:     app.startup,
		OnDomReady:    app.domReady,
		OnBeforeClose: app.beforeClose,
		OnShutdown:    app.shutdown,

		// 绑定到前端的方法
		Bind: []interface{}{
			app,
		},

		Mac: &mac.Options{
			TitleBar: &mac.TitleBar{
				TitlebarAppearsTransparent: true,
				HideTitle:                  true,
				FullSizeContent:            true,
			},
			About: &mac.AboutInfo{
				Title:   cfg.App.Title,
				Message: fmt.Sprintf("Upcoming 日历提醒\n版本 %s", Version),
				Icon:    tray.DefaultIcon(),
			},
			WebviewIsTransparent: true,
		},
	})

	if err != nil {
		logger.Error("❌ 应用运行失败", "error", err)
		closeLog()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// openLogOutput 组合日志输出：控制台 + 可选的轮转日志文件
// 菜单栏应用从 Finder/登录项启动时没有可见的 stdout，文件是唯一落盘的地方
func openLogOutput(cfg config.LoggingConfig) (io.Writer, func()) {
	if !cfg.FileEnabled {
		return os.Stdout, func() {}
	}

	path := utils.ResolveLogPath(cfg.FilePath)
	fileWriter, err := logging.NewFileWriter(path, cfg.MaxFileSize, cfg.MaxFiles, cfg.CompressRotated)
	if err != nil {
		fmt.Printf("警告：无法创建日志文件写入器，仅输出到控制台: %v\n", err)
		return os.Stdout, func() {}
	}

	fmt.Printf("🔧 文件日志已启用: 路径=%s\n", path)
	// 文件在前：stdout 不可写时 MultiWriter 会提前返回
	return io.MultiWriter(fileWriter, os.Stdout), func() { _ = fileWriter.Close() }
}

// loadConfig 加载配置：未指定路径时使用应用数据目录下的 config.yaml，
// 文件不存在则写入内嵌的默认配置。加载失败时退回默认值且不启用热重载。
func loadConfig(path string) (*config.Config, *config.ConfigWatcher, string) {
	tempLogger := slog.Default()

	if err := utils.EnsureAppDirs(); err != nil {
		tempLogger.Warn("⚠️ 无法创建应用目录", "error", err)
	} else {
		tempLogger.Info("📁 应用目录已就绪",
			"appdir", utils.GetAppDataDir(),
			"logs", utils.GetLogDir())
	}

	if path == "" {
		path = utils.GetConfigPath()
	}

	created, err := utils.EnsureFile(path, defaultConfigContent)
	if err != nil {
		tempLogger.Warn("⚠️ 无法写入默认配置，使用内置默认值", "path", path, "error", err)
		return config.Default(), nil, path
	}
	if created {
		tempLogger.Info("📝 已生成默认配置文件", "path", path)
	}

	watcher, err := config.NewConfigWatcher(path, tempLogger)
	if err != nil {
		tempLogger.Warn("⚠️ 配置加载失败，使用内置默认值", "path", path, "error", err)
		return config.Default(), nil, path
	}

	cfg := watcher.GetConfig()
	tempLogger.Info("✅ 配置加载完成",
		"path", path,
		"interpreter", cfg.Calendar.Interpreter,
		"lookahead", cfg.Calendar.Lookahead)
	return cfg, watcher, path
}
