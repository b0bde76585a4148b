package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"upcoming/internal/logging"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// MaxLookahead 日历查询窗口上限（EventKit 单次查询跨度过大时非常慢）
const MaxLookahead = 31 * 24 * time.Hour

type Config struct {
	App      AppConfig      `yaml:"app"`
	Calendar CalendarConfig `yaml:"calendar"`
	Tray     TrayConfig     `yaml:"tray"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type AppConfig struct {
	Title      string `yaml:"title"`
	WindowName string `yaml:"window_name"` // 主窗口名称，托盘/提醒模式按此名称查找窗口
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
}

// CalendarConfig 日历抓取配置
type CalendarConfig struct {
	Interpreter  string        `yaml:"interpreter"`   // 外部脚本解释器，默认: /usr/bin/swift
	Lookahead    time.Duration `yaml:"lookahead"`     // 向后查询窗口，默认: 24h
	FetchTimeout time.Duration `yaml:"fetch_timeout"` // 子进程超时，0 表示一直等待，默认: 60s
}

type TrayConfig struct {
	Tooltip string `yaml:"tooltip"`
}

type LoggingConfig struct {
	Level           string `yaml:"level"`            // debug|info|warn|error
	EmitToFrontend  bool   `yaml:"emit_to_frontend"` // 是否把日志推送到前端日志面板
	FileEnabled     bool   `yaml:"file_enabled"`     // 写入日志文件，默认: true
	FilePath        string `yaml:"file_path"`        // 日志文件路径，空值为 <appdir>/logs/app.log，相对路径基于应用目录
	MaxFileSize     string `yaml:"max_file_size"`    // 单个文件上限 (如 "10MB")，默认: 10MB
	MaxFiles        int    `yaml:"max_files"`        // 保留的轮转文件数量，默认: 5
	CompressRotated bool   `yaml:"compress_rotated"` // 压缩轮转后的文件
}

// explicitKeys 记录零值也有意义的字段是否在文件中出现
type explicitKeys struct {
	Calendar struct {
		FetchTimeout *time.Duration `yaml:"fetch_timeout"`
	} `yaml:"calendar"`
	Logging struct {
		FileEnabled *bool `yaml:"file_enabled"`
	} `yaml:"logging"`
}

// LoadConfig loads configuration from file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML bytes, applies defaults and validates the result
func Parse(data []byte) (*Config, error) {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// fetch_timeout: 0 是合法值（不超时），file_enabled: false 同理，需要区分“未配置”和“显式为零值”
	var explicit explicitKeys
	if err := yaml.Unmarshal(data, &explicit); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.setDefaults(explicit)

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Default returns a configuration with every default applied
func Default() *Config {
	var config Config
	config.setDefaults(explicitKeys{})
	return &config
}

// setDefaults sets default values for configuration
func (c *Config) setDefaults(explicit explicitKeys) {
	if c.App.Title == "" {
		c.App.Title = "Upcoming"
	}
	if c.App.WindowName == "" {
		c.App.WindowName = "main"
	}
	if c.App.Width == 0 {
		c.App.Width = 1024
	}
	if c.App.Height == 0 {
		c.App.Height = 720
	}
	if c.Calendar.Interpreter == "" {
		c.Calendar.Interpreter = "/usr/bin/swift"
	}
	if c.Calendar.Lookahead == 0 {
		c.Calendar.Lookahead = 24 * time.Hour
	}
	if explicit.Calendar.FetchTimeout == nil {
		c.Calendar.FetchTimeout = 60 * time.Second
	}
	if c.Tray.Tooltip == "" {
		c.Tray.Tooltip = c.App.Title
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}

	// Set file logging defaults
	if explicit.Logging.FileEnabled == nil {
		c.Logging.FileEnabled = true
	}
	if c.Logging.MaxFileSize == "" {
		c.Logging.MaxFileSize = "10MB"
	}
	if c.Logging.MaxFiles == 0 {
		c.Logging.MaxFiles = 5
	}
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.Calendar.Interpreter) == "" {
		return fmt.Errorf("calendar.interpreter cannot be empty")
	}
	if c.Calendar.Lookahead < 0 || c.Calendar.Lookahead > MaxLookahead {
		return fmt.Errorf("calendar.lookahead must be within (0, %s], got %s", MaxLookahead, c.Calendar.Lookahead)
	}
	if c.Calendar.FetchTimeout < 0 {
		return fmt.Errorf("calendar.fetch_timeout cannot be negative, got %s", c.Calendar.FetchTimeout)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug|info|warn|error, got %q", c.Logging.Level)
	}
	if _, err := logging.ParseSize(c.Logging.MaxFileSize); err != nil {
		return fmt.Errorf("logging.max_file_size: %w", err)
	}
	if c.Logging.MaxFiles < 0 {
		return fmt.Errorf("logging.max_files cannot be negative, got %d", c.Logging.MaxFiles)
	}
	if c.App.Width < 0 || c.App.Height < 0 {
		return fmt.Errorf("app.width/app.height cannot be negative")
	}
	return nil
}

// ConfigWatcher handles automatic configuration reloading
type ConfigWatcher struct {
	configPath    string
	config        *Config
	mutex         sync.RWMutex
	watcher       *fsnotify.Watcher
	logger        *slog.Logger
	callbacks     []func(*Config)
	lastModTime   time.Time
	debounceTimer *time.Timer
	debounce      time.Duration
}

// NewConfigWatcher creates a new configuration watcher
func NewConfigWatcher(configPath string, logger *slog.Logger) (*ConfigWatcher, error) {
	config, err := LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load initial config: %w", err)
	}

	fileInfo, err := os.Stat(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get file info: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}

	cw := &ConfigWatcher{
		configPath:  configPath,
		config:      config,
		watcher:     watcher,
		logger:      logger,
		callbacks:   make([]func(*Config), 0),
		lastModTime: fileInfo.ModTime(),
		debounce:    500 * time.Millisecond,
	}

	// 监听所在目录而不是文件本身：编辑器保存时常用 rename 替换文件
	if err := watcher.Add(filepath.Dir(configPath)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch config dir: %w", err)
	}

	go cw.watchLoop()

	return cw, nil
}

// GetConfig returns the current configuration (thread-safe)
func (cw *ConfigWatcher) GetConfig() *Config {
	cw.mutex.RLock()
	defer cw.mutex.RUnlock()
	return cw.config
}

// UpdateLogger updates the logger used by the config watcher
func (cw *ConfigWatcher) UpdateLogger(logger *slog.Logger) {
	cw.mutex.Lock()
	defer cw.mutex.Unlock()
	cw.logger = logger
}

// AddReloadCallback adds a callback function that will be called when config is reloaded
func (cw *ConfigWatcher) AddReloadCallback(callback func(*Config)) {
	cw.mutex.Lock()
	defer cw.mutex.Unlock()
	cw.callbacks = append(cw.callbacks, callback)
}

func (cw *ConfigWatcher) getLogger() *slog.Logger {
	cw.mutex.RLock()
	defer cw.mutex.RUnlock()
	return cw.logger
}

// watchLoop monitors the config file for changes
func (cw *ConfigWatcher) watchLoop() {
	target := filepath.Clean(cw.configPath)

	for {
		select {
		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			// Chmod 也参与判断：mtime 被单独修改时只会收到 Chmod
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Chmod) {
				continue
			}

			fileInfo, err := os.Stat(cw.configPath)
			if err != nil {
				cw.getLogger().Warn(fmt.Sprintf("⚠️ 无法获取配置文件信息: %v", err))
				continue
			}

			cw.mutex.Lock()
			if !fileInfo.ModTime().After(cw.lastModTime) {
				cw.mutex.Unlock()
				continue
			}
			cw.lastModTime = fileInfo.ModTime()

			// 去抖：编辑器保存时可能连续触发多次写事件
			if cw.debounceTimer != nil {
				cw.debounceTimer.Stop()
			}
			name := event.Name
			cw.debounceTimer = time.AfterFunc(cw.debounce, func() {
				logger := cw.getLogger()
				logger.Info(fmt.Sprintf("🔄 检测到配置文件变更，正在重新加载... - 文件: %s", name))
				if err := cw.reloadConfig(); err != nil {
					logger.Error(fmt.Sprintf("❌ 配置文件重新加载失败: %v", err))
				} else {
					logger.Info("✅ 配置文件重新加载成功")
				}
			})
			cw.mutex.Unlock()

		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			cw.getLogger().Error(fmt.Sprintf("⚠️ 配置文件监听错误: %v", err))
		}
	}
}

// reloadConfig reloads the configuration from file
func (cw *ConfigWatcher) reloadConfig() error {
	newConfig, err := LoadConfig(cw.configPath)
	if err != nil {
		return err
	}

	cw.mutex.Lock()
	oldConfig := cw.config
	cw.config = newConfig
	callbacks := make([]func(*Config), len(cw.callbacks))
	copy(callbacks, cw.callbacks)
	cw.mutex.Unlock()

	for _, callback := range callbacks {
		callback(newConfig)
	}

	cw.logConfigChanges(oldConfig, newConfig)

	return nil
}

// logConfigChanges logs the key differences between old and new configurations
func (cw *ConfigWatcher) logConfigChanges(oldConfig, newConfig *Config) {
	logger := cw.getLogger()

	if oldConfig.Calendar.Interpreter != newConfig.Calendar.Interpreter {
		logger.Info("📅 日历解释器变更",
			"old", oldConfig.Calendar.Interpreter,
			"new", newConfig.Calendar.Interpreter)
	}

	if oldConfig.Calendar.Lookahead != newConfig.Calendar.Lookahead {
		logger.Info("📅 日历查询窗口变更",
			"old", oldConfig.Calendar.Lookahead,
			"new", newConfig.Calendar.Lookahead)
	}

	if oldConfig.Calendar.FetchTimeout != newConfig.Calendar.FetchTimeout {
		logger.Info("⏱️ 日历抓取超时变更",
			"old", oldConfig.Calendar.FetchTimeout,
			"new", newConfig.Calendar.FetchTimeout)
	}

	if oldConfig.Logging.Level != newConfig.Logging.Level {
		logger.Info("📝 日志级别变更",
			"old", oldConfig.Logging.Level,
			"new", newConfig.Logging.Level)
	}
}

// Close stops the configuration watcher
func (cw *ConfigWatcher) Close() error {
	cw.mutex.Lock()
	if cw.debounceTimer != nil {
		cw.debounceTimer.Stop()
	}
	cw.mutex.Unlock()
	return cw.watcher.Close()
}

// SaveConfig saves configuration to file
func SaveConfig(config *Config, path string) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
