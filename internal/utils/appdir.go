package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// appDirOverride 测试或便携模式下覆盖应用目录
var appDirOverride string

// SetAppDataDir 覆盖应用数据目录（空字符串恢复默认）
func SetAppDataDir(dir string) {
	appDirOverride = dir
}

// GetAppDataDir 获取应用数据目录（跨平台）
// Windows: %APPDATA%\Upcoming
// macOS: ~/Library/Application Support/Upcoming
// Linux: ~/.local/share/upcoming
func GetAppDataDir() string {
	if appDirOverride != "" {
		return appDirOverride
	}

	switch runtime.GOOS {
	case "windows":
		baseDir := os.Getenv("APPDATA")
		if baseDir == "" {
			baseDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		return filepath.Join(baseDir, "Upcoming")

	case "darwin":
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, "Library", "Application Support", "Upcoming")

	case "linux":
		if xdgDataHome := os.Getenv("XDG_DATA_HOME"); xdgDataHome != "" {
			return filepath.Join(xdgDataHome, "upcoming")
		}
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, ".local", "share", "upcoming")

	default:
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, ".upcoming")
	}
}

// GetLogDir 日志目录
func GetLogDir() string {
	return filepath.Join(GetAppDataDir(), "logs")
}

// ResolveLogPath 解析日志文件路径：空值使用 <logs>/app.log，相对路径基于应用目录
// 从 Finder 或登录项启动时工作目录是 "/"，不能依赖当前目录
func ResolveLogPath(path string) string {
	if path == "" {
		return filepath.Join(GetLogDir(), "app.log")
	}
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(GetAppDataDir(), path)
}

// GetConfigPath 默认配置文件路径
func GetConfigPath() string {
	return filepath.Join(GetAppDataDir(), "config.yaml")
}

// EnsureAppDirs 确保应用目录存在
func EnsureAppDirs() error {
	for _, dir := range []string{GetAppDataDir(), GetLogDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// EnsureFile 文件不存在时写入默认内容，返回是否新建
func EnsureFile(path string, content []byte) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return false, fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		return false, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return true, nil
}
