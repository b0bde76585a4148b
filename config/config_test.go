package config

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte("{}\n"))
	require.NoError(t, err)

	assert.Equal(t, "Upcoming", cfg.App.Title)
	assert.Equal(t, "main", cfg.App.WindowName)
	assert.Equal(t, "/usr/bin/swift", cfg.Calendar.Interpreter)
	assert.Equal(t, 24*time.Hour, cfg.Calendar.Lookahead)
	assert.Equal(t, 60*time.Second, cfg.Calendar.FetchTimeout)
	assert.Equal(t, "Upcoming", cfg.Tray.Tooltip)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.True(t, cfg.Logging.FileEnabled)
	assert.Empty(t, cfg.Logging.FilePath, "空路径由启动流程解析到应用日志目录")
	assert.Equal(t, "10MB", cfg.Logging.MaxFileSize)
	assert.Equal(t, 5, cfg.Logging.MaxFiles)
}

func TestParse_ExplicitZeroTimeoutKept(t *testing.T) {
	cfg, err := Parse([]byte("calendar:\n  fetch_timeout: 0s\n  lookahead: 48h\n"))
	require.NoError(t, err)

	assert.Equal(t, time.Duration(0), cfg.Calendar.FetchTimeout, "显式配置 0 表示不超时")
	assert.Equal(t, 48*time.Hour, cfg.Calendar.Lookahead)
}

func TestParse_TimeoutDefaultOnlySkippedForRealKey(t *testing.T) {
	cases := map[string]string{
		"commented out":  "calendar:\n  # fetch_timeout: 60s\n  lookahead: 24h\n",
		"inside a value": "tray: {tooltip: \"fetch_timeout: docs\"}\n",
		"other section":  "logging:\n  level: info\n  # fetch_timeout: 0s\n",
		"empty value":    "calendar:\n  fetch_timeout:\n",
		"top-level key":  "fetch_timeout: 0s\n",
	}

	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			cfg, err := Parse([]byte(content))
			require.NoError(t, err)
			assert.Equal(t, 60*time.Second, cfg.Calendar.FetchTimeout, "未真正配置时应使用默认超时")
		})
	}
}

func TestParse_ExplicitFileLoggingDisabled(t *testing.T) {
	cfg, err := Parse([]byte("logging:\n  file_enabled: false\n  file_path: logs/custom.log\n  max_file_size: 512KB\n  max_files: 2\n"))
	require.NoError(t, err)

	assert.False(t, cfg.Logging.FileEnabled)
	assert.Equal(t, "logs/custom.log", cfg.Logging.FilePath)
	assert.Equal(t, "512KB", cfg.Logging.MaxFileSize)
	assert.Equal(t, 2, cfg.Logging.MaxFiles)
}

func TestParse_Invalid(t *testing.T) {
	cases := map[string]string{
		"negative lookahead": "calendar:\n  lookahead: -1h\n",
		"lookahead too long": "calendar:\n  lookahead: 1000h\n",
		"negative timeout":   "calendar:\n  fetch_timeout: -5s\n",
		"bad level":          "logging:\n  level: verbose\n",
		"bad max file size":  "logging:\n  max_file_size: lots\n",
		"negative max files": "logging:\n  max_files: -1\n",
		"bad yaml":           "calendar: [\n",
	}

	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(content))
			assert.Error(t, err)
		})
	}
}

func TestDefault_MatchesEmptyFile(t *testing.T) {
	parsed, err := Parse([]byte("{}\n"))
	require.NoError(t, err)
	assert.Equal(t, parsed, Default())
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")

	cfg := Default()
	cfg.Calendar.Lookahead = 12 * time.Hour
	require.NoError(t, SaveConfig(cfg, path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 12*time.Hour, loaded.Calendar.Lookahead)
	assert.Equal(t, cfg.Calendar.FetchTimeout, loaded.Calendar.FetchTimeout)
}

func TestConfigWatcher_ReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfig(t, path, "calendar:\n  lookahead: 24h\n")

	cw, err := NewConfigWatcher(path, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cw.Close() })
	cw.mutex.Lock()
	cw.debounce = 20 * time.Millisecond
	cw.mutex.Unlock()

	var reloaded atomic.Int32
	cw.AddReloadCallback(func(cfg *Config) {
		if cfg.Calendar.Lookahead == 6*time.Hour {
			reloaded.Add(1)
		}
	})

	// 保证 mtime 前进（部分文件系统 mtime 精度较低）
	future := time.Now().Add(2 * time.Second)
	writeConfig(t, path, "calendar:\n  lookahead: 6h\n")
	require.NoError(t, os.Chtimes(path, future, future))

	assert.Eventually(t, func() bool {
		return reloaded.Load() > 0
	}, 3*time.Second, 20*time.Millisecond)
	assert.Equal(t, 6*time.Hour, cw.GetConfig().Calendar.Lookahead)
}

func TestConfigWatcher_InvalidReloadKeepsOldConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfig(t, path, "calendar:\n  lookahead: 24h\n")

	cw, err := NewConfigWatcher(path, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cw.Close() })

	writeConfig(t, path, "logging:\n  level: nope\n")
	assert.Error(t, cw.reloadConfig())
	assert.Equal(t, 24*time.Hour, cw.GetConfig().Calendar.Lookahead)
}

func TestNewConfigWatcher_MissingFile(t *testing.T) {
	_, err := NewConfigWatcher(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.Error(t, err)
}
