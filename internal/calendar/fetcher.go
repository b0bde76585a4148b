package calendar

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const flightKey = "upcoming"

// Fetcher 对 Source 的包装：合并并发请求，并把所有失败折叠为空数组
// 共享的子进程运行在 Fetcher 自己的生命周期上下文中，单个调用方取消不会影响其他等待者
type Fetcher struct {
	mu     sync.RWMutex
	source Source
	window time.Duration
	logger *slog.Logger

	base   context.Context
	cancel context.CancelFunc
	group  singleflight.Group
}

// NewFetcher 创建抓取器
func NewFetcher(source Source, window time.Duration, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	base, cancel := context.WithCancel(context.Background())
	return &Fetcher{
		source: source,
		window: window,
		logger: logger,
		base:   base,
		cancel: cancel,
	}
}

// Close 终止进行中的抓取，之后的调用都直接失败
func (f *Fetcher) Close() {
	f.cancel()
}

// Update 热更新数据源与查询窗口（配置重载时调用）
func (f *Fetcher) Update(source Source, window time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if source != nil {
		f.source = source
	}
	if window > 0 {
		f.window = window
	}
}

// Window 当前查询窗口
func (f *Fetcher) Window() time.Duration {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.window
}

// FetchJSON 返回即将开始事件的 JSON 数组字符串
// 任何失败都返回 "[]"，调用方无法也无需区分“没有事件”和“抓取失败”
func (f *Fetcher) FetchJSON(ctx context.Context) string {
	raw, err := f.fetch(ctx)
	if err != nil {
		f.getLogger().Warn("⚠️ 日历抓取失败，返回空列表", "error", err)
		return EmptyJSON
	}
	return raw
}

// Upcoming 返回解析后的事件列表，失败时返回错误
func (f *Fetcher) Upcoming(ctx context.Context) ([]CalendarEvent, error) {
	raw, err := f.fetch(ctx)
	if err != nil {
		return nil, err
	}
	return ParseEvents(raw)
}

func (f *Fetcher) fetch(ctx context.Context) (string, error) {
	f.mu.RLock()
	source, window := f.source, f.window
	f.mu.RUnlock()

	if err := f.base.Err(); err != nil {
		return "", err
	}

	// 同一时间只运行一个子进程，后来者共享结果；超时由 Source 自己控制
	ch := f.group.DoChan(flightKey, func() (interface{}, error) {
		out, err := source.FetchUpcoming(f.base, window)
		if err != nil {
			return "", err
		}
		return normalizeOutput(out)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		if res.Shared {
			f.getLogger().Debug("日历抓取复用进行中的请求")
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (f *Fetcher) getLogger() *slog.Logger {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.logger
}
