package window

import (
	"context"
	"fmt"
	"sync"

	"github.com/wailsapp/wails/v2/pkg/runtime"
)

// WailsLocator 基于 Wails 运行时的窗口查找
// Wails v2 只有一个主窗口；OnStartup 拿到上下文之前窗口视为不存在
type WailsLocator struct {
	mu   sync.RWMutex
	ctx  context.Context
	name string
}

// NewWailsLocator 创建查找器，name 为主窗口名称
func NewWailsLocator(name string) *WailsLocator {
	return &WailsLocator{name: name}
}

// Attach 绑定 Wails 启动上下文
func (l *WailsLocator) Attach(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ctx = ctx
}

// Detach 应用关闭后解除绑定
func (l *WailsLocator) Detach() {
	l.Attach(nil)
}

// Window 实现 Locator
func (l *WailsLocator) Window(name string) (Window, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.ctx == nil || name != l.name {
		return nil, false
	}
	return wailsWindow{ctx: l.ctx}, true
}

type wailsWindow struct {
	ctx context.Context
}

// call 把运行时的 panic 转成错误，避免窗口操作拖垮整个应用
func (w wailsWindow) call(op string, fn func(ctx context.Context)) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("wails %s: %v", op, r)
		}
	}()
	fn(w.ctx)
	return nil
}

func (w wailsWindow) Show() error {
	return w.call("show", runtime.WindowShow)
}

// Focus Wails v2 没有独立的聚焦接口：取消最小化后再次 Show 会把窗口带到前台
func (w wailsWindow) Focus() error {
	return w.call("focus", func(ctx context.Context) {
		runtime.WindowUnminimise(ctx)
		runtime.WindowShow(ctx)
	})
}

func (w wailsWindow) SetFullscreen(fullscreen bool) error {
	if fullscreen {
		return w.call("fullscreen", runtime.WindowFullscreen)
	}
	return w.call("unfullscreen", runtime.WindowUnfullscreen)
}

func (w wailsWindow) SetAlwaysOnTop(onTop bool) error {
	return w.call("always_on_top", func(ctx context.Context) {
		runtime.WindowSetAlwaysOnTop(ctx, onTop)
	})
}
