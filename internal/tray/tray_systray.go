//go:build !stub

package tray

import (
	"context"
	"sync"

	"github.com/energye/systray"
)

type systrayController struct {
	router    *Router
	opts      Options
	ctx       context.Context
	quitCh    chan struct{}
	once      sync.Once
	running   bool
	runningMu sync.Mutex
}

func (c *systrayController) Stop() {
	c.once.Do(func() {
		c.runningMu.Lock()
		if c.running {
			systray.Quit()
			c.running = false
		}
		c.runningMu.Unlock()
		close(c.quitCh)
	})
}

func start(ctx context.Context, opts Options) (Controller, error) {
	ctrl := &systrayController{
		router: NewRouter(opts),
		opts:   opts,
		ctx:    ctx,
		quitCh: make(chan struct{}),
	}

	// systray.Run 会阻塞，在单独的 goroutine 中运行
	go func() {
		ctrl.runningMu.Lock()
		ctrl.running = true
		ctrl.runningMu.Unlock()

		systray.Run(ctrl.onReady, ctrl.onExit)
	}()

	// 应用上下文结束时一并关闭托盘
	go func() {
		select {
		case <-ctx.Done():
			ctrl.Stop()
		case <-ctrl.quitCh:
		}
	}()

	return ctrl, nil
}

func (c *systrayController) onReady() {
	systray.SetIcon(c.opts.Icon)

	if c.opts.Tooltip != "" {
		systray.SetTooltip(c.opts.Tooltip)
	} else {
		systray.SetTooltip("Upcoming")
	}

	// 左键显示主窗口，右键弹出菜单
	systray.SetOnClick(func(menu systray.IMenu) {
		c.router.HandleClick(ButtonLeft)
	})
	systray.SetOnRClick(func(menu systray.IMenu) {
		if !c.router.HandleClick(ButtonRight) {
			menu.ShowMenu()
		}
	})

	for i, item := range Menu {
		if i == len(Menu)-1 {
			systray.AddSeparator()
		}
		id := item.ID
		m := systray.AddMenuItem(item.Title, item.Tooltip)
		m.Click(func() {
			select {
			case <-c.quitCh:
				return
			default:
			}
			c.router.HandleMenu(id)
		})
	}
}

func (c *systrayController) onExit() {
	c.runningMu.Lock()
	c.running = false
	c.runningMu.Unlock()
}
