package tray

import (
	"context"
	"errors"
	"sync"
)

// 菜单项 ID
const (
	MenuShow = "show"
	MenuQuit = "quit"
)

// ErrAlreadyStarted 进程内只允许一个托盘
var ErrAlreadyStarted = errors.New("tray: already started")

// Controller 表示托盘控制器（用于停止托盘）。
type Controller interface {
	Stop()
}

// Options 托盘启动参数。
type Options struct {
	// Icon 托盘图标内容（PNG；Windows 推荐 .ico 字节）。为空时使用内置图标。
	Icon []byte

	// Tooltip 托盘悬浮提示文本。
	Tooltip string

	// OnShow 用户希望显示主窗口时触发（左键点击托盘图标/点击“显示”菜单）。
	OnShow func()

	// OnQuit 用户选择“退出”时触发。
	OnQuit func()
}

// MenuItem 静态菜单项
type MenuItem struct {
	ID      string
	Title   string
	Tooltip string
}

// Menu 托盘菜单，构造后不再变化
var Menu = []MenuItem{
	{ID: MenuShow, Title: "Show Dashboard", Tooltip: "显示应用主窗口"},
	{ID: MenuQuit, Title: "Quit", Tooltip: "退出应用"},
}

// Button 托盘图标上的鼠标按键
type Button int

const (
	ButtonLeft Button = iota
	ButtonRight
	ButtonDouble
)

// Router 把菜单/托盘事件分发到回调
type Router struct {
	opts Options
}

// NewRouter 创建分发器
func NewRouter(opts Options) *Router {
	return &Router{opts: opts}
}

// HandleMenu 处理菜单点击，返回是否识别该 ID
func (r *Router) HandleMenu(id string) bool {
	switch id {
	case MenuQuit:
		if r.opts.OnQuit != nil {
			r.opts.OnQuit()
		}
		return true
	case MenuShow:
		if r.opts.OnShow != nil {
			r.opts.OnShow()
		}
		return true
	default:
		return false
	}
}

// HandleClick 处理托盘图标点击：只有左键触发显示，其余交给平台默认行为
func (r *Router) HandleClick(button Button) bool {
	if button != ButtonLeft {
		return false
	}
	if r.opts.OnShow != nil {
		r.opts.OnShow()
	}
	return true
}

var (
	startMu sync.Mutex
	started bool
)

// Start 启动系统托盘（平台相关实现），进程生命周期内只能调用一次。
func Start(ctx context.Context, opts Options) (Controller, error) {
	startMu.Lock()
	defer startMu.Unlock()

	if started {
		return nil, ErrAlreadyStarted
	}
	if len(opts.Icon) == 0 {
		opts.Icon = DefaultIcon()
	}

	ctrl, err := start(ctx, opts)
	if err != nil {
		return nil, err
	}
	started = true
	return ctrl, nil
}
