package logging

import (
	"context"
	"sync"
	"time"

	"github.com/wailsapp/wails/v2/pkg/runtime"
)

// EventLogBatch 前端订阅的日志批量事件
const EventLogBatch = "log:batch"

// EmitFunc 事件发送函数，默认是 Wails runtime.EventsEmit
type EmitFunc func(ctx context.Context, eventName string, optionalData ...interface{})

// EventEmitter Wails 事件发射器
// 负责将日志通过 Wails Runtime Events 推送到前端
type EventEmitter struct {
	mu sync.Mutex

	ctx     context.Context
	enabled bool
	emit    EmitFunc

	batchSize     int
	flushInterval time.Duration

	queue    chan LogEntry
	stopChan chan struct{}
	doneChan chan struct{}
}

// NewEventEmitter 创建事件发射器
func NewEventEmitter() *EventEmitter {
	return &EventEmitter{
		emit:          runtime.EventsEmit,
		batchSize:     10,                     // 每批最多10条
		flushInterval: 100 * time.Millisecond, // 100ms刷新一次
	}
}

// SetEmitFunc 替换事件发送函数
func (e *EventEmitter) SetEmitFunc(fn EmitFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if fn != nil {
		e.emit = fn
	}
}

// Start 启动事件发射器（拿到 Wails 上下文后调用）
func (e *EventEmitter) Start(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.enabled {
		return
	}

	e.ctx = ctx
	e.enabled = true
	e.stopChan = make(chan struct{})
	e.doneChan = make(chan struct{})

	// 有界队列：前端消费慢时丢弃，避免拖住日志主路径
	queueCap := e.batchSize * 50
	if queueCap < 100 {
		queueCap = 100
	}
	e.queue = make(chan LogEntry, queueCap)

	go e.batchSendLoop(e.ctx, e.emit, e.queue, e.stopChan, e.doneChan, e.batchSize, e.flushInterval)
}

// Stop 停止事件发射器，剩余日志会尽量刷出
func (e *EventEmitter) Stop() {
	e.mu.Lock()
	if !e.enabled {
		e.mu.Unlock()
		return
	}
	e.enabled = false
	stopChan := e.stopChan
	doneChan := e.doneChan
	e.stopChan = nil
	e.doneChan = nil
	e.queue = nil
	e.mu.Unlock()

	close(stopChan)
	<-doneChan
}

// Emit 发射一条日志事件，未启动时直接丢弃
func (e *EventEmitter) Emit(entry LogEntry) {
	e.mu.Lock()
	if !e.enabled || e.queue == nil {
		e.mu.Unlock()
		return
	}
	queue := e.queue
	e.mu.Unlock()

	select {
	case queue <- entry:
	default:
		// 队列已满：WARN/ERROR 挤掉最旧的一条
		if entry.Level == "ERROR" || entry.Level == "WARN" {
			select {
			case <-queue:
			default:
			}
			select {
			case queue <- entry:
			default:
			}
		}
	}
}

func (e *EventEmitter) batchSendLoop(
	ctx context.Context,
	emit EmitFunc,
	queue <-chan LogEntry,
	stop <-chan struct{},
	done chan<- struct{},
	batchSize int,
	flushInterval time.Duration,
) {
	defer close(done)

	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	buffer := make([]LogEntry, 0, batchSize)
	flush := func() {
		if len(buffer) == 0 {
			return
		}
		if ctx != nil {
			batch := make([]LogEntry, len(buffer))
			copy(batch, buffer)
			emit(ctx, EventLogBatch, batch)
		}
		buffer = buffer[:0]
	}

	for {
		select {
		case <-stop:
			for {
				select {
				case entry := <-queue:
					buffer = append(buffer, entry)
					if len(buffer) >= batchSize {
						flush()
					}
				default:
					flush()
					return
				}
			}
		case entry := <-queue:
			buffer = append(buffer, entry)
			if len(buffer) >= batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}

// IsEnabled 返回是否已启用
func (e *EventEmitter) IsEnabled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.enabled
}
