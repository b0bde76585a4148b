// Package calendar 通过外部脚本查询系统日历中即将开始的事件。
package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"
)

// EmptyJSON 任何失败路径返回的空数组
const EmptyJSON = "[]"

var (
	// ErrEmptyOutput 子进程没有任何输出
	ErrEmptyOutput = errors.New("calendar: empty output")
	// ErrNotJSONArray 输出不是合法的 JSON 数组
	ErrNotJSONArray = errors.New("calendar: output is not a JSON array")
)

// CalendarEvent 系统日历中的一条事件
// 时间为本地时区的 ISO-8601 字符串，原样透传给前端
type CalendarEvent struct {
	Title       string  `json:"title"`
	Start       string  `json:"start"`
	End         string  `json:"end"`
	Location    *string `json:"location,omitempty"`
	Description *string `json:"description,omitempty"`
	URL         *string `json:"url,omitempty"`
	IsAllDay    bool    `json:"isAllDay"`
}

// StartTime 解析开始时间
func (e CalendarEvent) StartTime() (time.Time, error) {
	return time.Parse(time.RFC3339, e.Start)
}

// EndTime 解析结束时间
func (e CalendarEvent) EndTime() (time.Time, error) {
	return time.Parse(time.RFC3339, e.End)
}

// Source 日历数据来源
// 返回 JSON 数组的原始字节；不同平台的后端只需实现这一个方法
type Source interface {
	FetchUpcoming(ctx context.Context, window time.Duration) ([]byte, error)
}

// normalizeOutput 去掉首尾空白并检查是 UTF-8 编码的 JSON 数组
func normalizeOutput(out []byte) (string, error) {
	if !utf8.Valid(out) {
		return "", fmt.Errorf("calendar: output is not valid UTF-8")
	}
	trimmed := bytes.TrimSpace(out)
	if len(trimmed) == 0 {
		return "", ErrEmptyOutput
	}
	if trimmed[0] != '[' || !json.Valid(trimmed) {
		return "", ErrNotJSONArray
	}
	return string(trimmed), nil
}

// ParseEvents 将 JSON 数组解析为事件列表
func ParseEvents(raw string) ([]CalendarEvent, error) {
	events := make([]CalendarEvent, 0)
	if err := json.Unmarshal([]byte(raw), &events); err != nil {
		return nil, fmt.Errorf("failed to decode calendar events: %w", err)
	}
	return events, nil
}
