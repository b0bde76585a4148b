package tray

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"sync"
)

const iconSize = 22

var (
	iconOnce sync.Once
	iconPNG  []byte
)

// DefaultIcon 返回内置托盘图标（PNG）
// 图案为一个日历页：外框 + 顶部装订条 + 两个挂环 + 一个高亮日期块
func DefaultIcon() []byte {
	iconOnce.Do(func() {
		var buf bytes.Buffer
		if err := png.Encode(&buf, drawIcon()); err == nil {
			iconPNG = buf.Bytes()
		}
	})
	return iconPNG
}

func drawIcon() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, iconSize, iconSize))
	white := color.NRGBA{R: 255, G: 255, B: 255, A: 255}

	fill := func(x0, y0, x1, y1 int) {
		for y := y0; y < y1; y++ {
			for x := x0; x < x1; x++ {
				img.SetNRGBA(x, y, white)
			}
		}
	}

	// 外框
	fill(2, 4, 20, 6)
	fill(2, 19, 20, 20)
	fill(2, 4, 3, 20)
	fill(19, 4, 20, 20)
	// 装订条
	fill(2, 6, 20, 8)
	// 挂环
	fill(6, 2, 8, 5)
	fill(14, 2, 16, 5)
	// 日期块
	fill(12, 12, 17, 17)

	return img
}
