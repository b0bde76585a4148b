package logging

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

const megabyte = 1024 * 1024

// ParseSize 解析 "10MB"、"512KB"、"1GB" 或纯数字（字节）形式的大小
func ParseSize(size string) (int64, error) {
	s := strings.ToUpper(strings.TrimSpace(size))
	if s == "" {
		return 0, fmt.Errorf("empty size")
	}

	multiplier := int64(1)
	for _, unit := range []struct {
		suffix string
		factor int64
	}{
		{"GB", 1024 * megabyte},
		{"MB", megabyte},
		{"KB", 1024},
		{"B", 1},
	} {
		if strings.HasSuffix(s, unit.suffix) {
			s = strings.TrimSpace(strings.TrimSuffix(s, unit.suffix))
			multiplier = unit.factor
			break
		}
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid size %q", size)
	}
	return n * multiplier, nil
}

// NewFileWriter 创建按大小轮转的日志文件写入器，目录在首次写入时创建
func NewFileWriter(path, maxSize string, maxFiles int, compress bool) (*lumberjack.Logger, error) {
	limit, err := ParseSize(maxSize)
	if err != nil {
		return nil, err
	}

	// lumberjack 以 MB 为单位，不足 1MB 按 1MB 处理
	sizeMB := int((limit + megabyte - 1) / megabyte)

	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    sizeMB,
		MaxBackups: maxFiles,
		Compress:   compress,
		LocalTime:  true,
	}, nil
}
