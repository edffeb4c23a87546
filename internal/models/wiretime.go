package models

import (
	"fmt"
	"time"
)

// WireLayout 对外统一的时间格式（精确到分钟）
const WireLayout = "2006-01-02 15:04"

// SentinelExpiry 表示“未预约”的固定过期时间
const SentinelExpiry = "1970-01-01 00:00"

var inputLayouts = []string{
	WireLayout,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// FormatWire 按显示时区格式化
func FormatWire(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(WireLayout)
}

// ParseWire 解析请求中的时间；不带偏移的值按显示时区解释
func ParseWire(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	for _, layout := range inputLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("parse time %q: unsupported format", s)
}

// ParseDay 解析 YYYYMMDD，必须是真实存在的日期
func ParseDay(s string, loc *time.Location) (time.Time, error) {
	if len(s) != 8 {
		return time.Time{}, fmt.Errorf("parse day %q: want YYYYMMDD", s)
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return time.Time{}, fmt.Errorf("parse day %q: want YYYYMMDD", s)
		}
	}
	// time.Parse 会拒绝 20230230 这类不存在的日期
	t, err := time.ParseInLocation("20060102", s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse day %q: %w", s, err)
	}
	return t, nil
}
