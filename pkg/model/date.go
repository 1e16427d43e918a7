package model

import (
	"fmt"
	"strings"
	"time"
)

// TradeDateLayout 交易日期格式 YYYY-MM-DD
const TradeDateLayout = "2006-01-02"

// CompactDateLayout 数据源使用的紧凑日期格式 YYYYMMDD
const CompactDateLayout = "20060102"

// ParseTradeDate 解析交易日期，同时接受 YYYY-MM-DD 与 YYYYMMDD
func ParseTradeDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	layout := TradeDateLayout
	if len(s) == 8 && !strings.Contains(s, "-") {
		layout = CompactDateLayout
	}
	t, err := time.ParseInLocation(layout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s", ErrInvalidDate, s)
	}
	return t, nil
}

// NormalizeTradeDate 统一为 YYYY-MM-DD
func NormalizeTradeDate(s string) (string, error) {
	t, err := ParseTradeDate(s)
	if err != nil {
		return "", err
	}
	return t.Format(TradeDateLayout), nil
}

// ToCompactDate YYYY-MM-DD -> YYYYMMDD
func ToCompactDate(date string) string {
	return strings.ReplaceAll(date, "-", "")
}

// FromCompactDate YYYYMMDD -> YYYY-MM-DD，其他格式原样返回
func FromCompactDate(date string) string {
	if len(date) == 8 && !strings.Contains(date, "-") {
		return date[:4] + "-" + date[4:6] + "-" + date[6:]
	}
	return date
}

// IsWeekend 判断是否周末
func IsWeekend(date string) bool {
	t, err := ParseTradeDate(date)
	if err != nil {
		return false
	}
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
