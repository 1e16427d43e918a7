package model

import (
	"fmt"
	"strconv"
	"strings"
)

// MarketOpenClock 开盘时间
const MarketOpenClock = "09:30:00"

// NormalizeClock 将数据源返回的时间统一为 HH:MM:SS
// 支持 "09:30:00"、"9:30"、"093000"、"94539" 等格式
func NormalizeClock(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", false
	}

	var parts []string
	if strings.Contains(s, ":") {
		parts = strings.Split(s, ":")
		if len(parts) == 2 {
			parts = append(parts, "0")
		}
		if len(parts) != 3 {
			return "", false
		}
	} else {
		if len(s) < 5 || len(s) > 6 {
			return "", false
		}
		s = strings.Repeat("0", 6-len(s)) + s
		parts = []string{s[0:2], s[2:4], s[4:6]}
	}

	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return "", false
		}
		nums[i] = n
	}
	if nums[0] > 23 || nums[1] > 59 || nums[2] > 59 {
		return "", false
	}
	return fmt.Sprintf("%02d:%02d:%02d", nums[0], nums[1], nums[2]), true
}

// MinutesSinceOpen 距 09:30 的分钟数，只比较时和分，集合竞价期间为负数
func MinutesSinceOpen(clock string) (int, bool) {
	c, ok := NormalizeClock(clock)
	if !ok {
		return 0, false
	}
	h, _ := strconv.Atoi(c[0:2])
	m, _ := strconv.Atoi(c[3:5])
	return h*60 + m - (9*60 + 30), true
}

// BareCode 去掉交易所后缀：000001.SZ -> 000001
func BareCode(code string) string {
	code = strings.TrimSpace(code)
	if i := strings.IndexByte(code, '.'); i >= 0 {
		return code[:i]
	}
	return code
}
