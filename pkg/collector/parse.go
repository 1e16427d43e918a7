package collector

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/dewei/SentimentRadar/pkg/engine"
	"github.com/dewei/SentimentRadar/pkg/model"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// row 数据源返回的一行记录，列名 -> 值
type row map[string]interface{}

// first 按顺序取第一个非空列
func (r row) first(keys ...string) (interface{}, bool) {
	for _, k := range keys {
		if v, ok := r[k]; ok && !isBlank(v) {
			return v, true
		}
	}
	return nil, false
}

func (r row) str(keys ...string) string {
	v, ok := r.first(keys...)
	if !ok {
		return ""
	}
	switch value := v.(type) {
	case string:
		return strings.TrimSpace(value)
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", value))
	}
}

func (r row) float(keys ...string) (float64, bool) {
	v, ok := r.first(keys...)
	if !ok {
		return 0, false
	}
	f, err := toFloat64(v)
	if err != nil {
		return 0, false
	}
	return f, true
}

func (r row) optFloat(keys ...string) *float64 {
	if f, ok := r.float(keys...); ok {
		return &f
	}
	return nil
}

func (r row) int(keys ...string) int {
	v, ok := r.first(keys...)
	if !ok {
		return 0
	}
	if s, isStr := v.(string); isStr {
		return leadingInt(s)
	}
	f, err := toFloat64(v)
	if err != nil {
		return 0
	}
	return int(f)
}

func isBlank(v interface{}) bool {
	switch value := v.(type) {
	case nil:
		return true
	case string:
		s := strings.TrimSpace(value)
		return s == "" || s == "-" || s == "--" || strings.EqualFold(s, "nan")
	case float64:
		return math.IsNaN(value)
	}
	return false
}

// toFloat64 将接口类型转换为float64
func toFloat64(v interface{}) (float64, error) {
	switch value := v.(type) {
	case float64:
		return value, nil
	case float32:
		return float64(value), nil
	case int:
		return float64(value), nil
	case int64:
		return float64(value), nil
	case jsoniter.Number:
		return value.Float64()
	case string:
		s := strings.TrimSuffix(strings.TrimSpace(value), "%")
		return strconv.ParseFloat(s, 64)
	default:
		return 0, fmt.Errorf("无法转换为float64: %v", v)
	}
}

// leadingInt 取字符串中第一段数字："2/3" -> 2，"3天2板" -> 3
func leadingInt(s string) int {
	start := -1
	for i, ch := range s {
		if ch >= '0' && ch <= '9' {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			n, _ := strconv.Atoi(s[start:i])
			return n
		}
	}
	if start < 0 {
		return 0
	}
	n, _ := strconv.Atoi(s[start:])
	return n
}

var conceptSeparators = strings.NewReplacer("；", ",", ";", ",", "+", ",", "、", ",", "，", ",")

// SplitConcepts 拆分概念字符串，去重后最多保留 model.MaxConcepts 个
func SplitConcepts(raw string) model.StringList {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var out model.StringList
	seen := make(map[string]struct{})
	for _, part := range strings.Split(conceptSeparators.Replace(raw), ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if _, dup := seen[part]; dup {
			continue
		}
		seen[part] = struct{}{}
		out = append(out, part)
		if len(out) == model.MaxConcepts {
			break
		}
	}
	return out
}

// IsStrongLimit 未开板且开盘即封
func IsStrongLimit(openingTimes int, firstLimitTime *string) bool {
	if openingTimes != 0 || firstLimitTime == nil {
		return false
	}
	return *firstLimitTime <= model.MarketOpenClock
}

// IsST ST 及 *ST 股票
func IsST(name string) bool {
	return strings.Contains(strings.ToUpper(name), "ST")
}

func clockPtr(raw string) *string {
	if c, ok := model.NormalizeClock(raw); ok {
		return &c
	}
	return nil
}

// TsCode 6位代码补全交易所后缀
func TsCode(code string) string {
	code = model.BareCode(code)
	switch {
	case strings.HasPrefix(code, "6"), strings.HasPrefix(code, "9"):
		return code + ".SH"
	case strings.HasPrefix(code, "8"), strings.HasPrefix(code, "4"):
		return code + ".BJ"
	default:
		return code + ".SZ"
	}
}

// MarketActivity 全市场涨跌家数与成交额
type MarketActivity struct {
	UpCount     int
	DownCount   int
	FlatCount   int
	TotalAmount float64
}

// BuildSnapshot 由涨跌停池汇总市场快照：连板分布、炸板数与炸板率
func BuildSnapshot(date string, ups, downs []model.LimitStock, activity *MarketActivity) *model.MarketSnapshot {
	snapshot := &model.MarketSnapshot{
		TradeDate:      date,
		LimitUpCount:   len(ups),
		LimitDownCount: len(downs),
		Distribution:   model.BoardDistribution{},
	}
	for _, s := range ups {
		days := s.ContinuousDays
		if days < 1 {
			days = 1
		}
		snapshot.Distribution[days]++
		if s.OpeningTimes > 0 {
			snapshot.ExplodedCount++
		}
	}
	if len(ups) > 0 {
		snapshot.ExplosionRate = engine.Round2(float64(snapshot.ExplodedCount) / float64(len(ups)) * 100)
	}
	if activity != nil {
		snapshot.UpCount = activity.UpCount
		snapshot.DownCount = activity.DownCount
		snapshot.FlatCount = activity.FlatCount
		snapshot.TotalAmount = activity.TotalAmount
	}
	return snapshot
}

func roundPtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	r := engine.Round2(*v)
	return &r
}

// JoinYesterday 合并昨日涨停股与今日行情，得到昨日涨停今日表现
func JoinYesterday(tradeDate, yesterdayDate string, yesterday []model.LimitStock, bars map[string]model.DailyBar, today []model.LimitStock) []model.YesterdayLimitPerformance {
	todayType := make(map[string]model.LimitType, len(today))
	for _, s := range today {
		todayType[model.BareCode(s.StockCode)] = s.LimitType
	}

	rows := make([]model.YesterdayLimitPerformance, 0, len(yesterday))
	for _, y := range yesterday {
		if y.LimitType != model.LimitUp {
			continue
		}
		code := model.BareCode(y.StockCode)
		days := y.ContinuousDays
		if days < 1 {
			days = 1
		}
		p := model.YesterdayLimitPerformance{
			StockCode:               code,
			StockName:               y.StockName,
			TradeDate:               tradeDate,
			YesterdayDate:           yesterdayDate,
			YesterdayContinuousDays: days,
			YesterdayOpeningTimes:   y.OpeningTimes,
			YesterdayConcepts:       y.Concepts,
			IsLimitUp:               todayType[code] == model.LimitUp,
			IsLimitDown:             todayType[code] == model.LimitDown,
		}
		if bar, ok := bars[code]; ok {
			change := bar.ChangePct
			amount := bar.Amount
			p.TodayChangePct = &change
			p.TodayAmount = &amount
			p.TodayOpenPct = roundPtr(bar.OpenPct())
			p.TodayHighPct = roundPtr(bar.HighPct())
			p.TodayLowPct = roundPtr(bar.LowPct())
		}
		engine.ClassifyMove(&p)
		rows = append(rows, p)
	}
	return rows
}

// LimitTypeOfChange 按涨跌幅 ±9.9% 判定涨跌停
func LimitTypeOfChange(changePct float64) (model.LimitType, bool) {
	switch {
	case changePct >= 9.9:
		return model.LimitUp, true
	case changePct <= -9.9:
		return model.LimitDown, true
	}
	return "", false
}
