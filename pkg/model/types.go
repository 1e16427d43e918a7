package model

import (
	"database/sql/driver"
	"fmt"
	"sort"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// StringList 以JSON形式存储的字符串列表（概念列表等）
type StringList []string

// Value 实现 driver.Valuer
func (s StringList) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(s))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan 实现 sql.Scanner
func (s *StringList) Scan(value interface{}) error {
	return scanJSON(value, s)
}

// BoardDistribution 连板分布：连板天数 -> 股票数量（稀疏）
type BoardDistribution map[int]int

// MaxHeight 最高连板数（空间板高度），无数据返回0
func (d BoardDistribution) MaxHeight() int {
	max := 0
	for days, count := range d {
		if count > 0 && days > max {
			max = days
		}
	}
	return max
}

// Count 某一层级的数量
func (d BoardDistribution) Count(days int) int {
	return d[days]
}

// Total 所有层级数量之和
func (d BoardDistribution) Total() int {
	total := 0
	for _, count := range d {
		total += count
	}
	return total
}

// Tiers 按升序返回所有有数据的层级
func (d BoardDistribution) Tiers() []int {
	tiers := make([]int, 0, len(d))
	for days, count := range d {
		if count > 0 {
			tiers = append(tiers, days)
		}
	}
	sort.Ints(tiers)
	return tiers
}

// Value 实现 driver.Valuer
func (d BoardDistribution) Value() (driver.Value, error) {
	if d == nil {
		return "{}", nil
	}
	b, err := json.Marshal(map[int]int(d))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan 实现 sql.Scanner
func (d *BoardDistribution) Scan(value interface{}) error {
	return scanJSON(value, d)
}

// FactorMap 因子名 -> 数值，用于存储因子原始值与得分
type FactorMap map[string]float64

// Value 实现 driver.Valuer
func (f FactorMap) Value() (driver.Value, error) {
	if f == nil {
		return "{}", nil
	}
	b, err := json.Marshal(map[string]float64(f))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan 实现 sql.Scanner
func (f *FactorMap) Scan(value interface{}) error {
	return scanJSON(value, f)
}

func scanJSON(value interface{}, dest interface{}) error {
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		if len(v) == 0 {
			return nil
		}
		return json.Unmarshal(v, dest)
	case string:
		if v == "" {
			return nil
		}
		return json.Unmarshal([]byte(v), dest)
	default:
		return fmt.Errorf("无法解析JSON字段: %T", value)
	}
}

// Float 返回可选数值的指针
func Float(v float64) *float64 {
	return &v
}

// String 返回字符串指针
func String(v string) *string {
	return &v
}
