package engine

import (
	"math"

	"github.com/shopspring/decimal"
)

// Round1 保留1位小数
func Round1(v float64) float64 {
	return roundPlaces(v, 1)
}

// Round2 保留2位小数
func Round2(v float64) float64 {
	return roundPlaces(v, 2)
}

func roundPlaces(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

// Clamp 将数值限制在 [min, max]
func Clamp(v, min, max float64) float64 {
	return math.Max(min, math.Min(max, v))
}

// Rescale 仿射变换到 0~10 展示分：(v-min)/(max-min)*10
func Rescale(v, min, max float64) float64 {
	if max <= min {
		return 0
	}
	return Clamp((v-min)/(max-min)*DisplayMax, 0, DisplayMax)
}

// Percent 计算百分比 part/total*100，total为0时返回nil
func Percent(part, total int) *float64 {
	if total <= 0 {
		return nil
	}
	v := Round1(float64(part) / float64(total) * 100)
	return &v
}

// Mean 平均值，空切片返回nil
func Mean(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	m := sum / float64(len(values))
	return &m
}
