package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dewei/SentimentRadar/pkg/model"
)

func TestFactorBands(t *testing.T) {
	th := StageThresholdsV23
	cases := []struct {
		name  string
		table BandTable
		value float64
		want  float64
	}{
		{"空间板2", th.BoardHeight, 2, -2},
		{"空间板3", th.BoardHeight, 3, -1},
		{"空间板4", th.BoardHeight, 4, -1},
		{"空间板6", th.BoardHeight, 6, 1},
		{"空间板7", th.BoardHeight, 7, 2},
		{"涨停9", th.LimitUpCount, 9, -2},
		{"涨停10", th.LimitUpCount, 10, -1},
		{"涨停69", th.LimitUpCount, 69, 0},
		{"涨停70", th.LimitUpCount, 70, 1},
		{"涨停90", th.LimitUpCount, 90, 2},
		{"跌停50", th.LimitDownCount, 50, -2},
		{"跌停49", th.LimitDownCount, 49, -1},
		{"跌停10", th.LimitDownCount, 10, 0},
		{"跌停9", th.LimitDownCount, 9, 1},
		{"炸板50", th.ExplosionRate, 50, -1},
		{"炸板50.1", th.ExplosionRate, 50.1, -2},
		{"炸板15", th.ExplosionRate, 15, 2},
		{"溢价-3", th.AvgPremium, -3, -1},
		{"溢价-3.1", th.AvgPremium, -3.1, -2},
		{"溢价3", th.AvgPremium, 3, 2},
		{"大面40", th.BigLossRate, 40, -1},
		{"大面10", th.BigLossRate, 10, 2},
		{"高位大面15", th.HighBoardBigLossRate, 15, 1},
		{"高位大面15.5", th.HighBoardBigLossRate, 15.5, 0},
		{"晋级14.9", th.AvgPromotionRate, 14.9, -2},
		{"晋级60", th.AvgPromotionRate, 60, 2},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, c.table.Score(c.value))
			// 同一输入多次打分结果一致
			assert.Equal(t, c.table.Score(c.value), c.table.Score(c.value))
			assert.GreaterOrEqual(t, c.table.Score(c.value), -2.0)
			assert.LessOrEqual(t, c.table.Score(c.value), 2.0)
		})
	}
}

func TestScoreOptionalMissingIsNeutral(t *testing.T) {
	assert.Equal(t, 0.0, StageThresholdsV23.AvgPremium.ScoreOptional(nil))
	assert.Equal(t, 1.0, StageThresholdsV23.AvgPremium.ScoreOptional(model.Float(2)))
}

func TestApplyInertia(t *testing.T) {
	c := NewStageClassifier(StageThresholdsV23)

	cases := []struct {
		name      string
		raw, prev model.EmotionStage
		total     int
		want      model.EmotionStage
		used      bool
	}{
		{"无昨日阶段", model.StageWarming, "", -5, model.StageWarming, false},
		{"阶段相同", model.StageWarming, model.StageWarming, 0, model.StageWarming, false},
		{"冰点到回暖-边界+1", model.StageWarming, model.StageIce, -5, model.StageIce, true},
		{"冰点到回暖-远离边界", model.StageWarming, model.StageIce, -4, model.StageWarming, false},
		{"回暖到冰点-边界", model.StageIce, model.StageWarming, -6, model.StageWarming, true},
		{"回暖到冰点-边界-1", model.StageIce, model.StageWarming, -7, model.StageWarming, true},
		{"回暖到冰点-边界-2", model.StageIce, model.StageWarming, -8, model.StageIce, false},
		{"回暖到加速", model.StageAccelerate, model.StageWarming, 1, model.StageWarming, true},
		{"加速到高潮", model.StageClimax, model.StageAccelerate, 7, model.StageAccelerate, true},
		{"高潮到加速", model.StageAccelerate, model.StageClimax, 5, model.StageClimax, true},
		{"高潮到加速-远离", model.StageAccelerate, model.StageClimax, 4, model.StageAccelerate, false},
		{"非相邻阶段", model.StageAccelerate, model.StageIce, 1, model.StageAccelerate, false},
		{"退潮视同回暖", model.StageAccelerate, model.StageRetreat, 1, model.StageRetreat, true},
		{"回暖到退潮不触发", model.StageRetreat, model.StageWarming, -1, model.StageRetreat, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, used := c.ApplyInertia(tc.raw, tc.prev, tc.total)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.used, used)
		})
	}
}

func TestApplyInertiaNeverFiresTwoAwayFromBoundary(t *testing.T) {
	c := NewStageClassifier(StageThresholdsV23)
	stages := []model.EmotionStage{model.StageIce, model.StageWarming, model.StageAccelerate, model.StageClimax, model.StageRetreat}
	for total := -16; total <= 16; total++ {
		near := false
		for _, b := range []int{-6, 0, 6} {
			if total-b <= 1 && b-total <= 1 {
				near = true
			}
		}
		if near {
			continue
		}
		raw := c.StageByScore(total)
		for _, prev := range stages {
			_, used := c.ApplyInertia(raw, prev, total)
			assert.False(t, used, "total=%d prev=%s", total, prev)
		}
	}
}

func TestClassifyEmptySnapshot(t *testing.T) {
	called := false
	rec := Classify(StageInput{TradeDate: "2025-01-06"}, func(string) (model.EmotionStage, bool, error) {
		called = true
		return model.StageClimax, true, nil
	})

	assert.False(t, called)
	assert.True(t, rec.InsufficientData)
	assert.Equal(t, model.StageIce, rec.Stage)
	assert.Equal(t, model.StageIce, rec.StageRaw)
	assert.Equal(t, "blue", rec.StageColor)
	assert.Equal(t, 0, rec.TotalScore)
	require.Len(t, rec.FactorScores, len(model.FactorNames))
	for _, name := range model.FactorNames {
		assert.Equal(t, 0.0, rec.FactorScores[name])
	}
}

func scenarioSnapshot() *model.MarketSnapshot {
	return &model.MarketSnapshot{
		TradeDate:      "2025-01-07",
		LimitUpCount:   85,
		LimitDownCount: 3,
		ExplosionRate:  12.0,
		Distribution:   model.BoardDistribution{1: 60, 2: 15, 3: 6, 4: 3, 5: 1},
	}
}

func TestClassifyScenarioClimax(t *testing.T) {
	snap := scenarioSnapshot()
	promotion := CalculatePromotion(snap.Distribution, model.BoardDistribution{1: 50, 2: 10, 3: 4})
	premium := &model.PremiumStats{
		AvgPremium:           model.Float(2.0),
		BigLossRate:          model.Float(8.0),
		HighBoardBigLossRate: model.Float(10.0),
	}

	rec := Classify(StageInput{
		TradeDate: snap.TradeDate,
		Snapshot:  snap,
		Premium:   premium,
		Promotion: promotion,
	}, NoPreviousStage)

	assert.Equal(t, 1.0, rec.FactorScores[model.FactorBoardHeight])
	assert.Equal(t, 1.0, rec.FactorScores[model.FactorLimitUpCount])
	assert.Equal(t, 1.0, rec.FactorScores[model.FactorLimitDownCount])
	assert.Equal(t, 2.0, rec.FactorScores[model.FactorExplosionRate])
	assert.Equal(t, 1.0, rec.FactorScores[model.FactorAvgPremium])
	assert.Equal(t, 2.0, rec.FactorScores[model.FactorBigLossRate])
	assert.Equal(t, 1.0, rec.FactorScores[model.FactorHighBoardBigLoss])
	assert.Equal(t, 1.0, rec.FactorScores[model.FactorAvgPromotionRate])
	assert.Equal(t, 55.0, rec.FactorValues[model.FactorAvgPromotionRate])
	assert.Equal(t, 10, rec.TotalScore)
	assert.Equal(t, model.StageClimax, rec.StageRaw)
	assert.Equal(t, model.StageClimax, rec.Stage)
	assert.Equal(t, "red", rec.StageColor)
	assert.False(t, rec.UsedInertia)
	assert.False(t, rec.InsufficientData)

	// 距离分界 6 超过1分，昨日为加速期也不沿用
	rec = Classify(StageInput{TradeDate: snap.TradeDate, Snapshot: snap, Premium: premium, Promotion: promotion},
		func(string) (model.EmotionStage, bool, error) { return model.StageAccelerate, true, nil })
	assert.Equal(t, model.StageClimax, rec.Stage)
	assert.Equal(t, model.StageAccelerate, rec.PreviousStage)
	assert.False(t, rec.UsedInertia)
}

func TestClassifyInertiaKeepsYesterday(t *testing.T) {
	// 空间5板 +1，其余因子中性，总分1
	snap := &model.MarketSnapshot{
		TradeDate:      "2025-01-08",
		LimitUpCount:   50,
		LimitDownCount: 20,
		ExplosionRate:  30,
		Distribution:   model.BoardDistribution{1: 40, 5: 1},
	}
	rec := Classify(StageInput{TradeDate: snap.TradeDate, Snapshot: snap},
		func(date string) (model.EmotionStage, bool, error) {
			assert.Equal(t, "2025-01-08", date)
			return model.StageWarming, true, nil
		})

	assert.Equal(t, 1, rec.TotalScore)
	assert.Equal(t, model.StageAccelerate, rec.StageRaw)
	assert.Equal(t, model.StageWarming, rec.Stage)
	assert.True(t, rec.UsedInertia)
	_, ok := rec.FactorValues[model.FactorAvgPremium]
	assert.False(t, ok, "缺失因子不应出现在原始值中")
	assert.Equal(t, 0.0, rec.FactorScores[model.FactorAvgPremium])
}

func TestClassifyRetreat(t *testing.T) {
	snap := &model.MarketSnapshot{
		TradeDate:      "2025-01-09",
		LimitUpCount:   20,
		LimitDownCount: 40,
		ExplosionRate:  40,
		Distribution:   model.BoardDistribution{1: 15, 2: 3, 4: 1},
	}
	premium := &model.PremiumStats{
		AvgPremium:           model.Float(-2),
		BigLossRate:          model.Float(30),
		HighBoardBigLossRate: model.Float(60),
	}
	in := StageInput{
		TradeDate:     snap.TradeDate,
		Snapshot:      snap,
		Premium:       premium,
		Promotion:     PromotionResult{Average: model.Float(10)},
		HadRecentPeak: true,
	}

	rec := Classify(in, NoPreviousStage)
	assert.Equal(t, -9, rec.TotalScore)
	assert.True(t, rec.IsDeteriorating)
	assert.Equal(t, model.StageRetreat, rec.Stage)
	assert.Equal(t, "green", rec.StageColor)

	in.HadRecentPeak = false
	rec = Classify(in, NoPreviousStage)
	assert.Equal(t, model.StageIce, rec.Stage)
}

func TestIsDeterioratingRequiresHeight(t *testing.T) {
	c := NewStageClassifier(StageThresholdsV23)
	f := StageFactors{
		BoardHeight: model.Float(3),
		AvgPremium:  model.Float(-1),
		BigLossRate: model.Float(40),
	}
	assert.False(t, c.IsDeteriorating(f))
	f.BoardHeight = model.Float(4)
	assert.True(t, c.IsDeteriorating(f))
	f.BigLossRate = model.Float(25)
	assert.False(t, c.IsDeteriorating(f))
	f.BigLossRate = nil
	assert.False(t, c.IsDeteriorating(f))
}

func TestClassifyPreviousGetterError(t *testing.T) {
	snap := scenarioSnapshot()
	rec := Classify(StageInput{TradeDate: snap.TradeDate, Snapshot: snap},
		func(string) (model.EmotionStage, bool, error) { return "", false, errors.New("db down") })
	assert.Equal(t, model.EmotionStage(""), rec.PreviousStage)
	assert.False(t, rec.UsedInertia)
}

func TestProxyStage(t *testing.T) {
	c := NewStageClassifier(StageThresholdsV23)
	assert.Equal(t, model.StageClimax, c.ProxyStage(&model.MarketSnapshot{Distribution: model.BoardDistribution{7: 1}}))
	assert.Equal(t, model.StageAccelerate, c.ProxyStage(&model.MarketSnapshot{Distribution: model.BoardDistribution{5: 1}}))
	assert.Equal(t, model.EmotionStage(""), c.ProxyStage(&model.MarketSnapshot{Distribution: model.BoardDistribution{4: 2}}))
	assert.Equal(t, model.EmotionStage(""), c.ProxyStage(nil))
}
