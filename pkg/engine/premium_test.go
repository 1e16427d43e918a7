package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dewei/SentimentRadar/pkg/model"
)

func newScorer() *PremiumScorer {
	return NewPremiumScorer(PremiumThresholdsV20)
}

func TestTechnicalTopBands(t *testing.T) {
	stock := limitUp("600001", "开盘封", 1)
	stock.FirstLimitTime = model.String("09:30:00")
	stock.TurnoverRate = model.Float(17)

	d := newScorer().Technical(&stock)

	require.NotNil(t, d.SealMinutes)
	assert.Equal(t, 0, *d.SealMinutes)
	assert.Equal(t, 2.0, d.TimeScore)
	assert.Equal(t, 2.0, d.TurnoverScore)
	assert.Equal(t, 2.0, d.FinalScore)
}

func TestTechnicalOpeningPenaltyAndBands(t *testing.T) {
	s := newScorer()
	cases := []struct {
		clock    string
		opening  int
		turnover float64
		time     float64
		final    float64
	}{
		{"10:00:00", 0, 12, 1.5, 1.25},
		{"10:30:00", 2, 12, 0, 0.5},
		{"11:30:00", 1, 22, 0.5, 0.75},
		{"14:00:00", 0, 3, 0, -0.5},
		{"14:55:00", 2, 3, -2, -1.5},
		{"093500", 0, 30, 1.5, 1.25},
	}
	for _, c := range cases {
		stock := limitUp("600001", "x", 1)
		stock.FirstLimitTime = model.String(c.clock)
		stock.OpeningTimes = c.opening
		stock.TurnoverRate = model.Float(c.turnover)

		d := s.Technical(&stock)
		assert.Equal(t, c.time, d.TimeScore, c.clock)
		assert.Equal(t, c.final, d.FinalScore, c.clock)
	}
}

func TestTechnicalOneWordFloor(t *testing.T) {
	stock := limitUp("600001", "一字", 3)
	stock.FirstLimitTime = model.String("09:25:00")
	stock.IsStrongLimit = true
	stock.TurnoverRate = model.Float(1.2)

	d := newScorer().Technical(&stock)

	assert.True(t, d.IsOneWord)
	assert.Equal(t, 1.0, d.FinalScore)
}

func TestTechnicalMissingInputs(t *testing.T) {
	stock := limitUp("600001", "缺数据", 1)
	d := newScorer().Technical(&stock)

	assert.Nil(t, d.SealMinutes)
	assert.Equal(t, 0.0, d.TimeScore)
	assert.Equal(t, 0.0, d.TurnoverScore)
	assert.Equal(t, 0.0, d.FinalScore)
}

func TestCapital(t *testing.T) {
	s := newScorer()

	stock := limitUp("600001", "x", 1)
	stock.SealedAmount = model.Float(1e8)
	stock.Amount = model.Float(5e8)
	stock.MainNetInflowPct = model.Float(12)
	d := s.Capital(&stock)
	assert.Equal(t, 0.2, *d.SealedRatio)
	assert.Equal(t, 2.0, d.SealedScore)
	assert.Equal(t, 2.0, d.InflowScore)
	assert.Equal(t, 2.0, d.FinalScore)

	stock.SealedAmount = model.Float(1e6)
	stock.MainNetInflowPct = model.Float(-10)
	d = s.Capital(&stock)
	assert.Equal(t, -2.0, d.SealedScore)
	assert.Equal(t, -2.0, d.InflowScore)
	assert.Equal(t, -2.0, d.FinalScore)

	empty := limitUp("600002", "y", 1)
	d = s.Capital(&empty)
	assert.Nil(t, d.SealedRatio)
	assert.Equal(t, 0.0, d.FinalScore)
}

func TestPositionAndMarket(t *testing.T) {
	s := newScorer()
	assert.Equal(t, 2.0, s.Position(1).FinalScore)
	assert.Equal(t, "极低", s.Position(1).RiskLevel)
	assert.Equal(t, 1.0, s.Position(2).FinalScore)
	assert.Equal(t, 0.0, s.Position(3).FinalScore)
	assert.Equal(t, -1.0, s.Position(5).FinalScore)
	assert.Equal(t, -2.0, s.Position(7).FinalScore)
	assert.Equal(t, "极高", s.Position(9).RiskLevel)

	assert.Equal(t, -0.5, s.Market(model.StageWarming).FinalScore)
	assert.Equal(t, -1.0, s.Market(model.StageRetreat).FinalScore)
	assert.Equal(t, 1.0, s.Market(model.StageClimax).FinalScore)
	assert.Equal(t, 0.0, s.Market("").FinalScore)
}

func TestLevels(t *testing.T) {
	s := newScorer()
	assert.Equal(t, model.PremiumExtreme, s.Level(8))
	assert.Equal(t, model.PremiumHigh, s.Level(7.99))
	assert.Equal(t, model.PremiumElevated, s.Level(6))
	assert.Equal(t, model.PremiumNeutral, s.Level(5))
	assert.Equal(t, model.PremiumLow, s.Level(4))
	assert.Equal(t, model.PremiumBottom, s.Level(3.99))
	assert.Equal(t, "purple", s.Level(0).Color())
}

func TestResolveTheme(t *testing.T) {
	stocks := []model.LimitStock{
		limitUp("600001", "甲", 1, "A"),
		limitUp("600002", "乙", 2, "A"),
		limitUp("600003", "丙", 4, "A", "B"),
	}
	members := map[string][]string{"A": {"600004", "600005", "600006", "600007", "600008"}}
	hotConcepts := []model.HotConcept{hot("B", 1, 2), hot("A", 2, 9)}
	day := NewDayContext("2025-01-10", stocks, hotConcepts, members)
	s := newScorer()

	theme := s.ResolveTheme(&stocks[2], day)
	assert.Equal(t, "A", theme.MainConcept)
	assert.True(t, theme.IsInTop10)
	assert.True(t, theme.IsMainLine)
	assert.Equal(t, model.LadderComplete, theme.LadderStatus)
	assert.Equal(t, 2.0, s.Theme(theme).FinalScore)

	outsider := limitUp("600009", "外", 1, "C")
	theme = s.ResolveTheme(&outsider, day)
	assert.False(t, theme.IsInTop10)
	assert.Equal(t, model.LadderAlone, theme.LadderStatus)
	assert.Equal(t, -1.0, s.Theme(theme).FinalScore)
}

func TestScoreNilForMissingStock(t *testing.T) {
	s := newScorer()
	assert.Nil(t, s.Score(PremiumInput{}))

	down := limitUp("600001", "跌停", 1)
	down.LimitType = model.LimitDown
	assert.Nil(t, s.Score(PremiumInput{Stock: &down}))
}

func strongStock(days int) model.LimitStock {
	s := limitUp("300001", "强", days)
	s.FirstLimitTime = model.String("09:30:00")
	s.TurnoverRate = model.Float(17)
	s.SealedAmount = model.Float(2e8)
	s.Amount = model.Float(1e9)
	s.MainNetInflowPct = model.Float(15)
	return s
}

func TestScoreRescaleAndLevel(t *testing.T) {
	stock := strongStock(1)
	score := newScorer().Score(PremiumInput{
		Stock:             &stock,
		Stage:             model.StageClimax,
		Theme:             ThemeContext{IsInTop10: true, IsMainLine: true, LadderStatus: model.LadderComplete},
		MaxContinuousDays: 6,
	})
	require.NotNil(t, score)

	// 2 + 2 + 2 + 2 + 1 = 9，满分
	assert.Equal(t, 9.0, score.RawTotal)
	assert.Equal(t, 10.0, score.TotalScore)
	assert.Equal(t, 10.0, score.TechnicalScore)
	assert.Equal(t, 10.0, score.MarketScore)
	assert.Equal(t, model.PremiumExtreme, score.PremiumLevel)
	assert.Equal(t, "red", score.PremiumLevelColor)
	assert.False(t, score.LeaderBonus)

	weak := limitUp("600002", "弱", 8)
	weak.FirstLimitTime = model.String("14:56:00")
	weak.OpeningTimes = 3
	weak.TurnoverRate = model.Float(2)
	weak.SealedAmount = model.Float(1)
	weak.Amount = model.Float(1e9)
	weak.MainNetInflowPct = model.Float(-20)
	score = newScorer().Score(PremiumInput{Stock: &weak, Stage: model.StageIce, MaxContinuousDays: 10})
	require.NotNil(t, score)
	// 技术(-2-1)/2=-1.5，资金-2，题材-1，位置-2，市场-1
	assert.Equal(t, -7.5, score.RawTotal)
	assert.Equal(t, Round2(1.5/18*10), score.TotalScore)
	assert.Equal(t, model.PremiumBottom, score.PremiumLevel)
}

func TestLeaderBonus(t *testing.T) {
	s := newScorer()
	theme := ThemeContext{IsInTop10: true, LadderStatus: model.LadderNormal}

	stock := strongStock(6)
	base := s.Score(PremiumInput{Stock: &stock, Stage: model.StageAccelerate, Theme: theme, MaxContinuousDays: 7})
	bonus := s.Score(PremiumInput{Stock: &stock, Stage: model.StageAccelerate, Theme: theme, MaxContinuousDays: 6})
	require.NotNil(t, base)
	require.NotNil(t, bonus)

	assert.False(t, base.LeaderBonus)
	assert.True(t, bonus.LeaderBonus)
	assert.InDelta(t, base.TotalScore+1, bonus.TotalScore, 0.011)
	assert.LessOrEqual(t, bonus.TotalScore, 10.0)

	// 4板即使是最高板也不加分
	four := strongStock(4)
	res := s.Score(PremiumInput{Stock: &four, Stage: model.StageAccelerate, Theme: theme, MaxContinuousDays: 4})
	assert.False(t, res.LeaderBonus)
}

func TestLeaderBonusCappedAtTen(t *testing.T) {
	s := newScorer()
	for days := 5; days <= 12; days++ {
		stock := strongStock(days)
		res := s.Score(PremiumInput{
			Stock:             &stock,
			Stage:             model.StageClimax,
			Theme:             ThemeContext{IsInTop10: true, IsMainLine: true, LadderStatus: model.LadderComplete},
			MaxContinuousDays: days,
		})
		require.NotNil(t, res)
		assert.True(t, res.LeaderBonus)
		assert.LessOrEqual(t, res.TotalScore, 10.0)
	}
}

func TestScoreDaySorted(t *testing.T) {
	a := strongStock(1)
	b := limitUp("600009", "普通", 2)
	day := NewDayContext("2025-01-10", []model.LimitStock{b, a}, nil, nil)

	scores := newScorer().ScoreDay(day, model.StageWarming)

	require.Len(t, scores, 2)
	assert.Equal(t, "300001", scores[0].StockCode)
	assert.GreaterOrEqual(t, scores[0].TotalScore, scores[1].TotalScore)
}
