package engine

import (
	"fmt"
	"sort"

	"github.com/dewei/SentimentRadar/pkg/model"
)

const (
	leaderMinDays    = 4 // 4板及以上才做龙头分析
	leaderLadderShow = 3 // 每个层级最多展示的股票数
	followerComplete = 3
)

// technicalLevels 技术面评级：首封时间、开板次数、换手率
func technicalLevels(s *model.LimitStock) (first, opening, turnover model.TechnicalLevel) {
	first = model.LevelWeak
	if clock, ok := sealClock(s); ok {
		switch {
		case clock < "10:00:00":
			first = model.LevelStrong
		case clock < "13:30:00":
			first = model.LevelNormal
		}
	}

	switch {
	case s.OpeningTimes == 0:
		opening = model.LevelStrong
	case s.OpeningTimes == 1:
		opening = model.LevelNormal
	default:
		opening = model.LevelWeak
	}

	turnover = model.LevelWeak
	if s.TurnoverRate != nil && *s.TurnoverRate > 0 {
		switch {
		case *s.TurnoverRate < 20:
			turnover = model.LevelStrong
		case *s.TurnoverRate < 35:
			turnover = model.LevelNormal
		}
	}
	return first, opening, turnover
}

// capitalLevels 资金面评级：主力净流入、封单比(%)
func capitalLevels(s *model.LimitStock) (inflow model.TechnicalLevel, sealedPct float64, sealed model.TechnicalLevel) {
	in := deref(s.MainNetInflow)
	switch {
	case in > 0 && deref(s.MainNetInflowPct) > 10:
		inflow = model.LevelStrong
	case in > 0:
		inflow = model.LevelNormal
	default:
		inflow = model.LevelWeak
	}

	if s.Amount != nil && *s.Amount > 0 {
		sealedPct = Round1(deref(s.SealedAmount) / *s.Amount * 100)
	}
	switch {
	case sealedPct > 50:
		sealed = model.LevelStrong
	case sealedPct > 20:
		sealed = model.LevelNormal
	default:
		sealed = model.LevelWeak
	}
	return inflow, sealedPct, sealed
}

// stockLadder 个股主概念中的跟风梯队（不含自身）
func stockLadder(day *DayContext, s *model.LimitStock, mainConcept string) (model.LadderStatus, int, []model.LadderTier) {
	if mainConcept == "" {
		return model.LadderAlone, 0, []model.LadderTier{}
	}
	var followers []model.LimitStock
	for _, m := range day.ConceptLimitUps(mainConcept) {
		if model.BareCode(m.StockCode) != model.BareCode(s.StockCode) {
			followers = append(followers, m)
		}
	}
	tiers := BuildLadder(followers)
	for i := range tiers {
		if len(tiers[i].Stocks) > leaderLadderShow {
			tiers[i].Stocks = tiers[i].Stocks[:leaderLadderShow]
		}
	}

	status := model.LadderAlone
	switch {
	case len(followers) >= followerComplete:
		status = model.LadderComplete
	case len(followers) >= 1:
		status = model.LadderNormal
	}
	return status, len(followers), tiers
}

// evaluateLeader 正负面因素对比给出结论
func evaluateLeader(a *model.LeaderAnalysis, s *model.LimitStock) {
	pos := make([]string, 0)
	neg := make([]string, 0)

	switch a.FirstLimitTimeLevel {
	case model.LevelStrong:
		pos = append(pos, "早盘封板，强势")
	case model.LevelWeak:
		neg = append(neg, "尾盘封板，弱势")
	}
	switch a.OpeningTimesLevel {
	case model.LevelStrong:
		pos = append(pos, "未开板，封单稳固")
	case model.LevelWeak:
		neg = append(neg, fmt.Sprintf("开板%d次，烂板", a.OpeningTimes))
	}
	if a.TurnoverRateLevel == model.LevelWeak {
		neg = append(neg, fmt.Sprintf("换手率%.1f%%，获利盘多", deref(a.TurnoverRate)))
	}

	switch a.InflowLevel {
	case model.LevelStrong:
		pos = append(pos, fmt.Sprintf("主力净流入%.1f亿", deref(s.MainNetInflow)/1e8))
	case model.LevelWeak:
		neg = append(neg, "主力资金流出")
	}
	switch a.SealedRatioLevel {
	case model.LevelStrong:
		pos = append(pos, fmt.Sprintf("封单强，封单比%.0f%%", deref(a.SealedRatio)))
	case model.LevelWeak:
		neg = append(neg, "封单弱，易炸板")
	}

	switch a.LadderStatus {
	case model.LadderComplete:
		pos = append(pos, "板块梯队完整，有跟风")
	case model.LadderAlone:
		neg = append(neg, "独苗，无跟风")
	}
	if a.ContinuousDays >= 5 {
		neg = append(neg, fmt.Sprintf("%d连板高位，溢价空间有限", a.ContinuousDays))
	}

	a.PositiveFactors, a.NegativeFactors = pos, neg
	switch {
	case len(pos) > len(neg):
		a.Conclusion, a.ConclusionText = model.ConclusionOpportunity, "机会 > 风险"
	case len(pos) < len(neg):
		a.Conclusion, a.ConclusionText = model.ConclusionRisk, "风险 > 机会"
	default:
		a.Conclusion, a.ConclusionText = model.ConclusionNeutral, "机会与风险并存"
	}
}

// AnalyzeLeaders 4板及以上龙头股的技术面、资金面、梯队与综合评估，按连板数降序
func AnalyzeLeaders(day *DayContext) []model.LeaderAnalysis {
	var leaders []*model.LimitStock
	for i := range day.LimitUps {
		if day.LimitUps[i].ContinuousDays >= leaderMinDays {
			leaders = append(leaders, &day.LimitUps[i])
		}
	}
	sort.SliceStable(leaders, func(i, j int) bool { return leaderLess(leaders[i], leaders[j]) })

	out := make([]model.LeaderAnalysis, 0, len(leaders))
	if len(leaders) == 0 {
		return out
	}
	maxDays := leaders[0].ContinuousDays

	for _, s := range leaders {
		concepts := day.ConceptsOf(s)
		a := model.LeaderAnalysis{
			StockCode:        s.StockCode,
			StockName:        s.StockName,
			ContinuousDays:   s.ContinuousDays,
			IsTop:            s.ContinuousDays == maxDays,
			Concepts:         concepts,
			Industry:         s.Industry,
			FirstLimitTime:   s.FirstLimitTime,
			OpeningTimes:     s.OpeningTimes,
			TurnoverRate:     s.TurnoverRate,
			MainNetInflowPct: s.MainNetInflowPct,
		}
		if a.Concepts == nil {
			a.Concepts = []string{}
		}
		a.FirstLimitTimeLevel, a.OpeningTimesLevel, a.TurnoverRateLevel = technicalLevels(s)

		var sealedPct float64
		a.InflowLevel, sealedPct, a.SealedRatioLevel = capitalLevels(s)
		a.SealedRatio = &sealedPct

		if len(concepts) > 0 {
			a.MainConcept = concepts[0]
		}
		a.LadderStatus, a.FollowerCount, a.LadderDetail = stockLadder(day, s, a.MainConcept)

		evaluateLeader(&a, s)
		out = append(out, a)
	}
	return out
}
