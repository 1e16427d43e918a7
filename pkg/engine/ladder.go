package engine

import (
	"sort"

	"github.com/dewei/SentimentRadar/pkg/model"
)

// LadderAnalyzer 概念梯队分析
type LadderAnalyzer struct {
	TopN        int // 热门概念前 N 名
	MainLineMin int // 主线板块的最少涨停数
}

// NewLadderAnalyzer 创建梯队分析器
func NewLadderAnalyzer(topN, mainLineMin int) *LadderAnalyzer {
	return &LadderAnalyzer{TopN: topN, MainLineMin: mainLineMin}
}

// DefaultLadderAnalyzer 前10热门概念、8只涨停即为主线
func DefaultLadderAnalyzer() *LadderAnalyzer {
	return NewLadderAnalyzer(PremiumThresholdsV20.TopConcepts, PremiumThresholdsV20.MainLineMinLimitUp)
}

// IsMainLine 主线板块：排名前 N 且涨停数达标，与梯队形态无关
func (a *LadderAnalyzer) IsMainLine(hc model.HotConcept) bool {
	return hc.Rank >= 1 && hc.Rank <= a.TopN && hc.LimitUpCount >= a.MainLineMin
}

// BuildLadder 按连板数统计梯队，连板数从高到低
func BuildLadder(stocks []model.LimitStock) []model.LadderTier {
	byDays := make(map[int][]string)
	for _, s := range stocks {
		byDays[s.ContinuousDays] = append(byDays[s.ContinuousDays], s.StockName)
	}
	tiers := make([]model.LadderTier, 0, len(byDays))
	for days, names := range byDays {
		tiers = append(tiers, model.LadderTier{Days: days, Count: len(names), Stocks: names})
	}
	sort.Slice(tiers, func(i, j int) bool { return tiers[i].Days > tiers[j].Days })
	return tiers
}

// LadderStatusOf 梯队状态：>=3 个层级为完整，仅 1 只为独苗，其余一般
func LadderStatusOf(stocks []model.LimitStock) model.LadderStatus {
	tiers := make(map[int]struct{})
	for _, s := range stocks {
		tiers[s.ContinuousDays] = struct{}{}
	}
	switch {
	case len(tiers) >= LadderMinTiers:
		return model.LadderComplete
	case len(stocks) <= 1:
		return model.LadderAlone
	default:
		return model.LadderNormal
	}
}

// leaderLess 龙头排序：连板数 > 创业板/科创板 > 涨幅 > 首封时间早
func leaderLess(a, b *model.LimitStock) bool {
	if a.ContinuousDays != b.ContinuousDays {
		return a.ContinuousDays > b.ContinuousDays
	}
	if ga, gb := a.IsGrowthBoard(), b.IsGrowthBoard(); ga != gb {
		return ga
	}
	if a.ChangePct != b.ChangePct {
		return a.ChangePct > b.ChangePct
	}
	ta, okA := sealClock(a)
	tb, okB := sealClock(b)
	switch {
	case okA && okB:
		return ta < tb
	case okA != okB:
		return okA
	}
	return false
}

func sealClock(s *model.LimitStock) (string, bool) {
	if s.FirstLimitTime == nil {
		return "", false
	}
	return model.NormalizeClock(*s.FirstLimitTime)
}

// SelectLeader 选出概念龙头，stocks 为空时返回 nil
func SelectLeader(stocks []model.LimitStock) *model.LimitStock {
	if len(stocks) == 0 {
		return nil
	}
	best := &stocks[0]
	for i := 1; i < len(stocks); i++ {
		if leaderLess(&stocks[i], best) {
			best = &stocks[i]
		}
	}
	return best
}

// Analyze 概念梯队：前 N 热门概念中含4板及以上成分股、且至少3个连板层级的概念
func (a *LadderAnalyzer) Analyze(day *DayContext) model.ConceptLadder {
	result := model.ConceptLadder{
		TradeDate: day.TradeDate,
		Available: day.MaxContinuousDays() >= LadderHighBoard,
		Concepts:  make([]model.ConceptLadderItem, 0),
	}
	if !result.Available {
		return result
	}

	for _, hc := range day.TopConcepts(a.TopN) {
		members := day.ConceptLimitUps(hc.ConceptName)
		if len(members) == 0 {
			continue
		}
		ladder := BuildLadder(members)
		if ladder[0].Days < LadderHighBoard || len(ladder) < LadderMinTiers {
			continue
		}

		item := model.ConceptLadderItem{
			ConceptName:       hc.ConceptName,
			Rank:              hc.Rank,
			MaxContinuousDays: ladder[0].Days,
			TotalLimitUpCount: len(members),
			ConceptChangePct:  model.Float(hc.DayChangePct),
			LadderStatus:      LadderStatusOf(members),
			IsMainLine:        a.IsMainLine(model.HotConcept{Rank: hc.Rank, LimitUpCount: len(members)}),
			Ladder:            ladder,
		}
		if leader := SelectLeader(members); leader != nil {
			item.Leader = &model.ConceptLeader{
				StockCode:      leader.StockCode,
				StockName:      leader.StockName,
				ContinuousDays: leader.ContinuousDays,
				ChangePct:      leader.ChangePct,
			}
		}
		result.Concepts = append(result.Concepts, item)
	}

	sort.SliceStable(result.Concepts, func(i, j int) bool {
		ci, cj := result.Concepts[i], result.Concepts[j]
		if ci.MaxContinuousDays != cj.MaxContinuousDays {
			return ci.MaxContinuousDays > cj.MaxContinuousDays
		}
		return ci.TotalLimitUpCount > cj.TotalLimitUpCount
	})
	return result
}

// RankHotConcepts 按当日涨幅重新排名，并补充涨停数、主线标记和龙头
func (a *LadderAnalyzer) RankHotConcepts(day *DayContext, concepts []model.HotConcept) []model.HotConcept {
	ranked := make([]model.HotConcept, len(concepts))
	copy(ranked, concepts)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].DayChangePct > ranked[j].DayChangePct })

	for i := range ranked {
		hc := &ranked[i]
		hc.TradeDate = day.TradeDate
		hc.Rank = i + 1
		members := day.ConceptLimitUps(hc.ConceptName)
		hc.LimitUpCount = len(members)
		hc.IsMainLine = a.IsMainLine(*hc)
		hc.LeaderStockCode, hc.LeaderStockName = "", ""
		hc.LeaderContinuousDays, hc.LeaderChangePct = 0, 0
		if leader := SelectLeader(members); leader != nil {
			hc.LeaderStockCode = leader.StockCode
			hc.LeaderStockName = leader.StockName
			hc.LeaderContinuousDays = leader.ContinuousDays
			hc.LeaderChangePct = leader.ChangePct
		}
	}
	return ranked
}
