package engine

import (
	"sort"

	"github.com/dewei/SentimentRadar/pkg/model"
)

// DayContext 单个交易日的涨停池、热门概念与概念成分
type DayContext struct {
	TradeDate   string
	LimitUps    []model.LimitStock
	HotConcepts []model.HotConcept
	// Members 概念 -> 成分股代码（6位），可以只包含热门概念
	Members map[string][]string

	memberSets map[string]map[string]struct{}
	byCode     map[string]*model.LimitStock
}

// NewDayContext 创建交易日上下文，只保留涨停股
func NewDayContext(tradeDate string, stocks []model.LimitStock, hot []model.HotConcept, members map[string][]string) *DayContext {
	d := &DayContext{
		TradeDate:   tradeDate,
		LimitUps:    make([]model.LimitStock, 0, len(stocks)),
		HotConcepts: hot,
		Members:     members,
		memberSets:  make(map[string]map[string]struct{}, len(members)),
		byCode:      make(map[string]*model.LimitStock, len(stocks)),
	}
	for _, s := range stocks {
		if s.LimitType == model.LimitUp || s.LimitType == "" {
			d.LimitUps = append(d.LimitUps, s)
		}
	}
	for i := range d.LimitUps {
		d.byCode[model.BareCode(d.LimitUps[i].StockCode)] = &d.LimitUps[i]
	}
	for concept, codes := range members {
		set := make(map[string]struct{}, len(codes))
		for _, c := range codes {
			set[model.BareCode(c)] = struct{}{}
		}
		d.memberSets[concept] = set
	}
	return d
}

// Stock 按代码查找当日涨停股
func (d *DayContext) Stock(code string) *model.LimitStock {
	return d.byCode[model.BareCode(code)]
}

// MaxContinuousDays 当日最高连板数
func (d *DayContext) MaxContinuousDays() int {
	max := 0
	for _, s := range d.LimitUps {
		if s.ContinuousDays > max {
			max = s.ContinuousDays
		}
	}
	return max
}

// TopConcepts 排名前 n 的热门概念，按排名升序
func (d *DayContext) TopConcepts(n int) []model.HotConcept {
	top := make([]model.HotConcept, 0, n)
	for _, hc := range d.HotConcepts {
		if hc.Rank >= 1 && hc.Rank <= n {
			top = append(top, hc)
		}
	}
	sort.SliceStable(top, func(i, j int) bool { return top[i].Rank < top[j].Rank })
	return top
}

// IsMember 股票是否属于概念：成分表优先，涨停池自带的概念作为补充
func (d *DayContext) IsMember(concept string, stock *model.LimitStock) bool {
	if set, ok := d.memberSets[concept]; ok {
		if _, hit := set[model.BareCode(stock.StockCode)]; hit {
			return true
		}
	}
	return stock.HasConcept(concept)
}

// ConceptLimitUps 概念在当日涨停的成分股
func (d *DayContext) ConceptLimitUps(concept string) []model.LimitStock {
	var out []model.LimitStock
	for i := range d.LimitUps {
		if d.IsMember(concept, &d.LimitUps[i]) {
			out = append(out, d.LimitUps[i])
		}
	}
	return out
}

// ConceptsOf 股票所属概念：热门概念中命中的在前，其余按涨停池顺序
func (d *DayContext) ConceptsOf(stock *model.LimitStock) []string {
	seen := make(map[string]bool)
	var out []string
	for _, hc := range d.HotConcepts {
		if d.IsMember(hc.ConceptName, stock) && !seen[hc.ConceptName] {
			seen[hc.ConceptName] = true
			out = append(out, hc.ConceptName)
		}
	}
	for _, c := range stock.Concepts {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}
