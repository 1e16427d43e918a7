package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dewei/SentimentRadar/pkg/model"
)

func limitUp(code, name string, days int, concepts ...string) model.LimitStock {
	return model.LimitStock{
		StockCode:      code,
		StockName:      name,
		TradeDate:      "2025-01-10",
		LimitType:      model.LimitUp,
		ContinuousDays: days,
		Concepts:       concepts,
	}
}

func hot(name string, rank, limitUps int) model.HotConcept {
	return model.HotConcept{ConceptName: name, TradeDate: "2025-01-10", Rank: rank, LimitUpCount: limitUps}
}

func TestAnalyzeLadderCompleteConcept(t *testing.T) {
	stocks := []model.LimitStock{
		limitUp("600001", "甲", 1, "机器人"),
		limitUp("600002", "乙", 1, "机器人"),
		limitUp("600003", "丙", 2, "机器人"),
		limitUp("600004", "丁", 4, "机器人"),
		limitUp("600005", "戊", 1, "低空经济"),
	}
	day := NewDayContext("2025-01-10", stocks, []model.HotConcept{hot("机器人", 1, 4), hot("低空经济", 2, 1)}, nil)

	res := DefaultLadderAnalyzer().Analyze(day)

	assert.True(t, res.Available)
	require.Len(t, res.Concepts, 1)
	item := res.Concepts[0]
	assert.Equal(t, "机器人", item.ConceptName)
	assert.Equal(t, model.LadderComplete, item.LadderStatus)
	assert.Equal(t, 4, item.TotalLimitUpCount)
	assert.Equal(t, 4, item.MaxContinuousDays)
	assert.False(t, item.IsMainLine)
	require.Len(t, item.Ladder, 3)
	assert.Equal(t, model.LadderTier{Days: 4, Count: 1, Stocks: []string{"丁"}}, item.Ladder[0])
	assert.Equal(t, 2, item.Ladder[2].Count)
	require.NotNil(t, item.Leader)
	assert.Equal(t, "600004", item.Leader.StockCode)
}

func TestAnalyzeLadderExcludesTwoTiers(t *testing.T) {
	stocks := []model.LimitStock{
		limitUp("600001", "甲", 1),
		limitUp("600002", "乙", 4),
		limitUp("600003", "丙", 4),
	}
	members := map[string][]string{"算力": {"600001", "600002", "600003"}}
	day := NewDayContext("2025-01-10", stocks, []model.HotConcept{hot("算力", 1, 3)}, members)

	res := DefaultLadderAnalyzer().Analyze(day)

	assert.True(t, res.Available)
	assert.Empty(t, res.Concepts)
}

func TestAnalyzeLadderRequiresTopRankAndHighBoard(t *testing.T) {
	stocks := []model.LimitStock{
		limitUp("600001", "甲", 1, "A", "B"),
		limitUp("600002", "乙", 2, "A", "B"),
		limitUp("600003", "丙", 5, "A"),
		limitUp("600004", "丁", 3, "B"),
	}
	day := NewDayContext("2025-01-10", stocks, []model.HotConcept{hot("A", 11, 3), hot("B", 2, 3)}, nil)

	res := DefaultLadderAnalyzer().Analyze(day)

	// A 不在前十，B 没有4板及以上成分股
	assert.True(t, res.Available)
	assert.Empty(t, res.Concepts)
}

func TestAnalyzeLadderUnavailableBelowFourBoards(t *testing.T) {
	stocks := []model.LimitStock{
		limitUp("600001", "甲", 1, "A"),
		limitUp("600002", "乙", 2, "A"),
		limitUp("600003", "丙", 3, "A"),
	}
	day := NewDayContext("2025-01-10", stocks, []model.HotConcept{hot("A", 1, 3)}, nil)

	res := DefaultLadderAnalyzer().Analyze(day)
	assert.False(t, res.Available)
	assert.NotNil(t, res.Concepts)
	assert.Empty(t, res.Concepts)
}

func TestAnalyzeLadderOrdering(t *testing.T) {
	stocks := []model.LimitStock{
		limitUp("600001", "甲", 1, "A", "B"),
		limitUp("600002", "乙", 2, "A", "B"),
		limitUp("600003", "丙", 4, "A"),
		limitUp("600004", "丁", 5, "B"),
		limitUp("600005", "戊", 1, "A"),
	}
	day := NewDayContext("2025-01-10", stocks, []model.HotConcept{hot("A", 1, 4), hot("B", 2, 3)}, nil)

	res := DefaultLadderAnalyzer().Analyze(day)

	require.Len(t, res.Concepts, 2)
	assert.Equal(t, "B", res.Concepts[0].ConceptName)
	assert.Equal(t, "A", res.Concepts[1].ConceptName)
}

func TestLadderStatusOf(t *testing.T) {
	assert.Equal(t, model.LadderAlone, LadderStatusOf([]model.LimitStock{limitUp("1", "a", 3)}))
	assert.Equal(t, model.LadderAlone, LadderStatusOf(nil))
	assert.Equal(t, model.LadderNormal, LadderStatusOf([]model.LimitStock{limitUp("1", "a", 1), limitUp("2", "b", 1)}))
	assert.Equal(t, model.LadderNormal, LadderStatusOf([]model.LimitStock{limitUp("1", "a", 1), limitUp("2", "b", 2)}))
	assert.Equal(t, model.LadderComplete, LadderStatusOf([]model.LimitStock{
		limitUp("1", "a", 1), limitUp("2", "b", 2), limitUp("3", "c", 3),
	}))
}

func TestSelectLeaderTieBreak(t *testing.T) {
	withTime := func(s model.LimitStock, change float64, clock string) model.LimitStock {
		s.ChangePct = change
		if clock != "" {
			s.FirstLimitTime = model.String(clock)
		}
		return s
	}

	// 连板数优先
	leader := SelectLeader([]model.LimitStock{
		withTime(limitUp("300001", "创", 3), 20, "09:30:00"),
		withTime(limitUp("600001", "主", 4), 10, "14:00:00"),
	})
	assert.Equal(t, "600001", leader.StockCode)

	// 同板数时创业板/科创板优先
	leader = SelectLeader([]model.LimitStock{
		withTime(limitUp("600001", "主", 4), 10, "09:30:00"),
		withTime(limitUp("688001", "科", 4), 10, "10:00:00"),
	})
	assert.Equal(t, "688001", leader.StockCode)

	// 再比涨幅
	leader = SelectLeader([]model.LimitStock{
		withTime(limitUp("600001", "主一", 4), 10, "09:30:00"),
		withTime(limitUp("000001", "主二", 4), 10.02, "10:00:00"),
	})
	assert.Equal(t, "000001", leader.StockCode)

	// 最后比首封时间，兼容紧凑格式
	leader = SelectLeader([]model.LimitStock{
		withTime(limitUp("600001", "晚", 4), 10, "10:00:00"),
		withTime(limitUp("600002", "早", 4), 10, "94539"),
		withTime(limitUp("600003", "无", 4), 10, ""),
	})
	assert.Equal(t, "600002", leader.StockCode)

	assert.Nil(t, SelectLeader(nil))
}

func TestIsMainLine(t *testing.T) {
	a := DefaultLadderAnalyzer()
	assert.True(t, a.IsMainLine(hot("A", 3, 8)))
	assert.False(t, a.IsMainLine(hot("A", 3, 7)))
	assert.False(t, a.IsMainLine(hot("A", 11, 20)))
}

func TestRankHotConcepts(t *testing.T) {
	stocks := []model.LimitStock{
		limitUp("600001", "甲", 1, "A"),
		limitUp("600002", "乙", 3, "B"),
		limitUp("600003", "丙", 1, "B"),
	}
	day := NewDayContext("2025-01-10", stocks, nil, map[string][]string{"A": {"600001.SH"}})
	concepts := []model.HotConcept{
		{ConceptName: "A", DayChangePct: 2.1},
		{ConceptName: "B", DayChangePct: 4.5},
		{ConceptName: "C", DayChangePct: 3.0},
	}

	ranked := DefaultLadderAnalyzer().RankHotConcepts(day, concepts)

	require.Len(t, ranked, 3)
	assert.Equal(t, "B", ranked[0].ConceptName)
	assert.Equal(t, 1, ranked[0].Rank)
	assert.Equal(t, 2, ranked[0].LimitUpCount)
	assert.Equal(t, "600002", ranked[0].LeaderStockCode)
	assert.Equal(t, 3, ranked[0].LeaderContinuousDays)
	assert.Equal(t, "C", ranked[1].ConceptName)
	assert.Equal(t, 0, ranked[1].LimitUpCount)
	assert.Empty(t, ranked[1].LeaderStockCode)
	assert.Equal(t, "A", ranked[2].ConceptName)
	assert.Equal(t, 1, ranked[2].LimitUpCount)
	assert.Equal(t, "2025-01-10", ranked[2].TradeDate)
	// 原切片不被修改
	assert.Equal(t, 0, concepts[0].Rank)
}
