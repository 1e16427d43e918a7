package export

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/dewei/SentimentRadar/pkg/model"
)

// ContentType xlsx 的 MIME 类型
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const defaultSheet = "Sheet1"

var ladderHeaders = []string{"排名", "概念", "概念涨幅", "涨停数", "最高板", "梯队状态", "主线", "龙头", "龙头连板"}

var premiumHeaders = []string{
	"代码", "名称", "连板", "总分", "溢价等级", "龙头加分",
	"技术面", "资金面", "题材", "位置", "市场环境", "首封时间", "炸板次数", "封成比",
}

var backtestHeaders = []string{
	"交易日", "代码", "名称", "连板", "总分", "溢价等级",
	"次日", "次日涨幅", "次日收盘", "次日涨停", "次日跌停", "预测结果", "盈利",
}

var statsHeaders = []string{"分组", "样本数", "次日平均涨幅", "涨停数", "涨停率", "盈利数", "盈利率", "预测正确", "准确率"}

// LadderFilename 概念梯队导出文件名
func LadderFilename(from, to string) string {
	if from == to || to == "" {
		return fmt.Sprintf("concept_ladder_%s.xlsx", model.ToCompactDate(from))
	}
	return fmt.Sprintf("concept_ladder_%s_%s.xlsx", model.ToCompactDate(from), model.ToCompactDate(to))
}

// BacktestFilename 回测导出文件名
func BacktestFilename(from, to string) string {
	if from == "" && to == "" {
		return "premium_backtest.xlsx"
	}
	return fmt.Sprintf("premium_backtest_%s_%s.xlsx", model.ToCompactDate(from), model.ToCompactDate(to))
}

type sheetWriter struct {
	f      *excelize.File
	header int
	used   bool
}

func newSheetWriter() (*sheetWriter, error) {
	f := excelize.NewFile()
	style, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"DDEBF7"}},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &sheetWriter{f: f, header: style}, nil
}

// sheet 第一次调用时重命名默认工作表
func (w *sheetWriter) sheet(name string) error {
	if !w.used {
		w.used = true
		return w.f.SetSheetName(defaultSheet, name)
	}
	_, err := w.f.NewSheet(name)
	return err
}

func (w *sheetWriter) row(sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return w.f.SetSheetRow(sheet, cell, &values)
}

func (w *sheetWriter) headerRow(sheet string, headers []string) error {
	values := make([]interface{}, len(headers))
	for i, h := range headers {
		values[i] = h
	}
	if err := w.row(sheet, 1, values); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return err
	}
	if err := w.f.SetCellStyle(sheet, "A1", last, w.header); err != nil {
		return err
	}
	lastCol, _ := excelize.ColumnNumberToName(len(headers))
	return w.f.SetColWidth(sheet, "A", lastCol, 12)
}

func (w *sheetWriter) done() (*excelize.File, error) {
	w.f.SetActiveSheet(0)
	return w.f, nil
}

func optional(v *float64) interface{} {
	if v == nil {
		return ""
	}
	return *v
}

func optionalStr(v *string) interface{} {
	if v == nil {
		return ""
	}
	return *v
}

func yesNo(b bool) string {
	if b {
		return "是"
	}
	return "否"
}

// ladderTierDays 所有概念出现过的连板高度，从高到低
func ladderTierDays(ladder *model.ConceptLadder) []int {
	seen := make(map[int]bool)
	var days []int
	for _, c := range ladder.Concepts {
		for _, t := range c.Ladder {
			if !seen[t.Days] {
				seen[t.Days] = true
				days = append(days, t.Days)
			}
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(days)))
	return days
}

// LadderWorkbook 每个交易日一个工作表，每个概念一行，梯队按连板高度分列
func LadderWorkbook(ladders []*model.ConceptLadder) (*excelize.File, error) {
	w, err := newSheetWriter()
	if err != nil {
		return nil, err
	}

	for _, ladder := range ladders {
		if ladder == nil {
			continue
		}
		sheet := ladder.TradeDate
		if err := w.sheet(sheet); err != nil {
			return nil, fmt.Errorf("创建工作表 %s 失败: %w", sheet, err)
		}

		tiers := ladderTierDays(ladder)
		headers := append([]string{}, ladderHeaders...)
		for _, d := range tiers {
			headers = append(headers, fmt.Sprintf("%d板", d))
		}
		if err := w.headerRow(sheet, headers); err != nil {
			return nil, err
		}

		if !ladder.Available {
			if err := w.row(sheet, 2, []interface{}{"", "暂无梯队数据"}); err != nil {
				return nil, err
			}
			continue
		}

		for i, c := range ladder.Concepts {
			values := []interface{}{
				c.Rank, c.ConceptName, optional(c.ConceptChangePct), c.TotalLimitUpCount,
				c.MaxContinuousDays, string(c.LadderStatus), yesNo(c.IsMainLine), "", "",
			}
			if c.Leader != nil {
				values[7] = c.Leader.StockName
				values[8] = c.Leader.ContinuousDays
			}
			byDays := make(map[int][]string, len(c.Ladder))
			for _, t := range c.Ladder {
				byDays[t.Days] = t.Stocks
			}
			for _, d := range tiers {
				values = append(values, strings.Join(byDays[d], "、"))
			}
			if err := w.row(sheet, i+2, values); err != nil {
				return nil, err
			}
		}
	}
	return w.done()
}

// PremiumWorkbook 溢价评分表，按总分降序
func PremiumWorkbook(tradeDate string, scores []*model.PremiumScore) (*excelize.File, error) {
	w, err := newSheetWriter()
	if err != nil {
		return nil, err
	}
	sheet := "溢价评分"
	if tradeDate != "" {
		sheet = "溢价评分 " + tradeDate
	}
	if err := w.sheet(sheet); err != nil {
		return nil, err
	}
	if err := w.headerRow(sheet, premiumHeaders); err != nil {
		return nil, err
	}

	sorted := make([]*model.PremiumScore, 0, len(scores))
	for _, s := range scores {
		if s != nil {
			sorted = append(sorted, s)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].TotalScore > sorted[j].TotalScore })

	for i, s := range sorted {
		values := []interface{}{
			s.StockCode, s.StockName, s.ContinuousDays, s.TotalScore, string(s.PremiumLevel), yesNo(s.LeaderBonus),
			s.TechnicalScore, s.CapitalScore, s.ThemeScore, s.PositionScore, s.MarketScore,
			optionalStr(s.TechnicalDetail.FirstLimitTime), s.TechnicalDetail.OpeningTimes, optional(s.CapitalDetail.SealedRatio),
		}
		if err := w.row(sheet, i+2, values); err != nil {
			return nil, err
		}
	}
	return w.done()
}

// BacktestWorkbook 回测明细表和统计表
func BacktestWorkbook(records []model.BacktestRecord, stats *model.BacktestStats) (*excelize.File, error) {
	w, err := newSheetWriter()
	if err != nil {
		return nil, err
	}

	const detail = "回测明细"
	if err := w.sheet(detail); err != nil {
		return nil, err
	}
	if err := w.headerRow(detail, backtestHeaders); err != nil {
		return nil, err
	}
	for i, r := range records {
		values := []interface{}{
			r.TradeDate, r.StockCode, r.StockName, r.ContinuousDays, r.TotalScore, string(r.PremiumLevel),
			r.NextTradeDate, optional(r.NextDayChangePct), optional(r.NextDayClosePrice),
			yesNo(r.IsNextDayLimitUp), yesNo(r.IsNextDayLimitDown), string(r.PredictionResult), yesNo(r.IsProfitable),
		}
		if err := w.row(detail, i+2, values); err != nil {
			return nil, err
		}
	}

	if stats == nil {
		return w.done()
	}

	const summary = "统计"
	if err := w.sheet(summary); err != nil {
		return nil, err
	}
	if err := w.headerRow(summary, statsHeaders); err != nil {
		return nil, err
	}
	row := 2
	writeGroup := func(name string, g model.BacktestGroupStats) error {
		err := w.row(summary, row, []interface{}{
			name, g.Count, g.AvgNextDayPct, g.LimitUpCount, g.LimitUpRate,
			g.ProfitableCount, g.ProfitableRate, g.CorrectPredictions, g.PredictionAccuracy,
		})
		row++
		return err
	}
	if err := writeGroup("全部", stats.Overall); err != nil {
		return nil, err
	}
	for _, level := range model.PremiumLevels {
		g, ok := stats.ByLevel[level]
		if !ok {
			continue
		}
		if err := writeGroup(string(level), g); err != nil {
			return nil, err
		}
	}
	return w.done()
}
