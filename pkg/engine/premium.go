package engine

import (
	"log"
	"sort"

	"github.com/dewei/SentimentRadar/pkg/model"
)

// ThemeContext 个股的题材地位
type ThemeContext struct {
	MainConcept  string
	IsInTop10    bool
	IsMainLine   bool
	LadderStatus model.LadderStatus
}

// PremiumInput 溢价评分输入
type PremiumInput struct {
	Stock             *model.LimitStock
	Stage             model.EmotionStage // 当日情绪阶段，空表示未知
	Theme             ThemeContext
	MaxContinuousDays int // 当日全市场最高连板数
}

// PremiumScorer 明日溢价概率评分
type PremiumScorer struct {
	t      PremiumThresholds
	ladder *LadderAnalyzer
}

// NewPremiumScorer 创建评分器
func NewPremiumScorer(t PremiumThresholds) *PremiumScorer {
	return &PremiumScorer{t: t, ladder: NewLadderAnalyzer(t.TopConcepts, t.MainLineMinLimitUp)}
}

// Thresholds 当前参数
func (s *PremiumScorer) Thresholds() PremiumThresholds {
	return s.t
}

// Technical 技术面：封板时间（扣除开板惩罚）与换手率的平均
func (s *PremiumScorer) Technical(stock *model.LimitStock) model.TechnicalDetail {
	d := model.TechnicalDetail{
		FirstLimitTime: stock.FirstLimitTime,
		OpeningTimes:   stock.OpeningTimes,
		TurnoverRate:   stock.TurnoverRate,
		IsOneWord:      stock.IsOneWord(),
	}

	timeScore := 0.0
	if stock.FirstLimitTime != nil {
		if minutes, ok := model.MinutesSinceOpen(*stock.FirstLimitTime); ok {
			d.SealMinutes = &minutes
			timeScore = s.t.SealMinutes.Score(float64(minutes))
		}
	}
	timeScore += s.t.OpeningPenalty.Score(float64(stock.OpeningTimes))

	turnoverScore := s.t.TurnoverRate.ScoreOptional(stock.TurnoverRate)

	final := Clamp((timeScore+turnoverScore)/2, DimensionMin, DimensionMax)
	if d.IsOneWord && final < s.t.OneWordFloor {
		final = s.t.OneWordFloor
	}

	d.TimeScore = Round2(timeScore)
	d.TurnoverScore = Round2(turnoverScore)
	d.FinalScore = Round2(final)
	return d
}

// Capital 资金面：封成比与主力净流入占比的平均
func (s *PremiumScorer) Capital(stock *model.LimitStock) model.CapitalDetail {
	d := model.CapitalDetail{
		SealedAmount:     stock.SealedAmount,
		Amount:           stock.Amount,
		MainNetInflow:    stock.MainNetInflow,
		MainNetInflowPct: stock.MainNetInflowPct,
	}

	sealedScore := 0.0
	if stock.SealedAmount != nil && stock.Amount != nil && *stock.Amount > 0 {
		ratio := *stock.SealedAmount / *stock.Amount
		d.SealedRatio = model.Float(Round2(ratio))
		sealedScore = s.t.SealedRatio.Score(ratio)
	}
	inflowScore := s.t.InflowPct.ScoreOptional(stock.MainNetInflowPct)

	d.SealedScore = sealedScore
	d.InflowScore = inflowScore
	d.FinalScore = Round2(Clamp((sealedScore+inflowScore)/2, DimensionMin, DimensionMax))
	return d
}

// Theme 题材地位：热度分与梯队分的平均
func (s *PremiumScorer) Theme(theme ThemeContext) model.ThemeDetail {
	hot := 0.0
	if theme.IsInTop10 {
		hot = 1
		if theme.IsMainLine {
			hot = 2
		}
	}
	status := theme.LadderStatus
	if status == "" {
		status = model.LadderAlone
	}
	ladder := s.t.LadderScores[status]

	return model.ThemeDetail{
		MainConcept:  theme.MainConcept,
		IsInTop10:    theme.IsInTop10,
		IsMainLine:   theme.IsMainLine,
		LadderStatus: status,
		HotScore:     hot,
		LadderScore:  ladder,
		FinalScore:   Round2(Clamp((hot+ladder)/2, DimensionMin, DimensionMax)),
	}
}

// Position 位置风险：连板越高风险越大
func (s *PremiumScorer) Position(continuousDays int) model.PositionDetail {
	var risk string
	switch {
	case continuousDays >= 7:
		risk = "极高"
	case continuousDays >= 5:
		risk = "高"
	case continuousDays >= 3:
		risk = "中"
	case continuousDays == 2:
		risk = "低"
	default:
		risk = "极低"
	}
	return model.PositionDetail{
		ContinuousDays: continuousDays,
		RiskLevel:      risk,
		FinalScore:     s.t.Position.Score(float64(continuousDays)),
	}
}

// Market 市场环境：情绪阶段映射后乘以权重，未知阶段为0
func (s *PremiumScorer) Market(stage model.EmotionStage) model.MarketDetail {
	raw := s.t.StageScores[stage]
	return model.MarketDetail{
		EmotionStage: stage,
		StageColor:   stage.Color(),
		RawScore:     raw,
		FinalScore:   Round2(Clamp(raw*s.t.MarketWeight, MarketMin, MarketMax)),
	}
}

// Level 10分制得分对应的溢价等级
func (s *PremiumScorer) Level(score float64) model.PremiumLevel {
	for _, f := range s.t.LevelFloors {
		if score >= f.Min {
			return f.Level
		}
	}
	return model.PremiumBottom
}

// ResolveTheme 主概念取股票所属前 N 热门概念中涨停数最多的一个
func (s *PremiumScorer) ResolveTheme(stock *model.LimitStock, day *DayContext) ThemeContext {
	theme := ThemeContext{LadderStatus: model.LadderAlone}
	if stock == nil || day == nil {
		return theme
	}

	var main *model.HotConcept
	top := day.TopConcepts(s.t.TopConcepts)
	for i := range top {
		if !day.IsMember(top[i].ConceptName, stock) {
			continue
		}
		if main == nil || top[i].LimitUpCount > main.LimitUpCount {
			main = &top[i]
		}
	}
	if main == nil {
		return theme
	}

	members := day.ConceptLimitUps(main.ConceptName)
	theme.MainConcept = main.ConceptName
	theme.IsInTop10 = true
	theme.IsMainLine = s.ladder.IsMainLine(*main)
	theme.LadderStatus = LadderStatusOf(members)
	return theme
}

// Score 计算个股溢价评分，非涨停股返回 nil
func (s *PremiumScorer) Score(in PremiumInput) *model.PremiumScore {
	stock := in.Stock
	if stock == nil || (stock.LimitType != "" && stock.LimitType != model.LimitUp) {
		return nil
	}

	technical := s.Technical(stock)
	capital := s.Capital(stock)
	theme := s.Theme(in.Theme)
	position := s.Position(stock.ContinuousDays)
	market := s.Market(in.Stage)

	rawTotal := technical.FinalScore + capital.FinalScore + theme.FinalScore +
		position.FinalScore + market.FinalScore
	total := Rescale(rawTotal, TotalMin, TotalMax)

	bonus := false
	if stock.ContinuousDays >= s.t.LeaderMinDays && stock.ContinuousDays == in.MaxContinuousDays {
		total = Clamp(total+s.t.LeaderBonus, 0, DisplayMax)
		bonus = true
		log.Printf("龙头加分: %s %s 为当日最高板(%d板)", stock.StockCode, stock.StockName, stock.ContinuousDays)
	}

	level := s.Level(total)
	return &model.PremiumScore{
		StockCode:         stock.StockCode,
		StockName:         stock.StockName,
		TradeDate:         stock.TradeDate,
		ContinuousDays:    stock.ContinuousDays,
		RawTotal:          Round2(rawTotal),
		TotalScore:        Round2(total),
		PremiumLevel:      level,
		PremiumLevelColor: level.Color(),
		LeaderBonus:       bonus,

		TechnicalRaw: technical.FinalScore,
		CapitalRaw:   capital.FinalScore,
		ThemeRaw:     theme.FinalScore,
		PositionRaw:  position.FinalScore,
		MarketRaw:    market.FinalScore,

		TechnicalScore: Round2(Rescale(technical.FinalScore, DimensionMin, DimensionMax)),
		CapitalScore:   Round2(Rescale(capital.FinalScore, DimensionMin, DimensionMax)),
		ThemeScore:     Round2(Rescale(theme.FinalScore, DimensionMin, DimensionMax)),
		PositionScore:  Round2(Rescale(position.FinalScore, DimensionMin, DimensionMax)),
		MarketScore:    Round2(Rescale(market.FinalScore, MarketMin, MarketMax)),

		TechnicalDetail: technical,
		CapitalDetail:   capital,
		ThemeDetail:     theme,
		PositionDetail:  position,
		MarketDetail:    market,
	}
}

// ScoreDay 为当日所有涨停股评分，按总分降序
func (s *PremiumScorer) ScoreDay(day *DayContext, stage model.EmotionStage) []*model.PremiumScore {
	maxDays := day.MaxContinuousDays()
	scores := make([]*model.PremiumScore, 0, len(day.LimitUps))
	for i := range day.LimitUps {
		stock := &day.LimitUps[i]
		score := s.Score(PremiumInput{
			Stock:             stock,
			Stage:             stage,
			Theme:             s.ResolveTheme(stock, day),
			MaxContinuousDays: maxDays,
		})
		if score != nil {
			scores = append(scores, score)
		}
	}
	SortScores(scores)
	return scores
}

// SortScores 按总分降序，同分按连板数降序
func SortScores(scores []*model.PremiumScore) {
	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].TotalScore != scores[j].TotalScore {
			return scores[i].TotalScore > scores[j].TotalScore
		}
		return scores[i].ContinuousDays > scores[j].ContinuousDays
	})
}

var defaultScorer = NewPremiumScorer(PremiumThresholdsV20)

// ScorePremium 使用默认参数评分
func ScorePremium(in PremiumInput) *model.PremiumScore {
	return defaultScorer.Score(in)
}
