package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dewei/SentimentRadar/pkg/model"
)

func TestCalculatePromotion(t *testing.T) {
	today := model.BoardDistribution{1: 60, 2: 15, 3: 6, 4: 3, 5: 1}
	yesterday := model.BoardDistribution{1: 50, 2: 10, 3: 4}

	res := CalculatePromotion(today, yesterday)

	require.Len(t, res.Details, 3)
	assert.Equal(t, model.PromotionDetail{FromDays: 1, ToDays: 2, YesterdayCount: 50, TodayCount: 15, Rate: 30}, res.Details[0])
	assert.Equal(t, model.PromotionDetail{FromDays: 2, ToDays: 3, YesterdayCount: 10, TodayCount: 6, Rate: 60}, res.Details[1])
	assert.Equal(t, model.PromotionDetail{FromDays: 3, ToDays: 4, YesterdayCount: 4, TodayCount: 3, Rate: 75}, res.Details[2])
	require.NotNil(t, res.Overall)
	assert.Equal(t, 37.5, *res.Overall)
	require.NotNil(t, res.Average)
	assert.Equal(t, 55.0, *res.Average)
}

func TestCalculatePromotionSkipsEmptyTiers(t *testing.T) {
	res := CalculatePromotion(model.BoardDistribution{3: 5}, model.BoardDistribution{2: 0})

	assert.Empty(t, res.Details)
	assert.Nil(t, res.Overall)
	assert.Nil(t, res.Average)
}

func TestCalculatePromotionRounding(t *testing.T) {
	res := CalculatePromotion(model.BoardDistribution{2: 1}, model.BoardDistribution{1: 3})

	require.Len(t, res.Details, 1)
	assert.Equal(t, 33.3, res.Details[0].Rate)
	assert.Equal(t, 33.3, *res.Overall)
}

func TestCalculatePromotionStopsAtNine(t *testing.T) {
	res := CalculatePromotion(model.BoardDistribution{10: 1, 11: 1}, model.BoardDistribution{9: 1, 10: 1})

	require.Len(t, res.Details, 1)
	assert.Equal(t, 9, res.Details[0].FromDays)
	assert.Equal(t, 100.0, res.Details[0].Rate)
}
