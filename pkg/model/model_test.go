package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTradeDate(t *testing.T) {
	d, err := NormalizeTradeDate("20250110")
	require.NoError(t, err)
	assert.Equal(t, "2025-01-10", d)

	d, err = NormalizeTradeDate(" 2025-01-10 ")
	require.NoError(t, err)
	assert.Equal(t, "2025-01-10", d)

	_, err = ParseTradeDate("2025/01/10")
	assert.True(t, errors.Is(err, ErrInvalidDate))

	assert.Equal(t, "20250110", ToCompactDate("2025-01-10"))
	assert.Equal(t, "2025-01-10", FromCompactDate("20250110"))
	assert.Equal(t, "2025-01-10", FromCompactDate("2025-01-10"))
	assert.True(t, IsWeekend("2025-01-11"))
	assert.False(t, IsWeekend("2025-01-10"))
}

func TestNormalizeClock(t *testing.T) {
	cases := map[string]string{
		"09:30:00": "09:30:00",
		"9:30":     "09:30:00",
		"093000":   "09:30:00",
		"94539":    "09:45:39",
		"145959":   "14:59:59",
	}
	for in, want := range cases {
		got, ok := NormalizeClock(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	for _, bad := range []string{"", "abc", "9", "25:00:00", "1234567"} {
		_, ok := NormalizeClock(bad)
		assert.False(t, ok, bad)
	}
}

func TestMinutesSinceOpen(t *testing.T) {
	m, ok := MinutesSinceOpen("09:30:59")
	require.True(t, ok)
	assert.Equal(t, 0, m)

	m, _ = MinutesSinceOpen("092500")
	assert.Equal(t, -5, m)

	m, _ = MinutesSinceOpen("13:00:00")
	assert.Equal(t, 210, m)

	_, ok = MinutesSinceOpen("")
	assert.False(t, ok)
}

func TestBareCode(t *testing.T) {
	assert.Equal(t, "000001", BareCode("000001.SZ"))
	assert.Equal(t, "600000", BareCode("600000"))
}

func TestBoardDistribution(t *testing.T) {
	d := BoardDistribution{1: 40, 2: 8, 5: 1, 7: 0}
	assert.Equal(t, 5, d.MaxHeight())
	assert.Equal(t, 49, d.Total())
	assert.Equal(t, []int{1, 2, 5}, d.Tiers())
	assert.Equal(t, 0, d.Count(3))

	var empty BoardDistribution
	assert.Equal(t, 0, empty.MaxHeight())

	v, err := d.Value()
	require.NoError(t, err)

	var back BoardDistribution
	require.NoError(t, back.Scan([]byte(v.(string))))
	assert.Equal(t, 5, back.MaxHeight())
}

func TestStringListScan(t *testing.T) {
	var s StringList
	require.NoError(t, s.Scan(`["机器人","算力"]`))
	assert.Equal(t, StringList{"机器人", "算力"}, s)

	v, err := StringList(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)
}

func TestLimitStockHelpers(t *testing.T) {
	s := &LimitStock{StockCode: "688123", ContinuousDays: 1, IsStrongLimit: true, Concepts: StringList{"算力"}}
	assert.True(t, s.IsFirstBoard())
	assert.True(t, s.IsOneWord())
	assert.True(t, s.IsGrowthBoard())
	assert.True(t, s.HasConcept("算力"))
	assert.False(t, s.HasConcept("机器人"))

	s.OpeningTimes = 1
	assert.False(t, s.IsOneWord())
}

func TestStageAndLevelColors(t *testing.T) {
	assert.Equal(t, "green", StageRetreat.Color())
	assert.Equal(t, "gray", EmotionStage("").Color())
	assert.True(t, StageClimax.IsPeak())
	assert.False(t, StageRetreat.IsPeak())
	assert.False(t, EmotionStage("中性").Valid())
	assert.Equal(t, "orange", PremiumHigh.Color())
}

func TestScoringStage(t *testing.T) {
	rec := &EmotionStageRecord{Stage: StageClimax}
	assert.Equal(t, StageClimax, rec.ScoringStage())

	rec = &EmotionStageRecord{Stage: StageIce, InsufficientData: true}
	assert.Equal(t, EmotionStage(""), rec.ScoringStage())

	var missing *EmotionStageRecord
	assert.Equal(t, EmotionStage(""), missing.ScoringStage())
}

func TestDailyBarPct(t *testing.T) {
	b := &DailyBar{PreClose: 10, Open: 10.5, High: 11, Low: 9.5}
	assert.InDelta(t, 5.0, *b.OpenPct(), 1e-9)
	assert.InDelta(t, 10.0, *b.HighPct(), 1e-9)
	assert.InDelta(t, -5.0, *b.LowPct(), 1e-9)
	assert.Nil(t, (&DailyBar{}).OpenPct())
}
