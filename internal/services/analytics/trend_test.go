package analytics

import (
	"encoding/json"
	"testing"

	"FinSight/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name string
		row  models.SentimentRow
		want float64
	}{
		{"balanced", models.SentimentRow{TotalArticles: 4, PositiveCount: 2, NegativeCount: 2}, 0},
		{"positive", models.SentimentRow{TotalArticles: 4, PositiveCount: 3, NegativeCount: 1}, 0.5},
		{"negative", models.SentimentRow{TotalArticles: 5, NegativeCount: 5}, -1},
		{"no articles", models.SentimentRow{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Score(tt.row), 1e-12)
		})
	}
}

func TestAnalyzeTrendDirection(t *testing.T) {
	tests := []struct {
		name   string
		tenths []int
		want   models.Direction
	}{
		{"rising", []int{2, 5}, models.DirectionUp},
		{"tie", []int{5, 5}, models.DirectionStable},
		{"falling", []int{5, 2}, models.DirectionDown},
		{"single row", []int{4}, models.DirectionStable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := AnalyzeTrend(seriesOfScores(tt.tenths...))
			require.NotNil(t, res)
			assert.Equal(t, tt.want, res.Direction)
		})
	}
}

func TestAnalyzeTrendEmpty(t *testing.T) {
	assert.Nil(t, AnalyzeTrend(nil))
	assert.Nil(t, AnalyzeTrend([]models.SentimentRow{}))
}

func TestAnalyzeTrendShortSeriesHasNoSevenDayAverage(t *testing.T) {
	for n := 1; n < ShortWindow; n++ {
		tenths := make([]int, n)
		for i := range tenths {
			tenths[i] = i % 10
		}
		res := AnalyzeTrend(seriesOfScores(tenths...))
		require.NotNil(t, res)
		for i, r := range res.Series {
			assert.Nil(t, r.MA7, "len=%d row=%d", n, i)
		}
	}
}

func TestAnalyzeTrendMovingAverages(t *testing.T) {
	tenths := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	res := AnalyzeTrend(seriesOfScores(tenths...))
	require.NotNil(t, res)

	assert.Equal(t, len(tenths), res.LongWindow)
	for i := 0; i < 6; i++ {
		assert.Nil(t, res.Series[i].MA7)
	}
	require.NotNil(t, res.Series[6].MA7)
	assert.InDelta(t, 0.4, *res.Series[6].MA7, 1e-12)
	require.NotNil(t, res.Series[9].MA7)
	assert.InDelta(t, 0.7, *res.Series[9].MA7, 1e-12)

	for i := 0; i < 9; i++ {
		assert.Nil(t, res.Series[i].MALong)
	}
	require.NotNil(t, res.Series[9].MALong)
	assert.InDelta(t, 0.55, *res.Series[9].MALong, 1e-12)

	assert.InDelta(t, 1.0, res.CurrentScore, 1e-12)
	assert.InDelta(t, 0.55, res.MeanScore, 1e-12)
	// sample std of 0.1..1.0
	assert.InDelta(t, 0.302765, res.StdDev, 1e-6)
}

func TestAnalyzeTrendLongWindowCapped(t *testing.T) {
	tenths := make([]int, 45)
	res := AnalyzeTrend(seriesOfScores(tenths...))
	require.NotNil(t, res)
	assert.Equal(t, LongWindowMax, res.LongWindow)
	assert.Nil(t, res.Series[28].MALong)
	assert.NotNil(t, res.Series[29].MALong)
}

func TestAnalyzeTrendSingleRowStdIsZero(t *testing.T) {
	res := AnalyzeTrend(seriesOfScores(3))
	require.NotNil(t, res)
	assert.Equal(t, 0.0, res.StdDev)
	assert.InDelta(t, 0.3, res.MeanScore, 1e-12)
}

func TestAnalyzeTrendSortsAndDoesNotAlias(t *testing.T) {
	rows := []models.SentimentRow{rowWithScore(1, 5), rowWithScore(0, 2)}
	res := AnalyzeTrend(rows)
	require.NotNil(t, res)

	assert.Equal(t, models.DirectionUp, res.Direction)
	assert.True(t, res.Series[0].Date.Equal(day(0)))
	// input untouched
	assert.True(t, rows[0].Date.Equal(day(1)))

	res.Series[0].PositiveCount = 99
	assert.Equal(t, 2, rows[1].PositiveCount)
}

func TestAnalyzeTrendSerializesAbsentAverages(t *testing.T) {
	res := AnalyzeTrend(seriesOfScores(1, 2))
	b, err := json.Marshal(res.Series[0])
	require.NoError(t, err)
	assert.NotContains(t, string(b), "ma_7")
}
