package analytics

import (
	"testing"
	"time"

	"FinSight/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCorrelateFilingsNoOverlap(t *testing.T) {
	rows := seriesOfScores(1, 2, 3)
	got := CorrelateFilings([]time.Time{day(100)}, rows, 7, 7)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestCorrelateFilingsEmptyInputs(t *testing.T) {
	assert.Empty(t, CorrelateFilings(nil, seriesOfScores(1), 7, 7))
	assert.Empty(t, CorrelateFilings([]time.Time{day(0)}, nil, 7, 7))
}

func TestCorrelateFilingsPrePostSplit(t *testing.T) {
	// days 0..19, score = day%10 / 10
	tenths := make([]int, 20)
	for i := range tenths {
		tenths[i] = i % 10
	}
	rows := seriesOfScores(tenths...)

	got := CorrelateFilings([]time.Time{day(10)}, rows, 3, 2)
	require.Len(t, got, 1)
	e := got[0]

	// pre: days 7,8,9 -> 0.7,0.8,0.9 ; post: days 10,11,12 -> 0.0,0.1,0.2
	assert.Equal(t, 3, e.PreDataPoints)
	assert.Equal(t, 3, e.PostDataPoints)
	assert.Equal(t, 6, e.DataPoints)
	assert.InDelta(t, 0.8, e.PreMean, 1e-12)
	assert.InDelta(t, 0.1, e.PostMean, 1e-12)
	assert.InDelta(t, -0.7, e.Diff, 1e-12)
	assert.True(t, e.FilingDate.Equal(day(10)))
}

func TestCorrelateFilingsCountsMatchWindow(t *testing.T) {
	tenths := []int{1, 5, 3, 8, 2, 9, 4, 7, 6, 0, 1, 5}
	rows := seriesOfScores(tenths...)
	// drop a few days so windows are sparse
	rows = append(rows[:3], rows[6:]...)

	dates := []time.Time{day(0), day(4), day(8), day(11), day(40)}
	for _, before := range []int{0, 1, 3, 7} {
		for _, after := range []int{0, 2, 7} {
			for _, e := range CorrelateFilings(dates, rows, before, after) {
				from, to := e.FilingDate.AddDate(0, 0, -before), e.FilingDate.AddDate(0, 0, after)
				in := 0
				for _, r := range rows {
					if !r.Date.Before(from) && !r.Date.After(to) {
						in++
					}
				}
				assert.Equal(t, in, e.PreDataPoints+e.PostDataPoints)
				assert.Equal(t, in, e.DataPoints)
			}
		}
	}
}

func TestCorrelateFilingsEmptyGroupMeanIsZero(t *testing.T) {
	rows := []models.SentimentRow{rowWithScore(5, 6), rowWithScore(6, 8)}
	got := CorrelateFilings([]time.Time{day(5)}, rows, 7, 7)
	require.Len(t, got, 1)
	assert.Equal(t, 0, got[0].PreDataPoints)
	assert.Equal(t, 0.0, got[0].PreMean)
	assert.InDelta(t, 0.7, got[0].PostMean, 1e-12)
}

func TestCorrelateFilingsIgnoresClockTime(t *testing.T) {
	rows := []models.SentimentRow{rowWithScore(3, 4)}
	filed := day(3).Add(17 * time.Hour)
	got := CorrelateFilings([]time.Time{filed}, rows, 0, 0)
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].PostDataPoints)
}

func TestToneFor(t *testing.T) {
	assert.Equal(t, models.TonePositive, ToneFor(0.2, 0.2))
	assert.Equal(t, models.ToneNegative, ToneFor(-0.25, 0.2))
	assert.Equal(t, models.ToneNeutral, ToneFor(0.1, 0.2))
}
