package analytics

import (
	"FinSight/internal/domain/models"
	"FinSight/internal/services/features"
)

const (
	// ShortWindow is the short moving-average length in rows.
	ShortWindow = 7
	// LongWindowMax caps the long moving-average length.
	LongWindowMax = 30
)

// AnalyzeTrend scores every row, annotates it with a 7-row and an N-row trailing average
// (N = min(30, len(rows))) and reports the last move. Returns nil for an empty series.
//
// StdDev is the sample standard deviation; a single row reports 0.
func AnalyzeTrend(rows []models.SentimentRow) *models.TrendResult {
	if len(rows) == 0 {
		return nil
	}
	sorted := sortedByDate(rows)
	scores := Scores(sorted)
	long := min(LongWindowMax, len(scores))

	short := features.MovingAverage(scores, ShortWindow)
	longMA := features.MovingAverage(scores, long)

	series := make([]models.ScoredRow, len(sorted))
	for i, r := range sorted {
		series[i] = models.ScoredRow{
			SentimentRow: r,
			Score:        scores[i],
			MA7:          short[i],
			MALong:       longMA[i],
		}
	}

	mean, std := features.MeanStd(scores)
	return &models.TrendResult{
		Direction:    direction(scores),
		CurrentScore: scores[len(scores)-1],
		MeanScore:    mean,
		StdDev:       std,
		LongWindow:   long,
		Series:       series,
	}
}

func direction(scores []float64) models.Direction {
	if len(scores) < 2 {
		return models.DirectionStable
	}
	last, prev := scores[len(scores)-1], scores[len(scores)-2]
	switch {
	case last > prev:
		return models.DirectionUp
	case last < prev:
		return models.DirectionDown
	default:
		return models.DirectionStable
	}
}
