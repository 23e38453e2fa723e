package analytics

import (
	"sort"

	"FinSight/internal/domain/models"
)

// Score is (positive - negative) / total, or 0 for a day without articles.
func Score(r models.SentimentRow) float64 {
	if r.TotalArticles == 0 {
		return 0
	}
	return float64(r.PositiveCount-r.NegativeCount) / float64(r.TotalArticles)
}

// Scores maps Score over rows.
func Scores(rows []models.SentimentRow) []float64 {
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = Score(r)
	}
	return out
}

// ToneFor labels a score: at or beyond +/-threshold is positive/negative.
func ToneFor(score, threshold float64) models.Tone {
	switch {
	case score >= threshold:
		return models.TonePositive
	case score <= -threshold:
		return models.ToneNegative
	default:
		return models.ToneNeutral
	}
}

// sortedByDate copies rows and orders the copy by date, keeping input order for equal dates.
func sortedByDate(rows []models.SentimentRow) []models.SentimentRow {
	out := make([]models.SentimentRow, len(rows))
	copy(out, rows)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}
