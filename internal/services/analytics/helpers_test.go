package analytics

import (
	"time"

	"FinSight/internal/domain/models"
)

var day0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func day(n int) time.Time { return day0.AddDate(0, 0, n) }

// rowWithScore builds a row with 10 articles so that score = pos/10.
func rowWithScore(n, pos int) models.SentimentRow {
	return models.SentimentRow{Date: day(n), TotalArticles: 10, PositiveCount: pos, NeutralCount: 10 - pos}
}

func seriesOfScores(tenths ...int) []models.SentimentRow {
	rows := make([]models.SentimentRow, len(tenths))
	for i, p := range tenths {
		rows[i] = rowWithScore(i, p)
	}
	return rows
}
