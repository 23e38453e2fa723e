package service

import (
	"time"

	"FinSight/internal/domain/models"
)

// FilingParser turns one raw document into a ParsedFiling.
type FilingParser interface {
	Parse(doc models.FilingDocument) (*models.ParsedFiling, error)
	ParseBatch(docs []models.FilingDocument) []models.ParseOutcome
}

// TrendAnalyzer scores a sentiment series and reports its direction.
type TrendAnalyzer interface {
	Trend(rows []models.SentimentRow) *models.TrendResult
}

// AnomalyDetector flags rows far from their trailing window mean.
type AnomalyDetector interface {
	Detect(rows []models.SentimentRow, window int, threshold float64) *models.AnomalyResult
}

// FilingCorrelator measures the sentiment shift around filing dates.
type FilingCorrelator interface {
	Correlate(filingDates []time.Time, rows []models.SentimentRow, daysBefore, daysAfter int) []models.CorrelationEntry
}
