package analytics

import (
	"time"

	"FinSight/internal/domain/models"
	domsvc "FinSight/internal/domain/service"
)

// Analyzer exposes the sentiment computations behind the domain service interfaces.
type Analyzer struct{}

func NewAnalyzer() *Analyzer { return &Analyzer{} }

func (Analyzer) Trend(rows []models.SentimentRow) *models.TrendResult {
	return AnalyzeTrend(rows)
}

func (Analyzer) Detect(rows []models.SentimentRow, window int, threshold float64) *models.AnomalyResult {
	return DetectAnomalies(rows, window, threshold)
}

func (Analyzer) Correlate(filingDates []time.Time, rows []models.SentimentRow, daysBefore, daysAfter int) []models.CorrelationEntry {
	return CorrelateFilings(filingDates, rows, daysBefore, daysAfter)
}

var (
	_ domsvc.TrendAnalyzer    = Analyzer{}
	_ domsvc.AnomalyDetector  = Analyzer{}
	_ domsvc.FilingCorrelator = Analyzer{}
)
