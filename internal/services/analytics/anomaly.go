package analytics

import (
	"math"

	"FinSight/internal/domain/models"
	"FinSight/internal/services/features"
)

const (
	DefaultAnomalyWindow    = 14
	DefaultAnomalyThreshold = 2.0

	// deviations within this margin of the band edge are rounding noise, not anomalies
	deviationTolerance = 1e-9
)

// DetectAnomalies flags rows whose score is more than threshold sample standard deviations
// away from the mean of the trailing window ending at that row. Rows before the window fills
// are never flagged. Returns nil when there are fewer rows than the window.
func DetectAnomalies(rows []models.SentimentRow, window int, threshold float64) *models.AnomalyResult {
	if window < 1 {
		window = DefaultAnomalyWindow
	}
	if len(rows) < window {
		return nil
	}
	sorted := sortedByDate(rows)

	res := &models.AnomalyResult{
		Window:    window,
		Threshold: threshold,
		Anomalies: []models.AnomalyPoint{},
		Series:    make([]models.AnomalyRow, len(sorted)),
	}

	w := features.NewRollingWindow(window)
	for i, r := range sorted {
		s := Score(r)
		w.Push(s)
		row := models.AnomalyRow{SentimentRow: r, Score: s}
		if w.Full() {
			mean := w.Mean()
			row.RollingMean = &mean
			if std, ok := w.SampleStd(); ok {
				row.RollingStd = &std
				row.Anomaly = math.Abs(s-mean)-threshold*std > deviationTolerance
			}
		}
		if row.Anomaly {
			res.Anomalies = append(res.Anomalies, models.AnomalyPoint{Date: r.Date, Score: s})
		}
		res.Series[i] = row
	}
	res.Count = len(res.Anomalies)
	return res
}
