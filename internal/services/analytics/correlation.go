package analytics

import (
	"time"

	"FinSight/internal/domain/models"
	"FinSight/pkg/util"
)

const (
	DefaultDaysBefore = 7
	DefaultDaysAfter  = 7
)

// CorrelateFilings compares mean sentiment in [d-before, d) with [d, d+after] for every filing date d.
// Dates are compared as calendar days. Filing dates with no rows in their window are skipped.
func CorrelateFilings(filingDates []time.Time, rows []models.SentimentRow, daysBefore, daysAfter int) []models.CorrelationEntry {
	out := []models.CorrelationEntry{}
	if len(filingDates) == 0 || len(rows) == 0 {
		return out
	}

	days := make([]time.Time, len(rows))
	scores := make([]float64, len(rows))
	for i, r := range rows {
		days[i] = util.DateOnly(r.Date)
		scores[i] = Score(r)
	}

	for _, fd := range filingDates {
		d := util.DateOnly(fd)
		from, to := d.AddDate(0, 0, -daysBefore), d.AddDate(0, 0, daysAfter)

		var preSum, postSum float64
		var pre, post int
		for i, day := range days {
			if day.Before(from) || day.After(to) {
				continue
			}
			if day.Before(d) {
				preSum += scores[i]
				pre++
			} else {
				postSum += scores[i]
				post++
			}
		}
		if pre+post == 0 {
			continue
		}

		e := models.CorrelationEntry{
			FilingDate:     d,
			DataPoints:     pre + post,
			PreDataPoints:  pre,
			PostDataPoints: post,
		}
		if pre > 0 {
			e.PreMean = preSum / float64(pre)
		}
		if post > 0 {
			e.PostMean = postSum / float64(post)
		}
		e.Diff = e.PostMean - e.PreMean
		out = append(out, e)
	}
	return out
}
