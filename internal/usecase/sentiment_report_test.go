package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinSight/internal/domain/models"
	"FinSight/internal/service/cache"
	"FinSight/internal/services/analytics"
	"FinSight/pkg/validate"
)

var reportNow = time.Date(2024, 3, 31, 15, 0, 0, 0, time.UTC)

func reportSettings() ReportSettings {
	return ReportSettings{
		Days:               90,
		TrendDays:          30,
		Window:             14,
		Threshold:          2.0,
		DaysBefore:         7,
		DaysAfter:          7,
		SentimentThreshold: 0.2,
		CacheTTL:           time.Minute,
		Timeout:            time.Second,
	}
}

func newReport(store *fakeStore, c cache.BytesCache, m *spyMetrics) *SentimentReportUseCase {
	an := analytics.NewAnalyzer()
	uc := NewSentimentReportUseCase(store, store, Analyzers{Trend: an, Detector: an, Correlator: an}, c, m, nil, reportSettings())
	uc.now = func() time.Time { return reportNow }
	return uc
}

// steadyRows returns n daily rows ending today with score 0.5, except a -1 spike spikeAgo days back.
func steadyRows(n, spikeAgo int) []models.SentimentRow {
	today := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	rows := make([]models.SentimentRow, 0, n)
	for i := n - 1; i >= 0; i-- {
		r := models.SentimentRow{Date: day(today, -i), TotalArticles: 10, PositiveCount: 6, NegativeCount: 1, NeutralCount: 3}
		if i == spikeAgo {
			r.PositiveCount, r.NegativeCount, r.NeutralCount = 0, 10, 0
		}
		rows = append(rows, r)
	}
	return rows
}

func TestReportAllParts(t *testing.T) {
	today := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	store := &fakeStore{rows: steadyRows(90, 5), dates: []time.Time{day(today, -20)}}
	m := newSpyMetrics()

	rep, err := newReport(store, nil, m).Report(context.Background(), &models.ReportRequest{CompanyID: "ACME"})
	require.NoError(t, err)

	assert.Equal(t, "ACME", rep.CompanyID)
	assert.Nil(t, rep.Errors)
	assert.Equal(t, today, rep.To)
	assert.Equal(t, day(today, -90), rep.From)
	assert.Equal(t, day(today, -90), store.lastFrom)
	assert.Equal(t, 1, store.sentCalls)

	require.NotNil(t, rep.Trend)
	assert.Len(t, rep.Trend.Series, 31)
	assert.InDelta(t, (30*0.5-1)/31, rep.Trend.MeanScore, 1e-9)
	assert.Equal(t, models.TonePositive, rep.Tone)

	require.NotNil(t, rep.Anomalies)
	assert.Equal(t, 1, rep.Anomalies.Count)
	assert.Equal(t, day(today, -5), rep.Anomalies.Anomalies[0].Date)

	require.Len(t, rep.Correlations, 1)
	assert.Equal(t, 15, rep.Correlations[0].DataPoints)
	assert.InDelta(t, 0, rep.Correlations[0].Diff, 1e-9)

	assert.Equal(t, 1, m.reports)
	assert.Equal(t, 0, m.failed)
}

func TestReportFilingLookupFailureOnlyFailsCorrelations(t *testing.T) {
	store := &fakeStore{rows: steadyRows(40, -1), datesErr: errStoreDown}
	m := newSpyMetrics()

	rep, err := newReport(store, nil, m).Report(context.Background(), &models.ReportRequest{CompanyID: "ACME"})
	require.NoError(t, err)

	require.Len(t, rep.Errors, 1)
	assert.Contains(t, rep.Errors[PartCorrelations], "store down")
	assert.NotNil(t, rep.Trend)
	assert.NotNil(t, rep.Anomalies)
	assert.Nil(t, rep.Correlations)
	assert.Equal(t, 1, m.failed)
}

func TestReportInsufficientData(t *testing.T) {
	store := &fakeStore{rows: steadyRows(5, -1)}

	rep, err := newReport(store, nil, newSpyMetrics()).Report(context.Background(), &models.ReportRequest{CompanyID: "ACME"})
	require.NoError(t, err)

	assert.NotNil(t, rep.Trend)
	assert.Nil(t, rep.Anomalies)
	assert.Contains(t, rep.Errors[PartAnomalies], ErrInsufficientData.Error())
	assert.Contains(t, rep.Errors[PartAnomalies], "need 14 days, have 5")
	assert.Empty(t, rep.Correlations)
	assert.NotContains(t, rep.Errors, PartCorrelations)
}

func TestReportNoRows(t *testing.T) {
	rep, err := newReport(&fakeStore{}, nil, newSpyMetrics()).Report(context.Background(), &models.ReportRequest{CompanyID: "ACME"})
	require.NoError(t, err)

	assert.Nil(t, rep.Trend)
	assert.Empty(t, rep.Tone)
	assert.Equal(t, ErrInsufficientData.Error(), rep.Errors[PartTrend])
	assert.Contains(t, rep.Errors, PartAnomalies)
}

func TestReportRequestOverridesSettings(t *testing.T) {
	store := &fakeStore{rows: steadyRows(90, 5)}

	rep, err := newReport(store, nil, newSpyMetrics()).Report(context.Background(), &models.ReportRequest{
		CompanyID: "ACME", Days: 10, TrendDays: 7, Window: 20,
	})
	require.NoError(t, err)

	// the correlation lookback (7+7+30) is the widest range
	assert.Equal(t, day(rep.To, -44), store.lastFrom)
	assert.Len(t, rep.Trend.Series, 8)
	assert.Contains(t, rep.Errors[PartAnomalies], "need 20 days, have 11")
}

func TestReportSentimentLoadFailure(t *testing.T) {
	m := newSpyMetrics()
	_, err := newReport(&fakeStore{sentErr: errStoreDown}, nil, m).Report(context.Background(), &models.ReportRequest{CompanyID: "ACME"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, errStoreDown))
	assert.Equal(t, 1, m.errors["load_sentiment"])
	assert.Equal(t, 0, m.reports)
}

func TestReportValidation(t *testing.T) {
	tests := []struct {
		name string
		req  models.ReportRequest
		code string
	}{
		{"missing company", models.ReportRequest{}, "ERR_REQUIRED"},
		{"negative threshold", models.ReportRequest{CompanyID: "ACME", Threshold: -1}, "ERR_GT"},
		{"window too large", models.ReportRequest{CompanyID: "ACME", Window: 1000}, "ERR_LTE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{}
			_, err := newReport(store, nil, newSpyMetrics()).Report(context.Background(), &tt.req)

			var verrs validate.Errors
			require.True(t, errors.As(err, &verrs))
			assert.Contains(t, verrs.Codes(), tt.code)
			assert.Equal(t, 0, store.sentCalls)
		})
	}
}

func TestReportServedFromCache(t *testing.T) {
	store := &fakeStore{rows: steadyRows(30, -1)}
	uc := newReport(store, cache.NewTTLCache(), newSpyMetrics())

	first, err := uc.Report(context.Background(), &models.ReportRequest{CompanyID: "ACME"})
	require.NoError(t, err)
	second, err := uc.Report(context.Background(), &models.ReportRequest{CompanyID: "ACME"})
	require.NoError(t, err)

	assert.Equal(t, 1, store.sentCalls)
	assert.Equal(t, first.Tone, second.Tone)
	assert.InDelta(t, first.Trend.MeanScore, second.Trend.MeanScore, 1e-12)

	// different parameters miss the cache
	_, err = uc.Report(context.Background(), &models.ReportRequest{CompanyID: "ACME", Days: 60})
	require.NoError(t, err)
	assert.Equal(t, 2, store.sentCalls)

	// so does the next day
	uc.now = func() time.Time { return reportNow.Add(24 * time.Hour) }
	_, err = uc.Report(context.Background(), &models.ReportRequest{CompanyID: "ACME"})
	require.NoError(t, err)
	assert.Equal(t, 3, store.sentCalls)
}

func TestSince(t *testing.T) {
	rows := steadyRows(5, -1)
	assert.Len(t, since(rows, rows[2].Date), 3)
	assert.Len(t, since(rows, rows[0].Date.AddDate(0, 0, -1)), 5)
	assert.Nil(t, since(rows, rows[4].Date.AddDate(0, 0, 1)))
}

func TestGuardRecoversPanic(t *testing.T) {
	_, err := guard(func() (interface{}, error) { panic("boom") })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}
