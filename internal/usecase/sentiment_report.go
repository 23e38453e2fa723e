package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"FinSight/internal/domain/models"
	domrepo "FinSight/internal/domain/repository"
	domsvc "FinSight/internal/domain/service"
	"FinSight/internal/service/cache"
	"FinSight/internal/services/analytics"
	"FinSight/pkg/logger"
	"FinSight/pkg/util"
	"FinSight/pkg/validate"
)

// Report parts, also the keys of CompanyReport.Errors.
const (
	PartTrend        = "trend"
	PartAnomalies    = "anomalies"
	PartCorrelations = "correlations"
)

// correlationSlack widens the filing lookback past days_before+days_after.
const correlationSlack = 30

var ErrInsufficientData = errors.New("insufficient sentiment data")

// ReportSettings carries the configured analytics defaults.
type ReportSettings struct {
	Days               int
	TrendDays          int
	Window             int
	Threshold          float64
	DaysBefore         int
	DaysAfter          int
	SentimentThreshold float64
	CacheTTL           time.Duration
	Timeout            time.Duration
}

// Analyzers groups the three analysis services.
type Analyzers struct {
	Trend      domsvc.TrendAnalyzer
	Detector   domsvc.AnomalyDetector
	Correlator domsvc.FilingCorrelator
}

// SentimentReportUseCase builds a CompanyReport: trend, anomalies and filing
// correlations computed concurrently. A failed part lands in Errors, not in the error return.
type SentimentReportUseCase struct {
	sentiment domrepo.SentimentStore
	filings   domrepo.FilingStore
	an        Analyzers
	cache     cache.BytesCache
	metrics   domrepo.Metrics
	l         *logger.Logger
	cfg       ReportSettings
	now       func() time.Time
}

func NewSentimentReportUseCase(sentiment domrepo.SentimentStore, filings domrepo.FilingStore, an Analyzers,
	c cache.BytesCache, metrics domrepo.Metrics, l *logger.Logger, cfg ReportSettings) *SentimentReportUseCase {
	if l == nil {
		l = logger.Nop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &SentimentReportUseCase{
		sentiment: sentiment,
		filings:   filings,
		an:        an,
		cache:     c,
		metrics:   metrics,
		l:         l.With(logger.String("component", "sentiment_report")),
		cfg:       cfg,
		now:       time.Now,
	}
}

func (uc *SentimentReportUseCase) Report(ctx context.Context, req *models.ReportRequest) (*models.CompanyReport, error) {
	uc.applyDefaults(req)
	if err := validate.Struct(ctx, req); err != nil {
		return nil, err
	}
	start := uc.now()
	key := uc.cacheKey(req, start)
	if rep, ok := uc.cached(ctx, key); ok {
		return rep, nil
	}

	ctx, cancel := context.WithTimeout(ctx, uc.cfg.Timeout)
	defer cancel()

	corrDays := req.DaysBefore + req.DaysAfter + correlationSlack
	from, to := util.LookbackRange(start, max(req.Days, req.TrendDays, corrDays))
	corrFrom := to.AddDate(0, 0, -corrDays)

	var (
		rows     []models.SentimentRow
		dates    []time.Time
		datesErr error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rows, err = uc.sentiment.GetSentiment(gctx, req.CompanyID, from, to)
		return err
	})
	g.Go(func() error {
		// a filing lookup failure only costs the correlation part
		dates, datesErr = uc.filings.FilingDates(gctx, req.CompanyID, corrFrom, to)
		return nil
	})
	if err := g.Wait(); err != nil {
		uc.metrics.RecordError("load_sentiment")
		return nil, fmt.Errorf("load sentiment for %s: %w", req.CompanyID, err)
	}

	res := &models.CompanyReport{
		CompanyID:   req.CompanyID,
		GeneratedAt: start.UTC(),
		From:        from,
		To:          to,
		Errors:      map[string]string{},
	}

	type item struct {
		name string
		val  interface{}
		err  error
	}
	ch := make(chan item, 3)

	go func() {
		v, err := guard(func() (interface{}, error) {
			tr := uc.an.Trend.Trend(since(rows, to.AddDate(0, 0, -req.TrendDays)))
			if tr == nil {
				return nil, ErrInsufficientData
			}
			return tr, nil
		})
		ch <- item{PartTrend, v, err}
	}()
	go func() {
		v, err := guard(func() (interface{}, error) {
			window := since(rows, to.AddDate(0, 0, -req.Days))
			ar := uc.an.Detector.Detect(window, req.Window, req.Threshold)
			if ar == nil {
				return nil, fmt.Errorf("%w: need %d days, have %d", ErrInsufficientData, req.Window, len(window))
			}
			return ar, nil
		})
		ch <- item{PartAnomalies, v, err}
	}()
	go func() {
		v, err := guard(func() (interface{}, error) {
			if datesErr != nil {
				return nil, fmt.Errorf("load filing dates: %w", datesErr)
			}
			return uc.an.Correlator.Correlate(dates, since(rows, corrFrom), req.DaysBefore, req.DaysAfter), nil
		})
		ch <- item{PartCorrelations, v, err}
	}()

	for i := 0; i < 3; i++ {
		it := <-ch
		if it.err != nil {
			res.Errors[it.name] = it.err.Error()
			continue
		}
		switch it.name {
		case PartTrend:
			res.Trend = it.val.(*models.TrendResult)
			res.Tone = analytics.ToneFor(res.Trend.MeanScore, uc.cfg.SentimentThreshold)
		case PartAnomalies:
			res.Anomalies = it.val.(*models.AnomalyResult)
		case PartCorrelations:
			res.Correlations = it.val.([]models.CorrelationEntry)
		}
	}

	uc.metrics.RecordReport(req.CompanyID, len(res.Errors))
	if res.Anomalies != nil {
		uc.metrics.RecordAnomalies(req.CompanyID, res.Anomalies.Count)
	}
	if len(res.Errors) == 0 {
		res.Errors = nil
	}
	uc.store(ctx, key, res)
	uc.metrics.RecordLatency("sentiment_report", time.Since(start).Seconds())

	uc.l.Info("sentiment report ready",
		logger.String("company_id", req.CompanyID),
		logger.Int("rows", len(rows)),
		logger.Int("filings", len(dates)),
		logger.Int("failed_parts", len(res.Errors)),
		logger.Duration("duration_ms", time.Since(start)),
	)
	return res, nil
}

// applyDefaults fills zero fields from settings; tag defaults cover whatever settings leave at zero.
func (uc *SentimentReportUseCase) applyDefaults(req *models.ReportRequest) {
	if req.Days == 0 {
		req.Days = uc.cfg.Days
	}
	if req.TrendDays == 0 {
		req.TrendDays = uc.cfg.TrendDays
	}
	if req.Window == 0 {
		req.Window = uc.cfg.Window
	}
	if req.Threshold == 0 {
		req.Threshold = uc.cfg.Threshold
	}
	if req.DaysBefore == 0 {
		req.DaysBefore = uc.cfg.DaysBefore
	}
	if req.DaysAfter == 0 {
		req.DaysAfter = uc.cfg.DaysAfter
	}
}

// cacheKey includes the calendar day so a report is recomputed at least daily.
func (uc *SentimentReportUseCase) cacheKey(req *models.ReportRequest, now time.Time) string {
	return cache.Key("report", req.CompanyID, util.FormatDate(now.UTC()),
		strconv.Itoa(req.Days), strconv.Itoa(req.TrendDays), strconv.Itoa(req.Window),
		strconv.FormatFloat(req.Threshold, 'f', -1, 64),
		strconv.Itoa(req.DaysBefore), strconv.Itoa(req.DaysAfter))
}

func (uc *SentimentReportUseCase) cached(ctx context.Context, key string) (*models.CompanyReport, bool) {
	if uc.cache == nil {
		return nil, false
	}
	b, ok, err := uc.cache.GetBytes(ctx, key)
	if err != nil {
		uc.metrics.RecordError("cache_get")
		uc.l.Warn("report cache read failed", logger.String("key", key), logger.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var rep models.CompanyReport
	if err := json.Unmarshal(b, &rep); err != nil {
		return nil, false
	}
	return &rep, true
}

func (uc *SentimentReportUseCase) store(ctx context.Context, key string, rep *models.CompanyReport) {
	if uc.cache == nil || uc.cfg.CacheTTL <= 0 {
		return
	}
	b, err := json.Marshal(rep)
	if err != nil {
		return
	}
	if err := uc.cache.SetBytes(ctx, key, b, uc.cfg.CacheTTL); err != nil {
		uc.metrics.RecordError("cache_set")
		uc.l.Warn("report cache write failed", logger.String("key", key), logger.Error(err))
	}
}

// since keeps rows dated on or after from. rows arrive in date order.
func since(rows []models.SentimentRow, from time.Time) []models.SentimentRow {
	for i, r := range rows {
		if !r.Date.Before(from) {
			return rows[i:]
		}
	}
	return nil
}

func guard(fn func() (interface{}, error)) (v interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}
