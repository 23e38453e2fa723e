package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"FinSight/internal/domain/models"
	domrepo "FinSight/internal/domain/repository"
	pkgkafka "FinSight/pkg/kafka"
	"FinSight/pkg/logger"
	"FinSight/pkg/util"
	"FinSight/pkg/validate"
)

// SentimentIngestHandler stores daily sentiment counts published by the upstream scorer.
// Invalid batches are logged and dropped; storage errors go back to the consumer for retry.
type SentimentIngestHandler struct {
	topic   string
	store   domrepo.SentimentStore
	metrics domrepo.Metrics
	l       *logger.Logger
}

func NewSentimentIngestHandler(topic string, store domrepo.SentimentStore, metrics domrepo.Metrics, l *logger.Logger) *SentimentIngestHandler {
	if l == nil {
		l = logger.Nop()
	}
	return &SentimentIngestHandler{topic: topic, store: store, metrics: metrics, l: l.With(logger.String("component", "sentiment_ingest"))}
}

func (h *SentimentIngestHandler) Topic() string { return h.topic }

func (h *SentimentIngestHandler) Handle(ctx context.Context, b []byte) error {
	var batch models.SentimentBatch
	if err := json.Unmarshal(b, &batch); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return fmt.Errorf("decode sentiment batch: %w", err)
	}
	rows, err := sentimentRows(ctx, &batch)
	if err != nil {
		h.metrics.RecordError("invalid_sentiment_batch")
		h.l.Warn("sentiment batch rejected", logger.String("company_id", batch.CompanyID), logger.Error(err))
		return nil
	}

	start := time.Now()
	if err := h.store.SaveSentiment(ctx, batch.CompanyID, rows); err != nil {
		h.metrics.RecordError("store_sentiment")
		return fmt.Errorf("save sentiment for %s: %w", batch.CompanyID, err)
	}
	h.metrics.RecordLatency("store_sentiment", time.Since(start).Seconds())
	h.l.Debug("sentiment stored", logger.String("company_id", batch.CompanyID), logger.Int("rows", len(rows)))
	return nil
}

var errCountsExceedTotal = errors.New("positive + negative + neutral exceeds total_articles")

// sentimentRows validates the batch and returns rows in date order, last entry winning per date.
func sentimentRows(ctx context.Context, batch *models.SentimentBatch) ([]models.SentimentRow, error) {
	if err := validate.Struct(ctx, batch); err != nil {
		return nil, err
	}
	byDate := make(map[time.Time]models.SentimentRow, len(batch.Days))
	for _, d := range batch.Days {
		if d.PositiveCount+d.NegativeCount+d.NeutralCount > d.TotalArticles {
			return nil, fmt.Errorf("%s: %w", d.Date, errCountsExceedTotal)
		}
		date, _ := util.ParseDate(d.Date)
		byDate[date] = models.SentimentRow{
			Date:          date,
			TotalArticles: d.TotalArticles,
			PositiveCount: d.PositiveCount,
			NegativeCount: d.NegativeCount,
			NeutralCount:  d.NeutralCount,
		}
	}
	rows := make([]models.SentimentRow, 0, len(byDate))
	for _, r := range byDate {
		rows = append(rows, r)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) })
	return rows, nil
}

var _ pkgkafka.MessageHandler = (*SentimentIngestHandler)(nil)
