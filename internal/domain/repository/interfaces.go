package repository

import (
	"context"
	"errors"
	"time"

	"FinSight/internal/domain/models"
)

// ErrNotFound is returned by stores when a lookup has no match.
var ErrNotFound = errors.New("not found")

// SentimentStore provides daily sentiment counts per company.
type SentimentStore interface {
	// GetSentiment returns rows with from <= date <= to, ordered by date ascending.
	GetSentiment(ctx context.Context, companyID string, from, to time.Time) ([]models.SentimentRow, error)
	SaveSentiment(ctx context.Context, companyID string, rows []models.SentimentRow) error
}

// FilingStore persists parsed filings and answers filing-date lookups.
type FilingStore interface {
	SaveFiling(ctx context.Context, rec FilingRecord) (string, error)
	FilingDates(ctx context.Context, companyID string, from, to time.Time) ([]time.Time, error)
}

// Storage is the full backend used by the app.
type Storage interface {
	SentimentStore
	FilingStore
	Init(ctx context.Context) error
	Health(ctx context.Context) error
	Close() error
}

// FilingRecord is a parsed filing with the intake attributes needed to store it.
type FilingRecord struct {
	CompanyID  string
	FilingType string
	FilingDate time.Time
	Filing     *models.ParsedFiling
}

// Publisher emits processing results.
type Publisher interface {
	PublishOutcome(ctx context.Context, o *models.FilingOutcome) error
	PublishReport(ctx context.Context, r *models.CompanyReport) error
	Close() error
}

type Metrics interface {
	RecordFilingParsed(format string, ok bool)
	RecordParseFailure(kind string)
	RecordReport(companyID string, partsFailed int)
	RecordAnomalies(companyID string, count int)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
