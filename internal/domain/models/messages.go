package models

import "time"

// Message payloads for the intake and request topics. Tags drive defaults and validation.

type FilingMessage struct {
	FileID     string `json:"file_id" validate:"required"`
	CompanyID  string `json:"company_id" validate:"required"`
	FilingType string `json:"filing_type" default:"10-K" validate:"max=16"`
	Format     string `json:"format" validate:"omitempty,oneof=markup html htm xhtml xml xbrl plain text txt"`
	FilingDate string `json:"filing_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Content    []byte `json:"content" validate:"required"`
}

type ReportRequest struct {
	CompanyID  string  `json:"company_id" validate:"required"`
	Days       int     `json:"days" default:"90" validate:"gte=1,lte=3650"`
	TrendDays  int     `json:"trend_days" default:"30" validate:"gte=1,lte=3650"`
	Window     int     `json:"window" default:"14" validate:"gte=1,lte=365"`
	Threshold  float64 `json:"threshold" default:"2.0" validate:"gt=0,lte=10"`
	DaysBefore int     `json:"days_before" default:"7" validate:"gte=0,lte=365"`
	DaysAfter  int     `json:"days_after" default:"7" validate:"gte=0,lte=365"`
}

// Outcome statuses.
const (
	OutcomeOK     = "ok"
	OutcomeFailed = "failed"
)

// FilingOutcome is published once per processed filing.
type FilingOutcome struct {
	EventID     string    `json:"event_id"`
	FileID      string    `json:"file_id"`
	CompanyID   string    `json:"company_id"`
	Status      string    `json:"status"`
	FilingID    string    `json:"filing_id,omitempty"`
	Format      Format    `json:"format,omitempty"`
	ErrorKind   string    `json:"error_kind,omitempty"`
	Error       string    `json:"error,omitempty"`
	Sections    []string  `json:"sections,omitempty"`
	Tables      int       `json:"tables"`
	Facts       int       `json:"facts"`
	Contexts    int       `json:"contexts"`
	ProcessedAt time.Time `json:"processed_at"`
}

// SentimentBatch carries daily article counts for one company from the upstream scorer.
type SentimentBatch struct {
	CompanyID string              `json:"company_id" validate:"required"`
	Days      []SentimentDayCount `json:"days" validate:"required,min=1,dive"`
}

type SentimentDayCount struct {
	Date          string `json:"date" validate:"required,datetime=2006-01-02"`
	TotalArticles int    `json:"total_articles" validate:"gte=0"`
	PositiveCount int    `json:"positive_count" validate:"gte=0"`
	NegativeCount int    `json:"negative_count" validate:"gte=0"`
	NeutralCount  int    `json:"neutral_count" validate:"gte=0"`
}
