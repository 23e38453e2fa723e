package models

import "time"

// SentimentRow holds one day of article sentiment counts for a company.
type SentimentRow struct {
	Date          time.Time `json:"date"`
	TotalArticles int       `json:"total_articles"`
	PositiveCount int       `json:"positive_count"`
	NegativeCount int       `json:"negative_count"`
	NeutralCount  int       `json:"neutral_count"`
}

// Direction of the latest score move.
type Direction string

const (
	DirectionUp     Direction = "up"
	DirectionDown   Direction = "down"
	DirectionStable Direction = "stable"
)

// ScoredRow is a sentiment row annotated with its score and moving averages.
// A nil average means the window had not filled yet.
type ScoredRow struct {
	SentimentRow
	Score  float64  `json:"score"`
	MA7    *float64 `json:"ma_7,omitempty"`
	MALong *float64 `json:"ma_long,omitempty"`
}

type TrendResult struct {
	Direction    Direction   `json:"direction"`
	CurrentScore float64     `json:"current_score"`
	MeanScore    float64     `json:"mean_score"`
	StdDev       float64     `json:"std_dev"`
	LongWindow   int         `json:"long_window"`
	Series       []ScoredRow `json:"series"`
}

// AnomalyRow carries the trailing window statistics for one row.
type AnomalyRow struct {
	SentimentRow
	Score       float64  `json:"score"`
	RollingMean *float64 `json:"rolling_mean,omitempty"`
	RollingStd  *float64 `json:"rolling_std,omitempty"`
	Anomaly     bool     `json:"anomaly"`
}

type AnomalyPoint struct {
	Date  time.Time `json:"date"`
	Score float64   `json:"score"`
}

type AnomalyResult struct {
	Window    int            `json:"window"`
	Threshold float64        `json:"threshold"`
	Count     int            `json:"count"`
	Anomalies []AnomalyPoint `json:"anomalies"`
	Series    []AnomalyRow   `json:"series"`
}

// CorrelationEntry compares mean sentiment before and after one filing date.
type CorrelationEntry struct {
	FilingDate     time.Time `json:"filing_date"`
	PreMean        float64   `json:"pre_filing_sentiment"`
	PostMean       float64   `json:"post_filing_sentiment"`
	Diff           float64   `json:"sentiment_change"`
	DataPoints     int       `json:"data_points"`
	PreDataPoints  int       `json:"pre_data_points"`
	PostDataPoints int       `json:"post_data_points"`
}

// Tone labels the overall sentiment of a report.
type Tone string

const (
	TonePositive Tone = "positive"
	ToneNegative Tone = "negative"
	ToneNeutral  Tone = "neutral"
)

// CompanyReport aggregates every analysis for one company. Parts that failed are listed in Errors.
type CompanyReport struct {
	CompanyID    string             `json:"company_id"`
	GeneratedAt  time.Time          `json:"generated_at"`
	From         time.Time          `json:"from"`
	To           time.Time          `json:"to"`
	Tone         Tone               `json:"tone,omitempty"`
	Trend        *TrendResult       `json:"trend,omitempty"`
	Anomalies    *AnomalyResult     `json:"anomalies,omitempty"`
	Correlations []CorrelationEntry `json:"correlations,omitempty"`
	Errors       map[string]string  `json:"errors,omitempty"`
}
