package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"FinSight/internal/domain/models"
	domrepo "FinSight/internal/domain/repository"
	pkgch "FinSight/pkg/clickhouse"
	applogger "FinSight/pkg/logger"
)

// CHStorage implements domain Storage on ClickHouse.
// daily_sentiment is a ReplacingMergeTree so re-sent days replace older rows on merge; reads use FINAL.
type CHStorage struct {
	client *pkgch.Client
	db     *sql.DB
	l      *applogger.Logger
	now    func() time.Time
}

var _ domrepo.Storage = (*CHStorage)(nil)

func NewCHStorage(ch *pkgch.Client, l *applogger.Logger) *CHStorage {
	if l == nil {
		l = applogger.Nop()
	}
	return &CHStorage{client: ch, db: ch.DB(), l: l, now: time.Now}
}

// ClickHouseSchema is applied by Init.
var ClickHouseSchema = []string{
	`CREATE DATABASE IF NOT EXISTS finsight`,
	`CREATE TABLE IF NOT EXISTS finsight.daily_sentiment (
        company_id     String,
        date           Date,
        total_articles UInt32,
        positive_count UInt32,
        negative_count UInt32,
        neutral_count  UInt32,
        updated_at     DateTime64(3)
    ) ENGINE = ReplacingMergeTree(updated_at)
    ORDER BY (company_id, date)`,
	`CREATE TABLE IF NOT EXISTS finsight.sec_filings (
        id             UUID,
        company_id     String,
        filing_type    LowCardinality(String),
        filing_date    Nullable(Date),
        file_id        String,
        format         LowCardinality(String),
        content_length UInt64,
        company_name   String,
        cik            String,
        sections       String,
        tables         UInt32,
        facts          String,
        created_at     DateTime64(3)
    ) ENGINE = ReplacingMergeTree(created_at)
    ORDER BY (company_id, id)`,
}

func (s *CHStorage) Init(ctx context.Context) error {
	return s.client.InitSchema(ctx, ClickHouseSchema)
}

func (s *CHStorage) GetSentiment(ctx context.Context, companyID string, from, to time.Time) ([]models.SentimentRow, error) {
	start := time.Now()
	const q = `
        SELECT date, total_articles, positive_count, negative_count, neutral_count
        FROM finsight.daily_sentiment FINAL
        WHERE company_id = ? AND date >= ? AND date <= ?
        ORDER BY date ASC
    `
	rows, err := s.db.QueryContext(ctx, q, companyID, from, to)
	if err != nil {
		s.l.Error("clickhouse get_sentiment query error", applogger.String("company_id", companyID), applogger.Error(err))
		return nil, fmt.Errorf("get sentiment: %w", err)
	}
	defer rows.Close()

	out := make([]models.SentimentRow, 0, 128)
	for rows.Next() {
		var (
			r                   models.SentimentRow
			total, pos, neg, nu uint32
		)
		if err := rows.Scan(&r.Date, &total, &pos, &neg, &nu); err != nil {
			s.l.Error("clickhouse get_sentiment scan error", applogger.String("company_id", companyID), applogger.Error(err))
			return nil, fmt.Errorf("scan sentiment: %w", err)
		}
		r.TotalArticles, r.PositiveCount, r.NegativeCount, r.NeutralCount = int(total), int(pos), int(neg), int(nu)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	s.l.Debug("clickhouse get_sentiment ok",
		applogger.String("company_id", companyID),
		applogger.Int("rows", len(out)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return out, nil
}

// SaveSentiment writes rows in one batch: prepare inside a transaction, exec per row, commit.
func (s *CHStorage) SaveSentiment(ctx context.Context, companyID string, rows []models.SentimentRow) error {
	if len(rows) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin sentiment batch: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO finsight.daily_sentiment
        (company_id, date, total_articles, positive_count, negative_count, neutral_count, updated_at)`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare sentiment batch: %w", err)
	}
	defer stmt.Close()

	now := s.now().UTC()
	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, companyID, r.Date,
			uint32(r.TotalArticles), uint32(r.PositiveCount), uint32(r.NegativeCount), uint32(r.NeutralCount), now); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("append sentiment row: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		s.l.Error("clickhouse save_sentiment commit error", applogger.String("company_id", companyID), applogger.Error(err))
		return fmt.Errorf("commit sentiment batch: %w", err)
	}
	return nil
}

// SaveFiling inserts with a row id derived from company and file; redelivered filings collapse on merge.
func (s *CHStorage) SaveFiling(ctx context.Context, rec domrepo.FilingRecord) (string, error) {
	row, err := newFilingRow(rec, s.now())
	if err != nil {
		return "", err
	}
	const q = `INSERT INTO finsight.sec_filings
        (id, company_id, filing_type, filing_date, file_id, format, content_length, company_name, cik, sections, tables, facts, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = s.db.ExecContext(ctx, q,
		row.ID, row.CompanyID, row.FilingType, row.FilingDate, row.FileID, row.Format,
		uint64(row.ContentLength), row.CompanyName, row.CIK, string(row.Sections), uint32(row.Tables), string(row.Facts), row.CreatedAt,
	)
	if err != nil {
		s.l.Error("clickhouse save_filing error",
			applogger.String("company_id", row.CompanyID),
			applogger.String("file_id", row.FileID),
			applogger.Error(err),
		)
		return "", fmt.Errorf("insert filing: %w", err)
	}
	return row.ID.String(), nil
}

func (s *CHStorage) FilingDates(ctx context.Context, companyID string, from, to time.Time) ([]time.Time, error) {
	const q = `
        SELECT DISTINCT assumeNotNull(filing_date) AS d
        FROM finsight.sec_filings
        WHERE company_id = ? AND filing_date IS NOT NULL AND filing_date >= ? AND filing_date <= ?
        ORDER BY d ASC
    `
	rows, err := s.db.QueryContext(ctx, q, companyID, from, to)
	if err != nil {
		return nil, fmt.Errorf("filing dates: %w", err)
	}
	defer rows.Close()

	var out []time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scan filing date: %w", err)
		}
		out = append(out, d.UTC())
	}
	return out, rows.Err()
}

func (s *CHStorage) Health(ctx context.Context) error { return s.client.Health(ctx) }

func (s *CHStorage) Close() error { return s.client.Close() }
