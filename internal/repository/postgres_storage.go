package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"FinSight/internal/domain/models"
	domrepo "FinSight/internal/domain/repository"
	applogger "FinSight/pkg/logger"
	pkgpg "FinSight/pkg/postgres"
)

// PGStorage implements domain Storage on PostgreSQL.
type PGStorage struct {
	client *pkgpg.Client
	pool   *pgxpool.Pool
	l      *applogger.Logger
	now    func() time.Time
}

var _ domrepo.Storage = (*PGStorage)(nil)

func NewPGStorage(c *pkgpg.Client, l *applogger.Logger) *PGStorage {
	if l == nil {
		l = applogger.Nop()
	}
	return &PGStorage{client: c, pool: c.Pool(), l: l, now: time.Now}
}

var PostgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS daily_sentiment (
        company_id     TEXT NOT NULL,
        date           DATE NOT NULL,
        total_articles INTEGER NOT NULL DEFAULT 0,
        positive_count INTEGER NOT NULL DEFAULT 0,
        negative_count INTEGER NOT NULL DEFAULT 0,
        neutral_count  INTEGER NOT NULL DEFAULT 0,
        updated_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
        PRIMARY KEY (company_id, date)
    )`,
	`CREATE TABLE IF NOT EXISTS sec_filings (
        id             UUID PRIMARY KEY,
        company_id     TEXT NOT NULL,
        filing_type    TEXT NOT NULL,
        filing_date    DATE,
        file_id        TEXT NOT NULL,
        format         TEXT NOT NULL,
        content_length BIGINT NOT NULL,
        company_name   TEXT NOT NULL DEFAULT '',
        cik            TEXT NOT NULL DEFAULT '',
        sections       JSONB NOT NULL,
        tables         INTEGER NOT NULL DEFAULT 0,
        facts          JSONB NOT NULL,
        created_at     TIMESTAMPTZ NOT NULL
    )`,
	`CREATE INDEX IF NOT EXISTS sec_filings_company_date_idx ON sec_filings (company_id, filing_date)`,
}

func (s *PGStorage) Init(ctx context.Context) error {
	return s.client.InitSchema(ctx, PostgresSchema)
}

func (s *PGStorage) GetSentiment(ctx context.Context, companyID string, from, to time.Time) ([]models.SentimentRow, error) {
	const q = `
        SELECT date, total_articles, positive_count, negative_count, neutral_count
        FROM daily_sentiment
        WHERE company_id = $1 AND date BETWEEN $2 AND $3
        ORDER BY date ASC
    `
	rows, err := s.pool.Query(ctx, q, companyID, from, to)
	if err != nil {
		s.l.Error("postgres get_sentiment query error", applogger.String("company_id", companyID), applogger.Error(err))
		return nil, fmt.Errorf("get sentiment: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.SentimentRow, error) {
		var r models.SentimentRow
		err := row.Scan(&r.Date, &r.TotalArticles, &r.PositiveCount, &r.NegativeCount, &r.NeutralCount)
		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan sentiment: %w", err)
	}
	return out, nil
}

// SaveSentiment upserts one row per (company, date) in a single batch round trip.
func (s *PGStorage) SaveSentiment(ctx context.Context, companyID string, rows []models.SentimentRow) error {
	if len(rows) == 0 {
		return nil
	}
	const q = `
        INSERT INTO daily_sentiment (company_id, date, total_articles, positive_count, negative_count, neutral_count, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        ON CONFLICT (company_id, date) DO UPDATE SET
            total_articles = EXCLUDED.total_articles,
            positive_count = EXCLUDED.positive_count,
            negative_count = EXCLUDED.negative_count,
            neutral_count  = EXCLUDED.neutral_count,
            updated_at     = EXCLUDED.updated_at
    `
	now := s.now().UTC()
	b := &pgx.Batch{}
	for _, r := range rows {
		b.Queue(q, companyID, r.Date, r.TotalArticles, r.PositiveCount, r.NegativeCount, r.NeutralCount, now)
	}
	if err := s.pool.SendBatch(ctx, b).Close(); err != nil {
		s.l.Error("postgres save_sentiment error",
			applogger.String("company_id", companyID),
			applogger.Int("rows", len(rows)),
			applogger.Error(err),
		)
		return fmt.Errorf("save sentiment: %w", err)
	}
	return nil
}

// SaveFiling upserts on the row id, which is derived from company and file.
func (s *PGStorage) SaveFiling(ctx context.Context, rec domrepo.FilingRecord) (string, error) {
	row, err := newFilingRow(rec, s.now())
	if err != nil {
		return "", err
	}
	const q = `
        INSERT INTO sec_filings
            (id, company_id, filing_type, filing_date, file_id, format, content_length, company_name, cik, sections, tables, facts, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
        ON CONFLICT (id) DO UPDATE SET
            filing_type    = EXCLUDED.filing_type,
            filing_date    = EXCLUDED.filing_date,
            format         = EXCLUDED.format,
            content_length = EXCLUDED.content_length,
            company_name   = EXCLUDED.company_name,
            cik            = EXCLUDED.cik,
            sections       = EXCLUDED.sections,
            tables         = EXCLUDED.tables,
            facts          = EXCLUDED.facts
    `
	_, err = s.pool.Exec(ctx, q,
		row.ID.String(), row.CompanyID, row.FilingType, row.FilingDate, row.FileID, row.Format,
		int64(row.ContentLength), row.CompanyName, row.CIK, string(row.Sections), row.Tables, string(row.Facts), row.CreatedAt,
	)
	if err != nil {
		s.l.Error("postgres save_filing error",
			applogger.String("company_id", row.CompanyID),
			applogger.String("file_id", row.FileID),
			applogger.Error(err),
		)
		return "", fmt.Errorf("insert filing: %w", err)
	}
	return row.ID.String(), nil
}

func (s *PGStorage) FilingDates(ctx context.Context, companyID string, from, to time.Time) ([]time.Time, error) {
	const q = `
        SELECT DISTINCT filing_date
        FROM sec_filings
        WHERE company_id = $1 AND filing_date BETWEEN $2 AND $3
        ORDER BY filing_date ASC
    `
	rows, err := s.pool.Query(ctx, q, companyID, from, to)
	if err != nil {
		return nil, fmt.Errorf("filing dates: %w", err)
	}
	dates, err := pgx.CollectRows(rows, pgx.RowTo[time.Time])
	if err != nil {
		return nil, fmt.Errorf("scan filing date: %w", err)
	}
	for i := range dates {
		dates[i] = dates[i].UTC()
	}
	return dates, nil
}

func (s *PGStorage) Health(ctx context.Context) error { return s.client.Health(ctx) }

func (s *PGStorage) Close() error { return s.client.Close() }
