package di

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinSight/internal/domain/models"
	"FinSight/internal/domain/repository"
	"FinSight/internal/service/cache"
	"FinSight/pkg/config"
	"FinSight/pkg/metrics"
)

type nopStorage struct{}

func (nopStorage) GetSentiment(context.Context, string, time.Time, time.Time) ([]models.SentimentRow, error) {
	return nil, nil
}

func (nopStorage) SaveSentiment(context.Context, string, []models.SentimentRow) error { return nil }

func (nopStorage) SaveFiling(context.Context, repository.FilingRecord) (string, error) {
	return "id", nil
}

func (nopStorage) FilingDates(context.Context, string, time.Time, time.Time) ([]time.Time, error) {
	return nil, nil
}

func (nopStorage) Init(context.Context) error   { return nil }
func (nopStorage) Health(context.Context) error { return nil }
func (nopStorage) Close() error                 { return nil }

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.LoadWithEnv("")
	require.NoError(t, err)
	return cfg
}

func TestProvideParserUsesConfiguredPatterns(t *testing.T) {
	cfg := testConfig(t)
	cfg.Parser.SectionPatterns = []config.SectionPattern{{Name: "legal", Pattern: `ITEM\s*3\.?\s*LEGAL\s*PROCEEDINGS`}}

	p, err := ProvideParser(cfg)
	require.NoError(t, err)
	pf, err := p.Parse(models.FilingDocument{FileID: "x.txt", Content: []byte("ITEM 3. LEGAL PROCEEDINGS\nNone.")})
	require.NoError(t, err)
	assert.Equal(t, []string{"legal"}, pf.SectionNames())

	cfg.Parser.SectionPatterns = []config.SectionPattern{{Name: "bad", Pattern: "("}}
	_, err = ProvideParser(cfg)
	assert.Error(t, err)
}

func TestProvideHandlersCoversIntakeTopics(t *testing.T) {
	cfg := testConfig(t)
	cfg.Metrics.Disabled = true
	m := ProvideMetrics(cfg)
	assert.IsType(t, metrics.Nop{}, m)

	p, err := ProvideParser(cfg)
	require.NoError(t, err)
	st := nopStorage{}
	ingest := ProvideFilingIngest(cfg, p, st, nil, m, nil)
	report := ProvideSentimentReport(cfg, st, ProvideAnalyzers(), cache.NewTTLCache(), m, nil)

	hs := ProvideHandlers(cfg, ingest, report, st, nil, ProvideRateLimiter(cfg), m, nil)
	topics := make([]string, len(hs))
	for i, h := range hs {
		topics[i] = h.Topic()
	}
	assert.Equal(t, []string{"filings", "report-requests", "daily-sentiment"}, topics)
}

func TestProvideHealthSkipsCacheWithoutChecker(t *testing.T) {
	h := ProvideHealth(nopStorage{}, cache.NewTTLCache())
	results, ok := h.Check(context.Background())
	assert.True(t, ok)
	require.Len(t, results, 1)
	assert.Equal(t, "storage", results[0].Name)
}
