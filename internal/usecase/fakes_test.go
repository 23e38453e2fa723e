package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"FinSight/internal/domain/models"
	domrepo "FinSight/internal/domain/repository"
)

var errStoreDown = errors.New("store down")

type fakeStore struct {
	mu        sync.Mutex
	rows      []models.SentimentRow
	dates     []time.Time
	datesErr  error
	sentErr   error
	saveErr   error
	saved     []domrepo.FilingRecord
	savedRows map[string][]models.SentimentRow
	sentCalls int
	lastFrom  time.Time
	lastTo    time.Time
}

func (s *fakeStore) GetSentiment(_ context.Context, _ string, from, to time.Time) ([]models.SentimentRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sentCalls++
	s.lastFrom, s.lastTo = from, to
	if s.sentErr != nil {
		return nil, s.sentErr
	}
	var out []models.SentimentRow
	for _, r := range s.rows {
		if !r.Date.Before(from) && !r.Date.After(to) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *fakeStore) SaveSentiment(_ context.Context, companyID string, rows []models.SentimentRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	if s.savedRows == nil {
		s.savedRows = map[string][]models.SentimentRow{}
	}
	s.savedRows[companyID] = append(s.savedRows[companyID], rows...)
	return nil
}

func (s *fakeStore) SaveFiling(_ context.Context, rec domrepo.FilingRecord) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return "", s.saveErr
	}
	// Upsert on company and file, like both real backends.
	for i, prev := range s.saved {
		if prev.CompanyID == rec.CompanyID && prev.Filing.FileID == rec.Filing.FileID {
			s.saved[i] = rec
			return fmt.Sprintf("filing-%d", i+1), nil
		}
	}
	s.saved = append(s.saved, rec)
	return fmt.Sprintf("filing-%d", len(s.saved)), nil
}

func (s *fakeStore) FilingDates(context.Context, string, time.Time, time.Time) ([]time.Time, error) {
	return s.dates, s.datesErr
}

type fakePublisher struct {
	mu       sync.Mutex
	outcomes []*models.FilingOutcome
	reports  []*models.CompanyReport
	err      error
}

func (p *fakePublisher) PublishOutcome(_ context.Context, o *models.FilingOutcome) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.outcomes = append(p.outcomes, o)
	return nil
}

func (p *fakePublisher) PublishReport(_ context.Context, r *models.CompanyReport) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.reports = append(p.reports, r)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

type spyMetrics struct {
	mu       sync.Mutex
	parsed   map[string]int
	failures map[string]int
	errors   map[string]int
	reports  int
	failed   int
}

func newSpyMetrics() *spyMetrics {
	return &spyMetrics{parsed: map[string]int{}, failures: map[string]int{}, errors: map[string]int{}}
}

func (m *spyMetrics) RecordFilingParsed(format string, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ok {
		m.parsed[format]++
	}
}

func (m *spyMetrics) RecordParseFailure(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[kind]++
}

func (m *spyMetrics) RecordReport(_ string, partsFailed int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports++
	m.failed += partsFailed
}

func (m *spyMetrics) RecordAnomalies(string, int) {}

func (m *spyMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[kind]++
}

func (m *spyMetrics) RecordLatency(string, float64) {}

func day(base time.Time, n int) time.Time { return base.AddDate(0, 0, n) }
