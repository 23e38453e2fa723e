package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentimentIngestStoresSortedRows(t *testing.T) {
	store, m := &fakeStore{}, newSpyMetrics()
	h := NewSentimentIngestHandler("daily-sentiment", store, m, nil)
	assert.Equal(t, "daily-sentiment", h.Topic())

	err := h.Handle(context.Background(), []byte(`{"company_id":"ACME","days":[
		{"date":"2024-03-02","total_articles":4,"positive_count":1,"negative_count":1,"neutral_count":2},
		{"date":"2024-03-01","total_articles":3,"positive_count":3},
		{"date":"2024-03-02","total_articles":5,"positive_count":5}
	]}`))
	require.NoError(t, err)

	rows := store.savedRows["ACME"]
	require.Len(t, rows, 2)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), rows[0].Date)
	assert.Equal(t, time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), rows[1].Date)
	assert.Equal(t, 5, rows[1].TotalArticles)
	assert.Equal(t, 5, rows[1].PositiveCount)
	assert.Empty(t, m.errors)
}

func TestSentimentIngestDropsInvalidBatches(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"missing company", `{"days":[{"date":"2024-03-01","total_articles":1}]}`},
		{"no days", `{"company_id":"ACME","days":[]}`},
		{"bad date", `{"company_id":"ACME","days":[{"date":"03/01/2024","total_articles":1}]}`},
		{"negative count", `{"company_id":"ACME","days":[{"date":"2024-03-01","total_articles":1,"negative_count":-1}]}`},
		{"counts exceed total", `{"company_id":"ACME","days":[{"date":"2024-03-01","total_articles":2,"positive_count":2,"neutral_count":1}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, m := &fakeStore{}, newSpyMetrics()
			h := NewSentimentIngestHandler("daily-sentiment", store, m, nil)

			require.NoError(t, h.Handle(context.Background(), []byte(tt.payload)))
			assert.Empty(t, store.savedRows)
			assert.Equal(t, 1, m.errors["invalid_sentiment_batch"])
		})
	}
}

func TestSentimentIngestRetryableErrors(t *testing.T) {
	h := NewSentimentIngestHandler("daily-sentiment", &fakeStore{saveErr: errStoreDown}, newSpyMetrics(), nil)
	err := h.Handle(context.Background(), []byte(`{"company_id":"ACME","days":[{"date":"2024-03-01","total_articles":1}]}`))
	require.ErrorIs(t, err, errStoreDown)

	assert.Error(t, h.Handle(context.Background(), []byte(`not json`)))
}
