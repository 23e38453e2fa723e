package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinSight/internal/service/ratelimit"
)

func newReportHandler(store *fakeStore, pub *fakePublisher, m *spyMetrics, limiter *ratelimit.Limiter) *ReportRequestHandler {
	return NewReportRequestHandler("report-requests", newReport(store, nil, m), pub, limiter, m, nil)
}

func TestReportRequestHandlerPublishes(t *testing.T) {
	pub := &fakePublisher{}
	h := newReportHandler(&fakeStore{rows: steadyRows(30, -1)}, pub, newSpyMetrics(), nil)
	assert.Equal(t, "report-requests", h.Topic())

	require.NoError(t, h.Handle(context.Background(), []byte(`{"company_id":"ACME","days":30}`)))
	require.Len(t, pub.reports, 1)
	assert.Equal(t, "ACME", pub.reports[0].CompanyID)
	assert.NotNil(t, pub.reports[0].Trend)
}

func TestReportRequestHandlerThrottlesPerCompany(t *testing.T) {
	pub, m := &fakePublisher{}, newSpyMetrics()
	h := newReportHandler(&fakeStore{rows: steadyRows(30, -1)}, pub, m, ratelimit.New(time.Hour, 1))

	for i := 0; i < 3; i++ {
		require.NoError(t, h.Handle(context.Background(), []byte(`{"company_id":"ACME"}`)))
	}
	require.NoError(t, h.Handle(context.Background(), []byte(`{"company_id":"INIT"}`)))

	require.Len(t, pub.reports, 2)
	assert.Equal(t, "ACME", pub.reports[0].CompanyID)
	assert.Equal(t, "INIT", pub.reports[1].CompanyID)
	assert.Equal(t, 2, m.errors["report_rate_limited"])
}

func TestReportRequestHandlerDropsInvalidRequests(t *testing.T) {
	pub, m := &fakePublisher{}, newSpyMetrics()
	h := newReportHandler(&fakeStore{}, pub, m, nil)

	require.NoError(t, h.Handle(context.Background(), []byte(`{"company_id":""}`)))
	require.NoError(t, h.Handle(context.Background(), []byte(`{"company_id":"ACME","threshold":-2}`)))
	assert.Empty(t, pub.reports)
	assert.Equal(t, 2, m.errors["invalid_report_request"])
}

func TestReportRequestHandlerErrors(t *testing.T) {
	t.Run("bad json", func(t *testing.T) {
		m := newSpyMetrics()
		h := newReportHandler(&fakeStore{}, &fakePublisher{}, m, nil)
		assert.Error(t, h.Handle(context.Background(), []byte(`{`)))
		assert.Equal(t, 1, m.errors["consumer_unmarshal"])
	})
	t.Run("store down", func(t *testing.T) {
		h := newReportHandler(&fakeStore{sentErr: errStoreDown}, &fakePublisher{}, newSpyMetrics(), nil)
		err := h.Handle(context.Background(), []byte(`{"company_id":"ACME"}`))
		assert.True(t, errors.Is(err, errStoreDown))
	})
	t.Run("publish fails", func(t *testing.T) {
		m := newSpyMetrics()
		h := newReportHandler(&fakeStore{}, &fakePublisher{err: errStoreDown}, m, nil)
		err := h.Handle(context.Background(), []byte(`{"company_id":"ACME"}`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "publish report for ACME")
		assert.Equal(t, 1, m.errors["publish_report"])
	})
}
