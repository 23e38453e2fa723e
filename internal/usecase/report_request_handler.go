package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"FinSight/internal/domain/models"
	domrepo "FinSight/internal/domain/repository"
	"FinSight/internal/service/ratelimit"
	pkgkafka "FinSight/pkg/kafka"
	"FinSight/pkg/logger"
	"FinSight/pkg/validate"
)

// ReportRequestHandler answers report requests from Kafka by publishing a CompanyReport.
// Requests over the per-company rate are dropped; the previous report is still on the reports topic.
type ReportRequestHandler struct {
	topic   string
	uc      *SentimentReportUseCase
	pub     domrepo.Publisher
	limiter *ratelimit.Limiter
	metrics domrepo.Metrics
	l       *logger.Logger
}

func NewReportRequestHandler(topic string, uc *SentimentReportUseCase, pub domrepo.Publisher,
	limiter *ratelimit.Limiter, metrics domrepo.Metrics, l *logger.Logger) *ReportRequestHandler {
	if l == nil {
		l = logger.Nop()
	}
	return &ReportRequestHandler{
		topic:   topic,
		uc:      uc,
		pub:     pub,
		limiter: limiter,
		metrics: metrics,
		l:       l.With(logger.String("component", "report_requests")),
	}
}

func (h *ReportRequestHandler) Topic() string { return h.topic }

func (h *ReportRequestHandler) Handle(ctx context.Context, b []byte) error {
	var req models.ReportRequest
	if err := json.Unmarshal(b, &req); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return fmt.Errorf("decode report request: %w", err)
	}
	if !h.limiter.Allow(req.CompanyID) {
		h.metrics.RecordError("report_rate_limited")
		h.l.Warn("report request throttled", logger.String("company_id", req.CompanyID))
		return nil
	}

	rep, err := h.uc.Report(ctx, &req)
	if err != nil {
		var verrs validate.Errors
		if errors.As(err, &verrs) {
			// retrying cannot fix a bad request
			h.metrics.RecordError("invalid_report_request")
			h.l.Warn("invalid report request", logger.Strings("codes", verrs.Codes()), logger.Error(err))
			return nil
		}
		return err
	}
	if err := h.pub.PublishReport(ctx, rep); err != nil {
		h.metrics.RecordError("publish_report")
		return fmt.Errorf("publish report for %s: %w", rep.CompanyID, err)
	}
	return nil
}

var _ pkgkafka.MessageHandler = (*ReportRequestHandler)(nil)
