package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"FinSight/internal/domain/models"
	domrepo "FinSight/internal/domain/repository"
	domsvc "FinSight/internal/domain/service"
	"FinSight/internal/services/filing"
	pkgkafka "FinSight/pkg/kafka"
	"FinSight/pkg/logger"
	"FinSight/pkg/util"
	"FinSight/pkg/validate"
)

// Outcome error kinds raised before the parser runs.
const (
	KindInvalidMessage = "invalid_message"
	KindTooLarge       = "too_large"
)

// FilingIngestUseCase parses one filing, stores it and publishes the outcome.
// Parse failures are terminal: they produce a failed outcome and a nil error.
// Storage and publish failures are returned so the caller can retry.
type FilingIngestUseCase struct {
	parser   domsvc.FilingParser
	store    domrepo.FilingStore
	pub      domrepo.Publisher
	metrics  domrepo.Metrics
	l        *logger.Logger
	maxBytes int
	now      func() time.Time
}

func NewFilingIngestUseCase(parser domsvc.FilingParser, store domrepo.FilingStore, pub domrepo.Publisher,
	metrics domrepo.Metrics, l *logger.Logger, maxBytes int) *FilingIngestUseCase {
	if l == nil {
		l = logger.Nop()
	}
	return &FilingIngestUseCase{
		parser:   parser,
		store:    store,
		pub:      pub,
		metrics:  metrics,
		l:        l.With(logger.String("component", "filing_ingest")),
		maxBytes: maxBytes,
		now:      time.Now,
	}
}

func (uc *FilingIngestUseCase) Ingest(ctx context.Context, msg *models.FilingMessage) (*models.FilingOutcome, error) {
	start := uc.now()
	defer func() { uc.metrics.RecordLatency("filing_ingest", time.Since(start).Seconds()) }()

	out := &models.FilingOutcome{
		EventID:   uuid.NewString(),
		FileID:    msg.FileID,
		CompanyID: msg.CompanyID,
	}

	if err := validate.Struct(ctx, msg); err != nil {
		return out, uc.fail(ctx, out, KindInvalidMessage, err)
	}
	if uc.maxBytes > 0 && len(msg.Content) > uc.maxBytes {
		return out, uc.fail(ctx, out, KindTooLarge,
			fmt.Errorf("document is %d bytes, limit is %d", len(msg.Content), uc.maxBytes))
	}

	doc := models.FilingDocument{FileID: msg.FileID, Format: models.ParseFormat(msg.Format), Content: msg.Content}
	parsed, err := uc.parser.Parse(doc)
	if err != nil {
		kind := string(filing.KindInternal)
		if pe, ok := filing.AsParseError(err); ok {
			kind = string(pe.Kind)
		}
		uc.metrics.RecordParseFailure(kind)
		uc.metrics.RecordFilingParsed(string(doc.Format), false)
		return out, uc.fail(ctx, out, kind, err)
	}
	uc.metrics.RecordFilingParsed(string(parsed.Format), true)

	rec := domrepo.FilingRecord{
		CompanyID:  msg.CompanyID,
		FilingType: msg.FilingType,
		FilingDate: filingDate(msg, parsed),
		Filing:     parsed,
	}
	id, err := uc.store.SaveFiling(ctx, rec)
	if err != nil {
		uc.metrics.RecordError("store_filing")
		uc.l.Error("save filing failed",
			logger.String("file_id", msg.FileID),
			logger.String("company_id", msg.CompanyID),
			logger.Error(err),
		)
		return nil, fmt.Errorf("save filing %s: %w", msg.FileID, err)
	}

	out.Status = models.OutcomeOK
	out.FilingID = id
	out.Format = parsed.Format
	out.Sections = parsed.SectionNames()
	out.Tables = len(parsed.Tables)
	out.Facts = len(parsed.Facts)
	out.Contexts = len(parsed.Contexts)
	out.ProcessedAt = uc.now().UTC()
	if err := uc.publish(ctx, out); err != nil {
		return nil, err
	}

	uc.l.Info("filing ingested",
		logger.String("file_id", msg.FileID),
		logger.String("company_id", msg.CompanyID),
		logger.String("filing_id", id),
		logger.String("format", string(parsed.Format)),
		logger.Int("sections", len(out.Sections)),
		logger.Int("tables", out.Tables),
		logger.Int("facts", out.Facts),
		logger.Duration("duration_ms", time.Since(start)),
	)
	return out, nil
}

// fail publishes a terminal failed outcome. Only a publish error is returned.
func (uc *FilingIngestUseCase) fail(ctx context.Context, out *models.FilingOutcome, kind string, cause error) error {
	out.Status = models.OutcomeFailed
	out.ErrorKind = kind
	out.Error = cause.Error()
	out.ProcessedAt = uc.now().UTC()
	uc.l.Warn("filing rejected",
		logger.String("file_id", out.FileID),
		logger.String("company_id", out.CompanyID),
		logger.String("error_kind", kind),
		logger.Error(cause),
	)
	return uc.publish(ctx, out)
}

func (uc *FilingIngestUseCase) publish(ctx context.Context, out *models.FilingOutcome) error {
	if err := uc.pub.PublishOutcome(ctx, out); err != nil {
		uc.metrics.RecordError("publish_outcome")
		return fmt.Errorf("publish outcome for %s: %w", out.FileID, err)
	}
	return nil
}

// filingDate prefers the message date, then the date found in the document.
func filingDate(msg *models.FilingMessage, parsed *models.ParsedFiling) time.Time {
	if t, ok := util.ParseDate(msg.FilingDate); ok {
		return t
	}
	if t, ok := util.ParseDate(parsed.Metadata.FilingDate); ok {
		return t
	}
	return time.Time{}
}

// FilingIngestHandler feeds the filings topic into FilingIngestUseCase.
type FilingIngestHandler struct {
	topic string
	uc    *FilingIngestUseCase
}

func NewFilingIngestHandler(topic string, uc *FilingIngestUseCase) *FilingIngestHandler {
	return &FilingIngestHandler{topic: topic, uc: uc}
}

func (h *FilingIngestHandler) Topic() string { return h.topic }

// Handle decodes {file_id, company_id, format, filing_date, content(base64)}.
// Undecodable JSON is returned as an error so the consumer routes it to the DLQ.
func (h *FilingIngestHandler) Handle(ctx context.Context, b []byte) error {
	var msg models.FilingMessage
	if err := json.Unmarshal(b, &msg); err != nil {
		h.uc.metrics.RecordError("consumer_unmarshal")
		return fmt.Errorf("decode filing message: %w", err)
	}
	if tid := pkgkafka.TraceID(ctx); tid != "" {
		h.uc.l.Debug("filing message received", logger.String("trace_id", tid), logger.String("file_id", msg.FileID))
	}
	_, err := h.uc.Ingest(ctx, &msg)
	return err
}

var _ pkgkafka.MessageHandler = (*FilingIngestHandler)(nil)

