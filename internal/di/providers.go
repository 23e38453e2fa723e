package di

import (
	"context"
	"fmt"
	"time"

	"FinSight/internal/domain/repository"
	internalrepo "FinSight/internal/repository"
	"FinSight/internal/service/cache"
	"FinSight/internal/service/ratelimit"
	"FinSight/internal/services/analytics"
	"FinSight/internal/services/filing"
	"FinSight/internal/usecase"
	pkgch "FinSight/pkg/clickhouse"
	"FinSight/pkg/config"
	xhttp "FinSight/pkg/http"
	pkgkafka "FinSight/pkg/kafka"
	"FinSight/pkg/logger"
	"FinSight/pkg/metrics"
	pkgpg "FinSight/pkg/postgres"
	"FinSight/pkg/server"
)

const connectTimeout = 15 * time.Second

// ProvideLogger builds the application logger from the log section.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	l, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(logger.String("env", cfg.Environment)), nil
}

// ProvideMetrics registers the Prometheus recorder unless metrics are disabled.
func ProvideMetrics(cfg *config.Config) repository.Metrics {
	if cfg.Metrics.Disabled {
		return metrics.Nop{}
	}
	return metrics.New()
}

// ProvideStorage connects the configured backend and applies its schema when asked to.
func ProvideStorage(cfg *config.Config, l *logger.Logger) (repository.Storage, error) {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	var st repository.Storage
	switch cfg.Storage.Backend {
	case "postgres":
		client, err := pkgpg.NewClient(ctx, cfg.Postgres.DSN, cfg.Postgres.MaxConns, l)
		if err != nil {
			return nil, fmt.Errorf("postgres client: %w", err)
		}
		st = internalrepo.NewPGStorage(client, l)
	default:
		client, err := pkgch.NewClient(ctx,
			pkgch.WithAddr(cfg.ClickHouse.Host, cfg.ClickHouse.Port),
			pkgch.WithDatabase(cfg.ClickHouse.Database),
			pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
			pkgch.WithMaxConnections(cfg.ClickHouse.MaxOpenConns, cfg.ClickHouse.MaxOpenConns/2),
			pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
			pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
			pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
			pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
			pkgch.WithLogger(l),
		)
		if err != nil {
			return nil, fmt.Errorf("clickhouse client: %w", err)
		}
		st = internalrepo.NewCHStorage(client, l)
	}

	if cfg.Storage.InitSchema {
		if err := st.Init(ctx); err != nil {
			_ = st.Close()
			return nil, fmt.Errorf("%s schema: %w", cfg.Storage.Backend, err)
		}
	}
	return st, nil
}

func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	p := cfg.Kafka.Producer
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(p.Compression),
		pkgkafka.WithRequiredAcks(p.RequiredAcks),
		pkgkafka.WithMaxAttempts(p.MaxAttempts),
		pkgkafka.WithBatching(p.BatchSize, p.BatchBytes, p.Linger),
		pkgkafka.WithTimeouts(p.WriteTimeout, p.ReadTimeout),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

func ProvidePublisher(cfg *config.Config, producer *pkgkafka.Producer) repository.Publisher {
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.Topics.Outcomes, cfg.Kafka.Topics.Reports)
}

// ProvideParser builds the filing parser; unset pattern or namespace settings keep the built-in defaults.
func ProvideParser(cfg *config.Config) (*filing.Parser, error) {
	opts := []filing.Option{filing.WithWorkers(cfg.Parser.Workers)}

	if len(cfg.Parser.SectionPatterns) > 0 {
		specs := make([]filing.PatternSpec, len(cfg.Parser.SectionPatterns))
		for i, p := range cfg.Parser.SectionPatterns {
			specs[i] = filing.PatternSpec{Name: p.Name, Pattern: p.Pattern}
		}
		ps, err := filing.CompileSectionPatterns(specs)
		if err != nil {
			return nil, fmt.Errorf("section patterns: %w", err)
		}
		opts = append(opts, filing.WithSectionPatterns(ps))
	}

	ns := filing.DefaultNamespaces()
	if cfg.Parser.InstanceNamespace != "" {
		ns.Instance = cfg.Parser.InstanceNamespace
	}
	for prefix, uri := range cfg.Parser.Taxonomies {
		ns.Taxonomies[prefix] = uri
	}
	opts = append(opts, filing.WithNamespaces(ns))

	return filing.NewParser(opts...), nil
}

func ProvideAnalyzers() usecase.Analyzers {
	an := analytics.NewAnalyzer()
	return usecase.Analyzers{Trend: an, Detector: an, Correlator: an}
}

// ProvideCache returns Redis when enabled, otherwise the in-process TTL cache.
func ProvideCache(cfg *config.Config) (cache.BytesCache, error) {
	if !cfg.Redis.Enabled {
		return cache.NewTTLCache(), nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	return cache.NewRedisCache(ctx, cache.RedisConfig{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	return ratelimit.New(cfg.Analytics.ReportInterval, cfg.Analytics.ReportBurst)
}

func ProvideFilingIngest(cfg *config.Config, parser *filing.Parser, st repository.Storage, pub repository.Publisher,
	m repository.Metrics, l *logger.Logger) *usecase.FilingIngestUseCase {
	return usecase.NewFilingIngestUseCase(parser, st, pub, m, l, cfg.Parser.MaxDocumentBytes)
}

func ProvideSentimentReport(cfg *config.Config, st repository.Storage, an usecase.Analyzers, c cache.BytesCache,
	m repository.Metrics, l *logger.Logger) *usecase.SentimentReportUseCase {
	a := cfg.Analytics
	return usecase.NewSentimentReportUseCase(st, st, an, c, m, l, usecase.ReportSettings{
		Days:               a.AnomalyDays,
		TrendDays:          a.TrendDays,
		Window:             a.Window,
		Threshold:          a.Threshold,
		DaysBefore:         a.DaysBefore,
		DaysAfter:          a.DaysAfter,
		SentimentThreshold: a.SentimentThreshold,
		CacheTTL:           a.CacheTTL,
		Timeout:            a.Timeout,
	})
}

// ProvideHandlers lists one handler per intake topic.
func ProvideHandlers(cfg *config.Config, ingest *usecase.FilingIngestUseCase, report *usecase.SentimentReportUseCase,
	st repository.Storage, pub repository.Publisher, limiter *ratelimit.Limiter, m repository.Metrics,
	l *logger.Logger) []pkgkafka.MessageHandler {
	t := cfg.Kafka.Topics
	return []pkgkafka.MessageHandler{
		usecase.NewFilingIngestHandler(t.Filings, ingest),
		usecase.NewReportRequestHandler(t.ReportRequests, report, pub, limiter, m, l),
		usecase.NewSentimentIngestHandler(t.Sentiment, st, m, l),
	}
}

func ProvideKafkaConsumer(cfg *config.Config, l *logger.Logger) (*pkgkafka.Consumer, error) {
	c := cfg.Kafka.Consumer
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(c.GroupID),
		pkgkafka.WithConsumerWorkers(c.Workers),
		pkgkafka.WithConsumerBufferSize(c.BufferSize),
		pkgkafka.WithConsumerRetry(c.RetryMax, c.BackoffMin, c.BackoffMax),
		pkgkafka.WithConsumerDLQ(c.DLQTopic),
		pkgkafka.WithConsumerFetch(c.MinBytes, c.MaxBytes),
		pkgkafka.WithConsumerLogger(l),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideHealth registers readiness checks for the storage backend and, when it has one, the cache.
func ProvideHealth(st repository.Storage, c cache.BytesCache) *xhttp.HealthHandler {
	h := xhttp.NewHealthHandler(2 * time.Second)
	h.Register("storage", st)
	if hc, ok := c.(xhttp.Checker); ok {
		h.Register("cache", hc)
	}
	return h
}

func ProvideHTTPServer(cfg *config.Config, health *xhttp.HealthHandler, l *logger.Logger) *xhttp.Server {
	path := cfg.Metrics.Path
	if cfg.Metrics.Disabled {
		path = ""
	}
	return xhttp.NewServer([]xhttp.Handler{health},
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithMetrics(path, nil),
		xhttp.WithLogger(l),
	)
}

// ProvideApp assembles the app. Close order: publisher (flushes the producer), cache, storage.
func ProvideApp(cfg *config.Config, l *logger.Logger, consumer *pkgkafka.Consumer, handlers []pkgkafka.MessageHandler,
	httpServer *xhttp.Server, pub repository.Publisher, c cache.BytesCache, st repository.Storage) *server.App {
	return server.New(cfg, l, consumer, handlers, httpServer,
		server.Closer{Name: "publisher", Closer: pub},
		server.Closer{Name: "cache", Closer: c},
		server.Closer{Name: "storage", Closer: st},
	)
}
