package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"FinSight/pkg/config"
	xhttp "FinSight/pkg/http"
	pkgkafka "FinSight/pkg/kafka"
	"FinSight/pkg/logger"
)

// Consumer is the part of the Kafka consumer the app drives.
type Consumer interface {
	RegisterHandler(h pkgkafka.MessageHandler)
	SetHook(h pkgkafka.ConsumerHook)
	Start() error
	Stop(ctx context.Context) error
}

// Closer is a named resource released on shutdown.
type Closer struct {
	Name string
	io.Closer
}

// App owns the process lifecycle: Kafka handlers in, ops HTTP server out.
type App struct {
	cfg      *config.Config
	log      *logger.Logger
	consumer Consumer
	handlers []pkgkafka.MessageHandler
	http     *xhttp.Server
	closers  []Closer
}

// New builds the app. closers are released in order after the consumer and the
// HTTP server have stopped, so list producers before the stores they depend on.
func New(cfg *config.Config, l *logger.Logger, consumer Consumer, handlers []pkgkafka.MessageHandler,
	httpServer *xhttp.Server, closers ...Closer) *App {
	if l == nil {
		l = logger.Nop()
	}
	return &App{
		cfg:      cfg,
		log:      l.With(logger.String("component", "app")),
		consumer: consumer,
		handlers: handlers,
		http:     httpServer,
		closers:  closers,
	}
}

// Run starts everything and blocks until SIGINT, SIGTERM or ctx is done.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Start(); err != nil {
		a.shutdown(context.Background())
		return err
	}
	<-ctx.Done()

	a.log.Info("shutdown signal received")
	a.shutdown(context.Background())
	return nil
}

// Start registers the handlers and starts the consumer and the HTTP server.
func (a *App) Start() error {
	if a.consumer != nil {
		for _, h := range a.handlers {
			a.consumer.RegisterHandler(h)
		}
		a.consumer.SetHook(pkgkafka.TraceHook)
		if err := a.consumer.Start(); err != nil {
			return fmt.Errorf("start kafka consumer: %w", err)
		}
	}
	if a.http != nil {
		if err := a.http.Start(); err != nil {
			return fmt.Errorf("start http server: %w", err)
		}
	}
	a.log.Info("finsight started", logger.String("env", a.cfg.Environment), logger.Int("handlers", len(a.handlers)))
	return nil
}

// shutdown stops intake first so in-flight messages can still publish and store.
func (a *App) shutdown(ctx context.Context) {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if a.consumer != nil {
		if err := a.consumer.Stop(shutdownCtx); err != nil {
			a.log.Warn("kafka consumer stop error", logger.Error(err))
		}
	}
	if a.http != nil {
		if err := a.http.Stop(shutdownCtx); err != nil {
			a.log.Warn("http server stop error", logger.Error(err))
		}
	}

	var errs []error
	for _, c := range a.closers {
		if c.Closer == nil {
			continue
		}
		if err := c.Close(); err != nil {
			a.log.Warn("close failed", logger.String("resource", c.Name), logger.Error(err))
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		a.log.Warn("shutdown finished with errors", logger.Int("errors", len(errs)))
		return
	}
	a.log.Info("shutdown complete")
}
