package server

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	drepo "SkyIndex/internal/domain/repository"
	internalrepo "SkyIndex/internal/repository"
	"SkyIndex/internal/service/quotes"
	"SkyIndex/internal/service/scheduler"
	"SkyIndex/internal/usecase"
	pkgch "SkyIndex/pkg/clickhouse"
	"SkyIndex/pkg/config"
	xhttp "SkyIndex/pkg/http"
	pkgkafka "SkyIndex/pkg/kafka"
	applogger "SkyIndex/pkg/logger"
	"SkyIndex/pkg/queue"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg         *config.Config
	calc        *usecase.Calculator
	scheduler   *scheduler.Scheduler
	book        *quotes.LiveBook
	consumer    *pkgkafka.Consumer
	kh          pkgkafka.MessageHandler
	chClient    *pkgch.Client
	archive     drepo.SnapshotArchive
	history     *internalrepo.MemoryHistory
	publisher   drepo.SnapshotPublisher
	jobQueue    *queue.RedisQueue
	httpServer  *xhttp.Server
	httpHandler xhttp.Handler
	logger      *applogger.Logger
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	calc *usecase.Calculator,
	sched *scheduler.Scheduler,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	chClient *pkgch.Client,
	l *applogger.Logger,
) *App {
	return &App{
		cfg:       cfg,
		calc:      calc,
		scheduler: sched,
		consumer:  consumer,
		kh:        kh,
		chClient:  chClient,
		logger:    l,
	}
}

// SetHTTPHandler allows DI to inject an HTTP handler.
func (a *App) SetHTTPHandler(h xhttp.Handler) { a.httpHandler = h }

// SetLiveBook wires the optional live quote stream.
func (a *App) SetLiveBook(b *quotes.LiveBook) { a.book = b }

// SetArchive wires the optional durable snapshot archive.
func (a *App) SetArchive(ar drepo.SnapshotArchive) { a.archive = ar }

// SetHistory wires the in-memory series so a restart can reload it
// from the archive.
func (a *App) SetHistory(h *internalrepo.MemoryHistory) { a.history = h }

// SetPublisher wires the optional snapshot publisher for shutdown handling.
func (a *App) SetPublisher(p drepo.SnapshotPublisher) { a.publisher = p }

// SetJobQueue wires the optional recalculation job queue.
func (a *App) SetJobQueue(q *queue.RedisQueue) { a.jobQueue = q }

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := a.logger
	if l == nil {
		l, _ = applogger.New(&applogger.Config{Level: "info", Format: "console", Output: "stdout"})
	}

	a.httpServer = xhttp.NewServer(a.httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	// Init archive schema and seed the in-memory history from it
	if a.archive != nil {
		if err := a.archive.Init(ctx); err != nil {
			l.Warn("snapshot archive init failed", applogger.Error(err))
		} else if a.history != nil {
			points, err := a.archive.Load(ctx, a.history.Capacity())
			if err != nil {
				l.Warn("history reload failed", applogger.Error(err))
			} else if len(points) > 0 {
				a.history.Preload(points)
				l.Info("history reloaded from archive", applogger.Int("points", len(points)))
			}
		}
	}

	// Start live quote stream
	if a.book != nil {
		go func() {
			if err := a.book.Start(ctx); err != nil {
				l.Error("quote stream start error", applogger.Error(err))
			}
		}()
		l.Info("quote stream starting", applogger.String("url", a.cfg.Quotes.WebSocketURL))
	}

	// Start headline consumer if configured
	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		go func() {
			if err := a.consumer.Start(); err != nil {
				l.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		l.Info("headline consumer started", applogger.String("topic", a.kh.Topic()))
	}

	// Start recalculation job queue if configured
	if a.jobQueue != nil {
		if err := a.jobQueue.Start(); err != nil {
			l.Warn("job queue start error", applogger.Error(err))
		} else {
			a.jobQueue.StartRetryProcessor()
			l.Info("recalculation job queue started")
		}
	}

	// First calculation up front so the API has data before the first tick
	go func() {
		if _, err := a.calc.Calculate(ctx); err != nil {
			l.Warn("initial calculation failed", applogger.Error(err))
		}
	}()

	// Start scheduler
	if a.scheduler != nil {
		if err := a.scheduler.Start(ctx); err != nil {
			l.Error("scheduler start error", applogger.Error(err))
			return err
		}
	}

	// Start HTTP server
	if err := a.httpServer.Start(); err != nil {
		l.Error("http server start error", applogger.Error(err))
		return err
	}
	l.Info("api listening", applogger.Int("port", a.cfg.Server.Port))

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	l.Info("shutdown signal received")
	return a.shutdown(ctx, l)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context, l *applogger.Logger) error {
	if l == nil {
		var err error
		l, err = applogger.New(&applogger.Config{Level: "info", Format: "console", Output: "stdout"})
		if err != nil {
			log.Printf("failed to create logger: %v", err)
			return err
		}
	}
	l.Info("shutting down...")

	if a.scheduler != nil {
		a.scheduler.Stop()
	}

	if a.book != nil {
		if err := a.book.Stop(); err != nil {
			l.Warn("quote stream stop error", applogger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		l.Error("http shutdown error", applogger.Error(err))
	}

	if a.jobQueue != nil {
		if err := a.jobQueue.Stop(shutdownCtx); err != nil {
			l.Warn("job queue stop error", applogger.Error(err))
		}
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			l.Warn("snapshot publisher close error", applogger.Error(err))
		}
	}

	if a.archive != nil {
		if err := a.archive.Close(); err != nil {
			l.Warn("snapshot archive close error", applogger.Error(err))
		}
	}

	l.Info("shutdown complete")
	return nil
}
