package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"StratForge/internal/domain/models"
	domrepo "StratForge/internal/domain/repository"
	"StratForge/internal/strategy"
	"StratForge/internal/usecase"
	pkgch "StratForge/pkg/clickhouse"
	"StratForge/pkg/config"
	xhttp "StratForge/pkg/http"
	pkgkafka "StratForge/pkg/kafka"
	applogger "StratForge/pkg/logger"
)

// App encapsulates the entire application lifecycle. One binary covers three
// modes: serve (HTTP API plus candle ingestion), train and backtest.
type App struct {
	cfg         *config.Config
	log         *applogger.Logger
	loader      *strategy.Loader
	training    *usecase.TrainingRunner
	backtest    *usecase.BacktestRunner
	consumer    *pkgkafka.Consumer
	kh          pkgkafka.MessageHandler
	chClient    *pkgch.Client
	sink        domrepo.FeatureSink
	publisher   domrepo.FeaturePublisher
	httpServer  *xhttp.Server
	httpHandler xhttp.Handler
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	loader *strategy.Loader,
	training *usecase.TrainingRunner,
	backtest *usecase.BacktestRunner,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	chClient *pkgch.Client,
	sink domrepo.FeatureSink,
	publisher domrepo.FeaturePublisher,
) *App {
	return &App{
		cfg:       cfg,
		log:       log,
		loader:    loader,
		training:  training,
		backtest:  backtest,
		consumer:  consumer,
		kh:        kh,
		chClient:  chClient,
		sink:      sink,
		publisher: publisher,
	}
}

// SetHTTPHandler allows DI to inject an HTTP handler.
func (a *App) SetHTTPHandler(h xhttp.Handler) { a.httpHandler = h }

// Run starts the serve mode and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.httpServer = xhttp.NewServer(a.httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithRequestMetrics(a.log, time.Second),
	)

	// Start candle consumer if configured
	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		go func() {
			if err := a.consumer.Start(); err != nil {
				a.log.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		a.log.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	// Start HTTP server
	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// RunTraining loads the configured strategy and executes one training run.
func (a *App) RunTraining(ctx context.Context, runID string, from, to time.Time) error {
	defer a.closeInfra()

	spec, _, err := a.loadStrategy()
	if err != nil {
		return err
	}
	res, err := a.training.Run(ctx, usecase.TrainingParams{
		RunID: runID,
		Spec:  spec,
		From:  from,
		To:    to,
	})
	if err != nil {
		return err
	}
	a.log.Info("training finished",
		applogger.String("run_id", res.RunID),
		applogger.Int("features", len(res.FeatureIDs)),
		applogger.Int("symbols", res.Symbols),
		applogger.Int("rows", res.Rows),
	)
	return nil
}

// RunBacktest loads the configured strategy and replays it under an existing
// manifest.
func (a *App) RunBacktest(ctx context.Context, runID string, from, to time.Time) error {
	defer a.closeInfra()

	spec, _, err := a.loadStrategy()
	if err != nil {
		return err
	}
	res, err := a.backtest.Run(ctx, usecase.BacktestParams{
		RunID: runID,
		Spec:  spec,
		From:  from,
		To:    to,
	})
	if err != nil {
		return err
	}
	a.log.Info("backtest finished",
		applogger.String("run_id", res.RunID),
		applogger.Int("features", len(res.FeatureIDs)),
		applogger.Int("symbols", res.Symbols),
		applogger.Int("rows", res.Rows),
	)
	return nil
}

func (a *App) loadStrategy() (*models.StrategySpec, *strategy.Report, error) {
	spec, report, err := a.loader.Load(a.cfg.Strategy.File)
	if err != nil {
		if report != nil {
			for _, is := range report.Errors {
				a.log.Error("strategy validation error",
					applogger.String("kind", string(is.Kind)),
					applogger.String("detail", is.String()),
				)
			}
		}
		return nil, report, fmt.Errorf("load strategy %s: %w", a.cfg.Strategy.File, err)
	}
	// Config-level symbol override for ad-hoc runs
	if len(a.cfg.Strategy.Symbols) > 0 {
		spec.Symbols = a.cfg.Strategy.Symbols
	}
	return spec, report, nil
}

// shutdown gracefully stops all serve-mode services.
func (a *App) shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	a.closeInfra()
	a.log.Info("shutdown complete")
	return nil
}

func (a *App) closeInfra() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.log.Warn("feature publisher close error", applogger.Error(err))
		}
	}
	if a.sink != nil {
		if err := a.sink.Close(); err != nil {
			a.log.Warn("feature sink close error", applogger.Error(err))
		}
	}
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.log.Warn("clickhouse close error", applogger.Error(err))
		}
	}
}
