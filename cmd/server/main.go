package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron/v2"

	"orderbook_server/internal/config"
	"orderbook_server/internal/infra/db"
	"orderbook_server/internal/infra/httpclient"
	applogger "orderbook_server/internal/infra/logger"
	"orderbook_server/internal/infra/metrics"
	"orderbook_server/internal/infra/pricefeed"
	"orderbook_server/internal/infra/repository"
	httptransport "orderbook_server/internal/transport/http"
	"orderbook_server/internal/usecase"
)

func main() {
	rootCtx, stopFeed := context.WithCancel(context.Background())
	defer stopFeed()

	applogger.Init("info")
	logger := applogger.Logger

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}

	applogger.Init(cfg.Logging.Level)
	logger = applogger.Logger
	logger.Info().Str("level", cfg.Logging.Level).Msg("logger initialized")

	registry := metrics.Init(applogger.Component("metrics"))

	logger.Info().Str("dsn", cfg.Database.DSN).Msg("opening snapshot cache")
	gormDB, err := db.Connect(rootCtx, cfg.Database.DSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("open snapshot cache")
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		logger.Fatal().Err(err).Msg("underlying sql db")
	}
	defer sqlDB.Close()

	snapshots, err := repository.NewGormSnapshotRepository(gormDB)
	if err != nil {
		logger.Fatal().Err(err).Msg("init snapshot repository")
	}

	ledger, err := httpclient.NewLedgerClient(cfg.Backend.BaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("init ledger client")
	}

	stream, err := pricefeed.NewStream(cfg.PriceFeed.URL, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("init price stream")
	}
	go stream.Run(rootCtx)

	aggregator, err := usecase.NewTradeAggregator(ledger, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("init aggregator")
	}

	orderBook, err := usecase.NewOrderBookService(cfg.Backend.UserID, ledger, stream, aggregator, snapshots, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("init order book service")
	}
	orderBook.Restore(rootCtx)

	mutations, err := usecase.NewMutationCoordinator(ledger, stream, orderBook, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("init mutation coordinator")
	}

	logger.Info().Msg("all services initialized")

	router := httptransport.New(orderBook, mutations, metrics.Handler(registry))

	logger.Info().Dur("interval", cfg.Refresh.Interval).Msg("initializing refresh scheduler")
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		logger.Fatal().Err(err).Msg("init scheduler")
	}
	defer func() {
		if err := scheduler.Shutdown(); err != nil {
			logger.Error().Err(err).Msg("scheduler shutdown error")
		}
	}()

	_, err = scheduler.NewJob(
		gocron.DurationJob(cfg.Refresh.Interval),
		gocron.NewTask(func(ctx context.Context) {
			if err := orderBook.Refresh(ctx); err != nil {
				logger.Error().Err(err).Msg("scheduled refresh error")
			}
		}),
	)
	if err != nil {
		logger.Fatal().Err(err).Msg("schedule refresh job")
	}
	scheduler.Start()
	logger.Info().Msg("scheduler started")

	go func() {
		logger.Info().Msg("initial aggregation started")
		if err := orderBook.Refresh(context.Background()); err != nil {
			logger.Error().Err(err).Msg("initial aggregation error")
		} else {
			logger.Info().Msg("initial aggregation completed")
		}
	}()

	serverErr := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Server.Port
		logger.Info().Str("addr", addr).Msg("server listening")
		serverErr <- router.App().Listen(addr)
	}()

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		if err != nil {
			logger.Fatal().Err(err).Msg("fiber server error")
		}
	case sig := <-signalCh:
		logger.Info().Str("signal", sig.String()).Msg("received signal, shutting down")
		stopFeed()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := router.App().ShutdownWithContext(ctx); err != nil {
			logger.Error().Err(err).Msg("server shutdown error")
		}
		logger.Info().Msg("server shutdown complete")
	}
}
