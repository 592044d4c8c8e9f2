package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spooky-finn/cryptobridge/config"
	"github.com/spooky-finn/cryptobridge/domain"
	"github.com/spooky-finn/cryptobridge/infrastructure/logger"
	promclient "github.com/spooky-finn/cryptobridge/infrastructure/prometheus"
	"github.com/spooky-finn/cryptobridge/provider"
	"github.com/spooky-finn/cryptobridge/rpc"
	"github.com/spooky-finn/cryptobridge/usecase"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "cryptobridge: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.App.LogLevel, cfg.App.Debug)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck
	log = log.With(zap.String("app", cfg.App.Name))

	markets, err := cfg.MarketSymbols()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := promclient.NewMetrics()
	storage := domain.NewOrderBookStorage()
	metrics.TrackOpenOrderBooks(storage)

	connManager := provider.NewConnectionManager(cfg, log)
	if err := connManager.Init(ctx); err != nil {
		return err
	}
	defer connManager.Close()

	streamAPI, err := connManager.StreamAPI(provider.FTX)
	if err != nil {
		return err
	}

	health := rpc.NewHealthObserver()
	snapshots := usecase.NewOrderBookSnapshotUseCase(ctx, streamAPI, storage, log, metrics, health)
	server := rpc.NewServer(&rpc.ServerConfig{
		Validation: &rpc.ValidationServiceConfig{AvailableMarkets: markets},
		MaxDepth:   cfg.OrderBook.MaxDepth,
	}, snapshots, health, log)

	for _, market := range markets {
		snapshots.StartOrderBook(market)
	}

	errs := make(chan error, 2)
	go func() {
		errs <- metrics.StartPromClientServer(ctx, cfg.Metrics.Addr, log)
	}()
	go func() {
		errs <- server.ListenAndServe(ctx, cfg.GRPC.Addr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err = <-errs:
		stop()
	}

	snapshots.Wait()
	return err
}
