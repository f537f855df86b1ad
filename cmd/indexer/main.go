package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/chainscope/evm-token-indexer/internal/adapter"
	"github.com/chainscope/evm-token-indexer/internal/api/server"
	"github.com/chainscope/evm-token-indexer/internal/config"
	"github.com/chainscope/evm-token-indexer/internal/enrich"
	"github.com/chainscope/evm-token-indexer/internal/logger"
	"github.com/chainscope/evm-token-indexer/internal/messaging"
	"github.com/chainscope/evm-token-indexer/internal/processor"
	"github.com/chainscope/evm-token-indexer/internal/providers/jetstream"
	"github.com/chainscope/evm-token-indexer/internal/source"
	"github.com/chainscope/evm-token-indexer/internal/store"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadIndexerConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Debug:           cfg.Debug,
		SentryDSN:       cfg.SentryDSN,
		BreadcrumbLevel: zapcore.InfoLevel,
		Tags: map[string]string{
			"service": "indexer",
			"network": cfg.Ethereum.Network,
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting Token Indexer", zap.String("network", cfg.Ethereum.Network))

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		logger.FatalCtx(ctx, "Failed to connect to database", zap.Error(err))
	}
	if err := store.ConfigureConnectionPool(db,
		cfg.Database.MaxOpenConns,
		cfg.Database.MaxIdleConns,
		cfg.Database.ConnMaxLifetime,
		cfg.Database.ConnMaxIdleTime); err != nil {
		logger.FatalCtx(ctx, "Failed to configure connection pool", zap.Error(err))
	}
	if err := store.AutoMigrate(db); err != nil {
		logger.FatalCtx(ctx, "Failed to migrate database schema", zap.Error(err))
	}
	logger.InfoCtx(ctx, "Connected to database")

	// Initialize store
	dataStore := store.NewPGStore(db)

	// Initialize adapters
	clockAdapter := adapter.NewClock()
	jsonAdapter := adapter.NewJSON()

	// Initialize ethereum client
	ethDialer := adapter.NewEthClientDialer()
	ethClient, err := ethDialer.Dial(ctx, cfg.Ethereum.RPCURL)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to dial Ethereum RPC", zap.Error(err), zap.String("rpc_url", cfg.Ethereum.RPCURL))
	}
	defer ethClient.Close()
	logger.InfoCtx(ctx, "Connected to Ethereum RPC")

	// Initialize contract metadata enricher
	enricher := enrich.NewService(ethClient, enrich.Config{
		CallTimeout:        cfg.Enrichment.CallTimeout,
		MaxConcurrentReads: cfg.Enrichment.MaxConcurrentReads,
	})

	// Initialize NATS publisher when enabled
	var natsPublisher messaging.Publisher
	if cfg.NATS.Enabled {
		connectionName := cfg.NATS.ConnectionName
		if connectionName == "" {
			connectionName = fmt.Sprintf("indexer-%s", uuid.NewString())
		}

		natsPublisher, err = jetstream.NewPublisher(
			ctx,
			jetstream.Config{
				URL:            cfg.NATS.URL,
				StreamName:     cfg.NATS.StreamName,
				MaxReconnects:  cfg.NATS.MaxReconnects,
				ReconnectWait:  cfg.NATS.ReconnectWait,
				ConnectionName: connectionName,
			}, adapter.NewNatsJetStream(), jsonAdapter)
		if err != nil {
			logger.FatalCtx(ctx, "Failed to create NATS publisher", zap.Error(err), zap.String("url", cfg.NATS.URL))
		}
		defer natsPublisher.Close()
		logger.InfoCtx(ctx, "Connected to NATS JetStream")
	}

	// Initialize the batch pipeline
	chainSource := source.NewEthSource(ethClient, source.Config{
		MaxRetries: cfg.Ethereum.MaxRetries,
	})
	batchProcessor := processor.NewProcessor(dataStore, enricher, natsPublisher, jsonAdapter, clockAdapter)
	runner := processor.NewRunner(chainSource, dataStore, batchProcessor, clockAdapter, processor.RunnerConfig{
		Network:       cfg.Ethereum.Network,
		BatchSize:     cfg.Ethereum.BatchSize,
		PollInterval:  cfg.Ethereum.PollInterval,
		StartBlock:    cfg.Ethereum.StartBlock,
		Confirmations: cfg.Ethereum.Confirmations,
	})

	// Initialize API server
	apiServer := server.New(server.Config{
		Debug:        cfg.Debug,
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
		Network:      cfg.Ethereum.Network,
	}, dataStore)

	// Setup signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Channel for component errors
	errCh := make(chan error, 2)

	// Start the API server
	go func() {
		if err := apiServer.Start(); err != nil {
			errCh <- fmt.Errorf("api server: %w", err)
		}
	}()

	// Start the batch runner
	go func() {
		if err := runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- fmt.Errorf("batch runner: %w", err)
		}
	}()

	// Wait for shutdown signal or error
	select {
	case sig := <-sigCh:
		logger.InfoCtx(ctx, "Received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	case err := <-errCh:
		logger.ErrorCtx(ctx, "component failed", zap.Error(err))
		cancel()
	}

	// Stop accepting requests, then give in-flight work a moment to finish
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shut down API server", zap.Error(err))
	}

	// Use non-context logger for final shutdown message since context is already canceled
	logger.Info("Token Indexer stopped")
}
