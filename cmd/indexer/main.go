package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/zhivkoto/uho-indexer/internal/chain"
	"github.com/zhivkoto/uho-indexer/internal/config"
	"github.com/zhivkoto/uho-indexer/internal/controlplane"
	"github.com/zhivkoto/uho-indexer/internal/database"
	"github.com/zhivkoto/uho-indexer/internal/fanout"
	"github.com/zhivkoto/uho-indexer/internal/orchestrator"
	"github.com/zhivkoto/uho-indexer/internal/registry"
)

var configPath = flag.String("config", "", "Path to configuration file")

func main() {
	flag.Parse()

	logger := setupLogger()

	logger.Info().Str("service", "indexer").Str("config", *configPath).Msg("Starting uho-indexer")

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger.Info().
		Str("environment", cfg.Environment).
		Int("rpc_endpoints", len(cfg.RPC.Endpoints)).
		Msg("Configuration loaded")

	db, err := database.NewDB(&cfg.Database, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()
	logger.Info().Msg("Database connection established")

	rpcClient, err := chain.NewClient(cfg.RPC.Endpoints, cfg.RPC.Commitment, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create RPC client")
	}

	broadcaster := database.NewBroadcaster(db, cfg.Broadcast.Channel, logger)
	writer := fanout.New(db, broadcaster, logger)
	repo := registry.NewRepository(db.DB, logger)

	cycleInterval, err := time.ParseDuration(cfg.Poller.CycleInterval)
	if err != nil {
		logger.Fatal().Err(err).Str("cycle_interval", cfg.Poller.CycleInterval).Msg("Invalid poller cycle interval")
	}
	interProgramDelay, err := time.ParseDuration(cfg.Poller.InterProgramDelay)
	if err != nil {
		logger.Fatal().Err(err).Str("inter_program_delay", cfg.Poller.InterProgramDelay).Msg("Invalid poller inter-program delay")
	}

	orch := orchestrator.New(rpcClient, repo, writer, cycleInterval, interProgramDelay, logger)

	controlCh, err := controlplane.NewChannel(&cfg.ControlPlane, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect control plane channel")
	}
	defer controlCh.Close()

	go serveMetrics(cfg.Monitoring.PrometheusPort, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := orch.Start(ctx, controlCh); err != nil && err != context.Canceled {
			logger.Error().Err(err).Msg("Orchestrator stopped with error")
		}
	}()

	logger.Info().Msg("Orchestrator started")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	logger.Info().Msg("Shutdown signal received")

	orch.Stop()
	cancel()
	logger.Info().Msg("Indexer service stopped")
}

func setupLogger() zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	env := os.Getenv("UHO_ENVIRONMENT")
	if env == "development" || env == "" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			With().
			Timestamp().
			Caller().
			Logger()
	}

	return zerolog.New(os.Stdout).
		With().
		Timestamp().
		Caller().
		Logger()
}

func serveMetrics(port int, logger zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	if port <= 0 {
		port = 9090
	}
	addr := ":" + strconv.Itoa(port)
	logger.Info().Str("addr", addr).Msg("Metrics server listening")
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error().Err(err).Msg("Metrics server stopped")
	}
}
