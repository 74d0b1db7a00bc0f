package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"sftmarket/audit"
	"sftmarket/config"
	"sftmarket/core/events"
	"sftmarket/native/market"
	"sftmarket/native/token"
	"sftmarket/observability"
	"sftmarket/observability/logging"
	"sftmarket/rpc"
	"sftmarket/state"
	"sftmarket/storage"
)

const (
	jwtSecretEnv = "SFTMARKET_ADMIN_JWT_SECRET"
	envNameEnv   = "SFTMARKET_ENV"
)

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	genesisFlag := flag.String("genesis", "", "Path to a genesis YAML file (overrides config GenesisFile)")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if env := strings.TrimSpace(os.Getenv(envNameEnv)); env != "" {
		cfg.Environment = env
	}
	logger := logging.Setup("sftmarketd", cfg.Environment, cfg.LogFile)

	jwtSecret := strings.TrimSpace(os.Getenv(jwtSecretEnv))
	if jwtSecret == "" {
		jwtSecret = cfg.AdminJWTSecret
	}
	if jwtSecret == "" {
		logger.Warn("no admin JWT secret configured, admin methods are disabled")
	}

	db, err := storage.NewLevelDB(filepath.Join(cfg.DataDir, "chaindata"))
	if err != nil {
		logger.Error("failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	manager := state.NewManager(db)

	genesisPath := strings.TrimSpace(*genesisFlag)
	if genesisPath == "" {
		genesisPath = strings.TrimSpace(cfg.GenesisFile)
	}
	if genesisPath != "" && !manager.Initialized() {
		genesis, err := config.LoadGenesis(genesisPath)
		if err != nil {
			logger.Error("failed to load genesis", slog.Any("error", err))
			os.Exit(1)
		}
		if err := genesis.Apply(manager); err != nil {
			logger.Error("failed to apply genesis", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("genesis state applied", "path", genesisPath)
	}

	var emitter events.Emitter = observability.NewMeterEmitter(events.NoopEmitter{})
	recorder, err := audit.Open(cfg.AuditDBPath, emitter)
	if err != nil {
		logger.Error("failed to open audit store", slog.Any("error", err))
		os.Exit(1)
	}
	defer recorder.Close()
	emitter = recorder

	marketEngine := market.NewEngine()
	marketEngine.SetState(manager)
	marketEngine.SetPauses(manager)
	marketEngine.SetBlacklist(manager)
	marketEngine.SetEmitter(emitter)

	tokenEngine := token.NewEngine()
	tokenEngine.SetState(manager)
	tokenEngine.SetPauses(manager)
	tokenEngine.SetBlacklist(manager)
	tokenEngine.SetRoles(manager)
	tokenEngine.SetEmitter(emitter)

	server := rpc.NewServer(rpc.Config{
		Address:         cfg.RPCAddress,
		AdminJWTSecret:  jwtSecret,
		RateLimitPerSec: cfg.RateLimitPerSec,
		RateLimitBurst:  cfg.RateLimitBurst,
	}, marketEngine, tokenEngine, manager, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start(ctx) }()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("rpc server failed", slog.Any("error", err))
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ShutdownTimeoutMS)*time.Millisecond)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown did not complete cleanly", slog.Any("error", err))
	}
	logger.Info("sftmarketd stopped")
}
