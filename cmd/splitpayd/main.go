package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"splitpay/config"
	"splitpay/core"
	"splitpay/core/events"
	"splitpay/core/genesis"
	"splitpay/core/state"
	"splitpay/observability/journal"
	"splitpay/observability/logging"
	telemetry "splitpay/observability/otel"
	"splitpay/rpc"
	"splitpay/storage"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	genesisFlag := flag.String("genesis", "", "Path to a genesis YAML file (overrides config GenesisFile)")
	allowMigrate := flag.Bool("allow-migrate", false, "Start even if the stored ledger layout version differs (manual migrations only)")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.Setup("splitpayd", cfg.Environment, logging.Options{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	})

	if err := run(cfg, strings.TrimSpace(*genesisFlag), *allowMigrate, logger); err != nil {
		logger.Error("splitpayd stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, genesisPath string, allowMigrate bool, logger *slog.Logger) error {
	if err := config.ValidateSecrets(*cfg); err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:   "splitpayd",
		Environment:   cfg.Environment,
		LedgerVersion: state.LedgerVersion,
		Endpoint:      cfg.Telemetry.Endpoint,
		Insecure:      cfg.Telemetry.Insecure,
		Headers:       telemetry.ParseHeaders(cfg.Telemetry.Headers),
		Metrics:       cfg.Telemetry.Metrics,
		Traces:        cfg.Telemetry.Enabled,
		SampleRatio:   cfg.Telemetry.SampleRatio,
	})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(sctx); err != nil {
			logger.Warn("telemetry shutdown", slog.Any("error", err))
		}
	}()

	db, err := storage.Open(cfg.Backend, cfg.DataDir)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()
	manager := state.NewManager(db)
	if err := manager.EnsureLedgerVersion(allowMigrate); err != nil {
		return err
	}

	if genesisPath == "" {
		genesisPath = strings.TrimSpace(cfg.GenesisFile)
	}
	if genesisPath != "" {
		spec, err := genesis.LoadGenesisSpec(genesisPath)
		if err != nil {
			return fmt.Errorf("load genesis: %w", err)
		}
		applied, err := genesis.Apply(spec, manager)
		if err != nil {
			return fmt.Errorf("apply genesis: %w", err)
		}
		logger.Info("genesis", slog.Bool("applied", applied), slog.String("path", genesisPath))
	}
	owner, err := manager.SplitpayOwner()
	if err != nil {
		return fmt.Errorf("load owner: %w", err)
	}
	if owner == ([20]byte{}) {
		return errors.New("ledger has no owner; start once with a genesis file")
	}

	hub := events.NewHub()
	sinks := events.MultiEmitter{hub}
	var eventJournal *journal.Journal
	if cfg.Journal.Enabled {
		gdb, err := journal.Open(cfg.Journal.Driver, cfg.Journal.DSN)
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		eventJournal, err = journal.New(ctx, gdb, logger)
		if err != nil {
			return err
		}
		if err := eventJournal.Verify(ctx); err != nil {
			return fmt.Errorf("verify journal: %w", err)
		}
		sinks = append(sinks, eventJournal)
		logger.Info("event journal enabled",
			slog.String("driver", cfg.Journal.Driver),
			slog.String("dsn", logging.MaskDSN(cfg.Journal.DSN)),
			slog.Uint64("head", eventJournal.Head()),
		)
	}

	runtime := core.NewRuntime(manager)
	runtime.SetLogger(logger)
	runtime.SetEmitter(sinks)
	runtime.EnableFaucet(cfg.Auth.AllowFaucet)

	server := rpc.New(rpc.Config{
		Runtime: runtime,
		Hub:     hub,
		Journal: eventJournal,
		Auth: rpc.AuthConfig{
			HMACSecret: cfg.Auth.Secret(),
			Issuer:     cfg.Auth.Issuer,
			Audience:   cfg.Auth.Audience,
		},
		RateLimit: rpc.RateLimit{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		},
		Logger:  logger,
		Tracing: cfg.Telemetry.Enabled,
	})

	httpServer := &http.Server{
		Addr:              cfg.RPCAddress,
		Handler:           server.Handler(),
		ReadHeaderTimeout: time.Duration(cfg.RPCReadHeaderTimeout) * time.Second,
		ReadTimeout:       time.Duration(cfg.RPCReadTimeout) * time.Second,
		WriteTimeout:      time.Duration(cfg.RPCWriteTimeout) * time.Second,
		IdleTimeout:       time.Duration(cfg.RPCIdleTimeout) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("splitpay API listening",
			slog.String("addr", cfg.RPCAddress),
			logging.MaskField("jwt_secret", cfg.Auth.Secret()),
			slog.Bool("faucet", cfg.Auth.AllowFaucet),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
	}

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(sctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("splitpay API stopped")
	return nil
}
