package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kjannette/contract-gateway/internal/api"
	"github.com/kjannette/contract-gateway/internal/config"
	"github.com/kjannette/contract-gateway/internal/contracts"
	"github.com/kjannette/contract-gateway/internal/db"
	"github.com/kjannette/contract-gateway/internal/ethereum"
	"github.com/kjannette/contract-gateway/internal/logging"
	"github.com/kjannette/contract-gateway/internal/notifications"
	"github.com/kjannette/contract-gateway/internal/repository"
)

const banner = `
╔══════════════════════════════════════╗
║       Contract Gateway v0.1          ║
║                                      ║
╚══════════════════════════════════════╝
`

func main() {
	fmt.Print(banner)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	cfg.Print()

	log, err := logging.New(logging.Options{
		Level:      cfg.LogLevel,
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init error: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Error("Gateway stopped", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Chain
	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	client, err := ethereum.NewClient(dialCtx, ethereum.Options{
		RPCURL:        cfg.RPCURL,
		PrivateKey:    cfg.PrivateKey,
		ChainID:       int64(cfg.ChainID),
		GasLimit:      cfg.GasLimit,
		GasMultiplier: cfg.GasMultiplier,
		ReceiptPoll:   cfg.ReceiptPoll,
	})
	cancel()
	if err != nil {
		return fmt.Errorf("eth client: %w", err)
	}
	defer client.Close()
	log.Info("Connected to node", zap.String("rpc", cfg.RPCURL))

	// Invocation ledger (optional)
	var (
		ledger  ethereum.Ledger
		history api.History
	)
	if cfg.DBEnabled {
		log.Info("Connecting to database", zap.String("host", cfg.DBHost), zap.Int("port", cfg.DBPort), zap.String("db", cfg.DBName))
		pool, err := db.Connect(cfg.DSN())
		if err != nil {
			return fmt.Errorf("db connect: %w", err)
		}
		defer func() {
			pool.Close()
			log.Info("Database pool closed")
		}()

		if err := db.TestConnection(pool, log); err != nil {
			return err
		}
		if err := db.EnsureSchema(ctx, pool); err != nil {
			return err
		}
		repo := repository.NewInvocationRepo(pool)
		ledger, history = repo, repo
	} else {
		log.Info("Invocation ledger disabled")
	}

	store := contracts.NewStore(cfg.ContractsDir)
	if names, err := store.List(); err != nil {
		log.Warn("Contracts directory unreadable", zap.String("dir", store.Dir()), zap.Error(err))
	} else {
		log.Info("Contracts available", zap.String("dir", store.Dir()), zap.Strings("names", names))
	}

	svc := ethereum.NewContractService(client, store, ledger, uint64(cfg.DeployGasLimit), log)
	if notify := notifications.NewSender(cfg.WebhookURL, cfg.NotifyName, log); notify.Enabled() {
		svc.SetNotifier(notify)
	}

	srv := api.NewServer(client, svc, history, api.Options{
		Port:           cfg.APIPort,
		APIKey:         cfg.APIKey,
		CORSOrigin:     cfg.CORSAllowOrigin,
		RequestTimeout: cfg.RequestTimeout,
	}, log)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	log.Info("All services started successfully")

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("api server: %w", err)
	}
	log.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("API shutdown error", zap.Error(err))
	}
	log.Info("Shutdown complete")
	return nil
}
