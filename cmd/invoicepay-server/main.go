package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/JASSBR/invoice-usdc-base/clients"
	"github.com/JASSBR/invoice-usdc-base/config"
	"github.com/JASSBR/invoice-usdc-base/invoices"
	"github.com/JASSBR/invoice-usdc-base/logger"
	"github.com/JASSBR/invoice-usdc-base/metrics"
	"github.com/JASSBR/invoice-usdc-base/server"
	"github.com/JASSBR/invoice-usdc-base/verification"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "invoicepay-server",
		Short:   "Invoicepay server - USDC invoice payment verification",
		Version: version,
	}

	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runServe()
	}

	rootCmd.AddCommand(newServeCmd())

	return rootCmd
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func runServe() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log := logger.NewZapLogger(cfg.Logging.Level)

	var recorder metrics.Recorder = metrics.NoopRecorder{}
	if cfg.Verify.EnableMetrics {
		recorder = metrics.NewPrometheusRecorder()
	}

	store, err := buildStore(cfg, log)
	if err != nil {
		return err
	}
	defer store.Close()

	chain := cfg.ChainConfig()
	client, err := clients.NewEVMClient(chain.Network, chain.RPCUrl)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", chain.Network, err)
	}
	defer client.Close()

	verifier, err := verification.New(chain, client,
		verification.WithLogger(log),
		verification.WithMetrics(recorder),
		verification.WithTimeout(time.Duration(cfg.Verify.TimeoutSeconds)*time.Second),
	)
	if err != nil {
		return fmt.Errorf("building verifier: %w", err)
	}

	srv := server.New(verifier, store, log)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      srv.Handler(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", map[string]any{
			"addr":    addr,
			"network": chain.Network.String(),
			"token":   chain.TokenAddress,
		})
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		log.Info("shutting down", map[string]any{"signal": sig.String()})
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func buildStore(cfg *config.Config, log logger.Logger) (invoices.Store, error) {
	switch cfg.Storage.Type {
	case "memory":
		return invoices.NewMemoryStore(), nil
	case "sqlite":
		store, err := invoices.NewSQLiteStore(cfg.Storage.SQLitePath, log)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		if err := store.Migrate(context.Background()); err != nil {
			store.Close()
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Storage.Type)
	}
}
