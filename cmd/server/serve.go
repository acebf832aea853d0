// Copyright OCR Backend Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/net/netutil"

	httpAdapter "github.com/V-Neelagandan/OCR-Backend/pkg/adapters/http"
	"github.com/V-Neelagandan/OCR-Backend/pkg/core/services"
	"github.com/V-Neelagandan/OCR-Backend/pkg/recordstore"
	"github.com/V-Neelagandan/OCR-Backend/pkg/uploads"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	cmd.Flags().Int("port", 0, "HTTP port to listen on (overrides config)")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, defaulted, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if port, _ := cmd.Flags().GetInt("port"); port != 0 {
		cfg.Server.Port = port
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration:\n%w", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	logger.Info().
		Str("version", Version).
		Str("build_time", BuildTime).
		Msg("Starting OCR backend")
	if defaulted {
		logger.Warn().Msg("Config file not found, using defaults")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	extractor, engine, err := newExtractor(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer engine.Close()
	logger.Info().Str("engine", engine.Name()).Msg("Initialized OCR engine")

	dir, err := uploads.New(cfg.Storage.UploadDir)
	if err != nil {
		return err
	}
	defer dir.Close()
	logger.Info().Str("upload_dir", dir.Root()).Msg("Initialized upload directory")

	store, err := recordstore.Providers.Open(ctx, cfg.Storage.RecordStore.Type, cfg.RecordStoreParams())
	if err != nil {
		return fmt.Errorf("record store: %w", err)
	}
	defer store.Close(context.Background())
	logger.Info().
		Str("type", cfg.Storage.RecordStore.Type).
		Str("path", cfg.Storage.RecordStore.Path).
		Msg("Initialized record store")

	svc := services.NewExtractionService(dir, extractor, store, logger)
	handler := httpAdapter.New(svc, logger, httpAdapter.Options{CORSOrigins: cfg.Server.CORSOrigins})

	addr := net.JoinHostPort(cfg.Server.Host, fmt.Sprint(cfg.Server.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	if cfg.Server.MaxConnections > 0 {
		ln = netutil.LimitListener(ln, cfg.Server.MaxConnections)
	}

	srv := &http.Server{
		Handler:      handler,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.WriteTimeout(),
		IdleTimeout:  120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info().
			Str("address", ln.Addr().String()).
			Int("max_connections", cfg.Server.MaxConnections).
			Msg("Server listening")
		serveErr <- srv.Serve(ln)
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	logger.Info().Msg("Shutdown signal received")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info().Msg("Server stopped gracefully")
	return nil
}
