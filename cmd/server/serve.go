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

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hongminglow/gigdash/internal/assistant"
	"github.com/hongminglow/gigdash/internal/catalog"
	"github.com/hongminglow/gigdash/internal/config"
	"github.com/hongminglow/gigdash/internal/documents"
	"github.com/hongminglow/gigdash/internal/server"
	"github.com/hongminglow/gigdash/internal/storage/redis"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	rt, err := setup()
	if err != nil {
		return err
	}
	defer rt.logger.Sync() //nolint:errcheck
	cfg, logger := rt.cfg, rt.logger

	ctx := context.Background()
	store, pg, err := rt.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	deps := server.Deps{Store: store, Logger: logger}
	if pg != nil {
		deps.Pinger = pg
	}

	if cfg.StorageDriver == config.DriverMemory || cfg.CompanyCatalog != "" {
		companies, err := catalog.Load(cfg.CompanyCatalog)
		if err != nil {
			return err
		}
		n, err := catalog.Seed(ctx, store, companies, logger)
		if err != nil {
			return fmt.Errorf("seed companies: %w", err)
		}
		logger.Info("company catalog loaded", zap.Int("companies", n))
	}

	if cfg.SessionStore == config.DriverRedis {
		sessions, err := redis.NewSessionStore(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer sessions.Close()
		deps.Sessions = sessions
		logger.Info("sessions stored in redis")
	}

	if cfg.Documents.Enabled() {
		blobs, err := documents.NewS3Store(ctx, documents.S3Config{
			Bucket:       cfg.Documents.Bucket,
			Region:       cfg.Documents.Region,
			Endpoint:     cfg.Documents.Endpoint,
			UsePathStyle: cfg.Documents.UsePathStyle,
		})
		if err != nil {
			return err
		}
		deps.Blobs = blobs
	} else {
		logger.Warn("S3_BUCKET not set; vehicle documents are kept in memory")
	}

	if cfg.Assistant.Enabled() {
		llm, err := assistant.NewGeminiLLM(ctx, cfg.Assistant.GeminiAPIKey, cfg.Assistant.Model)
		if err != nil {
			return err
		}
		deps.LLM = llm
	} else {
		logger.Warn("GEMINI_API_KEY not set; GigBot chat is disabled")
	}

	srv, err := server.New(cfg, deps)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
	}

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Error("graceful shutdown error", zap.Error(err))
	}
	return nil
}
