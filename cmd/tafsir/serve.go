package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/helixml/tafsir/infrastructure/api"
	"github.com/helixml/tafsir/internal/config"
	"github.com/helixml/tafsir/internal/log"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 15 * time.Second

func serveCmd() *cobra.Command {
	var (
		flags commonFlags
		host  string
		port  int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long: `Start the HTTP API server. The search index is loaded or built in the
background; point lookups, reflections and translations are served meanwhile.

Configuration is loaded in the following order (later sources override earlier):
  1. Default values
  2. .env file (if --env-file specified or .env exists in current directory)
  3. Environment variables
  4. Command line flags

Environment variables:
  HOST                         Server host to bind to (default: 0.0.0.0)
  PORT                         Server port to listen on (default: 8080)
  DATA_DIR                     Data directory (default: ~/.tafsir)
  CORPUS_DIR                   Corpus directory (default: {data_dir}/output)
  STORAGE_BACKEND              Cache and index storage: file, database (default: file)
  DB_URL                       Database URL (default: sqlite:///{data_dir}/tafsir.db)
  LOG_LEVEL                    Log level: DEBUG, INFO, WARN, ERROR (default: INFO)
  LOG_FORMAT                   Log format: pretty, json (default: pretty)
  CORS_ALLOWED_ORIGINS         Comma-separated origins (default: *)

  SEARCH_DEFAULT_TOP_K         Results when top_k is omitted (default: 3)
  SEARCH_MAX_TOP_K             Largest accepted top_k (default: 10)
  SEARCH_OVERSAMPLE            Candidate multiplier for filtered search (default: 4)

  EMBEDDING_MODEL_DIR          Local ONNX sentence-embedding model
  EMBEDDING_ENDPOINT_*         OpenAI-compatible embedding service
    BASE_URL                   Base URL (e.g., https://api.openai.com/v1)
    MODEL                      Model identifier
    API_KEY                    API key for authentication
    NUM_PARALLEL_TASKS         Concurrent requests (default: 4)
    TIMEOUT                    Request timeout in seconds (default: 60)
    MAX_RETRIES                Retry attempts (default: 3)

  ENRICHMENT_ENDPOINT_*        Chat service for translation and reflection
    (same fields as EMBEDDING_ENDPOINT, plus TEMPERATURE and MAX_TOKENS)`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.config()
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), applyServeOverrides(cfg, host, port))
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&host, "host", "", "Server host to bind to (default: 0.0.0.0)")
	cmd.Flags().IntVar(&port, "port", 0, "Server port to listen on (default: 8080)")

	return cmd
}

func runServe(ctx context.Context, cfg config.AppConfig) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := log.Configure(cfg)

	attrs := append([]slog.Attr{slog.String("version", version)}, cfg.LogAttrs()...)
	logger.LogAttrs(ctx, slog.LevelInfo, "starting tafsir", attrs...)

	client, err := newClient(cfg, logger)
	if err != nil {
		return err
	}
	defer closeClient(client, logger)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client.StartWarmup(ctx)

	server := api.NewAPIServer(client, version).HTTPServer(cfg.Addr())
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", slog.Any("error", err))
	}
	return <-errCh
}

// applyServeOverrides applies command line flag overrides to the config.
func applyServeOverrides(cfg config.AppConfig, host string, port int) config.AppConfig {
	var opts []config.AppConfigOption

	if host != "" {
		opts = append(opts, config.WithHost(host))
	}
	if port != 0 {
		opts = append(opts, config.WithPort(port))
	}

	return cfg.Apply(opts...)
}
