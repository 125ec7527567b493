package main

import (
	"fmt"
	"log/slog"

	"github.com/helixml/tafsir"
	"github.com/helixml/tafsir/internal/config"
	"github.com/spf13/cobra"
)

// commonFlags are the flags every client-building command accepts. They
// override values from the environment.
type commonFlags struct {
	envFile   string
	dataDir   string
	corpusDir string
	modelDir  string
}

func (f *commonFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.envFile, "env-file", "", "Path to .env file (default: .env in current directory)")
	cmd.Flags().StringVar(&f.dataDir, "data-dir", "", "Data directory (default: ~/.tafsir)")
	cmd.Flags().StringVar(&f.corpusDir, "corpus-dir", "", "Corpus directory (default: {data_dir}/output)")
	cmd.Flags().StringVar(&f.modelDir, "model-dir", "", "Local ONNX embedding model directory")
}

// config loads the environment and applies flag overrides.
func (f *commonFlags) config() (config.AppConfig, error) {
	cfg, err := loadConfig(f.envFile)
	if err != nil {
		return config.AppConfig{}, err
	}

	var opts []config.AppConfigOption
	if f.dataDir != "" {
		opts = append(opts, config.WithDataDir(f.dataDir))
	}
	if f.corpusDir != "" {
		opts = append(opts, config.WithCorpusDir(f.corpusDir))
	}
	if f.modelDir != "" {
		opts = append(opts, config.WithEmbeddingModelDir(f.modelDir))
	}
	return cfg.Apply(opts...), nil
}

// clientOptions returns the tafsir.Option slice for cfg. Providers, storage
// and the corpus location are all resolved by the client from cfg.
func clientOptions(cfg config.AppConfig, logger *slog.Logger) []tafsir.Option {
	return []tafsir.Option{
		tafsir.WithConfig(cfg),
		tafsir.WithLogger(logger),
	}
}

func newClient(cfg config.AppConfig, logger *slog.Logger) (*tafsir.Client, error) {
	client, err := tafsir.New(clientOptions(cfg, logger)...)
	if err != nil {
		return nil, fmt.Errorf("create tafsir client: %w", err)
	}
	return client, nil
}

func closeClient(client *tafsir.Client, logger *slog.Logger) {
	if err := client.Close(); err != nil {
		logger.Error("failed to close tafsir client", slog.Any("error", err))
	}
}
