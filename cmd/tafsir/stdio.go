package main

import (
	"log/slog"

	"github.com/helixml/tafsir/internal/log"
	"github.com/helixml/tafsir/internal/mcp"
	"github.com/spf13/cobra"
)

func stdioCmd() *cobra.Command {
	var flags commonFlags

	cmd := &cobra.Command{
		Use:   "stdio",
		Short: "Start MCP server on stdio",
		Long: `Start the MCP (Model Context Protocol) server on stdio.

This lets AI assistants look up, search, translate and reflect on tafsir.
Logs go to stderr; stdout carries protocol frames only.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.config()
			if err != nil {
				return err
			}
			logger := log.Configure(cfg)

			logger.Info("starting MCP server",
				slog.String("version", version),
				slog.String("data_dir", cfg.DataDir()),
			)

			client, err := newClient(cfg, logger)
			if err != nil {
				return err
			}
			defer closeClient(client, logger)

			client.StartWarmup(cmd.Context())

			return mcp.NewServer(client.Tafsir, version, logger).ServeStdio()
		},
	}

	flags.register(cmd)

	return cmd
}
