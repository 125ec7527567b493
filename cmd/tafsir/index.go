package main

import (
	"fmt"
	"time"

	"github.com/helixml/tafsir/internal/log"
	"github.com/spf13/cobra"
)

func indexCmd() *cobra.Command {
	var (
		flags commonFlags
		force bool
	)

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Build or validate the search index snapshot",
		Long: `Load the persisted search index if it matches the corpus and embedding
model, otherwise embed the corpus and persist a new snapshot. --force always
rebuilds. Exits non-zero when no index can be produced.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.config()
			if err != nil {
				return err
			}
			logger := log.Configure(cfg)

			client, err := newClient(cfg, logger)
			if err != nil {
				return err
			}
			defer closeClient(client, logger)

			start := time.Now()
			if err := client.BuildIndex(cmd.Context(), force); err != nil {
				return fmt.Errorf("build index: %w", err)
			}

			st := client.Status()
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "index %s: %d passages, model %s (%s)\n",
				st.Index, st.Indexed, st.Model, time.Since(start).Round(time.Millisecond))
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&force, "force", false, "Rebuild even if a valid snapshot exists")

	return cmd
}
