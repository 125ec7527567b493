package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/helixml/tafsir/application/service"
	"github.com/helixml/tafsir/internal/log"
	"github.com/spf13/cobra"
)

func lookupCmd() *cobra.Command {
	var (
		flags  commonFlags
		lang   string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "lookup <author> <surah> <ayah>",
		Short: "Print the commentary covering one ayah",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			surah, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("surah must be an integer: %q", args[1])
			}
			ayah, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("ayah must be an integer: %q", args[2])
			}

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

			res, err := client.Tafsir.GetPassage(cmd.Context(), service.PassageRequest{
				Author:   args[0],
				Surah:    surah,
				Ayah:     ayah,
				Language: lang,
			})
			if err != nil {
				return err
			}
			return printPassage(cmd.OutOrStdout(), res, asJSON)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&lang, "language", "", "Target language: ar, en, ur, fr, de (default: ar)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")

	return cmd
}

func printPassage(w io.Writer, res service.PassageResult, asJSON bool) error {
	p := res.Passage
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"id":         p.ID(),
			"author":     p.Author(),
			"surah":      p.Surah(),
			"ayah_start": p.Ayahs().Start(),
			"ayah_end":   p.Ayahs().End(),
			"language":   res.Language.String(),
			"text":       res.Text,
		})
	}

	header := fmt.Sprintf("%s %d:%s", p.Author(), p.Surah(), p.Ayahs())
	if name := p.Metadata().SurahNameEnglish(); name != "" {
		header += " (" + name + ")"
	}
	_, err := fmt.Fprintf(w, "%s [%s]\n\n%s\n", header, res.Language, res.Text)
	return err
}
