package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"dubber/internal/logging"
	"dubber/internal/procrun"
	"dubber/internal/services/ytdlp"
)

func newCookiesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cookies",
		Short: "Extract browser cookies for gated videos",
		Long: "Try each supported browser in turn and write a cookies file usable by\n" +
			"the downloader. Without cookies the pipeline still runs but cannot\n" +
			"access age-gated or membership videos.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return err
			}

			grace := time.Duration(cfg.Pipeline.TerminateGraceSecs) * time.Second
			client, err := ytdlp.New(ytdlp.Options{
				Binary:      cfg.Tools.YtDlp,
				CookiesFile: cfg.Paths.CookiesFile,
			}, procrun.New(grace, logger))
			if err != nil {
				return err
			}

			browser := client.ExtractCookies(cmd.Context(), logger)
			if browser == "" {
				return fmt.Errorf("could not extract cookies from any browser")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Extracted cookies from %s into %s\n", browser, cfg.Paths.CookiesFile)
			return nil
		},
	}
}
