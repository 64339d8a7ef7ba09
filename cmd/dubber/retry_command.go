package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"dubber/internal/journal"
)

func newRetryCommand(ctx *commandContext) *cobra.Command {
	var workers int

	cmd := &cobra.Command{
		Use:   "retry",
		Short: "Reprocess journaled failures",
		Long: "Collect the distinct locators from the failure journal and run them\n" +
			"through the pipeline again with long-item semantics. Locators that\n" +
			"succeeded since their journal entry are skipped via the ledger.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			locators, err := journal.New(cfg.JournalPath()).CandidateLocators()
			if err != nil {
				return fmt.Errorf("read journal: %w", err)
			}
			if len(locators) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Journal is empty; nothing to retry")
				return nil
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Retrying %d journaled locators\n", len(locators))
			return executeBatch(cmd, ctx, locators, true, workers)
		},
	}

	cmd.Flags().IntVar(&workers, "workers", 0, "Override the configured worker count")
	return cmd
}
