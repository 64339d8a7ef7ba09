package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"dubber/internal/batch"
	"dubber/internal/mediaid"
	"dubber/internal/notifications"
	"dubber/internal/pipeline"
	"dubber/internal/preflight"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var longMode bool
	var workers int

	cmd := &cobra.Command{
		Use:   "run <locator> [locator...]",
		Short: "Process a batch of video locators",
		Long: "Process each locator through the full pipeline: fetch translated audio,\n" +
			"download the source video, mix the tracks, and file the result. Items\n" +
			"already recorded in the ledger are skipped; failures are journaled for\n" +
			"a later retry.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			locators := splitArgs(args)
			if len(locators) == 0 {
				return errors.New("no locators provided")
			}
			return executeBatch(cmd, ctx, locators, longMode, workers)
		},
	}

	cmd.Flags().BoolVar(&longMode, "long", false, "Use long-item semantics: single worker, extended deadlines, id-suffixed names")
	cmd.Flags().IntVar(&workers, "workers", 0, "Override the configured worker count")
	return cmd
}

// splitArgs accepts locators as separate arguments or comma/newline lists.
func splitArgs(args []string) []string {
	return mediaid.SplitLocators(strings.Join(args, "\n"))
}

func executeBatch(cmd *cobra.Command, ctx *commandContext, locators []string, longMode bool, workers int) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}

	runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	checks := preflight.RunAll(runCtx, cfg)
	for _, result := range preflight.Warnings(checks) {
		fmt.Fprintf(cmd.ErrOrStderr(), "preflight warning: %s: %s\n", result.Name, result.Detail)
	}
	if failed := preflight.Failed(checks); len(failed) > 0 {
		for _, result := range failed {
			fmt.Fprintf(cmd.ErrOrStderr(), "preflight: %s: %s\n", result.Name, result.Detail)
		}
		return errors.New("preflight checks failed")
	}
	for _, status := range preflight.CheckSystemDeps(cfg) {
		if !status.Available && !status.Optional {
			return fmt.Errorf("required tool missing: %s (%s)", status.Name, status.Detail)
		}
	}

	env, err := newEnvironment(cfg)
	if err != nil {
		return err
	}
	defer env.Close()

	notifier := notifications.NewBatchNotifier(notifications.NewService(cfg), env.logger)
	opts := []batch.Option{
		batch.WithLongMode(longMode),
		batch.WithLogger(env.logger),
		batch.WithNotifier(notifier),
	}
	if workers > 0 {
		opts = append(opts, batch.WithWorkers(workers))
	}
	controller, err := batch.New(cfg, env.deps, opts...)
	if err != nil {
		return err
	}

	summary, err := controller.Run(runCtx, locators)
	if err != nil {
		if errors.Is(err, batch.ErrRunActive) {
			return fmt.Errorf("%w; wait for it to finish or remove %s", err, cfg.LockPath())
		}
		return err
	}

	printSummary(cmd.OutOrStdout(), summary)
	if runCtx.Err() != nil {
		return context.Canceled
	}
	return nil
}

func printSummary(out io.Writer, summary *batch.Summary) {
	caser := cases.Title(language.English)
	rows := make([][]string, 0, len(summary.Outcomes))
	for _, outcome := range summary.Outcomes {
		rows = append(rows, []string{
			outcome.VideoID,
			caser.String(string(outcome.Category)),
			outcomeStatus(outcome),
			outcome.Message,
		})
	}
	for _, raw := range summary.ParseFailures {
		rows = append(rows, []string{"-", "-", "unrecognized", raw})
	}
	if len(rows) > 0 {
		fmt.Fprintln(out, renderTable(
			[]string{"Video", "Category", "Status", "Detail"},
			rows,
			[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
		))
	}

	fmt.Fprintf(out, "Processed %d, skipped %d, failed %d in %s\n",
		summary.Processed, summary.Skipped, summary.Failed, summary.Elapsed)
	fmt.Fprintf(out, "Videos:  %s\n", summary.VideosDir)
	fmt.Fprintf(out, "Shorts:  %s\n", summary.ShortsDir)
	fmt.Fprintf(out, "Ledger:  %s\n", summary.LedgerPath)
	if summary.Failed > 0 {
		fmt.Fprintf(out, "Journal: %s\n", summary.JournalPath)
	}
}

func outcomeStatus(outcome pipeline.Outcome) string {
	switch {
	case outcome.Skipped:
		return "skipped"
	case outcome.Success:
		return "done"
	default:
		return "failed"
	}
}
