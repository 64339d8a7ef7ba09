package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"dubber/internal/preflight"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Check external tools and environment readiness",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			statuses := preflight.CheckSystemDeps(cfg)
			rows := make([][]string, 0, len(statuses))
			missingRequired := false
			for _, status := range statuses {
				state := "ok"
				detail := status.Description
				if !status.Available {
					state = "missing"
					detail = status.Detail
					if !status.Optional {
						missingRequired = true
					}
				}
				rows = append(rows, []string{status.Name, status.Command, state, detail})
			}

			results := preflight.RunAll(cmd.Context(), cfg)
			for _, result := range results {
				state := "ok"
				if !result.Passed {
					state = "failed"
					if result.Advisory {
						state = "warning"
					}
				}
				rows = append(rows, []string{result.Name, "", state, result.Detail})
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Check", "Command", "Status", "Detail"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
			))

			if missingRequired || len(preflight.Failed(results)) > 0 {
				return fmt.Errorf("environment not ready")
			}
			return nil
		},
	}
}
