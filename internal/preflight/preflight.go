package preflight

import (
	"context"

	"dubber/internal/config"
)

// Result reports the outcome of a single preflight check. Advisory results
// are surfaced to the operator but never block a run.
type Result struct {
	Name     string
	Passed   bool
	Advisory bool
	Detail   string
}

// RunAll executes every applicable check for the given config. Checks are
// only run when the corresponding feature is enabled.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir))
	results = append(results, CheckDirectoryAccess("State directory", cfg.Paths.StateDir))
	results = append(results, CheckDiskSpace("Output disk space", cfg.Paths.OutputDir, minFreeBytes))

	if cfg.Translation.Enabled {
		results = append(results, CheckTranslationEndpoint(ctx, cfg.Translation.Endpoint))
	}

	return results
}

// Failed returns the results that block a run: not passed and not advisory.
func Failed(results []Result) []Result {
	var failed []Result
	for _, result := range results {
		if !result.Passed && !result.Advisory {
			failed = append(failed, result)
		}
	}
	return failed
}

// Warnings returns failed advisory results for operator display.
func Warnings(results []Result) []Result {
	var warnings []Result
	for _, result := range results {
		if !result.Passed && result.Advisory {
			warnings = append(warnings, result)
		}
	}
	return warnings
}
