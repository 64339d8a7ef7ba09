package preflight

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"dubber/internal/config"
	"dubber/internal/deps"
)

// minFreeBytes is the floor below which a run is refused. A single mixed
// long-form item can easily exceed a gigabyte.
const minFreeBytes = 2 << 30

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckDiskSpace verifies that the filesystem holding path has at least
// minBytes available to the caller.
func CheckDiskSpace(name, path string, minBytes uint64) Result {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: statfs: %v)", path, err)}
	}
	free := stat.Bavail * uint64(stat.Bsize)
	if free < minBytes {
		return Result{Name: name, Detail: fmt.Sprintf("%.1f GiB free, need %.1f GiB", gib(free), gib(minBytes))}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%.1f GiB free", gib(free))}
}

// CheckTranslationEndpoint verifies the title translation endpoint answers.
// The result is advisory: translation degrades to the original text at run
// time, so an unreachable endpoint never blocks a batch.
func CheckTranslationEndpoint(ctx context.Context, endpoint string) Result {
	const name = "Translation endpoint"

	base := strings.TrimSpace(endpoint)
	if base == "" {
		return Result{Name: name, Advisory: true, Detail: "missing endpoint"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	probe := base + "?" + url.Values{
		"client": {"gtx"},
		"sl":     {"auto"},
		"tl":     {"en"},
		"dt":     {"t"},
		"q":      {"ping"},
	}.Encode()
	req, err := http.NewRequestWithContext(checkCtx, http.MethodGet, probe, nil)
	if err != nil {
		return Result{Name: name, Advisory: true, Detail: fmt.Sprintf("probe failed (%v)", err)}
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return Result{Name: name, Advisory: true, Detail: fmt.Sprintf("probe failed (%v)", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{Name: name, Advisory: true, Detail: fmt.Sprintf("probe failed (%d)", resp.StatusCode)}
	}
	return Result{Name: name, Advisory: true, Passed: true, Detail: "reachable"}
}

// CheckSystemDeps evaluates the external tools for the given config. The run
// and deps commands both use this to keep a single requirements list.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	requirements := []deps.Requirement{
		{
			Name:        "yt-dlp",
			Command:     cfg.Tools.YtDlp,
			Description: "Required for source media and metadata",
		},
		{
			Name:        "FFmpeg",
			Command:     cfg.Tools.FFmpeg,
			Description: "Required for audio mixing and thumbnail conversion",
		},
	}
	// With npx configured the vot CLI is an npm package resolved at run
	// time; only a direct binary configuration is checkable here.
	if cfg.Tools.Npx != "" {
		requirements = append(requirements, deps.Requirement{
			Name:        "npx",
			Command:     cfg.Tools.Npx,
			Description: "Runs the vot CLI for translated audio",
		})
	} else {
		requirements = append(requirements, deps.Requirement{
			Name:        "vot-cli",
			Command:     cfg.Tools.VotCLI,
			Description: "Required for translated audio",
		})
	}
	return deps.CheckBinaries(requirements)
}

func gib(bytes uint64) float64 {
	return float64(bytes) / float64(1<<30)
}
