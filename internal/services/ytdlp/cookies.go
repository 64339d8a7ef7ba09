package ytdlp

import (
	"context"
	"log/slog"
	"time"

	"dubber/internal/fileutil"
	"dubber/internal/logging"
	"dubber/internal/procrun"
)

// cookieProbeURL is a known-good video used only to trigger the cookie
// extraction code path; no media is downloaded.
const cookieProbeURL = "https://www.youtube.com/watch?v=dQw4w9WgXcQ"

// cookieBrowsers are tried in order; the first successful extraction wins.
var cookieBrowsers = []string{"chrome", "firefox", "edge", "opera", "brave"}

// ExtractCookies attempts to populate the configured cookies file from an
// installed browser. Returns the browser that succeeded, or "" when none did.
// Failure is non-fatal: the pipeline runs without cookies, it just loses
// access to gated videos.
func (c *Client) ExtractCookies(ctx context.Context, logger *slog.Logger) string {
	if logger == nil {
		logger = logging.NewNop()
	}
	if c.opts.CookiesFile == "" {
		return ""
	}

	for _, browser := range cookieBrowsers {
		args := []string{
			"--cookies-from-browser", browser,
			"--cookies", c.opts.CookiesFile,
			"--skip-download",
			cookieProbeURL,
		}
		result, err := c.runner.Run(ctx, procrun.Command{Binary: c.opts.Binary, Args: args}, 30*time.Second)
		if err != nil {
			return ""
		}
		if result.Success() && fileutil.Exists(c.opts.CookiesFile) {
			logger.Info("cookies extracted", logging.String("browser", browser))
			return browser
		}
		logger.Debug("cookie extraction attempt failed",
			logging.String("browser", browser),
			logging.Int("exit_code", result.ExitCode),
		)
	}

	logger.Warn("could not extract cookies from any browser")
	return ""
}
