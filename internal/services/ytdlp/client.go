package ytdlp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"dubber/internal/fileutil"
	"dubber/internal/procrun"
	"dubber/internal/services"
)

// Runner abstracts supervised command execution for testability.
type Runner interface {
	Run(ctx context.Context, cmd procrun.Command, deadline time.Duration) (procrun.Result, error)
}

// Options configures the client.
type Options struct {
	Binary string
	// CookiesFile is passed to yt-dlp when the file exists; resolved per
	// invocation so a cookies bootstrap mid-run takes effect.
	CookiesFile string
	// MaxHeight caps the selected video stream resolution.
	MaxHeight int
	// AudioLanguage biases stream selection toward a given audio track, with
	// fallback to best available.
	AudioLanguage string
}

// Client wraps yt-dlp CLI interactions.
type Client struct {
	opts   Options
	runner Runner
}

// New constructs a yt-dlp client.
func New(opts Options, runner Runner) (*Client, error) {
	opts.Binary = strings.TrimSpace(opts.Binary)
	if opts.Binary == "" {
		return nil, services.Wrap(services.ErrConfiguration, "video", "yt-dlp", "binary required", nil)
	}
	if runner == nil {
		return nil, errors.New("runner required")
	}
	if opts.MaxHeight <= 0 {
		opts.MaxHeight = 1080
	}
	return &Client{opts: opts, runner: runner}, nil
}

// Title resolves the video title. Non-zero exit, timeout, or empty output
// all yield an error; callers fall back to the canonical id.
func (c *Client) Title(ctx context.Context, locator string, deadline time.Duration) (string, error) {
	args := []string{"--print", "title", "--no-warnings"}
	args = c.appendExtractorArgs(args)
	args = c.appendCookies(args)
	args = append(args, locator)

	result, err := c.runner.Run(ctx, procrun.Command{Binary: c.opts.Binary, Args: args}, deadline)
	if err != nil {
		return "", err
	}
	if result.TimedOut {
		return "", services.Wrap(services.ErrTimeout, "title", "yt-dlp", "title query timed out", nil)
	}
	if result.ExitCode != 0 {
		return "", services.Wrap(services.ErrExternalTool, "title", "yt-dlp", fmt.Sprintf("exit code %d", result.ExitCode), nil)
	}
	title := strings.TrimSpace(result.Stdout)
	if title == "" {
		return "", services.Wrap(services.ErrExternalTool, "title", "yt-dlp", "no title available", nil)
	}
	return title, nil
}

// FormatSelector returns the -f expression for the configured constraints.
func (c *Client) FormatSelector() string {
	height := c.opts.MaxHeight
	lang := strings.TrimSpace(c.opts.AudioLanguage)
	if lang == "" {
		return fmt.Sprintf("bestvideo[height<=%d]+ba/best", height)
	}
	return fmt.Sprintf("bestvideo[height<=%d]+ba[language=%s]/bestvideo[height<=%d]+ba/best", height, lang, height)
}

// Download fetches the merged video for locator into destPath, writing a
// thumbnail alongside it. Success is determined by the output file existing,
// not by exit status alone: yt-dlp may exit non-zero on warnings.
func (c *Client) Download(ctx context.Context, locator, destPath string, deadline time.Duration) (procrun.Result, error) {
	args := []string{
		"-f", c.FormatSelector(),
		"--merge-output-format", "mp4",
		"--write-thumbnail",
		"--convert-thumbnails", "jpg",
	}
	args = c.appendExtractorArgs(args)
	args = c.appendCookies(args)
	args = append(args, "-o", destPath, locator)

	return c.runner.Run(ctx, procrun.Command{Binary: c.opts.Binary, Args: args}, deadline)
}

// appendExtractorArgs requests metadata in the preferred audio language so
// titles arrive already localized when the site offers a translation.
func (c *Client) appendExtractorArgs(args []string) []string {
	if lang := strings.TrimSpace(c.opts.AudioLanguage); lang != "" {
		return append(args, "--extractor-args", "youtube:lang="+lang)
	}
	return args
}

func (c *Client) appendCookies(args []string) []string {
	if c.opts.CookiesFile != "" && fileutil.Exists(c.opts.CookiesFile) {
		return append(args, "--cookies", c.opts.CookiesFile)
	}
	return args
}
