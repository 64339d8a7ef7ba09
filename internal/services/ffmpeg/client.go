package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"dubber/internal/procrun"
)

// Runner abstracts supervised command execution for testability.
type Runner interface {
	Run(ctx context.Context, cmd procrun.Command, deadline time.Duration) (procrun.Result, error)
}

// Client wraps ffmpeg CLI interactions.
type Client struct {
	binary string
	runner Runner
}

// New constructs an ffmpeg client.
func New(binary string, runner Runner) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("ffmpeg binary required")
	}
	if runner == nil {
		return nil, errors.New("runner required")
	}
	return &Client{binary: binary, runner: runner}, nil
}

// MixFilter builds the filter_complex expression blending the two audio
// tracks at the given gains, mixed to the shorter duration.
func MixFilter(originalVolume, translationVolume float64) string {
	return fmt.Sprintf(
		"[0:a]volume=%s[a1];[1:a]volume=%s[a2];[a1][a2]amix=inputs=2:duration=shortest[aout]",
		formatVolume(originalVolume), formatVolume(translationVolume),
	)
}

// Mix overlays the translated audio onto the video's original track, writing
// outPath with the video stream copied unmodified. Non-zero exit means the
// mix failed; the caller treats that as fatal for the item.
func (c *Client) Mix(ctx context.Context, videoPath, audioPath, outPath string, originalVolume, translationVolume float64, deadline time.Duration) (procrun.Result, error) {
	if videoPath == "" || audioPath == "" || outPath == "" {
		return procrun.Result{}, errors.New("video, audio, and output paths required")
	}
	args := []string{
		"-i", videoPath,
		"-i", audioPath,
		"-filter_complex", MixFilter(originalVolume, translationVolume),
		"-map", "0:v",
		"-map", "[aout]",
		"-c:v", "copy",
		"-y", outPath,
	}
	return c.runner.Run(ctx, procrun.Command{Binary: c.binary, Args: args}, deadline)
}

// ConvertImage transcodes src into dst, inferring formats from extensions.
// Used to turn webp thumbnails into jpg.
func (c *Client) ConvertImage(ctx context.Context, src, dst string, deadline time.Duration) (procrun.Result, error) {
	if src == "" || dst == "" {
		return procrun.Result{}, errors.New("source and destination required")
	}
	args := []string{"-i", src, "-y", dst}
	return c.runner.Run(ctx, procrun.Command{Binary: c.binary, Args: args}, deadline)
}

func formatVolume(v float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
}
