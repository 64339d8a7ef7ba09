package vot

import (
	"context"
	"errors"
	"strings"
	"time"

	"dubber/internal/procrun"
	"dubber/internal/services"
)

// Runner abstracts supervised command execution for testability.
type Runner interface {
	Run(ctx context.Context, cmd procrun.Command, deadline time.Duration) (procrun.Result, error)
}

// Client builds and launches translated-audio fetch invocations.
type Client struct {
	npx    string
	cli    string
	runner Runner
}

// New constructs a client launching cli through npx. An empty npx runs the
// cli binary directly.
func New(npx, cli string, runner Runner) (*Client, error) {
	cli = strings.TrimSpace(cli)
	if cli == "" {
		return nil, services.Wrap(services.ErrConfiguration, "audio", "vot", "cli command required", nil)
	}
	if runner == nil {
		return nil, errors.New("runner required")
	}
	return &Client{npx: strings.TrimSpace(npx), cli: cli, runner: runner}, nil
}

// Command returns the invocation for fetching the translated audio of
// locator into outDir.
func (c *Client) Command(locator, outDir string) procrun.Command {
	args := []string{"--voice-style", "live", "--output", outDir, locator}
	if c.npx == "" {
		return procrun.Command{Binary: c.cli, Args: args}
	}
	return procrun.Command{Binary: c.npx, Args: append([]string{c.cli}, args...)}
}

// FetchAudio runs the translated-audio tool with the given deadline. The
// result carries exit status and timeout state; artifact validation is the
// caller's concern.
func (c *Client) FetchAudio(ctx context.Context, locator, outDir string, deadline time.Duration) (procrun.Result, error) {
	if strings.TrimSpace(locator) == "" {
		return procrun.Result{}, errors.New("locator required")
	}
	if strings.TrimSpace(outDir) == "" {
		return procrun.Result{}, errors.New("output directory required")
	}
	return c.runner.Run(ctx, c.Command(locator, outDir), deadline)
}
