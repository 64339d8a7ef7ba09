package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"dubber/internal/config"
	"dubber/internal/logging"
	"dubber/internal/mediaid"
	"dubber/internal/pipeline"
)

// ErrRunActive reports that another process holds the run lock.
var ErrRunActive = errors.New("another run is already active")

// Notifier receives coarse run lifecycle events. All methods are best-effort
// fire-and-forget.
type Notifier interface {
	BatchStarted(ctx context.Context, total int)
	ItemFailed(ctx context.Context, videoID, reason string)
	BatchCompleted(ctx context.Context, processed, skipped, failed int)
}

// Summary is the end-of-run report.
type Summary struct {
	Outcomes []pipeline.Outcome
	// ParseFailures holds raw inputs no locator pattern matched. They are
	// counted as failures but never journaled; retrying them verbatim would
	// fail the same way.
	ParseFailures []string
	Processed     int
	Skipped       int
	Failed        int
	VideosDir     string
	ShortsDir     string
	JournalPath   string
	LedgerPath    string
	Elapsed       time.Duration
}

// Option configures a Controller.
type Option func(*Controller)

// WithLongMode switches the run to long-item semantics: single-width default
// pool, extended stage deadlines, id-suffixed output names.
func WithLongMode(enabled bool) Option {
	return func(c *Controller) { c.longMode = enabled }
}

// WithWorkers overrides the configured pool width.
func WithWorkers(workers int) Option {
	return func(c *Controller) { c.workers = workers }
}

func WithNotifier(notifier Notifier) Option {
	return func(c *Controller) { c.notifier = notifier }
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithDriverOptions forwards options to the underlying pipeline driver.
func WithDriverOptions(opts ...pipeline.Option) Option {
	return func(c *Controller) { c.driverOpts = append(c.driverOpts, opts...) }
}

// Controller owns one batch run end to end.
type Controller struct {
	cfg        *config.Config
	deps       pipeline.Deps
	notifier   Notifier
	logger     *slog.Logger
	longMode   bool
	workers    int
	driverOpts []pipeline.Option
}

func New(cfg *config.Config, deps pipeline.Deps, opts ...Option) (*Controller, error) {
	if cfg == nil {
		return nil, errors.New("config required")
	}
	controller := &Controller{
		cfg:    cfg,
		deps:   deps,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(controller)
	}
	if controller.workers == 0 {
		if controller.longMode {
			controller.workers = cfg.Pipeline.LongWorkers
		} else {
			controller.workers = cfg.Pipeline.ShortWorkers
		}
	}
	return controller, nil
}

// Run processes the given locators under the run lock and returns the
// summary. The lock spans the whole run so two invocations never race on
// the ledger, the journal, or output names.
func (c *Controller) Run(ctx context.Context, locators []string) (*Summary, error) {
	lock := flock.New(c.cfg.LockPath())
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	if !locked {
		return nil, ErrRunActive
	}
	defer func() {
		_ = lock.Unlock()
	}()

	if err := c.cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	start := time.Now()
	summary := &Summary{
		VideosDir:   absPath(c.cfg.VideosDir()),
		ShortsDir:   absPath(c.cfg.ShortsDir()),
		JournalPath: absPath(c.cfg.JournalPath()),
		LedgerPath:  absPath(c.cfg.LedgerPath()),
	}

	pending, err := c.selectPending(ctx, locators, summary)
	if err != nil {
		return nil, err
	}

	c.logger.Info("batch starting",
		logging.String(logging.FieldEventType, "batch_start"),
		logging.Int("pending", len(pending)),
		logging.Int("skipped", len(summary.Outcomes)),
		logging.Int("unrecognized", len(summary.ParseFailures)),
		logging.Bool("long_mode", c.longMode),
		logging.Int("workers", c.workers),
	)
	if c.notifier != nil {
		c.notifier.BatchStarted(ctx, len(pending))
	}

	if len(pending) > 0 {
		driver, err := pipeline.NewDriver(c.cfg, c.deps, c.longMode, c.driverOpts...)
		if err != nil {
			return nil, err
		}
		supervisor := pipeline.NewSupervisor(driver, c.workers, c.logger)
		summary.Outcomes = append(summary.Outcomes, supervisor.RunAll(ctx, pending)...)
	}

	c.tally(ctx, summary)
	summary.Elapsed = time.Since(start).Round(time.Second)

	c.logger.Info("batch finished",
		logging.String(logging.FieldEventType, "batch_complete"),
		logging.Int("processed", summary.Processed),
		logging.Int("skipped", summary.Skipped),
		logging.Int("failed", summary.Failed),
		logging.Duration("elapsed", summary.Elapsed),
	)
	if c.notifier != nil {
		c.notifier.BatchCompleted(ctx, summary.Processed, summary.Skipped, summary.Failed)
	}
	return summary, nil
}

// selectPending normalizes the inputs and removes everything that must not
// be dispatched: unrecognized locators, duplicates within the batch, and
// items already in the ledger.
func (c *Controller) selectPending(ctx context.Context, locators []string, summary *Summary) ([]mediaid.Video, error) {
	seen := make(map[string]bool)
	var pending []mediaid.Video
	for _, video := range mediaid.NormalizeAll(locators) {
		if video.ID == "" {
			c.logger.Warn("unrecognized locator", logging.String("input", video.Raw))
			summary.ParseFailures = append(summary.ParseFailures, video.Raw)
			continue
		}
		if seen[video.ID] {
			continue
		}
		seen[video.ID] = true

		exists, err := c.deps.Ledger.Exists(ctx, video.ID)
		if err != nil {
			return nil, fmt.Errorf("ledger lookup for %s: %w", video.ID, err)
		}
		if exists {
			summary.Outcomes = append(summary.Outcomes, pipeline.Outcome{
				VideoID:    video.ID,
				Category:   video.Category,
				Skipped:    true,
				Message:    "already processed",
				FinalState: pipeline.StatePersisted,
			})
			continue
		}
		pending = append(pending, video)
	}
	return pending, nil
}

func (c *Controller) tally(ctx context.Context, summary *Summary) {
	for _, outcome := range summary.Outcomes {
		switch {
		case outcome.Skipped:
			summary.Skipped++
		case outcome.Success:
			summary.Processed++
		default:
			summary.Failed++
			if c.notifier != nil {
				c.notifier.ItemFailed(ctx, outcome.VideoID, outcome.Message)
			}
		}
	}
	summary.Failed += len(summary.ParseFailures)
}

func absPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}
