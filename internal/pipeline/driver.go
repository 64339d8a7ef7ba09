package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"dubber/internal/config"
	"dubber/internal/fileutil"
	"dubber/internal/ledger"
	"dubber/internal/logging"
	"dubber/internal/mediaid"
	"dubber/internal/services"
	"dubber/internal/textutil"
)

// Deps carries the collaborators a Driver needs.
type Deps struct {
	Audio      AudioFetcher
	Source     SourceFetcher
	Mixer      Mixer
	Translator Translator
	Ledger     Ledger
	Journal    Journal
	Logger     *slog.Logger
}

// Option configures the driver.
type Option func(*Driver)

// WithSleep injects the delay function used for the stage-1 cool-down
// (primarily for tests).
func WithSleep(sleep func(context.Context, time.Duration)) Option {
	return func(d *Driver) {
		if sleep != nil {
			d.sleep = sleep
		}
	}
}

// Driver runs the per-item state machine. Each invocation is sequential
// across its stages; parallelism happens one level up in the Supervisor.
type Driver struct {
	cfg      *config.Config
	deps     Deps
	longMode bool
	sleep    func(context.Context, time.Duration)
}

// NewDriver constructs a Driver. In long mode the extended stage-1 deadline
// applies to every category and output names carry the video id suffix.
func NewDriver(cfg *config.Config, deps Deps, longMode bool, opts ...Option) (*Driver, error) {
	if cfg == nil {
		return nil, errors.New("config required")
	}
	if deps.Audio == nil || deps.Source == nil || deps.Mixer == nil {
		return nil, errors.New("audio, source, and mixer dependencies required")
	}
	if deps.Ledger == nil || deps.Journal == nil {
		return nil, errors.New("ledger and journal dependencies required")
	}
	if deps.Logger == nil {
		deps.Logger = logging.NewNop()
	}
	driver := &Driver{
		cfg:      cfg,
		deps:     deps,
		longMode: longMode,
		sleep:    sleepWithContext,
	}
	for _, opt := range opts {
		opt(driver)
	}
	return driver, nil
}

// Process drives one video to a terminal state. Every failure past
// normalization appends exactly one journal record; success writes exactly
// one ledger entry. A failed item leaves no ledger row, so a future run
// retries it from stage 1.
func (d *Driver) Process(ctx context.Context, video mediaid.Video) (outcome Outcome) {
	outcome = Outcome{VideoID: video.ID, Category: video.Category, FinalState: StateNormalized}
	ctx = services.WithVideoID(ctx, video.ID)
	logger := logging.WithContext(ctx, d.deps.Logger)

	journaled := false
	fail := func(state State, stageErr error) Outcome {
		reason := services.Reason(stageErr)
		journaled = true
		if err := d.deps.Journal.Append(video.Locator, reason); err != nil {
			logger.Error("failed to journal failure", logging.Error(err))
		}
		logger.Error("item failed",
			logging.String(logging.FieldEventType, "stage_failure"),
			logging.String("state", string(state)),
			logging.String("class", failureClass(stageErr)),
			logging.String("reason", reason),
		)
		return Outcome{VideoID: video.ID, Category: video.Category, Message: reason, FinalState: StateFailed}
	}

	// Unexpected orchestration failures are contained at the item boundary.
	defer func() {
		if r := recover(); r != nil {
			reason := fmt.Sprintf("unexpected failure: %v", r)
			if !journaled {
				if err := d.deps.Journal.Append(video.Locator, reason); err != nil {
					logger.Error("failed to journal failure", logging.Error(err))
				}
			}
			logger.Error("item panicked", logging.String("reason", reason))
			outcome = Outcome{VideoID: video.ID, Category: video.Category, Message: reason, FinalState: StateFailed}
		}
	}()

	if video.ID == "" {
		// An unparseable locator never reached an external tool and its raw
		// form cannot drive a journal retry, so no record is appended.
		parseErr := services.Wrap(services.ErrNotFound, "", "", fmt.Sprintf("unrecognized locator: %s", video.Raw), nil)
		reason := services.Reason(parseErr)
		logger.Error("item failed",
			logging.String(logging.FieldEventType, "stage_failure"),
			logging.String("class", failureClass(parseErr)),
			logging.String("reason", reason),
		)
		return Outcome{VideoID: video.ID, Category: video.Category, Message: reason, FinalState: StateFailed}
	}

	// Recheck the ledger at dispatch time: another worker may have finished
	// this id after the batch-level dedupe pass.
	exists, err := d.deps.Ledger.Exists(ctx, video.ID)
	if err != nil {
		return fail(StateNormalized, services.Wrap(services.ErrTransient, "", "", fmt.Sprintf("ledger check failed: %v", err), nil))
	}
	if exists {
		logger.Info("already processed, skipping")
		return Outcome{VideoID: video.ID, Category: video.Category, Skipped: true, Message: "already processed", FinalState: StatePersisted}
	}

	categoryDir := d.outputDir(video.Category)
	workDir := filepath.Join(categoryDir, fmt.Sprintf("temp_%s_%s", video.ID, uuid.NewString()[:8]))
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return fail(StateNormalized, services.Wrap(services.ErrTransient, "", "", fmt.Sprintf("create work directory: %v", err), nil))
	}
	defer func() {
		// Intermediate artifacts are disposable; cleanup errors are swallowed.
		_ = os.RemoveAll(workDir)
	}()

	audioPath, err := d.fetchAudio(ctx, logger, video, workDir)
	if err != nil {
		return fail(StateNormalized, err)
	}

	baseName := d.resolveTitle(ctx, logger, video)

	videoPath, err := d.fetchVideo(ctx, logger, video, workDir)
	if err != nil {
		return fail(StateTitleResolved, err)
	}

	finalPath := filepath.Join(categoryDir, baseName+".mp4")
	if err := d.mix(ctx, logger, video, videoPath, audioPath, finalPath); err != nil {
		return fail(StateVideoFetched, err)
	}

	return d.persist(ctx, logger, video, workDir, categoryDir, baseName, finalPath, fail)
}

// fetchAudio runs stage 1 and validates its artifact. Errors come back
// tagged with the matching classification sentinel; their Reason text is
// what the journal records.
func (d *Driver) fetchAudio(ctx context.Context, logger *slog.Logger, video mediaid.Video, workDir string) (string, error) {
	ctx = services.WithStage(ctx, "audio")
	logger = logging.WithContext(ctx, logger)

	deadline := d.audioDeadline(video.Category)
	logger.Info("fetching translated audio", logging.Duration("deadline", deadline))

	result, err := d.deps.Audio.FetchAudio(ctx, video.Locator, workDir, deadline)

	// Cool-down between translation service requests, applied regardless of
	// this item's result so concurrent failures don't hammer the service.
	d.sleep(ctx, time.Duration(d.cfg.Pipeline.CooldownSeconds)*time.Second)

	if err != nil {
		if ctx.Err() != nil {
			return "", services.Wrap(services.ErrTransient, "", "", "run interrupted during audio fetch", nil)
		}
		return "", services.Wrap(services.ErrExternalTool, "", "", fmt.Sprintf("translated audio fetch failed: %v", err), nil)
	}
	if result.TimedOut {
		return "", services.Wrap(services.ErrTimeout, "", "", fmt.Sprintf("translation timeout after %s", deadline), nil)
	}
	if result.ExitCode != 0 {
		return "", services.Wrap(services.ErrExternalTool, "", "", fmt.Sprintf("translated audio fetch failed (exit %d)", result.ExitCode), nil)
	}

	artifact, err := fileutil.NewestWithExtension(workDir, ".mp3")
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "", "", fmt.Sprintf("scan audio artifacts: %v", err), nil)
	}
	if artifact == nil {
		return "", services.Wrap(services.ErrExternalTool, "", "", "audio artifact not created", nil)
	}
	if artifact.SizeKB < float64(d.cfg.Pipeline.MinAudioKB) {
		// The tool exited cleanly but produced near-silence; discard it so a
		// later retry starts fresh.
		_ = os.Remove(artifact.Path)
		return "", services.Wrap(services.ErrValidation, "", "", fmt.Sprintf("no speech track (%.1fKB)", artifact.SizeKB), nil)
	}

	logger.Info("translated audio ready",
		logging.Float64("size_kb", artifact.SizeKB),
		logging.Duration("elapsed", result.Elapsed),
	)
	return artifact.Path, nil
}

// resolveTitle runs stage 2. Title resolution never fails the item: any
// error falls back to the canonical id.
func (d *Driver) resolveTitle(ctx context.Context, logger *slog.Logger, video mediaid.Video) string {
	ctx = services.WithStage(ctx, "title")
	logger = logging.WithContext(ctx, logger)

	deadline := time.Duration(d.cfg.Pipeline.TitleTimeout) * time.Second

	base := video.ID
	title, err := d.deps.Source.Title(ctx, video.Locator, deadline)
	if err != nil {
		logger.Warn("title unavailable, using video id", logging.Error(err))
	} else {
		if d.deps.Translator != nil {
			title = d.deps.Translator.Translate(ctx, title)
		}
		base = textutil.SanitizeTitle(title)
	}

	if d.longMode {
		// Long batches land many items in the same directory over hours;
		// the id suffix keeps names collision-free.
		base = base + "_" + video.ID
	}
	logger.Info("title resolved", logging.String("title", base))
	return base
}

func (d *Driver) fetchVideo(ctx context.Context, logger *slog.Logger, video mediaid.Video, workDir string) (string, error) {
	ctx = services.WithStage(ctx, "video")
	logger = logging.WithContext(ctx, logger)

	deadline := time.Duration(d.cfg.Pipeline.VideoFetchTimeout) * time.Second
	videoPath := filepath.Join(workDir, "video.mp4")
	logger.Info("fetching source video")

	result, err := d.deps.Source.Download(ctx, video.Locator, videoPath, deadline)
	if err != nil {
		if ctx.Err() != nil {
			return "", services.Wrap(services.ErrTransient, "", "", "run interrupted during source fetch", nil)
		}
		return "", services.Wrap(services.ErrExternalTool, "", "", fmt.Sprintf("source fetch failed: %v", err), nil)
	}
	if result.TimedOut {
		return "", services.Wrap(services.ErrTimeout, "", "", fmt.Sprintf("source fetch timeout after %s", deadline), nil)
	}
	// yt-dlp may exit non-zero on warnings; the output file existing is the
	// real success signal.
	if !fileutil.Exists(videoPath) {
		return "", services.Wrap(services.ErrExternalTool, "", "", "source fetch failed", nil)
	}

	logger.Info("source video ready", logging.Duration("elapsed", result.Elapsed))
	return videoPath, nil
}

func (d *Driver) mix(ctx context.Context, logger *slog.Logger, video mediaid.Video, videoPath, audioPath, finalPath string) error {
	ctx = services.WithStage(ctx, "mix")
	logger = logging.WithContext(ctx, logger)

	deadline := time.Duration(d.cfg.Pipeline.MixTimeout) * time.Second
	logger.Info("mixing audio tracks",
		logging.Float64("original_volume", d.cfg.Mix.OriginalVolume),
		logging.Float64("translation_volume", d.cfg.Mix.TranslationVolume),
	)

	result, err := d.deps.Mixer.Mix(ctx, videoPath, audioPath, finalPath, d.cfg.Mix.OriginalVolume, d.cfg.Mix.TranslationVolume, deadline)
	if err != nil {
		if ctx.Err() != nil {
			return services.Wrap(services.ErrTransient, "", "", "run interrupted during mix", nil)
		}
		return services.Wrap(services.ErrExternalTool, "", "", fmt.Sprintf("mix failed: %v", err), nil)
	}
	if result.TimedOut {
		return services.Wrap(services.ErrTimeout, "", "", fmt.Sprintf("mix timeout after %s", deadline), nil)
	}
	if result.ExitCode != 0 {
		return services.Wrap(services.ErrExternalTool, "", "", "mix failed", nil)
	}
	return nil
}

func (d *Driver) persist(ctx context.Context, logger *slog.Logger, video mediaid.Video, workDir, categoryDir, baseName, finalPath string, fail func(State, error) Outcome) Outcome {
	ctx = services.WithStage(ctx, "persist")
	logger = logging.WithContext(ctx, logger)

	d.adoptThumbnail(ctx, workDir, filepath.Join(categoryDir, baseName+".jpg"))

	sizeKB, err := fileutil.SizeKB(finalPath)
	if err != nil {
		return fail(StateMixed, services.Wrap(services.ErrExternalTool, "", "", fmt.Sprintf("mixed artifact missing: %v", err), nil))
	}

	entry := ledger.Entry{
		VideoID:    video.ID,
		URL:        video.Locator,
		Title:      baseName,
		FileSizeKB: sizeKB,
	}
	if err := d.deps.Ledger.Upsert(ctx, entry); err != nil {
		return fail(StateMixed, services.Wrap(services.ErrTransient, "", "", fmt.Sprintf("ledger write failed: %v", err), nil))
	}

	logger.Info("item completed",
		logging.String(logging.FieldEventType, "item_complete"),
		logging.String("output", finalPath),
		logging.Float64("size_kb", sizeKB),
	)
	return Outcome{
		VideoID:    video.ID,
		Category:   video.Category,
		Success:    true,
		Message:    finalPath,
		FinalState: StatePersisted,
	}
}

// adoptThumbnail renames or converts whichever thumbnail the downloader left
// behind to the canonical output name. Strictly best-effort: a missing or
// unconvertible thumbnail never affects the item.
func (d *Driver) adoptThumbnail(ctx context.Context, workDir, dest string) {
	jpg := filepath.Join(workDir, "video.jpg")
	if fileutil.RenameFirst([]string{jpg}, dest) {
		return
	}
	webp := filepath.Join(workDir, "video.webp")
	if !fileutil.Exists(webp) {
		return
	}
	if result, err := d.deps.Mixer.ConvertImage(ctx, webp, dest, 30*time.Second); err != nil || !result.Success() {
		_ = os.Remove(dest)
	}
}

func (d *Driver) outputDir(category mediaid.Category) string {
	if category == mediaid.CategoryShort {
		return d.cfg.ShortsDir()
	}
	return d.cfg.VideosDir()
}

// failureClass maps a stage error to its taxonomy label for structured logs.
func failureClass(err error) string {
	switch {
	case errors.Is(err, services.ErrTimeout):
		return "timeout"
	case errors.Is(err, services.ErrValidation):
		return "validation"
	case errors.Is(err, services.ErrExternalTool):
		return "tool"
	case errors.Is(err, services.ErrNotFound):
		return "parse"
	case errors.Is(err, services.ErrConfiguration):
		return "configuration"
	default:
		return "transient"
	}
}

// audioDeadline picks the stage-1 deadline: the category's default, with
// long mode extending every item to the long deadline.
func (d *Driver) audioDeadline(category mediaid.Category) time.Duration {
	if d.longMode || category == mediaid.CategoryLong {
		return time.Duration(d.cfg.Pipeline.AudioTimeoutLong) * time.Second
	}
	return time.Duration(d.cfg.Pipeline.AudioTimeoutShort) * time.Second
}

func sleepWithContext(ctx context.Context, duration time.Duration) {
	if duration <= 0 {
		return
	}
	timer := time.NewTimer(duration)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
