package pipeline

import (
	"context"
	"time"

	"dubber/internal/ledger"
	"dubber/internal/mediaid"
	"dubber/internal/procrun"
)

// State identifies how far an item has progressed.
type State string

const (
	StateNormalized    State = "normalized"
	StateAudioFetched  State = "audio_fetched"
	StateTitleResolved State = "title_resolved"
	StateVideoFetched  State = "video_fetched"
	StateMixed         State = "mixed"
	StatePersisted     State = "persisted"
	StateFailed        State = "failed"
)

// Outcome is the terminal result for one item. It is never persisted
// directly; durable effects happen through the ledger and journal before the
// outcome is returned.
type Outcome struct {
	VideoID  string
	Category mediaid.Category
	Success  bool
	// Skipped marks an item found in the ledger after dispatch; not an error.
	Skipped bool
	// Message is the human-readable result: final artifact path on success,
	// failure reason otherwise.
	Message string
	// FinalState is the state the item terminated in.
	FinalState State
}

// AudioFetcher acquires the translated audio track into a directory.
type AudioFetcher interface {
	FetchAudio(ctx context.Context, locator, outDir string, deadline time.Duration) (procrun.Result, error)
}

// SourceFetcher resolves metadata and downloads the source media.
type SourceFetcher interface {
	Title(ctx context.Context, locator string, deadline time.Duration) (string, error)
	Download(ctx context.Context, locator, destPath string, deadline time.Duration) (procrun.Result, error)
}

// Mixer blends audio tracks over the video and converts thumbnails.
type Mixer interface {
	Mix(ctx context.Context, videoPath, audioPath, outPath string, originalVolume, translationVolume float64, deadline time.Duration) (procrun.Result, error)
	ConvertImage(ctx context.Context, src, dst string, deadline time.Duration) (procrun.Result, error)
}

// Translator renders text in the configured target language, best-effort.
type Translator interface {
	Translate(ctx context.Context, text string) string
}

// Ledger gates and records completed work.
type Ledger interface {
	Exists(ctx context.Context, videoID string) (bool, error)
	Upsert(ctx context.Context, entry ledger.Entry) error
}

// Journal records failed attempts.
type Journal interface {
	Append(locator, reason string) error
}
