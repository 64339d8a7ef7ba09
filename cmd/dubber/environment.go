package main

import (
	"log/slog"
	"time"

	"dubber/internal/config"
	"dubber/internal/journal"
	"dubber/internal/ledger"
	"dubber/internal/logging"
	"dubber/internal/pipeline"
	"dubber/internal/procrun"
	"dubber/internal/services/ffmpeg"
	"dubber/internal/services/translate"
	"dubber/internal/services/vot"
	"dubber/internal/services/ytdlp"
)

// environment bundles the wired collaborators a batch run needs.
type environment struct {
	cfg    *config.Config
	logger *slog.Logger
	runner *procrun.Runner
	store  *ledger.Store
	deps   pipeline.Deps
}

func (e *environment) Close() {
	if e.store != nil {
		e.store.Close()
	}
}

// newEnvironment opens the ledger and constructs the tool clients from
// config. The caller owns the returned environment and must Close it.
func newEnvironment(cfg *config.Config) (*environment, error) {
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	grace := time.Duration(cfg.Pipeline.TerminateGraceSecs) * time.Second
	runner := procrun.New(grace, logger)

	votClient, err := vot.New(cfg.Tools.Npx, cfg.Tools.VotCLI, runner)
	if err != nil {
		return nil, err
	}
	ytdlpClient, err := ytdlp.New(ytdlp.Options{
		Binary:        cfg.Tools.YtDlp,
		CookiesFile:   cfg.Paths.CookiesFile,
		MaxHeight:     cfg.Download.MaxHeight,
		AudioLanguage: cfg.Download.AudioLanguage,
	}, runner)
	if err != nil {
		return nil, err
	}
	ffmpegClient, err := ffmpeg.New(cfg.Tools.FFmpeg, runner)
	if err != nil {
		return nil, err
	}

	var translator pipeline.Translator
	if cfg.Translation.Enabled {
		translator = translate.New(translate.Config{
			Endpoint:       cfg.Translation.Endpoint,
			TargetLanguage: cfg.Translation.TargetLanguage,
			TimeoutSeconds: cfg.Translation.TimeoutSeconds,
			Logger:         logger,
		})
	}

	store, err := ledger.Open(cfg.LedgerPath())
	if err != nil {
		return nil, err
	}

	return &environment{
		cfg:    cfg,
		logger: logger,
		runner: runner,
		store:  store,
		deps: pipeline.Deps{
			Audio:      votClient,
			Source:     ytdlpClient,
			Mixer:      ffmpegClient,
			Translator: translator,
			Ledger:     store,
			Journal:    journal.New(cfg.JournalPath()),
			Logger:     logger,
		},
	}, nil
}
