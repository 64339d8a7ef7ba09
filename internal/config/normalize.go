package config

import (
	"os"
	"path/filepath"
	"strings"
)

// normalize expands ~ in paths and backfills zero values with defaults so a
// partially specified config file behaves predictably.
func (c *Config) normalize() {
	c.Paths.OutputDir = expandPath(withDefault(c.Paths.OutputDir, defaultOutputDir))
	c.Paths.StateDir = expandPath(withDefault(c.Paths.StateDir, defaultStateDir))
	c.Paths.LogDir = expandPath(withDefault(c.Paths.LogDir, defaultLogDir))
	c.Paths.CookiesFile = expandPath(withDefault(c.Paths.CookiesFile, defaultCookiesFile))

	if c.Pipeline.ShortWorkers <= 0 {
		c.Pipeline.ShortWorkers = defaultShortWorkers
	}
	if c.Pipeline.LongWorkers <= 0 {
		c.Pipeline.LongWorkers = defaultLongWorkers
	}
	if c.Pipeline.AudioTimeoutShort <= 0 {
		c.Pipeline.AudioTimeoutShort = defaultAudioTimeoutShort
	}
	if c.Pipeline.AudioTimeoutLong <= 0 {
		c.Pipeline.AudioTimeoutLong = defaultAudioTimeoutLong
	}
	if c.Pipeline.VideoFetchTimeout <= 0 {
		c.Pipeline.VideoFetchTimeout = defaultVideoFetchTimeout
	}
	if c.Pipeline.MixTimeout <= 0 {
		c.Pipeline.MixTimeout = defaultMixTimeout
	}
	if c.Pipeline.TitleTimeout <= 0 {
		c.Pipeline.TitleTimeout = defaultTitleTimeout
	}
	if c.Pipeline.CooldownSeconds < 0 {
		c.Pipeline.CooldownSeconds = defaultCooldownSeconds
	}
	if c.Pipeline.MinAudioKB <= 0 {
		c.Pipeline.MinAudioKB = defaultMinAudioKB
	}
	if c.Pipeline.TerminateGraceSecs <= 0 {
		c.Pipeline.TerminateGraceSecs = defaultTerminateGraceSecs
	}

	c.Tools.Npx = withDefault(c.Tools.Npx, defaultNpxCommand)
	c.Tools.VotCLI = withDefault(c.Tools.VotCLI, defaultVotCLI)
	c.Tools.YtDlp = withDefault(c.Tools.YtDlp, defaultYtDlpCommand)
	c.Tools.FFmpeg = withDefault(c.Tools.FFmpeg, defaultFFmpegCommand)

	if c.Mix.OriginalVolume <= 0 {
		c.Mix.OriginalVolume = defaultOriginalVolume
	}
	if c.Mix.TranslationVolume <= 0 {
		c.Mix.TranslationVolume = defaultTranslationVolume
	}

	if c.Download.MaxHeight <= 0 {
		c.Download.MaxHeight = defaultMaxHeight
	}
	c.Download.AudioLanguage = withDefault(strings.TrimSpace(c.Download.AudioLanguage), defaultAudioLanguage)

	c.Translation.TargetLanguage = withDefault(strings.TrimSpace(c.Translation.TargetLanguage), defaultTranslationTarget)
	c.Translation.Endpoint = withDefault(strings.TrimSpace(c.Translation.Endpoint), defaultTranslationEndpoint)
	if c.Translation.TimeoutSeconds <= 0 {
		c.Translation.TimeoutSeconds = defaultTranslationTimeout
	}

	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNtfyRequestTimeout
	}
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)

	c.Logging.Level = withDefault(strings.ToLower(strings.TrimSpace(c.Logging.Level)), defaultLogLevel)
	c.Logging.Format = withDefault(strings.ToLower(strings.TrimSpace(c.Logging.Format)), defaultLogFormat)
}

func withDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func expandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			if path == "~" {
				return home
			}
			return filepath.Join(home, path[2:])
		}
	}
	return filepath.Clean(path)
}
