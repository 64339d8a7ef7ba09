package config

const (
	defaultOutputDir   = "~/dubber/output"
	defaultStateDir    = "~/.local/share/dubber"
	defaultLogDir      = "~/.local/share/dubber/logs"
	defaultCookiesFile = "~/.local/share/dubber/cookies.txt"

	defaultShortWorkers       = 2
	defaultLongWorkers        = 1
	defaultAudioTimeoutShort  = 700
	defaultAudioTimeoutLong   = 3000
	defaultVideoFetchTimeout  = 1800
	defaultMixTimeout         = 900
	defaultTitleTimeout       = 60
	defaultCooldownSeconds    = 5
	defaultMinAudioKB         = 10
	defaultTerminateGraceSecs = 2

	defaultNpxCommand    = "npx"
	defaultVotCLI        = "vot-cli-live"
	defaultYtDlpCommand  = "yt-dlp"
	defaultFFmpegCommand = "ffmpeg"

	defaultOriginalVolume    = 0.05
	defaultTranslationVolume = 0.58

	defaultMaxHeight     = 1080
	defaultAudioLanguage = "ru"

	defaultTranslationTarget   = "ru"
	defaultTranslationEndpoint = "https://translate.googleapis.com/translate_a/single"
	defaultTranslationTimeout  = 15

	defaultNtfyRequestTimeout = 10

	defaultLogLevel  = "info"
	defaultLogFormat = "console"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir:   defaultOutputDir,
			StateDir:    defaultStateDir,
			LogDir:      defaultLogDir,
			CookiesFile: defaultCookiesFile,
		},
		Pipeline: Pipeline{
			ShortWorkers:       defaultShortWorkers,
			LongWorkers:        defaultLongWorkers,
			AudioTimeoutShort:  defaultAudioTimeoutShort,
			AudioTimeoutLong:   defaultAudioTimeoutLong,
			VideoFetchTimeout:  defaultVideoFetchTimeout,
			MixTimeout:         defaultMixTimeout,
			TitleTimeout:       defaultTitleTimeout,
			CooldownSeconds:    defaultCooldownSeconds,
			MinAudioKB:         defaultMinAudioKB,
			TerminateGraceSecs: defaultTerminateGraceSecs,
		},
		Tools: Tools{
			Npx:    defaultNpxCommand,
			VotCLI: defaultVotCLI,
			YtDlp:  defaultYtDlpCommand,
			FFmpeg: defaultFFmpegCommand,
		},
		Mix: Mix{
			OriginalVolume:    defaultOriginalVolume,
			TranslationVolume: defaultTranslationVolume,
		},
		Download: Download{
			MaxHeight:     defaultMaxHeight,
			AudioLanguage: defaultAudioLanguage,
		},
		Translation: Translation{
			Enabled:        true,
			TargetLanguage: defaultTranslationTarget,
			Endpoint:       defaultTranslationEndpoint,
			TimeoutSeconds: defaultTranslationTimeout,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyRequestTimeout,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}
