package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and file layout configuration.
type Paths struct {
	OutputDir   string `toml:"output_dir"`
	StateDir    string `toml:"state_dir"`
	LogDir      string `toml:"log_dir"`
	CookiesFile string `toml:"cookies_file"`
}

// Pipeline contains worker counts, stage deadlines, and validation thresholds.
type Pipeline struct {
	ShortWorkers       int `toml:"short_workers"`
	LongWorkers        int `toml:"long_workers"`
	AudioTimeoutShort  int `toml:"audio_timeout_short"`
	AudioTimeoutLong   int `toml:"audio_timeout_long"`
	VideoFetchTimeout  int `toml:"video_fetch_timeout"`
	MixTimeout         int `toml:"mix_timeout"`
	TitleTimeout       int `toml:"title_timeout"`
	CooldownSeconds    int `toml:"cooldown_seconds"`
	MinAudioKB         int `toml:"min_audio_kb"`
	TerminateGraceSecs int `toml:"terminate_grace_seconds"`
}

// Tools names the external binaries the pipeline drives.
type Tools struct {
	Npx    string `toml:"npx"`
	VotCLI string `toml:"vot_cli"`
	YtDlp  string `toml:"yt_dlp"`
	FFmpeg string `toml:"ffmpeg"`
}

// Mix contains the audio mixing gain levels.
type Mix struct {
	OriginalVolume    float64 `toml:"original_volume"`
	TranslationVolume float64 `toml:"translation_volume"`
}

// Download contains source-media format selection.
type Download struct {
	MaxHeight     int    `toml:"max_height"`
	AudioLanguage string `toml:"audio_language"`
}

// Translation contains title translation settings.
type Translation struct {
	Enabled        bool   `toml:"enabled"`
	TargetLanguage string `toml:"target_language"`
	Endpoint       string `toml:"endpoint"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Notifications contains ntfy push notification settings.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Logging contains log level and format settings.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config is the root configuration document.
type Config struct {
	Paths         Paths         `toml:"paths"`
	Pipeline      Pipeline      `toml:"pipeline"`
	Tools         Tools         `toml:"tools"`
	Mix           Mix           `toml:"mix"`
	Download      Download      `toml:"download"`
	Translation   Translation   `toml:"translation"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the standard location of the config file.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", "dubber", "config.toml"), nil
}

// Load reads configuration from path, falling back to defaults when the file
// does not exist. An empty path uses DefaultConfigPath.
func Load(path string) (*Config, error) {
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return nil, err
		}
		path = defaultPath
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// WriteSample writes the embedded sample configuration to path, refusing to
// overwrite an existing file.
func WriteSample(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return os.WriteFile(path, []byte(sampleConfig), 0o644)
}

// EnsureDirectories creates the output, state, and log directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Paths.OutputDir,
		c.VideosDir(),
		c.ShortsDir(),
		c.Paths.StateDir,
		c.Paths.LogDir,
	}
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// VideosDir is the output partition for long-form items.
func (c *Config) VideosDir() string {
	return filepath.Join(c.Paths.OutputDir, "videos")
}

// ShortsDir is the output partition for short-form items.
func (c *Config) ShortsDir() string {
	return filepath.Join(c.Paths.OutputDir, "shorts")
}

// LedgerPath is the SQLite database holding processed video records.
func (c *Config) LedgerPath() string {
	return filepath.Join(c.Paths.StateDir, "processed.db")
}

// JournalPath is the append-only failure journal.
func (c *Config) JournalPath() string {
	return filepath.Join(c.Paths.StateDir, "failed.txt")
}

// LockPath is the single-instance run lock.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "dubber.lock")
}
