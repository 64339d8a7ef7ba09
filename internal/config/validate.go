package config

import (
	"fmt"

	"golang.org/x/text/language"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePipeline(); err != nil {
		return err
	}
	if err := c.validateMix(); err != nil {
		return err
	}
	if err := c.validateLanguages(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePipeline() error {
	if c.Pipeline.ShortWorkers > 16 {
		return fmt.Errorf("pipeline.short_workers must be at most 16, got %d", c.Pipeline.ShortWorkers)
	}
	if c.Pipeline.AudioTimeoutLong < c.Pipeline.AudioTimeoutShort {
		return fmt.Errorf("pipeline.audio_timeout_long (%d) must not be below audio_timeout_short (%d)",
			c.Pipeline.AudioTimeoutLong, c.Pipeline.AudioTimeoutShort)
	}
	return nil
}

func (c *Config) validateMix() error {
	if c.Mix.OriginalVolume > 1.0 {
		return fmt.Errorf("mix.original_volume must be within (0.0, 1.0], got %.2f", c.Mix.OriginalVolume)
	}
	if c.Mix.TranslationVolume > 1.0 {
		return fmt.Errorf("mix.translation_volume must be within (0.0, 1.0], got %.2f", c.Mix.TranslationVolume)
	}
	return nil
}

func (c *Config) validateLanguages() error {
	if _, err := language.Parse(c.Download.AudioLanguage); err != nil {
		return fmt.Errorf("download.audio_language %q is not a valid language tag: %w", c.Download.AudioLanguage, err)
	}
	if c.Translation.Enabled {
		if _, err := language.Parse(c.Translation.TargetLanguage); err != nil {
			return fmt.Errorf("translation.target_language %q is not a valid language tag: %w", c.Translation.TargetLanguage, err)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
}
