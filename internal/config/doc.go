// Package config loads and validates the TOML configuration for the dubbing
// pipeline: filesystem layout, external tool commands, stage deadlines, mix
// levels, and notification settings. Defaults are usable without any config
// file present.
package config
