package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if err := c.Playback.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("playback: %w", err))
	}
	if err := c.Lyrics.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("lyrics: %w", err))
	}
	if err := c.Cache.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("cache: %w", err))
	}
	if err := c.TUI.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("tui: %w", err))
	}
	if err := c.Log.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("log: %w", err))
	}

	return errors.Join(errs...)
}

// Validate checks PlaybackConfig for errors.
func (c *PlaybackConfig) Validate() error {
	switch c.Backend {
	case "", "mpv", "sim":
		// valid
	default:
		return fmt.Errorf("invalid backend: %s (must be mpv or sim)", c.Backend)
	}
	if c.TickInterval < 0 {
		return errors.New("tick_interval must be non-negative")
	}
	if c.Volume < 0 || c.Volume > 100 {
		return errors.New("volume must be between 0 and 100")
	}
	switch c.Repeat {
	case "", "off", "all", "one":
		// valid
	default:
		return fmt.Errorf("invalid repeat mode: %s (must be off, all, or one)", c.Repeat)
	}
	return nil
}

// Validate checks LyricsConfig for errors.
func (c *LyricsConfig) Validate() error {
	switch c.Provider {
	case "", "lrclib", "local", "none":
		// valid
	default:
		return fmt.Errorf("invalid provider: %s (must be lrclib, local, or none)", c.Provider)
	}
	if c.BaseURL != "" {
		u, err := url.Parse(c.BaseURL)
		if err != nil {
			return fmt.Errorf("invalid base_url: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("invalid base_url: %s (must be http or https)", c.BaseURL)
		}
	}
	if c.Timeout < 0 {
		return errors.New("timeout must be non-negative")
	}
	return nil
}

// Validate checks CacheConfig for errors.
func (c *CacheConfig) Validate() error {
	switch c.Backend {
	case "", "bolt", "none":
		// valid
	case "redis":
		if c.RedisURL == "" {
			return errors.New("redis_url is required for the redis backend")
		}
		if !strings.HasPrefix(c.RedisURL, "redis://") && !strings.HasPrefix(c.RedisURL, "rediss://") {
			return fmt.Errorf("invalid redis_url: %s", c.RedisURL)
		}
	default:
		return fmt.Errorf("invalid backend: %s (must be bolt, redis, or none)", c.Backend)
	}
	if c.TTL < 0 {
		return errors.New("ttl must be non-negative")
	}
	return nil
}

// Validate checks TUIConfig for errors.
func (c *TUIConfig) Validate() error {
	switch c.Theme {
	case "", "auto", "latte", "frappe", "macchiato", "mocha":
		// valid
	default:
		return fmt.Errorf("invalid theme: %s (must be auto, latte, frappe, macchiato, or mocha)", c.Theme)
	}
	return nil
}

// Validate checks LogConfig for errors.
func (c *LogConfig) Validate() error {
	switch c.Level {
	case "", "debug", "info", "warn", "error":
		// valid
	default:
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Level)
	}
	return nil
}
