package config

import (
	"os"
	"path/filepath"
)

// Default returns a Config populated with sensible defaults.
func Default() *Config {
	return &Config{
		Playback: PlaybackConfig{
			Backend:      "mpv",
			MPVPath:      "mpv",
			TickInterval: 250,
			Volume:       80,
			Repeat:       "off",
		},
		Lyrics: LyricsConfig{
			Provider: "lrclib",
			BaseURL:  "https://lrclib.net",
			Timeout:  10,
		},
		Cache: CacheConfig{
			Backend: "bolt",
			TTL:     24 * 7,
		},
		TUI: TUIConfig{
			Theme: "auto",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// ApplyDefaults fills in zero values with sensible defaults.
func (c *Config) ApplyDefaults() {
	d := Default()

	// Playback
	if c.Playback.Backend == "" {
		c.Playback.Backend = d.Playback.Backend
	}
	if c.Playback.MPVPath == "" {
		c.Playback.MPVPath = d.Playback.MPVPath
	}
	if c.Playback.SocketPath == "" {
		c.Playback.SocketPath = filepath.Join(os.TempDir(), "cadence-mpv.sock")
	}
	if c.Playback.TickInterval == 0 {
		c.Playback.TickInterval = d.Playback.TickInterval
	}
	// Volume 0 is a real setting (muted). Callers decode into Default() so
	// that an absent key keeps the default volume.
	if c.Playback.Repeat == "" {
		c.Playback.Repeat = d.Playback.Repeat
	}

	// Lyrics
	if c.Lyrics.Provider == "" {
		c.Lyrics.Provider = d.Lyrics.Provider
	}
	if c.Lyrics.BaseURL == "" {
		c.Lyrics.BaseURL = d.Lyrics.BaseURL
	}
	if c.Lyrics.Timeout == 0 {
		c.Lyrics.Timeout = d.Lyrics.Timeout
	}

	// Cache
	if c.Cache.Backend == "" {
		c.Cache.Backend = d.Cache.Backend
	}
	if c.Cache.Path == "" {
		c.Cache.Path = filepath.Join(Dir(), "cadence.db")
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = d.Cache.TTL
	}

	// TUI
	if c.TUI.Theme == "" {
		c.TUI.Theme = d.TUI.Theme
	}

	// Log
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.File == "" {
		c.Log.File = filepath.Join(Dir(), "cadence.log")
	}
}

// Dir returns the cadence configuration directory.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "cadence")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".cadence"
	}
	return filepath.Join(home, ".config", "cadence")
}
