package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/mitchellh/hashstructure/v2"
)

// Load reads configuration from standard locations with environment overrides.
// Search order: ~/.cadencerc, $XDG_CONFIG_HOME/cadence/config.toml, ~/.config/cadence/config.toml
func Load() (*Config, error) {
	cfg := Default()

	path := findConfigFile()
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, err
		}
	}

	cfg.ApplyDefaults()
	loadDotEnv()
	applyEnvOverrides(cfg)

	return cfg, nil
}

// LoadFrom reads configuration from a specific file path.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	loadDotEnv()
	applyEnvOverrides(cfg)
	return cfg, nil
}

// Path returns the config file that Load would read, or the default location
// for a new one.
func Path() string {
	if p := findConfigFile(); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".cadencerc"
	}
	return filepath.Join(home, ".cadencerc")
}

// Hash returns a hash of the effective configuration. Two configs with the
// same hash behave identically.
func (c *Config) Hash() (uint64, error) {
	return hashstructure.Hash(c, hashstructure.FormatV2, nil)
}

// loadDotEnv loads a .env file from the working directory, if present.
// Variables already set in the environment win.
func loadDotEnv() {
	_ = godotenv.Load()
}

// findConfigFile returns the first existing config file path.
func findConfigFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	paths := []string{
		filepath.Join(home, ".cadencerc"),
		filepath.Join(Dir(), "config.toml"),
	}

	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(cfg *Config) {
	// Playback
	if v := os.Getenv("CADENCE_PLAYBACK_BACKEND"); v != "" {
		cfg.Playback.Backend = v
	}
	if v := os.Getenv("CADENCE_PLAYBACK_MPV_PATH"); v != "" {
		cfg.Playback.MPVPath = v
	}
	if v := os.Getenv("CADENCE_PLAYBACK_SOCKET_PATH"); v != "" {
		cfg.Playback.SocketPath = v
	}
	if v := os.Getenv("CADENCE_PLAYBACK_TICK_INTERVAL"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Playback.TickInterval = i
		}
	}
	if v := os.Getenv("CADENCE_PLAYBACK_VOLUME"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Playback.Volume = i
		}
	}
	if v := os.Getenv("CADENCE_PLAYBACK_REPEAT"); v != "" {
		cfg.Playback.Repeat = v
	}

	// Lyrics
	if v := os.Getenv("CADENCE_LYRICS_PROVIDER"); v != "" {
		cfg.Lyrics.Provider = v
	}
	if v := os.Getenv("CADENCE_LYRICS_BASE_URL"); v != "" {
		cfg.Lyrics.BaseURL = v
	}
	if v := os.Getenv("CADENCE_LYRICS_TIMEOUT"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Lyrics.Timeout = i
		}
	}

	// Cache
	if v := os.Getenv("CADENCE_CACHE_BACKEND"); v != "" {
		cfg.Cache.Backend = v
	}
	if v := os.Getenv("CADENCE_CACHE_PATH"); v != "" {
		cfg.Cache.Path = v
	}
	if v := os.Getenv("CADENCE_CACHE_REDIS_URL"); v != "" {
		cfg.Cache.RedisURL = v
	}

	// Library
	if v := os.Getenv("CADENCE_LIBRARY_DIR"); v != "" {
		cfg.Library.Dir = v
	}

	// TUI
	if v := os.Getenv("CADENCE_TUI_THEME"); v != "" {
		cfg.TUI.Theme = v
	}

	// Log
	if v := os.Getenv("CADENCE_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("CADENCE_LOG_FILE"); v != "" {
		cfg.Log.File = v
	}
}
