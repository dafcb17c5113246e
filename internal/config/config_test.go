package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Playback.Backend != "mpv" {
		t.Errorf("Playback.Backend = %q, want mpv", cfg.Playback.Backend)
	}
	if cfg.Playback.Volume != 80 {
		t.Errorf("Playback.Volume = %d, want 80", cfg.Playback.Volume)
	}
	if cfg.Lyrics.Provider != "lrclib" {
		t.Errorf("Lyrics.Provider = %q, want lrclib", cfg.Lyrics.Provider)
	}
	if !cfg.Lyrics.SidecarEnabled() {
		t.Error("sidecar lyrics should default to enabled")
	}
	if !cfg.TUI.MouseEnabled() {
		t.Error("mouse should default to enabled")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default().Validate() = %v", err)
	}
}

func TestLoadFrom(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[playback]
backend = "sim"
volume = 30
repeat = "all"

[lyrics]
provider = "local"
sidecar = false

[tui]
theme = "mocha"
mouse = false
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if cfg.Playback.Backend != "sim" {
		t.Errorf("Playback.Backend = %q, want sim", cfg.Playback.Backend)
	}
	if cfg.Playback.Volume != 30 {
		t.Errorf("Playback.Volume = %d, want 30", cfg.Playback.Volume)
	}
	if cfg.Playback.TickInterval != 250 {
		t.Errorf("Playback.TickInterval = %d, want default 250", cfg.Playback.TickInterval)
	}
	if cfg.Lyrics.SidecarEnabled() {
		t.Error("Lyrics.Sidecar = true, want false")
	}
	if cfg.TUI.MouseEnabled() {
		t.Error("TUI.Mouse = true, want false")
	}
	if cfg.TUI.Theme != "mocha" {
		t.Errorf("TUI.Theme = %q, want mocha", cfg.TUI.Theme)
	}
	if !strings.HasSuffix(cfg.Cache.Path, "cadence.db") {
		t.Errorf("Cache.Path = %q", cfg.Cache.Path)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("CADENCE_PLAYBACK_BACKEND", "sim")
	t.Setenv("CADENCE_PLAYBACK_VOLUME", "12")
	t.Setenv("CADENCE_PLAYBACK_TICK_INTERVAL", "not-a-number")
	t.Setenv("CADENCE_LYRICS_BASE_URL", "http://localhost:9999")
	t.Setenv("CADENCE_LOG_LEVEL", "debug")

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[playback]\nbackend = \"mpv\"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if cfg.Playback.Backend != "sim" {
		t.Errorf("Playback.Backend = %q, want sim", cfg.Playback.Backend)
	}
	if cfg.Playback.Volume != 12 {
		t.Errorf("Playback.Volume = %d, want 12", cfg.Playback.Volume)
	}
	if cfg.Playback.TickInterval != 250 {
		t.Errorf("Playback.TickInterval = %d, want 250", cfg.Playback.TickInterval)
	}
	if cfg.Lyrics.BaseURL != "http://localhost:9999" {
		t.Errorf("Lyrics.BaseURL = %q", cfg.Lyrics.BaseURL)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug", cfg.Log.Level)
	}
}

func TestLoadFromMissing(t *testing.T) {
	if _, err := LoadFrom(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("LoadFrom() of a missing file should fail")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"bad backend", func(c *Config) { c.Playback.Backend = "vlc" }, "invalid backend: vlc"},
		{"volume high", func(c *Config) { c.Playback.Volume = 101 }, "volume must be between"},
		{"bad repeat", func(c *Config) { c.Playback.Repeat = "track" }, "invalid repeat mode"},
		{"bad provider", func(c *Config) { c.Lyrics.Provider = "genius" }, "invalid provider"},
		{"bad base url", func(c *Config) { c.Lyrics.BaseURL = "ftp://x" }, "invalid base_url"},
		{"redis without url", func(c *Config) { c.Cache.Backend = "redis" }, "redis_url is required"},
		{"redis url", func(c *Config) {
			c.Cache.Backend = "redis"
			c.Cache.RedisURL = "redis://localhost:6379/0"
		}, ""},
		{"bad theme", func(c *Config) { c.TUI.Theme = "solarized" }, "invalid theme"},
		{"bad log level", func(c *Config) { c.Log.Level = "trace" }, "invalid log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestHash(t *testing.T) {
	a, b := Default(), Default()
	ha, err := a.Hash()
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	hb, _ := b.Hash()
	if ha != hb {
		t.Error("identical configs should hash equally")
	}

	b.Playback.Volume = 10
	hb, _ = b.Hash()
	if ha == hb {
		t.Error("different configs should hash differently")
	}
}

func TestLoadFromVolume(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    int
	}{
		{"muted", "[playback]\nvolume = 0\n", 0},
		{"absent", "[playback]\nbackend = \"sim\"\n", 80},
		{"set", "[playback]\nvolume = 55\n", 55},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("XDG_CONFIG_HOME", t.TempDir())
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			cfg, err := LoadFrom(path)
			if err != nil {
				t.Fatalf("LoadFrom() error = %v", err)
			}
			if cfg.Playback.Volume != tt.want {
				t.Errorf("Playback.Volume = %d, want %d", cfg.Playback.Volume, tt.want)
			}
		})
	}
}
