package config

// Config is the root configuration structure.
type Config struct {
	Playback PlaybackConfig `toml:"playback"`
	Lyrics   LyricsConfig   `toml:"lyrics"`
	Cache    CacheConfig    `toml:"cache"`
	Library  LibraryConfig  `toml:"library"`
	TUI      TUIConfig      `toml:"tui"`
	Log      LogConfig      `toml:"log"`
}

// PlaybackConfig holds playback backend settings.
type PlaybackConfig struct {
	Backend      string `toml:"backend"`
	MPVPath      string `toml:"mpv_path"`
	SocketPath   string `toml:"socket_path"`
	TickInterval int    `toml:"tick_interval"` // milliseconds
	Volume       int    `toml:"volume"`
	Repeat       string `toml:"repeat"`
}

// LyricsConfig holds lyric catalog settings.
type LyricsConfig struct {
	Provider string `toml:"provider"`
	BaseURL  string `toml:"base_url"`
	Timeout  int    `toml:"timeout"` // seconds
	Sidecar  *bool  `toml:"sidecar"`
}

// SidecarEnabled reports whether .lrc files next to tracks are consulted.
func (c LyricsConfig) SidecarEnabled() bool {
	return c.Sidecar == nil || *c.Sidecar
}

// CacheConfig holds lyric cache settings.
type CacheConfig struct {
	Backend  string `toml:"backend"`
	Path     string `toml:"path"`
	RedisURL string `toml:"redis_url"`
	TTL      int    `toml:"ttl"` // hours
}

// LibraryConfig holds local library settings.
type LibraryConfig struct {
	Dir string `toml:"dir"`
}

// TUIConfig holds terminal UI settings.
type TUIConfig struct {
	Theme string `toml:"theme"`
	Mouse *bool  `toml:"mouse"`
}

// MouseEnabled reports whether mouse input is captured.
func (c TUIConfig) MouseEnabled() bool {
	return c.Mouse == nil || *c.Mouse
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}
