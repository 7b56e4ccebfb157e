package config

import "time"

// Config represents the complete application configuration
type Config struct {
	Services ServicesConfig `mapstructure:"services"`
	Database DatabaseConfig `mapstructure:"database"`
	UI       UIConfig       `mapstructure:"ui"`
	Player   PlayerConfig   `mapstructure:"player"`
	Library  LibraryConfig  `mapstructure:"library"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServicesConfig contains the remote service endpoints
type ServicesConfig struct {
	APIBaseURL   string  `mapstructure:"api_base_url"`  // app server (auth, payments, lyrics)
	VideoSearch  string  `mapstructure:"video_search"`  // video search proxy
	MusicSearch  string  `mapstructure:"music_search"`  // music search aggregator
	PaymentMemo  string  `mapstructure:"payment_memo"`  // memo on premium payments
	PremiumPrice float64 `mapstructure:"premium_price"` // in Pi
}

// DatabaseConfig contains the hosted Postgres connection settings.
// Credentials come from the environment overlay, not the config file.
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"ssl_mode"`
}

// UIConfig contains user interface settings
type UIConfig struct {
	PageSize         int `mapstructure:"page_size"`
	ProgressBarWidth int `mapstructure:"progress_bar_width"`
	MaxColumnWidth   int `mapstructure:"max_column_width"`
}

// PlayerConfig contains playback and HTTP client settings
type PlayerConfig struct {
	HTTPTimeout int     `mapstructure:"http_timeout"` // in seconds
	Volume      float64 `mapstructure:"volume"`       // initial volume, 0..1
}

// LibraryConfig contains local music collection settings
type LibraryConfig struct {
	MusicDir string `mapstructure:"music_dir"`
	StateDir string `mapstructure:"state_dir"` // playback snapshots and caches
	Watch    bool   `mapstructure:"watch"`
}

// LogConfig contains logging settings; the TUI owns the terminal so logs
// go to a file.
type LogConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// GetHTTPTimeout returns the HTTP timeout as a time.Duration
func (p *PlayerConfig) GetHTTPTimeout() time.Duration {
	return time.Duration(p.HTTPTimeout) * time.Second
}

// DefaultConfig returns a Config with sensible default values
func DefaultConfig() *Config {
	return &Config{
		Services: ServicesConfig{
			PaymentMemo:  "PurpleMusic Premium",
			PremiumPrice: 1,
		},
		Database: DatabaseConfig{
			Port:    5432,
			SSLMode: "require",
		},
		UI: UIConfig{
			PageSize:         20,
			ProgressBarWidth: 30,
			MaxColumnWidth:   40,
		},
		Player: PlayerConfig{
			HTTPTimeout: 30,
			Volume:      0.8,
		},
		Library: LibraryConfig{
			MusicDir: "$HOME/Music",
			StateDir: "$HOME/.local/share/purplemusic",
			Watch:    true,
		},
		Log: LogConfig{
			File:  "$HOME/.local/share/purplemusic/purplemusic.log",
			Level: "info",
		},
	}
}
