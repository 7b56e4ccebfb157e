package config

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Load reads the configuration from config.toml, applies the .env overlay
// for credentials, and returns a Config struct
func Load() (*Config, error) {
	// Credentials live in .env, never in the config file.
	_ = godotenv.Load()

	viper.SetConfigName("config")
	viper.SetConfigType("toml")
	viper.AddConfigPath("$HOME/.config/purplemusic/")
	viper.AddConfigPath(".")

	defaults := DefaultConfig()
	viper.SetDefault("services.payment_memo", defaults.Services.PaymentMemo)
	viper.SetDefault("services.premium_price", defaults.Services.PremiumPrice)
	viper.SetDefault("database.port", defaults.Database.Port)
	viper.SetDefault("database.ssl_mode", defaults.Database.SSLMode)
	viper.SetDefault("ui.page_size", defaults.UI.PageSize)
	viper.SetDefault("ui.progress_bar_width", defaults.UI.ProgressBarWidth)
	viper.SetDefault("ui.max_column_width", defaults.UI.MaxColumnWidth)
	viper.SetDefault("player.http_timeout", defaults.Player.HTTPTimeout)
	viper.SetDefault("player.volume", defaults.Player.Volume)
	viper.SetDefault("library.music_dir", defaults.Library.MusicDir)
	viper.SetDefault("library.state_dir", defaults.Library.StateDir)
	viper.SetDefault("library.watch", defaults.Library.Watch)
	viper.SetDefault("log.file", defaults.Log.File)
	viper.SetDefault("log.level", defaults.Log.Level)

	if err := viper.ReadInConfig(); err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	required := []string{
		"services.api_base_url",
		"services.video_search",
		"services.music_search",
	}
	for _, key := range required {
		if !viper.IsSet(key) {
			return nil, errors.Errorf("missing required config: %s", key)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	applyEnvOverlay(&cfg)
	expandPaths(&cfg)
	return &cfg, nil
}

// applyEnvOverlay pulls credentials from the environment on top of the
// file-based config.
func applyEnvOverlay(cfg *Config) {
	if v := os.Getenv("PURPLEMUSIC_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("PURPLEMUSIC_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("PURPLEMUSIC_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("PURPLEMUSIC_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
}

// expandPaths resolves $HOME placeholders in path-valued settings.
func expandPaths(cfg *Config) {
	cfg.Library.MusicDir = os.ExpandEnv(cfg.Library.MusicDir)
	cfg.Library.StateDir = os.ExpandEnv(cfg.Library.StateDir)
	cfg.Log.File = os.ExpandEnv(cfg.Log.File)
}
