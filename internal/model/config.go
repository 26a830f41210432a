package model

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/viper"
)

// ServerConfig holds connection settings for the campaign service.
type ServerConfig struct {
	// BaseURL is the root URL of the REST API
	// (e.g., https://api.coffeemeet.example.com).
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
}

// SyncConfig tunes the notification synchronization engine.
type SyncConfig struct {
	// PollIntervalSec is how often (in seconds) the unread counter
	// is polled while the window is visible.
	PollIntervalSec int `mapstructure:"poll_interval_sec" yaml:"poll_interval_sec"`

	// SettleDelaySec is the pause before an immediate check runs,
	// giving the server time to materialize a just-caused notification.
	SettleDelaySec int `mapstructure:"settle_delay_sec" yaml:"settle_delay_sec"`

	// FreshnessSec is the smart-refresh threshold: a list fetch is
	// skipped when the last successful fetch is younger than this,
	// unless forced.
	FreshnessSec int `mapstructure:"freshness_sec" yaml:"freshness_sec"`

	// PageSize is the page size used for list fetches and load-more.
	PageSize int `mapstructure:"page_size" yaml:"page_size"`
}

// ArchiveConfig controls the local notification archive.
type ArchiveConfig struct {
	// Enabled toggles archiving of every notification seen.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Path is the SQLite database file location.
	Path string `mapstructure:"path" yaml:"path"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme string `mapstructure:"theme" yaml:"theme"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	// ClientID is a stable per-installation identifier sent with every
	// API request. Generated on first load and saved back.
	ClientID string `mapstructure:"client_id" yaml:"client_id"`

	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
	Sync    SyncConfig    `mapstructure:"sync" yaml:"sync"`
	Archive ArchiveConfig `mapstructure:"archive" yaml:"archive"`
	Display DisplayConfig `mapstructure:"display" yaml:"display"`

	// LogFile is where the application writes its log. A TUI owns
	// stdout, so logging always goes to a file.
	LogFile string `mapstructure:"log_file" yaml:"log_file"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/coffeemeet/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "coffeemeet", "config.yaml")
}

// defaultDataPath returns a path under ~/.local/share/coffeemeet.
func defaultDataPath(name string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", name)
	}
	return filepath.Join(home, ".local", "share", "coffeemeet", name)
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Sync: SyncConfig{
			PollIntervalSec: 15,
			SettleDelaySec:  2,
			FreshnessSec:    30,
			PageSize:        20,
		},
		Archive: ArchiveConfig{
			Enabled: true,
			Path:    defaultDataPath("archive.db"),
		},
		Display: DisplayConfig{Theme: "default"},
		LogFile: defaultDataPath("coffeemeet.log"),
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration. A missing
// client ID is generated and persisted so every request carries a stable
// installation identifier.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("sync.poll_interval_sec", 15)
	v.SetDefault("sync.settle_delay_sec", 2)
	v.SetDefault("sync.freshness_sec", 30)
	v.SetDefault("sync.page_size", 20)
	v.SetDefault("archive.enabled", true)
	v.SetDefault("archive.path", defaultDataPath("archive.db"))
	v.SetDefault("display.theme", "default")
	v.SetDefault("log_file", defaultDataPath("coffeemeet.log"))

	cfg := defaultAppConfig()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return ensureClientID(path, cfg)
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return ensureClientID(path, cfg)
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return ensureClientID(path, cfg)
}

// ensureClientID fills in a generated client ID and writes the config back
// when one is missing. Save failures are non-fatal; the generated ID is
// still used for the session.
func ensureClientID(path string, cfg *AppConfig) (*AppConfig, error) {
	if cfg.ClientID != "" {
		return cfg, nil
	}
	cfg.ClientID = uuid.NewString()
	_ = SaveConfig(path, cfg)
	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("client_id", cfg.ClientID)
	v.Set("server", cfg.Server)
	v.Set("sync", cfg.Sync)
	v.Set("archive", cfg.Archive)
	v.Set("display", cfg.Display)
	v.Set("log_file", cfg.LogFile)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
