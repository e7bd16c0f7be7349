// Package config loads and saves the finlens configuration file and overlays
// environment and flag overrides onto it.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"
)

// Config holds all finlens configuration.
type Config struct {
	General    GeneralConfig    `toml:"general"`
	Backend    BackendConfig    `toml:"backend"`
	Firebase   FirebaseConfig   `toml:"firebase"`
	Appearance AppearanceConfig `toml:"appearance"`
	Logging    LoggingConfig    `toml:"logging"`
}

// GeneralConfig holds general preferences.
type GeneralConfig struct {
	Currency string `toml:"currency"`
	StateDB  string `toml:"state_db,omitempty"`
}

// BackendConfig holds the analytics and advice API settings.
type BackendConfig struct {
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// FirebaseConfig holds identity provider and document store settings.
type FirebaseConfig struct {
	ProjectID       string `toml:"project_id,omitempty"`
	APIKey          string `toml:"api_key,omitempty"`
	CredentialsFile string `toml:"credentials_file,omitempty"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// LoggingConfig controls the log level and file.
type LoggingConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			Currency: "₹",
		},
		Backend: BackendConfig{
			BaseURL:        "http://localhost:8000",
			TimeoutSeconds: 30,
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "finlens")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "finlens")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// StateDir returns the XDG-compliant state directory holding the local
// database and log file.
func StateDir() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "finlens")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "state", "finlens")
}

// Load reads the config file, returning defaults if it doesn't exist.
func Load() (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(ConfigPath())
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(ConfigPath(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}

// NewViper returns a viper instance reading FINLENS_* environment variables,
// with dotted keys mapped to underscores (backend.base_url ->
// FINLENS_BACKEND_BASE_URL).
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("FINLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// ApplyOverrides overlays every key set in v (bound flags or environment) on
// top of cfg.
func ApplyOverrides(cfg *Config, v *viper.Viper) {
	str := func(key string, dst *string) {
		if v.IsSet(key) {
			if s := strings.TrimSpace(v.GetString(key)); s != "" {
				*dst = s
			}
		}
	}
	str("general.currency", &cfg.General.Currency)
	str("general.state_db", &cfg.General.StateDB)
	str("backend.base_url", &cfg.Backend.BaseURL)
	str("firebase.project_id", &cfg.Firebase.ProjectID)
	str("firebase.api_key", &cfg.Firebase.APIKey)
	str("firebase.credentials_file", &cfg.Firebase.CredentialsFile)
	str("appearance.theme", &cfg.Appearance.Theme)
	str("logging.level", &cfg.Logging.Level)
	str("logging.file", &cfg.Logging.File)

	if v.IsSet("backend.timeout_seconds") {
		cfg.Backend.TimeoutSeconds = v.GetInt("backend.timeout_seconds")
	}
}

// StateDBPath returns the local state database path.
func StateDBPath(cfg Config) string {
	if cfg.General.StateDB != "" {
		return cfg.General.StateDB
	}
	return filepath.Join(StateDir(), "state.db")
}

// LogPath returns the log file path.
func LogPath(cfg Config) string {
	if cfg.Logging.File != "" {
		return cfg.Logging.File
	}
	return filepath.Join(StateDir(), "finlens.log")
}

// RequestTimeout returns the backend transport timeout. Zero means none.
func RequestTimeout(cfg Config) time.Duration {
	if cfg.Backend.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(cfg.Backend.TimeoutSeconds) * time.Second
}

// GetAPIKey returns the identity provider web API key from env var or config,
// in that order.
func GetAPIKey(cfg Config) string {
	if key := os.Getenv("FIREBASE_API_KEY"); key != "" {
		return key
	}
	return cfg.Firebase.APIKey
}

// GetCredentialsFile returns the service-account credentials path from env
// var or config, in that order.
func GetCredentialsFile(cfg Config) string {
	if p := os.Getenv("FIREBASE_CREDENTIALS_FILE"); p != "" {
		return p
	}
	return cfg.Firebase.CredentialsFile
}

// GetProjectID returns the Google Cloud project from env var or config, in
// that order.
func GetProjectID(cfg Config) string {
	if p := os.Getenv("GOOGLE_CLOUD_PROJECT"); p != "" {
		return p
	}
	return cfg.Firebase.ProjectID
}
