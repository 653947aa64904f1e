package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/julianstephens/hydratemate/internal/constants"
	"github.com/julianstephens/hydratemate/internal/utils"
)

// Env variable names read by Load
const (
	EnvStorage       = "HYDRATEMATE_STORAGE"
	EnvTimezone      = "HYDRATEMATE_TIMEZONE"
	EnvPlatform      = "HYDRATEMATE_PLATFORM"
	EnvLogLevel      = "HYDRATEMATE_LOG_LEVEL"
	EnvNotifications = "HYDRATEMATE_NOTIFICATIONS"
	EnvMetricsAddr   = "HYDRATEMATE_METRICS_ADDR"
	EnvAuthURL       = "HYDRATEMATE_AUTH_URL"
	EnvAuthAnonKey   = "HYDRATEMATE_AUTH_ANON_KEY"
	EnvSupabaseURL   = "SUPABASE_URL"
	EnvSupabaseKey   = "SUPABASE_ANON_KEY"
)

// Config is the application configuration
type Config struct {
	// Storage is a file path (SQLite, or JSON when it ends in .json), a
	// memory:// URL, or a PostgreSQL connection string without a password.
	Storage       string              `yaml:"storage"`
	Timezone      string              `yaml:"timezone"`
	Platform      constants.Platform  `yaml:"platform"`
	Log           LogConfig           `yaml:"log"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Metrics       MetricsConfig       `yaml:"metrics"`
	Auth          AuthConfig          `yaml:"auth"`
	Daemon        DaemonConfig        `yaml:"daemon"`

	path string
}

// LogConfig controls the logger
type LogConfig struct {
	Level string `yaml:"level"`
	Debug bool   `yaml:"debug"`
}

// NotificationsConfig controls reminder delivery
type NotificationsConfig struct {
	// Enabled grants notification permission to the dispatcher
	Enabled bool `yaml:"enabled"`
	// Tray delivers through the tray companion webhook before falling back
	// to the log
	Tray bool `yaml:"tray"`
}

// MetricsConfig controls the daemon Prometheus endpoint
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	Path    string `yaml:"path"`
}

// AuthConfig points at the external auth service
type AuthConfig struct {
	URL     string `yaml:"url"`
	AnonKey string `yaml:"anon_key"`
}

// DaemonConfig holds daemon tuning
type DaemonConfig struct {
	WatchDebounce time.Duration `yaml:"watch_debounce"`
	Rollover      bool          `yaml:"rollover"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Storage:  constants.DefaultConfigPath,
		Timezone: constants.DefaultTimezone,
		Platform: constants.DefaultPlatform,
		Log:      LogConfig{Level: "warn"},
		Notifications: NotificationsConfig{
			Enabled: true,
			Tray:    true,
		},
		Metrics: MetricsConfig{
			Addr: "127.0.0.1:9464",
			Path: "/metrics",
		},
		Daemon: DaemonConfig{
			WatchDebounce: constants.DefaultWatchDebounce,
			Rollover:      true,
		},
	}
}

// DefaultPath returns the default config file location
func DefaultPath() string {
	return filepath.Join(ExpandHome(constants.DefaultConfigDir), constants.DefaultConfigFile)
}

// Load reads configuration from path, layering defaults, the YAML file,
// .env files and HYDRATEMATE_* variables. A missing file is not an error.
func Load(path string) (*Config, error) {
	if err := loadEnvFiles(); err != nil {
		return nil, err
	}

	cfg := Default()
	if path == "" {
		path = DefaultPath()
	}
	cfg.path = ExpandHome(path)

	data, err := os.ReadFile(cfg.path)
	switch {
	case err == nil:
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", cfg.path, err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("failed to read config %s: %w", cfg.path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadEnvFiles loads .env and .env.local from the working directory.
// Existing variables win over file values.
func loadEnvFiles() error {
	for _, name := range []string{".env", ".env.local"} {
		if _, err := os.Stat(name); err != nil {
			continue
		}
		if err := godotenv.Load(name); err != nil {
			return fmt.Errorf("failed to load %s: %w", name, err)
		}
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvStorage); v != "" {
		c.Storage = v
	}
	if v := os.Getenv(EnvTimezone); v != "" {
		c.Timezone = v
	}
	if v := os.Getenv(EnvPlatform); v != "" {
		c.Platform = constants.Platform(strings.ToLower(v))
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv(EnvNotifications); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvNotifications, v, err)
		}
		c.Notifications.Enabled = enabled
	}
	if v := os.Getenv(EnvMetricsAddr); v != "" {
		c.Metrics.Addr = v
		c.Metrics.Enabled = true
	}
	c.Auth.URL = firstNonEmpty(os.Getenv(EnvAuthURL), os.Getenv(EnvSupabaseURL), c.Auth.URL)
	c.Auth.AnonKey = firstNonEmpty(os.Getenv(EnvAuthAnonKey), os.Getenv(EnvSupabaseKey), c.Auth.AnonKey)
	return nil
}

// Validate checks enumerations and the timezone
func (c *Config) Validate() error {
	if _, ok := constants.PlatformMinLead[c.Platform]; !ok {
		return fmt.Errorf("unknown platform %q (expected ios, android or desktop)", c.Platform)
	}
	if _, err := utils.LoadLocation(c.Timezone); err != nil {
		return err
	}
	if c.Daemon.WatchDebounce < 0 {
		return fmt.Errorf("daemon.watch_debounce must not be negative")
	}
	return nil
}

// Location returns the configured time zone
func (c *Config) Location() *time.Location {
	loc, err := utils.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// Path returns the file the configuration was loaded from
func (c *Config) Path() string {
	return c.path
}

// Dir returns the directory holding the configuration file
func (c *Config) Dir() string {
	if c.path == "" {
		return ExpandHome(constants.DefaultConfigDir)
	}
	return filepath.Dir(c.path)
}

// Save writes the configuration as YAML, creating parent directories
func Save(path string, cfg *Config) error {
	path = ExpandHome(path)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// ExpandHome replaces a leading ~ with the user's home directory
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
