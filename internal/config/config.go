// Package config provides configuration management for tabtriage.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/goccy/go-json"

	"github.com/thebtf/tabtriage/internal/kv"
)

const (
	// DefaultWorkerPort is the default HTTP port for the worker service.
	DefaultWorkerPort = 37790

	// DefaultMaxBodyBytes caps request bodies on the worker API.
	DefaultMaxBodyBytes = 4 << 20

	// DefaultLogLevel is used when no level is configured.
	DefaultLogLevel = "info"

	// DefaultRedisPrefix namespaces tabtriage keys in a shared redis.
	DefaultRedisPrefix = "tabtriage:"

	// DefaultMaintenanceIntervalHours is how often archived sessions are pruned.
	DefaultMaintenanceIntervalHours = 24

	// EnvPrefix prefixes settings keys and environment overrides.
	EnvPrefix = "TABTRIAGE_"
)

// Config holds the application configuration.
type Config struct {
	// Worker settings
	WorkerPort   int   `json:"worker_port"`
	MaxBodyBytes int64 `json:"max_body_bytes"`
	AuthEnabled  bool  `json:"auth_enabled"`

	// Storage settings
	Backend     kv.Backend `json:"backend"`
	SQLitePath  string     `json:"sqlite_path"`
	PostgresDSN string     `json:"postgres_dsn"`
	MaxConns    int        `json:"max_conns"`
	RedisAddr   string     `json:"redis_addr"`
	RedisPrefix string     `json:"redis_prefix"`

	// Maintenance settings
	MaintenanceEnabled       bool `json:"maintenance_enabled"`
	MaintenanceIntervalHours int  `json:"maintenance_interval_hours"`
	SessionRetentionDays     int  `json:"session_retention_days"` // 0 keeps sessions forever
	MaxSessions              int  `json:"max_sessions"`           // 0 is unlimited

	// Presentation
	LogLevel string `json:"log_level"`
	Locale   string `json:"locale"`
}

var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// dataDirOverride lets tests redirect the data directory.
var dataDirOverride string

// DataDir returns the data directory path (~/.tabtriage).
func DataDir() string {
	if dataDirOverride != "" {
		return dataDirOverride
	}
	if dir := os.Getenv(EnvPrefix + "DATA_DIR"); dir != "" {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".tabtriage")
}

// SQLitePath returns the default database file path.
func SQLitePath() string {
	return filepath.Join(DataDir(), "tabtriage.db")
}

// SettingsPath returns the settings file path.
func SettingsPath() string {
	return filepath.Join(DataDir(), "settings.json")
}

// EnsureDataDir creates the data directory if it doesn't exist.
func EnsureDataDir() error {
	return os.MkdirAll(DataDir(), 0750)
}

// EnsureSettings creates a default settings file if it doesn't exist.
func EnsureSettings() error {
	path := SettingsPath()
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	defaultSettings := `{
  "TABTRIAGE_WORKER_PORT": 37790,
  "TABTRIAGE_BACKEND": "sqlite",
  "TABTRIAGE_LOG_LEVEL": "info",
  "TABTRIAGE_LOCALE": "en"
}
`
	return os.WriteFile(path, []byte(defaultSettings), 0600)
}

// EnsureAll ensures all required directories and files exist.
func EnsureAll() error {
	if err := EnsureDataDir(); err != nil {
		return err
	}
	return EnsureSettings()
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		WorkerPort:   DefaultWorkerPort,
		MaxBodyBytes: DefaultMaxBodyBytes,
		Backend:      kv.BackendSQLite,
		SQLitePath:   SQLitePath(),
		MaxConns:     4,
		RedisPrefix:  DefaultRedisPrefix,
		LogLevel:     DefaultLogLevel,

		MaintenanceEnabled:       true,
		MaintenanceIntervalHours: DefaultMaintenanceIntervalHours,
		Locale:                   "en",
	}
}

// Load loads configuration from the settings file, merging with defaults.
// Environment variables override file values.
func Load() (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(SettingsPath())
	switch {
	case err == nil:
		var settings map[string]interface{}
		if json.Unmarshal(data, &settings) == nil {
			apply(cfg, settings)
		}
	case !os.IsNotExist(err):
		return nil, err
	}

	applyEnv(cfg)
	return cfg, nil
}

// apply maps recognized settings onto cfg. Invalid values keep the default.
func apply(cfg *Config, settings map[string]interface{}) {
	if v, ok := settings[EnvPrefix+"WORKER_PORT"].(float64); ok && validPort(int(v)) {
		cfg.WorkerPort = int(v)
	}
	if v, ok := settings[EnvPrefix+"MAX_BODY_BYTES"].(float64); ok && v > 0 {
		cfg.MaxBodyBytes = int64(v)
	}
	if v, ok := settings[EnvPrefix+"AUTH_ENABLED"].(bool); ok {
		cfg.AuthEnabled = v
	}
	if v, ok := settings[EnvPrefix+"BACKEND"].(string); ok && kv.Backend(v).Valid() {
		cfg.Backend = kv.Backend(v)
	}
	if v, ok := settings[EnvPrefix+"SQLITE_PATH"].(string); ok && v != "" {
		cfg.SQLitePath = v
	}
	if v, ok := settings[EnvPrefix+"POSTGRES_DSN"].(string); ok {
		cfg.PostgresDSN = v
	}
	if v, ok := settings[EnvPrefix+"MAX_CONNS"].(float64); ok && v > 0 {
		cfg.MaxConns = int(v)
	}
	if v, ok := settings[EnvPrefix+"REDIS_ADDR"].(string); ok {
		cfg.RedisAddr = v
	}
	if v, ok := settings[EnvPrefix+"REDIS_PREFIX"].(string); ok {
		cfg.RedisPrefix = v
	}
	if v, ok := settings[EnvPrefix+"MAINTENANCE_ENABLED"].(bool); ok {
		cfg.MaintenanceEnabled = v
	}
	if v, ok := settings[EnvPrefix+"MAINTENANCE_INTERVAL_HOURS"].(float64); ok && v >= 1 {
		cfg.MaintenanceIntervalHours = int(v)
	}
	if v, ok := settings[EnvPrefix+"SESSION_RETENTION_DAYS"].(float64); ok && v >= 0 {
		cfg.SessionRetentionDays = int(v)
	}
	if v, ok := settings[EnvPrefix+"MAX_SESSIONS"].(float64); ok && v >= 0 {
		cfg.MaxSessions = int(v)
	}
	if v, ok := settings[EnvPrefix+"LOG_LEVEL"].(string); ok && v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v, ok := settings[EnvPrefix+"LOCALE"].(string); ok && v != "" {
		cfg.Locale = v
	}
}

// applyEnv applies environment overrides for the settings most often changed per process.
func applyEnv(cfg *Config) {
	if port, err := strconv.Atoi(os.Getenv(EnvPrefix + "WORKER_PORT")); err == nil && validPort(port) {
		cfg.WorkerPort = port
	}
	if b := kv.Backend(os.Getenv(EnvPrefix + "BACKEND")); b.Valid() {
		cfg.Backend = b
	}
	if v := os.Getenv(EnvPrefix + "POSTGRES_DSN"); v != "" {
		cfg.PostgresDSN = v
	}
	if v := os.Getenv(EnvPrefix + "REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv(EnvPrefix + "LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v := os.Getenv(EnvPrefix + "LOCALE"); v != "" {
		cfg.Locale = v
	}
}

func validPort(p int) bool {
	return p > 0 && p < 65536
}

// StoreOptions returns the kv options for the configured backend.
func (c *Config) StoreOptions() kv.Options {
	return kv.Options{
		Backend:     c.Backend,
		SQLitePath:  c.SQLitePath,
		PostgresDSN: c.PostgresDSN,
		MaxConns:    c.MaxConns,
		RedisAddr:   c.RedisAddr,
		RedisPrefix: c.RedisPrefix,
	}
}

// Get returns the global configuration, loading it if necessary.
func Get() *Config {
	configOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			cfg = Default()
		}
		configMu.Lock()
		globalConfig = cfg
		configMu.Unlock()
	})

	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}

// Reload re-reads the settings file and replaces the global configuration.
func Reload() (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}
	configOnce.Do(func() {})
	configMu.Lock()
	globalConfig = cfg
	configMu.Unlock()
	return cfg, nil
}
