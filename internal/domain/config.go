package domain

import (
	_ "embed"
	"path/filepath"
	"time"
)

//go:embed config_template.toml
var configTemplateContent string

// Config represents the application configuration.
// Fields are ordered to minimize memory padding.
type Config struct {
	Warnings  []string        `toml:"-"`
	Store     StoreConfig     `toml:"store"`
	Server    ServerConfig    `toml:"server"`
	Notify    NotifyConfig    `toml:"notify"`
	LoopGuard LoopGuardConfig `toml:"loopguard"`
	Dedup     DedupConfig     `toml:"dedup"`
	Log       LogConfig       `toml:"log"`
	Secrets   SecretsConfig   `toml:"secrets"`
	Webhooks  WebhooksConfig  `toml:"webhooks"`
	Scheduler SchedulerConfig `toml:"scheduler"`
	Telemetry TelemetryConfig `toml:"telemetry"`
}

// StoreConfig holds settings from the [store] section.
type StoreConfig struct {
	Driver string `toml:"driver,omitempty"` // "sqlite" (default) or "postgres"
	DSN    string `toml:"dsn,omitempty"`    // Data source; sqlite defaults to <data-dir>/swarm.db
}

// ServerConfig holds settings from the [server] section.
type ServerConfig struct {
	Listen          string        `toml:"listen,omitempty"`           // Listen address for webhooks and metrics
	ShutdownTimeout time.Duration `toml:"shutdown_timeout,omitempty"` // Graceful shutdown budget
}

// SchedulerConfig holds settings from the [scheduler] section.
type SchedulerConfig struct {
	Interval time.Duration `toml:"interval,omitempty"` // Tick cadence
	Enabled  bool          `toml:"enabled"`            // Run the scheduler inside `swarm serve`
}

// LoopGuardConfig holds settings from the [loopguard] section.
type LoopGuardConfig struct {
	Backend  string        `toml:"backend,omitempty"`   // "store" (default), "memory" or "redis"
	RedisURL string        `toml:"redis_url,omitempty"` // Redis URL when backend = "redis"
	TTL      time.Duration `toml:"ttl,omitempty"`       // Idle expiry of a Redis window
}

// DedupConfig holds settings from the [dedup] section.
type DedupConfig struct {
	Backend  string        `toml:"backend,omitempty"`   // "store" (default), "memory" or "redis"
	RedisURL string        `toml:"redis_url,omitempty"` // Redis URL when backend = "redis"
	TTL      time.Duration `toml:"ttl,omitempty"`       // Dedup window
}

// NotifyConfig holds settings from the [notify] section.
type NotifyConfig struct {
	Driver  string `toml:"driver,omitempty"`  // "log" (default), "redis" or "nats"
	URL     string `toml:"url,omitempty"`     // Broker URL
	Subject string `toml:"subject,omitempty"` // Channel or subject task events are published on
}

// SecretsConfig holds settings from the [secrets] section.
type SecretsConfig struct {
	Key string `toml:"key,omitempty"` // Passphrase for encrypting secret config values at rest
}

// LogConfig holds settings from the [log] section.
type LogConfig struct {
	Level  string `toml:"level,omitempty"`  // debug, info, warn, error
	Format string `toml:"format,omitempty"` // text or json
	File   string `toml:"file,omitempty"`   // Optional log file, teed with stderr
}

// WebhooksConfig holds settings from the [webhooks] section.
type WebhooksConfig struct {
	SlackSigningSecret string `toml:"slack_signing_secret,omitempty"`
	AgentMailSecret    string `toml:"agentmail_secret,omitempty"`
}

// TelemetryConfig holds settings from the [telemetry] section.
type TelemetryConfig struct {
	ServiceName string `toml:"service_name,omitempty"`
	Enabled     bool   `toml:"enabled"`
}

// Default configuration values.
const (
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "text"
	DefaultStoreDriver     = "sqlite"
	DefaultListen          = "127.0.0.1:8420"
	DefaultShutdownTimeout = 10 * time.Second
	DefaultTickInterval    = 30 * time.Second
	DefaultDedupTTL        = 60 * time.Second
	DefaultLoopHistoryTTL  = 24 * time.Hour
	DefaultNotifyDriver    = "log"
	DefaultNotifySubject   = "swarm.tasks"
	DefaultServiceName     = "agent-swarm"
	BackendStore           = "store"
	BackendMemory          = "memory"
	BackendRedis           = "redis"
)

// Directory and file names.
const (
	AppDirName     = "agent-swarm" // Directory name under XDG_CONFIG_HOME
	DataDirName    = ".swarm"      // Default data directory in the working directory
	ConfigFileName = "config.toml" // Config file name
	DBFileName     = "swarm.db"    // SQLite database file name
)

// GlobalConfigDir returns the global config directory path.
// configHome is typically XDG_CONFIG_HOME or ~/.config (resolved by caller).
func GlobalConfigDir(configHome string) string {
	return filepath.Join(configHome, AppDirName)
}

// GlobalConfigPath returns the global config path.
func GlobalConfigPath(configHome string) string {
	return filepath.Join(GlobalConfigDir(configHome), ConfigFileName)
}

// LocalConfigPath returns the config path inside a data directory.
func LocalConfigPath(dataDir string) string {
	return filepath.Join(dataDir, ConfigFileName)
}

// DefaultDBPath returns the sqlite database path inside a data directory.
func DefaultDBPath(dataDir string) string {
	return filepath.Join(dataDir, DBFileName)
}

// NewDefaultConfig returns a Config with default values.
func NewDefaultConfig() *Config {
	return &Config{
		Store:     StoreConfig{Driver: DefaultStoreDriver},
		Server:    ServerConfig{Listen: DefaultListen, ShutdownTimeout: DefaultShutdownTimeout},
		Scheduler: SchedulerConfig{Interval: DefaultTickInterval, Enabled: true},
		LoopGuard: LoopGuardConfig{Backend: BackendStore, TTL: DefaultLoopHistoryTTL},
		Dedup:     DedupConfig{Backend: BackendStore, TTL: DefaultDedupTTL},
		Notify:    NotifyConfig{Driver: DefaultNotifyDriver, Subject: DefaultNotifySubject},
		Log:       LogConfig{Level: DefaultLogLevel, Format: DefaultLogFormat},
		Telemetry: TelemetryConfig{ServiceName: DefaultServiceName, Enabled: true},
	}
}

// RenderConfigTemplate returns the commented config file written by `swarm init`.
func RenderConfigTemplate() string {
	return configTemplateContent
}

// ConfigInfo describes a config file on disk.
type ConfigInfo struct {
	Path    string
	Content string
	Exists  bool
}

// ConfigLoader loads the merged application configuration.
type ConfigLoader interface {
	// Load returns default <- global <- local, with environment overrides applied.
	Load() (*Config, error)
}

// ConfigManager creates and inspects config files.
type ConfigManager interface {
	GetGlobalConfigInfo() ConfigInfo
	GetLocalConfigInfo() ConfigInfo
	InitGlobalConfig() error
	InitLocalConfig() error
}
