// Package config provides configuration loading functionality.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/runoshun/agent-swarm/internal/domain"
)

// Environment variables that override file settings.
const (
	EnvDBDSN    = "SWARM_DB_DSN"
	EnvRedisURL = "SWARM_REDIS_URL"
)

// Ensure Loader implements domain.ConfigLoader.
var _ domain.ConfigLoader = (*Loader)(nil)

// Loader loads configuration from TOML files.
type Loader struct {
	getenv        func(string) string
	dataDir       string // Path to the data directory (e.g., ./.swarm)
	globalConfDir string // Path to global config directory (e.g., ~/.config/agent-swarm)
}

// NewLoader creates a new Loader.
func NewLoader(dataDir string) *Loader {
	return &Loader{
		dataDir:       dataDir,
		globalConfDir: defaultGlobalConfigDir(),
		getenv:        os.Getenv,
	}
}

// NewLoaderWithGlobalDir creates a new Loader with a custom global config directory.
// This is useful for testing.
func NewLoaderWithGlobalDir(dataDir, globalConfDir string) *Loader {
	return &Loader{
		dataDir:       dataDir,
		globalConfDir: globalConfDir,
		getenv:        os.Getenv,
	}
}

// WithEnv replaces the environment lookup. Used by tests.
func (l *Loader) WithEnv(getenv func(string) string) *Loader {
	l.getenv = getenv
	return l
}

// defaultGlobalConfigDir returns the default global config directory.
func defaultGlobalConfigDir() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return domain.GlobalConfigDir(configHome)
}

// Load returns the merged configuration.
// Merge order: default <- global <- local <- environment.
func (l *Loader) Load() (*domain.Config, error) {
	cfg := domain.NewDefaultConfig()

	if l.globalConfDir != "" {
		if err := l.applyFile(cfg, filepath.Join(l.globalConfDir, domain.ConfigFileName)); err != nil {
			return nil, err
		}
	}
	if err := l.applyFile(cfg, domain.LocalConfigPath(l.dataDir)); err != nil {
		return nil, err
	}

	l.applyEnv(cfg)
	if cfg.Store.Driver == domain.DefaultStoreDriver && cfg.Store.DSN == "" {
		cfg.Store.DSN = domain.DefaultDBPath(l.dataDir)
	}
	sort.Strings(cfg.Warnings)
	return cfg, nil
}

// applyFile overlays the file at path onto cfg. A missing file is not an error.
func (l *Loader) applyFile(cfg *domain.Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}

	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return applyRaw(cfg, raw)
}

func (l *Loader) applyEnv(cfg *domain.Config) {
	if dsn := l.getenv(EnvDBDSN); dsn != "" {
		cfg.Store.DSN = dsn
	}
	if url := l.getenv(EnvRedisURL); url != "" {
		cfg.LoopGuard.RedisURL = url
		cfg.Dedup.RedisURL = url
	}
}

// applyRaw overlays a parsed TOML document onto cfg and collects warnings
// for unknown sections and keys. Values of the wrong type are errors.
func applyRaw(cfg *domain.Config, raw map[string]any) error {
	for section, value := range raw {
		m, ok := value.(map[string]any)
		if !ok {
			cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("unknown section: %s", section))
			continue
		}
		p := sectionParser{section: section, values: m}
		switch section {
		case "store":
			p.str("driver", &cfg.Store.Driver)
			p.str("dsn", &cfg.Store.DSN)
		case "server":
			p.str("listen", &cfg.Server.Listen)
			p.duration("shutdown_timeout", &cfg.Server.ShutdownTimeout)
		case "scheduler":
			p.boolean("enabled", &cfg.Scheduler.Enabled)
			p.positiveDuration("interval", &cfg.Scheduler.Interval)
		case "loopguard":
			p.str("backend", &cfg.LoopGuard.Backend)
			p.str("redis_url", &cfg.LoopGuard.RedisURL)
			p.positiveDuration("ttl", &cfg.LoopGuard.TTL)
		case "dedup":
			p.str("backend", &cfg.Dedup.Backend)
			p.str("redis_url", &cfg.Dedup.RedisURL)
			p.positiveDuration("ttl", &cfg.Dedup.TTL)
		case "notify":
			p.str("driver", &cfg.Notify.Driver)
			p.str("url", &cfg.Notify.URL)
			p.str("subject", &cfg.Notify.Subject)
		case "secrets":
			p.str("key", &cfg.Secrets.Key)
		case "webhooks":
			p.str("slack_signing_secret", &cfg.Webhooks.SlackSigningSecret)
			p.str("agentmail_secret", &cfg.Webhooks.AgentMailSecret)
		case "telemetry":
			p.boolean("enabled", &cfg.Telemetry.Enabled)
			p.str("service_name", &cfg.Telemetry.ServiceName)
		case "log":
			p.str("level", &cfg.Log.Level)
			p.str("format", &cfg.Log.Format)
			p.str("file", &cfg.Log.File)
		default:
			cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("unknown section: %s", section))
			continue
		}
		if p.err != nil {
			return p.err
		}
		for _, k := range p.unknown() {
			cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("unknown key in [%s]: %s", section, k))
		}
	}
	return nil
}

// sectionParser reads typed keys out of one TOML table and remembers which
// keys were consumed.
type sectionParser struct {
	err     error
	values  map[string]any
	used    map[string]bool
	section string
}

func (p *sectionParser) take(key string) (any, bool) {
	v, ok := p.values[key]
	if !ok {
		return nil, false
	}
	if p.used == nil {
		p.used = make(map[string]bool)
	}
	p.used[key] = true
	return v, true
}

func (p *sectionParser) typeError(key, want string, v any) {
	if p.err == nil {
		p.err = fmt.Errorf("[%s] %s: expected %s, got %T", p.section, key, want, v)
	}
}

func (p *sectionParser) str(key string, dst *string) {
	v, ok := p.take(key)
	if !ok {
		return
	}
	s, ok := v.(string)
	if !ok {
		p.typeError(key, "string", v)
		return
	}
	*dst = s
}

func (p *sectionParser) boolean(key string, dst *bool) {
	v, ok := p.take(key)
	if !ok {
		return
	}
	b, ok := v.(bool)
	if !ok {
		p.typeError(key, "boolean", v)
		return
	}
	*dst = b
}

// duration accepts Go duration strings ("30s") or integer seconds.
func (p *sectionParser) duration(key string, dst *time.Duration) {
	v, ok := p.take(key)
	if !ok {
		return
	}
	switch d := v.(type) {
	case string:
		parsed, err := time.ParseDuration(d)
		if err != nil {
			if p.err == nil {
				p.err = fmt.Errorf("[%s] %s: %w", p.section, key, err)
			}
			return
		}
		*dst = parsed
	case int64:
		*dst = time.Duration(d) * time.Second
	default:
		p.typeError(key, "duration", v)
	}
}

// positiveDuration is duration for settings where zero or less has no meaning.
func (p *sectionParser) positiveDuration(key string, dst *time.Duration) {
	d := *dst
	p.duration(key, &d)
	if p.err != nil {
		return
	}
	if d <= 0 {
		p.err = fmt.Errorf("[%s] %s: must be positive, got %s", p.section, key, d)
		return
	}
	*dst = d
}

func (p *sectionParser) unknown() []string {
	var keys []string
	for k := range p.values {
		if !p.used[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}
