// Package app provides the dependency injection container for the application.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/runoshun/agent-swarm/internal/domain"
	"github.com/runoshun/agent-swarm/internal/infra/config"
	"github.com/runoshun/agent-swarm/internal/infra/crypto"
	"github.com/runoshun/agent-swarm/internal/infra/idgen"
	"github.com/runoshun/agent-swarm/internal/infra/logging"
	"github.com/runoshun/agent-swarm/internal/infra/repoid"
	"github.com/runoshun/agent-swarm/internal/infra/sqlstore"
	"github.com/runoshun/agent-swarm/internal/usecase/shared"
)

// EnvDataDir overrides the data directory location.
const EnvDataDir = "SWARM_DATA_DIR"

// Config holds the application paths.
type Config struct {
	WorkDir string // Directory the CLI was started in
	DataDir string // Path to the data directory (default <WorkDir>/.swarm)
}

// NewConfig derives paths from the working directory.
func NewConfig(workDir string) Config {
	dataDir := os.Getenv(EnvDataDir)
	if dataDir == "" {
		dataDir = filepath.Join(workDir, domain.DataDirName)
	}
	return Config{WorkDir: workDir, DataDir: dataDir}
}

// Container provides dependency injection for the application.
// It holds all port implementations and provides factory methods for use cases.
type Container struct {
	// Ports (interfaces bound to implementations)
	Tasks         domain.TaskRepository
	Agents        domain.AgentRepository
	Epics         domain.EpicRepository
	Schedules     domain.ScheduleRepository
	ConfigEntries domain.ConfigRepository
	Inbox         domain.InboxRepository
	ToolHistory   domain.ToolCallHistory
	Deduper       domain.EventDeduper
	Notifier      domain.TaskNotifier
	Metrics       domain.MetricsRecorder
	IDs           domain.IDGenerator
	Clock         domain.Clock
	ConfigLoader  domain.ConfigLoader
	ConfigManager domain.ConfigManager

	// Pointer fields
	Logger       *slog.Logger
	AppConfig    *domain.Config
	Integrations *Integrations
	store        *sqlstore.Store
	logger       *logging.Logger

	// Configuration
	Config Config
}

// NewUninitialized creates a Container that can only load and create config
// files. Used before `swarm init` has run.
func NewUninitialized(dir string) (*Container, error) {
	cfg := NewConfig(dir)
	loader := config.NewLoader(cfg.DataDir)
	appConfig, err := loader.Load()
	if err != nil {
		return nil, err
	}
	l, err := logging.New(logging.Options{Level: appConfig.Log.Level, Format: appConfig.Log.Format})
	if err != nil {
		return nil, err
	}
	return &Container{
		Clock:         domain.RealClock{},
		IDs:           idgen.UUID{},
		ConfigLoader:  loader,
		ConfigManager: config.NewManager(cfg.DataDir),
		AppConfig:     appConfig,
		Logger:        l.Logger,
		logger:        l,
		Metrics:       domain.NopMetrics{},
		Integrations:  &Integrations{},
		Config:        cfg,
	}, nil
}

// New creates a fully wired Container for the data directory under dir.
// Returns domain.ErrNotInitialized when the default sqlite store has no data
// directory yet.
func New(ctx context.Context, dir string) (*Container, error) {
	c, err := NewUninitialized(dir)
	if err != nil {
		return nil, err
	}
	if c.AppConfig.Store.Driver == sqlstore.DriverSQLite && c.AppConfig.Store.DSN == domain.DefaultDBPath(c.Config.DataDir) {
		if _, err := os.Stat(c.Config.DataDir); errors.Is(err, os.ErrNotExist) {
			_ = c.logger.Close()
			return nil, domain.ErrNotInitialized
		}
	}
	if err := c.open(ctx); err != nil {
		_ = c.Close(ctx)
		return nil, err
	}
	return c, nil
}

// open connects the store and the integrations, then reopens the logger with
// the configured log file.
func (c *Container) open(ctx context.Context) error {
	if f := c.AppConfig.Log.File; f != "" {
		l, err := logging.New(logging.Options{Level: c.AppConfig.Log.Level, Format: c.AppConfig.Log.Format, File: f})
		if err != nil {
			return err
		}
		_ = c.logger.Close()
		c.logger, c.Logger = l, l.Logger
	}

	store, err := sqlstore.Open(ctx, c.AppConfig.Store.Driver, c.AppConfig.Store.DSN)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	c.store = store
	c.Tasks = store.Tasks()
	c.Agents = store.Agents()
	c.Epics = store.Epics()
	c.Schedules = store.Schedules()
	c.Inbox = store.Inbox()
	c.ConfigEntries = store.Config()
	if key := c.AppConfig.Secrets.Key; key != "" {
		enc, err := crypto.NewSealer(key)
		if err != nil {
			return fmt.Errorf("secrets key: %w", err)
		}
		c.ConfigEntries = crypto.NewSealedConfig(store.Config(), enc)
	}

	if err := c.Integrations.Init(ctx, c.AppConfig, store, c.Logger); err != nil {
		return err
	}
	c.ToolHistory = c.Integrations.History
	c.Deduper = c.Integrations.Dedup
	c.Notifier = c.Integrations.Notifier
	c.Metrics = c.Integrations.Metrics
	return nil
}

// InitStore creates the database and applies migrations. Returns the DSN used.
func (c *Container) InitStore(ctx context.Context) (string, error) {
	store, err := sqlstore.Open(ctx, c.AppConfig.Store.Driver, c.AppConfig.Store.DSN)
	if err != nil {
		return "", fmt.Errorf("open store: %w", err)
	}
	return c.AppConfig.Store.DSN, store.Close()
}

// Ready reports whether the store is connected.
func (c *Container) Ready() bool {
	return c.Tasks != nil
}

// Ping checks the store connection.
func (c *Container) Ping(ctx context.Context) error {
	if c.store == nil {
		return domain.ErrNotInitialized
	}
	return c.store.Ping(ctx)
}

// Close releases the store, integrations and log file. Safe to call more than once.
func (c *Container) Close(ctx context.Context) error {
	var errs []error
	if c.Integrations != nil {
		errs = append(errs, c.Integrations.Shutdown(ctx))
	}
	if c.store != nil {
		errs = append(errs, c.store.Close())
		c.store = nil
	}
	if c.logger != nil {
		errs = append(errs, c.logger.Close())
	}
	return errors.Join(errs...)
}

// Deps groups the ports NewWithDeps binds. Nil optional ports fall back to
// in-process defaults.
type Deps struct {
	Tasks         domain.TaskRepository
	Agents        domain.AgentRepository
	Epics         domain.EpicRepository
	Schedules     domain.ScheduleRepository
	ConfigEntries domain.ConfigRepository
	Inbox         domain.InboxRepository
	ToolHistory   domain.ToolCallHistory
	Deduper       domain.EventDeduper
	Notifier      domain.TaskNotifier
	Metrics       domain.MetricsRecorder
	IDs           domain.IDGenerator
	Clock         domain.Clock
}

// NewWithDeps creates a new Container with custom dependencies for testing.
func NewWithDeps(cfg Config, deps Deps, logger *slog.Logger) *Container {
	if deps.Metrics == nil {
		deps.Metrics = domain.NopMetrics{}
	}
	if deps.IDs == nil {
		deps.IDs = idgen.UUID{}
	}
	if deps.Clock == nil {
		deps.Clock = domain.RealClock{}
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Container{
		Tasks:         deps.Tasks,
		Agents:        deps.Agents,
		Epics:         deps.Epics,
		Schedules:     deps.Schedules,
		ConfigEntries: deps.ConfigEntries,
		Inbox:         deps.Inbox,
		ToolHistory:   deps.ToolHistory,
		Deduper:       deps.Deduper,
		Notifier:      deps.Notifier,
		Metrics:       deps.Metrics,
		IDs:           deps.IDs,
		Clock:         deps.Clock,
		AppConfig:     domain.NewDefaultConfig(),
		Integrations:  &Integrations{},
		Logger:        logger,
		Config:        cfg,
	}
}

// Caller resolves the identity a command acts as. An empty agentID is the
// operator acting as the system, which holds lead rights.
func (c *Container) Caller(ctx context.Context, agentID string) (domain.Caller, error) {
	if agentID == "" {
		return domain.System, nil
	}
	agent, err := shared.GetAgent(ctx, c.Agents, agentID)
	if err != nil {
		return domain.Caller{}, err
	}
	return domain.Caller{AgentID: agent.ID, IsLead: agent.IsLead}, nil
}

// RepoID detects the repository id of the working directory for repo-scope
// config. Returns "" outside a git repository or without remotes.
func (c *Container) RepoID() string {
	id, err := repoid.Detect(c.Config.WorkDir)
	if err != nil {
		c.Logger.Debug("repo id not detected", "dir", c.Config.WorkDir, "error", err)
		return ""
	}
	return id
}
