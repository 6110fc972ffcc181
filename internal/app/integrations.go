package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"go.opentelemetry.io/otel/metric"

	"github.com/runoshun/agent-swarm/internal/domain"
	"github.com/runoshun/agent-swarm/internal/infra/dedup"
	"github.com/runoshun/agent-swarm/internal/infra/loophistory"
	"github.com/runoshun/agent-swarm/internal/infra/notify"
	"github.com/runoshun/agent-swarm/internal/infra/sqlstore"
	"github.com/runoshun/agent-swarm/internal/infra/telemetry"
)

// Integrations owns the optional, connection-holding adapters: loop history,
// event dedup, task notifier and telemetry. Init and Shutdown are idempotent.
type Integrations struct {
	History   domain.ToolCallHistory
	Dedup     domain.EventDeduper
	Notifier  domain.TaskNotifier
	Metrics   domain.MetricsRecorder
	telemetry *telemetry.Provider
	closers   []func(context.Context) error
	mu        sync.Mutex
	ready     bool
}

// Init builds the adapters selected by cfg. The "store" backends keep loop
// windows and seen events in store, so they are shared by every process that
// opens the same database. Calling Init again is a no-op. On failure
// everything opened so far is closed.
func (i *Integrations) Init(ctx context.Context, cfg *domain.Config, store *sqlstore.Store, logger *slog.Logger) (err error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.ready {
		return nil
	}
	defer func() {
		if err != nil {
			_ = i.closeAll(ctx)
		}
	}()

	switch cfg.LoopGuard.Backend {
	case domain.BackendStore, "":
		i.History = store.ToolCalls()
	case domain.BackendMemory:
		i.History = loophistory.NewMemory()
	case domain.BackendRedis:
		h, err := loophistory.NewRedis(cfg.LoopGuard.RedisURL, cfg.LoopGuard.TTL)
		if err != nil {
			return fmt.Errorf("loop history: %w", err)
		}
		i.History = h
		i.closers = append(i.closers, func(context.Context) error { return h.Close() })
	default:
		return fmt.Errorf("unknown loopguard backend %q", cfg.LoopGuard.Backend)
	}

	switch cfg.Dedup.Backend {
	case domain.BackendStore, "":
		i.Dedup = store.Events(cfg.Dedup.TTL)
	case domain.BackendMemory:
		i.Dedup = dedup.NewMemory(cfg.Dedup.TTL)
	case domain.BackendRedis:
		d, err := dedup.NewRedis(cfg.Dedup.RedisURL, cfg.Dedup.TTL)
		if err != nil {
			return fmt.Errorf("dedup: %w", err)
		}
		i.Dedup = d
		i.closers = append(i.closers, func(context.Context) error { return d.Close() })
	default:
		return fmt.Errorf("unknown dedup backend %q", cfg.Dedup.Backend)
	}

	n, err := notify.New(cfg.Notify.Driver, cfg.Notify.URL, cfg.Notify.Subject, logger)
	if err != nil {
		return fmt.Errorf("notifier: %w", err)
	}
	i.Notifier = n
	i.closers = append(i.closers, func(context.Context) error { return n.Close() })

	i.Metrics = domain.NopMetrics{}
	if cfg.Telemetry.Enabled {
		p, err := telemetry.NewProvider(ctx, cfg.Telemetry.ServiceName)
		if err != nil {
			return fmt.Errorf("telemetry: %w", err)
		}
		i.telemetry = p
		i.Metrics = p.Recorder()
		i.closers = append(i.closers, p.Shutdown)
	}

	i.ready = true
	logger.Debug("integrations initialized",
		"loopguard", cfg.LoopGuard.Backend,
		"dedup", cfg.Dedup.Backend,
		"notify", cfg.Notify.Driver,
		"telemetry", cfg.Telemetry.Enabled,
	)
	return nil
}

// MetricsHandler serves /metrics, or nil when telemetry is disabled.
func (i *Integrations) MetricsHandler() http.Handler {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.telemetry == nil {
		return nil
	}
	return i.telemetry.Handler()
}

// MeterProvider returns the provider backing /metrics, or nil when telemetry
// is disabled.
func (i *Integrations) MeterProvider() metric.MeterProvider {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.telemetry == nil {
		return nil
	}
	return i.telemetry.MeterProvider()
}

// Shutdown closes every adapter in reverse order of creation.
func (i *Integrations) Shutdown(ctx context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if !i.ready {
		return nil
	}
	i.ready = false
	return i.closeAll(ctx)
}

func (i *Integrations) closeAll(ctx context.Context) error {
	var errs []error
	for j := len(i.closers) - 1; j >= 0; j-- {
		if err := i.closers[j](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	i.closers = nil
	i.telemetry = nil
	return errors.Join(errs...)
}
