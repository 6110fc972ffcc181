// Package daemon runs the long-lived side of swarm: the schedule ticker and
// the webhook server.
package daemon

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/runoshun/agent-swarm/internal/domain"
	"github.com/runoshun/agent-swarm/internal/usecase"
)

// Ticker runs one scheduler pass.
type Ticker interface {
	Execute(ctx context.Context, in usecase.TickSchedulerInput) (*usecase.TickSchedulerOutput, error)
}

// Options configures Run. A nil Server or Ticker disables that half.
type Options struct {
	Server          *http.Server
	Listener        net.Listener // Optional; Server.Addr is used when nil
	Ticker          Ticker
	Logger          *slog.Logger
	Interval        time.Duration
	ShutdownTimeout time.Duration
}

// Run serves until ctx is cancelled or the server fails, then shuts the
// server down within ShutdownTimeout and waits for the scheduler to stop.
func Run(ctx context.Context, opts Options) error {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = domain.DefaultShutdownTimeout
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	if opts.Ticker != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			RunScheduler(ctx, opts.Ticker, opts.Interval, opts.Logger)
		}()
	}

	var err error
	if opts.Server != nil {
		err = serve(ctx, opts)
		cancel()
	} else {
		<-ctx.Done()
	}
	wg.Wait()
	return err
}

func serve(ctx context.Context, opts Options) error {
	errCh := make(chan error, 1)
	go func() {
		var err error
		if opts.Listener != nil {
			opts.Logger.Info("http server listening", "addr", opts.Listener.Addr().String())
			err = opts.Server.Serve(opts.Listener)
		} else {
			opts.Logger.Info("http server listening", "addr", opts.Server.Addr)
			err = opts.Server.ListenAndServe()
		}
		errCh <- err
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), opts.ShutdownTimeout)
		defer cancel()
		if err := opts.Server.Shutdown(shutdownCtx); err != nil {
			opts.Logger.Warn("http server shutdown", "error", err)
		}
		<-errCh
		return nil
	case err := <-errCh:
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// RunScheduler ticks immediately, then every interval, until ctx is done.
// Tick errors are logged and do not stop the loop.
func RunScheduler(ctx context.Context, t Ticker, interval time.Duration, logger *slog.Logger) {
	if interval <= 0 {
		interval = domain.DefaultTickInterval
	}
	logger.Info("scheduler started", "interval", interval)
	defer logger.Info("scheduler stopped")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		tick(ctx, t, logger)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func tick(ctx context.Context, t Ticker, logger *slog.Logger) {
	out, err := t.Execute(ctx, usecase.TickSchedulerInput{})
	if err != nil {
		if ctx.Err() == nil {
			logger.Error("scheduler tick failed", "error", err)
		}
		return
	}
	for _, w := range out.Warnings {
		logger.Warn("scheduler", "warning", w)
	}
	if len(out.Fired)+len(out.Disabled)+len(out.Skipped) > 0 {
		logger.Debug("scheduler tick",
			"fired", len(out.Fired),
			"disabled", len(out.Disabled),
			"skipped", len(out.Skipped),
		)
	}
}
