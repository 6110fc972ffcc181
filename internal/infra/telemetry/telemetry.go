// Package telemetry exports engine counters through OpenTelemetry with a
// Prometheus reader, served on /metrics by the daemon.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/runoshun/agent-swarm/internal/domain"
)

const meterName = "github.com/runoshun/agent-swarm"

// Attribute keys.
var (
	AttrOperation = attribute.Key("operation")
	AttrStatus    = attribute.Key("status")
	AttrOutcome   = attribute.Key("outcome")
	AttrSource    = attribute.Key("source")
	AttrBranch    = attribute.Key("branch")
	AttrSeverity  = attribute.Key("severity")
)

// Provider owns a meter provider and its private Prometheus registry.
type Provider struct {
	provider *sdkmetric.MeterProvider
	handler  http.Handler
	recorder *Recorder
}

// NewProvider builds a meter provider exporting to a fresh Prometheus registry.
func NewProvider(ctx context.Context, serviceName string) (*Provider, error) {
	if serviceName == "" {
		serviceName = domain.DefaultServiceName
	}
	reg := prometheus.NewRegistry()
	exporter, err := otelprom.New(otelprom.WithRegisterer(reg))
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}
	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceName(serviceName)))
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
		sdkmetric.WithResource(res),
	)
	rec, err := NewRecorder(mp.Meter(meterName))
	if err != nil {
		_ = mp.Shutdown(ctx)
		return nil, err
	}
	return &Provider{
		provider: mp,
		handler:  promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true}),
		recorder: rec,
	}, nil
}

// Handler serves the registry in the Prometheus exposition format.
func (p *Provider) Handler() http.Handler { return p.handler }

// Recorder returns the engine metrics recorder.
func (p *Provider) Recorder() *Recorder { return p.recorder }

// MeterProvider exposes the provider for HTTP instrumentation.
func (p *Provider) MeterProvider() metric.MeterProvider { return p.provider }

// Shutdown flushes and stops the provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	return p.provider.Shutdown(ctx)
}

// Recorder implements domain.MetricsRecorder with OTel counters.
type Recorder struct {
	taskOps       metric.Int64Counter
	claims        metric.Int64Counter
	scheduleFires metric.Int64Counter
	routes        metric.Int64Counter
	loopSignals   metric.Int64Counter
}

var _ domain.MetricsRecorder = (*Recorder)(nil)

// NewRecorder creates the instruments on meter.
func NewRecorder(meter metric.Meter) (*Recorder, error) {
	var (
		r    Recorder
		errs []error
		err  error
	)
	r.taskOps, err = meter.Int64Counter("swarm_task_operations_total",
		metric.WithDescription("Task operations (create, claim, decline, status, follow_up)"))
	errs = append(errs, err)
	r.claims, err = meter.Int64Counter("swarm_task_claims_total",
		metric.WithDescription("Claim attempts by result"))
	errs = append(errs, err)
	r.scheduleFires, err = meter.Int64Counter("swarm_schedule_fires_total",
		metric.WithDescription("Schedule materializations by outcome"))
	errs = append(errs, err)
	r.routes, err = meter.Int64Counter("swarm_inbound_events_total",
		metric.WithDescription("Inbound events by source and routing branch"))
	errs = append(errs, err)
	r.loopSignals, err = meter.Int64Counter("swarm_loop_signals_total",
		metric.WithDescription("Tool-loop signals by severity"))
	errs = append(errs, err)
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("create instruments: %w", err)
	}
	return &r, nil
}

func (r *Recorder) RecordTaskOp(ctx context.Context, op string, status domain.Status) {
	r.taskOps.Add(ctx, 1, metric.WithAttributes(AttrOperation.String(op), AttrStatus.String(string(status))))
}

func (r *Recorder) RecordClaim(ctx context.Context, won bool) {
	result := "lost"
	if won {
		result = "won"
	}
	r.claims.Add(ctx, 1, metric.WithAttributes(AttrOutcome.String(result)))
}

func (r *Recorder) RecordScheduleFire(ctx context.Context, outcome string) {
	r.scheduleFires.Add(ctx, 1, metric.WithAttributes(AttrOutcome.String(outcome)))
}

func (r *Recorder) RecordRoute(ctx context.Context, source domain.Source, branch string) {
	r.routes.Add(ctx, 1, metric.WithAttributes(AttrSource.String(string(source)), AttrBranch.String(branch)))
}

func (r *Recorder) RecordLoopSignal(ctx context.Context, severity domain.Severity) {
	r.loopSignals.Add(ctx, 1, metric.WithAttributes(AttrSeverity.String(string(severity))))
}
