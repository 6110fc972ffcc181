// Package httpapi serves the webhook intake, health and metrics endpoints.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/metric"

	"github.com/runoshun/agent-swarm/internal/domain"
	"github.com/runoshun/agent-swarm/internal/infra/webhook"
	"github.com/runoshun/agent-swarm/internal/usecase"
)

// DefaultMaxBodyBytes caps webhook request bodies (1 MiB).
const DefaultMaxBodyBytes = 1 << 20

// Routes.
const (
	PathAgentMail = "/webhooks/agentmail"
	PathSlack     = "/webhooks/slack"
	PathHealth    = "/healthz"
	PathMetrics   = "/metrics"
)

// EventRouter routes a decoded inbound event.
type EventRouter interface {
	Execute(ctx context.Context, ev *domain.InboundEvent) (*usecase.RouteEventOutput, error)
}

// Options configures the handler. Router is required; everything else is optional.
type Options struct {
	Router             EventRouter
	Ping               func(context.Context) error
	MetricsHandler     http.Handler        // Mounted at /metrics when set
	MeterProvider      metric.MeterProvider // Receives request metrics when set
	Clock              domain.Clock
	Logger             *slog.Logger
	SlackSigningSecret string // Slack deliveries are verified when set
	AgentMailSecret    string // AgentMail deliveries are verified when set
	MaxBodyBytes       int64
}

type server struct {
	opts Options
}

// NewHandler builds the HTTP handler with every route registered.
func NewHandler(opts Options) http.Handler {
	if opts.Clock == nil {
		opts.Clock = domain.RealClock{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	s := &server{opts: opts}

	mux := http.NewServeMux()
	mux.HandleFunc("POST "+PathAgentMail, s.handleAgentMail)
	mux.HandleFunc("POST "+PathSlack, s.handleSlack)
	mux.HandleFunc("GET "+PathHealth, s.handleHealth)
	if opts.MetricsHandler != nil {
		mux.Handle("GET "+PathMetrics, opts.MetricsHandler)
	}

	var otelOpts []otelhttp.Option
	if opts.MeterProvider != nil {
		otelOpts = append(otelOpts, otelhttp.WithMeterProvider(opts.MeterProvider))
	}
	return otelhttp.NewHandler(mux, "swarm", otelOpts...)
}

// NewServer wraps NewHandler in an http.Server listening on addr.
func NewServer(addr string, opts Options) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           NewHandler(opts),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

type routeResponse struct {
	Branch    string   `json:"branch"`
	TaskID    string   `json:"taskId,omitempty"`
	MessageID string   `json:"messageId,omitempty"`
	AgentID   string   `json:"agentId,omitempty"`
	Warnings  []string `json:"warnings,omitempty"`
	Duplicate bool     `json:"duplicate,omitempty"`
}

func (s *server) handleAgentMail(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	now := s.opts.Clock.Now()
	if secret := s.opts.AgentMailSecret; secret != "" {
		if err := webhook.VerifyAgentMail(r.Header, body, secret, now); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	ev, err := webhook.DecodeAgentMail(body, now)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.route(w, r, ev)
}

func (s *server) handleSlack(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	now := s.opts.Clock.Now()
	if secret := s.opts.SlackSigningSecret; secret != "" {
		if err := webhook.VerifySlack(r.Header, body, secret, now); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	delivery, err := webhook.DecodeSlack(body, now)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if delivery.Event == nil {
		writeJSON(w, http.StatusOK, map[string]string{"challenge": delivery.Challenge})
		return
	}
	s.route(w, r, delivery.Event)
}

func (s *server) route(w http.ResponseWriter, r *http.Request, ev *domain.InboundEvent) {
	out, err := s.opts.Router.Execute(r.Context(), ev)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, routeResponse{
		Branch:    out.Branch,
		TaskID:    out.TaskID,
		MessageID: out.MessageID,
		AgentID:   out.AgentID,
		Warnings:  out.Warnings,
		Duplicate: out.Duplicate,
	})
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.opts.Ping != nil {
		if err := s.opts.Ping(r.Context()); err != nil {
			s.opts.Logger.WarnContext(r.Context(), "health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false, "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "request body too large", Kind: domain.KindValidation})
			return nil, false
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "read body: " + err.Error(), Kind: domain.KindValidation})
		return nil, false
	}
	return body, true
}

type errorResponse struct {
	Error string           `json:"error"`
	Kind  domain.ErrorKind `json:"kind"`
}

func (s *server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := domain.KindOf(err)
	code := StatusFor(kind)
	if code >= http.StatusInternalServerError {
		s.opts.Logger.ErrorContext(r.Context(), "webhook failed", "path", r.URL.Path, "error", err)
	} else {
		s.opts.Logger.WarnContext(r.Context(), "webhook rejected", "path", r.URL.Path, "kind", kind, "error", err)
	}
	writeJSON(w, code, errorResponse{Error: err.Error(), Kind: kind})
}

// StatusFor maps an error kind to an HTTP status code.
func StatusFor(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindConflict, domain.KindInvalidTransition:
		return http.StatusConflict
	case domain.KindInvalidSchedule:
		return http.StatusUnprocessableEntity
	case domain.KindUnauthorized:
		return http.StatusUnauthorized
	case domain.KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}
