package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/runoshun/agent-swarm/internal/app"
	"github.com/runoshun/agent-swarm/internal/daemon"
	"github.com/runoshun/agent-swarm/internal/httpapi"
)

// newServeCommand creates the serve command.
func newServeCommand(c *app.Container) *cobra.Command {
	var opts struct {
		Listen      string
		NoScheduler bool
	}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the webhook server and scheduler",
		Long: `Run the long-lived process: the webhook receiver, health and metrics
endpoints, and the scheduler loop.

Endpoints:
  POST /webhooks/agentmail   AgentMail deliveries
  POST /webhooks/slack       Slack Events API deliveries
  GET  /healthz              Store health
  GET  /metrics              Prometheus metrics (when [telemetry] is enabled)

Stops gracefully on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := c.AppConfig
			listen := cfg.Server.Listen
			if cmd.Flags().Changed("listen") {
				listen = opts.Listen
			}

			srv := httpapi.NewServer(listen, httpapi.Options{
				Router:             c.RouteEventUseCase(),
				Ping:               c.Ping,
				MetricsHandler:     c.Integrations.MetricsHandler(),
				MeterProvider:      c.Integrations.MeterProvider(),
				Clock:              c.Clock,
				Logger:             c.Logger,
				SlackSigningSecret: cfg.Webhooks.SlackSigningSecret,
				AgentMailSecret:    cfg.Webhooks.AgentMailSecret,
			})

			runOpts := daemon.Options{
				Server:          srv,
				Logger:          c.Logger,
				Interval:        cfg.Scheduler.Interval,
				ShutdownTimeout: cfg.Server.ShutdownTimeout,
			}
			schedulerOn := cfg.Scheduler.Enabled && !opts.NoScheduler
			if schedulerOn {
				runOpts.Ticker = c.TickSchedulerUseCase()
			}
			if cfg.Webhooks.SlackSigningSecret == "" || cfg.Webhooks.AgentMailSecret == "" {
				c.Logger.Warn("webhook signature verification disabled for a provider without a secret",
					"slack", cfg.Webhooks.SlackSigningSecret != "", "agentmail", cfg.Webhooks.AgentMailSecret != "")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Listening on %s (scheduler %s)\n", listen, onOff(schedulerOn))
			if err := daemon.Run(ctx, runOpts); err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			c.Logger.Info("shutdown complete")
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.Listen, "listen", "", "Listen address (default: [server] listen)")
	cmd.Flags().BoolVar(&opts.NoScheduler, "no-scheduler", false, "Do not run the scheduler loop")
	return cmd
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
