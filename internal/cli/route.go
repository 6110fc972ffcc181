package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/runoshun/agent-swarm/internal/app"
	"github.com/runoshun/agent-swarm/internal/domain"
	"github.com/runoshun/agent-swarm/internal/infra/webhook"
)

// newRouteCommand creates the route command.
func newRouteCommand(c *app.Container) *cobra.Command {
	var opts struct {
		File     string
		Provider string
		JSON     bool
	}

	cmd := &cobra.Command{
		Use:   "route",
		Short: "Route an inbound event without the webhook server",
		Long: `Route a single inbound event through the same path as 'swarm serve'.

By default the input is a decoded event in swarm's JSON form. With --provider
the input is a raw webhook body as AgentMail or Slack would POST it; signatures
are not checked. Duplicate deliveries are ignored; with the default "store"
[dedup] backend this holds across invocations.

Examples:
  swarm route -f event.json
  curl -s https://example.test/payload | swarm route --provider slack`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if c.AppConfig.Dedup.Backend == domain.BackendMemory {
				printWarnings(cmd, []string{"[dedup] backend \"memory\" forgets events when this command exits"})
			}
			data, err := readInput(cmd, opts.File)
			if err != nil {
				return err
			}
			ev, err := decodeEvent(data, domain.Source(opts.Provider), c.Clock)
			if err != nil {
				return err
			}
			out, err := c.RouteEventUseCase().Execute(cmd.Context(), ev)
			if err != nil {
				return err
			}
			printWarnings(cmd, out.Warnings)
			if opts.JSON {
				return writeJSON(cmd.OutOrStdout(), out)
			}
			w := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(w, "Branch: %s\n", out.Branch)
			if out.TaskID != "" {
				_, _ = fmt.Fprintf(w, "Task: %s\n", out.TaskID)
			}
			if out.MessageID != "" {
				_, _ = fmt.Fprintf(w, "Message: %s\n", out.MessageID)
			}
			if out.AgentID != "" {
				_, _ = fmt.Fprintf(w, "Agent: %s\n", out.AgentID)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&opts.File, "file", "f", "-", "Input file (- for stdin)")
	cmd.Flags().StringVar(&opts.Provider, "provider", "", "Decode a raw webhook body (agentmail, slack)")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "Output as JSON")
	return cmd
}

func readInput(cmd *cobra.Command, file string) ([]byte, error) {
	if file == "" || file == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", file, err)
	}
	return data, nil
}

func decodeEvent(data []byte, provider domain.Source, clock domain.Clock) (*domain.InboundEvent, error) {
	now := clock.Now()
	switch provider {
	case "":
		var ev domain.InboundEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, fmt.Errorf("%w: decode event: %v", domain.ErrValidation, err)
		}
		if ev.ReceivedAt.IsZero() {
			ev.ReceivedAt = now
		}
		if err := ev.Validate(); err != nil {
			return nil, err
		}
		return &ev, nil
	case domain.SourceAgentMail:
		return webhook.DecodeAgentMail(data, now)
	case domain.SourceSlack:
		d, err := webhook.DecodeSlack(data, now)
		if err != nil {
			return nil, err
		}
		if d.Event == nil {
			return nil, fmt.Errorf("%w: slack url_verification is not an event", domain.ErrValidation)
		}
		return d.Event, nil
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", domain.ErrValidation, provider)
	}
}
