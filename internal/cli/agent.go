package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/runoshun/agent-swarm/internal/app"
	"github.com/runoshun/agent-swarm/internal/domain"
	"github.com/runoshun/agent-swarm/internal/usecase"
)

// newAgentCommand creates the agent command.
func newAgentCommand(c *app.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Manage agents",
		Long:  `Register agents and track their availability. Lead agents may manage epics, schedules and inbox mappings.`,
	}
	cmd.AddCommand(
		newAgentRegisterCommand(c),
		newAgentListCommand(c),
		newAgentShowCommand(c),
		newAgentStatusCommand(c),
	)
	return cmd
}

func newAgentRegisterCommand(c *app.Container) *cobra.Command {
	var opts struct {
		ID           string
		Role         string
		Capabilities []string
		Lead         bool
	}

	cmd := &cobra.Command{
		Use:   "register <name>",
		Short: "Register a new agent",
		Long: `Register a new agent. The agent starts idle.

Examples:
  swarm agent register "Backend worker" --id worker-1 --capability go --capability sql
  swarm agent register Coordinator --id lead --lead`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := c.RegisterAgentUseCase().Execute(cmd.Context(), usecase.RegisterAgentInput{
				ID:           opts.ID,
				Name:         args[0],
				Role:         opts.Role,
				Capabilities: opts.Capabilities,
				IsLead:       opts.Lead,
			})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Registered agent %s\n", out.Agent.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.ID, "id", "", "Agent ID (default: generated)")
	cmd.Flags().StringVar(&opts.Role, "role", "", "Free-form role")
	cmd.Flags().StringArrayVar(&opts.Capabilities, "capability", nil, "Capability (can specify multiple)")
	cmd.Flags().BoolVar(&opts.Lead, "lead", false, "Grant lead rights")
	return cmd
}

func newAgentListCommand(c *app.Container) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List agents",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := c.ListAgentsUseCase().Execute(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), out.Agents)
			}
			if len(out.Agents) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No agents registered")
				return nil
			}
			printAgents(cmd.OutOrStdout(), out.Agents)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func printAgents(w io.Writer, agents []*domain.Agent) {
	tw := newTable(w)
	defer func() { _ = tw.Flush() }()

	_, _ = fmt.Fprintln(tw, "ID\tNAME\tSTATUS\tLEAD\tROLE\tCAPABILITIES")
	for _, a := range agents {
		lead := "-"
		if a.IsLead {
			lead = "yes"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			a.ID, a.Name, a.Status, lead, dash(a.Role), joinTags(a.Capabilities))
	}
}

func newAgentShowCommand(c *app.Container) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show agent details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			agent, err := c.GetAgentUseCase().Execute(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), agent)
			}
			w := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(w, "ID: %s\n", agent.ID)
			_, _ = fmt.Fprintf(w, "Name: %s\n", agent.Name)
			_, _ = fmt.Fprintf(w, "Status: %s\n", agent.Status)
			_, _ = fmt.Fprintf(w, "Lead: %t\n", agent.IsLead)
			if agent.Role != "" {
				_, _ = fmt.Fprintf(w, "Role: %s\n", agent.Role)
			}
			if len(agent.Capabilities) > 0 {
				_, _ = fmt.Fprintf(w, "Capabilities: %s\n", strings.Join(agent.Capabilities, ", "))
			}
			_, _ = fmt.Fprintf(w, "Updated: %s\n", formatTime(&agent.UpdatedAt))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newAgentStatusCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "status <id> <idle|busy|offline>",
		Short: "Set an agent's availability",
		Long: `Set an agent's availability. Offline agents are skipped when
routing inbound events and when picking the lead.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := c.SetAgentStatusUseCase().Execute(cmd.Context(), usecase.SetAgentStatusInput{
				AgentID: args[0],
				Status:  domain.AgentStatus(args[1]),
			})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Agent %s is %s\n", out.Agent.ID, out.Agent.Status)
			return nil
		},
	}
}
