package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/runoshun/agent-swarm/internal/app"
	"github.com/runoshun/agent-swarm/internal/domain"
	"github.com/runoshun/agent-swarm/internal/usecase"
)

// newInboxCommand creates the inbox command.
func newInboxCommand(c *app.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inbox",
		Short: "Manage channel mappings and lead inbox messages",
		Long: `Map external inboxes and channels to agents, and read the messages the
event router addressed to lead agents.

An AgentMail inbox or Slack channel mapped to an agent turns every inbound
message into a task offered to that agent. Unmapped messages go to the lead's
inbox.`,
	}
	cmd.AddCommand(
		newInboxMapCommand(c),
		newInboxUnmapCommand(c),
		newInboxMappingsCommand(c),
		newInboxMessagesCommand(c),
		newInboxReadCommand(c),
	)
	return cmd
}

func parseProvider(s string) (domain.Source, error) {
	switch p := domain.Source(s); p {
	case domain.SourceAgentMail, domain.SourceSlack:
		return p, nil
	default:
		return "", fmt.Errorf("%w: provider must be %q or %q", domain.ErrValidation, domain.SourceAgentMail, domain.SourceSlack)
	}
}

func newInboxMapCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "map <agentmail|slack> <external-id> <agent-id>",
		Short: "Route an inbox or channel to an agent",
		Long: `Route an AgentMail inbox or Slack channel to an agent. An existing
mapping for the same inbox or channel is replaced.

Examples:
  swarm inbox map agentmail support@example.agentmail.to worker-1
  swarm inbox map slack C0123456789 worker-2`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			provider, err := parseProvider(args[0])
			if err != nil {
				return err
			}
			who, err := caller(cmd, c)
			if err != nil {
				return err
			}
			m, err := c.RegisterInboxMappingUseCase().Execute(cmd.Context(), usecase.RegisterInboxMappingInput{
				Caller:     who,
				Provider:   provider,
				ExternalID: args[1],
				AgentID:    args[2],
			})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Mapped %s %s to %s\n", m.Provider, m.ExternalID, m.AgentID)
			return nil
		},
	}
}

func newInboxUnmapCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "unmap <agentmail|slack> <external-id>",
		Short: "Remove an inbox or channel mapping",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			provider, err := parseProvider(args[0])
			if err != nil {
				return err
			}
			who, err := caller(cmd, c)
			if err != nil {
				return err
			}
			if err := c.RemoveInboxMappingUseCase().Execute(cmd.Context(), usecase.RemoveInboxMappingInput{
				Caller:     who,
				Provider:   provider,
				ExternalID: args[1],
			}); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Unmapped %s %s\n", provider, args[1])
			return nil
		},
	}
}

func newInboxMappingsCommand(c *app.Container) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "mappings",
		Short: "List inbox and channel mappings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mappings, err := c.ListInboxMappingsUseCase().Execute(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), mappings)
			}
			if len(mappings) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No mappings")
				return nil
			}
			tw := newTable(cmd.OutOrStdout())
			_, _ = fmt.Fprintln(tw, "PROVIDER\tEXTERNAL ID\tAGENT")
			for _, m := range mappings {
				_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", m.Provider, m.ExternalID, m.AgentID)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newInboxMessagesCommand(c *app.Container) *cobra.Command {
	var opts struct {
		Agent  string
		Limit  int
		Unread bool
		JSON   bool
	}

	cmd := &cobra.Command{
		Use:     "messages",
		Aliases: []string{"msgs"},
		Short:   "List messages addressed to lead agents",
		Long: `List inbox messages, newest first. --agent defaults to --as, so an
agent running with SWARM_AGENT_ID set sees its own inbox.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			agentID := opts.Agent
			if agentID == "" {
				agentID = actingAs(cmd)
			}
			msgs, err := c.ListInboxMessagesUseCase().Execute(cmd.Context(), domain.MessageFilter{
				AgentID:    agentID,
				UnreadOnly: opts.Unread,
				Limit:      opts.Limit,
			})
			if err != nil {
				return err
			}
			if opts.JSON {
				return writeJSON(cmd.OutOrStdout(), msgs)
			}
			if len(msgs) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No messages")
				return nil
			}
			printMessages(cmd.OutOrStdout(), msgs)
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.Agent, "agent", "", "Recipient agent (default: --as)")
	cmd.Flags().BoolVar(&opts.Unread, "unread", false, "Only unread messages")
	cmd.Flags().IntVar(&opts.Limit, "limit", 50, "Maximum number of messages (0 for all)")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "Output as JSON")
	return cmd
}

func printMessages(w io.Writer, msgs []*domain.InboxMessage) {
	tw := newTable(w)
	defer func() { _ = tw.Flush() }()

	_, _ = fmt.Fprintln(tw, "ID\t\tSOURCE\tAGENT\tFROM\tRECEIVED\tSUBJECT")
	for _, m := range msgs {
		unread := "*"
		if m.Read {
			unread = ""
		}
		subject := m.Subject
		if subject == "" {
			subject = m.Body
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			m.ID, unread, m.Source, m.AgentID, dash(m.Sender), formatTime(&m.CreatedAt), firstLine(subject, 60))
	}
}

func newInboxReadCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "read <message-id>",
		Short: "Mark a message as read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.MarkMessageReadUseCase().Execute(cmd.Context(), args[0]); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Marked %s as read\n", args[0])
			return nil
		},
	}
}
