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

// newTaskCommand creates the task command.
func newTaskCommand(c *app.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage tasks",
		Long: `Create, claim and move tasks through their lifecycle.

A task without an agent sits in the pool (unassigned) and can be claimed by
any agent. A task created for an agent is offered to it; the agent claims or
declines it. Completed, failed and cancelled tasks are final.`,
	}
	cmd.AddCommand(
		newTaskCreateCommand(c),
		newTaskListCommand(c),
		newTaskShowCommand(c),
		newTaskClaimCommand(c),
		newTaskDeclineCommand(c),
		newTaskStatusCommand(c),
		newTaskFollowUpCommand(c),
	)
	return cmd
}

func newTaskCreateCommand(c *app.Container) *cobra.Command {
	var opts struct {
		Agent    string
		Epic     string
		Parent   string
		Type     string
		Thread   string
		Tags     []string
		Priority int
	}

	cmd := &cobra.Command{
		Use:   "create <description>",
		Short: "Create a task",
		Long: `Create a task. With --agent the task is offered to that agent,
otherwise it goes to the pool.

Examples:
  # Pool task
  swarm task create "Triage flaky tests"

  # Offer to an agent, inside an epic
  swarm task create "Add OAuth callback" --agent worker-1 --epic <epic-id> --priority 80`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := c.CreateTaskUseCase().Execute(cmd.Context(), usecase.CreateTaskInput{
				Priority:     optionalInt(cmd, "priority", opts.Priority),
				Description:  args[0],
				AgentID:      opts.Agent,
				EpicID:       opts.Epic,
				ParentTaskID: opts.Parent,
				TaskType:     opts.Type,
				ThreadID:     opts.Thread,
				CreatedBy:    actingAs(cmd),
				Tags:         opts.Tags,
			})
			if err != nil {
				return err
			}
			printWarnings(cmd, out.Warnings)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Created task %s (%s)\n", out.Task.ID, out.Task.Status)
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.Agent, "agent", "", "Offer the task to this agent")
	cmd.Flags().StringVar(&opts.Epic, "epic", "", "Epic the task belongs to")
	cmd.Flags().StringVar(&opts.Parent, "parent", "", "Parent task whose session this task continues")
	cmd.Flags().StringVar(&opts.Type, "type", "", "Free-form task type")
	cmd.Flags().StringVar(&opts.Thread, "thread", "", "External thread ID")
	cmd.Flags().StringArrayVar(&opts.Tags, "tag", nil, "Tag (can specify multiple)")
	cmd.Flags().IntVar(&opts.Priority, "priority", domain.DefaultPriority, "Priority 0-100")
	return cmd
}

func newTaskListCommand(c *app.Container) *cobra.Command {
	var opts struct {
		Statuses []string
		Agent    string
		Epic     string
		Source   string
		Thread   string
		Tag      string
		Limit    int
		JSON     bool
	}

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks",
		Long: `List tasks, oldest first.

Examples:
  swarm task list --status unassigned
  swarm task list --status offered,in_progress --agent worker-1`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			statuses, err := parseStatuses(opts.Statuses)
			if err != nil {
				return err
			}
			out, err := c.ListTasksUseCase().Execute(cmd.Context(), usecase.ListTasksInput{
				Filter: domain.TaskFilter{
					Statuses: statuses,
					AgentID:  opts.Agent,
					EpicID:   opts.Epic,
					Source:   domain.Source(opts.Source),
					ThreadID: opts.Thread,
					Tag:      opts.Tag,
					Limit:    opts.Limit,
				},
			})
			if err != nil {
				return err
			}
			if opts.JSON {
				return writeJSON(cmd.OutOrStdout(), out.Tasks)
			}
			if len(out.Tasks) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No tasks found")
				return nil
			}
			printTasks(cmd.OutOrStdout(), out.Tasks)
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&opts.Statuses, "status", nil, "Filter by status (comma-separated or repeated)")
	cmd.Flags().StringVar(&opts.Agent, "agent", "", "Filter by agent")
	cmd.Flags().StringVar(&opts.Epic, "epic", "", "Filter by epic")
	cmd.Flags().StringVar(&opts.Source, "source", "", "Filter by source (manual, agentmail, slack, schedule)")
	cmd.Flags().StringVar(&opts.Thread, "thread", "", "Filter by external thread ID")
	cmd.Flags().StringVar(&opts.Tag, "tag", "", "Filter by tag")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "Maximum number of tasks (0 = no limit)")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "Output as JSON")
	return cmd
}

func printTasks(w io.Writer, tasks []*domain.Task) {
	tw := newTable(w)
	defer func() { _ = tw.Flush() }()

	_, _ = fmt.Fprintln(tw, "ID\tSTATUS\tAGENT\tPRIO\tSOURCE\tEPIC\tDESCRIPTION")
	for _, t := range tasks {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
			t.ID, t.Status, dash(t.AgentID), t.Priority, t.Source, dash(t.EpicID), firstLine(t.Description, 50))
	}
}

func newTaskShowCommand(c *app.Container) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show task details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := c.GetTaskUseCase().Execute(cmd.Context(), usecase.GetTaskInput{TaskID: args[0]})
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), out.Task)
			}
			printTaskDetail(cmd.OutOrStdout(), out.Task)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func printTaskDetail(w io.Writer, t *domain.Task) {
	field := func(name, value string) {
		if value != "" {
			_, _ = fmt.Fprintf(w, "%s: %s\n", name, value)
		}
	}
	field("ID", t.ID)
	field("Status", t.Status.Display())
	field("Agent", t.AgentID)
	_, _ = fmt.Fprintf(w, "Priority: %d\n", t.Priority)
	field("Source", string(t.Source))
	field("Type", t.TaskType)
	field("Epic", t.EpicID)
	field("Parent", t.ParentTaskID)
	field("Thread", t.ThreadID)
	field("Created by", t.CreatedBy)
	if len(t.Tags) > 0 {
		field("Tags", strings.Join(t.Tags, ", "))
	}
	field("Failure reason", t.FailureReason)
	field("Created", formatTime(&t.CreatedAt))
	field("Updated", formatTime(&t.UpdatedAt))
	_, _ = fmt.Fprintf(w, "\n%s\n", t.Description)
}

func newTaskClaimCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "claim <id>",
		Short: "Claim a pool task or accept an offered one",
		Long: `Claim a task as the agent given by --as. Pool tasks go to whoever
claims first; offered tasks can only be claimed by their target.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			agentID := actingAs(cmd)
			if agentID == "" {
				return fmt.Errorf("%w: claiming requires --as", domain.ErrMissingCaller)
			}
			out, err := c.ClaimTaskUseCase().Execute(cmd.Context(), usecase.ClaimTaskInput{TaskID: args[0], AgentID: agentID})
			if err != nil {
				return err
			}
			printWarnings(cmd, out.Warnings)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Claimed task %s\n", out.Task.ID)
			return nil
		},
	}
}

func newTaskDeclineCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "decline <id>",
		Short: "Decline an offered task",
		Long:  `Decline a task offered to the agent given by --as. The task returns to the pool.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			agentID := actingAs(cmd)
			if agentID == "" {
				return fmt.Errorf("%w: declining requires --as", domain.ErrMissingCaller)
			}
			out, err := c.DeclineTaskUseCase().Execute(cmd.Context(), usecase.DeclineTaskInput{TaskID: args[0], AgentID: agentID})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Declined task %s (%s)\n", out.Task.ID, out.Task.Status)
			return nil
		},
	}
}

func newTaskStatusCommand(c *app.Container) *cobra.Command {
	var opts struct {
		Agent  string
		Reason string
	}

	statuses := make([]string, 0, len(domain.AllStatuses()))
	for _, s := range domain.AllStatuses() {
		statuses = append(statuses, string(s))
	}

	cmd := &cobra.Command{
		Use:   "status <id> <status>",
		Short: "Move a task to another status",
		Long: fmt.Sprintf(`Move a task to another status.

Statuses: %s

Offering requires --agent. Starting a pool task assigns it to --agent, or to
the --as agent. --reason is recorded on failed and cancelled tasks.`, strings.Join(statuses, ", ")),
		Args:      cobra.ExactArgs(2),
		ValidArgs: statuses,
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := domain.ParseStatus(args[1])
			if err != nil {
				return fmt.Errorf("%w: %q", err, args[1])
			}
			out, err := c.UpdateTaskStatusUseCase().Execute(cmd.Context(), usecase.UpdateTaskStatusInput{
				TaskID:  args[0],
				Status:  status,
				By:      actingAs(cmd),
				AgentID: opts.Agent,
				Reason:  opts.Reason,
			})
			if err != nil {
				return err
			}
			printWarnings(cmd, out.Warnings)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Task %s: %s -> %s\n", out.Task.ID, out.Previous, out.Task.Status)
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.Agent, "agent", "", "Target agent (offer) or assignee (start)")
	cmd.Flags().StringVar(&opts.Reason, "reason", "", "Failure or cancellation reason")
	return cmd
}

func newTaskFollowUpCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "follow-up <parent-id> <description>",
		Short: "Create a follow-up task that continues a parent's session",
		Long: `Create a follow-up task linked to a parent task. The follow-up is
offered to the parent's agent, so its session can resume, or goes to the
pool when the parent was never assigned.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := c.CreateFollowUpTaskUseCase().Execute(cmd.Context(), usecase.CreateFollowUpTaskInput{
				ParentTaskID: args[0],
				Description:  args[1],
				CreatedBy:    actingAs(cmd),
			})
			if err != nil {
				return err
			}
			printWarnings(cmd, out.Warnings)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Created follow-up task %s (%s)\n", out.Task.ID, out.Task.Status)
			return nil
		},
	}
}
