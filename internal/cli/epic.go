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

// newEpicCommand creates the epic command.
func newEpicCommand(c *app.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "epic",
		Short: "Manage epics",
		Long: `Group tasks under epics. Any agent may create an epic; only its
creator or a lead may change or delete it. Deleting an epic keeps its tasks
and clears their epic link.`,
	}
	cmd.AddCommand(
		newEpicCreateCommand(c),
		newEpicListCommand(c),
		newEpicShowCommand(c),
		newEpicUpdateCommand(c),
		newEpicDeleteCommand(c),
	)
	return cmd
}

func newEpicCreateCommand(c *app.Container) *cobra.Command {
	var opts struct {
		Goal        string
		Description string
		Status      string
		Lead        string
		Tags        []string
		Priority    int
	}

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create an epic",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			who, err := caller(cmd, c)
			if err != nil {
				return err
			}
			out, err := c.CreateEpicUseCase().Execute(cmd.Context(), usecase.CreateEpicInput{
				Caller:      who,
				Priority:    optionalInt(cmd, "priority", opts.Priority),
				Name:        args[0],
				Goal:        opts.Goal,
				Description: opts.Description,
				Status:      domain.EpicStatus(opts.Status),
				LeadAgentID: opts.Lead,
				Tags:        opts.Tags,
			})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Created epic %s (%s)\n", out.Epic.ID, out.Epic.Status)
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.Goal, "goal", "", "What done looks like")
	cmd.Flags().StringVar(&opts.Description, "description", "", "Longer description")
	cmd.Flags().StringVar(&opts.Status, "status", "", "Initial status (default: draft)")
	cmd.Flags().StringVar(&opts.Lead, "lead", "", "Agent leading the epic")
	cmd.Flags().StringArrayVar(&opts.Tags, "tag", nil, "Tag (can specify multiple)")
	cmd.Flags().IntVar(&opts.Priority, "priority", domain.DefaultPriority, "Priority 0-100")
	return cmd
}

func newEpicListCommand(c *app.Container) *cobra.Command {
	var opts struct {
		Status string
		Lead   string
		JSON   bool
	}

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List epics",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := c.ListEpicsUseCase().Execute(cmd.Context(), domain.EpicFilter{
				Status:      domain.EpicStatus(opts.Status),
				LeadAgentID: opts.Lead,
			})
			if err != nil {
				return err
			}
			if opts.JSON {
				return writeJSON(cmd.OutOrStdout(), out.Epics)
			}
			if len(out.Epics) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No epics found")
				return nil
			}
			printEpics(cmd.OutOrStdout(), out.Epics)
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.Status, "status", "", "Filter by status")
	cmd.Flags().StringVar(&opts.Lead, "lead", "", "Filter by lead agent")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "Output as JSON")
	return cmd
}

func printEpics(w io.Writer, epics []*domain.Epic) {
	tw := newTable(w)
	defer func() { _ = tw.Flush() }()

	_, _ = fmt.Fprintln(tw, "ID\tSTATUS\tPRIO\tLEAD\tTAGS\tNAME")
	for _, e := range epics {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\n",
			e.ID, e.Status, e.Priority, dash(e.LeadAgentID), joinTags(e.Tags), e.Name)
	}
}

func newEpicShowCommand(c *app.Container) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show epic details and its tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			epic, err := c.GetEpicUseCase().Execute(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			tasks, err := c.ListTasksUseCase().Execute(cmd.Context(), usecase.ListTasksInput{
				Filter: domain.TaskFilter{EpicID: epic.ID},
			})
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), struct {
					*domain.Epic
					Tasks []*domain.Task `json:"tasks"`
				}{epic, tasks.Tasks})
			}

			w := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(w, "ID: %s\n", epic.ID)
			_, _ = fmt.Fprintf(w, "Name: %s\n", epic.Name)
			_, _ = fmt.Fprintf(w, "Status: %s\n", epic.Status)
			_, _ = fmt.Fprintf(w, "Priority: %d\n", epic.Priority)
			if epic.Goal != "" {
				_, _ = fmt.Fprintf(w, "Goal: %s\n", epic.Goal)
			}
			if epic.LeadAgentID != "" {
				_, _ = fmt.Fprintf(w, "Lead: %s\n", epic.LeadAgentID)
			}
			_, _ = fmt.Fprintf(w, "Created by: %s\n", dash(epic.CreatedByAgentID))
			if len(epic.Tags) > 0 {
				_, _ = fmt.Fprintf(w, "Tags: %s\n", strings.Join(epic.Tags, ", "))
			}
			if epic.Description != "" {
				_, _ = fmt.Fprintf(w, "\n%s\n", epic.Description)
			}
			_, _ = fmt.Fprintf(w, "\nTasks (%d):\n", len(tasks.Tasks))
			if len(tasks.Tasks) > 0 {
				printTasks(w, tasks.Tasks)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newEpicUpdateCommand(c *app.Container) *cobra.Command {
	var opts struct {
		Name        string
		Goal        string
		Description string
		Status      string
		Lead        string
		Tags        []string
		Priority    int
	}

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update an epic",
		Long: `Update the fields given on the command line. Only the epic's creator
or a lead may update it.

Examples:
  swarm epic update <id> --status active
  swarm epic update <id> --tag q3 --tag infra   # replaces the tags`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			who, err := caller(cmd, c)
			if err != nil {
				return err
			}
			in := usecase.UpdateEpicInput{
				Caller:      who,
				EpicID:      args[0],
				Name:        optionalString(cmd, "name", opts.Name),
				Goal:        optionalString(cmd, "goal", opts.Goal),
				Description: optionalString(cmd, "description", opts.Description),
				LeadAgentID: optionalString(cmd, "lead", opts.Lead),
				Priority:    optionalInt(cmd, "priority", opts.Priority),
			}
			if cmd.Flags().Changed("status") {
				status := domain.EpicStatus(opts.Status)
				in.Status = &status
			}
			if cmd.Flags().Changed("tag") {
				in.Tags = &opts.Tags
			}
			out, err := c.UpdateEpicUseCase().Execute(cmd.Context(), in)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Updated epic %s\n", out.Epic.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.Name, "name", "", "New name")
	cmd.Flags().StringVar(&opts.Goal, "goal", "", "New goal")
	cmd.Flags().StringVar(&opts.Description, "description", "", "New description")
	cmd.Flags().StringVar(&opts.Status, "status", "", "New status (draft, active, paused, completed, cancelled)")
	cmd.Flags().StringVar(&opts.Lead, "lead", "", "New lead agent (empty clears)")
	cmd.Flags().StringArrayVar(&opts.Tags, "tag", nil, "Replace tags (can specify multiple)")
	cmd.Flags().IntVar(&opts.Priority, "priority", 0, "New priority 0-100")
	return cmd
}

func newEpicDeleteCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete an epic, keeping its tasks",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			who, err := caller(cmd, c)
			if err != nil {
				return err
			}
			out, err := c.DeleteEpicUseCase().Execute(cmd.Context(), usecase.DeleteEpicInput{Caller: who, EpicID: args[0]})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted epic %s (%d tasks unlinked)\n", args[0], out.UnlinkedTasks)
			return nil
		},
	}
}
