package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/runoshun/agent-swarm/internal/app"
	"github.com/runoshun/agent-swarm/internal/domain"
	"github.com/runoshun/agent-swarm/internal/infra/manifest"
	"github.com/runoshun/agent-swarm/internal/usecase"
)

// newScheduleCommand creates the schedule command.
func newScheduleCommand(c *app.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "schedule",
		Aliases: []string{"sched"},
		Short:   "Manage recurring tasks",
		Long: `Manage schedules that create tasks on a cron expression or a fixed interval.

'swarm serve' fires due schedules every [scheduler] interval. 'swarm schedule
tick' runs a single pass, for use from an external cron. Schedules can be
addressed by ID or by name.`,
	}
	cmd.AddCommand(
		newScheduleCreateCommand(c),
		newScheduleListCommand(c),
		newScheduleShowCommand(c),
		newScheduleUpdateCommand(c),
		newScheduleEnableCommand(c, true),
		newScheduleEnableCommand(c, false),
		newScheduleDeleteCommand(c),
		newScheduleRunCommand(c),
		newScheduleApplyCommand(c),
		newScheduleExportCommand(c),
		newScheduleTickCommand(c),
	)
	return cmd
}

type cadenceFlags struct {
	Cron     string
	Timezone string
	Agent    string
	Type     string
	Tags     []string
	Every    time.Duration
	Priority int
}

func (f *cadenceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.Cron, "cron", "", `Cron expression, 5 fields or a descriptor such as "@daily"`)
	cmd.Flags().DurationVar(&f.Every, "every", 0, `Fixed interval such as "15m" (exclusive with --cron)`)
	cmd.Flags().StringVar(&f.Timezone, "tz", "", "IANA time zone for cron expressions (default: UTC)")
	cmd.Flags().StringVar(&f.Agent, "agent", "", "Offer created tasks to this agent")
	cmd.Flags().StringVar(&f.Type, "type", "", "Task type of created tasks")
	cmd.Flags().StringArrayVar(&f.Tags, "tag", nil, "Tag of created tasks (can specify multiple)")
	cmd.Flags().IntVar(&f.Priority, "priority", domain.DefaultPriority, "Priority of created tasks 0-100")
}

func newScheduleCreateCommand(c *app.Container) *cobra.Command {
	var (
		flags    cadenceFlags
		start    string
		disabled bool
	)

	cmd := &cobra.Command{
		Use:   "create <name> <task-template>",
		Short: "Create a schedule",
		Long: `Create a schedule. Exactly one of --cron and --every is required.

Examples:
  swarm schedule create standup "Post the daily standup summary" --cron "0 9 * * 1-5" --tz Europe/Berlin
  swarm schedule create triage "Triage new issues" --every 30m --agent worker-1`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			who, err := caller(cmd, c)
			if err != nil {
				return err
			}
			in := usecase.CreateScheduleInput{
				Caller:         who,
				Name:           args[0],
				TaskTemplate:   args[1],
				CronExpression: flags.Cron,
				IntervalMs:     flags.Every.Milliseconds(),
				Timezone:       flags.Timezone,
				TargetAgentID:  flags.Agent,
				TaskType:       flags.Type,
				Tags:           flags.Tags,
				Priority:       optionalInt(cmd, "priority", flags.Priority),
			}
			if start != "" {
				t, err := time.Parse(time.RFC3339, start)
				if err != nil {
					return fmt.Errorf("%w: --start must be RFC 3339: %v", domain.ErrValidation, err)
				}
				in.StartAt = &t
			}
			if disabled {
				enabled := false
				in.Enabled = &enabled
			}
			out, err := c.CreateScheduleUseCase().Execute(cmd.Context(), in)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Created schedule %s (%s), next run %s\n",
				out.Schedule.Name, out.Schedule.ID, formatTime(out.Schedule.NextRunAt))
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&start, "start", "", "First run of an interval schedule, RFC 3339 (default: now + interval)")
	cmd.Flags().BoolVar(&disabled, "disabled", false, "Create the schedule disabled")
	return cmd
}

func newScheduleListCommand(c *app.Container) *cobra.Command {
	var (
		enabledOnly bool
		asJSON      bool
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List schedules",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			schedules, err := c.ListSchedulesUseCase().Execute(cmd.Context(), domain.ScheduleFilter{EnabledOnly: enabledOnly})
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), schedules)
			}
			if len(schedules) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No schedules found")
				return nil
			}
			printSchedules(cmd.OutOrStdout(), schedules)
			return nil
		},
	}
	cmd.Flags().BoolVar(&enabledOnly, "enabled", false, "Only enabled schedules")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func cadence(s *domain.ScheduledTask) string {
	if s.IsCron() {
		if s.Timezone != "" && s.Timezone != domain.DefaultTimezone {
			return s.CronExpression + " (" + s.Timezone + ")"
		}
		return s.CronExpression
	}
	return "every " + (time.Duration(s.IntervalMs) * time.Millisecond).String()
}

func printSchedules(w io.Writer, schedules []*domain.ScheduledTask) {
	tw := newTable(w)
	defer func() { _ = tw.Flush() }()

	_, _ = fmt.Fprintln(tw, "NAME\tENABLED\tCADENCE\tAGENT\tNEXT RUN\tLAST RUN\tID")
	for _, s := range schedules {
		enabled := "yes"
		if !s.Enabled {
			enabled = "no"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			s.Name, enabled, cadence(s), dash(s.TargetAgentID), formatTime(s.NextRunAt), formatTime(s.LastRunAt), s.ID)
	}
}

func newScheduleShowCommand(c *app.Container) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <id-or-name>",
		Short: "Show schedule details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.GetScheduleUseCase().Execute(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), s)
			}
			w := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(w, "ID: %s\n", s.ID)
			_, _ = fmt.Fprintf(w, "Name: %s\n", s.Name)
			_, _ = fmt.Fprintf(w, "Enabled: %t\n", s.Enabled)
			_, _ = fmt.Fprintf(w, "Cadence: %s\n", cadence(s))
			_, _ = fmt.Fprintf(w, "Agent: %s\n", dash(s.TargetAgentID))
			_, _ = fmt.Fprintf(w, "Priority: %d\n", s.Priority)
			if s.TaskType != "" {
				_, _ = fmt.Fprintf(w, "Type: %s\n", s.TaskType)
			}
			if len(s.Tags) > 0 {
				_, _ = fmt.Fprintf(w, "Tags: %s\n", strings.Join(s.Tags, ", "))
			}
			_, _ = fmt.Fprintf(w, "Next run: %s\n", formatTime(s.NextRunAt))
			_, _ = fmt.Fprintf(w, "Last run: %s\n", formatTime(s.LastRunAt))
			if s.LastError != "" {
				_, _ = fmt.Fprintf(w, "Last error: %s\n", s.LastError)
			}
			_, _ = fmt.Fprintf(w, "\n%s\n", s.TaskTemplate)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newScheduleUpdateCommand(c *app.Container) *cobra.Command {
	var (
		flags    cadenceFlags
		name     string
		template string
	)

	cmd := &cobra.Command{
		Use:   "update <id-or-name>",
		Short: "Update a schedule",
		Long: `Update the fields given on the command line. Changing the cadence
or time zone recomputes the next run.

Examples:
  swarm schedule update standup --cron "30 9 * * 1-5"
  swarm schedule update triage --every 1h   # switches a cron schedule to an interval`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch := domain.SchedulePatch{
				TaskTemplate:   optionalString(cmd, "template", template),
				CronExpression: optionalString(cmd, "cron", flags.Cron),
				Timezone:       optionalString(cmd, "tz", flags.Timezone),
				TargetAgentID:  optionalString(cmd, "agent", flags.Agent),
				TaskType:       optionalString(cmd, "type", flags.Type),
				Priority:       optionalInt(cmd, "priority", flags.Priority),
			}
			if cmd.Flags().Changed("every") {
				ms := flags.Every.Milliseconds()
				patch.IntervalMs = &ms
				if patch.CronExpression == nil {
					empty := ""
					patch.CronExpression = &empty
				}
			} else if patch.CronExpression != nil && *patch.CronExpression != "" {
				var zero int64
				patch.IntervalMs = &zero
			}
			if cmd.Flags().Changed("tag") {
				patch.Tags = &flags.Tags
			}
			out, err := c.UpdateScheduleUseCase().Execute(cmd.Context(), usecase.UpdateScheduleInput{
				ScheduleID: args[0],
				Name:       optionalString(cmd, "name", name),
				Patch:      patch,
			})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Updated schedule %s, next run %s\n",
				out.Schedule.Name, formatTime(out.Schedule.NextRunAt))
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&name, "name", "", "Rename the schedule")
	cmd.Flags().StringVar(&template, "template", "", "New task template")
	return cmd
}

func newScheduleEnableCommand(c *app.Container, enabled bool) *cobra.Command {
	use, short, verb := "enable", "Enable a schedule", "Enabled"
	if !enabled {
		use, short, verb = "disable", "Disable a schedule", "Disabled"
	}
	return &cobra.Command{
		Use:   use + " <id-or-name>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := c.SetScheduleEnabledUseCase().Execute(cmd.Context(), usecase.SetScheduleEnabledInput{
				ScheduleID: args[0],
				Enabled:    enabled,
			})
			if err != nil {
				return err
			}
			if enabled {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s schedule %s, next run %s\n", verb, out.Schedule.Name, formatTime(out.Schedule.NextRunAt))
			} else {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s schedule %s\n", verb, out.Schedule.Name)
			}
			return nil
		},
	}
}

func newScheduleDeleteCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id-or-name>",
		Aliases: []string{"rm"},
		Short:   "Delete a schedule",
		Long:    `Delete a schedule. Tasks it already created are kept.`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.DeleteScheduleUseCase().Execute(cmd.Context(), args[0]); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted schedule %s\n", args[0])
			return nil
		},
	}
}

func newScheduleRunCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "run <id-or-name>",
		Short: "Create a task from a schedule now",
		Long:  `Create a task from the schedule immediately. The next scheduled run is not changed.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := c.RunScheduleNowUseCase().Execute(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printWarnings(cmd, out.Warnings)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Created task %s (%s)\n", out.Task.ID, out.Task.Status)
			return nil
		},
	}
}

func newScheduleApplyCommand(c *app.Container) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "apply -f <manifest.yaml>",
		Short: "Create or update schedules from a YAML manifest",
		Long: `Create or update schedules from a YAML manifest, matched by name.
Schedules not in the manifest are left alone. The whole manifest is validated
before anything is written. Use "-f -" to read stdin.

Manifest format:
  schedules:
    - name: standup
      template: Post the daily standup summary
      cron: "0 9 * * 1-5"
      timezone: Europe/Berlin
      agent: worker-1
    - name: triage
      template: Triage new issues
      interval: 30m
      tags: [triage]`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			who, err := caller(cmd, c)
			if err != nil {
				return err
			}
			var schedules []domain.ScheduledTask
			if file == "-" {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read manifest: %w", err)
				}
				schedules, err = manifest.Parse(data)
				if err != nil {
					return err
				}
			} else {
				schedules, err = manifest.Load(file)
				if err != nil {
					return err
				}
			}
			out, err := c.ApplySchedulesUseCase().Execute(cmd.Context(), usecase.ApplySchedulesInput{
				Caller:    who,
				Schedules: schedules,
			})
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, name := range out.Created {
				_, _ = fmt.Fprintf(w, "created %s\n", name)
			}
			for _, name := range out.Updated {
				_, _ = fmt.Fprintf(w, "updated %s\n", name)
			}
			_, _ = fmt.Fprintf(w, "%d created, %d updated\n", len(out.Created), len(out.Updated))
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Manifest file (- for stdin)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newScheduleExportCommand(c *app.Container) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write all schedules as a YAML manifest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			schedules, err := c.ListSchedulesUseCase().Execute(cmd.Context(), domain.ScheduleFilter{})
			if err != nil {
				return err
			}
			data, err := manifest.Marshal(schedules)
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("write manifest: %w", err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Exported %d schedules to %s\n", len(schedules), output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: stdout)")
	return cmd
}

func newScheduleTickCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "tick",
		Short: "Fire every due schedule once",
		Long: `Run a single scheduler pass: every enabled schedule whose next run is
due creates one task and advances. Safe to run concurrently with 'swarm serve';
a due run is materialized at most once.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := c.TickSchedulerUseCase().Execute(cmd.Context(), usecase.TickSchedulerInput{})
			if err != nil {
				return err
			}
			printWarnings(cmd, out.Warnings)
			w := cmd.OutOrStdout()
			for _, f := range out.Fired {
				_, _ = fmt.Fprintf(w, "fired %s -> task %s (next %s)\n", f.ScheduleName, f.TaskID, formatTime(&f.NextRunAt))
			}
			for _, id := range out.Disabled {
				_, _ = fmt.Fprintf(w, "disabled %s\n", id)
			}
			for _, id := range out.Skipped {
				_, _ = fmt.Fprintf(w, "skipped %s\n", id)
			}
			_, _ = fmt.Fprintf(w, "%d fired, %d disabled, %d skipped\n", len(out.Fired), len(out.Disabled), len(out.Skipped))
			return nil
		},
	}
}
