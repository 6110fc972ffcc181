package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/runoshun/agent-swarm/internal/app"
	"github.com/runoshun/agent-swarm/internal/domain"
	"github.com/runoshun/agent-swarm/internal/usecase"
)

// errToolBlocked is returned by `loop record` when the call must not run.
var errToolBlocked = errors.New("tool call blocked: session is looping")

// newLoopCommand creates the loop command.
func newLoopCommand(c *app.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "loop",
		Short: "Detect repetitive tool calls",
		Long: `Record an agent's tool calls and detect loops: the same call repeated,
a tool polled without progress, or two calls alternating.

Hook 'swarm loop record' into the agent's pre-tool hook. It exits non-zero when
the call should be blocked. History lives in the [loopguard] backend. The
default "store" backend keeps it in the database, so separate invocations
share one window; "memory" only works inside a long-lived process.`,
	}
	cmd.AddCommand(newLoopRecordCommand(c), newLoopClearCommand(c))
	return cmd
}

func newLoopRecordCommand(c *app.Container) *cobra.Command {
	var opts struct {
		Session string
		Tool    string
		Args    string
		JSON    bool
	}

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record a tool call and check for loops",
		Long: `Record a tool call and report the loop severity (none, warning, critical).

Examples:
  swarm loop record --session s1 --tool read_file --args '{"path":"main.go"}'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if c.AppConfig.LoopGuard.Backend == domain.BackendMemory {
				printWarnings(cmd, []string{"[loopguard] backend \"memory\" forgets history when this command exits"})
			}
			var args map[string]any
			if opts.Args != "" {
				if err := json.Unmarshal([]byte(opts.Args), &args); err != nil {
					return fmt.Errorf("%w: --args must be a JSON object: %v", domain.ErrValidation, err)
				}
			}
			check, err := c.RecordToolCallUseCase().Execute(cmd.Context(), usecase.RecordToolCallInput{
				SessionKey: opts.Session,
				ToolName:   opts.Tool,
				Args:       args,
			})
			if err != nil {
				return err
			}
			if opts.JSON {
				if err := writeJSON(cmd.OutOrStdout(), check); err != nil {
					return err
				}
			} else {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s", check.Severity)
				if check.Reason != "" {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), ": %s", check.Reason)
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout())
			}
			if check.Blocked {
				return errToolBlocked
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.Session, "session", "", "Session key (required)")
	cmd.Flags().StringVar(&opts.Tool, "tool", "", "Tool name (required)")
	cmd.Flags().StringVar(&opts.Args, "args", "", "Tool arguments as a JSON object")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "Output as JSON")
	_ = cmd.MarkFlagRequired("session")
	_ = cmd.MarkFlagRequired("tool")
	return cmd
}

func newLoopClearCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "clear <session>",
		Short: "Forget a session's tool history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.ClearToolHistoryUseCase().Execute(cmd.Context(), args[0]); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Cleared session %s\n", args[0])
			return nil
		},
	}
}
