// Package cli provides the command-line interface for agent-swarm.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/runoshun/agent-swarm/internal/app"
	"github.com/runoshun/agent-swarm/internal/domain"
)

// Command group IDs.
const (
	groupSetup      = "setup"
	groupWork       = "work"
	groupAutomation = "automation"
)

// annotationNoStore marks commands that work before `swarm init`.
const annotationNoStore = "swarm/no-store"

// NewRootCommand creates the root command for swarm.
// It receives the container for dependency injection and version for display.
func NewRootCommand(c *app.Container, version string) *cobra.Command {
	root := &cobra.Command{
		Use:   "swarm",
		Short: "Task orchestration for multi-agent teams",
		Long: `swarm coordinates a team of AI agents through a shared task board.

Tasks are offered to agents or left in a pool for any agent to claim,
grouped into epics, created on a schedule, or routed in from email and
Slack webhooks. Run 'swarm serve' to start the scheduler and webhook server.`,
		Version: version,
		// SilenceUsage prevents usage from being printed on errors
		SilenceUsage: true,
		// SilenceErrors prevents Cobra from printing errors (we handle it in main)
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip if container is nil (e.g. in tests)
			if c == nil {
				return nil
			}
			if c.AppConfig != nil {
				for _, w := range c.AppConfig.Warnings {
					_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s\n", w)
				}
			}
			if !c.Ready() && !worksWithoutStore(cmd) {
				return domain.ErrNotInitialized
			}
			return nil
		},
	}

	root.PersistentFlags().String("as", os.Getenv(EnvAgentID), "Agent ID to act as (default $"+EnvAgentID+", empty = operator)")

	root.AddGroup(
		&cobra.Group{ID: groupSetup, Title: "Setup Commands:"},
		&cobra.Group{ID: groupWork, Title: "Work Management:"},
		&cobra.Group{ID: groupAutomation, Title: "Automation:"},
	)

	add := func(group string, cmds ...*cobra.Command) {
		for _, cmd := range cmds {
			cmd.GroupID = group
			root.AddCommand(cmd)
		}
	}
	add(groupSetup,
		newInitCommand(c),
		newConfigCommand(c),
		newServeCommand(c),
	)
	add(groupWork,
		newAgentCommand(c),
		newTaskCommand(c),
		newEpicCommand(c),
	)
	add(groupAutomation,
		newScheduleCommand(c),
		newInboxCommand(c),
		newRouteCommand(c),
		newLoopCommand(c),
	)

	return root
}

// worksWithoutStore reports whether cmd is marked as usable before
// initialization. Help and completion always are.
func worksWithoutStore(cmd *cobra.Command) bool {
	if cmd.Annotations[annotationNoStore] == "true" {
		return true
	}
	for p := cmd; p != nil; p = p.Parent() {
		switch p.Name() {
		case "help", cobra.ShellCompRequestCmd, cobra.ShellCompNoDescRequestCmd, "completion":
			return true
		}
	}
	return false
}

func noStore() map[string]string {
	return map[string]string{annotationNoStore: "true"}
}
