package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/runoshun/agent-swarm/internal/app"
	"github.com/runoshun/agent-swarm/internal/domain"
	"github.com/runoshun/agent-swarm/internal/usecase"
)

// newInitCommand creates the init command.
func newInitCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize the swarm data directory",
		Long: `Initialize swarm in the current directory.

This command creates the .swarm/ directory (or $SWARM_DATA_DIR) with:
- config.toml: commented configuration template
- swarm.db: the task store, with all migrations applied

With [store] driver = "postgres" the database is migrated in place.
Running init again keeps the existing config file and applies any
pending migrations.`,
		Annotations: noStore(),
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := cmd.OutOrStdout()

			out, err := c.InitConfigUseCase().Execute(cmd.Context(), usecase.InitConfigInput{})
			switch {
			case errors.Is(err, domain.ErrConfigExists):
				_, _ = fmt.Fprintf(w, "Config file exists: %s\n", c.ConfigManager.GetLocalConfigInfo().Path)
			case err != nil:
				return err
			default:
				_, _ = fmt.Fprintf(w, "Created config file: %s\n", out.Path)
			}

			dsn, err := c.InitStore(cmd.Context())
			if err != nil {
				return err
			}
			if c.AppConfig.Store.Driver == domain.DefaultStoreDriver {
				_, _ = fmt.Fprintf(w, "Initialized store: %s\n", dsn)
			} else {
				_, _ = fmt.Fprintf(w, "Initialized %s store\n", c.AppConfig.Store.Driver)
			}
			return nil
		},
	}
}
