package cli

import (
	"fmt"
	"io"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/runoshun/agent-swarm/internal/app"
	"github.com/runoshun/agent-swarm/internal/domain"
	"github.com/runoshun/agent-swarm/internal/usecase"
)

// newConfigCommand creates the config command.
func newConfigCommand(c *app.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long: `Manage swarm configuration.

Files: 'init', 'show' and 'template' work on the TOML config files.
Entries: 'set', 'get', 'list' and 'delete' work on the scoped key/value
entries stored in the database. An entry is global, or scoped to one agent
or one repository; the most specific entry wins (repo > agent > global).`,
		// No RunE: shows subcommand list when called without arguments
	}

	cmd.AddCommand(
		newConfigInitCommand(c),
		newConfigShowCommand(c),
		newConfigTemplateCommand(),
		newConfigSetCommand(c),
		newConfigGetCommand(c),
		newConfigListCommand(c),
		newConfigDeleteCommand(c),
	)
	return cmd
}

// newConfigInitCommand creates the config init subcommand.
func newConfigInitCommand(c *app.Container) *cobra.Command {
	var global bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Generate configuration file template",
		Long: `Generate a configuration file template.

By default, creates the config file in the data directory (.swarm/config.toml).
With --global, creates the global config file at ~/.config/agent-swarm/config.toml.

Error conditions:
- Target file already exists: error`,
		Annotations: noStore(),
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := c.InitConfigUseCase().Execute(cmd.Context(), usecase.InitConfigInput{Global: global})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Created config file: %s\n", out.Path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&global, "global", false, "Generate global configuration")
	return cmd
}

// newConfigShowCommand creates the config show subcommand.
func newConfigShowCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:         "show",
		Short:       "Display effective configuration",
		Long:        `Display which config files were loaded and the merged configuration. Secrets are masked.`,
		Annotations: noStore(),
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := c.ConfigLoader.Load()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()

			_, _ = fmt.Fprintln(w, "[Loaded from]")
			for _, info := range []domain.ConfigInfo{c.ConfigManager.GetGlobalConfigInfo(), c.ConfigManager.GetLocalConfigInfo()} {
				if info.Path == "" {
					continue
				}
				if info.Exists {
					_, _ = fmt.Fprintf(w, "- %s\n", info.Path)
				} else {
					_, _ = fmt.Fprintf(w, "- %s (not found)\n", info.Path)
				}
			}
			_, _ = fmt.Fprintln(w)

			_, _ = fmt.Fprintln(w, "[Effective Config]")
			return formatEffectiveConfig(w, cfg)
		},
	}
}

// formatEffectiveConfig writes cfg as TOML, with durations in Go syntax and secrets masked.
func formatEffectiveConfig(w io.Writer, cfg *domain.Config) error {
	mask := func(s string) string {
		if s == "" {
			return ""
		}
		return domain.RedactedValue
	}
	output := map[string]any{
		"store": map[string]any{
			"driver": cfg.Store.Driver,
			"dsn":    cfg.Store.DSN,
		},
		"server": map[string]any{
			"listen":           cfg.Server.Listen,
			"shutdown_timeout": cfg.Server.ShutdownTimeout.String(),
		},
		"scheduler": map[string]any{
			"enabled":  cfg.Scheduler.Enabled,
			"interval": cfg.Scheduler.Interval.String(),
		},
		"loopguard": map[string]any{
			"backend":   cfg.LoopGuard.Backend,
			"redis_url": cfg.LoopGuard.RedisURL,
			"ttl":       cfg.LoopGuard.TTL.String(),
		},
		"dedup": map[string]any{
			"backend":   cfg.Dedup.Backend,
			"redis_url": cfg.Dedup.RedisURL,
			"ttl":       cfg.Dedup.TTL.String(),
		},
		"notify": map[string]any{
			"driver":  cfg.Notify.Driver,
			"url":     cfg.Notify.URL,
			"subject": cfg.Notify.Subject,
		},
		"secrets": map[string]any{
			"key": mask(cfg.Secrets.Key),
		},
		"webhooks": map[string]any{
			"slack_signing_secret": mask(cfg.Webhooks.SlackSigningSecret),
			"agentmail_secret":     mask(cfg.Webhooks.AgentMailSecret),
		},
		"telemetry": map[string]any{
			"enabled":      cfg.Telemetry.Enabled,
			"service_name": cfg.Telemetry.ServiceName,
		},
		"log": map[string]any{
			"level":  cfg.Log.Level,
			"format": cfg.Log.Format,
			"file":   cfg.Log.File,
		},
	}
	if err := toml.NewEncoder(w).Encode(output); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// newConfigTemplateCommand creates the config template subcommand.
func newConfigTemplateCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "template",
		Short:       "Output configuration template",
		Long:        `Output the commented configuration template to stdout. Does not read any config file.`,
		Annotations: noStore(),
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, _ = fmt.Fprint(cmd.OutOrStdout(), domain.RenderConfigTemplate())
			return nil
		},
	}
}

type scopeFlags struct {
	Scope   string
	ScopeID string
}

func (f *scopeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.Scope, "scope", string(domain.ScopeGlobal), "Scope: global, agent or repo")
	cmd.Flags().StringVar(&f.ScopeID, "scope-id", "", "Agent ID or repository ID (required for agent and repo scopes)")
}

// newConfigSetCommand creates the config set subcommand.
func newConfigSetCommand(c *app.Container) *cobra.Command {
	var (
		scope       scopeFlags
		description string
		secret      bool
	)

	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a config entry",
		Long: `Create or replace the config entry for key in a scope.

Global and repo entries require lead rights. An agent may set its own
agent-scope entries.

Examples:
  swarm config set model large
  swarm config set model small --scope agent --scope-id worker-1
  swarm config set github_token ghp_xxx --secret --description "CI token"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			who, err := caller(cmd, c)
			if err != nil {
				return err
			}
			out, err := c.SetConfigUseCase().Execute(cmd.Context(), usecase.SetConfigInput{
				Caller:      who,
				Key:         args[0],
				Value:       args[1],
				Scope:       domain.ConfigScope(scope.Scope),
				ScopeID:     scope.ScopeID,
				Description: description,
				IsSecret:    secret,
			})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Set %s (%s)\n", out.Entry.Key, scopeLabel(out.Entry))
			return nil
		},
	}
	scope.register(cmd)
	cmd.Flags().StringVar(&description, "description", "", "Description of the entry")
	cmd.Flags().BoolVar(&secret, "secret", false, "Mark the value as secret (masked in output, encrypted when [secrets] key is set)")
	return cmd
}

// newConfigGetCommand creates the config get subcommand.
func newConfigGetCommand(c *app.Container) *cobra.Command {
	var (
		agentID string
		repoID  string
		reveal  bool
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "get [key]",
		Short: "Resolve config entries",
		Long: `Resolve the effective value of key, or of every key when omitted.

The agent defaults to --as and the repository to the origin remote of the
working directory.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := usecase.ResolveConfigInput{AgentID: agentID, RepoID: repoID, Reveal: reveal}
			if len(args) == 1 {
				in.Key = args[0]
			}
			if !cmd.Flags().Changed("agent") {
				in.AgentID = actingAs(cmd)
			}
			if !cmd.Flags().Changed("repo") {
				in.RepoID = c.RepoID()
			}
			out, err := c.ResolveConfigUseCase().Execute(cmd.Context(), in)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), out.Entries)
			}
			if in.Key != "" {
				if len(out.Entries) == 0 {
					return fmt.Errorf("%w: %s", domain.ErrConfigNotFound, in.Key)
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), out.Entries[0].Value)
				return nil
			}
			printConfigEntries(cmd.OutOrStdout(), out.Entries)
			return nil
		},
	}
	cmd.Flags().StringVar(&agentID, "agent", "", "Resolve for this agent")
	cmd.Flags().StringVar(&repoID, "repo", "", "Resolve for this repository ID (e.g. github.com/acme/app)")
	cmd.Flags().BoolVar(&reveal, "reveal", false, "Show secret values")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

// newConfigListCommand creates the config list subcommand.
func newConfigListCommand(c *app.Container) *cobra.Command {
	var (
		scope  scopeFlags
		key    string
		reveal bool
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored config entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter := domain.ConfigFilter{Key: key, ScopeID: scope.ScopeID}
			if cmd.Flags().Changed("scope") {
				filter.Scope = domain.ConfigScope(scope.Scope)
			}
			entries, err := c.ListConfigUseCase().Execute(cmd.Context(), usecase.ListConfigInput{Filter: filter, Reveal: reveal})
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), entries)
			}
			if len(entries) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No config entries")
				return nil
			}
			printConfigEntries(cmd.OutOrStdout(), entries)
			return nil
		},
	}
	scope.register(cmd)
	cmd.Flags().StringVar(&key, "key", "", "Filter by key")
	cmd.Flags().BoolVar(&reveal, "reveal", false, "Show secret values")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

// newConfigDeleteCommand creates the config delete subcommand.
func newConfigDeleteCommand(c *app.Container) *cobra.Command {
	var scope scopeFlags

	cmd := &cobra.Command{
		Use:     "delete <key>",
		Aliases: []string{"rm"},
		Short:   "Delete a config entry",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			who, err := caller(cmd, c)
			if err != nil {
				return err
			}
			err = c.DeleteConfigUseCase().Execute(cmd.Context(), usecase.DeleteConfigInput{
				Caller:  who,
				Key:     args[0],
				Scope:   domain.ConfigScope(scope.Scope),
				ScopeID: scope.ScopeID,
			})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}
	scope.register(cmd)
	return cmd
}

func scopeLabel(e *domain.ConfigEntry) string {
	if e.ScopeID == "" {
		return string(e.Scope)
	}
	return string(e.Scope) + " " + e.ScopeID
}

func printConfigEntries(w io.Writer, entries []*domain.ConfigEntry) {
	tw := newTable(w)
	defer func() { _ = tw.Flush() }()

	_, _ = fmt.Fprintln(tw, "KEY\tVALUE\tSCOPE\tSCOPE ID\tDESCRIPTION")
	for _, e := range entries {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			e.Key, e.Value, e.Scope, dash(e.ScopeID), dash(firstLine(e.Description, 40)))
	}
}
