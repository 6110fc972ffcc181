package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/runoshun/agent-swarm/internal/app"
	"github.com/runoshun/agent-swarm/internal/domain"
)

// EnvAgentID supplies the default for the --as flag.
const EnvAgentID = "SWARM_AGENT_ID"

const timeLayout = "2006-01-02 15:04"

// newTable returns a tabwriter using the column layout shared by every list command.
func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
}

// writeJSON prints v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// printWarnings reports best-effort side effects that failed.
func printWarnings(cmd *cobra.Command, warnings []string) {
	for _, w := range warnings {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s\n", w)
	}
}

// actingAs returns the agent id given by --as, or "" for the operator.
func actingAs(cmd *cobra.Command) string {
	id, _ := cmd.Flags().GetString("as")
	return strings.TrimSpace(id)
}

// caller resolves --as into a domain.Caller.
func caller(cmd *cobra.Command, c *app.Container) (domain.Caller, error) {
	return c.Caller(cmd.Context(), actingAs(cmd))
}

// optionalInt returns &v when the flag was set on the command line.
func optionalInt(cmd *cobra.Command, name string, v int) *int {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	return &v
}

// optionalString returns &v when the flag was set on the command line.
func optionalString(cmd *cobra.Command, name, v string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	return &v
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Local().Format(timeLayout)
}

func joinTags(tags []string) string {
	if len(tags) == 0 {
		return "-"
	}
	return strings.Join(tags, ",")
}

// firstLine shortens multi-line text for table cells.
func firstLine(s string, max int) string {
	line, _, more := strings.Cut(strings.TrimSpace(s), "\n")
	if len(line) > max {
		return line[:max] + "..."
	}
	if more {
		return line + " ..."
	}
	return line
}

func parseStatuses(values []string) ([]domain.Status, error) {
	out := make([]domain.Status, 0, len(values))
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			st, err := domain.ParseStatus(part)
			if err != nil {
				return nil, fmt.Errorf("%w: %q", err, part)
			}
			out = append(out, st)
		}
	}
	return out, nil
}
