package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// NewAgendaCommand creates the agenda command, a range query over the
// derived instances view.
func NewAgendaCommand(opts *RootOptions) *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "agenda",
		Short: "Show materialized task instances by due date",
		Long: `Show the derived instances view ordered by due sorting value.

All-day dates sort by their literal calendar value; timed dates sort in the
configured local zone. --from and --to bound the due sorting value.

Example:
  taskstore agenda --from 2024-01-01 --to 2024-02-01`,
		RunE: func(cmd *cobra.Command, args []string) error {
			fromMs, err := parseBound(from)
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid --from", err)
			}
			toMs, err := parseBound(to)
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid --to", err)
			}

			st, err := opts.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			rows, err := st.Agenda(cmd.Context(), fromMs, toMs)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to read agenda", err)
			}

			f := opts.formatter(cmd)
			lines := make([]string, 0, len(rows))
			for _, r := range rows {
				due := "            -"
				if r.Due != nil {
					due = time.UnixMilli(*r.Due).UTC().Format("2006-01-02 15:04")
				}
				lines = append(lines, fmt.Sprintf("%s  %-12s  %s",
					due, statusLabel(r.Status), r.Title))
			}
			return f.Success(rows, lines...)
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "lower bound (inclusive)")
	cmd.Flags().StringVar(&to, "to", "", "upper bound (exclusive)")

	return cmd
}

// parseBound parses a range bound into sort-key space. Empty means unbounded.
func parseBound(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	ms, _, err := parseWhen(s)
	return ms, err
}
