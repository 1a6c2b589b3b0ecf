package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/taskstore/internal/entity"
	"github.com/roach88/taskstore/internal/pipeline"
)

// NewTasksCommand creates the tasks command group.
func NewTasksCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Manage tasks",
	}

	cmd.AddCommand(newTasksAddCommand(opts))
	cmd.AddCommand(newTasksUpdateCommand(opts))
	cmd.AddCommand(newTasksDoneCommand(opts))
	cmd.AddCommand(newTasksRmCommand(opts))
	cmd.AddCommand(newTasksLsCommand(opts))

	return cmd
}

// taskFlags are the field flags shared by add and update.
type taskFlags struct {
	Title       string
	Description string
	Status      string
	Start       string
	Due         string
	TZ          string
	Duration    string
	RRule       string
}

func (tf *taskFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&tf.Title, "title", "", "task title")
	cmd.Flags().StringVar(&tf.Description, "description", "", "task description")
	cmd.Flags().StringVar(&tf.Status, "status", "", "status (needs-action|in-process|completed|cancelled)")
	cmd.Flags().StringVar(&tf.Start, "start", "", "start (2006-01-02 for all-day, RFC 3339 for timed)")
	cmd.Flags().StringVar(&tf.Due, "due", "", "due (2006-01-02 for all-day, RFC 3339 for timed)")
	cmd.Flags().StringVar(&tf.TZ, "tz", "", "IANA timezone of the task")
	cmd.Flags().StringVar(&tf.Duration, "duration", "", "RFC 5545 duration relative to start (e.g. PT1H)")
	cmd.Flags().StringVar(&tf.RRule, "rrule", "", "recurrence rule")
}

// fields converts the changed flags into pipeline field values.
func (tf *taskFlags) fields(cmd *cobra.Command) (map[string]any, error) {
	fields := map[string]any{}

	if cmd.Flags().Changed("title") {
		fields[entity.ColTitle] = tf.Title
	}
	if cmd.Flags().Changed("description") {
		fields[entity.ColDescription] = tf.Description
	}
	if cmd.Flags().Changed("status") {
		st, ok := entity.ParseStatus(tf.Status)
		if !ok {
			return nil, fmt.Errorf("unknown status %q", tf.Status)
		}
		fields[entity.ColStatus] = int64(st)
	}
	if cmd.Flags().Changed("tz") {
		fields[entity.ColTZ] = tf.TZ
	}
	if cmd.Flags().Changed("duration") {
		fields[entity.ColDuration] = tf.Duration
	}
	if cmd.Flags().Changed("rrule") {
		fields[entity.ColRRule] = tf.RRule
	}

	var allDay *bool
	if cmd.Flags().Changed("start") {
		ms, ad, err := parseWhen(tf.Start)
		if err != nil {
			return nil, fmt.Errorf("invalid start: %w", err)
		}
		fields[entity.ColDTStart] = ms
		allDay = &ad
	}
	if cmd.Flags().Changed("due") {
		ms, ad, err := parseWhen(tf.Due)
		if err != nil {
			return nil, fmt.Errorf("invalid due: %w", err)
		}
		if allDay != nil && *allDay != ad {
			return nil, fmt.Errorf("start and due must both be all-day or both timed")
		}
		fields[entity.ColDue] = ms
		allDay = &ad
	}
	if allDay != nil {
		fields[entity.ColIsAllDay] = boolToInt(*allDay)
	}

	return fields, nil
}

func newTasksAddCommand(opts *RootOptions) *cobra.Command {
	var listID int64
	tf := &taskFlags{}

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a task",
		Long: `Create a task in a list.

Example:
  taskstore tasks add --list 1 --title "Write report" --start 2024-01-01T09:00:00Z --duration PT1H`,
		RunE: func(cmd *cobra.Command, args []string) error {
			fields, err := tf.fields(cmd)
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid flags", err)
			}
			fields[entity.ColListID] = listID

			res, err := applyOne(opts, cmd, pipeline.MutationRequest{
				Kind:       entity.KindTask,
				Op:         pipeline.OpInsert,
				Fields:     fields,
				Privileged: opts.Sync,
			})
			if err != nil {
				return err
			}

			f := opts.formatter(cmd)
			return f.Success(res.Row, fmt.Sprintf("Created task %d", res.ID))
		},
	}

	cmd.Flags().Int64Var(&listID, "list", 0, "owning list identifier (required)")
	_ = cmd.MarkFlagRequired("list")
	tf.register(cmd)

	return cmd
}

func newTasksUpdateCommand(opts *RootOptions) *cobra.Command {
	var id int64
	tf := &taskFlags{}

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update a task",
		RunE: func(cmd *cobra.Command, args []string) error {
			fields, err := tf.fields(cmd)
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid flags", err)
			}
			if len(fields) == 0 {
				return WrapExitError(ExitCommandError, "nothing to update", nil)
			}

			res, err := applyOne(opts, cmd, pipeline.MutationRequest{
				Kind:       entity.KindTask,
				Op:         pipeline.OpUpdate,
				ID:         id,
				Fields:     fields,
				Privileged: opts.Sync,
			})
			if err != nil {
				return err
			}

			f := opts.formatter(cmd)
			return f.Success(res.Row, fmt.Sprintf("Updated task %d", res.ID))
		},
	}

	cmd.Flags().Int64Var(&id, "id", 0, "task identifier (required)")
	_ = cmd.MarkFlagRequired("id")
	tf.register(cmd)

	return cmd
}

func newTasksDoneCommand(opts *RootOptions) *cobra.Command {
	var id int64

	cmd := &cobra.Command{
		Use:   "done",
		Short: "Mark a task completed",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := applyOne(opts, cmd, pipeline.MutationRequest{
				Kind: entity.KindTask,
				Op:   pipeline.OpUpdate,
				ID:   id,
				Fields: map[string]any{
					entity.ColStatus: int64(entity.StatusCompleted),
				},
				Privileged: opts.Sync,
			})
			if err != nil {
				return err
			}

			f := opts.formatter(cmd)
			return f.Success(res.Row, fmt.Sprintf("Completed task %d", res.ID))
		},
	}

	cmd.Flags().Int64Var(&id, "id", 0, "task identifier (required)")
	_ = cmd.MarkFlagRequired("id")

	return cmd
}

func newTasksRmCommand(opts *RootOptions) *cobra.Command {
	var id int64

	cmd := &cobra.Command{
		Use:   "rm",
		Short: "Delete a task",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := applyOne(opts, cmd, pipeline.MutationRequest{
				Kind:       entity.KindTask,
				Op:         pipeline.OpDelete,
				ID:         id,
				Privileged: opts.Sync,
			})
			if err != nil {
				return err
			}

			f := opts.formatter(cmd)
			return f.Success(map[string]any{"deleted": res.ID},
				fmt.Sprintf("Deleted task %d", res.ID))
		},
	}

	cmd.Flags().Int64Var(&id, "id", 0, "task identifier (required)")
	_ = cmd.MarkFlagRequired("id")

	return cmd
}

func newTasksLsCommand(opts *RootOptions) *cobra.Command {
	var listID int64

	cmd := &cobra.Command{
		Use:   "ls",
		Short: "Show tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := opts.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			tasks, err := st.Tasks(cmd.Context(), listID)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to read tasks", err)
			}

			f := opts.formatter(cmd)
			lines := make([]string, 0, len(tasks))
			for _, t := range tasks {
				lines = append(lines, fmt.Sprintf("%4d  %-12s %3d%%  %s",
					t.ID, statusLabel(t.Status), t.PercentComplete, t.Title))
			}
			return f.Success(tasks, lines...)
		},
	}

	cmd.Flags().Int64Var(&listID, "list", 0, "restrict to one list")

	return cmd
}

// parseWhen parses a point in time. Date-only values are all-day and become
// UTC-midnight literals; timed values carry their own offset.
func parseWhen(s string) (ms int64, allDay bool, err error) {
	if t, perr := time.Parse("2006-01-02", s); perr == nil {
		return t.UnixMilli(), true, nil
	}
	if t, perr := time.Parse(time.RFC3339, s); perr == nil {
		return t.UnixMilli(), false, nil
	}
	return 0, false, fmt.Errorf("%q is neither 2006-01-02 nor RFC 3339", s)
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
