package cli

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/roach88/taskstore/internal/entity"
	"github.com/roach88/taskstore/internal/pipeline"
)

// NewListsCommand creates the lists command group.
func NewListsCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lists",
		Short: "Manage task lists",
	}

	cmd.AddCommand(newListsAddCommand(opts))
	cmd.AddCommand(newListsLsCommand(opts))
	cmd.AddCommand(newListsRmCommand(opts))

	return cmd
}

func newListsAddCommand(opts *RootOptions) *cobra.Command {
	var accountName, accountType, name, syncID string
	var color int64

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a task list",
		Long: `Create a task list.

List provisioning is the synchronization surface: this command always runs
as a privileged caller.

Example:
  taskstore lists add --account-name local --account-type org.local --name Inbox`,
		RunE: func(cmd *cobra.Command, args []string) error {
			fields := map[string]any{
				entity.ColAccountName: accountName,
				entity.ColAccountType: accountType,
			}
			if cmd.Flags().Changed("name") {
				fields[entity.ColListName] = name
			}
			if cmd.Flags().Changed("color") {
				fields[entity.ColColor] = color
			}
			if syncID == "" {
				syncID = uuid.NewString()
			}
			fields[entity.ColSyncID] = syncID

			res, err := applyOne(opts, cmd, pipeline.MutationRequest{
				Kind:       entity.KindList,
				Op:         pipeline.OpInsert,
				Fields:     fields,
				Privileged: true,
			})
			if err != nil {
				return err
			}

			f := opts.formatter(cmd)
			return f.Success(res.Row, fmt.Sprintf("Created list %d", res.ID))
		},
	}

	cmd.Flags().StringVar(&accountName, "account-name", "", "account name (required)")
	cmd.Flags().StringVar(&accountType, "account-type", "", "account type (required)")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().Int64Var(&color, "color", 0, "list color")
	cmd.Flags().StringVar(&syncID, "sync-id", "", "sync id (generated when empty)")
	_ = cmd.MarkFlagRequired("account-name")
	_ = cmd.MarkFlagRequired("account-type")

	return cmd
}

func newListsLsCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ls",
		Short: "Show all task lists",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := opts.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			lists, err := st.Lists(cmd.Context())
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to read lists", err)
			}

			f := opts.formatter(cmd)
			lines := make([]string, 0, len(lists))
			for _, l := range lists {
				lines = append(lines, fmt.Sprintf("%4d  %-20s  %s/%s",
					l.ID, l.Name, l.AccountName, l.AccountType))
			}
			return f.Success(lists, lines...)
		},
	}
}

func newListsRmCommand(opts *RootOptions) *cobra.Command {
	var id int64

	cmd := &cobra.Command{
		Use:   "rm",
		Short: "Delete a task list and all its tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := applyOne(opts, cmd, pipeline.MutationRequest{
				Kind:       entity.KindList,
				Op:         pipeline.OpDelete,
				ID:         id,
				Privileged: true,
			})
			if err != nil {
				return err
			}

			f := opts.formatter(cmd)
			return f.Success(map[string]any{"deleted": res.ID},
				fmt.Sprintf("Deleted list %d", res.ID))
		},
	}

	cmd.Flags().Int64Var(&id, "id", 0, "list identifier (required)")
	_ = cmd.MarkFlagRequired("id")

	return cmd
}

// applyOne opens the store, runs a single mutation through the pipeline, and
// maps pipeline rejections to exit codes.
func applyOne(opts *RootOptions, cmd *cobra.Command, req pipeline.MutationRequest) (pipeline.Result, error) {
	st, err := opts.openStore()
	if err != nil {
		return pipeline.Result{}, err
	}
	defer st.Close()

	exec := opts.newExecutor(st)
	results, err := exec.Apply(cmd.Context(), []pipeline.MutationRequest{req})
	if err != nil {
		f := opts.formatter(cmd)
		_ = f.Error(opErrorCode(err), err.Error())
		return pipeline.Result{}, WrapExitError(ExitFailure, "operation failed", err)
	}
	return results[0], nil
}

// opErrorCode extracts the pipeline error code for output.
func opErrorCode(err error) string {
	switch {
	case pipeline.IsUnauthorized(err):
		return string(pipeline.CodeUnauthorized)
	case pipeline.IsInvalidArgument(err):
		return string(pipeline.CodeInvalidArgument)
	case pipeline.IsNotFound(err):
		return string(pipeline.CodeNotFound)
	case pipeline.IsStorageFailure(err):
		return string(pipeline.CodeStorageFailure)
	default:
		return "ERROR"
	}
}
