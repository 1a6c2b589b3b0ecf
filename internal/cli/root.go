package cli

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/taskstore/internal/config"
	"github.com/roach88/taskstore/internal/instances"
	"github.com/roach88/taskstore/internal/notify"
	"github.com/roach88/taskstore/internal/pipeline"
	"github.com/roach88/taskstore/internal/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	Database   string
	ConfigPath string
	Sync       bool // act as a synchronization caller

	cfg config.Config
	loc *time.Location
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the taskstore CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "taskstore",
		Short: "Local transactional task store",
		Long: `A local task store that keeps a derived, queryable instances view
consistent with every committed change to lists and tasks.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return opts.resolve()
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite database (overrides config)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to config file")
	cmd.PersistentFlags().BoolVar(&opts.Sync, "sync", false, "run operations as a synchronization caller")

	// Add subcommands
	cmd.AddCommand(NewListsCommand(opts))
	cmd.AddCommand(NewTasksCommand(opts))
	cmd.AddCommand(NewAgendaCommand(opts))

	return cmd
}

// resolve loads the config file, applies flag overrides, and configures
// logging.
func (o *RootOptions) resolve() error {
	path := o.ConfigPath
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			return err
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if o.Database != "" {
		cfg.Database = o.Database
	}

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	level := cfg.SlogLevel()
	if o.Verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))

	o.cfg = cfg
	o.loc = loc
	return nil
}

// openStore opens the configured database.
func (o *RootOptions) openStore() (*store.Store, error) {
	st, err := store.Open(o.cfg.Database)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

// newExecutor wires the mutation pipeline over an open store.
func (o *RootOptions) newExecutor(st *store.Store) *pipeline.Executor {
	mat := instances.New(o.loc, nil, slog.Default())
	return pipeline.NewExecutor(st, mat.Run, notify.LogNotifier{}, slog.Default())
}

// formatter builds an OutputFormatter for the command's stdout.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{Format: o.Format, Writer: cmd.OutOrStdout()}
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
