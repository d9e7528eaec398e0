package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/goby/internal/project"
)

// DatabaseEnv names the environment variable holding the default database path.
const DatabaseEnv = "GOBY_DB"

// DefaultDatabase is the database path used when neither --db nor GOBY_DB is set.
const DefaultDatabase = "goby.db"

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose  bool
	Format   string // "json" | "text"
	Database string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the goby CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "goby",
		Short: "goby - a schema-flexible item database",
		Long: `A local database of user-defined classes whose items are linked
through two-sided relations. Schemas change at runtime through edit batches.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	defaultDB := os.Getenv(DatabaseEnv)
	if defaultDB == "" {
		defaultDB = DefaultDatabase
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", defaultDB, "path to SQLite database (env "+DatabaseEnv+")")

	cmd.AddCommand(NewInitCommand(opts))
	cmd.AddCommand(NewApplyCommand(opts))
	cmd.AddCommand(NewClassesCommand(opts))
	cmd.AddCommand(NewItemsCommand(opts))
	cmd.AddCommand(NewAddRowCommand(opts))
	cmd.AddCommand(NewSetCommand(opts))
	cmd.AddCommand(NewDeleteRowCommand(opts))
	cmd.AddCommand(NewLinkCommand(opts))
	cmd.AddCommand(NewUnlinkCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
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

// newLogger returns a text logger writing to w. Debug records are shown
// only in verbose mode.
func newLogger(opts *RootOptions, w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if opts.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// commandContext returns the command's context, or a background context when
// the command runs outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// openProject opens the database named by --db.
func openProject(cmd *cobra.Command, opts *RootOptions) (*project.Project, error) {
	logger := newLogger(opts, cmd.ErrOrStderr())
	logger.Debug("opening database", "path", opts.Database)

	p, err := project.Open(commandContext(cmd), opts.Database, project.WithLogger(logger))
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return p, nil
}

// newFormatter returns the output formatter for a command.
func newFormatter(cmd *cobra.Command, opts *RootOptions) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}
