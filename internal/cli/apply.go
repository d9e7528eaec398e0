package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/goby/internal/edit"
	"github.com/roach88/goby/internal/schema"
)

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create or open the database",
		Long: `Create the database named by --db, or open it and report its classes
when it already exists.

Example:
  goby init --db ./library.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openProject(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer p.Close()

			snap := p.Snapshot()
			f := newFormatter(cmd, rootOpts)
			if f.Format == "json" {
				return f.Success(map[string]any{
					"database":  rootOpts.Database,
					"classes":   len(snap.Classes),
					"junctions": len(snap.Junctions),
				})
			}
			return f.Success(fmt.Sprintf("Database %s ready (%d classes, %d junctions)\n",
				rootOpts.Database, len(snap.Classes), len(snap.Junctions)))
		},
	}
}

// NewApplyCommand creates the apply command.
func NewApplyCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "apply <batch-file>",
		Short: "Apply one schema edit batch",
		Long: `Apply a batch of class, property and relationship edits.

The batch file may be YAML (.yaml, .yml), JSON (.json) or CUE (.cue).
Edits that cannot be applied are reported as diagnostics; the rest of the
batch still runs.

Exit codes:
  0 - Batch applied (diagnostics may be reported)
  1 - Storage failure
  2 - Command error (unreadable or malformed batch file)

Example:
  goby apply ./schema.yaml
  goby apply ./schema.cue --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(cmd, rootOpts, args[0])
		},
	}
}

func runApply(cmd *cobra.Command, opts *RootOptions, path string) error {
	f := newFormatter(cmd, opts)

	batch, err := LoadBatch(path)
	if err != nil {
		return f.Fail("failed to load batch", err)
	}
	f.VerboseLog("Loaded %d class, %d property and %d relationship edit(s) from %s",
		len(batch.ClassEdits), len(batch.PropertyEdits), len(batch.RelationEdits), path)

	p, err := openProject(cmd, opts)
	if err != nil {
		return err
	}
	defer p.Close()

	report, err := p.EditSchema(commandContext(cmd), *batch)
	if err != nil {
		return f.Fail("failed to apply batch", err)
	}

	if f.Format == "json" {
		return f.Success(report)
	}
	return f.Success(formatReport(report))
}

func formatReport(r *edit.Report) string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Batch %s\n", r.BatchID)
	for _, c := range r.Changes {
		fmt.Fprintf(&buf, "  %s\n", formatChange(c))
	}
	writeDiagnostics(&buf, r.Diagnostics)
	fmt.Fprintf(&buf, "%d change(s), %d diagnostic(s)\n", len(r.Changes), len(r.Diagnostics))
	return buf.String()
}

func formatChange(c edit.Change) string {
	switch c.Kind {
	case edit.KindClass:
		return fmt.Sprintf("%s class %q (class=%d)", c.Action, c.Name, c.ClassID)
	case edit.KindProperty:
		return fmt.Sprintf("%s property %q (class=%d, prop=%d)", c.Action, c.Name, c.ClassID, c.PropID)
	}

	s := fmt.Sprintf("%s junction %d", c.Action, c.JunctionID)
	if c.Sides != nil {
		s += " " + c.Sides.String()
	}
	if c.SourceID != 0 {
		s += fmt.Sprintf(" from junction %d", c.SourceID)
	}
	return s
}

func writeDiagnostics(buf *strings.Builder, diags []*schema.Error) {
	for _, d := range diags {
		fmt.Fprintf(buf, "  ! %s\n", d.Error())
	}
}
