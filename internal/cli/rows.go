package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/goby/internal/project"
	"github.com/roach88/goby/internal/schema"
)

// RowOptions holds flags for the add-row and set commands.
type RowOptions struct {
	*RootOptions
	Values string // JSON object keyed by property name or id
}

// rowResult is the JSON payload of the row commands.
type rowResult struct {
	ClassID     schema.ClassID  `json:"class_id"`
	ItemID      schema.ItemID   `json:"item_id"`
	Diagnostics []*schema.Error `json:"diagnostics"`
}

// NewAddRowCommand creates the add-row command.
func NewAddRowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "add-row <class>",
		Short: "Add an item to a class",
		Long: `Add an item to a class, optionally setting initial values.

Values that do not fit their property are reported as diagnostics; the item
is still added.

Example:
  goby add-row Author --values '{"Name": "Ursula", "age": 52}'`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAddRow(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Values, "values", "", "initial values as a JSON object")

	return cmd
}

func runAddRow(cmd *cobra.Command, opts *RowOptions, classRef string) error {
	f := newFormatter(cmd, opts.RootOptions)
	values, err := parseValues(opts.Values)
	if err != nil {
		return f.Fail("invalid --values", err)
	}

	p, err := openProject(cmd, opts.RootOptions)
	if err != nil {
		return err
	}
	defer p.Close()

	c, err := p.ResolveClass(classRef)
	if err != nil {
		return f.Fail("failed to resolve class", err)
	}
	changes, err := project.ValueChanges(c, values)
	if err != nil {
		return f.Fail("failed to resolve values", err)
	}

	id, diags, err := p.AddRow(commandContext(cmd), c.ID, changes)
	if err != nil {
		return f.Fail("failed to add row", err)
	}
	return reportRow(f, "Added", c, id, diags)
}

// NewSetCommand creates the set command.
func NewSetCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "set <class> <item>",
		Short: "Set data values of an item",
		Long: `Set data property values of an item. A null value clears the property.

Example:
  goby set Author 1 --values '{"age": 53, "nickname": null}'`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSet(cmd, opts, args[0], args[1])
		},
	}

	cmd.Flags().StringVar(&opts.Values, "values", "", "values as a JSON object (required)")
	_ = cmd.MarkFlagRequired("values")

	return cmd
}

func runSet(cmd *cobra.Command, opts *RowOptions, classRef, itemRef string) error {
	f := newFormatter(cmd, opts.RootOptions)
	item, err := parseItemID(itemRef)
	if err != nil {
		return f.Fail("invalid item", err)
	}
	values, err := parseValues(opts.Values)
	if err != nil {
		return f.Fail("invalid --values", err)
	}

	p, err := openProject(cmd, opts.RootOptions)
	if err != nil {
		return err
	}
	defer p.Close()

	c, err := p.ResolveClass(classRef)
	if err != nil {
		return f.Fail("failed to resolve class", err)
	}
	changes, err := project.ValueChanges(c, values)
	if err != nil {
		return f.Fail("failed to resolve values", err)
	}

	diags, err := p.SetPropertyValues(commandContext(cmd), c.ID, item, changes)
	if err != nil {
		return f.Fail("failed to set values", err)
	}
	return reportRow(f, "Updated", c, item, diags)
}

// NewDeleteRowCommand creates the delete-row command.
func NewDeleteRowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete-row <class> <item>",
		Short: "Delete an item and its links",
		Long: `Delete an item from a class together with every link it takes part in.

Example:
  goby delete-row Author 1`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(cmd, rootOpts)
			item, err := parseItemID(args[1])
			if err != nil {
				return f.Fail("invalid item", err)
			}

			p, err := openProject(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer p.Close()

			c, err := p.ResolveClass(args[0])
			if err != nil {
				return f.Fail("failed to resolve class", err)
			}
			if err := p.DeleteRow(commandContext(cmd), c.ID, item); err != nil {
				return f.Fail("failed to delete row", err)
			}
			return reportRow(f, "Deleted", c, item, nil)
		},
	}
}

func reportRow(f *OutputFormatter, verb string, c schema.Class, item schema.ItemID, diags []*schema.Error) error {
	if diags == nil {
		diags = []*schema.Error{}
	}
	if f.Format == "json" {
		return f.Success(rowResult{ClassID: c.ID, ItemID: item, Diagnostics: diags})
	}

	var buf strings.Builder
	fmt.Fprintf(&buf, "%s %s#%d\n", verb, c.Name, item)
	writeDiagnostics(&buf, diags)
	return f.Success(buf.String())
}

// parseValues decodes a JSON object of property values. Numbers keep their
// literal text until they are checked against the property type.
func parseValues(s string) (map[string]any, error) {
	values := map[string]any{}
	if strings.TrimSpace(s) == "" {
		return values, nil
	}
	decoder := json.NewDecoder(bytes.NewReader([]byte(s)))
	decoder.UseNumber()
	if err := decoder.Decode(&values); err != nil {
		return nil, &LoadError{Code: ErrCodeBadArgument, Message: fmt.Sprintf("values must be a JSON object: %v", err)}
	}
	return values, nil
}

func parseItemID(s string) (schema.ItemID, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, &LoadError{Code: ErrCodeBadArgument, Message: fmt.Sprintf("invalid item id %q", s)}
	}
	return schema.ItemID(id), nil
}
