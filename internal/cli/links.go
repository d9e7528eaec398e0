package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/goby/internal/items"
	"github.com/roach88/goby/internal/project"
	"github.com/roach88/goby/internal/schema"
)

// endpoint is a parsed class[.prop]:item argument.
type endpoint struct {
	Class string
	Prop  string
	Item  schema.ItemID
}

// parseEndpoint parses class[.prop]:item. The class and property may be
// names or ids; the item is an id.
func parseEndpoint(s string) (endpoint, error) {
	i := strings.LastIndex(s, ":")
	if i <= 0 || i == len(s)-1 {
		return endpoint{}, &LoadError{Code: ErrCodeBadArgument, Message: fmt.Sprintf("expected class[.prop]:item, got %q", s)}
	}
	item, err := parseItemID(s[i+1:])
	if err != nil {
		return endpoint{}, err
	}

	e := endpoint{Class: s[:i], Item: item}
	if class, prop, ok := strings.Cut(e.Class, "."); ok {
		if class == "" || prop == "" {
			return endpoint{}, &LoadError{Code: ErrCodeBadArgument, Message: fmt.Sprintf("expected class[.prop]:item, got %q", s)}
		}
		e.Class, e.Prop = class, prop
	}
	return e, nil
}

func (e endpoint) resolve(p *project.Project) (items.ItemSide, error) {
	c, err := p.ResolveClass(e.Class)
	if err != nil {
		return items.ItemSide{}, err
	}
	side := items.ItemSide{ClassID: c.ID, ItemID: e.Item}
	if e.Prop != "" {
		prop, err := project.ResolveProperty(c, e.Prop)
		if err != nil {
			return items.ItemSide{}, err
		}
		side.PropID = &prop.ID
	}
	return side, nil
}

// NewLinkCommand creates the link command.
func NewLinkCommand(rootOpts *RootOptions) *cobra.Command {
	return newRelationCommand(rootOpts, items.ChangeAdd, "link", "Link two items", `Link two items through the relation joining their sides.

Each item is given as class[.prop]:item. Omit .prop for the anonymous side
of a one-way relation. A link that would exceed a property's max_values is
reported as a diagnostic and not stored.

Example:
  goby link Author.works:1 Book.author:2
  goby link Book.author:2 Author:1`)
}

// NewUnlinkCommand creates the unlink command.
func NewUnlinkCommand(rootOpts *RootOptions) *cobra.Command {
	return newRelationCommand(rootOpts, items.ChangeRemove, "unlink", "Remove the link between two items", `Remove the link between two items.

Each item is given as class[.prop]:item.

Example:
  goby unlink Author.works:1 Book.author:2`)
}

func newRelationCommand(rootOpts *RootOptions, change, use, short, long string) *cobra.Command {
	return &cobra.Command{
		Use:           use + " <class[.prop]:item> <class[.prop]:item>",
		Short:         short,
		Long:          long,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRelationChange(cmd, rootOpts, change, args)
		},
	}
}

func runRelationChange(cmd *cobra.Command, opts *RootOptions, change string, args []string) error {
	f := newFormatter(cmd, opts)

	var endpoints [2]endpoint
	for i, arg := range args {
		e, err := parseEndpoint(arg)
		if err != nil {
			return f.Fail("invalid item reference", err)
		}
		endpoints[i] = e
	}

	p, err := openProject(cmd, opts)
	if err != nil {
		return err
	}
	defer p.Close()

	var sides [2]items.ItemSide
	for i, e := range endpoints {
		side, err := e.resolve(p)
		if err != nil {
			return f.Fail("failed to resolve item reference", err)
		}
		sides[i] = side
	}

	diags, err := p.EditRelations(commandContext(cmd), []items.RelationChange{{Change: change, Sides: sides}})
	if err != nil {
		return f.Fail("failed to edit relations", err)
	}

	if f.Format == "json" {
		return f.Success(map[string]any{"change": change, "sides": sides, "diagnostics": diags})
	}

	var buf strings.Builder
	verb := "Linked"
	if change == items.ChangeRemove {
		verb = "Unlinked"
	}
	if len(diags) > 0 {
		verb = "Not " + strings.ToLower(verb)
	}
	fmt.Fprintf(&buf, "%s %s and %s\n", verb, args[0], args[1])
	writeDiagnostics(&buf, diags)
	return f.Success(buf.String())
}
