package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/goby/internal/items"
	"github.com/roach88/goby/internal/project"
	"github.com/roach88/goby/internal/schema"
)

// ClassesOptions holds flags for the classes command.
type ClassesOptions struct {
	*RootOptions
	Items bool // load every item of every class
}

// NewClassesCommand creates the classes command.
func NewClassesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ClassesOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "classes",
		Short: "List classes with their properties",
		Long: `List every class with its properties and relation targets.

Example:
  goby classes
  goby classes --items --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClasses(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Items, "items", false, "include the items of every class")

	return cmd
}

func runClasses(cmd *cobra.Command, opts *ClassesOptions) error {
	f := newFormatter(cmd, opts.RootOptions)

	p, err := openProject(cmd, opts.RootOptions)
	if err != nil {
		return err
	}
	defer p.Close()

	var include items.Include
	if opts.Items {
		include.AllItems = &items.Pagination{}
	}
	classes, err := p.RetrieveAllClasses(commandContext(cmd), include)
	if err != nil {
		return f.Fail("failed to retrieve classes", err)
	}

	if f.Format == "json" {
		return f.Success(classes)
	}

	snap := p.Snapshot()
	var buf strings.Builder
	if len(classes) == 0 {
		buf.WriteString("No classes defined.\n")
	}
	for _, c := range classes {
		fmt.Fprintf(&buf, "%s (class=%d)", c.Name, c.ID)
		if c.Style.Color != "" {
			fmt.Fprintf(&buf, " color=%s", c.Style.Color)
		}
		if opts.Items {
			fmt.Fprintf(&buf, " %d item(s)", c.Items.Total)
		}
		buf.WriteString("\n")
		for _, prop := range c.Properties {
			fmt.Fprintf(&buf, "  %s\n", formatProperty(snap, c, prop))
		}
		if !opts.Items {
			continue
		}
		class, _ := snap.Class(c.ID)
		for _, item := range c.Items.Loaded {
			fmt.Fprintf(&buf, "    %s\n", formatItem(snap, class, item))
		}
	}
	return f.Success(buf.String())
}

// ItemsOptions holds flags for the items command.
type ItemsOptions struct {
	*RootOptions
	Props    string // all | slim | comma-separated property names or ids
	IDs      string // comma-separated item ids
	PageSize int
	Page     int
}

// NewItemsCommand creates the items command.
func NewItemsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ItemsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "items <class>",
		Short: "List the items of a class",
		Long: `List the items of a class with their data values and relation targets.

The class may be given by name or id. --props selects the properties shown:
"all", "slim" (label properties only) or a comma-separated list of property
names or ids.

Example:
  goby items Author
  goby items Author --props slim --page-size 20 --page 2
  goby items 1 --ids 3,4 --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runItems(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Props, "props", items.RangeAll, "properties to load (all|slim|name,id,...)")
	cmd.Flags().StringVar(&opts.IDs, "ids", "", "comma-separated item ids to load")
	cmd.Flags().IntVar(&opts.PageSize, "page-size", 0, "items per page (0 loads every item)")
	cmd.Flags().IntVar(&opts.Page, "page", 1, "page number, starting at 1")

	return cmd
}

func runItems(cmd *cobra.Command, opts *ItemsOptions, classRef string) error {
	f := newFormatter(cmd, opts.RootOptions)
	if opts.PageSize < 0 || opts.Page < 1 {
		return f.Fail("invalid pagination", &LoadError{Code: ErrCodeBadArgument, Message: "page-size must be >= 0 and page >= 1"})
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
	propertyRange, err := parsePropertyRange(c, opts.Props)
	if err != nil {
		return f.Fail("invalid --props", err)
	}
	ids, err := parseItemIDs(opts.IDs)
	if err != nil {
		return f.Fail("invalid --ids", err)
	}

	page, err := p.RetrieveClassItems(commandContext(cmd), c.ID, items.Pagination{
		PageSize:      opts.PageSize,
		Page:          opts.Page,
		PropertyRange: propertyRange,
		ItemIDs:       ids,
	})
	if err != nil {
		return f.Fail("failed to retrieve items", err)
	}

	if f.Format == "json" {
		return f.Success(page)
	}

	snap := p.Snapshot()
	var buf strings.Builder
	for _, item := range page.Loaded {
		fmt.Fprintf(&buf, "%s\n", formatItem(snap, c, item))
	}
	fmt.Fprintf(&buf, "%d of %d item(s)\n", len(page.Loaded), page.Total)
	return f.Success(buf.String())
}

// parsePropertyRange parses "all", "slim" or a comma-separated list of
// property names or ids of c.
func parsePropertyRange(c schema.Class, list string) (items.PropertyRange, error) {
	switch list {
	case "", items.RangeAll:
		return items.PropertyRange{Mode: items.RangeAll}, nil
	case items.RangeSlim:
		return items.PropertyRange{Mode: items.RangeSlim}, nil
	}

	r := items.PropertyRange{Mode: items.RangeIDs, IDs: []schema.PropID{}}
	for _, ref := range strings.Split(list, ",") {
		prop, err := project.ResolveProperty(c, strings.TrimSpace(ref))
		if err != nil {
			return items.PropertyRange{}, err
		}
		r.IDs = append(r.IDs, prop.ID)
	}
	return r, nil
}

// parseItemIDs parses a comma-separated list of item ids. An empty list
// returns nil, which selects every item.
func parseItemIDs(list string) ([]schema.ItemID, error) {
	if list == "" {
		return nil, nil
	}
	ids := []schema.ItemID{}
	for _, s := range strings.Split(list, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeBadArgument, Message: fmt.Sprintf("invalid item id %q", s)}
		}
		ids = append(ids, schema.ItemID(id))
	}
	return ids, nil
}
