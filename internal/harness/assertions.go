package harness

import (
	"context"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/roach88/goby/internal/items"
	"github.com/roach88/goby/internal/project"
	"github.com/roach88/goby/internal/schema"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

func (h *Harness) evaluate(ctx context.Context, a Assertion) error {
	switch a.Type {
	case AssertValue:
		return h.assertValue(ctx, a)
	case AssertRelation:
		return h.assertRelation(ctx, a)
	case AssertItemCount:
		return h.assertItemCount(ctx, a)
	case AssertJunctionCount:
		n := len(h.project.Snapshot().Junctions)
		if a.Count == nil || n != *a.Count {
			return &AssertionError{Type: a.Type, Expected: countString(a.Count), Actual: fmt.Sprint(n)}
		}
		return nil
	case AssertProperties:
		c, err := h.project.ResolveClass(a.Class)
		if err != nil {
			return err
		}
		names := make([]string, 0, len(c.Properties))
		for _, p := range c.Properties {
			names = append(names, p.Name)
		}
		return compareNames(a, names)
	case AssertClasses:
		classes := h.project.Snapshot().Classes
		names := make([]string, 0, len(classes))
		for _, c := range classes {
			names = append(names, c.Name)
		}
		return compareNames(a, names)
	}
	return fmt.Errorf("unknown assertion type %q", a.Type)
}

// loadValue returns the value of a property of one item.
func (h *Harness) loadValue(ctx context.Context, a Assertion) (schema.Property, any, error) {
	c, err := h.project.ResolveClass(a.Class)
	if err != nil {
		return schema.Property{}, nil, err
	}
	prop, err := project.ResolveProperty(c, a.Prop)
	if err != nil {
		return schema.Property{}, nil, err
	}
	item, err := h.resolveItem(a.Item)
	if err != nil {
		return schema.Property{}, nil, err
	}

	page, err := h.project.RetrieveClassItems(ctx, c.ID, items.Pagination{ItemIDs: []schema.ItemID{item}})
	if err != nil {
		return schema.Property{}, nil, err
	}
	if len(page.Loaded) == 0 {
		return schema.Property{}, nil, &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("item %s in class %s", a.Item, c.Name),
			Actual:   "item not found",
		}
	}
	return prop, page.Loaded[0].Values[prop.Name], nil
}

func (h *Harness) assertValue(ctx context.Context, a Assertion) error {
	prop, got, err := h.loadValue(ctx, a)
	if err != nil {
		return err
	}
	if prop.IsRelation() {
		return fmt.Errorf("property %q is a relation; use a relation assertion", prop.Name)
	}
	if !reflect.DeepEqual(normalize(got), normalize(a.Equals)) {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%s = %v", prop.Name, a.Equals),
			Actual:   fmt.Sprintf("%s = %v", prop.Name, got),
		}
	}
	return nil
}

func (h *Harness) assertRelation(ctx context.Context, a Assertion) error {
	prop, got, err := h.loadValue(ctx, a)
	if err != nil {
		return err
	}
	entries, ok := got.([]items.RelationEntry)
	if !prop.IsRelation() || !ok {
		return fmt.Errorf("property %q is not a relation", prop.Name)
	}

	actual := make([]string, 0, len(entries))
	for _, e := range entries {
		actual = append(actual, fmt.Sprintf("%d:%d", e.ClassID, e.ItemID))
	}
	expected := make([]string, 0, len(a.Targets))
	for _, t := range a.Targets {
		c, err := h.project.ResolveClass(t.Class)
		if err != nil {
			return err
		}
		item, err := h.resolveItem(t.Item)
		if err != nil {
			return err
		}
		expected = append(expected, fmt.Sprintf("%d:%d", c.ID, item))
	}

	if !slices.Equal(expected, actual) {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%s -> %v", prop.Name, expected),
			Actual:   fmt.Sprintf("%s -> %v", prop.Name, actual),
		}
	}
	return nil
}

func (h *Harness) assertItemCount(ctx context.Context, a Assertion) error {
	c, err := h.project.ResolveClass(a.Class)
	if err != nil {
		return err
	}
	page, err := h.project.RetrieveClassItems(ctx, c.ID, items.Pagination{ItemIDs: []schema.ItemID{}})
	if err != nil {
		return err
	}
	if a.Count == nil || page.Total != *a.Count {
		return &AssertionError{Type: a.Type, Expected: countString(a.Count), Actual: fmt.Sprint(page.Total)}
	}
	return nil
}

func compareNames(a Assertion, names []string) error {
	if !slices.Equal(a.Names, names) {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%v", a.Names),
			Actual:   fmt.Sprintf("%v", names),
		}
	}
	return nil
}

func countString(n *int) string {
	if n == nil {
		return "<unset>"
	}
	return fmt.Sprint(*n)
}

// normalize converts integers to float64, recursively, so values decoded
// from YAML compare equal to values loaded from storage.
func normalize(v any) any {
	switch x := v.(type) {
	case int:
		return float64(x)
	case int64:
		return float64(x)
	case uint64:
		return float64(x)
	case float32:
		return float64(x)
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = normalize(e)
		}
		return out
	}
	return v
}
