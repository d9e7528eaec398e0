package project

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/roach88/goby/internal/items"
	"github.com/roach88/goby/internal/schema"
)

// ResolveClass finds a class by id or by name. A reference that parses as an
// integer is tried as an id first.
func (p *Project) ResolveClass(ref string) (schema.Class, error) {
	snap := p.cache.Snapshot()
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		if c, ok := snap.Class(schema.ClassID(id)); ok {
			return c, nil
		}
	}
	if c, ok := snap.ClassByName(ref); ok {
		return c, nil
	}
	return schema.Class{}, schema.NewInconsistency("class %q not found", ref)
}

// ResolveProperty finds a property of c by id or by name.
func ResolveProperty(c schema.Class, ref string) (schema.Property, error) {
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		if prop, ok := c.Property(schema.PropID(id)); ok {
			return prop, nil
		}
	}
	if prop, ok := c.PropertyByName(ref); ok {
		return prop, nil
	}
	return schema.Property{}, schema.NewInconsistency("property %q not found on class %q", ref, c.Name).WithClass(c.ID)
}

// ValueChanges converts values keyed by property name or id into changes,
// ordered by key.
func ValueChanges(c schema.Class, values map[string]any) ([]items.ValueChange, error) {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	changes := make([]items.ValueChange, 0, len(values))
	for _, k := range keys {
		prop, err := ResolveProperty(c, k)
		if err != nil {
			return nil, fmt.Errorf("values: %w", err)
		}
		changes = append(changes, items.ValueChange{PropID: prop.ID, Value: values[k]})
	}
	return changes, nil
}
