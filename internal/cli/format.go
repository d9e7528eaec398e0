package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/roach88/goby/internal/cache"
	"github.com/roach88/goby/internal/items"
	"github.com/roach88/goby/internal/schema"
)

// formatItem renders one item as a line of name=value pairs in property
// order. Only properties present in the item are shown.
func formatItem(snap *cache.Snapshot, c schema.Class, item items.Item) string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "#%d", item.ID)
	for _, p := range c.Properties {
		v, ok := item.Values[p.Name]
		if !ok {
			continue
		}
		fmt.Fprintf(&buf, " %s=%s", p.Name, formatValue(snap, v))
	}
	return buf.String()
}

func formatValue(snap *cache.Snapshot, v any) string {
	if entries, ok := v.([]items.RelationEntry); ok {
		parts := make([]string, 0, len(entries))
		for _, e := range entries {
			s := fmt.Sprintf("%s#%d", className(snap, e.ClassID), e.ItemID)
			if e.Label != nil {
				s += fmt.Sprintf(" %s", formatValue(snap, e.Label))
			}
			parts = append(parts, s)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}

func className(snap *cache.Snapshot, id schema.ClassID) string {
	if c, ok := snap.Class(id); ok {
		return c.Name
	}
	return fmt.Sprintf("class_%d", id)
}

// formatSide renders a relation side as Class or Class.prop.
func formatSide(snap *cache.Snapshot, side schema.Side) string {
	name := className(snap, side.ClassID)
	prop, ok := side.Prop()
	if !ok {
		return name
	}
	if p, found := snap.Property(side.ClassID, prop); found {
		return name + "." + p.Name
	}
	return fmt.Sprintf("%s.prop_%d", name, prop)
}

func formatProperty(snap *cache.Snapshot, c items.ClassData, p items.PropertyData) string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "%d %s ", p.ID, p.Name)
	if p.IsRelation() {
		buf.WriteString("relation")
	} else {
		buf.WriteString(string(p.DataType))
	}
	switch {
	case p.MaxValues == schema.Unbounded:
		buf.WriteString(" max=unbounded")
	case p.MaxValues > 1 || p.IsRelation():
		fmt.Fprintf(&buf, " max=%d", p.MaxValues)
	}
	for _, l := range c.LabelPropertyIDs {
		if l == p.ID {
			buf.WriteString(" label")
		}
	}
	if len(p.Targets) > 0 {
		targets := make([]string, 0, len(p.Targets))
		for _, t := range p.Targets {
			targets = append(targets, formatSide(snap, t.Side))
		}
		fmt.Fprintf(&buf, " -> %s", strings.Join(targets, ", "))
	}
	return buf.String()
}
