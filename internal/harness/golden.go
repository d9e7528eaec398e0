package harness

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/goby/internal/items"
	"github.com/roach88/goby/internal/project"
	"github.com/roach88/goby/internal/schema"
)

// Dump renders every class with its properties and items, followed by every
// junction. The output depends only on the stored state.
//
//	class 1 Author
//	  prop 1 Name data:string max=1 label
//	  item 1 order=0 Name="Ursula"
//	junction 1 [class 1 prop 3 <-> class 2 prop 2]
func Dump(ctx context.Context, p *project.Project) (string, error) {
	classes, err := p.RetrieveAllClasses(ctx, items.Include{AllItems: &items.Pagination{}})
	if err != nil {
		return "", fmt.Errorf("dump: %w", err)
	}

	var buf strings.Builder
	for _, c := range classes {
		fmt.Fprintf(&buf, "class %d %s", c.ID, c.Name)
		if c.Style.Color != "" {
			fmt.Fprintf(&buf, " color=%s", c.Style.Color)
		}
		buf.WriteString("\n")

		for _, prop := range c.Properties {
			fmt.Fprintf(&buf, "  prop %d %s %s max=%d", prop.ID, prop.Name, kindString(prop.Property), prop.MaxValues)
			if slices.Contains(c.LabelPropertyIDs, prop.ID) {
				buf.WriteString(" label")
			}
			buf.WriteString("\n")
		}

		for _, item := range c.Items.Loaded {
			fmt.Fprintf(&buf, "  item %d order=%g", item.ID, item.Order)
			for _, prop := range c.Properties {
				value, err := json.Marshal(item.Values[prop.Name])
				if err != nil {
					return "", fmt.Errorf("dump item %d: %w", item.ID, err)
				}
				fmt.Fprintf(&buf, " %s=%s", prop.Name, value)
			}
			buf.WriteString("\n")
		}
	}

	for _, j := range p.Snapshot().Junctions {
		fmt.Fprintf(&buf, "junction %d %s\n", j.ID, j.Sides)
	}
	return buf.String(), nil
}

func kindString(p schema.Property) string {
	if p.IsRelation() {
		return string(p.Kind)
	}
	return fmt.Sprintf("%s:%s", p.Kind, p.DataType)
}

// RunAndDump executes a scenario and returns its result together with the
// Dump of its final state.
func RunAndDump(ctx context.Context, scenario *Scenario) (*Result, string, error) {
	h, result, err := run(ctx, scenario)
	if err != nil {
		return nil, "", err
	}
	defer h.Close()

	dump, err := Dump(ctx, h.project)
	if err != nil {
		return nil, "", err
	}
	return result, dump, nil
}

// RunWithGolden executes a scenario and compares the dump of its final state
// against testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, dump, err := RunAndDump(context.Background(), scenario)
	if err != nil {
		return nil, err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, []byte(dump))
	return result, nil
}
