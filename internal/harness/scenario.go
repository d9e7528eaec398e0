package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/goby/internal/edit"
	"github.com/roach88/goby/internal/schema"
)

// Scenario is a sequence of steps run against a fresh database followed by
// assertions on the final state.
type Scenario struct {
	// Name uniquely identifies this scenario. Golden files are named after it.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// BatchID is the id given to every schema batch. Defaults to
	// testutil.DefaultBatchID.
	BatchID string `yaml:"batch_id,omitempty"`

	Steps      []Step      `yaml:"steps"`
	Assertions []Assertion `yaml:"assertions"`
}

// Step performs exactly one action. Expect describes the diagnostics or
// error the action must produce; a nil Expect requires a clean success.
type Step struct {
	EditSchema *edit.Batch `yaml:"edit_schema,omitempty"`
	AddRow     *RowStep    `yaml:"add_row,omitempty"`
	Set        *RowStep    `yaml:"set,omitempty"`
	DeleteRow  *RowStep    `yaml:"delete_row,omitempty"`
	Link       []ItemRef   `yaml:"link,omitempty"`
	Unlink     []ItemRef   `yaml:"unlink,omitempty"`

	Expect *Expect `yaml:"expect,omitempty"`
}

// RowStep targets a class and, except for add_row, an existing item.
// As names the item created by add_row for later references.
type RowStep struct {
	Class  string         `yaml:"class"`
	Item   string         `yaml:"item,omitempty"`
	As     string         `yaml:"as,omitempty"`
	Values map[string]any `yaml:"values,omitempty"`
}

// ItemRef is one endpoint of a link: an item, its class and the relation
// property it is linked through. An empty Prop is the anonymous side.
type ItemRef struct {
	Class string `yaml:"class"`
	Prop  string `yaml:"prop,omitempty"`
	Item  string `yaml:"item"`
}

// Expect lists the diagnostic codes a step must report, in order, and the
// code of the error it must fail with.
type Expect struct {
	Diagnostics []schema.ErrorCode `yaml:"diagnostics,omitempty"`
	Error       schema.ErrorCode   `yaml:"error,omitempty"`
}

// Step actions.
const (
	ActionEditSchema = "edit_schema"
	ActionAddRow     = "add_row"
	ActionSet        = "set"
	ActionDeleteRow  = "delete_row"
	ActionLink       = "link"
	ActionUnlink     = "unlink"
)

// Action returns the name of the single action set on s, or "" when none or
// several are set.
func (s Step) Action() string {
	var actions []string
	if s.EditSchema != nil {
		actions = append(actions, ActionEditSchema)
	}
	if s.AddRow != nil {
		actions = append(actions, ActionAddRow)
	}
	if s.Set != nil {
		actions = append(actions, ActionSet)
	}
	if s.DeleteRow != nil {
		actions = append(actions, ActionDeleteRow)
	}
	if s.Link != nil {
		actions = append(actions, ActionLink)
	}
	if s.Unlink != nil {
		actions = append(actions, ActionUnlink)
	}
	if len(actions) != 1 {
		return ""
	}
	return actions[0]
}

// Assertion checks the final state of a scenario.
type Assertion struct {
	Type string `yaml:"type"`

	Class string `yaml:"class,omitempty"`
	Item  string `yaml:"item,omitempty"`
	Prop  string `yaml:"prop,omitempty"`

	// Equals is the expected value (value). Null expects an unset value.
	Equals any `yaml:"equals,omitempty"`

	// Targets are the expected relation targets in link order (relation).
	Targets []ItemRef `yaml:"targets,omitempty"`

	// Count is the expected number of items or junctions.
	Count *int `yaml:"count,omitempty"`

	// Names are the expected property or class names (properties, classes).
	Names []string `yaml:"names,omitempty"`
}

// Assertion type constants.
const (
	AssertValue         = "value"
	AssertRelation      = "relation"
	AssertItemCount     = "item_count"
	AssertJunctionCount = "junction_count"
	AssertProperties    = "properties"
	AssertClasses       = "classes"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields, or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}
	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(index int, s *Step) error {
	action := s.Action()
	if action == "" {
		return fmt.Errorf("steps[%d]: exactly one action is required", index)
	}

	switch action {
	case ActionAddRow, ActionSet, ActionDeleteRow:
		row := s.AddRow
		if action == ActionSet {
			row = s.Set
		} else if action == ActionDeleteRow {
			row = s.DeleteRow
		}
		if row.Class == "" {
			return fmt.Errorf("steps[%d]: class is required for %s", index, action)
		}
		if action != ActionAddRow && row.Item == "" {
			return fmt.Errorf("steps[%d]: item is required for %s", index, action)
		}
		if action == ActionAddRow && row.Item != "" {
			return fmt.Errorf("steps[%d]: add_row assigns the item; use as to name it", index)
		}
	case ActionLink, ActionUnlink:
		refs := s.Link
		if action == ActionUnlink {
			refs = s.Unlink
		}
		if len(refs) != 2 {
			return fmt.Errorf("steps[%d]: %s requires exactly two items", index, action)
		}
		for j, ref := range refs {
			if ref.Class == "" || ref.Item == "" {
				return fmt.Errorf("steps[%d].%s[%d]: class and item are required", index, action, j)
			}
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertValue, AssertRelation:
		if a.Class == "" || a.Item == "" || a.Prop == "" {
			return fmt.Errorf("assertions[%d]: class, item and prop are required for %s", index, a.Type)
		}
	case AssertItemCount:
		if a.Class == "" {
			return fmt.Errorf("assertions[%d]: class is required for item_count", index)
		}
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: non-negative count is required for item_count", index)
		}
	case AssertJunctionCount:
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: non-negative count is required for junction_count", index)
		}
	case AssertProperties:
		if a.Class == "" {
			return fmt.Errorf("assertions[%d]: class is required for properties", index)
		}
	case AssertClasses:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
