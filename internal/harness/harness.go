package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strconv"

	"github.com/roach88/goby/internal/edit"
	"github.com/roach88/goby/internal/items"
	"github.com/roach88/goby/internal/project"
	"github.com/roach88/goby/internal/schema"
	"github.com/roach88/goby/internal/testutil"
)

// Harness runs one scenario against its own project.
type Harness struct {
	project *project.Project
	aliases map[string]schema.ItemID
	logger  *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database. Step and assertion
// failures are reported in the result; the error is reserved for failures
// to set up the run.
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	h, result, err := run(ctx, scenario)
	if err != nil {
		return nil, err
	}
	defer h.Close()
	return result, nil
}

func run(ctx context.Context, scenario *Scenario) (*Harness, *Result, error) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	batchIDs := testutil.NewFixedBatchIDGenerator()
	if scenario.BatchID != "" {
		batchIDs = testutil.NewFixedBatchIDGenerator(scenario.BatchID)
	}

	p, err := project.Open(ctx, ":memory:",
		project.WithLogger(logger),
		project.WithClock(testutil.NewDeterministicClock()),
		project.WithBatchIDGenerator(batchIDs),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create in-memory project: %w", err)
	}

	h := &Harness{
		project: p,
		aliases: make(map[string]schema.ItemID),
		logger:  logger,
	}

	result := NewResult()
	for i, step := range scenario.Steps {
		sr, err := h.executeStep(ctx, i, step)
		if msg := checkExpectation(sr, err, step.Expect); msg != "" {
			result.AddError(msg)
		}
		result.Steps = append(result.Steps, sr)
	}

	for i, assertion := range scenario.Assertions {
		if err := h.evaluate(ctx, assertion); err != nil {
			result.AddError(fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}

	h.logger.Debug("scenario finished", "name", scenario.Name, "pass", result.Pass)
	return h, result, nil
}

// Close closes the scenario's project.
func (h *Harness) Close() error {
	return h.project.Close()
}

func (h *Harness) executeStep(ctx context.Context, index int, step Step) (StepResult, error) {
	sr := StepResult{Index: index, Action: step.Action()}

	var diags []*schema.Error
	var err error
	switch sr.Action {
	case ActionEditSchema:
		var report *edit.Report
		report, err = h.project.EditSchema(ctx, *step.EditSchema)
		if report != nil {
			diags = report.Diagnostics
		}
	case ActionAddRow:
		sr.Item, diags, err = h.addRow(ctx, step.AddRow)
	case ActionSet:
		sr.Item, diags, err = h.set(ctx, step.Set)
	case ActionDeleteRow:
		sr.Item, err = h.deleteRow(ctx, step.DeleteRow)
	case ActionLink:
		diags, err = h.editRelation(ctx, items.ChangeAdd, step.Link)
	case ActionUnlink:
		diags, err = h.editRelation(ctx, items.ChangeRemove, step.Unlink)
	default:
		err = fmt.Errorf("step %d has no single action", index)
	}

	for _, d := range diags {
		sr.Diagnostics = append(sr.Diagnostics, d.Code)
	}
	if err != nil {
		sr.Error = err.Error()
	}
	h.logger.Debug("step executed", "index", index, "action", sr.Action, "diagnostics", len(sr.Diagnostics))
	return sr, err
}

func (h *Harness) addRow(ctx context.Context, row *RowStep) (schema.ItemID, []*schema.Error, error) {
	c, err := h.project.ResolveClass(row.Class)
	if err != nil {
		return 0, nil, err
	}
	changes, err := project.ValueChanges(c, row.Values)
	if err != nil {
		return 0, nil, err
	}
	id, diags, err := h.project.AddRow(ctx, c.ID, changes)
	if err != nil {
		return 0, nil, err
	}
	if row.As != "" {
		h.aliases[row.As] = id
	}
	return id, diags, nil
}

func (h *Harness) set(ctx context.Context, row *RowStep) (schema.ItemID, []*schema.Error, error) {
	c, err := h.project.ResolveClass(row.Class)
	if err != nil {
		return 0, nil, err
	}
	item, err := h.resolveItem(row.Item)
	if err != nil {
		return 0, nil, err
	}
	changes, err := project.ValueChanges(c, row.Values)
	if err != nil {
		return item, nil, err
	}
	diags, err := h.project.SetPropertyValues(ctx, c.ID, item, changes)
	return item, diags, err
}

func (h *Harness) deleteRow(ctx context.Context, row *RowStep) (schema.ItemID, error) {
	c, err := h.project.ResolveClass(row.Class)
	if err != nil {
		return 0, err
	}
	item, err := h.resolveItem(row.Item)
	if err != nil {
		return 0, err
	}
	return item, h.project.DeleteRow(ctx, c.ID, item)
}

func (h *Harness) editRelation(ctx context.Context, change string, refs []ItemRef) ([]*schema.Error, error) {
	if len(refs) != 2 {
		return nil, fmt.Errorf("%s requires exactly two items, got %d", change, len(refs))
	}
	var sides [2]items.ItemSide
	for i, ref := range refs {
		side, err := h.itemSide(ref)
		if err != nil {
			return nil, err
		}
		sides[i] = side
	}
	return h.project.EditRelations(ctx, []items.RelationChange{{Change: change, Sides: sides}})
}

func (h *Harness) itemSide(ref ItemRef) (items.ItemSide, error) {
	c, err := h.project.ResolveClass(ref.Class)
	if err != nil {
		return items.ItemSide{}, err
	}
	item, err := h.resolveItem(ref.Item)
	if err != nil {
		return items.ItemSide{}, err
	}
	side := items.ItemSide{ClassID: c.ID, ItemID: item}
	if ref.Prop != "" {
		p, err := project.ResolveProperty(c, ref.Prop)
		if err != nil {
			return items.ItemSide{}, err
		}
		side.PropID = &p.ID
	}
	return side, nil
}

// resolveItem maps an alias or a numeric id to an item id.
func (h *Harness) resolveItem(ref string) (schema.ItemID, error) {
	if id, ok := h.aliases[ref]; ok {
		return id, nil
	}
	id, err := strconv.ParseInt(ref, 10, 64)
	if err != nil {
		return 0, schema.NewInconsistency("unknown item %q", ref)
	}
	return schema.ItemID(id), nil
}

// checkExpectation compares a step outcome with its expect clause and
// returns a failure message, or "" when they match.
func checkExpectation(sr StepResult, err error, expect *Expect) string {
	var want Expect
	if expect != nil {
		want = *expect
	}
	prefix := fmt.Sprintf("steps[%d] (%s)", sr.Index, sr.Action)

	switch {
	case err != nil && want.Error == "":
		return fmt.Sprintf("%s: unexpected error: %v", prefix, err)
	case err != nil && errorCode(err) != want.Error:
		return fmt.Sprintf("%s: expected error %s, got: %v", prefix, want.Error, err)
	case err == nil && want.Error != "":
		return fmt.Sprintf("%s: expected error %s, step succeeded", prefix, want.Error)
	}

	if !slices.Equal(sr.Diagnostics, want.Diagnostics) {
		return fmt.Sprintf("%s: expected diagnostics %v, got %v", prefix, want.Diagnostics, sr.Diagnostics)
	}
	return ""
}

func errorCode(err error) schema.ErrorCode {
	var se *schema.Error
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}
