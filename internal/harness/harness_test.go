package harness

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/goby/internal/edit"
	"github.com/roach88/goby/internal/schema"
)

func load(t *testing.T, name string) *Scenario {
	t.Helper()
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", name+".yaml"))
	require.NoError(t, err)
	return s
}

func TestRunWithGolden_AuthorBook(t *testing.T) {
	result, err := RunWithGolden(t, load(t, "author_book"))
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Empty(t, result.Errors)

	require.Len(t, result.Steps, 10)
	assert.Equal(t, schema.ItemID(1), result.Steps[1].Item)
	assert.Equal(t, schema.ItemID(4), result.Steps[4].Item)
	assert.Equal(t, []schema.ErrorCode{schema.ErrCodeCardinality}, result.Steps[7].Diagnostics)
	assert.Equal(t, []schema.ErrorCode{schema.ErrCodeInvalidValue}, result.Steps[9].Diagnostics)
}

func TestRun_SchemaChanges(t *testing.T) {
	result, err := Run(context.Background(), load(t, "schema_changes"))
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)

	missing := result.Steps[9]
	assert.Equal(t, ActionDeleteRow, missing.Action)
	assert.Contains(t, missing.Error, "not found")
}

func TestRun_ReportsFailures(t *testing.T) {
	count := 5
	scenario := &Scenario{
		Name:        "failures",
		Description: "every expectation is wrong",
		Steps: []Step{
			{EditSchema: &edit.Batch{ClassEdits: []edit.ClassEdit{{Type: edit.ClassCreate, ClassName: "Author"}}}},
			{
				AddRow: &RowStep{Class: "Author", As: "a", Values: map[string]any{"Name": "Ursula"}},
				Expect: &Expect{Diagnostics: []schema.ErrorCode{schema.ErrCodeInvalidValue}},
			},
			{DeleteRow: &RowStep{Class: "Author", Item: "42"}},
			{AddRow: &RowStep{Class: "Nobody"}},
		},
		Assertions: []Assertion{
			{Type: AssertItemCount, Class: "Author", Count: &count},
			{Type: AssertValue, Class: "Author", Item: "a", Prop: "Name", Equals: "Terry"},
			{Type: AssertClasses, Names: []string{"Author"}},
		},
	}

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 5)
	assert.Contains(t, result.Errors[0], "steps[1] (add_row): expected diagnostics")
	assert.Contains(t, result.Errors[1], "steps[2] (delete_row): unexpected error")
	assert.Contains(t, result.Errors[2], "steps[3] (add_row): unexpected error")
	assert.Contains(t, result.Errors[3], "assertions[0]")
	assert.Contains(t, result.Errors[4], "assertions[1]")
}

func TestRun_ValuesAndUnset(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: values
description: "multi values, booleans and cleared cells"
steps:
  - edit_schema:
      class_edits:
        - {type: create, class_name: Task}
      property_edits:
        - {type: create, class_name: Task, prop_name: tags, config: {type: data, data_type: string, max_values: 0}}
        - {type: create, class_name: Task, prop_name: done, config: {type: data, data_type: boolean}}
        - {type: create, class_name: Task, prop_name: estimate, config: {type: data, data_type: number}}
  - add_row: {class: Task, as: t, values: {Name: Write, tags: [a, b], done: true, estimate: 1.5}}
  - set: {class: Task, item: t, values: {estimate: null}}
assertions:
  - {type: value, class: Task, item: t, prop: tags, equals: [a, b]}
  - {type: value, class: Task, item: t, prop: done, equals: true}
  - {type: value, class: Task, item: t, prop: estimate, equals: null}
  - {type: properties, class: Task, names: [Name, tags, done, estimate]}
`))
	require.NoError(t, err)

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestCheckExpectation(t *testing.T) {
	inconsistency := schema.NewInconsistency("missing")
	tests := []struct {
		name   string
		sr     StepResult
		err    error
		expect *Expect
		want   string
	}{
		{name: "clean success", sr: StepResult{Action: ActionAddRow}},
		{
			name: "unexpected diagnostics",
			sr:   StepResult{Action: ActionLink, Diagnostics: []schema.ErrorCode{schema.ErrCodeCardinality}},
			want: "expected diagnostics",
		},
		{
			name:   "matching diagnostics",
			sr:     StepResult{Action: ActionLink, Diagnostics: []schema.ErrorCode{schema.ErrCodeCardinality}},
			expect: &Expect{Diagnostics: []schema.ErrorCode{schema.ErrCodeCardinality}},
		},
		{name: "unexpected error", sr: StepResult{Action: ActionSet}, err: inconsistency, want: "unexpected error"},
		{
			name:   "matching error",
			sr:     StepResult{Action: ActionSet},
			err:    inconsistency,
			expect: &Expect{Error: schema.ErrCodeSchemaInconsistency},
		},
		{
			name:   "wrong error code",
			sr:     StepResult{Action: ActionSet},
			err:    inconsistency,
			expect: &Expect{Error: schema.ErrCodeStorageFailure},
			want:   "expected error STORAGE_FAILURE",
		},
		{
			name:   "unclassified error",
			sr:     StepResult{Action: ActionSet},
			err:    errors.New("boom"),
			expect: &Expect{Error: schema.ErrCodeStorageFailure},
			want:   "expected error STORAGE_FAILURE",
		},
		{
			name:   "missing error",
			sr:     StepResult{Action: ActionSet},
			expect: &Expect{Error: schema.ErrCodeSchemaInconsistency},
			want:   "step succeeded",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := checkExpectation(tt.sr, tt.err, tt.expect)
			if tt.want == "" {
				assert.Empty(t, got)
				return
			}
			assert.Contains(t, got, tt.want)
		})
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, float64(3), normalize(3))
	assert.Equal(t, float64(3), normalize(int64(3)))
	assert.Equal(t, []any{float64(1), "a"}, normalize([]any{1, "a"}))
	assert.Equal(t, "a", normalize("a"))
	assert.Nil(t, normalize(nil))
}
