package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const smallScenario = `name: small
description: "A single note"
steps:
  - edit_schema:
      class_edits:
        - {type: create, class_name: Note}
  - add_row: {class: Note, as: first, values: {Name: hello}}
assertions:
  - {type: item_count, class: Note, count: 1}
  - {type: value, class: Note, item: first, prop: Name, equals: hello}
`

const smallGolden = `class 1 Note
  prop 1 Name data:string max=1 label
  item 1 order=0 Name="hello"
`

const failingScenario = `name: failing
description: "Expects two notes but adds one"
steps:
  - edit_schema:
      class_edits:
        - {type: create, class_name: Note}
  - add_row: {class: Note, values: {Name: hello}}
assertions:
  - {type: item_count, class: Note, count: 2}
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func runTestCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(append([]string{"test"}, args...))
	err := cmd.Execute()
	return buf.String(), err
}

func TestTestCommand_RequiresDirectory(t *testing.T) {
	_, err := runTestCommand(t)
	require.Error(t, err)
}

func TestTestCommand_MissingDirectory(t *testing.T) {
	_, err := runTestCommand(t, filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenarios directory not found")
}

func TestTestCommand_EmptyDirectory(t *testing.T) {
	out, err := runTestCommand(t, t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")
}

func TestTestCommand_EmptyDirectoryJSON(t *testing.T) {
	out, err := runTestCommand(t, t.TempDir(), "--format", "json")
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestFindScenarioFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "author-basic.yaml"), smallScenario)
	writeFile(t, filepath.Join(dir, "nested", "author-links.yml"), smallScenario)
	writeFile(t, filepath.Join(dir, "book.yaml"), smallScenario)
	writeFile(t, filepath.Join(dir, "notes.txt"), "ignored")
	writeFile(t, filepath.Join(dir, "golden", "stale.yaml"), smallScenario)

	all, err := findScenarioFiles(dir, "")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		filepath.Join(dir, "author-basic.yaml"),
		filepath.Join(dir, "book.yaml"),
		filepath.Join(dir, "nested", "author-links.yml"),
	}, all)

	filtered, err := findScenarioFiles(dir, "author-*")
	require.NoError(t, err)
	assert.Len(t, filtered, 2)

	_, err = findScenarioFiles(dir, "[")
	require.Error(t, err)
}

func TestGoldenFilePath(t *testing.T) {
	assert.Equal(t,
		filepath.Join("scenarios", "golden", "small.golden"),
		goldenFilePath(filepath.Join("scenarios", "small.yaml")))
}

func TestTestCommand_PassesWithGolden(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "small.yaml"), smallScenario)
	writeFile(t, filepath.Join(dir, "golden", "small.golden"), smallGolden)

	out, err := runTestCommand(t, dir)
	require.NoError(t, err, out)
	assert.Contains(t, out, "✓ small")
	assert.Contains(t, out, "Test Summary: 1 passed, 0 failed, 1 total")
}

func TestTestCommand_PassesWithoutGolden(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "small.yaml"), smallScenario)

	out, err := runTestCommand(t, dir)
	require.NoError(t, err, out)
	assert.Contains(t, out, "✓ All scenarios passed")
}

func TestTestCommand_Update(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "small.yaml"), smallScenario)

	out, err := runTestCommand(t, dir, "--update")
	require.NoError(t, err, out)
	assert.Contains(t, out, "(golden updated)")

	golden, err := os.ReadFile(filepath.Join(dir, "golden", "small.golden"))
	require.NoError(t, err)
	assert.Equal(t, smallGolden, string(golden))
}

func TestTestCommand_GoldenMismatch(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "small.yaml"), smallScenario)
	writeFile(t, filepath.Join(dir, "golden", "small.golden"), "class 1 Other\n")

	out, err := runTestCommand(t, dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ small")
	assert.Contains(t, out, "does not match golden file")
}

func TestTestCommand_FailingScenarioJSON(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "small.yaml"), smallScenario)
	writeFile(t, filepath.Join(dir, "failing.yaml"), failingScenario)

	out, err := runTestCommand(t, dir, "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
		Error  *CLIError  `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, 2, resp.Data.Total)
	assert.Equal(t, 1, resp.Data.Passed)
	assert.Equal(t, 1, resp.Data.Failed)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E_TEST_FAILED", resp.Error.Code)

	for _, s := range resp.Data.Scenarios {
		if s.Name == "failing" {
			assert.False(t, s.Pass)
			assert.NotEmpty(t, s.Errors)
		}
	}
}

func TestTestCommand_InvalidScenario(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "broken.yaml"), "name: broken\nsteps: []\n")

	out, err := runTestCommand(t, dir)
	require.Error(t, err)
	assert.Contains(t, out, "✗ broken.yaml")
	assert.Contains(t, out, "failed to load scenario")
}
