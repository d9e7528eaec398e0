package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/goby/internal/items"
)

const authorBookBatch = `class_edits:
  - {type: create, class_name: Author}
  - {type: create, class_name: Book}
property_edits:
  - {type: create, class_name: Author, prop_name: age, config: {type: data, data_type: number}}
  - {type: create, class_name: Author, prop_name: works, config: {type: relation}}
  - {type: create, class_name: Book, prop_name: author, config: {type: relation, max_values: 1}}
relationship_edits:
  - type: create
    sides:
      - {class_name: Author, prop_name: works}
      - {class_name: Book, prop_name: author}
`

type session struct {
	t  *testing.T
	db string
}

func newSession(t *testing.T) *session {
	return &session{t: t, db: filepath.Join(t.TempDir(), "goby.db")}
}

// execute runs one command against the session database and returns its
// combined output.
func (s *session) execute(args ...string) (string, error) {
	s.t.Helper()
	cmd := NewRootCommand()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(append([]string{"--db", s.db}, args...))
	err := cmd.Execute()
	return buf.String(), err
}

func (s *session) mustExecute(args ...string) string {
	s.t.Helper()
	out, err := s.execute(args...)
	require.NoError(s.t, err, out)
	return out
}

func TestCommands_EndToEnd(t *testing.T) {
	s := newSession(t)

	out := s.mustExecute("init")
	assert.Contains(t, out, "ready (0 classes, 0 junctions)")

	out = s.mustExecute("apply", writeBatch(t, "schema.yaml", authorBookBatch))
	assert.Contains(t, out, `create class "Author" (class=1)`)
	assert.Contains(t, out, `create class "Book" (class=2)`)
	assert.Contains(t, out, "0 diagnostic(s)")

	out = s.mustExecute("add-row", "Author", "--values", `{"Name": "Ursula", "age": 52}`)
	assert.Equal(t, "Added Author#1\n", out)
	out = s.mustExecute("add-row", "Book", "--values", `{"Name": "Earthsea"}`)
	assert.Equal(t, "Added Book#2\n", out)

	out = s.mustExecute("link", "Author.works:1", "Book.author:2")
	assert.Equal(t, "Linked Author.works:1 and Book.author:2\n", out)

	out = s.mustExecute("items", "Author")
	assert.Contains(t, out, `#1 Name="Ursula" age=52 works=[Book#2 "Earthsea"]`)
	assert.Contains(t, out, "1 of 1 item(s)")

	out = s.mustExecute("items", "Book")
	assert.Contains(t, out, `#2 Name="Earthsea" author=[Author#1 "Ursula"]`)

	out = s.mustExecute("items", "Author", "--props", "slim")
	assert.Contains(t, out, "#1 Name=\"Ursula\"\n")

	out = s.mustExecute("set", "Author", "1", "--values", `{"age": "old"}`)
	assert.Contains(t, out, "Updated Author#1")
	assert.Contains(t, out, "! INVALID_VALUE")

	out = s.mustExecute("--format", "json", "items", "Author", "--props", "age")
	var resp struct {
		Status string               `json:"status"`
		Data   items.PaginatedItems `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 1, resp.Data.Total)
	require.Len(t, resp.Data.Loaded, 1)
	assert.Equal(t, float64(52), resp.Data.Loaded[0].Values["age"])
	assert.NotContains(t, resp.Data.Loaded[0].Values, "Name")

	out = s.mustExecute("classes")
	assert.Contains(t, out, "Author (class=1)")
	assert.Contains(t, out, "  1 Name string label")
	assert.Contains(t, out, "  3 works relation max=unbounded -> Book.author")
	assert.Contains(t, out, "  2 author relation max=1 -> Author.works")

	out = s.mustExecute("classes", "--items")
	assert.Contains(t, out, "Book (class=2) 1 item(s)")

	out = s.mustExecute("unlink", "Book.author:2", "Author.works:1")
	assert.Equal(t, "Unlinked Book.author:2 and Author.works:1\n", out)

	out = s.mustExecute("items", "Author", "--ids", "1")
	assert.Contains(t, out, "works=[]")

	out = s.mustExecute("delete-row", "Book", "2")
	assert.Equal(t, "Deleted Book#2\n", out)

	out, err := s.execute("delete-row", "Book", "2")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [SCHEMA_INCONSISTENCY]")
}

func TestCommands_CardinalityDiagnostic(t *testing.T) {
	s := newSession(t)
	s.mustExecute("apply", writeBatch(t, "schema.yaml", authorBookBatch))
	s.mustExecute("add-row", "Author", "--values", `{"Name": "Ursula"}`)
	s.mustExecute("add-row", "Author", "--values", `{"Name": "Terry"}`)
	s.mustExecute("add-row", "Book", "--values", `{"Name": "Earthsea"}`)
	s.mustExecute("link", "Author.works:1", "Book.author:3")

	out := s.mustExecute("link", "Author.works:2", "Book.author:3")
	assert.Contains(t, out, "Not linked")
	assert.Contains(t, out, "! CARDINALITY_EXCEEDED")
}

func TestCommands_ApplyReportsDiagnostics(t *testing.T) {
	s := newSession(t)
	s.mustExecute("apply", writeBatch(t, "schema.yaml", authorBookBatch))

	out := s.mustExecute("apply", writeBatch(t, "again.yaml", "class_edits:\n  - {type: create, class_name: Author}\n"))
	assert.Contains(t, out, "! INVALID_EDIT")
	assert.Contains(t, out, "0 change(s), 1 diagnostic(s)")
}

func TestCommands_ApplyMissingBatch(t *testing.T) {
	s := newSession(t)
	out, err := s.execute("apply", filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E005]")
}

func TestCommands_ArgumentErrors(t *testing.T) {
	s := newSession(t)
	s.mustExecute("apply", writeBatch(t, "schema.yaml", authorBookBatch))

	tests := []struct {
		name string
		args []string
		code string
		exit int
	}{
		{"bad endpoint", []string{"link", "Author.works", "Book.author:1"}, "E007", ExitCommandError},
		{"bad item id", []string{"delete-row", "Author", "first"}, "E007", ExitCommandError},
		{"bad values", []string{"add-row", "Author", "--values", "[1, 2]"}, "E007", ExitCommandError},
		{"bad page", []string{"items", "Author", "--page", "0"}, "E007", ExitCommandError},
		{"unknown class", []string{"items", "Nobody"}, "SCHEMA_INCONSISTENCY", ExitFailure},
		{"unknown property", []string{"items", "Author", "--props", "height"}, "SCHEMA_INCONSISTENCY", ExitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := s.execute(tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.exit, GetExitCode(err))
			assert.Contains(t, out, "Error ["+tt.code+"]")
		})
	}
}

func TestParseEndpoint(t *testing.T) {
	e, err := parseEndpoint("Author.works:12")
	require.NoError(t, err)
	assert.Equal(t, endpoint{Class: "Author", Prop: "works", Item: 12}, e)

	e, err = parseEndpoint("3:7")
	require.NoError(t, err)
	assert.Equal(t, endpoint{Class: "3", Item: 7}, e)

	for _, bad := range []string{"", "Author", ":1", "Author:", "Author.:1", ".works:1", "Author:x"} {
		_, err := parseEndpoint(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseValues(t *testing.T) {
	values, err := parseValues("")
	require.NoError(t, err)
	assert.Empty(t, values)

	values, err = parseValues(`{"age": 52, "Name": null}`)
	require.NoError(t, err)
	assert.Equal(t, json.Number("52"), values["age"])
	assert.Contains(t, values, "Name")
	assert.Nil(t, values["Name"])
}
