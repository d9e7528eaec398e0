package project

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/goby/internal/edit"
	"github.com/roach88/goby/internal/items"
	"github.com/roach88/goby/internal/schema"
	"github.com/roach88/goby/internal/testutil"
)

func openProject(t *testing.T, path string) *Project {
	t.Helper()
	p, err := Open(context.Background(), path,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithClock(testutil.NewDeterministicClock()),
		WithBatchIDGenerator(testutil.NewFixedBatchIDGenerator()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { p.Close() })
	return p
}

func maxOne() *schema.MaxValues {
	m := schema.MaxValues(1)
	return &m
}

func authorBook() edit.Batch {
	return edit.Batch{
		ClassEdits: []edit.ClassEdit{
			{Type: edit.ClassCreate, ClassName: "author"},
			{Type: edit.ClassCreate, ClassName: "book"},
		},
		PropertyEdits: []edit.PropertyEdit{
			{Type: edit.PropertyCreate, ClassName: "author", PropName: "age",
				Config: edit.PropertyConfig{Type: schema.KindData, DataType: schema.TypeNumber}},
			{Type: edit.PropertyCreate, ClassName: "author", PropName: "works",
				Config: edit.PropertyConfig{Type: schema.KindRelation}},
			{Type: edit.PropertyCreate, ClassName: "book", PropName: "author",
				Config: edit.PropertyConfig{Type: schema.KindRelation, MaxValues: maxOne()}},
		},
		RelationEdits: []edit.RelationEdit{
			{Type: edit.RelationCreate, Sides: [2]edit.SideRef{
				{ClassName: "author", PropName: "works"},
				{ClassName: "book", PropName: "author"},
			}},
		},
	}
}

func TestProject_AuthorBookScenario(t *testing.T) {
	ctx := context.Background()
	p := openProject(t, filepath.Join(t.TempDir(), "goby.db"))

	report, err := p.EditSchema(ctx, authorBook())
	require.NoError(t, err)
	assert.Empty(t, report.Diagnostics)
	assert.Equal(t, testutil.DefaultBatchID, report.BatchID)

	author, err := p.ResolveClass("author")
	require.NoError(t, err)
	book, err := p.ResolveClass("book")
	require.NoError(t, err)
	works, err := ResolveProperty(author, "works")
	require.NoError(t, err)
	writtenBy, err := ResolveProperty(book, "author")
	require.NoError(t, err)

	authorItem, _, err := p.AddRow(ctx, author.ID, nil)
	require.NoError(t, err)
	bookItem, _, err := p.AddRow(ctx, book.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, schema.ItemID(1), authorItem)
	assert.Equal(t, schema.ItemID(2), bookItem)

	diags, err := p.EditRelations(ctx, []items.RelationChange{{
		Change: items.ChangeAdd,
		Sides: [2]items.ItemSide{
			{ClassID: author.ID, PropID: &works.ID, ItemID: authorItem},
			{ClassID: book.ID, PropID: &writtenBy.ID, ItemID: bookItem},
		},
	}})
	require.NoError(t, err)
	assert.Empty(t, diags)

	authors, err := p.RetrieveClassItems(ctx, author.ID, items.Pagination{ItemIDs: []schema.ItemID{authorItem}})
	require.NoError(t, err)
	require.Len(t, authors.Loaded, 1)
	assert.Equal(t, []items.RelationEntry{{ClassID: book.ID, ItemID: bookItem}}, authors.Loaded[0].Values["works"])

	books, err := p.RetrieveClassItems(ctx, book.ID, items.Pagination{ItemIDs: []schema.ItemID{bookItem}})
	require.NoError(t, err)
	require.Len(t, books.Loaded, 1)
	assert.Equal(t, []items.RelationEntry{{ClassID: author.ID, ItemID: authorItem}}, books.Loaded[0].Values["author"])
}

func TestProject_ReopenKeepsSchemaAndItems(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "goby.db")

	first, err := Open(ctx, path, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, err)
	_, err = first.EditSchema(ctx, authorBook())
	require.NoError(t, err)
	author, err := first.ResolveClass("author")
	require.NoError(t, err)
	_, _, err = first.AddRow(ctx, author.ID, []items.ValueChange{{PropID: 1, Value: "Ursula"}})
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second := openProject(t, path)
	assert.Len(t, second.Snapshot().Classes, 2)
	assert.Len(t, second.Snapshot().Junctions, 1)

	result, err := second.RetrieveClassItems(ctx, author.ID, items.Pagination{})
	require.NoError(t, err)
	require.Len(t, result.Loaded, 1)
	assert.Equal(t, "Ursula", result.Loaded[0].Values["Name"])
}

func TestResolve(t *testing.T) {
	ctx := context.Background()
	p := openProject(t, filepath.Join(t.TempDir(), "goby.db"))
	_, err := p.EditSchema(ctx, authorBook())
	require.NoError(t, err)

	byID, err := p.ResolveClass("2")
	require.NoError(t, err)
	assert.Equal(t, "book", byID.Name)

	_, err = p.ResolveClass("magazine")
	require.Error(t, err)
	assert.True(t, schema.IsSchemaInconsistency(err))

	author, err := p.ResolveClass("author")
	require.NoError(t, err)

	age, err := ResolveProperty(author, "2")
	require.NoError(t, err)
	assert.Equal(t, "age", age.Name)

	_, err = ResolveProperty(author, "height")
	assert.True(t, schema.IsSchemaInconsistency(err))

	changes, err := ValueChanges(author, map[string]any{"age": 40, "Name": "Ursula"})
	require.NoError(t, err)
	assert.Equal(t, []items.ValueChange{
		{PropID: 1, Value: "Ursula"},
		{PropID: 2, Value: 40},
	}, changes)

	_, err = ValueChanges(author, map[string]any{"height": 1})
	assert.Error(t, err)
}
