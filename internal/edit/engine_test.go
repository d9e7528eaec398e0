package edit

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/goby/internal/cache"
	"github.com/roach88/goby/internal/junction"
	"github.com/roach88/goby/internal/schema"
	"github.com/roach88/goby/internal/store"
	"github.com/roach88/goby/internal/testutil"
)

type fixture struct {
	engine    *Engine
	cache     *cache.Cache
	store     *store.Store
	junctions *junction.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	c := cache.New(st)
	js := junction.New(st, testutil.NewDeterministicClock())
	e := New(st, c, js,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithBatchIDGenerator(testutil.NewFixedBatchIDGenerator()),
	)
	return &fixture{engine: e, cache: c, store: st, junctions: js}
}

func (f *fixture) apply(t *testing.T, batch Batch) *Report {
	t.Helper()
	report, err := f.engine.Apply(context.Background(), batch)
	require.NoError(t, err)
	return report
}

func maxValues(n int) *schema.MaxValues {
	m := schema.MaxValues(n)
	return &m
}

// authorBookBatch creates Author{age, works} and Book{author} with a two-way
// relation Author.works <-> Book.author, all by name.
func authorBookBatch() Batch {
	return Batch{
		ClassEdits: []ClassEdit{
			{Type: ClassCreate, ClassName: "Author"},
			{Type: ClassCreate, ClassName: "Book"},
		},
		PropertyEdits: []PropertyEdit{
			{Type: PropertyCreate, ClassName: "Author", PropName: "age",
				Config: PropertyConfig{Type: schema.KindData, DataType: schema.TypeNumber}},
			{Type: PropertyCreate, ClassName: "Author", PropName: "works",
				Config: PropertyConfig{Type: schema.KindRelation}},
			{Type: PropertyCreate, ClassName: "Book", PropName: "author",
				Config: PropertyConfig{Type: schema.KindRelation, MaxValues: maxValues(1)}},
		},
		RelationEdits: []RelationEdit{
			{Type: RelationCreate, Sides: [2]SideRef{
				{ClassName: "Author", PropName: "works"},
				{ClassName: "Book", PropName: "author"},
			}},
		},
	}
}

// Ids assigned by authorBookBatch on an empty database.
const (
	authorID  schema.ClassID = 1
	bookID    schema.ClassID = 2
	ageProp   schema.PropID  = 2
	worksProp schema.PropID  = 3
	authProp  schema.PropID  = 2
)

func TestApply_CreatesSchemaWithForwardReferences(t *testing.T) {
	f := newFixture(t)

	report := f.apply(t, authorBookBatch())

	assert.Equal(t, testutil.DefaultBatchID, report.BatchID)
	assert.Empty(t, report.Diagnostics)
	assert.Len(t, report.Created(KindClass), 2)
	assert.Len(t, report.Created(KindJunction), 1)

	snap := f.cache.Snapshot()
	author, ok := snap.ClassByName("Author")
	require.True(t, ok)
	assert.Equal(t, authorID, author.ID)
	assert.Equal(t, []schema.PropID{1}, author.LabelPropertyIDs)

	names := []string{}
	for _, p := range author.Properties {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"Name", "age", "works"}, names)

	age, ok := author.Property(ageProp)
	require.True(t, ok)
	assert.Equal(t, schema.TypeNumber, age.DataType)
	assert.Equal(t, schema.MaxValues(1), age.MaxValues)

	book, ok := snap.Class(bookID)
	require.True(t, ok)
	authorProp, ok := book.Property(authProp)
	require.True(t, ok)
	assert.Equal(t, schema.MaxValues(1), authorProp.MaxValues)

	require.Len(t, snap.Junctions, 1)
	assert.Equal(t, schema.Sides{
		schema.OwnedSide(authorID, worksProp),
		schema.OwnedSide(bookID, authProp),
	}, snap.Junctions[0].Sides)

	exists, err := f.store.TableExists(context.Background(), store.ClassTable(authorID))
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = f.store.TableExists(context.Background(), junction.Table(snap.Junctions[0].ID))
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestApply_InvalidEditsAreDiagnosed(t *testing.T) {
	f := newFixture(t)
	f.apply(t, authorBookBatch())

	report := f.apply(t, Batch{
		ClassEdits: []ClassEdit{
			{Type: ClassCreate, ClassName: " Author "},
			{Type: ClassCreate, ClassName: ""},
		},
		PropertyEdits: []PropertyEdit{
			{Type: PropertyCreate, ClassName: "Author", PropName: "age",
				Config: PropertyConfig{Type: schema.KindData, DataType: schema.TypeString}},
			{Type: PropertyCreate, ClassName: "Missing", PropName: "x",
				Config: PropertyConfig{Type: schema.KindRelation}},
			{Type: PropertyCreate, ClassName: "Author", PropName: "bad",
				Config: PropertyConfig{Type: schema.KindData, DataType: "date"}},
		},
		RelationEdits: []RelationEdit{
			{Type: RelationCreate, Sides: [2]SideRef{{ClassName: "Nope"}, {ClassName: "Book"}}},
			{Type: RelationCreate, Sides: [2]SideRef{{ClassName: "Author", PropName: "nope"}, {ClassName: "Book"}}},
		},
	})

	assert.Empty(t, report.Changes)
	require.Len(t, report.Diagnostics, 7)
	for _, d := range report.Diagnostics {
		assert.True(t, schema.IsInvalidEdit(d), "%v", d)
	}
}

func TestApply_DeletingTwoWayPropertyDowngrades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.apply(t, authorBookBatch())

	old := f.cache.Snapshot().Junctions[0]
	for _, pair := range [][2]schema.ItemID{{1, 2}, {1, 3}, {4, 2}} {
		_, err := f.junctions.AddLink(ctx, old, pair)
		require.NoError(t, err)
	}
	before, err := f.junctions.Links(ctx, old)
	require.NoError(t, err)

	report := f.apply(t, Batch{
		PropertyEdits: []PropertyEdit{
			{Type: PropertyDelete, ClassName: "Book", PropName: "author"},
		},
	})
	assert.Empty(t, report.Diagnostics)

	snap := f.cache.Snapshot()
	_, ok := snap.Junction(old.ID)
	assert.False(t, ok, "source junction dropped")

	require.Len(t, snap.Junctions, 1)
	downgraded := snap.Junctions[0]
	assert.Equal(t, schema.Sides{schema.OwnedSide(authorID, worksProp), schema.AnonymousSide(bookID)}, downgraded.Sides)

	after, err := f.junctions.Links(ctx, downgraded)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	book, _ := snap.Class(bookID)
	_, ok = book.Property(authProp)
	assert.False(t, ok)
}

func TestApply_DeletingOneWayPropertyDropsJunction(t *testing.T) {
	f := newFixture(t)
	f.apply(t, Batch{
		ClassEdits: []ClassEdit{
			{Type: ClassCreate, ClassName: "Author"},
			{Type: ClassCreate, ClassName: "Book"},
		},
		PropertyEdits: []PropertyEdit{
			{Type: PropertyCreate, ClassName: "Author", PropName: "works",
				Config: PropertyConfig{Type: schema.KindRelation}},
		},
		RelationEdits: []RelationEdit{
			{Type: RelationCreate, Sides: [2]SideRef{
				{ClassName: "Author", PropName: "works"},
				{ClassName: "Book"},
			}},
		},
	})
	require.Len(t, f.cache.Snapshot().Junctions, 1)

	report := f.apply(t, Batch{
		PropertyEdits: []PropertyEdit{{Type: PropertyDelete, ClassID: authorID, PropID: 2}},
	})

	assert.Empty(t, report.Diagnostics)
	assert.Empty(t, f.cache.Snapshot().Junctions)
	assert.Equal(t, []Op{DeleteOp(1)}, report.Plan)
}

func TestApply_ReplacingRelationTransfersLinks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.apply(t, Batch{
		ClassEdits: []ClassEdit{
			{Type: ClassCreate, ClassName: "Author"},
			{Type: ClassCreate, ClassName: "Book"},
		},
		PropertyEdits: []PropertyEdit{
			{Type: PropertyCreate, ClassName: "Author", PropName: "works",
				Config: PropertyConfig{Type: schema.KindRelation}},
			{Type: PropertyCreate, ClassName: "Book", PropName: "author",
				Config: PropertyConfig{Type: schema.KindRelation}},
		},
		RelationEdits: []RelationEdit{
			{Type: RelationCreate, Sides: [2]SideRef{
				{ClassName: "Author", PropName: "works"},
				{ClassName: "Book"},
			}},
		},
	})

	old := f.cache.Snapshot().Junctions[0]
	_, err := f.junctions.AddLink(ctx, old, [2]schema.ItemID{1, 2})
	require.NoError(t, err)

	// The new two-way relation lists Book first, so rows are flipped.
	report := f.apply(t, Batch{
		RelationEdits: []RelationEdit{
			{Type: RelationDelete, ID: old.ID},
			{Type: RelationCreate, Sides: [2]SideRef{
				{ClassName: "Book", PropName: "author"},
				{ClassName: "Author", PropName: "works"},
			}},
		},
	})
	assert.Empty(t, report.Diagnostics)
	require.Len(t, report.Plan, 2)
	assert.Equal(t, RelationTransfer, report.Plan[0].Type)

	snap := f.cache.Snapshot()
	require.Len(t, snap.Junctions, 1)
	links, err := f.junctions.Links(ctx, snap.Junctions[0])
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, [2]schema.ItemID{2, 1}, links[0].Items)
}

func TestApply_DeleteClassCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.apply(t, authorBookBatch())

	_, err := f.store.CreateRootItem(ctx, bookID)
	require.NoError(t, err)

	report := f.apply(t, Batch{
		ClassEdits: []ClassEdit{{Type: ClassDelete, ClassName: "Book"}},
	})
	assert.Empty(t, report.Diagnostics)

	snap := f.cache.Snapshot()
	_, ok := snap.Class(bookID)
	assert.False(t, ok)
	assert.Empty(t, snap.Junctions)

	exists, err := f.store.TableExists(ctx, store.ClassTable(bookID))
	require.NoError(t, err)
	assert.False(t, exists)

	rows, err := f.store.QueryRows(ctx, "SELECT id FROM system_root")
	require.NoError(t, err)
	assert.Empty(t, rows)

	// The name is free again.
	report = f.apply(t, Batch{ClassEdits: []ClassEdit{{Type: ClassCreate, ClassName: "Book"}}})
	assert.Empty(t, report.Diagnostics)
}

func TestApply_ModifyAttributes(t *testing.T) {
	f := newFixture(t)
	f.apply(t, authorBookBatch())

	report := f.apply(t, Batch{
		ClassEdits: []ClassEdit{
			{Type: ClassModifyAttribute, ClassName: "Author", Attribute: AttributeColor, Value: "#00ff00"},
			{Type: ClassModifyAttribute, ClassName: "Author", Attribute: AttributeLabel, Value: []any{"nickname", 1}},
			{Type: ClassModifyAttribute, ClassName: "Author", Attribute: AttributeLabel, Value: []any{99}},
			{Type: ClassModifyAttribute, ClassName: "Author", Attribute: "shape", Value: "round"},
		},
		PropertyEdits: []PropertyEdit{
			{Type: PropertyCreate, ClassName: "Author", PropName: "nickname",
				Config: PropertyConfig{Type: schema.KindData, DataType: schema.TypeString}},
		},
	})
	require.Len(t, report.Diagnostics, 2)

	author, ok := f.cache.Snapshot().Class(authorID)
	require.True(t, ok)
	assert.Equal(t, "#00ff00", author.Style.Color)
	nickname, ok := author.PropertyByName("nickname")
	require.True(t, ok)
	assert.Equal(t, []schema.PropID{nickname.ID, 1}, author.LabelPropertyIDs)
}

func TestApply_ModifyProperty(t *testing.T) {
	f := newFixture(t)
	f.apply(t, authorBookBatch())

	report := f.apply(t, Batch{
		PropertyEdits: []PropertyEdit{
			{Type: PropertyModify, ClassID: authorID, PropID: worksProp, NewName: "books",
				Config: PropertyConfig{MaxValues: maxValues(5)}},
			{Type: PropertyModify, ClassID: authorID, PropName: "age",
				Config: PropertyConfig{MaxValues: maxValues(3)}},
			{Type: PropertyModify, ClassID: authorID, PropName: "age", NewName: "Name"},
			{Type: PropertyModify, ClassID: authorID, PropName: "missing", NewName: "x"},
		},
	})

	require.Len(t, report.Diagnostics, 3)
	assert.True(t, schema.IsInvalidEdit(report.Diagnostics[0]))
	assert.True(t, schema.IsInvalidEdit(report.Diagnostics[1]))
	assert.True(t, schema.IsSchemaInconsistency(report.Diagnostics[2]))

	author, _ := f.cache.Snapshot().Class(authorID)
	works, ok := author.Property(worksProp)
	require.True(t, ok)
	assert.Equal(t, "books", works.Name)
	assert.Equal(t, schema.MaxValues(5), works.MaxValues)
}

func TestApply_DeletingLabelPropertyUpdatesLabels(t *testing.T) {
	f := newFixture(t)
	f.apply(t, authorBookBatch())

	report := f.apply(t, Batch{
		PropertyEdits: []PropertyEdit{{Type: PropertyDelete, ClassID: authorID, PropName: "Name"}},
	})
	assert.Empty(t, report.Diagnostics)

	author, _ := f.cache.Snapshot().Class(authorID)
	assert.Empty(t, author.LabelPropertyIDs)
	_, ok := author.Property(1)
	assert.False(t, ok)
}

func TestApply_StorageFailureAborts(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.Close())

	report, err := f.engine.Apply(context.Background(), authorBookBatch())

	require.Error(t, err)
	assert.True(t, schema.IsStorageFailure(err))
	require.NotNil(t, report)
	assert.Empty(t, report.Changes)
}

func TestApply_RefreshIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.apply(t, authorBookBatch())

	first, err := f.cache.Refresh(context.Background())
	require.NoError(t, err)
	second, err := f.cache.Refresh(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first.Classes, second.Classes)
	assert.Equal(t, first.Junctions, second.Junctions)
}

func TestApply_RejectedTransferKeepsLinks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.apply(t, authorBookBatch())

	works := f.cache.Snapshot().Junctions[0]
	_, err := f.junctions.AddLink(ctx, works, [2]schema.ItemID{1, 2})
	require.NoError(t, err)

	f.apply(t, Batch{
		PropertyEdits: []PropertyEdit{
			{Type: PropertyCreate, ClassName: "Author", PropName: "fav",
				Config: PropertyConfig{Type: schema.KindRelation}},
			{Type: PropertyCreate, ClassName: "Book", PropName: "fan",
				Config: PropertyConfig{Type: schema.KindRelation}},
		},
		RelationEdits: []RelationEdit{
			{Type: RelationCreate, Sides: [2]SideRef{
				{ClassName: "Author", PropName: "fav"},
				{ClassName: "Book", PropName: "fan"},
			}},
		},
	})
	require.Len(t, f.cache.Snapshot().Junctions, 2)

	report := f.apply(t, Batch{
		RelationEdits: []RelationEdit{
			{Type: RelationTransfer, ID: works.ID, NewSides: [2]SideRef{
				{ClassName: "Author", PropName: "fav"},
				{ClassName: "Book"},
			}},
		},
	})

	require.Len(t, report.Diagnostics, 1)
	assert.True(t, schema.IsInvalidEdit(report.Diagnostics[0]))
	assert.Empty(t, report.Plan)

	kept, ok := f.cache.Snapshot().Junction(works.ID)
	require.True(t, ok, "source junction survives")
	links, err := f.junctions.Links(ctx, kept)
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, [2]schema.ItemID{1, 2}, links[0].Items)
}

func TestApply_ReplacingDeletedPropertyReportsNoDiagnostics(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.apply(t, authorBookBatch())

	works := f.cache.Snapshot().Junctions[0]
	_, err := f.junctions.AddLink(ctx, works, [2]schema.ItemID{1, 2})
	require.NoError(t, err)

	report := f.apply(t, Batch{
		PropertyEdits: []PropertyEdit{
			{Type: PropertyDelete, ClassName: "Book", PropName: "author"},
			{Type: PropertyCreate, ClassName: "Book", PropName: "writer",
				Config: PropertyConfig{Type: schema.KindRelation}},
		},
		RelationEdits: []RelationEdit{
			{Type: RelationCreate, Sides: [2]SideRef{
				{ClassName: "Author", PropName: "works"},
				{ClassName: "Book", PropName: "writer"},
			}},
		},
	})

	assert.Empty(t, report.Diagnostics)

	snap := f.cache.Snapshot()
	require.Len(t, snap.Junctions, 1)
	assert.True(t, schema.IsTwoWay(snap.Junctions[0].Sides))
	links, err := f.junctions.Links(ctx, snap.Junctions[0])
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, [2]schema.ItemID{1, 2}, links[0].Items)
}
