package junction

import (
	"context"
	"fmt"

	"github.com/roach88/goby/internal/schema"
	"github.com/roach88/goby/internal/store"
)

// Store creates, drops and fills junction tables.
type Store struct {
	st    *store.Store
	clock Clock
}

// New creates a junction store over st. A nil clock defaults to a WallClock.
func New(st *store.Store, clock Clock) *Store {
	if clock == nil {
		clock = NewWallClock()
	}
	return &Store{st: st, clock: clock}
}

// In returns a junction store that runs its statements on tx and shares the
// clock of s.
func (s *Store) In(tx *store.Store) *Store {
	return &Store{st: tx, clock: s.clock}
}

// Link is one stored item pair, in the junction's side order.
type Link struct {
	Items      [2]schema.ItemID
	InsertedAt int64
}

// Create registers a junction and creates its storage table.
func (s *Store) Create(ctx context.Context, sides schema.Sides) (schema.Junction, error) {
	if schema.Degenerate(sides) {
		return schema.Junction{}, fmt.Errorf("create junction %s: sides are identical", sides)
	}

	var j schema.Junction
	err := s.st.InTx(ctx, func(tx *store.Store) error {
		id, err := tx.InsertJunction(ctx, sides)
		if err != nil {
			return err
		}
		j = schema.Junction{ID: id, Sides: sides}

		cols := Columns(sides)
		return tx.CreateTable(ctx, store.KindJunction, fmt.Sprint(id), []string{
			store.QuoteIdent(cols[0]) + " INTEGER NOT NULL",
			store.QuoteIdent(cols[1]) + " INTEGER NOT NULL",
			store.QuoteIdent(InsertedAtColumn) + " INTEGER NOT NULL",
			fmt.Sprintf("UNIQUE (%s, %s)", store.QuoteIdent(cols[0]), store.QuoteIdent(cols[1])),
		})
	})
	if err != nil {
		return schema.Junction{}, fmt.Errorf("create junction: %w", err)
	}
	return j, nil
}

// Drop removes a junction record and its storage table.
func (s *Store) Drop(ctx context.Context, id schema.JunctionID) error {
	err := s.st.InTx(ctx, func(tx *store.Store) error {
		if err := tx.DeleteJunction(ctx, id); err != nil {
			return err
		}
		return tx.DropTable(ctx, Table(id))
	})
	if err != nil {
		return fmt.Errorf("drop junction %d: %w", id, err)
	}
	return nil
}

// Transfer creates a junction with sides to and copies every row of from
// into it. Row order and inserted_at values are preserved. The source
// junction is left in place; callers drop it once every transfer reading
// from it has run.
func (s *Store) Transfer(ctx context.Context, from schema.Junction, to schema.Sides) (schema.Junction, error) {
	var created schema.Junction
	err := s.st.InTx(ctx, func(tx *store.Store) error {
		var err error
		created, err = (&Store{st: tx, clock: s.clock}).Create(ctx, to)
		if err != nil {
			return err
		}
		return copyRows(ctx, tx, from, created)
	})
	if err != nil {
		return schema.Junction{}, fmt.Errorf("transfer junction %d: %w", from.ID, err)
	}
	return created, nil
}

func copyRows(ctx context.Context, tx *store.Store, from, to schema.Junction) error {
	src := Columns(from.Sides)
	if TransferSwaps(from.Sides, to.Sides) {
		src[0], src[1] = src[1], src[0]
	}
	dst := Columns(to.Sides)

	stmt := fmt.Sprintf(
		"INSERT OR IGNORE INTO %s (%s, %s, %s) SELECT %s, %s, %s FROM %s ORDER BY %s, rowid",
		store.QuoteIdent(Table(to.ID)),
		store.QuoteIdent(dst[0]), store.QuoteIdent(dst[1]), store.QuoteIdent(InsertedAtColumn),
		store.QuoteIdent(src[0]), store.QuoteIdent(src[1]), store.QuoteIdent(InsertedAtColumn),
		store.QuoteIdent(Table(from.ID)),
		store.QuoteIdent(InsertedAtColumn),
	)
	if _, err := tx.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("copy rows %d -> %d: %w", from.ID, to.ID, err)
	}
	return nil
}

// TransferSwaps reports whether rows copied from a junction with sides from
// into one with sides to must swap columns.
//
// Only orientations in which the classes line up are considered; among
// those the one with more matching sides wins, and ties keep the stored
// order.
func TransferSwaps(from, to schema.Sides) bool {
	score := func(i int) int {
		if to[0].ClassID != from[i].ClassID || to[1].ClassID != from[1-i].ClassID {
			return -1
		}
		n := 0
		if schema.SideMatch(to[0], from[i]) {
			n++
		}
		if schema.SideMatch(to[1], from[1-i]) {
			n++
		}
		return n
	}
	return score(1) > score(0)
}

// Orient reorders items given for sides into j's column order. The boolean
// is false when sides do not fully match the junction.
func Orient(j schema.Junction, sides schema.Sides, items [2]schema.ItemID) ([2]schema.ItemID, bool) {
	switch {
	case schema.SideMatch(j.Sides[0], sides[0]) && schema.SideMatch(j.Sides[1], sides[1]):
		return items, true
	case schema.SideMatch(j.Sides[0], sides[1]) && schema.SideMatch(j.Sides[1], sides[0]):
		return [2]schema.ItemID{items[1], items[0]}, true
	}
	return items, false
}

// AddLink stores a link between items, given in j's side order. It reports
// false when the link already existed.
func (s *Store) AddLink(ctx context.Context, j schema.Junction, items [2]schema.ItemID) (bool, error) {
	cols := Columns(j.Sides)
	stmt := fmt.Sprintf("INSERT OR IGNORE INTO %s (%s, %s, %s) VALUES (?, ?, ?)",
		store.QuoteIdent(Table(j.ID)),
		store.QuoteIdent(cols[0]), store.QuoteIdent(cols[1]), store.QuoteIdent(InsertedAtColumn),
	)
	n, err := s.st.Exec(ctx, stmt, items[0], items[1], s.clock.Next())
	if err != nil {
		return false, fmt.Errorf("add link to junction %d: %w", j.ID, err)
	}
	return n > 0, nil
}

// RemoveLink deletes a link between items, given in j's side order. It
// reports false when there was no such link.
func (s *Store) RemoveLink(ctx context.Context, j schema.Junction, items [2]schema.ItemID) (bool, error) {
	cols := Columns(j.Sides)
	stmt := fmt.Sprintf("DELETE FROM %s WHERE %s = ? AND %s = ?",
		store.QuoteIdent(Table(j.ID)), store.QuoteIdent(cols[0]), store.QuoteIdent(cols[1]))
	n, err := s.st.Exec(ctx, stmt, items[0], items[1])
	if err != nil {
		return false, fmt.Errorf("remove link from junction %d: %w", j.ID, err)
	}
	return n > 0, nil
}

// HasLink reports whether a link between items, given in j's side order,
// is stored.
func (s *Store) HasLink(ctx context.Context, j schema.Junction, items [2]schema.ItemID) (bool, error) {
	cols := Columns(j.Sides)
	rows, err := s.st.QueryRows(ctx, fmt.Sprintf("SELECT 1 AS found FROM %s WHERE %s = ? AND %s = ? LIMIT 1",
		store.QuoteIdent(Table(j.ID)), store.QuoteIdent(cols[0]), store.QuoteIdent(cols[1])), items[0], items[1])
	if err != nil {
		return false, fmt.Errorf("find link in junction %d: %w", j.ID, err)
	}
	return len(rows) > 0, nil
}

// CountLinks returns the number of links held by item on side index side.
func (s *Store) CountLinks(ctx context.Context, j schema.Junction, side int, item schema.ItemID) (int, error) {
	col := SideColumn(j.Sides[side])
	var n int
	rows, err := s.st.QueryRows(ctx, fmt.Sprintf("SELECT COUNT(*) AS n FROM %s WHERE %s = ?",
		store.QuoteIdent(Table(j.ID)), store.QuoteIdent(col)), item)
	if err != nil {
		return 0, fmt.Errorf("count links in junction %d: %w", j.ID, err)
	}
	if len(rows) == 1 {
		if v, ok := rows[0]["n"].(int64); ok {
			n = int(v)
		}
	}
	return n, nil
}

// RemoveItem deletes every link of an item of class from junction j and
// returns the number of rows removed.
func (s *Store) RemoveItem(ctx context.Context, j schema.Junction, class schema.ClassID, item schema.ItemID) (int64, error) {
	var total int64
	for _, side := range j.Sides {
		if side.ClassID != class {
			continue
		}
		stmt := fmt.Sprintf("DELETE FROM %s WHERE %s = ?",
			store.QuoteIdent(Table(j.ID)), store.QuoteIdent(SideColumn(side)))
		n, err := s.st.Exec(ctx, stmt, item)
		if err != nil {
			return total, fmt.Errorf("remove item %d from junction %d: %w", item, j.ID, err)
		}
		total += n
	}
	return total, nil
}

// Links returns every row of a junction ordered by insertion.
//
// Returns an empty slice (not nil) if the junction has no rows.
func (s *Store) Links(ctx context.Context, j schema.Junction) ([]Link, error) {
	cols := Columns(j.Sides)
	rows, err := s.st.Query(ctx, fmt.Sprintf("SELECT %s, %s, %s FROM %s ORDER BY %s, rowid",
		store.QuoteIdent(cols[0]), store.QuoteIdent(cols[1]), store.QuoteIdent(InsertedAtColumn),
		store.QuoteIdent(Table(j.ID)), store.QuoteIdent(InsertedAtColumn)))
	if err != nil {
		return nil, fmt.Errorf("query links of junction %d: %w", j.ID, err)
	}
	defer rows.Close()

	links := []Link{}
	for rows.Next() {
		var l Link
		if err := rows.Scan(&l.Items[0], &l.Items[1], &l.InsertedAt); err != nil {
			return nil, fmt.Errorf("scan link: %w", err)
		}
		links = append(links, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate links: %w", err)
	}
	return links, nil
}
