package items

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/goby/internal/schema"
	"github.com/roach88/goby/internal/store"
)

// AddRow appends an item to class and applies initial values.
//
// The item is registered in system_root and ordered after every existing
// row. Invalid initial values are skipped and returned as INVALID_VALUE
// diagnostics; the row is still added.
func (e *Engine) AddRow(ctx context.Context, class schema.ClassID, initial []ValueChange) (schema.ItemID, []*schema.Error, error) {
	c, err := e.class(e.cache.Snapshot(), class)
	if err != nil {
		return 0, nil, err
	}

	var id schema.ItemID
	diags := []*schema.Error{}
	err = e.store.InTx(ctx, func(tx *store.Store) error {
		var err error
		id, err = tx.CreateRootItem(ctx, class)
		if err != nil {
			return err
		}

		table := store.ClassTable(class)
		order, err := tx.NextOrder(ctx, table, "")
		if err != nil {
			return err
		}

		stmt := fmt.Sprintf(`INSERT INTO %s ("system_id", "system_order") VALUES (?, ?)`, store.QuoteIdent(table))
		if _, err := tx.Exec(ctx, stmt, id, order); err != nil {
			return fmt.Errorf("insert item into %s: %w", table, err)
		}

		diags, err = e.setValues(ctx, tx, c, id, initial)
		return err
	})
	if err != nil {
		return 0, nil, schema.StorageFailure("add row", err)
	}

	e.logger.Debug("item added", "class_id", class, "item_id", id)
	return id, diags, nil
}

// SetPropertyValues updates data properties of an item.
//
// Changes naming unknown properties, relation properties or values that do
// not fit their property are skipped and returned as diagnostics. The
// remaining changes are written in one statement.
func (e *Engine) SetPropertyValues(ctx context.Context, class schema.ClassID, item schema.ItemID, changes []ValueChange) ([]*schema.Error, error) {
	c, err := e.class(e.cache.Snapshot(), class)
	if err != nil {
		return nil, err
	}

	ok, err := itemExists(ctx, e.store, class, item)
	if err != nil {
		return nil, schema.StorageFailure("set property values", err)
	}
	if !ok {
		return nil, schema.NewInconsistency("item %d not found in class %q", item, c.Name).WithClass(class)
	}

	diags, err := e.setValues(ctx, e.store, c, item, changes)
	if err != nil {
		return diags, schema.StorageFailure("set property values", err)
	}
	return diags, nil
}

func (e *Engine) setValues(ctx context.Context, st *store.Store, c schema.Class, item schema.ItemID, changes []ValueChange) ([]*schema.Error, error) {
	diags := []*schema.Error{}
	var sets []string
	var args []any
	index := make(map[schema.PropID]int)

	for _, ch := range changes {
		p, ok := c.Property(ch.PropID)
		if !ok {
			diags = e.diagnose(diags, schema.NewInconsistency("property %d not found on class %q", ch.PropID, c.Name).WithProp(c.ID, ch.PropID))
			continue
		}
		if p.IsRelation() {
			diags = e.diagnose(diags, schema.NewInvalidValue("property %q is a relation; link items instead", p.Name).WithProp(c.ID, p.ID))
			continue
		}
		v, verr := encodeValue(p, ch.Value)
		if verr != nil {
			diags = e.diagnose(diags, verr.WithProp(c.ID, p.ID))
			continue
		}

		// Later changes to the same property win.
		if i, dup := index[p.ID]; dup {
			args[i] = v
			continue
		}
		index[p.ID] = len(args)
		sets = append(sets, store.QuoteIdent(store.DataColumn(p.ID))+" = ?")
		args = append(args, v)
	}

	if len(sets) == 0 {
		return diags, nil
	}

	stmt := fmt.Sprintf(`UPDATE %s SET %s WHERE "system_id" = ?`,
		store.QuoteIdent(store.ClassTable(c.ID)), strings.Join(sets, ", "))
	if _, err := st.Exec(ctx, stmt, append(args, item)...); err != nil {
		return diags, fmt.Errorf("set values of item %d: %w", item, err)
	}
	return diags, nil
}

// DeleteRow removes an item: its links in every junction touching the
// class, its row and its system_root entry.
func (e *Engine) DeleteRow(ctx context.Context, class schema.ClassID, item schema.ItemID) error {
	snap := e.cache.Snapshot()
	c, err := e.class(snap, class)
	if err != nil {
		return err
	}

	ok, err := itemExists(ctx, e.store, class, item)
	if err != nil {
		return schema.StorageFailure("delete row", err)
	}
	if !ok {
		return schema.NewInconsistency("item %d not found in class %q", item, c.Name).WithClass(class)
	}

	var links int64
	err = e.store.InTx(ctx, func(tx *store.Store) error {
		js := e.junctions.In(tx)
		for _, j := range snap.JunctionsTouchingClass(class) {
			n, err := js.RemoveItem(ctx, j, class, item)
			if err != nil {
				return err
			}
			links += n
		}

		stmt := fmt.Sprintf(`DELETE FROM %s WHERE "system_id" = ?`, store.QuoteIdent(store.ClassTable(class)))
		if _, err := tx.Exec(ctx, stmt, item); err != nil {
			return fmt.Errorf("delete item %d: %w", item, err)
		}
		return tx.DeleteRootItem(ctx, item)
	})
	if err != nil {
		return schema.StorageFailure("delete row", err)
	}

	e.logger.Debug("item deleted", "class_id", class, "item_id", item, "links", links)
	return nil
}
