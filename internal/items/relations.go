package items

import (
	"context"

	"github.com/roach88/goby/internal/cache"
	"github.com/roach88/goby/internal/junction"
	"github.com/roach88/goby/internal/schema"
	"github.com/roach88/goby/internal/store"
)

// EditRelations adds and removes links between items.
//
// Each change names two item sides; the junction whose sides fully match
// them stores the link. A change is skipped with a diagnostic when no
// junction matches (SCHEMA_INCONSISTENCY), an item does not exist
// (SCHEMA_INCONSISTENCY) or an owned side already holds max_values links
// (CARDINALITY_EXCEEDED). Adding an existing link and removing a missing one
// are no-ops. All changes run in one transaction; a storage failure rolls
// them back.
func (e *Engine) EditRelations(ctx context.Context, changes []RelationChange) ([]*schema.Error, error) {
	snap := e.cache.Snapshot()
	diags := []*schema.Error{}

	err := e.store.InTx(ctx, func(tx *store.Store) error {
		js := e.junctions.In(tx)
		for _, ch := range changes {
			diag, err := e.editRelation(ctx, tx, js, snap, ch)
			if err != nil {
				return err
			}
			if diag != nil {
				diags = e.diagnose(diags, diag)
			}
		}
		return nil
	})
	if err != nil {
		return diags, schema.StorageFailure("edit relations", err)
	}
	return diags, nil
}

func (e *Engine) editRelation(ctx context.Context, tx *store.Store, js *junction.Store, snap *cache.Snapshot, ch RelationChange) (*schema.Error, error) {
	sides := schema.Sides{ch.Sides[0].Side(), ch.Sides[1].Side()}
	j, ok := snap.FindJunction(sides)
	if !ok {
		return schema.NewInconsistency("no relation matches %s", sides), nil
	}
	items, _ := junction.Orient(j, sides, [2]schema.ItemID{ch.Sides[0].ItemID, ch.Sides[1].ItemID})

	switch ch.Change {
	case ChangeRemove:
		removed, err := js.RemoveLink(ctx, j, items)
		if err != nil {
			return nil, err
		}
		if removed {
			e.logger.Debug("link removed", "junction_id", j.ID, "items", items)
		}
		return nil, nil
	case ChangeAdd:
	default:
		return schema.NewInvalidEdit("unknown relation change %q", ch.Change).WithJunction(j.ID), nil
	}

	for i, side := range j.Sides {
		found, err := itemExists(ctx, tx, side.ClassID, items[i])
		if err != nil {
			return nil, err
		}
		if !found {
			return schema.NewInconsistency("item %d not found in class %d", items[i], side.ClassID).WithJunction(j.ID), nil
		}
	}

	exists, err := js.HasLink(ctx, j, items)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, nil
	}

	for i, side := range j.Sides {
		prop, owned := side.Prop()
		if !owned {
			continue
		}
		p, ok := snap.Property(side.ClassID, prop)
		if !ok {
			return schema.NewInconsistency("junction %d references missing property", j.ID).WithProp(side.ClassID, prop), nil
		}
		if p.MaxValues == schema.Unbounded {
			continue
		}
		n, err := countValues(ctx, js, snap, side, items[i])
		if err != nil {
			return nil, err
		}
		if !p.MaxValues.Allows(n + 1) {
			return schema.NewCardinalityError(side, items[i], p.MaxValues), nil
		}
	}

	if _, err := js.AddLink(ctx, j, items); err != nil {
		return nil, err
	}
	e.logger.Debug("link added", "junction_id", j.ID, "items", items)
	return nil, nil
}

// countValues returns how many links item holds through an owned side,
// across every junction touching that side's property.
func countValues(ctx context.Context, js *junction.Store, snap *cache.Snapshot, side schema.Side, item schema.ItemID) (int, error) {
	prop, _ := side.Prop()
	total := 0
	for _, j := range snap.JunctionsTouching(side.ClassID, prop) {
		for i, s := range j.Sides {
			if !s.Is(side.ClassID, prop) {
				continue
			}
			n, err := js.CountLinks(ctx, j, i, item)
			if err != nil {
				return 0, err
			}
			total += n
		}
	}
	return total, nil
}
