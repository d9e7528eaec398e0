package items

import (
	"context"
	"fmt"
	"slices"

	"github.com/roach88/goby/internal/cache"
	"github.com/roach88/goby/internal/junction"
	"github.com/roach88/goby/internal/queryir"
	"github.com/roach88/goby/internal/schema"
	"github.com/roach88/goby/internal/store"
)

// RetrieveClassItems loads a page of items of class with their data values
// and relation arrays.
//
// Rows are ordered by (system_order, system_id). Relation arrays are ordered
// by link insertion and are empty, never nil, for items without links.
// Total is the number of rows in the class regardless of pagination.
func (e *Engine) RetrieveClassItems(ctx context.Context, class schema.ClassID, p Pagination) (*PaginatedItems, error) {
	snap := e.cache.Snapshot()
	c, err := e.class(snap, class)
	if err != nil {
		return nil, err
	}
	return e.retrieve(ctx, snap, c, p)
}

// RetrieveAllClasses returns every class with its properties and relation
// targets, loading items for the classes selected by include.
func (e *Engine) RetrieveAllClasses(ctx context.Context, include Include) ([]ClassData, error) {
	snap := e.cache.Snapshot()

	result := make([]ClassData, 0, len(snap.Classes))
	for _, c := range snap.Classes {
		cd := ClassData{
			ID:               c.ID,
			Name:             c.Name,
			Style:            c.Style,
			LabelPropertyIDs: c.LabelPropertyIDs,
			Properties:       make([]PropertyData, 0, len(c.Properties)),
			Items:            PaginatedItems{Loaded: []Item{}},
		}
		for _, p := range c.Properties {
			pd := PropertyData{Property: p}
			if p.IsRelation() {
				pd.Targets = snap.Targets(c.ID, p.ID)
			}
			cd.Properties = append(cd.Properties, pd)
		}

		if pg, ok := include.pagination(c.ID); ok {
			items, err := e.retrieve(ctx, snap, c, pg)
			if err != nil {
				return nil, err
			}
			cd.Items = *items
		}
		result = append(result, cd)
	}
	return result, nil
}

func (e *Engine) retrieve(ctx context.Context, snap *cache.Snapshot, c schema.Class, p Pagination) (*PaginatedItems, error) {
	props, err := visibleProperties(c, p.PropertyRange)
	if err != nil {
		return nil, err
	}

	total, err := e.count(ctx, c.ID)
	if err != nil {
		return nil, schema.StorageFailure("count items", err)
	}
	result := &PaginatedItems{Pagination: p, Loaded: []Item{}, Total: total}

	// An explicit empty item range selects nothing.
	if p.ItemIDs != nil && len(p.ItemIDs) == 0 {
		return result, nil
	}

	plan, perr := buildPlan(snap, c, props, p)
	if perr != nil {
		return nil, perr
	}
	query, params, err := e.compiler.Compile(plan)
	if err != nil {
		return nil, fmt.Errorf("retrieve class %d: %w", c.ID, err)
	}

	rows, err := e.store.QueryRows(ctx, query, params...)
	if err != nil {
		return nil, schema.StorageFailure("retrieve items", err)
	}
	for _, row := range rows {
		item, err := decodeRow(row, props)
		if err != nil {
			ierr := schema.NewInconsistency("decode item of class %q", c.Name).WithClass(c.ID)
			ierr.Err = err
			return nil, ierr
		}
		result.Loaded = append(result.Loaded, item)
	}
	return result, nil
}

func (e *Engine) count(ctx context.Context, class schema.ClassID) (int, error) {
	query, params, err := e.compiler.Compile(queryir.CountItems{Table: store.ClassTable(class)})
	if err != nil {
		return 0, err
	}
	rows, err := e.store.QueryRows(ctx, query, params...)
	if err != nil {
		return 0, err
	}
	if len(rows) != 1 {
		return 0, fmt.Errorf("count items of class %d: no result", class)
	}
	n, _ := rows[0]["total"].(int64)
	return int(n), nil
}

// visibleProperties selects the properties of c named by r, in class order.
func visibleProperties(c schema.Class, r PropertyRange) ([]schema.Property, error) {
	switch r.Mode {
	case "", RangeAll:
		return c.Properties, nil
	case RangeSlim:
		return filterProperties(c.Properties, c.LabelPropertyIDs), nil
	case RangeIDs:
		if len(r.IDs) == 0 {
			return c.Properties, nil
		}
		return filterProperties(c.Properties, r.IDs), nil
	default:
		return nil, fmt.Errorf("unknown property range %q", r.Mode)
	}
}

func filterProperties(props []schema.Property, ids []schema.PropID) []schema.Property {
	result := []schema.Property{}
	for _, p := range props {
		if slices.Contains(ids, p.ID) {
			result = append(result, p)
		}
	}
	return result
}

// buildPlan describes the retrieval of props for class c. Relation
// properties are output under their data column name so that decoding can
// look every property up the same way.
func buildPlan(snap *cache.Snapshot, c schema.Class, props []schema.Property, p Pagination) (queryir.ClassItems, *schema.Error) {
	plan := queryir.ClassItems{
		Table:     store.ClassTable(c.ID),
		Columns:   []string{},
		Relations: []queryir.Relation{},
	}

	for _, prop := range props {
		if !prop.IsRelation() {
			plan.Columns = append(plan.Columns, store.DataColumn(prop.ID))
			continue
		}

		rel := queryir.Relation{Alias: store.DataColumn(prop.ID)}
		own := schema.OwnedSide(c.ID, prop.ID)
		for _, j := range snap.JunctionsTouching(c.ID, prop.ID) {
			opp, _ := j.Opposite(c.ID, prop.ID)
			target, ok := snap.Class(opp.ClassID)
			if !ok {
				return queryir.ClassItems{}, schema.NewInconsistency("junction %d targets missing class %d", j.ID, opp.ClassID).WithJunction(j.ID)
			}

			src := queryir.Source{
				Junction:     junction.Table(j.ID),
				OwnColumn:    junction.SideColumn(own),
				TargetColumn: junction.SideColumn(opp),
				TargetClass:  int64(opp.ClassID),
			}
			if label, ok := target.LabelProperty(); ok && !label.IsRelation() {
				src.LabelTable = store.ClassTable(target.ID)
				src.LabelColumn = store.DataColumn(label.ID)
			}
			rel.Sources = append(rel.Sources, src)
		}
		plan.Relations = append(plan.Relations, rel)
	}

	for _, id := range p.ItemIDs {
		plan.ItemIDs = append(plan.ItemIDs, int64(id))
	}
	if p.PageSize > 0 {
		page := max(p.Page, 1)
		plan.Limit = p.PageSize
		plan.Offset = (page - 1) * p.PageSize
	}
	return plan, nil
}

func decodeRow(row store.Row, props []schema.Property) (Item, error) {
	id, ok := row["system_id"].(int64)
	if !ok {
		return Item{}, fmt.Errorf("system_id is %T", row["system_id"])
	}
	order, _ := toFloat(row["system_order"])

	item := Item{
		ID:     schema.ItemID(id),
		Order:  order,
		Values: make(map[string]any, len(props)),
	}
	for _, p := range props {
		raw := row[store.DataColumn(p.ID)]
		if p.IsRelation() {
			entries, err := decodeRelation(raw)
			if err != nil {
				return Item{}, fmt.Errorf("item %d property %q: %w", id, p.Name, err)
			}
			item.Values[p.Name] = entries
			continue
		}
		v, err := decodeValue(p, raw)
		if err != nil {
			return Item{}, fmt.Errorf("item %d: %w", id, err)
		}
		item.Values[p.Name] = v
	}
	return item, nil
}
