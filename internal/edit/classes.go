package edit

import (
	"context"
	"fmt"

	"github.com/roach88/goby/internal/schema"
	"github.com/roach88/goby/internal/store"
)

// applyClassEdits runs creates and deletes in order. Attribute edits are
// returned so they run after property edits and may name new properties.
func (r *run) applyClassEdits(ctx context.Context, edits []ClassEdit) ([]ClassEdit, error) {
	var attributes []ClassEdit
	for _, ce := range edits {
		var err error
		switch ce.Type {
		case ClassCreate:
			err = r.createClass(ctx, ce)
		case ClassDelete:
			err = r.deleteClass(ctx, ce)
		case ClassModifyAttribute:
			attributes = append(attributes, ce)
		default:
			r.diagnose(schema.NewInvalidEdit("unknown class edit type %q", ce.Type))
		}
		if err != nil {
			return nil, err
		}
	}
	return attributes, nil
}

// classColumns are the fixed columns of every class table.
var classColumns = []string{
	`"system_id" INTEGER NOT NULL UNIQUE REFERENCES system_root(id)`,
	`"system_order" REAL NOT NULL DEFAULT 0`,
}

func (r *run) createClass(ctx context.Context, ce ClassEdit) error {
	name := schema.NormalizeName(ce.ClassName)
	if name == "" {
		r.diagnose(schema.NewInvalidEdit("class name is empty"))
		return nil
	}
	if r.syms.hasClassName(name) {
		r.diagnose(schema.NewInvalidEdit("class %q already exists", name))
		return nil
	}

	label := schema.Property{
		Name:      DefaultLabelName,
		Kind:      schema.KindData,
		DataType:  schema.TypeString,
		MaxValues: 1,
	}

	var id schema.ClassID
	err := r.store.InTx(ctx, func(tx *store.Store) error {
		var err error
		if id, err = tx.InsertClass(ctx, schema.Class{Name: name}); err != nil {
			return err
		}
		if err := tx.CreateTable(ctx, store.KindClass, fmt.Sprint(id), classColumns); err != nil {
			return err
		}
		if label.ID, err = tx.InsertProperty(ctx, id, label); err != nil {
			return err
		}
		column := store.DataColumn(label.ID)
		if err := tx.AddColumn(ctx, store.ClassTable(id), column, store.ColumnType(label.DataType, label.MaxValues)); err != nil {
			return err
		}
		return tx.UpdateClassMetadata(ctx, schema.Class{ID: id, LabelPropertyIDs: []schema.PropID{label.ID}})
	})
	if err != nil {
		return schema.StorageFailure(fmt.Sprintf("create class %q", name), err)
	}

	sym := r.syms.addClass(id, name)
	sym.putProp(label)
	sym.labels = []schema.PropID{label.ID}

	r.record(Change{Kind: KindClass, Action: ActionCreate, Name: name, ClassID: id})
	r.record(Change{Kind: KindProperty, Action: ActionCreate, Name: label.Name, ClassID: id, PropID: label.ID})
	return nil
}

// deleteClass drops a class with its items and properties. Junctions
// touching it are queued for deletion.
func (r *run) deleteClass(ctx context.Context, ce ClassEdit) error {
	id, sym, ok := r.syms.class(ce.ClassID, ce.ClassName)
	if !ok {
		r.diagnose(schema.NewInconsistency("class to delete does not exist: id=%d name=%q", ce.ClassID, ce.ClassName))
		return nil
	}

	for _, j := range r.snap.JunctionsTouchingClass(id) {
		r.queued = append(r.queued, DeleteOp(j.ID))
	}

	err := r.store.InTx(ctx, func(tx *store.Store) error {
		if err := tx.DropTable(ctx, store.ClassTable(id)); err != nil {
			return err
		}
		if _, err := tx.DeleteRootItemsOfClass(ctx, id); err != nil {
			return err
		}
		return tx.DeleteClass(ctx, id)
	})
	if err != nil {
		return schema.StorageFailure(fmt.Sprintf("delete class %d", id), err).WithClass(id)
	}

	r.syms.removeClass(id)
	r.record(Change{Kind: KindClass, Action: ActionDelete, Name: sym.name, ClassID: id})
	return nil
}

// applyAttributeEdits runs modify_attribute edits.
func (r *run) applyAttributeEdits(ctx context.Context, edits []ClassEdit) error {
	for _, ce := range edits {
		id, sym, ok := r.syms.class(ce.ClassID, ce.ClassName)
		if !ok {
			r.diagnose(schema.NewInconsistency("class to modify does not exist: id=%d name=%q", ce.ClassID, ce.ClassName))
			continue
		}

		class := schema.Class{ID: id, Name: sym.name, Style: sym.style, LabelPropertyIDs: sym.labels}

		switch ce.Attribute {
		case AttributeColor:
			color, ok := ce.Value.(string)
			if !ok {
				r.diagnose(schema.NewInvalidEdit("color must be a string, got %T", ce.Value).WithClass(id))
				continue
			}
			class.Style.Color = color
		case AttributeLabel:
			labels, err := labelIDs(sym, ce.Value)
			if err != nil {
				r.diagnose(err.WithClass(id))
				continue
			}
			class.LabelPropertyIDs = labels
		default:
			r.diagnose(schema.NewInvalidEdit("unknown class attribute %q", ce.Attribute).WithClass(id))
			continue
		}

		if err := r.store.UpdateClassMetadata(ctx, class); err != nil {
			return schema.StorageFailure(fmt.Sprintf("modify class %d", id), err).WithClass(id)
		}
		sym.labels = class.LabelPropertyIDs
		sym.style = class.Style
		r.record(Change{Kind: KindClass, Action: ActionModify, Name: class.Name, ClassID: id})
	}
	return nil
}

// labelIDs converts a label attribute value into property ids. Elements may
// be property ids or property names and must exist on the class.
func labelIDs(sym *classSymbol, value any) ([]schema.PropID, *schema.Error) {
	var elems []any
	switch v := value.(type) {
	case nil:
		return []schema.PropID{}, nil
	case []any:
		elems = v
	default:
		elems = []any{v}
	}

	ids := make([]schema.PropID, 0, len(elems))
	for _, elem := range elems {
		var p schema.Property
		var ok bool
		switch v := elem.(type) {
		case string:
			p, ok = sym.prop(0, v)
		case int:
			p, ok = sym.prop(schema.PropID(v), "")
		case int64:
			p, ok = sym.prop(schema.PropID(v), "")
		case uint64:
			p, ok = sym.prop(schema.PropID(v), "")
		case float64:
			if v == float64(int64(v)) && v > 0 {
				p, ok = sym.prop(schema.PropID(v), "")
			}
		}
		if !ok {
			return nil, schema.NewInvalidEdit("label property %v does not exist", elem)
		}
		ids = append(ids, p.ID)
	}
	return ids, nil
}
