package edit

import (
	"context"
	"fmt"

	"github.com/roach88/goby/internal/schema"
	"github.com/roach88/goby/internal/store"
)

func (r *run) applyPropertyEdits(ctx context.Context, edits []PropertyEdit) error {
	for _, pe := range edits {
		var err error
		switch pe.Type {
		case PropertyCreate:
			err = r.createProperty(ctx, pe)
		case PropertyDelete:
			err = r.deleteProperty(ctx, pe)
		case PropertyModify:
			err = r.modifyProperty(ctx, pe)
		default:
			r.diagnose(schema.NewInvalidEdit("unknown property edit type %q", pe.Type))
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *run) createProperty(ctx context.Context, pe PropertyEdit) error {
	classID, sym, ok := r.syms.class(pe.ClassID, pe.ClassName)
	if !ok {
		r.diagnose(schema.NewInvalidEdit("property %q: class does not exist: id=%d name=%q",
			pe.PropName, pe.ClassID, pe.ClassName))
		return nil
	}

	name := schema.NormalizeName(pe.PropName)
	if name == "" {
		r.diagnose(schema.NewInvalidEdit("property name is empty").WithClass(classID))
		return nil
	}
	if _, exists := sym.propByName(name); exists {
		r.diagnose(schema.NewInvalidEdit("property %q already exists", name).WithClass(classID))
		return nil
	}

	p := schema.Property{Name: name, Kind: pe.Config.Type}
	switch p.Kind {
	case schema.KindData:
		if !pe.Config.DataType.Valid() {
			r.diagnose(schema.NewInvalidEdit("property %q: unknown data type %q", name, pe.Config.DataType).WithClass(classID))
			return nil
		}
		p.DataType = pe.Config.DataType
		p.MaxValues = 1
	case schema.KindRelation:
		p.MaxValues = schema.Unbounded
	default:
		r.diagnose(schema.NewInvalidEdit("property %q: unknown property type %q", name, pe.Config.Type).WithClass(classID))
		return nil
	}
	if pe.Config.MaxValues != nil {
		if *pe.Config.MaxValues < 0 {
			r.diagnose(schema.NewInvalidEdit("property %q: max_values must not be negative", name).WithClass(classID))
			return nil
		}
		p.MaxValues = *pe.Config.MaxValues
	}

	err := r.store.InTx(ctx, func(tx *store.Store) error {
		var err error
		if p.ID, err = tx.InsertProperty(ctx, classID, p); err != nil {
			return err
		}
		if p.Kind != schema.KindData {
			return nil
		}
		return tx.AddColumn(ctx, store.ClassTable(classID), store.DataColumn(p.ID), store.ColumnType(p.DataType, p.MaxValues))
	})
	if err != nil {
		return schema.StorageFailure(fmt.Sprintf("create property %q", name), err).WithClass(classID)
	}

	sym.putProp(p)
	r.record(Change{Kind: KindProperty, Action: ActionCreate, Name: name, ClassID: classID, PropID: p.ID})
	return nil
}

// deleteProperty removes a property. For a relation property every junction
// touching it is downgraded or deleted: when the opposite side is owned the
// junction is transferred to a one-way relation keeping that side, so its
// links stay reachable from the other class.
func (r *run) deleteProperty(ctx context.Context, pe PropertyEdit) error {
	classID, sym, ok := r.syms.class(pe.ClassID, pe.ClassName)
	if !ok {
		r.diagnose(schema.NewInconsistency("property delete: class does not exist: id=%d name=%q", pe.ClassID, pe.ClassName))
		return nil
	}
	p, ok := sym.prop(pe.PropID, pe.PropName)
	if !ok {
		r.diagnose(schema.NewInconsistency("property to delete does not exist: id=%d name=%q", pe.PropID, pe.PropName).WithClass(classID))
		return nil
	}

	if p.IsRelation() {
		for _, j := range r.snap.JunctionsTouching(classID, p.ID) {
			opposite, _ := j.Opposite(classID, p.ID)
			if opposite.HasProp() {
				r.queued = append(r.queued, TransferOp(j, schema.Sides{opposite, schema.AnonymousSide(classID)}))
			} else {
				r.queued = append(r.queued, DeleteOp(j.ID))
			}
		}
	}

	wasLabel := sym.isLabel(p.ID)
	err := r.store.InTx(ctx, func(tx *store.Store) error {
		if err := tx.DeleteProperty(ctx, classID, p.ID); err != nil {
			return err
		}
		if p.Kind == schema.KindData {
			if err := tx.DropColumn(ctx, store.ClassTable(classID), store.DataColumn(p.ID)); err != nil {
				return err
			}
		}
		if !wasLabel {
			return nil
		}
		labels := make([]schema.PropID, 0, len(sym.labels))
		for _, l := range sym.labels {
			if l != p.ID {
				labels = append(labels, l)
			}
		}
		return tx.UpdateClassMetadata(ctx, schema.Class{ID: classID, Style: sym.style, LabelPropertyIDs: labels})
	})
	if err != nil {
		return schema.StorageFailure(fmt.Sprintf("delete property %d", p.ID), err).WithProp(classID, p.ID)
	}

	sym.removeProp(p.ID)
	r.record(Change{Kind: KindProperty, Action: ActionDelete, Name: p.Name, ClassID: classID, PropID: p.ID})
	return nil
}

// modifyProperty renames a property or changes a relation's max_values.
// The type, data type and max_values of data properties are fixed because
// they determine the storage column.
func (r *run) modifyProperty(ctx context.Context, pe PropertyEdit) error {
	classID, sym, ok := r.syms.class(pe.ClassID, pe.ClassName)
	if !ok {
		r.diagnose(schema.NewInconsistency("property modify: class does not exist: id=%d name=%q", pe.ClassID, pe.ClassName))
		return nil
	}
	p, ok := sym.prop(pe.PropID, pe.PropName)
	if !ok {
		r.diagnose(schema.NewInconsistency("property to modify does not exist: id=%d name=%q", pe.PropID, pe.PropName).WithClass(classID))
		return nil
	}

	invalid := func(format string, args ...any) error {
		r.diagnose(schema.NewInvalidEdit(format, args...).WithProp(classID, p.ID))
		return nil
	}

	updated := p
	if pe.NewName != "" {
		name := schema.NormalizeName(pe.NewName)
		if name == "" {
			return invalid("property name is empty")
		}
		if other, exists := sym.propByName(name); exists && other.ID != p.ID {
			return invalid("property %q already exists", name)
		}
		updated.Name = name
	}
	if pe.Config.Type != "" && pe.Config.Type != p.Kind {
		return invalid("cannot change type of property %q", p.Name)
	}
	if pe.Config.DataType != "" && pe.Config.DataType != p.DataType {
		return invalid("cannot change data type of property %q", p.Name)
	}
	if pe.Config.MaxValues != nil && *pe.Config.MaxValues != p.MaxValues {
		if !p.IsRelation() {
			return invalid("cannot change max_values of data property %q", p.Name)
		}
		if *pe.Config.MaxValues < 0 {
			return invalid("max_values must not be negative")
		}
		updated.MaxValues = *pe.Config.MaxValues
	}
	if updated == p {
		return nil
	}

	if err := r.store.UpdateProperty(ctx, classID, updated); err != nil {
		return schema.StorageFailure(fmt.Sprintf("modify property %d", p.ID), err).WithProp(classID, p.ID)
	}

	sym.putProp(updated)
	r.record(Change{Kind: KindProperty, Action: ActionModify, Name: updated.Name, ClassID: classID, PropID: p.ID})
	return nil
}
