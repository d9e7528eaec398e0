package edit

import (
	"github.com/roach88/goby/internal/cache"
	"github.com/roach88/goby/internal/schema"
)

// symbols maps names to ids while a batch runs. It starts from the cached
// schema and is updated as classes and properties are created, renamed or
// deleted, so later edits can refer to them by name.
type symbols struct {
	classes map[schema.ClassID]*classSymbol
	names   map[string]schema.ClassID
}

type classSymbol struct {
	name   string
	props  []schema.Property
	labels []schema.PropID
	style  schema.Style
}

func newSymbols(snap *cache.Snapshot) *symbols {
	s := &symbols{
		classes: make(map[schema.ClassID]*classSymbol, len(snap.Classes)),
		names:   make(map[string]schema.ClassID, len(snap.Classes)),
	}
	for _, c := range snap.Classes {
		props := make([]schema.Property, len(c.Properties))
		copy(props, c.Properties)
		labels := make([]schema.PropID, len(c.LabelPropertyIDs))
		copy(labels, c.LabelPropertyIDs)
		s.classes[c.ID] = &classSymbol{name: c.Name, props: props, labels: labels, style: c.Style}
		s.names[c.Name] = c.ID
	}
	return s
}

func (s *symbols) addClass(id schema.ClassID, name string) *classSymbol {
	sym := &classSymbol{name: name}
	s.classes[id] = sym
	s.names[name] = id
	return sym
}

func (s *symbols) removeClass(id schema.ClassID) {
	if sym, ok := s.classes[id]; ok {
		delete(s.names, sym.name)
		delete(s.classes, id)
	}
}

func (s *symbols) hasClassName(name string) bool {
	_, ok := s.names[name]
	return ok
}

// class resolves a class by id, or by name when id is zero.
func (s *symbols) class(id schema.ClassID, name string) (schema.ClassID, *classSymbol, bool) {
	if id == 0 {
		var ok bool
		if id, ok = s.names[schema.NormalizeName(name)]; !ok {
			return 0, nil, false
		}
	}
	sym, ok := s.classes[id]
	return id, sym, ok
}

// prop resolves a property by id, or by name when id is zero.
func (c *classSymbol) prop(id schema.PropID, name string) (schema.Property, bool) {
	if id == 0 {
		return c.propByName(schema.NormalizeName(name))
	}
	for _, p := range c.props {
		if p.ID == id {
			return p, true
		}
	}
	return schema.Property{}, false
}

func (c *classSymbol) propByName(name string) (schema.Property, bool) {
	for _, p := range c.props {
		if p.Name == name {
			return p, true
		}
	}
	return schema.Property{}, false
}

func (c *classSymbol) putProp(p schema.Property) {
	for i := range c.props {
		if c.props[i].ID == p.ID {
			c.props[i] = p
			return
		}
	}
	c.props = append(c.props, p)
}

func (c *classSymbol) removeProp(id schema.PropID) {
	for i := range c.props {
		if c.props[i].ID == id {
			c.props = append(c.props[:i], c.props[i+1:]...)
			break
		}
	}
	for i := range c.labels {
		if c.labels[i] == id {
			c.labels = append(c.labels[:i], c.labels[i+1:]...)
			break
		}
	}
}

func (c *classSymbol) isLabel(id schema.PropID) bool {
	for _, l := range c.labels {
		if l == id {
			return true
		}
	}
	return false
}

// side resolves a side reference. Ids are taken as given and checked during
// consolidation; names must resolve.
func (s *symbols) side(ref SideRef) (schema.Side, *schema.Error) {
	if ref.ClassID == 0 && ref.ClassName == "" {
		return schema.Side{}, schema.NewInvalidEdit("relation side names no class")
	}

	classID := ref.ClassID
	var sym *classSymbol
	if classID == 0 {
		var ok bool
		classID, sym, ok = s.class(0, ref.ClassName)
		if !ok {
			return schema.Side{}, schema.NewInvalidEdit("relation side class %q does not exist", ref.ClassName)
		}
	}

	switch {
	case ref.PropID != nil:
		return schema.OwnedSide(classID, *ref.PropID), nil
	case ref.PropName != "":
		if sym == nil {
			var ok bool
			if _, sym, ok = s.class(classID, ""); !ok {
				return schema.Side{}, schema.NewInvalidEdit("relation side class does not exist").WithClass(classID)
			}
		}
		p, ok := sym.propByName(schema.NormalizeName(ref.PropName))
		if !ok {
			return schema.Side{}, schema.NewInvalidEdit("relation side property %q does not exist", ref.PropName).WithClass(classID)
		}
		return schema.OwnedSide(classID, p.ID), nil
	}
	return schema.AnonymousSide(classID), nil
}

// relation resolves a relation edit into an op.
func (s *symbols) relation(snap *cache.Snapshot, e RelationEdit) (Op, *schema.Error) {
	switch e.Type {
	case RelationCreate:
		var sides schema.Sides
		for i, ref := range e.Sides {
			side, err := s.side(ref)
			if err != nil {
				return Op{}, err
			}
			sides[i] = side
		}
		return CreateOp(sides), nil

	case RelationDelete:
		if e.ID == 0 {
			return Op{}, schema.NewInvalidEdit("relation delete names no junction")
		}
		return DeleteOp(e.ID), nil

	case RelationTransfer:
		if e.ID == 0 {
			return Op{}, schema.NewInvalidEdit("relation transfer names no junction")
		}
		j, ok := snap.Junction(e.ID)
		if !ok {
			return Op{}, schema.NewInconsistency("junction %d does not exist", e.ID).WithJunction(e.ID)
		}
		var sides schema.Sides
		for i, ref := range e.NewSides {
			side, err := s.side(ref)
			if err != nil {
				return Op{}, err
			}
			sides[i] = side
		}
		return TransferOp(j, sides), nil
	}
	return Op{}, schema.NewInvalidEdit("unknown relation edit type %q", e.Type)
}
