package schema

import "fmt"

// ClassID identifies a class. Class ids are globally unique and never reused.
type ClassID int64

// PropID identifies a property within its class. Property ids are unique
// only within the owning class.
type PropID int64

// JunctionID identifies a junction record and its storage table.
type JunctionID int64

// ItemID identifies an item (a row of some class) in the root item table.
type ItemID int64

// PropertyKind distinguishes data properties from relation properties.
type PropertyKind string

const (
	KindData     PropertyKind = "data"
	KindRelation PropertyKind = "relation"
)

// DataType is the value type of a data property.
type DataType string

const (
	TypeString   DataType = "string"
	TypeResource DataType = "resource"
	TypeNumber   DataType = "number"
	TypeBoolean  DataType = "boolean"
)

// Valid reports whether t is a known data type.
func (t DataType) Valid() bool {
	switch t {
	case TypeString, TypeResource, TypeNumber, TypeBoolean:
		return true
	}
	return false
}

// MaxValues is the cardinality limit of a property. Unbounded (zero) means
// any number of values.
type MaxValues int

// Unbounded is the MaxValues of a property with no cardinality limit.
const Unbounded MaxValues = 0

// Multiple reports whether a property with this limit holds a list of values.
func (m MaxValues) Multiple() bool {
	return m == Unbounded || m > 1
}

// Allows reports whether n values fit within the limit.
func (m MaxValues) Allows(n int) bool {
	return m == Unbounded || n <= int(m)
}

// Property is a named field on a class.
//
// Relation properties do not store their targets; targets are derived from
// the junctions that reference (class id, property id).
type Property struct {
	ID        PropID       `json:"id"`
	Name      string       `json:"name"`
	Kind      PropertyKind `json:"type"`
	DataType  DataType     `json:"data_type,omitempty"`
	MaxValues MaxValues    `json:"max_values"`
	Order     float64      `json:"order"`
}

// IsRelation reports whether p is a relation property.
func (p Property) IsRelation() bool {
	return p.Kind == KindRelation
}

// Style holds display attributes of a class.
type Style struct {
	Color string `json:"color,omitempty"`
}

// Class is a user-defined record type.
type Class struct {
	ID               ClassID    `json:"id"`
	Name             string     `json:"name"`
	Properties       []Property `json:"properties"`
	LabelPropertyIDs []PropID   `json:"label_property_ids"`
	Style            Style      `json:"style"`
}

// Property returns the property with the given id.
func (c Class) Property(id PropID) (Property, bool) {
	for _, p := range c.Properties {
		if p.ID == id {
			return p, true
		}
	}
	return Property{}, false
}

// PropertyByName returns the property whose normalized name equals name.
func (c Class) PropertyByName(name string) (Property, bool) {
	name = NormalizeName(name)
	for _, p := range c.Properties {
		if p.Name == name {
			return p, true
		}
	}
	return Property{}, false
}

// LabelProperty returns the first label property of the class, if it exists.
func (c Class) LabelProperty() (Property, bool) {
	if len(c.LabelPropertyIDs) == 0 {
		return Property{}, false
	}
	return c.Property(c.LabelPropertyIDs[0])
}

// Side is one endpoint of a relation. A side with a property id is owned:
// the class exposes the relation through that property. A side without one
// is anonymous.
type Side struct {
	ClassID ClassID `json:"class_id"`
	PropID  *PropID `json:"prop_id,omitempty"`
}

// OwnedSide returns a side exposed through property prop of class class.
func OwnedSide(class ClassID, prop PropID) Side {
	return Side{ClassID: class, PropID: &prop}
}

// AnonymousSide returns a side of class class with no owning property.
func AnonymousSide(class ClassID) Side {
	return Side{ClassID: class}
}

// HasProp reports whether the side is owned.
func (s Side) HasProp() bool {
	return s.PropID != nil
}

// Prop returns the owning property id and whether the side is owned.
func (s Side) Prop() (PropID, bool) {
	if s.PropID == nil {
		return 0, false
	}
	return *s.PropID, true
}

// Is reports whether the side is exactly (class, prop).
func (s Side) Is(class ClassID, prop PropID) bool {
	return s.ClassID == class && s.PropID != nil && *s.PropID == prop
}

func (s Side) String() string {
	if s.PropID == nil {
		return fmt.Sprintf("class %d", s.ClassID)
	}
	return fmt.Sprintf("class %d prop %d", s.ClassID, *s.PropID)
}

// Sides is the ordered pair of sides of a junction. Order is insignificant
// for matching but fixes the storage column order.
type Sides [2]Side

func (s Sides) String() string {
	return fmt.Sprintf("[%s <-> %s]", s[0], s[1])
}

// Junction is a two-sided relation record.
type Junction struct {
	ID    JunctionID `json:"id"`
	Sides Sides      `json:"sides"`
}

// Touches reports whether either side of the junction is exactly (class, prop).
func (j Junction) Touches(class ClassID, prop PropID) bool {
	return j.Sides[0].Is(class, prop) || j.Sides[1].Is(class, prop)
}

// TouchesClass reports whether either side of the junction is on class.
func (j Junction) TouchesClass(class ClassID) bool {
	return j.Sides[0].ClassID == class || j.Sides[1].ClassID == class
}

// Opposite returns the side facing (class, prop) and whether (class, prop)
// is one of the junction's sides.
func (j Junction) Opposite(class ClassID, prop PropID) (Side, bool) {
	switch {
	case j.Sides[0].Is(class, prop):
		return j.Sides[1], true
	case j.Sides[1].Is(class, prop):
		return j.Sides[0], true
	}
	return Side{}, false
}

// Target is a relation target of a relation property: the opposite side of
// one junction touching the property.
type Target struct {
	Side
	JunctionID JunctionID `json:"junction_id"`
}
