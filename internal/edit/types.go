package edit

import "github.com/roach88/goby/internal/schema"

// ClassEditType is the kind of a class edit.
type ClassEditType string

const (
	ClassCreate          ClassEditType = "create"
	ClassDelete          ClassEditType = "delete"
	ClassModifyAttribute ClassEditType = "modify_attribute"
)

// Class attributes accepted by modify_attribute.
const (
	AttributeColor = "color"
	AttributeLabel = "label"
)

// ClassEdit creates, deletes or restyles a class. Delete and
// modify_attribute identify the class by ClassID or ClassName.
type ClassEdit struct {
	Type      ClassEditType  `json:"type" yaml:"type"`
	ClassID   schema.ClassID `json:"class_id,omitempty" yaml:"class_id,omitempty"`
	ClassName string         `json:"class_name,omitempty" yaml:"class_name,omitempty"`
	Attribute string         `json:"attribute,omitempty" yaml:"attribute,omitempty"`
	Value     any            `json:"value,omitempty" yaml:"value,omitempty"`
}

// PropertyEditType is the kind of a property edit.
type PropertyEditType string

const (
	PropertyCreate PropertyEditType = "create"
	PropertyDelete PropertyEditType = "delete"
	PropertyModify PropertyEditType = "modify"
)

// PropertyConfig describes a property to create or the fields to change.
// A nil MaxValues means the default on create (1 for data, unbounded for
// relations) and no change on modify.
type PropertyConfig struct {
	Type      schema.PropertyKind `json:"type,omitempty" yaml:"type,omitempty"`
	DataType  schema.DataType     `json:"data_type,omitempty" yaml:"data_type,omitempty"`
	MaxValues *schema.MaxValues   `json:"max_values,omitempty" yaml:"max_values,omitempty"`
}

// PropertyEdit creates, deletes or modifies a property. The owning class is
// given by ClassID or by ClassName, which may name a class created earlier
// in the same batch. Delete and modify identify the property by PropID or
// PropName; modify renames it to NewName when set.
type PropertyEdit struct {
	Type      PropertyEditType `json:"type" yaml:"type"`
	ClassID   schema.ClassID   `json:"class_id,omitempty" yaml:"class_id,omitempty"`
	ClassName string           `json:"class_name,omitempty" yaml:"class_name,omitempty"`
	PropID    schema.PropID    `json:"prop_id,omitempty" yaml:"prop_id,omitempty"`
	PropName  string           `json:"prop_name,omitempty" yaml:"prop_name,omitempty"`
	NewName   string           `json:"new_name,omitempty" yaml:"new_name,omitempty"`
	Config    PropertyConfig   `json:"config,omitempty" yaml:"config,omitempty"`
}

// RelationEditType is the kind of a relation edit.
type RelationEditType string

const (
	RelationCreate   RelationEditType = "create"
	RelationDelete   RelationEditType = "delete"
	RelationTransfer RelationEditType = "transfer"
)

// priority orders relation edits during consolidation.
func (t RelationEditType) priority() int {
	switch t {
	case RelationTransfer:
		return 1
	case RelationCreate:
		return 2
	case RelationDelete:
		return 3
	}
	return 4
}

// SideRef names one side of a relation edit. The class is given by ClassID
// or ClassName; the optional owning property by PropID or PropName. Names
// may refer to classes and properties created earlier in the same batch.
type SideRef struct {
	ClassID   schema.ClassID `json:"class_id,omitempty" yaml:"class_id,omitempty"`
	ClassName string         `json:"class_name,omitempty" yaml:"class_name,omitempty"`
	PropID    *schema.PropID `json:"prop_id,omitempty" yaml:"prop_id,omitempty"`
	PropName  string         `json:"prop_name,omitempty" yaml:"prop_name,omitempty"`
}

// RelationEdit creates, deletes or transfers a junction. Create uses Sides.
// Delete and transfer use ID; transfer moves the junction's rows to a new
// junction with NewSides.
type RelationEdit struct {
	Type     RelationEditType  `json:"type" yaml:"type"`
	ID       schema.JunctionID `json:"id,omitempty" yaml:"id,omitempty"`
	Sides    [2]SideRef        `json:"sides,omitempty" yaml:"sides,omitempty"`
	NewSides [2]SideRef        `json:"new_sides,omitempty" yaml:"new_sides,omitempty"`
}

// Batch is one edit_schema call.
type Batch struct {
	ClassEdits    []ClassEdit    `json:"class_edits,omitempty" yaml:"class_edits,omitempty"`
	PropertyEdits []PropertyEdit `json:"property_edits,omitempty" yaml:"property_edits,omitempty"`
	RelationEdits []RelationEdit `json:"relationship_edits,omitempty" yaml:"relationship_edits,omitempty"`
}

// Ref returns a SideRef for an existing side.
func Ref(s schema.Side) SideRef {
	return SideRef{ClassID: s.ClassID, PropID: s.PropID}
}
