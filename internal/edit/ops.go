package edit

import (
	"fmt"

	"github.com/roach88/goby/internal/schema"
)

// Op is a relation edit with every side resolved to ids.
//
// For a create, Sides are the new junction's sides. For a transfer, Sides
// are the source junction's sides and NewSides the destination's. A delete
// uses only ID.
type Op struct {
	Type     RelationEditType  `json:"type"`
	ID       schema.JunctionID `json:"id,omitempty"`
	Sides    schema.Sides      `json:"sides"`
	NewSides schema.Sides      `json:"new_sides"`
}

// target returns the sides an op leaves in place once executed.
func (o Op) target() schema.Sides {
	if o.Type == RelationTransfer {
		return o.NewSides
	}
	return o.Sides
}

func (o Op) String() string {
	switch o.Type {
	case RelationCreate:
		return fmt.Sprintf("create %s", o.Sides)
	case RelationDelete:
		return fmt.Sprintf("delete junction %d", o.ID)
	case RelationTransfer:
		return fmt.Sprintf("transfer junction %d %s to %s", o.ID, o.Sides, o.NewSides)
	}
	return string(o.Type)
}

// CreateOp returns a create op for sides.
func CreateOp(sides schema.Sides) Op {
	return Op{Type: RelationCreate, Sides: sides}
}

// DeleteOp returns a delete op for junction id.
func DeleteOp(id schema.JunctionID) Op {
	return Op{Type: RelationDelete, ID: id}
}

// TransferOp returns an op moving the rows of j to a junction with newSides.
func TransferOp(j schema.Junction, newSides schema.Sides) Op {
	return Op{Type: RelationTransfer, ID: j.ID, Sides: j.Sides, NewSides: newSides}
}
