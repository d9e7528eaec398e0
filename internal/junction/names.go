package junction

import (
	"fmt"

	"github.com/roach88/goby/internal/schema"
	"github.com/roach88/goby/internal/store"
)

// InsertedAtColumn orders the rows of a junction table.
const InsertedAtColumn = "inserted_at"

// Table returns the name of the storage table of a junction.
func Table(id schema.JunctionID) string {
	return store.TableName(store.KindJunction, fmt.Sprint(id))
}

// SideColumn returns the item-id column name for a side.
func SideColumn(s schema.Side) string {
	if p, ok := s.Prop(); ok {
		return fmt.Sprintf("class_%d_prop_%d", s.ClassID, p)
	}
	return fmt.Sprintf("class_%d", s.ClassID)
}

// Columns returns the item-id column names of a junction in side order.
func Columns(sides schema.Sides) [2]string {
	return [2]string{SideColumn(sides[0]), SideColumn(sides[1])}
}
