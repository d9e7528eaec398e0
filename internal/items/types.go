package items

import "github.com/roach88/goby/internal/schema"

// Range modes of PropertyRange.
const (
	RangeAll  = "all"
	RangeSlim = "slim"
	RangeIDs  = "ids"
)

// PropertyRange selects the properties returned for each item.
//
// RangeAll returns every property, RangeSlim only the label properties and
// RangeIDs the properties listed in IDs. An empty mode means RangeAll.
type PropertyRange struct {
	Mode string          `json:"mode"`
	IDs  []schema.PropID `json:"ids,omitempty"`
}

// Pagination controls which items and properties a retrieval loads.
//
// PageSize 0 loads every item. Pages are numbered from 1; Page 0 is the
// first page. ItemIDs, when non-nil, restricts loading to those items.
type Pagination struct {
	PageSize      int             `json:"page_size"`
	Page          int             `json:"page"`
	PropertyRange PropertyRange   `json:"property_range"`
	ItemIDs       []schema.ItemID `json:"item_range,omitempty"`
}

// Item is one loaded row. Values are keyed by property name.
//
// Data values are nil when unset, a []any for multi-valued properties and a
// scalar otherwise. Relation values are always a []RelationEntry.
type Item struct {
	ID     schema.ItemID  `json:"id"`
	Order  float64        `json:"order"`
	Values map[string]any `json:"values"`
}

// RelationEntry is one target of a relation value, in link insertion order.
// Label holds the first label property of the target when the target class
// has one.
type RelationEntry struct {
	ClassID schema.ClassID `json:"class_id"`
	ItemID  schema.ItemID  `json:"item_id"`
	Label   any            `json:"label,omitempty"`
}

// PaginatedItems is the result of a retrieval. Total counts every row of the
// class regardless of pagination and item filter.
type PaginatedItems struct {
	Pagination
	Loaded []Item `json:"loaded"`
	Total  int    `json:"total"`
}

// ValueChange sets one data property of an item. A nil Value clears it.
type ValueChange struct {
	PropID schema.PropID `json:"prop_id"`
	Value  any           `json:"value"`
}

// Relation change kinds.
const (
	ChangeAdd    = "add"
	ChangeRemove = "remove"
)

// ItemSide is one endpoint of a link: an item and the relation side it is
// linked through.
type ItemSide struct {
	ClassID schema.ClassID `json:"class_id"`
	PropID  *schema.PropID `json:"prop_id,omitempty"`
	ItemID  schema.ItemID  `json:"item_id"`
}

// Side returns the relation side of s.
func (s ItemSide) Side() schema.Side {
	return schema.Side{ClassID: s.ClassID, PropID: s.PropID}
}

// RelationChange adds or removes one link.
type RelationChange struct {
	Change string      `json:"change"`
	Sides  [2]ItemSide `json:"sides"`
}

// ClassPagination requests items for one class in RetrieveAllClasses.
type ClassPagination struct {
	ClassID    schema.ClassID `json:"class_id"`
	Pagination Pagination     `json:"pagination"`
}

// Include selects which classes RetrieveAllClasses loads items for.
// AllItems applies to every class and takes precedence over ItemsByClass.
// Classes not covered get an empty item list.
type Include struct {
	AllItems     *Pagination       `json:"all_items,omitempty"`
	ItemsByClass []ClassPagination `json:"items_by_class,omitempty"`
}

func (in Include) pagination(class schema.ClassID) (Pagination, bool) {
	if in.AllItems != nil {
		return *in.AllItems, true
	}
	for _, cp := range in.ItemsByClass {
		if cp.ClassID == class {
			return cp.Pagination, true
		}
	}
	return Pagination{}, false
}

// PropertyData is a property with, for relation properties, the opposite
// side of every junction touching it.
type PropertyData struct {
	schema.Property
	Targets []schema.Target `json:"targets,omitempty"`
}

// ClassData is a class with its properties and, when requested, its items.
type ClassData struct {
	ID               schema.ClassID  `json:"id"`
	Name             string          `json:"name"`
	Style            schema.Style    `json:"style"`
	LabelPropertyIDs []schema.PropID `json:"label_property_ids"`
	Properties       []PropertyData  `json:"properties"`
	Items            PaginatedItems  `json:"items"`
}
