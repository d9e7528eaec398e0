package queryir

// Query is a retrieval plan.
//
// This is a sealed interface - only types in this package implement it.
type Query interface {
	queryNode() // Marker method - seals interface to this package
}

// ClassItems selects the rows of one class table.
//
// Semantics:
//
//	SELECT system_id, system_order, <columns>, <relation arrays>
//	FROM <table>
//	[WHERE system_id IN <item ids>]
//	ORDER BY system_order, system_id
//	[LIMIT <limit> OFFSET <offset>]
//
// Each relation is returned as a JSON array of targets ordered by link
// insertion time. A relation without sources is always an empty array.
type ClassItems struct {
	Table     string     // class table, e.g. "class_1"
	Columns   []string   // data columns, output under their own names
	Relations []Relation // relation arrays, output under Relation.Alias
	ItemIDs   []int64    // restrict to these item ids; empty means all rows
	Limit     int        // page size; 0 means no limit
	Offset    int        // rows skipped; requires Limit
}

func (ClassItems) queryNode() {}

// Relation is one relation property of the selected class.
type Relation struct {
	Alias   string   // output column, e.g. "prop_3"
	Sources []Source // one per junction touching the property
}

// Source reads the targets of a relation property from one junction.
//
// OwnColumn holds the ids of the selected class's items, TargetColumn the ids
// of the opposite side's items. When the target class has a label property,
// LabelTable and LabelColumn name where to read it from.
type Source struct {
	Junction     string // junction table, e.g. "junction_1"
	OwnColumn    string
	TargetColumn string
	TargetClass  int64
	LabelTable   string
	LabelColumn  string
}

// HasLabel reports whether the source reads a target label.
func (s Source) HasLabel() bool {
	return s.LabelTable != "" && s.LabelColumn != ""
}

// CountItems counts every row of a class table, ignoring pagination and item
// filters.
type CountItems struct {
	Table string
}

func (CountItems) queryNode() {}
