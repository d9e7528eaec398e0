// Package junction stores relation rows.
//
// Every junction record in system_junctionlist owns a table junction_<id>
// with one item-id column per side and an inserted_at column. Column names
// are derived from the sides alone, so a junction table can be read without
// consulting any lookup table:
//
//	class_<class_id>                  anonymous side
//	class_<class_id>_prop_<prop_id>   owned side
//
// Rows are ordered by inserted_at, which is stamped by a Clock.
package junction
