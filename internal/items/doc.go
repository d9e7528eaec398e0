// Package items reads and writes the rows of user classes.
//
// Rows live in per-class tables; every row is registered in system_root so
// that item ids are unique across classes. Relation values are not stored on
// the row: they are the links held by the junctions touching a relation
// property, and retrieval reassembles them into ordered arrays.
//
// Engine methods read the schema from the cache snapshot. Schema changes go
// through the edit package, which refreshes the cache.
package items
