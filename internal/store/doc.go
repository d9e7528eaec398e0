// Package store provides the SQLite-backed storage adapter for goby projects.
//
// The store owns four system tables and any number of user tables:
//   - system_root: every item id, regardless of class
//   - system_classlist: one row per class (name, metadata, next property id)
//   - system_properties: one row per property, keyed by (class_id, id)
//   - system_junctionlist: one row per junction (two sides)
//   - class_<id>: one row per item of the class, one column per data property
//   - junction_<id>: one row per link between two items
//
// The store never decides anything about schema semantics. It executes DDL
// and DML on behalf of the edit engine, the junction store and the item
// retrieval engine, and maps system rows to schema types.
//
// # Critical Patterns
//
// Ids are never reused: system_root, system_classlist and
// system_junctionlist use AUTOINCREMENT, and property ids are allocated from
// system_classlist.next_prop_id.
//
// All reads of system tables are ordered (ORDER BY id or system_order, id)
// so that refreshing the schema cache twice yields identical contents.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//   - One open connection: the engine is a single writer
package store
