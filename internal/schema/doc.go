// Package schema defines the data model of a goby project: classes, their
// properties, and the junctions that connect them.
//
// A relation is never stored on the record itself. Each relation is a
// Junction with exactly two Sides; a Side names a class and, optionally, the
// relation property through which that class exposes the relation. Because
// junctions are independent records, a relation can be retargeted, merged or
// split after creation without touching the classes involved.
//
// # Relation classification
//
//   - two-way: both sides carry a property id
//   - one-way: exactly one side carries a property id
//   - anonymous: neither side carries a property id
//
// # Matching
//
// The predicates in match.go decide whether two sides or two junctions refer
// to the same logical relationship. PartialMatch is the exclusivity test: at
// most one junction may exist per class pair per shared property.
package schema
