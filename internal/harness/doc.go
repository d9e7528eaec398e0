// Package harness runs goby scenarios: YAML files that edit a schema, add
// and link items, and assert on the resulting state.
//
// # Scenario Format
//
//	name: author_book
//	description: "Authors own their works"
//	steps:
//	  - edit_schema:
//	      class_edits:
//	        - {type: create, class_name: Author}
//	      property_edits:
//	        - type: create
//	          class_name: Author
//	          prop_name: works
//	          config: {type: relation}
//	  - add_row:
//	      class: Author
//	      as: ursula
//	      values: {Name: Ursula}
//	  - link:
//	      - {class: Author, prop: works, item: ursula}
//	      - {class: Book, prop: author, item: earthsea}
//	    expect:
//	      diagnostics: [CARDINALITY_EXCEEDED]
//	assertions:
//	  - type: value
//	    class: Author
//	    item: ursula
//	    prop: Name
//	    equals: Ursula
//
// Items are referenced by the alias given with "as" or by numeric id.
// Classes and properties are referenced by name or id.
//
// A step without an expect clause must succeed without diagnostics.
//
// # Assertion Types
//
//   - value: the value of a data property of an item
//   - relation: the targets of a relation property, in link order
//   - item_count: the number of items of a class
//   - junction_count: the number of junctions in the schema
//   - properties: the property names of a class, in order
//   - classes: every class name, in order
//
// # Deterministic Testing
//
// Every scenario runs against a fresh in-memory database with a fixed
// batch id and a deterministic link clock, so Dump output is identical
// across runs and can be compared against golden files.
package harness
