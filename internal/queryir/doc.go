// Package queryir describes item retrieval as plain data, independent of the
// SQL that executes it.
//
// The items package builds a plan from the schema cache: the class table, the
// data columns to select, and for every visible relation property the
// junctions that feed it. The querysql package compiles a plan to a single
// parameterized statement.
//
//	[schema snapshot] -> [queryir plan] -> [querysql] -> SQLite
//
// Query is a sealed interface. Only ClassItems and CountItems implement it,
// so compilers can switch exhaustively:
//
//	switch q := query.(type) {
//	case ClassItems:
//	    // rows with relation arrays
//	case CountItems:
//	    // unfiltered row count
//	}
//
// Plans carry storage identifiers (table and column names) rather than user
// names. Validate rejects identifiers outside [a-z0-9_] so that compilers may
// quote them into statement text; values are always bound as parameters.
package queryir
