package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/goby/internal/queryir"
)

// insertedAt is the junction column that orders links.
const insertedAt = "inserted_at"

// SQLCompiler compiles retrieval plans to parameterized SQL for SQLite.
//
// Every row query ends in ORDER BY system_order, system_id, and every relation
// array is ordered by (inserted_at, target id), so repeated reads of unchanged
// data return identical results. Identifiers come from a validated plan and
// are quoted; values are always bound as parameters.
type SQLCompiler struct{}

// NewSQLCompiler creates a new SQLCompiler.
func NewSQLCompiler() *SQLCompiler {
	return &SQLCompiler{}
}

// Compile converts a plan to parameterized SQL.
// Returns (sql, params, error) tuple.
func (c *SQLCompiler) Compile(q queryir.Query) (string, []any, error) {
	if err := queryir.Validate(q); err != nil {
		return "", nil, fmt.Errorf("compile: %w", err)
	}

	switch query := q.(type) {
	case queryir.ClassItems:
		return c.compileClassItems(query)
	case *queryir.ClassItems:
		return c.compileClassItems(*query)
	case queryir.CountItems:
		return c.compileCount(query)
	case *queryir.CountItems:
		return c.compileCount(*query)
	default:
		return "", nil, fmt.Errorf("unsupported query type: %T", q)
	}
}

// compileCount counts every row of the class table.
func (c *SQLCompiler) compileCount(q queryir.CountItems) (string, []any, error) {
	return fmt.Sprintf(`SELECT COUNT(*) AS "total" FROM %s`, quote(q.Table)), []any{}, nil
}

// compileClassItems builds one CTE per relation with sources, then selects
// the class rows with those CTEs left-joined by item id.
func (c *SQLCompiler) compileClassItems(q queryir.ClassItems) (string, []any, error) {
	var b strings.Builder
	params := []any{}

	var ctes []string
	for _, r := range q.Relations {
		if len(r.Sources) == 0 {
			continue
		}
		cte, args := c.compileRelation(r)
		ctes = append(ctes, cte)
		params = append(params, args...)
	}
	if len(ctes) > 0 {
		b.WriteString("WITH ")
		b.WriteString(strings.Join(ctes, ",\n"))
		b.WriteString("\n")
	}

	columns := []string{
		`c."system_id" AS "system_id"`,
		`c."system_order" AS "system_order"`,
	}
	for _, col := range q.Columns {
		columns = append(columns, fmt.Sprintf("c.%s AS %s", quote(col), quote(col)))
	}
	for _, r := range q.Relations {
		if len(r.Sources) == 0 {
			columns = append(columns, fmt.Sprintf("'[]' AS %s", quote(r.Alias)))
			continue
		}
		columns = append(columns, fmt.Sprintf(`COALESCE(%s."vals", '[]') AS %s`, quote(cteName(r)), quote(r.Alias)))
	}

	b.WriteString("SELECT ")
	b.WriteString(strings.Join(columns, ", "))
	b.WriteString("\nFROM ")
	b.WriteString(quote(q.Table))
	b.WriteString(" AS c")

	for _, r := range q.Relations {
		if len(r.Sources) == 0 {
			continue
		}
		name := quote(cteName(r))
		fmt.Fprintf(&b, "\nLEFT JOIN %s ON %s.\"own_id\" = c.\"system_id\"", name, name)
	}

	if len(q.ItemIDs) > 0 {
		b.WriteString("\nWHERE c.\"system_id\" IN (")
		b.WriteString(placeholders(len(q.ItemIDs)))
		b.WriteString(")")
		for _, id := range q.ItemIDs {
			params = append(params, id)
		}
	}

	// MANDATORY: rows come back in display order
	b.WriteString("\nORDER BY c.\"system_order\", c.\"system_id\"")

	if q.Limit > 0 {
		b.WriteString("\nLIMIT ? OFFSET ?")
		params = append(params, q.Limit, q.Offset)
	}

	return b.String(), params, nil
}

// compileRelation builds the CTE aggregating one relation property into a
// JSON array per owning item. Each source contributes one SELECT; sources are
// combined with UNION ALL.
func (c *SQLCompiler) compileRelation(r queryir.Relation) (string, []any) {
	var parts []string
	var params []any
	for _, s := range r.Sources {
		sel, args := c.compileSource(s)
		parts = append(parts, sel)
		params = append(params, args...)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s AS (\n", quote(cteName(r)))
	fmt.Fprintf(&b, "  SELECT \"own_id\", json_group_array(json(\"target\") ORDER BY %s, \"target_id\") AS \"vals\"\n", quote(insertedAt))
	b.WriteString("  FROM (\n")
	b.WriteString(strings.Join(parts, "\n    UNION ALL\n"))
	b.WriteString("\n  )\n")
	b.WriteString("  GROUP BY \"own_id\"\n")
	b.WriteString(")")
	return b.String(), params
}

// compileSource selects (own id, target id, insertion time, target object)
// from one junction. The target class id is bound as a parameter.
func (c *SQLCompiler) compileSource(s queryir.Source) (string, []any) {
	own := "j." + quote(s.OwnColumn)
	target := "j." + quote(s.TargetColumn)

	object := fmt.Sprintf("json_object('class_id', ?, 'item_id', %s", target)
	if s.HasLabel() {
		object += ", 'label', t." + quote(s.LabelColumn)
	}
	object += ")"

	var b strings.Builder
	fmt.Fprintf(&b, "    SELECT %s AS \"own_id\", %s AS \"target_id\", j.%s AS %s, %s AS \"target\"\n",
		own, target, quote(insertedAt), quote(insertedAt), object)
	fmt.Fprintf(&b, "    FROM %s AS j", quote(s.Junction))
	if s.HasLabel() {
		fmt.Fprintf(&b, "\n    LEFT JOIN %s AS t ON t.\"system_id\" = %s", quote(s.LabelTable), target)
	}
	return b.String(), []any{s.TargetClass}
}

func cteName(r queryir.Relation) string {
	return "rel_" + r.Alias
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}
