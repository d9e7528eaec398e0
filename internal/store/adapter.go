package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Row is one result row keyed by column name. TEXT and BLOB values are
// returned as string.
type Row map[string]any

// CreateTable creates a table named <kind>_<name> with raw SQL column
// definitions.
func (s *Store) CreateTable(ctx context.Context, kind TableKind, name string, columns []string) error {
	table := TableName(kind, name)
	stmt := fmt.Sprintf("CREATE TABLE %s (\n\t%s\n)", QuoteIdent(table), strings.Join(columns, ",\n\t"))
	if _, err := s.q.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("create table %s: %w", table, err)
	}
	return nil
}

// AddColumn adds a column to an existing table.
func (s *Store) AddColumn(ctx context.Context, table, column, columnType string) error {
	stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", QuoteIdent(table), QuoteIdent(column), columnType)
	if _, err := s.q.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("add column %s.%s: %w", table, column, err)
	}
	return nil
}

// DropColumn removes a column from an existing table.
func (s *Store) DropColumn(ctx context.Context, table, column string) error {
	stmt := fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", QuoteIdent(table), QuoteIdent(column))
	if _, err := s.q.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("drop column %s.%s: %w", table, column, err)
	}
	return nil
}

// DropTable drops a table. Dropping a table that does not exist is not an error.
func (s *Store) DropTable(ctx context.Context, table string) error {
	if _, err := s.q.ExecContext(ctx, "DROP TABLE IF EXISTS "+QuoteIdent(table)); err != nil {
		return fmt.Errorf("drop table %s: %w", table, err)
	}
	return nil
}

// TableExists reports whether a table with the given name exists.
func (s *Store) TableExists(ctx context.Context, table string) (bool, error) {
	var count int
	err := s.q.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", table,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check table %s: %w", table, err)
	}
	return count > 0, nil
}

// Exec runs a statement and returns the number of affected rows.
func (s *Store) Exec(ctx context.Context, stmt string, args ...any) (int64, error) {
	res, err := s.q.ExecContext(ctx, stmt, args...)
	if err != nil {
		return 0, fmt.Errorf("exec: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("exec: rows affected: %w", err)
	}
	return n, nil
}

// QueryRows runs a query and returns every row as a column map.
//
// Returns an empty slice (not nil) if the query matches nothing.
func (s *Store) QueryRows(ctx context.Context, query string, args ...any) ([]Row, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("query: columns: %w", err)
	}

	result := []Row{}
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("query: scan: %w", err)
		}

		row := make(Row, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
				continue
			}
			row[col] = values[i]
		}
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query: iterate: %w", err)
	}

	return result, nil
}

// LastInsertedID returns the highest row id of a table, which under the
// single-writer model is the id generated by the most recent insert.
// The boolean is false when the table is empty.
func (s *Store) LastInsertedID(ctx context.Context, table string) (int64, bool, error) {
	var id sql.NullInt64
	err := s.q.QueryRowContext(ctx, "SELECT MAX(rowid) FROM "+QuoteIdent(table)).Scan(&id)
	if err != nil {
		return 0, false, fmt.Errorf("last inserted id %s: %w", table, err)
	}
	return id.Int64, id.Valid, nil
}

// NextOrder returns the system_order for a row appended to table: 1000 past
// the current maximum, or 0 for an empty table. The optional filter narrows
// the rows considered.
func (s *Store) NextOrder(ctx context.Context, table, filter string, args ...any) (float64, error) {
	query := "SELECT MAX(system_order) FROM " + QuoteIdent(table)
	if filter != "" {
		query += " WHERE " + filter
	}
	var last sql.NullFloat64
	if err := s.q.QueryRowContext(ctx, query, args...).Scan(&last); err != nil {
		return 0, fmt.Errorf("next order %s: %w", table, err)
	}
	if !last.Valid {
		return 0, nil
	}
	return last.Float64 + 1000, nil
}
