package store

import (
	"context"
	"fmt"

	"github.com/roach88/goby/internal/schema"
)

// CreateRootItem allocates a globally unique item id for a row of class.
// The root entry records the class table it belongs to in its type column.
func (s *Store) CreateRootItem(ctx context.Context, class schema.ClassID) (schema.ItemID, error) {
	res, err := s.q.ExecContext(ctx,
		`INSERT INTO system_root (type) VALUES (?)`, ClassTable(class))
	if err != nil {
		return 0, fmt.Errorf("create root item: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("create root item: last insert id: %w", err)
	}
	return schema.ItemID(id), nil
}

// DeleteRootItem removes an item id from system_root. The class row must be
// deleted first because it references the root entry.
func (s *Store) DeleteRootItem(ctx context.Context, id schema.ItemID) error {
	if _, err := s.q.ExecContext(ctx, `DELETE FROM system_root WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete root item %d: %w", id, err)
	}
	return nil
}

// DeleteRootItemsOfClass removes every root entry created for class.
func (s *Store) DeleteRootItemsOfClass(ctx context.Context, class schema.ClassID) (int64, error) {
	n, err := s.Exec(ctx, `DELETE FROM system_root WHERE type = ?`, ClassTable(class))
	if err != nil {
		return 0, fmt.Errorf("delete root items of class %d: %w", class, err)
	}
	return n, nil
}
