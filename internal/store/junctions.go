package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/goby/internal/schema"
)

// InsertJunction registers a junction in system_junctionlist and returns its id.
func (s *Store) InsertJunction(ctx context.Context, sides schema.Sides) (schema.JunctionID, error) {
	res, err := s.q.ExecContext(ctx, `
		INSERT INTO system_junctionlist
		(side_0_class_id, side_0_prop_id, side_1_class_id, side_1_prop_id)
		VALUES (?, ?, ?, ?)
	`, sides[0].ClassID, nullableProp(sides[0]), sides[1].ClassID, nullableProp(sides[1]))
	if err != nil {
		return 0, fmt.Errorf("insert junction: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert junction: last insert id: %w", err)
	}
	return schema.JunctionID(id), nil
}

// DeleteJunction removes a junction record. The junction table is dropped
// separately.
func (s *Store) DeleteJunction(ctx context.Context, id schema.JunctionID) error {
	if _, err := s.q.ExecContext(ctx, `DELETE FROM system_junctionlist WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete junction %d: %w", id, err)
	}
	return nil
}

// ListJunctions returns every junction record ordered by id.
//
// Returns an empty slice (not nil) if there are no junctions.
func (s *Store) ListJunctions(ctx context.Context) ([]schema.Junction, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT id, side_0_class_id, side_0_prop_id, side_1_class_id, side_1_prop_id
		FROM system_junctionlist
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query junctions: %w", err)
	}
	defer rows.Close()

	junctions := []schema.Junction{}
	for rows.Next() {
		var j schema.Junction
		var p0, p1 sql.NullInt64
		if err := rows.Scan(&j.ID, &j.Sides[0].ClassID, &p0, &j.Sides[1].ClassID, &p1); err != nil {
			return nil, fmt.Errorf("scan junction: %w", err)
		}
		j.Sides[0].PropID = propFromNull(p0)
		j.Sides[1].PropID = propFromNull(p1)
		junctions = append(junctions, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate junctions: %w", err)
	}
	return junctions, nil
}

func nullableProp(s schema.Side) any {
	if p, ok := s.Prop(); ok {
		return int64(p)
	}
	return nil
}

func propFromNull(v sql.NullInt64) *schema.PropID {
	if !v.Valid {
		return nil
	}
	p := schema.PropID(v.Int64)
	return &p
}
