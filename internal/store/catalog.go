package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/goby/internal/schema"
)

// InsertClass registers a class in system_classlist and returns its id.
// Only the name and metadata of c are stored; properties are inserted
// separately with InsertProperty.
func (s *Store) InsertClass(ctx context.Context, c schema.Class) (schema.ClassID, error) {
	meta, err := marshalClassMetadata(c)
	if err != nil {
		return 0, fmt.Errorf("insert class: %w", err)
	}

	res, err := s.q.ExecContext(ctx,
		`INSERT INTO system_classlist (name, metadata) VALUES (?, ?)`,
		c.Name, meta,
	)
	if err != nil {
		return 0, fmt.Errorf("insert class: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert class: last insert id: %w", err)
	}
	return schema.ClassID(id), nil
}

// UpdateClassMetadata stores the style and label properties of c.
// Class names are immutable.
func (s *Store) UpdateClassMetadata(ctx context.Context, c schema.Class) error {
	meta, err := marshalClassMetadata(c)
	if err != nil {
		return fmt.Errorf("update class: %w", err)
	}
	n, err := s.Exec(ctx, `UPDATE system_classlist SET metadata = ? WHERE id = ?`, meta, c.ID)
	if err != nil {
		return fmt.Errorf("update class %d: %w", c.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("update class %d: %w", c.ID, sql.ErrNoRows)
	}
	return nil
}

// DeleteClass removes a class row. Its property rows are removed by the
// ON DELETE CASCADE constraint.
func (s *Store) DeleteClass(ctx context.Context, id schema.ClassID) error {
	if _, err := s.q.ExecContext(ctx, `DELETE FROM system_classlist WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete class %d: %w", id, err)
	}
	return nil
}

// ListClasses returns every class with its properties.
//
// Classes are ordered by id and properties by (system_order, id), so two
// calls without intervening writes return identical results.
func (s *Store) ListClasses(ctx context.Context) ([]schema.Class, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT id, name, metadata
		FROM system_classlist
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query classes: %w", err)
	}
	defer rows.Close()

	classes := []schema.Class{}
	index := make(map[schema.ClassID]int)
	for rows.Next() {
		var c schema.Class
		var meta string
		if err := rows.Scan(&c.ID, &c.Name, &meta); err != nil {
			return nil, fmt.Errorf("scan class: %w", err)
		}
		if err := unmarshalClassMetadata(meta, &c); err != nil {
			return nil, fmt.Errorf("class %d: %w", c.ID, err)
		}
		c.Properties = []schema.Property{}
		index[c.ID] = len(classes)
		classes = append(classes, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate classes: %w", err)
	}

	props, err := s.listProperties(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range props {
		i, ok := index[p.classID]
		if !ok {
			continue
		}
		classes[i].Properties = append(classes[i].Properties, p.Property)
	}

	return classes, nil
}

type classProperty struct {
	classID schema.ClassID
	schema.Property
}

func (s *Store) listProperties(ctx context.Context) ([]classProperty, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT class_id, id, system_order, name, type, data_type, max_values
		FROM system_properties
		ORDER BY class_id ASC, system_order ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query properties: %w", err)
	}
	defer rows.Close()

	var props []classProperty
	for rows.Next() {
		var p classProperty
		var kind string
		var dataType sql.NullString
		if err := rows.Scan(&p.classID, &p.ID, &p.Order, &p.Name, &kind, &dataType, &p.MaxValues); err != nil {
			return nil, fmt.Errorf("scan property: %w", err)
		}
		p.Kind = schema.PropertyKind(kind)
		if dataType.Valid {
			p.DataType = schema.DataType(dataType.String)
		}
		props = append(props, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate properties: %w", err)
	}
	return props, nil
}

// InsertProperty registers a property on a class and returns its id.
//
// The id comes from system_classlist.next_prop_id, so ids of deleted
// properties are never handed out again and junctions that referenced them
// cannot be confused with a new property. p.ID and p.Order are ignored; the
// property is appended after the existing ones.
func (s *Store) InsertProperty(ctx context.Context, class schema.ClassID, p schema.Property) (schema.PropID, error) {
	var id schema.PropID
	err := s.InTx(ctx, func(tx *Store) error {
		err := tx.q.QueryRowContext(ctx, `
			UPDATE system_classlist
			SET next_prop_id = next_prop_id + 1
			WHERE id = ?
			RETURNING next_prop_id - 1
		`, class).Scan(&id)
		if err != nil {
			return fmt.Errorf("allocate property id: %w", err)
		}

		order, err := tx.NextOrder(ctx, "system_properties", "class_id = ?", class)
		if err != nil {
			return err
		}

		var dataType any
		if p.Kind == schema.KindData {
			dataType = string(p.DataType)
		}

		_, err = tx.q.ExecContext(ctx, `
			INSERT INTO system_properties
			(class_id, id, system_order, name, type, data_type, max_values)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, class, id, order, p.Name, string(p.Kind), dataType, int(p.MaxValues))
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("insert property on class %d: %w", class, err)
	}
	return id, nil
}

// UpdateProperty stores the name and max_values of an existing property.
func (s *Store) UpdateProperty(ctx context.Context, class schema.ClassID, p schema.Property) error {
	n, err := s.Exec(ctx, `
		UPDATE system_properties SET name = ?, max_values = ?
		WHERE class_id = ? AND id = ?
	`, p.Name, int(p.MaxValues), class, p.ID)
	if err != nil {
		return fmt.Errorf("update property %d on class %d: %w", p.ID, class, err)
	}
	if n == 0 {
		return fmt.Errorf("update property %d on class %d: %w", p.ID, class, sql.ErrNoRows)
	}
	return nil
}

// DeleteProperty removes a property row.
func (s *Store) DeleteProperty(ctx context.Context, class schema.ClassID, prop schema.PropID) error {
	_, err := s.q.ExecContext(ctx,
		`DELETE FROM system_properties WHERE class_id = ? AND id = ?`, class, prop)
	if err != nil {
		return fmt.Errorf("delete property %d on class %d: %w", prop, class, err)
	}
	return nil
}
