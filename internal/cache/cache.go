// Package cache holds an in-memory snapshot of the persisted schema.
//
// The snapshot is rebuilt from storage by Refresh and is never mutated in
// place, so a Snapshot obtained by a reader stays consistent while the edit
// engine writes.
package cache

import (
	"context"
	"fmt"
	"sync"

	"github.com/roach88/goby/internal/schema"
	"github.com/roach88/goby/internal/store"
)

// Snapshot is an immutable view of every class and junction.
type Snapshot struct {
	Classes   []schema.Class    `json:"classes"`
	Junctions []schema.Junction `json:"junctions"`

	classIndex    map[schema.ClassID]int
	junctionIndex map[schema.JunctionID]int
}

// NewSnapshot builds a snapshot and its lookup indexes.
func NewSnapshot(classes []schema.Class, junctions []schema.Junction) *Snapshot {
	if classes == nil {
		classes = []schema.Class{}
	}
	if junctions == nil {
		junctions = []schema.Junction{}
	}
	s := &Snapshot{
		Classes:       classes,
		Junctions:     junctions,
		classIndex:    make(map[schema.ClassID]int, len(classes)),
		junctionIndex: make(map[schema.JunctionID]int, len(junctions)),
	}
	for i, c := range classes {
		s.classIndex[c.ID] = i
	}
	for i, j := range junctions {
		s.junctionIndex[j.ID] = i
	}
	return s
}

// Class returns the class with the given id.
func (s *Snapshot) Class(id schema.ClassID) (schema.Class, bool) {
	i, ok := s.classIndex[id]
	if !ok {
		return schema.Class{}, false
	}
	return s.Classes[i], true
}

// ClassByName returns the class whose normalized name equals name.
func (s *Snapshot) ClassByName(name string) (schema.Class, bool) {
	name = schema.NormalizeName(name)
	for _, c := range s.Classes {
		if c.Name == name {
			return c, true
		}
	}
	return schema.Class{}, false
}

// Property returns a property of a class.
func (s *Snapshot) Property(class schema.ClassID, prop schema.PropID) (schema.Property, bool) {
	c, ok := s.Class(class)
	if !ok {
		return schema.Property{}, false
	}
	return c.Property(prop)
}

// Junction returns the junction with the given id.
func (s *Snapshot) Junction(id schema.JunctionID) (schema.Junction, bool) {
	i, ok := s.junctionIndex[id]
	if !ok {
		return schema.Junction{}, false
	}
	return s.Junctions[i], true
}

// FindJunction returns the junction whose sides fully match sides.
func (s *Snapshot) FindJunction(sides schema.Sides) (schema.Junction, bool) {
	for _, j := range s.Junctions {
		if schema.FullMatch(j.Sides, sides) {
			return j, true
		}
	}
	return schema.Junction{}, false
}

// JunctionsTouching returns the junctions with a side exactly (class, prop),
// ordered by id.
func (s *Snapshot) JunctionsTouching(class schema.ClassID, prop schema.PropID) []schema.Junction {
	result := []schema.Junction{}
	for _, j := range s.Junctions {
		if j.Touches(class, prop) {
			result = append(result, j)
		}
	}
	return result
}

// JunctionsTouchingClass returns the junctions with any side on class.
func (s *Snapshot) JunctionsTouchingClass(class schema.ClassID) []schema.Junction {
	result := []schema.Junction{}
	for _, j := range s.Junctions {
		if j.TouchesClass(class) {
			result = append(result, j)
		}
	}
	return result
}

// Targets returns the relation targets of a property: the opposite side of
// each junction touching it.
func (s *Snapshot) Targets(class schema.ClassID, prop schema.PropID) []schema.Target {
	targets := []schema.Target{}
	for _, j := range s.Junctions {
		if opp, ok := j.Opposite(class, prop); ok {
			targets = append(targets, schema.Target{Side: opp, JunctionID: j.ID})
		}
	}
	return targets
}

// Cache owns the current snapshot.
type Cache struct {
	store *store.Store

	mu       sync.RWMutex
	snapshot *Snapshot
}

// New creates a cache over st. The snapshot is empty until Refresh is called.
func New(st *store.Store) *Cache {
	return &Cache{store: st, snapshot: NewSnapshot(nil, nil)}
}

// Snapshot returns the current snapshot.
func (c *Cache) Snapshot() *Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot
}

// Refresh reloads classes and junctions from storage and replaces the
// snapshot. Refreshing twice without intervening writes yields equal
// snapshots.
func (c *Cache) Refresh(ctx context.Context) (*Snapshot, error) {
	classes, err := c.store.ListClasses(ctx)
	if err != nil {
		return nil, fmt.Errorf("refresh cache: %w", err)
	}
	junctions, err := c.store.ListJunctions(ctx)
	if err != nil {
		return nil, fmt.Errorf("refresh cache: %w", err)
	}

	snap := NewSnapshot(classes, junctions)

	c.mu.Lock()
	c.snapshot = snap
	c.mu.Unlock()
	return snap, nil
}
