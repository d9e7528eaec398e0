// Package project opens a goby database and exposes schema editing and item
// operations over it.
package project

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/goby/internal/cache"
	"github.com/roach88/goby/internal/edit"
	"github.com/roach88/goby/internal/items"
	"github.com/roach88/goby/internal/junction"
	"github.com/roach88/goby/internal/schema"
	"github.com/roach88/goby/internal/store"
)

// Project owns the store, the schema cache and the engines working on them.
//
// A Project is not safe for concurrent use.
type Project struct {
	store  *store.Store
	cache  *cache.Cache
	edits  *edit.Engine
	items  *items.Engine
	logger *slog.Logger
}

type config struct {
	logger   *slog.Logger
	clock    junction.Clock
	batchIDs edit.BatchIDGenerator
}

// Option configures a Project.
type Option func(*config)

// WithLogger sets the logger passed to every engine. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithClock sets the clock stamping new links. Default: junction.NewWallClock().
func WithClock(clock junction.Clock) Option {
	return func(c *config) {
		c.clock = clock
	}
}

// WithBatchIDGenerator sets the generator of edit batch ids.
// Default: edit.UUIDv7Generator.
func WithBatchIDGenerator(gen edit.BatchIDGenerator) Option {
	return func(c *config) {
		c.batchIDs = gen
	}
}

// Open opens or creates the database at path and loads its schema.
func Open(ctx context.Context, path string, opts ...Option) (*Project, error) {
	cfg := &config{
		logger:   slog.Default(),
		batchIDs: edit.UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	st, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open project: %w", err)
	}

	c := cache.New(st)
	if _, err := c.Refresh(ctx); err != nil {
		st.Close()
		return nil, fmt.Errorf("open project: %w", err)
	}

	js := junction.New(st, cfg.clock)
	p := &Project{
		store: st,
		cache: c,
		edits: edit.New(st, c, js,
			edit.WithLogger(cfg.logger),
			edit.WithBatchIDGenerator(cfg.batchIDs),
		),
		items:  items.New(st, c, js, items.WithLogger(cfg.logger)),
		logger: cfg.logger,
	}
	p.logger.Debug("project opened", "path", path, "classes", len(c.Snapshot().Classes))
	return p, nil
}

// Close closes the database.
func (p *Project) Close() error {
	return p.store.Close()
}

// Snapshot returns the current schema.
func (p *Project) Snapshot() *cache.Snapshot {
	return p.cache.Snapshot()
}

// EditSchema applies one batch of class, property and relation edits.
func (p *Project) EditSchema(ctx context.Context, batch edit.Batch) (*edit.Report, error) {
	return p.edits.Apply(ctx, batch)
}

// AddRow appends an item to a class.
func (p *Project) AddRow(ctx context.Context, class schema.ClassID, initial []items.ValueChange) (schema.ItemID, []*schema.Error, error) {
	return p.items.AddRow(ctx, class, initial)
}

// SetPropertyValues updates data properties of an item.
func (p *Project) SetPropertyValues(ctx context.Context, class schema.ClassID, item schema.ItemID, changes []items.ValueChange) ([]*schema.Error, error) {
	return p.items.SetPropertyValues(ctx, class, item, changes)
}

// DeleteRow removes an item and its links.
func (p *Project) DeleteRow(ctx context.Context, class schema.ClassID, item schema.ItemID) error {
	return p.items.DeleteRow(ctx, class, item)
}

// EditRelations adds and removes links between items.
func (p *Project) EditRelations(ctx context.Context, changes []items.RelationChange) ([]*schema.Error, error) {
	return p.items.EditRelations(ctx, changes)
}

// RetrieveClassItems loads a page of items of a class.
func (p *Project) RetrieveClassItems(ctx context.Context, class schema.ClassID, pagination items.Pagination) (*items.PaginatedItems, error) {
	return p.items.RetrieveClassItems(ctx, class, pagination)
}

// RetrieveAllClasses returns every class, loading items as selected by include.
func (p *Project) RetrieveAllClasses(ctx context.Context, include items.Include) ([]items.ClassData, error) {
	return p.items.RetrieveAllClasses(ctx, include)
}
