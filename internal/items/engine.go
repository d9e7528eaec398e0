package items

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/goby/internal/cache"
	"github.com/roach88/goby/internal/junction"
	"github.com/roach88/goby/internal/querysql"
	"github.com/roach88/goby/internal/schema"
	"github.com/roach88/goby/internal/store"
)

// Engine reads and writes items against the current schema snapshot.
type Engine struct {
	store     *store.Store
	cache     *cache.Cache
	junctions *junction.Store
	compiler  *querysql.SQLCompiler
	logger    *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New creates an Engine.
func New(st *store.Store, c *cache.Cache, js *junction.Store, opts ...Option) *Engine {
	e := &Engine{
		store:     st,
		cache:     c,
		junctions: js,
		compiler:  querysql.NewSQLCompiler(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// class returns a class of the current snapshot or a SCHEMA_INCONSISTENCY
// error.
func (e *Engine) class(snap *cache.Snapshot, id schema.ClassID) (schema.Class, error) {
	c, ok := snap.Class(id)
	if !ok {
		return schema.Class{}, schema.NewInconsistency("class %d not found", id).WithClass(id)
	}
	return c, nil
}

// itemExists reports whether item is a row of class.
func itemExists(ctx context.Context, st *store.Store, class schema.ClassID, item schema.ItemID) (bool, error) {
	rows, err := st.QueryRows(ctx,
		fmt.Sprintf(`SELECT 1 AS found FROM %s WHERE "system_id" = ? LIMIT 1`, store.QuoteIdent(store.ClassTable(class))),
		item)
	if err != nil {
		return false, fmt.Errorf("find item %d of class %d: %w", item, class, err)
	}
	return len(rows) > 0, nil
}

// diagnose logs a non-fatal problem and appends it to diags.
func (e *Engine) diagnose(diags []*schema.Error, err *schema.Error) []*schema.Error {
	e.logger.Warn("item change skipped",
		"code", err.Code,
		"class_id", err.ClassID,
		"error", err.Message,
	)
	return append(diags, err)
}
