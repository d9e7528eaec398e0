package edit

import (
	"context"
	"log/slog"

	"github.com/roach88/goby/internal/cache"
	"github.com/roach88/goby/internal/junction"
	"github.com/roach88/goby/internal/schema"
	"github.com/roach88/goby/internal/store"
)

// DefaultLabelName is the data property every new class starts with. It is
// the class's label property until changed with modify_attribute.
const DefaultLabelName = "Name"

// Engine applies schema edit batches. It is the only writer of the schema
// and refreshes the cache after every stage that changes it.
//
// An Engine is not safe for concurrent use; callers apply one batch at a time.
type Engine struct {
	store     *store.Store
	cache     *cache.Cache
	junctions *junction.Store
	batchIDs  BatchIDGenerator
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

// WithBatchIDGenerator sets the batch id generator. Default: UUIDv7Generator.
func WithBatchIDGenerator(gen BatchIDGenerator) Option {
	return func(e *Engine) {
		e.batchIDs = gen
	}
}

// New creates an Engine.
func New(st *store.Store, c *cache.Cache, js *junction.Store, opts ...Option) *Engine {
	e := &Engine{
		store:     st,
		cache:     c,
		junctions: js,
		batchIDs:  UUIDv7Generator{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Apply runs one batch of edits.
//
// Invalid edits are skipped and listed in Report.Diagnostics; Apply still
// returns a nil error for them. A storage failure stops the batch and is
// returned as a STORAGE_FAILURE error together with the Report of what was
// applied before it. The cache is refreshed before returning in both cases.
func (e *Engine) Apply(ctx context.Context, batch Batch) (*Report, error) {
	report := newReport(e.batchIDs.Generate())
	log := e.logger.With("batch_id", report.BatchID)

	snap, err := e.cache.Refresh(ctx)
	if err != nil {
		return report, schema.StorageFailure("refresh cache", err)
	}

	r := &run{
		Engine: e,
		report: report,
		log:    log,
		syms:   newSymbols(snap),
		snap:   snap,
	}

	log.Debug("applying batch",
		"class_edits", len(batch.ClassEdits),
		"property_edits", len(batch.PropertyEdits),
		"relationship_edits", len(batch.RelationEdits),
	)

	err = r.apply(ctx, batch)

	if _, rerr := e.cache.Refresh(ctx); rerr != nil {
		log.Error("refresh cache after batch", "error", rerr)
		if err == nil {
			err = schema.StorageFailure("refresh cache", rerr)
		}
	}
	if err != nil {
		log.Error("batch aborted", "error", err)
		return report, err
	}

	log.Info("batch applied",
		"changes", len(report.Changes),
		"diagnostics", len(report.Diagnostics),
	)
	return report, nil
}

// run holds the state of one Apply call.
type run struct {
	*Engine
	report *Report
	log    *slog.Logger
	syms   *symbols
	snap   *cache.Snapshot

	// queued holds relation ops produced by class and property edits.
	queued []Op
}

func (r *run) apply(ctx context.Context, batch Batch) error {
	attributes, err := r.applyClassEdits(ctx, batch.ClassEdits)
	if err != nil {
		return err
	}
	if err := r.refresh(ctx); err != nil {
		return err
	}

	if err := r.applyPropertyEdits(ctx, batch.PropertyEdits); err != nil {
		return err
	}
	if err := r.applyAttributeEdits(ctx, attributes); err != nil {
		return err
	}
	if err := r.refresh(ctx); err != nil {
		return err
	}

	return r.applyRelationEdits(ctx, batch.RelationEdits)
}

func (r *run) refresh(ctx context.Context) error {
	snap, err := r.cache.Refresh(ctx)
	if err != nil {
		return schema.StorageFailure("refresh cache", err)
	}
	r.snap = snap
	return nil
}

// diagnose records a skipped edit.
func (r *run) diagnose(err *schema.Error) {
	r.report.Diagnostics = append(r.report.Diagnostics, err)
	r.log.Warn("skipped edit", "code", string(err.Code), "error", err.Error())
}

func (r *run) record(c Change) {
	r.report.Changes = append(r.report.Changes, c)
	r.log.Debug("applied change",
		"kind", c.Kind,
		"action", c.Action,
		"class_id", c.ClassID,
		"prop_id", c.PropID,
		"junction_id", c.JunctionID,
	)
}
