package edit

import (
	"context"
	"fmt"

	"github.com/roach88/goby/internal/schema"
)

// applyRelationEdits resolves user relation edits, appends the ops queued by
// class and property edits, consolidates them and executes the plan.
func (r *run) applyRelationEdits(ctx context.Context, edits []RelationEdit) error {
	ops := make([]Op, 0, len(edits))
	for _, re := range edits {
		op, err := r.syms.relation(r.snap, re)
		if err != nil {
			r.diagnose(err)
			continue
		}
		ops = append(ops, op)
	}

	res := consolidate(r.snap, ops, r.queued)
	for _, d := range res.diagnostics {
		r.diagnose(d)
	}
	for _, note := range res.notes {
		r.log.Debug("relation op superseded", "detail", note)
	}
	r.report.Plan = res.plan

	for _, op := range res.plan {
		if err := r.execute(ctx, op); err != nil {
			return err
		}
	}
	return nil
}

func (r *run) execute(ctx context.Context, op Op) error {
	r.log.Debug("executing relation op", "op", string(op.Type), "junction_id", op.ID, "detail", op.String())

	switch op.Type {
	case RelationCreate:
		j, err := r.junctions.Create(ctx, op.Sides)
		if err != nil {
			return schema.StorageFailure(op.String(), err)
		}
		sides := j.Sides
		r.record(Change{Kind: KindJunction, Action: ActionCreate, JunctionID: j.ID, Sides: &sides})

	case RelationTransfer:
		source, ok := r.snap.Junction(op.ID)
		if !ok {
			return schema.NewInconsistency("transfer source junction %d vanished", op.ID).WithJunction(op.ID)
		}
		j, err := r.junctions.Transfer(ctx, source, op.NewSides)
		if err != nil {
			return schema.StorageFailure(op.String(), err).WithJunction(op.ID)
		}
		sides := j.Sides
		r.record(Change{Kind: KindJunction, Action: ActionTransfer, JunctionID: j.ID, SourceID: op.ID, Sides: &sides})

	case RelationDelete:
		if err := r.junctions.Drop(ctx, op.ID); err != nil {
			return schema.StorageFailure(op.String(), err).WithJunction(op.ID)
		}
		r.record(Change{Kind: KindJunction, Action: ActionDelete, JunctionID: op.ID})

	default:
		return fmt.Errorf("execute relation op: unknown type %q", op.Type)
	}
	return nil
}
