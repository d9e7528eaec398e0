package edit

import (
	"fmt"
	"slices"
	"sort"

	"github.com/roach88/goby/internal/cache"
	"github.com/roach88/goby/internal/schema"
)

// Consolidate reconciles resolved relation ops with the junctions in snap
// and returns the plan to execute: transfers and creates in acceptance
// order, then deletes.
//
// The plan never leaves two junctions that conflict (partially or fully
// match) unless one of them is deleted by the same plan. Ops that cannot be
// applied are dropped and reported as diagnostics. A transfer that is
// dropped leaves its source junction in place. Consolidate does not touch
// storage.
func Consolidate(snap *cache.Snapshot, ops []Op) ([]Op, []*schema.Error) {
	res := consolidate(snap, ops, nil)
	return res.plan, res.diagnostics
}

// consolidation is the outcome of consolidate. Notes describe ops queued by
// class and property edits that were superseded, and links that a plan does
// not carry over; they are not caller errors.
type consolidation struct {
	plan        []Op
	diagnostics []*schema.Error
	notes       []string
}

// consolidate is Consolidate for a batch whose queued ops were produced by
// class and property edits rather than submitted by the caller.
//
// Every transfer implies deleting its source. When all caller transfers
// from a source are rejected and nothing else deletes it, the source stays:
// those transfers are withdrawn and the remaining ops are consolidated
// again, so no surviving op relied on the source being gone.
func consolidate(snap *cache.Snapshot, ops, queued []Op) consolidation {
	entries := make([]entry, 0, len(ops)+len(queued))
	for _, op := range ops {
		entries = append(entries, entry{op: op})
	}
	for _, op := range queued {
		entries = append(entries, entry{op: op, queued: true})
	}

	var withdrawn []*schema.Error
	for {
		c := newConsolidator(snap)
		c.run(entries)

		stranded := c.strandedSources()
		if len(stranded) == 0 {
			return consolidation{
				plan:        c.plan,
				diagnostics: append(withdrawn, c.diagnostics...),
				notes:       c.notes,
			}
		}

		kept := make([]entry, 0, len(entries))
		for _, e := range entries {
			if e.op.Type == RelationTransfer && stranded[e.op.ID] {
				continue
			}
			kept = append(kept, e)
		}
		ids := make([]schema.JunctionID, 0, len(stranded))
		for id := range stranded {
			ids = append(ids, id)
		}
		slices.Sort(ids)
		for _, id := range ids {
			withdrawn = append(withdrawn, c.transferErrs[id]...)
		}
		entries = kept
	}
}

// entry is an op with its origin. A rewritten entry is a transfer made
// from a caller create.
type entry struct {
	op        Op
	queued    bool
	rewritten bool
}

type consolidator struct {
	snap     *cache.Snapshot
	deleting map[schema.JunctionID]bool
	// implied holds sources deleted only because caller transfers read
	// from them.
	implied      map[schema.JunctionID]bool
	transferErrs map[schema.JunctionID][]*schema.Error
	accepted     []entry
	plan         []Op
	diagnostics  []*schema.Error
	notes        []string
}

func newConsolidator(snap *cache.Snapshot) *consolidator {
	return &consolidator{
		snap:         snap,
		deleting:     make(map[schema.JunctionID]bool),
		implied:      make(map[schema.JunctionID]bool),
		transferErrs: make(map[schema.JunctionID][]*schema.Error),
	}
}

func (c *consolidator) run(entries []entry) {
	source := make([]entry, len(entries))
	copy(source, entries)
	sort.SliceStable(source, func(i, j int) bool {
		return source[i].op.Type.priority() < source[j].op.Type.priority()
	})

	// Deletes run after every transfer so several transfers may read from
	// one source. A source with a queued transfer belongs to a deleted
	// property and goes whether or not the transfer survives.
	for _, e := range source {
		if e.op.Type == RelationDelete {
			c.deleting[e.op.ID] = true
		}
	}
	for _, queued := range []bool{true, false} {
		for _, e := range source {
			if e.op.Type != RelationTransfer || e.queued != queued || c.deleting[e.op.ID] {
				continue
			}
			if _, ok := c.snap.Junction(e.op.ID); !ok {
				continue
			}
			source = append(source, entry{op: DeleteOp(e.op.ID), queued: true})
			c.deleting[e.op.ID] = true
			if !queued {
				c.implied[e.op.ID] = true
			}
		}
	}

	for _, e := range source {
		switch e.op.Type {
		case RelationTransfer, RelationDelete:
			c.push(e)
		case RelationCreate:
			c.create(e)
		default:
			c.reject(e, schema.NewInvalidEdit("unknown relation edit type %q", e.op.Type))
		}
	}

	c.plan = c.filterPartialMatches()
}

func (c *consolidator) reject(e entry, err *schema.Error) {
	c.diagnostics = append(c.diagnostics, err)
	if e.op.Type == RelationTransfer && !e.rewritten {
		c.transferErrs[e.op.ID] = append(c.transferErrs[e.op.ID], err)
	}
}

// supersede drops an op that lost to a higher priority relation. Queued ops
// are noted rather than reported.
func (c *consolidator) supersede(e entry, err *schema.Error) {
	if e.queued {
		c.notes = append(c.notes, err.Error())
		return
	}
	c.reject(e, err)
}

// strandedSources returns the sources deleted only on behalf of caller
// transfers of which none reached the plan.
func (c *consolidator) strandedSources() map[schema.JunctionID]bool {
	stranded := make(map[schema.JunctionID]bool)
	for id := range c.implied {
		stranded[id] = true
	}
	for _, op := range c.plan {
		if op.Type == RelationTransfer {
			delete(stranded, op.ID)
		}
	}
	return stranded
}

// create accepts a create, rewrites it into a transfer from a junction it
// replaces, or rejects it when it conflicts with a junction that stays.
func (c *consolidator) create(e entry) {
	var replaced []schema.Junction
	for _, j := range c.snap.Junctions {
		if !conflicts(j.Sides, e.op.Sides) {
			continue
		}
		if !c.deleting[j.ID] {
			c.reject(e, schema.NewInvalidEdit(
				"cannot create %s: conflicts with existing relation", e.op.Sides,
			).WithJunction(j.ID))
			return
		}
		replaced = append(replaced, j)
	}

	if len(replaced) == 0 {
		c.push(e)
		return
	}

	// Existing connections migrate from the first replaced junction.
	transfer := TransferOp(replaced[0], e.op.Sides)
	for _, j := range replaced[1:] {
		c.notes = append(c.notes, fmt.Sprintf("links of junction %d are not carried over by %s", j.ID, transfer))
	}
	c.push(entry{op: transfer, queued: e.queued, rewritten: true})
}

// push validates and deduplicates an op before accepting it.
func (c *consolidator) push(e entry) {
	op := e.op
	if op.Type == RelationDelete {
		if _, ok := c.snap.Junction(op.ID); !ok {
			c.reject(e, schema.NewInconsistency("junction %d does not exist", op.ID).WithJunction(op.ID))
			return
		}
		for _, a := range c.accepted {
			if a.op.Type == RelationDelete && a.op.ID == op.ID {
				return
			}
		}
		c.accepted = append(c.accepted, e)
		return
	}

	if op.Type == RelationTransfer {
		if _, ok := c.snap.Junction(op.ID); !ok {
			c.reject(e, schema.NewInconsistency("transfer source junction %d does not exist", op.ID).WithJunction(op.ID))
			return
		}
	}

	target := op.target()
	if err := validSides(c.snap, target); err != nil {
		c.reject(e, err)
		return
	}

	for _, j := range c.snap.Junctions {
		if j.ID == op.ID && op.Type == RelationTransfer {
			continue
		}
		if !c.deleting[j.ID] && conflicts(j.Sides, target) {
			c.reject(e, schema.NewInvalidEdit("%s conflicts with existing relation", op).WithJunction(j.ID))
			return
		}
	}

	for _, a := range c.accepted {
		if a.op.Type != op.Type {
			continue
		}
		dup := false
		switch op.Type {
		case RelationCreate:
			dup = schema.FullMatch(a.op.Sides, op.Sides)
		case RelationTransfer:
			dup = a.op.ID == op.ID && schema.FullMatch(a.op.NewSides, op.NewSides)
		}
		if dup {
			c.reject(e, schema.NewInvalidEdit("duplicate %s", op))
			return
		}
	}

	c.accepted = append(c.accepted, e)
}

// filterPartialMatches keeps at most one op per group of conflicting
// targets. Two-way relations beat one-way ones; otherwise the first op
// accepted wins.
func (c *consolidator) filterPartialMatches() []Op {
	kept := make([]entry, 0, len(c.accepted))
	excluded := make([]bool, 0, len(c.accepted))

	for _, e := range c.accepted {
		if e.op.Type == RelationDelete {
			kept = append(kept, e)
			excluded = append(excluded, false)
			continue
		}

		target := e.op.target()
		var rivals []int
		for i, k := range kept {
			if excluded[i] || k.op.Type == RelationDelete {
				continue
			}
			if conflicts(k.op.target(), target) {
				rivals = append(rivals, i)
			}
		}

		if len(rivals) > 0 {
			wins := schema.IsTwoWay(target)
			for _, i := range rivals {
				if schema.IsTwoWay(kept[i].op.target()) {
					wins = false
				}
			}
			if !wins {
				c.supersede(e, schema.NewInvalidEdit("excluded %s: a higher priority relation covers the same classes", e.op))
				continue
			}
			for _, i := range rivals {
				excluded[i] = true
				c.supersede(kept[i], schema.NewInvalidEdit("excluded %s: a two-way relation covers the same classes", kept[i].op))
			}
		}

		kept = append(kept, e)
		excluded = append(excluded, false)
	}

	plan := make([]Op, 0, len(kept))
	for i, e := range kept {
		if !excluded[i] {
			plan = append(plan, e.op)
		}
	}
	return plan
}

// conflicts reports whether two relations cannot coexist.
func conflicts(a, b schema.Sides) bool {
	return schema.PartialMatch(a, b) || schema.FullMatch(a, b)
}

// validSides checks that both sides name existing classes and that owned
// sides name existing relation properties.
func validSides(snap *cache.Snapshot, sides schema.Sides) *schema.Error {
	if schema.Degenerate(sides) {
		return schema.NewInvalidEdit("relation %s joins a side to itself", sides)
	}
	for _, side := range sides {
		class, ok := snap.Class(side.ClassID)
		if !ok {
			return schema.NewInvalidEdit("relation %s targets missing class", sides).WithClass(side.ClassID)
		}
		prop, owned := side.Prop()
		if !owned {
			continue
		}
		p, ok := class.Property(prop)
		if !ok {
			return schema.NewInvalidEdit("relation %s targets missing property", sides).WithProp(side.ClassID, prop)
		}
		if !p.IsRelation() {
			return schema.NewInvalidEdit("relation %s targets data property %q", sides, p.Name).WithProp(side.ClassID, prop)
		}
	}
	return nil
}
