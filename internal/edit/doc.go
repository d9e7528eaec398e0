// Package edit applies batches of schema edits.
//
// A Batch holds class, property and relation edits. Apply processes them in
// stages:
//
//  1. Class edits. Creates register the class (and its default Name label
//     property) immediately so later edits can name it. Deletes drop the
//     class and queue deletion of every junction touching it.
//  2. Property edits. Creates register data or relation properties. Deleting
//     a relation property downgrades two-way junctions to one-way transfers
//     and queues deletion of junctions left with no owned side.
//  3. Relation edits. User edits and the edits queued by stages 1 and 2 are
//     resolved to concrete sides, consolidated into a conflict-free plan and
//     executed against the junction store.
//
// Malformed edits are skipped and reported as diagnostics. Storage failures
// abort the batch and are returned with the partial Report.
package edit
