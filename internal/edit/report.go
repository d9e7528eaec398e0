package edit

import "github.com/roach88/goby/internal/schema"

// Change kinds and actions recorded in a Report.
const (
	KindClass    = "class"
	KindProperty = "property"
	KindJunction = "junction"

	ActionCreate   = "create"
	ActionDelete   = "delete"
	ActionModify   = "modify"
	ActionTransfer = "transfer"
)

// Change is one schema change applied by a batch.
type Change struct {
	Kind       string            `json:"kind"`
	Action     string            `json:"action"`
	Name       string            `json:"name,omitempty"`
	ClassID    schema.ClassID    `json:"class_id,omitempty"`
	PropID     schema.PropID     `json:"prop_id,omitempty"`
	JunctionID schema.JunctionID `json:"junction_id,omitempty"`
	SourceID   schema.JunctionID `json:"source_junction_id,omitempty"`
	Sides      *schema.Sides     `json:"sides,omitempty"`
}

// Report describes what a batch did.
type Report struct {
	BatchID     string          `json:"batch_id"`
	Changes     []Change        `json:"changes"`
	Plan        []Op            `json:"plan"`
	Diagnostics []*schema.Error `json:"diagnostics"`
}

func newReport(batchID string) *Report {
	return &Report{
		BatchID:     batchID,
		Changes:     []Change{},
		Plan:        []Op{},
		Diagnostics: []*schema.Error{},
	}
}

// Created returns the changes creating objects of kind.
func (r *Report) Created(kind string) []Change {
	result := []Change{}
	for _, c := range r.Changes {
		if c.Kind == kind && (c.Action == ActionCreate || c.Action == ActionTransfer) {
			result = append(result, c)
		}
	}
	return result
}
