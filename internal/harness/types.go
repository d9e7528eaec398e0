package harness

import "github.com/roach88/goby/internal/schema"

// StepResult records what one step did.
type StepResult struct {
	Index       int                `json:"index"`
	Action      string             `json:"action"`
	Item        schema.ItemID      `json:"item,omitempty"`
	Diagnostics []schema.ErrorCode `json:"diagnostics,omitempty"`
	Error       string             `json:"error,omitempty"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every step matched its expectation and every
	// assertion held.
	Pass bool `json:"pass"`

	Steps []StepResult `json:"steps"`

	// Errors contains expectation and assertion failures.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Steps:  []StepResult{},
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
