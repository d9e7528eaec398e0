package schema

import (
	"errors"
	"fmt"
)

// Error is a classified error raised by schema editing, relation editing or
// item retrieval.
//
// Error codes:
//   - SCHEMA_INCONSISTENCY: a referenced class, property or junction is missing
//   - INVALID_EDIT: an edit never resolves or conflicts with an active relation
//   - STORAGE_FAILURE: the storage adapter failed; fatal for the batch
//   - CARDINALITY_EXCEEDED: a link would exceed a relation's max_values
//   - INVALID_VALUE: a cell value does not fit its property
type Error struct {
	Code       ErrorCode  `json:"code"`
	Message    string     `json:"message"`
	ClassID    ClassID    `json:"class_id,omitempty"`
	PropID     *PropID    `json:"prop_id,omitempty"`
	JunctionID JunctionID `json:"junction_id,omitempty"`
	Err        error      `json:"-"`
}

// ErrorCode categorizes schema errors.
type ErrorCode string

const (
	ErrCodeSchemaInconsistency ErrorCode = "SCHEMA_INCONSISTENCY"
	ErrCodeInvalidEdit         ErrorCode = "INVALID_EDIT"
	ErrCodeStorageFailure      ErrorCode = "STORAGE_FAILURE"
	ErrCodeCardinality         ErrorCode = "CARDINALITY_EXCEEDED"
	ErrCodeInvalidValue        ErrorCode = "INVALID_VALUE"
)

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	switch {
	case e.JunctionID != 0:
		msg += fmt.Sprintf(" (junction=%d)", e.JunctionID)
	case e.ClassID != 0 && e.PropID != nil:
		msg += fmt.Sprintf(" (class=%d, prop=%d)", e.ClassID, *e.PropID)
	case e.ClassID != 0:
		msg += fmt.Sprintf(" (class=%d)", e.ClassID)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func hasCode(err error, code ErrorCode) bool {
	var se *Error
	if errors.As(err, &se) {
		return se.Code == code
	}
	return false
}

// IsSchemaInconsistency reports whether err is a SCHEMA_INCONSISTENCY error.
func IsSchemaInconsistency(err error) bool { return hasCode(err, ErrCodeSchemaInconsistency) }

// IsInvalidEdit reports whether err is an INVALID_EDIT error.
func IsInvalidEdit(err error) bool { return hasCode(err, ErrCodeInvalidEdit) }

// IsStorageFailure reports whether err is a STORAGE_FAILURE error.
func IsStorageFailure(err error) bool { return hasCode(err, ErrCodeStorageFailure) }

// IsCardinality reports whether err is a CARDINALITY_EXCEEDED error.
func IsCardinality(err error) bool { return hasCode(err, ErrCodeCardinality) }

// IsInvalidValue reports whether err is an INVALID_VALUE error.
func IsInvalidValue(err error) bool { return hasCode(err, ErrCodeInvalidValue) }

// NewInconsistency creates a SCHEMA_INCONSISTENCY error.
func NewInconsistency(format string, args ...any) *Error {
	return &Error{Code: ErrCodeSchemaInconsistency, Message: fmt.Sprintf(format, args...)}
}

// NewInvalidEdit creates an INVALID_EDIT error.
func NewInvalidEdit(format string, args ...any) *Error {
	return &Error{Code: ErrCodeInvalidEdit, Message: fmt.Sprintf(format, args...)}
}

// NewInvalidValue creates an INVALID_VALUE error.
func NewInvalidValue(format string, args ...any) *Error {
	return &Error{Code: ErrCodeInvalidValue, Message: fmt.Sprintf(format, args...)}
}

// NewCardinalityError creates a CARDINALITY_EXCEEDED error for an owned side.
func NewCardinalityError(side Side, item ItemID, max MaxValues) *Error {
	return &Error{
		Code:    ErrCodeCardinality,
		Message: fmt.Sprintf("item %d already holds %d value(s) for %s", item, max, side),
		ClassID: side.ClassID,
		PropID:  side.PropID,
	}
}

// StorageFailure wraps an adapter error as a STORAGE_FAILURE.
func StorageFailure(op string, err error) *Error {
	return &Error{Code: ErrCodeStorageFailure, Message: op, Err: err}
}

// WithClass attaches a class id to the error and returns it.
func (e *Error) WithClass(id ClassID) *Error {
	e.ClassID = id
	return e
}

// WithProp attaches a class and property id to the error and returns it.
func (e *Error) WithProp(class ClassID, prop PropID) *Error {
	e.ClassID = class
	e.PropID = &prop
	return e
}

// WithJunction attaches a junction id to the error and returns it.
func (e *Error) WithJunction(id JunctionID) *Error {
	e.JunctionID = id
	return e
}
