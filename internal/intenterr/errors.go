// Package intenterr provides the error taxonomy for the intent pipeline:
// sentinel errors for comparison with errors.Is, a structured error type
// that carries operation/kind/id context, and the mapping from sentinels
// to the façade's four wire error codes.
package intenterr

import (
	"errors"
	"fmt"
)

// Sentinel errors. Wrap these with Wrap() to add operation context while
// keeping them comparable via errors.Is.
var (
	ErrInvalidInput   = errors.New("invalid input")
	ErrPlanNotFound   = errors.New("plan not found")
	ErrLockPoisoned   = errors.New("lock poisoned")
	ErrNotImplemented = errors.New("not implemented")
)

// Code is one of the façade's wire error codes.
type Code string

const (
	CodeInvalidInput   Code = "INVALID_INPUT"
	CodePlanNotFound   Code = "PLAN_NOT_FOUND"
	CodeLockPoison     Code = "LOCK_POISON"
	CodeNotImplemented Code = "NOT_IMPLEMENTED"
)

// PipelineError provides structured error information with context. It
// implements the error interface and supports wrapping via errors.Is/As.
type PipelineError struct {
	Op      string // operation that failed, e.g. "facade.ExecutePlan"
	Kind    string // error kind, e.g. "plan", "input", "lock"
	ID      string // optional id of the entity involved (plan id, signature, ...)
	Message string
	Err     error
}

func (e *PipelineError) Error() string {
	if e.Op != "" && e.Err != nil {
		if e.ID != "" {
			return fmt.Sprintf("%s [%s]: %v", e.Op, e.ID, e.Err)
		}
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s error", e.Kind)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// Wrap builds a PipelineError around a sentinel or other error.
func Wrap(op, kind string, err error) *PipelineError {
	return &PipelineError{Op: op, Kind: kind, Err: err}
}

// WithID attaches an entity id to a PipelineError, returning itself for
// chaining at the call site.
func (e *PipelineError) WithID(id string) *PipelineError {
	e.ID = id
	return e
}

// CodeOf maps an error to its wire code. Unrecognized errors map to the
// empty Code ("") with ok=false, leaving the caller to decide how to
// surface an unmapped internal error.
func CodeOf(err error) (Code, bool) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return CodeInvalidInput, true
	case errors.Is(err, ErrPlanNotFound):
		return CodePlanNotFound, true
	case errors.Is(err, ErrLockPoisoned):
		return CodeLockPoison, true
	case errors.Is(err, ErrNotImplemented):
		return CodeNotImplemented, true
	default:
		return "", false
	}
}
