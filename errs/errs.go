// Package errs formalizes the three error kinds this module distinguishes:
// input-validation failures (recoverable at the call site), algorithmic
// non-convergence (a structured result field, never an error — each
// package reports it on its own Result/Report type instead of using
// anything from here), and invariant violations (bugs the core has no
// recovery path for and must abort on).
//
// Most packages still define their own package-scoped sentinel errors
// (errors.New, wrapped with fmt.Errorf) for the validation failures
// specific to their own inputs — that convention is unchanged. This
// package exists for the two cases worth sharing across packages: a
// uniform ValidationError shape for callers that want to inspect which
// field was rejected, and Invariant, the single way the core signals a
// state inconsistency it cannot recover from.
package errs

import "fmt"

// ValidationError identifies one rejected input parameter: a non-positive
// width, an unknown layer name, an empty polygon.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Invalid builds a ValidationError for field, rejected because of reason.
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// InvariantViolation marks internal state that has become inconsistent in
// a way no caller can recover from.
type InvariantViolation struct {
	Component string
	Detail    string
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("invariant violation in %s: %s", e.Component, e.Detail)
}

// Invariant panics with an InvariantViolation. Call it where state has
// become inconsistent in a way no caller can recover from — a negative
// usage_count after rip-up, a grid index out of range after the input
// was already validated.
func Invariant(component, detail string) {
	panic(&InvariantViolation{Component: component, Detail: detail})
}
