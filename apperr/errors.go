package apperr

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	errPaymentInFlight = errors.New("a payment is already being processed")
	errCatalogLoading  = errors.New("catalog is still loading")
)

// ValidationError is returned when submitted fields fail their rules. It is
// never fatal; it only blocks the submission.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

func Invalid(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

// NotFoundError reports a lookup that matched nothing, e.g. an unknown hotel id.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// SimulatedFailure is the payment gateway declining a charge. Retryable.
type SimulatedFailure struct {
	Msg string
}

func (e *SimulatedFailure) Error() string {
	return e.Msg
}

// StateMismatch means a flow step was entered without its precondition.
// Back is the path the user can recover through.
type StateMismatch struct {
	Step   string
	Reason string
	Back   string
}

func (e *StateMismatch) Error() string {
	return fmt.Sprintf("%s: %s", e.Step, e.Reason)
}

// Unauthenticated is returned when a protected action runs without a session.
// From is where the user should land after logging in.
type Unauthenticated struct {
	From string
}

func (e *Unauthenticated) Error() string {
	return "login required"
}

func ErrPaymentInFlight() error {
	return errPaymentInFlight
}

func ErrCatalogLoading() error {
	return errCatalogLoading
}
