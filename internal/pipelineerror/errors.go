// Package pipelineerror defines the error taxonomy of the assistant
// pipeline. Parse degradation is deliberately not represented here: the
// normalization stages return best-effort values and advisory diagnostics
// instead of errors.
package pipelineerror

import (
	"fmt"

	"github.com/rullmann/portfolio-now-sub005/internal/models"
)

// EnrichmentError reports a failed holdings-enrichment call. Callers fall
// back to the unenriched records; the error is logged, never surfaced as a
// blocking failure.
type EnrichmentError struct {
	Count int
	Err   error
}

func (e *EnrichmentError) Error() string {
	return fmt.Sprintf("holdings enrichment failed for %d transaction(s): %v", e.Count, e.Err)
}

func (e *EnrichmentError) Unwrap() error {
	return e.Err
}

// ExecutionError reports a failed backend dispatch of a confirmed
// suggestion. The suggestion keeps the state it reached before the failure.
type ExecutionError struct {
	SuggestionID string
	ActionKind   models.ActionKind
	Err          error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("execution of %s suggestion %s failed: %v", e.ActionKind, e.SuggestionID, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// PayloadError reports a suggestion payload that could not be decoded. The
// suggestion is rendered inert rather than crashing the suggestion list.
type PayloadError struct {
	SuggestionID string
	Err          error
}

func (e *PayloadError) Error() string {
	return fmt.Sprintf("malformed payload on suggestion %s: %v", e.SuggestionID, e.Err)
}

func (e *PayloadError) Unwrap() error {
	return e.Err
}

// TerminalStateError reports an attempt to transition a suggestion out of a
// terminal status. Confirmed and declined are final.
type TerminalStateError struct {
	SuggestionID string
	Status       models.SuggestionStatus
}

func (e *TerminalStateError) Error() string {
	return fmt.Sprintf("suggestion %s is already %s", e.SuggestionID, e.Status)
}

// NotFoundError reports a lookup for a conversation, message, or suggestion
// that does not exist in the store.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}
