// Package executor dispatches confirmed suggestions to the mutating backend
// commands. It is the only place where a suggestion's payload turns into a
// portfolio mutation.
package executor

import (
	"context"
	"fmt"
	"strings"

	"github.com/rullmann/portfolio-now-sub005/internal/enrichment"
	"github.com/rullmann/portfolio-now-sub005/internal/extraction"
	"github.com/rullmann/portfolio-now-sub005/internal/logging"
	"github.com/rullmann/portfolio-now-sub005/internal/models"
	"github.com/rullmann/portfolio-now-sub005/internal/pipelineerror"
	"github.com/sirupsen/logrus"
)

var log = logrus.New()

// SetLogger sets a custom logger for this package.
func SetLogger(logger *logrus.Logger) {
	if logger != nil {
		log = logger
	}
}

// Backend is the mutating half of the backend command contract. An empty
// portfolio id means no portfolio was selected.
type Backend interface {
	ImportExtractedTransactions(ctx context.Context, transactions []models.NormalizedTransaction, portfolioID string, deliveryMode bool) (models.ImportResult, error)
	ExecuteConfirmedTransaction(ctx context.Context, payload string) (string, error)
	ExecuteConfirmedPortfolioTransfer(ctx context.Context, payload string) (string, error)
	ExecuteConfirmedTransactionDelete(ctx context.Context, payload string) (string, error)
	ExecuteConfirmedAIAction(ctx context.Context, actionKind, payload string) (string, error)
}

// Options carry the import settings sourced from configuration.
type Options struct {
	PortfolioID  string
	DeliveryMode bool
}

// Executor routes a confirmed suggestion to the backend command matching
// its action kind.
type Executor struct {
	backend  Backend
	enricher *enrichment.Enricher
	opts     Options
}

// New creates an Executor.
func New(backend Backend, enricher *enrichment.Enricher, opts Options) *Executor {
	return &Executor{backend: backend, enricher: enricher, opts: opts}
}

// Execute runs the suggestion's action and returns a result summary. A
// payload that does not parse yields a typed error and no backend call; a
// backend failure is wrapped so the caller can surface it without losing
// the suggestion.
func (e *Executor) Execute(ctx context.Context, suggestion models.Suggestion) (string, error) {
	log.WithFields(logrus.Fields{
		logging.FieldSuggestionID: suggestion.ID,
		logging.FieldActionKind:   string(suggestion.ActionKind),
	}).Info("Executing suggestion")

	var summary string
	var err error
	switch suggestion.ActionKind {
	case models.ActionTransactionCreate:
		summary, err = e.backend.ExecuteConfirmedTransaction(ctx, suggestion.Payload)
	case models.ActionPortfolioTransfer:
		summary, err = e.backend.ExecuteConfirmedPortfolioTransfer(ctx, suggestion.Payload)
	case models.ActionTransactionDelete:
		summary, err = e.backend.ExecuteConfirmedTransactionDelete(ctx, suggestion.Payload)
	case models.ActionExtractedTransactions:
		summary, err = e.executeImport(ctx, suggestion)
	default:
		summary, err = e.backend.ExecuteConfirmedAIAction(ctx, string(suggestion.ActionKind), suggestion.Payload)
	}
	if err != nil {
		return "", err
	}
	return summary, nil
}

// executeImport re-runs the normalization pipeline over the stored payload
// and imports the batch. Records still missing required fields are rejected
// here, at the boundary, and reported as per-record errors alongside the
// backend's own duplicates and errors.
func (e *Executor) executeImport(ctx context.Context, suggestion models.Suggestion) (string, error) {
	extracted, diagnostics, err := extraction.ParsePayload(suggestion.Payload)
	if err != nil {
		return "", &pipelineerror.PayloadError{SuggestionID: suggestion.ID, Err: err}
	}
	for _, d := range diagnostics {
		log.WithField(logging.FieldSuggestionID, suggestion.ID).Debug(d.String())
	}

	normalized := extraction.Assemble(extracted)
	if e.enricher != nil {
		normalized = e.enricher.Enrich(ctx, normalized)
	}
	normalized = extraction.ApplyDeliveryMode(normalized, e.opts.DeliveryMode)

	var importable []models.NormalizedTransaction
	var rejected []string
	for i, tx := range normalized {
		if missing := extraction.MissingFields(tx); len(missing) > 0 {
			rejected = append(rejected, fmt.Sprintf("record %d: missing %s", i+1, strings.Join(missing, ", ")))
			continue
		}
		importable = append(importable, tx)
	}

	result := models.ImportResult{}
	if len(importable) > 0 {
		result, err = e.backend.ImportExtractedTransactions(ctx, importable, e.opts.PortfolioID, e.opts.DeliveryMode)
		if err != nil {
			return "", &pipelineerror.ExecutionError{
				SuggestionID: suggestion.ID,
				ActionKind:   suggestion.ActionKind,
				Err:          err,
			}
		}
	}
	result.Errors = append(result.Errors, rejected...)

	log.WithFields(logrus.Fields{
		logging.FieldSuggestionID: suggestion.ID,
		logging.FieldImported:     result.ImportedCount,
		logging.FieldDuplicates:   len(result.Duplicates),
		logging.FieldErrors:       len(result.Errors),
	}).Info("Import finished")

	return RenderImportResult(result), nil
}

// RenderImportResult formats the three import outcomes. Imported, duplicate,
// and failed records can all occur in one batch and each is reported on its
// own; duplicates are intentional skips, not failures.
func RenderImportResult(result models.ImportResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Imported %d transaction(s).", result.ImportedCount)
	if len(result.Duplicates) > 0 {
		fmt.Fprintf(&b, "\nSkipped %d duplicate(s):", len(result.Duplicates))
		for _, d := range result.Duplicates {
			fmt.Fprintf(&b, "\n  - %s", d)
		}
	}
	if len(result.Errors) > 0 {
		fmt.Fprintf(&b, "\n%d record(s) failed:", len(result.Errors))
		for _, e := range result.Errors {
			fmt.Fprintf(&b, "\n  - %s", e)
		}
	}
	return b.String()
}
