// Package suggestion owns the lifecycle of assistant suggestions. A
// suggestion is pending until the user decides; confirmed and declined are
// both terminal and never overwritten.
package suggestion

import (
	"context"
	"errors"
	"sync"

	"github.com/rullmann/portfolio-now-sub005/internal/logging"
	"github.com/rullmann/portfolio-now-sub005/internal/models"
	"github.com/rullmann/portfolio-now-sub005/internal/pipelineerror"
	"github.com/rullmann/portfolio-now-sub005/internal/store"
	"github.com/sirupsen/logrus"
)

var log = logrus.New()

// SetLogger sets a custom logger for this package.
func SetLogger(logger *logrus.Logger) {
	if logger != nil {
		log = logger
	}
}

// ErrInFlight is returned when a confirm or decline arrives while the same
// suggestion's execution is still running. The competing transition is
// refused; the running confirmation alone decides the final state.
var ErrInFlight = errors.New("suggestion is already being executed")

// Dispatcher executes a confirmed suggestion's action and returns a
// human-readable result summary.
type Dispatcher interface {
	Execute(ctx context.Context, suggestion models.Suggestion) (string, error)
}

// Manager drives suggestion state transitions. All transitions go through
// Confirm and Decline; nothing else writes a suggestion's status.
type Manager struct {
	store      store.Store
	dispatcher Dispatcher

	mu        sync.Mutex
	executing map[string]bool
}

// NewManager creates a Manager over the given store and dispatcher.
func NewManager(s store.Store, d Dispatcher) *Manager {
	return &Manager{
		store:      s,
		dispatcher: d,
		executing:  make(map[string]bool),
	}
}

// markExecuting claims the per-suggestion transition slot. Confirm holds it
// across the whole execution and Decline for its status write, so a terminal
// state written by one can never be overwritten by the other. It is not a
// cancellation primitive.
func (m *Manager) markExecuting(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.executing[id] {
		return false
	}
	m.executing[id] = true
	return true
}

func (m *Manager) unmarkExecuting(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.executing, id)
}

// Confirm executes the suggestion's action and, once the execution call has
// returned, marks the suggestion confirmed. Partial batch results still
// count as executed, so they confirm; a transport-level failure does not,
// and the suggestion stays pending for a retry.
func (m *Manager) Confirm(ctx context.Context, id string) (string, error) {
	if !m.markExecuting(id) {
		return "", ErrInFlight
	}
	defer m.unmarkExecuting(id)

	suggestion, err := m.store.GetSuggestion(id)
	if err != nil {
		return "", err
	}
	if suggestion.Status.Terminal() {
		return "", &pipelineerror.TerminalStateError{SuggestionID: id, Status: suggestion.Status}
	}

	summary, err := m.dispatcher.Execute(ctx, suggestion)
	if err != nil {
		log.WithFields(logrus.Fields{
			logging.FieldSuggestionID: id,
			logging.FieldActionKind:   string(suggestion.ActionKind),
		}).Errorf("Execution failed, suggestion stays pending: %v", err)
		return "", err
	}

	if err := m.store.UpdateSuggestionStatus(id, models.StatusConfirmed); err != nil {
		// The action ran; losing the status write must not look like a lost
		// suggestion to the caller.
		log.WithField(logging.FieldSuggestionID, id).Errorf("Action executed but status update failed: %v", err)
		return summary, err
	}

	log.WithFields(logrus.Fields{
		logging.FieldSuggestionID: id,
		logging.FieldActionKind:   string(suggestion.ActionKind),
		logging.FieldStatus:       string(models.StatusConfirmed),
	}).Info("Suggestion confirmed")
	return summary, nil
}

// Decline marks the suggestion declined. Declining never reaches the
// dispatcher. A decline that lands while the suggestion's confirmation is
// executing is refused with ErrInFlight instead of racing the confirm for
// the terminal state.
func (m *Manager) Decline(id string) error {
	if !m.markExecuting(id) {
		return ErrInFlight
	}
	defer m.unmarkExecuting(id)

	suggestion, err := m.store.GetSuggestion(id)
	if err != nil {
		return err
	}
	if suggestion.Status.Terminal() {
		return &pipelineerror.TerminalStateError{SuggestionID: id, Status: suggestion.Status}
	}

	if err := m.store.UpdateSuggestionStatus(id, models.StatusDeclined); err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		logging.FieldSuggestionID: id,
		logging.FieldStatus:       string(models.StatusDeclined),
	}).Info("Suggestion declined")
	return nil
}

// DeclineAll declines every pending suggestion of a conversation. Each
// transition touches only its own suggestion, so one failure does not stop
// the rest.
func (m *Manager) DeclineAll(conversationID string) error {
	pending, err := m.store.GetPendingSuggestions(conversationID)
	if err != nil {
		return err
	}
	var firstErr error
	for _, suggestion := range pending {
		if err := m.Decline(suggestion.ID); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Pending lists the pending suggestions of a conversation, or of all
// conversations when the id is empty.
func (m *Manager) Pending(conversationID string) ([]models.Suggestion, error) {
	return m.store.GetPendingSuggestions(conversationID)
}
