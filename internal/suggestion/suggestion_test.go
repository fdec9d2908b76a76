package suggestion

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rullmann/portfolio-now-sub005/internal/models"
	"github.com/rullmann/portfolio-now-sub005/internal/pipelineerror"
	"github.com/rullmann/portfolio-now-sub005/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockDispatcher struct {
	mu        sync.Mutex
	calls     int
	summary   string
	err       error
	block     chan struct{}
	started   chan struct{}
	lastAct   models.ActionKind
	startOnce sync.Once
}

func (m *mockDispatcher) Execute(_ context.Context, suggestion models.Suggestion) (string, error) {
	m.mu.Lock()
	m.calls++
	m.lastAct = suggestion.ActionKind
	m.mu.Unlock()
	if m.started != nil {
		m.startOnce.Do(func() { close(m.started) })
	}
	if m.block != nil {
		<-m.block
	}
	return m.summary, m.err
}

func (m *mockDispatcher) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func seedSuggestion(t *testing.T, s *store.MockStore) models.Suggestion {
	t.Helper()
	suggestion, err := s.SaveChatSuggestion(models.Suggestion{
		ConversationID: "conv-1",
		MessageID:      "msg-1",
		ActionKind:     models.ActionTransactionCreate,
		Description:    "Record a buy of 10 shares",
		Payload:        `{"type":"BUY"}`,
	})
	require.NoError(t, err)
	return suggestion
}

func TestConfirmExecutesThenConfirms(t *testing.T) {
	mockStore := store.NewMockStore()
	dispatcher := &mockDispatcher{summary: "1 transaction recorded"}
	manager := NewManager(mockStore, dispatcher)
	seeded := seedSuggestion(t, mockStore)

	summary, err := manager.Confirm(context.Background(), seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, "1 transaction recorded", summary)
	assert.Equal(t, 1, dispatcher.callCount())

	loaded, err := mockStore.GetSuggestion(seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, loaded.Status)
}

func TestConfirmFailureLeavesPending(t *testing.T) {
	mockStore := store.NewMockStore()
	dispatcher := &mockDispatcher{err: errors.New("backend unreachable")}
	manager := NewManager(mockStore, dispatcher)
	seeded := seedSuggestion(t, mockStore)

	_, err := manager.Confirm(context.Background(), seeded.ID)
	assert.Error(t, err)

	loaded, err := mockStore.GetSuggestion(seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, loaded.Status)
	assert.Empty(t, mockStore.StatusUpdates)
}

func TestConfirmTerminalSuggestionRejected(t *testing.T) {
	mockStore := store.NewMockStore()
	dispatcher := &mockDispatcher{}
	manager := NewManager(mockStore, dispatcher)
	seeded := seedSuggestion(t, mockStore)
	require.NoError(t, mockStore.UpdateSuggestionStatus(seeded.ID, models.StatusDeclined))

	_, err := manager.Confirm(context.Background(), seeded.ID)

	var terminal *pipelineerror.TerminalStateError
	require.True(t, errors.As(err, &terminal))
	assert.Equal(t, models.StatusDeclined, terminal.Status)
	assert.Equal(t, 0, dispatcher.callCount())
}

func TestConfirmRefusesReDispatchWhileInFlight(t *testing.T) {
	mockStore := store.NewMockStore()
	dispatcher := &mockDispatcher{
		summary: "done",
		block:   make(chan struct{}),
		started: make(chan struct{}),
	}
	manager := NewManager(mockStore, dispatcher)
	seeded := seedSuggestion(t, mockStore)

	firstDone := make(chan error, 1)
	go func() {
		_, err := manager.Confirm(context.Background(), seeded.ID)
		firstDone <- err
	}()

	<-dispatcher.started
	_, err := manager.Confirm(context.Background(), seeded.ID)
	assert.ErrorIs(t, err, ErrInFlight)

	close(dispatcher.block)
	require.NoError(t, <-firstDone)
	assert.Equal(t, 1, dispatcher.callCount())
}

func TestDeclineRefusedWhileConfirmInFlight(t *testing.T) {
	mockStore := store.NewMockStore()
	dispatcher := &mockDispatcher{
		summary: "done",
		block:   make(chan struct{}),
		started: make(chan struct{}),
	}
	manager := NewManager(mockStore, dispatcher)
	seeded := seedSuggestion(t, mockStore)

	confirmDone := make(chan error, 1)
	go func() {
		_, err := manager.Confirm(context.Background(), seeded.ID)
		confirmDone <- err
	}()

	<-dispatcher.started
	assert.ErrorIs(t, manager.Decline(seeded.ID), ErrInFlight)

	close(dispatcher.block)
	require.NoError(t, <-confirmDone)

	// The executed confirmation owns the terminal state.
	loaded, err := mockStore.GetSuggestion(seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, loaded.Status)
}

func TestDeclineNeverTouchesDispatcher(t *testing.T) {
	mockStore := store.NewMockStore()
	dispatcher := &mockDispatcher{}
	manager := NewManager(mockStore, dispatcher)
	seeded := seedSuggestion(t, mockStore)

	require.NoError(t, manager.Decline(seeded.ID))
	assert.Equal(t, 0, dispatcher.callCount())

	loaded, err := mockStore.GetSuggestion(seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDeclined, loaded.Status)
}

func TestDeclineTerminalSuggestionRejected(t *testing.T) {
	mockStore := store.NewMockStore()
	manager := NewManager(mockStore, &mockDispatcher{})
	seeded := seedSuggestion(t, mockStore)
	require.NoError(t, mockStore.UpdateSuggestionStatus(seeded.ID, models.StatusConfirmed))

	err := manager.Decline(seeded.ID)

	var terminal *pipelineerror.TerminalStateError
	require.True(t, errors.As(err, &terminal))
	assert.Equal(t, models.StatusConfirmed, terminal.Status)
}

func TestDeclineAll(t *testing.T) {
	mockStore := store.NewMockStore()
	dispatcher := &mockDispatcher{}
	manager := NewManager(mockStore, dispatcher)
	first := seedSuggestion(t, mockStore)
	second := seedSuggestion(t, mockStore)

	require.NoError(t, manager.DeclineAll("conv-1"))
	assert.Equal(t, 0, dispatcher.callCount())

	for _, id := range []string{first.ID, second.ID} {
		loaded, err := mockStore.GetSuggestion(id)
		require.NoError(t, err)
		assert.Equal(t, models.StatusDeclined, loaded.Status)
	}
}

func TestConfirmUnknownSuggestion(t *testing.T) {
	manager := NewManager(store.NewMockStore(), &mockDispatcher{})

	_, err := manager.Confirm(context.Background(), "no-such-id")

	var notFound *pipelineerror.NotFoundError
	assert.True(t, errors.As(err, &notFound))
}
