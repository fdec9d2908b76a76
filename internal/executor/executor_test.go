package executor

import (
	"context"
	"errors"
	"testing"

	"github.com/rullmann/portfolio-now-sub005/internal/enrichment"
	"github.com/rullmann/portfolio-now-sub005/internal/models"
	"github.com/rullmann/portfolio-now-sub005/internal/pipelineerror"
	"github.com/rullmann/portfolio-now-sub005/internal/store"
	"github.com/rullmann/portfolio-now-sub005/internal/suggestion"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockBackend struct {
	importResult  models.ImportResult
	importError   error
	importCalls   int
	lastBatch     []models.NormalizedTransaction
	lastPortfolio string
	lastDelivery  bool

	createResult   string
	createError    error
	createCalls    int
	transferCalls  int
	deleteCalls    int
	aiActionCalls  int
	lastActionKind string
}

func (m *mockBackend) ImportExtractedTransactions(_ context.Context, transactions []models.NormalizedTransaction, portfolioID string, deliveryMode bool) (models.ImportResult, error) {
	m.importCalls++
	m.lastBatch = transactions
	m.lastPortfolio = portfolioID
	m.lastDelivery = deliveryMode
	if m.importError != nil {
		return models.ImportResult{}, m.importError
	}
	return m.importResult, nil
}

func (m *mockBackend) ExecuteConfirmedTransaction(_ context.Context, _ string) (string, error) {
	m.createCalls++
	return m.createResult, m.createError
}

func (m *mockBackend) ExecuteConfirmedPortfolioTransfer(_ context.Context, _ string) (string, error) {
	m.transferCalls++
	return "transfer done", nil
}

func (m *mockBackend) ExecuteConfirmedTransactionDelete(_ context.Context, _ string) (string, error) {
	m.deleteCalls++
	return "transaction deleted", nil
}

func (m *mockBackend) ExecuteConfirmedAIAction(_ context.Context, actionKind, _ string) (string, error) {
	m.aiActionCalls++
	m.lastActionKind = actionKind
	return "action executed", nil
}

type stubHoldings struct{}

func (stubHoldings) EnrichTransactions(_ context.Context, _ []models.ExtractedTransaction) ([]models.EnrichedTransaction, error) {
	return nil, nil
}

func newTestExecutor(backend *mockBackend, opts Options) *Executor {
	return New(backend, enrichment.New(stubHoldings{}), opts)
}

const importPayload = `[
	{"date": "2024-03-07", "type": "BUY", "isin": "IE00B4L5Y983",
	 "shares": 10, "amount": 850.5, "currency": "EUR"},
	{"date": "2024-03-08", "type": "SELL", "isin": "IE00B4L5Y983",
	 "shares": 5, "amount": 430, "currency": "EUR"},
	{"date": "2024-03-09", "type": "DEPOSIT", "amount": 1000, "currency": "EUR"}
]`

func TestExecuteDispatchTable(t *testing.T) {
	tests := []struct {
		name   string
		kind   models.ActionKind
		verify func(t *testing.T, backend *mockBackend)
	}{
		{
			name: "transaction create",
			kind: models.ActionTransactionCreate,
			verify: func(t *testing.T, backend *mockBackend) {
				assert.Equal(t, 1, backend.createCalls)
			},
		},
		{
			name: "portfolio transfer",
			kind: models.ActionPortfolioTransfer,
			verify: func(t *testing.T, backend *mockBackend) {
				assert.Equal(t, 1, backend.transferCalls)
			},
		},
		{
			name: "transaction delete",
			kind: models.ActionTransactionDelete,
			verify: func(t *testing.T, backend *mockBackend) {
				assert.Equal(t, 1, backend.deleteCalls)
			},
		},
		{
			name: "unknown kind falls back to generic AI action",
			kind: models.ActionKind("rebalance_portfolio"),
			verify: func(t *testing.T, backend *mockBackend) {
				assert.Equal(t, 1, backend.aiActionCalls)
				assert.Equal(t, "rebalance_portfolio", backend.lastActionKind)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := &mockBackend{createResult: "done"}
			exec := newTestExecutor(backend, Options{})

			_, err := exec.Execute(context.Background(), models.Suggestion{
				ID:         "sug-1",
				ActionKind: tt.kind,
				Payload:    `{}`,
			})
			require.NoError(t, err)
			tt.verify(t, backend)
		})
	}
}

func TestExecuteImportPassesSettings(t *testing.T) {
	backend := &mockBackend{importResult: models.ImportResult{ImportedCount: 3}}
	exec := newTestExecutor(backend, Options{PortfolioID: "pf-1", DeliveryMode: false})

	summary, err := exec.Execute(context.Background(), models.Suggestion{
		ID:         "sug-1",
		ActionKind: models.ActionExtractedTransactions,
		Payload:    importPayload,
	})
	require.NoError(t, err)
	assert.Contains(t, summary, "Imported 3 transaction(s)")

	assert.Equal(t, 1, backend.importCalls)
	assert.Equal(t, "pf-1", backend.lastPortfolio)
	assert.False(t, backend.lastDelivery)
	assert.Len(t, backend.lastBatch, 3)
}

func TestExecuteImportDeliveryMode(t *testing.T) {
	backend := &mockBackend{importResult: models.ImportResult{ImportedCount: 3}}
	exec := newTestExecutor(backend, Options{DeliveryMode: true})

	_, err := exec.Execute(context.Background(), models.Suggestion{
		ID:         "sug-1",
		ActionKind: models.ActionExtractedTransactions,
		Payload:    importPayload,
	})
	require.NoError(t, err)

	require.Len(t, backend.lastBatch, 3)
	assert.Equal(t, models.KindDeliveryInbound, backend.lastBatch[0].Kind)
	assert.Equal(t, models.KindDeliveryOutbound, backend.lastBatch[1].Kind)
	assert.Equal(t, models.KindDeposit, backend.lastBatch[2].Kind)
	assert.True(t, backend.lastDelivery)
}

func TestExecuteImportRejectsIncompleteRecords(t *testing.T) {
	backend := &mockBackend{importResult: models.ImportResult{ImportedCount: 1}}
	exec := newTestExecutor(backend, Options{})

	payload := `[
		{"date": "2024-03-07", "type": "BUY", "isin": "IE00B4L5Y983",
		 "shares": 10, "amount": 850.5, "currency": "EUR"},
		{"date": "2024-03-08", "type": "BUY", "amount": 430, "currency": "EUR"}
	]`

	summary, err := exec.Execute(context.Background(), models.Suggestion{
		ID:         "sug-1",
		ActionKind: models.ActionExtractedTransactions,
		Payload:    payload,
	})
	require.NoError(t, err)

	// One record imported, the incomplete one rejected at the boundary.
	assert.Len(t, backend.lastBatch, 1)
	assert.Contains(t, summary, "record 2: missing shares, security")
}

func TestExecuteMalformedPayload(t *testing.T) {
	backend := &mockBackend{}
	exec := newTestExecutor(backend, Options{})

	_, err := exec.Execute(context.Background(), models.Suggestion{
		ID:         "sug-1",
		ActionKind: models.ActionExtractedTransactions,
		Payload:    "not json at all",
	})

	var payloadErr *pipelineerror.PayloadError
	require.True(t, errors.As(err, &payloadErr))
	assert.Equal(t, "sug-1", payloadErr.SuggestionID)
	assert.Equal(t, 0, backend.importCalls)
}

func TestExecuteImportBackendFailure(t *testing.T) {
	backend := &mockBackend{importError: errors.New("backend unreachable")}
	exec := newTestExecutor(backend, Options{})

	_, err := exec.Execute(context.Background(), models.Suggestion{
		ID:         "sug-1",
		ActionKind: models.ActionExtractedTransactions,
		Payload:    importPayload,
	})

	var execErr *pipelineerror.ExecutionError
	require.True(t, errors.As(err, &execErr))
	assert.Equal(t, models.ActionExtractedTransactions, execErr.ActionKind)
}

func TestRenderImportResultAllOutcomes(t *testing.T) {
	result := models.ImportResult{
		ImportedCount: 2,
		Duplicates:    []string{"BUY 10 IE00B4L5Y983 on 2024-03-07 matches an existing transaction"},
		Errors:        []string{"record 4: missing currency"},
	}

	rendered := RenderImportResult(result)
	assert.Contains(t, rendered, "Imported 2 transaction(s)")
	assert.Contains(t, rendered, "Skipped 1 duplicate(s)")
	assert.Contains(t, rendered, "matches an existing transaction")
	assert.Contains(t, rendered, "1 record(s) failed")
	assert.Contains(t, rendered, "missing currency")
}

// Full path through manager and executor: a batch with one duplicate
// confirms the suggestion and reports the duplicate as a skip, not an error.
func TestConfirmedImportWithDuplicate(t *testing.T) {
	backend := &mockBackend{
		importResult: models.ImportResult{
			ImportedCount: 2,
			Duplicates:    []string{"SELL 5 IE00B4L5Y983 on 2024-03-08 matches an existing transaction"},
		},
	}
	exec := newTestExecutor(backend, Options{})
	mockStore := store.NewMockStore()
	manager := suggestion.NewManager(mockStore, exec)

	seeded, err := mockStore.SaveChatSuggestion(models.Suggestion{
		ConversationID: "conv-1",
		MessageID:      "msg-1",
		ActionKind:     models.ActionExtractedTransactions,
		Payload:        importPayload,
	})
	require.NoError(t, err)

	summary, err := manager.Confirm(context.Background(), seeded.ID)
	require.NoError(t, err)
	assert.Contains(t, summary, "Imported 2 transaction(s)")
	assert.Contains(t, summary, "Skipped 1 duplicate(s)")
	assert.NotContains(t, summary, "failed")

	loaded, err := mockStore.GetSuggestion(seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, loaded.Status)
}
