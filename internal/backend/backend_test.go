package backend

import (
	"context"
	"testing"

	"github.com/rullmann/portfolio-now-sub005/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBackend(t *testing.T) *LocalBackend {
	t.Helper()
	return NewLocalBackend(t.TempDir())
}

func buyTransaction(date, isin string, shares, amount float64) models.NormalizedTransaction {
	return models.NormalizedTransaction{
		ExtractedTransaction: models.ExtractedTransaction{
			ISIN:     isin,
			Shares:   decimal.NewFromFloat(shares),
			Amount:   decimal.NewFromFloat(amount),
			Currency: "EUR",
		},
		Kind:         models.KindBuy,
		ResolvedDate: date,
		DateResolved: true,
	}
}

func TestImportAppendsToLedger(t *testing.T) {
	b := newTestBackend(t)

	result, err := b.ImportExtractedTransactions(context.Background(), []models.NormalizedTransaction{
		buyTransaction("2024-03-07", "IE00B4L5Y983", 10, 850.5),
		buyTransaction("2024-03-08", "IE00B4L5Y983", 5, 430),
	}, "pf-1", false)
	require.NoError(t, err)

	assert.Equal(t, 2, result.ImportedCount)
	assert.Empty(t, result.Duplicates)
	assert.Empty(t, result.Errors)

	ledger, err := b.loadLedger()
	require.NoError(t, err)
	require.Len(t, ledger, 2)
	assert.Equal(t, "pf-1", ledger[0].PortfolioID)
	assert.NotEmpty(t, ledger[0].ID)
}

func TestImportSkipsDuplicates(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()

	_, err := b.ImportExtractedTransactions(ctx, []models.NormalizedTransaction{
		buyTransaction("2024-03-08", "IE00B4L5Y983", 5, 430),
	}, "", false)
	require.NoError(t, err)

	// Re-import a batch of 3 where one matches the stored transaction.
	result, err := b.ImportExtractedTransactions(ctx, []models.NormalizedTransaction{
		buyTransaction("2024-03-07", "IE00B4L5Y983", 10, 850.5),
		buyTransaction("2024-03-08", "IE00B4L5Y983", 5, 430),
		buyTransaction("2024-03-09", "US0378331005", 3, 520),
	}, "", false)
	require.NoError(t, err)

	assert.Equal(t, 2, result.ImportedCount)
	require.Len(t, result.Duplicates, 1)
	assert.Contains(t, result.Duplicates[0], "2024-03-08")
	assert.Contains(t, result.Duplicates[0], "matches an existing transaction")
	assert.Empty(t, result.Errors)

	ledger, err := b.loadLedger()
	require.NoError(t, err)
	assert.Len(t, ledger, 3)
}

func TestEnrichTransactionsFromHoldings(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()

	_, err := b.ImportExtractedTransactions(ctx, []models.NormalizedTransaction{
		buyTransaction("2024-01-10", "IE00B4L5Y983", 20, 1700),
		buyTransaction("2024-02-10", "IE00B4L5Y983", 10, 860),
	}, "", false)
	require.NoError(t, err)

	sell := buyTransaction("2024-02-20", "IE00B4L5Y983", 12, 1000)
	sell.Kind = models.KindSell
	_, err = b.ImportExtractedTransactions(ctx, []models.NormalizedTransaction{sell}, "", false)
	require.NoError(t, err)

	results, err := b.EnrichTransactions(ctx, []models.ExtractedTransaction{
		{ISIN: "IE00B4L5Y983", Currency: "EUR"},
		{ISIN: "US0378331005", Currency: "EUR"},
		{ISIN: "IE00B4L5Y983", Shares: decimal.NewFromInt(7), Currency: "EUR"},
	})
	require.NoError(t, err)
	require.Len(t, results, 3)

	// 20 + 10 - 12 = 18 shares held.
	assert.Equal(t, 0, results[0].Index)
	assert.True(t, results[0].Shares.Equal(decimal.NewFromInt(18)))
	assert.True(t, results[0].SharesFromHoldings)

	// Unknown security: nothing to derive.
	assert.False(t, results[1].SharesFromHoldings)
	assert.True(t, results[1].Shares.IsZero())

	// Shares already present: left alone.
	assert.False(t, results[2].SharesFromHoldings)
	assert.True(t, results[2].Shares.Equal(decimal.NewFromInt(7)))
}

func TestExecuteConfirmedTransaction(t *testing.T) {
	b := newTestBackend(t)

	msg, err := b.ExecuteConfirmedTransaction(context.Background(),
		`{"date": "2024-03-07", "type": "BUY", "isin": "IE00B4L5Y983", "shares": 10, "amount": 850.5, "currency": "EUR"}`)
	require.NoError(t, err)
	assert.Contains(t, msg, "Recorded 1 transaction(s)")

	ledger, err := b.loadLedger()
	require.NoError(t, err)
	require.Len(t, ledger, 1)
	assert.Equal(t, "BUY", ledger[0].Kind)
}

func TestExecuteConfirmedPortfolioTransfer(t *testing.T) {
	b := newTestBackend(t)

	msg, err := b.ExecuteConfirmedPortfolioTransfer(context.Background(),
		`{"fromPortfolio": "pf-1", "toPortfolio": "pf-2", "isin": "IE00B4L5Y983", "shares": 5, "date": "2024-03-07"}`)
	require.NoError(t, err)
	assert.Contains(t, msg, "pf-1")
	assert.Contains(t, msg, "pf-2")

	ledger, err := b.loadLedger()
	require.NoError(t, err)
	require.Len(t, ledger, 2)
	assert.Equal(t, string(models.KindTransferOut), ledger[0].Kind)
	assert.Equal(t, "pf-1", ledger[0].PortfolioID)
	assert.Equal(t, string(models.KindTransferIn), ledger[1].Kind)
	assert.Equal(t, "pf-2", ledger[1].PortfolioID)
}

func TestExecuteConfirmedTransactionDelete(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()

	_, err := b.ImportExtractedTransactions(ctx, []models.NormalizedTransaction{
		buyTransaction("2024-03-07", "IE00B4L5Y983", 10, 850.5),
	}, "", false)
	require.NoError(t, err)

	msg, err := b.ExecuteConfirmedTransactionDelete(ctx,
		`{"date": "2024-03-07", "type": "BUY", "isin": "IE00B4L5Y983"}`)
	require.NoError(t, err)
	assert.Contains(t, msg, "Deleted 2024-03-07 BUY")

	ledger, err := b.loadLedger()
	require.NoError(t, err)
	assert.Empty(t, ledger)
}

func TestExecuteConfirmedTransactionDeleteNoMatch(t *testing.T) {
	b := newTestBackend(t)

	_, err := b.ExecuteConfirmedTransactionDelete(context.Background(),
		`{"date": "2024-03-07", "type": "BUY"}`)
	assert.Error(t, err)
}

func TestExecuteConfirmedAIAction(t *testing.T) {
	b := newTestBackend(t)

	msg, err := b.ExecuteConfirmedAIAction(context.Background(), "rebalance_portfolio", `{}`)
	require.NoError(t, err)
	assert.Contains(t, msg, "rebalance_portfolio")
}
