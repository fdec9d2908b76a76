// Package enrichment back-fills share counts for dividend records from the
// user's current holdings. The lookup is the only network-bound step before
// the extraction preview renders, so its failure path returns the original
// records instead of an error.
package enrichment

import (
	"context"

	"github.com/rullmann/portfolio-now-sub005/internal/currencyutils"
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

// HoldingsClient looks up share counts from current holdings. Results are
// index-aligned with the submitted batch via EnrichedTransaction.Index.
type HoldingsClient interface {
	EnrichTransactions(ctx context.Context, transactions []models.ExtractedTransaction) ([]models.EnrichedTransaction, error)
}

// Enricher applies the holdings lookup to a normalized batch.
type Enricher struct {
	client HoldingsClient
}

// New creates an Enricher backed by the given holdings client.
func New(client HoldingsClient) *Enricher {
	return &Enricher{client: client}
}

// NeedsEnrichment reports whether the batch contains at least one dividend
// record without a usable share count. Only dividends qualify: a BUY with
// missing shares is an extraction defect the user must fix, not something
// holdings can answer.
func NeedsEnrichment(transactions []models.NormalizedTransaction) bool {
	for _, tx := range transactions {
		if tx.Kind == models.KindDividends && !tx.HasShares() {
			return true
		}
	}
	return false
}

// Enrich back-fills shares from holdings and derives per-share prices for
// dividend records. The whole batch is sent in one call, not just the
// deficient records, so the backend can match positions in context.
//
// A lookup failure is logged and the original records come back unchanged;
// enrichment never blocks the preview.
func (e *Enricher) Enrich(ctx context.Context, transactions []models.NormalizedTransaction) []models.NormalizedTransaction {
	if !NeedsEnrichment(transactions) {
		return derivePrices(transactions)
	}

	batch := make([]models.ExtractedTransaction, len(transactions))
	for i, tx := range transactions {
		batch[i] = tx.ExtractedTransaction
	}

	results, err := e.client.EnrichTransactions(ctx, batch)
	if err != nil {
		wrapped := &pipelineerror.EnrichmentError{Count: len(transactions), Err: err}
		log.WithField(logging.FieldCount, len(transactions)).Warn(wrapped.Error())
		return derivePrices(transactions)
	}

	enriched := make([]models.NormalizedTransaction, len(transactions))
	copy(enriched, transactions)
	for _, result := range results {
		if result.Index < 0 || result.Index >= len(enriched) {
			log.WithField(logging.FieldIndex, result.Index).Warn("Enrichment result index out of range, skipping")
			continue
		}
		if !result.SharesFromHoldings {
			continue
		}
		// Overwritten shares always carry provenance so the preview can
		// surface where the number came from.
		enriched[result.Index].Shares = result.Shares
		enriched[result.Index].SharesFromHoldings = true
	}

	return derivePrices(enriched)
}

// derivePrices computes the implied price per share for dividend records
// that have shares but no price. The foreign gross amount takes precedence
// over the local amount plus taxes, and the price currency follows whichever
// amount was used.
func derivePrices(transactions []models.NormalizedTransaction) []models.NormalizedTransaction {
	out := make([]models.NormalizedTransaction, len(transactions))
	copy(out, transactions)
	for i := range out {
		tx := &out[i]
		if tx.Kind != models.KindDividends || !tx.HasShares() || !tx.PricePerShare.IsZero() {
			continue
		}
		var price models.Money
		switch {
		case tx.HasForeignCurrency():
			price = models.NewMoney(tx.GrossAmount, tx.GrossCurrency).Div(tx.Shares)
		case tx.Amount.IsPositive():
			price = models.NewMoney(tx.Amount.Add(tx.Taxes), tx.Currency).Div(tx.Shares)
		default:
			continue
		}
		tx.PricePerShare = price.Amount
		tx.PricePerShareCurrency = price.Currency
		log.WithField(logging.FieldIndex, i).Debugf("Derived price per share %s",
			currencyutils.FormatAmount(price.Amount, price.Currency))
	}
	return out
}
