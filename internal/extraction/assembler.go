package extraction

import (
	"fmt"

	"github.com/rullmann/portfolio-now-sub005/internal/dateutils"
	"github.com/rullmann/portfolio-now-sub005/internal/logging"
	"github.com/rullmann/portfolio-now-sub005/internal/models"
	"github.com/rullmann/portfolio-now-sub005/internal/typeutils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Assemble runs the date resolver and type normalizer over each record and
// derives secondary fields. The record's own currency biases the day/month
// order of ambiguous dates.
//
// Assemble never rejects a record. Missing-but-required fields are left for
// the executor boundary to reject at confirmation time.
func Assemble(raw []models.ExtractedTransaction) []models.NormalizedTransaction {
	normalized := make([]models.NormalizedTransaction, 0, len(raw))
	for _, tx := range raw {
		normalized = append(normalized, assembleOne(tx))
	}
	return normalized
}

func assembleOne(tx models.ExtractedTransaction) models.NormalizedTransaction {
	// Foreign-currency components are all-or-nothing: a currency without an
	// amount (or the reverse) is dropped rather than half-used.
	if tx.GrossCurrency == "" || tx.GrossAmount.IsZero() {
		tx.GrossAmount = decimal.Zero
		tx.GrossCurrency = ""
	}

	resolved, ok := dateutils.ResolveDate(tx.Date, tx.Currency)

	n := models.NormalizedTransaction{
		ExtractedTransaction: tx,
		Kind:                 typeutils.Normalize(tx.Type),
		ResolvedDate:         resolved,
		DateResolved:         ok,
	}
	if ok {
		n.DateWarning = dateutils.DateWarning(resolved)
	}

	if n.ValueDate != "" {
		if value, ok := dateutils.ResolveDate(n.ValueDate, tx.Currency); ok {
			n.ExtractedTransaction.ValueDate = value
		}
	}

	if warning := n.DateWarning; warning != "" {
		log.WithFields(logrus.Fields{
			logging.FieldDate: resolved,
			logging.FieldKind: string(n.Kind),
		}).Debug(warning)
	}

	return n
}

// ApplyDeliveryMode rewrites buy/sell kinds to their delivery forms when the
// import is configured for deliveries. The extraction preview and the import
// both go through here, so the kind the user confirms is the kind that gets
// recorded.
func ApplyDeliveryMode(transactions []models.NormalizedTransaction, deliveryMode bool) []models.NormalizedTransaction {
	if !deliveryMode {
		return transactions
	}
	for i := range transactions {
		transactions[i].Kind = typeutils.ApplyDeliveryMode(transactions[i].Kind, true)
	}
	return transactions
}

// MissingFields lists the fields a record still needs before it can be
// imported. Empty means the record is importable as-is.
func MissingFields(tx models.NormalizedTransaction) []string {
	var missing []string
	if !tx.DateResolved {
		missing = append(missing, "date")
	}
	if typeutils.RequiresShares(tx.Kind) && !tx.HasShares() {
		missing = append(missing, "shares")
	}
	if typeutils.RequiresSecurity(tx.Kind) && tx.SecurityLabel() == "" {
		missing = append(missing, "security")
	}
	if tx.Currency == "" {
		missing = append(missing, "currency")
	}
	return missing
}

// PreviewLine renders one normalized record for the extraction preview,
// including provenance and warnings the user must see before confirming.
func PreviewLine(tx models.NormalizedTransaction) string {
	line := fmt.Sprintf("%s  %s", tx.ResolvedDate, typeutils.Label(tx.Kind))
	if security := tx.SecurityLabel(); security != "" {
		line += "  " + security
	}
	if tx.HasShares() {
		line += fmt.Sprintf("  %s shares", tx.Shares.String())
		if tx.SharesFromHoldings {
			line += " (from holdings)"
		}
	}
	line += "  " + models.NewMoney(tx.Amount, tx.Currency).String()
	if tx.HasForeignCurrency() {
		line += fmt.Sprintf("  (gross %s)", models.NewMoney(tx.GrossAmount, tx.GrossCurrency))
	}
	if total, separate := tx.TotalFees(); !total.IsZero() || separate {
		line += fmt.Sprintf("  fees %s", total)
		if separate {
			line += fmt.Sprintf(" + %s", models.NewMoney(tx.ForeignFees, tx.ForeignFeesCurrency))
		}
	}
	if total, separate := tx.TotalTaxes(); !total.IsZero() || separate {
		line += fmt.Sprintf("  taxes %s", total)
		if separate {
			line += fmt.Sprintf(" + %s", models.NewMoney(tx.ForeignTaxes, tx.ForeignTaxesCurrency))
		}
	}
	if tx.Kind != "" && !tx.Kind.IsCanonical() {
		line += "  (custom kind)"
	}
	if tx.ISIN != "" && !models.IsPlausibleISIN(tx.ISIN) {
		line += fmt.Sprintf("  ⚠ %q does not look like an ISIN", tx.ISIN)
	}
	if tx.WKN != "" && !models.IsPlausibleWKN(tx.WKN) {
		line += fmt.Sprintf("  ⚠ %q does not look like a WKN", tx.WKN)
	}
	if tx.DateWarning != "" {
		line += "  ⚠ " + tx.DateWarning
	}
	return line
}
