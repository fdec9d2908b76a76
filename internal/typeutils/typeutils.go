// Package typeutils maps the free-text transaction-type labels produced by
// AI extraction (mixed German/English, varying case and separators) onto the
// canonical transaction kinds.
package typeutils

import (
	"regexp"
	"strings"

	"github.com/rullmann/portfolio-now-sub005/internal/models"
)

var separatorPattern = regexp.MustCompile(`[\s\-]+`)

// synonyms maps normalized-form labels to canonical kinds. Canonical kinds
// map to themselves, which makes Normalize idempotent.
var synonyms = map[string]models.TransactionKind{
	"BUY":            models.KindBuy,
	"KAUF":           models.KindBuy,
	"WERTPAPIERKAUF": models.KindBuy,
	"PURCHASE":       models.KindBuy,

	"SELL":              models.KindSell,
	"VERKAUF":           models.KindSell,
	"WERTPAPIERVERKAUF": models.KindSell,
	"SALE":              models.KindSell,

	"DIVIDENDS":         models.KindDividends,
	"DIVIDEND":          models.KindDividends,
	"DIVIDENDE":         models.KindDividends,
	"AUSSCHÜTTUNG":      models.KindDividends,
	"AUSSCHUETTUNG":     models.KindDividends,
	"ERTRAGSGUTSCHRIFT": models.KindDividends,

	"DEPOSIT":    models.KindDeposit,
	"EINLAGE":    models.KindDeposit,
	"EINZAHLUNG": models.KindDeposit,

	"REMOVAL":    models.KindRemoval,
	"ENTNAHME":   models.KindRemoval,
	"AUSZAHLUNG": models.KindRemoval,
	"WITHDRAWAL": models.KindRemoval,

	"INTEREST": models.KindInterest,
	"ZINSEN":   models.KindInterest,
	"ZINS":     models.KindInterest,

	"FEES":      models.KindFees,
	"FEE":       models.KindFees,
	"GEBÜHREN":  models.KindFees,
	"GEBUEHREN": models.KindFees,
	"KOSTEN":    models.KindFees,

	"TAXES":   models.KindTaxes,
	"TAX":     models.KindTaxes,
	"STEUERN": models.KindTaxes,
	"STEUER":  models.KindTaxes,

	"TRANSFER_IN":       models.KindTransferIn,
	"UMBUCHUNG_EINGANG": models.KindTransferIn,
	"TRANSFER_OUT":      models.KindTransferOut,
	"UMBUCHUNG_AUSGANG": models.KindTransferOut,

	"DELIVERY_INBOUND":  models.KindDeliveryInbound,
	"EINLIEFERUNG":      models.KindDeliveryInbound,
	"INBOUND_DELIVERY":  models.KindDeliveryInbound,
	"DELIVERY_OUTBOUND": models.KindDeliveryOutbound,
	"AUSLIEFERUNG":      models.KindDeliveryOutbound,
	"OUTBOUND_DELIVERY": models.KindDeliveryOutbound,
}

// Normalize maps a free-text transaction type to its canonical kind.
// Unknown input passes through as its normalized-case form: the system
// treats it as an opaque custom kind rather than failing.
func Normalize(raw string) models.TransactionKind {
	key := normalizeKey(raw)
	if kind, ok := synonyms[key]; ok {
		return kind
	}
	return models.TransactionKind(key)
}

// normalizeKey uppercases and collapses whitespace/hyphens to underscores.
func normalizeKey(raw string) string {
	key := strings.ToUpper(strings.TrimSpace(raw))
	return separatorPattern.ReplaceAllString(key, "_")
}

// labels maps each canonical kind to its fixed display label.
var labels = map[models.TransactionKind]string{
	models.KindBuy:              "Buy",
	models.KindSell:             "Sell",
	models.KindDividends:        "Dividends",
	models.KindDeposit:          "Deposit",
	models.KindRemoval:          "Removal",
	models.KindInterest:         "Interest",
	models.KindFees:             "Fees",
	models.KindTaxes:            "Taxes",
	models.KindTransferIn:       "Transfer (in)",
	models.KindTransferOut:      "Transfer (out)",
	models.KindDeliveryInbound:  "Delivery (inbound)",
	models.KindDeliveryOutbound: "Delivery (outbound)",
}

// Label returns the display label for a kind. Custom kinds display as
// themselves.
func Label(kind models.TransactionKind) string {
	if label, ok := labels[kind]; ok {
		return label
	}
	return string(kind)
}

// RequiresShares reports whether the kind cannot be imported without a
// share count.
func RequiresShares(kind models.TransactionKind) bool {
	switch kind {
	case models.KindBuy, models.KindSell,
		models.KindDeliveryInbound, models.KindDeliveryOutbound:
		return true
	}
	return false
}

// RequiresSecurity reports whether the kind refers to a security.
func RequiresSecurity(kind models.TransactionKind) bool {
	switch kind {
	case models.KindBuy, models.KindSell, models.KindDividends,
		models.KindTransferIn, models.KindTransferOut,
		models.KindDeliveryInbound, models.KindDeliveryOutbound:
		return true
	}
	return false
}

// NeedsPortfolio reports whether importing the kind requires a target
// portfolio.
func NeedsPortfolio(kind models.TransactionKind) bool {
	switch kind {
	case models.KindBuy, models.KindSell,
		models.KindDeliveryInbound, models.KindDeliveryOutbound,
		models.KindTransferIn, models.KindTransferOut:
		return true
	}
	return false
}

// ApplyDeliveryMode maps buy/sell framing to delivery framing when the user
// prefers deliveries, e.g. for portfolios held at another institution.
func ApplyDeliveryMode(kind models.TransactionKind, deliveryMode bool) models.TransactionKind {
	if !deliveryMode {
		return kind
	}
	switch kind {
	case models.KindBuy:
		return models.KindDeliveryInbound
	case models.KindSell:
		return models.KindDeliveryOutbound
	}
	return kind
}
