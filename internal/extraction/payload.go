// Package extraction turns the assistant's raw extraction payload into
// normalized transaction records. No stage here ever rejects a record:
// unusable fields degrade to their zero value and are reported as advisory
// diagnostics.
package extraction

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rullmann/portfolio-now-sub005/internal/currencyutils"
	"github.com/rullmann/portfolio-now-sub005/internal/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var log = logrus.New()

// SetLogger sets a custom logger for this package.
func SetLogger(logger *logrus.Logger) {
	if logger != nil {
		log = logger
	}
}

// Diagnostic is a non-fatal note about a degraded field of one record.
type Diagnostic struct {
	Index   int
	Field   string
	Message string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("record %d, field %s: %s", d.Index, d.Field, d.Message)
}

// flexDecimal decodes a decimal from a JSON number or a formatted amount
// string ("1'234.56", "€12,50"). Unparseable input degrades to zero.
type flexDecimal struct {
	value  decimal.Decimal
	failed bool
}

func (f *flexDecimal) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" || s == `""` {
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			f.failed = true
			return nil
		}
		value, err := currencyutils.ParseAmount(str)
		if err != nil {
			f.failed = true
			return nil
		}
		f.value = value
		return nil
	}
	value, err := decimal.NewFromString(s)
	if err != nil {
		f.failed = true
		return nil
	}
	f.value = value
	return nil
}

// rawRecord mirrors the JSON shape the assistant produces for one extracted
// transaction. All amounts are flexDecimal so string-formatted values parse.
type rawRecord struct {
	Date                 string      `json:"date"`
	Type                 string      `json:"type"`
	SecurityName         string      `json:"securityName"`
	ISIN                 string      `json:"isin"`
	WKN                  string      `json:"wkn"`
	Ticker               string      `json:"ticker"`
	Shares               flexDecimal `json:"shares"`
	Amount               flexDecimal `json:"amount"`
	Currency             string      `json:"currency"`
	GrossAmount          flexDecimal `json:"grossAmount"`
	GrossCurrency        string      `json:"grossCurrency"`
	ExchangeRate         flexDecimal `json:"exchangeRate"`
	Fees                 flexDecimal `json:"fees"`
	ForeignFees          flexDecimal `json:"foreignFees"`
	ForeignFeesCurrency  string      `json:"foreignFeesCurrency"`
	Taxes                flexDecimal `json:"taxes"`
	ForeignTaxes         flexDecimal `json:"foreignTaxes"`
	ForeignTaxesCurrency string      `json:"foreignTaxesCurrency"`
	Note                 string      `json:"note"`
	ValueDate            string      `json:"valueDate"`
	OrderReference       string      `json:"orderReference"`
}

// payloadEnvelope tolerates both a bare JSON array and an object wrapping
// the records in a "transactions" field.
type payloadEnvelope struct {
	Transactions []rawRecord `json:"transactions"`
}

// ParsePayload decodes an extraction payload into raw transaction records.
// Per-field degradation is reported through diagnostics; only a payload that
// is not valid JSON at all returns an error.
func ParsePayload(payload string) ([]models.ExtractedTransaction, []Diagnostic, error) {
	trimmed := strings.TrimSpace(payload)

	var records []rawRecord
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal([]byte(trimmed), &records); err != nil {
			return nil, nil, fmt.Errorf("extraction payload is not a transaction array: %w", err)
		}
	} else {
		var envelope payloadEnvelope
		if err := json.Unmarshal([]byte(trimmed), &envelope); err != nil {
			return nil, nil, fmt.Errorf("extraction payload is not valid JSON: %w", err)
		}
		records = envelope.Transactions
	}

	transactions := make([]models.ExtractedTransaction, 0, len(records))
	var diagnostics []Diagnostic
	for i, r := range records {
		tx := models.ExtractedTransaction{
			Date:                 r.Date,
			Type:                 r.Type,
			SecurityName:         r.SecurityName,
			ISIN:                 r.ISIN,
			WKN:                  r.WKN,
			Ticker:               r.Ticker,
			Shares:               r.Shares.value,
			Amount:               r.Amount.value,
			Currency:             r.Currency,
			GrossAmount:          r.GrossAmount.value,
			GrossCurrency:        r.GrossCurrency,
			ExchangeRate:         r.ExchangeRate.value,
			Fees:                 r.Fees.value,
			ForeignFees:          r.ForeignFees.value,
			ForeignFeesCurrency:  r.ForeignFeesCurrency,
			Taxes:                r.Taxes.value,
			ForeignTaxes:         r.ForeignTaxes.value,
			ForeignTaxesCurrency: r.ForeignTaxesCurrency,
			Note:                 r.Note,
			ValueDate:            r.ValueDate,
			OrderReference:       r.OrderReference,
		}
		for field, failed := range map[string]bool{
			"shares":       r.Shares.failed,
			"amount":       r.Amount.failed,
			"grossAmount":  r.GrossAmount.failed,
			"exchangeRate": r.ExchangeRate.failed,
			"fees":         r.Fees.failed,
			"foreignFees":  r.ForeignFees.failed,
			"taxes":        r.Taxes.failed,
			"foreignTaxes": r.ForeignTaxes.failed,
		} {
			if failed {
				diagnostics = append(diagnostics, Diagnostic{
					Index:   i,
					Field:   field,
					Message: "unparseable amount, using zero",
				})
			}
		}
		transactions = append(transactions, tx)
	}

	return transactions, diagnostics, nil
}
