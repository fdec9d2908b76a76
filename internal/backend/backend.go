// Package backend implements the mutating command contract against a local
// YAML transaction ledger. Imports append to the ledger, duplicate records
// are skipped, and holdings are derived from the ledger itself.
package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rullmann/portfolio-now-sub005/internal/extraction"
	"github.com/rullmann/portfolio-now-sub005/internal/fileutils"
	"github.com/rullmann/portfolio-now-sub005/internal/logging"
	"github.com/rullmann/portfolio-now-sub005/internal/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

var log = logrus.New()

// SetLogger sets a custom logger for this package.
func SetLogger(logger *logrus.Logger) {
	if logger != nil {
		log = logger
	}
}

// LedgerEntry is one recorded portfolio transaction.
type LedgerEntry struct {
	ID           string
	PortfolioID  string
	Date         string
	Kind         string
	SecurityName string
	ISIN         string
	WKN          string
	Ticker       string
	Shares       decimal.Decimal
	Amount       decimal.Decimal
	Currency     string
	Note         string
	RecordedAt   time.Time
}

// securityKey identifies a position; name only matters when no identifier
// is present.
func (e LedgerEntry) securityKey() string {
	switch {
	case e.ISIN != "":
		return e.ISIN
	case e.WKN != "":
		return e.WKN
	case e.Ticker != "":
		return e.Ticker
	default:
		return e.SecurityName
	}
}

// LocalBackend stores the ledger as one YAML file in the data directory.
type LocalBackend struct {
	Dir string
}

// NewLocalBackend creates a backend rooted at the given data directory.
func NewLocalBackend(dir string) *LocalBackend {
	return &LocalBackend{Dir: dir}
}

func (b *LocalBackend) ledgerPath() string {
	return filepath.Join(b.Dir, "transactions.yaml")
}

// ledgerEntryDoc is the YAML shape of a LedgerEntry. Amounts go through
// strings because decimals do not survive a YAML round trip natively.
type ledgerEntryDoc struct {
	ID           string    `yaml:"id"`
	PortfolioID  string    `yaml:"portfolio_id,omitempty"`
	Date         string    `yaml:"date"`
	Kind         string    `yaml:"kind"`
	SecurityName string    `yaml:"security_name,omitempty"`
	ISIN         string    `yaml:"isin,omitempty"`
	WKN          string    `yaml:"wkn,omitempty"`
	Ticker       string    `yaml:"ticker,omitempty"`
	Shares       string    `yaml:"shares,omitempty"`
	Amount       string    `yaml:"amount,omitempty"`
	Currency     string    `yaml:"currency,omitempty"`
	Note         string    `yaml:"note,omitempty"`
	RecordedAt   time.Time `yaml:"recorded_at"`
}

func (e LedgerEntry) toDoc() ledgerEntryDoc {
	doc := ledgerEntryDoc{
		ID: e.ID, PortfolioID: e.PortfolioID, Date: e.Date, Kind: e.Kind,
		SecurityName: e.SecurityName, ISIN: e.ISIN, WKN: e.WKN, Ticker: e.Ticker,
		Currency: e.Currency, Note: e.Note, RecordedAt: e.RecordedAt,
	}
	if !e.Shares.IsZero() {
		doc.Shares = e.Shares.String()
	}
	if !e.Amount.IsZero() {
		doc.Amount = e.Amount.String()
	}
	return doc
}

func (d ledgerEntryDoc) toEntry() (LedgerEntry, error) {
	entry := LedgerEntry{
		ID: d.ID, PortfolioID: d.PortfolioID, Date: d.Date, Kind: d.Kind,
		SecurityName: d.SecurityName, ISIN: d.ISIN, WKN: d.WKN, Ticker: d.Ticker,
		Currency: d.Currency, Note: d.Note, RecordedAt: d.RecordedAt,
	}
	var err error
	if d.Shares != "" {
		if entry.Shares, err = decimal.NewFromString(d.Shares); err != nil {
			return LedgerEntry{}, fmt.Errorf("bad share count on entry %s: %w", d.ID, err)
		}
	}
	if d.Amount != "" {
		if entry.Amount, err = decimal.NewFromString(d.Amount); err != nil {
			return LedgerEntry{}, fmt.Errorf("bad amount on entry %s: %w", d.ID, err)
		}
	}
	return entry, nil
}

func (b *LocalBackend) loadLedger() ([]LedgerEntry, error) {
	data, err := os.ReadFile(b.ledgerPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("error reading ledger: %w", err)
	}
	var docs []ledgerEntryDoc
	if err := yaml.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("error parsing ledger: %w", err)
	}
	entries := make([]LedgerEntry, 0, len(docs))
	for _, doc := range docs {
		entry, err := doc.toEntry()
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (b *LocalBackend) saveLedger(entries []LedgerEntry) error {
	docs := make([]ledgerEntryDoc, 0, len(entries))
	for _, entry := range entries {
		docs = append(docs, entry.toDoc())
	}
	data, err := yaml.Marshal(docs)
	if err != nil {
		return fmt.Errorf("error marshaling ledger: %w", err)
	}
	if err := fileutils.WritePrivateFile(b.ledgerPath(), data); err != nil {
		return fmt.Errorf("error writing ledger: %w", err)
	}
	return nil
}

func entryFromTransaction(tx models.NormalizedTransaction, portfolioID string) LedgerEntry {
	return LedgerEntry{
		ID:           uuid.NewString(),
		PortfolioID:  portfolioID,
		Date:         tx.ResolvedDate,
		Kind:         string(tx.Kind),
		SecurityName: tx.SecurityName,
		ISIN:         tx.ISIN,
		WKN:          tx.WKN,
		Ticker:       tx.Ticker,
		Shares:       tx.Shares,
		Amount:       tx.Amount,
		Currency:     tx.Currency,
		Note:         tx.Note,
		RecordedAt:   time.Now().UTC(),
	}
}

// isDuplicate matches a candidate against an existing entry. Same date,
// kind, security, and amount means the record was already imported.
func isDuplicate(existing LedgerEntry, candidate LedgerEntry) bool {
	return existing.Date == candidate.Date &&
		existing.Kind == candidate.Kind &&
		existing.securityKey() == candidate.securityKey() &&
		existing.Amount.Equal(candidate.Amount) &&
		existing.Currency == candidate.Currency
}

// ImportExtractedTransactions appends the batch to the ledger. Records
// matching an existing entry are skipped and reported as duplicates, not
// errors. The delivery-mode flag only labels the log line here; the kinds
// were already rewritten upstream.
func (b *LocalBackend) ImportExtractedTransactions(_ context.Context, transactions []models.NormalizedTransaction, portfolioID string, deliveryMode bool) (models.ImportResult, error) {
	ledger, err := b.loadLedger()
	if err != nil {
		return models.ImportResult{}, err
	}

	result := models.ImportResult{}
	for _, tx := range transactions {
		candidate := entryFromTransaction(tx, portfolioID)
		dup := false
		for _, existing := range ledger {
			if isDuplicate(existing, candidate) {
				dup = true
				break
			}
		}
		if dup {
			result.Duplicates = append(result.Duplicates, fmt.Sprintf(
				"%s %s %s %s matches an existing transaction",
				candidate.Date, candidate.Kind, candidate.securityKey(),
				models.NewMoney(candidate.Amount, candidate.Currency)))
			continue
		}
		ledger = append(ledger, candidate)
		result.ImportedCount++
	}

	if result.ImportedCount > 0 {
		if err := b.saveLedger(ledger); err != nil {
			return models.ImportResult{}, err
		}
	}

	log.WithFields(logrus.Fields{
		logging.FieldImported:    result.ImportedCount,
		logging.FieldDuplicates:  len(result.Duplicates),
		logging.FieldPortfolioID: portfolioID,
		"delivery_mode":          deliveryMode,
	}).Info("Imported transaction batch")
	return result, nil
}

// EnrichTransactions derives share counts from the ledger for dividend
// records without shares. Holdings are the signed share total per security.
func (b *LocalBackend) EnrichTransactions(_ context.Context, transactions []models.ExtractedTransaction) ([]models.EnrichedTransaction, error) {
	ledger, err := b.loadLedger()
	if err != nil {
		return nil, err
	}

	holdings := make(map[string]decimal.Decimal)
	for _, entry := range ledger {
		key := entry.securityKey()
		if key == "" {
			continue
		}
		switch models.TransactionKind(entry.Kind) {
		case models.KindBuy, models.KindDeliveryInbound, models.KindTransferIn:
			holdings[key] = holdings[key].Add(entry.Shares)
		case models.KindSell, models.KindDeliveryOutbound, models.KindTransferOut:
			holdings[key] = holdings[key].Sub(entry.Shares)
		}
	}

	results := make([]models.EnrichedTransaction, 0, len(transactions))
	for i, tx := range transactions {
		result := models.EnrichedTransaction{Index: i, Shares: tx.Shares}
		if !tx.Shares.IsPositive() {
			if held, ok := holdings[securityKeyOf(tx)]; ok && held.IsPositive() {
				result.Shares = held
				result.SharesFromHoldings = true
			}
		}
		results = append(results, result)
	}
	return results, nil
}

func securityKeyOf(tx models.ExtractedTransaction) string {
	switch {
	case tx.ISIN != "":
		return tx.ISIN
	case tx.WKN != "":
		return tx.WKN
	case tx.Ticker != "":
		return tx.Ticker
	default:
		return tx.SecurityName
	}
}

// ExecuteConfirmedTransaction records a single transaction from the
// suggestion payload.
func (b *LocalBackend) ExecuteConfirmedTransaction(ctx context.Context, payload string) (string, error) {
	extracted, _, err := extraction.ParsePayload("[" + payload + "]")
	if err != nil {
		return "", fmt.Errorf("transaction payload did not parse: %w", err)
	}
	normalized := extraction.Assemble(extracted)

	result, err := b.ImportExtractedTransactions(ctx, normalized, "", false)
	if err != nil {
		return "", err
	}
	if result.ImportedCount == 0 && len(result.Duplicates) > 0 {
		return "Transaction already recorded, nothing to do.", nil
	}
	return fmt.Sprintf("Recorded %d transaction(s).", result.ImportedCount), nil
}

// transferPayload is the portfolio_transfer payload shape.
type transferPayload struct {
	FromPortfolio string          `json:"fromPortfolio"`
	ToPortfolio   string          `json:"toPortfolio"`
	ISIN          string          `json:"isin"`
	SecurityName  string          `json:"securityName"`
	Shares        decimal.Decimal `json:"shares"`
	Date          string          `json:"date"`
}

// ExecuteConfirmedPortfolioTransfer records a transfer as an outbound and
// an inbound leg.
func (b *LocalBackend) ExecuteConfirmedPortfolioTransfer(_ context.Context, payload string) (string, error) {
	var transfer transferPayload
	if err := json.Unmarshal([]byte(payload), &transfer); err != nil {
		return "", fmt.Errorf("transfer payload did not parse: %w", err)
	}
	if !transfer.Shares.IsPositive() {
		return "", fmt.Errorf("transfer needs a positive share count")
	}

	ledger, err := b.loadLedger()
	if err != nil {
		return "", err
	}
	now := time.Now().UTC()
	date := transfer.Date
	if date == "" {
		date = now.Format("2006-01-02")
	}
	out := LedgerEntry{
		ID: uuid.NewString(), PortfolioID: transfer.FromPortfolio,
		Date: date, Kind: string(models.KindTransferOut),
		SecurityName: transfer.SecurityName, ISIN: transfer.ISIN,
		Shares: transfer.Shares, RecordedAt: now,
	}
	in := LedgerEntry{
		ID: uuid.NewString(), PortfolioID: transfer.ToPortfolio,
		Date: date, Kind: string(models.KindTransferIn),
		SecurityName: transfer.SecurityName, ISIN: transfer.ISIN,
		Shares: transfer.Shares, RecordedAt: now,
	}
	if err := b.saveLedger(append(ledger, out, in)); err != nil {
		return "", err
	}
	return fmt.Sprintf("Transferred %s shares of %s from %s to %s.",
		transfer.Shares, firstNonEmpty(transfer.SecurityName, transfer.ISIN),
		transfer.FromPortfolio, transfer.ToPortfolio), nil
}

// deletePayload is the transaction_delete payload shape.
type deletePayload struct {
	ID   string `json:"id"`
	Date string `json:"date"`
	Kind string `json:"type"`
	ISIN string `json:"isin"`
}

// ExecuteConfirmedTransactionDelete removes the first ledger entry matching
// the payload, by id when given, else by date/kind/isin.
func (b *LocalBackend) ExecuteConfirmedTransactionDelete(_ context.Context, payload string) (string, error) {
	var del deletePayload
	if err := json.Unmarshal([]byte(payload), &del); err != nil {
		return "", fmt.Errorf("delete payload did not parse: %w", err)
	}

	ledger, err := b.loadLedger()
	if err != nil {
		return "", err
	}
	for i, entry := range ledger {
		match := (del.ID != "" && entry.ID == del.ID) ||
			(del.ID == "" && entry.Date == del.Date && entry.Kind == del.Kind &&
				(del.ISIN == "" || entry.ISIN == del.ISIN))
		if !match {
			continue
		}
		removed := entry
		ledger = append(ledger[:i], ledger[i+1:]...)
		if err := b.saveLedger(ledger); err != nil {
			return "", err
		}
		return fmt.Sprintf("Deleted %s %s of %s.", removed.Date, removed.Kind, removed.securityKey()), nil
	}
	return "", fmt.Errorf("no matching transaction found")
}

// ExecuteConfirmedAIAction handles action kinds outside the dispatch table.
// The kind is recorded verbatim so unknown proposals stay auditable.
func (b *LocalBackend) ExecuteConfirmedAIAction(_ context.Context, actionKind, payload string) (string, error) {
	log.WithFields(logrus.Fields{
		logging.FieldActionKind: actionKind,
		logging.FieldCount:      len(payload),
	}).Info("Confirmed generic AI action")
	return fmt.Sprintf("Confirmed %s action.", actionKind), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
