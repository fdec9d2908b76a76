// Package models defines the domain types flowing through the assistant
// pipeline: AI-extracted transaction records, their normalized form, and the
// suggestion/chat entities gating AI-initiated mutations.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionKind is the canonical enumeration of transaction types. A kind
// outside this set is treated as an opaque custom kind, not an error.
type TransactionKind string

const (
	KindBuy              TransactionKind = "BUY"
	KindSell             TransactionKind = "SELL"
	KindDividends        TransactionKind = "DIVIDENDS"
	KindDeposit          TransactionKind = "DEPOSIT"
	KindRemoval          TransactionKind = "REMOVAL"
	KindInterest         TransactionKind = "INTEREST"
	KindFees             TransactionKind = "FEES"
	KindTaxes            TransactionKind = "TAXES"
	KindTransferIn       TransactionKind = "TRANSFER_IN"
	KindTransferOut      TransactionKind = "TRANSFER_OUT"
	KindDeliveryInbound  TransactionKind = "DELIVERY_INBOUND"
	KindDeliveryOutbound TransactionKind = "DELIVERY_OUTBOUND"
)

// CanonicalKinds lists every member of the closed enumeration.
var CanonicalKinds = []TransactionKind{
	KindBuy, KindSell, KindDividends, KindDeposit, KindRemoval,
	KindInterest, KindFees, KindTaxes, KindTransferIn, KindTransferOut,
	KindDeliveryInbound, KindDeliveryOutbound,
}

// IsCanonical reports whether k is a member of the fixed enumeration.
func (k TransactionKind) IsCanonical() bool {
	for _, c := range CanonicalKinds {
		if k == c {
			return true
		}
	}
	return false
}

// ExtractedTransaction is one financial event as the AI read it off a
// document or image. Every field except Currency is best-effort; amounts
// arrive already parsed into decimals by the extraction payload decoder.
type ExtractedTransaction struct {
	Date         string `json:"date"`
	Type         string `json:"type"`
	SecurityName string `json:"securityName,omitempty"`
	ISIN         string `json:"isin,omitempty"`
	WKN          string `json:"wkn,omitempty"`
	Ticker       string `json:"ticker,omitempty"`

	Shares decimal.Decimal `json:"shares"`

	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`

	// Foreign-currency fields are either fully present (amount+currency)
	// or fully absent.
	GrossAmount   decimal.Decimal `json:"grossAmount"`
	GrossCurrency string          `json:"grossCurrency,omitempty"`
	ExchangeRate  decimal.Decimal `json:"exchangeRate"`

	Fees                decimal.Decimal `json:"fees"`
	ForeignFees         decimal.Decimal `json:"foreignFees"`
	ForeignFeesCurrency string          `json:"foreignFeesCurrency,omitempty"`

	Taxes                decimal.Decimal `json:"taxes"`
	ForeignTaxes         decimal.Decimal `json:"foreignTaxes"`
	ForeignTaxesCurrency string          `json:"foreignTaxesCurrency,omitempty"`

	Note           string `json:"note,omitempty"`
	ValueDate      string `json:"valueDate,omitempty"`
	OrderReference string `json:"orderReference,omitempty"`
}

// HasShares reports whether the record carries a usable share count.
func (t ExtractedTransaction) HasShares() bool {
	return t.Shares.IsPositive()
}

// NormalizedTransaction is an ExtractedTransaction after the date resolver,
// type normalizer, and optional holdings enrichment have run.
type NormalizedTransaction struct {
	ExtractedTransaction

	Kind TransactionKind `json:"kind"`

	// Date holds the resolved calendar date in ISO form, or the original
	// input unchanged when nothing parsed.
	ResolvedDate string `json:"resolvedDate"`
	DateResolved bool   `json:"dateResolved"`

	// DateWarning is advisory and never blocks processing.
	DateWarning string `json:"dateWarning,omitempty"`

	// SharesFromHoldings marks a share count back-filled from current
	// holdings rather than extracted from the source text.
	SharesFromHoldings bool `json:"sharesFromHoldings,omitempty"`

	PricePerShare         decimal.Decimal `json:"pricePerShare"`
	PricePerShareCurrency string          `json:"pricePerShareCurrency,omitempty"`
}

// HasForeignCurrency reports whether a currency conversion occurred: a
// foreign gross currency is present and differs from the primary currency.
func (t NormalizedTransaction) HasForeignCurrency() bool {
	return t.GrossCurrency != "" && t.GrossCurrency != t.Currency
}

// TotalFees sums the primary-currency fee with the foreign-currency fee
// only when the latter has already been converted into the primary
// currency. The second return value reports whether an unconverted foreign
// fee remains and must be shown separately.
func (t NormalizedTransaction) TotalFees() (Money, bool) {
	total := t.Fees
	separate := false
	if !t.ForeignFees.IsZero() {
		if t.ForeignFeesCurrency == "" || t.ForeignFeesCurrency == t.Currency {
			total = total.Add(t.ForeignFees)
		} else {
			separate = true
		}
	}
	return Money{Amount: total, Currency: t.Currency}, separate
}

// TotalTaxes mirrors TotalFees for the tax components.
func (t NormalizedTransaction) TotalTaxes() (Money, bool) {
	total := t.Taxes
	separate := false
	if !t.ForeignTaxes.IsZero() {
		if t.ForeignTaxesCurrency == "" || t.ForeignTaxesCurrency == t.Currency {
			total = total.Add(t.ForeignTaxes)
		} else {
			separate = true
		}
	}
	return Money{Amount: total, Currency: t.Currency}, separate
}

// EnrichedTransaction is one element of the index-aligned holdings lookup
// response.
type EnrichedTransaction struct {
	Index              int             `json:"index"`
	Shares             decimal.Decimal `json:"shares"`
	SharesFromHoldings bool            `json:"sharesFromHoldings"`
}

// ImportResult is the structured outcome of a batch import. Duplicates are
// records that matched an existing transaction and were intentionally
// skipped; they are a distinct outcome from errors.
type ImportResult struct {
	ImportedCount int      `json:"importedCount"`
	Errors        []string `json:"errors"`
	Duplicates    []string `json:"duplicates"`
}

// ActionKind identifies what a suggestion proposes to do.
type ActionKind string

const (
	ActionTransactionCreate     ActionKind = "transaction_create"
	ActionPortfolioTransfer     ActionKind = "portfolio_transfer"
	ActionTransactionDelete     ActionKind = "transaction_delete"
	ActionExtractedTransactions ActionKind = "extracted_transactions"
	// ActionOther covers any action kind the executor has no dedicated
	// command for; it is dispatched through the generic confirmed-AI-action
	// command with the raw kind preserved.
	ActionOther ActionKind = "other"
)

// Known reports whether k has a dedicated executor command.
func (k ActionKind) Known() bool {
	switch k {
	case ActionTransactionCreate, ActionPortfolioTransfer,
		ActionTransactionDelete, ActionExtractedTransactions:
		return true
	}
	return false
}

// SuggestionStatus is the lifecycle state of a suggestion. Confirmed and
// declined are terminal; a suggestion never reverts to pending.
type SuggestionStatus string

const (
	StatusPending   SuggestionStatus = "pending"
	StatusConfirmed SuggestionStatus = "confirmed"
	StatusDeclined  SuggestionStatus = "declined"
)

// Terminal reports whether s permits no further transitions.
func (s SuggestionStatus) Terminal() bool {
	return s == StatusConfirmed || s == StatusDeclined
}

// Suggestion is a proposed mutating action awaiting explicit user
// confirmation. It is persisted (and assigned an ID) at proposal time so the
// record stays auditable across restarts, and is removed only by cascade
// when its owning message or conversation is deleted.
type Suggestion struct {
	ID             string           `json:"id" yaml:"id"`
	ConversationID string           `json:"conversationId" yaml:"conversation_id"`
	MessageID      string           `json:"messageId" yaml:"message_id"`
	ActionKind     ActionKind       `json:"actionKind" yaml:"action_kind"`
	Description    string           `json:"description" yaml:"description"`
	Payload        string           `json:"payload" yaml:"payload"`
	Status         SuggestionStatus `json:"status" yaml:"status"`
	CreatedAt      time.Time        `json:"createdAt" yaml:"created_at"`
}

// ChatRole is the author of a chat message.
type ChatRole string

const (
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
)

// Attachment is an image attached to a chat message.
type Attachment struct {
	MIMEType string `json:"mimeType" yaml:"mime_type"`
	Data     []byte `json:"data" yaml:"data"`
}

// ChatMessage is one entry of a conversation's ordered history. A message
// exclusively owns its suggestions and attachments.
type ChatMessage struct {
	ID             string       `json:"id" yaml:"id"`
	ConversationID string       `json:"conversationId" yaml:"conversation_id"`
	Role           ChatRole     `json:"role" yaml:"role"`
	Content        string       `json:"content" yaml:"content"`
	Attachments    []Attachment `json:"attachments,omitempty" yaml:"attachments,omitempty"`
	CreatedAt      time.Time    `json:"createdAt" yaml:"created_at"`
}

// Conversation groups an ordered message history.
type Conversation struct {
	ID        string        `json:"id" yaml:"id"`
	Title     string        `json:"title" yaml:"title"`
	Messages  []ChatMessage `json:"messages" yaml:"messages"`
	CreatedAt time.Time     `json:"createdAt" yaml:"created_at"`
}
