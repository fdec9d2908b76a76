package logging

// Standardized field names for structured logging.
// Keeping these as constants keeps log output consistent across the
// normalization, suggestion, and executor packages.
const (
	FieldConversationID = "conversation_id"
	FieldMessageID      = "message_id"
	FieldSuggestionID   = "suggestion_id"
	FieldActionKind     = "action_kind"
	FieldStatus         = "status"
	FieldOperation      = "operation"
	FieldError          = "error"
	FieldCount          = "count"
	FieldIndex          = "index"
	FieldImported       = "imported"
	FieldDuplicates     = "duplicates"
	FieldErrors         = "errors"
	FieldSecurity       = "security"
	FieldKind           = "kind"
	FieldDate           = "date"
	FieldCurrency       = "currency"
	FieldPortfolioID    = "portfolio_id"
	FieldProvider       = "provider"
	FieldModel          = "model"
)
