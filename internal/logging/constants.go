package logging

// Standardized field names for structured logging.
const (
	FieldUserID          = "user_id"
	FieldAccount         = "account"
	FieldTargetAccount   = "target_account"
	FieldTransactionID   = "transaction_id"
	FieldTransactionType = "transaction_type"
	FieldAmount          = "amount"
	FieldCurrency        = "currency"
	FieldCategory        = "category"
	FieldMethod          = "match_method"
	FieldDegraded        = "degraded"
	FieldProvider        = "provider"
	FieldOperation       = "operation"
	FieldReason          = "reason"
	FieldStatus          = "status"
	FieldError           = "error"
	FieldDuration        = "duration_ms"
	FieldCount           = "count"
	FieldPath            = "path"
	FieldRequestID       = "request_id"
)
