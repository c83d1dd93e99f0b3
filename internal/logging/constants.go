package logging

// Standardized field names for structured logging. Using these constants keeps
// log output consistent and easy to filter.
const (
	FieldBatch    = "batch_id"
	FieldTxID     = "transaction_id"
	FieldTxHash   = "tx_hash"
	FieldLabel    = "label"
	FieldAmount   = "amount"
	FieldCategory = "category"
	FieldRuleID   = "rule_id"
	FieldPattern  = "pattern"
	FieldPriority = "priority"
	FieldSource   = "source"
	FieldGroupKey = "group_key"
	FieldCount    = "count"
	FieldFile     = "file_path"
	FieldDuration = "duration_ms"
)
