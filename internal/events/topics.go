package events

// Topic constants for domain events emitted by the platform.
const (
	TopicOrderCreated    = "po.created"
	TopicOrderAmended    = "po.amended"
	TopicPaymentRecorded = "po.payment_recorded"
	TopicExpenseRecorded = "po.expense_recorded"
	TopicReceiptRecorded = "po.receipt_recorded"
	TopicConfigChanged   = "po.config_changed"
)
