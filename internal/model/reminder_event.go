// internal/model/reminder_event.go
package model

import "time"

const (
	ReminderKindPreDue  = "pre_due"
	ReminderKindOverdue = "overdue"
	ReminderKindManual  = "manual"
)

const (
	EventStatusPending   = "pending"
	EventStatusSent      = "sent"
	EventStatusDelivered = "delivered"
	EventStatusFailed    = "failed"
)

// ReminderEvent is the append-only audit row written for every dispatch
// attempt, success or failure. The reminder_events table is the only state
// the eligibility engine consults, so a row exists even when every channel
// failed. Rows are never mutated after creation except by delivery-status
// webhooks updating status/timestamps.
type ReminderEvent struct {
	ID                int        `db:"id" json:"id"`
	TenantID          int        `db:"tenant_id" json:"tenant_id"`
	CustomerID        int        `db:"customer_id" json:"customer_id"`
	InvoiceIDs        []int64    `db:"invoice_ids" json:"invoice_ids"`
	Kind              string     `db:"kind" json:"kind"`
	Channel           string     `db:"channel" json:"channel"`
	Status            string     `db:"status" json:"status"`
	Message           string     `db:"message" json:"message"`
	ProviderMessageID string     `db:"provider_message_id" json:"provider_message_id,omitempty"`
	ErrorDetail       string     `db:"error_detail" json:"error_detail,omitempty"`
	TotalAmount       float64    `db:"total_amount" json:"total_amount"`
	SentAt            *time.Time `db:"sent_at" json:"sent_at,omitempty"`
	DeliveredAt       *time.Time `db:"delivered_at" json:"delivered_at,omitempty"`
	ReadAt            *time.Time `db:"read_at" json:"read_at,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
}
