// internal/model/customer.go
package model

type Customer struct {
	ID       int    `db:"id" json:"id"`
	TenantID int    `db:"tenant_id" json:"tenant_id"`
	Name     string `db:"name" json:"name"`
	Phone    string `db:"phone" json:"phone"`
	Email    string `db:"email" json:"email"`
}

// ReminderOverride is the optional per-(tenant, customer) row. Nil pointer
// fields mean "use the tenant default"; a non-nil field wins.
type ReminderOverride struct {
	TenantID   int  `db:"tenant_id" json:"tenant_id"`
	CustomerID int  `db:"customer_id" json:"customer_id"`
	Enabled    bool `db:"enabled" json:"enabled"`

	PreferredChannel string `db:"preferred_channel" json:"preferred_channel"`

	WhatsAppPhone string `db:"whatsapp_phone" json:"whatsapp_phone"`
	Email         string `db:"email" json:"email"`
	SMSPhone      string `db:"sms_phone" json:"sms_phone"`

	DaysBeforeDue      *int `db:"days_before_due" json:"days_before_due,omitempty"`
	RepeatIntervalDays *int `db:"repeat_interval_days" json:"repeat_interval_days,omitempty"`
	MaxPerInvoice      *int `db:"max_per_invoice" json:"max_per_invoice,omitempty"`
}
