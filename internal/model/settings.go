// internal/model/settings.go
package model

import "time"

// Delivery channels, in default fallback priority order.
const (
	ChannelWhatsApp = "whatsapp"
	ChannelEmail    = "email"
	ChannelSMS      = "sms"
)

// SMSCredential is the account-sid/auth-token pair for the SMS gateway.
// Stored in the settings table as a single "sid:token" string and split
// once when the row is scanned, never per send.
type SMSCredential struct {
	AccountSID string `json:"account_sid"`
	AuthToken  string `json:"-"`
}

// ReminderSettings holds one tenant's reminder configuration. Read fresh at
// the start of every scheduler run; upserted from the tenant settings screen.
type ReminderSettings struct {
	TenantID           int  `db:"tenant_id" json:"tenant_id"`
	AutoRemindersOn    bool `db:"auto_reminders_on" json:"auto_reminders_on"`
	DaysBeforeDue      int  `db:"days_before_due" json:"days_before_due"`
	DaysAfterOverdue   int  `db:"days_after_overdue" json:"days_after_overdue"`
	RepeatIntervalDays int  `db:"repeat_interval_days" json:"repeat_interval_days"`
	MaxPerInvoice      int  `db:"max_per_invoice" json:"max_per_invoice"`

	WhatsAppEnabled  bool   `db:"whatsapp_enabled" json:"whatsapp_enabled"`
	WhatsAppToken    string `db:"whatsapp_token" json:"-"`
	WhatsAppSenderID string `db:"whatsapp_sender_id" json:"whatsapp_sender_id"`

	EmailEnabled bool   `db:"email_enabled" json:"email_enabled"`
	EmailAPIKey  string `db:"email_api_key" json:"-"`
	EmailFrom    string `db:"email_from" json:"email_from"`

	SMSEnabled bool          `db:"sms_enabled" json:"sms_enabled"`
	SMS        SMSCredential `json:"-"`
	SMSFrom    string        `db:"sms_from" json:"sms_from"`

	CurrencyCode string `db:"currency_code" json:"currency_code"`
	Locale       string `db:"locale" json:"locale"`

	PreDueTemplate  string `db:"pre_due_template" json:"pre_due_template"`
	OverdueTemplate string `db:"overdue_template" json:"overdue_template"`

	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ChannelEnabled reports whether the tenant has switched a channel on AND
// stored the credentials it needs. A half-configured channel counts as off.
func (s *ReminderSettings) ChannelEnabled(channel string) bool {
	switch channel {
	case ChannelWhatsApp:
		return s.WhatsAppEnabled && s.WhatsAppToken != "" && s.WhatsAppSenderID != ""
	case ChannelEmail:
		return s.EmailEnabled && s.EmailAPIKey != "" && s.EmailFrom != ""
	case ChannelSMS:
		return s.SMSEnabled && s.SMS.AccountSID != "" && s.SMS.AuthToken != "" && s.SMSFrom != ""
	}
	return false
}
