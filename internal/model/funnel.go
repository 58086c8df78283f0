// internal/model/funnel.go
package model

import "time"

const (
	FunnelPhaseTrial      = "trial"
	FunnelPhaseConversion = "conversion"
	FunnelPhaseRecovery   = "recovery"
)

// MaxFunnelDay caps the derived day-since-trial-start. Templates exist for a
// sparse set of days within [0, MaxFunnelDay], not a continuous range.
const MaxFunnelDay = 14

// FunnelTemplate is one lifecycle message, keyed by a literal trial day.
type FunnelTemplate struct {
	ID               int       `db:"id" json:"id"`
	DayNumber        int       `db:"day_number" json:"day_number"`
	Phase            string    `db:"phase" json:"phase"`
	Active           bool      `db:"active" json:"active"`
	WhatsAppTemplate string    `db:"whatsapp_template" json:"whatsapp_template"`
	EmailSubject     string    `db:"email_subject" json:"email_subject"`
	EmailTemplate    string    `db:"email_template" json:"email_template"`
	SMSTemplate      string    `db:"sms_template" json:"sms_template"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// TrialUser is an account owner inside the trial/retention funnel.
type TrialUser struct {
	ID             int       `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	Phone          string    `db:"phone" json:"phone"`
	Email          string    `db:"email" json:"email"`
	TrialStartDate time.Time `db:"trial_start_date" json:"trial_start_date"`
}

// FunnelDay derives the user's current day number, clamped to [0, MaxFunnelDay].
func (u *TrialUser) FunnelDay(now time.Time) int {
	day := int(now.Sub(u.TrialStartDate).Hours() / 24)
	if day < 0 {
		day = 0
	}
	if day > MaxFunnelDay {
		day = MaxFunnelDay
	}
	return day
}

// FunnelStatus is the one-row-per-(user, day) delivery record. Unlike
// reminder_events it is upserted by unique key: lifecycle messages are
// at-most-once per day per user, not an append-only history.
type FunnelStatus struct {
	UserID    int       `db:"user_id" json:"user_id"`
	DayNumber int       `db:"day_number" json:"day_number"`
	Channel   string    `db:"channel" json:"channel"`
	Status    string    `db:"status" json:"status"`
	Error     string    `db:"error" json:"error,omitempty"`
	SentAt    time.Time `db:"sent_at" json:"sent_at"`
}
