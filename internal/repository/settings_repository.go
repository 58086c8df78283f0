package repository

import (
	"database/sql"
	"strings"

	appErrors "github.com/lipanasa/reminders-backend/internal/errors"
	"github.com/lipanasa/reminders-backend/internal/model"
)

// SettingsRepositoryInterface defines the tenant reminder configuration reads
// used by the schedulers. Settings are re-read at the start of every run;
// nothing here is cached.
type SettingsRepositoryInterface interface {
	ListAutoEnabled() ([]*model.ReminderSettings, error)
	GetByTenant(tenantID int) (*model.ReminderSettings, error)
}

type SettingsRepository struct {
	DB *sql.DB
}

const settingsColumns = `
	tenant_id, auto_reminders_on, days_before_due, days_after_overdue,
	repeat_interval_days, max_per_invoice,
	whatsapp_enabled, whatsapp_token, whatsapp_sender_id,
	email_enabled, email_api_key, email_from,
	sms_enabled, sms_credential, sms_from,
	currency_code, locale,
	pre_due_template, overdue_template, updated_at
`

// ListAutoEnabled returns the settings rows with auto reminders switched on,
// one per tenant to process in a dispatch run.
func (r *SettingsRepository) ListAutoEnabled() ([]*model.ReminderSettings, error) {
	query := `SELECT ` + settingsColumns + ` FROM tenant_reminder_settings WHERE auto_reminders_on = true`
	rows, err := r.DB.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	settings := []*model.ReminderSettings{}
	for rows.Next() {
		s, err := scanSettings(rows)
		if err != nil {
			return nil, err
		}
		settings = append(settings, s)
	}
	return settings, rows.Err()
}

func (r *SettingsRepository) GetByTenant(tenantID int) (*model.ReminderSettings, error) {
	query := `SELECT ` + settingsColumns + ` FROM tenant_reminder_settings WHERE tenant_id = $1`
	row := r.DB.QueryRow(query, tenantID)
	s, err := scanSettings(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewTenantNotFound(tenantID)
		}
		return nil, err
	}
	return s, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanSettings maps one row, splitting the packed "sid:token" SMS credential
// into its two fields here so nothing downstream has to re-parse it.
func scanSettings(row rowScanner) (*model.ReminderSettings, error) {
	var s model.ReminderSettings
	var smsCredential string
	err := row.Scan(
		&s.TenantID, &s.AutoRemindersOn, &s.DaysBeforeDue, &s.DaysAfterOverdue,
		&s.RepeatIntervalDays, &s.MaxPerInvoice,
		&s.WhatsAppEnabled, &s.WhatsAppToken, &s.WhatsAppSenderID,
		&s.EmailEnabled, &s.EmailAPIKey, &s.EmailFrom,
		&s.SMSEnabled, &smsCredential, &s.SMSFrom,
		&s.CurrencyCode, &s.Locale,
		&s.PreDueTemplate, &s.OverdueTemplate, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	s.SMS = SplitSMSCredential(smsCredential)
	return &s, nil
}

// SplitSMSCredential parses the legacy colon-packed credential string. A
// string without a colon yields a sid with an empty token, which
// ChannelEnabled treats as unconfigured.
func SplitSMSCredential(packed string) model.SMSCredential {
	sid, token, _ := strings.Cut(packed, ":")
	return model.SMSCredential{AccountSID: sid, AuthToken: token}
}

var _ SettingsRepositoryInterface = (*SettingsRepository)(nil)
