package repository

import (
	"database/sql"

	"github.com/lipanasa/reminders-backend/internal/model"
)

// CustomerRepositoryInterface defines methods used by the services
type CustomerRepositoryInterface interface {
	GetByID(tenantID, id int) (*model.Customer, error)
	ListOverrides(tenantID int) (map[int]*model.ReminderOverride, error)
}

// CustomerRepository is the concrete implementation
type CustomerRepository struct {
	DB *sql.DB
}

// GetByID fetches a customer by ID within a tenant
func (r *CustomerRepository) GetByID(tenantID, id int) (*model.Customer, error) {
	query := `
        SELECT id, tenant_id, name, phone, email
        FROM customers
        WHERE tenant_id = $1 AND id = $2
    `
	row := r.DB.QueryRow(query, tenantID, id)

	var c model.Customer
	if err := row.Scan(&c.ID, &c.TenantID, &c.Name, &c.Phone, &c.Email); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // not found
		}
		return nil, err
	}
	return &c, nil
}

// ListOverrides fetches the tenant's customer reminder overrides keyed by
// customer id. Customers without a row fall back to tenant defaults.
func (r *CustomerRepository) ListOverrides(tenantID int) (map[int]*model.ReminderOverride, error) {
	query := `
        SELECT tenant_id, customer_id, enabled, preferred_channel,
               whatsapp_phone, email, sms_phone,
               days_before_due, repeat_interval_days, max_per_invoice
        FROM customer_reminder_overrides
        WHERE tenant_id = $1
    `
	rows, err := r.DB.Query(query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	overrides := map[int]*model.ReminderOverride{}
	for rows.Next() {
		var o model.ReminderOverride
		if err := rows.Scan(
			&o.TenantID, &o.CustomerID, &o.Enabled, &o.PreferredChannel,
			&o.WhatsAppPhone, &o.Email, &o.SMSPhone,
			&o.DaysBeforeDue, &o.RepeatIntervalDays, &o.MaxPerInvoice,
		); err != nil {
			return nil, err
		}
		overrides[o.CustomerID] = &o
	}
	return overrides, rows.Err()
}

var _ CustomerRepositoryInterface = (*CustomerRepository)(nil)
