package repository

import (
	"database/sql"

	"github.com/lipanasa/reminders-backend/internal/model"
)

// OpenInvoice is an open invoice joined with its customer, the unit the
// eligibility engine works on.
type OpenInvoice struct {
	Invoice  model.Invoice
	Customer model.Customer
}

type InvoiceRepositoryInterface interface {
	ListOpenWithCustomers(tenantID int) ([]OpenInvoice, error)
	GetByIDs(tenantID int, ids []int64) ([]model.Invoice, error)
}

type InvoiceRepository struct {
	DB *sql.DB
}

// ListOpenWithCustomers returns every non-paid invoice for the tenant joined
// with its customer. Paid invoices are never reminder candidates.
func (r *InvoiceRepository) ListOpenWithCustomers(tenantID int) ([]OpenInvoice, error) {
	query := `
        SELECT i.id, i.tenant_id, i.customer_id, i.number, i.amount, i.due_date, i.status, i.created_at,
               c.id, c.tenant_id, c.name, c.phone, c.email
        FROM invoices i
        JOIN customers c ON c.id = i.customer_id AND c.tenant_id = i.tenant_id
        WHERE i.tenant_id = $1 AND i.status <> 'paid'
        ORDER BY i.customer_id, i.due_date
    `
	rows, err := r.DB.Query(query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	open := []OpenInvoice{}
	for rows.Next() {
		var oi OpenInvoice
		if err := rows.Scan(
			&oi.Invoice.ID, &oi.Invoice.TenantID, &oi.Invoice.CustomerID, &oi.Invoice.Number,
			&oi.Invoice.Amount, &oi.Invoice.DueDate, &oi.Invoice.Status, &oi.Invoice.CreatedAt,
			&oi.Customer.ID, &oi.Customer.TenantID, &oi.Customer.Name, &oi.Customer.Phone, &oi.Customer.Email,
		); err != nil {
			return nil, err
		}
		open = append(open, oi)
	}
	return open, rows.Err()
}

// GetByIDs fetches specific invoices for a tenant, used by manual reminders.
func (r *InvoiceRepository) GetByIDs(tenantID int, ids []int64) ([]model.Invoice, error) {
	query := `
        SELECT id, tenant_id, customer_id, number, amount, due_date, status, created_at
        FROM invoices
        WHERE tenant_id = $1 AND id = ANY($2)
        ORDER BY due_date
    `
	rows, err := r.DB.Query(query, tenantID, int64Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	invoices := []model.Invoice{}
	for rows.Next() {
		var inv model.Invoice
		if err := rows.Scan(
			&inv.ID, &inv.TenantID, &inv.CustomerID, &inv.Number,
			&inv.Amount, &inv.DueDate, &inv.Status, &inv.CreatedAt,
		); err != nil {
			return nil, err
		}
		invoices = append(invoices, inv)
	}
	return invoices, rows.Err()
}

var _ InvoiceRepositoryInterface = (*InvoiceRepository)(nil)
