// internal/model/invoice.go
package model

import "time"

const (
	InvoiceStatusPending = "pending"
	InvoiceStatusPartial = "partial"
	InvoiceStatusPaid    = "paid"
	InvoiceStatusOverdue = "overdue"
)

type Invoice struct {
	ID         int       `db:"id" json:"id"`
	TenantID   int       `db:"tenant_id" json:"tenant_id"`
	CustomerID int       `db:"customer_id" json:"customer_id"`
	Number     string    `db:"number" json:"number"`
	Amount     float64   `db:"amount" json:"amount"`
	DueDate    time.Time `db:"due_date" json:"due_date"`
	Status     string    `db:"status" json:"status"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// DaysUntilDue is positive while the invoice is still ahead of its due date,
// negative once it is past due.
func (i *Invoice) DaysUntilDue(now time.Time) int {
	return int(i.DueDate.Sub(now).Hours() / 24)
}

// DaysOverdue is positive once the invoice is past due.
func (i *Invoice) DaysOverdue(now time.Time) int {
	return int(now.Sub(i.DueDate).Hours() / 24)
}
