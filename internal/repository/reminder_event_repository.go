package repository

import (
	"database/sql"
	"time"

	"github.com/lib/pq"

	"github.com/lipanasa/reminders-backend/internal/model"
)

// ReminderHistory is the per-tenant view of the reminder_events ledger that
// the eligibility engine needs, keyed by invoice id. The ledger is the sole
// source of truth: there is no separate counter state anywhere.
type ReminderHistory struct {
	// Counts is the number of event rows referencing each invoice,
	// regardless of status. Failed attempts consume cap slots too.
	Counts map[int64]int
	// SentPreDue marks invoices that already have a sent pre-due event.
	SentPreDue map[int64]bool
	// LastOverdue is the most recent overdue event time per invoice.
	LastOverdue map[int64]time.Time
}

type ReminderEventRepositoryInterface interface {
	Create(e *model.ReminderEvent) error
	CreatePreDueOnce(e *model.ReminderEvent) (bool, error)
	HistoryForTenant(tenantID int) (*ReminderHistory, error)
	GetByID(id int) (*model.ReminderEvent, error)
	UpdateOutcome(id int, channel, status, providerMessageID, errorDetail string, sentAt *time.Time) error
	ListByTenant(tenantID, limit int) ([]*model.ReminderEvent, error)
	StatusCounts(tenantID int) (map[string]int, error)
}

type ReminderEventRepository struct {
	DB *sql.DB
}

func int64Array(ids []int64) interface{} {
	return pq.Array(ids)
}

// Create appends one event row. Exactly one row is written per dispatch
// attempt, win or lose.
func (r *ReminderEventRepository) Create(e *model.ReminderEvent) error {
	e.CreatedAt = time.Now()
	query := `
        INSERT INTO reminder_events
        (tenant_id, customer_id, invoice_ids, kind, channel, status, message,
         provider_message_id, error_detail, total_amount, sent_at, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
        RETURNING id
    `
	return r.DB.QueryRow(query,
		e.TenantID, e.CustomerID, int64Array(e.InvoiceIDs), e.Kind, e.Channel, e.Status,
		e.Message, e.ProviderMessageID, e.ErrorDetail, e.TotalAmount, e.SentAt, e.CreatedAt,
	).Scan(&e.ID)
}

// CreatePreDueOnce appends a pre-due event only if the invoice has no sent
// pre-due event yet. The guard runs inside the INSERT statement so two
// overlapping runs cannot both get through; returns false when the row was
// rejected as a duplicate.
func (r *ReminderEventRepository) CreatePreDueOnce(e *model.ReminderEvent) (bool, error) {
	e.CreatedAt = time.Now()
	query := `
        INSERT INTO reminder_events
        (tenant_id, customer_id, invoice_ids, kind, channel, status, message,
         provider_message_id, error_detail, total_amount, sent_at, created_at)
        SELECT $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
        WHERE NOT EXISTS (
            SELECT 1 FROM reminder_events
            WHERE tenant_id = $1 AND kind = 'pre_due' AND status = 'sent'
              AND $13 = ANY(invoice_ids)
        )
        RETURNING id
    `
	err := r.DB.QueryRow(query,
		e.TenantID, e.CustomerID, int64Array(e.InvoiceIDs), e.Kind, e.Channel, e.Status,
		e.Message, e.ProviderMessageID, e.ErrorDetail, e.TotalAmount, e.SentAt, e.CreatedAt,
		e.InvoiceIDs[0],
	).Scan(&e.ID)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil // another run got there first
		}
		return false, err
	}
	return true, nil
}

// HistoryForTenant loads the ledger view for one tenant in three queries,
// unnesting the invoice_ids array so grouped overdue events count against
// every invoice they covered.
func (r *ReminderEventRepository) HistoryForTenant(tenantID int) (*ReminderHistory, error) {
	h := &ReminderHistory{
		Counts:      map[int64]int{},
		SentPreDue:  map[int64]bool{},
		LastOverdue: map[int64]time.Time{},
	}

	rows, err := r.DB.Query(`
        SELECT inv, COUNT(*)
        FROM reminder_events, unnest(invoice_ids) AS inv
        WHERE tenant_id = $1
        GROUP BY inv
    `, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var inv int64
		var count int
		if err := rows.Scan(&inv, &count); err != nil {
			return nil, err
		}
		h.Counts[inv] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	preRows, err := r.DB.Query(`
        SELECT DISTINCT inv
        FROM reminder_events, unnest(invoice_ids) AS inv
        WHERE tenant_id = $1 AND kind = 'pre_due' AND status = 'sent'
    `, tenantID)
	if err != nil {
		return nil, err
	}
	defer preRows.Close()
	for preRows.Next() {
		var inv int64
		if err := preRows.Scan(&inv); err != nil {
			return nil, err
		}
		h.SentPreDue[inv] = true
	}
	if err := preRows.Err(); err != nil {
		return nil, err
	}

	odRows, err := r.DB.Query(`
        SELECT inv, MAX(created_at)
        FROM reminder_events, unnest(invoice_ids) AS inv
        WHERE tenant_id = $1 AND kind = 'overdue'
        GROUP BY inv
    `, tenantID)
	if err != nil {
		return nil, err
	}
	defer odRows.Close()
	for odRows.Next() {
		var inv int64
		var last time.Time
		if err := odRows.Scan(&inv, &last); err != nil {
			return nil, err
		}
		h.LastOverdue[inv] = last
	}
	return h, odRows.Err()
}

func (r *ReminderEventRepository) GetByID(id int) (*model.ReminderEvent, error) {
	query := `
        SELECT id, tenant_id, customer_id, invoice_ids, kind, channel, status, message,
               provider_message_id, error_detail, total_amount, sent_at, delivered_at, read_at, created_at
        FROM reminder_events
        WHERE id = $1
    `
	var e model.ReminderEvent
	err := r.DB.QueryRow(query, id).Scan(
		&e.ID, &e.TenantID, &e.CustomerID, pq.Array(&e.InvoiceIDs), &e.Kind, &e.Channel,
		&e.Status, &e.Message, &e.ProviderMessageID, &e.ErrorDetail, &e.TotalAmount,
		&e.SentAt, &e.DeliveredAt, &e.ReadAt, &e.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

// UpdateOutcome records the delivery result for a pending event (manual
// reminders delivered by the worker).
func (r *ReminderEventRepository) UpdateOutcome(id int, channel, status, providerMessageID, errorDetail string, sentAt *time.Time) error {
	query := `
        UPDATE reminder_events
        SET channel=$1, status=$2, provider_message_id=$3, error_detail=$4, sent_at=$5
        WHERE id=$6
    `
	_, err := r.DB.Exec(query, channel, status, providerMessageID, errorDetail, sentAt, id)
	return err
}

// ListByTenant returns recent events for the operations dashboard.
func (r *ReminderEventRepository) ListByTenant(tenantID, limit int) ([]*model.ReminderEvent, error) {
	if limit < 1 || limit > 200 {
		limit = 50
	}
	query := `
        SELECT id, tenant_id, customer_id, invoice_ids, kind, channel, status, message,
               provider_message_id, error_detail, total_amount, sent_at, delivered_at, read_at, created_at
        FROM reminder_events
        WHERE tenant_id = $1
        ORDER BY id DESC
        LIMIT $2
    `
	rows, err := r.DB.Query(query, tenantID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []*model.ReminderEvent{}
	for rows.Next() {
		var e model.ReminderEvent
		if err := rows.Scan(
			&e.ID, &e.TenantID, &e.CustomerID, pq.Array(&e.InvoiceIDs), &e.Kind, &e.Channel,
			&e.Status, &e.Message, &e.ProviderMessageID, &e.ErrorDetail, &e.TotalAmount,
			&e.SentAt, &e.DeliveredAt, &e.ReadAt, &e.CreatedAt,
		); err != nil {
			return nil, err
		}
		events = append(events, &e)
	}
	return events, rows.Err()
}

func (r *ReminderEventRepository) StatusCounts(tenantID int) (map[string]int, error) {
	query := `SELECT status, COUNT(*) FROM reminder_events WHERE tenant_id=$1 GROUP BY status`
	rows, err := r.DB.Query(query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[string]int{"pending": 0, "sent": 0, "delivered": 0, "failed": 0}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

var _ ReminderEventRepositoryInterface = (*ReminderEventRepository)(nil)
