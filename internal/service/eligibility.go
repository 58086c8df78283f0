// internal/service/eligibility.go
package service

import (
	"time"

	"github.com/lipanasa/reminders-backend/internal/model"
	"github.com/lipanasa/reminders-backend/internal/repository"
)

// EligibilityInput is everything the engine needs for one tenant: a snapshot
// of open invoices joined with customers, the tenant settings, the customer
// overrides, and the reminder-event ledger view. The engine itself is pure.
type EligibilityInput struct {
	Now       time.Time
	Settings  *model.ReminderSettings
	Open      []repository.OpenInvoice
	Overrides map[int]*model.ReminderOverride
	History   *repository.ReminderHistory
}

// ReminderCandidate is one dispatch the orchestrator should perform. Pre-due
// candidates carry exactly one invoice; overdue candidates carry every
// currently-qualifying overdue invoice for the customer, grouped.
type ReminderCandidate struct {
	Customer model.Customer
	Override *model.ReminderOverride
	Kind     string
	Invoices []model.Invoice
}

// effective returns the override value when present, else the tenant default.
func effective(override *int, fallback int) int {
	if override != nil {
		return *override
	}
	return fallback
}

// ComputeEligible partitions each customer's open invoices into the pre-due
// and overdue pools and emits dispatch candidates. Per customer, pre-due
// candidates come before the grouped overdue candidate. Also returns the
// number of customers fully suppressed by an override.
//
// The asymmetry is deliberate: pre-due notices are invoice-specific ("this
// bill is due soon") and never grouped, overdue notices are one consolidated
// nudge per customer.
func ComputeEligible(in EligibilityInput) (candidates []ReminderCandidate, suppressed int) {
	// Group by customer, preserving first-seen order.
	customerOrder := []int{}
	byCustomer := map[int][]repository.OpenInvoice{}
	for _, oi := range in.Open {
		if _, ok := byCustomer[oi.Customer.ID]; !ok {
			customerOrder = append(customerOrder, oi.Customer.ID)
		}
		byCustomer[oi.Customer.ID] = append(byCustomer[oi.Customer.ID], oi)
	}

	for _, customerID := range customerOrder {
		open := byCustomer[customerID]
		customer := open[0].Customer
		override := in.Overrides[customerID]

		// Suppression: an override row with enabled=false silences the
		// customer entirely, whatever the pools would contain.
		if override != nil && !override.Enabled {
			suppressed++
			continue
		}

		daysBeforeDue := in.Settings.DaysBeforeDue
		repeatInterval := in.Settings.RepeatIntervalDays
		maxPerInvoice := in.Settings.MaxPerInvoice
		if override != nil {
			daysBeforeDue = effective(override.DaysBeforeDue, daysBeforeDue)
			repeatInterval = effective(override.RepeatIntervalDays, repeatInterval)
			maxPerInvoice = effective(override.MaxPerInvoice, maxPerInvoice)
		}

		overduePool := []model.Invoice{}
		for _, oi := range open {
			inv := oi.Invoice
			invID := int64(inv.ID)

			// Pre-due pool: still pending, inside the window, and never
			// successfully pre-due-reminded. At most one pre-due per
			// invoice, ever; a failed attempt may be retried.
			if inv.Status == model.InvoiceStatusPending {
				until := inv.DaysUntilDue(in.Now)
				if until > 0 && until <= daysBeforeDue && !in.History.SentPreDue[invID] {
					candidates = append(candidates, ReminderCandidate{
						Customer: customer,
						Override: override,
						Kind:     model.ReminderKindPreDue,
						Invoices: []model.Invoice{inv},
					})
				}
			}

			// Overdue pool. Every ledger row counts against the cap,
			// failed attempts included: the ledger is the runaway guard.
			age := inv.DaysOverdue(in.Now)
			if age <= 0 {
				continue
			}
			if inv.Status != model.InvoiceStatusOverdue && age <= in.Settings.DaysAfterOverdue {
				continue
			}
			if in.History.Counts[invID] >= maxPerInvoice {
				continue
			}
			if last, ok := in.History.LastOverdue[invID]; ok {
				if in.Now.Sub(last) < time.Duration(repeatInterval)*24*time.Hour {
					continue
				}
			}
			overduePool = append(overduePool, inv)
		}

		if len(overduePool) > 0 {
			candidates = append(candidates, ReminderCandidate{
				Customer: customer,
				Override: override,
				Kind:     model.ReminderKindOverdue,
				Invoices: overduePool,
			})
		}
	}

	return candidates, suppressed
}
