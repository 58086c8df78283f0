// internal/service/reminder_service.go
package service

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/lipanasa/reminders-backend/internal/channel"
	appErrors "github.com/lipanasa/reminders-backend/internal/errors"
	"github.com/lipanasa/reminders-backend/internal/lock"
	"github.com/lipanasa/reminders-backend/internal/model"
	"github.com/lipanasa/reminders-backend/internal/queue"
	"github.com/lipanasa/reminders-backend/internal/repository"
	"github.com/lipanasa/reminders-backend/internal/template"
)

// RunSummary is the aggregate result of one dispatch run, shaped for the
// operations dashboard and the cron caller.
type RunSummary struct {
	Processed int      `json:"processed"`
	Sent      int      `json:"sent"`
	Failed    int      `json:"failed"`
	Skipped   int      `json:"skipped"`
	Errors    []string `json:"errors"`
}

// ReminderService is the dispatch orchestrator:
// LOAD_CONFIGS -> per tenant: LOAD_OPEN_INVOICES -> per customer:
// RUN_ELIGIBILITY -> per event: RENDER -> DELIVER -> RECORD.
type ReminderService struct {
	SettingsRepo repository.SettingsRepositoryInterface
	CustomerRepo repository.CustomerRepositoryInterface
	InvoiceRepo  repository.InvoiceRepositoryInterface
	EventRepo    repository.ReminderEventRepositoryInterface
	Delivery     Deliverer
	Queue        queue.Queue
	RunLock      lock.RunLock

	// Now is swappable in tests; defaults to time.Now.
	Now func() time.Time
}

func (s *ReminderService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// RunReminderDispatch executes one full reminder run. Only two things abort
// the run: failing to take the run lock and failing the initial settings
// load. Everything below that is recovered at its loop level, turned into an
// event row or an error-list entry, and processing moves on: one tenant's
// bad credentials must never block another tenant.
func (s *ReminderService) RunReminderDispatch(ctx context.Context) (*RunSummary, error) {
	if s.RunLock != nil {
		ok, err := s.RunLock.Acquire(ctx)
		if err != nil {
			return nil, fmt.Errorf("acquire run lock: %w", err)
		}
		if !ok {
			return nil, appErrors.ErrRunInProgress
		}
		defer s.RunLock.Release(ctx)
	}

	allSettings, err := s.SettingsRepo.ListAutoEnabled()
	if err != nil {
		return nil, fmt.Errorf("load tenant settings: %w", err)
	}

	summary := &RunSummary{Errors: []string{}}
	log.Printf("reminder run: %d tenant(s) with auto reminders on", len(allSettings))

	for _, settings := range allSettings {
		if err := s.processTenant(ctx, settings, summary); err != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("tenant %d: %v", settings.TenantID, err))
		}
	}

	log.Printf("reminder run done: processed=%d sent=%d failed=%d skipped=%d errors=%d",
		summary.Processed, summary.Sent, summary.Failed, summary.Skipped, len(summary.Errors))
	return summary, nil
}

func (s *ReminderService) processTenant(ctx context.Context, settings *model.ReminderSettings, summary *RunSummary) (err error) {
	// An unexpected panic in one tenant is downgraded to that tenant's
	// error-list entry; the run continues with the next tenant.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	open, err := s.InvoiceRepo.ListOpenWithCustomers(settings.TenantID)
	if err != nil {
		return fmt.Errorf("load open invoices: %w", err)
	}
	overrides, err := s.CustomerRepo.ListOverrides(settings.TenantID)
	if err != nil {
		return fmt.Errorf("load overrides: %w", err)
	}
	history, err := s.EventRepo.HistoryForTenant(settings.TenantID)
	if err != nil {
		return fmt.Errorf("load reminder history: %w", err)
	}

	candidates, suppressed := ComputeEligible(EligibilityInput{
		Now:       s.now(),
		Settings:  settings,
		Open:      open,
		Overrides: overrides,
		History:   history,
	})
	summary.Skipped += suppressed

	for _, cand := range candidates {
		if err := s.dispatch(ctx, settings, cand, summary); err != nil {
			summary.Errors = append(summary.Errors,
				fmt.Sprintf("tenant %d customer %d: %v", settings.TenantID, cand.Customer.ID, err))
		}
	}
	return nil
}

// dispatch renders, delivers and records one reminder event. Exactly one
// ledger row per attempt, success or failure.
func (s *ReminderService) dispatch(ctx context.Context, settings *model.ReminderSettings, cand ReminderCandidate, summary *RunSummary) error {
	summary.Processed++

	msg := s.renderMessage(settings, cand)
	outcome := s.Delivery.Deliver(ctx, settings, cand.Override, &cand.Customer, msg)

	event := s.buildEvent(settings, cand, msg.Body, outcome)

	if cand.Kind == model.ReminderKindPreDue {
		created, err := s.EventRepo.CreatePreDueOnce(event)
		if err != nil {
			return fmt.Errorf("record pre-due event: %w", err)
		}
		if !created {
			// A concurrent run already holds a sent pre-due row.
			summary.Processed--
			summary.Skipped++
			return nil
		}
	} else {
		if err := s.EventRepo.Create(event); err != nil {
			return fmt.Errorf("record event: %w", err)
		}
	}

	if outcome.Success {
		summary.Sent++
	} else {
		summary.Failed++
	}
	return nil
}

func (s *ReminderService) renderMessage(settings *model.ReminderSettings, cand ReminderCandidate) channel.Message {
	total := 0.0
	for _, inv := range cand.Invoices {
		total += inv.Amount
	}

	vars := map[string]string{
		"customer_name": cand.Customer.Name,
		"name":          cand.Customer.Name,
		"total_amount":  template.FormatAmount(settings.CurrencyCode, settings.Locale, total),
		"currency":      settings.CurrencyCode,
	}

	switch cand.Kind {
	case model.ReminderKindPreDue:
		inv := cand.Invoices[0]
		vars["invoice_number"] = inv.Number
		vars["amount"] = template.FormatAmount(settings.CurrencyCode, settings.Locale, inv.Amount)
		vars["due_date"] = template.FormatDate(inv.DueDate)
		return channel.Message{
			Body:    template.Render(settings.PreDueTemplate, vars),
			Subject: fmt.Sprintf("Invoice %s is due soon", inv.Number),
		}
	default:
		vars["invoice_list"] = template.InvoiceList(cand.Invoices, settings.CurrencyCode, settings.Locale)
		vars["invoice_count"] = strconv.Itoa(len(cand.Invoices))
		return channel.Message{
			Body:    template.Render(settings.OverdueTemplate, vars),
			Subject: fmt.Sprintf("Payment reminder: %d outstanding invoice(s)", len(cand.Invoices)),
		}
	}
}

func (s *ReminderService) buildEvent(settings *model.ReminderSettings, cand ReminderCandidate, rendered string, outcome DeliveryOutcome) *model.ReminderEvent {
	total := 0.0
	ids := make([]int64, 0, len(cand.Invoices))
	for _, inv := range cand.Invoices {
		total += inv.Amount
		ids = append(ids, int64(inv.ID))
	}

	event := &model.ReminderEvent{
		TenantID:    settings.TenantID,
		CustomerID:  cand.Customer.ID,
		InvoiceIDs:  ids,
		Kind:        cand.Kind,
		Message:     rendered,
		TotalAmount: total,
	}

	if outcome.Success {
		now := s.now()
		event.Status = model.EventStatusSent
		event.Channel = outcome.ChannelUsed
		event.ProviderMessageID = outcome.ProviderMessageID
		event.SentAt = &now
	} else {
		event.Status = model.EventStatusFailed
		event.ErrorDetail = outcome.Err
	}
	return event
}

// ManualReminder renders a consolidated reminder for the chosen invoices,
// records it pending, and queues it for the worker to deliver.
func (s *ReminderService) ManualReminder(ctx context.Context, tenantID, customerID int, invoiceIDs []int64) (*model.ReminderEvent, error) {
	settings, err := s.SettingsRepo.GetByTenant(tenantID)
	if err != nil {
		return nil, err
	}
	customer, err := s.CustomerRepo.GetByID(tenantID, customerID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, appErrors.NewCustomerNotFound(customerID)
	}
	invoices, err := s.InvoiceRepo.GetByIDs(tenantID, invoiceIDs)
	if err != nil {
		return nil, err
	}
	if len(invoices) == 0 {
		return nil, fmt.Errorf("no matching invoices for tenant %d", tenantID)
	}

	cand := ReminderCandidate{
		Customer: *customer,
		Kind:     model.ReminderKindManual,
		Invoices: invoices,
	}
	msg := s.renderMessage(settings, cand)

	event := s.buildEvent(settings, cand, msg.Body, DeliveryOutcome{})
	event.Status = model.EventStatusPending
	event.ErrorDetail = ""
	if err := s.EventRepo.Create(event); err != nil {
		return nil, fmt.Errorf("record manual event: %w", err)
	}

	if err := s.Queue.Publish(queue.ReminderSendsQueue, queue.SendJob{ReminderEventID: event.ID}); err != nil {
		return nil, fmt.Errorf("enqueue manual reminder: %w", err)
	}
	return event, nil
}

// DeliverPending delivers a queued manual reminder and records the outcome
// on its event row. Called by cmd/worker for each consumed job.
func (s *ReminderService) DeliverPending(ctx context.Context, eventID int) error {
	event, err := s.EventRepo.GetByID(eventID)
	if err != nil {
		return err
	}
	if event == nil {
		log.Println("⚠️ reminder event not found for ID:", eventID)
		return nil // no retry
	}
	if event.Status != model.EventStatusPending {
		return nil // already handled
	}

	settings, err := s.SettingsRepo.GetByTenant(event.TenantID)
	if err != nil {
		return err
	}
	customer, err := s.CustomerRepo.GetByID(event.TenantID, event.CustomerID)
	if err != nil {
		return err
	}
	if customer == nil {
		return appErrors.NewCustomerNotFound(event.CustomerID)
	}
	overrides, err := s.CustomerRepo.ListOverrides(event.TenantID)
	if err != nil {
		return err
	}

	msg := channel.Message{
		Body:    event.Message,
		Subject: fmt.Sprintf("Payment reminder: %d outstanding invoice(s)", len(event.InvoiceIDs)),
	}
	outcome := s.Delivery.Deliver(ctx, settings, overrides[customer.ID], customer, msg)

	if outcome.Success {
		now := s.now()
		return s.EventRepo.UpdateOutcome(event.ID, outcome.ChannelUsed, model.EventStatusSent,
			outcome.ProviderMessageID, "", &now)
	}
	return s.EventRepo.UpdateOutcome(event.ID, outcome.ChannelUsed, model.EventStatusFailed,
		"", outcome.Err, nil)
}
