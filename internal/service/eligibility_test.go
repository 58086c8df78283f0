package service_test

import (
	"strconv"
	"testing"
	"time"

	"github.com/lipanasa/reminders-backend/internal/model"
	"github.com/lipanasa/reminders-backend/internal/repository"
	"github.com/lipanasa/reminders-backend/internal/service"
)

var now = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func baseSettings() *model.ReminderSettings {
	return &model.ReminderSettings{
		TenantID:           1,
		AutoRemindersOn:    true,
		DaysBeforeDue:      3,
		DaysAfterOverdue:   1,
		RepeatIntervalDays: 7,
		MaxPerInvoice:      5,
	}
}

func emptyHistory() *repository.ReminderHistory {
	return &repository.ReminderHistory{
		Counts:      map[int64]int{},
		SentPreDue:  map[int64]bool{},
		LastOverdue: map[int64]time.Time{},
	}
}

func openInvoice(id, customerID int, status string, dueIn time.Duration, amount float64) repository.OpenInvoice {
	return repository.OpenInvoice{
		Invoice: model.Invoice{
			ID: id, TenantID: 1, CustomerID: customerID,
			Number: "INV-" + strconv.Itoa(id), Amount: amount,
			DueDate: now.Add(dueIn), Status: status,
		},
		Customer: model.Customer{ID: customerID, TenantID: 1, Name: "Jane", Phone: "+254712345678"},
	}
}

func TestPreDueWindowSelection(t *testing.T) {
	in := service.EligibilityInput{
		Now:      now,
		Settings: baseSettings(),
		Open: []repository.OpenInvoice{
			openInvoice(1, 1, model.InvoiceStatusPending, 48*time.Hour, 100),  // inside window
			openInvoice(2, 1, model.InvoiceStatusPending, 120*time.Hour, 100), // too far out
			openInvoice(3, 1, model.InvoiceStatusPending, 12*time.Hour, 100),  // <1 day: truncates to 0
		},
		Overrides: map[int]*model.ReminderOverride{},
		History:   emptyHistory(),
	}

	candidates, _ := service.ComputeEligible(in)
	if len(candidates) != 1 {
		t.Fatalf("expected 1 pre-due candidate, got %d", len(candidates))
	}
	if candidates[0].Kind != model.ReminderKindPreDue || candidates[0].Invoices[0].ID != 1 {
		t.Errorf("unexpected candidate %+v", candidates[0])
	}
}

func TestPreDueNeverRepeatsAfterSent(t *testing.T) {
	history := emptyHistory()
	history.SentPreDue[1] = true

	in := service.EligibilityInput{
		Now:      now,
		Settings: baseSettings(),
		Open: []repository.OpenInvoice{
			openInvoice(1, 1, model.InvoiceStatusPending, 48*time.Hour, 100),
		},
		Overrides: map[int]*model.ReminderOverride{},
		History:   history,
	}

	candidates, _ := service.ComputeEligible(in)
	if len(candidates) != 0 {
		t.Fatalf("invoice with a sent pre-due event must never be re-selected, got %d", len(candidates))
	}
}

func TestRepeatIntervalBoundary(t *testing.T) {
	for _, tc := range []struct {
		daysAgo int
		want    bool
	}{
		{6, false},
		{7, true}, // k >= interval selects
		{10, true},
	} {
		history := emptyHistory()
		history.Counts[1] = 1
		history.LastOverdue[1] = now.Add(-time.Duration(tc.daysAgo) * 24 * time.Hour)

		in := service.EligibilityInput{
			Now:      now,
			Settings: baseSettings(),
			Open: []repository.OpenInvoice{
				openInvoice(1, 1, model.InvoiceStatusOverdue, -240*time.Hour, 100),
			},
			Overrides: map[int]*model.ReminderOverride{},
			History:   history,
		}

		candidates, _ := service.ComputeEligible(in)
		got := len(candidates) == 1
		if got != tc.want {
			t.Errorf("last reminder %d days ago: selected=%v, want %v", tc.daysAgo, got, tc.want)
		}
	}
}

func TestMaxRemindersCap(t *testing.T) {
	settings := baseSettings()
	settings.MaxPerInvoice = 3

	history := emptyHistory()
	history.Counts[1] = 3 // includes failed attempts: every row consumes a slot
	history.LastOverdue[1] = now.Add(-30 * 24 * time.Hour)

	in := service.EligibilityInput{
		Now:      now,
		Settings: settings,
		Open: []repository.OpenInvoice{
			openInvoice(1, 1, model.InvoiceStatusOverdue, -240*time.Hour, 100),
		},
		Overrides: map[int]*model.ReminderOverride{},
		History:   history,
	}

	candidates, _ := service.ComputeEligible(in)
	if len(candidates) != 0 {
		t.Fatalf("capped invoice must never be selected, got %d", len(candidates))
	}

	history.Counts[1] = 2
	candidates, _ = service.ComputeEligible(in)
	if len(candidates) != 1 {
		t.Fatalf("invoice under the cap should be selected, got %d", len(candidates))
	}
}

func TestCustomerSuppression(t *testing.T) {
	in := service.EligibilityInput{
		Now:      now,
		Settings: baseSettings(),
		Open: []repository.OpenInvoice{
			openInvoice(1, 1, model.InvoiceStatusPending, 48*time.Hour, 100),
			openInvoice(2, 1, model.InvoiceStatusOverdue, -240*time.Hour, 100),
		},
		Overrides: map[int]*model.ReminderOverride{
			1: {TenantID: 1, CustomerID: 1, Enabled: false},
		},
		History: emptyHistory(),
	}

	candidates, suppressed := service.ComputeEligible(in)
	if len(candidates) != 0 {
		t.Fatalf("suppressed customer must produce no candidates, got %d", len(candidates))
	}
	if suppressed != 1 {
		t.Errorf("expected 1 suppressed customer, got %d", suppressed)
	}
}

func TestOverrideValuesTakePrecedence(t *testing.T) {
	ten := 10
	in := service.EligibilityInput{
		Now:      now,
		Settings: baseSettings(), // tenant default window is 3 days
		Open: []repository.OpenInvoice{
			openInvoice(1, 1, model.InvoiceStatusPending, 5*24*time.Hour, 100),
		},
		Overrides: map[int]*model.ReminderOverride{
			1: {TenantID: 1, CustomerID: 1, Enabled: true, DaysBeforeDue: &ten},
		},
		History: emptyHistory(),
	}

	candidates, _ := service.ComputeEligible(in)
	if len(candidates) != 1 {
		t.Fatalf("override window of 10 days should select the invoice, got %d candidates", len(candidates))
	}
}

func TestOverdueRequiresStatusOrThreshold(t *testing.T) {
	settings := baseSettings()
	settings.DaysAfterOverdue = 2

	// One day past due, still marked pending: below the threshold.
	in := service.EligibilityInput{
		Now:       now,
		Settings:  settings,
		Open:      []repository.OpenInvoice{openInvoice(1, 1, model.InvoiceStatusPending, -30*time.Hour, 100)},
		Overrides: map[int]*model.ReminderOverride{},
		History:   emptyHistory(),
	}
	candidates, _ := service.ComputeEligible(in)
	if len(candidates) != 0 {
		t.Fatalf("pending invoice below the overdue threshold must wait, got %d", len(candidates))
	}

	// Same age but already flagged overdue: selected.
	in.Open = []repository.OpenInvoice{openInvoice(1, 1, model.InvoiceStatusOverdue, -30*time.Hour, 100)}
	candidates, _ = service.ComputeEligible(in)
	if len(candidates) != 1 {
		t.Fatalf("invoice flagged overdue should be selected, got %d", len(candidates))
	}
}

func TestGroupingAsymmetry(t *testing.T) {
	in := service.EligibilityInput{
		Now:      now,
		Settings: baseSettings(),
		Open: []repository.OpenInvoice{
			openInvoice(1, 1, model.InvoiceStatusPending, 24*time.Hour, 100),
			openInvoice(2, 1, model.InvoiceStatusPending, 48*time.Hour, 200),
			openInvoice(3, 1, model.InvoiceStatusOverdue, -120*time.Hour, 300),
			openInvoice(4, 1, model.InvoiceStatusOverdue, -240*time.Hour, 400),
		},
		Overrides: map[int]*model.ReminderOverride{},
		History:   emptyHistory(),
	}

	candidates, _ := service.ComputeEligible(in)
	if len(candidates) != 3 {
		t.Fatalf("expected 2 pre-due + 1 grouped overdue, got %d candidates", len(candidates))
	}

	preDue := 0
	for _, c := range candidates[:2] {
		if c.Kind == model.ReminderKindPreDue && len(c.Invoices) == 1 {
			preDue++
		}
	}
	if preDue != 2 {
		t.Errorf("pre-due reminders must be one per invoice, got %+v", candidates)
	}

	overdue := candidates[2]
	if overdue.Kind != model.ReminderKindOverdue {
		t.Fatalf("expected grouped overdue last, got %+v", overdue)
	}
	if len(overdue.Invoices) != 2 {
		t.Errorf("overdue reminder must group all qualifying invoices, got %d", len(overdue.Invoices))
	}
}
