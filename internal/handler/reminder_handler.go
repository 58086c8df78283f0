// internal/handler/reminder_handler.go
package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/lipanasa/reminders-backend/internal/repository"
	"github.com/lipanasa/reminders-backend/internal/service"
)

// ReminderHandler holds the dependencies for reminder-related HTTP handlers
type ReminderHandler struct {
	EventRepo       repository.ReminderEventRepositoryInterface
	ReminderService *service.ReminderService
}

// SendManualReminder records a pending kind=manual event for the chosen
// invoices and queues it; the worker performs the actual delivery.
func (h *ReminderHandler) SendManualReminder(w http.ResponseWriter, r *http.Request) {
	var body struct {
		TenantID   int     `json:"tenant_id"`
		CustomerID int     `json:"customer_id"`
		InvoiceIDs []int64 `json:"invoice_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if body.TenantID == 0 || body.CustomerID == 0 || len(body.InvoiceIDs) == 0 {
		http.Error(w, "tenant_id, customer_id and invoice_ids are required", http.StatusBadRequest)
		return
	}

	event, err := h.ReminderService.ManualReminder(r.Context(), body.TenantID, body.CustomerID, body.InvoiceIDs)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"reminder_event_id": event.ID,
		"status":            event.Status,
		"queued":            true,
	})
}

// ListReminderEvents returns recent events plus status counts for the
// tenant's operations dashboard.
func (h *ReminderHandler) ListReminderEvents(w http.ResponseWriter, r *http.Request) {
	tenantIDStr := chi.URLParam(r, "id")
	tenantID, err := strconv.Atoi(tenantIDStr)
	if err != nil {
		http.Error(w, "invalid tenant id", http.StatusBadRequest)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	events, err := h.EventRepo.ListByTenant(tenantID, limit)
	if err != nil {
		http.Error(w, "failed to fetch events: "+err.Error(), http.StatusInternalServerError)
		return
	}
	counts, err := h.EventRepo.StatusCounts(tenantID)
	if err != nil {
		http.Error(w, "failed to fetch counts: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"data":   events,
		"counts": counts,
	})
}
