package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lipanasa/reminders-backend/internal/model"
	"github.com/lipanasa/reminders-backend/internal/repository"
	"github.com/lipanasa/reminders-backend/internal/service"
)

type stubSettingsRepo struct{}

func (stubSettingsRepo) ListAutoEnabled() ([]*model.ReminderSettings, error) { return nil, nil }
func (stubSettingsRepo) GetByTenant(int) (*model.ReminderSettings, error)    { return nil, nil }

type stubFunnelRepo struct{}

func (stubFunnelRepo) ListActiveTemplates() ([]*model.FunnelTemplate, error) { return nil, nil }
func (stubFunnelRepo) UsersAtDay(int, time.Time) ([]*model.TrialUser, error) { return nil, nil }
func (stubFunnelRepo) UpsertStatus(*model.FunnelStatus) (bool, error)        { return false, nil }

var _ repository.SettingsRepositoryInterface = stubSettingsRepo{}
var _ repository.FunnelRepositoryInterface = stubFunnelRepo{}

type busyLock struct{}

func (busyLock) Acquire(context.Context) (bool, error) { return false, nil }
func (busyLock) Release(context.Context) error         { return nil }

func TestProcessRemindersReturnsSummary(t *testing.T) {
	c := &JobController{
		ReminderService: &service.ReminderService{SettingsRepo: stubSettingsRepo{}},
	}

	req := httptest.NewRequest(http.MethodPost, "/jobs/process-reminders", nil)
	w := httptest.NewRecorder()
	c.ProcessReminders(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp struct {
		Success bool               `json:"success"`
		Results service.RunSummary `json:"results"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success {
		t.Errorf("success = false")
	}
	if resp.Results.Processed != 0 {
		t.Errorf("empty tenant list should process nothing: %+v", resp.Results)
	}
}

func TestProcessRemindersConflictWhileRunning(t *testing.T) {
	c := &JobController{
		ReminderService: &service.ReminderService{
			SettingsRepo: stubSettingsRepo{},
			RunLock:      busyLock{},
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/jobs/process-reminders", nil)
	w := httptest.NewRecorder()
	c.ProcessReminders(w, req)

	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", w.Code)
	}
	var resp struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Success || resp.Error == "" {
		t.Errorf("conflict response incomplete: %+v", resp)
	}
}

func TestProcessTrialFunnelReturnsSummary(t *testing.T) {
	c := &JobController{
		FunnelService: &service.FunnelService{FunnelRepo: stubFunnelRepo{}},
	}

	req := httptest.NewRequest(http.MethodPost, "/jobs/process-trial-funnel", nil)
	w := httptest.NewRecorder()
	c.ProcessTrialFunnel(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}

func TestProcessTrialFunnelConflictWhileRunning(t *testing.T) {
	c := &JobController{
		FunnelService: &service.FunnelService{
			FunnelRepo: stubFunnelRepo{},
			RunLock:    busyLock{},
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/jobs/process-trial-funnel", nil)
	w := httptest.NewRecorder()
	c.ProcessTrialFunnel(w, req)

	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", w.Code)
	}
}
