// internal/controller/job_controller.go
package controller

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	appErrors "github.com/lipanasa/reminders-backend/internal/errors"
	"github.com/lipanasa/reminders-backend/internal/service"
)

// JobController exposes the two schedulers as HTTP-invokable jobs. The cron
// trigger (or a dashboard "run now" button) POSTs here and gets the run
// summary back.
type JobController struct {
	ReminderService *service.ReminderService
	FunnelService   *service.FunnelService
}

func (c *JobController) ProcessReminders(w http.ResponseWriter, r *http.Request) {
	summary, err := c.ReminderService.RunReminderDispatch(r.Context())
	writeRunResponse(w, summary, err)
}

func (c *JobController) ProcessTrialFunnel(w http.ResponseWriter, r *http.Request) {
	summary, err := c.FunnelService.RunFunnelDispatch(r.Context())
	writeRunResponse(w, summary, err)
}

// writeRunResponse maps run outcomes: lock contention is 409, a fatal init
// failure is 500 with no partial summary, anything else is the summary.
func writeRunResponse(w http.ResponseWriter, summary *service.RunSummary, err error) {
	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, appErrors.ErrRunInProgress) {
			status = http.StatusConflict
		}
		log.Println("⚠️ dispatch run failed:", err)
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"results": summary,
	})
}
