// internal/service/funnel_service.go
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
	"github.com/lipanasa/reminders-backend/internal/repository"
	"github.com/lipanasa/reminders-backend/internal/template"
)

// FunnelService is the trial-funnel orchestrator: for each literal day with
// an active template, find the users at that day who have not had it yet and
// send that day's lifecycle message. Structurally the reminder dispatcher,
// minus eligibility math: the (user, day) status row is the whole contract.
type FunnelService struct {
	FunnelRepo repository.FunnelRepositoryInterface
	// Senders are the platform's own channel credentials. Lifecycle mail
	// goes out from the platform, not from any tenant.
	Senders map[string]channel.Sender
	RunLock lock.RunLock

	Now func() time.Time
}

func (s *FunnelService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// funnelChannelOrder is fixed for lifecycle messages: whatsapp, email, sms.
var funnelChannelOrder = []string{model.ChannelWhatsApp, model.ChannelEmail, model.ChannelSMS}

// RunFunnelDispatch executes one trial-funnel run.
func (s *FunnelService) RunFunnelDispatch(ctx context.Context) (*RunSummary, error) {
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

	templates, err := s.FunnelRepo.ListActiveTemplates()
	if err != nil {
		return nil, fmt.Errorf("load funnel templates: %w", err)
	}

	summary := &RunSummary{Errors: []string{}}
	now := s.now()

	for _, tmpl := range templates {
		users, err := s.FunnelRepo.UsersAtDay(tmpl.DayNumber, now)
		if err != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("day %d: %v", tmpl.DayNumber, err))
			continue
		}
		for _, user := range users {
			if err := s.sendLifecycleMessage(ctx, tmpl, user, summary); err != nil {
				summary.Errors = append(summary.Errors,
					fmt.Sprintf("day %d user %d: %v", tmpl.DayNumber, user.ID, err))
			}
		}
	}

	log.Printf("funnel run done: processed=%d sent=%d failed=%d skipped=%d errors=%d",
		summary.Processed, summary.Sent, summary.Failed, summary.Skipped, len(summary.Errors))
	return summary, nil
}

// sendLifecycleMessage tries the day's per-channel template variants in
// order and upserts the (user, day) status row with the outcome.
func (s *FunnelService) sendLifecycleMessage(ctx context.Context, tmpl *model.FunnelTemplate, user *model.TrialUser, summary *RunSummary) error {
	summary.Processed++

	vars := map[string]string{
		"name": user.Name,
		"day":  strconv.Itoa(tmpl.DayNumber),
	}

	lastErr := ""
	channelUsed := ""
	success := false

	for _, ch := range funnelChannelOrder {
		sender, ok := s.Senders[ch]
		if !ok {
			continue
		}
		body, dest := s.variantFor(ch, tmpl, user, vars)
		if body == "" || dest == "" {
			continue
		}

		result := sender.Send(ctx, dest, channel.Message{
			Body:    body,
			Subject: template.RenderFunnel(tmpl.EmailSubject, vars),
		})
		if result.Success {
			success = true
			channelUsed = ch
			break
		}
		lastErr = result.Err
	}

	st := &model.FunnelStatus{
		UserID:    user.ID,
		DayNumber: tmpl.DayNumber,
		Channel:   channelUsed,
		SentAt:    s.now(),
	}
	if success {
		st.Status = model.EventStatusSent
	} else {
		st.Status = model.EventStatusFailed
		st.Error = lastErr
		if lastErr == "" {
			st.Error = appErrors.ErrNoUsableChannel.Error()
		}
	}

	inserted, err := s.FunnelRepo.UpsertStatus(st)
	if err != nil {
		return fmt.Errorf("record funnel status: %w", err)
	}
	if !inserted {
		// Another run already recorded this (user, day).
		summary.Processed--
		summary.Skipped++
		return nil
	}

	if success {
		summary.Sent++
	} else {
		summary.Failed++
	}
	return nil
}

func (s *FunnelService) variantFor(ch string, tmpl *model.FunnelTemplate, user *model.TrialUser, vars map[string]string) (body, dest string) {
	switch ch {
	case model.ChannelWhatsApp:
		return template.RenderFunnel(tmpl.WhatsAppTemplate, vars), user.Phone
	case model.ChannelEmail:
		return template.RenderFunnel(tmpl.EmailTemplate, vars), user.Email
	case model.ChannelSMS:
		return template.RenderFunnel(tmpl.SMSTemplate, vars), user.Phone
	}
	return "", ""
}
