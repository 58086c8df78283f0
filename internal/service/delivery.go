// internal/service/delivery.go
package service

import (
	"context"
	"net/http"

	"github.com/lipanasa/reminders-backend/internal/channel"
	appErrors "github.com/lipanasa/reminders-backend/internal/errors"
	"github.com/lipanasa/reminders-backend/internal/model"
)

// ChannelAttempt records one candidate channel's fate during a delivery, in
// the order the policy tried them.
type ChannelAttempt struct {
	Channel string `json:"channel"`
	Skipped bool   `json:"skipped"`
	Reason  string `json:"reason,omitempty"`
}

// DeliveryOutcome is the result of pushing one message through the channel
// fallback chain.
type DeliveryOutcome struct {
	Success           bool             `json:"success"`
	ChannelUsed       string           `json:"channel_used,omitempty"`
	ProviderMessageID string           `json:"provider_message_id,omitempty"`
	Err               string           `json:"error,omitempty"`
	Attempts          []ChannelAttempt `json:"attempts"`
}

// Deliverer is what the orchestrators depend on; DeliveryPolicy is the real
// implementation, tests swap in fakes.
type Deliverer interface {
	Deliver(ctx context.Context, settings *model.ReminderSettings, override *model.ReminderOverride,
		customer *model.Customer, msg channel.Message) DeliveryOutcome
}

// DeliveryPolicy tries channels in priority order until one succeeds or all
// are exhausted. Greedy first-success is deliberate: at most one successful
// delivery per reminder event, through whatever channel is actually usable.
type DeliveryPolicy struct {
	Endpoints channel.Endpoints
	Client    *http.Client

	// Senders overrides the per-tenant sender construction, for tests.
	Senders func(s *model.ReminderSettings) map[string]channel.Sender
}

func (p *DeliveryPolicy) senders(s *model.ReminderSettings) map[string]channel.Sender {
	if p.Senders != nil {
		return p.Senders(s)
	}
	return channel.SendersForTenant(p.Endpoints, p.Client, s)
}

// candidateChannels builds the ordered, de-duplicated list: the customer's
// preferred channel first (whatsapp when unset), then whatsapp, email, sms.
func candidateChannels(override *model.ReminderOverride) []string {
	preferred := model.ChannelWhatsApp
	if override != nil && override.PreferredChannel != "" {
		preferred = override.PreferredChannel
	}

	order := []string{preferred, model.ChannelWhatsApp, model.ChannelEmail, model.ChannelSMS}
	seen := map[string]bool{}
	candidates := []string{}
	for _, ch := range order {
		if seen[ch] {
			continue
		}
		seen[ch] = true
		candidates = append(candidates, ch)
	}
	return candidates
}

// resolveDestination picks the channel-specific override address when set,
// else the customer's general contact field. Email never falls back to the
// phone field: it needs an explicit address or it is skipped.
func resolveDestination(ch string, override *model.ReminderOverride, customer *model.Customer) string {
	switch ch {
	case model.ChannelWhatsApp:
		if override != nil && override.WhatsAppPhone != "" {
			return override.WhatsAppPhone
		}
		return customer.Phone
	case model.ChannelSMS:
		if override != nil && override.SMSPhone != "" {
			return override.SMSPhone
		}
		return customer.Phone
	case model.ChannelEmail:
		if override != nil && override.Email != "" {
			return override.Email
		}
		return customer.Email
	}
	return ""
}

// Deliver walks the candidate list: skip unconfigured channels and channels
// with no resolvable destination, send on the rest, stop at the first
// success. Provider failures fall through to the next candidate; they are
// never raised as errors across this boundary.
func (p *DeliveryPolicy) Deliver(ctx context.Context, settings *model.ReminderSettings,
	override *model.ReminderOverride, customer *model.Customer, msg channel.Message) DeliveryOutcome {

	senders := p.senders(settings)
	outcome := DeliveryOutcome{}
	lastErr := ""
	attempted := false

	for _, ch := range candidateChannels(override) {
		sender, ok := senders[ch]
		if !ok {
			outcome.Attempts = append(outcome.Attempts, ChannelAttempt{
				Channel: ch, Skipped: true, Reason: "channel not enabled or credentials missing",
			})
			continue
		}

		dest := resolveDestination(ch, override, customer)
		if dest == "" {
			outcome.Attempts = append(outcome.Attempts, ChannelAttempt{
				Channel: ch, Skipped: true, Reason: "no destination on file",
			})
			continue
		}

		attempted = true
		result := sender.Send(ctx, dest, msg)
		if result.Success {
			outcome.Success = true
			outcome.ChannelUsed = ch
			outcome.ProviderMessageID = result.ProviderMessageID
			outcome.Attempts = append(outcome.Attempts, ChannelAttempt{Channel: ch})
			return outcome
		}

		lastErr = result.Err
		outcome.Attempts = append(outcome.Attempts, ChannelAttempt{
			Channel: ch, Reason: result.Err,
		})
	}

	if !attempted {
		outcome.Err = appErrors.ErrNoUsableChannel.Error()
	} else {
		outcome.Err = lastErr
	}
	return outcome
}

var _ Deliverer = (*DeliveryPolicy)(nil)
