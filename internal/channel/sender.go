// Package channel wraps the outbound delivery providers (WhatsApp Business
// API, transactional email, SMS gateway) behind a single Sender contract.
// Providers fail as data: a network or API error comes back inside Result so
// the delivery policy can fall through to the next channel. Senders never
// retry on their own.
package channel

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/lipanasa/reminders-backend/internal/model"
)

// Message is the rendered content handed to a sender. Subject is only
// meaningful for email.
type Message struct {
	Body    string
	Subject string
}

// Result is the outcome of one provider call.
type Result struct {
	Success           bool   `json:"success"`
	ProviderMessageID string `json:"provider_message_id,omitempty"`
	Err               string `json:"error,omitempty"`
}

// Sender delivers one message to one destination over one channel.
type Sender interface {
	Name() string
	Send(ctx context.Context, destination string, msg Message) Result
}

// Endpoints holds the provider base URLs, overridable for tests/staging.
type Endpoints struct {
	WhatsAppBaseURL string
	EmailBaseURL    string
	SMSBaseURL      string
}

// SendersForTenant builds the senders for one tenant's credentials. Channels
// the tenant has not fully configured are simply absent from the map; the
// delivery policy treats a missing channel as unavailable.
func SendersForTenant(ep Endpoints, client *http.Client, s *model.ReminderSettings) map[string]Sender {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	senders := map[string]Sender{}
	if s.ChannelEnabled(model.ChannelWhatsApp) {
		senders[model.ChannelWhatsApp] = NewWhatsAppSender(ep.WhatsAppBaseURL, s.WhatsAppToken, s.WhatsAppSenderID, client)
	}
	if s.ChannelEnabled(model.ChannelEmail) {
		senders[model.ChannelEmail] = NewEmailSender(ep.EmailBaseURL, s.EmailAPIKey, s.EmailFrom, client)
	}
	if s.ChannelEnabled(model.ChannelSMS) {
		senders[model.ChannelSMS] = NewSMSSender(ep.SMSBaseURL, s.SMS, s.SMSFrom, client)
	}
	return senders
}

// digitsOnly strips everything but digits; WhatsApp destinations are sent
// without plus or punctuation.
func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// digitsWithPlus keeps digits plus a single leading +, the SMS gateway's
// expected E.164-ish shape.
func digitsWithPlus(s string) string {
	digits := digitsOnly(s)
	if strings.HasPrefix(strings.TrimSpace(s), "+") {
		return "+" + digits
	}
	return digits
}
