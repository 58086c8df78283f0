// internal/channel/email.go
package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/lipanasa/reminders-backend/internal/model"
)

// EmailSender posts to a transactional email API with bearer auth.
type EmailSender struct {
	baseURL string
	apiKey  string
	from    string
	client  *http.Client
}

func NewEmailSender(baseURL, apiKey, from string, client *http.Client) *EmailSender {
	return &EmailSender{
		baseURL: baseURL,
		apiKey:  apiKey,
		from:    from,
		client:  client,
	}
}

func (s *EmailSender) Name() string { return model.ChannelEmail }

func (s *EmailSender) Send(ctx context.Context, destination string, msg Message) Result {
	payload := map[string]interface{}{
		"from":    s.from,
		"to":      []string{destination},
		"subject": msg.Subject,
		"text":    msg.Body,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return Result{Err: fmt.Sprintf("marshal: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.baseURL+"/emails", bytes.NewBuffer(jsonData))
	if err != nil {
		return Result{Err: fmt.Sprintf("create request: %v", err)}
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return Result{Err: fmt.Sprintf("email send: %v", err)}
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode >= 400 {
		return Result{Err: fmt.Sprintf("email error %d: %s", resp.StatusCode, string(body))}
	}

	var parsed struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil || parsed.ID == "" {
		return Result{Err: fmt.Sprintf("email response missing id: %s", string(body))}
	}

	return Result{Success: true, ProviderMessageID: parsed.ID}
}
