// internal/channel/whatsapp.go
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

// WhatsAppSender posts text messages to a WhatsApp Business messaging API
// using a bearer token and a sender (phone number) identifier.
type WhatsAppSender struct {
	baseURL  string
	token    string
	senderID string
	client   *http.Client
}

func NewWhatsAppSender(baseURL, token, senderID string, client *http.Client) *WhatsAppSender {
	return &WhatsAppSender{
		baseURL:  baseURL,
		token:    token,
		senderID: senderID,
		client:   client,
	}
}

func (s *WhatsAppSender) Name() string { return model.ChannelWhatsApp }

func (s *WhatsAppSender) Send(ctx context.Context, destination string, msg Message) Result {
	payload := map[string]interface{}{
		"messaging_product": "whatsapp",
		"to":                digitsOnly(destination),
		"type":              "text",
		"text":              map[string]string{"body": msg.Body},
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return Result{Err: fmt.Sprintf("marshal: %v", err)}
	}

	url := fmt.Sprintf("%s/%s/messages", s.baseURL, s.senderID)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return Result{Err: fmt.Sprintf("create request: %v", err)}
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return Result{Err: fmt.Sprintf("whatsapp send: %v", err)}
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode >= 400 {
		return Result{Err: fmt.Sprintf("whatsapp error %d: %s", resp.StatusCode, string(body))}
	}

	// Success is signalled by a message id in the response.
	var parsed struct {
		Messages []struct {
			ID string `json:"id"`
		} `json:"messages"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil || len(parsed.Messages) == 0 || parsed.Messages[0].ID == "" {
		return Result{Err: fmt.Sprintf("whatsapp response missing message id: %s", string(body))}
	}

	return Result{Success: true, ProviderMessageID: parsed.Messages[0].ID}
}
