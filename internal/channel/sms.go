// internal/channel/sms.go
package channel

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/lipanasa/reminders-backend/internal/model"
)

// SMSSender posts form-encoded messages to an SMS gateway using basic auth
// built from the account-sid/auth-token pair. The pair arrives pre-split:
// parsing the packed "sid:token" string happens once at settings-scan time.
type SMSSender struct {
	baseURL string
	cred    model.SMSCredential
	from    string
	client  *http.Client
}

func NewSMSSender(baseURL string, cred model.SMSCredential, from string, client *http.Client) *SMSSender {
	return &SMSSender{
		baseURL: baseURL,
		cred:    cred,
		from:    from,
		client:  client,
	}
}

func (s *SMSSender) Name() string { return model.ChannelSMS }

func (s *SMSSender) Send(ctx context.Context, destination string, msg Message) Result {
	form := url.Values{}
	form.Set("To", digitsWithPlus(destination))
	form.Set("From", s.from)
	form.Set("Body", msg.Body)

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", s.baseURL, s.cred.AccountSID)
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return Result{Err: fmt.Sprintf("create request: %v", err)}
	}
	req.SetBasicAuth(s.cred.AccountSID, s.cred.AuthToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return Result{Err: fmt.Sprintf("sms send: %v", err)}
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode >= 400 {
		return Result{Err: fmt.Sprintf("sms error %d: %s", resp.StatusCode, string(body))}
	}

	var parsed struct {
		SID string `json:"sid"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil || parsed.SID == "" {
		return Result{Err: fmt.Sprintf("sms response missing sid: %s", string(body))}
	}

	return Result{Success: true, ProviderMessageID: parsed.SID}
}
