package channel

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lipanasa/reminders-backend/internal/model"
)

func TestWhatsAppSenderSuccess(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]interface{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"messages": []map[string]string{{"id": "wamid.ABc123"}},
		})
	}))
	defer srv.Close()

	s := NewWhatsAppSender(srv.URL, "token-1", "1001001001", srv.Client())
	res := s.Send(context.Background(), "+254 712-345 678", Message{Body: "hello"})

	require.True(t, res.Success, "expected success, got error: %s", res.Err)
	assert.Equal(t, "wamid.ABc123", res.ProviderMessageID)
	assert.Equal(t, "/1001001001/messages", gotPath)
	assert.Equal(t, "Bearer token-1", gotAuth)

	// Destination normalized to digits only.
	assert.Equal(t, "254712345678", gotBody["to"])
	text := gotBody["text"].(map[string]interface{})
	assert.Equal(t, "hello", text["body"])
}

func TestWhatsAppSenderAPIErrorIsReturnedNotThrown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"invalid token"}}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	s := NewWhatsAppSender(srv.URL, "bad", "1001001001", srv.Client())
	res := s.Send(context.Background(), "254712345678", Message{Body: "hello"})

	assert.False(t, res.Success)
	assert.Contains(t, res.Err, "whatsapp error 401")
}

func TestWhatsAppSenderMissingMessageID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	s := NewWhatsAppSender(srv.URL, "t", "1", srv.Client())
	res := s.Send(context.Background(), "254712345678", Message{Body: "x"})

	assert.False(t, res.Success)
	assert.Contains(t, res.Err, "missing message id")
}

func TestEmailSenderSuccess(t *testing.T) {
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]string{"id": "email-abc"})
	}))
	defer srv.Close()

	s := NewEmailSender(srv.URL, "key", "billing@acme.co.ke", srv.Client())
	res := s.Send(context.Background(), "jane@example.com", Message{Body: "body", Subject: "Invoice due"})

	require.True(t, res.Success, res.Err)
	assert.Equal(t, "email-abc", res.ProviderMessageID)
	assert.Equal(t, "billing@acme.co.ke", gotBody["from"])
	assert.Equal(t, "Invoice due", gotBody["subject"])
	assert.Equal(t, []interface{}{"jane@example.com"}, gotBody["to"])
}

func TestSMSSenderSuccessAndBasicAuth(t *testing.T) {
	var gotUser, gotPass, gotTo string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, gotPass, _ = r.BasicAuth()
		r.ParseForm()
		gotTo = r.PostFormValue("To")
		json.NewEncoder(w).Encode(map[string]string{"sid": "SM123"})
	}))
	defer srv.Close()

	cred := model.SMSCredential{AccountSID: "AC42", AuthToken: "secret"}
	s := NewSMSSender(srv.URL, cred, "+254700000000", srv.Client())
	res := s.Send(context.Background(), "+254 733-111 222", Message{Body: "pay up"})

	require.True(t, res.Success, res.Err)
	assert.Equal(t, "SM123", res.ProviderMessageID)
	assert.Equal(t, "AC42", gotUser)
	assert.Equal(t, "secret", gotPass)

	// Digits plus the leading plus survive normalization.
	assert.Equal(t, "+254733111222", gotTo)
}

func TestSMSSenderGatewayFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"queue full"}`, http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	s := NewSMSSender(srv.URL, model.SMSCredential{AccountSID: "AC", AuthToken: "t"}, "+1", srv.Client())
	res := s.Send(context.Background(), "+15550001111", Message{Body: "x"})

	assert.False(t, res.Success)
	assert.Contains(t, res.Err, "sms error 503")
}

func TestSendersForTenantSkipsHalfConfiguredChannels(t *testing.T) {
	s := &model.ReminderSettings{
		WhatsAppEnabled: true, WhatsAppToken: "t", WhatsAppSenderID: "1",
		EmailEnabled: true, // no api key or from address
		SMSEnabled:   true, SMS: model.SMSCredential{AccountSID: "AC"}, SMSFrom: "+1", // no token
	}

	senders := SendersForTenant(Endpoints{}, nil, s)
	assert.Contains(t, senders, model.ChannelWhatsApp)
	assert.NotContains(t, senders, model.ChannelEmail)
	assert.NotContains(t, senders, model.ChannelSMS)
}
