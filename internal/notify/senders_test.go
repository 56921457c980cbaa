package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	brevo "github.com/getbrevo/brevo-go/lib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrevoSender(t *testing.T) {
	var got brevo.SendSmtpEmail
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/smtp/email", r.URL.Path)
		assert.Equal(t, "xkeysib-test", r.Header.Get("api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"messageId":"<abc@smtp-relay.mailin.fr>"}`))
	}))
	defer server.Close()

	sender := NewBrevoSender(server.URL+"/v3", "xkeysib-test", "noreply@example.com", "MedVerify")
	res, err := sender.Send(context.Background(), testMessage)
	require.NoError(t, err)

	assert.Equal(t, "brevo", res.Provider)
	assert.Equal(t, "<abc@smtp-relay.mailin.fr>", res.MessageID)
	assert.Equal(t, "noreply@example.com", got.Sender.Email)
	assert.Equal(t, "MedVerify", got.Sender.Name)
	assert.Equal(t, "doc@example.com", got.To[0].Email)
	assert.Equal(t, "<p>hi</p>", got.HtmlContent)
}

func TestBrevoSenderReportsRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"code":"unauthorized","message":"Key not found"}`))
	}))
	defer server.Close()

	_, err := NewBrevoSender(server.URL, "bad", "noreply@example.com", "").Send(context.Background(), testMessage)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Key not found")
	assert.Contains(t, err.Error(), "401")

	_, err = NewBrevoSender(server.URL, "", "noreply@example.com", "").Send(context.Background(), testMessage)
	assert.Error(t, err)
}

func TestResendSender(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/emails", r.URL.Path)
		assert.Equal(t, "Bearer re_test", r.Header.Get("Authorization"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "noreply@example.com", body["from"])
		assert.Equal(t, "<p>hi</p>", body["html"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"49a3999c-0ce1-4ea6-ab68-afcd6dc2e794"}`))
	}))
	defer server.Close()

	sender := NewResendSender("re_test", "noreply@example.com")
	base, err := url.Parse(server.URL + "/")
	require.NoError(t, err)
	sender.client.BaseURL = base

	res, err := sender.Send(context.Background(), testMessage)
	require.NoError(t, err)
	assert.Equal(t, "resend", res.Provider)
	assert.Equal(t, "49a3999c-0ce1-4ea6-ab68-afcd6dc2e794", res.MessageID)
}

func TestSMTPSenderBuildsMessage(t *testing.T) {
	sender := NewSMTPSender("smtp.gmail.com", 587, "sender@gmail.com", "", "")

	e := sender.build(testMessage)
	assert.Equal(t, "sender@gmail.com", e.From)
	assert.Equal(t, []string{"doc@example.com"}, e.To)
	assert.Equal(t, "<p>hi</p>", string(e.HTML))

	_, err := sender.Send(context.Background(), testMessage)
	assert.Error(t, err, "missing password must fail before dialing")
}
