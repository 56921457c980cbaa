package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	brevo "github.com/getbrevo/brevo-go/lib"
)

// BrevoSender sends through Brevo's transactional email API.
type BrevoSender struct {
	apiKey   string
	from     string
	fromName string
	client   *brevo.APIClient
}

// NewBrevoSender constructs a BrevoSender. baseURL is the API root, for
// example https://api.brevo.com/v3.
func NewBrevoSender(baseURL, apiKey, from, fromName string) *BrevoSender {
	cfg := brevo.NewConfiguration()
	if baseURL != "" {
		cfg.BasePath = strings.TrimRight(baseURL, "/")
	}
	cfg.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	cfg.UserAgent = "medverify"

	return &BrevoSender{
		apiKey:   apiKey,
		from:     from,
		fromName: fromName,
		client:   brevo.NewAPIClient(cfg),
	}
}

func (s *BrevoSender) Name() string { return "brevo" }

func (s *BrevoSender) Send(ctx context.Context, msg Message) (Result, error) {
	if s.apiKey == "" {
		return Result{}, errors.New("brevo api key not configured")
	}

	ctx = context.WithValue(ctx, brevo.ContextAPIKey, brevo.APIKey{Key: s.apiKey})
	created, _, err := s.client.TransactionalEmailsApi.SendTransacEmail(ctx, brevo.SendSmtpEmail{
		Sender:      &brevo.SendSmtpEmailSender{Email: s.from, Name: s.fromName},
		To:          []brevo.SendSmtpEmailTo{{Email: msg.To}},
		Subject:     msg.Subject,
		HtmlContent: msg.HTML,
	})
	if err != nil {
		return Result{}, fmt.Errorf("brevo send: %s", brevoReason(err))
	}
	return Result{Provider: s.Name(), MessageID: created.MessageId}, nil
}

// brevoReason extracts the API's message field from a rejected request.
func brevoReason(err error) string {
	var apiErr brevo.GenericSwaggerError
	if !errors.As(err, &apiErr) {
		return err.Error()
	}
	var body struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if json.Unmarshal(apiErr.Body(), &body) == nil && body.Message != "" {
		return fmt.Sprintf("status %s: %s", apiErr.Error(), body.Message)
	}
	return "status " + apiErr.Error()
}
