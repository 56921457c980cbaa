package notify

import (
	"context"
	"strings"
)

// Message is a single HTML email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

func (m Message) validate() error {
	if strings.TrimSpace(m.To) == "" || strings.TrimSpace(m.Subject) == "" || strings.TrimSpace(m.HTML) == "" {
		return ErrInvalidMessage
	}
	return nil
}

// Result identifies the provider that accepted a message.
type Result struct {
	Provider  string `json:"provider"`
	MessageID string `json:"messageId,omitempty"`
}

// Sender delivers messages through one provider.
type Sender interface {
	Name() string
	Send(ctx context.Context, msg Message) (Result, error)
}

// Notice carries the values rendered into notification templates.
type Notice struct {
	To       string
	Name     string
	Title    string
	VideoURL string
	// Password is included in the study template only when non-empty.
	Password string
}
