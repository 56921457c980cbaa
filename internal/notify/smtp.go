package notify

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/smtp"
	"strconv"

	"github.com/jordan-wright/email"
)

// SMTPSender sends through an authenticated SMTP relay such as Gmail.
type SMTPSender struct {
	host     string
	port     int
	user     string
	password string
	from     string
}

// NewSMTPSender constructs an SMTPSender. from defaults to user.
func NewSMTPSender(host string, port int, user, password, from string) *SMTPSender {
	if from == "" {
		from = user
	}
	return &SMTPSender{host: host, port: port, user: user, password: password, from: from}
}

func (s *SMTPSender) Name() string { return "gmail" }

func (s *SMTPSender) Send(ctx context.Context, msg Message) (Result, error) {
	if s.user == "" || s.password == "" {
		return Result{}, errors.New("smtp credentials not configured")
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	e := s.build(msg)
	addr := s.host + ":" + strconv.Itoa(s.port)
	auth := smtp.PlainAuth("", s.user, s.password, s.host)
	tlsConfig := &tls.Config{ServerName: s.host}

	var err error
	if s.port == 465 {
		err = e.SendWithTLS(addr, auth, tlsConfig)
	} else {
		err = e.SendWithStartTLS(addr, auth, tlsConfig)
	}
	if err != nil {
		return Result{}, fmt.Errorf("smtp send: %w", err)
	}
	return Result{Provider: s.Name()}, nil
}

func (s *SMTPSender) build(msg Message) *email.Email {
	e := email.NewEmail()
	e.From = s.from
	e.To = []string{msg.To}
	e.Subject = msg.Subject
	e.HTML = []byte(msg.HTML)
	return e
}
