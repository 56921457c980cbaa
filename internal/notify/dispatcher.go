package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/dmaldonado1992/MedVerify/internal/config"
	"github.com/dmaldonado1992/MedVerify/internal/metrics"
)

// Dispatcher sends through an ordered chain of providers, falling back to the
// next one when a send fails.
type Dispatcher struct {
	chain    []Sender
	byName   map[string]Sender
	loginURL string
	log      *zap.Logger
}

// NewDispatcher builds a dispatcher whose chain is primary followed by fallbacks.
// Nil senders are skipped.
func NewDispatcher(log *zap.Logger, loginURL string, primary Sender, fallbacks ...Sender) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	d := &Dispatcher{byName: make(map[string]Sender), loginURL: loginURL, log: log}
	for _, s := range append([]Sender{primary}, fallbacks...) {
		if s == nil {
			continue
		}
		if _, dup := d.byName[s.Name()]; dup {
			continue
		}
		d.chain = append(d.chain, s)
		d.byName[s.Name()] = s
	}
	return d
}

// NewDispatcherFromConfig wires the providers that have credentials. The
// configured provider goes first; resend is the fallback for gmail and brevo.
func NewDispatcherFromConfig(cfg config.EmailConfig, log *zap.Logger) *Dispatcher {
	available := map[string]Sender{}
	if cfg.ResendAPIKey != "" {
		available["resend"] = NewResendSender(cfg.ResendAPIKey, cfg.From)
	}
	if cfg.BrevoAPIKey != "" {
		available["brevo"] = NewBrevoSender(cfg.BrevoBaseURL, cfg.BrevoAPIKey, cfg.From, cfg.FromName)
	}
	if cfg.SMTPUser != "" && cfg.SMTPPassword != "" {
		available["gmail"] = NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.From)
	}

	primary := strings.ToLower(cfg.Provider)
	if primary == "smtp" {
		primary = "gmail"
	}

	order := []string{primary}
	if primary != "resend" {
		order = append(order, "resend")
	}

	var chain []Sender
	for _, name := range order {
		if s, ok := available[name]; ok {
			chain = append(chain, s)
		}
	}
	if len(chain) == 0 {
		log.Warn("no email provider configured for chain", zap.String("provider", cfg.Provider))
	}

	d := NewDispatcher(log, cfg.LoginURL, nil, chain...)
	// Providers outside the chain stay reachable through SendVia.
	for name, s := range available {
		if _, ok := d.byName[name]; !ok {
			d.byName[name] = s
		}
	}
	return d
}

// Providers returns the chain order.
func (d *Dispatcher) Providers() []string {
	names := make([]string, 0, len(d.chain))
	for _, s := range d.chain {
		names = append(names, s.Name())
	}
	return names
}

// Send tries each provider in order and returns the first success.
func (d *Dispatcher) Send(ctx context.Context, msg Message) (Result, error) {
	if err := msg.validate(); err != nil {
		return Result{}, err
	}
	if len(d.chain) == 0 {
		return Result{}, ErrNoProviders
	}

	var errs []error
	for _, s := range d.chain {
		res, err := d.sendOne(ctx, s, msg)
		if err == nil {
			return res, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		d.log.Warn("email provider failed", zap.String("provider", s.Name()), zap.Error(err))
	}
	return Result{}, fmt.Errorf("%w: %w", ErrAllProvidersFailed, errors.Join(errs...))
}

// SendVia sends through one named provider without fallback.
func (d *Dispatcher) SendVia(ctx context.Context, provider string, msg Message) (Result, error) {
	if err := msg.validate(); err != nil {
		return Result{}, err
	}
	s, ok := d.byName[strings.ToLower(provider)]
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrUnknownProvider, provider)
	}
	return d.sendOne(ctx, s, msg)
}

func (d *Dispatcher) sendOne(ctx context.Context, s Sender, msg Message) (Result, error) {
	res, err := s.Send(ctx, msg)
	if err != nil {
		metrics.Emails.WithLabelValues(s.Name(), "error").Inc()
		return Result{}, err
	}
	metrics.Emails.WithLabelValues(s.Name(), "ok").Inc()
	if res.Provider == "" {
		res.Provider = s.Name()
	}
	return res, nil
}

// VideoReadyMessage renders the short "video ready" email.
func (d *Dispatcher) VideoReadyMessage(n Notice) (Message, error) {
	if n.Name == "" {
		n.Name = "Usuario"
	}
	html, err := render("video_ready.html", templateData{Notice: n, LoginURL: d.loginURL})
	if err != nil {
		return Message{}, err
	}
	return Message{To: n.To, Subject: "Tu video está listo", HTML: html}, nil
}

// StudyReadyMessage renders the study notification with access credentials.
func (d *Dispatcher) StudyReadyMessage(n Notice) (Message, error) {
	if n.Title == "" {
		n.Title = "Estudio"
	}
	html, err := render("study_ready.html", templateData{Notice: n, LoginURL: d.loginURL})
	if err != nil {
		return Message{}, err
	}
	subject := fmt.Sprintf("Med Verify - El estudio %q está listo para revisar", n.Title)
	return Message{To: n.To, Subject: subject, HTML: html}, nil
}

// StudyReady renders and sends the study notification through the chain.
func (d *Dispatcher) StudyReady(ctx context.Context, n Notice) (Result, error) {
	msg, err := d.StudyReadyMessage(n)
	if err != nil {
		return Result{}, err
	}
	return d.Send(ctx, msg)
}
