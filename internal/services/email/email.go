// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package email

import (
	"context"
	"errors"
	"fmt"

	"codeberg.org/oliverandrich/portfolio-gate/internal/config"
	"github.com/wneessen/go-mail"
)

// ErrNoOwner is returned when an owner notification has no recipient.
var ErrNoOwner = errors.New("owner email is not configured")

// Message is a composed email.
type Message struct {
	To      string
	ToName  string
	Subject string
	Text    string
	HTML    string
}

// DeliverFunc hands a finished message to the transport.
type DeliverFunc func(ctx context.Context, msg *mail.Msg) error

// Service sends mail via SMTP.
type Service struct {
	cfg     *config.SMTPConfig
	owner   string
	deliver DeliverFunc
}

// NewService creates a new email service. ownerEmail receives signup and
// access notifications.
func NewService(cfg *config.SMTPConfig, ownerEmail string) (*Service, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("SMTP host is required")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("SMTP from address is required")
	}

	s := &Service{cfg: cfg, owner: ownerEmail}
	s.deliver = s.dialAndSend
	return s, nil
}

// WithDeliverer replaces the SMTP transport.
func (s *Service) WithDeliverer(fn DeliverFunc) *Service {
	s.deliver = fn
	return s
}

// Send delivers a composed message.
func (s *Service) Send(ctx context.Context, m Message) error {
	msg, err := s.build(m)
	if err != nil {
		return err
	}
	return s.deliver(ctx, msg)
}

// NotifyOwner sends a plain-text notice to the site owner.
func (s *Service) NotifyOwner(ctx context.Context, subject, body string) error {
	if s.owner == "" {
		return ErrNoOwner
	}
	return s.Send(ctx, Message{To: s.owner, Subject: subject, Text: body})
}

func (s *Service) build(m Message) (*mail.Msg, error) {
	msg := mail.NewMsg()

	if s.cfg.FromName != "" {
		if err := msg.FromFormat(s.cfg.FromName, s.cfg.From); err != nil {
			return nil, fmt.Errorf("setting from address: %w", err)
		}
	} else {
		if err := msg.From(s.cfg.From); err != nil {
			return nil, fmt.Errorf("setting from address: %w", err)
		}
	}

	if m.ToName != "" {
		if err := msg.AddToFormat(m.ToName, m.To); err != nil {
			return nil, fmt.Errorf("setting to address: %w", err)
		}
	} else {
		if err := msg.To(m.To); err != nil {
			return nil, fmt.Errorf("setting to address: %w", err)
		}
	}

	msg.Subject(m.Subject)
	msg.SetBodyString(mail.TypeTextPlain, m.Text)
	if m.HTML != "" {
		msg.AddAlternativeString(mail.TypeTextHTML, m.HTML)
	}

	return msg, nil
}

// dialAndSend sends a message via SMTP using go-mail.
func (s *Service) dialAndSend(ctx context.Context, msg *mail.Msg) error {
	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
	}

	if s.cfg.TLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
		// Use implicit TLS (SSL) for port 465, STARTTLS for others
		if s.cfg.Port == 465 {
			opts = append(opts, mail.WithSSL())
		}
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}

	if s.cfg.Username != "" && s.cfg.Password != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}

	client, err := mail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("creating mail client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}

	return nil
}
