// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package mailer delivers account verification links. Delivery is
// best-effort: registration never waits on it and never fails because
// of it. The verification URL is also returned to the registration
// caller as a fallback channel.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/wneessen/go-mail"
)

// ErrDelivery is returned when the transport is misconfigured or
// unreachable. Call sites log it and move on; it never propagates to
// the registration response.
var ErrDelivery = errors.New("verification delivery failed")

// Sender delivers a verification link to an email address.
type Sender interface {
	SendVerification(ctx context.Context, email, verificationURL string) error
}

// Config selects and configures the delivery transport.
type Config struct {
	// Mode is "console" (log the link) or "smtp".
	Mode string

	SMTPHost string
	SMTPPort int
	SMTPFrom string
	SMTPUser string
	SMTPPass string
}

// New returns a Sender for the configured mode. Anything other than
// "smtp" falls back to the console sender, matching the original
// behavior of defaulting to console delivery.
func New(cfg Config) Sender {
	if cfg.Mode == "smtp" {
		return &SMTPSender{cfg: cfg}
	}
	return &ConsoleSender{}
}

// ConsoleSender logs the verification link instead of sending it.
// Used in development and as the default mode.
type ConsoleSender struct{}

// SendVerification logs the link. Never fails.
func (s *ConsoleSender) SendVerification(_ context.Context, email, verificationURL string) error {
	slog.Info("verification link", "email", email, "url", verificationURL)
	return nil
}

// SMTPSender delivers verification mail over SMTP with STARTTLS.
type SMTPSender struct {
	cfg Config
}

// SendVerification connects, authenticates, sends, and disconnects.
// Any transport problem is reported as ErrDelivery.
func (s *SMTPSender) SendVerification(ctx context.Context, email, verificationURL string) error {
	if s.cfg.SMTPHost == "" {
		return fmt.Errorf("%w: smtp host not configured", ErrDelivery)
	}

	from := s.cfg.SMTPFrom
	if from == "" {
		from = s.cfg.SMTPUser
	}

	msg := mail.NewMsg()
	if err := msg.From(from); err != nil {
		return fmt.Errorf("%w: invalid from address: %v", ErrDelivery, err)
	}
	if err := msg.To(email); err != nil {
		return fmt.Errorf("%w: invalid recipient: %v", ErrDelivery, err)
	}
	msg.Subject("Verify your account")
	msg.SetBodyString(mail.TypeTextPlain,
		fmt.Sprintf("Please verify your account by clicking: %s", verificationURL))

	opts := []mail.Option{
		mail.WithPort(s.cfg.SMTPPort),
		mail.WithTLSPortPolicy(mail.TLSMandatory),
	}
	if s.cfg.SMTPUser != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.SMTPUser),
			mail.WithPassword(s.cfg.SMTPPass),
		)
	}

	client, err := mail.NewClient(s.cfg.SMTPHost, opts...)
	if err != nil {
		return fmt.Errorf("%w: creating smtp client: %v", ErrDelivery, err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("%w: sending: %v", ErrDelivery, err)
	}

	return nil
}

// Dispatch sends a verification link on a detached goroutine. The
// caller holds no handle to it and cannot observe the outcome; a
// failure or even a panic inside the sender is contained here and
// only logged.
func Dispatch(sender Sender, email, verificationURL string) {
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				slog.Error("verification sender panicked", "panic", rec)
			}
		}()

		// Detached from the request lifetime on purpose.
		if err := sender.SendVerification(context.Background(), email, verificationURL); err != nil {
			slog.Error("verification delivery failed", "error", err, "email", email)
		}
	}()
}
