package mailer

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNew_ModeSelection(t *testing.T) {
	if _, ok := New(Config{Mode: "console"}).(*ConsoleSender); !ok {
		t.Fatal("console mode should yield a ConsoleSender")
	}
	if _, ok := New(Config{Mode: "smtp", SMTPHost: "mail.example.com"}).(*SMTPSender); !ok {
		t.Fatal("smtp mode should yield an SMTPSender")
	}
	// Unknown modes fall back to console delivery
	if _, ok := New(Config{Mode: "carrier-pigeon"}).(*ConsoleSender); !ok {
		t.Fatal("unknown mode should fall back to ConsoleSender")
	}
	if _, ok := New(Config{}).(*ConsoleSender); !ok {
		t.Fatal("empty mode should fall back to ConsoleSender")
	}
}

func TestConsoleSender_NeverFails(t *testing.T) {
	s := &ConsoleSender{}
	if err := s.SendVerification(context.Background(), "user@example.com", "http://localhost/auth/verify?id=x"); err != nil {
		t.Fatalf("ConsoleSender.SendVerification: %v", err)
	}
}

func TestSMTPSender_MissingHost(t *testing.T) {
	s := &SMTPSender{cfg: Config{Mode: "smtp"}}
	err := s.SendVerification(context.Background(), "user@example.com", "http://localhost/auth/verify?id=x")
	if !errors.Is(err, ErrDelivery) {
		t.Fatalf("expected ErrDelivery, got %v", err)
	}
}

// recordingSender captures the delivery call for Dispatch tests.
type recordingSender struct {
	done  chan struct{}
	email string
	url   string
	err   error
	panic bool
}

func (s *recordingSender) SendVerification(_ context.Context, email, url string) error {
	defer close(s.done)
	s.email = email
	s.url = url
	if s.panic {
		panic("sender exploded")
	}
	return s.err
}

func TestDispatch_DeliversInBackground(t *testing.T) {
	s := &recordingSender{done: make(chan struct{})}

	Dispatch(s, "user@example.com", "http://localhost/auth/verify?id=abc")

	select {
	case <-s.done:
	case <-time.After(2 * time.Second):
		t.Fatal("dispatch never reached the sender")
	}

	if s.email != "user@example.com" {
		t.Errorf("email = %q, want %q", s.email, "user@example.com")
	}
	if s.url != "http://localhost/auth/verify?id=abc" {
		t.Errorf("url = %q", s.url)
	}
}

func TestDispatch_ContainsFailures(t *testing.T) {
	// Neither an error nor a panic in the sender may escape Dispatch.
	failing := &recordingSender{done: make(chan struct{}), err: errors.New("boom")}
	Dispatch(failing, "a@example.com", "http://x")

	panicking := &recordingSender{done: make(chan struct{}), panic: true}
	Dispatch(panicking, "b@example.com", "http://y")

	for _, s := range []*recordingSender{failing, panicking} {
		select {
		case <-s.done:
		case <-time.After(2 * time.Second):
			t.Fatal("dispatch never reached the sender")
		}
	}
}
