package notifier

import (
	"context"
	"errors"
	"strings"
	"testing"

	"resume-screener/internal/model"
)

var enabledEmail = EmailConfig{Enabled: true, Host: "smtp.example.com", From: "hr@example.com"}

func TestCandidateNotifierSendsSelected(t *testing.T) {
	t.Parallel()

	sender := &stubSender{}
	n := NewCandidateNotifier(enabledEmail, sender, nil)

	status := n.Notify(context.Background(), Notice{Email: "jane@doe.dev", Name: "Jane", Status: model.StatusSelected, Score: 65})
	if status != model.NotificationSent {
		t.Fatalf("expected sent, got %q", status)
	}
	if sender.calls != 1 {
		t.Fatalf("expected 1 send call, got %d", sender.calls)
	}
	if sender.lastTo != "jane@doe.dev" {
		t.Fatalf("unexpected recipient %q", sender.lastTo)
	}
	if !strings.Contains(sender.lastBody, "Dear Jane") || !strings.Contains(sender.lastBody, "selected") {
		t.Fatalf("unexpected body: %s", sender.lastBody)
	}
}

func TestCandidateNotifierListsMissingSkillsOnRejection(t *testing.T) {
	t.Parallel()

	sender := &stubSender{}
	n := NewCandidateNotifier(enabledEmail, sender, nil)

	n.Notify(context.Background(), Notice{Email: "a@b.io", Name: model.UnknownName, Status: model.StatusRejected, Score: 20, Missing: []string{"sql", "docker"}})
	if !strings.Contains(sender.lastBody, "Dear Candidate") {
		t.Fatalf("expected generic salutation, got %s", sender.lastBody)
	}
	if !strings.Contains(sender.lastBody, "- sql\n- docker\n") {
		t.Fatalf("expected missing skills listed, got %s", sender.lastBody)
	}
}

func TestCandidateNotifierStatuses(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		cfg    EmailConfig
		sender *stubSender
		email  string
		expect model.NotificationStatus
	}{
		{name: "disabled", cfg: EmailConfig{Host: "h", From: "f"}, sender: &stubSender{}, email: "a@b.io", expect: model.NotificationSkipped},
		{name: "no destination", cfg: enabledEmail, sender: &stubSender{}, email: " ", expect: model.NotificationNoDestination},
		{name: "send error", cfg: enabledEmail, sender: &stubSender{err: errors.New("421 try later")}, email: "a@b.io", expect: model.NotificationFailed},
		{name: "sender panic", cfg: enabledEmail, sender: &stubSender{panicMsg: "boom"}, email: "a@b.io", expect: model.NotificationFailed},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			n := NewCandidateNotifier(tt.cfg, tt.sender, nil)
			if got := n.Notify(context.Background(), Notice{Email: tt.email}); got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}

func TestCandidateNotifierSkipsWithoutSMTPConfig(t *testing.T) {
	t.Parallel()

	n := NewCandidateNotifier(EmailConfig{Enabled: true}, nil, nil)
	if n.Enabled() {
		t.Fatalf("expected notifier without host to be disabled")
	}
	if got := n.Notify(context.Background(), Notice{Email: "a@b.io"}); got != model.NotificationSkipped {
		t.Fatalf("expected skipped, got %q", got)
	}
}

func TestBuildEmailData(t *testing.T) {
	t.Parallel()

	data := buildEmailData(EmailMessage{From: "hr@x.io", To: []string{"a@x.io", "b@x.io"}, Subject: "Hi", Body: "body"})
	if !strings.HasPrefix(data, "From: hr@x.io\r\nTo: a@x.io,b@x.io\r\nSubject: Hi\r\n") {
		t.Fatalf("unexpected headers: %q", data)
	}
	if !strings.HasSuffix(data, "\r\n\r\nbody") {
		t.Fatalf("unexpected body: %q", data)
	}
}

// --- stubs ---

type stubSender struct {
	calls    int
	lastBody string
	lastTo   string
	err      error
	panicMsg string
}

func (s *stubSender) Send(ctx context.Context, msg EmailMessage) error {
	s.calls++
	s.lastBody = msg.Body
	if len(msg.To) > 0 {
		s.lastTo = msg.To[0]
	}
	if s.panicMsg != "" {
		panic(s.panicMsg)
	}
	if s.err != nil {
		return s.err
	}
	return ctx.Err()
}
