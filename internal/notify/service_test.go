package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/eventman/internal/model"
	"github.com/hitoshi/eventman/internal/security"
)

// mockUserRepo はテスト用のUserRepository実装。
type mockUserRepo struct {
	listEmailsFn func(ctx context.Context) ([]string, error)
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	return nil, nil
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return nil, nil
}

func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error {
	return nil
}

func (m *mockUserRepo) ListEmails(ctx context.Context) ([]string, error) {
	return m.listEmailsFn(ctx)
}

// sentMail は送信されたメールの内容を保持する。
type sentMail struct {
	to       []string
	subject  string
	textBody string
	htmlBody string
}

// mockMailer は送信内容をチャネルに流すMailer実装。
type mockMailer struct {
	sent    chan sentMail
	sendErr error
}

func newMockMailer() *mockMailer {
	return &mockMailer{sent: make(chan sentMail, 1)}
}

func (m *mockMailer) Send(ctx context.Context, to []string, subject, textBody, htmlBody string) error {
	m.sent <- sentMail{to: to, subject: subject, textBody: textBody, htmlBody: htmlBody}
	return m.sendErr
}

func waitForMail(t *testing.T, m *mockMailer) sentMail {
	t.Helper()
	select {
	case mail := <-m.sent:
		return mail
	case <-time.After(2 * time.Second):
		t.Fatal("mail was not sent")
		return sentMail{}
	}
}

func TestNotifyAll_SendsToAllUsers(t *testing.T) {
	repo := &mockUserRepo{
		listEmailsFn: func(ctx context.Context) ([]string, error) {
			return []string{"a@example.com", "b@example.com"}, nil
		},
	}
	mailer := newMockMailer()
	svc := NewService(repo, mailer, security.NewMessageSanitizer(), nil)

	if err := svc.NotifyAll(context.Background(), "会場が変更になりました"); err != nil {
		t.Fatalf("NotifyAll failed: %v", err)
	}

	mail := waitForMail(t, mailer)
	if len(mail.to) != 2 {
		t.Errorf("recipients = %v, want 2 addresses", mail.to)
	}
	if mail.subject != notificationSubject {
		t.Errorf("subject = %s, want %s", mail.subject, notificationSubject)
	}
	if !strings.Contains(mail.htmlBody, "会場が変更になりました") {
		t.Errorf("html body missing message: %s", mail.htmlBody)
	}
	if !strings.Contains(mail.textBody, "会場が変更になりました") {
		t.Errorf("text body missing message: %s", mail.textBody)
	}
}

func TestNotifyAll_SanitizesMessage(t *testing.T) {
	repo := &mockUserRepo{
		listEmailsFn: func(ctx context.Context) ([]string, error) {
			return []string{"a@example.com"}, nil
		},
	}
	mailer := newMockMailer()
	svc := NewService(repo, mailer, security.NewMessageSanitizer(), nil)

	if err := svc.NotifyAll(context.Background(), `<script>alert(1)</script><p>Venue changed</p>`); err != nil {
		t.Fatalf("NotifyAll failed: %v", err)
	}

	mail := waitForMail(t, mailer)
	if strings.Contains(mail.htmlBody, "<script>") {
		t.Errorf("html body contains script tag: %s", mail.htmlBody)
	}
	if !strings.Contains(mail.htmlBody, "Venue changed") {
		t.Errorf("html body missing message: %s", mail.htmlBody)
	}
}

func TestNotifyAll_NoRecipients(t *testing.T) {
	repo := &mockUserRepo{
		listEmailsFn: func(ctx context.Context) ([]string, error) {
			return nil, nil
		},
	}
	mailer := newMockMailer()
	svc := NewService(repo, mailer, security.NewMessageSanitizer(), nil)

	if err := svc.NotifyAll(context.Background(), "hello"); err != nil {
		t.Fatalf("NotifyAll failed: %v", err)
	}

	select {
	case <-mailer.sent:
		t.Error("mail should not be sent without recipients")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestNotifyAll_RepositoryError(t *testing.T) {
	repo := &mockUserRepo{
		listEmailsFn: func(ctx context.Context) ([]string, error) {
			return nil, errors.New("connection refused")
		},
	}
	mailer := newMockMailer()
	svc := NewService(repo, mailer, security.NewMessageSanitizer(), nil)

	if err := svc.NotifyAll(context.Background(), "hello"); err == nil {
		t.Error("expected error when recipient lookup fails")
	}
}

func TestNotifyAll_DeliveryFailureNotSurfaced(t *testing.T) {
	repo := &mockUserRepo{
		listEmailsFn: func(ctx context.Context) ([]string, error) {
			return []string{"a@example.com"}, nil
		},
	}
	mailer := newMockMailer()
	mailer.sendErr = errors.New("smtp unavailable")
	svc := NewService(repo, mailer, security.NewMessageSanitizer(), nil)

	// 送信失敗は呼び出し元に伝播しない
	if err := svc.NotifyAll(context.Background(), "hello"); err != nil {
		t.Errorf("NotifyAll should not surface delivery errors: %v", err)
	}
	waitForMail(t, mailer)
}

func TestHTMLToPlainText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"タグなし", "plain message", "plain message"},
		{"段落と強調", "<p>Venue changed</p><p>See <b>details</b></p>", "Venue changed\nSee details"},
		{"リスト", "<ul><li>one</li><li>two</li></ul>", "one\ntwo"},
		{"空文字列", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := htmlToPlainText(tt.input); got != tt.want {
				t.Errorf("htmlToPlainText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestBuildMessage_MultipartAlternative(t *testing.T) {
	mailer := NewSMTPMailer(SMTPConfig{
		Host:     "smtp.example.com",
		Port:     "587",
		From:     "organizer@example.com",
		FromName: "Event Organizer",
	})

	msg := mailer.buildMessage(
		[]string{"a@example.com", "b@example.com"},
		"Notification Regarding Event",
		"Venue changed",
		"<b>Venue changed</b>",
	)

	for _, want := range []string{
		"From: Event Organizer <organizer@example.com>",
		"To: a@example.com, b@example.com",
		"Subject: Notification Regarding Event",
		"multipart/alternative",
		"text/plain; charset=UTF-8",
		"text/html; charset=UTF-8",
		"<b>Venue changed</b>",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
}
