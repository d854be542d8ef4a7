package email

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/resend/resend-go/v2"
)

type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// LogSender logs emails instead of sending them. Used in ENV=local.
type LogSender struct {
	logger *slog.Logger
}

func (s *LogSender) Send(_ context.Context, to, subject, body string) error {
	s.logger.Info("verification email (local dev)", "to", to, "subject", subject, "body", body)
	return nil
}

// ResendSender sends emails via the Resend API. Used in staging/production.
type ResendSender struct {
	client *resend.Client
	from   string
}

func (s *ResendSender) Send(ctx context.Context, to, subject, body string) error {
	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{to},
		Subject: subject,
		Html:    body,
	}
	_, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

// NewSender returns a LogSender for ENV=local, ResendSender otherwise.
func NewSender(env, apiKey, from string, logger *slog.Logger) Sender {
	if env == "local" {
		return &LogSender{logger: logger.With("component", "email")}
	}
	return &ResendSender{
		client: resend.NewClient(apiKey),
		from:   from,
	}
}

// VerificationLink builds the link the user follows to confirm their address.
func VerificationLink(baseURL, token string) string {
	return strings.TrimRight(baseURL, "/") + "/verify-email?token=" + url.QueryEscape(token)
}

// VerificationMessage renders the subject and HTML body of the verification email.
func VerificationMessage(link string, expires time.Time) (subject, body string) {
	escaped := html.EscapeString(link)
	subject = "Verify your Prompt Studio email"
	body = fmt.Sprintf(
		`<p>Confirm your email address to finish creating your account.</p>`+
			`<p><a href="%s">%s</a></p>`+
			`<p>This link expires on %s.</p>`,
		escaped, escaped, expires.UTC().Format(time.RFC1123),
	)
	return subject, body
}
