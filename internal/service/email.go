package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/resend/resend-go/v2"
)

type EmailService struct {
	client  *resend.Client
	from    string
	isDev   bool
	appURL  string
	appName string
}

func NewEmailService(apiKey, from, appURL, appName string, isDev bool) *EmailService {
	var client *resend.Client
	if apiKey != "" && !isDev {
		client = resend.NewClient(apiKey)
	}

	return &EmailService{
		client:  client,
		from:    from,
		isDev:   isDev,
		appURL:  appURL,
		appName: appName,
	}
}

func (s *EmailService) SendPasswordResetEmail(ctx context.Context, email, token, name string, expiry time.Duration) error {
	resetURL := fmt.Sprintf("%s/reset-password?token=%s", s.appURL, token)
	subject, body := passwordResetEmailTemplate(resetURL, name, s.appName, expiry.String())

	return s.send(ctx, "password_reset", email, subject, body, "url", resetURL)
}

func (s *EmailService) SendWelcomeEmail(ctx context.Context, email, name string) error {
	subject, body := welcomeEmailTemplate(name, s.appURL, s.appName)

	return s.send(ctx, "welcome", email, subject, body)
}

// send logs instead of sending in development.
func (s *EmailService) send(ctx context.Context, kind, to, subject, body string, logArgs ...any) error {
	if s.isDev {
		args := append([]any{"type", kind, "to", to, "subject", subject}, logArgs...)
		slog.Info("email sent (dev mode)", args...)
		return nil
	}

	if s.client == nil {
		return fmt.Errorf("email service not configured (missing RESEND_API_KEY)")
	}

	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{to},
		Subject: subject,
		Text:    body,
	}

	_, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return fmt.Errorf("failed to send %s email: %w", kind, err)
	}

	slog.Info("email sent", "type", kind, "to", to)
	return nil
}
