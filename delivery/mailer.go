// Package delivery sends OTP verification emails. Dispatch is best-effort:
// callers log failures and continue, so a mail outage never blocks signup.
package delivery

import (
	"context"
	"log/slog"
)

// Mailer delivers a verification code to an email address.
type Mailer interface {
	SendOTP(ctx context.Context, email, otp string) error
}

// LogMailer is the fallback used when no mail credentials are configured.
// It records the dispatch instead of sending, which keeps local development
// working end to end.
type LogMailer struct{}

func (LogMailer) SendOTP(_ context.Context, email, otp string) error {
	slog.Info("mail delivery disabled, logging OTP instead", "email", email, "otp", otp)
	return nil
}
