// Package notify is the delivery boundary for password-recovery tokens. The
// lifecycle engine hands the plaintext token here and never re-exposes it in
// an HTTP response; what carries it to the user (mailer worker, SMS bridge)
// lives behind this interface.
package notify

import (
	"context"
	"log/slog"
)

type RecoveryNotifier interface {
	// RecoveryRequested delivers a freshly issued one-time recovery token
	// for the given email to the outbound channel.
	RecoveryRequested(ctx context.Context, email, token string) error
}

// LogNotifier is the stand-in used when no broker is configured. It records
// that a recovery was requested without logging the token itself.
type LogNotifier struct{}

func (LogNotifier) RecoveryRequested(ctx context.Context, email, token string) error {
	slog.Info("password recovery requested, no delivery channel configured", "email", email)
	return nil
}
