package mailer

import (
	"context"

	"github.com/gearsupply/gearsupply-backend/pkg/logger"
)

// Message is a rendered outbound email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer dispatches transactional email. Implementations must not block on
// provider retries; callers treat send failures as non-fatal.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// LogMailer writes outbound mail to the application log instead of a
// provider. Used in dev and in tests.
type LogMailer struct {
	logger *logger.Logger
}

// NewLogMailer returns a Mailer that records sends via the logger.
func NewLogMailer(logg *logger.Logger) *LogMailer {
	return &LogMailer{logger: logg}
}

// Send logs the message metadata. The body is omitted so codes never land in logs.
func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	if m == nil || m.logger == nil {
		return nil
	}
	ctx = m.logger.WithFields(ctx, map[string]any{
		"to":      msg.To,
		"subject": msg.Subject,
	})
	m.logger.Info(ctx, "email dispatched")
	return nil
}
