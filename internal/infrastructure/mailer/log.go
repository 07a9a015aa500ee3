package mailer

import (
	"context"

	usecase "taskaty/backend/internal/usecase/auth"

	"go.uber.org/zap"
)

// LogMailer writes messages to the log instead of sending them. Used when no SMTP host is configured.
type LogMailer struct {
	logger *zap.Logger
}

var _ usecase.Mailer = (*LogMailer)(nil)

// NewLogMailer constructs a log-backed mailer.
func NewLogMailer(logger *zap.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

// Send logs the recipient and subject. The body may hold secrets and is logged only at debug level.
func (m *LogMailer) Send(_ context.Context, msg usecase.Message) error {
	m.logger.Info("Mail not sent, no SMTP relay configured",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
	)
	m.logger.Debug("Mail body", zap.String("to", msg.To), zap.String("text", msg.Text))
	return nil
}
