package notify

import (
	"context"

	"github.com/dmitrijs2005/authkeeper/internal/logging"
)

// LogTransport writes messages to the log instead of sending them. It is
// used when no mail system is configured.
type LogTransport struct {
	logger logging.Logger
}

func NewLogTransport(logger logging.Logger) *LogTransport {
	return &LogTransport{logger: logger}
}

func (t *LogTransport) Send(ctx context.Context, to, subject, body string) error {
	t.logger.Info(ctx, "mail not sent, no transport configured", "to", to, "subject", subject, "body", body)
	return nil
}
