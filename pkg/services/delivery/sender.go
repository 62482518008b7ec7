package delivery

import (
	"context"

	"github.com/rs/zerolog"
)

// Message describes one finished-report notification.
type Message struct {
	To          string
	Account     string
	ReportType  string
	DownloadURL string
}

// Sender delivers finished-report notifications.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type noopSender struct{}

// NewNoop returns a sender that drops every message. Used when email
// delivery is not configured.
func NewNoop() Sender {
	return noopSender{}
}

func (noopSender) Send(ctx context.Context, msg Message) error {
	zerolog.Ctx(ctx).Debug().Str("to", msg.To).Msg("email delivery disabled, dropping notification")
	return nil
}
