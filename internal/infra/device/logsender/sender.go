package logsender

import (
	"context"
	"log/slog"

	"github.com/yanqian/gaptime-companion/internal/domain/appmessage"
)

// Sender writes outbound messages to the log instead of a device. Every
// message is acknowledged.
type Sender struct {
	logger *slog.Logger
}

// New builds a log-only transport for local development.
func New(logger *slog.Logger) *Sender {
	return &Sender{logger: logger.With("component", "device.logsender")}
}

func (s *Sender) Send(ctx context.Context, msg appmessage.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.logger.Info("app message", "transaction_id", msg.TransactionID, "payload", map[string]any(msg.Payload))
	return nil
}

func (s *Sender) OpenURL(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.logger.Info("open url", "url", url)
	return nil
}

var (
	_ appmessage.Sender    = (*Sender)(nil)
	_ appmessage.URLOpener = (*Sender)(nil)
)
