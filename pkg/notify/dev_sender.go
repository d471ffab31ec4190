package notify

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"sync"

	"github.com/dmitrymomot/trialbill/pkg/logger"
)

// DevSender logs messages instead of sending them and keeps them in memory.
type DevSender struct {
	logger *slog.Logger

	mu   sync.Mutex
	sent []Message
}

func NewDevSender(l *slog.Logger) *DevSender {
	if l == nil {
		l = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &DevSender{logger: l}
}

func (d *DevSender) SendEmail(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	d.mu.Lock()
	d.sent = append(d.sent, msg)
	d.mu.Unlock()

	d.logger.InfoContext(ctx, "email not sent in development",
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
		slog.String("tag", msg.Tag),
		logger.Component("notify"),
	)
	return nil
}

// Sent returns the messages received so far.
func (d *DevSender) Sent() []Message {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.sent)
}
