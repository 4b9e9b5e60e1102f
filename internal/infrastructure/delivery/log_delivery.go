package delivery

import (
	"context"
	"sync"

	appdoc "github.com/bizdocs/backend/internal/application/document"
	"github.com/bizdocs/backend/internal/domain/shared"
	"github.com/bizdocs/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

var _ appdoc.Delivery = (*LogDelivery)(nil)

// LogDelivery records messages in the log instead of sending them.
// It is used when mail is disabled.
type LogDelivery struct {
	mu     sync.Mutex
	sent   []appdoc.Message
	logger *zap.Logger
}

// NewLogDelivery creates a log-only delivery
func NewLogDelivery(log *zap.Logger) *LogDelivery {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogDelivery{logger: log}
}

// Send logs msg and keeps it for inspection
func (d *LogDelivery) Send(ctx context.Context, msg appdoc.Message) error {
	if len(msg.To) == 0 {
		return shared.NewValidationError("message has no recipient")
	}
	d.mu.Lock()
	d.sent = append(d.sent, msg)
	d.mu.Unlock()

	logger.WithLogger(ctx, d.logger).Info("Mail disabled, message not sent",
		zap.Strings("to", msg.To),
		zap.Strings("cc", msg.Cc),
		zap.String("subject", msg.Subject),
		zap.Int("attachments", len(msg.Attachments)))
	return nil
}

// Sent returns the messages recorded so far
func (d *LogDelivery) Sent() []appdoc.Message {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]appdoc.Message, len(d.sent))
	copy(out, d.sent)
	return out
}
