package event

import (
	"context"
	"encoding/json"

	"github.com/bizdocs/backend/internal/domain/shared"
	"github.com/bizdocs/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

var _ shared.EventHandler = (*AuditLogHandler)(nil)

// AuditLogHandler writes every document event to the audit log
type AuditLogHandler struct {
	logger *zap.Logger
}

// NewAuditLogHandler creates an audit handler writing to log under the "audit" name
func NewAuditLogHandler(log *zap.Logger) *AuditLogHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuditLogHandler{logger: log.Named("audit")}
}

// Handle logs the event and its JSON payload
func (h *AuditLogHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	logger.WithLogger(ctx, h.logger).Info(event.EventType(),
		zap.String("event_id", event.EventID().String()),
		zap.String("aggregate_type", event.AggregateType()),
		zap.String("aggregate_id", event.AggregateID().String()),
		zap.Time("occurred_at", event.OccurredAt()),
		zap.String("payload", string(payload)))
	return nil
}

// EventTypes is empty: the audit log receives every event
func (h *AuditLogHandler) EventTypes() []string {
	return nil
}
