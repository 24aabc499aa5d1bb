package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/wallet-access/internal/events"
)

// AuditService writes an audit trail for access and account events.
type AuditService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewAuditService creates the service.
func NewAuditService(dispatcher events.Dispatcher, logger *zap.Logger) *AuditService {
	return &AuditService{dispatcher: dispatcher, logger: logger}
}

// RegisterHandlers subscribes to events.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventLoginSucceeded, a.handle)
	a.dispatcher.Subscribe(events.EventSubordinateCreated, a.handle)
	a.dispatcher.Subscribe(events.EventStatusChanged, a.handle)
	a.dispatcher.Subscribe(events.EventSessionRevoked, a.handle)
	a.dispatcher.Subscribe(events.EventDomainMappingProvisioned, a.handle)
}

func (a *AuditService) handle(_ context.Context, event events.Event) error {
	a.logger.Info("audit",
		zap.String("event_type", string(event.Type)),
		zap.String("subject_id", event.SubjectID),
		zap.Time("at", event.Timestamp),
		zap.Any("payload", event.Payload),
	)
	return nil
}
