package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"team_chat/internal/domain"
	"team_chat/internal/repository"
	"team_chat/pkg/logger"
)

// AuditService пишет события в журнал. Сбой записи не должен ронять запрос.
type AuditService interface {
	Record(ctx context.Context, actorID uuid.UUID, channelID *string, eventType string, payload map[string]interface{})
}

type auditService struct {
	auditRepo repository.AuditRepository
	log       logger.Logger
}

func NewAuditService(auditRepo repository.AuditRepository, log logger.Logger) AuditService {
	return &auditService{auditRepo: auditRepo, log: log}
}

func (s *auditService) Record(ctx context.Context, actorID uuid.UUID, channelID *string, eventType string, payload map[string]interface{}) {
	event := &domain.AuditEvent{
		EventTime:   time.Now(),
		ActorUserID: &actorID,
		ChannelID:   channelID,
		EventType:   eventType,
		Payload:     payload,
	}

	if err := s.auditRepo.CreateEvent(ctx, event); err != nil {
		s.log.Warn("Failed to record audit event", "error", err, "event_type", eventType)
	}
}
