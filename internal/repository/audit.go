package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"team_chat/internal/domain"
	"team_chat/pkg/logger"
)

type AuditRepository interface {
	CreateEvent(ctx context.Context, event *domain.AuditEvent) error
}

type auditRepository struct {
	db  *pgxpool.Pool
	log logger.Logger
}

func NewAuditRepository(db *pgxpool.Pool, log logger.Logger) AuditRepository {
	return &auditRepository{db: db, log: log}
}

func (r *auditRepository) CreateEvent(ctx context.Context, event *domain.AuditEvent) error {
	query := `
		INSERT INTO audit_log (event_time, actor_user_id, channel_id, event_type, payload)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	err := r.db.QueryRow(ctx, query,
		event.EventTime, event.ActorUserID, event.ChannelID, event.EventType, event.Payload,
	).Scan(&event.ID)

	if err != nil {
		r.log.Error("Failed to create audit event", "error", err)
		return err
	}

	return nil
}
