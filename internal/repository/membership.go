package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"team_chat/internal/domain"
	"team_chat/pkg/logger"
)

type MembershipRepository interface {
	Add(ctx context.Context, membership *domain.Membership) error
	Remove(ctx context.Context, channelID string, userID uuid.UUID) error
	IsMember(ctx context.Context, channelID string, userID uuid.UUID) (bool, error)
	ListByChannel(ctx context.Context, channelID string) ([]*domain.Membership, error)
	ListChannelIDs(ctx context.Context, userID uuid.UUID) ([]string, error)
}

type membershipRepository struct {
	db  *pgxpool.Pool
	log logger.Logger
}

func NewMembershipRepository(db *pgxpool.Pool, log logger.Logger) MembershipRepository {
	return &membershipRepository{db: db, log: log}
}

func (r *membershipRepository) Add(ctx context.Context, membership *domain.Membership) error {
	query := `
		INSERT INTO channel_members (channel_id, user_id, joined_at)
		VALUES ($1, $2, $3)
	`

	_, err := r.db.Exec(ctx, query, membership.ChannelID, membership.UserID, membership.JoinedAt)
	if err != nil {
		// Повторная вставка той же пары (channel, user) — не ошибка
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil
		}
		r.log.Error("Failed to add member", "error", err, "channel_id", membership.ChannelID)
		return err
	}

	return nil
}

func (r *membershipRepository) Remove(ctx context.Context, channelID string, userID uuid.UUID) error {
	query := `DELETE FROM channel_members WHERE channel_id = $1 AND user_id = $2`

	_, err := r.db.Exec(ctx, query, channelID, userID)
	if err != nil {
		r.log.Error("Failed to remove member", "error", err, "channel_id", channelID)
		return err
	}

	return nil
}

func (r *membershipRepository) IsMember(ctx context.Context, channelID string, userID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM channel_members WHERE channel_id = $1 AND user_id = $2)`

	var exists bool
	if err := r.db.QueryRow(ctx, query, channelID, userID).Scan(&exists); err != nil {
		r.log.Error("Failed to check membership", "error", err, "channel_id", channelID)
		return false, err
	}

	return exists, nil
}

func (r *membershipRepository) ListByChannel(ctx context.Context, channelID string) ([]*domain.Membership, error) {
	query := `
		SELECT channel_id, user_id, joined_at
		FROM channel_members
		WHERE channel_id = $1
		ORDER BY joined_at ASC
	`

	rows, err := r.db.Query(ctx, query, channelID)
	if err != nil {
		r.log.Error("Failed to list members", "error", err, "channel_id", channelID)
		return nil, err
	}
	defer rows.Close()

	var members []*domain.Membership
	for rows.Next() {
		m := &domain.Membership{}
		if err := rows.Scan(&m.ChannelID, &m.UserID, &m.JoinedAt); err != nil {
			r.log.Error("Failed to scan membership", "error", err)
			return nil, err
		}
		members = append(members, m)
	}

	return members, rows.Err()
}

func (r *membershipRepository) ListChannelIDs(ctx context.Context, userID uuid.UUID) ([]string, error) {
	query := `SELECT channel_id FROM channel_members WHERE user_id = $1`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		r.log.Error("Failed to list channel ids", "error", err)
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}
