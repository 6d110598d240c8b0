package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"team_chat/internal/domain"
	apperrors "team_chat/pkg/errors"
	"team_chat/pkg/logger"
)

type ChannelRepository interface {
	Create(ctx context.Context, channel *domain.Channel) error
	GetByID(ctx context.Context, id string) (*domain.Channel, error)
	ListForUser(ctx context.Context, accountID, userID uuid.UUID) ([]*domain.Channel, error)
	ListDMs(ctx context.Context, userID uuid.UUID) ([]*domain.Channel, error)
	FindDM(ctx context.Context, accountID uuid.UUID, pair [2]uuid.UUID) (*domain.Channel, error)
	Update(ctx context.Context, channel *domain.Channel) error
	TouchModified(ctx context.Context, id string, at time.Time) error
}

type channelRepository struct {
	db  *pgxpool.Pool
	log logger.Logger
}

func NewChannelRepository(db *pgxpool.Pool, log logger.Logger) ChannelRepository {
	return &channelRepository{db: db, log: log}
}

func (r *channelRepository) Create(ctx context.Context, channel *domain.Channel) error {
	query := `
		INSERT INTO channels (id, account_id, name, description, kind, created_by, dm_participants, created_at, modified_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	var participants []uuid.UUID
	if channel.Kind == domain.KindDM {
		participants = channel.DMParticipants
	}

	_, err := r.db.Exec(ctx, query,
		channel.ID, channel.AccountID, channel.Name, channel.Description,
		channel.Kind, channel.CreatedBy, participants, channel.CreatedAt, channel.ModifiedAt,
	)

	if err != nil {
		// 23505 = unique_violation: проигравший гонку за пару DM получает этот сигнал
		// и обязан перечитать строку победителя, а не падать с ошибкой
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			r.log.Warn("Channel already exists (unique violation)", "channel_id", channel.ID, "constraint", pgErr.ConstraintName)
			return apperrors.ErrDuplicateKey
		}
		r.log.Error("Failed to create channel", "error", err)
		return err
	}

	return nil
}

func (r *channelRepository) GetByID(ctx context.Context, id string) (*domain.Channel, error) {
	query := `
		SELECT id, account_id, name, description, kind, created_by, dm_participants, created_at, modified_at
		FROM channels
		WHERE id = $1
	`

	channel, err := scanChannel(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrChannelNotFound
		}
		r.log.Error("Failed to get channel", "error", err, "channel_id", id)
		return nil, err
	}

	return channel, nil
}

// ListForUser возвращает объединение каналов пользователя и публичных каналов
// аккаунта, отсортированное по имени.
func (r *channelRepository) ListForUser(ctx context.Context, accountID, userID uuid.UUID) ([]*domain.Channel, error) {
	query := `
		SELECT c.id, c.account_id, c.name, c.description, c.kind, c.created_by, c.dm_participants, c.created_at, c.modified_at
		FROM channels c
		WHERE c.kind <> 'dm'
		  AND (c.id IN (SELECT channel_id FROM channel_members WHERE user_id = $2)
		       OR (c.kind = 'public' AND c.account_id = $1))
		ORDER BY c.name ASC
	`

	rows, err := r.db.Query(ctx, query, accountID, userID)
	if err != nil {
		r.log.Error("Failed to list channels", "error", err)
		return nil, err
	}
	defer rows.Close()

	return scanChannels(rows)
}

// ListDMs сортирует по modified_at, который поднимается при каждом новом
// сообщении: недавно активные переписки оказываются сверху.
func (r *channelRepository) ListDMs(ctx context.Context, userID uuid.UUID) ([]*domain.Channel, error) {
	query := `
		SELECT id, account_id, name, description, kind, created_by, dm_participants, created_at, modified_at
		FROM channels
		WHERE kind = 'dm' AND dm_participants @> ARRAY[$1]::uuid[]
		ORDER BY modified_at DESC
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		r.log.Error("Failed to list DMs", "error", err)
		return nil, err
	}
	defer rows.Close()

	return scanChannels(rows)
}

func (r *channelRepository) FindDM(ctx context.Context, accountID uuid.UUID, pair [2]uuid.UUID) (*domain.Channel, error) {
	query := `
		SELECT id, account_id, name, description, kind, created_by, dm_participants, created_at, modified_at
		FROM channels
		WHERE kind = 'dm' AND account_id = $1 AND dm_participants = ARRAY[$2, $3]::uuid[]
	`

	channel, err := scanChannel(r.db.QueryRow(ctx, query, accountID, pair[0], pair[1]))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrChannelNotFound
		}
		r.log.Error("Failed to find DM", "error", err)
		return nil, err
	}

	return channel, nil
}

func (r *channelRepository) Update(ctx context.Context, channel *domain.Channel) error {
	query := `
		UPDATE channels
		SET name = $2, description = $3, kind = $4, modified_at = $5
		WHERE id = $1
		RETURNING modified_at
	`

	err := r.db.QueryRow(ctx, query,
		channel.ID, channel.Name, channel.Description, channel.Kind, time.Now(),
	).Scan(&channel.ModifiedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrChannelNotFound
		}
		r.log.Error("Failed to update channel", "error", err, "channel_id", channel.ID)
		return err
	}

	return nil
}

func (r *channelRepository) TouchModified(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE channels SET modified_at = $2 WHERE id = $1`

	_, err := r.db.Exec(ctx, query, id, at)
	if err != nil {
		r.log.Error("Failed to touch channel", "error", err, "channel_id", id)
		return err
	}

	return nil
}

func scanChannel(row pgx.Row) (*domain.Channel, error) {
	channel := &domain.Channel{}
	var participants []uuid.UUID

	err := row.Scan(
		&channel.ID, &channel.AccountID, &channel.Name, &channel.Description,
		&channel.Kind, &channel.CreatedBy, &participants, &channel.CreatedAt, &channel.ModifiedAt,
	)
	if err != nil {
		return nil, err
	}

	channel.DMParticipants = participants
	return channel, nil
}

func scanChannels(rows pgx.Rows) ([]*domain.Channel, error) {
	var channels []*domain.Channel
	for rows.Next() {
		channel, err := scanChannel(rows)
		if err != nil {
			return nil, err
		}
		channels = append(channels, channel)
	}
	return channels, rows.Err()
}
