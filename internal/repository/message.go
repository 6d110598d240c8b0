package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"team_chat/internal/domain"
	apperrors "team_chat/pkg/errors"
	"team_chat/pkg/logger"
)

type MessageRepository interface {
	Create(ctx context.Context, message *domain.Message) error
	GetByID(ctx context.Context, id string) (*domain.Message, error)
	Range(ctx context.Context, channelID string, limit int, before *time.Time) ([]*domain.Message, error)
	Update(ctx context.Context, message *domain.Message) error
	Delete(ctx context.Context, id string) error
}

type messageRepository struct {
	db  *pgxpool.Pool
	log logger.Logger
}

func NewMessageRepository(db *pgxpool.Pool, log logger.Logger) MessageRepository {
	return &messageRepository{db: db, log: log}
}

func (r *messageRepository) Create(ctx context.Context, message *domain.Message) error {
	query := `
		INSERT INTO messages (id, channel_id, author_id, text, created_at, modified_at, edited)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.Exec(ctx, query,
		message.ID, message.ChannelID, message.AuthorID, message.Text,
		message.CreatedAt, message.ModifiedAt, message.Edited,
	)
	if err != nil {
		r.log.Error("Failed to create message", "error", err, "channel_id", message.ChannelID)
		return err
	}

	return nil
}

func (r *messageRepository) GetByID(ctx context.Context, id string) (*domain.Message, error) {
	query := `
		SELECT id, channel_id, author_id, text, created_at, modified_at, edited
		FROM messages
		WHERE id = $1
	`

	message := &domain.Message{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&message.ID, &message.ChannelID, &message.AuthorID, &message.Text,
		&message.CreatedAt, &message.ModifiedAt, &message.Edited,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrMessageNotFound
		}
		r.log.Error("Failed to get message", "error", err, "message_id", id)
		return nil, err
	}

	return message, nil
}

// Range сканирует от новых к старым (так работает индекс), затем разворачивает
// результат: ответ всегда oldest→newest, а повторный вызов с before = самый
// ранний увиденный created_at листает историю назад.
func (r *messageRepository) Range(ctx context.Context, channelID string, limit int, before *time.Time) ([]*domain.Message, error) {
	query := `
		SELECT id, channel_id, author_id, text, created_at, modified_at, edited
		FROM messages
		WHERE channel_id = $1 AND ($2::timestamptz IS NULL OR created_at < $2)
		ORDER BY created_at DESC, id DESC
		LIMIT $3
	`

	rows, err := r.db.Query(ctx, query, channelID, before, limit)
	if err != nil {
		r.log.Error("Failed to range messages", "error", err, "channel_id", channelID)
		return nil, err
	}
	defer rows.Close()

	var messages []*domain.Message
	for rows.Next() {
		message := &domain.Message{}
		err := rows.Scan(
			&message.ID, &message.ChannelID, &message.AuthorID, &message.Text,
			&message.CreatedAt, &message.ModifiedAt, &message.Edited,
		)
		if err != nil {
			r.log.Error("Failed to scan message", "error", err)
			return nil, err
		}
		messages = append(messages, message)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}

func (r *messageRepository) Update(ctx context.Context, message *domain.Message) error {
	query := `
		UPDATE messages
		SET text = $2, modified_at = $3, edited = $4
		WHERE id = $1
		RETURNING modified_at
	`

	err := r.db.QueryRow(ctx, query, message.ID, message.Text, time.Now(), message.Edited).Scan(&message.ModifiedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrMessageNotFound
		}
		r.log.Error("Failed to update message", "error", err, "message_id", message.ID)
		return err
	}

	return nil
}

func (r *messageRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM messages WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		r.log.Error("Failed to delete message", "error", err, "message_id", id)
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrMessageNotFound
	}

	return nil
}
