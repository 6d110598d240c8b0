package service

import (
	"context"
	"strings"
	"time"

	"team_chat/internal/domain"
	"team_chat/internal/repository"
	apperrors "team_chat/pkg/errors"
	"team_chat/pkg/ident"
	"team_chat/pkg/logger"
)

const (
	defaultRangeLimit = 50
	maxRangeLimit     = 100
)

type MessageService interface {
	Send(ctx context.Context, user *domain.User, channelID, text string) (*domain.Message, error)
	Range(ctx context.Context, user *domain.User, channelID string, limit int, before *time.Time) ([]*domain.Message, error)
	Edit(ctx context.Context, user *domain.User, messageID, text string) (*domain.Message, error)
	Delete(ctx context.Context, user *domain.User, messageID string) error
}

type messageService struct {
	messageRepo repository.MessageRepository
	channelRepo repository.ChannelRepository
	access      AccessService
	audit       AuditService
	log         logger.Logger
}

func NewMessageService(
	messageRepo repository.MessageRepository,
	channelRepo repository.ChannelRepository,
	access AccessService,
	audit AuditService,
	log logger.Logger,
) MessageService {
	return &messageService{
		messageRepo: messageRepo,
		channelRepo: channelRepo,
		access:      access,
		audit:       audit,
		log:         log,
	}
}

func (s *messageService) Send(ctx context.Context, user *domain.User, channelID, text string) (*domain.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperrors.ErrBadRequest
	}

	channel, err := s.channelRepo.GetByID(ctx, channelID)
	if err != nil {
		return nil, err
	}

	if !s.access.CanWrite(ctx, user, channel) {
		return nil, apperrors.ErrUnauthorized
	}

	now := time.Now()
	message := &domain.Message{
		ID:         ident.New(),
		ChannelID:  channelID,
		AuthorID:   user.ID,
		Text:       text,
		CreatedAt:  now,
		ModifiedAt: now,
		Edited:     false,
	}

	if err := s.messageRepo.Create(ctx, message); err != nil {
		return nil, err
	}

	// Поднимаем активность канала: списки DM сортируются по modified_at
	if err := s.channelRepo.TouchModified(ctx, channelID, now); err != nil {
		s.log.Warn("Failed to bump channel activity", "error", err, "channel_id", channelID)
	}

	return message, nil
}

func (s *messageService) Range(ctx context.Context, user *domain.User, channelID string, limit int, before *time.Time) ([]*domain.Message, error) {
	channel, err := s.channelRepo.GetByID(ctx, channelID)
	if err != nil {
		return nil, err
	}

	if !s.access.CanRead(ctx, user, channel) {
		return nil, apperrors.ErrUnauthorized
	}

	if limit <= 0 || limit > maxRangeLimit {
		limit = defaultRangeLimit
	}

	return s.messageRepo.Range(ctx, channelID, limit, before)
}

func (s *messageService) Edit(ctx context.Context, user *domain.User, messageID, text string) (*domain.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperrors.ErrBadRequest
	}

	message, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}

	// Редактировать сообщение может только его автор
	if message.AuthorID != user.ID {
		return nil, apperrors.ErrUnauthorized
	}

	message.Text = text
	message.Edited = true

	if err := s.messageRepo.Update(ctx, message); err != nil {
		return nil, err
	}

	return message, nil
}

func (s *messageService) Delete(ctx context.Context, user *domain.User, messageID string) error {
	message, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return err
	}

	if message.AuthorID != user.ID {
		return apperrors.ErrUnauthorized
	}

	if err := s.messageRepo.Delete(ctx, messageID); err != nil {
		return err
	}

	s.audit.Record(ctx, user.ID, &message.ChannelID, domain.EventTypeMessageDeleted, map[string]interface{}{
		"message_id": messageID,
	})

	return nil
}
