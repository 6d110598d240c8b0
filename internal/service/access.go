package service

import (
	"context"

	"team_chat/internal/domain"
	"team_chat/internal/repository"
	"team_chat/pkg/logger"
)

// AccessService решает, можно ли пользователю читать/писать в канал.
// Никогда не возвращает ошибку: отказ или сбой проверки — это false,
// преобразование в HTTP 401 лежит на границе API.
type AccessService interface {
	CanRead(ctx context.Context, user *domain.User, channel *domain.Channel) bool
	CanWrite(ctx context.Context, user *domain.User, channel *domain.Channel) bool
}

type accessService struct {
	membershipRepo repository.MembershipRepository
	log            logger.Logger
}

func NewAccessService(membershipRepo repository.MembershipRepository, log logger.Logger) AccessService {
	return &accessService{membershipRepo: membershipRepo, log: log}
}

func (s *accessService) CanRead(ctx context.Context, user *domain.User, channel *domain.Channel) bool {
	return s.canAccess(ctx, user, channel)
}

func (s *accessService) CanWrite(ctx context.Context, user *domain.User, channel *domain.Channel) bool {
	return s.canAccess(ctx, user, channel)
}

// Публичный канал доступен любому участнику аккаунта без явного членства;
// приватный канал и DM требуют строку членства.
func (s *accessService) canAccess(ctx context.Context, user *domain.User, channel *domain.Channel) bool {
	if channel.Kind == domain.KindPublic && channel.AccountID == user.AccountID {
		return true
	}

	isMember, err := s.membershipRepo.IsMember(ctx, channel.ID, user.ID)
	if err != nil {
		s.log.Error("Membership check failed", "error", err, "channel_id", channel.ID, "user_id", user.ID)
		return false
	}

	return isMember
}
