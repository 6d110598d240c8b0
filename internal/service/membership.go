package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"team_chat/internal/domain"
	"team_chat/internal/repository"
	apperrors "team_chat/pkg/errors"
	"team_chat/pkg/logger"
)

type MembershipService interface {
	Add(ctx context.Context, actor *domain.User, channelID string, userID uuid.UUID) error
	Remove(ctx context.Context, actor *domain.User, channelID string, userID uuid.UUID) error
	IsMember(ctx context.Context, channelID string, userID uuid.UUID) (bool, error)
}

type membershipService struct {
	membershipRepo repository.MembershipRepository
	channelRepo    repository.ChannelRepository
	audit          AuditService
	log            logger.Logger
}

func NewMembershipService(
	membershipRepo repository.MembershipRepository,
	channelRepo repository.ChannelRepository,
	audit AuditService,
	log logger.Logger,
) MembershipService {
	return &membershipService{
		membershipRepo: membershipRepo,
		channelRepo:    channelRepo,
		audit:          audit,
		log:            log,
	}
}

func (s *membershipService) Add(ctx context.Context, actor *domain.User, channelID string, userID uuid.UUID) error {
	channel, err := s.channelRepo.GetByID(ctx, channelID)
	if err != nil {
		return err
	}

	// Добавлять участников может создатель канала или действующий участник
	isCreator := channel.CreatedBy == actor.ID
	isMember, err := s.membershipRepo.IsMember(ctx, channelID, actor.ID)
	if err != nil {
		return err
	}
	if !isCreator && !isMember {
		return apperrors.ErrUnauthorized
	}

	err = s.membershipRepo.Add(ctx, &domain.Membership{
		ChannelID: channelID,
		UserID:    userID,
		JoinedAt:  time.Now(),
	})
	if err != nil {
		return err
	}

	s.audit.Record(ctx, actor.ID, &channelID, domain.EventTypeMemberAdded, map[string]interface{}{
		"user_id": userID.String(),
	})

	return nil
}

func (s *membershipService) Remove(ctx context.Context, actor *domain.User, channelID string, userID uuid.UUID) error {
	channel, err := s.channelRepo.GetByID(ctx, channelID)
	if err != nil {
		return err
	}

	// Создатель удаляет кого угодно, остальные — только себя
	isCreator := channel.CreatedBy == actor.ID
	isSelf := userID == actor.ID
	if !isCreator && !isSelf {
		return apperrors.ErrUnauthorized
	}

	if err := s.membershipRepo.Remove(ctx, channelID, userID); err != nil {
		return err
	}

	s.audit.Record(ctx, actor.ID, &channelID, domain.EventTypeMemberRemoved, map[string]interface{}{
		"user_id": userID.String(),
	})

	return nil
}

func (s *membershipService) IsMember(ctx context.Context, channelID string, userID uuid.UUID) (bool, error) {
	return s.membershipRepo.IsMember(ctx, channelID, userID)
}
