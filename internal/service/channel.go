package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"team_chat/internal/domain"
	"team_chat/internal/repository"
	apperrors "team_chat/pkg/errors"
	"team_chat/pkg/ident"
	"team_chat/pkg/logger"
)

type ChannelService interface {
	Create(ctx context.Context, user *domain.User, name, description, kind string) (*domain.Channel, error)
	Get(ctx context.Context, user *domain.User, channelID string) (*domain.Channel, error)
	List(ctx context.Context, user *domain.User) ([]*domain.Channel, error)
	ListDMs(ctx context.Context, user *domain.User) ([]*domain.Channel, error)
	CreateOrGetDM(ctx context.Context, user *domain.User, targetUserID uuid.UUID) (*domain.Channel, error)
	Update(ctx context.Context, user *domain.User, channelID, name, description, kind string) (*domain.Channel, error)
}

type channelService struct {
	channelRepo    repository.ChannelRepository
	membershipRepo repository.MembershipRepository
	accountAuth    AccountAuthorizer
	access         AccessService
	audit          AuditService
	log            logger.Logger
}

func NewChannelService(
	channelRepo repository.ChannelRepository,
	membershipRepo repository.MembershipRepository,
	accountAuth AccountAuthorizer,
	access AccessService,
	audit AuditService,
	log logger.Logger,
) ChannelService {
	return &channelService{
		channelRepo:    channelRepo,
		membershipRepo: membershipRepo,
		accountAuth:    accountAuth,
		access:         access,
		audit:          audit,
		log:            log,
	}
}

func (s *channelService) Create(ctx context.Context, user *domain.User, name, description, kind string) (*domain.Channel, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.ErrBadRequest
	}

	kind, err := normalizeKind(kind)
	if err != nil {
		return nil, err
	}

	// Право создавать каналы в аккаунте решает внешний коллаборатор
	allowed, err := s.accountAuth.CanWriteAccount(ctx, user.ID, user.AccountID)
	if err != nil {
		s.log.Error("Account write check failed", "error", err, "user_id", user.ID)
		return nil, err
	}
	if !allowed {
		return nil, apperrors.ErrUnauthorized
	}

	now := time.Now()
	channel := &domain.Channel{
		ID:          ident.New(),
		AccountID:   user.AccountID,
		Name:        name,
		Description: strings.TrimSpace(description),
		Kind:        kind,
		CreatedBy:   user.ID,
		CreatedAt:   now,
		ModifiedAt:  now,
	}

	if err := s.channelRepo.Create(ctx, channel); err != nil {
		return nil, err
	}

	// Создатель становится первым участником
	if err := s.joinMember(ctx, channel.ID, user.ID); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, user.ID, &channel.ID, domain.EventTypeChannelCreated, map[string]interface{}{
		"name": channel.Name,
		"kind": channel.Kind,
	})

	return channel, nil
}

func (s *channelService) Get(ctx context.Context, user *domain.User, channelID string) (*domain.Channel, error) {
	channel, err := s.channelRepo.GetByID(ctx, channelID)
	if err != nil {
		return nil, err
	}

	if !s.access.CanRead(ctx, user, channel) {
		return nil, apperrors.ErrUnauthorized
	}

	members, err := s.membershipRepo.ListByChannel(ctx, channelID)
	if err != nil {
		return nil, err
	}
	channel.Members = members

	return channel, nil
}

func (s *channelService) List(ctx context.Context, user *domain.User) ([]*domain.Channel, error) {
	return s.channelRepo.ListForUser(ctx, user.AccountID, user.ID)
}

func (s *channelService) ListDMs(ctx context.Context, user *domain.User) ([]*domain.Channel, error) {
	return s.channelRepo.ListDMs(ctx, user.ID)
}

func (s *channelService) CreateOrGetDM(ctx context.Context, user *domain.User, targetUserID uuid.UUID) (*domain.Channel, error) {
	if targetUserID == uuid.Nil || targetUserID == user.ID {
		return nil, apperrors.ErrBadRequest
	}

	pair := domain.SortDMPair(user.ID, targetUserID)

	existing, err := s.channelRepo.FindDM(ctx, user.AccountID, pair)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, apperrors.ErrChannelNotFound) {
		return nil, err
	}

	names := lo.Map(pair[:], func(id uuid.UUID, _ int) string { return id.String() })
	now := time.Now()
	channel := &domain.Channel{
		ID:             ident.New(),
		AccountID:      user.AccountID,
		Name:           "DM: " + strings.Join(names, ", "),
		Kind:           domain.KindDM,
		CreatedBy:      user.ID,
		DMParticipants: pair[:],
		CreatedAt:      now,
		ModifiedAt:     now,
	}

	if err := s.channelRepo.Create(ctx, channel); err != nil {
		// Параллельный запрос на ту же пару успел раньше: возвращаем строку победителя
		if errors.Is(err, apperrors.ErrDuplicateKey) {
			return s.channelRepo.FindDM(ctx, user.AccountID, pair)
		}
		return nil, err
	}

	for _, participant := range pair {
		if err := s.joinMember(ctx, channel.ID, participant); err != nil {
			return nil, err
		}
	}

	s.audit.Record(ctx, user.ID, &channel.ID, domain.EventTypeDMCreated, map[string]interface{}{
		"participants": names,
	})

	return channel, nil
}

func (s *channelService) Update(ctx context.Context, user *domain.User, channelID, name, description, kind string) (*domain.Channel, error) {
	channel, err := s.channelRepo.GetByID(ctx, channelID)
	if err != nil {
		return nil, err
	}

	// DM нельзя редактировать, менять канал может только создатель
	if channel.IsDM() {
		return nil, apperrors.ErrBadRequest
	}
	if channel.CreatedBy != user.ID {
		return nil, apperrors.ErrUnauthorized
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.ErrBadRequest
	}

	kind, err = normalizeKind(kind)
	if err != nil {
		return nil, err
	}

	channel.Name = name
	channel.Description = strings.TrimSpace(description)
	channel.Kind = kind

	if err := s.channelRepo.Update(ctx, channel); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, user.ID, &channel.ID, domain.EventTypeChannelUpdated, map[string]interface{}{
		"name": channel.Name,
		"kind": channel.Kind,
	})

	return channel, nil
}

func (s *channelService) joinMember(ctx context.Context, channelID string, userID uuid.UUID) error {
	return s.membershipRepo.Add(ctx, &domain.Membership{
		ChannelID: channelID,
		UserID:    userID,
		JoinedAt:  time.Now(),
	})
}

// normalizeKind принимает также устаревшее значение "channel" как приватный канал.
func normalizeKind(kind string) (string, error) {
	switch kind {
	case "", "channel", domain.KindPrivate:
		return domain.KindPrivate, nil
	case domain.KindPublic:
		return domain.KindPublic, nil
	default:
		return "", apperrors.ErrBadRequest
	}
}
