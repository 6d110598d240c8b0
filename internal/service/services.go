package service

import (
	"team_chat/internal/config"
	"team_chat/internal/repository"
	"team_chat/pkg/logger"
)

type Services struct {
	Auth       AuthService
	Access     AccessService
	Channel    ChannelService
	Membership MembershipService
	Message    MessageService
	Audit      AuditService
	RateLimit  RateLimitService
}

func NewServices(repos *repository.Repositories, cfg *config.Config, log logger.Logger) *Services {
	audit := NewAuditService(repos.Audit, log)
	access := NewAccessService(repos.Membership, log)

	// Внешний сервис авторизации аккаунта подключается только если настроен
	var accountAuth AccountAuthorizer
	if cfg.AccountAuth.URL != "" {
		accountAuth = NewAccountAuthClient(cfg.AccountAuth)
		log.Info("Account auth client initialized", "url", cfg.AccountAuth.URL)
	} else {
		accountAuth = NewStaticAccountAuthorizer()
	}

	return &Services{
		Auth:       NewAuthService(repos.User, cfg.JWT, log),
		Access:     access,
		Channel:    NewChannelService(repos.Channel, repos.Membership, accountAuth, access, audit, log),
		Membership: NewMembershipService(repos.Membership, repos.Channel, audit, log),
		Message:    NewMessageService(repos.Message, repos.Channel, access, audit, log),
		Audit:      audit,
		RateLimit:  NewRateLimitService(repos.RateLimit, log),
	}
}
