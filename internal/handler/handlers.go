package handler

import (
	"github.com/gin-gonic/gin"

	"team_chat/internal/config"
	"team_chat/internal/domain"
	"team_chat/internal/middleware"
	"team_chat/internal/service"
	apperrors "team_chat/pkg/errors"
	"team_chat/pkg/logger"
)

type Handlers struct {
	Health  *HealthHandler
	Auth    *AuthHandler
	Channel *ChannelHandler
	Message *MessageHandler
}

func NewHandlers(services *service.Services, cfg *config.Config, log logger.Logger) *Handlers {
	return &Handlers{
		Health:  NewHealthHandler(cfg),
		Auth:    NewAuthHandler(services.Auth, log),
		Channel: NewChannelHandler(services.Channel, services.Membership, log),
		Message: NewMessageHandler(services.Message, log),
	}
}

// requireUser достаёт пользователя из контекста; отсутствие — ошибка цепочки middleware.
func requireUser(c *gin.Context) (*domain.User, bool) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(apperrors.HTTPStatusFromError(apperrors.ErrUnauthorized), gin.H{"error": "user not authenticated"})
		return nil, false
	}
	return user, true
}

func respondError(c *gin.Context, err error) {
	c.JSON(apperrors.HTTPStatusFromError(err), gin.H{"error": err.Error()})
}
