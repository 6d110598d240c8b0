package repository

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"team_chat/pkg/logger"
)

type Repositories struct {
	User       UserRepository
	Channel    ChannelRepository
	Membership MembershipRepository
	Message    MessageRepository
	Audit      AuditRepository
	RateLimit  RateLimitRepository
}

func NewRepositories(db *pgxpool.Pool, redis *redis.Client, log logger.Logger) *Repositories {
	return &Repositories{
		User:       NewUserRepository(db, log),
		Channel:    NewChannelRepository(db, log),
		Membership: NewMembershipRepository(db, log),
		Message:    NewMessageRepository(db, log),
		Audit:      NewAuditRepository(db, log),
		RateLimit:  NewRateLimitRepository(redis, log),
	}
}
