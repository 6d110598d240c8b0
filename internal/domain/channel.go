package domain

import (
	"time"

	"github.com/google/uuid"
)

type Channel struct {
	ID             string        `json:"id"`
	AccountID      uuid.UUID     `json:"account_id"`
	Name           string        `json:"name"`
	Description    string        `json:"description"`
	Kind           string        `json:"kind"`
	CreatedBy      uuid.UUID     `json:"created_by"`
	DMParticipants []uuid.UUID   `json:"dm_participants,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	ModifiedAt     time.Time     `json:"modified_at"`
	Members        []*Membership `json:"members,omitempty"`
}

type Membership struct {
	ChannelID string    `json:"channel_id"`
	UserID    uuid.UUID `json:"user_id"`
	JoinedAt  time.Time `json:"joined_at"`
}

const (
	KindPrivate = "private"
	KindPublic  = "public"
	KindDM      = "dm"
)

// IsDM сообщает, является ли канал личной перепиской.
func (c *Channel) IsDM() bool {
	return c.Kind == KindDM
}

// SortDMPair нормализует пару участников DM: порядок фиксированный,
// чтобы неупорядоченная пара всегда давала один и тот же ключ.
func SortDMPair(a, b uuid.UUID) [2]uuid.UUID {
	if b.String() < a.String() {
		a, b = b, a
	}
	return [2]uuid.UUID{a, b}
}
