package domain

import (
	"time"

	"github.com/google/uuid"
)

type Message struct {
	ID         string    `json:"id"`
	ChannelID  string    `json:"channel_id"`
	AuthorID   uuid.UUID `json:"author_id"`
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`
	Edited     bool      `json:"edited"`
}
