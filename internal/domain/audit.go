package domain

import (
	"time"

	"github.com/google/uuid"
)

type AuditEvent struct {
	ID          int64                  `json:"id"`
	EventTime   time.Time              `json:"event_time"`
	ActorUserID *uuid.UUID             `json:"actor_user_id,omitempty"`
	ChannelID   *string                `json:"channel_id,omitempty"`
	EventType   string                 `json:"event_type"`
	Payload     map[string]interface{} `json:"payload"`
}

const (
	EventTypeChannelCreated = "CHANNEL_CREATED"
	EventTypeChannelUpdated = "CHANNEL_UPDATED"
	EventTypeDMCreated      = "DM_CREATED"
	EventTypeMemberAdded    = "MEMBER_ADDED"
	EventTypeMemberRemoved  = "MEMBER_REMOVED"
	EventTypeMessageDeleted = "MESSAGE_DELETED"
)
