package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"team_chat/internal/domain"
	apperrors "team_chat/pkg/errors"
	"team_chat/pkg/logger"
)

// In-memory repositories mirroring the Postgres constraints that matter
// for the service layer: the DM pair unique index and the idempotent
// membership insert.

type memChannelRepo struct {
	mu       sync.Mutex
	channels map[string]*domain.Channel
	// invoked inside Create before the uniqueness check, lets a test
	// interleave a racing insert
	beforeInsert func()
}

func newMemChannelRepo() *memChannelRepo {
	return &memChannelRepo{channels: make(map[string]*domain.Channel)}
}

func (r *memChannelRepo) Create(ctx context.Context, channel *domain.Channel) error {
	if r.beforeInsert != nil {
		hook := r.beforeInsert
		r.beforeInsert = nil
		hook()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if channel.Kind == domain.KindDM {
		for _, existing := range r.channels {
			if existing.Kind == domain.KindDM &&
				existing.AccountID == channel.AccountID &&
				samePair(existing.DMParticipants, channel.DMParticipants) {
				return apperrors.ErrDuplicateKey
			}
		}
	}
	clone := *channel
	r.channels[channel.ID] = &clone
	return nil
}

func (r *memChannelRepo) GetByID(ctx context.Context, id string) (*domain.Channel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	channel, ok := r.channels[id]
	if !ok {
		return nil, apperrors.ErrChannelNotFound
	}
	clone := *channel
	return &clone, nil
}

func (r *memChannelRepo) ListForUser(ctx context.Context, accountID, userID uuid.UUID) ([]*domain.Channel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Channel
	for _, channel := range r.channels {
		if channel.Kind == domain.KindDM {
			continue
		}
		if channel.AccountID == accountID {
			clone := *channel
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *memChannelRepo) ListDMs(ctx context.Context, userID uuid.UUID) ([]*domain.Channel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Channel
	for _, channel := range r.channels {
		if channel.Kind != domain.KindDM {
			continue
		}
		for _, participant := range channel.DMParticipants {
			if participant == userID {
				clone := *channel
				out = append(out, &clone)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ModifiedAt.After(out[j].ModifiedAt) })
	return out, nil
}

func (r *memChannelRepo) FindDM(ctx context.Context, accountID uuid.UUID, pair [2]uuid.UUID) (*domain.Channel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, channel := range r.channels {
		if channel.Kind == domain.KindDM &&
			channel.AccountID == accountID &&
			samePair(channel.DMParticipants, pair[:]) {
			clone := *channel
			return &clone, nil
		}
	}
	return nil, apperrors.ErrChannelNotFound
}

func (r *memChannelRepo) Update(ctx context.Context, channel *domain.Channel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.channels[channel.ID]; !ok {
		return apperrors.ErrChannelNotFound
	}
	channel.ModifiedAt = time.Now()
	clone := *channel
	r.channels[channel.ID] = &clone
	return nil
}

func (r *memChannelRepo) TouchModified(ctx context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if channel, ok := r.channels[id]; ok {
		channel.ModifiedAt = at
	}
	return nil
}

func (r *memChannelRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.channels)
}

func samePair(a, b []uuid.UUID) bool {
	if len(a) != 2 || len(b) != 2 {
		return false
	}
	return a[0] == b[0] && a[1] == b[1]
}

type membershipKey struct {
	channelID string
	userID    uuid.UUID
}

type memMembershipRepo struct {
	mu      sync.Mutex
	rows    map[membershipKey]*domain.Membership
	inserts int
}

func newMemMembershipRepo() *memMembershipRepo {
	return &memMembershipRepo{rows: make(map[membershipKey]*domain.Membership)}
}

func (r *memMembershipRepo) Add(ctx context.Context, membership *domain.Membership) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := membershipKey{membership.ChannelID, membership.UserID}
	if _, ok := r.rows[key]; ok {
		// duplicate insert is a silent no-op, same as the unique index path
		return nil
	}
	clone := *membership
	r.rows[key] = &clone
	r.inserts++
	return nil
}

func (r *memMembershipRepo) Remove(ctx context.Context, channelID string, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rows, membershipKey{channelID, userID})
	return nil
}

func (r *memMembershipRepo) IsMember(ctx context.Context, channelID string, userID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.rows[membershipKey{channelID, userID}]
	return ok, nil
}

func (r *memMembershipRepo) ListByChannel(ctx context.Context, channelID string) ([]*domain.Membership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Membership
	for key, row := range r.rows {
		if key.channelID == channelID {
			clone := *row
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *memMembershipRepo) ListChannelIDs(ctx context.Context, userID uuid.UUID) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for key := range r.rows {
		if key.userID == userID {
			out = append(out, key.channelID)
		}
	}
	return out, nil
}

func (r *memMembershipRepo) rowCount(channelID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for key := range r.rows {
		if key.channelID == channelID {
			n++
		}
	}
	return n
}

type memMessageRepo struct {
	mu       sync.Mutex
	messages []*domain.Message
}

func newMemMessageRepo() *memMessageRepo {
	return &memMessageRepo{}
}

func (r *memMessageRepo) Create(ctx context.Context, message *domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *message
	r.messages = append(r.messages, &clone)
	return nil
}

func (r *memMessageRepo) GetByID(ctx context.Context, id string) (*domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, message := range r.messages {
		if message.ID == id {
			clone := *message
			return &clone, nil
		}
	}
	return nil, apperrors.ErrMessageNotFound
}

func (r *memMessageRepo) Range(ctx context.Context, channelID string, limit int, before *time.Time) ([]*domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var scoped []*domain.Message
	for _, message := range r.messages {
		if message.ChannelID != channelID {
			continue
		}
		if before != nil && !message.CreatedAt.Before(*before) {
			continue
		}
		clone := *message
		scoped = append(scoped, &clone)
	}
	sort.Slice(scoped, func(i, j int) bool {
		if scoped[i].CreatedAt.Equal(scoped[j].CreatedAt) {
			return scoped[i].ID < scoped[j].ID
		}
		return scoped[i].CreatedAt.Before(scoped[j].CreatedAt)
	})
	if len(scoped) > limit {
		scoped = scoped[len(scoped)-limit:]
	}
	return scoped, nil
}

func (r *memMessageRepo) Update(ctx context.Context, message *domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.messages {
		if existing.ID == message.ID {
			message.ModifiedAt = time.Now()
			clone := *message
			r.messages[i] = &clone
			return nil
		}
	}
	return apperrors.ErrMessageNotFound
}

func (r *memMessageRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.messages {
		if existing.ID == id {
			r.messages = append(r.messages[:i], r.messages[i+1:]...)
			return nil
		}
	}
	return apperrors.ErrMessageNotFound
}

type recordedEvent struct {
	eventType string
	channelID *string
}

type memAudit struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (a *memAudit) Record(ctx context.Context, actorID uuid.UUID, channelID *string, eventType string, payload map[string]interface{}) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, recordedEvent{eventType: eventType, channelID: channelID})
}

func (a *memAudit) countOf(eventType string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := 0
	for _, event := range a.events {
		if event.eventType == eventType {
			n++
		}
	}
	return n
}

type allowAllAccounts struct{}

func (allowAllAccounts) CanWriteAccount(ctx context.Context, userID, accountID uuid.UUID) (bool, error) {
	return true, nil
}

type denyAllAccounts struct{}

func (denyAllAccounts) CanWriteAccount(ctx context.Context, userID, accountID uuid.UUID) (bool, error) {
	return false, nil
}

func testLogger() logger.Logger {
	return logger.New("error")
}

func testUser(accountID uuid.UUID) *domain.User {
	return &domain.User{
		ID:        uuid.New(),
		AccountID: accountID,
		Email:     uuid.NewString() + "@example.com",
		IsActive:  true,
	}
}
