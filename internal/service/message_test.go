package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"team_chat/internal/domain"
	apperrors "team_chat/pkg/errors"
)

type messageFixture struct {
	channels    *memChannelRepo
	memberships *memMembershipRepo
	audit       *memAudit
	channelSvc  ChannelService
	svc         MessageService
}

func newMessageFixture(t *testing.T) *messageFixture {
	t.Helper()
	channels := newMemChannelRepo()
	memberships := newMemMembershipRepo()
	audit := &memAudit{}
	access := NewAccessService(memberships, testLogger())
	channelSvc := NewChannelService(channels, memberships, allowAllAccounts{}, access, audit, testLogger())
	svc := NewMessageService(newMemMessageRepo(), channels, access, audit, testLogger())
	return &messageFixture{
		channels:    channels,
		memberships: memberships,
		audit:       audit,
		channelSvc:  channelSvc,
		svc:         svc,
	}
}

func TestMessageService_Send(t *testing.T) {
	accountID := uuid.New()
	author := testUser(accountID)
	outsider := testUser(accountID)

	t.Run("member sends and channel activity is bumped", func(t *testing.T) {
		f := newMessageFixture(t)
		channel, err := f.channelSvc.Create(context.Background(), author, "room", "", "")
		require.NoError(t, err)
		created, err := f.channels.GetByID(context.Background(), channel.ID)
		require.NoError(t, err)

		message, err := f.svc.Send(context.Background(), author, channel.ID, "  hello  ")
		require.NoError(t, err)
		require.Equal(t, "hello", message.Text)
		require.Equal(t, author.ID, message.AuthorID)
		require.False(t, message.Edited)

		bumped, err := f.channels.GetByID(context.Background(), channel.ID)
		require.NoError(t, err)
		require.False(t, bumped.ModifiedAt.Before(created.ModifiedAt))
	})

	t.Run("non-member of private channel is rejected", func(t *testing.T) {
		f := newMessageFixture(t)
		channel, err := f.channelSvc.Create(context.Background(), author, "room", "", "")
		require.NoError(t, err)

		_, err = f.svc.Send(context.Background(), outsider, channel.ID, "hi")
		require.ErrorIs(t, err, apperrors.ErrUnauthorized)
	})

	t.Run("anyone in account writes to public channel", func(t *testing.T) {
		f := newMessageFixture(t)
		channel, err := f.channelSvc.Create(context.Background(), author, "town hall", "", domain.KindPublic)
		require.NoError(t, err)

		_, err = f.svc.Send(context.Background(), outsider, channel.ID, "hi")
		require.NoError(t, err)
	})

	t.Run("blank text is rejected", func(t *testing.T) {
		f := newMessageFixture(t)
		channel, err := f.channelSvc.Create(context.Background(), author, "room", "", "")
		require.NoError(t, err)

		_, err = f.svc.Send(context.Background(), author, channel.ID, "   ")
		require.ErrorIs(t, err, apperrors.ErrBadRequest)
	})
}

func TestMessageService_Range(t *testing.T) {
	accountID := uuid.New()
	author := testUser(accountID)
	outsider := testUser(accountID)

	f := newMessageFixture(t)
	channel, err := f.channelSvc.Create(context.Background(), author, "room", "", "")
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err := f.svc.Send(context.Background(), author, channel.ID, fmt.Sprintf("msg %d", i))
		require.NoError(t, err)
	}

	t.Run("messages come back oldest first", func(t *testing.T) {
		messages, err := f.svc.Range(context.Background(), author, channel.ID, 10, nil)
		require.NoError(t, err)
		require.Len(t, messages, 5)
		for i := 1; i < len(messages); i++ {
			require.False(t, messages[i].CreatedAt.Before(messages[i-1].CreatedAt))
		}
		require.Equal(t, "msg 0", messages[0].Text)
		require.Equal(t, "msg 4", messages[4].Text)
	})

	t.Run("limit keeps the newest page", func(t *testing.T) {
		messages, err := f.svc.Range(context.Background(), author, channel.ID, 2, nil)
		require.NoError(t, err)
		require.Len(t, messages, 2)
		require.Equal(t, "msg 3", messages[0].Text)
		require.Equal(t, "msg 4", messages[1].Text)
	})

	t.Run("out-of-bounds limit falls back to the default", func(t *testing.T) {
		for _, limit := range []int{0, -5, maxRangeLimit + 1} {
			messages, err := f.svc.Range(context.Background(), author, channel.ID, limit, nil)
			require.NoError(t, err)
			require.Len(t, messages, 5)
		}
	})

	t.Run("before excludes newer messages", func(t *testing.T) {
		all, err := f.svc.Range(context.Background(), author, channel.ID, 10, nil)
		require.NoError(t, err)
		cutoff := all[2].CreatedAt

		page, err := f.svc.Range(context.Background(), author, channel.ID, 10, &cutoff)
		require.NoError(t, err)
		for _, message := range page {
			require.True(t, message.CreatedAt.Before(cutoff))
		}
	})

	t.Run("non-member is rejected", func(t *testing.T) {
		_, err := f.svc.Range(context.Background(), outsider, channel.ID, 10, nil)
		require.ErrorIs(t, err, apperrors.ErrUnauthorized)
	})
}

func TestMessageService_Edit(t *testing.T) {
	accountID := uuid.New()
	author := testUser(accountID)
	other := testUser(accountID)

	f := newMessageFixture(t)
	channel, err := f.channelSvc.Create(context.Background(), author, "room", "", domain.KindPublic)
	require.NoError(t, err)

	original, err := f.svc.Send(context.Background(), author, channel.ID, "draft")
	require.NoError(t, err)
	time.Sleep(time.Millisecond)

	t.Run("author edit sets the edited flag and keeps identity", func(t *testing.T) {
		edited, err := f.svc.Edit(context.Background(), author, original.ID, "final")
		require.NoError(t, err)
		require.Equal(t, original.ID, edited.ID)
		require.Equal(t, original.ChannelID, edited.ChannelID)
		require.Equal(t, original.AuthorID, edited.AuthorID)
		require.Equal(t, "final", edited.Text)
		require.True(t, edited.Edited)

		// the edit is visible in a subsequent range
		messages, err := f.svc.Range(context.Background(), author, channel.ID, 10, nil)
		require.NoError(t, err)
		require.Equal(t, "final", messages[0].Text)
		require.True(t, messages[0].Edited)
	})

	t.Run("only the author may edit", func(t *testing.T) {
		_, err := f.svc.Edit(context.Background(), other, original.ID, "hijack")
		require.ErrorIs(t, err, apperrors.ErrUnauthorized)
	})

	t.Run("unknown message is not found", func(t *testing.T) {
		_, err := f.svc.Edit(context.Background(), author, "missing", "text")
		require.ErrorIs(t, err, apperrors.ErrMessageNotFound)
	})
}

func TestMessageService_Delete(t *testing.T) {
	accountID := uuid.New()
	author := testUser(accountID)
	other := testUser(accountID)

	f := newMessageFixture(t)
	channel, err := f.channelSvc.Create(context.Background(), author, "room", "", domain.KindPublic)
	require.NoError(t, err)

	first, err := f.svc.Send(context.Background(), author, channel.ID, "first")
	require.NoError(t, err)
	second, err := f.svc.Send(context.Background(), author, channel.ID, "second")
	require.NoError(t, err)
	third, err := f.svc.Send(context.Background(), author, channel.ID, "third")
	require.NoError(t, err)

	t.Run("only the author may delete", func(t *testing.T) {
		err := f.svc.Delete(context.Background(), other, second.ID)
		require.ErrorIs(t, err, apperrors.ErrUnauthorized)
	})

	t.Run("deleted message leaves order intact", func(t *testing.T) {
		require.NoError(t, f.svc.Delete(context.Background(), author, second.ID))

		messages, err := f.svc.Range(context.Background(), author, channel.ID, 10, nil)
		require.NoError(t, err)
		require.Len(t, messages, 2)
		require.Equal(t, first.ID, messages[0].ID)
		require.Equal(t, third.ID, messages[1].ID)
		require.Equal(t, 1, f.audit.countOf(domain.EventTypeMessageDeleted))
	})

	t.Run("deleting twice is not found", func(t *testing.T) {
		err := f.svc.Delete(context.Background(), author, second.ID)
		require.ErrorIs(t, err, apperrors.ErrMessageNotFound)
	})
}
