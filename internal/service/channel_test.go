package service

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"team_chat/internal/domain"
	apperrors "team_chat/pkg/errors"
)

func newChannelFixture(t *testing.T) (*memChannelRepo, *memMembershipRepo, *memAudit, ChannelService) {
	t.Helper()
	channels := newMemChannelRepo()
	memberships := newMemMembershipRepo()
	audit := &memAudit{}
	access := NewAccessService(memberships, testLogger())
	svc := NewChannelService(channels, memberships, allowAllAccounts{}, access, audit, testLogger())
	return channels, memberships, audit, svc
}

func TestChannelService_Create(t *testing.T) {
	accountID := uuid.New()
	user := testUser(accountID)

	t.Run("creator auto-joins and kind defaults to private", func(t *testing.T) {
		_, memberships, audit, svc := newChannelFixture(t)

		channel, err := svc.Create(context.Background(), user, "general", "main room", "")
		require.NoError(t, err)
		require.Equal(t, domain.KindPrivate, channel.Kind)
		require.Equal(t, accountID, channel.AccountID)
		require.NotEmpty(t, channel.ID)

		isMember, err := memberships.IsMember(context.Background(), channel.ID, user.ID)
		require.NoError(t, err)
		require.True(t, isMember)
		require.Equal(t, 1, audit.countOf(domain.EventTypeChannelCreated))
	})

	t.Run("legacy kind value maps to private", func(t *testing.T) {
		_, _, _, svc := newChannelFixture(t)

		channel, err := svc.Create(context.Background(), user, "legacy", "", "channel")
		require.NoError(t, err)
		require.Equal(t, domain.KindPrivate, channel.Kind)
	})

	t.Run("unknown kind is rejected", func(t *testing.T) {
		_, _, _, svc := newChannelFixture(t)

		_, err := svc.Create(context.Background(), user, "bad", "", "broadcast")
		require.ErrorIs(t, err, apperrors.ErrBadRequest)
	})

	t.Run("empty name is rejected", func(t *testing.T) {
		_, _, _, svc := newChannelFixture(t)

		_, err := svc.Create(context.Background(), user, "   ", "", "")
		require.ErrorIs(t, err, apperrors.ErrBadRequest)
	})

	t.Run("account authorizer denial maps to unauthorized", func(t *testing.T) {
		channels := newMemChannelRepo()
		memberships := newMemMembershipRepo()
		access := NewAccessService(memberships, testLogger())
		svc := NewChannelService(channels, memberships, denyAllAccounts{}, access, &memAudit{}, testLogger())

		_, err := svc.Create(context.Background(), user, "general", "", "")
		require.ErrorIs(t, err, apperrors.ErrUnauthorized)
		require.Zero(t, channels.count())
	})
}

func TestChannelService_CreateOrGetDM(t *testing.T) {
	accountID := uuid.New()
	alice := testUser(accountID)
	bob := testUser(accountID)

	t.Run("first call creates, second returns the same channel", func(t *testing.T) {
		channels, memberships, audit, svc := newChannelFixture(t)

		first, err := svc.CreateOrGetDM(context.Background(), alice, bob.ID)
		require.NoError(t, err)
		require.Equal(t, domain.KindDM, first.Kind)
		require.Len(t, first.DMParticipants, 2)

		// both participants are joined on creation
		for _, id := range []uuid.UUID{alice.ID, bob.ID} {
			ok, err := memberships.IsMember(context.Background(), first.ID, id)
			require.NoError(t, err)
			require.True(t, ok)
		}

		second, err := svc.CreateOrGetDM(context.Background(), alice, bob.ID)
		require.NoError(t, err)
		require.Equal(t, first.ID, second.ID)

		// and the reversed pair resolves to the same thread
		reversed, err := svc.CreateOrGetDM(context.Background(), bob, alice.ID)
		require.NoError(t, err)
		require.Equal(t, first.ID, reversed.ID)

		require.Equal(t, 1, channels.count())
		require.Equal(t, 1, audit.countOf(domain.EventTypeDMCreated))
	})

	t.Run("losing a creation race returns the winner's channel", func(t *testing.T) {
		channels, _, _, svc := newChannelFixture(t)

		// the racing call inserts its row between our FindDM miss and Create
		var winner *domain.Channel
		channels.beforeInsert = func() {
			var err error
			winner, err = svc.CreateOrGetDM(context.Background(), bob, alice.ID)
			require.NoError(t, err)
		}

		loser, err := svc.CreateOrGetDM(context.Background(), alice, bob.ID)
		require.NoError(t, err)
		require.Equal(t, winner.ID, loser.ID)
		require.Equal(t, 1, channels.count())
	})

	t.Run("concurrent callers converge on one channel row", func(t *testing.T) {
		channels, _, _, svc := newChannelFixture(t)

		const callers = 8
		ids := make([]string, callers)
		var wg sync.WaitGroup
		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				caller, target := alice, bob.ID
				if i%2 == 1 {
					caller, target = bob, alice.ID
				}
				channel, err := svc.CreateOrGetDM(context.Background(), caller, target)
				require.NoError(t, err)
				ids[i] = channel.ID
			}(i)
		}
		wg.Wait()

		require.Equal(t, 1, channels.count())
		for _, id := range ids {
			require.Equal(t, ids[0], id)
		}
	})

	t.Run("self-dm and nil target are rejected", func(t *testing.T) {
		_, _, _, svc := newChannelFixture(t)

		_, err := svc.CreateOrGetDM(context.Background(), alice, alice.ID)
		require.ErrorIs(t, err, apperrors.ErrBadRequest)

		_, err = svc.CreateOrGetDM(context.Background(), alice, uuid.Nil)
		require.ErrorIs(t, err, apperrors.ErrBadRequest)
	})
}

func TestChannelService_Get(t *testing.T) {
	accountID := uuid.New()
	creator := testUser(accountID)
	outsider := testUser(accountID)

	_, _, _, svc := newChannelFixture(t)

	channel, err := svc.Create(context.Background(), creator, "secret", "", domain.KindPrivate)
	require.NoError(t, err)

	t.Run("member receives channel with members attached", func(t *testing.T) {
		got, err := svc.Get(context.Background(), creator, channel.ID)
		require.NoError(t, err)
		require.Len(t, got.Members, 1)
		require.Equal(t, creator.ID, got.Members[0].UserID)
	})

	t.Run("non-member is rejected", func(t *testing.T) {
		_, err := svc.Get(context.Background(), outsider, channel.ID)
		require.ErrorIs(t, err, apperrors.ErrUnauthorized)
	})

	t.Run("unknown channel is not found", func(t *testing.T) {
		_, err := svc.Get(context.Background(), creator, "missing")
		require.ErrorIs(t, err, apperrors.ErrChannelNotFound)
	})
}

func TestChannelService_Update(t *testing.T) {
	accountID := uuid.New()
	creator := testUser(accountID)
	other := testUser(accountID)

	_, _, audit, svc := newChannelFixture(t)

	channel, err := svc.Create(context.Background(), creator, "old name", "", domain.KindPrivate)
	require.NoError(t, err)

	t.Run("creator renames and republishes", func(t *testing.T) {
		updated, err := svc.Update(context.Background(), creator, channel.ID, "new name", "desc", domain.KindPublic)
		require.NoError(t, err)
		require.Equal(t, "new name", updated.Name)
		require.Equal(t, domain.KindPublic, updated.Kind)
		require.Equal(t, 1, audit.countOf(domain.EventTypeChannelUpdated))
	})

	t.Run("non-creator is rejected", func(t *testing.T) {
		_, err := svc.Update(context.Background(), other, channel.ID, "hijack", "", "")
		require.ErrorIs(t, err, apperrors.ErrUnauthorized)
	})

	t.Run("dm threads cannot be edited", func(t *testing.T) {
		dm, err := svc.CreateOrGetDM(context.Background(), creator, other.ID)
		require.NoError(t, err)

		_, err = svc.Update(context.Background(), creator, dm.ID, "renamed", "", "")
		require.ErrorIs(t, err, apperrors.ErrBadRequest)
	})
}
