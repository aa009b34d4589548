package service_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streamchat/internal/domain"
	"streamchat/internal/service"
)

const testMaxPageSize = 100

func TestListMessagesValidation(t *testing.T) {
	env := newTestEnv(t)
	svc := service.NewQueryService(env.conversations, env.participants, env.messages, testMaxPageSize)
	ctx := context.Background()
	target := domain.StreamTarget("general")

	cases := []struct {
		name string
		in   service.ListMessagesInput
	}{
		{"PageZero", service.ListMessagesInput{Page: 0, Limit: 10}},
		{"LimitZero", service.ListMessagesInput{Page: 1, Limit: 0}},
		{"LimitOverCap", service.ListMessagesInput{Page: 1, Limit: testMaxPageSize + 1}},
		{"BadSort", service.ListMessagesInput{Page: 1, Limit: 10, Sort: "sideways"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := svc.ListMessages(ctx, target, tc.in)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}

	t.Run("BadTypeFilter", func(t *testing.T) {
		bad := domain.MessageType("smoke-signal")
		_, _, err := svc.ListMessages(ctx, target, service.ListMessagesInput{Page: 1, Limit: 10, Type: &bad})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
}

func TestListMessagesPagination(t *testing.T) {
	env := newTestEnv(t)
	msgSvc := service.NewMessageService(env.messages, env.participants)
	querySvc := service.NewQueryService(env.conversations, env.participants, env.messages, testMaxPageSize)
	ctx := context.Background()

	alice := env.createUser(t, "alice")
	target := domain.StreamTarget("general")

	const total = 25
	for i := 0; i < total; i++ {
		_, err := msgSvc.Send(ctx, service.SendInput{
			Target: target, AuthorID: alice.ID,
			Content: fmt.Sprintf("message %d", i), Type: domain.TypeText,
		})
		require.NoError(t, err)
	}

	t.Run("NoOverlapAndOrdered", func(t *testing.T) {
		seen := map[int64]bool{}
		var prev int64
		for page := 1; page <= 3; page++ {
			items, pagination, err := querySvc.ListMessages(ctx, target, service.ListMessagesInput{
				Page: page, Limit: 10, Sort: domain.SortOldest,
			})
			require.NoError(t, err)
			assert.Equal(t, total, pagination.TotalItems)
			assert.Equal(t, 3, pagination.TotalPages)

			for _, m := range items {
				assert.False(t, seen[m.ID], "message %d returned twice", m.ID)
				seen[m.ID] = true
				assert.Greater(t, m.ID, prev)
				prev = m.ID
			}
		}
		assert.Len(t, seen, total)
	})

	t.Run("NewestFirst", func(t *testing.T) {
		items, _, err := querySvc.ListMessages(ctx, target, service.ListMessagesInput{
			Page: 1, Limit: 5, Sort: domain.SortNewest,
		})
		require.NoError(t, err)
		require.Len(t, items, 5)
		for i := 1; i < len(items); i++ {
			assert.Less(t, items[i].ID, items[i-1].ID)
		}
		assert.Equal(t, "message 24", items[0].Content)
	})

	t.Run("RoundTrip", func(t *testing.T) {
		sent, err := msgSvc.Send(ctx, service.SendInput{
			Target: target, AuthorID: alice.ID, Content: "freshest", Type: domain.TypeText,
		})
		require.NoError(t, err)

		items, _, err := querySvc.ListMessages(ctx, target, service.ListMessagesInput{
			Page: 1, Limit: 1, Sort: domain.SortNewest,
		})
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, sent.ID, items[0].ID)
	})
}

func TestListMessagesFilters(t *testing.T) {
	env := newTestEnv(t)
	msgSvc := service.NewMessageService(env.messages, env.participants)
	querySvc := service.NewQueryService(env.conversations, env.participants, env.messages, testMaxPageSize)
	ctx := context.Background()

	alice := env.createUser(t, "alice")
	target := domain.StreamTarget("general")

	send := func(content string, mt domain.MessageType) *domain.Message {
		m, err := msgSvc.Send(ctx, service.SendInput{
			Target: target, AuthorID: alice.ID, Content: content, Type: mt,
		})
		require.NoError(t, err)
		return m
	}

	send("hello", domain.TypeText)
	gif := send("cat.gif", domain.TypeGIF)
	doomed := send("soon gone", domain.TypeText)
	require.NoError(t, msgSvc.Delete(ctx, doomed.ID, alice.ID, false))

	t.Run("TypeFilter", func(t *testing.T) {
		mt := domain.TypeGIF
		items, pagination, err := querySvc.ListMessages(ctx, target, service.ListMessagesInput{
			Page: 1, Limit: 10, Type: &mt,
		})
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, gif.ID, items[0].ID)
		assert.Equal(t, 1, pagination.TotalItems)
	})

	t.Run("DeletedExcludedByDefault", func(t *testing.T) {
		items, pagination, err := querySvc.ListMessages(ctx, target, service.ListMessagesInput{
			Page: 1, Limit: 10,
		})
		require.NoError(t, err)
		assert.Len(t, items, 2)
		assert.Equal(t, 2, pagination.TotalItems)
		for _, m := range items {
			assert.False(t, m.IsDeleted)
		}
	})

	t.Run("IncludeDeleted", func(t *testing.T) {
		items, pagination, err := querySvc.ListMessages(ctx, target, service.ListMessagesInput{
			Page: 1, Limit: 10, IncludeDeleted: true,
		})
		require.NoError(t, err)
		assert.Len(t, items, 3)
		assert.Equal(t, 3, pagination.TotalItems)

		var found bool
		for _, m := range items {
			if m.ID == doomed.ID {
				found = true
				assert.True(t, m.IsDeleted)
				assert.NotNil(t, m.DeletedAt)
			}
		}
		assert.True(t, found, "deleted message must still appear with includeDeleted")
	})
}

func TestListConversations(t *testing.T) {
	env := newTestEnv(t)
	convSvc := service.NewConversationService(env.users, env.conversations)
	msgSvc := service.NewMessageService(env.messages, env.participants)
	querySvc := service.NewQueryService(env.conversations, env.participants, env.messages, testMaxPageSize)
	ctx := context.Background()

	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	carol := env.createUser(t, "carol")

	withBob, err := convSvc.ResolveOrCreateDirect(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	withCarol, err := convSvc.ResolveOrCreateDirect(ctx, alice.ID, carol.ID)
	require.NoError(t, err)

	// Activity in the bob conversation makes it the most recent.
	sent, err := msgSvc.Send(ctx, service.SendInput{
		Target: domain.ConversationTarget(withBob.ID), AuthorID: bob.ID,
		Content: "ping", Type: domain.TypeText,
	})
	require.NoError(t, err)

	items, pagination, err := querySvc.ListConversations(ctx, alice.ID, 1, 10)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, 2, pagination.TotalItems)

	assert.Equal(t, withBob.ID, items[0].Conversation.ID)
	require.NotNil(t, items[0].LastMessage)
	assert.Equal(t, sent.ID, items[0].LastMessage.ID)
	assert.Equal(t, 1, items[0].UnreadCount)

	// The empty conversation is included with no snapshot and zero unread.
	assert.Equal(t, withCarol.ID, items[1].Conversation.ID)
	assert.Nil(t, items[1].LastMessage)
	assert.Zero(t, items[1].UnreadCount)

	t.Run("RejectsBadPaging", func(t *testing.T) {
		_, _, err := querySvc.ListConversations(ctx, alice.ID, 0, 10)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
}
