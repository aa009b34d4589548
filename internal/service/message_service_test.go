package service_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"streamchat/internal/domain"
	"streamchat/internal/service"
)

type MockMessageRepo struct {
	mock.Mock
}

func (m *MockMessageRepo) Create(ctx context.Context, msg *domain.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MockMessageRepo) GetByID(ctx context.Context, id int64) (*domain.Message, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Message), args.Error(1)
}

func (m *MockMessageRepo) Update(ctx context.Context, msg *domain.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MockMessageRepo) SoftDelete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockMessageRepo) ListByTarget(ctx context.Context, t domain.Target, f domain.MessageFilter, sort domain.MessageSort, offset, limit int) ([]*domain.Message, error) {
	return nil, nil // not used by MessageService
}

func (m *MockMessageRepo) CountByTarget(ctx context.Context, t domain.Target, f domain.MessageFilter) (int, error) {
	return 0, nil
}

func (m *MockMessageRepo) CountUnread(ctx context.Context, conversationID, userID int64, after *int64) (int, error) {
	return 0, nil
}

func (m *MockMessageRepo) BelongsToConversation(ctx context.Context, conversationID, messageID int64) (bool, error) {
	return false, nil
}

type MockParticipantRepo struct {
	mock.Mock
}

func (m *MockParticipantRepo) Get(ctx context.Context, conversationID, userID int64) (*domain.Participant, error) {
	args := m.Called(ctx, conversationID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Participant), args.Error(1)
}

func (m *MockParticipantRepo) IsParticipant(ctx context.Context, conversationID, userID int64) (bool, error) {
	args := m.Called(ctx, conversationID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockParticipantRepo) AdvanceReadCursor(ctx context.Context, conversationID, userID, messageID int64) error {
	args := m.Called(ctx, conversationID, userID, messageID)
	return args.Error(0)
}

func TestSendValidation(t *testing.T) {
	msgs := new(MockMessageRepo)
	parts := new(MockParticipantRepo)
	svc := service.NewMessageService(msgs, parts)
	ctx := context.Background()

	t.Run("EmptyContent", func(t *testing.T) {
		_, err := svc.Send(ctx, service.SendInput{
			Target:   domain.StreamTarget("general"),
			AuthorID: 1,
			Content:  "",
			Type:     domain.TypeText,
		})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("ContentTooLong", func(t *testing.T) {
		_, err := svc.Send(ctx, service.SendInput{
			Target:   domain.StreamTarget("general"),
			AuthorID: 1,
			Content:  strings.Repeat("a", domain.MaxContentLength+1),
			Type:     domain.TypeText,
		})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("ContentAtLimit", func(t *testing.T) {
		msgs.On("Create", mock.Anything, mock.Anything).Return(nil).Once()
		_, err := svc.Send(ctx, service.SendInput{
			Target:   domain.StreamTarget("general"),
			AuthorID: 1,
			Content:  strings.Repeat("a", domain.MaxContentLength),
			Type:     domain.TypeText,
		})
		assert.NoError(t, err)
	})

	t.Run("UnknownType", func(t *testing.T) {
		_, err := svc.Send(ctx, service.SendInput{
			Target:   domain.StreamTarget("general"),
			AuthorID: 1,
			Content:  "hi",
			Type:     domain.MessageType("carrier-pigeon"),
		})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("NonParticipant", func(t *testing.T) {
		parts.On("IsParticipant", mock.Anything, int64(7), int64(1)).Return(false, nil).Once()
		_, err := svc.Send(ctx, service.SendInput{
			Target:   domain.ConversationTarget(7),
			AuthorID: 1,
			Content:  "hi",
			Type:     domain.TypeText,
		})
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})
}

func TestEditMessage(t *testing.T) {
	ctx := context.Background()

	t.Run("ForeignAuthor", func(t *testing.T) {
		msgs := new(MockMessageRepo)
		svc := service.NewMessageService(msgs, new(MockParticipantRepo))
		msgs.On("GetByID", mock.Anything, int64(10)).Return(&domain.Message{ID: 10, AuthorID: 1}, nil)

		_, err := svc.Edit(ctx, 10, 2, "new content")
		assert.ErrorIs(t, err, domain.ErrForbidden)
		msgs.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("DeletedIsTerminal", func(t *testing.T) {
		msgs := new(MockMessageRepo)
		svc := service.NewMessageService(msgs, new(MockParticipantRepo))
		msgs.On("GetByID", mock.Anything, int64(10)).Return(&domain.Message{ID: 10, AuthorID: 1, IsDeleted: true}, nil)

		msg, err := svc.Edit(ctx, 10, 1, "new content")
		assert.ErrorIs(t, err, domain.ErrConflict)
		require.NotNil(t, msg)
		assert.True(t, msg.IsDeleted)
		msgs.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("NotFound", func(t *testing.T) {
		msgs := new(MockMessageRepo)
		svc := service.NewMessageService(msgs, new(MockParticipantRepo))
		msgs.On("GetByID", mock.Anything, int64(10)).Return(nil, nil)

		_, err := svc.Edit(ctx, 10, 1, "new content")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("Success", func(t *testing.T) {
		msgs := new(MockMessageRepo)
		svc := service.NewMessageService(msgs, new(MockParticipantRepo))
		msgs.On("GetByID", mock.Anything, int64(10)).Return(&domain.Message{ID: 10, AuthorID: 1, Content: "old"}, nil)
		msgs.On("Update", mock.Anything, mock.MatchedBy(func(m *domain.Message) bool {
			return m.Content == "new content" && m.IsEdited && m.EditedAt != nil
		})).Return(nil)

		msg, err := svc.Edit(ctx, 10, 1, "new content")
		require.NoError(t, err)
		assert.True(t, msg.IsEdited)
		msgs.AssertExpectations(t)
	})
}

func TestDeleteMessage(t *testing.T) {
	ctx := context.Background()

	t.Run("ForeignAuthor", func(t *testing.T) {
		msgs := new(MockMessageRepo)
		svc := service.NewMessageService(msgs, new(MockParticipantRepo))
		msgs.On("GetByID", mock.Anything, int64(10)).Return(&domain.Message{ID: 10, AuthorID: 1}, nil)

		err := svc.Delete(ctx, 10, 2, false)
		assert.ErrorIs(t, err, domain.ErrForbidden)
		msgs.AssertNotCalled(t, "SoftDelete", mock.Anything, mock.Anything)
	})

	t.Run("ModeratorCapability", func(t *testing.T) {
		msgs := new(MockMessageRepo)
		svc := service.NewMessageService(msgs, new(MockParticipantRepo))
		msgs.On("GetByID", mock.Anything, int64(10)).Return(&domain.Message{ID: 10, AuthorID: 1}, nil)
		msgs.On("SoftDelete", mock.Anything, int64(10)).Return(nil)

		err := svc.Delete(ctx, 10, 2, true)
		assert.NoError(t, err)
		msgs.AssertExpectations(t)
	})

	t.Run("RepeatedDeleteIsNoop", func(t *testing.T) {
		msgs := new(MockMessageRepo)
		svc := service.NewMessageService(msgs, new(MockParticipantRepo))
		msgs.On("GetByID", mock.Anything, int64(10)).Return(&domain.Message{ID: 10, AuthorID: 1, IsDeleted: true}, nil)

		err := svc.Delete(ctx, 10, 1, false)
		assert.NoError(t, err)
		msgs.AssertNotCalled(t, "SoftDelete", mock.Anything, mock.Anything)
	})
}

// Against the real store: appending to a conversation must advance the
// last-message pointer together with the insert.
func TestSendAdvancesLastMessagePointer(t *testing.T) {
	env := newTestEnv(t)
	convSvc := service.NewConversationService(env.users, env.conversations)
	msgSvc := service.NewMessageService(env.messages, env.participants)
	ctx := context.Background()

	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")

	conv, err := convSvc.ResolveOrCreateDirect(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	m1, err := msgSvc.Send(ctx, service.SendInput{
		Target: domain.ConversationTarget(conv.ID), AuthorID: alice.ID,
		Content: "first", Type: domain.TypeText,
	})
	require.NoError(t, err)

	got, err := env.conversations.GetByID(ctx, conv.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastMessageID)
	assert.Equal(t, m1.ID, *got.LastMessageID)

	m2, err := msgSvc.Send(ctx, service.SendInput{
		Target: domain.ConversationTarget(conv.ID), AuthorID: bob.ID,
		Content: "second", Type: domain.TypeText,
	})
	require.NoError(t, err)
	assert.Greater(t, m2.ID, m1.ID)

	got, err = env.conversations.GetByID(ctx, conv.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastMessageID)
	assert.Equal(t, m2.ID, *got.LastMessageID)
}
