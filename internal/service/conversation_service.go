package service

import (
	"context"
	"errors"
	"fmt"

	"streamchat/internal/domain"
)

// ConversationService resolves and creates canonical direct conversations.
type ConversationService struct {
	users         domain.UserRepository
	conversations domain.ConversationRepository
}

func NewConversationService(
	users domain.UserRepository,
	conversations domain.ConversationRepository,
) *ConversationService {
	return &ConversationService{
		users:         users,
		conversations: conversations,
	}
}

// ResolveOrCreateDirect returns the single direct conversation between the
// two users, creating it (with both participant rows) on first contact. The
// operation is commutative and idempotent: any number of concurrent calls
// with the same pair converge on one conversation. A lost creation race is
// resolved by re-reading the winner; ErrConflict never reaches the caller.
func (s *ConversationService) ResolveOrCreateDirect(ctx context.Context, userA, userB int64) (*domain.Conversation, error) {
	if userA == userB {
		return nil, fmt.Errorf("%w: cannot open a direct conversation with yourself", domain.ErrValidation)
	}

	for _, id := range []int64{userA, userB} {
		u, err := s.users.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("get user %d: %w", id, err)
		}
		if u == nil {
			return nil, fmt.Errorf("user %d: %w", id, domain.ErrNotFound)
		}
	}

	key := domain.DirectKeyFor(userA, userB)
	conv, err := s.conversations.GetByDirectKey(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("find direct conversation: %w", err)
	}
	if conv != nil {
		return conv, nil
	}

	conv = &domain.Conversation{Kind: domain.KindDirect, DirectKey: &key}
	err = s.conversations.CreateDirect(ctx, conv, userA, userB)
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, domain.ErrConflict) {
		return nil, fmt.Errorf("create direct conversation: %w", err)
	}

	// A concurrent caller won the creation race; theirs is canonical.
	conv, err = s.conversations.GetByDirectKey(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("re-read direct conversation: %w", err)
	}
	if conv == nil {
		return nil, fmt.Errorf("direct conversation vanished after conflict: %w", domain.ErrNotFound)
	}
	return conv, nil
}
