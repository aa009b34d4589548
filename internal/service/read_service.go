package service

import (
	"context"
	"fmt"

	"streamchat/internal/domain"
)

// ReadService maintains per-participant read cursors and derives unread
// counts from the message ledger. The count is never stored, so it cannot
// drift from the log.
type ReadService struct {
	conversations domain.ConversationRepository
	participants  domain.ParticipantRepository
	messages      domain.MessageRepository
}

func NewReadService(
	conversations domain.ConversationRepository,
	participants domain.ParticipantRepository,
	messages domain.MessageRepository,
) *ReadService {
	return &ReadService{
		conversations: conversations,
		participants:  participants,
		messages:      messages,
	}
}

// MarkRead advances the user's read cursor and returns the fresh unread
// count. With a nil lastReadMessageID the cursor jumps to the conversation's
// current last message (mark-all-read, count comes back 0). A provided id
// must belong to the conversation. The cursor never moves backward: the
// underlying write is conditional, so a stale call is a safe no-op.
func (s *ReadService) MarkRead(ctx context.Context, conversationID, userID int64, lastReadMessageID *int64) (int, error) {
	p, err := s.participants.Get(ctx, conversationID, userID)
	if err != nil {
		return 0, fmt.Errorf("get participant: %w", err)
	}
	if p == nil {
		return 0, fmt.Errorf("user %d is not a participant of conversation %d: %w", userID, conversationID, domain.ErrNotFound)
	}

	var target int64
	if lastReadMessageID == nil {
		conv, err := s.conversations.GetByID(ctx, conversationID)
		if err != nil {
			return 0, fmt.Errorf("get conversation: %w", err)
		}
		if conv == nil {
			return 0, fmt.Errorf("conversation %d: %w", conversationID, domain.ErrNotFound)
		}
		if conv.LastMessageID == nil {
			// Nothing was ever sent; there is nothing to acknowledge.
			return 0, nil
		}
		target = *conv.LastMessageID
	} else {
		ok, err := s.messages.BelongsToConversation(ctx, conversationID, *lastReadMessageID)
		if err != nil {
			return 0, fmt.Errorf("check message: %w", err)
		}
		if !ok {
			return 0, fmt.Errorf("%w: message %d does not belong to conversation %d", domain.ErrValidation, *lastReadMessageID, conversationID)
		}
		target = *lastReadMessageID
	}

	if err := s.participants.AdvanceReadCursor(ctx, conversationID, userID, target); err != nil {
		return 0, err
	}

	// Re-read: a concurrent mark-read may have advanced the cursor further
	// than ours, and the count must reflect the stored state.
	return s.UnreadCount(ctx, conversationID, userID)
}

// UnreadCount derives the number of messages after the user's read cursor,
// authored by others and not deleted.
func (s *ReadService) UnreadCount(ctx context.Context, conversationID, userID int64) (int, error) {
	p, err := s.participants.Get(ctx, conversationID, userID)
	if err != nil {
		return 0, fmt.Errorf("get participant: %w", err)
	}
	if p == nil {
		return 0, fmt.Errorf("user %d is not a participant of conversation %d: %w", userID, conversationID, domain.ErrNotFound)
	}

	count, err := s.messages.CountUnread(ctx, conversationID, userID, p.LastReadMessageID)
	if err != nil {
		return 0, err
	}
	return count, nil
}
