package service

import (
	"context"
	"fmt"
	"time"

	"streamchat/internal/domain"
)

// MessageService owns the mutation paths of the message ledger: append, edit
// and soft delete.
type MessageService struct {
	messages     domain.MessageRepository
	participants domain.ParticipantRepository
}

func NewMessageService(
	messages domain.MessageRepository,
	participants domain.ParticipantRepository,
) *MessageService {
	return &MessageService{
		messages:     messages,
		participants: participants,
	}
}

type SendInput struct {
	Target      domain.Target
	AuthorID    int64
	Content     string
	Type        domain.MessageType
	Metadata    map[string]any
	Attachments map[string]any
}

func validateContent(content string) error {
	n := len([]rune(content))
	if n == 0 {
		return fmt.Errorf("%w: content must not be empty", domain.ErrValidation)
	}
	if n > domain.MaxContentLength {
		return fmt.Errorf("%w: content exceeds %d characters", domain.ErrValidation, domain.MaxContentLength)
	}
	return nil
}

// Send appends a message to a stream or a conversation. For conversation
// targets the author must be a participant, and the conversation's
// last-message pointer advances atomically with the insert.
func (s *MessageService) Send(ctx context.Context, in SendInput) (*domain.Message, error) {
	if err := validateContent(in.Content); err != nil {
		return nil, err
	}
	if !in.Type.IsValid() {
		return nil, fmt.Errorf("%w: unknown message type %q", domain.ErrValidation, in.Type)
	}

	msg := &domain.Message{
		AuthorID:    in.AuthorID,
		Content:     in.Content,
		Type:        in.Type,
		Metadata:    in.Metadata,
		Attachments: in.Attachments,
	}
	if in.Target.IsStream() {
		streamID := in.Target.StreamID()
		if streamID == "" {
			return nil, fmt.Errorf("%w: stream id must not be empty", domain.ErrValidation)
		}
		msg.StreamID = &streamID
	} else {
		convID := in.Target.ConversationID()
		isParticipant, err := s.participants.IsParticipant(ctx, convID, in.AuthorID)
		if err != nil {
			return nil, fmt.Errorf("check participant: %w", err)
		}
		if !isParticipant {
			return nil, fmt.Errorf("not a participant of conversation %d: %w", convID, domain.ErrForbidden)
		}
		msg.ConversationID = &convID
	}

	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}
	return msg, nil
}

// Edit replaces the content of the requester's own message. Deleted messages
// are terminal: the edit is refused with ErrConflict and the stored state is
// returned untouched.
func (s *MessageService) Edit(ctx context.Context, messageID, requesterID int64, newContent string) (*domain.Message, error) {
	if err := validateContent(newContent); err != nil {
		return nil, err
	}

	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return nil, fmt.Errorf("get message: %w", err)
	}
	if msg == nil {
		return nil, fmt.Errorf("message %d: %w", messageID, domain.ErrNotFound)
	}
	if msg.AuthorID != requesterID {
		return nil, fmt.Errorf("message %d belongs to another author: %w", messageID, domain.ErrForbidden)
	}
	if msg.IsDeleted {
		return msg, fmt.Errorf("message %d is deleted: %w", messageID, domain.ErrConflict)
	}

	now := time.Now().UTC()
	msg.Content = newContent
	msg.IsEdited = true
	msg.EditedAt = &now
	msg.UpdatedAt = now
	if err := s.messages.Update(ctx, msg); err != nil {
		return nil, fmt.Errorf("update message: %w", err)
	}
	return msg, nil
}

// Delete soft-deletes a message. Only the author may delete, unless the
// caller layer grants a moderator capability. Deleting an already deleted
// message is a no-op.
func (s *MessageService) Delete(ctx context.Context, messageID, requesterID int64, moderator bool) error {
	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return fmt.Errorf("get message: %w", err)
	}
	if msg == nil {
		return fmt.Errorf("message %d: %w", messageID, domain.ErrNotFound)
	}
	if msg.AuthorID != requesterID && !moderator {
		return fmt.Errorf("message %d belongs to another author: %w", messageID, domain.ErrForbidden)
	}
	if msg.IsDeleted {
		return nil
	}

	if err := s.messages.SoftDelete(ctx, messageID); err != nil {
		return fmt.Errorf("soft delete message: %w", err)
	}
	return nil
}
