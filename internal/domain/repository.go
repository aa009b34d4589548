package domain

import "context"

// MessageSort is the listing order for messages.
type MessageSort string

const (
	SortNewest MessageSort = "newest"
	SortOldest MessageSort = "oldest"
)

// MessageFilter restricts message listings and counts.
type MessageFilter struct {
	Type           *MessageType
	IncludeDeleted bool
}

// UserRepository defines persistence operations for the user directory.
type UserRepository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
}

// ConversationRepository defines persistence operations for conversations.
//
// CreateDirect inserts the conversation and both member rows in one
// transaction; it returns ErrConflict when another caller already created the
// conversation for the same direct key.
type ConversationRepository interface {
	CreateDirect(ctx context.Context, c *Conversation, userA, userB int64) error
	GetByID(ctx context.Context, id int64) (*Conversation, error)
	GetByDirectKey(ctx context.Context, key string) (*Conversation, error)
	ListForUser(ctx context.Context, userID int64, offset, limit int) ([]*Conversation, error)
	CountForUser(ctx context.Context, userID int64) (int, error)
}

// ParticipantRepository defines operations around conversation membership and
// read state. AdvanceReadCursor is a conditional write: it only moves the
// cursor when messageID is greater than the stored one.
type ParticipantRepository interface {
	Get(ctx context.Context, conversationID, userID int64) (*Participant, error)
	IsParticipant(ctx context.Context, conversationID, userID int64) (bool, error)
	AdvanceReadCursor(ctx context.Context, conversationID, userID, messageID int64) error
}

// MessageRepository defines persistence operations for messages.
//
// Create assigns the message id; for conversation targets it also advances
// the conversation's last-message pointer in the same transaction, guarded by
// an id comparison so a slower concurrent append never overwrites a newer
// pointer.
type MessageRepository interface {
	Create(ctx context.Context, m *Message) error
	GetByID(ctx context.Context, id int64) (*Message, error)
	Update(ctx context.Context, m *Message) error
	SoftDelete(ctx context.Context, id int64) error
	ListByTarget(ctx context.Context, t Target, f MessageFilter, sort MessageSort, offset, limit int) ([]*Message, error)
	CountByTarget(ctx context.Context, t Target, f MessageFilter) (int, error)
	// CountUnread counts non-deleted messages in the conversation authored by
	// someone other than userID with id greater than after (all when nil).
	CountUnread(ctx context.Context, conversationID, userID int64, after *int64) (int, error)
	BelongsToConversation(ctx context.Context, conversationID, messageID int64) (bool, error)
}
