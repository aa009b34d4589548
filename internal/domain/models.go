package domain

import (
	"fmt"
	"time"
)

// User represents an entry in the user directory.
type User struct {
	ID             int64     `db:"id" json:"id"`
	Username       string    `db:"username" json:"username"`
	HashedPassword string    `db:"hashed_password" json:"-"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// ConversationKind distinguishes one-to-one threads from group threads.
type ConversationKind string

const (
	KindDirect ConversationKind = "direct"
	KindGroup  ConversationKind = "group"
)

// Conversation represents a chat thread. For direct conversations DirectKey
// holds the canonical key of the participant pair and is unique across the
// table, which is what guarantees a single thread per pair.
type Conversation struct {
	ID            int64            `db:"id" json:"id"`
	Kind          ConversationKind `db:"kind" json:"kind"`
	DirectKey     *string          `db:"direct_key" json:"-"`
	LastMessageID *int64           `db:"last_message_id" json:"last_message_id,omitempty"`
	CreatedAt     time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time        `db:"updated_at" json:"updated_at"`
}

// DirectKeyFor computes the canonical key for an unordered pair of user ids,
// so that (a,b) and (b,a) always map to the same direct conversation.
func DirectKeyFor(a, b int64) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%d:%d", a, b)
}

// ParticipantRole is the role of a user within a conversation.
type ParticipantRole string

const (
	RoleMember ParticipantRole = "member"
	RoleAdmin  ParticipantRole = "admin"
)

// Participant represents the membership of a user in a conversation together
// with their read state. LastReadMessageID is the read cursor: it only ever
// moves forward.
type Participant struct {
	ConversationID    int64           `db:"conversation_id" json:"conversation_id"`
	UserID            int64           `db:"user_id" json:"user_id"`
	Role              ParticipantRole `db:"role" json:"role"`
	JoinedAt          time.Time       `db:"joined_at" json:"joined_at"`
	LastReadMessageID *int64          `db:"last_read_message_id" json:"last_read_message_id,omitempty"`
	LastReadAt        *time.Time      `db:"last_read_at" json:"last_read_at,omitempty"`
}

// MessageType enumerates the supported message content types.
type MessageType string

const (
	TypeText    MessageType = "text"
	TypeEmoji   MessageType = "emoji"
	TypeSticker MessageType = "sticker"
	TypeGIF     MessageType = "gif"
	TypeImage   MessageType = "image"
	TypeVideo   MessageType = "video"
	TypeAudio   MessageType = "audio"
	TypeFile    MessageType = "file"
)

func (t MessageType) IsValid() bool {
	switch t {
	case TypeText, TypeEmoji, TypeSticker, TypeGIF, TypeImage, TypeVideo, TypeAudio, TypeFile:
		return true
	}
	return false
}

// MaxContentLength is the upper bound on message content, in runes.
const MaxContentLength = 1000

// Message is a single chat message, addressed either to a public stream or to
// a conversation. Ids come from a single increasing sequence, so within any
// one target they are strictly increasing in creation order. Deletion is soft
// and terminal.
type Message struct {
	ID             int64          `db:"id" json:"id"`
	AuthorID       int64          `db:"author_id" json:"author_id"`
	StreamID       *string        `db:"stream_id" json:"stream_id,omitempty"`
	ConversationID *int64         `db:"conversation_id" json:"conversation_id,omitempty"`
	Content        string         `db:"content" json:"content"`
	Type           MessageType    `db:"type" json:"type"`
	Metadata       map[string]any `db:"metadata" json:"metadata,omitempty"`
	Attachments    map[string]any `db:"attachments" json:"attachments,omitempty"`
	IsEdited       bool           `db:"is_edited" json:"is_edited"`
	EditedAt       *time.Time     `db:"edited_at" json:"edited_at,omitempty"`
	IsDeleted      bool           `db:"is_deleted" json:"is_deleted"`
	DeletedAt      *time.Time     `db:"deleted_at" json:"deleted_at,omitempty"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`
}

// Target identifies where a message lives: a public stream or a conversation.
// Exactly one of the two is set.
type Target struct {
	streamID       string
	conversationID int64
	isStream       bool
}

func StreamTarget(streamID string) Target {
	return Target{streamID: streamID, isStream: true}
}

func ConversationTarget(conversationID int64) Target {
	return Target{conversationID: conversationID}
}

func (t Target) IsStream() bool { return t.isStream }

// StreamID returns the stream identifier; only meaningful when IsStream.
func (t Target) StreamID() string { return t.streamID }

// ConversationID returns the conversation id; only meaningful when !IsStream.
func (t Target) ConversationID() int64 { return t.conversationID }

func (t Target) String() string {
	if t.isStream {
		return "stream:" + t.streamID
	}
	return fmt.Sprintf("conversation:%d", t.conversationID)
}
