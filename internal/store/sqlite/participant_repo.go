package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"streamchat/internal/domain"
)

type ParticipantRepo struct {
	db *sql.DB
}

func NewParticipantRepo(db *sql.DB) *ParticipantRepo {
	return &ParticipantRepo{db: db}
}

var _ domain.ParticipantRepository = (*ParticipantRepo)(nil)

func (r *ParticipantRepo) Get(ctx context.Context, conversationID, userID int64) (*domain.Participant, error) {
	p := &domain.Participant{}
	err := r.db.QueryRowContext(ctx, `
		SELECT conversation_id, user_id, role, joined_at, last_read_message_id, last_read_at
		FROM conversation_participants
		WHERE conversation_id = ? AND user_id = ?
	`, conversationID, userID).Scan(
		&p.ConversationID,
		&p.UserID,
		&p.Role,
		&p.JoinedAt,
		&p.LastReadMessageID,
		&p.LastReadAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get participant: %w", err)
	}
	return p, nil
}

func (r *ParticipantRepo) IsParticipant(ctx context.Context, conversationID, userID int64) (bool, error) {
	var exists int
	err := r.db.QueryRowContext(ctx, `
		SELECT 1
		FROM conversation_participants
		WHERE conversation_id = ? AND user_id = ?
	`, conversationID, userID).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("is participant: %w", err)
	}
	return true, nil
}

// AdvanceReadCursor moves the read cursor forward to messageID. The update is
// conditional on the stored cursor being smaller, so a stale or out-of-order
// mark-read is a no-op.
func (r *ParticipantRepo) AdvanceReadCursor(ctx context.Context, conversationID, userID, messageID int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE conversation_participants
		SET last_read_message_id = ?, last_read_at = ?
		WHERE conversation_id = ? AND user_id = ?
			AND (last_read_message_id IS NULL OR last_read_message_id < ?)
	`, messageID, time.Now().UTC(), conversationID, userID, messageID)
	if err != nil {
		return fmt.Errorf("advance read cursor: %w", err)
	}
	return nil
}
