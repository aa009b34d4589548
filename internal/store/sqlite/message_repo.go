package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"streamchat/internal/domain"
)

type MessageRepo struct {
	db *sql.DB
}

func NewMessageRepo(db *sql.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

var _ domain.MessageRepository = (*MessageRepo)(nil)

func marshalMap(m map[string]any) (*string, error) {
	if len(m) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal json column: %w", err)
	}
	s := string(b)
	return &s, nil
}

func unmarshalMap(s *string) (map[string]any, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(*s), &m); err != nil {
		return nil, fmt.Errorf("unmarshal json column: %w", err)
	}
	return m, nil
}

// Create inserts the message and, for conversation targets, advances the
// conversation's last-message pointer in the same transaction. The pointer
// update is conditional on the new id being greater, so a slower concurrent
// append can never overwrite a newer pointer.
func (r *MessageRepo) Create(ctx context.Context, m *domain.Message) error {
	meta, err := marshalMap(m.Metadata)
	if err != nil {
		return err
	}
	atts, err := marshalMap(m.Attachments)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx, `
		INSERT INTO messages (author_id, stream_id, conversation_id, content, type, metadata, attachments, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, m.AuthorID, m.StreamID, m.ConversationID, m.Content, m.Type, meta, atts, now, now)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}

	if m.ConversationID != nil {
		if _, err := tx.ExecContext(ctx, `
			UPDATE conversations
			SET last_message_id = ?, updated_at = ?
			WHERE id = ? AND (last_message_id IS NULL OR last_message_id < ?)
		`, id, now, *m.ConversationID, id); err != nil {
			return fmt.Errorf("advance last message: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	m.ID = id
	m.CreatedAt = now
	m.UpdatedAt = now
	return nil
}

const messageColumns = `id, author_id, stream_id, conversation_id, content, type, metadata, attachments,
	is_edited, edited_at, is_deleted, deleted_at, created_at, updated_at`

func scanMessage(row interface{ Scan(...any) error }) (*domain.Message, error) {
	m := &domain.Message{}
	var meta, atts *string
	err := row.Scan(
		&m.ID,
		&m.AuthorID,
		&m.StreamID,
		&m.ConversationID,
		&m.Content,
		&m.Type,
		&meta,
		&atts,
		&m.IsEdited,
		&m.EditedAt,
		&m.IsDeleted,
		&m.DeletedAt,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if m.Metadata, err = unmarshalMap(meta); err != nil {
		return nil, err
	}
	if m.Attachments, err = unmarshalMap(atts); err != nil {
		return nil, err
	}
	return m, nil
}

func (r *MessageRepo) GetByID(ctx context.Context, id int64) (*domain.Message, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+messageColumns+` FROM messages WHERE id = ?
	`, id)
	m, err := scanMessage(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get message: %w", err)
	}
	return m, nil
}

// Update persists the mutable message fields after an edit.
func (r *MessageRepo) Update(ctx context.Context, m *domain.Message) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE messages
		SET content = ?, is_edited = ?, edited_at = ?, updated_at = ?
		WHERE id = ?
	`, m.Content, m.IsEdited, m.EditedAt, m.UpdatedAt, m.ID)
	if err != nil {
		return fmt.Errorf("update message: %w", err)
	}
	return nil
}

// SoftDelete marks the message deleted. The transition is terminal; the
// guard on is_deleted keeps the original deleted_at on repeated calls.
func (r *MessageRepo) SoftDelete(ctx context.Context, id int64) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
		UPDATE messages
		SET is_deleted = 1, deleted_at = ?, updated_at = ?
		WHERE id = ? AND is_deleted = 0
	`, now, now, id)
	if err != nil {
		return fmt.Errorf("soft delete message: %w", err)
	}
	return nil
}

func targetClause(t domain.Target) (string, any) {
	if t.IsStream() {
		return "stream_id = ?", t.StreamID()
	}
	return "conversation_id = ?", t.ConversationID()
}

func filterClause(f domain.MessageFilter) (string, []any) {
	clause := ""
	var args []any
	if !f.IncludeDeleted {
		clause += " AND is_deleted = 0"
	}
	if f.Type != nil {
		clause += " AND type = ?"
		args = append(args, *f.Type)
	}
	return clause, args
}

func (r *MessageRepo) ListByTarget(ctx context.Context, t domain.Target, f domain.MessageFilter, sort domain.MessageSort, offset, limit int) ([]*domain.Message, error) {
	where, targetArg := targetClause(t)
	filter, filterArgs := filterClause(f)

	order := "DESC"
	if sort == domain.SortOldest {
		order = "ASC"
	}

	query := `SELECT ` + messageColumns + ` FROM messages WHERE ` + where + filter +
		` ORDER BY id ` + order + ` LIMIT ? OFFSET ?`
	args := append([]any{targetArg}, filterArgs...)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var res []*domain.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		res = append(res, m)
	}
	return res, rows.Err()
}

func (r *MessageRepo) CountByTarget(ctx context.Context, t domain.Target, f domain.MessageFilter) (int, error) {
	where, targetArg := targetClause(t)
	filter, filterArgs := filterClause(f)

	args := append([]any{targetArg}, filterArgs...)
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM messages WHERE `+where+filter, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count messages: %w", err)
	}
	return count, nil
}

func (r *MessageRepo) CountUnread(ctx context.Context, conversationID, userID int64, after *int64) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM messages
		WHERE conversation_id = ? AND author_id <> ? AND is_deleted = 0
	`
	args := []any{conversationID, userID}
	if after != nil {
		query += " AND id > ?"
		args = append(args, *after)
	}

	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return count, nil
}

func (r *MessageRepo) BelongsToConversation(ctx context.Context, conversationID, messageID int64) (bool, error) {
	var exists int
	err := r.db.QueryRowContext(ctx, `
		SELECT 1 FROM messages WHERE id = ? AND conversation_id = ?
	`, messageID, conversationID).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("message in conversation: %w", err)
	}
	return true, nil
}
