package postgres

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
// conversation's last-message pointer in the same transaction, guarded by an
// id comparison.
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
	var id int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO messages (author_id, stream_id, conversation_id, content, type, metadata, attachments, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`, m.AuthorID, m.StreamID, m.ConversationID, m.Content, m.Type, meta, atts, now, now).Scan(&id)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}

	if m.ConversationID != nil {
		if _, err := tx.ExecContext(ctx, `
			UPDATE conversations
			SET last_message_id = $1, updated_at = $2
			WHERE id = $3 AND (last_message_id IS NULL OR last_message_id < $1)
		`, id, now, *m.ConversationID); err != nil {
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

const messageColumns = `id, author_id, stream_id, conversation_id, content, type, metadata::text, attachments::text,
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
		SELECT `+messageColumns+` FROM messages WHERE id = $1
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

func (r *MessageRepo) Update(ctx context.Context, m *domain.Message) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE messages
		SET content = $1, is_edited = $2, edited_at = $3, updated_at = $4
		WHERE id = $5
	`, m.Content, m.IsEdited, m.EditedAt, m.UpdatedAt, m.ID)
	if err != nil {
		return fmt.Errorf("update message: %w", err)
	}
	return nil
}

func (r *MessageRepo) SoftDelete(ctx context.Context, id int64) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
		UPDATE messages
		SET is_deleted = TRUE, deleted_at = $1, updated_at = $2
		WHERE id = $3 AND is_deleted = FALSE
	`, now, now, id)
	if err != nil {
		return fmt.Errorf("soft delete message: %w", err)
	}
	return nil
}

func targetClause(t domain.Target, argPos int) (string, any) {
	if t.IsStream() {
		return fmt.Sprintf("stream_id = $%d", argPos), t.StreamID()
	}
	return fmt.Sprintf("conversation_id = $%d", argPos), t.ConversationID()
}

func filterClause(f domain.MessageFilter, argPos int) (string, []any) {
	clause := ""
	var args []any
	if !f.IncludeDeleted {
		clause += " AND is_deleted = FALSE"
	}
	if f.Type != nil {
		clause += fmt.Sprintf(" AND type = $%d", argPos)
		args = append(args, *f.Type)
	}
	return clause, args
}

func (r *MessageRepo) ListByTarget(ctx context.Context, t domain.Target, f domain.MessageFilter, sort domain.MessageSort, offset, limit int) ([]*domain.Message, error) {
	where, targetArg := targetClause(t, 1)
	filter, filterArgs := filterClause(f, 2)

	order := "DESC"
	if sort == domain.SortOldest {
		order = "ASC"
	}

	args := append([]any{targetArg}, filterArgs...)
	query := fmt.Sprintf(`SELECT %s FROM messages WHERE %s%s ORDER BY id %s LIMIT $%d OFFSET $%d`,
		messageColumns, where, filter, order, len(args)+1, len(args)+2)
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
	where, targetArg := targetClause(t, 1)
	filter, filterArgs := filterClause(f, 2)

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
		WHERE conversation_id = $1 AND author_id <> $2 AND is_deleted = FALSE
	`
	args := []any{conversationID, userID}
	if after != nil {
		query += " AND id > $3"
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
		SELECT 1 FROM messages WHERE id = $1 AND conversation_id = $2
	`, messageID, conversationID).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("message in conversation: %w", err)
	}
	return true, nil
}
