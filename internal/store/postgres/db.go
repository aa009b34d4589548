package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Open opens a PostgreSQL database using the pgx stdlib driver.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// Migrate runs idempotent DDL for the streamchat schema on PostgreSQL.
func Migrate(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id               BIGSERIAL PRIMARY KEY,
			username         VARCHAR(50)  UNIQUE NOT NULL,
			hashed_password  VARCHAR(255) NOT NULL,
			created_at       TIMESTAMPTZ  NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS conversations (
			id               BIGSERIAL   PRIMARY KEY,
			kind             TEXT        NOT NULL DEFAULT 'direct',
			direct_key       TEXT,
			last_message_id  BIGINT,
			created_at       TIMESTAMPTZ NOT NULL,
			updated_at       TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS conversation_participants (
			conversation_id       BIGINT      NOT NULL REFERENCES conversations(id),
			user_id               BIGINT      NOT NULL REFERENCES users(id),
			role                  TEXT        NOT NULL DEFAULT 'member',
			joined_at             TIMESTAMPTZ NOT NULL,
			last_read_message_id  BIGINT,
			last_read_at          TIMESTAMPTZ,
			PRIMARY KEY (conversation_id, user_id)
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id               BIGSERIAL   PRIMARY KEY,
			author_id        BIGINT      NOT NULL REFERENCES users(id),
			stream_id        TEXT,
			conversation_id  BIGINT      REFERENCES conversations(id),
			content          TEXT        NOT NULL,
			type             TEXT        NOT NULL,
			metadata         JSONB,
			attachments      JSONB,
			is_edited        BOOLEAN     NOT NULL DEFAULT FALSE,
			edited_at        TIMESTAMPTZ,
			is_deleted       BOOLEAN     NOT NULL DEFAULT FALSE,
			deleted_at       TIMESTAMPTZ,
			created_at       TIMESTAMPTZ NOT NULL,
			updated_at       TIMESTAMPTZ NOT NULL,
			CHECK ((stream_id IS NULL) <> (conversation_id IS NULL))
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_conversations_direct_key
			ON conversations(direct_key) WHERE direct_key IS NOT NULL`,
		`CREATE INDEX IF NOT EXISTS idx_conversations_updated_at ON conversations(updated_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_conv_participants_user ON conversation_participants(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, id)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_stream ON messages(stream_id, id)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	return nil
}

// isUniqueViolation reports whether err is a unique-constraint violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
