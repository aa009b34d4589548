package service_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	"streamchat/internal/domain"
	"streamchat/internal/store/sqlite"
)

// testEnv wires the real sqlite repositories over an in-memory database.
// A single connection keeps SQLite's single-writer model happy under the
// concurrency tests while database/sql serializes access.
type testEnv struct {
	db            *sql.DB
	users         *sqlite.UserRepo
	conversations *sqlite.ConversationRepo
	participants  *sqlite.ParticipantRepo
	messages      *sqlite.MessageRepo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, sqlite.Migrate(db))

	return &testEnv{
		db:            db,
		users:         sqlite.NewUserRepo(db),
		conversations: sqlite.NewConversationRepo(db),
		participants:  sqlite.NewParticipantRepo(db),
		messages:      sqlite.NewMessageRepo(db),
	}
}

func (e *testEnv) createUser(t *testing.T, username string) *domain.User {
	t.Helper()
	u := &domain.User{Username: username, HashedPassword: "x"}
	require.NoError(t, e.users.Create(context.Background(), u))
	return u
}
