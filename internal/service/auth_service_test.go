package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"streamchat/internal/domain"
	"streamchat/internal/security"
	"streamchat/internal/service"
)

type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) Create(ctx context.Context, u *domain.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *MockUserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func newAuthService(users domain.UserRepository) *service.AuthService {
	tokens := security.NewTokenService("secret", time.Hour)
	hasher := security.NewPasswordHasher(4) // low cost for tests
	return service.NewAuthService(users, tokens, hasher)
}

func TestRegister(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		users := new(MockUserRepo)
		users.On("GetByUsername", mock.Anything, "newuser").Return(nil, nil)
		users.On("Create", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
			return u.Username == "newuser" && u.HashedPassword != "Password1!"
		})).Return(nil)

		user, err := newAuthService(users).Register(context.Background(), "newuser", "Password1!")
		require.NoError(t, err)
		assert.Equal(t, "newuser", user.Username)
		users.AssertExpectations(t)
	})

	t.Run("UsernameTaken", func(t *testing.T) {
		users := new(MockUserRepo)
		users.On("GetByUsername", mock.Anything, "existing").Return(&domain.User{Username: "existing"}, nil)

		_, err := newAuthService(users).Register(context.Background(), "existing", "Password1!")
		assert.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("ShortPassword", func(t *testing.T) {
		users := new(MockUserRepo)
		_, err := newAuthService(users).Register(context.Background(), "newuser", "short")
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
}

func TestLogin(t *testing.T) {
	hasher := security.NewPasswordHasher(4)
	hashed, err := hasher.Hash("Password1!")
	require.NoError(t, err)

	t.Run("Success", func(t *testing.T) {
		users := new(MockUserRepo)
		users.On("GetByUsername", mock.Anything, "alice").Return(&domain.User{ID: 1, Username: "alice", HashedPassword: hashed}, nil)

		token, user, err := newAuthService(users).Login(context.Background(), "alice", "Password1!")
		require.NoError(t, err)
		assert.NotEmpty(t, token)
		assert.Equal(t, int64(1), user.ID)
	})

	t.Run("WrongPassword", func(t *testing.T) {
		users := new(MockUserRepo)
		users.On("GetByUsername", mock.Anything, "alice").Return(&domain.User{Username: "alice", HashedPassword: hashed}, nil)

		_, _, err := newAuthService(users).Login(context.Background(), "alice", "nope")
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("UnknownUser", func(t *testing.T) {
		users := new(MockUserRepo)
		users.On("GetByUsername", mock.Anything, "ghost").Return(nil, nil)

		_, _, err := newAuthService(users).Login(context.Background(), "ghost", "Password1!")
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})
}
