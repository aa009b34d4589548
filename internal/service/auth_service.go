package service

import (
	"context"
	"fmt"
	"strings"

	"streamchat/internal/domain"
	"streamchat/internal/security"
)

// AuthService backs the authentication collaborator: it manages the user
// directory and issues tokens. The core services only ever see the resolved
// caller id.
type AuthService struct {
	users  domain.UserRepository
	tokens *security.TokenService
	hasher *security.PasswordHasher
}

func NewAuthService(
	users domain.UserRepository,
	tokens *security.TokenService,
	hasher *security.PasswordHasher,
) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
		hasher: hasher,
	}
}

func (s *AuthService) Register(ctx context.Context, username, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || len(username) > 50 {
		return nil, fmt.Errorf("%w: username must be 1-50 characters", domain.ErrValidation)
	}
	if len(password) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", domain.ErrValidation)
	}

	existing, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("username %q: %w", username, domain.ErrConflict)
	}

	hashed, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &domain.User{Username: username, HashedPassword: hashed}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *AuthService) Login(ctx context.Context, username, password string) (string, *domain.User, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return "", nil, fmt.Errorf("get user: %w", err)
	}
	if u == nil {
		return "", nil, fmt.Errorf("unknown user: %w", domain.ErrUnauthorized)
	}
	if err := s.hasher.Verify(password, u.HashedPassword); err != nil {
		return "", nil, fmt.Errorf("bad credentials: %w", domain.ErrUnauthorized)
	}

	token, err := s.tokens.CreateForUser(u.Username)
	if err != nil {
		return "", nil, fmt.Errorf("create token: %w", err)
	}
	return token, u, nil
}
