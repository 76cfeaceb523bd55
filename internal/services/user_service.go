package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"expensetracker/internal/core"
	"expensetracker/internal/storage"
)

// PasswordHasher is satisfied by *auth.PasswordHasher.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Matches(hash, password string) (bool, error)
}

// TokenIssuer is satisfied by *auth.TokenIssuer.
type TokenIssuer interface {
	Issue(u core.User) (string, error)
	TTL() time.Duration
}

// LoginResult is returned by registration and login.
type LoginResult struct {
	AccessToken string
	ExpiresIn   int64 // seconds
}

type UserService struct {
	repo   storage.UserStore
	hasher PasswordHasher
	tokens TokenIssuer
}

func NewUserService(repo storage.UserStore, hasher PasswordHasher, tokens TokenIssuer) *UserService {
	return &UserService{repo: repo, hasher: hasher, tokens: tokens}
}

// Register creates a user with the USER role and logs them in.
func (s *UserService) Register(ctx context.Context, username, password string) (LoginResult, error) {
	username = strings.TrimSpace(username)

	var v core.Validation
	v.Require(username != "", core.MsgUsernameRequired)
	v.Require(password != "", core.MsgPasswordRequired)
	v.Require(len(password) <= core.MaxPasswordBytes, core.MsgPasswordTooLong)
	if err := v.Err(); err != nil {
		return LoginResult{}, err
	}

	_, err := s.repo.GetUserByUsername(ctx, username)
	switch {
	case err == nil:
		return LoginResult{}, core.ErrDuplicateUsername()
	case !errors.Is(err, storage.ErrNotFound):
		return LoginResult{}, fmt.Errorf("lookup user: %w", err)
	}

	ok, err := s.repo.RoleExists(ctx, core.RoleUser)
	if err != nil {
		return LoginResult{}, fmt.Errorf("lookup role: %w", err)
	}
	if !ok {
		return LoginResult{}, core.ErrRoleNotFound()
	}

	u, err := s.create(ctx, username, password, core.RoleUser)
	if err != nil {
		return LoginResult{}, err
	}

	slog.InfoContext(ctx, "User registered", "user_id", u.ID, "username", u.Username)
	return s.issue(u)
}

// Login checks the password of an existing user and issues a token.
func (s *UserService) Login(ctx context.Context, username, password string) (LoginResult, error) {
	u, err := s.repo.GetUserByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, storage.ErrNotFound) {
		return LoginResult{}, core.ErrUserNotFound()
	}
	if err != nil {
		return LoginResult{}, fmt.Errorf("lookup user: %w", err)
	}

	ok, err := s.hasher.Matches(u.PasswordHash, password)
	if err != nil {
		return LoginResult{}, err
	}
	if !ok {
		slog.WarnContext(ctx, "Login with invalid password", "user_id", u.ID)
		return LoginResult{}, core.ErrInvalidPassword()
	}

	return s.issue(u)
}

// ListUsers returns every registered user. Callers must restrict it to
// administrators.
func (s *UserService) ListUsers(ctx context.Context) ([]core.User, error) {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	if users == nil {
		users = []core.User{}
	}
	return users, nil
}

func (s *UserService) create(ctx context.Context, username, password string, roles ...core.RoleName) (core.User, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return core.User{}, err
	}

	u := core.User{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: hash,
		Roles:        roles,
	}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return core.User{}, core.ErrDuplicateUsername()
		}
		return core.User{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (s *UserService) issue(u core.User) (LoginResult, error) {
	token, err := s.tokens.Issue(u)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{AccessToken: token, ExpiresIn: int64(s.tokens.TTL() / time.Second)}, nil
}
