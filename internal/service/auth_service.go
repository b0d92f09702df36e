package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"dspgateway/internal/auth"
	"dspgateway/internal/model"
	"dspgateway/internal/repository"
)

var (
	// ErrInvalidCredentials is returned when email or password is incorrect.
	// Login never distinguishes an unknown email from a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserAlreadyExists is returned when signing up an already registered email.
	ErrUserAlreadyExists = errors.New("user already exists")
)

// AuthService handles signup and login orchestration.
type AuthService interface {
	Signup(ctx context.Context, email, password string) (token string, err error)
	Login(ctx context.Context, email, password string) (token string, err error)
}

type authService struct {
	users  repository.UserRepository
	hasher auth.PasswordHasher
	tokens *auth.JWTService
}

// NewAuthService creates a new authentication service.
func NewAuthService(users repository.UserRepository, hasher auth.PasswordHasher, tokens *auth.JWTService) AuthService {
	return &authService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
	}
}

// Signup creates a new user with a hashed password and returns an access
// token for it.
func (s *authService) Signup(ctx context.Context, email, password string) (string, error) {
	existing, err := s.users.FindByEmail(ctx, email)
	if err == nil && existing != nil {
		return "", ErrUserAlreadyExists
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("check user existence: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return "", err
	}

	user := &model.User{
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		// The unique email index backstops the lookup-then-create race: a
		// concurrent signup that lost the race lands here.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return "", ErrUserAlreadyExists
		}
		return "", fmt.Errorf("create user: %w", err)
	}

	token, err := s.tokens.Issue(email, nil)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return token, nil
}

// Login authenticates a user and returns an access token.
func (s *authService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return "", ErrInvalidCredentials
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.Email, nil)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return token, nil
}
