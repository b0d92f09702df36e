package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"dspgateway/internal/auth"
	"dspgateway/internal/model"
)

// MockUserRepository is a mock implementation of repository.UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func newTestJWTService(t *testing.T) *auth.JWTService {
	t.Helper()
	svc, err := auth.NewJWTService("test-secret", "HS256", time.Hour)
	assert.NoError(t, err)
	return svc
}

func TestAuthService_Signup(t *testing.T) {
	tests := []struct {
		name          string
		email         string
		password      string
		setupMock     func(*MockUserRepository)
		expectedError error
	}{
		{
			name:     "successful signup",
			email:    "test@example.com",
			password: "secret1",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "test@example.com").Return(nil, gorm.ErrRecordNotFound)
				m.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil)
			},
			expectedError: nil,
		},
		{
			name:     "user already exists",
			email:    "existing@example.com",
			password: "secret1",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "existing@example.com").Return(&model.User{Email: "existing@example.com"}, nil)
			},
			expectedError: ErrUserAlreadyExists,
		},
		{
			name:     "lost signup race surfaces as already exists",
			email:    "racer@example.com",
			password: "secret1",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "racer@example.com").Return(nil, gorm.ErrRecordNotFound)
				m.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(gorm.ErrDuplicatedKey)
			},
			expectedError: ErrUserAlreadyExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockUserRepository)
			tt.setupMock(mockRepo)

			jwtService := newTestJWTService(t)
			svc := NewAuthService(mockRepo, auth.NewBcryptHasher(), jwtService)

			token, err := svc.Signup(context.Background(), tt.email, tt.password)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Empty(t, token)
			} else {
				assert.NoError(t, err)
				assert.NotEmpty(t, token)

				claims, err := jwtService.Validate(token)
				assert.NoError(t, err)
				assert.Equal(t, tt.email, claims["sub"])
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestAuthService_Signup_StoresHashNotPassword(t *testing.T) {
	mockRepo := new(MockUserRepository)
	mockRepo.On("FindByEmail", mock.Anything, "test@example.com").Return(nil, gorm.ErrRecordNotFound)

	var created *model.User
	mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).
		Run(func(args mock.Arguments) {
			created = args.Get(1).(*model.User)
		}).Return(nil)

	hasher := auth.NewBcryptHasher()
	svc := NewAuthService(mockRepo, hasher, newTestJWTService(t))

	_, err := svc.Signup(context.Background(), "test@example.com", "secret1")
	assert.NoError(t, err)
	assert.NotNil(t, created)
	assert.NotEqual(t, "secret1", created.PasswordHash)
	assert.True(t, hasher.Verify("secret1", created.PasswordHash))
}

func TestAuthService_Login(t *testing.T) {
	hasher := auth.NewBcryptHasher()
	passwordHash, err := hasher.Hash("secret1")
	assert.NoError(t, err)

	tests := []struct {
		name          string
		email         string
		password      string
		setupMock     func(*MockUserRepository)
		expectedError error
	}{
		{
			name:     "successful login",
			email:    "test@example.com",
			password: "secret1",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "test@example.com").Return(&model.User{
					Email:        "test@example.com",
					PasswordHash: passwordHash,
				}, nil)
			},
			expectedError: nil,
		},
		{
			name:     "unknown email",
			email:    "notfound@example.com",
			password: "secret1",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "notfound@example.com").Return(nil, gorm.ErrRecordNotFound)
			},
			expectedError: ErrInvalidCredentials,
		},
		{
			name:     "wrong password",
			email:    "test@example.com",
			password: "wrong-password",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "test@example.com").Return(&model.User{
					Email:        "test@example.com",
					PasswordHash: passwordHash,
				}, nil)
			},
			// Identical to the unknown-email error so callers cannot
			// enumerate registered addresses.
			expectedError: ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockUserRepository)
			tt.setupMock(mockRepo)

			jwtService := newTestJWTService(t)
			svc := NewAuthService(mockRepo, hasher, jwtService)

			token, err := svc.Login(context.Background(), tt.email, tt.password)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Empty(t, token)
			} else {
				assert.NoError(t, err)

				claims, err := jwtService.Validate(token)
				assert.NoError(t, err)
				assert.Equal(t, tt.email, claims["sub"])
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestAuthService_Login_RepeatedLoginsYieldIndependentTokens(t *testing.T) {
	hasher := auth.NewBcryptHasher()
	passwordHash, err := hasher.Hash("secret1")
	assert.NoError(t, err)

	mockRepo := new(MockUserRepository)
	mockRepo.On("FindByEmail", mock.Anything, "test@example.com").Return(&model.User{
		Email:        "test@example.com",
		PasswordHash: passwordHash,
	}, nil)

	jwtService := newTestJWTService(t)
	svc := NewAuthService(mockRepo, hasher, jwtService)

	first, err := svc.Login(context.Background(), "test@example.com", "secret1")
	assert.NoError(t, err)
	second, err := svc.Login(context.Background(), "test@example.com", "secret1")
	assert.NoError(t, err)

	for _, token := range []string{first, second} {
		claims, err := jwtService.Validate(token)
		assert.NoError(t, err)
		assert.Equal(t, "test@example.com", claims["sub"])
	}
}
