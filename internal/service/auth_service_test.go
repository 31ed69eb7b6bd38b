package service

import (
	"context"
	"testing"
	"time"

	"femiforge/media-api/internal/domain"
	"femiforge/media-api/internal/repository"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error) {
	args := m.Called(ctx, user)
	return args.Get(0).(primitive.ObjectID), args.Error(1)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepo) TouchLastLogin(ctx context.Context, id primitive.ObjectID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

const testSecret = "test-secret"

func adminUser(t *testing.T, password string) *domain.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &domain.User{
		ID:           primitive.NewObjectID(),
		Email:        "admin@example.com",
		PasswordHash: string(hash),
		Role:         domain.RoleAdmin,
		CreatedAt:    time.Now().UTC(),
	}
}

func TestLoginSuccessIssuesToken(t *testing.T) {
	repo := new(mockUserRepo)
	svc := NewAuthService(repo, testSecret, time.Hour, zap.NewNop())
	ctx := context.Background()

	user := adminUser(t, "hunter22")
	repo.On("GetByEmail", ctx, user.Email).Return(user, nil)
	repo.On("TouchLastLogin", ctx, user.ID).Return(nil)

	token, got, err := svc.Login(ctx, user.Email, "hunter22")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Empty(t, got.PasswordHash, "hash must never leave the service")

	claims := &jwtClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	})
	require.NoError(t, err)
	assert.True(t, parsed.Valid)
	assert.Equal(t, user.ID.Hex(), claims.UserID)
	assert.Equal(t, domain.RoleAdmin, claims.Role)

	repo.AssertExpectations(t)
}

func TestLoginWrongPassword(t *testing.T) {
	repo := new(mockUserRepo)
	svc := NewAuthService(repo, testSecret, time.Hour, zap.NewNop())
	ctx := context.Background()

	user := adminUser(t, "hunter22")
	repo.On("GetByEmail", ctx, user.Email).Return(user, nil)

	_, _, err := svc.Login(ctx, user.Email, "wrong")
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
	repo.AssertNotCalled(t, "TouchLastLogin", mock.Anything, mock.Anything)
}

func TestLoginUnknownEmail(t *testing.T) {
	repo := new(mockUserRepo)
	svc := NewAuthService(repo, testSecret, time.Hour, zap.NewNop())
	ctx := context.Background()

	repo.On("GetByEmail", ctx, "ghost@example.com").Return(nil, repository.ErrNotFound)

	_, _, err := svc.Login(ctx, "ghost@example.com", "whatever")
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
}

func TestEnsureAdminCreatesAccountOnce(t *testing.T) {
	repo := new(mockUserRepo)
	svc := NewAuthService(repo, testSecret, time.Hour, zap.NewNop())
	ctx := context.Background()

	repo.On("GetByEmail", ctx, "admin@example.com").Return(nil, repository.ErrNotFound).Once()
	repo.On("Create", ctx, mock.MatchedBy(func(u *domain.User) bool {
		return u.Email == "admin@example.com" && u.Role == domain.RoleAdmin && u.PasswordHash != ""
	})).Return(primitive.NewObjectID(), nil).Once()

	require.NoError(t, svc.EnsureAdmin(ctx, "admin@example.com", "bootstrap-pass"))

	// Second run finds the account and does nothing.
	repo.On("GetByEmail", ctx, "admin@example.com").Return(adminUser(t, "bootstrap-pass"), nil).Once()
	require.NoError(t, svc.EnsureAdmin(ctx, "admin@example.com", "bootstrap-pass"))

	repo.AssertExpectations(t)
}

func TestEnsureAdminRequiresCredentials(t *testing.T) {
	repo := new(mockUserRepo)
	svc := NewAuthService(repo, testSecret, time.Hour, zap.NewNop())

	assert.Error(t, svc.EnsureAdmin(context.Background(), "", "pass"))
	assert.Error(t, svc.EnsureAdmin(context.Background(), "admin@example.com", ""))
}
