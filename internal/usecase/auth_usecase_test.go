package usecase

import (
	"context"
	"testing"
	"time"

	"wellness-appointments/config"
	"wellness-appointments/internal/delivery/dto"
	"wellness-appointments/internal/domain/entity"
	"wellness-appointments/pkg/jwt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *entity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

type MockTokenStore struct {
	mock.Mock
}

func (m *MockTokenStore) Save(ctx context.Context, userID uuid.UUID, tokenID string, ttl time.Duration) error {
	args := m.Called(ctx, userID, tokenID, ttl)
	return args.Error(0)
}

func (m *MockTokenStore) Exists(ctx context.Context, userID uuid.UUID, tokenID string) (bool, error) {
	args := m.Called(ctx, userID, tokenID)
	return args.Bool(0), args.Error(1)
}

func (m *MockTokenStore) Revoke(ctx context.Context, userID uuid.UUID, tokenID string) error {
	args := m.Called(ctx, userID, tokenID)
	return args.Error(0)
}

func newTestAuthUsecase(users *MockUserRepository, tokens *MockTokenStore, audit AuditRecorder) (AuthUsecase, *jwt.JWTService) {
	log, _ := logtest.NewNullLogger()
	jwtService := jwt.NewJWTService(config.JWTConfig{Secret: "test-secret", AccessExpiry: 15 * time.Minute})
	return NewAuthUsecase(log, users, jwtService, tokens, audit), jwtService
}

func TestAuthUsecase_Register(t *testing.T) {
	users := new(MockUserRepository)
	users.On("Create", mock.Anything, mock.AnythingOfType("*entity.User")).Return(nil)
	audit := &recordingAudit{}
	uc, _ := newTestAuthUsecase(users, new(MockTokenStore), audit)

	resp, err := uc.Register(context.Background(), &dto.RegisterRequest{
		Email:    "  Jane@Example.com ",
		Password: "supersecret",
		FullName: "Jane Doe",
	})
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", resp.Email)
	assert.Equal(t, entity.RoleEmployee, resp.Role)

	created := users.Calls[0].Arguments.Get(1).(*entity.User)
	assert.NotEqual(t, "supersecret", created.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.Password), []byte("supersecret")))
	assert.Equal(t, []string{entity.AuditActionUserRegister}, audit.actions())
}

func TestAuthUsecase_RegisterDuplicateEmail(t *testing.T) {
	users := new(MockUserRepository)
	users.On("Create", mock.Anything, mock.Anything).
		Return(&pgconn.PgError{Code: "23505", ConstraintName: "idx_users_email"})
	uc, _ := newTestAuthUsecase(users, new(MockTokenStore), nil)

	_, err := uc.Register(context.Background(), &dto.RegisterRequest{Email: "a@example.com", Password: "supersecret", FullName: "A"})
	assert.ErrorIs(t, err, ErrEmailAlreadyExists)
}

func TestAuthUsecase_Login(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("supersecret"), bcrypt.MinCost)
	require.NoError(t, err)
	user := &entity.User{ID: uuid.New(), Email: "jane@example.com", Password: string(hash), RoleID: entity.RoleIDEmployer, IsActive: true}

	users := new(MockUserRepository)
	users.On("FindByEmail", mock.Anything, "jane@example.com").Return(user, nil)
	tokens := new(MockTokenStore)
	tokens.On("Save", mock.Anything, user.ID, mock.AnythingOfType("string"), 15*time.Minute).Return(nil)
	uc, jwtService := newTestAuthUsecase(users, tokens, &recordingAudit{})

	resp, err := uc.Login(context.Background(), &dto.LoginRequest{Email: "jane@example.com", Password: "supersecret"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, int64(900), resp.ExpiresIn)

	claims, err := jwtService.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, entity.RoleIDEmployer, claims.RoleID)
	tokens.AssertCalled(t, "Save", mock.Anything, user.ID, claims.TokenID, 15*time.Minute)
}

func TestAuthUsecase_LoginInvalidCredentials(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("supersecret"), bcrypt.MinCost)
	require.NoError(t, err)

	users := new(MockUserRepository)
	users.On("FindByEmail", mock.Anything, "jane@example.com").
		Return(&entity.User{ID: uuid.New(), Password: string(hash), IsActive: true}, nil)
	users.On("FindByEmail", mock.Anything, "ghost@example.com").Return(nil, nil)
	users.On("FindByEmail", mock.Anything, "off@example.com").
		Return(&entity.User{ID: uuid.New(), Password: string(hash), IsActive: false}, nil)
	uc, _ := newTestAuthUsecase(users, new(MockTokenStore), nil)

	_, err = uc.Login(context.Background(), &dto.LoginRequest{Email: "jane@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = uc.Login(context.Background(), &dto.LoginRequest{Email: "ghost@example.com", Password: "supersecret"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = uc.Login(context.Background(), &dto.LoginRequest{Email: "off@example.com", Password: "supersecret"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthUsecase_Logout(t *testing.T) {
	session := &entity.Session{UserID: uuid.New(), Email: "jane@example.com", TokenID: "tok-1"}
	tokens := new(MockTokenStore)
	tokens.On("Revoke", mock.Anything, session.UserID, "tok-1").Return(nil)
	audit := &recordingAudit{}
	uc, _ := newTestAuthUsecase(new(MockUserRepository), tokens, audit)

	require.NoError(t, uc.Logout(context.Background(), session))
	tokens.AssertExpectations(t)
	assert.Equal(t, []string{entity.AuditActionUserLogout}, audit.actions())

	assert.ErrorIs(t, uc.Logout(context.Background(), nil), ErrSessionRequired)
}

func TestAuthUsecase_GetCurrentUser(t *testing.T) {
	id := uuid.New()
	users := new(MockUserRepository)
	users.On("FindByID", mock.Anything, id).Return(&entity.User{ID: id, Email: "jane@example.com", RoleID: entity.RoleIDEmployee}, nil)
	users.On("FindByID", mock.Anything, mock.Anything).Return(nil, nil)
	uc, _ := newTestAuthUsecase(users, new(MockTokenStore), nil)

	resp, err := uc.GetCurrentUser(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", resp.Email)

	_, err = uc.GetCurrentUser(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrUserNotFound)
}
