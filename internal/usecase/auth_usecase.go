package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"wellness-appointments/internal/converter"
	"wellness-appointments/internal/delivery/dto"
	"wellness-appointments/internal/domain/entity"
	"wellness-appointments/internal/domain/repository"
	"wellness-appointments/pkg/jwt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
)

// TokenStore tracks issued access tokens for revocation
type TokenStore interface {
	Save(ctx context.Context, userID uuid.UUID, tokenID string, ttl time.Duration) error
	Exists(ctx context.Context, userID uuid.UUID, tokenID string) (bool, error)
	Revoke(ctx context.Context, userID uuid.UUID, tokenID string) error
}

type AuthUsecase interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.UserResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error)
	Logout(ctx context.Context, session *entity.Session) error
	GetCurrentUser(ctx context.Context, userID uuid.UUID) (*dto.UserResponse, error)
}

type authUsecase struct {
	log        *logrus.Logger
	userRepo   repository.UserRepository
	jwtService *jwt.JWTService
	tokens     TokenStore
	audit      AuditRecorder
}

func NewAuthUsecase(
	log *logrus.Logger,
	userRepo repository.UserRepository,
	jwtService *jwt.JWTService,
	tokens TokenStore,
	audit AuditRecorder,
) AuthUsecase {
	return &authUsecase{
		log:        log,
		userRepo:   userRepo,
		jwtService: jwtService,
		tokens:     tokens,
		audit:      audit,
	}
}

// Register creates an employee account
func (u *authUsecase) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.UserResponse, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		u.log.Warnf("Failed to hash password: %+v", err)
		return nil, err
	}

	user := &entity.User{
		Email:      strings.ToLower(strings.TrimSpace(req.Email)),
		Password:   string(hashedPassword),
		FullName:   strings.TrimSpace(req.FullName),
		Department: strings.TrimSpace(req.Department),
		RoleID:     entity.RoleIDEmployee,
		IsActive:   true,
	}

	if err := u.userRepo.Create(ctx, user); err != nil {
		if isDuplicateKeyError(err, "email") {
			return nil, ErrEmailAlreadyExists
		}
		u.log.Warnf("Failed to create user: %+v", err)
		return nil, err
	}

	u.recordAudit(ctx, user.ID, entity.AuditActionUserRegister, user.Email)
	return converter.UserToResponse(user), nil
}

func (u *authUsecase) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	user, err := u.userRepo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		u.log.Warnf("Failed to find user by email: %+v", err)
		return nil, err
	}
	if user == nil || !user.IsActive {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	accessToken, tokenID, err := u.jwtService.GenerateAccessToken(user.ID, user.Email, user.RoleID)
	if err != nil {
		u.log.Warnf("Failed to generate access token: %+v", err)
		return nil, err
	}

	if err := u.tokens.Save(ctx, user.ID, tokenID, u.jwtService.GetAccessExpiry()); err != nil {
		u.log.Warnf("Failed to store access token: %+v", err)
		return nil, err
	}

	u.recordAudit(ctx, user.ID, entity.AuditActionUserLogin, user.Email)
	return &dto.TokenResponse{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int64(u.jwtService.GetAccessExpiry().Seconds()),
	}, nil
}

// Logout revokes the access token of the session
func (u *authUsecase) Logout(ctx context.Context, session *entity.Session) error {
	if !session.Valid() {
		return ErrSessionRequired
	}

	if err := u.tokens.Revoke(ctx, session.UserID, session.TokenID); err != nil {
		u.log.Warnf("Failed to revoke access token: %+v", err)
		return err
	}

	u.recordAudit(ctx, session.UserID, entity.AuditActionUserLogout, session.Email)
	return nil
}

func (u *authUsecase) GetCurrentUser(ctx context.Context, userID uuid.UUID) (*dto.UserResponse, error) {
	user, err := u.userRepo.FindByID(ctx, userID)
	if err != nil {
		u.log.Warnf("Failed to find user by ID: %+v", err)
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	return converter.UserToResponse(user), nil
}

func (u *authUsecase) recordAudit(ctx context.Context, userID uuid.UUID, action, email string) {
	if u.audit == nil {
		return
	}
	entry := entity.AuditEntry{
		UserID:   &userID,
		Action:   action,
		Entity:   "user",
		EntityID: userID.String(),
		NewValue: map[string]string{"email": email},
	}
	if err := u.audit.Record(ctx, entry); err != nil {
		u.log.Warnf("Failed to record %s: %+v", action, err)
	}
}

// isDuplicateKeyError checks if the error is a PostgreSQL unique constraint violation
// containing the specified constraint name
func isDuplicateKeyError(err error, constraintName string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// PostgreSQL error code 23505 = unique_violation
		if pgErr.Code == "23505" && strings.Contains(strings.ToLower(pgErr.ConstraintName), strings.ToLower(constraintName)) {
			return true
		}
	}
	return false
}
