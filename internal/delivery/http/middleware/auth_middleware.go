package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"wellness-appointments/internal/domain/entity"
	"wellness-appointments/pkg/jwt"
	"wellness-appointments/pkg/response"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type contextKey string

const SessionKey contextKey = "session"

// TokenChecker reports whether an issued access token is still valid
type TokenChecker interface {
	Exists(ctx context.Context, userID uuid.UUID, tokenID string) (bool, error)
}

type AuthMiddleware struct {
	jwtService *jwt.JWTService
	tokens     TokenChecker
	log        *logrus.Logger
}

func NewAuthMiddleware(jwtService *jwt.JWTService, tokens TokenChecker, log *logrus.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtService,
		tokens:     tokens,
		log:        log,
	}
}

func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			response.Unauthorized(w, "Authorization header is required")
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(w, "Invalid authorization header format")
			return
		}

		claims, err := m.jwtService.ValidateToken(parts[1])
		if err != nil {
			response.Unauthorized(w, "Invalid or expired token")
			return
		}

		if claims.TokenType != jwt.AccessToken {
			response.Unauthorized(w, "Invalid token type")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		exists, err := m.tokens.Exists(ctx, claims.UserID, claims.TokenID)
		cancel()
		if err != nil {
			m.log.Warnf("Failed to validate token: %+v", err)
			response.InternalServerError(w, "Failed to validate token")
			return
		}
		if !exists {
			response.Unauthorized(w, "Token has been revoked")
			return
		}

		session := entity.Session{
			UserID:  claims.UserID,
			Email:   claims.Email,
			RoleID:  claims.RoleID,
			TokenID: claims.TokenID,
		}

		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
	})
}

// WithSession returns a copy of ctx carrying session
func WithSession(ctx context.Context, session entity.Session) context.Context {
	return context.WithValue(ctx, SessionKey, session)
}

// GetSessionFromContext extracts the authenticated session from context
func GetSessionFromContext(ctx context.Context) (*entity.Session, bool) {
	session, ok := ctx.Value(SessionKey).(entity.Session)
	if !ok {
		return nil, false
	}
	return &session, true
}

// GetUserIDFromContext extracts user ID from context
func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	session, ok := GetSessionFromContext(ctx)
	if !ok {
		return uuid.Nil, false
	}
	return session.UserID, true
}
