package repository

import (
	"context"

	"wellness-appointments/internal/domain/entity"

	"github.com/google/uuid"
)

// UserRepository stores plan members and employers. Finders return nil, nil when no
// user matches.
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	// FindByEmail expects the normalized (trimmed, lower-case) address
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
}
