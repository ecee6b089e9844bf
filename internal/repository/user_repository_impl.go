package repository

import (
	"context"
	"errors"

	"wellness-appointments/internal/domain/entity"
	domainRepo "wellness-appointments/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) domainRepo.UserRepository {
	return &userRepository{db: db}
}

// Create inserts the user. Unique violations surface as *pgconn.PgError.
func (r *userRepository) Create(ctx context.Context, user *entity.User) error {
	return r.db.WithContext(ctx).Omit("Role").Create(user).Error
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.findOne(ctx, "email = ?", email)
}

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	return r.findOne(ctx, "id = ?", id)
}

// findOne loads a single user with its role so responses carry the role name
func (r *userRepository) findOne(ctx context.Context, query string, arg interface{}) (*entity.User, error) {
	var user entity.User
	err := r.db.WithContext(ctx).Preload("Role").Where(query, arg).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
