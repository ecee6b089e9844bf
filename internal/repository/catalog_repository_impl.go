package repository

import (
	"context"

	"wellness-appointments/internal/domain/entity"
	domainRepo "wellness-appointments/internal/domain/repository"

	"gorm.io/gorm"
)

type catalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) domainRepo.CatalogRepository {
	return &catalogRepository{db: db}
}

func (r *catalogRepository) FindAllAppointmentTypes(ctx context.Context) ([]entity.AppointmentType, error) {
	var types []entity.AppointmentType
	err := r.db.WithContext(ctx).Order("category ASC, name ASC").Find(&types).Error
	if err != nil {
		return nil, err
	}
	return types, nil
}

func (r *catalogRepository) FindAllDoctors(ctx context.Context) ([]entity.Doctor, error) {
	var doctors []entity.Doctor
	err := r.db.WithContext(ctx).Order("specialty ASC, name ASC").Find(&doctors).Error
	if err != nil {
		return nil, err
	}
	return doctors, nil
}

func (r *catalogRepository) CountAppointmentTypes(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.AppointmentType{}).Count(&count).Error
	return count, err
}

func (r *catalogRepository) CreateAppointmentTypes(ctx context.Context, types []entity.AppointmentType) error {
	return r.db.WithContext(ctx).Create(&types).Error
}

func (r *catalogRepository) CreateDoctors(ctx context.Context, doctors []entity.Doctor) error {
	return r.db.WithContext(ctx).Create(&doctors).Error
}
