package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dmehra2102/prod-golang-projects/medflow-scheduling/internal/domain/doctor"
)

type DoctorRepository struct {
	db *gorm.DB
}

func NewDoctorRepository(db *gorm.DB) *DoctorRepository {
	return &DoctorRepository{db: db}
}

func (r *DoctorRepository) GetByID(ctx context.Context, id uuid.UUID) (*doctor.Doctor, error) {
	return r.get(r.db.WithContext(ctx), id)
}

// GetByIDForUpdate takes a row lock, so two bookings for the same doctor
// run their conflict checks one after the other.
func (r *DoctorRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*doctor.Doctor, error) {
	return r.get(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *DoctorRepository) get(db *gorm.DB, id uuid.UUID) (*doctor.Doctor, error) {
	var d doctor.Doctor
	err := db.Where("id = ? AND deleted_at IS NULL", id).First(&d).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, doctor.ErrDoctorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying doctor %s: %w", id, err)
	}
	if d.WorkingHours == nil {
		d.WorkingHours = doctor.DefaultWorkingHours()
	}
	return &d, nil
}
