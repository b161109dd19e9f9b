package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/dmehra2102/prod-golang-projects/medflow-scheduling/internal/domain"
)

// Transactor hands fn repositories bound to a single gorm transaction.
// gorm commits when fn returns nil and rolls back otherwise.
type Transactor struct {
	db *gorm.DB
}

func NewTransactor(db *gorm.DB) *Transactor {
	return &Transactor{db: db}
}

func (t *Transactor) WithinTx(ctx context.Context, fn func(ctx context.Context, stores domain.Stores) error) error {
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, domain.Stores{
			Appointments: NewAppointmentRepository(tx),
			Doctors:      NewDoctorRepository(tx),
		})
	})
}
