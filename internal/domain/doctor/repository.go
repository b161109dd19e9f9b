package doctor

import (
	"context"

	"github.com/google/uuid"
)

// Repository is read-only: doctor profiles and working hours are maintained
// outside the scheduling engine.
type Repository interface {
	// GetByID returns ErrDoctorNotFound when the id does not resolve.
	GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error)

	// GetByIDForUpdate locks the doctor row for the rest of the enclosing
	// transaction so bookings for the same doctor serialize.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*Doctor, error)
}
