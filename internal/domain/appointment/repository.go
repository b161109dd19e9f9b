package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)

	// GetByIDForUpdate locks the row for the rest of the enclosing transaction.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*Appointment, error)

	// Save writes every mutable column of a.
	Save(ctx context.Context, a *Appointment) error

	List(ctx context.Context, q *ListAppointmentsQuery) (*PagedAppointments, error)

	// FindOverlapping returns the doctor's active appointments whose interval
	// overlaps [start, end), ordered by start. excludeID skips one appointment.
	FindOverlapping(ctx context.Context, doctorID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) ([]*Appointment, error)

	// DoctorStats computes the dashboard counters; today is [dayStart, dayEnd).
	DoctorStats(ctx context.Context, doctorID uuid.UUID, dayStart, dayEnd, now time.Time) (*DoctorStats, error)
}
