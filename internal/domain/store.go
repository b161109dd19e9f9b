package domain

import (
	"context"

	"github.com/dmehra2102/prod-golang-projects/medflow-scheduling/internal/domain/appointment"
	"github.com/dmehra2102/prod-golang-projects/medflow-scheduling/internal/domain/doctor"
)

// Stores groups the repositories bound to one unit of work.
type Stores struct {
	Appointments appointment.Repository
	Doctors      doctor.Repository
}

// Transactor runs fn inside a single database transaction. A non-nil error
// from fn rolls back every write made through the supplied stores.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, stores Stores) error) error
}
