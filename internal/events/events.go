// Package events publishes appointment lifecycle events after commit.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dmehra2102/prod-golang-projects/medflow-scheduling/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/medflow-scheduling/internal/domain/appointment"
)

type Type string

const (
	AppointmentCreated     Type = "appointment.created"
	AppointmentUpdated     Type = "appointment.updated"
	AppointmentRescheduled Type = "appointment.rescheduled"
	AppointmentAccepted    Type = "appointment.accepted"
	AppointmentCancelled   Type = "appointment.cancelled"
)

type Event struct {
	ID             uuid.UUID                     `json:"id"`
	Type           Type                          `json:"type"`
	OccurredAt     time.Time                     `json:"occurred_at"`
	ActorRole      domain.Role                   `json:"actor_role"`
	AppointmentID  uuid.UUID                     `json:"appointment_id"`
	PatientID      uuid.UUID                     `json:"patient_id"`
	DoctorID       uuid.UUID                     `json:"doctor_id"`
	Status         appointment.AppointmentStatus `json:"status"`
	ScheduledStart time.Time                     `json:"scheduled_start"`
	ScheduledEnd   time.Time                     `json:"scheduled_end"`
}

// New snapshots a committed appointment into an event.
func New(t Type, a *appointment.Appointment, actor domain.Role, now time.Time) Event {
	return Event{
		ID:             uuid.New(),
		Type:           t,
		OccurredAt:     now.UTC(),
		ActorRole:      actor,
		AppointmentID:  a.ID,
		PatientID:      a.PatientID,
		DoctorID:       a.DoctorID,
		Status:         a.Status,
		ScheduledStart: a.ScheduledStart,
		ScheduledEnd:   a.ScheduledEnd,
	}
}

type Publisher interface {
	Publish(ctx context.Context, evt Event) error
	Close() error
}

// Noop discards events. Used when no brokers are configured.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }
func (Noop) Close() error                         { return nil }
