package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/dmehra2102/prod-golang-projects/medflow-scheduling/internal/apperr"
	"github.com/dmehra2102/prod-golang-projects/medflow-scheduling/internal/config"
	"github.com/dmehra2102/prod-golang-projects/medflow-scheduling/internal/domain/appointment"
	"github.com/dmehra2102/prod-golang-projects/medflow-scheduling/internal/domain/doctor"
	"github.com/dmehra2102/prod-golang-projects/medflow-scheduling/pkg/metrics"
)

const (
	conflictWorkingHours = "working_hours"
	conflictOverlap      = "overlap"
)

// Availability is the conflict detector's verdict for one interval.
type Availability struct {
	Available bool        `json:"available"`
	Reason    string      `json:"reason,omitempty"`
	Conflicts []uuid.UUID `json:"conflicts,omitempty"`

	kind string
}

type Slot struct {
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Available bool      `json:"available"`
}

// detectConflicts checks working-hours containment, then overlap with the
// doctor's active appointments. It runs against whatever repository it is
// given so the lifecycle operations can call it inside their transaction.
func detectConflicts(
	ctx context.Context,
	repo appointment.Repository,
	doc *doctor.Doctor,
	loc *time.Location,
	start, end time.Time,
	excludeID *uuid.UUID,
) (*Availability, error) {
	window, reason := doc.WorkingHours.WindowFor(start.In(loc))
	if reason != "" {
		return &Availability{Reason: reason, kind: conflictWorkingHours}, nil
	}
	if !window.Contains(start.In(loc), end.In(loc)) {
		return &Availability{
			Reason: fmt.Sprintf("requested time outside working hours (%s)", window.Label),
			kind:   conflictWorkingHours,
		}, nil
	}

	existing, err := repo.FindOverlapping(ctx, doc.ID, start, end, excludeID)
	if err != nil {
		return nil, fmt.Errorf("finding overlapping appointments: %w", err)
	}
	if len(existing) > 0 {
		ids := make([]uuid.UUID, len(existing))
		for i, a := range existing {
			ids[i] = a.ID
		}
		return &Availability{Reason: msgSlotConflicts, Conflicts: ids, kind: conflictOverlap}, nil
	}

	return &Availability{Available: true}, nil
}

type AvailabilityService struct {
	doctors      doctor.Repository
	appointments appointment.Repository
	cfg          config.SchedulingConfig
	metrics      *metrics.Collector
	log          *zap.Logger
}

func NewAvailabilityService(
	doctors doctor.Repository,
	appointments appointment.Repository,
	cfg config.SchedulingConfig,
	m *metrics.Collector,
	log *zap.Logger,
) *AvailabilityService {
	return &AvailabilityService{doctors: doctors, appointments: appointments, cfg: cfg, metrics: m, log: log}
}

// CheckAvailability reports whether [start, end) can be booked with the
// doctor. An unavailable interval is a normal result, not an error.
func (s *AvailabilityService) CheckAvailability(
	ctx context.Context,
	doctorID uuid.UUID,
	start, end time.Time,
	excludeID *uuid.UUID,
) (_ *Availability, err error) {
	ctx, span := tracer.Start(ctx, "scheduling.CheckAvailability")
	defer func() { endSpan(span, err) }()
	span.SetAttributes(attribute.String("doctor.id", doctorID.String()))

	if !end.After(start) {
		return nil, apperr.Validation("%s", appointment.ErrInvalidInterval.Error())
	}

	doc, err := s.doctors.GetByID(ctx, doctorID)
	if err != nil {
		return nil, translate("loading doctor", err)
	}

	return detectConflicts(ctx, s.appointments, doc, s.cfg.Location(), start, end, excludeID)
}

// AvailableSlots splits the doctor's working window on date into
// back-to-back slots of durationMinutes and marks each one. Slots that would
// run past the end of the window are dropped. A closed day yields no slots.
func (s *AvailabilityService) AvailableSlots(
	ctx context.Context,
	doctorID uuid.UUID,
	date time.Time,
	durationMinutes int,
) (_ []Slot, err error) {
	ctx, span := tracer.Start(ctx, "scheduling.AvailableSlots")
	defer func() { endSpan(span, err) }()
	span.SetAttributes(
		attribute.String("doctor.id", doctorID.String()),
		attribute.Int("slot.minutes", durationMinutes),
	)

	if durationMinutes < s.cfg.MinSlotMinutes || durationMinutes > s.cfg.MaxSlotMinutes {
		return nil, apperr.Validation("duration must be between %d and %d minutes", s.cfg.MinSlotMinutes, s.cfg.MaxSlotMinutes)
	}

	doc, err := s.doctors.GetByID(ctx, doctorID)
	if err != nil {
		return nil, translate("loading doctor", err)
	}

	s.metrics.AvailabilityQueries.Inc()

	loc := s.cfg.Location()
	y, m, d := date.In(loc).Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, loc)

	window, reason := doc.WorkingHours.WindowFor(day)
	if reason != "" {
		s.metrics.SlotsGenerated.Observe(0)
		return []Slot{}, nil
	}

	// One query for the whole window; each slot is then checked with the
	// same half-open overlap rule the detector uses.
	booked, err := s.appointments.FindOverlapping(ctx, doc.ID, window.Start, window.End, nil)
	if err != nil {
		return nil, fmt.Errorf("loading booked appointments: %w", err)
	}

	step := time.Duration(durationMinutes) * time.Minute
	slots := make([]Slot, 0, int(window.End.Sub(window.Start)/step))
	for start := window.Start; !start.Add(step).After(window.End); start = start.Add(step) {
		end := start.Add(step)
		free := true
		for _, a := range booked {
			if a.Overlaps(start, end) {
				free = false
				break
			}
		}
		slots = append(slots, Slot{Start: start, End: end, Available: free})
	}

	s.metrics.SlotsGenerated.Observe(float64(len(slots)))
	return slots, nil
}
