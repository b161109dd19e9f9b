package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/dmehra2102/prod-golang-projects/medflow-scheduling/internal/apperr"
	"github.com/dmehra2102/prod-golang-projects/medflow-scheduling/internal/cache"
	"github.com/dmehra2102/prod-golang-projects/medflow-scheduling/internal/config"
	"github.com/dmehra2102/prod-golang-projects/medflow-scheduling/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/medflow-scheduling/internal/domain/appointment"
	"github.com/dmehra2102/prod-golang-projects/medflow-scheduling/internal/domain/doctor"
	"github.com/dmehra2102/prod-golang-projects/medflow-scheduling/internal/events"
	"github.com/dmehra2102/prod-golang-projects/medflow-scheduling/pkg/metrics"
)

const resourceAppointment = "appointment"

// AppointmentService is the lifecycle manager. Every mutation runs in one
// transaction that locks the doctor row before the conflict check, then
// invalidates the cache and publishes an event after commit.
type AppointmentService struct {
	tx        domain.Transactor
	repo      appointment.Repository
	cache     *cache.AppointmentCache
	publisher events.Publisher
	auditSvc  *AuditService
	cfg       config.SchedulingConfig
	metrics   *metrics.Collector
	log       *zap.Logger
	now       func() time.Time
}

func NewAppointmentService(
	tx domain.Transactor,
	repo appointment.Repository,
	appointmentCache *cache.AppointmentCache,
	publisher events.Publisher,
	auditSvc *AuditService,
	cfg config.SchedulingConfig,
	m *metrics.Collector,
	log *zap.Logger,
) *AppointmentService {
	return &AppointmentService{
		tx:        tx,
		repo:      repo,
		cache:     appointmentCache,
		publisher: publisher,
		auditSvc:  auditSvc,
		cfg:       cfg,
		metrics:   m,
		log:       log,
		now:       time.Now,
	}
}

func (s *AppointmentService) CreateAppointment(
	ctx context.Context,
	caller domain.Caller,
	cmd *appointment.CreateAppointmentCommand,
) (_ *appointment.Appointment, err error) {
	ctx, span := tracer.Start(ctx, "scheduling.CreateAppointment")
	defer func() { endSpan(span, err) }()
	span.SetAttributes(attribute.String("doctor.id", cmd.DoctorID.String()))

	if caller.Role != domain.RolePatient {
		return nil, apperr.AccessDenied()
	}
	cmd.PatientID = caller.ID

	// ── Input validation ───────────────────────────────────────────────────
	if !cmd.Type.IsValid() {
		return nil, apperr.Validation("%s: %q", appointment.ErrInvalidAppointmentType.Error(), cmd.Type)
	}
	if !cmd.ScheduledEnd.After(cmd.ScheduledStart) {
		return nil, apperr.Validation("%s", appointment.ErrInvalidInterval.Error())
	}
	if !cmd.ScheduledStart.After(s.now()) {
		return nil, apperr.Validation("scheduled start must be in the future")
	}
	if strings.TrimSpace(cmd.ReasonForVisit) == "" {
		return nil, apperr.Validation("reason for visit is required")
	}

	a := &appointment.Appointment{
		PatientID:      cmd.PatientID,
		DoctorID:       cmd.DoctorID,
		Type:           cmd.Type,
		Status:         appointment.StatusScheduled,
		ScheduledStart: cmd.ScheduledStart,
		ScheduledEnd:   cmd.ScheduledEnd,
		Urgent:         cmd.Urgent,
		ReasonForVisit: cmd.ReasonForVisit,
		ChiefComplaint: cmd.ChiefComplaint,
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context, st domain.Stores) error {
		doc, err := st.Doctors.GetByIDForUpdate(ctx, cmd.DoctorID)
		if err != nil {
			return translate("locking doctor", err)
		}
		if err := s.ensureSlotFree(ctx, st.Appointments, doc, a.ScheduledStart, a.ScheduledEnd, nil); err != nil {
			return err
		}
		if err := st.Appointments.Create(ctx, a); err != nil {
			return translate("creating appointment", err)
		}
		return nil
	})
	if err != nil {
		s.logFailure("create appointment", err, zap.String("doctor_id", cmd.DoctorID.String()))
		return nil, err
	}

	s.afterCommit(ctx, caller, a, "create", events.AppointmentCreated, domain.ActionCreate, map[string]any{
		"doctor_id":       a.DoctorID,
		"scheduled_start": a.ScheduledStart,
		"scheduled_end":   a.ScheduledEnd,
	})
	return a, nil
}

// GetAppointment answers "not found" both for a missing appointment and for
// one the caller may not see, so ids cannot be enumerated.
func (s *AppointmentService) GetAppointment(ctx context.Context, caller domain.Caller, id uuid.UUID) (_ *appointment.Appointment, err error) {
	ctx, span := tracer.Start(ctx, "scheduling.GetAppointment")
	defer func() { endSpan(span, err) }()

	a, hit := s.cache.GetAppointment(ctx, id)
	if !hit {
		a, err = s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, translate("getting appointment", err)
		}
		s.cache.SetAppointment(ctx, a)
	}
	span.SetAttributes(attribute.Bool("cache.hit", hit))

	if !canRead(caller, a) {
		return nil, apperr.NotFound(msgAppointmentNotFound)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		Caller: caller, Action: domain.ActionRead,
		ResourceType: resourceAppointment, ResourceID: id.String(),
	})
	return a, nil
}

func (s *AppointmentService) ListPatientAppointments(
	ctx context.Context,
	caller domain.Caller,
	patientID uuid.UUID,
	filter appointment.ListFilter,
) (*appointment.PagedAppointments, error) {
	if !caller.IsAdmin() && (caller.Role != domain.RolePatient || caller.ID != patientID) {
		return nil, apperr.AccessDenied()
	}
	filter.Normalize()
	return s.list(ctx, cache.PatientListKey(patientID, filter), &appointment.ListAppointmentsQuery{
		PatientID:  &patientID,
		ListFilter: filter,
	})
}

func (s *AppointmentService) ListDoctorAppointments(
	ctx context.Context,
	caller domain.Caller,
	doctorID uuid.UUID,
	filter appointment.ListFilter,
) (*appointment.PagedAppointments, error) {
	if !caller.IsAdmin() && (caller.Role != domain.RoleDoctor || caller.ID != doctorID) {
		return nil, apperr.AccessDenied()
	}
	filter.Normalize()
	return s.list(ctx, cache.DoctorListKey(doctorID, filter), &appointment.ListAppointmentsQuery{
		DoctorID:   &doctorID,
		ListFilter: filter,
	})
}

func (s *AppointmentService) list(ctx context.Context, key string, q *appointment.ListAppointmentsQuery) (_ *appointment.PagedAppointments, err error) {
	ctx, span := tracer.Start(ctx, "scheduling.ListAppointments")
	defer func() { endSpan(span, err) }()

	if q.Status != nil && !q.Status.IsValid() {
		return nil, apperr.Validation("invalid status %q", *q.Status)
	}
	if q.StartDate != nil && q.EndDate != nil && q.EndDate.Before(*q.StartDate) {
		return nil, apperr.Validation("end_date must not be before start_date")
	}

	if page, ok := s.cache.GetList(ctx, key); ok {
		return page, nil
	}

	page, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("listing appointments: %w", err)
	}
	s.cache.SetList(ctx, key, page)
	return page, nil
}

// UpdateAppointment applies a partial update by the owning patient or
// doctor. A changed interval is re-validated against working hours and the
// doctor's other appointments; status changes follow the state machine.
func (s *AppointmentService) UpdateAppointment(
	ctx context.Context,
	caller domain.Caller,
	id uuid.UUID,
	cmd *appointment.UpdateAppointmentCommand,
) (_ *appointment.Appointment, err error) {
	ctx, span := tracer.Start(ctx, "scheduling.UpdateAppointment")
	defer func() { endSpan(span, err) }()

	var (
		a           *appointment.Appointment
		rescheduled bool
		changes     = map[string]any{}
	)
	err = s.tx.WithinTx(ctx, func(ctx context.Context, st domain.Stores) error {
		var err error
		a, err = st.Appointments.GetByIDForUpdate(ctx, id)
		if err != nil {
			return translate("loading appointment", err)
		}
		if !isOwner(caller, a) {
			return apperr.AccessDenied()
		}
		if a.Status == appointment.StatusCompleted || a.Status == appointment.StatusCancelled {
			return apperr.InvalidState("cannot update completed or cancelled appointments")
		}

		if cmd.Status != nil && *cmd.Status != a.Status {
			next := *cmd.Status
			switch {
			case !next.IsValid():
				return apperr.Validation("invalid status %q", next)
			case next == appointment.StatusCancelled:
				return apperr.InvalidState("use the cancel operation to cancel an appointment")
			case !a.CanTransitionTo(next):
				return apperr.InvalidState("cannot transition appointment from %s to %s", a.Status, next)
			}
			changes["status"] = map[string]any{"from": a.Status, "to": next}
			a.Status = next
		}

		if cmd.Reschedules() {
			start, end := a.ScheduledStart, a.ScheduledEnd
			if cmd.ScheduledStart != nil {
				start = *cmd.ScheduledStart
			}
			if cmd.ScheduledEnd != nil {
				end = *cmd.ScheduledEnd
			}
			if !start.Equal(a.ScheduledStart) || !end.Equal(a.ScheduledEnd) {
				if err := s.moveWithinTx(ctx, st, a, start, end); err != nil {
					return err
				}
				rescheduled = true
				changes["scheduled_start"] = start
				changes["scheduled_end"] = end
			}
		}

		if cmd.Notes != nil {
			a.Notes = *cmd.Notes
			changes["notes"] = true
		}
		if cmd.ActualStart != nil {
			a.ActualStart = cmd.ActualStart
			changes["actual_start"] = *cmd.ActualStart
		}
		if cmd.ActualEnd != nil {
			a.ActualEnd = cmd.ActualEnd
			changes["actual_end"] = *cmd.ActualEnd
		}
		if cmd.FollowUpRequired != nil {
			a.FollowUpRequired = *cmd.FollowUpRequired
			changes["follow_up_required"] = *cmd.FollowUpRequired
		}
		if cmd.FollowUpInstructions != nil {
			a.FollowUpInstructions = *cmd.FollowUpInstructions
			changes["follow_up_instructions"] = true
		}

		if err := a.ValidateIntervals(); err != nil {
			return translate("validating appointment", err)
		}
		if err := st.Appointments.Save(ctx, a); err != nil {
			return translate("saving appointment", err)
		}
		return nil
	})
	if err != nil {
		s.logFailure("update appointment", err, zap.String("appointment_id", id.String()))
		return nil, err
	}

	evt := events.AppointmentUpdated
	if rescheduled {
		evt = events.AppointmentRescheduled
	}
	s.afterCommit(ctx, caller, a, "update", evt, domain.ActionUpdate, changes)
	return a, nil
}

// RescheduleAppointment moves an appointment to a new interval. Only the
// owning doctor may do this.
func (s *AppointmentService) RescheduleAppointment(
	ctx context.Context,
	caller domain.Caller,
	id uuid.UUID,
	cmd *appointment.RescheduleAppointmentCommand,
) (_ *appointment.Appointment, err error) {
	ctx, span := tracer.Start(ctx, "scheduling.RescheduleAppointment")
	defer func() { endSpan(span, err) }()

	var (
		a        *appointment.Appointment
		previous time.Time
	)
	err = s.tx.WithinTx(ctx, func(ctx context.Context, st domain.Stores) error {
		var err error
		a, err = st.Appointments.GetByIDForUpdate(ctx, id)
		if err != nil {
			return translate("loading appointment", err)
		}
		if caller.Role != domain.RoleDoctor || a.DoctorID != caller.ID {
			return apperr.AccessDenied()
		}
		switch a.Status {
		case appointment.StatusCancelled, appointment.StatusCompleted, appointment.StatusNoShow:
			return apperr.InvalidState("cannot reschedule appointment with status: %s", a.Status)
		}

		previous = a.ScheduledStart
		if err := s.moveWithinTx(ctx, st, a, cmd.ScheduledStart, cmd.ScheduledEnd); err != nil {
			return err
		}
		if err := st.Appointments.Save(ctx, a); err != nil {
			return translate("saving appointment", err)
		}
		return nil
	})
	if err != nil {
		s.logFailure("reschedule appointment", err, zap.String("appointment_id", id.String()))
		return nil, err
	}

	s.afterCommit(ctx, caller, a, "reschedule", events.AppointmentRescheduled, domain.ActionUpdate, map[string]any{
		"previous_start":  previous,
		"scheduled_start": a.ScheduledStart,
		"scheduled_end":   a.ScheduledEnd,
	})
	return a, nil
}

// AcceptAppointment confirms a scheduled appointment. Only the owning doctor
// may do this.
func (s *AppointmentService) AcceptAppointment(ctx context.Context, caller domain.Caller, id uuid.UUID) (_ *appointment.Appointment, err error) {
	ctx, span := tracer.Start(ctx, "scheduling.AcceptAppointment")
	defer func() { endSpan(span, err) }()

	var a *appointment.Appointment
	err = s.tx.WithinTx(ctx, func(ctx context.Context, st domain.Stores) error {
		var err error
		a, err = st.Appointments.GetByIDForUpdate(ctx, id)
		if err != nil {
			return translate("loading appointment", err)
		}
		if caller.Role != domain.RoleDoctor || a.DoctorID != caller.ID {
			return apperr.AccessDenied()
		}
		if a.Status != appointment.StatusScheduled {
			return apperr.InvalidState("cannot accept appointment with status: %s; only scheduled appointments can be accepted", a.Status)
		}
		a.Status = appointment.StatusConfirmed
		if err := st.Appointments.Save(ctx, a); err != nil {
			return translate("saving appointment", err)
		}
		return nil
	})
	if err != nil {
		s.logFailure("accept appointment", err, zap.String("appointment_id", id.String()))
		return nil, err
	}

	s.afterCommit(ctx, caller, a, "accept", events.AppointmentAccepted, domain.ActionUpdate, map[string]any{
		"status": appointment.StatusConfirmed,
	})
	return a, nil
}

// CancelAppointment cancels on behalf of the owning patient or doctor, as
// long as more than the cancellation window remains before the start.
func (s *AppointmentService) CancelAppointment(
	ctx context.Context,
	caller domain.Caller,
	id uuid.UUID,
	cmd *appointment.CancelAppointmentCommand,
) (_ *appointment.Appointment, err error) {
	ctx, span := tracer.Start(ctx, "scheduling.CancelAppointment")
	defer func() { endSpan(span, err) }()

	if strings.TrimSpace(cmd.Reason) == "" {
		return nil, apperr.Validation("cancellation reason is required")
	}

	var a *appointment.Appointment
	err = s.tx.WithinTx(ctx, func(ctx context.Context, st domain.Stores) error {
		var err error
		a, err = st.Appointments.GetByIDForUpdate(ctx, id)
		if err != nil {
			return translate("loading appointment", err)
		}
		if !isOwner(caller, a) {
			return apperr.AccessDenied()
		}
		now := s.now()
		if !a.CanBeCancelled(now, s.cfg.CancellationWindow) {
			return apperr.InvalidState(
				"appointment cannot be cancelled (less than %s before scheduled time or already completed/cancelled)",
				formatWindow(s.cfg.CancellationWindow),
			)
		}
		a.Cancel(cmd.Reason, appointment.CancelledBy(caller.Role), now)
		if err := st.Appointments.Save(ctx, a); err != nil {
			return translate("saving appointment", err)
		}
		return nil
	})
	if err != nil {
		s.logFailure("cancel appointment", err, zap.String("appointment_id", id.String()))
		return nil, err
	}

	s.afterCommit(ctx, caller, a, "cancel", events.AppointmentCancelled, domain.ActionUpdate, map[string]any{
		"status": appointment.StatusCancelled,
		"reason": cmd.Reason,
	})
	return a, nil
}

// DoctorStatistics returns the dashboard counters, with "today" taken in the
// configured scheduling timezone.
func (s *AppointmentService) DoctorStatistics(ctx context.Context, caller domain.Caller, doctorID uuid.UUID) (_ *appointment.DoctorStats, err error) {
	ctx, span := tracer.Start(ctx, "scheduling.DoctorStatistics")
	defer func() { endSpan(span, err) }()

	if !caller.IsAdmin() && (caller.Role != domain.RoleDoctor || caller.ID != doctorID) {
		return nil, apperr.AccessDenied()
	}

	if stats, ok := s.cache.GetDoctorStats(ctx, doctorID); ok {
		return stats, nil
	}

	now := s.now().In(s.cfg.Location())
	y, m, d := now.Date()
	dayStart := time.Date(y, m, d, 0, 0, 0, 0, now.Location())

	stats, err := s.repo.DoctorStats(ctx, doctorID, dayStart, dayStart.AddDate(0, 0, 1), now)
	if err != nil {
		return nil, fmt.Errorf("computing doctor statistics: %w", err)
	}
	s.cache.SetDoctorStats(ctx, doctorID, stats)
	return stats, nil
}

// moveWithinTx validates and applies a new interval for a, excluding a's own
// current interval from the conflict check. The doctor row is locked first.
func (s *AppointmentService) moveWithinTx(ctx context.Context, st domain.Stores, a *appointment.Appointment, start, end time.Time) error {
	if !end.After(start) {
		return apperr.Validation("%s", appointment.ErrInvalidInterval.Error())
	}
	doc, err := st.Doctors.GetByIDForUpdate(ctx, a.DoctorID)
	if err != nil {
		return translate("locking doctor", err)
	}
	if err := s.ensureSlotFree(ctx, st.Appointments, doc, start, end, &a.ID); err != nil {
		return err
	}
	a.ScheduledStart, a.ScheduledEnd = start, end
	return nil
}

func (s *AppointmentService) ensureSlotFree(
	ctx context.Context,
	repo appointment.Repository,
	doc *doctor.Doctor,
	start, end time.Time,
	excludeID *uuid.UUID,
) error {
	res, err := detectConflicts(ctx, repo, doc, s.cfg.Location(), start, end, excludeID)
	if err != nil {
		return err
	}
	if !res.Available {
		s.metrics.SchedulingConflicts.WithLabelValues(res.kind).Inc()
		return apperr.Conflict(msgSlotUnavailable+res.Reason, res.Conflicts...)
	}
	return nil
}

// afterCommit runs the post-commit side effects. None of them can fail the
// operation: the write is already durable.
func (s *AppointmentService) afterCommit(
	ctx context.Context,
	caller domain.Caller,
	a *appointment.Appointment,
	action string,
	evt events.Type,
	auditAction domain.AuditAction,
	changes map[string]any,
) {
	s.cache.Invalidate(ctx, a.ID, a.PatientID, a.DoctorID)
	s.metrics.AppointmentsTotal.WithLabelValues(action, string(a.Status)).Inc()

	s.auditSvc.LogAsync(ctx, AuditEntry{
		Caller: caller, Action: auditAction,
		ResourceType: resourceAppointment, ResourceID: a.ID.String(),
		Changes: changes,
	})

	if err := s.publisher.Publish(ctx, events.New(evt, a, caller.Role, s.now())); err != nil {
		s.log.Warn("failed to publish appointment event",
			zap.String("event", string(evt)),
			zap.String("appointment_id", a.ID.String()),
			zap.Error(err),
		)
	}

	s.log.Info("appointment "+action,
		zap.String("appointment_id", a.ID.String()),
		zap.String("status", string(a.Status)),
		zap.String("actor_role", string(caller.Role)),
	)
}

// logFailure logs unexpected errors only; tagged errors are normal outcomes.
func (s *AppointmentService) logFailure(op string, err error, fields ...zap.Field) {
	if apperr.KindOf(err) != "" {
		return
	}
	s.log.Error("failed to "+op, append(fields, zap.Error(err))...)
}

func canRead(caller domain.Caller, a *appointment.Appointment) bool {
	return caller.IsAdmin() || isOwner(caller, a)
}

func isOwner(caller domain.Caller, a *appointment.Appointment) bool {
	switch caller.Role {
	case domain.RolePatient:
		return a.PatientID == caller.ID
	case domain.RoleDoctor:
		return a.DoctorID == caller.ID
	}
	return false
}

func formatWindow(d time.Duration) string {
	if d%time.Hour == 0 {
		h := int(d / time.Hour)
		if h == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", h)
	}
	return fmt.Sprintf("%d minutes", int(d/time.Minute))
}
