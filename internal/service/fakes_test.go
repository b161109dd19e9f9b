package service

import (
	"context"
	"errors"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmehra2102/prod-golang-projects/medflow-scheduling/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/medflow-scheduling/internal/domain/appointment"
	"github.com/dmehra2102/prod-golang-projects/medflow-scheduling/internal/domain/doctor"
	"github.com/dmehra2102/prod-golang-projects/medflow-scheduling/internal/events"
)

// memDB is an in-memory store with whole-database transactions: WithinTx
// holds the lock for the duration of fn and restores a snapshot when fn
// fails. It also enforces the no-overlap rule on write, like the database
// exclusion constraint does.
type memDB struct {
	mu           sync.Mutex
	appointments map[uuid.UUID]appointment.Appointment
	doctors      map[uuid.UUID]doctor.Doctor

	// failNextSave makes the next Save inside a transaction fail.
	failNextSave error
	// blindFinder hides existing rows from FindOverlapping, so only the
	// write-time overlap rule can catch a double booking.
	blindFinder bool
}

func newMemDB() *memDB {
	return &memDB{
		appointments: make(map[uuid.UUID]appointment.Appointment),
		doctors:      make(map[uuid.UUID]doctor.Doctor),
	}
}

func (db *memDB) WithinTx(ctx context.Context, fn func(ctx context.Context, stores domain.Stores) error) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	snapshot := make(map[uuid.UUID]appointment.Appointment, len(db.appointments))
	for k, v := range db.appointments {
		snapshot[k] = v
	}

	err := fn(ctx, domain.Stores{
		Appointments: &memAppointments{db: db, inTx: true},
		Doctors:      &memDoctors{db: db, inTx: true},
	})
	if err != nil {
		db.appointments = snapshot
	}
	return err
}

func (db *memDB) appointmentsRepo() *memAppointments { return &memAppointments{db: db} }
func (db *memDB) doctorsRepo() *memDoctors           { return &memDoctors{db: db} }

func (db *memDB) addDoctor(wh doctor.WorkingHours) *doctor.Doctor {
	d := doctor.Doctor{ID: uuid.New(), UserID: uuid.New(), FirstName: "Ada", LastName: "Lovelace", WorkingHours: wh}
	db.mu.Lock()
	db.doctors[d.ID] = d
	db.mu.Unlock()
	return &d
}

func (db *memDB) get(id uuid.UUID) (appointment.Appointment, bool) {
	db.mu.Lock()
	defer db.mu.Unlock()
	a, ok := db.appointments[id]
	return a, ok
}

func (db *memDB) active(doctorID uuid.UUID) []appointment.Appointment {
	db.mu.Lock()
	defer db.mu.Unlock()
	var out []appointment.Appointment
	for _, a := range db.appointments {
		if a.DoctorID == doctorID && a.Status.IsActive() {
			out = append(out, a)
		}
	}
	return out
}

type memAppointments struct {
	db   *memDB
	inTx bool
}

func (r *memAppointments) lock() func() {
	if r.inTx {
		return func() {}
	}
	r.db.mu.Lock()
	return r.db.mu.Unlock
}

func (r *memAppointments) Create(_ context.Context, a *appointment.Appointment) error {
	defer r.lock()()
	if err := a.ValidateIntervals(); err != nil {
		return err
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	now := time.Now()
	a.CreatedAt, a.UpdatedAt = now, now
	if err := r.checkOverlap(a); err != nil {
		return err
	}
	r.db.appointments[a.ID] = *a
	return nil
}

func (r *memAppointments) GetByID(_ context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	defer r.lock()()
	a, ok := r.db.appointments[id]
	if !ok {
		return nil, appointment.ErrAppointmentNotFound
	}
	return &a, nil
}

func (r *memAppointments) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	return r.GetByID(ctx, id)
}

func (r *memAppointments) Save(_ context.Context, a *appointment.Appointment) error {
	defer r.lock()()
	if err := r.db.failNextSave; err != nil {
		r.db.failNextSave = nil
		return err
	}
	if _, ok := r.db.appointments[a.ID]; !ok {
		return appointment.ErrAppointmentNotFound
	}
	if err := a.ValidateIntervals(); err != nil {
		return err
	}
	if err := r.checkOverlap(a); err != nil {
		return err
	}
	a.UpdatedAt = time.Now()
	r.db.appointments[a.ID] = *a
	return nil
}

func (r *memAppointments) checkOverlap(a *appointment.Appointment) error {
	if !a.Status.IsActive() {
		return nil
	}
	for _, other := range r.db.appointments {
		if other.ID != a.ID && other.DoctorID == a.DoctorID && other.Status.IsActive() &&
			other.Overlaps(a.ScheduledStart, a.ScheduledEnd) {
			return appointment.ErrAppointmentOverlap
		}
	}
	return nil
}

func (r *memAppointments) List(_ context.Context, q *appointment.ListAppointmentsQuery) (*appointment.PagedAppointments, error) {
	defer r.lock()()
	var rows []*appointment.Appointment
	for _, a := range r.db.appointments {
		switch {
		case q.PatientID != nil && a.PatientID != *q.PatientID,
			q.DoctorID != nil && a.DoctorID != *q.DoctorID,
			q.Status != nil && a.Status != *q.Status,
			q.StartDate != nil && a.ScheduledStart.Before(*q.StartDate),
			q.EndDate != nil && a.ScheduledStart.After(*q.EndDate):
			continue
		}
		a := a
		rows = append(rows, &a)
	}

	sort.Slice(rows, func(i, j int) bool {
		var less bool
		switch q.SortBy {
		case appointment.SortByCreatedAt:
			less = rows[i].CreatedAt.Before(rows[j].CreatedAt)
		case appointment.SortByStatus:
			less = rows[i].Status < rows[j].Status
		default:
			less = rows[i].ScheduledStart.Before(rows[j].ScheduledStart)
		}
		if q.SortOrder == appointment.SortDesc {
			return !less
		}
		return less
	})

	total := int64(len(rows))
	from := min((q.Page-1)*q.Limit, len(rows))
	to := min(from+q.Limit, len(rows))
	return &appointment.PagedAppointments{
		Appointments: rows[from:to],
		Pagination:   appointment.NewPagination(total, q.Page, q.Limit),
	}, nil
}

func (r *memAppointments) FindOverlapping(_ context.Context, doctorID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) ([]*appointment.Appointment, error) {
	defer r.lock()()
	var out []*appointment.Appointment
	if r.db.blindFinder {
		return out, nil
	}
	for _, a := range r.db.appointments {
		if a.DoctorID != doctorID || !a.Status.IsActive() || !a.Overlaps(start, end) {
			continue
		}
		if excludeID != nil && a.ID == *excludeID {
			continue
		}
		a := a
		out = append(out, &a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledStart.Before(out[j].ScheduledStart) })
	return out, nil
}

func (r *memAppointments) DoctorStats(_ context.Context, doctorID uuid.UUID, dayStart, dayEnd, now time.Time) (*appointment.DoctorStats, error) {
	defer r.lock()()
	stats := &appointment.DoctorStats{}
	var patients []uuid.UUID
	for _, a := range r.db.appointments {
		if a.DoctorID != doctorID {
			continue
		}
		if a.Status.IsActive() && !a.ScheduledStart.Before(dayStart) && a.ScheduledStart.Before(dayEnd) {
			stats.TodayCount++
		}
		if a.ScheduledStart.After(now) && (a.Status == appointment.StatusScheduled || a.Status == appointment.StatusConfirmed) {
			stats.UpcomingCount++
		}
		if a.Status == appointment.StatusScheduled {
			stats.PendingCount++
		}
		if a.Status == appointment.StatusCompleted && !slices.Contains(patients, a.PatientID) {
			patients = append(patients, a.PatientID)
		}
	}
	stats.TotalPatients = int64(len(patients))
	return stats, nil
}

type memDoctors struct {
	db   *memDB
	inTx bool
}

func (r *memDoctors) GetByID(_ context.Context, id uuid.UUID) (*doctor.Doctor, error) {
	if !r.inTx {
		r.db.mu.Lock()
		defer r.db.mu.Unlock()
	}
	d, ok := r.db.doctors[id]
	if !ok {
		return nil, doctor.ErrDoctorNotFound
	}
	return &d, nil
}

func (r *memDoctors) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*doctor.Doctor, error) {
	return r.GetByID(ctx, id)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, evt events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, string(evt.Type))
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.events)
}

type memAudit struct {
	mu      sync.Mutex
	entries []*domain.AuditLog
}

func (a *memAudit) Create(_ context.Context, e *domain.AuditLog) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, e)
	return nil
}

var errInjected = errors.New("injected failure")
