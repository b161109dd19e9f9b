package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dmehra2102/prod-golang-projects/medflow-scheduling/internal/domain/appointment"
)

// Postgres SQLSTATE codes the scheduler reacts to.
const (
	pgExclusionViolation = "23P01"
	pgCheckViolation     = "23514"
)

const doctorAssociation = "Doctor"

type AppointmentRepository struct {
	db *gorm.DB
}

func NewAppointmentRepository(db *gorm.DB) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

func (r *AppointmentRepository) Create(ctx context.Context, a *appointment.Appointment) error {
	if err := a.ValidateIntervals(); err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(a).Error; err != nil {
		return mapWriteError(err)
	}
	return nil
}

// GetByID includes the doctor's profile. The locking variant does not.
func (r *AppointmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	return r.get(r.db.WithContext(ctx).Preload(doctorAssociation), id)
}

func (r *AppointmentRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	return r.get(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *AppointmentRepository) get(db *gorm.DB, id uuid.UUID) (*appointment.Appointment, error) {
	var a appointment.Appointment
	err := db.Where("id = ? AND deleted_at IS NULL", id).First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, appointment.ErrAppointmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying appointment %s: %w", id, err)
	}
	return &a, nil
}

// Save writes every column except identity and creation time.
func (r *AppointmentRepository) Save(ctx context.Context, a *appointment.Appointment) error {
	if err := a.ValidateIntervals(); err != nil {
		return err
	}
	res := r.db.WithContext(ctx).
		Model(a).
		Select("*").
		Omit("id", "created_at", "deleted_at", clause.Associations).
		Where("deleted_at IS NULL").
		Updates(a)
	if res.Error != nil {
		return mapWriteError(res.Error)
	}
	if res.RowsAffected == 0 {
		return appointment.ErrAppointmentNotFound
	}
	return nil
}

func (r *AppointmentRepository) List(ctx context.Context, q *appointment.ListAppointmentsQuery) (*appointment.PagedAppointments, error) {
	q.Normalize()

	db := r.db.WithContext(ctx).Model(&appointment.Appointment{}).Where("deleted_at IS NULL")
	if q.PatientID != nil {
		db = db.Where("patient_id = ?", *q.PatientID)
	}
	if q.DoctorID != nil {
		db = db.Where("doctor_id = ?", *q.DoctorID)
	}
	if q.Status != nil {
		db = db.Where("status = ?", *q.Status)
	}
	if q.StartDate != nil {
		db = db.Where("scheduled_start >= ?", *q.StartDate)
	}
	if q.EndDate != nil {
		db = db.Where("scheduled_start <= ?", *q.EndDate)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("counting appointments: %w", err)
	}

	rows := make([]*appointment.Appointment, 0, q.Limit)
	err := db.
		Preload(doctorAssociation).
		Order(orderClause(q.ListFilter)).
		Offset((q.Page - 1) * q.Limit).
		Limit(q.Limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("listing appointments: %w", err)
	}

	return &appointment.PagedAppointments{
		Appointments: rows,
		Pagination:   appointment.NewPagination(total, q.Page, q.Limit),
	}, nil
}

func (r *AppointmentRepository) FindOverlapping(
	ctx context.Context,
	doctorID uuid.UUID,
	start, end time.Time,
	excludeID *uuid.UUID,
) ([]*appointment.Appointment, error) {
	db := r.db.WithContext(ctx).
		Where("doctor_id = ? AND deleted_at IS NULL", doctorID).
		Where("status NOT IN ?", appointment.InactiveStatuses).
		Where("scheduled_start < ? AND scheduled_end > ?", end, start)
	if excludeID != nil {
		db = db.Where("id <> ?", *excludeID)
	}

	var rows []*appointment.Appointment
	if err := db.Order("scheduled_start ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("finding overlapping appointments: %w", err)
	}
	return rows, nil
}

const doctorStatsQuery = `
SELECT
	COUNT(*) FILTER (WHERE status NOT IN @inactive AND scheduled_start >= @day_start AND scheduled_start < @day_end) AS today_count,
	COUNT(*) FILTER (WHERE scheduled_start > @now AND status IN @upcoming) AS upcoming_count,
	COUNT(DISTINCT patient_id) FILTER (WHERE status = @completed) AS total_patients,
	COUNT(*) FILTER (WHERE status = @pending) AS pending_count
FROM clinical.appointments
WHERE doctor_id = @doctor_id AND deleted_at IS NULL`

func (r *AppointmentRepository) DoctorStats(
	ctx context.Context,
	doctorID uuid.UUID,
	dayStart, dayEnd, now time.Time,
) (*appointment.DoctorStats, error) {
	var stats appointment.DoctorStats
	err := r.db.WithContext(ctx).Raw(doctorStatsQuery, map[string]any{
		"doctor_id": doctorID,
		"inactive":  appointment.InactiveStatuses,
		"day_start": dayStart,
		"day_end":   dayEnd,
		"now":       now,
		"upcoming":  []appointment.AppointmentStatus{appointment.StatusScheduled, appointment.StatusConfirmed},
		"completed": appointment.StatusCompleted,
		"pending":   appointment.StatusScheduled,
	}).Scan(&stats).Error
	if err != nil {
		return nil, fmt.Errorf("computing doctor stats: %w", err)
	}
	return &stats, nil
}

// orderClause only ever emits whitelisted columns and directions.
func orderClause(f appointment.ListFilter) string {
	f.Normalize()
	return fmt.Sprintf("%s %s, id %s", f.SortBy, f.SortOrder, f.SortOrder)
}

// mapWriteError turns constraint violations into domain errors so the
// service can report them as conflicts or validation failures.
func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgExclusionViolation:
			return fmt.Errorf("%w: %s", appointment.ErrAppointmentOverlap, pgErr.ConstraintName)
		case pgCheckViolation:
			return fmt.Errorf("%w: %s", appointment.ErrInvalidInterval, pgErr.ConstraintName)
		}
	}
	return fmt.Errorf("writing appointment: %w", err)
}
