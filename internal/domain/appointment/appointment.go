package appointment

import (
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/dmehra2102/prod-golang-projects/medflow-scheduling/internal/domain/doctor"
)

type AppointmentType string

const (
	TypeTelehealth AppointmentType = "telehealth"
	TypeInPerson   AppointmentType = "in_person"
	TypePhone      AppointmentType = "phone"
)

func (t AppointmentType) IsValid() bool {
	switch t {
	case TypeTelehealth, TypeInPerson, TypePhone:
		return true
	}
	return false
}

// State transitions possibilities:
//
//	scheduled → confirmed → in_progress → completed
//	scheduled | confirmed | in_progress → cancelled
//	scheduled | confirmed | in_progress → no_show
//
// completed, cancelled and no_show are terminal.
type AppointmentStatus string

const (
	StatusScheduled  AppointmentStatus = "scheduled"
	StatusConfirmed  AppointmentStatus = "confirmed"
	StatusInProgress AppointmentStatus = "in_progress"
	StatusCompleted  AppointmentStatus = "completed"
	StatusCancelled  AppointmentStatus = "cancelled"
	StatusNoShow     AppointmentStatus = "no_show"
)

func (s AppointmentStatus) IsValid() bool {
	switch s {
	case StatusScheduled, StatusConfirmed, StatusInProgress, StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

func (s AppointmentStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusNoShow
}

// IsActive reports whether an appointment in this status occupies its slot.
func (s AppointmentStatus) IsActive() bool {
	return s != StatusCancelled && s != StatusNoShow
}

// InactiveStatuses never block a doctor's time.
var InactiveStatuses = []AppointmentStatus{StatusCancelled, StatusNoShow}

// CancelledBy records which party cancelled.
type CancelledBy string

const (
	CancelledByPatient CancelledBy = "patient"
	CancelledByDoctor  CancelledBy = "doctor"
	CancelledBySystem  CancelledBy = "system"
)

type Appointment struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CreatedAt time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt *time.Time `gorm:"index" json:"-"`

	PatientID uuid.UUID `gorm:"column:patient_id;type:uuid;not null;index" json:"patient_id"`
	DoctorID  uuid.UUID `gorm:"column:doctor_id;type:uuid;not null;index" json:"doctor_id"`

	// Doctor is loaded on reads only; writes never touch the doctor row.
	Doctor *doctor.Doctor `gorm:"foreignKey:DoctorID;references:ID" json:"doctor,omitempty"`

	Type   AppointmentType   `gorm:"column:appointment_type;type:varchar(20);not null;default:'telehealth'" json:"appointment_type"`
	Status AppointmentStatus `gorm:"column:status;type:varchar(30);not null;default:'scheduled';index" json:"status"`

	ScheduledStart time.Time  `gorm:"column:scheduled_start;not null;index" json:"scheduled_start"`
	ScheduledEnd   time.Time  `gorm:"column:scheduled_end;not null" json:"scheduled_end"`
	ActualStart    *time.Time `gorm:"column:actual_start" json:"actual_start,omitempty"`
	ActualEnd      *time.Time `gorm:"column:actual_end" json:"actual_end,omitempty"`

	Urgent         bool   `gorm:"column:urgent;not null;default:false" json:"urgent"`
	ReasonForVisit string `gorm:"column:reason_for_visit;type:text;not null" json:"reason_for_visit"`
	ChiefComplaint string `gorm:"column:chief_complaint;type:text" json:"chief_complaint,omitempty"`

	// Cancellation tracking
	CancellationReason string       `gorm:"column:cancellation_reason;type:text" json:"cancellation_reason,omitempty"`
	CancelledBy        *CancelledBy `gorm:"column:cancelled_by;type:varchar(20)" json:"cancelled_by,omitempty"`
	CancelledAt        *time.Time   `gorm:"column:cancelled_at" json:"cancelled_at,omitempty"`

	FollowUpRequired     bool   `gorm:"column:follow_up_required;not null;default:false" json:"follow_up_required"`
	FollowUpInstructions string `gorm:"column:follow_up_instructions;type:text" json:"follow_up_instructions,omitempty"`
	Notes                string `gorm:"column:notes;type:text" json:"notes,omitempty"`
}

func (Appointment) TableName() string {
	return "clinical.appointments"
}

// Overlaps is the half-open interval test: touching intervals do not overlap.
func (a *Appointment) Overlaps(start, end time.Time) bool {
	return a.ScheduledStart.Before(end) && a.ScheduledEnd.After(start)
}

// IsOwnedBy reports whether id is the appointment's patient or doctor.
func (a *Appointment) IsOwnedBy(id uuid.UUID) bool {
	return a.PatientID == id || a.DoctorID == id
}

var transitions = map[AppointmentStatus][]AppointmentStatus{
	StatusScheduled:  {StatusConfirmed, StatusCancelled, StatusNoShow},
	StatusConfirmed:  {StatusInProgress, StatusCancelled, StatusNoShow},
	StatusInProgress: {StatusCompleted, StatusCancelled, StatusNoShow},
	StatusCompleted:  {},
	StatusCancelled:  {},
	StatusNoShow:     {},
}

func (a *Appointment) CanTransitionTo(newStatus AppointmentStatus) bool {
	return slices.Contains(transitions[a.Status], newStatus)
}

// CanBeCancelled applies the cancellation-window policy: more than window
// must remain before the start, and the appointment must not already be
// cancelled or completed.
func (a *Appointment) CanBeCancelled(now time.Time, window time.Duration) bool {
	if a.Status == StatusCancelled || a.Status == StatusCompleted {
		return false
	}
	return a.ScheduledStart.Sub(now) > window
}

func (a *Appointment) Cancel(reason string, by CancelledBy, now time.Time) {
	a.Status = StatusCancelled
	a.CancelledAt = &now
	a.CancellationReason = reason
	a.CancelledBy = &by
}

// ValidateIntervals checks the write-time invariants on the planned and
// actual intervals.
func (a *Appointment) ValidateIntervals() error {
	if !a.ScheduledEnd.After(a.ScheduledStart) {
		return ErrInvalidInterval
	}
	if a.ActualStart != nil && a.ActualEnd != nil && !a.ActualEnd.After(*a.ActualStart) {
		return ErrInvalidActualInterval
	}
	return nil
}

type CreateAppointmentCommand struct {
	PatientID      uuid.UUID
	DoctorID       uuid.UUID
	Type           AppointmentType
	ScheduledStart time.Time
	ScheduledEnd   time.Time
	ReasonForVisit string
	ChiefComplaint string
	Urgent         bool
}

// UpdateAppointmentCommand carries a partial update. Nil fields are left as is.
type UpdateAppointmentCommand struct {
	ScheduledStart       *time.Time
	ScheduledEnd         *time.Time
	Status               *AppointmentStatus
	Notes                *string
	ActualStart          *time.Time
	ActualEnd            *time.Time
	FollowUpRequired     *bool
	FollowUpInstructions *string
}

// Reschedules reports whether the update touches the planned interval.
func (c *UpdateAppointmentCommand) Reschedules() bool {
	return c.ScheduledStart != nil || c.ScheduledEnd != nil
}

type RescheduleAppointmentCommand struct {
	ScheduledStart time.Time
	ScheduledEnd   time.Time
}

type CancelAppointmentCommand struct {
	Reason string
}

// SortField is a whitelisted list ordering column.
type SortField string

const (
	SortByScheduledStart SortField = "scheduled_start"
	SortByCreatedAt      SortField = "created_at"
	SortByStatus         SortField = "status"
)

func (f SortField) IsValid() bool {
	switch f {
	case SortByScheduledStart, SortByCreatedAt, SortByStatus:
		return true
	}
	return false
}

const (
	SortAsc  = "ASC"
	SortDesc = "DESC"

	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ListFilter is the caller-controlled part of a list query. Its JSON form is
// part of the list cache key, so field order must stay stable.
type ListFilter struct {
	Status    *AppointmentStatus `json:"status,omitempty"`
	StartDate *time.Time         `json:"start_date,omitempty"`
	EndDate   *time.Time         `json:"end_date,omitempty"`
	Page      int                `json:"page"`
	Limit     int                `json:"limit"`
	SortBy    SortField          `json:"sort_by"`
	SortOrder string             `json:"sort_order"`
}

// Normalize fills defaults and clamps paging.
func (f *ListFilter) Normalize() {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Limit <= 0 || f.Limit > MaxPageSize {
		f.Limit = DefaultPageSize
	}
	if !f.SortBy.IsValid() {
		f.SortBy = SortByScheduledStart
	}
	if f.SortOrder != SortAsc {
		f.SortOrder = SortDesc
	}
}

type ListAppointmentsQuery struct {
	PatientID *uuid.UUID
	DoctorID  *uuid.UUID
	ListFilter
}

type Pagination struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"totalPages"`
}

type PagedAppointments struct {
	Appointments []*Appointment `json:"appointments"`
	Pagination   Pagination     `json:"pagination"`
}

// NewPagination computes the page count for total rows.
func NewPagination(total int64, page, limit int) Pagination {
	pages := 0
	if limit > 0 {
		pages = int((total + int64(limit) - 1) / int64(limit))
	}
	return Pagination{Total: total, Page: page, Limit: limit, TotalPages: pages}
}

// DoctorStats is the dashboard summary for one doctor.
type DoctorStats struct {
	TodayCount    int64 `json:"today_count"`
	UpcomingCount int64 `json:"upcoming_count"`
	TotalPatients int64 `json:"total_patients"`
	PendingCount  int64 `json:"pending_count"`
}
