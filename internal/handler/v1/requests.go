package v1

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmehra2102/prod-golang-projects/medflow-scheduling/internal/domain/appointment"
)

type createAppointmentRequest struct {
	DoctorID       string    `json:"doctor_id" binding:"required,uuid"`
	Type           string    `json:"appointment_type" binding:"required,oneof=telehealth in_person phone"`
	ScheduledStart time.Time `json:"scheduled_start" binding:"required"`
	ScheduledEnd   time.Time `json:"scheduled_end" binding:"required,gtfield=ScheduledStart"`
	ReasonForVisit string    `json:"reason_for_visit" binding:"required,max=500"`
	ChiefComplaint string    `json:"chief_complaint" binding:"max=500"`
	Urgent         bool      `json:"urgent"`
}

func (r *createAppointmentRequest) command() *appointment.CreateAppointmentCommand {
	return &appointment.CreateAppointmentCommand{
		DoctorID:       uuid.MustParse(r.DoctorID),
		Type:           appointment.AppointmentType(r.Type),
		ScheduledStart: r.ScheduledStart,
		ScheduledEnd:   r.ScheduledEnd,
		ReasonForVisit: strings.TrimSpace(r.ReasonForVisit),
		ChiefComplaint: strings.TrimSpace(r.ChiefComplaint),
		Urgent:         r.Urgent,
	}
}

type updateAppointmentRequest struct {
	ScheduledStart       *time.Time `json:"scheduled_start"`
	ScheduledEnd         *time.Time `json:"scheduled_end"`
	Status               *string    `json:"status" binding:"omitempty,oneof=scheduled confirmed in_progress completed cancelled no_show"`
	Notes                *string    `json:"notes" binding:"omitempty,max=1000"`
	ActualStart          *time.Time `json:"actual_start"`
	ActualEnd            *time.Time `json:"actual_end"`
	FollowUpRequired     *bool      `json:"follow_up_required"`
	FollowUpInstructions *string    `json:"follow_up_instructions" binding:"omitempty,max=1000"`
}

func (r *updateAppointmentRequest) command() *appointment.UpdateAppointmentCommand {
	cmd := &appointment.UpdateAppointmentCommand{
		ScheduledStart:       r.ScheduledStart,
		ScheduledEnd:         r.ScheduledEnd,
		Notes:                r.Notes,
		ActualStart:          r.ActualStart,
		ActualEnd:            r.ActualEnd,
		FollowUpRequired:     r.FollowUpRequired,
		FollowUpInstructions: r.FollowUpInstructions,
	}
	if r.Status != nil {
		s := appointment.AppointmentStatus(*r.Status)
		cmd.Status = &s
	}
	return cmd
}

type rescheduleAppointmentRequest struct {
	ScheduledStart time.Time `json:"scheduled_start" binding:"required"`
	ScheduledEnd   time.Time `json:"scheduled_end" binding:"required,gtfield=ScheduledStart"`
}

type cancelAppointmentRequest struct {
	Reason string `json:"cancellation_reason" binding:"required,max=500"`
}

type listAppointmentsQuery struct {
	Status    string     `form:"status" binding:"omitempty,oneof=scheduled confirmed in_progress completed cancelled no_show"`
	StartDate *time.Time `form:"start_date"`
	EndDate   *time.Time `form:"end_date"`
	Page      int        `form:"page" binding:"omitempty,min=1"`
	Limit     int        `form:"limit" binding:"omitempty,min=1,max=100"`
	SortBy    string     `form:"sort_by" binding:"omitempty,oneof=scheduled_start created_at status"`
	SortOrder string     `form:"sort_order" binding:"omitempty,oneof=ASC DESC asc desc"`
}

func (q *listAppointmentsQuery) filter() appointment.ListFilter {
	f := appointment.ListFilter{
		StartDate: q.StartDate,
		EndDate:   q.EndDate,
		Page:      q.Page,
		Limit:     q.Limit,
		SortBy:    appointment.SortField(q.SortBy),
		SortOrder: strings.ToUpper(q.SortOrder),
	}
	if q.Status != "" {
		s := appointment.AppointmentStatus(q.Status)
		f.Status = &s
	}
	f.Normalize()
	return f
}

type availabilityQuery struct {
	Date     string `form:"date" binding:"required,datetime=2006-01-02"`
	Duration int    `form:"duration" binding:"omitempty,min=15,max=120"`
}

type checkAvailabilityQuery struct {
	Start     time.Time `form:"start" binding:"required"`
	End       time.Time `form:"end" binding:"required,gtfield=Start"`
	ExcludeID string    `form:"exclude_id" binding:"omitempty,uuid"`
}
