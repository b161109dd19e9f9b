package v1

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dmehra2102/prod-golang-projects/medflow-scheduling/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/medflow-scheduling/internal/domain/appointment"
)

type AppointmentService interface {
	CreateAppointment(ctx context.Context, caller domain.Caller, cmd *appointment.CreateAppointmentCommand) (*appointment.Appointment, error)
	GetAppointment(ctx context.Context, caller domain.Caller, id uuid.UUID) (*appointment.Appointment, error)
	ListPatientAppointments(ctx context.Context, caller domain.Caller, patientID uuid.UUID, filter appointment.ListFilter) (*appointment.PagedAppointments, error)
	ListDoctorAppointments(ctx context.Context, caller domain.Caller, doctorID uuid.UUID, filter appointment.ListFilter) (*appointment.PagedAppointments, error)
	UpdateAppointment(ctx context.Context, caller domain.Caller, id uuid.UUID, cmd *appointment.UpdateAppointmentCommand) (*appointment.Appointment, error)
	RescheduleAppointment(ctx context.Context, caller domain.Caller, id uuid.UUID, cmd *appointment.RescheduleAppointmentCommand) (*appointment.Appointment, error)
	AcceptAppointment(ctx context.Context, caller domain.Caller, id uuid.UUID) (*appointment.Appointment, error)
	CancelAppointment(ctx context.Context, caller domain.Caller, id uuid.UUID, cmd *appointment.CancelAppointmentCommand) (*appointment.Appointment, error)
	DoctorStatistics(ctx context.Context, caller domain.Caller, doctorID uuid.UUID) (*appointment.DoctorStats, error)
}

type AppointmentHandler struct {
	svc AppointmentService
	log *zap.Logger
}

func NewAppointmentHandler(svc AppointmentService, log *zap.Logger) *AppointmentHandler {
	return &AppointmentHandler{svc: svc, log: log}
}

// POST /api/v1/appointments
func (h *AppointmentHandler) Create(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	var req createAppointmentRequest
	if !bindJSON(c, &req) {
		return
	}

	a, err := h.svc.CreateAppointment(c.Request.Context(), caller, req.command())
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondCreated(c, a)
}

// GET /api/v1/appointments/:id
func (h *AppointmentHandler) Get(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	a, err := h.svc.GetAppointment(c.Request.Context(), caller, id)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, a)
}

// GET /api/v1/appointments lists the calling patient's appointments.
func (h *AppointmentHandler) ListForPatient(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	h.listPatient(c, caller, caller.ID)
}

// GET /api/v1/admin/patients/:id/appointments
func (h *AppointmentHandler) AdminListForPatient(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	patientID, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	h.listPatient(c, caller, patientID)
}

func (h *AppointmentHandler) listPatient(c *gin.Context, caller domain.Caller, patientID uuid.UUID) {
	var q listAppointmentsQuery
	if !bindQuery(c, &q) {
		return
	}

	page, err := h.svc.ListPatientAppointments(c.Request.Context(), caller, patientID, q.filter())
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, page)
}

// GET /api/v1/doctor/appointments lists the calling doctor's appointments.
func (h *AppointmentHandler) ListForDoctor(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	h.listDoctor(c, caller, caller.ID)
}

// GET /api/v1/admin/doctors/:id/appointments
func (h *AppointmentHandler) AdminListForDoctor(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	doctorID, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	h.listDoctor(c, caller, doctorID)
}

func (h *AppointmentHandler) listDoctor(c *gin.Context, caller domain.Caller, doctorID uuid.UUID) {
	var q listAppointmentsQuery
	if !bindQuery(c, &q) {
		return
	}

	page, err := h.svc.ListDoctorAppointments(c.Request.Context(), caller, doctorID, q.filter())
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, page)
}

// PATCH /api/v1/appointments/:id
func (h *AppointmentHandler) Update(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	var req updateAppointmentRequest
	if !bindJSON(c, &req) {
		return
	}

	a, err := h.svc.UpdateAppointment(c.Request.Context(), caller, id, req.command())
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, a)
}

// POST /api/v1/appointments/:id/reschedule
func (h *AppointmentHandler) Reschedule(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	var req rescheduleAppointmentRequest
	if !bindJSON(c, &req) {
		return
	}

	a, err := h.svc.RescheduleAppointment(c.Request.Context(), caller, id, &appointment.RescheduleAppointmentCommand{
		ScheduledStart: req.ScheduledStart,
		ScheduledEnd:   req.ScheduledEnd,
	})
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, a)
}

// POST /api/v1/appointments/:id/accept
func (h *AppointmentHandler) Accept(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	a, err := h.svc.AcceptAppointment(c.Request.Context(), caller, id)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, a)
}

// POST /api/v1/appointments/:id/cancel
func (h *AppointmentHandler) Cancel(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	var req cancelAppointmentRequest
	if !bindJSON(c, &req) {
		return
	}

	a, err := h.svc.CancelAppointment(c.Request.Context(), caller, id, &appointment.CancelAppointmentCommand{Reason: req.Reason})
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, a)
}

// GET /api/v1/doctor/statistics
func (h *AppointmentHandler) Statistics(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	h.statistics(c, caller, caller.ID)
}

// GET /api/v1/admin/doctors/:id/statistics
func (h *AppointmentHandler) AdminStatistics(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	doctorID, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	h.statistics(c, caller, doctorID)
}

func (h *AppointmentHandler) statistics(c *gin.Context, caller domain.Caller, doctorID uuid.UUID) {
	stats, err := h.svc.DoctorStatistics(c.Request.Context(), caller, doctorID)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, stats)
}
