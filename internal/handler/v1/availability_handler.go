package v1

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dmehra2102/prod-golang-projects/medflow-scheduling/internal/config"
	"github.com/dmehra2102/prod-golang-projects/medflow-scheduling/internal/service"
)

type AvailabilityService interface {
	CheckAvailability(ctx context.Context, doctorID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) (*service.Availability, error)
	AvailableSlots(ctx context.Context, doctorID uuid.UUID, date time.Time, durationMinutes int) ([]service.Slot, error)
}

type AvailabilityHandler struct {
	svc AvailabilityService
	cfg config.SchedulingConfig
	log *zap.Logger
}

func NewAvailabilityHandler(svc AvailabilityService, cfg config.SchedulingConfig, log *zap.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{svc: svc, cfg: cfg, log: log}
}

type slotsResponse struct {
	DoctorID uuid.UUID      `json:"doctor_id"`
	Date     string         `json:"date"`
	Duration int            `json:"duration"`
	Timezone string         `json:"timezone"`
	Slots    []service.Slot `json:"slots"`
}

// GET /api/v1/doctors/:id/availability?date=YYYY-MM-DD&duration=30
func (h *AvailabilityHandler) Slots(c *gin.Context) {
	doctorID, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	var q availabilityQuery
	if !bindQuery(c, &q) {
		return
	}
	if q.Duration == 0 {
		q.Duration = h.cfg.DefaultSlotMinutes
	}

	// The calendar date is interpreted in the scheduling timezone.
	loc := h.cfg.Location()
	date, err := time.ParseInLocation(time.DateOnly, q.Date, loc)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid date: expected YYYY-MM-DD")
		return
	}

	slots, err := h.svc.AvailableSlots(c.Request.Context(), doctorID, date, q.Duration)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, slotsResponse{
		DoctorID: doctorID,
		Date:     q.Date,
		Duration: q.Duration,
		Timezone: loc.String(),
		Slots:    slots,
	})
}

// GET /api/v1/doctors/:id/availability/check?start=...&end=...
func (h *AvailabilityHandler) Check(c *gin.Context) {
	doctorID, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	var q checkAvailabilityQuery
	if !bindQuery(c, &q) {
		return
	}
	var exclude *uuid.UUID
	if q.ExcludeID != "" {
		id := uuid.MustParse(q.ExcludeID)
		exclude = &id
	}

	res, err := h.svc.CheckAvailability(c.Request.Context(), doctorID, q.Start, q.End, exclude)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, res)
}
