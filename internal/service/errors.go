package service

import (
	"errors"
	"fmt"

	"github.com/dmehra2102/prod-golang-projects/medflow-scheduling/internal/apperr"
	"github.com/dmehra2102/prod-golang-projects/medflow-scheduling/internal/domain/appointment"
	"github.com/dmehra2102/prod-golang-projects/medflow-scheduling/internal/domain/doctor"
)

const (
	msgAppointmentNotFound = "appointment not found"
	msgDoctorNotFound      = "doctor not found"
	msgSlotUnavailable     = "time slot not available: "
	msgSlotConflicts       = "time slot has scheduling conflicts"
)

// translate maps repository sentinels onto tagged errors. Anything it does
// not recognise is wrapped with op and surfaces as an internal error.
func translate(op string, err error) error {
	if err == nil {
		return nil
	}
	var tagged *apperr.Error
	switch {
	case errors.As(err, &tagged):
		return err
	case errors.Is(err, appointment.ErrAppointmentNotFound):
		return apperr.NotFound(msgAppointmentNotFound)
	case errors.Is(err, doctor.ErrDoctorNotFound):
		return apperr.NotFound(msgDoctorNotFound)
	case errors.Is(err, appointment.ErrAppointmentOverlap):
		// The storage constraint fired after the in-transaction check passed.
		return apperr.Conflict(msgSlotUnavailable + msgSlotConflicts)
	case errors.Is(err, appointment.ErrInvalidInterval), errors.Is(err, appointment.ErrInvalidActualInterval):
		return apperr.Validation("%s", err.Error())
	}
	return fmt.Errorf("%s: %w", op, err)
}
