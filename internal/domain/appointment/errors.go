package appointment

import "errors"

var (
	ErrAppointmentNotFound    = errors.New("appointment not found")
	ErrAppointmentOverlap     = errors.New("appointment overlaps an existing booking")
	ErrInvalidInterval        = errors.New("scheduled end time must be after start time")
	ErrInvalidActualInterval  = errors.New("actual end time must be after start time")
	ErrInvalidAppointmentType = errors.New("invalid appointment type")
)
