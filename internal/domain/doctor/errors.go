package doctor

import "errors"

var (
	ErrDoctorNotFound      = errors.New("doctor not found")
	ErrInvalidWorkingHours = errors.New("invalid working hours")
)
