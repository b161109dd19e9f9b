package cache

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/dmehra2102/prod-golang-projects/medflow-scheduling/internal/domain/appointment"
)

const (
	appointmentPrefix        = "appointment"
	patientAppointmentPrefix = "patient_appointments"
	doctorAppointmentPrefix  = "doctor_appointments"
	doctorStatsPrefix        = "doctor_stats"
)

func AppointmentKey(id uuid.UUID) string {
	return fmt.Sprintf("%s:%s", appointmentPrefix, id)
}

// PatientListKey and DoctorListKey embed the normalized filter so each
// distinct filter combination gets its own entry.
func PatientListKey(patientID uuid.UUID, f appointment.ListFilter) string {
	return fmt.Sprintf("%s:%s:%s", patientAppointmentPrefix, patientID, filterKey(f))
}

func DoctorListKey(doctorID uuid.UUID, f appointment.ListFilter) string {
	return fmt.Sprintf("%s:%s:%s", doctorAppointmentPrefix, doctorID, filterKey(f))
}

func DoctorStatsKey(doctorID uuid.UUID) string {
	return fmt.Sprintf("%s:%s", doctorStatsPrefix, doctorID)
}

func patientListPattern(patientID uuid.UUID) string {
	return fmt.Sprintf("%s:%s:*", patientAppointmentPrefix, patientID)
}

func doctorListPattern(doctorID uuid.UUID) string {
	return fmt.Sprintf("%s:%s:*", doctorAppointmentPrefix, doctorID)
}

func filterKey(f appointment.ListFilter) string {
	f.Normalize()
	// Struct field order is fixed, so the encoding is deterministic.
	b, err := json.Marshal(f)
	if err != nil {
		return "unkeyable"
	}
	return string(b)
}
