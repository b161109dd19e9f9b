package repository

import (
	"errors"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/schema"

	"github.com/dmehra2102/prod-golang-projects/medflow-scheduling/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/medflow-scheduling/internal/domain/appointment"
	"github.com/dmehra2102/prod-golang-projects/medflow-scheduling/internal/domain/doctor"
)

// Compile-time interface checks.
var (
	_ appointment.Repository = (*AppointmentRepository)(nil)
	_ doctor.Repository      = (*DoctorRepository)(nil)
	_ domain.Transactor      = (*Transactor)(nil)
)

func TestAppointmentDoctorAssociation(t *testing.T) {
	s, err := schema.Parse(&appointment.Appointment{}, &sync.Map{}, schema.NamingStrategy{})
	require.NoError(t, err)

	rel, ok := s.Relationships.Relations[doctorAssociation]
	require.True(t, ok)
	assert.Equal(t, schema.BelongsTo, rel.Type)
	assert.Equal(t, "clinical.doctors", rel.FieldSchema.Table)
	require.Len(t, rel.References, 1)
	assert.Equal(t, "doctor_id", rel.References[0].ForeignKey.DBName)
	assert.Equal(t, "id", rel.References[0].PrimaryKey.DBName)

	_, isColumn := s.FieldsByDBName["doctor"]
	assert.False(t, isColumn)
}

func TestMapWriteError(t *testing.T) {
	overlap := &pgconn.PgError{Code: pgExclusionViolation, ConstraintName: "appointments_no_overlap"}
	check := &pgconn.PgError{Code: pgCheckViolation, ConstraintName: "appointments_scheduled_interval_check"}
	unique := &pgconn.PgError{Code: "23505"}
	plain := errors.New("connection reset")

	assert.ErrorIs(t, mapWriteError(overlap), appointment.ErrAppointmentOverlap)
	assert.ErrorIs(t, mapWriteError(check), appointment.ErrInvalidInterval)

	err := mapWriteError(unique)
	assert.NotErrorIs(t, err, appointment.ErrAppointmentOverlap)
	assert.ErrorAs(t, err, new(*pgconn.PgError))

	assert.ErrorIs(t, mapWriteError(plain), plain)
}

func TestOrderClause(t *testing.T) {
	tests := []struct {
		name string
		in   appointment.ListFilter
		want string
	}{
		{"defaults", appointment.ListFilter{}, "scheduled_start DESC, id DESC"},
		{"ascending status", appointment.ListFilter{SortBy: appointment.SortByStatus, SortOrder: "ASC"}, "status ASC, id ASC"},
		{"injection attempt falls back", appointment.ListFilter{SortBy: "scheduled_start; DROP TABLE x", SortOrder: "asc"}, "scheduled_start DESC, id DESC"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, orderClause(tt.in))
		})
	}
}
