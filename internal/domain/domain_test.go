package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestClaims_Caller(t *testing.T) {
	userID, patientID, doctorID := uuid.New(), uuid.New(), uuid.New()

	t.Run("patient uses patient profile", func(t *testing.T) {
		c, ok := (&Claims{UserID: userID, Role: RolePatient, PatientID: &patientID}).Caller("10.0.0.1", "req-1")
		assert.True(t, ok)
		assert.Equal(t, patientID, c.ID)
		assert.Equal(t, userID, c.UserID)
		assert.Equal(t, "10.0.0.1", c.IP)
		assert.Equal(t, "req-1", c.RequestID)
	})

	t.Run("doctor uses doctor profile", func(t *testing.T) {
		c, ok := (&Claims{UserID: userID, Role: RoleDoctor, DoctorID: &doctorID, PatientID: &patientID}).Caller("", "")
		assert.True(t, ok)
		assert.Equal(t, doctorID, c.ID)
	})

	t.Run("admin uses user id", func(t *testing.T) {
		c, ok := (&Claims{UserID: userID, Role: RoleAdmin}).Caller("", "")
		assert.True(t, ok)
		assert.Equal(t, userID, c.ID)
		assert.True(t, c.IsAdmin())
	})

	t.Run("missing profile", func(t *testing.T) {
		_, ok := (&Claims{UserID: userID, Role: RoleDoctor, PatientID: &patientID}).Caller("", "")
		assert.False(t, ok)
	})

	t.Run("unknown role", func(t *testing.T) {
		_, ok := (&Claims{UserID: userID, Role: "nurse"}).Caller("", "")
		assert.False(t, ok)
	})
}
