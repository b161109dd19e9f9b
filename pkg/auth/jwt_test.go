package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmehra2102/prod-golang-projects/medflow-scheduling/internal/config"
	"github.com/dmehra2102/prod-golang-projects/medflow-scheduling/internal/domain"
)

func testManager() *JWTManager {
	return NewJWTManager(config.JWTConfig{
		Secret:         "a-test-secret-that-is-long-enough-for-hs256",
		AccessTokenTTL: 15 * time.Minute,
		Issuer:         "medflow-test",
	})
}

func TestJWTManager_RoundTripPatient(t *testing.T) {
	m := testManager()
	patientID := uuid.New()
	in := &domain.Claims{UserID: uuid.New(), Email: "p@example.com", Role: domain.RolePatient, PatientID: &patientID}

	token, exp, err := m.IssueAccessToken(in)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), exp, 5*time.Second)

	out, err := m.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, in.UserID, out.UserID)
	assert.Equal(t, domain.RolePatient, out.Role)
	require.NotNil(t, out.PatientID)
	assert.Equal(t, patientID, *out.PatientID)
	assert.Nil(t, out.DoctorID)
}

func TestJWTManager_Expired(t *testing.T) {
	m := testManager()
	m.now = func() time.Time { return time.Now().Add(-time.Hour) }
	token, _, err := m.IssueAccessToken(&domain.Claims{UserID: uuid.New(), Role: domain.RoleAdmin})
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestJWTManager_WrongSecret(t *testing.T) {
	token, _, err := testManager().IssueAccessToken(&domain.Claims{UserID: uuid.New(), Role: domain.RoleAdmin})
	require.NoError(t, err)

	other := NewJWTManager(config.JWTConfig{Secret: "another-secret-another-secret-123", Issuer: "medflow-test"})
	_, err = other.ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestJWTManager_UnknownRole(t *testing.T) {
	m := testManager()
	token, _, err := m.IssueAccessToken(&domain.Claims{UserID: uuid.New(), Role: domain.Role("nurse")})
	require.NoError(t, err)

	_, err = m.ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestJWTManager_Garbage(t *testing.T) {
	_, err := testManager().ValidateAccessToken("not.a.token")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
