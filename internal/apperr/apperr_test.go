package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentinelsMatchByKind(t *testing.T) {
	tests := []struct {
		err      error
		sentinel error
	}{
		{NotFound("appointment not found"), ErrNotFound},
		{AccessDenied(), ErrAccessDenied},
		{Conflict("time slot not available"), ErrConflict},
		{InvalidState("cannot update a %s appointment", "completed"), ErrInvalidState},
		{Validation("bad interval"), ErrValidation},
	}
	for _, tt := range tests {
		assert.ErrorIs(t, tt.err, tt.sentinel)
		assert.ErrorIs(t, fmt.Errorf("wrapped: %w", tt.err), tt.sentinel)
		for _, other := range []error{ErrNotFound, ErrAccessDenied, ErrConflict, ErrInvalidState, ErrValidation} {
			if other != tt.sentinel {
				assert.NotErrorIs(t, tt.err, other)
			}
		}
	}
}

func TestMessageBearingErrorsDoNotMatchEachOther(t *testing.T) {
	a := NotFound("doctor not found")
	b := NotFound("appointment not found")
	assert.False(t, errors.Is(a, b))
}

func TestConflictCarriesIDs(t *testing.T) {
	ids := []uuid.UUID{uuid.New(), uuid.New()}
	err := fmt.Errorf("booking: %w", Conflict("time slot not available", ids...))

	var appErr *Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, ids, appErr.Conflicts)
	assert.Equal(t, KindConflict, KindOf(err))
}

func TestErrorUnwrapsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := &Error{Kind: KindConflict, Message: "write rejected", Err: cause}

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "write rejected: connection reset", err.Error())
}

func TestKindOf_Untagged(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(errors.New("boom")))
	assert.Equal(t, Kind(""), KindOf(nil))
}
