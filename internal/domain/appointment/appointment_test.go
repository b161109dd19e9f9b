package appointment

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

var base = time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC)

func at(d time.Duration) time.Time { return base.Add(d) }

func TestOverlaps_HalfOpen(t *testing.T) {
	a := &Appointment{ScheduledStart: at(0), ScheduledEnd: at(30 * time.Minute)}

	tests := []struct {
		name       string
		start, end time.Time
		want       bool
	}{
		{"identical", at(0), at(30 * time.Minute), true},
		{"contained", at(10 * time.Minute), at(20 * time.Minute), true},
		{"straddles start", at(-15 * time.Minute), at(15 * time.Minute), true},
		{"straddles end", at(15 * time.Minute), at(45 * time.Minute), true},
		{"touches end", at(30 * time.Minute), at(time.Hour), false},
		{"touches start", at(-30 * time.Minute), at(0), false},
		{"disjoint", at(2 * time.Hour), at(3 * time.Hour), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, a.Overlaps(tt.start, tt.end))
		})
	}
}

func TestStateMachine(t *testing.T) {
	allowed := map[AppointmentStatus][]AppointmentStatus{
		StatusScheduled:  {StatusConfirmed, StatusCancelled, StatusNoShow},
		StatusConfirmed:  {StatusInProgress, StatusCancelled, StatusNoShow},
		StatusInProgress: {StatusCompleted, StatusCancelled, StatusNoShow},
	}
	all := []AppointmentStatus{StatusScheduled, StatusConfirmed, StatusInProgress, StatusCompleted, StatusCancelled, StatusNoShow}

	for _, from := range all {
		for _, to := range all {
			a := &Appointment{Status: from}
			want := false
			for _, s := range allowed[from] {
				if s == to {
					want = true
				}
			}
			assert.Equal(t, want, a.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}

	for _, s := range []AppointmentStatus{StatusCompleted, StatusCancelled, StatusNoShow} {
		assert.True(t, s.IsTerminal(), s)
	}
	assert.False(t, StatusNoShow.IsActive())
	assert.False(t, StatusCancelled.IsActive())
	assert.True(t, StatusCompleted.IsActive(), "completed visits still occupy their slot")
}

func TestCanBeCancelled(t *testing.T) {
	window := 2 * time.Hour
	start := at(0)

	tests := []struct {
		name   string
		status AppointmentStatus
		now    time.Time
		want   bool
	}{
		{"three hours ahead", StatusScheduled, start.Add(-3 * time.Hour), true},
		{"exactly the window", StatusScheduled, start.Add(-2 * time.Hour), false},
		{"one hour ahead", StatusConfirmed, start.Add(-time.Hour), false},
		{"already started", StatusInProgress, start.Add(time.Minute), false},
		{"completed", StatusCompleted, start.Add(-24 * time.Hour), false},
		{"cancelled", StatusCancelled, start.Add(-24 * time.Hour), false},
		{"no show is cancellable", StatusNoShow, start.Add(-24 * time.Hour), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &Appointment{Status: tt.status, ScheduledStart: start, ScheduledEnd: start.Add(30 * time.Minute)}
			assert.Equal(t, tt.want, a.CanBeCancelled(tt.now, window))
		})
	}
}

func TestCancel(t *testing.T) {
	a := &Appointment{Status: StatusConfirmed}
	now := at(-5 * time.Hour)

	a.Cancel("conflict at work", CancelledByPatient, now)

	assert.Equal(t, StatusCancelled, a.Status)
	assert.Equal(t, "conflict at work", a.CancellationReason)
	if assert.NotNil(t, a.CancelledBy) {
		assert.Equal(t, CancelledByPatient, *a.CancelledBy)
	}
	if assert.NotNil(t, a.CancelledAt) {
		assert.Equal(t, now, *a.CancelledAt)
	}
}

func TestValidateIntervals(t *testing.T) {
	a := &Appointment{ScheduledStart: at(0), ScheduledEnd: at(0)}
	assert.ErrorIs(t, a.ValidateIntervals(), ErrInvalidInterval)

	a.ScheduledEnd = at(30 * time.Minute)
	assert.NoError(t, a.ValidateIntervals())

	s, e := at(5*time.Minute), at(time.Minute)
	a.ActualStart, a.ActualEnd = &s, &e
	assert.ErrorIs(t, a.ValidateIntervals(), ErrInvalidActualInterval)

	a.ActualEnd = nil
	assert.NoError(t, a.ValidateIntervals(), "an open actual interval is fine")
}

func TestIsOwnedBy(t *testing.T) {
	a := &Appointment{PatientID: uuid.New(), DoctorID: uuid.New()}
	assert.True(t, a.IsOwnedBy(a.PatientID))
	assert.True(t, a.IsOwnedBy(a.DoctorID))
	assert.False(t, a.IsOwnedBy(uuid.New()))
}

func TestListFilter_Normalize(t *testing.T) {
	f := ListFilter{Page: -3, Limit: 500, SortBy: "reason_for_visit", SortOrder: "asc"}
	f.Normalize()

	assert.Equal(t, 1, f.Page)
	assert.Equal(t, DefaultPageSize, f.Limit)
	assert.Equal(t, SortByScheduledStart, f.SortBy)
	assert.Equal(t, SortDesc, f.SortOrder, "only the exact ASC token flips the order")

	f = ListFilter{Page: 3, Limit: 100, SortBy: SortByCreatedAt, SortOrder: SortAsc}
	f.Normalize()
	assert.Equal(t, ListFilter{Page: 3, Limit: 100, SortBy: SortByCreatedAt, SortOrder: SortAsc}, f)
}

func TestNewPagination(t *testing.T) {
	assert.Equal(t, Pagination{Total: 0, Page: 1, Limit: 20, TotalPages: 0}, NewPagination(0, 1, 20))
	assert.Equal(t, 1, NewPagination(20, 1, 20).TotalPages)
	assert.Equal(t, 2, NewPagination(21, 1, 20).TotalPages)
	assert.Equal(t, 0, NewPagination(5, 1, 0).TotalPages)
}
