package doctor

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// clockLayout is the wire format for time-of-day values in working hours.
const clockLayout = "15:04"

// DaySchedule is a single open interval for one weekday. Start and End are
// ignored when Available is false.
type DaySchedule struct {
	Start     *string `json:"start"`
	End       *string `json:"end"`
	Available bool    `json:"available"`
}

// WorkingHours maps a lowercase weekday name ("monday") to its schedule.
type WorkingHours map[string]DaySchedule

// DefaultWorkingHours is Monday to Friday, 09:00-17:00.
func DefaultWorkingHours() WorkingHours {
	open := func() DaySchedule {
		start, end := "09:00", "17:00"
		return DaySchedule{Start: &start, End: &end, Available: true}
	}
	return WorkingHours{
		"monday":    open(),
		"tuesday":   open(),
		"wednesday": open(),
		"thursday":  open(),
		"friday":    open(),
		"saturday":  {Available: false},
		"sunday":    {Available: false},
	}
}

type Doctor struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt *time.Time `gorm:"index" json:"-"`

	UserID         uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex" json:"user_id"`
	FirstName      string    `gorm:"column:first_name;type:varchar(100);not null" json:"first_name"`
	LastName       string    `gorm:"column:last_name;type:varchar(100);not null" json:"last_name"`
	Specialization string    `gorm:"column:specialization;type:varchar(100)" json:"specialization,omitempty"`

	WorkingHours WorkingHours `gorm:"column:working_hours;type:jsonb;serializer:json" json:"working_hours"`
}

func (Doctor) TableName() string {
	return "clinical.doctors"
}

// Validate checks every declared day: an available day needs both bounds
// and start must be before end.
func (wh WorkingHours) Validate() error {
	for day, s := range wh {
		if _, ok := weekdayNames[day]; !ok {
			return fmt.Errorf("%w: unknown weekday %q", ErrInvalidWorkingHours, day)
		}
		if !s.Available {
			continue
		}
		if s.Start == nil || s.End == nil {
			return fmt.Errorf("%w: %s requires start and end", ErrInvalidWorkingHours, day)
		}
		start, err := time.Parse(clockLayout, *s.Start)
		if err != nil {
			return fmt.Errorf("%w: %s start %q", ErrInvalidWorkingHours, day, *s.Start)
		}
		end, err := time.Parse(clockLayout, *s.End)
		if err != nil {
			return fmt.Errorf("%w: %s end %q", ErrInvalidWorkingHours, day, *s.End)
		}
		if !start.Before(end) {
			return fmt.Errorf("%w: %s start must be before end", ErrInvalidWorkingHours, day)
		}
	}
	return nil
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// DayKey returns the working-hours key for the weekday of t.
func DayKey(t time.Time) string {
	return strings.ToLower(t.Weekday().String())
}

// Window is the open interval of a doctor on a specific calendar day.
type Window struct {
	Start time.Time
	End   time.Time
	// Label is the declared "HH:MM - HH:MM" text, used in user-facing reasons.
	Label string
}

// Contains reports whether [start, end) lies within the window.
func (w Window) Contains(start, end time.Time) bool {
	return !start.Before(w.Start) && !end.After(w.End)
}

// WindowFor resolves the open interval for the calendar day of day, in day's
// location. The returned reason is non-empty when the doctor is closed.
func (wh WorkingHours) WindowFor(day time.Time) (Window, string) {
	s, ok := wh[DayKey(day)]
	if !ok {
		return Window{}, "doctor does not have working hours set for this day"
	}
	if !s.Available || s.Start == nil || s.End == nil {
		return Window{}, "doctor not available on this day"
	}

	start, err := clockOn(day, *s.Start)
	if err != nil {
		return Window{}, "doctor working hours are misconfigured for this day"
	}
	end, err := clockOn(day, *s.End)
	if err != nil || !start.Before(end) {
		return Window{}, "doctor working hours are misconfigured for this day"
	}

	return Window{Start: start, End: end, Label: *s.Start + " - " + *s.End}, ""
}

func clockOn(day time.Time, hm string) (time.Time, error) {
	t, err := time.Parse(clockLayout, hm)
	if err != nil {
		return time.Time{}, err
	}
	y, m, d := day.Date()
	return time.Date(y, m, d, t.Hour(), t.Minute(), 0, 0, day.Location()), nil
}
