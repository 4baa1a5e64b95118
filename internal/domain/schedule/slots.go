package schedule

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrOutsideWorkingHours = errors.New("slot outside working hours")
	ErrLeadTimeNotMet      = errors.New("lead time requirement not met")
)

// ServiceSpec carries the scheduling parameters of a service.
type ServiceSpec struct {
	ID          uuid.UUID
	Duration    time.Duration
	Buffer      time.Duration
	Capacity    int
	Active      bool
	GridStep    time.Duration // 0 = Duration
	MinLeadTime time.Duration
}

type BookedInterval struct {
	Start time.Time
	End   time.Time
}

type Slot struct {
	Start     time.Time
	End       time.Time
	Remaining int
}

func (s ServiceSpec) step() time.Duration {
	if s.GridStep > 0 {
		return s.GridStep
	}
	return s.Duration
}

// BuildSlots computes the bookable slots of a service on a given date.
//
// Candidates are generated on a fixed grid from open to close minus the
// service duration; a slot ending exactly at closing time is included.
// Candidates overlapping existing active bookings at or beyond capacity,
// and candidates starting before now plus the minimum lead time, are
// excluded. The result is ordered and recomputed from scratch on every call.
func BuildSlots(spec ServiceSpec, hours WeekSchedule, date time.Time, booked []BookedInterval, now time.Time) []Slot {
	if spec.Capacity <= 0 || spec.Duration <= 0 {
		return nil
	}
	win, ok := hours.WindowFor(date)
	if !ok {
		return nil
	}

	open := win.OpenAt(date)
	close := win.CloseAt(date)
	earliest := now.Add(spec.MinLeadTime)

	var slots []Slot
	for start := open; !start.Add(spec.Duration).After(close); start = start.Add(spec.step()) {
		if start.Before(earliest) {
			continue
		}
		end := start.Add(spec.Duration)
		used := countOverlapping(spec, start, end, booked)
		if used >= spec.Capacity {
			continue
		}
		slots = append(slots, Slot{Start: start, End: end, Remaining: spec.Capacity - used})
	}
	return slots
}

// ValidateSlot checks a concrete start time against working hours and lead
// time; the capacity check happens inside the booking transaction.
func ValidateSlot(spec ServiceSpec, hours WeekSchedule, start, now time.Time) error {
	win, ok := hours.WindowFor(start)
	if !ok {
		return ErrOutsideWorkingHours
	}
	end := start.Add(spec.Duration)
	if start.Before(win.OpenAt(start)) || end.After(win.CloseAt(start)) {
		return ErrOutsideWorkingHours
	}
	if start.Before(now.Add(spec.MinLeadTime)) {
		return ErrLeadTimeNotMet
	}
	return nil
}

// Buffer time pads existing bookings on both sides, so consecutive
// bookings stay separated even when the grid would allow adjacency.
func countOverlapping(spec ServiceSpec, start, end time.Time, booked []BookedInterval) int {
	count := 0
	for _, b := range booked {
		if start.Before(b.End.Add(spec.Buffer)) && b.Start.Before(end.Add(spec.Buffer)) {
			count++
		}
	}
	return count
}
