package schedule

import "time"

// DayWindow is an open/close interval expressed as minutes from midnight.
type DayWindow struct {
	OpenMin  int
	CloseMin int
}

// WeekSchedule maps weekdays to opening windows. A missing weekday means
// the service is closed that day.
type WeekSchedule map[time.Weekday]DayWindow

func (w WeekSchedule) WindowFor(date time.Time) (DayWindow, bool) {
	win, ok := w[date.Weekday()]
	if !ok {
		return DayWindow{}, false
	}
	if win.CloseMin <= win.OpenMin {
		return DayWindow{}, false
	}
	return win, true
}

// OpenAt / CloseAt anchor the window to the calendar date in its location.
func (d DayWindow) OpenAt(date time.Time) time.Time {
	return atMinutes(date, d.OpenMin)
}

func (d DayWindow) CloseAt(date time.Time) time.Time {
	return atMinutes(date, d.CloseMin)
}

func atMinutes(date time.Time, minutes int) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, date.Location()).Add(time.Duration(minutes) * time.Minute)
}
