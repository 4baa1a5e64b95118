//go:build unit

package schedule_test

import (
	"testing"
	"time"

	"bookline/internal/domain/schedule"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Tuesday with a 09:00-17:00 window.
var (
	testDate = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	testNow  = time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)
)

func testHours() schedule.WeekSchedule {
	return schedule.WeekSchedule{
		time.Tuesday: {OpenMin: 9 * 60, CloseMin: 17 * 60},
	}
}

func at(hour, min int) time.Time {
	return time.Date(2026, 3, 10, hour, min, 0, 0, time.UTC)
}

func spec(duration, buffer time.Duration, capacity int) schedule.ServiceSpec {
	return schedule.ServiceSpec{
		ID:       uuid.New(),
		Duration: duration,
		Buffer:   buffer,
		Capacity: capacity,
	}
}

func TestBuildSlots(t *testing.T) {
	t.Run("empty day yields full grid", func(t *testing.T) {
		slots := schedule.BuildSlots(spec(time.Hour, 0, 1), testHours(), testDate, nil, testNow)
		require.Len(t, slots, 8)
		assert.Equal(t, at(9, 0), slots[0].Start)
		assert.Equal(t, at(10, 0), slots[0].End)
		assert.Equal(t, at(16, 0), slots[7].Start)
		assert.Equal(t, at(17, 0), slots[7].End)
		for _, s := range slots {
			assert.Equal(t, 1, s.Remaining)
		}
	})

	t.Run("slot ending exactly at close is included", func(t *testing.T) {
		slots := schedule.BuildSlots(spec(8*time.Hour, 0, 1), testHours(), testDate, nil, testNow)
		want := []schedule.Slot{{Start: at(9, 0), End: at(17, 0), Remaining: 1}}
		if diff := cmp.Diff(want, slots); diff != "" {
			t.Errorf("slots mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("booked slot is excluded at capacity one", func(t *testing.T) {
		booked := []schedule.BookedInterval{{Start: at(10, 0), End: at(11, 0)}}
		slots := schedule.BuildSlots(spec(time.Hour, 0, 1), testHours(), testDate, booked, testNow)
		require.Len(t, slots, 7)
		for _, s := range slots {
			assert.NotEqual(t, at(10, 0), s.Start)
		}
	})

	t.Run("capacity two keeps slot with reduced remaining", func(t *testing.T) {
		booked := []schedule.BookedInterval{{Start: at(10, 0), End: at(11, 0)}}
		slots := schedule.BuildSlots(spec(time.Hour, 0, 2), testHours(), testDate, booked, testNow)
		require.Len(t, slots, 8)
		for _, s := range slots {
			if s.Start.Equal(at(10, 0)) {
				assert.Equal(t, 1, s.Remaining)
			} else {
				assert.Equal(t, 2, s.Remaining)
			}
		}
	})

	t.Run("buffer blocks adjacent slots", func(t *testing.T) {
		booked := []schedule.BookedInterval{{Start: at(12, 0), End: at(13, 0)}}
		slots := schedule.BuildSlots(spec(time.Hour, 30*time.Minute, 1), testHours(), testDate, booked, testNow)
		for _, s := range slots {
			assert.NotEqual(t, at(11, 0), s.Start, "slot touching the buffered interval must be excluded")
			assert.NotEqual(t, at(12, 0), s.Start)
			assert.NotEqual(t, at(13, 0), s.Start)
		}
	})

	t.Run("lead time excludes near slots", func(t *testing.T) {
		s := spec(time.Hour, 0, 1)
		s.MinLeadTime = 2 * time.Hour
		now := at(9, 30)
		slots := schedule.BuildSlots(s, testHours(), testDate, nil, now)

		var want []schedule.Slot
		for h := 12; h <= 16; h++ {
			want = append(want, schedule.Slot{Start: at(h, 0), End: at(h+1, 0), Remaining: 1})
		}
		if diff := cmp.Diff(want, slots); diff != "" {
			t.Errorf("slots mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("custom grid step", func(t *testing.T) {
		s := spec(time.Hour, 0, 1)
		s.GridStep = 30 * time.Minute
		slots := schedule.BuildSlots(s, testHours(), testDate, nil, testNow)
		require.Len(t, slots, 15)
		assert.Equal(t, at(9, 30), slots[1].Start)
	})

	t.Run("closed day yields nothing", func(t *testing.T) {
		wednesday := testDate.AddDate(0, 0, 1)
		slots := schedule.BuildSlots(spec(time.Hour, 0, 1), testHours(), wednesday, nil, testNow)
		assert.Empty(t, slots)
	})

	t.Run("degenerate spec yields nothing", func(t *testing.T) {
		assert.Empty(t, schedule.BuildSlots(spec(0, 0, 1), testHours(), testDate, nil, testNow))
		assert.Empty(t, schedule.BuildSlots(spec(time.Hour, 0, 0), testHours(), testDate, nil, testNow))
	})
}

func TestValidateSlot(t *testing.T) {
	s := spec(time.Hour, 0, 1)

	t.Run("inside window", func(t *testing.T) {
		require.NoError(t, schedule.ValidateSlot(s, testHours(), at(10, 0), testNow))
	})

	t.Run("before open", func(t *testing.T) {
		require.ErrorIs(t, schedule.ValidateSlot(s, testHours(), at(8, 0), testNow), schedule.ErrOutsideWorkingHours)
	})

	t.Run("runs past close", func(t *testing.T) {
		require.ErrorIs(t, schedule.ValidateSlot(s, testHours(), at(16, 30), testNow), schedule.ErrOutsideWorkingHours)
	})

	t.Run("ends exactly at close", func(t *testing.T) {
		require.NoError(t, schedule.ValidateSlot(s, testHours(), at(16, 0), testNow))
	})

	t.Run("closed day", func(t *testing.T) {
		wednesday := at(10, 0).AddDate(0, 0, 1)
		require.ErrorIs(t, schedule.ValidateSlot(s, testHours(), wednesday, testNow), schedule.ErrOutsideWorkingHours)
	})

	t.Run("lead time", func(t *testing.T) {
		withLead := s
		withLead.MinLeadTime = 4 * time.Hour
		require.ErrorIs(t, schedule.ValidateSlot(withLead, testHours(), at(10, 0), at(9, 0)), schedule.ErrLeadTimeNotMet)
		require.NoError(t, schedule.ValidateSlot(withLead, testHours(), at(14, 0), at(9, 0)))
	})
}
