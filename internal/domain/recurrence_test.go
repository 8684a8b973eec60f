package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SchedulingService/pkg/ptr"
)

func window(start, end time.Time, rec Recurrence) *AvailabilityWindow {
	return &AvailabilityWindow{StartTime: start, EndTime: end, TimeZone: "UTC", Recurrence: rec}
}

func day(y int, m time.Month, d, h, min int) time.Time {
	return time.Date(y, m, d, h, min, 0, 0, time.UTC)
}

func dayRange(y int, m time.Month, d int) Interval {
	start := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return Interval{Start: start, End: start.Add(24 * time.Hour)}
}

func TestOccurrences_NonRecurring(t *testing.T) {
	w := window(day(2024, 1, 15, 9, 0), day(2024, 1, 15, 17, 0), Recurrence{Type: RecurrenceNone})

	occ := w.Occurrences(dayRange(2024, 1, 15))
	require.Len(t, occ, 1)
	assert.Equal(t, day(2024, 1, 15, 9, 0), occ[0].Start)

	assert.Empty(t, w.Occurrences(dayRange(2024, 1, 16)))
}

func TestOccurrences_Daily(t *testing.T) {
	w := window(day(2024, 1, 15, 9, 0), day(2024, 1, 15, 12, 0), Recurrence{Type: RecurrenceDaily, Interval: 2})

	assert.Len(t, w.Occurrences(dayRange(2024, 1, 17)), 1)
	assert.Empty(t, w.Occurrences(dayRange(2024, 1, 16)))
	assert.Empty(t, w.Occurrences(dayRange(2024, 1, 13)), "before the template start")

	occ := w.Occurrences(dayRange(2025, 3, 1))
	// 2024-01-15 + 411 days; 411 is odd
	assert.Empty(t, occ)
	assert.Len(t, w.Occurrences(dayRange(2025, 3, 2)), 1)
}

func TestOccurrences_WeeklyDaysOfWeek(t *testing.T) {
	// 2024-01-15 is a Monday
	rec := Recurrence{Type: RecurrenceWeekly, Interval: 1, DaysOfWeek: []time.Weekday{time.Monday, time.Wednesday}}
	w := window(day(2024, 1, 15, 9, 0), day(2024, 1, 15, 10, 0), rec)

	assert.Len(t, w.Occurrences(dayRange(2024, 1, 17)), 1)
	assert.Empty(t, w.Occurrences(dayRange(2024, 1, 18)))
	assert.Len(t, w.Occurrences(dayRange(2024, 1, 22)), 1)
}

func TestOccurrences_BiWeeklyWithMaxOccurrences(t *testing.T) {
	rec := Recurrence{Type: RecurrenceWeekly, Interval: 2, MaxOccurrences: ptr.Ptr(3)}
	w := window(day(2024, 1, 15, 9, 0), day(2024, 1, 15, 10, 0), rec)

	assert.Len(t, w.Occurrences(dayRange(2024, 1, 15)), 1)
	assert.Empty(t, w.Occurrences(dayRange(2024, 1, 22)))
	assert.Len(t, w.Occurrences(dayRange(2024, 1, 29)), 1)
	assert.Len(t, w.Occurrences(dayRange(2024, 2, 12)), 1)
	assert.Empty(t, w.Occurrences(dayRange(2024, 2, 26)), "fourth occurrence exceeds the limit")
}

func TestOccurrences_MonthlySkipsShortMonths(t *testing.T) {
	rec := Recurrence{Type: RecurrenceMonthly, Interval: 1, MaxOccurrences: ptr.Ptr(2)}
	w := window(day(2024, 1, 31, 9, 0), day(2024, 1, 31, 10, 0), rec)

	assert.Empty(t, w.Occurrences(dayRange(2024, 2, 29)))
	assert.Len(t, w.Occurrences(dayRange(2024, 3, 31)), 1)
	assert.Empty(t, w.Occurrences(dayRange(2024, 5, 31)), "third occurrence exceeds the limit")
}

func TestOccurrences_YearlyLeapDay(t *testing.T) {
	w := window(day(2024, 2, 29, 9, 0), day(2024, 2, 29, 10, 0), Recurrence{Type: RecurrenceYearly, Interval: 1})

	assert.Empty(t, w.Occurrences(dayRange(2025, 2, 28)))
	assert.Len(t, w.Occurrences(dayRange(2028, 2, 29)), 1)
}

func TestOccurrences_EndDateIsInclusive(t *testing.T) {
	rec := Recurrence{Type: RecurrenceDaily, Interval: 1, EndDate: ptr.Ptr(day(2024, 1, 20, 0, 0))}
	w := window(day(2024, 1, 15, 9, 0), day(2024, 1, 15, 10, 0), rec)

	assert.Len(t, w.Occurrences(dayRange(2024, 1, 20)), 1)
	assert.Empty(t, w.Occurrences(dayRange(2024, 1, 21)))
}

func TestOccurrences_RespectsTimeZone(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Moscow")
	require.NoError(t, err)

	start := time.Date(2024, 1, 15, 9, 0, 0, 0, loc)
	w := &AvailabilityWindow{
		StartTime:  start.UTC(),
		EndTime:    start.Add(2 * time.Hour).UTC(),
		TimeZone:   "Europe/Moscow",
		Recurrence: Recurrence{Type: RecurrenceDaily, Interval: 1},
	}

	occ := w.Occurrences(dayRange(2024, 1, 16))
	require.Len(t, occ, 1)
	assert.Equal(t, day(2024, 1, 16, 6, 0), occ[0].Start)
}

func TestOccurrences_OvernightTemplate(t *testing.T) {
	w := window(day(2024, 1, 15, 22, 0), day(2024, 1, 16, 2, 0), Recurrence{Type: RecurrenceDaily, Interval: 1})

	occ := w.Occurrences(Interval{day(2024, 1, 18, 0, 0), day(2024, 1, 18, 1, 0)})
	require.Len(t, occ, 1)
	assert.Equal(t, day(2024, 1, 17, 22, 0), occ[0].Start)
}

func TestCoveringOccurrence(t *testing.T) {
	w := window(day(2024, 1, 15, 9, 0), day(2024, 1, 15, 17, 0), Recurrence{Type: RecurrenceDaily, Interval: 1})

	occ, ok := w.CoveringOccurrence(Interval{day(2024, 1, 20, 10, 0), day(2024, 1, 20, 11, 0)})
	require.True(t, ok)
	assert.Equal(t, day(2024, 1, 20, 9, 0), occ.Start)

	_, ok = w.CoveringOccurrence(Interval{day(2024, 1, 20, 16, 30), day(2024, 1, 20, 17, 30)})
	assert.False(t, ok)
}

func TestOccurrences_AllDay(t *testing.T) {
	w := window(day(2024, 1, 15, 0, 0), day(2024, 1, 16, 0, 0), Recurrence{Type: RecurrenceWeekly, Interval: 1})
	w.IsAllDay = true

	occ := w.Occurrences(dayRange(2024, 1, 22))
	require.Len(t, occ, 1)
	assert.Equal(t, Interval{day(2024, 1, 22, 0, 0), day(2024, 1, 23, 0, 0)}, occ[0])
}

func TestRecurrenceValidate(t *testing.T) {
	assert.NoError(t, Recurrence{}.Validate())
	assert.NoError(t, Recurrence{Type: RecurrenceWeekly, Interval: 1}.Validate())
	assert.ErrorIs(t, Recurrence{Type: "hourly"}.Validate(), ErrValidation)
	assert.ErrorIs(t, Recurrence{Type: RecurrenceMonthly, DayOfMonth: ptr.Ptr(32)}.Validate(), ErrValidation)
	assert.ErrorIs(t, Recurrence{Type: RecurrenceDaily, MaxOccurrences: ptr.Ptr(0)}.Validate(), ErrValidation)
}

func TestMayOccurIn(t *testing.T) {
	jan15 := dayRange(2024, 1, 15)

	tests := []struct {
		name string
		w    *AvailabilityWindow
		want bool
	}{
		{
			name: "single window on the day",
			w:    window(day(2024, 1, 15, 9, 0), day(2024, 1, 15, 17, 0), Recurrence{}),
			want: true,
		},
		{
			name: "single window in the past",
			w:    window(day(2020, 1, 15, 9, 0), day(2020, 1, 15, 17, 0), Recurrence{Type: RecurrenceNone}),
			want: false,
		},
		{
			name: "single window ending at the range start",
			w:    window(day(2024, 1, 14, 9, 0), day(2024, 1, 15, 0, 0), Recurrence{}),
			want: false,
		},
		{
			name: "open-ended series started long ago",
			w:    window(day(2019, 3, 1, 9, 0), day(2019, 3, 1, 17, 0), Recurrence{Type: RecurrenceDaily, Interval: 1}),
			want: true,
		},
		{
			name: "series starting after the range",
			w:    window(day(2024, 2, 1, 9, 0), day(2024, 2, 1, 17, 0), Recurrence{Type: RecurrenceDaily, Interval: 1}),
			want: false,
		},
		{
			name: "series ended years ago",
			w: window(day(2019, 3, 1, 9, 0), day(2019, 3, 1, 17, 0),
				Recurrence{Type: RecurrenceDaily, Interval: 1, EndDate: ptr.Ptr(day(2020, 1, 1, 0, 0))}),
			want: false,
		},
		{
			name: "overnight occurrence on the last day of a series",
			w: window(day(2024, 1, 1, 22, 0), day(2024, 1, 2, 2, 0),
				Recurrence{Type: RecurrenceDaily, Interval: 1, EndDate: ptr.Ptr(day(2024, 1, 14, 0, 0))}),
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.w.MayOccurIn(jan15))
			if !tt.want {
				assert.Empty(t, tt.w.Occurrences(jan15))
			}
		})
	}
}
