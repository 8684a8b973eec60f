package domain

import (
	"fmt"
	"time"
)

// RecurrenceType defines how an availability window repeats
type RecurrenceType string

const (
	RecurrenceNone    RecurrenceType = "none"
	RecurrenceDaily   RecurrenceType = "daily"
	RecurrenceWeekly  RecurrenceType = "weekly"
	RecurrenceMonthly RecurrenceType = "monthly"
	RecurrenceYearly  RecurrenceType = "yearly"
)

// IsValid reports whether t is a known recurrence type
func (t RecurrenceType) IsValid() bool {
	switch t {
	case RecurrenceNone, RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly, RecurrenceYearly:
		return true
	}
	return false
}

// Recurrence describes how a window template repeats.
// Interval is the multiplier of the base period (every N days/weeks/months/years).
// recurrenceEndSlack covers the last calendar day of a series in any zone
const recurrenceEndSlack = 48 * time.Hour

type Recurrence struct {
	Type           RecurrenceType
	Interval       int
	DaysOfWeek     []time.Weekday // weekly only; empty = weekday of the template start
	DayOfMonth     *int           // monthly only; nil = day of the template start
	EndDate        *time.Time     // inclusive, compared by calendar date
	MaxOccurrences *int
}

// IsRecurring returns true if the window is a template
func (r Recurrence) IsRecurring() bool {
	return r.Type != "" && r.Type != RecurrenceNone
}

// Validate checks recurrence parameters
func (r Recurrence) Validate() error {
	if r.Type == "" {
		return nil
	}
	if !r.Type.IsValid() {
		return fmt.Errorf("%w: unknown recurrence type %q", ErrValidation, r.Type)
	}
	if !r.IsRecurring() {
		return nil
	}
	if r.Interval < 0 {
		return fmt.Errorf("%w: recurrence interval must be positive", ErrValidation)
	}
	for _, wd := range r.DaysOfWeek {
		if wd < time.Sunday || wd > time.Saturday {
			return fmt.Errorf("%w: invalid day of week %d", ErrValidation, wd)
		}
	}
	if r.DayOfMonth != nil && (*r.DayOfMonth < 1 || *r.DayOfMonth > 31) {
		return fmt.Errorf("%w: day of month must be within [1, 31]", ErrValidation)
	}
	if r.MaxOccurrences != nil && *r.MaxOccurrences < 1 {
		return fmt.Errorf("%w: max occurrences must be positive", ErrValidation)
	}
	return nil
}

func (r Recurrence) step() int {
	if r.Interval < 1 {
		return 1
	}
	return r.Interval
}

// civilDate is a calendar date without a zone
type civilDate struct {
	year  int
	month time.Month
	day   int
}

func dateOf(t time.Time) civilDate {
	y, m, d := t.Date()
	return civilDate{year: y, month: m, day: d}
}

// dayNumber counts days since 1970-01-01
func (d civilDate) dayNumber() int {
	return int(time.Date(d.year, d.month, d.day, 0, 0, 0, 0, time.UTC).Unix() / 86400)
}

func (d civilDate) weekday() time.Weekday {
	return time.Date(d.year, d.month, d.day, 0, 0, 0, 0, time.UTC).Weekday()
}

func (d civilDate) before(o civilDate) bool {
	return d.dayNumber() < o.dayNumber()
}

func (d civilDate) addDays(n int) civilDate {
	return dateOf(time.Date(d.year, d.month, d.day+n, 0, 0, 0, 0, time.UTC))
}

// mondayOffset: Monday = 0 ... Sunday = 6
func mondayOffset(wd time.Weekday) int {
	return (int(wd) + 6) % 7
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// occursOn reports whether the template starting on first produces an occurrence
// on date d, and returns its zero-based index in the series.
func (r Recurrence) occursOn(first, d civilDate) (int, bool) {
	if d.before(first) {
		return 0, false
	}
	n := r.step()

	switch r.Type {
	case RecurrenceDaily:
		diff := d.dayNumber() - first.dayNumber()
		if diff%n != 0 {
			return 0, false
		}
		return diff / n, true

	case RecurrenceWeekly:
		days := r.weekdays(first)
		if !days[d.weekday()] {
			return 0, false
		}
		anchor := first.dayNumber() - mondayOffset(first.weekday())
		week := (d.dayNumber() - anchor) / 7
		if week%n != 0 {
			return 0, false
		}
		perWeek, beforeFirst, beforeDay := 0, 0, 0
		for wd, ok := range days {
			if !ok {
				continue
			}
			perWeek++
			if mondayOffset(wd) < mondayOffset(first.weekday()) {
				beforeFirst++
			}
			if mondayOffset(wd) < mondayOffset(d.weekday()) {
				beforeDay++
			}
		}
		return (week/n)*perWeek + beforeDay - beforeFirst, true

	case RecurrenceMonthly:
		dom := first.day
		if r.DayOfMonth != nil {
			dom = *r.DayOfMonth
		}
		if d.day != dom {
			return 0, false
		}
		months := (d.year-first.year)*12 + int(d.month-first.month)
		if months%n != 0 {
			return 0, false
		}
		idx := 0
		for k := 0; k < months; k += n {
			y, m := first.year, first.month+time.Month(k)
			month := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
			if dom > daysIn(month.Year(), month.Month()) {
				continue
			}
			if k == 0 && dom < first.day {
				continue
			}
			idx++
		}
		return idx, true

	case RecurrenceYearly:
		if d.month != first.month || d.day != first.day {
			return 0, false
		}
		years := d.year - first.year
		if years%n != 0 {
			return 0, false
		}
		idx := 0
		for k := 0; k < years; k += n {
			if first.day > daysIn(first.year+k, first.month) {
				continue
			}
			idx++
		}
		return idx, true
	}

	return 0, false
}

func (r Recurrence) weekdays(first civilDate) map[time.Weekday]bool {
	days := make(map[time.Weekday]bool, 7)
	for _, wd := range r.DaysOfWeek {
		days[wd] = true
	}
	if len(days) == 0 {
		days[first.weekday()] = true
	}
	return days
}

// Location returns the window time zone, UTC when the label is empty or unknown
func (w *AvailabilityWindow) Location() *time.Location {
	loc, err := LoadLocation(w.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Occurrences returns the concrete occurrences of the window overlapping rng.
// Recurring windows are expanded lazily: only calendar dates that can produce
// an occurrence touching rng are visited.
func (w *AvailabilityWindow) Occurrences(rng Interval) []Interval {
	if !rng.IsValid() {
		return nil
	}

	base := Interval{Start: w.StartTime, End: w.EndTime}
	if !w.Recurrence.IsRecurring() {
		if Overlaps(base, rng) {
			return []Interval{base}
		}
		return nil
	}

	loc := w.Location()
	tmplStart := w.StartTime.In(loc)
	length := w.EndTime.Sub(w.StartTime)
	first := dateOf(tmplStart)

	from := dateOf(rng.Start.Add(-length).In(loc))
	if from.before(first) {
		from = first
	}
	to := dateOf(rng.End.In(loc))

	if w.Recurrence.EndDate != nil {
		if end := dateOf(w.Recurrence.EndDate.In(loc)); end.before(to) {
			to = end
		}
	}

	var res []Interval
	for d := from; !to.before(d); d = d.addDays(1) {
		idx, ok := w.Recurrence.occursOn(first, d)
		if !ok {
			continue
		}
		if w.Recurrence.MaxOccurrences != nil && idx >= *w.Recurrence.MaxOccurrences {
			continue
		}
		occ := w.occurrenceOn(d, tmplStart, length, loc)
		if Overlaps(occ, rng) {
			res = append(res, occ.UTC())
		}
	}
	return res
}

// CoveringOccurrence returns the occurrence fully containing iv
func (w *AvailabilityWindow) CoveringOccurrence(iv Interval) (Interval, bool) {
	for _, occ := range w.Occurrences(iv) {
		if Contains(occ, iv) {
			return occ, true
		}
	}
	return Interval{}, false
}

// MayOccurIn is a cheap prefilter for Occurrences: false means the window has
// no occurrence overlapping rng. The end date of a recurring window is widened
// by the occurrence length plus recurrenceEndSlack to absorb zone offsets.
// The storage query applies the same condition.
func (w *AvailabilityWindow) MayOccurIn(rng Interval) bool {
	if !w.Recurrence.IsRecurring() {
		return Overlaps(Interval{Start: w.StartTime, End: w.EndTime}, rng)
	}
	if !w.StartTime.Before(rng.End) {
		return false
	}
	if w.Recurrence.EndDate == nil {
		return true
	}
	lastEnd := w.Recurrence.EndDate.Add(w.EndTime.Sub(w.StartTime) + recurrenceEndSlack)
	return lastEnd.After(rng.Start)
}

func (w *AvailabilityWindow) occurrenceOn(d civilDate, tmplStart time.Time, length time.Duration, loc *time.Location) Interval {
	if w.IsAllDay {
		days := int((length + 24*time.Hour - 1) / (24 * time.Hour))
		if days < 1 {
			days = 1
		}
		start := time.Date(d.year, d.month, d.day, 0, 0, 0, 0, loc)
		return Interval{Start: start, End: start.AddDate(0, 0, days)}
	}
	start := time.Date(d.year, d.month, d.day, tmplStart.Hour(), tmplStart.Minute(), tmplStart.Second(), 0, loc)
	return Interval{Start: start, End: start.Add(length)}
}
