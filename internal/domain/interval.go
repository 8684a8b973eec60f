package domain

import "time"

// Interval is a half-open time interval [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// NewInterval builds an interval from a start and a duration in minutes.
func NewInterval(start time.Time, durationMinutes int) Interval {
	return Interval{Start: start, End: AddMinutes(start, durationMinutes)}
}

// Overlaps is the single overlap test of the service.
// Intervals that only touch (a.End == b.Start) do not overlap.
func Overlaps(a, b Interval) bool {
	return a.Start.Before(b.End) && a.End.After(b.Start)
}

// Contains reports whether outer fully covers inner.
func Contains(outer, inner Interval) bool {
	return !inner.Start.Before(outer.Start) && !inner.End.After(outer.End)
}

// AddMinutes shifts t by n minutes.
func AddMinutes(t time.Time, n int) time.Time {
	return t.Add(time.Duration(n) * time.Minute)
}

// IsValid reports whether Start < End.
func (i Interval) IsValid() bool {
	return i.Start.Before(i.End)
}

// DurationMinutes returns the length of the interval in whole minutes.
func (i Interval) DurationMinutes() int {
	return int(i.End.Sub(i.Start) / time.Minute)
}

// Intersect clips i to other. ok is false when they do not overlap.
func (i Interval) Intersect(other Interval) (Interval, bool) {
	if !Overlaps(i, other) {
		return Interval{}, false
	}
	res := i
	if other.Start.After(res.Start) {
		res.Start = other.Start
	}
	if other.End.Before(res.End) {
		res.End = other.End
	}
	return res, true
}

// Expand widens the interval by the given minutes on each side.
func (i Interval) Expand(beforeMinutes, afterMinutes int) Interval {
	return Interval{
		Start: AddMinutes(i.Start, -beforeMinutes),
		End:   AddMinutes(i.End, afterMinutes),
	}
}

// UTC returns the interval with both bounds normalised to UTC.
func (i Interval) UTC() Interval {
	return Interval{Start: i.Start.UTC(), End: i.End.UTC()}
}
