package domain

import "time"

// TimeSlot represents a discrete offerable sub-interval of an availability window
type TimeSlot struct {
	StartTime   time.Time
	EndTime     time.Time
	IsAvailable bool
	WindowID    int64
	Cost        *float64
	Reason      string // why the slot is unavailable, empty when available
}

// Interval returns the slot interval
func (s *TimeSlot) Interval() Interval {
	return Interval{Start: s.StartTime, End: s.EndTime}
}

// DurationMinutes returns the slot length in minutes
func (s *TimeSlot) DurationMinutes() int {
	return s.Interval().DurationMinutes()
}

// UnavailableReason returns the reason code stored on a slot for a rejection error
func UnavailableReason(err error) string {
	if err == nil {
		return ""
	}
	if reason := AvailabilityReason(err); reason != "" {
		return reason
	}
	if IsRejection(err) {
		return "booking_conflict"
	}
	return "unknown"
}
