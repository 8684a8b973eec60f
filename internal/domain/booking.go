package domain

import (
	"fmt"
	"time"
)

// BookingStatus represents the status of a booking
type BookingStatus string

const (
	StatusPending     BookingStatus = "pending"
	StatusConfirmed   BookingStatus = "confirmed"
	StatusInProgress  BookingStatus = "in_progress"
	StatusCompleted   BookingStatus = "completed"
	StatusCancelled   BookingStatus = "cancelled"
	StatusNoShow      BookingStatus = "no_show"
	StatusRescheduled BookingStatus = "rescheduled"
)

// transitions lists the legal target statuses per source status.
// Terminal statuses and the rescheduled audit status have no outgoing edges.
var transitions = map[BookingStatus][]BookingStatus{
	StatusPending:    {StatusConfirmed, StatusCancelled, StatusNoShow, StatusRescheduled},
	StatusConfirmed:  {StatusInProgress, StatusCancelled, StatusNoShow, StatusRescheduled},
	StatusInProgress: {StatusCompleted, StatusCancelled, StatusRescheduled},
}

// IsValid reports whether s is a known status
func (s BookingStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusInProgress, StatusCompleted,
		StatusCancelled, StatusNoShow, StatusRescheduled:
		return true
	}
	return false
}

// IsActive returns true for statuses that hold the resource (pending, confirmed, in_progress)
func (s BookingStatus) IsActive() bool {
	return s == StatusPending || s == StatusConfirmed || s == StatusInProgress
}

// IsTerminal returns true for completed, cancelled and no_show
func (s BookingStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusNoShow
}

// CanTransitionTo reports whether the state machine allows s -> target
func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// ParseBookingStatus converts a string into a BookingStatus
func ParseBookingStatus(raw string) (BookingStatus, error) {
	s := BookingStatus(raw)
	if !s.IsValid() {
		return "", fmt.Errorf("%w: unknown booking status %q", ErrValidation, raw)
	}
	return s, nil
}

// Booking represents a reservation of a resource for a time interval
type Booking struct {
	ID        int64
	TenantID  int64
	Reference string

	ResourceID           int64  // property being viewed/inspected
	RequesterID          int64  // tenant/buyer/applicant
	AssigneeID           *int64 // staff member attending
	AvailabilityWindowID *int64 // window the booking was accepted against

	StartTime       time.Time
	EndTime         time.Time
	DurationMinutes int
	TimeZone        string

	Status BookingStatus
	Notes  *string
	Cost   *float64

	RescheduledFromID *int64
	RescheduledToID   *int64

	ConfirmedAt        *time.Time
	ActualStartAt      *time.Time
	ActualEndAt        *time.Time
	CancelledAt        *time.Time
	CancellationReason *string

	CreatedAt time.Time
	CreatedBy int64
	UpdatedAt time.Time
	UpdatedBy *int64
	DeletedAt *time.Time
	DeletedBy *int64
}

// Interval returns the booked interval
func (b *Booking) Interval() Interval {
	return Interval{Start: b.StartTime, End: b.EndTime}
}

// IsActive returns true if the booking still holds its interval
func (b *Booking) IsActive() bool {
	return b.Status.IsActive() && b.DeletedAt == nil
}

// IsClosed returns true when no further status change is possible
func (b *Booking) IsClosed() bool {
	return b.Status.IsTerminal() || b.Status == StatusRescheduled
}

// TransitionTo moves the booking to target, stamping audit fields.
// It returns ErrInvalidTransition if the state machine forbids the change.
func (b *Booking) TransitionTo(target BookingStatus, at time.Time, actor int64) error {
	if !b.Status.CanTransitionTo(target) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, b.Status, target)
	}

	switch target {
	case StatusConfirmed:
		b.ConfirmedAt = &at
	case StatusInProgress:
		b.ActualStartAt = &at
	case StatusCompleted:
		b.ActualEndAt = &at
	case StatusCancelled:
		b.CancelledAt = &at
	}

	b.Status = target
	b.UpdatedAt = at
	b.UpdatedBy = &actor
	return nil
}

// BookingsFilter filter for listing bookings
type BookingsFilter struct {
	TenantID        int64          // required
	ResourceID      *int64         // optional
	RequesterID     *int64         // optional
	AssigneeID      *int64         // optional
	Status          *BookingStatus // optional
	From            *time.Time     // bookings ending after From
	To              *time.Time     // bookings starting before To
	IncludeInactive bool           // include closed bookings
	Limit           uint64         // 0 = DefaultListLimit
}
