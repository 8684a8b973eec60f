package domain

// EventType names of notifications emitted by the service
type EventType string

const (
	EventBookingCreated      EventType = "booking.created"
	EventBookingConfirmed    EventType = "booking.confirmed"
	EventBookingCancelled    EventType = "booking.cancelled"
	EventBookingCompleted    EventType = "booking.completed"
	EventBookingNoShow       EventType = "booking.no_show"
	EventBookingRescheduled  EventType = "booking.rescheduled"
	EventAvailabilityCreated EventType = "availability.created"
	EventAvailabilityDeleted EventType = "availability.deleted"
)

// EventForStatus returns the event emitted when a booking enters status
func EventForStatus(s BookingStatus) (EventType, bool) {
	switch s {
	case StatusConfirmed:
		return EventBookingConfirmed, true
	case StatusCancelled:
		return EventBookingCancelled, true
	case StatusCompleted:
		return EventBookingCompleted, true
	case StatusNoShow:
		return EventBookingNoShow, true
	}
	return "", false
}
