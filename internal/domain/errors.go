package domain

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by the scheduling core.
// Callers match them with errors.Is; sub-kinds also match their parent kind.
var (
	ErrValidation                    = errors.New("validation error")
	ErrNotFound                      = errors.New("not found")
	ErrBookingConflict               = errors.New("booking conflict")
	ErrAvailabilityViolation         = errors.New("availability violation")
	ErrInvalidTransition             = errors.New("invalid status transition")
	ErrActiveBookingsPreventDeletion = errors.New("active bookings prevent deletion")
	ErrAllocationExhausted           = errors.New("reference allocation exhausted")
)

// Availability violation sub-kinds
var (
	ErrNoCoveringWindow          = subKind("no covering availability window", ErrAvailabilityViolation)
	ErrDurationOutOfBounds       = subKind("duration out of bounds", ErrAvailabilityViolation)
	ErrSlotMisaligned            = subKind("start is not aligned to the slot interval", ErrAvailabilityViolation)
	ErrInsufficientAdvanceNotice = subKind("insufficient advance notice", ErrAvailabilityViolation)
	ErrTooFarInAdvance           = subKind("too far in advance", ErrAvailabilityViolation)
	ErrBufferViolation           = subKind("buffer around an adjacent booking is violated", ErrAvailabilityViolation)
	ErrCapacityExceeded          = subKind("capacity exceeded", ErrAvailabilityViolation)
)

// Not found sub-kinds
var (
	ErrBookingNotFound  = subKind("booking not found", ErrNotFound)
	ErrWindowNotFound   = subKind("availability window not found", ErrNotFound)
	ErrResourceNotFound = subKind("resource not found", ErrNotFound)
	ErrUserNotFound     = subKind("user not found", ErrNotFound)
)

type kindError struct {
	msg    string
	parent error
}

func subKind(msg string, parent error) error {
	return &kindError{msg: msg, parent: parent}
}

func (e *kindError) Error() string {
	return e.msg
}

func (e *kindError) Unwrap() error {
	return e.parent
}

// ConflictError is returned when a proposed interval overlaps a non-terminal booking.
type ConflictError struct {
	BookingID int64
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: overlaps booking id=%d", ErrBookingConflict, e.BookingID)
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrBookingConflict
}

// NewConflictError builds a BookingConflict naming the colliding booking.
func NewConflictError(bookingID int64) error {
	return &ConflictError{BookingID: bookingID}
}

// AvailabilityReason returns the sub-kind code of an availability violation
// (e.g. "no_covering_window") or an empty string for other errors.
func AvailabilityReason(err error) string {
	switch {
	case errors.Is(err, ErrNoCoveringWindow):
		return "no_covering_window"
	case errors.Is(err, ErrDurationOutOfBounds):
		return "duration_out_of_bounds"
	case errors.Is(err, ErrSlotMisaligned):
		return "slot_misaligned"
	case errors.Is(err, ErrInsufficientAdvanceNotice):
		return "insufficient_advance_notice"
	case errors.Is(err, ErrTooFarInAdvance):
		return "too_far_in_advance"
	case errors.Is(err, ErrBufferViolation):
		return "buffer_violation"
	case errors.Is(err, ErrCapacityExceeded):
		return "capacity_exceeded"
	default:
		return ""
	}
}

// IsRejection reports whether err is a scheduling rejection
// (conflict or availability violation) rather than an infrastructure failure.
func IsRejection(err error) bool {
	return errors.Is(err, ErrBookingConflict) || errors.Is(err, ErrAvailabilityViolation)
}
