package domain

import (
	"fmt"
	"math"
	"time"
)

// AvailabilityWindow represents a declared span (possibly recurring) during which
// a resource may be booked, together with its booking constraints.
// ResourceID == nil means the window applies to any resource of the tenant,
// StaffID == nil means it applies to any staff member.
type AvailabilityWindow struct {
	ID         int64
	TenantID   int64
	ResourceID *int64
	StaffID    *int64
	Title      string

	StartTime time.Time
	EndTime   time.Time
	TimeZone  string
	IsAllDay  bool

	Recurrence Recurrence

	MinBookingDurationMinutes int
	MaxBookingDurationMinutes int // 0 = unlimited
	SlotIntervalMinutes       int // 0 = service default
	EnforceSlotAlignment      bool
	BufferBeforeMinutes       int
	BufferAfterMinutes        int
	MinAdvanceNoticeHours     int
	MaxAdvanceBookingDays     int // 0 = unlimited
	MaxConcurrentBookings     int // 0 = unlimited

	CurrentBookings int
	MaxBookings     int // 0 = unlimited
	Utilization     float64

	BasePrice    *float64
	PricePerHour *float64
	Currency     string

	IsActive         bool
	IsPublished      bool
	RequiresApproval bool

	CreatedAt time.Time
	CreatedBy int64
	UpdatedAt time.Time
	UpdatedBy *int64
	DeletedAt *time.Time
	DeletedBy *int64
}

// Validate checks the window invariants
func (w *AvailabilityWindow) Validate() error {
	if !w.StartTime.Before(w.EndTime) {
		return fmt.Errorf("%w: window start must be before end", ErrValidation)
	}
	if _, err := LoadLocation(w.TimeZone); err != nil {
		return err
	}
	if w.MinBookingDurationMinutes < 0 || w.MaxBookingDurationMinutes < 0 {
		return fmt.Errorf("%w: booking duration bounds must not be negative", ErrValidation)
	}
	if w.MaxBookingDurationMinutes > 0 && w.MinBookingDurationMinutes > w.MaxBookingDurationMinutes {
		return fmt.Errorf("%w: min booking duration exceeds max booking duration", ErrValidation)
	}
	if w.SlotIntervalMinutes < 0 || w.SlotIntervalMinutes > MaxSlotIntervalMinutes {
		return fmt.Errorf("%w: slot interval must be within [0, %d]", ErrValidation, MaxSlotIntervalMinutes)
	}
	if w.BufferBeforeMinutes < 0 || w.BufferAfterMinutes < 0 {
		return fmt.Errorf("%w: buffers must not be negative", ErrValidation)
	}
	if w.MinAdvanceNoticeHours < 0 || w.MaxAdvanceBookingDays < 0 {
		return fmt.Errorf("%w: advance rules must not be negative", ErrValidation)
	}
	if w.MaxConcurrentBookings < 0 || w.MaxBookings < 0 {
		return fmt.Errorf("%w: capacity limits must not be negative", ErrValidation)
	}
	if w.MaxBookings > 0 && w.CurrentBookings > w.MaxBookings {
		return fmt.Errorf("%w: max bookings (%d) is below current bookings (%d)", ErrValidation, w.MaxBookings, w.CurrentBookings)
	}
	if (w.BasePrice != nil && *w.BasePrice < 0) || (w.PricePerHour != nil && *w.PricePerHour < 0) {
		return fmt.Errorf("%w: prices must not be negative", ErrValidation)
	}
	return w.Recurrence.Validate()
}

// IsBookable returns true if the window is active, published and not deleted
func (w *AvailabilityWindow) IsBookable() bool {
	return w.IsActive && w.IsPublished && w.DeletedAt == nil
}

// AppliesTo reports whether the window may serve a booking of resourceID
// attended by assigneeID (nil = unassigned)
func (w *AvailabilityWindow) AppliesTo(resourceID int64, assigneeID *int64) bool {
	if w.ResourceID != nil && *w.ResourceID != resourceID {
		return false
	}
	if w.StaffID != nil && assigneeID != nil && *w.StaffID != *assigneeID {
		return false
	}
	return true
}

// HasCapacity returns true if the lifetime booking counter is below the limit
func (w *AvailabilityWindow) HasCapacity() bool {
	return w.MaxBookings == 0 || w.CurrentBookings < w.MaxBookings
}

// SlotInterval returns the slot step, falling back to def
func (w *AvailabilityWindow) SlotInterval(def int) int {
	if w.SlotIntervalMinutes > 0 {
		return w.SlotIntervalMinutes
	}
	return def
}

// CostFor computes the price of a booking of the given length.
// Returns nil when the window carries no pricing.
func (w *AvailabilityWindow) CostFor(durationMinutes int) *float64 {
	if w.BasePrice == nil && w.PricePerHour == nil {
		return nil
	}
	cost := 0.0
	if w.BasePrice != nil {
		cost += *w.BasePrice
	}
	if w.PricePerHour != nil {
		cost += *w.PricePerHour * float64(durationMinutes) / 60
	}
	cost = math.Round(cost*100) / 100
	return &cost
}

// ComputeUtilization returns the percentage of MaxBookings in use
func ComputeUtilization(current, max int) float64 {
	if max <= 0 {
		return 0
	}
	return math.Round(float64(current)/float64(max)*10000) / 100
}

// Coverage is a concrete occurrence of a window
type Coverage struct {
	Window     *AvailabilityWindow
	Occurrence Interval
}

// WindowsFilter filter for listing availability windows
type WindowsFilter struct {
	TenantID       int64     // required
	ResourceID     *int64    // optional, also matches resource-agnostic windows
	StaffID        *int64    // optional
	OnlyBookable   bool      // active + published
	IncludeDeleted bool
	During         *Interval // optional, keeps windows that may occur in the range (see MayOccurIn)
	Unlimited      bool      // ignore Limit
	Limit          uint64    // 0 = DefaultListLimit
}

// LoadLocation resolves an IANA zone label; an empty label means UTC
func LoadLocation(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown time zone %q", ErrValidation, name)
	}
	return loc, nil
}
