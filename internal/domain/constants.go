package domain

// Default configuration values
const (
	DefaultSlotIntervalMinutes  = 30
	DefaultListLimit            = 100
	DefaultReferenceMaxAttempts = 5
	DefaultTimeZone             = "UTC"
)

// Business validation constants
const (
	MaxSlotIntervalMinutes      = 1440 // 1 day
	MaxBookingDurationMinutes   = 1440
	MaxListLimit                = 1000
	MaxAvailabilityRangeDays    = 62
	MaxNotesLength              = 1000
	MaxCancellationReasonLength = 500
	MaxTitleLength              = 255
)

// Reference format constants
const (
	ReferencePrefix      = "BK"
	ReferenceDateFormat  = "20060102"
	MaxReferenceSequence = 9999
)

// Time format constants
const (
	DateFormat = "2006-01-02" // YYYY-MM-DD
)

// ActiveStatuses список статусов, удерживающих интервал ресурса
// Используется при поиске пересечений и подсчёте занятости окна
var ActiveStatuses = []BookingStatus{
	StatusPending,
	StatusConfirmed,
	StatusInProgress,
}

// ClosedStatuses список статусов, из которых нет переходов
var ClosedStatuses = []BookingStatus{
	StatusCompleted,
	StatusCancelled,
	StatusNoShow,
	StatusRescheduled,
}
