package models

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/pkg/ptr"
)

// Request модели

// RecurrenceRequest параметры повторения окна
type RecurrenceRequest struct {
	Type           string  `json:"type"`                     // none, daily, weekly, monthly, yearly
	Interval       int     `json:"interval,omitempty"`       // каждые N периодов, по умолчанию 1
	DaysOfWeek     []int   `json:"daysOfWeek,omitempty"`     // 0 = воскресенье ... 6 = суббота
	DayOfMonth     *int    `json:"dayOfMonth,omitempty"`     // для monthly
	EndDate        *string `json:"endDate,omitempty"`        // "2024-12-31", включительно
	MaxOccurrences *int    `json:"maxOccurrences,omitempty"` // ограничение количества повторений
}

// CreateWindowRequest запрос на создание окна доступности
type CreateWindowRequest struct {
	TenantID int64 `json:"-"`
	UserID   int64 `json:"-"`

	ResourceID *int64    `json:"resourceId,omitempty"`
	StaffID    *int64    `json:"staffId,omitempty"`
	Title      string    `json:"title"`
	StartTime  time.Time `json:"startTime"`
	EndTime    time.Time `json:"endTime"`
	TimeZone   string    `json:"timeZone"`
	IsAllDay   bool      `json:"isAllDay"`

	Recurrence *RecurrenceRequest `json:"recurrence,omitempty"`

	MinBookingDurationMinutes int  `json:"minBookingDurationMinutes"`
	MaxBookingDurationMinutes int  `json:"maxBookingDurationMinutes"`
	SlotIntervalMinutes       int  `json:"slotIntervalMinutes"`
	EnforceSlotAlignment      bool `json:"enforceSlotAlignment"`
	BufferBeforeMinutes       int  `json:"bufferBeforeMinutes"`
	BufferAfterMinutes        int  `json:"bufferAfterMinutes"`
	MinAdvanceNoticeHours     int  `json:"minAdvanceNoticeHours"`
	MaxAdvanceBookingDays     int  `json:"maxAdvanceBookingDays"`
	MaxConcurrentBookings     int  `json:"maxConcurrentBookings"`
	MaxBookings               int  `json:"maxBookings"`

	BasePrice    *float64 `json:"basePrice,omitempty"`
	PricePerHour *float64 `json:"pricePerHour,omitempty"`
	Currency     string   `json:"currency,omitempty"`

	IsActive         *bool `json:"isActive,omitempty"`    // по умолчанию true
	IsPublished      *bool `json:"isPublished,omitempty"` // по умолчанию true
	RequiresApproval bool  `json:"requiresApproval"`
}

// ToDomain конвертирует запрос в доменное окно
func (r *CreateWindowRequest) ToDomain() (*domain.AvailabilityWindow, error) {
	recurrence, err := r.Recurrence.toDomain()
	if err != nil {
		return nil, err
	}

	w := &domain.AvailabilityWindow{
		TenantID:                  r.TenantID,
		ResourceID:                r.ResourceID,
		StaffID:                   r.StaffID,
		Title:                     r.Title,
		StartTime:                 r.StartTime.UTC(),
		EndTime:                   r.EndTime.UTC(),
		TimeZone:                  r.TimeZone,
		IsAllDay:                  r.IsAllDay,
		Recurrence:                recurrence,
		MinBookingDurationMinutes: r.MinBookingDurationMinutes,
		MaxBookingDurationMinutes: r.MaxBookingDurationMinutes,
		SlotIntervalMinutes:       r.SlotIntervalMinutes,
		EnforceSlotAlignment:      r.EnforceSlotAlignment,
		BufferBeforeMinutes:       r.BufferBeforeMinutes,
		BufferAfterMinutes:        r.BufferAfterMinutes,
		MinAdvanceNoticeHours:     r.MinAdvanceNoticeHours,
		MaxAdvanceBookingDays:     r.MaxAdvanceBookingDays,
		MaxConcurrentBookings:     r.MaxConcurrentBookings,
		MaxBookings:               r.MaxBookings,
		BasePrice:                 r.BasePrice,
		PricePerHour:              r.PricePerHour,
		Currency:                  r.Currency,
		IsActive:                  boolOr(r.IsActive, true),
		IsPublished:               boolOr(r.IsPublished, true),
		RequiresApproval:          r.RequiresApproval,
		CreatedBy:                 r.UserID,
	}
	if w.TimeZone == "" {
		w.TimeZone = domain.DefaultTimeZone
	}
	if utf8.RuneCountInString(w.Title) > domain.MaxTitleLength {
		return nil, fmt.Errorf("%w: title is longer than %d characters", domain.ErrValidation, domain.MaxTitleLength)
	}

	return w, nil
}

// UpdateWindowRequest запрос на частичное обновление окна
// Незаданные поля сохраняют текущие значения
type UpdateWindowRequest struct {
	TenantID int64 `json:"-"`
	UserID   int64 `json:"-"`
	WindowID int64 `json:"-"`

	Title     *string    `json:"title,omitempty"`
	StartTime *time.Time `json:"startTime,omitempty"`
	EndTime   *time.Time `json:"endTime,omitempty"`
	TimeZone  *string    `json:"timeZone,omitempty"`
	IsAllDay  *bool      `json:"isAllDay,omitempty"`

	Recurrence *RecurrenceRequest `json:"recurrence,omitempty"`

	MinBookingDurationMinutes *int  `json:"minBookingDurationMinutes,omitempty"`
	MaxBookingDurationMinutes *int  `json:"maxBookingDurationMinutes,omitempty"`
	SlotIntervalMinutes       *int  `json:"slotIntervalMinutes,omitempty"`
	EnforceSlotAlignment      *bool `json:"enforceSlotAlignment,omitempty"`
	BufferBeforeMinutes       *int  `json:"bufferBeforeMinutes,omitempty"`
	BufferAfterMinutes        *int  `json:"bufferAfterMinutes,omitempty"`
	MinAdvanceNoticeHours     *int  `json:"minAdvanceNoticeHours,omitempty"`
	MaxAdvanceBookingDays     *int  `json:"maxAdvanceBookingDays,omitempty"`
	MaxConcurrentBookings     *int  `json:"maxConcurrentBookings,omitempty"`
	MaxBookings               *int  `json:"maxBookings,omitempty"`

	BasePrice    *float64 `json:"basePrice,omitempty"`
	PricePerHour *float64 `json:"pricePerHour,omitempty"`
	Currency     *string  `json:"currency,omitempty"`

	IsActive         *bool `json:"isActive,omitempty"`
	IsPublished      *bool `json:"isPublished,omitempty"`
	RequiresApproval *bool `json:"requiresApproval,omitempty"`
}

// Apply применяет изменения к окну
func (r *UpdateWindowRequest) Apply(w *domain.AvailabilityWindow) error {
	if r.Recurrence != nil {
		recurrence, err := r.Recurrence.toDomain()
		if err != nil {
			return err
		}
		w.Recurrence = recurrence
	}

	setString(&w.Title, r.Title)
	setString(&w.TimeZone, r.TimeZone)
	setString(&w.Currency, r.Currency)
	if r.StartTime != nil {
		w.StartTime = r.StartTime.UTC()
	}
	if r.EndTime != nil {
		w.EndTime = r.EndTime.UTC()
	}

	setBool(&w.IsAllDay, r.IsAllDay)
	setBool(&w.EnforceSlotAlignment, r.EnforceSlotAlignment)
	setBool(&w.IsActive, r.IsActive)
	setBool(&w.IsPublished, r.IsPublished)
	setBool(&w.RequiresApproval, r.RequiresApproval)

	setInt(&w.MinBookingDurationMinutes, r.MinBookingDurationMinutes)
	setInt(&w.MaxBookingDurationMinutes, r.MaxBookingDurationMinutes)
	setInt(&w.SlotIntervalMinutes, r.SlotIntervalMinutes)
	setInt(&w.BufferBeforeMinutes, r.BufferBeforeMinutes)
	setInt(&w.BufferAfterMinutes, r.BufferAfterMinutes)
	setInt(&w.MinAdvanceNoticeHours, r.MinAdvanceNoticeHours)
	setInt(&w.MaxAdvanceBookingDays, r.MaxAdvanceBookingDays)
	setInt(&w.MaxConcurrentBookings, r.MaxConcurrentBookings)
	setInt(&w.MaxBookings, r.MaxBookings)

	if r.BasePrice != nil {
		w.BasePrice = r.BasePrice
	}
	if r.PricePerHour != nil {
		w.PricePerHour = r.PricePerHour
	}

	w.UpdatedBy = ptr.Ptr(r.UserID)
	if utf8.RuneCountInString(w.Title) > domain.MaxTitleLength {
		return fmt.Errorf("%w: title is longer than %d characters", domain.ErrValidation, domain.MaxTitleLength)
	}
	return nil
}

// ListWindowsRequest запрос на получение списка окон
type ListWindowsRequest struct {
	TenantID       int64
	ResourceID     *int64
	StaffID        *int64
	OnlyBookable   bool
	IncludeDeleted bool
	Limit          uint64
}

// ToDomainFilter конвертирует запрос в фильтр
func (r *ListWindowsRequest) ToDomainFilter() domain.WindowsFilter {
	return domain.WindowsFilter{
		TenantID:       r.TenantID,
		ResourceID:     r.ResourceID,
		StaffID:        r.StaffID,
		OnlyBookable:   r.OnlyBookable,
		IncludeDeleted: r.IncludeDeleted,
		Limit:          r.Limit,
	}
}

func (r *RecurrenceRequest) toDomain() (domain.Recurrence, error) {
	if r == nil {
		return domain.Recurrence{Type: domain.RecurrenceNone}, nil
	}

	rec := domain.Recurrence{
		Type:           domain.RecurrenceType(r.Type),
		Interval:       r.Interval,
		DayOfMonth:     r.DayOfMonth,
		MaxOccurrences: r.MaxOccurrences,
	}
	if rec.Type == "" {
		rec.Type = domain.RecurrenceNone
	}
	if rec.IsRecurring() && rec.Interval == 0 {
		rec.Interval = 1
	}
	for _, d := range r.DaysOfWeek {
		rec.DaysOfWeek = append(rec.DaysOfWeek, time.Weekday(d))
	}
	if r.EndDate != nil {
		endDate, err := time.Parse(domain.DateFormat, *r.EndDate)
		if err != nil {
			return rec, fmt.Errorf("%w: recurrence end date must be in format YYYY-MM-DD", domain.ErrValidation)
		}
		rec.EndDate = &endDate
	}

	return rec, rec.Validate()
}

// Response модели

// RecurrenceResponse параметры повторения окна
type RecurrenceResponse struct {
	Type           string  `json:"type"`
	Interval       int     `json:"interval"`
	DaysOfWeek     []int   `json:"daysOfWeek,omitempty"`
	DayOfMonth     *int    `json:"dayOfMonth,omitempty"`
	EndDate        *string `json:"endDate,omitempty"`
	MaxOccurrences *int    `json:"maxOccurrences,omitempty"`
}

// WindowResponse ответ с данными окна доступности
type WindowResponse struct {
	ID         int64     `json:"id"`
	TenantID   int64     `json:"tenantId"`
	ResourceID *int64    `json:"resourceId,omitempty"`
	StaffID    *int64    `json:"staffId,omitempty"`
	Title      string    `json:"title"`
	StartTime  time.Time `json:"startTime"`
	EndTime    time.Time `json:"endTime"`
	TimeZone   string    `json:"timeZone"`
	IsAllDay   bool      `json:"isAllDay"`

	Recurrence RecurrenceResponse `json:"recurrence"`

	MinBookingDurationMinutes int  `json:"minBookingDurationMinutes"`
	MaxBookingDurationMinutes int  `json:"maxBookingDurationMinutes"`
	SlotIntervalMinutes       int  `json:"slotIntervalMinutes"`
	EnforceSlotAlignment      bool `json:"enforceSlotAlignment"`
	BufferBeforeMinutes       int  `json:"bufferBeforeMinutes"`
	BufferAfterMinutes        int  `json:"bufferAfterMinutes"`
	MinAdvanceNoticeHours     int  `json:"minAdvanceNoticeHours"`
	MaxAdvanceBookingDays     int  `json:"maxAdvanceBookingDays"`
	MaxConcurrentBookings     int  `json:"maxConcurrentBookings"`

	CurrentBookings int     `json:"currentBookings"`
	MaxBookings     int     `json:"maxBookings"`
	Utilization     float64 `json:"utilization"`

	BasePrice    *float64 `json:"basePrice,omitempty"`
	PricePerHour *float64 `json:"pricePerHour,omitempty"`
	Currency     string   `json:"currency,omitempty"`

	IsActive         bool `json:"isActive"`
	IsPublished      bool `json:"isPublished"`
	RequiresApproval bool `json:"requiresApproval"`

	CreatedAt time.Time  `json:"createdAt"`
	CreatedBy int64      `json:"createdBy"`
	UpdatedAt time.Time  `json:"updatedAt"`
	DeletedAt *time.Time `json:"deletedAt,omitempty"`
}

// FromDomainWindow конвертирует доменное окно в response
func FromDomainWindow(w *domain.AvailabilityWindow) *WindowResponse {
	resp := &WindowResponse{
		ID:                        w.ID,
		TenantID:                  w.TenantID,
		ResourceID:                w.ResourceID,
		StaffID:                   w.StaffID,
		Title:                     w.Title,
		StartTime:                 w.StartTime,
		EndTime:                   w.EndTime,
		TimeZone:                  w.TimeZone,
		IsAllDay:                  w.IsAllDay,
		MinBookingDurationMinutes: w.MinBookingDurationMinutes,
		MaxBookingDurationMinutes: w.MaxBookingDurationMinutes,
		SlotIntervalMinutes:       w.SlotIntervalMinutes,
		EnforceSlotAlignment:      w.EnforceSlotAlignment,
		BufferBeforeMinutes:       w.BufferBeforeMinutes,
		BufferAfterMinutes:        w.BufferAfterMinutes,
		MinAdvanceNoticeHours:     w.MinAdvanceNoticeHours,
		MaxAdvanceBookingDays:     w.MaxAdvanceBookingDays,
		MaxConcurrentBookings:     w.MaxConcurrentBookings,
		CurrentBookings:           w.CurrentBookings,
		MaxBookings:               w.MaxBookings,
		Utilization:               w.Utilization,
		BasePrice:                 w.BasePrice,
		PricePerHour:              w.PricePerHour,
		Currency:                  w.Currency,
		IsActive:                  w.IsActive,
		IsPublished:               w.IsPublished,
		RequiresApproval:          w.RequiresApproval,
		CreatedAt:                 w.CreatedAt,
		CreatedBy:                 w.CreatedBy,
		UpdatedAt:                 w.UpdatedAt,
		DeletedAt:                 w.DeletedAt,
		Recurrence: RecurrenceResponse{
			Type:           string(w.Recurrence.Type),
			Interval:       w.Recurrence.Interval,
			DayOfMonth:     w.Recurrence.DayOfMonth,
			MaxOccurrences: w.Recurrence.MaxOccurrences,
		},
	}

	for _, d := range w.Recurrence.DaysOfWeek {
		resp.Recurrence.DaysOfWeek = append(resp.Recurrence.DaysOfWeek, int(d))
	}
	if w.Recurrence.EndDate != nil {
		endDate := w.Recurrence.EndDate.Format(domain.DateFormat)
		resp.Recurrence.EndDate = &endDate
	}

	return resp
}

// FromDomainWindowList конвертирует список окон
func FromDomainWindowList(windows []*domain.AvailabilityWindow) []*WindowResponse {
	res := make([]*WindowResponse, 0, len(windows))
	for _, w := range windows {
		res = append(res, FromDomainWindow(w))
	}
	return res
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}
