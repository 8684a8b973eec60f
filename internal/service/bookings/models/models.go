package models

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

// Request модели

// StatusChangeRequest запрос на смену статуса бронирования (confirm, check-in, check-out, no-show)
type StatusChangeRequest struct {
	TenantID  int64
	UserID    int64
	BookingID int64
}

// CancelBookingRequest запрос на отмену бронирования
type CancelBookingRequest struct {
	TenantID           int64   `json:"-"`
	UserID             int64   `json:"-"`
	BookingID          int64   `json:"-"`
	CancellationReason *string `json:"cancellationReason,omitempty"`
}

// Validate проверяет запрос
func (r *CancelBookingRequest) Validate() error {
	if r.CancellationReason != nil && utf8.RuneCountInString(*r.CancellationReason) > domain.MaxCancellationReasonLength {
		return fmt.Errorf("%w: cancellation reason is longer than %d characters",
			domain.ErrValidation, domain.MaxCancellationReasonLength)
	}
	return nil
}

// ListBookingsRequest запрос на получение бронирований с фильтрацией
type ListBookingsRequest struct {
	TenantID        int64
	ResourceID      *int64
	RequesterID     *int64
	AssigneeID      *int64
	Status          *string
	From            *time.Time
	To              *time.Time
	IncludeInactive bool
	Limit           uint64
}

// ToDomainFilter конвертирует request в domain фильтр
func (r *ListBookingsRequest) ToDomainFilter() (domain.BookingsFilter, error) {
	filter := domain.BookingsFilter{
		TenantID:        r.TenantID,
		ResourceID:      r.ResourceID,
		RequesterID:     r.RequesterID,
		AssigneeID:      r.AssigneeID,
		From:            r.From,
		To:              r.To,
		IncludeInactive: r.IncludeInactive,
		Limit:           r.Limit,
	}

	// Конвертируем статус если указан
	if r.Status != nil {
		status, err := domain.ParseBookingStatus(*r.Status)
		if err != nil {
			return filter, err
		}
		filter.Status = &status
	}

	if r.From != nil && r.To != nil && !r.From.Before(*r.To) {
		return filter, fmt.Errorf("%w: 'from' must be before 'to'", domain.ErrValidation)
	}
	if r.Limit > domain.MaxListLimit {
		filter.Limit = domain.MaxListLimit
	}

	return filter, nil
}

// Response модели

// BookingResponse ответ с данными бронирования
type BookingResponse struct {
	ID        int64  `json:"id"`
	TenantID  int64  `json:"tenantId"`
	Reference string `json:"reference"`

	ResourceID           int64  `json:"resourceId"`
	RequesterID          int64  `json:"requesterId"`
	AssigneeID           *int64 `json:"assigneeId,omitempty"`
	AvailabilityWindowID *int64 `json:"availabilityWindowId,omitempty"`

	StartTime       time.Time `json:"startTime"`
	EndTime         time.Time `json:"endTime"`
	DurationMinutes int       `json:"durationMinutes"`
	TimeZone        string    `json:"timeZone"`

	Status string   `json:"status"`
	Notes  *string  `json:"notes,omitempty"`
	Cost   *float64 `json:"cost,omitempty"`

	RescheduledFromID *int64 `json:"rescheduledFromId,omitempty"`
	RescheduledToID   *int64 `json:"rescheduledToId,omitempty"`

	ConfirmedAt        *time.Time `json:"confirmedAt,omitempty"`
	ActualStartAt      *time.Time `json:"actualStartAt,omitempty"`
	ActualEndAt        *time.Time `json:"actualEndAt,omitempty"`
	CancelledAt        *time.Time `json:"cancelledAt,omitempty"`
	CancellationReason *string    `json:"cancellationReason,omitempty"`

	CreatedAt time.Time  `json:"createdAt"`
	CreatedBy int64      `json:"createdBy"`
	UpdatedAt time.Time  `json:"updatedAt"`
	UpdatedBy *int64     `json:"updatedBy,omitempty"`
	DeletedAt *time.Time `json:"deletedAt,omitempty"`
}

// FromDomainBooking конвертирует domain.Booking в BookingResponse
func FromDomainBooking(b *domain.Booking) *BookingResponse {
	return &BookingResponse{
		ID:                   b.ID,
		TenantID:             b.TenantID,
		Reference:            b.Reference,
		ResourceID:           b.ResourceID,
		RequesterID:          b.RequesterID,
		AssigneeID:           b.AssigneeID,
		AvailabilityWindowID: b.AvailabilityWindowID,
		StartTime:            b.StartTime,
		EndTime:              b.EndTime,
		DurationMinutes:      b.DurationMinutes,
		TimeZone:             b.TimeZone,
		Status:               string(b.Status),
		Notes:                b.Notes,
		Cost:                 b.Cost,
		RescheduledFromID:    b.RescheduledFromID,
		RescheduledToID:      b.RescheduledToID,
		ConfirmedAt:          b.ConfirmedAt,
		ActualStartAt:        b.ActualStartAt,
		ActualEndAt:          b.ActualEndAt,
		CancelledAt:          b.CancelledAt,
		CancellationReason:   b.CancellationReason,
		CreatedAt:            b.CreatedAt,
		CreatedBy:            b.CreatedBy,
		UpdatedAt:            b.UpdatedAt,
		UpdatedBy:            b.UpdatedBy,
		DeletedAt:            b.DeletedAt,
	}
}

// FromDomainBookingList конвертирует список бронирований
func FromDomainBookingList(bookings []*domain.Booking) []*BookingResponse {
	res := make([]*BookingResponse, 0, len(bookings))
	for _, b := range bookings {
		res = append(res, FromDomainBooking(b))
	}
	return res
}

// RescheduledResponse ответ на перенос: закрытая и новая записи
type RescheduledResponse struct {
	Previous *BookingResponse `json:"previous"`
	Current  *BookingResponse `json:"current"`
}

// EventKey ключ партиционирования событий бронирования
func EventKey(b *domain.Booking) string {
	return fmt.Sprintf("%d:%d", b.TenantID, b.ResourceID)
}
