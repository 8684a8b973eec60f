package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/booking"
)

// BookingRepository реализация репозитория бронирований в памяти
// Возвращает те же ошибки, что и репозиторий PostgreSQL
type BookingRepository struct {
	store *Store
}

// Create сохраняет бронирование, номер должен быть уникален у арендатора
func (r *BookingRepository) Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error) {
	defer r.store.lock(ctx)()
	s := r.store

	key := referenceKey{tenantID: booking.TenantID, reference: booking.Reference}
	if _, taken := s.references[key]; taken {
		return nil, bookingRepo.ErrReferenceTaken
	}

	s.nextBookingID++
	now := s.now().UTC()
	booking.ID = s.nextBookingID
	booking.CreatedAt = now
	booking.UpdatedAt = now

	s.bookings[booking.ID] = *booking
	s.references[key] = booking.ID

	return booking, nil
}

// GetByID получает неудалённое бронирование арендатора
func (r *BookingRepository) GetByID(ctx context.Context, tenantID, id int64) (*domain.Booking, error) {
	defer r.store.lock(ctx)()

	b, ok := r.store.bookings[id]
	if !ok || b.TenantID != tenantID || b.DeletedAt != nil {
		return nil, bookingRepo.ErrBookingNotFound
	}
	return &b, nil
}

// ListActiveOverlapping возвращает активные бронирования ресурса, пересекающиеся с интервалом
func (r *BookingRepository) ListActiveOverlapping(ctx context.Context, tenantID, resourceID int64, iv domain.Interval, excludeID *int64) ([]*domain.Booking, error) {
	defer r.store.lock(ctx)()

	res := make([]*domain.Booking, 0)
	for _, b := range r.store.bookings {
		if b.TenantID != tenantID || b.ResourceID != resourceID || !b.IsActive() {
			continue
		}
		if excludeID != nil && b.ID == *excludeID {
			continue
		}
		if !domain.Overlaps(b.Interval(), iv) {
			continue
		}
		res = append(res, &b)
	}
	sortBookings(res)
	return res, nil
}

// CountActiveByWindow считает активные бронирования окна
func (r *BookingRepository) CountActiveByWindow(ctx context.Context, windowID int64, iv *domain.Interval, excludeID *int64) (int, error) {
	defer r.store.lock(ctx)()

	count := 0
	for _, b := range r.store.bookings {
		if b.AvailabilityWindowID == nil || *b.AvailabilityWindowID != windowID || !b.IsActive() {
			continue
		}
		if excludeID != nil && b.ID == *excludeID {
			continue
		}
		if iv != nil && !domain.Overlaps(b.Interval(), *iv) {
			continue
		}
		count++
	}
	return count, nil
}

// MaxReference возвращает наибольший номер с префиксом или пустую строку
func (r *BookingRepository) MaxReference(ctx context.Context, tenantID int64, prefix string) (string, error) {
	defer r.store.lock(ctx)()

	latest := ""
	for key := range r.store.references {
		if key.tenantID == tenantID && strings.HasPrefix(key.reference, prefix) && key.reference > latest {
			latest = key.reference
		}
	}
	return latest, nil
}

// UpdateStatus сохраняет статус, если текущий статус равен from
func (r *BookingRepository) UpdateStatus(ctx context.Context, booking *domain.Booking, from domain.BookingStatus) error {
	defer r.store.lock(ctx)()

	stored, ok := r.store.bookings[booking.ID]
	if !ok || stored.TenantID != booking.TenantID || stored.DeletedAt != nil || stored.Status != from {
		return bookingRepo.ErrStatusChanged
	}

	stored.Status = booking.Status
	stored.ConfirmedAt = booking.ConfirmedAt
	stored.ActualStartAt = booking.ActualStartAt
	stored.ActualEndAt = booking.ActualEndAt
	stored.CancelledAt = booking.CancelledAt
	stored.CancellationReason = booking.CancellationReason
	stored.RescheduledToID = booking.RescheduledToID
	stored.UpdatedAt = booking.UpdatedAt
	stored.UpdatedBy = booking.UpdatedBy
	r.store.bookings[booking.ID] = stored

	return nil
}

// List получает бронирования по фильтру
func (r *BookingRepository) List(ctx context.Context, filter domain.BookingsFilter) ([]*domain.Booking, error) {
	defer r.store.lock(ctx)()

	res := make([]*domain.Booking, 0)
	for _, b := range r.store.bookings {
		if !matchBooking(b, filter) {
			continue
		}
		res = append(res, &b)
	}
	sortBookings(res)

	limit := filter.Limit
	if limit == 0 {
		limit = domain.DefaultListLimit
	}
	if uint64(len(res)) > limit {
		res = res[:limit]
	}
	return res, nil
}

// SoftDelete помечает бронирование удалённым
func (r *BookingRepository) SoftDelete(ctx context.Context, tenantID, id, deletedBy int64, at time.Time) error {
	defer r.store.lock(ctx)()

	b, ok := r.store.bookings[id]
	if !ok || b.TenantID != tenantID || b.DeletedAt != nil {
		return bookingRepo.ErrBookingNotFound
	}
	at = at.UTC()
	b.DeletedAt = &at
	b.DeletedBy = &deletedBy
	b.UpdatedAt = at
	b.UpdatedBy = &deletedBy
	r.store.bookings[id] = b
	return nil
}

func matchBooking(b domain.Booking, f domain.BookingsFilter) bool {
	if b.TenantID != f.TenantID || b.DeletedAt != nil {
		return false
	}
	if f.ResourceID != nil && b.ResourceID != *f.ResourceID {
		return false
	}
	if f.RequesterID != nil && b.RequesterID != *f.RequesterID {
		return false
	}
	if f.AssigneeID != nil && (b.AssigneeID == nil || *b.AssigneeID != *f.AssigneeID) {
		return false
	}
	if f.From != nil && !b.EndTime.After(*f.From) {
		return false
	}
	if f.To != nil && !b.StartTime.Before(*f.To) {
		return false
	}
	if f.Status != nil {
		return b.Status == *f.Status
	}
	return f.IncludeInactive || b.Status.IsActive()
}

func sortBookings(bookings []*domain.Booking) {
	sort.Slice(bookings, func(i, j int) bool {
		if !bookings[i].StartTime.Equal(bookings[j].StartTime) {
			return bookings[i].StartTime.Before(bookings[j].StartTime)
		}
		return bookings[i].ID < bookings[j].ID
	})
}
