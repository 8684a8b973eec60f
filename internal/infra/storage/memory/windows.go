package memory

import (
	"context"
	"sort"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	availabilityRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/availability"
)

// WindowRepository реализация репозитория окон доступности в памяти
type WindowRepository struct {
	store *Store
}

// Create сохраняет окно доступности
func (r *WindowRepository) Create(ctx context.Context, w *domain.AvailabilityWindow) (*domain.AvailabilityWindow, error) {
	defer r.store.lock(ctx)()
	s := r.store

	s.nextWindowID++
	now := s.now().UTC()
	w.ID = s.nextWindowID
	w.Utilization = domain.ComputeUtilization(w.CurrentBookings, w.MaxBookings)
	w.CreatedAt = now
	w.UpdatedAt = now

	s.windows[w.ID] = cloneWindow(*w)
	return w, nil
}

// GetByID получает неудалённое окно арендатора
func (r *WindowRepository) GetByID(ctx context.Context, tenantID, id int64) (*domain.AvailabilityWindow, error) {
	defer r.store.lock(ctx)()

	w, ok := r.store.windows[id]
	if !ok || w.TenantID != tenantID || w.DeletedAt != nil {
		return nil, availabilityRepo.ErrWindowNotFound
	}
	w = cloneWindow(w)
	return &w, nil
}

// List получает окна по фильтру
func (r *WindowRepository) List(ctx context.Context, filter domain.WindowsFilter) ([]*domain.AvailabilityWindow, error) {
	defer r.store.lock(ctx)()

	res := make([]*domain.AvailabilityWindow, 0)
	for _, w := range r.store.windows {
		if !matchWindow(w, filter) {
			continue
		}
		w = cloneWindow(w)
		res = append(res, &w)
	}
	sort.Slice(res, func(i, j int) bool {
		if !res[i].StartTime.Equal(res[j].StartTime) {
			return res[i].StartTime.Before(res[j].StartTime)
		}
		return res[i].ID < res[j].ID
	})

	if filter.Unlimited {
		return res, nil
	}
	limit := filter.Limit
	if limit == 0 {
		limit = domain.DefaultListLimit
	}
	if uint64(len(res)) > limit {
		res = res[:limit]
	}
	return res, nil
}

// Update обновляет параметры окна, сохраняя текущий счётчик бронирований
func (r *WindowRepository) Update(ctx context.Context, w *domain.AvailabilityWindow) error {
	defer r.store.lock(ctx)()

	stored, ok := r.store.windows[w.ID]
	if !ok || stored.TenantID != w.TenantID || stored.DeletedAt != nil {
		return availabilityRepo.ErrWindowNotFound
	}

	w.CurrentBookings = stored.CurrentBookings
	w.Utilization = domain.ComputeUtilization(w.CurrentBookings, w.MaxBookings)
	w.CreatedAt = stored.CreatedAt
	w.CreatedBy = stored.CreatedBy
	w.UpdatedAt = r.store.now().UTC()

	r.store.windows[w.ID] = cloneWindow(*w)
	return nil
}

// SoftDelete помечает окно удалённым
func (r *WindowRepository) SoftDelete(ctx context.Context, tenantID, id, deletedBy int64, at time.Time) error {
	defer r.store.lock(ctx)()

	w, ok := r.store.windows[id]
	if !ok || w.TenantID != tenantID || w.DeletedAt != nil {
		return availabilityRepo.ErrWindowNotFound
	}
	at = at.UTC()
	w.DeletedAt = &at
	w.DeletedBy = &deletedBy
	w.IsActive = false
	w.UpdatedAt = at
	w.UpdatedBy = &deletedBy
	r.store.windows[id] = w
	return nil
}

// IncrementUsage увеличивает счётчик, если не достигнут max_bookings
func (r *WindowRepository) IncrementUsage(ctx context.Context, windowID int64) (int, error) {
	defer r.store.lock(ctx)()

	w, ok := r.store.windows[windowID]
	if !ok || w.DeletedAt != nil || !w.HasCapacity() {
		return 0, availabilityRepo.ErrUsageLimitReached
	}
	w.CurrentBookings++
	w.Utilization = domain.ComputeUtilization(w.CurrentBookings, w.MaxBookings)
	w.UpdatedAt = r.store.now().UTC()
	r.store.windows[windowID] = w
	return w.CurrentBookings, nil
}

// DecrementUsage уменьшает счётчик, не опуская его ниже нуля
func (r *WindowRepository) DecrementUsage(ctx context.Context, windowID int64) (int, error) {
	defer r.store.lock(ctx)()

	w, ok := r.store.windows[windowID]
	if !ok {
		return 0, availabilityRepo.ErrWindowNotFound
	}
	if w.CurrentBookings > 0 {
		w.CurrentBookings--
	}
	w.Utilization = domain.ComputeUtilization(w.CurrentBookings, w.MaxBookings)
	w.UpdatedAt = r.store.now().UTC()
	r.store.windows[windowID] = w
	return w.CurrentBookings, nil
}

func matchWindow(w domain.AvailabilityWindow, f domain.WindowsFilter) bool {
	if w.TenantID != f.TenantID {
		return false
	}
	if !f.IncludeDeleted && w.DeletedAt != nil {
		return false
	}
	if f.ResourceID != nil && w.ResourceID != nil && *w.ResourceID != *f.ResourceID {
		return false
	}
	if f.StaffID != nil && (w.StaffID == nil || *w.StaffID != *f.StaffID) {
		return false
	}
	if f.OnlyBookable && !(w.IsActive && w.IsPublished) {
		return false
	}
	if f.During != nil && !w.MayOccurIn(*f.During) {
		return false
	}
	return true
}

// cloneWindow копирует слайс дней недели, чтобы вызывающий код не менял хранимое окно
func cloneWindow(w domain.AvailabilityWindow) domain.AvailabilityWindow {
	if w.Recurrence.DaysOfWeek != nil {
		days := make([]time.Weekday, len(w.Recurrence.DaysOfWeek))
		copy(days, w.Recurrence.DaysOfWeek)
		w.Recurrence.DaysOfWeek = days
	}
	return w
}
