package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	availabilityRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/availability"
)

// Service хранилище доступности: окна, их повторения, ограничения и счётчики
type Service struct {
	windowRepo   WindowRepository
	bookingRepo  BookingRepository
	directory    DirectoryClient
	txManager    TransactionManager
	notifier     Notifier
	timeProvider TimeProvider
	logger       Logger

	defaultSlotInterval int
}

// NewService создает новый экземпляр сервиса доступности
func NewService(
	windowRepo WindowRepository,
	bookingRepo BookingRepository,
	directory DirectoryClient,
	txManager TransactionManager,
	notifier Notifier,
	logger Logger,
) *Service {
	return &Service{
		windowRepo:          windowRepo,
		bookingRepo:         bookingRepo,
		directory:           directory,
		txManager:           txManager,
		notifier:            notifier,
		timeProvider:        &RealTimeProvider{},
		logger:              logger,
		defaultSlotInterval: domain.DefaultSlotIntervalMinutes,
	}
}

// WithTimeProvider подменяет источник времени
func (s *Service) WithTimeProvider(tp TimeProvider) *Service {
	s.timeProvider = tp
	return s
}

// WithDefaultSlotInterval задает шаг слотов для окон без собственного шага
func (s *Service) WithDefaultSlotInterval(minutes int) *Service {
	if minutes > 0 {
		s.defaultSlotInterval = minutes
	}
	return s
}

// DefaultSlotInterval возвращает шаг слотов по умолчанию
func (s *Service) DefaultSlotInterval() int {
	return s.defaultSlotInterval
}

// ConstraintQuery параметры проверки ограничений окна
type ConstraintQuery struct {
	TenantID         int64
	ResourceID       int64
	Interval         domain.Interval
	ExcludeBookingID *int64 // переносимое бронирование не считается соседом
	ExcludeWindowID  *int64 // окно, из которого бронирование уходит при переносе
}

// FindCovering возвращает активные опубликованные окна, вхождение которых целиком покрывает интервал
// Повторяющиеся окна разворачиваются лениво, только вокруг интервала
func (s *Service) FindCovering(ctx context.Context, tenantID, resourceID int64, assigneeID *int64, iv domain.Interval) ([]domain.Coverage, error) {
	windows, err := s.bookableWindows(ctx, tenantID, resourceID, assigneeID, iv)
	if err != nil {
		return nil, err
	}

	coverage := make([]domain.Coverage, 0, len(windows))
	for _, w := range windows {
		if occ, ok := w.CoveringOccurrence(iv); ok {
			coverage = append(coverage, domain.Coverage{Window: w, Occurrence: occ})
		}
	}

	return coverage, nil
}

// OccurrencesBetween возвращает все вхождения окон ресурса, пересекающиеся с диапазоном
func (s *Service) OccurrencesBetween(ctx context.Context, tenantID, resourceID int64, assigneeID *int64, rng domain.Interval) ([]domain.Coverage, error) {
	windows, err := s.bookableWindows(ctx, tenantID, resourceID, assigneeID, rng)
	if err != nil {
		return nil, err
	}

	res := make([]domain.Coverage, 0)
	for _, w := range windows {
		for _, occ := range w.Occurrences(rng) {
			res = append(res, domain.Coverage{Window: w, Occurrence: occ})
		}
	}

	return res, nil
}

// IsWithinConstraints проверяет ограничения окна для интервала
// Порядок проверок: длительность, выравнивание по сетке, срок уведомления,
// горизонт бронирования, буферы, одновременные бронирования, лимит бронирований окна
func (s *Service) IsWithinConstraints(ctx context.Context, cov domain.Coverage, q ConstraintQuery) error {
	w := cov.Window
	iv := q.Interval

	// 1. Длительность
	duration := iv.DurationMinutes()
	if duration < w.MinBookingDurationMinutes ||
		(w.MaxBookingDurationMinutes > 0 && duration > w.MaxBookingDurationMinutes) {
		return fmt.Errorf("%w: %d minutes, window id=%d allows [%d, %d]",
			domain.ErrDurationOutOfBounds, duration, w.ID, w.MinBookingDurationMinutes, w.MaxBookingDurationMinutes)
	}

	// 2. Выравнивание по сетке слотов
	if w.EnforceSlotAlignment {
		step := time.Duration(w.SlotInterval(s.defaultSlotInterval)) * time.Minute
		if iv.Start.Sub(cov.Occurrence.Start)%step != 0 {
			return fmt.Errorf("%w: window id=%d step is %s", domain.ErrSlotMisaligned, w.ID, step)
		}
	}

	// 3. Минимальный срок уведомления (и запрет бронирования в прошлом)
	now := s.timeProvider.Now()
	earliest := now.Add(time.Duration(w.MinAdvanceNoticeHours) * time.Hour)
	if iv.Start.Before(earliest) {
		return fmt.Errorf("%w: start %s is before %s",
			domain.ErrInsufficientAdvanceNotice, iv.Start.Format(time.RFC3339), earliest.Format(time.RFC3339))
	}

	// 4. Горизонт бронирования
	if w.MaxAdvanceBookingDays > 0 {
		latest := now.AddDate(0, 0, w.MaxAdvanceBookingDays)
		if iv.Start.After(latest) {
			return fmt.Errorf("%w: start %s is after %s",
				domain.ErrTooFarInAdvance, iv.Start.Format(time.RFC3339), latest.Format(time.RFC3339))
		}
	}

	// 5. Буферы вокруг соседних бронирований
	// Каждое бронирование занимает [start-before, end+after), занятые интервалы соседей не должны пересекаться
	if w.BufferBeforeMinutes > 0 || w.BufferAfterMinutes > 0 {
		gap := w.BufferBeforeMinutes + w.BufferAfterMinutes
		expanded := iv.Expand(gap, gap)
		neighbours, err := s.bookingRepo.ListActiveOverlapping(ctx, q.TenantID, q.ResourceID, expanded, q.ExcludeBookingID)
		if err != nil {
			return fmt.Errorf("%w: IsWithinConstraints - list neighbours: %w", ErrInternal, err)
		}
		if len(neighbours) > 0 {
			return fmt.Errorf("%w: booking id=%d is within %d/%d minutes",
				domain.ErrBufferViolation, neighbours[0].ID, w.BufferBeforeMinutes, w.BufferAfterMinutes)
		}
	}

	// 6. Одновременные бронирования в окне
	if w.MaxConcurrentBookings > 0 {
		count, err := s.bookingRepo.CountActiveByWindow(ctx, w.ID, &iv, q.ExcludeBookingID)
		if err != nil {
			return fmt.Errorf("%w: IsWithinConstraints - count concurrent: %w", ErrInternal, err)
		}
		if count >= w.MaxConcurrentBookings {
			return fmt.Errorf("%w: %d/%d concurrent bookings in window id=%d",
				domain.ErrCapacityExceeded, count, w.MaxConcurrentBookings, w.ID)
		}
	}

	// 7. Общий лимит бронирований окна
	current := w.CurrentBookings
	if q.ExcludeWindowID != nil && *q.ExcludeWindowID == w.ID && current > 0 {
		current--
	}
	if w.MaxBookings > 0 && current >= w.MaxBookings {
		return fmt.Errorf("%w: %d/%d bookings in window id=%d",
			domain.ErrCapacityExceeded, current, w.MaxBookings, w.ID)
	}

	return nil
}

// IncrementUsage атомарно увеличивает счётчик бронирований окна
func (s *Service) IncrementUsage(ctx context.Context, windowID int64) error {
	current, err := s.windowRepo.IncrementUsage(ctx, windowID)
	if err != nil {
		if errors.Is(err, availabilityRepo.ErrUsageLimitReached) {
			s.logger.Warn("IncrementUsage: window id=%d reached max bookings", windowID)
			return fmt.Errorf("%w: window id=%d is full", domain.ErrCapacityExceeded, windowID)
		}
		s.logger.Error("IncrementUsage: repository error for window id=%d: %v", windowID, err)
		return fmt.Errorf("%w: IncrementUsage - repository error: %w", ErrInternal, err)
	}

	s.logger.Info("IncrementUsage: window id=%d now has %d bookings", windowID, current)
	return nil
}

// DecrementUsage атомарно уменьшает счётчик бронирований окна
// Удалённое окно не считается ошибкой: счётчик всё равно уменьшается
func (s *Service) DecrementUsage(ctx context.Context, windowID int64) error {
	current, err := s.windowRepo.DecrementUsage(ctx, windowID)
	if err != nil {
		if errors.Is(err, availabilityRepo.ErrWindowNotFound) {
			s.logger.Warn("DecrementUsage: window id=%d not found", windowID)
			return nil
		}
		s.logger.Error("DecrementUsage: repository error for window id=%d: %v", windowID, err)
		return fmt.Errorf("%w: DecrementUsage - repository error: %w", ErrInternal, err)
	}

	s.logger.Info("DecrementUsage: window id=%d now has %d bookings", windowID, current)
	return nil
}

// bookableWindows загружает все окна ресурса, которые могут иметь вхождение в диапазоне
// Выборка не ограничивается по количеству
func (s *Service) bookableWindows(ctx context.Context, tenantID, resourceID int64, assigneeID *int64, rng domain.Interval) ([]*domain.AvailabilityWindow, error) {
	windows, err := s.windowRepo.List(ctx, domain.WindowsFilter{
		TenantID:     tenantID,
		ResourceID:   &resourceID,
		OnlyBookable: true,
		During:       &rng,
		Unlimited:    true,
	})
	if err != nil {
		s.logger.Error("FindCovering: repository error for resource id=%d: %v", resourceID, err)
		return nil, fmt.Errorf("%w: list windows: %w", ErrInternal, err)
	}

	res := make([]*domain.AvailabilityWindow, 0, len(windows))
	for _, w := range windows {
		if w.IsBookable() && w.AppliesTo(resourceID, assigneeID) {
			res = append(res, w)
		}
	}
	return res, nil
}
