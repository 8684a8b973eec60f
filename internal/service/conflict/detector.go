package conflict

import (
	"context"
	"fmt"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/service/availability"
)

// Request параметры проверки интервала
type Request struct {
	TenantID         int64
	ResourceID       int64
	AssigneeID       *int64
	Interval         domain.Interval
	ExcludeBookingID *int64 // бронирование, которое переносится
	ExcludeWindowID  *int64 // окно переносимого бронирования
}

// Result принятая проверка: окно и его вхождение, покрывающее интервал
type Result struct {
	Coverage domain.Coverage
}

// Detector детектор конфликтов бронирований
// Сначала проверяет пересечение с активными бронированиями ресурса (дешёвый и селективный фильтр),
// затем покрытие окнами доступности и их ограничения
type Detector struct {
	bookingRepo BookingRepository
	store       AvailabilityStore
	logger      Logger
}

// NewDetector создает детектор конфликтов
func NewDetector(bookingRepo BookingRepository, store AvailabilityStore, logger Logger) *Detector {
	return &Detector{
		bookingRepo: bookingRepo,
		store:       store,
		logger:      logger,
	}
}

// CheckConflict принимает или отклоняет интервал для ресурса
// Возвращает BookingConflict с ID первого пересекающегося бронирования,
// NoCoveringWindow или ошибку ограничений первого покрывающего окна
func (d *Detector) CheckConflict(ctx context.Context, req Request) (*Result, error) {
	if !req.Interval.IsValid() {
		return nil, fmt.Errorf("%w: interval end must be after start", domain.ErrValidation)
	}

	// 1. Пересечения с активными бронированиями ресурса
	overlapping, err := d.bookingRepo.ListActiveOverlapping(ctx, req.TenantID, req.ResourceID, req.Interval, req.ExcludeBookingID)
	if err != nil {
		d.logger.Error("CheckConflict: failed to list bookings for resource id=%d: %v", req.ResourceID, err)
		return nil, fmt.Errorf("%w: list overlapping bookings: %w", ErrInternal, err)
	}
	if len(overlapping) > 0 {
		return nil, domain.NewConflictError(overlapping[0].ID)
	}

	// 2. Покрытие окнами доступности
	coverage, err := d.store.FindCovering(ctx, req.TenantID, req.ResourceID, req.AssigneeID, req.Interval)
	if err != nil {
		return nil, err
	}
	if len(coverage) == 0 {
		return nil, fmt.Errorf("%w: resource id=%d, %s - %s", domain.ErrNoCoveringWindow,
			req.ResourceID, req.Interval.Start.Format("2006-01-02T15:04Z07:00"), req.Interval.End.Format("2006-01-02T15:04Z07:00"))
	}

	// 3. Ограничения окна: подходит первое окно без нарушений
	query := availability.ConstraintQuery{
		TenantID:         req.TenantID,
		ResourceID:       req.ResourceID,
		Interval:         req.Interval,
		ExcludeBookingID: req.ExcludeBookingID,
		ExcludeWindowID:  req.ExcludeWindowID,
	}

	var firstErr error
	for _, cov := range coverage {
		err := d.store.IsWithinConstraints(ctx, cov, query)
		if err == nil {
			return &Result{Coverage: cov}, nil
		}
		if !domain.IsRejection(err) {
			return nil, err
		}
		if firstErr == nil {
			firstErr = err
		}
	}

	return nil, firstErr
}
