package reschedule_booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-SchedulingService/internal/service/bookings/models"
	"github.com/m04kA/SMC-SchedulingService/internal/service/conflict"
	"github.com/m04kA/SMC-SchedulingService/pkg/ptr"
)

const operation = "reschedule"

// UseCase use case для переноса бронирования
// Перенос создаёт новую запись, а старая закрывается статусом rescheduled со ссылкой на новую
type UseCase struct {
	bookingRepo  BookingRepository
	detector     ConflictDetector
	allocator    ReferenceAllocator
	usage        UsageCounter
	txManager    TransactionManager
	notifier     Notifier
	metrics      OperationRecorder
	timeProvider TimeProvider
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	bookingRepo BookingRepository,
	detector ConflictDetector,
	allocator ReferenceAllocator,
	usage UsageCounter,
	txManager TransactionManager,
	notifier Notifier,
	metrics OperationRecorder,
	logger Logger,
) *UseCase {
	return &UseCase{
		bookingRepo:  bookingRepo,
		detector:     detector,
		allocator:    allocator,
		usage:        usage,
		txManager:    txManager,
		notifier:     notifier,
		metrics:      metrics,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// WithTimeProvider подменяет источник времени
func (uc *UseCase) WithTimeProvider(tp TimeProvider) *UseCase {
	uc.timeProvider = tp
	return uc
}

// Execute выполняет перенос в одной сериализуемой транзакции
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*models.RescheduledResponse, error) {
	uc.logger.Info("RescheduleBooking: booking id=%d, tenant=%d, user=%d, start=%s, end=%s",
		req.BookingID, req.TenantID, req.UserID, req.StartTime, req.EndTime)

	previous, current, err := uc.execute(ctx, req)
	uc.record(err)
	if err != nil {
		return nil, err
	}

	resp := &models.RescheduledResponse{
		Previous: models.FromDomainBooking(previous),
		Current:  models.FromDomainBooking(current),
	}
	uc.notifier.Publish(ctx, domain.EventBookingRescheduled, models.EventKey(current), resp)

	uc.logger.Info("RescheduleBooking: booking id=%d rescheduled to id=%d, reference=%s",
		previous.ID, current.ID, current.Reference)
	return resp, nil
}

func (uc *UseCase) execute(ctx context.Context, req *Request) (*domain.Booking, *domain.Booking, error) {
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("RescheduleBooking: validation failed: %v", err)
		return nil, nil, err
	}

	iv := domain.Interval{Start: req.StartTime, End: req.EndTime}.UTC()

	var previous, current *domain.Booking
	err := uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		// 1. Загружаем переносимое бронирование
		old, err := uc.bookingRepo.GetByID(txCtx, req.TenantID, req.BookingID)
		if err != nil {
			if errors.Is(err, bookingRepo.ErrBookingNotFound) {
				uc.logger.Warn("RescheduleBooking: booking id=%d not found", req.BookingID)
				return fmt.Errorf("%w: id=%d", domain.ErrBookingNotFound, req.BookingID)
			}
			uc.logger.Error("RescheduleBooking: failed to get booking id=%d: %v", req.BookingID, err)
			return fmt.Errorf("%w: failed to get booking: %w", ErrInternal, err)
		}
		if !old.Status.CanTransitionTo(domain.StatusRescheduled) {
			uc.logger.Warn("RescheduleBooking: booking id=%d is %s", old.ID, old.Status)
			return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, old.Status, domain.StatusRescheduled)
		}

		loc, err := domain.LoadLocation(old.TimeZone)
		if err != nil {
			return err
		}

		// 2. Проверяем новый интервал без учёта самого бронирования
		check, err := uc.detector.CheckConflict(txCtx, conflict.Request{
			TenantID:         req.TenantID,
			ResourceID:       old.ResourceID,
			AssigneeID:       old.AssigneeID,
			Interval:         iv,
			ExcludeBookingID: ptr.Ptr(old.ID),
			ExcludeWindowID:  old.AvailabilityWindowID,
		})
		if err != nil {
			if domain.IsRejection(err) {
				uc.logger.Warn("RescheduleBooking: interval rejected: %v", err)
			} else {
				uc.logger.Error("RescheduleBooking: conflict check failed: %v", err)
			}
			return err
		}
		window := check.Coverage.Window

		// 3. Освобождаем место в старом окне и занимаем в новом
		if old.AvailabilityWindowID != nil {
			if err := uc.usage.DecrementUsage(txCtx, *old.AvailabilityWindowID); err != nil {
				uc.logger.Error("RescheduleBooking: failed to release window id=%d: %v", *old.AvailabilityWindowID, err)
				return fmt.Errorf("%w: failed to release window: %w", ErrInternal, err)
			}
		}
		if err := uc.usage.IncrementUsage(txCtx, window.ID); err != nil {
			if domain.IsRejection(err) {
				uc.logger.Warn("RescheduleBooking: window id=%d is full: %v", window.ID, err)
				return err
			}
			uc.logger.Error("RescheduleBooking: failed to increment usage of window id=%d: %v", window.ID, err)
			return fmt.Errorf("%w: failed to increment usage: %w", ErrInternal, err)
		}

		// 4. Новая запись со ссылкой на старую
		next := &domain.Booking{
			TenantID:             old.TenantID,
			ResourceID:           old.ResourceID,
			RequesterID:          old.RequesterID,
			AssigneeID:           old.AssigneeID,
			AvailabilityWindowID: ptr.Ptr(window.ID),
			StartTime:            iv.Start,
			EndTime:              iv.End,
			DurationMinutes:      iv.DurationMinutes(),
			TimeZone:             old.TimeZone,
			Status:               domain.StatusPending,
			Notes:                old.Notes,
			Cost:                 window.CostFor(iv.DurationMinutes()),
			RescheduledFromID:    ptr.Ptr(old.ID),
			CreatedBy:            req.UserID,
		}
		_, err = uc.allocator.Allocate(txCtx, req.TenantID, iv.Start.In(loc), func(ctx context.Context, ref string) error {
			next.Reference = ref
			created, err := uc.bookingRepo.Create(ctx, next)
			if err != nil {
				return err
			}
			current = created
			return nil
		})
		if err != nil {
			if errors.Is(err, domain.ErrAllocationExhausted) {
				uc.logger.Warn("RescheduleBooking: reference allocation exhausted: %v", err)
				return err
			}
			uc.logger.Error("RescheduleBooking: failed to create booking: %v", err)
			return fmt.Errorf("%w: failed to create booking: %w", ErrInternal, err)
		}

		// 5. Закрываем старую запись
		from := old.Status
		if err := old.TransitionTo(domain.StatusRescheduled, uc.timeProvider.Now(), req.UserID); err != nil {
			return err
		}
		old.RescheduledToID = &current.ID
		if err := uc.bookingRepo.UpdateStatus(txCtx, old, from); err != nil {
			if errors.Is(err, bookingRepo.ErrStatusChanged) {
				uc.logger.Warn("RescheduleBooking: booking id=%d changed concurrently", old.ID)
				return fmt.Errorf("%w: booking id=%d is no longer %s", domain.ErrInvalidTransition, old.ID, from)
			}
			uc.logger.Error("RescheduleBooking: failed to update booking id=%d: %v", old.ID, err)
			return fmt.Errorf("%w: failed to update booking: %w", ErrInternal, err)
		}

		previous = old
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return previous, current, nil
}

func (uc *UseCase) record(err error) {
	if uc.metrics == nil {
		return
	}
	switch {
	case err == nil:
		uc.metrics.IncBookingOperation(operation, "success")
	case domain.IsRejection(err), errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrInvalidTransition):
		uc.metrics.IncBookingOperation(operation, "rejected")
	default:
		uc.metrics.IncBookingOperation(operation, "error")
	}
}
