package create_booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/integrations/directory"
	"github.com/m04kA/SMC-SchedulingService/internal/service/bookings/models"
	"github.com/m04kA/SMC-SchedulingService/internal/service/conflict"
	"github.com/m04kA/SMC-SchedulingService/pkg/ptr"
)

const operation = "create"

// UseCase use case для создания бронирования
type UseCase struct {
	bookingRepo BookingRepository
	detector    ConflictDetector
	allocator   ReferenceAllocator
	usage       UsageCounter
	directory   DirectoryClient
	txManager   TransactionManager
	notifier    Notifier
	metrics     OperationRecorder
	logger      Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	bookingRepo BookingRepository,
	detector ConflictDetector,
	allocator ReferenceAllocator,
	usage UsageCounter,
	directory DirectoryClient,
	txManager TransactionManager,
	notifier Notifier,
	metrics OperationRecorder,
	logger Logger,
) *UseCase {
	return &UseCase{
		bookingRepo: bookingRepo,
		detector:    detector,
		allocator:   allocator,
		usage:       usage,
		directory:   directory,
		txManager:   txManager,
		notifier:    notifier,
		metrics:     metrics,
		logger:      logger,
	}
}

// Execute выполняет use case создания бронирования
// Проверка конфликтов, выделение номера, вставка и учёт места в окне выполняются
// в одной сериализуемой транзакции
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*models.BookingResponse, error) {
	uc.logger.Info("CreateBooking: tenant=%d, requester=%d, resource=%d, assignee=%v, start=%s, end=%s",
		req.TenantID, req.RequesterID, req.ResourceID, req.AssigneeID, req.StartTime, req.EndTime)

	result, err := uc.execute(ctx, req)
	uc.record(err)
	if err != nil {
		return nil, err
	}

	resp := models.FromDomainBooking(result)
	uc.notifier.Publish(ctx, domain.EventBookingCreated, models.EventKey(result), resp)

	uc.logger.Info("CreateBooking: successfully created booking id=%d, reference=%s", result.ID, result.Reference)
	return resp, nil
}

func (uc *UseCase) execute(ctx context.Context, req *Request) (*domain.Booking, error) {
	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("CreateBooking: validation failed: %v", err)
		return nil, err
	}

	loc, err := domain.LoadLocation(req.TimeZone)
	if err != nil {
		uc.logger.Warn("CreateBooking: invalid time zone %q", req.TimeZone)
		return nil, err
	}

	// 2. Проверяем ресурс и участников в справочнике
	if err := uc.checkDirectory(ctx, req); err != nil {
		return nil, err
	}

	iv := domain.Interval{Start: req.StartTime, End: req.EndTime}.UTC()

	var result *domain.Booking

	// 3. Выполняем операции с хранилищем в сериализуемой транзакции
	err = uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		// 3.1. Пересечения, покрытие окнами и ограничения окна
		check, err := uc.detector.CheckConflict(txCtx, conflict.Request{
			TenantID:   req.TenantID,
			ResourceID: req.ResourceID,
			AssigneeID: req.AssigneeID,
			Interval:   iv,
		})
		if err != nil {
			if domain.IsRejection(err) || errors.Is(err, domain.ErrValidation) {
				uc.logger.Warn("CreateBooking: interval rejected: %v", err)
			} else {
				uc.logger.Error("CreateBooking: conflict check failed: %v", err)
			}
			return err
		}

		window := check.Coverage.Window
		uc.logger.Info("CreateBooking: interval accepted by window id=%d", window.ID)

		// 3.2. Выделяем номер и сохраняем бронирование
		booking := &domain.Booking{
			TenantID:             req.TenantID,
			ResourceID:           req.ResourceID,
			RequesterID:          req.RequesterID,
			AssigneeID:           req.AssigneeID,
			AvailabilityWindowID: ptr.Ptr(window.ID),
			StartTime:            iv.Start,
			EndTime:              iv.End,
			DurationMinutes:      iv.DurationMinutes(),
			TimeZone:             loc.String(),
			Status:               domain.StatusPending,
			Notes:                req.Notes,
			Cost:                 window.CostFor(iv.DurationMinutes()),
			CreatedBy:            req.RequesterID,
		}

		_, err = uc.allocator.Allocate(txCtx, req.TenantID, iv.Start.In(loc), func(ctx context.Context, ref string) error {
			booking.Reference = ref
			created, err := uc.bookingRepo.Create(ctx, booking)
			if err != nil {
				return err
			}
			result = created
			return nil
		})
		if err != nil {
			if errors.Is(err, domain.ErrAllocationExhausted) {
				uc.logger.Warn("CreateBooking: reference allocation exhausted: %v", err)
				return err
			}
			uc.logger.Error("CreateBooking: failed to create booking: %v", err)
			return fmt.Errorf("%w: failed to create booking: %w", ErrInternal, err)
		}

		// 3.3. Занимаем место в окне
		if err := uc.usage.IncrementUsage(txCtx, window.ID); err != nil {
			if domain.IsRejection(err) {
				uc.logger.Warn("CreateBooking: window id=%d is full: %v", window.ID, err)
				return err
			}
			uc.logger.Error("CreateBooking: failed to increment usage of window id=%d: %v", window.ID, err)
			return fmt.Errorf("%w: failed to increment usage: %w", ErrInternal, err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (uc *UseCase) checkDirectory(ctx context.Context, req *Request) error {
	if _, err := uc.directory.GetResource(ctx, req.TenantID, req.ResourceID); err != nil {
		if errors.Is(err, directory.ErrResourceNotFound) {
			uc.logger.Warn("CreateBooking: resource id=%d not found", req.ResourceID)
			return fmt.Errorf("%w: id=%d", domain.ErrResourceNotFound, req.ResourceID)
		}
		uc.logger.Error("CreateBooking: failed to get resource id=%d: %v", req.ResourceID, err)
		return fmt.Errorf("%w: failed to get resource: %w", ErrInternal, err)
	}

	users := []int64{req.RequesterID}
	if req.AssigneeID != nil {
		users = append(users, *req.AssigneeID)
	}
	for _, id := range users {
		if _, err := uc.directory.GetUser(ctx, req.TenantID, id); err != nil {
			if errors.Is(err, directory.ErrUserNotFound) {
				uc.logger.Warn("CreateBooking: user id=%d not found", id)
				return fmt.Errorf("%w: id=%d", domain.ErrUserNotFound, id)
			}
			uc.logger.Error("CreateBooking: failed to get user id=%d: %v", id, err)
			return fmt.Errorf("%w: failed to get user: %w", ErrInternal, err)
		}
	}

	return nil
}

func (uc *UseCase) record(err error) {
	if uc.metrics == nil {
		return
	}
	switch {
	case err == nil:
		uc.metrics.IncBookingOperation(operation, "success")
	case domain.IsRejection(err), errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrNotFound):
		uc.metrics.IncBookingOperation(operation, "rejected")
	default:
		uc.metrics.IncBookingOperation(operation, "error")
	}
}
