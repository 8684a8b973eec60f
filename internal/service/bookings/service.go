package bookings

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-SchedulingService/internal/service/bookings/models"
)

const (
	resultSuccess  = "success"
	resultRejected = "rejected"
	resultError    = "error"
)

// Service сервис жизненного цикла бронирований
type Service struct {
	bookingRepo  BookingRepository
	usage        UsageCounter
	txManager    TransactionManager
	notifier     Notifier
	metrics      OperationRecorder
	timeProvider TimeProvider
	logger       Logger
}

// NewService создает новый экземпляр сервиса бронирований
func NewService(
	bookingRepo BookingRepository,
	usage UsageCounter,
	txManager TransactionManager,
	notifier Notifier,
	metrics OperationRecorder,
	logger Logger,
) *Service {
	return &Service{
		bookingRepo:  bookingRepo,
		usage:        usage,
		txManager:    txManager,
		notifier:     notifier,
		metrics:      metrics,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// WithTimeProvider подменяет источник времени
func (s *Service) WithTimeProvider(tp TimeProvider) *Service {
	s.timeProvider = tp
	return s
}

// GetByID получает бронирование арендатора по ID
func (s *Service) GetByID(ctx context.Context, tenantID, id int64) (*models.BookingResponse, error) {
	s.logger.Info("GetBooking: fetching booking id=%d for tenant=%d", id, tenantID)

	b, err := s.getBooking(ctx, "GetBooking", tenantID, id)
	if err != nil {
		return nil, err
	}

	return models.FromDomainBooking(b), nil
}

// List получает бронирования по фильтру
func (s *Service) List(ctx context.Context, req *models.ListBookingsRequest) ([]*models.BookingResponse, error) {
	s.logger.Info("ListBookings: tenant=%d, resource=%v, requester=%v, assignee=%v, status=%v",
		req.TenantID, req.ResourceID, req.RequesterID, req.AssigneeID, req.Status)

	filter, err := req.ToDomainFilter()
	if err != nil {
		s.logger.Warn("ListBookings: invalid filter: %v", err)
		return nil, err
	}

	list, err := s.bookingRepo.List(ctx, filter)
	if err != nil {
		s.logger.Error("ListBookings: repository error for tenant=%d: %v", req.TenantID, err)
		return nil, fmt.Errorf("%w: ListBookings - repository error: %w", ErrInternal, err)
	}

	s.logger.Info("ListBookings: fetched %d bookings for tenant=%d", len(list), req.TenantID)
	return models.FromDomainBookingList(list), nil
}

// Confirm подтверждает бронирование (pending -> confirmed)
func (s *Service) Confirm(ctx context.Context, req *models.StatusChangeRequest) (*models.BookingResponse, error) {
	return s.transition(ctx, "ConfirmBooking", req, domain.StatusConfirmed, nil)
}

// CheckIn отмечает начало визита (confirmed -> in_progress)
func (s *Service) CheckIn(ctx context.Context, req *models.StatusChangeRequest) (*models.BookingResponse, error) {
	return s.transition(ctx, "CheckInBooking", req, domain.StatusInProgress, nil)
}

// CheckOut отмечает завершение визита (in_progress -> completed)
func (s *Service) CheckOut(ctx context.Context, req *models.StatusChangeRequest) (*models.BookingResponse, error) {
	return s.transition(ctx, "CheckOutBooking", req, domain.StatusCompleted, nil)
}

// MarkNoShow отмечает неявку (pending|confirmed -> no_show)
func (s *Service) MarkNoShow(ctx context.Context, req *models.StatusChangeRequest) (*models.BookingResponse, error) {
	return s.transition(ctx, "NoShowBooking", req, domain.StatusNoShow, nil)
}

// Cancel отменяет бронирование и освобождает место в окне доступности
// Повторная отмена возвращает ErrInvalidTransition
func (s *Service) Cancel(ctx context.Context, req *models.CancelBookingRequest) (*models.BookingResponse, error) {
	if err := req.Validate(); err != nil {
		s.logger.Warn("CancelBooking: invalid request for booking id=%d: %v", req.BookingID, err)
		s.record(string(domain.StatusCancelled), err)
		return nil, err
	}

	change := &models.StatusChangeRequest{
		TenantID:  req.TenantID,
		UserID:    req.UserID,
		BookingID: req.BookingID,
	}
	return s.transition(ctx, "CancelBooking", change, domain.StatusCancelled, req.CancellationReason)
}

// Delete мягко удаляет закрытое бронирование
// Активное бронирование сначала нужно отменить или завершить
func (s *Service) Delete(ctx context.Context, tenantID, id, userID int64) error {
	s.logger.Info("DeleteBooking: booking id=%d, tenant=%d, user=%d", id, tenantID, userID)

	err := s.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		b, err := s.getBooking(txCtx, "DeleteBooking", tenantID, id)
		if err != nil {
			return err
		}

		if !b.IsClosed() {
			s.logger.Warn("DeleteBooking: booking id=%d is still %s", id, b.Status)
			return fmt.Errorf("%w: booking in status %s cannot be deleted", domain.ErrInvalidTransition, b.Status)
		}

		if err := s.bookingRepo.SoftDelete(txCtx, tenantID, id, userID, s.timeProvider.Now()); err != nil {
			if errors.Is(err, bookingRepo.ErrBookingNotFound) {
				return fmt.Errorf("%w: id=%d", domain.ErrBookingNotFound, id)
			}
			s.logger.Error("DeleteBooking: repository error for booking id=%d: %v", id, err)
			return fmt.Errorf("%w: DeleteBooking - repository error: %w", ErrInternal, err)
		}
		return nil
	})
	s.record("delete", err)
	if err != nil {
		return err
	}

	s.logger.Info("DeleteBooking: successfully deleted booking id=%d", id)
	return nil
}

// transition выполняет переход статуса в сериализуемой транзакции
// Запись статуса условная: если статус успел измениться, переход отклоняется
func (s *Service) transition(
	ctx context.Context,
	op string,
	req *models.StatusChangeRequest,
	target domain.BookingStatus,
	reason *string,
) (*models.BookingResponse, error) {
	s.logger.Info("%s: booking id=%d, tenant=%d, user=%d, target=%s", op, req.BookingID, req.TenantID, req.UserID, target)

	var result *domain.Booking
	err := s.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		b, err := s.getBooking(txCtx, op, req.TenantID, req.BookingID)
		if err != nil {
			return err
		}

		from := b.Status
		if err := b.TransitionTo(target, s.timeProvider.Now(), req.UserID); err != nil {
			s.logger.Warn("%s: booking id=%d: %v", op, b.ID, err)
			return err
		}
		if target == domain.StatusCancelled {
			b.CancellationReason = reason
		}

		if err := s.bookingRepo.UpdateStatus(txCtx, b, from); err != nil {
			switch {
			case errors.Is(err, bookingRepo.ErrStatusChanged):
				s.logger.Warn("%s: booking id=%d changed concurrently", op, b.ID)
				return fmt.Errorf("%w: booking id=%d is no longer %s", domain.ErrInvalidTransition, b.ID, from)
			case errors.Is(err, bookingRepo.ErrBookingNotFound):
				return fmt.Errorf("%w: id=%d", domain.ErrBookingNotFound, b.ID)
			}
			s.logger.Error("%s: repository error for booking id=%d: %v", op, b.ID, err)
			return fmt.Errorf("%w: %s - repository error: %w", ErrInternal, op, err)
		}

		if target == domain.StatusCancelled && b.AvailabilityWindowID != nil {
			if err := s.usage.DecrementUsage(txCtx, *b.AvailabilityWindowID); err != nil {
				s.logger.Error("%s: failed to release window id=%d: %v", op, *b.AvailabilityWindowID, err)
				return fmt.Errorf("%w: %s - release window: %w", ErrInternal, op, err)
			}
		}

		result = b
		return nil
	})
	s.record(string(target), err)
	if err != nil {
		return nil, err
	}

	resp := models.FromDomainBooking(result)
	if event, ok := domain.EventForStatus(target); ok {
		s.notifier.Publish(ctx, event, models.EventKey(result), resp)
	}

	s.logger.Info("%s: booking id=%d is now %s", op, result.ID, result.Status)
	return resp, nil
}

func (s *Service) getBooking(ctx context.Context, op string, tenantID, id int64) (*domain.Booking, error) {
	b, err := s.bookingRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			s.logger.Warn("%s: booking id=%d not found", op, id)
			return nil, fmt.Errorf("%w: id=%d", domain.ErrBookingNotFound, id)
		}
		s.logger.Error("%s: repository error for booking id=%d: %v", op, id, err)
		return nil, fmt.Errorf("%w: %s - repository error: %w", ErrInternal, op, err)
	}
	return b, nil
}

func (s *Service) record(operation string, err error) {
	if s.metrics == nil {
		return
	}
	switch {
	case err == nil:
		s.metrics.IncBookingOperation(operation, resultSuccess)
	case domain.IsRejection(err), errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrInvalidTransition):
		s.metrics.IncBookingOperation(operation, resultRejected)
	default:
		s.metrics.IncBookingOperation(operation, resultError)
	}
}
