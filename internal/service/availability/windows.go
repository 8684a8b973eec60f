package availability

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	availabilityRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/availability"
	"github.com/m04kA/SMC-SchedulingService/internal/integrations/directory"
	"github.com/m04kA/SMC-SchedulingService/internal/service/availability/models"
	"github.com/m04kA/SMC-SchedulingService/pkg/ptr"
)

// Create создает окно доступности
// Ресурс и сотрудник (если заданы) проверяются в справочнике
func (s *Service) Create(ctx context.Context, req *models.CreateWindowRequest) (*models.WindowResponse, error) {
	s.logger.Info("CreateWindow: tenant=%d, resource=%v, staff=%v, start=%s, end=%s",
		req.TenantID, req.ResourceID, req.StaffID, req.StartTime, req.EndTime)

	w, err := req.ToDomain()
	if err != nil {
		s.logger.Warn("CreateWindow: invalid request: %v", err)
		return nil, err
	}
	if err := w.Validate(); err != nil {
		s.logger.Warn("CreateWindow: validation failed: %v", err)
		return nil, err
	}

	if err := s.checkDirectory(ctx, w); err != nil {
		return nil, err
	}

	created, err := s.windowRepo.Create(ctx, w)
	if err != nil {
		s.logger.Error("CreateWindow: repository error: %v", err)
		return nil, fmt.Errorf("%w: CreateWindow - repository error: %w", ErrInternal, err)
	}

	resp := models.FromDomainWindow(created)
	s.notifier.Publish(ctx, domain.EventAvailabilityCreated, windowKey(created), resp)

	s.logger.Info("CreateWindow: successfully created window id=%d", created.ID)
	return resp, nil
}

// GetByID получает окно доступности арендатора
func (s *Service) GetByID(ctx context.Context, tenantID, id int64) (*models.WindowResponse, error) {
	s.logger.Info("GetWindow: fetching window id=%d for tenant=%d", id, tenantID)

	w, err := s.getWindow(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	return models.FromDomainWindow(w), nil
}

// List получает окна доступности по фильтру
func (s *Service) List(ctx context.Context, req *models.ListWindowsRequest) ([]*models.WindowResponse, error) {
	s.logger.Info("ListWindows: tenant=%d, resource=%v, staff=%v", req.TenantID, req.ResourceID, req.StaffID)

	windows, err := s.windowRepo.List(ctx, req.ToDomainFilter())
	if err != nil {
		s.logger.Error("ListWindows: repository error for tenant=%d: %v", req.TenantID, err)
		return nil, fmt.Errorf("%w: ListWindows - repository error: %w", ErrInternal, err)
	}

	s.logger.Info("ListWindows: fetched %d windows for tenant=%d", len(windows), req.TenantID)
	return models.FromDomainWindowList(windows), nil
}

// Update частично обновляет окно доступности
// Лимит бронирований не может стать меньше текущего количества бронирований
func (s *Service) Update(ctx context.Context, req *models.UpdateWindowRequest) (*models.WindowResponse, error) {
	s.logger.Info("UpdateWindow: window id=%d, tenant=%d, user=%d", req.WindowID, req.TenantID, req.UserID)

	var result *domain.AvailabilityWindow
	err := s.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		w, err := s.getWindow(txCtx, req.TenantID, req.WindowID)
		if err != nil {
			return err
		}

		if err := req.Apply(w); err != nil {
			s.logger.Warn("UpdateWindow: invalid request for window id=%d: %v", req.WindowID, err)
			return err
		}
		if err := w.Validate(); err != nil {
			s.logger.Warn("UpdateWindow: validation failed for window id=%d: %v", req.WindowID, err)
			return err
		}

		if err := s.windowRepo.Update(txCtx, w); err != nil {
			if errors.Is(err, availabilityRepo.ErrWindowNotFound) {
				return fmt.Errorf("%w: id=%d", domain.ErrWindowNotFound, req.WindowID)
			}
			s.logger.Error("UpdateWindow: repository error for window id=%d: %v", req.WindowID, err)
			return fmt.Errorf("%w: UpdateWindow - repository error: %w", ErrInternal, err)
		}

		result = w
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("UpdateWindow: successfully updated window id=%d", result.ID)
	return models.FromDomainWindow(result), nil
}

// Delete мягко удаляет окно доступности
// Окно с активными бронированиями удалить нельзя
func (s *Service) Delete(ctx context.Context, tenantID, id, userID int64) error {
	s.logger.Info("DeleteWindow: window id=%d, tenant=%d, user=%d", id, tenantID, userID)

	var deleted *domain.AvailabilityWindow
	err := s.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		w, err := s.getWindow(txCtx, tenantID, id)
		if err != nil {
			return err
		}

		active, err := s.bookingRepo.CountActiveByWindow(txCtx, id, nil, nil)
		if err != nil {
			s.logger.Error("DeleteWindow: failed to count bookings for window id=%d: %v", id, err)
			return fmt.Errorf("%w: DeleteWindow - count bookings: %w", ErrInternal, err)
		}
		if active > 0 {
			s.logger.Warn("DeleteWindow: window id=%d has %d active bookings", id, active)
			return fmt.Errorf("%w: window id=%d has %d active bookings",
				domain.ErrActiveBookingsPreventDeletion, id, active)
		}

		now := s.timeProvider.Now()
		if err := s.windowRepo.SoftDelete(txCtx, tenantID, id, userID, now); err != nil {
			if errors.Is(err, availabilityRepo.ErrWindowNotFound) {
				return fmt.Errorf("%w: id=%d", domain.ErrWindowNotFound, id)
			}
			s.logger.Error("DeleteWindow: repository error for window id=%d: %v", id, err)
			return fmt.Errorf("%w: DeleteWindow - repository error: %w", ErrInternal, err)
		}

		w.DeletedAt = ptr.Ptr(now)
		w.DeletedBy = ptr.Ptr(userID)
		w.IsActive = false
		deleted = w
		return nil
	})
	if err != nil {
		return err
	}

	s.notifier.Publish(ctx, domain.EventAvailabilityDeleted, windowKey(deleted), models.FromDomainWindow(deleted))

	s.logger.Info("DeleteWindow: successfully deleted window id=%d", id)
	return nil
}

func (s *Service) getWindow(ctx context.Context, tenantID, id int64) (*domain.AvailabilityWindow, error) {
	w, err := s.windowRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, availabilityRepo.ErrWindowNotFound) {
			s.logger.Warn("GetWindow: window id=%d not found", id)
			return nil, fmt.Errorf("%w: id=%d", domain.ErrWindowNotFound, id)
		}
		s.logger.Error("GetWindow: repository error for window id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: GetWindow - repository error: %w", ErrInternal, err)
	}
	return w, nil
}

func (s *Service) checkDirectory(ctx context.Context, w *domain.AvailabilityWindow) error {
	if w.ResourceID != nil {
		if _, err := s.directory.GetResource(ctx, w.TenantID, *w.ResourceID); err != nil {
			if errors.Is(err, directory.ErrResourceNotFound) {
				s.logger.Warn("CreateWindow: resource id=%d not found", *w.ResourceID)
				return fmt.Errorf("%w: id=%d", domain.ErrResourceNotFound, *w.ResourceID)
			}
			s.logger.Error("CreateWindow: failed to get resource id=%d: %v", *w.ResourceID, err)
			return fmt.Errorf("%w: failed to get resource: %w", ErrInternal, err)
		}
	}

	if w.StaffID != nil {
		if _, err := s.directory.GetUser(ctx, w.TenantID, *w.StaffID); err != nil {
			if errors.Is(err, directory.ErrUserNotFound) {
				s.logger.Warn("CreateWindow: staff id=%d not found", *w.StaffID)
				return fmt.Errorf("%w: staff id=%d", domain.ErrUserNotFound, *w.StaffID)
			}
			s.logger.Error("CreateWindow: failed to get staff id=%d: %v", *w.StaffID, err)
			return fmt.Errorf("%w: failed to get staff: %w", ErrInternal, err)
		}
	}

	return nil
}

func windowKey(w *domain.AvailabilityWindow) string {
	if w.ResourceID != nil {
		return fmt.Sprintf("%d:%d", w.TenantID, *w.ResourceID)
	}
	return fmt.Sprintf("%d:*", w.TenantID)
}
