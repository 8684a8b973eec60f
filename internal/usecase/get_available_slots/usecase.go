package get_available_slots

import (
	"context"
	"fmt"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/service/conflict"
)

// UseCase use case для генерации слотов ресурса на день
type UseCase struct {
	store    AvailabilityStore
	detector ConflictDetector
	metrics  SlotRecorder
	logger   Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(store AvailabilityStore, detector ConflictDetector, metrics SlotRecorder, logger Logger) *UseCase {
	return &UseCase{
		store:    store,
		detector: detector,
		metrics:  metrics,
		logger:   logger,
	}
}

// Execute генерирует слоты на день
// Каждый слот проверяется тем же детектором конфликтов, что и создание бронирования,
// поэтому свободный слот можно забронировать, пока состояние не изменилось
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("GenerateSlots: tenant=%d, resource=%d, date=%s, duration=%d, tz=%q",
		req.TenantID, req.ResourceID, req.Date.Format(domain.DateFormat), req.DurationMinutes, req.TimeZone)

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("GenerateSlots: validation failed: %v", err)
		return nil, err
	}

	loc, err := domain.LoadLocation(req.TimeZone)
	if err != nil {
		uc.logger.Warn("GenerateSlots: invalid time zone %q", req.TimeZone)
		return nil, err
	}

	// 2. Вхождения окон, пересекающиеся с сутками
	day := dayInterval(req.Date, loc)
	occurrences, err := uc.store.OccurrencesBetween(ctx, req.TenantID, req.ResourceID, req.AssigneeID, day.UTC())
	if err != nil {
		uc.logger.Error("GenerateSlots: failed to expand windows for resource id=%d: %v", req.ResourceID, err)
		return nil, fmt.Errorf("%w: failed to expand windows: %w", ErrInternal, err)
	}

	// 3. Кандидаты и их проверка
	slots := make([]domain.TimeSlot, 0)
	available := 0
	for _, cov := range occurrences {
		step := cov.Window.SlotInterval(uc.store.DefaultSlotInterval())

		for _, candidate := range candidateSlots(cov.Occurrence, day.UTC(), step, req.DurationMinutes) {
			slot, err := uc.checkSlot(ctx, req, cov.Window, candidate)
			if err != nil {
				return nil, err
			}
			slot.StartTime = slot.StartTime.In(loc)
			slot.EndTime = slot.EndTime.In(loc)
			if slot.IsAvailable {
				available++
			}
			slots = append(slots, slot)
		}
	}
	sortSlots(slots)

	if uc.metrics != nil {
		uc.metrics.AddSlots(available, len(slots)-available)
	}

	uc.logger.Info("GenerateSlots: generated %d slots (%d available) for resource id=%d",
		len(slots), available, req.ResourceID)

	return &Response{
		Date:            day.Start,
		ResourceID:      req.ResourceID,
		TimeZone:        loc.String(),
		DurationMinutes: req.DurationMinutes,
		Slots:           slots,
	}, nil
}

func (uc *UseCase) checkSlot(ctx context.Context, req *Request, window *domain.AvailabilityWindow, candidate domain.Interval) (domain.TimeSlot, error) {
	slot := domain.TimeSlot{
		StartTime: candidate.Start,
		EndTime:   candidate.End,
		WindowID:  window.ID,
	}

	res, err := uc.detector.CheckConflict(ctx, conflict.Request{
		TenantID:   req.TenantID,
		ResourceID: req.ResourceID,
		AssigneeID: req.AssigneeID,
		Interval:   candidate,
	})
	if err != nil {
		if !domain.IsRejection(err) {
			uc.logger.Error("GenerateSlots: conflict check failed for %s: %v", candidate.Start, err)
			return slot, err
		}
		slot.Reason = domain.UnavailableReason(err)
		slot.Cost = window.CostFor(req.DurationMinutes)
		return slot, nil
	}

	// Слот принимает первое подходящее окно, цена берётся из него
	accepted := res.Coverage.Window
	slot.IsAvailable = true
	slot.WindowID = accepted.ID
	slot.Cost = accepted.CostFor(req.DurationMinutes)
	return slot, nil
}
