package check_availability

import (
	"context"
	"fmt"
	"sort"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

// UseCase use case для просмотра доступности ресурса за период
type UseCase struct {
	store       AvailabilityStore
	bookingRepo BookingRepository
	txManager   TransactionManager
	logger      Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(store AvailabilityStore, bookingRepo BookingRepository, txManager TransactionManager, logger Logger) *UseCase {
	return &UseCase{
		store:       store,
		bookingRepo: bookingRepo,
		txManager:   txManager,
		logger:      logger,
	}
}

// Execute возвращает вхождения окон за период с активными бронированиями и свободными интервалами
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("CheckAvailability: tenant=%d, resource=%d, start=%s, end=%s",
		req.TenantID, req.ResourceID, req.Start, req.End)

	if err := validateRequest(req); err != nil {
		uc.logger.Warn("CheckAvailability: validation failed: %v", err)
		return nil, err
	}

	rng := domain.Interval{Start: req.Start, End: req.End}.UTC()

	// Окна и бронирования читаются из одного снимка
	var (
		occurrences []domain.Coverage
		bookings    []*domain.Booking
	)
	err := uc.txManager.DoReadOnly(ctx, func(txCtx context.Context) error {
		var err error
		occurrences, err = uc.store.OccurrencesBetween(txCtx, req.TenantID, req.ResourceID, req.AssigneeID, rng)
		if err != nil {
			uc.logger.Error("CheckAvailability: failed to expand windows for resource id=%d: %v", req.ResourceID, err)
			return fmt.Errorf("%w: failed to expand windows: %w", ErrInternal, err)
		}

		bookings, err = uc.bookingRepo.ListActiveOverlapping(txCtx, req.TenantID, req.ResourceID, rng, nil)
		if err != nil {
			uc.logger.Error("CheckAvailability: failed to list bookings for resource id=%d: %v", req.ResourceID, err)
			return fmt.Errorf("%w: failed to list bookings: %w", ErrInternal, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	res := &Response{
		ResourceID:  req.ResourceID,
		Start:       rng.Start,
		End:         rng.End,
		Occurrences: make([]Occurrence, 0, len(occurrences)),
	}
	for _, cov := range occurrences {
		inside := make([]*domain.Booking, 0)
		for _, b := range bookings {
			if domain.Overlaps(cov.Occurrence, b.Interval()) {
				inside = append(inside, b)
			}
		}

		res.Occurrences = append(res.Occurrences, Occurrence{
			WindowID:   cov.Window.ID,
			Title:      cov.Window.Title,
			Interval:   cov.Occurrence,
			Bookings:   inside,
			FreeRanges: freeRanges(cov.Occurrence, inside),
		})
	}

	sort.SliceStable(res.Occurrences, func(i, j int) bool {
		a, b := res.Occurrences[i], res.Occurrences[j]
		if !a.Interval.Start.Equal(b.Interval.Start) {
			return a.Interval.Start.Before(b.Interval.Start)
		}
		return a.WindowID < b.WindowID
	})

	uc.logger.Info("CheckAvailability: %d occurrences, %d active bookings for resource id=%d",
		len(res.Occurrences), len(bookings), req.ResourceID)
	return res, nil
}

// freeRanges вычитает занятые интервалы из вхождения
func freeRanges(occurrence domain.Interval, bookings []*domain.Booking) []domain.Interval {
	busy := make([]domain.Interval, 0, len(bookings))
	for _, b := range bookings {
		if iv, ok := b.Interval().Intersect(occurrence); ok {
			busy = append(busy, iv)
		}
	}
	sort.Slice(busy, func(i, j int) bool {
		return busy[i].Start.Before(busy[j].Start)
	})

	free := make([]domain.Interval, 0)
	cursor := occurrence.Start
	for _, iv := range busy {
		if iv.Start.After(cursor) {
			free = append(free, domain.Interval{Start: cursor, End: iv.Start})
		}
		if iv.End.After(cursor) {
			cursor = iv.End
		}
	}
	if occurrence.End.After(cursor) {
		free = append(free, domain.Interval{Start: cursor, End: occurrence.End})
	}
	return free
}
