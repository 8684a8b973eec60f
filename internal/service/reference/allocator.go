package reference

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/booking"
)

// InsertFunc сохраняет бронирование с выделенным номером
// Должна вернуть ошибку, совместимую с booking.ErrReferenceTaken, если номер уже занят
type InsertFunc func(ctx context.Context, reference string) error

// Allocator выдаёт номера бронирований вида BK<YYYYMMDD><NNNN>
// Последовательность ведётся отдельно для каждого арендатора и дня
type Allocator struct {
	repo        BookingRepository
	maxAttempts int
	retries     RetryRecorder
	logger      Logger
}

// NewAllocator создает аллокатор номеров
func NewAllocator(repo BookingRepository, maxAttempts int, retries RetryRecorder, logger Logger) *Allocator {
	if maxAttempts <= 0 {
		maxAttempts = domain.DefaultReferenceMaxAttempts
	}
	return &Allocator{
		repo:        repo,
		maxAttempts: maxAttempts,
		retries:     retries,
		logger:      logger,
	}
}

// NextReference возвращает номер, следующий за максимальным существующим на дату
func (a *Allocator) NextReference(ctx context.Context, tenantID int64, date time.Time) (string, error) {
	seq, err := a.nextSequence(ctx, tenantID, date)
	if err != nil {
		return "", err
	}
	return domain.FormatReference(date, seq)
}

// Allocate выделяет номер и сохраняет бронирование через insert
// При коллизии (параллельное выделение того же номера) пробует следующий номер,
// после maxAttempts попыток возвращает AllocationExhausted
func (a *Allocator) Allocate(ctx context.Context, tenantID int64, date time.Time, insert InsertFunc) (string, error) {
	seq, err := a.nextSequence(ctx, tenantID, date)
	if err != nil {
		return "", err
	}

	for attempt := 1; attempt <= a.maxAttempts; attempt++ {
		reference, err := domain.FormatReference(date, seq)
		if err != nil {
			a.logger.Error("AllocateReference: sequence for tenant=%d date=%s is exhausted", tenantID, date.Format(domain.DateFormat))
			a.record("exhausted")
			return "", err
		}

		err = insert(ctx, reference)
		if err == nil {
			return reference, nil
		}
		if !errors.Is(err, bookingRepo.ErrReferenceTaken) {
			return "", err
		}

		a.logger.Warn("AllocateReference: reference %s is taken, attempt %d/%d", reference, attempt, a.maxAttempts)
		a.record("collision")
		seq++
	}

	a.record("exhausted")
	return "", fmt.Errorf("%w: %d attempts for tenant=%d date=%s",
		domain.ErrAllocationExhausted, a.maxAttempts, tenantID, date.Format(domain.DateFormat))
}

func (a *Allocator) nextSequence(ctx context.Context, tenantID int64, date time.Time) (int, error) {
	prefix := domain.ReferencePrefixFor(date)

	latest, err := a.repo.MaxReference(ctx, tenantID, prefix)
	if err != nil {
		a.logger.Error("AllocateReference: failed to read max reference for tenant=%d prefix=%s: %v", tenantID, prefix, err)
		return 0, fmt.Errorf("%w: read max reference: %w", ErrInternal, err)
	}
	if latest == "" {
		return 1, nil
	}

	seq, ok := domain.ParseReferenceSequence(latest, prefix)
	if !ok {
		return 0, fmt.Errorf("%w: malformed reference %q", ErrInternal, latest)
	}
	return seq + 1, nil
}

func (a *Allocator) record(outcome string) {
	if a.retries != nil {
		a.retries.IncReferenceRetry(outcome)
	}
}
