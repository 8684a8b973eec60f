package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	availabilityRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/availability"
	bookingRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-SchedulingService/pkg/ptr"
)

func newBooking(ref string, start time.Time) *domain.Booking {
	return &domain.Booking{
		TenantID:        1,
		Reference:       ref,
		ResourceID:      10,
		RequesterID:     100,
		StartTime:       start,
		EndTime:         start.Add(time.Hour),
		DurationMinutes: 60,
		Status:          domain.StatusPending,
	}
}

func TestBookingRepository_ReferenceTaken(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Bookings()
	start := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)

	_, err := repo.Create(ctx, newBooking("BK202401150001", start))
	require.NoError(t, err)

	_, err = repo.Create(ctx, newBooking("BK202401150001", start.Add(2*time.Hour)))
	assert.ErrorIs(t, err, bookingRepo.ErrReferenceTaken)

	latest, err := repo.MaxReference(ctx, 1, "BK20240115")
	require.NoError(t, err)
	assert.Equal(t, "BK202401150001", latest)
}

func TestBookingRepository_ListActiveOverlapping(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Bookings()
	start := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)

	first, err := repo.Create(ctx, newBooking("BK202401150001", start))
	require.NoError(t, err)
	_, err = repo.Create(ctx, newBooking("BK202401150002", start.Add(time.Hour)))
	require.NoError(t, err)

	found, err := repo.ListActiveOverlapping(ctx, 1, 10, domain.NewInterval(start.Add(30*time.Minute), 60), nil)
	require.NoError(t, err)
	assert.Len(t, found, 2)

	found, err = repo.ListActiveOverlapping(ctx, 1, 10, domain.NewInterval(start, 60), &first.ID)
	require.NoError(t, err)
	assert.Empty(t, found, "back to back booking must not be reported")
}

func TestBookingRepository_UpdateStatusCompareAndSwap(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Bookings()

	b, err := repo.Create(ctx, newBooking("BK202401150001", time.Now()))
	require.NoError(t, err)

	b.Status = domain.StatusConfirmed
	require.NoError(t, repo.UpdateStatus(ctx, b, domain.StatusPending))

	b.Status = domain.StatusCancelled
	assert.ErrorIs(t, repo.UpdateStatus(ctx, b, domain.StatusPending), bookingRepo.ErrStatusChanged)
}

func TestWindowRepository_UsageLimit(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Windows()

	w, err := repo.Create(ctx, &domain.AvailabilityWindow{TenantID: 1, MaxBookings: 2, IsActive: true})
	require.NoError(t, err)

	_, err = repo.IncrementUsage(ctx, w.ID)
	require.NoError(t, err)
	current, err := repo.IncrementUsage(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, current)

	_, err = repo.IncrementUsage(ctx, w.ID)
	assert.ErrorIs(t, err, availabilityRepo.ErrUsageLimitReached)

	stored, err := repo.GetByID(ctx, 1, w.ID)
	require.NoError(t, err)
	assert.Equal(t, 100.0, stored.Utilization)

	current, err = repo.DecrementUsage(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, current)
}

func TestWindowRepository_ListIncludesResourceAgnosticWindows(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Windows()

	_, err := repo.Create(ctx, &domain.AvailabilityWindow{TenantID: 1, ResourceID: ptr.Ptr(int64(10)), IsActive: true, IsPublished: true})
	require.NoError(t, err)
	_, err = repo.Create(ctx, &domain.AvailabilityWindow{TenantID: 1, IsActive: true, IsPublished: true})
	require.NoError(t, err)
	_, err = repo.Create(ctx, &domain.AvailabilityWindow{TenantID: 1, ResourceID: ptr.Ptr(int64(11)), IsActive: true, IsPublished: true})
	require.NoError(t, err)
	_, err = repo.Create(ctx, &domain.AvailabilityWindow{TenantID: 1, ResourceID: ptr.Ptr(int64(10)), IsActive: true})
	require.NoError(t, err)

	windows, err := repo.List(ctx, domain.WindowsFilter{TenantID: 1, ResourceID: ptr.Ptr(int64(10)), OnlyBookable: true})
	require.NoError(t, err)
	assert.Len(t, windows, 2)
}

func TestWindowRepository_ListDuringIsNotTruncated(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Windows()

	for i := 0; i < int(domain.DefaultListLimit)+5; i++ {
		start := time.Date(2020, 1, 1, 9, 0, 0, 0, time.UTC).AddDate(0, 0, i)
		_, err := repo.Create(ctx, &domain.AvailabilityWindow{
			TenantID: 1, StartTime: start, EndTime: start.Add(8 * time.Hour), IsActive: true, IsPublished: true,
		})
		require.NoError(t, err)
	}

	all, err := repo.List(ctx, domain.WindowsFilter{TenantID: 1, Unlimited: true})
	require.NoError(t, err)
	assert.Len(t, all, int(domain.DefaultListLimit)+5)

	page, err := repo.List(ctx, domain.WindowsFilter{TenantID: 1})
	require.NoError(t, err)
	assert.Len(t, page, int(domain.DefaultListLimit))

	day := time.Date(2020, 1, 10, 0, 0, 0, 0, time.UTC)
	during, err := repo.List(ctx, domain.WindowsFilter{
		TenantID: 1,
		During:   &domain.Interval{Start: day, End: day.Add(24 * time.Hour)},
	})
	require.NoError(t, err)
	require.Len(t, during, 1)
	assert.Equal(t, day.Add(9*time.Hour), during[0].StartTime)
}

func TestDoReadOnly_AllowsNestedRepositoryCalls(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	_, err := store.Windows().Create(ctx, &domain.AvailabilityWindow{TenantID: 1, IsActive: true, IsPublished: true})
	require.NoError(t, err)

	err = store.DoReadOnly(ctx, func(txCtx context.Context) error {
		windows, err := store.Windows().List(txCtx, domain.WindowsFilter{TenantID: 1})
		if err != nil {
			return err
		}
		assert.Len(t, windows, 1)

		return store.DoSerializable(txCtx, func(context.Context) error { return nil })
	})
	require.NoError(t, err)
}

func TestDoSerializable_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	errBoom := errors.New("boom")

	w, err := store.Windows().Create(ctx, &domain.AvailabilityWindow{TenantID: 1})
	require.NoError(t, err)

	err = store.DoSerializable(ctx, func(ctx context.Context) error {
		if _, err := store.Windows().IncrementUsage(ctx, w.ID); err != nil {
			return err
		}
		if _, err := store.Bookings().Create(ctx, newBooking("BK202401150001", time.Now())); err != nil {
			return err
		}
		return errBoom
	})
	assert.ErrorIs(t, err, errBoom)

	stored, err := store.Windows().GetByID(ctx, 1, w.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.CurrentBookings)

	latest, err := store.Bookings().MaxReference(ctx, 1, "BK")
	require.NoError(t, err)
	assert.Empty(t, latest)
}

func TestDoSerializable_CancelledContextRollsBack(t *testing.T) {
	store := NewStore()
	w, err := store.Windows().Create(context.Background(), &domain.AvailabilityWindow{TenantID: 1})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	err = store.DoSerializable(ctx, func(ctx context.Context) error {
		_, err := store.Windows().IncrementUsage(ctx, w.ID)
		cancel()
		return err
	})
	assert.ErrorIs(t, err, context.Canceled)

	stored, err := store.Windows().GetByID(context.Background(), 1, w.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.CurrentBookings)
}

func TestDoSerializable_ConcurrentIncrementsRespectLimit(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	w, err := store.Windows().Create(ctx, &domain.AvailabilityWindow{TenantID: 1, MaxBookings: 5})
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := store.DoSerializable(ctx, func(ctx context.Context) error {
				_, err := store.Windows().IncrementUsage(ctx, w.ID)
				return err
			})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, succeeded)
	stored, err := store.Windows().GetByID(ctx, 1, w.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, stored.CurrentBookings)
}
