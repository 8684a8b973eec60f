package reschedule_booking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/infra/storage/memory"
	"github.com/m04kA/SMC-SchedulingService/internal/integrations/directory"
	"github.com/m04kA/SMC-SchedulingService/internal/integrations/notifier"
	"github.com/m04kA/SMC-SchedulingService/internal/service/availability"
	availabilityModels "github.com/m04kA/SMC-SchedulingService/internal/service/availability/models"
	"github.com/m04kA/SMC-SchedulingService/internal/service/bookings"
	bookingModels "github.com/m04kA/SMC-SchedulingService/internal/service/bookings/models"
	"github.com/m04kA/SMC-SchedulingService/internal/service/conflict"
	"github.com/m04kA/SMC-SchedulingService/internal/service/reference"
	"github.com/m04kA/SMC-SchedulingService/internal/usecase/create_booking"
	"github.com/m04kA/SMC-SchedulingService/pkg/logger"
	"github.com/m04kA/SMC-SchedulingService/pkg/ptr"
)

const (
	tenantID   = int64(1)
	resourceID = int64(10)
	userID     = int64(100)
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time {
	return c.now
}

type testEnv struct {
	windows  *availability.Service
	bookings *bookings.Service
	create   *create_booking.UseCase
	uc       *UseCase
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	now := time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)
	clock := fixedClock{now: now}
	log := logger.NewNop()
	store := memory.NewStore().WithClock(clock.Now)
	events := notifier.NewLogNotifier(log)

	windows := availability.NewService(store.Windows(), store.Bookings(), directory.AllowAll{}, store, events, log).
		WithTimeProvider(clock)
	detector := conflict.NewDetector(store.Bookings(), windows, log)
	allocator := reference.NewAllocator(store.Bookings(), 0, nil, log)

	return &testEnv{
		windows:  windows,
		bookings: bookings.NewService(store.Bookings(), windows, store, events, nil, log).WithTimeProvider(clock),
		create: create_booking.NewUseCase(store.Bookings(), detector, allocator, windows,
			directory.AllowAll{}, store, events, nil, log),
		uc: NewUseCase(store.Bookings(), detector, allocator, windows, store, events, nil, log).WithTimeProvider(clock),
	}
}

func (e *testEnv) createWindow(t *testing.T, day int, maxBookings int) int64 {
	t.Helper()

	w, err := e.windows.Create(context.Background(), &availabilityModels.CreateWindowRequest{
		TenantID:                  tenantID,
		UserID:                    userID,
		ResourceID:                ptr.Ptr(resourceID),
		Title:                     "W",
		StartTime:                 time.Date(2024, 1, day, 9, 0, 0, 0, time.UTC),
		EndTime:                   time.Date(2024, 1, day, 17, 0, 0, 0, time.UTC),
		TimeZone:                  "UTC",
		MinBookingDurationMinutes: 30,
		MaxBookingDurationMinutes: 60,
		SlotIntervalMinutes:       30,
		MaxConcurrentBookings:     1,
		MaxBookings:               maxBookings,
	})
	require.NoError(t, err)
	return w.ID
}

func (e *testEnv) book(t *testing.T, start, end time.Time) *bookingModels.BookingResponse {
	t.Helper()

	resp, err := e.create.Execute(context.Background(), &create_booking.Request{
		TenantID:    tenantID,
		RequesterID: userID,
		ResourceID:  resourceID,
		StartTime:   start,
		EndTime:     end,
	})
	require.NoError(t, err)
	return resp
}

func (e *testEnv) usage(t *testing.T, windowID int64) int {
	t.Helper()
	w, err := e.windows.GetByID(context.Background(), tenantID, windowID)
	require.NoError(t, err)
	return w.CurrentBookings
}

func at(day, hour, minute int) time.Time {
	return time.Date(2024, 1, day, hour, minute, 0, 0, time.UTC)
}

func TestUseCase_CreatesLinkedRecord(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	windowID := env.createWindow(t, 15, 1)
	original := env.book(t, at(15, 10, 0), at(15, 11, 0))

	resp, err := env.uc.Execute(ctx, &Request{
		TenantID:  tenantID,
		UserID:    userID,
		BookingID: original.ID,
		StartTime: at(15, 14, 0),
		EndTime:   at(15, 15, 0),
	})
	require.NoError(t, err)

	assert.Equal(t, string(domain.StatusRescheduled), resp.Previous.Status)
	require.NotNil(t, resp.Previous.RescheduledToID)
	assert.Equal(t, resp.Current.ID, *resp.Previous.RescheduledToID)

	assert.Equal(t, string(domain.StatusPending), resp.Current.Status)
	require.NotNil(t, resp.Current.RescheduledFromID)
	assert.Equal(t, original.ID, *resp.Current.RescheduledFromID)
	assert.Equal(t, "BK202401150002", resp.Current.Reference)
	assert.Equal(t, at(15, 14, 0), resp.Current.StartTime)

	// Лимит окна равен одному бронированию: перенос внутри окна его не превышает
	assert.Equal(t, 1, env.usage(t, windowID))

	stored, err := env.bookings.GetByID(ctx, tenantID, original.ID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusRescheduled), stored.Status)

	// Старая запись закрыта: повторный перенос и отмена невозможны
	_, err = env.uc.Execute(ctx, &Request{
		TenantID: tenantID, UserID: userID, BookingID: original.ID,
		StartTime: at(15, 12, 0), EndTime: at(15, 13, 0),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = env.bookings.Cancel(ctx, &bookingModels.CancelBookingRequest{TenantID: tenantID, UserID: userID, BookingID: original.ID})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestUseCase_OverlapWithItself(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.createWindow(t, 15, 0)
	original := env.book(t, at(15, 10, 0), at(15, 11, 0))

	resp, err := env.uc.Execute(ctx, &Request{
		TenantID: tenantID, UserID: userID, BookingID: original.ID,
		StartTime: at(15, 10, 30), EndTime: at(15, 11, 30),
	})
	require.NoError(t, err)
	assert.Equal(t, at(15, 10, 30), resp.Current.StartTime)
}

func TestUseCase_ConflictKeepsOriginal(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	windowID := env.createWindow(t, 15, 0)
	original := env.book(t, at(15, 10, 0), at(15, 11, 0))
	other := env.book(t, at(15, 12, 0), at(15, 13, 0))

	_, err := env.uc.Execute(ctx, &Request{
		TenantID: tenantID, UserID: userID, BookingID: original.ID,
		StartTime: at(15, 12, 30), EndTime: at(15, 13, 30),
	})
	require.Error(t, err)
	var conflictErr *domain.ConflictError
	require.ErrorAs(t, err, &conflictErr)
	assert.Equal(t, other.ID, conflictErr.BookingID)

	stored, err := env.bookings.GetByID(ctx, tenantID, original.ID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusPending), stored.Status)
	assert.Nil(t, stored.RescheduledToID)
	assert.Equal(t, 2, env.usage(t, windowID))

	_, err = env.uc.Execute(ctx, &Request{
		TenantID: tenantID, UserID: userID, BookingID: original.ID,
		StartTime: at(15, 18, 0), EndTime: at(15, 19, 0),
	})
	assert.ErrorIs(t, err, domain.ErrNoCoveringWindow)
}

func TestUseCase_MovesUsageBetweenWindows(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	first := env.createWindow(t, 15, 0)
	second := env.createWindow(t, 16, 0)
	original := env.book(t, at(15, 10, 0), at(15, 11, 0))

	resp, err := env.uc.Execute(ctx, &Request{
		TenantID: tenantID, UserID: userID, BookingID: original.ID,
		StartTime: at(16, 10, 0), EndTime: at(16, 11, 0),
	})
	require.NoError(t, err)

	assert.Equal(t, "BK202401160001", resp.Current.Reference)
	require.NotNil(t, resp.Current.AvailabilityWindowID)
	assert.Equal(t, second, *resp.Current.AvailabilityWindowID)
	assert.Equal(t, 0, env.usage(t, first))
	assert.Equal(t, 1, env.usage(t, second))
}

func TestUseCase_Validation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.uc.Execute(ctx, &Request{
		TenantID: tenantID, UserID: userID, BookingID: 1,
		StartTime: at(15, 11, 0), EndTime: at(15, 10, 0),
	})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = env.uc.Execute(ctx, &Request{
		TenantID: tenantID, UserID: userID, BookingID: 42,
		StartTime: at(15, 10, 0), EndTime: at(15, 11, 0),
	})
	assert.ErrorIs(t, err, domain.ErrBookingNotFound)
}
