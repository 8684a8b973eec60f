package create_booking

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/infra/storage/memory"
	"github.com/m04kA/SMC-SchedulingService/internal/integrations/directory"
	"github.com/m04kA/SMC-SchedulingService/internal/service/availability"
	availabilityModels "github.com/m04kA/SMC-SchedulingService/internal/service/availability/models"
	"github.com/m04kA/SMC-SchedulingService/internal/service/conflict"
	"github.com/m04kA/SMC-SchedulingService/internal/service/reference"
	"github.com/m04kA/SMC-SchedulingService/pkg/logger"
	"github.com/m04kA/SMC-SchedulingService/pkg/ptr"
)

const (
	tenantID    = int64(1)
	resourceID  = int64(10)
	requesterID = int64(100)
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time {
	return c.now
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []domain.EventType
}

func (n *recordingNotifier) Publish(_ context.Context, event domain.EventType, _ string, _ interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

type testEnv struct {
	store    *memory.Store
	windows  *availability.Service
	notifier *recordingNotifier
	uc       *UseCase
}

func newTestEnv(t *testing.T, dir DirectoryClient) *testEnv {
	t.Helper()

	now := time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)
	log := logger.NewNop()
	store := memory.NewStore().WithClock(func() time.Time { return now })
	notifier := &recordingNotifier{}

	windows := availability.NewService(store.Windows(), store.Bookings(), directory.AllowAll{}, store, notifier, log).
		WithTimeProvider(fixedClock{now: now})
	detector := conflict.NewDetector(store.Bookings(), windows, log)
	allocator := reference.NewAllocator(store.Bookings(), 0, nil, log)

	return &testEnv{
		store:    store,
		windows:  windows,
		notifier: notifier,
		uc:       NewUseCase(store.Bookings(), detector, allocator, windows, dir, store, notifier, nil, log),
	}
}

// createWindow создаёт окно 2024-01-15 09:00-17:00 UTC для ресурса
func (e *testEnv) createWindow(t *testing.T, mutate func(r *availabilityModels.CreateWindowRequest)) int64 {
	t.Helper()

	req := &availabilityModels.CreateWindowRequest{
		TenantID:                  tenantID,
		UserID:                    requesterID,
		ResourceID:                ptr.Ptr(resourceID),
		Title:                     "W1",
		StartTime:                 at(9, 0),
		EndTime:                   at(17, 0),
		TimeZone:                  "UTC",
		MinBookingDurationMinutes: 30,
		MaxBookingDurationMinutes: 60,
		SlotIntervalMinutes:       30,
		MaxConcurrentBookings:     1,
	}
	if mutate != nil {
		mutate(req)
	}

	w, err := e.windows.Create(context.Background(), req)
	require.NoError(t, err)
	return w.ID
}

func at(hour, minute int) time.Time {
	return time.Date(2024, 1, 15, hour, minute, 0, 0, time.UTC)
}

func request(start, end time.Time) *Request {
	return &Request{
		TenantID:    tenantID,
		RequesterID: requesterID,
		ResourceID:  resourceID,
		StartTime:   start,
		EndTime:     end,
	}
}

func TestUseCase_WorkedScenario(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, directory.AllowAll{})
	windowID := env.createWindow(t, nil)

	first, err := env.uc.Execute(ctx, request(at(10, 0), at(11, 0)))
	require.NoError(t, err)
	assert.Equal(t, "BK202401150001", first.Reference)
	assert.Equal(t, string(domain.StatusPending), first.Status)
	assert.Equal(t, 60, first.DurationMinutes)
	require.NotNil(t, first.AvailabilityWindowID)
	assert.Equal(t, windowID, *first.AvailabilityWindowID)

	_, err = env.uc.Execute(ctx, request(at(10, 30), at(11, 30)))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrBookingConflict)
	var conflictErr *domain.ConflictError
	require.True(t, errors.As(err, &conflictErr))
	assert.Equal(t, first.ID, conflictErr.BookingID)

	// Соседний интервал не пересекается с первым
	second, err := env.uc.Execute(ctx, request(at(11, 0), at(12, 0)))
	require.NoError(t, err)
	assert.Equal(t, "BK202401150002", second.Reference)

	w, err := env.windows.GetByID(ctx, tenantID, windowID)
	require.NoError(t, err)
	assert.Equal(t, 2, w.CurrentBookings)

	assert.Equal(t, []domain.EventType{
		domain.EventAvailabilityCreated,
		domain.EventBookingCreated,
		domain.EventBookingCreated,
	}, env.notifier.events)
}

func TestUseCase_Rejections(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, directory.AllowAll{})
	env.createWindow(t, nil)

	tests := []struct {
		name    string
		req     *Request
		wantErr error
	}{
		{
			name:    "end before start",
			req:     request(at(11, 0), at(10, 0)),
			wantErr: domain.ErrValidation,
		},
		{
			name:    "fractional minutes",
			req:     request(at(10, 0), at(10, 30).Add(time.Second)),
			wantErr: domain.ErrValidation,
		},
		{
			name:    "outside of any window",
			req:     request(at(18, 0), at(18, 30)),
			wantErr: domain.ErrNoCoveringWindow,
		},
		{
			name:    "crosses the window end",
			req:     request(at(16, 30), at(17, 30)),
			wantErr: domain.ErrNoCoveringWindow,
		},
		{
			name:    "longer than allowed",
			req:     request(at(10, 0), at(11, 30)),
			wantErr: domain.ErrDurationOutOfBounds,
		},
		{
			name:    "shorter than allowed",
			req:     request(at(10, 0), at(10, 15)),
			wantErr: domain.ErrDurationOutOfBounds,
		},
		{
			name: "unknown time zone",
			req: func() *Request {
				r := request(at(10, 0), at(11, 0))
				r.TimeZone = "Mars/Olympus"
				return r
			}(),
			wantErr: domain.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.uc.Execute(ctx, tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	bookings, err := env.store.Bookings().List(ctx, domain.BookingsFilter{TenantID: tenantID, IncludeInactive: true})
	require.NoError(t, err)
	assert.Empty(t, bookings)
}

func TestUseCase_AdvanceRules(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, directory.AllowAll{})
	env.createWindow(t, func(r *availabilityModels.CreateWindowRequest) {
		r.StartTime = time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
		r.EndTime = time.Date(2024, 1, 10, 17, 0, 0, 0, time.UTC)
		r.Recurrence = &availabilityModels.RecurrenceRequest{Type: "daily", Interval: 1}
		r.MinAdvanceNoticeHours = 2
		r.MaxAdvanceBookingDays = 7
	})

	// Сейчас 2024-01-10 08:00, уведомление за 2 часа
	_, err := env.uc.Execute(ctx, &Request{
		TenantID: tenantID, RequesterID: requesterID, ResourceID: resourceID,
		StartTime: time.Date(2024, 1, 10, 9, 30, 0, 0, time.UTC),
		EndTime:   time.Date(2024, 1, 10, 10, 0, 0, 0, time.UTC),
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientAdvanceNotice)

	_, err = env.uc.Execute(ctx, &Request{
		TenantID: tenantID, RequesterID: requesterID, ResourceID: resourceID,
		StartTime: time.Date(2024, 1, 20, 10, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2024, 1, 20, 11, 0, 0, 0, time.UTC),
	})
	assert.ErrorIs(t, err, domain.ErrTooFarInAdvance)

	created, err := env.uc.Execute(ctx, &Request{
		TenantID: tenantID, RequesterID: requesterID, ResourceID: resourceID,
		StartTime: time.Date(2024, 1, 10, 10, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2024, 1, 10, 11, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, "BK202401100001", created.Reference)
}

func TestUseCase_ReferenceUsesBookingTimeZone(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, directory.AllowAll{})
	env.createWindow(t, func(r *availabilityModels.CreateWindowRequest) {
		r.StartTime = at(0, 0).Add(-4 * time.Hour)
		r.EndTime = at(12, 0)
	})

	// 2024-01-14 22:00 UTC - это уже 2024-01-15 в Москве
	req := request(at(0, 0).Add(-2*time.Hour), at(0, 0).Add(-time.Hour))
	req.TimeZone = "Europe/Moscow"

	created, err := env.uc.Execute(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "BK202401150001", created.Reference)
	assert.Equal(t, "Europe/Moscow", created.TimeZone)
}

func TestUseCase_PricingAndStaffWindows(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, directory.AllowAll{})
	windowID := env.createWindow(t, func(r *availabilityModels.CreateWindowRequest) {
		r.StaffID = ptr.Ptr(int64(7))
		r.BasePrice = ptr.Ptr(10.0)
		r.PricePerHour = ptr.Ptr(30.0)
	})

	req := request(at(10, 0), at(10, 30))
	req.AssigneeID = ptr.Ptr(int64(8))
	_, err := env.uc.Execute(ctx, req)
	assert.ErrorIs(t, err, domain.ErrNoCoveringWindow)

	req.AssigneeID = ptr.Ptr(int64(7))
	created, err := env.uc.Execute(ctx, req)
	require.NoError(t, err)
	require.NotNil(t, created.Cost)
	assert.InDelta(t, 25.0, *created.Cost, 0.001)
	assert.Equal(t, windowID, *created.AvailabilityWindowID)
}

type missingDirectory struct {
	missingResource bool
}

func (d missingDirectory) GetResource(_ context.Context, tenantID, id int64) (*directory.Resource, error) {
	if d.missingResource {
		return nil, directory.ErrResourceNotFound
	}
	return &directory.Resource{ID: id, TenantID: tenantID, Active: true}, nil
}

func (d missingDirectory) GetUser(_ context.Context, _, _ int64) (*directory.User, error) {
	return nil, directory.ErrUserNotFound
}

func TestUseCase_DirectoryLookups(t *testing.T) {
	ctx := context.Background()

	env := newTestEnv(t, missingDirectory{missingResource: true})
	env.createWindow(t, nil)
	_, err := env.uc.Execute(ctx, request(at(10, 0), at(11, 0)))
	assert.ErrorIs(t, err, domain.ErrResourceNotFound)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	env = newTestEnv(t, missingDirectory{})
	env.createWindow(t, nil)
	_, err = env.uc.Execute(ctx, request(at(10, 0), at(11, 0)))
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestUseCase_RandomSequenceNeverOverlaps(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, directory.AllowAll{})
	env.createWindow(t, func(r *availabilityModels.CreateWindowRequest) {
		r.MinBookingDurationMinutes = 15
		r.MaxConcurrentBookings = 0
	})

	rnd := rand.New(rand.NewSource(42))
	durations := []int{15, 30, 45, 60}
	created := 0
	for i := 0; i < 300; i++ {
		start := at(9, 0).Add(time.Duration(rnd.Intn(32)) * 15 * time.Minute)
		end := domain.AddMinutes(start, durations[rnd.Intn(len(durations))])

		_, err := env.uc.Execute(ctx, request(start, end))
		if err == nil {
			created++
			continue
		}
		require.True(t, domain.IsRejection(err), "unexpected error: %v", err)
	}
	require.Positive(t, created)

	bookings, err := env.store.Bookings().List(ctx, domain.BookingsFilter{TenantID: tenantID})
	require.NoError(t, err)
	require.Len(t, bookings, created)
	for i := range bookings {
		for j := i + 1; j < len(bookings); j++ {
			assert.False(t, domain.Overlaps(bookings[i].Interval(), bookings[j].Interval()),
				"bookings %s and %s overlap", bookings[i].Reference, bookings[j].Reference)
		}
	}
}

func TestUseCase_ConcurrentCreatesRespectCapacity(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, directory.AllowAll{})
	windowID := env.createWindow(t, func(r *availabilityModels.CreateWindowRequest) {
		r.StartTime = at(6, 0)
		r.EndTime = at(20, 0)
		r.MaxBookings = 5
	})

	const attempts = 20
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		refs     = make(map[string]struct{})
		rejected int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			start := domain.AddMinutes(at(6, 0), i*30)
			resp, err := env.uc.Execute(ctx, request(start, domain.AddMinutes(start, 30)))

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				assert.ErrorIs(t, err, domain.ErrCapacityExceeded)
				rejected++
				return
			}
			refs[resp.Reference] = struct{}{}
		}(i)
	}
	wg.Wait()

	assert.Len(t, refs, 5)
	assert.Equal(t, attempts-5, rejected)

	w, err := env.windows.GetByID(ctx, tenantID, windowID)
	require.NoError(t, err)
	assert.Equal(t, 5, w.CurrentBookings)
	assert.InDelta(t, 100.0, w.Utilization, 0.001)
}

func TestUseCase_ConcurrentCreatesGetUniqueReferences(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, directory.AllowAll{})
	env.createWindow(t, func(r *availabilityModels.CreateWindowRequest) {
		r.StartTime = at(6, 0)
		r.EndTime = at(20, 0)
	})

	const n = 12
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		refs = make(map[string]struct{})
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			start := domain.AddMinutes(at(6, 0), i*60)
			resp, err := env.uc.Execute(ctx, request(start, domain.AddMinutes(start, 60)))
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			refs[resp.Reference] = struct{}{}
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	require.Len(t, refs, n)
	for seq := 1; seq <= n; seq++ {
		assert.Contains(t, refs, fmt.Sprintf("BK20240115%04d", seq))
	}
}
