package conflict

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/service/availability"
	"github.com/m04kA/SMC-SchedulingService/pkg/logger"
)

type stubBookings struct {
	overlapping []*domain.Booking
	err         error
	excluded    *int64
}

func (s *stubBookings) ListActiveOverlapping(_ context.Context, _, _ int64, _ domain.Interval, excludeID *int64) ([]*domain.Booking, error) {
	s.excluded = excludeID
	return s.overlapping, s.err
}

type stubStore struct {
	coverage    []domain.Coverage
	verdicts    map[int64]error
	checked     []int64
	lastExclude *int64
}

func (s *stubStore) FindCovering(context.Context, int64, int64, *int64, domain.Interval) ([]domain.Coverage, error) {
	return s.coverage, nil
}

func (s *stubStore) IsWithinConstraints(_ context.Context, cov domain.Coverage, q availability.ConstraintQuery) error {
	s.checked = append(s.checked, cov.Window.ID)
	s.lastExclude = q.ExcludeWindowID
	return s.verdicts[cov.Window.ID]
}

func coverage(ids ...int64) []domain.Coverage {
	res := make([]domain.Coverage, 0, len(ids))
	for _, id := range ids {
		res = append(res, domain.Coverage{Window: &domain.AvailabilityWindow{ID: id}})
	}
	return res
}

func validRequest() Request {
	start := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	return Request{TenantID: 1, ResourceID: 10, Interval: domain.NewInterval(start, 60)}
}

func TestDetector_CheckConflict(t *testing.T) {
	infraErr := errors.New("connection reset")

	tests := []struct {
		name        string
		bookings    *stubBookings
		store       *stubStore
		wantErr     error
		wantWindow  int64
		wantChecked []int64
	}{
		{
			name:        "first passing window is accepted",
			bookings:    &stubBookings{},
			store:       &stubStore{coverage: coverage(1, 2, 3), verdicts: map[int64]error{1: domain.ErrBufferViolation}},
			wantWindow:  2,
			wantChecked: []int64{1, 2},
		},
		{
			name:     "overlap wins over availability",
			bookings: &stubBookings{overlapping: []*domain.Booking{{ID: 77}}},
			store:    &stubStore{},
			wantErr:  domain.ErrBookingConflict,
		},
		{
			name:     "no covering window",
			bookings: &stubBookings{},
			store:    &stubStore{},
			wantErr:  domain.ErrNoCoveringWindow,
		},
		{
			name:     "first rejection is returned",
			bookings: &stubBookings{},
			store: &stubStore{coverage: coverage(1, 2), verdicts: map[int64]error{
				1: domain.ErrDurationOutOfBounds,
				2: domain.ErrCapacityExceeded,
			}},
			wantErr:     domain.ErrDurationOutOfBounds,
			wantChecked: []int64{1, 2},
		},
		{
			name:     "infrastructure error stops the scan",
			bookings: &stubBookings{},
			store: &stubStore{coverage: coverage(1, 2), verdicts: map[int64]error{
				1: infraErr,
			}},
			wantErr:     infraErr,
			wantChecked: []int64{1},
		},
		{
			name:     "repository failure",
			bookings: &stubBookings{err: infraErr},
			store:    &stubStore{},
			wantErr:  ErrInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			detector := NewDetector(tt.bookings, tt.store, logger.NewNop())

			res, err := detector.CheckConflict(context.Background(), validRequest())
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, res)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantWindow, res.Coverage.Window.ID)
			}
			if tt.wantChecked != nil {
				assert.Equal(t, tt.wantChecked, tt.store.checked)
			}
		})
	}
}

func TestDetector_ConflictNamesBooking(t *testing.T) {
	detector := NewDetector(&stubBookings{overlapping: []*domain.Booking{{ID: 77}, {ID: 78}}}, &stubStore{}, logger.NewNop())

	_, err := detector.CheckConflict(context.Background(), validRequest())

	var conflictErr *domain.ConflictError
	require.ErrorAs(t, err, &conflictErr)
	assert.Equal(t, int64(77), conflictErr.BookingID)
	assert.Equal(t, "booking_conflict", domain.UnavailableReason(err))
}

func TestDetector_PassesExclusions(t *testing.T) {
	bookings := &stubBookings{}
	store := &stubStore{coverage: coverage(5)}
	detector := NewDetector(bookings, store, logger.NewNop())

	bookingID, windowID := int64(3), int64(5)
	req := validRequest()
	req.ExcludeBookingID = &bookingID
	req.ExcludeWindowID = &windowID

	_, err := detector.CheckConflict(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, &bookingID, bookings.excluded)
	assert.Equal(t, &windowID, store.lastExclude)
}

func TestDetector_InvalidInterval(t *testing.T) {
	detector := NewDetector(&stubBookings{}, &stubStore{}, logger.NewNop())

	req := validRequest()
	req.Interval.End = req.Interval.Start

	_, err := detector.CheckConflict(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrValidation)
}
