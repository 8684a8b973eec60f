package reference

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-SchedulingService/pkg/logger"
)

type fakeRepo struct {
	latest string
	err    error
}

func (r *fakeRepo) MaxReference(context.Context, int64, string) (string, error) {
	return r.latest, r.err
}

type retryCounter map[string]int

func (c retryCounter) IncReferenceRetry(outcome string) {
	c[outcome]++
}

var day = time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)

func TestNextReference(t *testing.T) {
	ctx := context.Background()

	a := NewAllocator(&fakeRepo{}, 5, nil, logger.NewNop())
	ref, err := a.NextReference(ctx, 1, day)
	require.NoError(t, err)
	assert.Equal(t, "BK202401150001", ref)

	a = NewAllocator(&fakeRepo{latest: "BK202401150041"}, 5, nil, logger.NewNop())
	ref, err = a.NextReference(ctx, 1, day)
	require.NoError(t, err)
	assert.Equal(t, "BK202401150042", ref)
}

func TestAllocate_RetriesOnCollision(t *testing.T) {
	retries := retryCounter{}
	a := NewAllocator(&fakeRepo{}, 5, retries, logger.NewNop())

	var tried []string
	ref, err := a.Allocate(context.Background(), 1, day, func(_ context.Context, reference string) error {
		tried = append(tried, reference)
		if len(tried) < 3 {
			return bookingRepo.ErrReferenceTaken
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, "BK202401150003", ref)
	assert.Equal(t, []string{"BK202401150001", "BK202401150002", "BK202401150003"}, tried)
	assert.Equal(t, 2, retries["collision"])
}

func TestAllocate_ExhaustedAfterMaxAttempts(t *testing.T) {
	retries := retryCounter{}
	a := NewAllocator(&fakeRepo{}, 3, retries, logger.NewNop())

	calls := 0
	_, err := a.Allocate(context.Background(), 1, day, func(context.Context, string) error {
		calls++
		return bookingRepo.ErrReferenceTaken
	})

	assert.ErrorIs(t, err, domain.ErrAllocationExhausted)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 1, retries["exhausted"])
}

func TestAllocate_SequenceOverflow(t *testing.T) {
	a := NewAllocator(&fakeRepo{latest: "BK202401159999"}, 5, nil, logger.NewNop())

	_, err := a.Allocate(context.Background(), 1, day, func(context.Context, string) error {
		t.Fatal("insert must not be called")
		return nil
	})
	assert.ErrorIs(t, err, domain.ErrAllocationExhausted)
}

func TestAllocate_PropagatesOtherErrors(t *testing.T) {
	errBoom := errors.New("boom")
	a := NewAllocator(&fakeRepo{}, 5, nil, logger.NewNop())

	_, err := a.Allocate(context.Background(), 1, day, func(context.Context, string) error {
		return errBoom
	})
	assert.ErrorIs(t, err, errBoom)

	a = NewAllocator(&fakeRepo{err: errBoom}, 5, nil, logger.NewNop())
	_, err = a.NextReference(context.Background(), 1, day)
	assert.ErrorIs(t, err, ErrInternal)
	assert.ErrorIs(t, err, errBoom)
}
