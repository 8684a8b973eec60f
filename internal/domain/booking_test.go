package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookingStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to BookingStatus
		allowed  bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusInProgress, false},
		{StatusConfirmed, StatusInProgress, true},
		{StatusInProgress, StatusCompleted, true},
		{StatusInProgress, StatusNoShow, false},
		{StatusConfirmed, StatusNoShow, true},
		{StatusPending, StatusRescheduled, true},
		{StatusCancelled, StatusCancelled, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusNoShow, StatusConfirmed, false},
		{StatusRescheduled, StatusPending, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestBookingTransitionTo_StampsAudit(t *testing.T) {
	now := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	b := &Booking{Status: StatusPending}

	require.NoError(t, b.TransitionTo(StatusConfirmed, now, 7))
	require.NotNil(t, b.ConfirmedAt)
	assert.Equal(t, now, *b.ConfirmedAt)
	assert.Equal(t, int64(7), *b.UpdatedBy)

	require.NoError(t, b.TransitionTo(StatusInProgress, now.Add(time.Minute), 7))
	require.NotNil(t, b.ActualStartAt)

	require.NoError(t, b.TransitionTo(StatusCompleted, now.Add(time.Hour), 7))
	require.NotNil(t, b.ActualEndAt)
	assert.True(t, b.IsClosed())
	assert.False(t, b.IsActive())
}

func TestBookingTransitionTo_CancelTwiceIsRejected(t *testing.T) {
	b := &Booking{Status: StatusConfirmed}
	now := time.Now()

	require.NoError(t, b.TransitionTo(StatusCancelled, now, 1))
	err := b.TransitionTo(StatusCancelled, now, 1)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, StatusCancelled, b.Status)
}

func TestParseBookingStatus(t *testing.T) {
	s, err := ParseBookingStatus("no_show")
	require.NoError(t, err)
	assert.Equal(t, StatusNoShow, s)

	_, err = ParseBookingStatus("checked_in")
	assert.ErrorIs(t, err, ErrValidation)
}
