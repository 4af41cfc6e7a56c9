package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusValid(t *testing.T) {
	for _, s := range []AppointmentStatus{StatusPending, StatusConfirmed, StatusInProgress, StatusCompleted, StatusCancelled} {
		assert.True(t, s.Valid(), "%q should be valid", s)
	}
	assert.False(t, AppointmentStatus("Booked").Valid())
	assert.False(t, AppointmentStatus("").Valid())
}

func TestStatusTerminal(t *testing.T) {
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusCancelled.Terminal())
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusConfirmed.Terminal())
	assert.False(t, StatusInProgress.Terminal())
}

func TestStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to AppointmentStatus
		want     bool
	}{
		// Forward moves, including skips.
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusInProgress, true},
		{StatusPending, StatusCompleted, true},
		{StatusConfirmed, StatusInProgress, true},
		{StatusConfirmed, StatusCompleted, true},
		{StatusInProgress, StatusCompleted, true},

		// Backward moves are rejected.
		{StatusConfirmed, StatusPending, false},
		{StatusInProgress, StatusConfirmed, false},
		{StatusCompleted, StatusInProgress, false},

		// Cancelled is reachable from any non-terminal status.
		{StatusPending, StatusCancelled, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusInProgress, StatusCancelled, true},
		{StatusCompleted, StatusCancelled, false},

		// Terminal statuses stay put, except for the same-status no-op.
		{StatusCancelled, StatusPending, false},
		{StatusCancelled, StatusConfirmed, false},
		{StatusCompleted, StatusCompleted, true},
		{StatusCancelled, StatusCancelled, true},
		{StatusPending, StatusPending, true},

		// Unknown targets are never reachable.
		{StatusPending, AppointmentStatus("Booked"), false},
	}

	for _, tc := range cases {
		got := tc.from.CanTransitionTo(tc.to)
		assert.Equal(t, tc.want, got, "%q -> %q", tc.from, tc.to)
	}
}
