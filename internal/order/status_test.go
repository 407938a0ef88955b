package order

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStatusTransitions(t *testing.T) {
	require.True(t, StatusPending.CanTransitionTo(StatusCompleted))
	require.True(t, StatusPending.CanTransitionTo(StatusCanceled))
	require.True(t, StatusCompleted.CanTransitionTo(StatusDelivered))

	require.False(t, StatusPending.CanTransitionTo(StatusDelivered))
	require.False(t, StatusCompleted.CanTransitionTo(StatusCanceled))
	require.False(t, StatusDelivered.CanTransitionTo(StatusPending))
	require.False(t, StatusCanceled.CanTransitionTo(StatusCompleted))
}

func TestTerminalStates(t *testing.T) {
	require.False(t, StatusPending.Terminal())
	require.False(t, StatusCompleted.Terminal())
	require.True(t, StatusDelivered.Terminal())
	require.True(t, StatusCanceled.Terminal())
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("COMPLETED")
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, s)

	_, err = ParseStatus("SHIPPED")
	require.Error(t, err)
}
