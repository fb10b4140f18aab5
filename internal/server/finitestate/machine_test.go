package finitestate

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMachineLifecycle(t *testing.T) {
	t.Parallel()

	machine, err := New(slog.Default().Handler())
	require.NoError(t, err)
	assert.Equal(t, StatusNew, machine.GetState())

	require.NoError(t, machine.Transition(StatusBooting))
	require.NoError(t, machine.Transition(StatusRunning))
	require.NoError(t, machine.Transition(StatusStopping))
	require.NoError(t, machine.Transition(StatusStopped))
	assert.Equal(t, StatusStopped, machine.GetState())
}

func TestMachineInvalidTransition(t *testing.T) {
	t.Parallel()

	machine, err := New(slog.Default().Handler())
	require.NoError(t, err)

	// New cannot jump straight to Stopping
	assert.False(t, machine.TransitionBool(StatusStopping))
	assert.Equal(t, StatusNew, machine.GetState())
}

func TestMachineStateChan(t *testing.T) {
	t.Parallel()

	machine, err := New(slog.Default().Handler())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stateChan := machine.GetStateChan(ctx)

	// initial state is delivered first
	select {
	case state := <-stateChan:
		assert.Equal(t, StatusNew, state)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for initial state")
	}

	require.NoError(t, machine.Transition(StatusBooting))

	select {
	case state := <-stateChan:
		assert.Equal(t, StatusBooting, state)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for state update")
	}
}
