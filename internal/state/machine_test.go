package state

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/langchou/evpoints/internal/models"
)

func TestMachineTransitionsBetweenAllStatuses(t *testing.T) {
	for _, from := range models.AllStatuses {
		for _, to := range models.AllStatuses {
			var calls int
			m := NewMachine(7, from, func(pointID int64, f, d models.PointStatus) {
				calls++
				require.Equal(t, int64(7), pointID)
				require.Equal(t, from, f)
				require.Equal(t, to, d)
			})

			changed, err := m.Transition(context.Background(), to)
			require.NoError(t, err)
			require.Equal(t, from != to, changed, "%s -> %s", from, to)
			require.Equal(t, to, m.Current())
			if from == to {
				require.Zero(t, calls)
			} else {
				require.Equal(t, 1, calls)
			}
		}
	}
}

func TestMachineRejectsUnknownStatus(t *testing.T) {
	m := NewMachine(1, models.StatusAvailable, nil)

	changed, err := m.Transition(context.Background(), models.PointStatus("broken"))
	require.ErrorIs(t, err, ErrInvalidStatus)
	require.False(t, changed)
	require.Equal(t, models.StatusAvailable, m.Current())
	require.False(t, m.Can("broken"))
	require.True(t, m.Can(models.StatusReserved))
}

func TestMachineRejectsCorruptStoredStatus(t *testing.T) {
	m := NewMachine(1, models.PointStatus("AVAILABLE"), nil)

	_, err := m.Transition(context.Background(), models.StatusReserved)
	require.ErrorIs(t, err, ErrInvalidStatus)
}
