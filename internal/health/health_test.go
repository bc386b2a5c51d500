package health

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMonitor_StartsHealthyWithNoTunnels(t *testing.T) {
	m := New()
	status := m.Status()
	require.True(t, status.Healthy)
	require.Equal(t, int64(0), status.ActiveTunnels)
}

func TestMonitor_TracksActiveTunnels(t *testing.T) {
	m := New()

	m.TunnelStarted()
	m.TunnelStarted()
	require.Equal(t, int64(2), m.Status().ActiveTunnels)

	m.TunnelEnded()
	require.Equal(t, int64(1), m.Status().ActiveTunnels)

	m.TunnelEnded()
	require.Equal(t, int64(0), m.Status().ActiveTunnels)
}

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		seconds  float64
		expected string
	}{
		{5, "5s"},
		{65, "1m 5s"},
		{3665, "1h 1m 5s"},
		{90065, "1d 1h 1m 5s"},
	}
	for _, tc := range cases {
		got := formatDuration(time.Duration(tc.seconds * float64(time.Second)))
		require.Equal(t, tc.expected, got)
	}
}
