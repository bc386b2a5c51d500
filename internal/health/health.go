// Package health tracks the gateway's own liveness for the /healthz
// endpoint: whether it is accepting connections and how many tunnels are
// currently active.
package health

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Status is the JSON shape served on /healthz.
type Status struct {
	Healthy       bool      `json:"healthy"`
	ActiveTunnels int64     `json:"activeTunnels"`
	Uptime        string    `json:"uptime"`
	UptimeSeconds float64   `json:"uptimeSeconds"`
	LastCheck     time.Time `json:"lastCheck"`
}

// Monitor tracks active tunnel count and reports it alongside uptime. Unlike
// the control-plane-reporting monitor it is adapted from, it has no
// heartbeat loop: there is no control plane to report to, so Status
// computes a fresh snapshot on every call instead of running a ticker.
type Monitor struct {
	startTime time.Time
	active    int64
}

// New creates a health monitor whose uptime clock starts now.
func New() *Monitor {
	return &Monitor{startTime: time.Now()}
}

// TunnelStarted records one more active tunnel. Callers must call
// TunnelEnded exactly once for each call to TunnelStarted.
func (m *Monitor) TunnelStarted() {
	atomic.AddInt64(&m.active, 1)
}

// TunnelEnded records that a previously started tunnel has torn down.
func (m *Monitor) TunnelEnded() {
	atomic.AddInt64(&m.active, -1)
}

// Status returns a fresh health snapshot. It is always "healthy": the
// gateway has no external dependency whose failure should flip this, since
// per-tunnel dial failures are reported per-connection, not as a global
// health signal.
func (m *Monitor) Status() Status {
	uptime := time.Since(m.startTime)
	return Status{
		Healthy:       true,
		ActiveTunnels: atomic.LoadInt64(&m.active),
		Uptime:        formatDuration(uptime),
		UptimeSeconds: uptime.Seconds(),
		LastCheck:     time.Now(),
	}
}

func formatDuration(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	}
	if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%ds", seconds)
}
