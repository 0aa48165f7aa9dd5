package app

import (
	"sync/atomic"
	"time"

	"github.com/dshills/citemark/internal/overlay/citations"
)

// Metrics counts overlay activity and frame timing.
type Metrics struct {
	scans      atomic.Uint64
	installed  atomic.Uint64
	rejected   atomic.Uint64
	lineErrors atomic.Uint64

	frameCount   atomic.Uint64
	frameTotalNs atomic.Int64
	frameMaxNs   atomic.Int64

	startTime time.Time
}

// NewMetrics creates a new metrics tracker.
func NewMetrics() *Metrics {
	return &Metrics{startTime: time.Now()}
}

// RecordScan records the outcome of one citation scan.
func (m *Metrics) RecordScan(r citations.ScanReport) {
	m.scans.Add(1)
	m.installed.Add(uint64(r.Installed))
	m.lineErrors.Add(uint64(r.LineErrors))
	for _, n := range r.Rejected {
		m.rejected.Add(uint64(n))
	}
}

// RecordFrame records frame timing.
func (m *Metrics) RecordFrame(duration time.Duration) {
	ns := duration.Nanoseconds()
	m.frameCount.Add(1)
	m.frameTotalNs.Add(ns)
	for {
		old := m.frameMaxNs.Load()
		if ns <= old || m.frameMaxNs.CompareAndSwap(old, ns) {
			break
		}
	}
}

// MetricsSnapshot is a point-in-time copy of Metrics.
type MetricsSnapshot struct {
	Scans      uint64
	Installed  uint64
	Rejected   uint64
	LineErrors uint64
	Frames     uint64
	AvgFrame   time.Duration
	MaxFrame   time.Duration
	Uptime     time.Duration
}

// Snapshot returns the current values.
func (m *Metrics) Snapshot() MetricsSnapshot {
	s := MetricsSnapshot{
		Scans:      m.scans.Load(),
		Installed:  m.installed.Load(),
		Rejected:   m.rejected.Load(),
		LineErrors: m.lineErrors.Load(),
		Frames:     m.frameCount.Load(),
		MaxFrame:   time.Duration(m.frameMaxNs.Load()),
		Uptime:     time.Since(m.startTime),
	}
	if s.Frames > 0 {
		s.AvgFrame = time.Duration(m.frameTotalNs.Load() / int64(s.Frames))
	}
	return s
}
