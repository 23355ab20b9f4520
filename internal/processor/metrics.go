package processor

import (
	"sync/atomic"
	"time"

	"github.com/parishworks/parish-ledger/internal/model"
)

type ServiceMetrics struct {
	processed  atomic.Int64
	failed     atomic.Int64
	durationNs atomic.Int64
	swept      atomic.Int64
	sweepFails atomic.Int64
	startedNs  atomic.Int64
}

type Stats struct {
	Processed     int64   `json:"processed"`
	Failed        int64   `json:"failed"`
	Swept         int64   `json:"swept"`
	SweepFailures int64   `json:"sweep_failures"`
	RatePerSecond float64 `json:"rate_per_second"`
	AvgDurationMs int64   `json:"avg_duration_ms"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

func NewServiceMetrics() *ServiceMetrics {
	m := &ServiceMetrics{}
	m.startedNs.Store(time.Now().UnixNano())
	return m
}

func (m *ServiceMetrics) RecordSuccess(d time.Duration) {
	m.processed.Add(1)
	m.durationNs.Add(int64(d))
}

func (m *ServiceMetrics) RecordFailure() {
	m.failed.Add(1)
}

func (m *ServiceMetrics) RecordSweep(s *model.DrainSummary) {
	if s == nil {
		return
	}
	m.swept.Add(int64(s.Posted))
	m.sweepFails.Add(int64(s.Failed))
}

func (m *ServiceMetrics) GetStats() Stats {
	processed := m.processed.Load()
	elapsed := time.Since(time.Unix(0, m.startedNs.Load())).Seconds()

	st := Stats{
		Processed:     processed,
		Failed:        m.failed.Load(),
		Swept:         m.swept.Load(),
		SweepFailures: m.sweepFails.Load(),
		UptimeSeconds: elapsed,
	}
	if elapsed > 0 {
		st.RatePerSecond = float64(processed) / elapsed
	}
	if processed > 0 {
		st.AvgDurationMs = time.Duration(m.durationNs.Load() / processed).Milliseconds()
	}
	return st
}

func (m *ServiceMetrics) Reset() {
	m.processed.Store(0)
	m.failed.Store(0)
	m.durationNs.Store(0)
	m.swept.Store(0)
	m.sweepFails.Store(0)
	m.startedNs.Store(time.Now().UnixNano())
}
