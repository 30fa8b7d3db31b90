package metrics

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

const defaultMaxLatencySamples = 1000

// Metrics はジョブ実行のメトリクスを収集する
type Metrics struct {
	submittedJobs atomic.Uint64
	completedJobs atomic.Uint64
	panickedJobs  atomic.Uint64
	totalRunNs    atomic.Uint64

	mu                sync.RWMutex
	startTime         time.Time
	latencies         []time.Duration
	maxLatencySamples int
}

// New は新しいメトリクスを作成する
func New() *Metrics {
	return &Metrics{
		startTime:         time.Now(),
		latencies:         make([]time.Duration, 0, defaultMaxLatencySamples),
		maxLatencySamples: defaultMaxLatencySamples,
	}
}

// RecordSubmitted は受け付けたジョブを記録する
func (m *Metrics) RecordSubmitted() {
	m.submittedJobs.Add(1)
}

// RecordCompleted は正常終了したジョブを記録する
func (m *Metrics) RecordCompleted(latency time.Duration) {
	m.completedJobs.Add(1)
	m.totalRunNs.Add(uint64(latency.Nanoseconds()))

	m.mu.Lock()
	if len(m.latencies) < m.maxLatencySamples {
		m.latencies = append(m.latencies, latency)
	}
	m.mu.Unlock()
}

// RecordPanicked は panic したジョブを記録する
func (m *Metrics) RecordPanicked(latency time.Duration) {
	m.panickedJobs.Add(1)
	m.totalRunNs.Add(uint64(latency.Nanoseconds()))
}

// SubmittedJobs は受け付けたジョブ数を返す
func (m *Metrics) SubmittedJobs() uint64 {
	return m.submittedJobs.Load()
}

// CompletedJobs は正常終了したジョブ数を返す
func (m *Metrics) CompletedJobs() uint64 {
	return m.completedJobs.Load()
}

// PanickedJobs は panic したジョブ数を返す
func (m *Metrics) PanickedJobs() uint64 {
	return m.panickedJobs.Load()
}

// FinishedJobs は実行を終えたジョブ数を返す
func (m *Metrics) FinishedJobs() uint64 {
	return m.completedJobs.Load() + m.panickedJobs.Load()
}

// JobsPerSecond は開始からの平均スループットを返す
func (m *Metrics) JobsPerSecond() float64 {
	elapsed := time.Since(m.startTime).Seconds()
	if elapsed == 0 {
		return 0
	}
	return float64(m.FinishedJobs()) / elapsed
}

// AverageLatency は平均実行時間を返す
func (m *Metrics) AverageLatency() time.Duration {
	finished := m.FinishedJobs()
	if finished == 0 {
		return 0
	}
	return time.Duration(m.totalRunNs.Load() / finished)
}

// P99Latency はP99実行時間を返す（サンプルベース）
func (m *Metrics) P99Latency() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.latencies) == 0 {
		return 0
	}

	sorted := make([]time.Duration, len(m.latencies))
	copy(sorted, m.latencies)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i] < sorted[j]
	})

	idx := int(float64(len(sorted)) * 0.99)
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// PanicRate は panic 率を返す（0.0〜1.0）
func (m *Metrics) PanicRate() float64 {
	finished := m.FinishedJobs()
	if finished == 0 {
		return 0
	}
	return float64(m.panickedJobs.Load()) / float64(finished)
}

// Snapshot はメトリクスのスナップショット
type Snapshot struct {
	SubmittedJobs  uint64
	CompletedJobs  uint64
	PanickedJobs   uint64
	JobsPerSecond  float64
	AverageLatency time.Duration
	P99Latency     time.Duration
	PanicRate      float64
	Elapsed        time.Duration
}

// Snapshot は現在のメトリクスのスナップショットを返す
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		SubmittedJobs:  m.SubmittedJobs(),
		CompletedJobs:  m.CompletedJobs(),
		PanickedJobs:   m.PanickedJobs(),
		JobsPerSecond:  m.JobsPerSecond(),
		AverageLatency: m.AverageLatency(),
		P99Latency:     m.P99Latency(),
		PanicRate:      m.PanicRate(),
		Elapsed:        time.Since(m.startTime),
	}
}
