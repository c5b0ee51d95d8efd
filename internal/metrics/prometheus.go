package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains the Prometheus metrics exported by the service.
type Metrics struct {
	// Run metrics
	RunsStarted   prometheus.Counter
	RunsCompleted prometheus.Counter
	RunsFailed    prometheus.Counter
	RunDuration   prometheus.Histogram
	QueueDepth    prometheus.Gauge

	// Chunk metrics
	ChunksTranscribed prometheus.Counter
}

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		RunsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "whisperact_runs_started_total",
			Help: "Total number of transcription runs started",
		}),
		RunsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "whisperact_runs_completed_total",
			Help: "Total number of transcription runs completed successfully",
		}),
		RunsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "whisperact_runs_failed_total",
			Help: "Total number of transcription runs that failed",
		}),
		RunDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "whisperact_run_duration_seconds",
			Help:    "Wall clock duration of transcription runs",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12), // 1s to ~68 minutes
		}),
		QueueDepth: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "whisperact_queue_depth",
			Help: "Current number of queued runs",
		}),
		ChunksTranscribed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "whisperact_chunks_transcribed_total",
			Help: "Total number of audio chunks transcribed",
		}),
	}
}

// RecordRunStarted increments the runs started counter.
func (m *Metrics) RecordRunStarted() {
	m.RunsStarted.Inc()
}

// RecordRunCompleted records a successful run and its duration.
func (m *Metrics) RecordRunCompleted(durationSeconds float64) {
	m.RunsCompleted.Inc()
	m.RunDuration.Observe(durationSeconds)
}

// RecordRunFailed records a failed run and its duration.
func (m *Metrics) RecordRunFailed(durationSeconds float64) {
	m.RunsFailed.Inc()
	m.RunDuration.Observe(durationSeconds)
}

// SetQueueDepth sets the current queue depth.
func (m *Metrics) SetQueueDepth(n int) {
	m.QueueDepth.Set(float64(n))
}

// RecordChunksTranscribed adds n transcribed chunks to the counter.
func (m *Metrics) RecordChunksTranscribed(n int) {
	m.ChunksTranscribed.Add(float64(n))
}
