package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	ingestChunks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "melvinport",
			Subsystem: "ingest",
			Name:      "chunks_total",
			Help:      "Chunks written to the engine.",
		},
		[]string{"port", "success"},
	)
	ingestBytes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "melvinport",
			Subsystem: "ingest",
			Name:      "bytes_total",
			Help:      "Payload bytes written to the engine.",
		},
		[]string{"port"},
	)
	ingestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "melvinport",
			Subsystem: "ingest",
			Name:      "chunk_duration_seconds",
			Help:      "Per-chunk ingest duration including the processing pass.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"port", "success"},
	)
	dispatchDeliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "melvinport",
			Subsystem: "dispatch",
			Name:      "deliveries_total",
			Help:      "Output deliveries by destination sink.",
		},
		[]string{"sink", "success"},
	)
	dispatchBytes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "melvinport",
			Subsystem: "dispatch",
			Name:      "bytes_total",
			Help:      "Output bytes delivered to sinks.",
		},
		[]string{"sink"},
	)
	dispatchDiscards = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "melvinport",
			Subsystem: "dispatch",
			Name:      "discards_total",
			Help:      "Pending outputs discarded for lack of a route.",
		},
	)
	feedbackScores = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "melvinport",
			Subsystem: "feedback",
			Name:      "score",
			Help:      "Correctness scores submitted to the engine.",
			Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
		},
	)
	cycleDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "melvinport",
			Subsystem: "cycle",
			Name:      "duration_seconds",
			Help:      "Full ingest-then-dispatch cycle duration.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"success"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			ingestChunks,
			ingestBytes,
			ingestDuration,
			dispatchDeliveries,
			dispatchBytes,
			dispatchDiscards,
			feedbackScores,
			cycleDuration,
		)
	})
}

func RecordIngestChunk(port uint8, size int, duration time.Duration, success bool) {
	RegisterMetrics()
	portLabel := strconv.Itoa(int(port))
	successLabel := strconv.FormatBool(success)
	ingestChunks.WithLabelValues(portLabel, successLabel).Inc()
	ingestDuration.WithLabelValues(portLabel, successLabel).Observe(duration.Seconds())
	if success {
		ingestBytes.WithLabelValues(portLabel).Add(float64(size))
	}
}

func RecordDispatch(sinkKind string, size int, success bool) {
	RegisterMetrics()
	successLabel := strconv.FormatBool(success)
	dispatchDeliveries.WithLabelValues(sinkKind, successLabel).Inc()
	if success {
		dispatchBytes.WithLabelValues(sinkKind).Add(float64(size))
	}
}

func RecordDiscard() {
	RegisterMetrics()
	dispatchDiscards.Inc()
}

func RecordFeedback(score float32) {
	RegisterMetrics()
	feedbackScores.Observe(float64(score))
}

func RecordCycle(duration time.Duration, success bool) {
	RegisterMetrics()
	cycleDuration.WithLabelValues(strconv.FormatBool(success)).Observe(duration.Seconds())
}
