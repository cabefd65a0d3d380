package transfer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "recording_backend"

var (
	filesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "transfer",
		Name:      "files_total",
		Help:      "Number of file transfers by outcome.",
	}, []string{"outcome"})

	bytesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "transfer",
		Name:      "bytes_total",
		Help:      "Bytes copied into object storage by recording type.",
	}, []string{"recording_type"})

	retriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "transfer",
		Name:      "download_retries_total",
		Help:      "Download requests retried after a transient failure.",
	})

	durationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Subsystem: "transfer",
		Name:      "duration_seconds",
		Help:      "Wall time of a file transfer.",
		Buckets:   prometheus.ExponentialBuckets(0.5, 2, 14),
	})
)
