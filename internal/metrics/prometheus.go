package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// SendsTotal send outcomes reported by the link, by status
	SendsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telemetry_sends_total",
			Help: "Total number of telemetry sends by delivery status",
		},
		[]string{"status"},
	)

	// SendRejections sends refused before reaching the radio, by reason
	SendRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telemetry_send_rejections_total",
			Help: "Total number of sends rejected immediately by the link",
		},
		[]string{"reason"},
	)

	// CycleDuration time for one sample/estimate/send cycle
	CycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "node_cycle_duration_seconds",
			Help:    "Node acquisition cycle duration in seconds",
			Buckets: []float64{.05, .1, .25, .3, .4, .5, .75, 1, 2},
		},
	)

	// RecordsReceived decoded records, by sender address
	RecordsReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telemetry_records_received_total",
			Help: "Total number of telemetry records decoded by the receiver",
		},
		[]string{"source"},
	)

	// DecodeErrors datagrams discarded as malformed
	DecodeErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "telemetry_decode_errors_total",
			Help: "Total number of datagrams discarded because they failed to decode",
		},
	)

	// LoudestChannel the active indicator, 0 for none
	LoudestChannel = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "receiver_loudest_channel",
			Help: "Currently active indicator channel (1-4), 0 when none",
		},
	)

	// ChannelLoudness last loudness score per channel
	ChannelLoudness = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "receiver_channel_loudness",
			Help: "Last received loudness score per channel",
		},
		[]string{"channel"},
	)

	// ArchiveDropped readings not archived because the queue was full
	ArchiveDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "archive_dropped_total",
			Help: "Total number of readings dropped from the archive queue",
		},
	)

	// ArchiveOperations archive writes, by operation and status
	ArchiveOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "archive_operations_total",
			Help: "Total number of archive database operations",
		},
		[]string{"operation", "status"},
	)
)

// Handler serves the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}
