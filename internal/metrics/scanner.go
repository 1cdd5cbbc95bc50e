package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	scannerBlocksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "transferscan",
		Subsystem: "scanner",
		Name:      "blocks_total",
		Help:      "Count of scanned blocks.",
	}, []string{"network", "status"})

	scannerBlockDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "transferscan",
		Subsystem: "scanner",
		Name:      "block_duration_seconds",
		Help:      "Duration of fetching and decoding a single block.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"network", "status"})

	scannerMatchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "transferscan",
		Subsystem: "scanner",
		Name:      "matches_total",
		Help:      "Count of transactions decoded as ERC-20 transfers.",
	}, []string{"network"})

	scannerScanDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "transferscan",
		Subsystem: "scanner",
		Name:      "scan_duration_seconds",
		Help:      "Duration of a whole range scan.",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 14), // 1s..~2h
	}, []string{"network"})

	scannerScanSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "transferscan",
		Subsystem: "scanner",
		Name:      "scan_blocks",
		Help:      "Number of blocks per range scan.",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 16),
	}, []string{"network"})

	scannerProgress = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "transferscan",
		Subsystem: "scanner",
		Name:      "progress_ratio",
		Help:      "Share of the current range already scanned.",
	}, []string{"network"})
)

type Scanner struct {
	network string
}

func NewScanner(network string) *Scanner {
	return &Scanner{network: labelOrUnknown(network)}
}

func (m Scanner) ObserveBlock(err error, matches int, started time.Time) {
	status := statusLabel(err)
	scannerBlocksTotal.WithLabelValues(m.network, status).Inc()
	scannerBlockDuration.WithLabelValues(m.network, status).
		Observe(time.Since(started).Seconds())
	if matches > 0 {
		scannerMatchesTotal.WithLabelValues(m.network).Add(float64(matches))
	}
}

func (m Scanner) ObserveScan(blocks uint64, started time.Time) {
	scannerScanDuration.WithLabelValues(m.network).Observe(time.Since(started).Seconds())
	scannerScanSize.WithLabelValues(m.network).Observe(float64(blocks))
}

func (m Scanner) SetProgress(done, total uint64) {
	if total == 0 {
		scannerProgress.WithLabelValues(m.network).Set(1)
		return
	}
	scannerProgress.WithLabelValues(m.network).Set(float64(done) / float64(total))
}
