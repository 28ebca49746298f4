package simulator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	metricsNamespace = "daasim"
	subsystem        = "simulator"
)

var (
	blocksSimulated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: subsystem,
			Name:      "blocks_simulated_total",
			Help:      "Total number of blocks produced by the simulator",
		},
		[]string{"scenario"},
	)

	retargetsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: subsystem,
			Name:      "retargets_total",
			Help:      "Total number of difficulty computations by phase",
		},
		[]string{"scenario", "phase"},
	)

	timespanClamps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: subsystem,
			Name:      "timespan_clamps_total",
			Help:      "Total number of retargets whose timespan hit a bound",
		},
		[]string{"scenario", "bound"},
	)

	runsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: subsystem,
			Name:      "runs_total",
			Help:      "Total number of simulation runs by result",
		},
		[]string{"scenario", "result"},
	)

	lastDifficulty = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: subsystem,
			Name:      "last_difficulty",
			Help:      "Difficulty of the most recently simulated block",
		},
		[]string{"scenario"},
	)

	lastBlockTime = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: subsystem,
			Name:      "last_block_time_seconds",
			Help:      "Simulated time taken by the most recent block",
		},
		[]string{"scenario"},
	)

	runDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: subsystem,
			Name:      "run_duration_seconds",
			Help:      "Wall clock time taken by one simulation run",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"scenario"},
	)
)
