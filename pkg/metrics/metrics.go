package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Capacity metrics
	NodesTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gridpool_nodes_total",
			Help: "Total number of contributed nodes by faculty",
		},
		[]string{"faculty"},
	)

	AssignedCapacity = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gridpool_assigned_capacity_units",
			Help: "Capacity units assigned to each faculty by resource",
		},
		[]string{"faculty", "resource"},
	)

	PendingRemovalsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "gridpool_pending_removals_total",
			Help: "Nodes waiting for the daily removal cutover",
		},
	)

	NodesUnreachable = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gridpool_nodes_unreachable",
			Help: "Contributed nodes currently failing reachability probes, by faculty",
		},
		[]string{"faculty"},
	)

	// Schedule metrics
	JobsScheduledTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gridpool_jobs_scheduled_total",
			Help: "Total number of jobs committed to a day",
		},
	)

	JobsRejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gridpool_jobs_rejected_total",
			Help: "Total number of rejected job requests by reason class",
		},
		[]string{"reason"},
	)

	JobsRescheduledTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gridpool_jobs_rescheduled_total",
			Help: "Total number of jobs moved to a new day after capacity loss",
		},
	)

	JobsDroppedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gridpool_jobs_dropped_total",
			Help: "Total number of jobs dropped because their faculty can no longer fit them",
		},
	)

	EvictionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gridpool_evictions_total",
			Help: "Total number of jobs evicted from deficit days",
		},
	)

	DeficitDaysTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gridpool_deficit_days_total",
			Help: "Total number of (faculty, day) pairs found in deficit",
		},
	)

	SchedulingLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gridpool_scheduling_latency_seconds",
			Help:    "Time taken to place one job in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	ReschedulingDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gridpool_rescheduling_duration_seconds",
			Help:    "Time taken to process one node-removal event in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// API metrics
	APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gridpool_api_requests_total",
			Help: "Total number of API requests by route and status",
		},
		[]string{"route", "status"},
	)

	APIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gridpool_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
)

func init() {
	// Register all metrics
	prometheus.MustRegister(NodesTotal)
	prometheus.MustRegister(AssignedCapacity)
	prometheus.MustRegister(PendingRemovalsTotal)
	prometheus.MustRegister(NodesUnreachable)
	prometheus.MustRegister(JobsScheduledTotal)
	prometheus.MustRegister(JobsRejectedTotal)
	prometheus.MustRegister(JobsRescheduledTotal)
	prometheus.MustRegister(JobsDroppedTotal)
	prometheus.MustRegister(EvictionsTotal)
	prometheus.MustRegister(DeficitDaysTotal)
	prometheus.MustRegister(SchedulingLatency)
	prometheus.MustRegister(ReschedulingDuration)
	prometheus.MustRegister(APIRequestsTotal)
	prometheus.MustRegister(APIRequestDuration)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
