/*
Package metrics provides Prometheus instrumentation and health
endpoints for Gridpool.

Counters and histograms (jobs scheduled/rescheduled/dropped, evictions,
deficit days, scheduling latency, API requests) are updated inline by
the components that own them. The Collector polls the ledgers on a
15-second interval to refresh the state gauges: nodes and assigned
capacity per faculty, and the pending-removal backlog.

Handler exposes /metrics; HealthHandler and ReadyHandler back /healthz
and /readyz, driven by components registering their status through
RegisterComponent / UpdateComponent.
*/
package metrics
