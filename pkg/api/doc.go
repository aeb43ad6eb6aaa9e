/*
Package api exposes the Gridpool engine over HTTP/JSON.

The surface mirrors the manager's boundary operations:

	POST   /v1/nodes                  contribute a node
	GET    /v1/nodes                  list nodes
	DELETE /v1/nodes?url=...          remove a node immediately (privileged)
	POST   /v1/nodes/release          request removal at the next cutover
	POST   /v1/nodes/release/cancel   cancel a pending removal
	GET    /v1/nodes/pending-removals list pending removals
	POST   /v1/removals/run           run the removal batch now (privileged)
	POST   /v1/jobs                   submit a job
	GET    /v1/jobs                   list jobs
	GET    /v1/resources/assigned     per-faculty assigned capacity
	GET    /v1/resources/reserved     per-faculty per-day reservations
	GET    /v1/resources/available    per-faculty per-day derived availability
	GET    /v1/resources/available-until?faculty=...&until=YYYY-MM-DD
	PUT    /v1/policies               swap the active policies
	GET    /metrics, /healthz, /readyz

Accepted writes answer 201 (or 202 for deferred removals); requests the
engine rejects on business grounds answer 422 with the result body, so
the caller can distinguish a rejection from a transport failure.
Ownership violations answer 403 and unknown node urls 404.
*/
package api
