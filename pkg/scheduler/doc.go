/*
Package scheduler provides the job placement service for Gridpool.

The service answers two questions for an incoming job. CanEverSchedule
is the hard feasibility gate: the job's faculty must own nodes and the
job's requirements must fit under the faculty's total assigned
capacity, independent of what is already reserved. Schedule then
commits a feasible job to a concrete day: it computes one availability
snapshot from tomorrow through a headroom day past both the latest
existing reservation and the job's preferred completion date, runs the
active job-date policy over that snapshot, and persists the decision.

# Window headroom

The snapshot always extends one day past the latest reservation, so
its final day carries the faculty's full capacity. Any job that passed
the ceiling check therefore fits somewhere, and a policy returning no
day (ErrPolicyExhausted) indicates a bug rather than load.

# Concurrency

The service holds no per-request state. Callers serialize decisions
per faculty with the KeyedLock shared between the scheduler, the
rescheduler and the node lifecycle manager:

	locks.Lock(facultyID)
	defer locks.Unlock(facultyID)
	ok, reason, err := svc.CanEverSchedule(job)
	...
	err = svc.Schedule(job)

Decisions for different faculties run fully in parallel. The active
policy is swappable at runtime via SetPolicy; a decision in flight
finishes with the policy it started with.
*/
package scheduler
