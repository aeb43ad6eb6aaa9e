/*
Package manager wires the Gridpool engine together and is the single
entry point for the API server and CLI.

A Manager owns the store, the capacity and schedule ledgers, the
availability calculator, the scheduling service, the rescheduling
coordinator, the node lifecycle batch, the event broker, the
notification sink and the metrics collector. Construction is
NewManager (BoltDB-backed) or NewWithStore (any store, used by tests);
Start launches the background loops and Shutdown tears them down.

The boundary operations are:

  - ContributeNode: validates the admission rule (non-negative
    resources, cpu >= gpu and cpu >= memory), enforces url uniqueness,
    assigns a faculty via the active assignment policy when the
    request names none, and persists the node.
  - SubmitJob: validates the request shape and date, runs the capacity
    ceiling check, schedules under the faculty lock, and emits a
    SCHEDULED notification.
  - ReleaseNode / RemoveNodeNow and the removal batch live on the
    embedded lifecycle manager.
  - AssignedTotals, ReservedTotals, AvailableTotals, AvailableUntil:
    the read-only resource query surface.

Every rejection carries a specific human-readable reason; nothing is
persisted for a rejected request.
*/
package manager
