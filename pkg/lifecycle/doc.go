/*
Package lifecycle manages node removal.

Contributors cannot remove a node synchronously; a removal request
only marks the node in a persistent pending set, and a daily batch at
a fixed UTC cutover hour performs the actual removals. This keeps
capacity stable for jobs already promised against the current day's
totals. The batch hands one removal, carrying all the removed node
snapshots, to the registered RemovalHandler (the rescheduler) before
returning, then publishes a matching node.removed event for
informational subscribers.

RemoveNow is the privileged escape hatch: it removes a node and runs
the same handoff immediately, bypassing the pending set.
*/
package lifecycle
