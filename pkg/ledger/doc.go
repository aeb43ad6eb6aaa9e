/*
Package ledger provides the two bookkeeping views the scheduling
engine runs on.

CapacityLedger owns node records and answers "how much capacity is
assigned to faculty F" (in total and across all faculties).
ScheduleLedger owns job records and answers "how much is reserved for
faculty F on day D", plus the latest day carrying any reservation.

Both ledgers are thin aggregation layers over storage.Store; they hold
no state of their own and are safe for concurrent readers. Writers are
serialized per faculty by the scheduler's keyed lock, not here.

A faculty whose last node was removed still answers capacity queries
with a zero-valued total rather than an error.
*/
package ledger
