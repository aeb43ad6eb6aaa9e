/*
Package rescheduler repairs the schedule after capacity loss.

When nodes are removed, days that were promised more than their
faculty now owns show up with negative availability. The coordinator
walks those deficit days faculty by faculty, evicting the most
expensive jobs first until every day is solvent again, then resubmits
each evicted job through the scheduling service. A job the shrunken
faculty can never fit again is dropped permanently; both outcomes
notify the requester.

Descending-cost eviction is a greedy heuristic: it disturbs the fewest
jobs per unit of capacity recovered, which matters in a model where a
reservation cannot be partially honored.

The node lifecycle manager invokes the coordinator synchronously for
every committed removal, so a capacity loss cannot complete without
its repair pass. All decisions are derived from current ledger state,
so replaying a removal is harmless, and per-faculty locks keep
eviction passes from interleaving with live scheduling for the same
faculty.
*/
package rescheduler
