/*
Package availability computes the day-by-day free capacity of a
faculty.

For each day in a requested range the calculator subtracts the
faculty's reserved total (from the schedule ledger) from its assigned
total (from the capacity ledger). The resulting ordered series is the
sole input to the job-date policies and to the rescheduler's deficit
detection, and is computed once per decision so every step of that
decision sees the same view.

Entries can be negative: after nodes are removed, days that were
promised more than the faculty now owns show up with negative
availability, and the rescheduler evicts jobs until they recover.
*/
package availability
