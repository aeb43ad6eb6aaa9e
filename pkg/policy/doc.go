/*
Package policy provides the pluggable placement policies for Gridpool.

Two policy families exist, both stateless strategy objects swapped by
reference at their call sites:

NodeAssignmentPolicy decides which faculty absorbs a newly contributed
node that arrived without an explicit faculty:

  - least-loaded: the faculty with the smallest assigned cpu+gpu+memory
    total, ties to the first seen.
  - random: a uniform pick over all faculties, with the randomness
    source injected so the policy stays testable.

Picking from zero faculties returns ErrNoFaculties; the contribution is
then rejected with a reason rather than invented a home.

JobSchedulingPolicy decides which future day a job reserves, given the
day-ordered availability series produced by the availability
calculator:

  - earliest-fit: first day that covers the requirements.
  - latest-acceptable: closest fitting day at or before the preferred
    completion date, overshooting forward only when necessary.
  - least-busy: the fitting day with the least spare capacity at or
    before the preferred date (tightest pack), forward earliest-fit
    past the preferred day as fallback.

All job policies fall back to the last day of the series when nothing
fits; the scheduling service sizes the series so that day always has
full faculty capacity, making the fallback unreachable for any job
that passed the capacity ceiling check.
*/
package policy
