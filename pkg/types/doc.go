/*
Package types defines the shared data model for Gridpool.

The model is small and deliberately flat:

  - Resources: a cpu/gpu/memory triple, used for node capacity, job
    requirements, reservations, and derived availability.
  - Node: a contributed unit of capacity, owned by a user and assigned
    to exactly one faculty.
  - Job: a day-granularity reservation request against a faculty pool.
  - FacultyTotal / ReservedTotal / AvailableResources: the aggregate
    views the scheduling engine works with. AvailableResources is
    always derived (assigned - reserved) and never persisted.
  - NotificationEvent / NodeRemovalEvent: the events crossing the
    engine boundary.

Dates are plain time.Time values truncated to UTC midnight via DayOf;
the helpers Tomorrow, NextDay and DaysBetween implement the calendar
arithmetic the scheduler and availability calculator need.

All types are safe to copy; none carry internal synchronization.
*/
package types
