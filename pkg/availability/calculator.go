package availability

import (
	"fmt"
	"time"

	"github.com/gridpool/gridpool/pkg/ledger"
	"github.com/gridpool/gridpool/pkg/types"
)

// Calculator derives per-day available capacity for a faculty:
// assigned total minus reserved total, for every calendar day in a
// range. Results may be negative after a capacity loss; negative days
// are what the rescheduler hunts for.
type Calculator struct {
	capacity *ledger.CapacityLedger
	schedule *ledger.ScheduleLedger
}

// NewCalculator creates an availability calculator over the ledgers.
func NewCalculator(capacity *ledger.CapacityLedger, schedule *ledger.ScheduleLedger) *Calculator {
	return &Calculator{capacity: capacity, schedule: schedule}
}

// Range returns one entry per calendar day in [from, until], both
// inclusive, in ascending day order. Days with no reservations carry
// the full assigned total. The series is computed from a single read
// of each ledger so one scheduling decision sees one consistent view;
// callers reuse the slice across policy calls rather than recompute.
func (c *Calculator) Range(facultyID string, from, until time.Time) ([]types.AvailableResources, error) {
	from, until = types.DayOf(from), types.DayOf(until)
	if until.Before(from) {
		return nil, fmt.Errorf("invalid range: %s is before %s",
			until.Format(time.DateOnly), from.Format(time.DateOnly))
	}

	total, err := c.capacity.TotalsForFaculty(facultyID)
	if err != nil {
		return nil, fmt.Errorf("failed to get faculty totals: %w", err)
	}

	reservedTotals, err := c.schedule.ReservedPerFacultyPerDay()
	if err != nil {
		return nil, fmt.Errorf("failed to get reserved totals: %w", err)
	}
	reservedByDay := make(map[time.Time]types.Resources)
	for _, rt := range reservedTotals {
		if rt.FacultyID == facultyID {
			reservedByDay[types.DayOf(rt.Date)] = rt.Reserved
		}
	}

	days := types.DaysBetween(from, until)
	series := make([]types.AvailableResources, 0, days)
	for day := from; !day.After(until); day = types.NextDay(day) {
		series = append(series, types.AvailableResources{
			Date:      day,
			Available: total.Assigned.Sub(reservedByDay[day]),
		})
	}
	return series, nil
}
