package policy

import (
	"time"

	"github.com/gridpool/gridpool/pkg/types"
)

// preferredIndex locates the job's preferred completion date in the
// availability series. A preferred date beyond the computed window
// clamps to the last index.
func preferredIndex(avail []types.AvailableResources, job *types.Job) int {
	preferred := types.DayOf(job.PreferredCompletionDate)
	for i, a := range avail {
		if types.DayOf(a.Date).Equal(preferred) {
			return i
		}
	}
	return len(avail) - 1
}

// EarliestFit schedules a job on the first day that covers its
// requirements in all three dimensions.
type EarliestFit struct{}

// NewEarliestFit creates the earliest-fit policy.
func NewEarliestFit() *EarliestFit {
	return &EarliestFit{}
}

// Name returns the policy name.
func (p *EarliestFit) Name() string {
	return "earliest-fit"
}

// ChooseDate scans forward and returns the first fitting day, falling
// back to the last day of the series if nothing fits.
func (p *EarliestFit) ChooseDate(avail []types.AvailableResources, job *types.Job) time.Time {
	if len(avail) == 0 {
		return time.Time{}
	}
	for _, a := range avail {
		if a.Available.Fits(job.Required) {
			return a.Date
		}
	}
	return avail[len(avail)-1].Date
}

// LatestAcceptable schedules a job as close to its preferred
// completion date as possible, preferring earlier days over later
// ones: it scans backward from the preferred day to the start of the
// window, and only overshoots the preferred day when nothing before it
// fits.
type LatestAcceptable struct{}

// NewLatestAcceptable creates the latest-acceptable policy.
func NewLatestAcceptable() *LatestAcceptable {
	return &LatestAcceptable{}
}

// Name returns the policy name.
func (p *LatestAcceptable) Name() string {
	return "latest-acceptable"
}

// ChooseDate scans backward from the preferred day for the first
// fitting day, then forward past it, falling back to the last day.
func (p *LatestAcceptable) ChooseDate(avail []types.AvailableResources, job *types.Job) time.Time {
	if len(avail) == 0 {
		return time.Time{}
	}
	pref := preferredIndex(avail, job)
	for i := pref; i >= 0; i-- {
		if avail[i].Available.Fits(job.Required) {
			return avail[i].Date
		}
	}
	// Nothing at or before the preferred day fits; take the first
	// fitting day after it.
	for i := pref + 1; i < len(avail); i++ {
		if avail[i].Available.Fits(job.Required) {
			return avail[i].Date
		}
	}
	return avail[len(avail)-1].Date
}

// LeastBusy schedules a job on the fitting day with the least spare
// capacity at or before the preferred day, packing busy days tighter
// and keeping emptier days free for larger jobs. Ties go to the
// earlier day.
type LeastBusy struct{}

// NewLeastBusy creates the least-busy policy.
func NewLeastBusy() *LeastBusy {
	return &LeastBusy{}
}

// Name returns the policy name.
func (p *LeastBusy) Name() string {
	return "least-busy"
}

// ChooseDate picks, among the days up to and including the preferred
// day, the fitting day with the smallest available cpu+gpu+memory sum.
// If none fit it scans forward strictly past the preferred day with
// earliest-fit semantics, falling back to the last day.
func (p *LeastBusy) ChooseDate(avail []types.AvailableResources, job *types.Job) time.Time {
	if len(avail) == 0 {
		return time.Time{}
	}
	pref := preferredIndex(avail, job)

	best := -1
	for i := 0; i <= pref; i++ {
		if !avail[i].Available.Fits(job.Required) {
			continue
		}
		if best == -1 || avail[i].Available.Total() < avail[best].Available.Total() {
			best = i
		}
	}
	if best >= 0 {
		return avail[best].Date
	}

	for i := pref + 1; i < len(avail); i++ {
		if avail[i].Available.Fits(job.Required) {
			return avail[i].Date
		}
	}
	return avail[len(avail)-1].Date
}
