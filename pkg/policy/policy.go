package policy

import (
	"errors"
	"fmt"
	"time"

	"github.com/gridpool/gridpool/pkg/types"
)

// ErrNoFaculties is returned by node-assignment policies when there is
// no faculty to pick from. The caller rejects the contribution with a
// descriptive reason; there is no synthetic default faculty.
var ErrNoFaculties = errors.New("no faculties with assigned capacity")

// NodeAssignmentPolicy picks the faculty an unassigned contributed
// node should join, given the current per-faculty capacity totals.
// Implementations are stateless and safe for concurrent use.
type NodeAssignmentPolicy interface {
	// Name returns the policy name (used for logs and config)
	Name() string

	// Pick returns the chosen faculty id, or ErrNoFaculties when
	// totals is empty.
	Pick(totals []types.FacultyTotal) (string, error)
}

// JobSchedulingPolicy picks the day a job is scheduled for, given a
// day-ordered availability series. The caller guarantees the series is
// non-empty and spans at least the job's preferred completion date
// plus one headroom day; a zero time return means the series was
// empty, which the scheduler treats as an invariant violation.
type JobSchedulingPolicy interface {
	// Name returns the policy name (used for logs and config)
	Name() string

	// ChooseDate returns the day the job should be scheduled on.
	ChooseDate(avail []types.AvailableResources, job *types.Job) time.Time
}

// AssignmentPolicyByName returns the named node-assignment policy.
// The rng is only used by the random policy.
func AssignmentPolicyByName(name string, rng Rand) (NodeAssignmentPolicy, error) {
	switch name {
	case "least-loaded":
		return NewLeastLoaded(), nil
	case "random":
		return NewRandom(rng), nil
	default:
		return nil, fmt.Errorf("unknown node assignment policy: %s", name)
	}
}

// JobPolicyByName returns the named job-scheduling policy.
func JobPolicyByName(name string) (JobSchedulingPolicy, error) {
	switch name {
	case "earliest-fit":
		return NewEarliestFit(), nil
	case "latest-acceptable":
		return NewLatestAcceptable(), nil
	case "least-busy":
		return NewLeastBusy(), nil
	default:
		return nil, fmt.Errorf("unknown job scheduling policy: %s", name)
	}
}
