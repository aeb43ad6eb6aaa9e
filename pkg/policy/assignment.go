package policy

import (
	"github.com/gridpool/gridpool/pkg/types"
)

// LeastLoaded assigns a node to the faculty with the smallest total
// assigned capacity (cpu+gpu+memory). Ties go to the faculty seen
// first in the input order.
type LeastLoaded struct{}

// NewLeastLoaded creates the least-loaded assignment policy.
func NewLeastLoaded() *LeastLoaded {
	return &LeastLoaded{}
}

// Name returns the policy name.
func (p *LeastLoaded) Name() string {
	return "least-loaded"
}

// Pick returns the faculty with the smallest assigned total.
func (p *LeastLoaded) Pick(totals []types.FacultyTotal) (string, error) {
	if len(totals) == 0 {
		return "", ErrNoFaculties
	}

	best := totals[0]
	for _, t := range totals[1:] {
		if t.Assigned.Total() < best.Assigned.Total() {
			best = t
		}
	}
	return best.FacultyID, nil
}

// Rand is the randomness source the random assignment policy draws
// from. *math/rand.Rand satisfies it; tests inject a fixed sequence.
type Rand interface {
	Intn(n int) int
}

// Random assigns a node to a uniformly chosen faculty. Randomness is
// injected so the policy itself stays deterministic under test.
type Random struct {
	rng Rand
}

// NewRandom creates the random assignment policy.
func NewRandom(rng Rand) *Random {
	return &Random{rng: rng}
}

// Name returns the policy name.
func (p *Random) Name() string {
	return "random"
}

// Pick returns a uniformly chosen faculty.
func (p *Random) Pick(totals []types.FacultyTotal) (string, error) {
	if len(totals) == 0 {
		return "", ErrNoFaculties
	}
	return totals[p.rng.Intn(len(totals))].FacultyID, nil
}
