package scheduler

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/gridpool/gridpool/pkg/availability"
	"github.com/gridpool/gridpool/pkg/ledger"
	"github.com/gridpool/gridpool/pkg/log"
	"github.com/gridpool/gridpool/pkg/metrics"
	"github.com/gridpool/gridpool/pkg/policy"
	"github.com/gridpool/gridpool/pkg/types"
)

// ErrPolicyExhausted means a job-date policy found no fitting day even
// with the guaranteed headroom day at the end of the window. The
// window construction makes this unreachable for any job that passed
// the ceiling check, so hitting it is a bug, not a normal outcome.
var ErrPolicyExhausted = errors.New("scheduling policy found no fitting day")

// Service places jobs against a faculty's assigned capacity. It
// performs the ceiling feasibility check, computes one availability
// snapshot per decision, applies the active job-date policy, and
// commits the result to the schedule ledger.
//
// Service methods do not lock; callers serialize per faculty through
// the shared KeyedLock so a decision's snapshot, policy run, and
// commit cannot interleave with other mutations for the same faculty.
type Service struct {
	capacity *ledger.CapacityLedger
	schedule *ledger.ScheduleLedger
	calc     *availability.Calculator
	locks    *KeyedLock

	policyMu sync.RWMutex
	policy   policy.JobSchedulingPolicy

	logger zerolog.Logger
	now    func() time.Time
}

// NewService creates a scheduling service with the default least-busy
// job-date policy.
func NewService(capacity *ledger.CapacityLedger, schedule *ledger.ScheduleLedger, calc *availability.Calculator, locks *KeyedLock) *Service {
	return &Service{
		capacity: capacity,
		schedule: schedule,
		calc:     calc,
		locks:    locks,
		policy:   policy.NewLeastBusy(),
		logger:   log.WithComponent("scheduler"),
		now:      time.Now,
	}
}

// SetNow overrides the clock, for tests.
func (s *Service) SetNow(now func() time.Time) {
	s.now = now
}

// SetPolicy swaps the active job-date policy. A decision in flight
// keeps the policy it read at its start; the swap only affects
// decisions that begin afterwards.
func (s *Service) SetPolicy(p policy.JobSchedulingPolicy) {
	s.policyMu.Lock()
	defer s.policyMu.Unlock()
	s.policy = p
	s.logger.Info().Str("policy", p.Name()).Msg("job scheduling policy changed")
}

// Policy returns the active job-date policy.
func (s *Service) Policy() policy.JobSchedulingPolicy {
	s.policyMu.RLock()
	defer s.policyMu.RUnlock()
	return s.policy
}

// Locks returns the shared per-faculty lock. The rescheduler and the
// node lifecycle manager use the same instance.
func (s *Service) Locks() *KeyedLock {
	return s.locks
}

// CanEverSchedule reports whether the job could ever be placed: its
// faculty must have capacity in the ledger and each required dimension
// must be within the faculty's total assigned capacity. This is a
// ceiling check independent of current reservations; a job that fails
// it cannot be helped by evictions. The second return carries a
// human-readable reason when the answer is no.
func (s *Service) CanEverSchedule(job *types.Job) (bool, string, error) {
	exists, err := s.capacity.ExistsFaculty(job.FacultyID)
	if err != nil {
		return false, "", fmt.Errorf("failed to check faculty: %w", err)
	}
	if !exists {
		return false, fmt.Sprintf("faculty %s has no assigned nodes", job.FacultyID), nil
	}

	total, err := s.capacity.TotalsForFaculty(job.FacultyID)
	if err != nil {
		return false, "", fmt.Errorf("failed to get faculty totals: %w", err)
	}
	if !total.Assigned.Fits(job.Required) {
		return false, fmt.Sprintf(
			"requested resources (cpu %g, gpu %g, memory %g) exceed faculty %s total capacity (cpu %g, gpu %g, memory %g)",
			job.Required.CPU, job.Required.GPU, job.Required.Memory,
			job.FacultyID,
			total.Assigned.CPU, total.Assigned.GPU, total.Assigned.Memory,
		), nil
	}
	return true, "", nil
}

// Schedule places the job and commits it to the schedule ledger.
// Callers must have verified CanEverSchedule and must hold the
// faculty's lock; this method does not re-validate.
//
// The availability window runs from tomorrow through one day past the
// later of the current latest reservation and the job's preferred
// completion date. That headroom day carries full faculty capacity, so
// a job that passed the ceiling check always has somewhere to land.
func (s *Service) Schedule(job *types.Job) error {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.SchedulingLatency)

	from := types.Tomorrow(s.now())

	upper, ok, err := s.schedule.LatestScheduledDate()
	if err != nil {
		return err
	}
	if !ok || upper.Before(from) {
		upper = from
	}
	preferred := types.DayOf(job.PreferredCompletionDate)
	if preferred.After(upper) {
		upper = preferred
	}
	upper = types.NextDay(upper)

	series, err := s.calc.Range(job.FacultyID, from, upper)
	if err != nil {
		return err
	}

	// One read: the decision and the log line below must describe the
	// same policy even if SetPolicy runs concurrently.
	pol := s.Policy()

	chosen := pol.ChooseDate(series, job)
	if chosen.IsZero() {
		s.logger.Error().
			Str("job_id", job.ID).
			Str("faculty_id", job.FacultyID).
			Msg("policy returned no date for a feasible job")
		return ErrPolicyExhausted
	}

	job.ScheduledFor = types.DayOf(chosen)
	if err := s.schedule.Save(job); err != nil {
		return err
	}

	metrics.JobsScheduledTotal.Inc()
	s.logger.Info().
		Str("job_id", job.ID).
		Str("faculty_id", job.FacultyID).
		Str("scheduled_for", job.ScheduledFor.Format(time.DateOnly)).
		Str("policy", pol.Name()).
		Msg("job scheduled")
	return nil
}
