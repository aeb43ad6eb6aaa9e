package rescheduler

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/gridpool/gridpool/pkg/availability"
	"github.com/gridpool/gridpool/pkg/ledger"
	"github.com/gridpool/gridpool/pkg/log"
	"github.com/gridpool/gridpool/pkg/metrics"
	"github.com/gridpool/gridpool/pkg/notify"
	"github.com/gridpool/gridpool/pkg/scheduler"
	"github.com/gridpool/gridpool/pkg/types"
)

// Coordinator repairs the schedule after capacity loss. The node
// lifecycle manager invokes it synchronously for each committed
// removal. For every faculty that lost capacity it finds the days now
// promised more than the faculty owns, evicts the costliest jobs on
// those days until availability is non-negative again, and then
// resubmits every evicted job: jobs the shrunken faculty can still fit
// are rescheduled, the rest are dropped with a notification to their
// requester.
type Coordinator struct {
	schedule *ledger.ScheduleLedger
	calc     *availability.Calculator
	sched    *scheduler.Service
	notifier notify.Notifier

	logger zerolog.Logger
	now    func() time.Time
}

// NewCoordinator creates a rescheduling coordinator.
func NewCoordinator(schedule *ledger.ScheduleLedger, calc *availability.Calculator, sched *scheduler.Service, notifier notify.Notifier) *Coordinator {
	return &Coordinator{
		schedule: schedule,
		calc:     calc,
		sched:    sched,
		notifier: notifier,
		logger:   log.WithComponent("rescheduler"),
		now:      time.Now,
	}
}

// SetNow overrides the clock, for tests.
func (c *Coordinator) SetNow(now func() time.Time) {
	c.now = now
}

// HandleRemoval processes one removal synchronously. Processing is
// idempotent: deficits are derived from current ledger state, so
// replaying a removal whose damage was already repaired evicts
// nothing.
func (c *Coordinator) HandleRemoval(removal *types.NodeRemovalEvent) error {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.ReschedulingDuration)

	var evicted []*types.Job
	for _, facultyID := range removal.FacultyIDs() {
		jobs, err := c.evictFaculty(facultyID)
		if err != nil {
			// One faculty's failure must not block the others.
			c.logger.Error().Err(err).
				Str("faculty_id", facultyID).
				Msg("failed to resolve faculty deficit")
			continue
		}
		evicted = append(evicted, jobs...)
	}

	c.logger.Info().
		Int("removed_nodes", len(removal.Nodes)).
		Int("evicted_jobs", len(evicted)).
		Msg("capacity loss processed")

	for _, job := range evicted {
		c.resubmit(job)
	}
	return nil
}

// evictFaculty scans the faculty's availability from tomorrow through
// the latest reservation and, for each day in deficit, evicts the most
// expensive jobs until all three dimensions are non-negative. Each
// eviction credits back the evicted job's exact requirements.
func (c *Coordinator) evictFaculty(facultyID string) ([]*types.Job, error) {
	locks := c.sched.Locks()
	locks.Lock(facultyID)
	defer locks.Unlock(facultyID)

	latest, ok, err := c.schedule.LatestScheduledDate()
	if err != nil {
		return nil, err
	}
	from := types.Tomorrow(c.now())
	if !ok || latest.Before(from) {
		return nil, nil
	}

	series, err := c.calc.Range(facultyID, from, latest)
	if err != nil {
		return nil, err
	}

	var evicted []*types.Job
	for _, day := range series {
		if day.Available.NonNegative() {
			continue
		}
		metrics.DeficitDaysTotal.Inc()

		jobs, err := c.schedule.ListForFacultyDate(facultyID, day.Date)
		if err != nil {
			return evicted, err
		}
		// Costliest first: fewer jobs disturbed per unit of
		// capacity recovered.
		sort.Slice(jobs, func(i, j int) bool {
			return jobs[i].Required.Total() > jobs[j].Required.Total()
		})

		remaining := day.Available
		for _, job := range jobs {
			if remaining.NonNegative() {
				break
			}
			if err := c.schedule.Remove(job); err != nil {
				return evicted, fmt.Errorf("failed to evict job %s: %w", job.ID, err)
			}
			remaining = remaining.Add(job.Required)
			job.ScheduledFor = time.Time{}
			evicted = append(evicted, job)
			metrics.EvictionsTotal.Inc()

			c.logger.Info().
				Str("job_id", job.ID).
				Str("faculty_id", facultyID).
				Str("date", day.Date.Format(time.DateOnly)).
				Msg("job evicted from deficit day")
		}
	}
	return evicted, nil
}

// resubmit gives an evicted job a second placement. A job the faculty
// can no longer ever fit is dropped for good; anything else goes back
// through the scheduling service under the current policy. Outcomes
// are isolated per job.
func (c *Coordinator) resubmit(job *types.Job) {
	locks := c.sched.Locks()
	locks.Lock(job.FacultyID)
	defer locks.Unlock(job.FacultyID)

	ok, reason, err := c.sched.CanEverSchedule(job)
	if err != nil {
		c.logger.Error().Err(err).
			Str("job_id", job.ID).
			Msg("feasibility check failed during rescheduling")
		return
	}
	if !ok {
		metrics.JobsDroppedTotal.Inc()
		c.logger.Warn().
			Str("job_id", job.ID).
			Str("faculty_id", job.FacultyID).
			Str("reason", reason).
			Msg("job dropped after capacity loss")
		c.sendNotification(job, types.NotificationDropped,
			fmt.Sprintf("job %s was dropped after a capacity loss: %s", job.Name, reason))
		return
	}

	if err := c.sched.Schedule(job); err != nil {
		c.logger.Error().Err(err).
			Str("job_id", job.ID).
			Msg("failed to reschedule evicted job")
		return
	}

	metrics.JobsRescheduledTotal.Inc()
	c.sendNotification(job, types.NotificationRescheduled,
		fmt.Sprintf("job %s was moved to %s after a capacity loss",
			job.Name, job.ScheduledFor.Format(time.DateOnly)))
}

func (c *Coordinator) sendNotification(job *types.Job, state types.NotificationState, message string) {
	ev := &types.NotificationEvent{
		Date:           types.DayOf(c.now()),
		Type:           types.NotificationTypeJob,
		State:          state,
		Message:        message,
		RecipientNetID: job.RequesterNetID,
	}
	if err := c.notifier.Notify(context.Background(), ev); err != nil {
		// A failed handoff never rolls back the decision it reports.
		c.logger.Error().Err(err).
			Str("job_id", job.ID).
			Msg("failed to hand off notification")
	}
}
