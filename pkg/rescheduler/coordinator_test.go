package rescheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridpool/gridpool/pkg/availability"
	"github.com/gridpool/gridpool/pkg/ledger"
	"github.com/gridpool/gridpool/pkg/scheduler"
	"github.com/gridpool/gridpool/pkg/storage"
	"github.com/gridpool/gridpool/pkg/types"
)

var testNow = time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

func day(offset int) time.Time {
	return types.Tomorrow(testNow).AddDate(0, 0, offset)
}

// recordingNotifier captures notification handoffs for assertions.
type recordingNotifier struct {
	mu     sync.Mutex
	events []*types.NotificationEvent
}

func (n *recordingNotifier) Notify(_ context.Context, ev *types.NotificationEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
	return nil
}

func (n *recordingNotifier) byState(state types.NotificationState) []*types.NotificationEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []*types.NotificationEvent
	for _, ev := range n.events {
		if ev.State == state {
			out = append(out, ev)
		}
	}
	return out
}

type fixture struct {
	capacity *ledger.CapacityLedger
	schedule *ledger.ScheduleLedger
	calc     *availability.Calculator
	coord    *Coordinator
	notifier *recordingNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := storage.NewBoltStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	capacity := ledger.NewCapacityLedger(store)
	schedule := ledger.NewScheduleLedger(store)
	calc := availability.NewCalculator(capacity, schedule)
	sched := scheduler.NewService(capacity, schedule, calc, scheduler.NewKeyedLock())
	sched.SetNow(func() time.Time { return testNow })

	notifier := &recordingNotifier{}
	coord := NewCoordinator(schedule, calc, sched, notifier)
	coord.SetNow(func() time.Time { return testNow })
	return &fixture{
		capacity: capacity,
		schedule: schedule,
		calc:     calc,
		coord:    coord,
		notifier: notifier,
	}
}

func (f *fixture) addNode(t *testing.T, id string, res types.Resources) *types.Node {
	t.Helper()
	node := &types.Node{ID: id, URL: "http://" + id, FacultyID: "EWI", Capacity: res, OwnerNetID: "owner"}
	require.NoError(t, f.capacity.Save(node))
	return node
}

func (f *fixture) addJob(t *testing.T, id string, req types.Resources, scheduledFor time.Time) {
	t.Helper()
	require.NoError(t, f.schedule.Save(&types.Job{
		ID: id, FacultyID: "EWI", RequesterNetID: "alice", Name: id,
		Required: req, PreferredCompletionDate: scheduledFor, ScheduledFor: scheduledFor,
	}))
}

func (f *fixture) removeNode(t *testing.T, node *types.Node) *types.NodeRemovalEvent {
	t.Helper()
	require.NoError(t, f.capacity.Remove(node))
	return &types.NodeRemovalEvent{Nodes: []*types.Node{node}, RemovedAt: testNow}
}

func TestHandleRemovalDropsUnfittableJob(t *testing.T) {
	f := newFixture(t)
	node := f.addNode(t, "n1", types.Resources{CPU: 4, GPU: 2, Memory: 4})
	f.addJob(t, "j1", types.Resources{CPU: 3, GPU: 1, Memory: 2}, day(0))

	// The faculty loses its only node; the job can never fit again.
	removal := f.removeNode(t, node)
	require.NoError(t, f.coord.HandleRemoval(removal))

	jobs, err := f.schedule.FindAll()
	require.NoError(t, err)
	assert.Empty(t, jobs)

	dropped := f.notifier.byState(types.NotificationDropped)
	require.Len(t, dropped, 1)
	assert.Equal(t, "alice", dropped[0].RecipientNetID)

	// With the last reservation gone the schedule horizon resets.
	_, ok, err := f.schedule.LatestScheduledDate()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHandleRemovalReschedulesFittableJob(t *testing.T) {
	f := newFixture(t)
	f.addNode(t, "n1", types.Resources{CPU: 4, GPU: 2, Memory: 4})
	lost := f.addNode(t, "n2", types.Resources{CPU: 4, GPU: 2, Memory: 4})

	// Two jobs on the same day together need the full 8 cpu.
	f.addJob(t, "j1", types.Resources{CPU: 4, GPU: 2, Memory: 4}, day(0))
	f.addJob(t, "j2", types.Resources{CPU: 4, GPU: 2, Memory: 4}, day(0))

	removal := f.removeNode(t, lost)
	require.NoError(t, f.coord.HandleRemoval(removal))

	jobs, err := f.schedule.FindAll()
	require.NoError(t, err)
	require.Len(t, jobs, 2)

	// Both jobs survive, on distinct days the shrunken faculty can cover.
	assert.False(t, jobs[0].ScheduledFor.Equal(jobs[1].ScheduledFor))
	rescheduled := f.notifier.byState(types.NotificationRescheduled)
	assert.Len(t, rescheduled, 1)
	assert.Empty(t, f.notifier.byState(types.NotificationDropped))
}

func TestHandleRemovalEvictsCostliestFirst(t *testing.T) {
	f := newFixture(t)
	f.addNode(t, "n1", types.Resources{CPU: 4, GPU: 0, Memory: 0})
	lost := f.addNode(t, "n2", types.Resources{CPU: 3, GPU: 0, Memory: 0})

	// Day 0 holds 7 cpu across three jobs; losing 3 cpu leaves a
	// deficit of 3 that the single 4-cpu job covers alone.
	f.addJob(t, "small-a", types.Resources{CPU: 1}, day(0))
	f.addJob(t, "small-b", types.Resources{CPU: 2}, day(0))
	f.addJob(t, "large", types.Resources{CPU: 4}, day(0))

	removal := f.removeNode(t, lost)
	require.NoError(t, f.coord.HandleRemoval(removal))

	remaining, err := f.schedule.ListForFacultyDate("EWI", day(0))
	require.NoError(t, err)
	require.Len(t, remaining, 2)
	for _, job := range remaining {
		assert.NotEqual(t, "large", job.ID)
	}

	// The large job fit the 4-cpu faculty and was moved, not dropped.
	assert.Len(t, f.notifier.byState(types.NotificationRescheduled), 1)
}

func TestHandleRemovalRestoresNonNegativeAvailability(t *testing.T) {
	f := newFixture(t)
	f.addNode(t, "n1", types.Resources{CPU: 4, GPU: 2, Memory: 4})
	lost := f.addNode(t, "n2", types.Resources{CPU: 4, GPU: 2, Memory: 4})

	f.addJob(t, "j1", types.Resources{CPU: 4, GPU: 2, Memory: 4}, day(0))
	f.addJob(t, "j2", types.Resources{CPU: 4, GPU: 2, Memory: 4}, day(0))
	f.addJob(t, "j3", types.Resources{CPU: 4, GPU: 2, Memory: 4}, day(1))
	f.addJob(t, "j4", types.Resources{CPU: 4, GPU: 2, Memory: 4}, day(1))

	removal := f.removeNode(t, lost)
	require.NoError(t, f.coord.HandleRemoval(removal))

	latest, ok, err := f.schedule.LatestScheduledDate()
	require.NoError(t, err)
	require.True(t, ok)

	series, err := f.calc.Range("EWI", day(0), latest)
	require.NoError(t, err)
	for _, d := range series {
		assert.True(t, d.Available.NonNegative(),
			"day %s still in deficit", d.Date.Format(time.DateOnly))
	}

	jobs, err := f.schedule.FindAll()
	require.NoError(t, err)
	assert.Len(t, jobs, 4)
}

func TestHandleRemovalIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.addNode(t, "n1", types.Resources{CPU: 4, GPU: 2, Memory: 4})
	lost := f.addNode(t, "n2", types.Resources{CPU: 4, GPU: 2, Memory: 4})

	f.addJob(t, "j1", types.Resources{CPU: 4, GPU: 2, Memory: 4}, day(0))
	f.addJob(t, "j2", types.Resources{CPU: 4, GPU: 2, Memory: 4}, day(0))

	removal := f.removeNode(t, lost)
	require.NoError(t, f.coord.HandleRemoval(removal))

	before, err := f.schedule.FindAll()
	require.NoError(t, err)
	scheduleBefore := make(map[string]time.Time)
	for _, j := range before {
		scheduleBefore[j.ID] = j.ScheduledFor
	}

	// Replaying the same event finds no deficit and changes nothing.
	require.NoError(t, f.coord.HandleRemoval(removal))

	after, err := f.schedule.FindAll()
	require.NoError(t, err)
	require.Len(t, after, len(before))
	for _, j := range after {
		assert.True(t, j.ScheduledFor.Equal(scheduleBefore[j.ID]))
	}
}

func TestHandleRemovalNoJobsIsNoop(t *testing.T) {
	f := newFixture(t)
	lost := f.addNode(t, "n1", types.Resources{CPU: 4, GPU: 2, Memory: 4})

	removal := f.removeNode(t, lost)
	require.NoError(t, f.coord.HandleRemoval(removal))

	assert.Empty(t, f.notifier.events)
}
