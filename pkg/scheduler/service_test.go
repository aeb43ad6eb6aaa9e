package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridpool/gridpool/pkg/availability"
	"github.com/gridpool/gridpool/pkg/ledger"
	"github.com/gridpool/gridpool/pkg/policy"
	"github.com/gridpool/gridpool/pkg/storage"
	"github.com/gridpool/gridpool/pkg/types"
)

var testNow = time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

func day(offset int) time.Time {
	return types.Tomorrow(testNow).AddDate(0, 0, offset)
}

func newTestService(t *testing.T) (*Service, *ledger.CapacityLedger, *ledger.ScheduleLedger) {
	t.Helper()
	store, err := storage.NewBoltStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	capacity := ledger.NewCapacityLedger(store)
	schedule := ledger.NewScheduleLedger(store)
	calc := availability.NewCalculator(capacity, schedule)
	svc := NewService(capacity, schedule, calc, NewKeyedLock())
	svc.SetNow(func() time.Time { return testNow })
	return svc, capacity, schedule
}

func addNode(t *testing.T, capacity *ledger.CapacityLedger, id string, res types.Resources) {
	t.Helper()
	require.NoError(t, capacity.Save(&types.Node{
		ID: id, URL: "http://" + id, FacultyID: "EWI", Capacity: res,
	}))
}

func TestCanEverScheduleUnknownFaculty(t *testing.T) {
	svc, _, _ := newTestService(t)

	ok, reason, err := svc.CanEverSchedule(&types.Job{
		FacultyID: "TPM",
		Required:  types.Resources{CPU: 1},
	})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Contains(t, reason, "TPM")
}

func TestCanEverScheduleCeiling(t *testing.T) {
	svc, capacity, _ := newTestService(t)
	addNode(t, capacity, "n1", types.Resources{CPU: 4, GPU: 2, Memory: 4})

	tests := []struct {
		name     string
		required types.Resources
		ok       bool
	}{
		{
			name:     "within every dimension",
			required: types.Resources{CPU: 4, GPU: 2, Memory: 4},
			ok:       true,
		},
		{
			name:     "cpu over ceiling",
			required: types.Resources{CPU: 5, GPU: 0, Memory: 0},
			ok:       false,
		},
		{
			name:     "gpu over ceiling",
			required: types.Resources{CPU: 3, GPU: 3, Memory: 0},
			ok:       false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, reason, err := svc.CanEverSchedule(&types.Job{
				FacultyID: "EWI", Required: tt.required,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.ok, ok)
			if !tt.ok {
				assert.NotEmpty(t, reason)
			}
		})
	}
}

func TestCanEverScheduleIgnoresReservations(t *testing.T) {
	svc, capacity, schedule := newTestService(t)
	addNode(t, capacity, "n1", types.Resources{CPU: 4, GPU: 2, Memory: 4})

	// Saturate every near-term day; the ceiling check must still pass.
	for i := 0; i < 5; i++ {
		require.NoError(t, schedule.Save(&types.Job{
			ID: "busy-" + string(rune('a'+i)), FacultyID: "EWI",
			ScheduledFor: day(i),
			Required:     types.Resources{CPU: 4, GPU: 2, Memory: 4},
		}))
	}

	ok, _, err := svc.CanEverSchedule(&types.Job{
		FacultyID: "EWI",
		Required:  types.Resources{CPU: 4, GPU: 2, Memory: 4},
	})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestScheduleCommitsToLedger(t *testing.T) {
	svc, capacity, schedule := newTestService(t)
	addNode(t, capacity, "n1", types.Resources{CPU: 4, GPU: 2, Memory: 4})

	job := &types.Job{
		ID: "j1", FacultyID: "EWI",
		Required:                types.Resources{CPU: 2, GPU: 1, Memory: 1},
		PreferredCompletionDate: day(2),
	}
	require.NoError(t, svc.Schedule(job))

	assert.True(t, job.Scheduled())
	assert.False(t, job.ScheduledFor.After(day(2)))

	jobs, err := schedule.FindAll()
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.True(t, jobs[0].ScheduledFor.Equal(job.ScheduledFor))
}

func TestScheduleNeverPicksToday(t *testing.T) {
	svc, capacity, _ := newTestService(t)
	addNode(t, capacity, "n1", types.Resources{CPU: 4, GPU: 2, Memory: 4})

	job := &types.Job{
		ID: "j1", FacultyID: "EWI",
		Required:                types.Resources{CPU: 1},
		PreferredCompletionDate: day(0),
	}
	require.NoError(t, svc.Schedule(job))

	assert.False(t, job.ScheduledFor.Before(types.Tomorrow(testNow)))
}

func TestScheduleOverflowsToHeadroomDay(t *testing.T) {
	svc, capacity, schedule := newTestService(t)
	addNode(t, capacity, "n1", types.Resources{CPU: 4, GPU: 2, Memory: 4})

	// Fill tomorrow (the only day in the preferred window) completely.
	require.NoError(t, schedule.Save(&types.Job{
		ID: "filler", FacultyID: "EWI", ScheduledFor: day(0),
		Required: types.Resources{CPU: 4, GPU: 2, Memory: 4},
	}))

	job := &types.Job{
		ID: "j1", FacultyID: "EWI",
		Required:                types.Resources{CPU: 4, GPU: 2, Memory: 4},
		PreferredCompletionDate: day(0),
	}
	require.NoError(t, svc.Schedule(job))

	// The headroom day past the previous horizon absorbs it.
	assert.True(t, job.ScheduledFor.Equal(day(1)))
}

func TestScheduleWindowExtendsPastLatestReservation(t *testing.T) {
	svc, capacity, schedule := newTestService(t)
	addNode(t, capacity, "n1", types.Resources{CPU: 4, GPU: 2, Memory: 4})

	// Existing horizon at day 6, every day saturated.
	for i := 0; i <= 6; i++ {
		require.NoError(t, schedule.Save(&types.Job{
			ID: "busy-" + string(rune('a'+i)), FacultyID: "EWI",
			ScheduledFor: day(i),
			Required:     types.Resources{CPU: 4, GPU: 2, Memory: 4},
		}))
	}

	job := &types.Job{
		ID: "j1", FacultyID: "EWI",
		Required:                types.Resources{CPU: 4, GPU: 2, Memory: 4},
		PreferredCompletionDate: day(2),
	}
	require.NoError(t, svc.Schedule(job))

	assert.True(t, job.ScheduledFor.Equal(day(7)))
}

// swapDuringPolicy swaps the service's policy from inside its own
// decision, standing in for a concurrent SetPolicy call.
type swapDuringPolicy struct {
	svc   *Service
	next  policy.JobSchedulingPolicy
	inner policy.JobSchedulingPolicy
}

func (p *swapDuringPolicy) Name() string { return "swap-during" }

func (p *swapDuringPolicy) ChooseDate(avail []types.AvailableResources, job *types.Job) time.Time {
	p.svc.SetPolicy(p.next)
	return p.inner.ChooseDate(avail, job)
}

// countingPolicy counts how often its name is read.
type countingPolicy struct {
	policy.JobSchedulingPolicy
	nameCalls int
}

func (p *countingPolicy) Name() string {
	p.nameCalls++
	return "counting"
}

func TestScheduleReadsPolicyOnce(t *testing.T) {
	svc, capacity, _ := newTestService(t)
	addNode(t, capacity, "n1", types.Resources{CPU: 4, GPU: 2, Memory: 4})

	counting := &countingPolicy{JobSchedulingPolicy: policy.NewEarliestFit()}
	svc.SetPolicy(&swapDuringPolicy{svc: svc, next: counting, inner: policy.NewLeastBusy()})

	job := &types.Job{
		ID: "j1", FacultyID: "EWI",
		Required:                types.Resources{CPU: 1},
		PreferredCompletionDate: day(1),
	}
	require.NoError(t, svc.Schedule(job))

	// SetPolicy itself logs the new name once; Schedule must not add a
	// second read, because its decision and its log line belong to the
	// policy it read at the start.
	assert.Equal(t, 1, counting.nameCalls)
	assert.Same(t, counting, svc.Policy().(*countingPolicy))
}

func TestSetPolicySwapsActivePolicy(t *testing.T) {
	svc, _, _ := newTestService(t)

	assert.Equal(t, "least-busy", svc.Policy().Name())
	svc.SetPolicy(policy.NewEarliestFit())
	assert.Equal(t, "earliest-fit", svc.Policy().Name())
}

func TestKeyedLockIndependentKeys(t *testing.T) {
	locks := NewKeyedLock()

	locks.Lock("EWI")
	done := make(chan struct{})
	go func() {
		// A different faculty must not block.
		locks.Lock("AE")
		locks.Unlock("AE")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("lock on a different key blocked")
	}
	locks.Unlock("EWI")
}
