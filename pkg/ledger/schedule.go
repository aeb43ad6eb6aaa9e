package ledger

import (
	"fmt"
	"sort"
	"time"

	"github.com/gridpool/gridpool/pkg/storage"
	"github.com/gridpool/gridpool/pkg/types"
)

// ScheduleLedger owns the set of scheduled jobs and answers aggregate
// reservation questions per faculty and day. It is the only writer of
// job records.
type ScheduleLedger struct {
	store storage.Store
}

// NewScheduleLedger creates a schedule ledger over the given store.
func NewScheduleLedger(store storage.Store) *ScheduleLedger {
	return &ScheduleLedger{store: store}
}

// Save persists a scheduled job.
func (l *ScheduleLedger) Save(job *types.Job) error {
	if err := l.store.CreateJob(job); err != nil {
		return fmt.Errorf("failed to save job: %w", err)
	}
	return nil
}

// Remove deletes a job record.
func (l *ScheduleLedger) Remove(job *types.Job) error {
	if err := l.store.DeleteJob(job.ID); err != nil {
		return fmt.Errorf("failed to remove job: %w", err)
	}
	return nil
}

// FindAll returns every scheduled job.
func (l *ScheduleLedger) FindAll() ([]*types.Job, error) {
	return l.store.ListJobs()
}

// ExistsByFaculty reports whether any job is scheduled for the faculty.
func (l *ScheduleLedger) ExistsByFaculty(facultyID string) (bool, error) {
	jobs, err := l.store.ListJobsByFaculty(facultyID)
	if err != nil {
		return false, err
	}
	return len(jobs) > 0, nil
}

// ExistsByDate reports whether any job is scheduled on the given day.
func (l *ScheduleLedger) ExistsByDate(date time.Time) (bool, error) {
	jobs, err := l.store.ListJobs()
	if err != nil {
		return false, err
	}
	day := types.DayOf(date)
	for _, job := range jobs {
		if types.DayOf(job.ScheduledFor).Equal(day) {
			return true, nil
		}
	}
	return false, nil
}

// ListForFacultyDate returns the jobs scheduled for one faculty on one
// day, the unit the eviction pass operates on.
func (l *ScheduleLedger) ListForFacultyDate(facultyID string, date time.Time) ([]*types.Job, error) {
	jobs, err := l.store.ListJobsByFaculty(facultyID)
	if err != nil {
		return nil, err
	}
	day := types.DayOf(date)
	var out []*types.Job
	for _, job := range jobs {
		if types.DayOf(job.ScheduledFor).Equal(day) {
			out = append(out, job)
		}
	}
	return out, nil
}

// ReservedPerFacultyPerDay returns the summed reservations grouped by
// (faculty, day), sorted by faculty id then date.
func (l *ScheduleLedger) ReservedPerFacultyPerDay() ([]types.ReservedTotal, error) {
	jobs, err := l.store.ListJobs()
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	type key struct {
		faculty string
		day     time.Time
	}
	sums := make(map[key]types.Resources)
	for _, job := range jobs {
		k := key{faculty: job.FacultyID, day: types.DayOf(job.ScheduledFor)}
		sums[k] = sums[k].Add(job.Required)
	}

	totals := make([]types.ReservedTotal, 0, len(sums))
	for k, reserved := range sums {
		totals = append(totals, types.ReservedTotal{
			FacultyID: k.faculty,
			Date:      k.day,
			Reserved:  reserved,
		})
	}
	sort.Slice(totals, func(i, j int) bool {
		if totals[i].FacultyID != totals[j].FacultyID {
			return totals[i].FacultyID < totals[j].FacultyID
		}
		return totals[i].Date.Before(totals[j].Date)
	})
	return totals, nil
}

// ReservedFor returns the summed reservations for one faculty on one
// day; zero if nothing is reserved that day.
func (l *ScheduleLedger) ReservedFor(facultyID string, date time.Time) (types.Resources, error) {
	jobs, err := l.ListForFacultyDate(facultyID, date)
	if err != nil {
		return types.Resources{}, err
	}
	var reserved types.Resources
	for _, job := range jobs {
		reserved = reserved.Add(job.Required)
	}
	return reserved, nil
}

// LatestScheduledDate returns the maximum scheduled day across all
// jobs. The second return is false when no jobs are scheduled.
func (l *ScheduleLedger) LatestScheduledDate() (time.Time, bool, error) {
	jobs, err := l.store.ListJobs()
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to list jobs: %w", err)
	}
	var latest time.Time
	for _, job := range jobs {
		day := types.DayOf(job.ScheduledFor)
		if day.After(latest) {
			latest = day
		}
	}
	return latest, !latest.IsZero(), nil
}
