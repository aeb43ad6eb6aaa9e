package types

import (
	"time"
)

// Resources is a cpu/gpu/memory triple measured in capacity units.
// It is used both for node capacity and for job requirements.
type Resources struct {
	CPU    float64 `json:"cpu"`
	GPU    float64 `json:"gpu"`
	Memory float64 `json:"memory"`
}

// Add returns the element-wise sum of r and o.
func (r Resources) Add(o Resources) Resources {
	return Resources{
		CPU:    r.CPU + o.CPU,
		GPU:    r.GPU + o.GPU,
		Memory: r.Memory + o.Memory,
	}
}

// Sub returns the element-wise difference r - o. The result may be
// negative; callers that care use NonNegative.
func (r Resources) Sub(o Resources) Resources {
	return Resources{
		CPU:    r.CPU - o.CPU,
		GPU:    r.GPU - o.GPU,
		Memory: r.Memory - o.Memory,
	}
}

// Total returns cpu+gpu+memory, the load measure used by the
// least-loaded and least-busy policies and by eviction ordering.
func (r Resources) Total() float64 {
	return r.CPU + r.GPU + r.Memory
}

// Fits reports whether r covers req in all three dimensions.
func (r Resources) Fits(req Resources) bool {
	return r.CPU >= req.CPU && r.GPU >= req.GPU && r.Memory >= req.Memory
}

// NonNegative reports whether all three dimensions are >= 0.
func (r Resources) NonNegative() bool {
	return r.CPU >= 0 && r.GPU >= 0 && r.Memory >= 0
}

// Balanced reports whether cpu >= gpu and cpu >= memory. This is the
// admission rule for contributed nodes and the shape rule for job
// requests; violations are rejected, never clamped.
func (r Resources) Balanced() bool {
	return r.CPU >= r.GPU && r.CPU >= r.Memory
}

// Node is a contributed unit of compute capacity, assigned to exactly
// one faculty once admitted.
type Node struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	URL        string    `json:"url"` // unique external reference
	OwnerNetID string    `json:"owner_net_id"`
	FacultyID  string    `json:"faculty_id"` // empty until assigned
	Capacity   Resources `json:"capacity"`
	CreatedAt  time.Time `json:"created_at"`
}

// Job is a resource request that, once scheduled, reserves capacity
// from its faculty's pool on one specific future day.
type Job struct {
	ID                      string    `json:"id"`
	FacultyID               string    `json:"faculty_id"`
	RequesterNetID          string    `json:"requester_net_id"`
	Name                    string    `json:"name"`
	Description             string    `json:"description"`
	Required                Resources `json:"required"`
	PreferredCompletionDate time.Time `json:"preferred_completion_date"`
	ScheduledFor            time.Time `json:"scheduled_for"` // zero until scheduled
	CreatedAt               time.Time `json:"created_at"`
}

// Scheduled reports whether the job has been committed to a day.
func (j *Job) Scheduled() bool {
	return !j.ScheduledFor.IsZero()
}

// SameRequest reports whether two jobs describe the same request:
// every field except identity and the assigned schedule date. Two
// identical requests scheduled on different days are the same kind.
func (j *Job) SameRequest(o *Job) bool {
	return j.FacultyID == o.FacultyID &&
		j.RequesterNetID == o.RequesterNetID &&
		j.Name == o.Name &&
		j.Description == o.Description &&
		j.Required == o.Required &&
		j.PreferredCompletionDate.Equal(o.PreferredCompletionDate)
}

// FacultyTotal is the total capacity assigned to one faculty.
type FacultyTotal struct {
	FacultyID string    `json:"faculty_id"`
	Assigned  Resources `json:"assigned"`
}

// ReservedTotal is the capacity reserved for one faculty on one day.
type ReservedTotal struct {
	FacultyID string    `json:"faculty_id"`
	Date      time.Time `json:"date"`
	Reserved  Resources `json:"reserved"`
}

// AvailableResources is the derived assigned-minus-reserved capacity
// for one faculty on one day. It is computed, never persisted, and may
// be negative after a capacity loss; negativity is what triggers
// rescheduling, not an error in itself.
type AvailableResources struct {
	Date      time.Time `json:"date"`
	Available Resources `json:"available"`
}

// NotificationState classifies a job notification.
type NotificationState string

const (
	NotificationScheduled   NotificationState = "SCHEDULED"
	NotificationRescheduled NotificationState = "RESCHEDULED"
	NotificationDropped     NotificationState = "DROPPED"
)

// NotificationEvent is emitted toward a requester when their job's
// placement changes. Delivery is an external concern.
type NotificationEvent struct {
	Date           time.Time         `json:"date"`
	Type           string            `json:"type"` // always "JOB"
	State          NotificationState `json:"state"`
	Message        string            `json:"message"`
	RecipientNetID string            `json:"recipient_net_id"`
}

// NotificationTypeJob is the only notification type emitted today.
const NotificationTypeJob = "JOB"

// NodeRemovalEvent carries the snapshots of nodes removed in one
// lifecycle batch. The rescheduler keys its deficit scan off the
// distinct faculties of the removed nodes.
type NodeRemovalEvent struct {
	Nodes     []*Node   `json:"nodes"`
	RemovedAt time.Time `json:"removed_at"`
}

// FacultyIDs returns the distinct faculty ids of the removed nodes,
// in first-seen order. Unassigned nodes contribute nothing.
func (e *NodeRemovalEvent) FacultyIDs() []string {
	seen := make(map[string]bool)
	var ids []string
	for _, n := range e.Nodes {
		if n.FacultyID == "" || seen[n.FacultyID] {
			continue
		}
		seen[n.FacultyID] = true
		ids = append(ids, n.FacultyID)
	}
	return ids
}

// PendingRemoval marks a node awaiting the daily removal cutover.
type PendingRemoval struct {
	NodeID      string    `json:"node_id"`
	RequestedBy string    `json:"requested_by"`
	RequestedAt time.Time `json:"requested_at"`
}

// DayOf truncates t to day granularity in UTC. All scheduling math
// operates on these normalized dates.
func DayOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Tomorrow returns the earliest schedulable day relative to now.
func Tomorrow(now time.Time) time.Time {
	return DayOf(now).AddDate(0, 0, 1)
}

// NextDay returns the day after d.
func NextDay(d time.Time) time.Time {
	return DayOf(d).AddDate(0, 0, 1)
}

// DaysBetween returns the number of whole days from 'from' until
// 'until' inclusive of both endpoints; zero if until precedes from.
func DaysBetween(from, until time.Time) int {
	from, until = DayOf(from), DayOf(until)
	if until.Before(from) {
		return 0
	}
	return int(until.Sub(from).Hours()/24) + 1
}
