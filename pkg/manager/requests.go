package manager

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/gridpool/gridpool/pkg/events"
	"github.com/gridpool/gridpool/pkg/metrics"
	"github.com/gridpool/gridpool/pkg/policy"
	"github.com/gridpool/gridpool/pkg/types"
)

// NodeContributionRequest is a user's offer of compute capacity.
// FacultyID is optional; when empty the active assignment policy
// picks the faculty.
type NodeContributionRequest struct {
	CPU        float64 `json:"cpu"`
	GPU        float64 `json:"gpu"`
	Memory     float64 `json:"memory"`
	Name       string  `json:"name"`
	URL        string  `json:"url"`
	OwnerNetID string  `json:"owner_net_id"`
	FacultyID  string  `json:"faculty_id,omitempty"`
}

// ContributionResult reports the outcome of a node contribution.
// Reason is set when Accepted is false.
type ContributionResult struct {
	Accepted bool        `json:"accepted"`
	Reason   string      `json:"reason,omitempty"`
	Node     *types.Node `json:"node,omitempty"`
}

// JobRequest asks for resources through a faculty, to be delivered no
// later than the preferred completion date if possible.
type JobRequest struct {
	FacultyID               string    `json:"faculty_id"`
	RequesterNetID          string    `json:"requester_net_id"`
	Name                    string    `json:"name"`
	Description             string    `json:"description"`
	RequiredCPU             float64   `json:"required_cpu"`
	RequiredGPU             float64   `json:"required_gpu"`
	RequiredMemory          float64   `json:"required_memory"`
	PreferredCompletionDate time.Time `json:"preferred_completion_date"`
}

// JobResult reports the outcome of a job request. Reason is set when
// Accepted is false; Job carries the committed schedule date otherwise.
type JobResult struct {
	Accepted bool       `json:"accepted"`
	Reason   string     `json:"reason,omitempty"`
	Job      *types.Job `json:"job,omitempty"`
}

// ContributeNode validates and admits a contributed node. Admission
// requires non-negative resources with cpu >= gpu and cpu >= memory,
// and a url not seen before. A request without a faculty goes through
// the active assignment policy; if there is no faculty to join, the
// contribution is rejected rather than parked.
func (m *Manager) ContributeNode(req *NodeContributionRequest) (*ContributionResult, error) {
	capacity := types.Resources{CPU: req.CPU, GPU: req.GPU, Memory: req.Memory}

	if !capacity.NonNegative() {
		return reject("node resources must be non-negative"), nil
	}
	if !capacity.Balanced() {
		return reject(fmt.Sprintf(
			"node cpu (%g) must be at least its gpu (%g) and at least its memory (%g)",
			capacity.CPU, capacity.GPU, capacity.Memory)), nil
	}
	if req.URL == "" {
		return reject("node url is required"), nil
	}

	exists, err := m.capacity.ExistsByURL(req.URL)
	if err != nil {
		return nil, err
	}
	if exists {
		return reject(fmt.Sprintf("a node with url %s is already registered", req.URL)), nil
	}

	facultyID := req.FacultyID
	if facultyID == "" {
		totals, err := m.capacity.TotalsPerFaculty()
		if err != nil {
			return nil, err
		}
		facultyID, err = m.assignmentPolicy().Pick(totals)
		if err != nil {
			if errors.Is(err, policy.ErrNoFaculties) {
				return reject("no faculty exists yet to absorb the node; specify a faculty explicitly"), nil
			}
			return nil, err
		}
	}

	node := &types.Node{
		ID:         newID(),
		Name:       req.Name,
		URL:        req.URL,
		OwnerNetID: req.OwnerNetID,
		FacultyID:  facultyID,
		Capacity:   capacity,
		CreatedAt:  m.now(),
	}

	m.locks.Lock(facultyID)
	err = m.capacity.Save(node)
	m.locks.Unlock(facultyID)
	if err != nil {
		return nil, err
	}

	m.broker.Publish(&events.Event{
		Type:    events.EventNodeContributed,
		Message: fmt.Sprintf("node %s joined faculty %s", node.Name, facultyID),
	})
	m.logger.Info().
		Str("node_id", node.ID).
		Str("faculty_id", facultyID).
		Str("owner", node.OwnerNetID).
		Msg("node contributed")

	return &ContributionResult{Accepted: true, Node: node}, nil
}

func reject(reason string) *ContributionResult {
	return &ContributionResult{Accepted: false, Reason: reason}
}

// SubmitJob validates, checks feasibility, and schedules a job
// request. The whole decision runs under the faculty's lock so the
// availability snapshot it is based on cannot shift underneath it.
func (m *Manager) SubmitJob(req *JobRequest) (*JobResult, error) {
	required := types.Resources{CPU: req.RequiredCPU, GPU: req.RequiredGPU, Memory: req.RequiredMemory}

	if !required.NonNegative() {
		metrics.JobsRejectedTotal.WithLabelValues("validation").Inc()
		return &JobResult{Reason: "required resources must be non-negative"}, nil
	}
	if !required.Balanced() {
		metrics.JobsRejectedTotal.WithLabelValues("validation").Inc()
		return &JobResult{Reason: fmt.Sprintf(
			"required cpu (%g) must be at least the required gpu (%g) and at least the required memory (%g)",
			required.CPU, required.GPU, required.Memory)}, nil
	}

	preferred := types.DayOf(req.PreferredCompletionDate)
	tomorrow := types.Tomorrow(m.now())
	if preferred.Before(tomorrow) {
		metrics.JobsRejectedTotal.WithLabelValues("validation").Inc()
		return &JobResult{Reason: fmt.Sprintf(
			"preferred completion date %s is too soon; the earliest schedulable day is %s",
			preferred.Format(time.DateOnly), tomorrow.Format(time.DateOnly))}, nil
	}

	job := &types.Job{
		ID:                      newID(),
		FacultyID:               req.FacultyID,
		RequesterNetID:          req.RequesterNetID,
		Name:                    req.Name,
		Description:             req.Description,
		Required:                required,
		PreferredCompletionDate: preferred,
		CreatedAt:               m.now(),
	}

	m.locks.Lock(job.FacultyID)
	defer m.locks.Unlock(job.FacultyID)

	ok, reason, err := m.sched.CanEverSchedule(job)
	if err != nil {
		return nil, err
	}
	if !ok {
		metrics.JobsRejectedTotal.WithLabelValues("infeasible").Inc()
		return &JobResult{Reason: reason}, nil
	}

	if err := m.sched.Schedule(job); err != nil {
		return nil, err
	}

	m.broker.Publish(&events.Event{
		Type:    events.EventJobScheduled,
		Message: fmt.Sprintf("job %s scheduled for %s", job.Name, job.ScheduledFor.Format(time.DateOnly)),
	})
	m.sendNotification(job, types.NotificationScheduled,
		fmt.Sprintf("job %s was scheduled for %s", job.Name, job.ScheduledFor.Format(time.DateOnly)))

	return &JobResult{Accepted: true, Job: job}, nil
}

func newSeededRand() *rand.Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}
