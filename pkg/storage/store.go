package storage

import (
	"errors"

	"github.com/gridpool/gridpool/pkg/types"
)

// ErrNotFound is wrapped by lookups that miss; callers test with
// errors.Is to distinguish absence from a store failure.
var ErrNotFound = errors.New("not found")

// Store defines the interface for cluster state storage.
// This is implemented by BoltDB-backed storage.
type Store interface {
	// Nodes
	CreateNode(node *types.Node) error
	GetNode(id string) (*types.Node, error)
	GetNodeByURL(url string) (*types.Node, error)
	ListNodes() ([]*types.Node, error)
	ListNodesByFaculty(facultyID string) ([]*types.Node, error)
	UpdateNode(node *types.Node) error
	DeleteNode(id string) error

	// Jobs
	CreateJob(job *types.Job) error
	GetJob(id string) (*types.Job, error)
	ListJobs() ([]*types.Job, error)
	ListJobsByFaculty(facultyID string) ([]*types.Job, error)
	UpdateJob(job *types.Job) error
	DeleteJob(id string) error

	// Pending node removals (cleared by the daily cutover batch)
	PutPendingRemoval(p *types.PendingRemoval) error
	GetPendingRemoval(nodeID string) (*types.PendingRemoval, error)
	ListPendingRemovals() ([]*types.PendingRemoval, error)
	DeletePendingRemoval(nodeID string) error

	// Utility
	Close() error
}
