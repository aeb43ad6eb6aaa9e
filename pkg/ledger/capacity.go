package ledger

import (
	"errors"
	"fmt"
	"sort"

	"github.com/gridpool/gridpool/pkg/storage"
	"github.com/gridpool/gridpool/pkg/types"
)

// CapacityLedger owns the set of contributed nodes and answers
// aggregate capacity questions per faculty. It is the only writer of
// node records.
type CapacityLedger struct {
	store storage.Store
}

// NewCapacityLedger creates a capacity ledger over the given store.
func NewCapacityLedger(store storage.Store) *CapacityLedger {
	return &CapacityLedger{store: store}
}

// Save persists a node.
func (l *CapacityLedger) Save(node *types.Node) error {
	if err := l.store.CreateNode(node); err != nil {
		return fmt.Errorf("failed to save node: %w", err)
	}
	return nil
}

// Update persists changes to an existing node.
func (l *CapacityLedger) Update(node *types.Node) error {
	if err := l.store.UpdateNode(node); err != nil {
		return fmt.Errorf("failed to update node: %w", err)
	}
	return nil
}

// Remove deletes a node record.
func (l *CapacityLedger) Remove(node *types.Node) error {
	if err := l.store.DeleteNode(node.ID); err != nil {
		return fmt.Errorf("failed to remove node: %w", err)
	}
	return nil
}

// Get returns the node with the given id.
func (l *CapacityLedger) Get(id string) (*types.Node, error) {
	return l.store.GetNode(id)
}

// GetByURL returns the node with the given url.
func (l *CapacityLedger) GetByURL(url string) (*types.Node, error) {
	return l.store.GetNodeByURL(url)
}

// ExistsByURL reports whether a node with the given url is registered.
// The url is the external reference key and must be unique.
func (l *CapacityLedger) ExistsByURL(url string) (bool, error) {
	_, err := l.store.GetNodeByURL(url)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ExistsFaculty reports whether any node is assigned to the faculty.
func (l *CapacityLedger) ExistsFaculty(facultyID string) (bool, error) {
	nodes, err := l.store.ListNodesByFaculty(facultyID)
	if err != nil {
		return false, err
	}
	return len(nodes) > 0, nil
}

// TotalsPerFaculty returns the summed capacity assigned to each
// faculty, sorted by faculty id for deterministic iteration. Faculties
// with no nodes do not appear.
func (l *CapacityLedger) TotalsPerFaculty() ([]types.FacultyTotal, error) {
	nodes, err := l.store.ListNodes()
	if err != nil {
		return nil, fmt.Errorf("failed to list nodes: %w", err)
	}

	sums := make(map[string]types.Resources)
	for _, node := range nodes {
		if node.FacultyID == "" {
			continue
		}
		sums[node.FacultyID] = sums[node.FacultyID].Add(node.Capacity)
	}

	totals := make([]types.FacultyTotal, 0, len(sums))
	for facultyID, assigned := range sums {
		totals = append(totals, types.FacultyTotal{FacultyID: facultyID, Assigned: assigned})
	}
	sort.Slice(totals, func(i, j int) bool {
		return totals[i].FacultyID < totals[j].FacultyID
	})
	return totals, nil
}

// TotalsForFaculty returns the summed capacity assigned to one
// faculty. A faculty with zero nodes yields a zero-valued total, not
// an error: a faculty can outlive its last node.
func (l *CapacityLedger) TotalsForFaculty(facultyID string) (types.FacultyTotal, error) {
	nodes, err := l.store.ListNodesByFaculty(facultyID)
	if err != nil {
		return types.FacultyTotal{}, fmt.Errorf("failed to list nodes: %w", err)
	}

	total := types.FacultyTotal{FacultyID: facultyID}
	for _, node := range nodes {
		total.Assigned = total.Assigned.Add(node.Capacity)
	}
	return total, nil
}
