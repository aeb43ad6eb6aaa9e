package lifecycle

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/gridpool/gridpool/pkg/events"
	"github.com/gridpool/gridpool/pkg/ledger"
	"github.com/gridpool/gridpool/pkg/log"
	"github.com/gridpool/gridpool/pkg/scheduler"
	"github.com/gridpool/gridpool/pkg/storage"
	"github.com/gridpool/gridpool/pkg/types"
)

// ErrNotOwner is returned when a removal is requested by someone other
// than the node's contributor.
var ErrNotOwner = errors.New("node is owned by another user")

// RemovalHandler reacts to a committed batch of node removals. The
// lifecycle manager calls it synchronously before returning, so a
// removal cannot complete without its handler having run; the broker
// event published afterwards is informational fan-out only.
type RemovalHandler interface {
	HandleRemoval(*types.NodeRemovalEvent) error
}

// Manager defers user-requested node removals to a daily cutover and
// performs the actual removal in one batch, so capacity promised for
// the current day is never yanked out from under an accepted job
// mid-day. Committed removals are handed to the registered
// RemovalHandler (the rescheduler) before the call returns.
type Manager struct {
	capacity *ledger.CapacityLedger
	store    storage.Store
	broker   *events.Broker
	locks    *scheduler.KeyedLock
	handler  RemovalHandler

	cutoverHour int // UTC hour of the daily batch
	logger      zerolog.Logger
	now         func() time.Time
	stopCh      chan struct{}
}

// NewManager creates a node lifecycle manager. cutoverHour is the UTC
// hour at which the daily removal batch runs.
func NewManager(capacity *ledger.CapacityLedger, store storage.Store, broker *events.Broker, locks *scheduler.KeyedLock, cutoverHour int) *Manager {
	return &Manager{
		capacity:    capacity,
		store:       store,
		broker:      broker,
		locks:       locks,
		cutoverHour: cutoverHour,
		logger:      log.WithComponent("lifecycle"),
		now:         time.Now,
		stopCh:      make(chan struct{}),
	}
}

// SetNow overrides the clock, for tests.
func (m *Manager) SetNow(now func() time.Time) {
	m.now = now
}

// SetRemovalHandler registers the handler invoked for every committed
// removal. Must be called before Start.
func (m *Manager) SetRemovalHandler(h RemovalHandler) {
	m.handler = h
}

// Start begins the daily batch loop.
func (m *Manager) Start() {
	go m.run()
}

// Stop stops the batch loop.
func (m *Manager) Stop() {
	close(m.stopCh)
}

func (m *Manager) run() {
	for {
		timer := time.NewTimer(m.untilNextCutover())
		select {
		case <-timer.C:
			if err := m.RunBatch(); err != nil {
				m.logger.Error().Err(err).Msg("removal batch failed")
			}
		case <-m.stopCh:
			timer.Stop()
			return
		}
	}
}

func (m *Manager) untilNextCutover() time.Duration {
	now := m.now().UTC()
	next := time.Date(now.Year(), now.Month(), now.Day(), m.cutoverHour, 0, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next.Sub(now)
}

// RequestRemoval marks a node for removal at the next cutover. Only
// the contributing owner may request it; the node keeps serving its
// faculty until the batch runs.
func (m *Manager) RequestRemoval(nodeURL, requestedBy string) error {
	node, err := m.capacity.GetByURL(nodeURL)
	if err != nil {
		return err
	}
	if node.OwnerNetID != requestedBy {
		return ErrNotOwner
	}

	p := &types.PendingRemoval{
		NodeID:      node.ID,
		RequestedBy: requestedBy,
		RequestedAt: m.now(),
	}
	if err := m.store.PutPendingRemoval(p); err != nil {
		return fmt.Errorf("failed to record pending removal: %w", err)
	}

	m.logger.Info().
		Str("node_id", node.ID).
		Str("requested_by", requestedBy).
		Msg("node marked for removal at next cutover")
	return nil
}

// CancelRemoval withdraws a pending removal before the cutover.
func (m *Manager) CancelRemoval(nodeURL, requestedBy string) error {
	node, err := m.capacity.GetByURL(nodeURL)
	if err != nil {
		return err
	}
	if node.OwnerNetID != requestedBy {
		return ErrNotOwner
	}
	return m.store.DeletePendingRemoval(node.ID)
}

// RunBatch removes every pending node from the capacity ledger,
// clears the pending set, and publishes one removal event for the
// whole batch. Exported so operators can trigger the cutover early.
func (m *Manager) RunBatch() error {
	pending, err := m.store.ListPendingRemovals()
	if err != nil {
		return fmt.Errorf("failed to list pending removals: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	var removed []*types.Node
	for _, p := range pending {
		node, err := m.capacity.Get(p.NodeID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				// Already gone (immediate removal won the race);
				// just clear the marker.
				_ = m.store.DeletePendingRemoval(p.NodeID)
				continue
			}
			m.logger.Error().Err(err).Str("node_id", p.NodeID).Msg("failed to load pending node")
			continue
		}

		if err := m.removeNode(node); err != nil {
			m.logger.Error().Err(err).Str("node_id", node.ID).Msg("failed to remove node")
			continue
		}
		if err := m.store.DeletePendingRemoval(p.NodeID); err != nil {
			m.logger.Error().Err(err).Str("node_id", node.ID).Msg("failed to clear pending removal")
		}
		removed = append(removed, node)
	}

	if len(removed) > 0 {
		m.publishRemoval(removed)
	}
	m.logger.Info().Int("removed", len(removed)).Msg("removal batch complete")
	return nil
}

// RemoveNow removes a node immediately, bypassing the pending set.
// This is a privileged operation; the removal event fires
// synchronously so rescheduling starts right away.
func (m *Manager) RemoveNow(nodeURL string) (*types.Node, error) {
	node, err := m.capacity.GetByURL(nodeURL)
	if err != nil {
		return nil, err
	}
	if err := m.removeNode(node); err != nil {
		return nil, err
	}
	_ = m.store.DeletePendingRemoval(node.ID)

	m.publishRemoval([]*types.Node{node})
	m.logger.Warn().
		Str("node_id", node.ID).
		Str("faculty_id", node.FacultyID).
		Msg("node removed immediately")
	return node, nil
}

func (m *Manager) removeNode(node *types.Node) error {
	if node.FacultyID != "" {
		m.locks.Lock(node.FacultyID)
		defer m.locks.Unlock(node.FacultyID)
	}
	return m.capacity.Remove(node)
}

func (m *Manager) publishRemoval(nodes []*types.Node) {
	removal := &types.NodeRemovalEvent{
		Nodes:     nodes,
		RemovedAt: m.now(),
	}

	// Synchronous handoff: the removal is not acknowledged until the
	// handler's rescheduling pass has run. The handler derives its work
	// from ledger state, so a failure here can be retried by replay.
	if m.handler != nil {
		if err := m.handler.HandleRemoval(removal); err != nil {
			m.logger.Error().Err(err).Int("nodes", len(nodes)).Msg("removal handler failed")
		}
	}

	m.broker.Publish(&events.Event{
		Type:      events.EventNodeRemoved,
		Timestamp: m.now(),
		Message:   fmt.Sprintf("%d node(s) removed", len(nodes)),
		Removal:   removal,
	})
}
