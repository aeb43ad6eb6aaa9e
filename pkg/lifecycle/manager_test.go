package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridpool/gridpool/pkg/events"
	"github.com/gridpool/gridpool/pkg/ledger"
	"github.com/gridpool/gridpool/pkg/scheduler"
	"github.com/gridpool/gridpool/pkg/storage"
	"github.com/gridpool/gridpool/pkg/types"
)

func newTestManager(t *testing.T) (*Manager, *ledger.CapacityLedger, storage.Store) {
	t.Helper()
	store, err := storage.NewBoltStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	capacity := ledger.NewCapacityLedger(store)
	broker := events.NewBroker()
	mgr := NewManager(capacity, store, broker, scheduler.NewKeyedLock(), 3)
	return mgr, capacity, store
}

func addNode(t *testing.T, capacity *ledger.CapacityLedger, id, owner string) *types.Node {
	t.Helper()
	node := &types.Node{
		ID: id, URL: "http://" + id, OwnerNetID: owner, FacultyID: "EWI",
		Capacity: types.Resources{CPU: 2, GPU: 1, Memory: 1},
	}
	require.NoError(t, capacity.Save(node))
	return node
}

// recordingHandler captures synchronous removal handoffs.
type recordingHandler struct {
	removals []*types.NodeRemovalEvent
}

func (h *recordingHandler) HandleRemoval(r *types.NodeRemovalEvent) error {
	h.removals = append(h.removals, r)
	return nil
}

func TestRequestRemovalDefersToBatch(t *testing.T) {
	mgr, capacity, store := newTestManager(t)
	node := addNode(t, capacity, "n1", "alice")

	require.NoError(t, mgr.RequestRemoval(node.URL, "alice"))

	// The node keeps serving its faculty until the cutover.
	_, err := capacity.Get(node.ID)
	require.NoError(t, err)

	pending, err := store.ListPendingRemovals()
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, node.ID, pending[0].NodeID)
}

func TestRequestRemovalRejectsNonOwner(t *testing.T) {
	mgr, capacity, _ := newTestManager(t)
	node := addNode(t, capacity, "n1", "alice")

	err := mgr.RequestRemoval(node.URL, "mallory")
	assert.ErrorIs(t, err, ErrNotOwner)
}

func TestRequestRemovalUnknownNode(t *testing.T) {
	mgr, _, _ := newTestManager(t)

	err := mgr.RequestRemoval("http://nowhere", "alice")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCancelRemoval(t *testing.T) {
	mgr, capacity, store := newTestManager(t)
	node := addNode(t, capacity, "n1", "alice")

	require.NoError(t, mgr.RequestRemoval(node.URL, "alice"))
	require.NoError(t, mgr.CancelRemoval(node.URL, "alice"))

	pending, err := store.ListPendingRemovals()
	require.NoError(t, err)
	assert.Empty(t, pending)

	assert.ErrorIs(t, mgr.CancelRemoval(node.URL, "mallory"), ErrNotOwner)
}

func TestRunBatchRemovesPendingNodes(t *testing.T) {
	mgr, capacity, store := newTestManager(t)
	n1 := addNode(t, capacity, "n1", "alice")
	n2 := addNode(t, capacity, "n2", "bob")
	keep := addNode(t, capacity, "n3", "carol")

	require.NoError(t, mgr.RequestRemoval(n1.URL, "alice"))
	require.NoError(t, mgr.RequestRemoval(n2.URL, "bob"))

	require.NoError(t, mgr.RunBatch())

	_, err := capacity.Get(n1.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = capacity.Get(n2.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = capacity.Get(keep.ID)
	assert.NoError(t, err)

	pending, err := store.ListPendingRemovals()
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestRunBatchPublishesOneRemovalEvent(t *testing.T) {
	store, err := storage.NewBoltStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	capacity := ledger.NewCapacityLedger(store)
	broker := events.NewBroker()
	broker.Start()
	t.Cleanup(broker.Stop)
	sub := broker.Subscribe()

	mgr := NewManager(capacity, store, broker, scheduler.NewKeyedLock(), 3)
	n1 := addNode(t, capacity, "n1", "alice")
	n2 := addNode(t, capacity, "n2", "alice")
	require.NoError(t, mgr.RequestRemoval(n1.URL, "alice"))
	require.NoError(t, mgr.RequestRemoval(n2.URL, "alice"))

	require.NoError(t, mgr.RunBatch())

	select {
	case ev := <-sub:
		require.Equal(t, events.EventNodeRemoved, ev.Type)
		require.NotNil(t, ev.Removal)
		assert.Len(t, ev.Removal.Nodes, 2)
		assert.Equal(t, []string{"EWI"}, ev.Removal.FacultyIDs())
	case <-time.After(2 * time.Second):
		t.Fatal("no removal event published")
	}
}

func TestRunBatchHandsRemovalToHandlerSynchronously(t *testing.T) {
	mgr, capacity, _ := newTestManager(t)
	handler := &recordingHandler{}
	mgr.SetRemovalHandler(handler)

	n1 := addNode(t, capacity, "n1", "alice")
	n2 := addNode(t, capacity, "n2", "bob")
	require.NoError(t, mgr.RequestRemoval(n1.URL, "alice"))
	require.NoError(t, mgr.RequestRemoval(n2.URL, "bob"))

	require.NoError(t, mgr.RunBatch())

	// The handler has seen the whole batch by the time RunBatch
	// returns; there is no broker hop that could drop it.
	require.Len(t, handler.removals, 1)
	assert.Len(t, handler.removals[0].Nodes, 2)
	assert.Equal(t, []string{"EWI"}, handler.removals[0].FacultyIDs())
}

func TestRemoveNowHandsRemovalToHandler(t *testing.T) {
	mgr, capacity, _ := newTestManager(t)
	handler := &recordingHandler{}
	mgr.SetRemovalHandler(handler)

	node := addNode(t, capacity, "n1", "alice")
	_, err := mgr.RemoveNow(node.URL)
	require.NoError(t, err)

	require.Len(t, handler.removals, 1)
	require.Len(t, handler.removals[0].Nodes, 1)
	assert.Equal(t, node.ID, handler.removals[0].Nodes[0].ID)
}

func TestRunBatchEmptyPendingIsNoop(t *testing.T) {
	mgr, _, _ := newTestManager(t)
	require.NoError(t, mgr.RunBatch())
}

func TestRemoveNowBypassesPending(t *testing.T) {
	mgr, capacity, _ := newTestManager(t)
	node := addNode(t, capacity, "n1", "alice")

	removed, err := mgr.RemoveNow(node.URL)
	require.NoError(t, err)
	assert.Equal(t, node.ID, removed.ID)

	_, err = capacity.Get(node.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = mgr.RemoveNow("http://nowhere")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestUntilNextCutover(t *testing.T) {
	mgr, _, _ := newTestManager(t)

	// 01:00 UTC with a 03:00 cutover: two hours away.
	mgr.SetNow(func() time.Time {
		return time.Date(2026, 3, 15, 1, 0, 0, 0, time.UTC)
	})
	assert.Equal(t, 2*time.Hour, mgr.untilNextCutover())

	// Past the cutover the next one is tomorrow.
	mgr.SetNow(func() time.Time {
		return time.Date(2026, 3, 15, 4, 0, 0, 0, time.UTC)
	})
	assert.Equal(t, 23*time.Hour, mgr.untilNextCutover())
}
