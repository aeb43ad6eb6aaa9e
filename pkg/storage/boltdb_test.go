package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridpool/gridpool/pkg/types"
)

func newTestStore(t *testing.T) *BoltStore {
	t.Helper()
	store, err := NewBoltStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestNodeCRUD(t *testing.T) {
	store := newTestStore(t)

	node := &types.Node{
		ID:         "n1",
		Name:       "rack-7",
		URL:        "http://rack-7.campus:9000",
		OwnerNetID: "alice",
		FacultyID:  "EWI",
		Capacity:   types.Resources{CPU: 4, GPU: 2, Memory: 4},
	}
	require.NoError(t, store.CreateNode(node))

	got, err := store.GetNode("n1")
	require.NoError(t, err)
	assert.Equal(t, node.URL, got.URL)
	assert.Equal(t, node.Capacity, got.Capacity)

	byURL, err := store.GetNodeByURL(node.URL)
	require.NoError(t, err)
	assert.Equal(t, "n1", byURL.ID)

	node.FacultyID = "AE"
	require.NoError(t, store.UpdateNode(node))
	got, err = store.GetNode("n1")
	require.NoError(t, err)
	assert.Equal(t, "AE", got.FacultyID)

	require.NoError(t, store.DeleteNode("n1"))
	_, err = store.GetNode("n1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetNodeByURLNotFound(t *testing.T) {
	store := newTestStore(t)
	_, err := store.GetNodeByURL("http://nowhere")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListNodesByFaculty(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.CreateNode(&types.Node{ID: "n1", URL: "u1", FacultyID: "EWI"}))
	require.NoError(t, store.CreateNode(&types.Node{ID: "n2", URL: "u2", FacultyID: "AE"}))
	require.NoError(t, store.CreateNode(&types.Node{ID: "n3", URL: "u3", FacultyID: "EWI"}))

	ewi, err := store.ListNodesByFaculty("EWI")
	require.NoError(t, err)
	assert.Len(t, ewi, 2)

	all, err := store.ListNodes()
	require.NoError(t, err)
	assert.Len(t, all, 3)

	none, err := store.ListNodesByFaculty("TPM")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestJobCRUD(t *testing.T) {
	store := newTestStore(t)

	job := &types.Job{
		ID:           "j1",
		FacultyID:    "EWI",
		Name:         "train",
		Required:     types.Resources{CPU: 2, GPU: 1, Memory: 1},
		ScheduledFor: time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.CreateJob(job))

	got, err := store.GetJob("j1")
	require.NoError(t, err)
	assert.True(t, got.ScheduledFor.Equal(job.ScheduledFor))

	byFaculty, err := store.ListJobsByFaculty("EWI")
	require.NoError(t, err)
	assert.Len(t, byFaculty, 1)

	require.NoError(t, store.DeleteJob("j1"))
	_, err = store.GetJob("j1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPendingRemovals(t *testing.T) {
	store := newTestStore(t)

	p := &types.PendingRemoval{NodeID: "n1", RequestedBy: "alice", RequestedAt: time.Now()}
	require.NoError(t, store.PutPendingRemoval(p))

	got, err := store.GetPendingRemoval("n1")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.RequestedBy)

	all, err := store.ListPendingRemovals()
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, store.DeletePendingRemoval("n1"))
	_, err = store.GetPendingRemoval("n1")
	assert.ErrorIs(t, err, ErrNotFound)
}
