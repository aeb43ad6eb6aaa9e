package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridpool/gridpool/pkg/metrics"
	"github.com/gridpool/gridpool/pkg/storage"
	"github.com/gridpool/gridpool/pkg/types"
)

func newMonitor(t *testing.T) (*Monitor, storage.Store) {
	t.Helper()
	store, err := storage.NewBoltStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return NewMonitor(store, Config{
		Interval: time.Hour, // tests drive sweeps manually
		Timeout:  time.Second,
		Retries:  2,
	}), store
}

func TestHTTPCheckerReachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound) // answering at all counts
	}))
	defer srv.Close()

	result := NewHTTPChecker(srv.URL, time.Second).Check(context.Background())
	assert.True(t, result.Reachable)
}

func TestHTTPCheckerServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	result := NewHTTPChecker(srv.URL, time.Second).Check(context.Background())
	assert.False(t, result.Reachable)
}

func TestTCPChecker(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()
	addr := srv.Listener.Addr().String()

	result := NewTCPChecker(addr, time.Second).Check(context.Background())
	assert.True(t, result.Reachable)

	srv.Close()
	result = NewTCPChecker(addr, 200*time.Millisecond).Check(context.Background())
	assert.False(t, result.Reachable)
}

func TestCheckerFor(t *testing.T) {
	assert.IsType(t, &HTTPChecker{}, CheckerFor("http://node:9000", time.Second))
	assert.IsType(t, &HTTPChecker{}, CheckerFor("https://node:9000", time.Second))
	assert.IsType(t, &TCPChecker{}, CheckerFor("node:9000", time.Second))
}

func TestSweepRequiresConsecutiveFailures(t *testing.T) {
	monitor, store := newMonitor(t)

	// A url nothing listens on.
	require.NoError(t, store.CreateNode(&types.Node{
		ID: "n1", URL: "127.0.0.1:1", FacultyID: "EWI",
	}))

	monitor.Sweep(context.Background())
	assert.True(t, monitor.Reachable("n1"), "one failure must not flip the node")

	monitor.Sweep(context.Background())
	assert.False(t, monitor.Reachable("n1"))
}

func TestSweepRecovers(t *testing.T) {
	monitor, store := newMonitor(t)

	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	require.NoError(t, store.CreateNode(&types.Node{
		ID: "n1", URL: srv.URL, FacultyID: "EWI",
	}))

	monitor.Sweep(context.Background())
	assert.True(t, monitor.Reachable("n1"))
}

func TestSweepForgetsRemovedNodes(t *testing.T) {
	monitor, store := newMonitor(t)

	require.NoError(t, store.CreateNode(&types.Node{
		ID: "n1", URL: "127.0.0.1:1", FacultyID: "EWI",
	}))
	monitor.Sweep(context.Background())
	monitor.Sweep(context.Background())
	require.False(t, monitor.Reachable("n1"))

	require.NoError(t, store.DeleteNode("n1"))
	monitor.Sweep(context.Background())

	// Unknown nodes default to reachable.
	assert.True(t, monitor.Reachable("n1"))
}

func TestSweepClearsGaugeWhenFacultyLosesAllNodes(t *testing.T) {
	monitor, store := newMonitor(t)

	require.NoError(t, store.CreateNode(&types.Node{
		ID: "n1", URL: "127.0.0.1:1", FacultyID: "IDE",
	}))
	monitor.Sweep(context.Background())
	monitor.Sweep(context.Background())
	require.Equal(t, float64(1),
		testutil.ToFloat64(metrics.NodesUnreachable.WithLabelValues("IDE")))

	// The faculty's last node disappears entirely; the gauge must not
	// keep reporting the old count.
	require.NoError(t, store.DeleteNode("n1"))
	monitor.Sweep(context.Background())
	assert.Zero(t,
		testutil.ToFloat64(metrics.NodesUnreachable.WithLabelValues("IDE")))
}

func TestUnknownNodeDefaultsReachable(t *testing.T) {
	monitor, _ := newMonitor(t)
	assert.True(t, monitor.Reachable("ghost"))
}
