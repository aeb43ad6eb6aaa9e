package probe

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/gridpool/gridpool/pkg/log"
	"github.com/gridpool/gridpool/pkg/metrics"
	"github.com/gridpool/gridpool/pkg/storage"
)

// Config tunes the monitor loop.
type Config struct {
	Interval time.Duration // time between probe sweeps
	Timeout  time.Duration // per-probe timeout
	Retries  int           // consecutive failures before a node counts as unreachable
}

// DefaultConfig returns the default monitor tuning.
func DefaultConfig() Config {
	return Config{
		Interval: 30 * time.Second,
		Timeout:  10 * time.Second,
		Retries:  3,
	}
}

// status tracks one node across sweeps. A node is unreachable only
// after Retries consecutive failures, so a single flaky probe does not
// flip it.
type status struct {
	consecutiveFailures int
	reachable           bool
	lastResult          Result
}

// Monitor sweeps the contributed nodes on an interval and probes each
// node's url. Unreachable nodes are reported through logs and the
// per-faculty unreachable gauge; capacity is never withdrawn
// automatically, that stays an owner or operator decision.
type Monitor struct {
	store  storage.Store
	cfg    Config
	logger zerolog.Logger

	mu       sync.Mutex
	statuses map[string]*status // node id -> status

	// faculties holds the label values reported by the last sweep, so
	// a faculty whose nodes all disappear gets its gauge cleared.
	// Touched only by Sweep.
	faculties map[string]bool

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewMonitor creates a reachability monitor over the node store.
func NewMonitor(store storage.Store, cfg Config) *Monitor {
	if cfg.Interval <= 0 {
		cfg = DefaultConfig()
	}
	return &Monitor{
		store:     store,
		cfg:       cfg,
		logger:    log.WithComponent("probe"),
		statuses:  make(map[string]*status),
		faculties: make(map[string]bool),
		stopCh:    make(chan struct{}),
	}
}

// Start launches the sweep loop.
func (m *Monitor) Start() {
	m.wg.Add(1)
	go m.run()
}

// Stop terminates the sweep loop and waits for it.
func (m *Monitor) Stop() {
	close(m.stopCh)
	m.wg.Wait()
}

func (m *Monitor) run() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.Sweep(context.Background())
		}
	}
}

// Sweep probes every registered node once and updates the gauge.
// Exported so tests can drive the monitor without the timer.
func (m *Monitor) Sweep(ctx context.Context) {
	nodes, err := m.store.ListNodes()
	if err != nil {
		m.logger.Error().Err(err).Msg("failed to list nodes for probe sweep")
		return
	}

	unreachableByFaculty := make(map[string]int)
	seen := make(map[string]bool, len(nodes))

	for _, node := range nodes {
		seen[node.ID] = true

		checkCtx, cancel := context.WithTimeout(ctx, m.cfg.Timeout)
		result := CheckerFor(node.URL, m.cfg.Timeout).Check(checkCtx)
		cancel()

		m.mu.Lock()
		st, ok := m.statuses[node.ID]
		if !ok {
			st = &status{reachable: true}
			m.statuses[node.ID] = st
		}
		wasReachable := st.reachable
		st.lastResult = result
		if result.Reachable {
			st.consecutiveFailures = 0
			st.reachable = true
		} else {
			st.consecutiveFailures++
			if st.consecutiveFailures >= m.cfg.Retries {
				st.reachable = false
			}
		}
		nowReachable := st.reachable
		m.mu.Unlock()

		if !nowReachable {
			unreachableByFaculty[node.FacultyID]++
		}
		if wasReachable && !nowReachable {
			m.logger.Warn().
				Str("node_id", node.ID).
				Str("faculty_id", node.FacultyID).
				Str("url", node.URL).
				Str("reason", result.Message).
				Msg("node became unreachable")
		} else if !wasReachable && nowReachable {
			m.logger.Info().
				Str("node_id", node.ID).
				Str("faculty_id", node.FacultyID).
				Msg("node is reachable again")
		}
		// Reset the gauge for faculties that recovered completely.
		if _, ok := unreachableByFaculty[node.FacultyID]; !ok {
			unreachableByFaculty[node.FacultyID] = 0
		}
	}

	m.mu.Lock()
	for id := range m.statuses {
		if !seen[id] {
			delete(m.statuses, id)
		}
	}
	m.mu.Unlock()

	// A faculty absent from this sweep lost its last node; drop its
	// label value so the gauge cannot report a stale count.
	for faculty := range m.faculties {
		if _, ok := unreachableByFaculty[faculty]; !ok {
			metrics.NodesUnreachable.DeleteLabelValues(faculty)
		}
	}
	m.faculties = make(map[string]bool, len(unreachableByFaculty))
	for faculty, count := range unreachableByFaculty {
		m.faculties[faculty] = true
		metrics.NodesUnreachable.WithLabelValues(faculty).Set(float64(count))
	}
}

// Reachable reports whether the node passed its last probes. Unknown
// nodes count as reachable until a sweep says otherwise.
func (m *Monitor) Reachable(nodeID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.statuses[nodeID]
	if !ok {
		return true
	}
	return st.reachable
}
