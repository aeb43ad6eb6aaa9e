package metrics

import (
	"time"

	"github.com/gridpool/gridpool/pkg/ledger"
	"github.com/gridpool/gridpool/pkg/storage"
)

// Collector periodically refreshes the capacity gauges from the
// ledgers. Counters and histograms are updated inline at their call
// sites; only the "current state" gauges need polling.
type Collector struct {
	capacity *ledger.CapacityLedger
	store    storage.Store
	stopCh   chan struct{}
}

// NewCollector creates a new metrics collector
func NewCollector(capacity *ledger.CapacityLedger, store storage.Store) *Collector {
	return &Collector{
		capacity: capacity,
		store:    store,
		stopCh:   make(chan struct{}),
	}
}

// Start begins collecting metrics
func (c *Collector) Start() {
	ticker := time.NewTicker(15 * time.Second)
	go func() {
		// Collect immediately on start
		c.collect()

		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop stops the collector
func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) collect() {
	c.collectCapacityMetrics()
	c.collectPendingMetrics()
}

func (c *Collector) collectCapacityMetrics() {
	nodes, err := c.store.ListNodes()
	if err != nil {
		return
	}

	counts := make(map[string]int)
	for _, node := range nodes {
		counts[node.FacultyID]++
	}
	for faculty, count := range counts {
		NodesTotal.WithLabelValues(faculty).Set(float64(count))
	}

	totals, err := c.capacity.TotalsPerFaculty()
	if err != nil {
		return
	}
	for _, t := range totals {
		AssignedCapacity.WithLabelValues(t.FacultyID, "cpu").Set(t.Assigned.CPU)
		AssignedCapacity.WithLabelValues(t.FacultyID, "gpu").Set(t.Assigned.GPU)
		AssignedCapacity.WithLabelValues(t.FacultyID, "memory").Set(t.Assigned.Memory)
	}
}

func (c *Collector) collectPendingMetrics() {
	pending, err := c.store.ListPendingRemovals()
	if err != nil {
		return
	}
	PendingRemovalsTotal.Set(float64(len(pending)))
}
