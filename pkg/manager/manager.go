package manager

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gridpool/gridpool/pkg/availability"
	"github.com/gridpool/gridpool/pkg/events"
	"github.com/gridpool/gridpool/pkg/ledger"
	"github.com/gridpool/gridpool/pkg/lifecycle"
	"github.com/gridpool/gridpool/pkg/log"
	"github.com/gridpool/gridpool/pkg/metrics"
	"github.com/gridpool/gridpool/pkg/notify"
	"github.com/gridpool/gridpool/pkg/policy"
	"github.com/gridpool/gridpool/pkg/probe"
	"github.com/gridpool/gridpool/pkg/rescheduler"
	"github.com/gridpool/gridpool/pkg/scheduler"
	"github.com/gridpool/gridpool/pkg/storage"
	"github.com/gridpool/gridpool/pkg/types"
)

// Config holds configuration for creating a Manager
type Config struct {
	DataDir          string
	CutoverHour      int    // UTC hour of the daily removal batch
	AssignmentPolicy string // "least-loaded" or "random"
	JobPolicy        string // "earliest-fit", "latest-acceptable" or "least-busy"
}

// Manager wires the Gridpool engine together: storage, the two
// ledgers, the scheduling service, the rescheduler, the node
// lifecycle batch, the event broker and the notification sink. It is
// the single entry point the API server and CLI talk to.
type Manager struct {
	store    storage.Store
	capacity *ledger.CapacityLedger
	schedule *ledger.ScheduleLedger
	calc     *availability.Calculator
	locks    *scheduler.KeyedLock

	sched       *scheduler.Service
	coordinator *rescheduler.Coordinator
	lifecycle   *lifecycle.Manager
	broker      *events.Broker
	notifier    notify.Notifier
	collector   *metrics.Collector
	monitor     *probe.Monitor

	assignMu sync.RWMutex
	assign   policy.NodeAssignmentPolicy

	logger zerolog.Logger
	now    func() time.Time
}

// NewManager creates a manager backed by a BoltDB store in
// cfg.DataDir. The notifier may be nil, in which case notifications go
// to the structured log.
func NewManager(cfg *Config, notifier notify.Notifier) (*Manager, error) {
	store, err := storage.NewBoltStore(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	m, err := NewWithStore(cfg, store, notifier)
	if err != nil {
		store.Close()
		return nil, err
	}
	return m, nil
}

// NewWithStore creates a manager over an existing store. Used by
// NewManager and by tests.
func NewWithStore(cfg *Config, store storage.Store, notifier notify.Notifier) (*Manager, error) {
	if notifier == nil {
		notifier = notify.NewLogNotifier()
	}

	capacity := ledger.NewCapacityLedger(store)
	schedule := ledger.NewScheduleLedger(store)
	calc := availability.NewCalculator(capacity, schedule)
	locks := scheduler.NewKeyedLock()
	sched := scheduler.NewService(capacity, schedule, calc, locks)
	broker := events.NewBroker()

	if cfg.JobPolicy != "" {
		p, err := policy.JobPolicyByName(cfg.JobPolicy)
		if err != nil {
			return nil, err
		}
		sched.SetPolicy(p)
	}

	assignName := cfg.AssignmentPolicy
	if assignName == "" {
		assignName = "least-loaded"
	}
	assign, err := policy.AssignmentPolicyByName(assignName, newSeededRand())
	if err != nil {
		return nil, err
	}

	m := &Manager{
		store:       store,
		capacity:    capacity,
		schedule:    schedule,
		calc:        calc,
		locks:       locks,
		sched:       sched,
		coordinator: rescheduler.NewCoordinator(schedule, calc, sched, notifier),
		lifecycle:   lifecycle.NewManager(capacity, store, broker, locks, cfg.CutoverHour),
		broker:      broker,
		notifier:    notifier,
		collector:   metrics.NewCollector(capacity, store),
		monitor:     probe.NewMonitor(store, probe.DefaultConfig()),
		assign:      assign,
		logger:      log.WithComponent("manager"),
		now:         time.Now,
	}

	// Removals are handed to the rescheduler synchronously so a
	// capacity loss is always followed by its repair pass; the broker
	// only fans the event out to informational subscribers.
	m.lifecycle.SetRemovalHandler(m.coordinator)
	return m, nil
}

// SetNow overrides the clock on the manager and its components, for
// tests.
func (m *Manager) SetNow(now func() time.Time) {
	m.now = now
	m.sched.SetNow(now)
	m.coordinator.SetNow(now)
	m.lifecycle.SetNow(now)
}

// Start launches the background loops: event distribution, the daily
// removal batch, the metrics collector and the reachability monitor.
func (m *Manager) Start() {
	m.broker.Start()
	m.lifecycle.Start()
	m.collector.Start()
	m.monitor.Start()
	metrics.RegisterComponent("storage", true, "")
	metrics.RegisterComponent("lifecycle", true, "")
}

// Shutdown stops the background loops and closes the store.
func (m *Manager) Shutdown() error {
	m.monitor.Stop()
	m.collector.Stop()
	m.lifecycle.Stop()
	m.broker.Stop()
	return m.store.Close()
}

// Scheduler exposes the scheduling service (for policy swaps).
func (m *Manager) Scheduler() *scheduler.Service {
	return m.sched
}

// Lifecycle exposes the node lifecycle manager.
func (m *Manager) Lifecycle() *lifecycle.Manager {
	return m.lifecycle
}

// Rescheduler exposes the rescheduling coordinator.
func (m *Manager) Rescheduler() *rescheduler.Coordinator {
	return m.coordinator
}

// Broker exposes the event broker (for API event streaming).
func (m *Manager) Broker() *events.Broker {
	return m.broker
}

// SetAssignmentPolicy swaps the active node-assignment policy.
func (m *Manager) SetAssignmentPolicy(p policy.NodeAssignmentPolicy) {
	m.assignMu.Lock()
	defer m.assignMu.Unlock()
	m.assign = p
	m.logger.Info().Str("policy", p.Name()).Msg("node assignment policy changed")
}

func (m *Manager) assignmentPolicy() policy.NodeAssignmentPolicy {
	m.assignMu.RLock()
	defer m.assignMu.RUnlock()
	return m.assign
}

// ListNodes returns every registered node.
func (m *Manager) ListNodes() ([]*types.Node, error) {
	return m.store.ListNodes()
}

// ListJobs returns every scheduled job.
func (m *Manager) ListJobs() ([]*types.Job, error) {
	return m.store.ListJobs()
}

// ListPendingRemovals returns the nodes awaiting the next cutover.
func (m *Manager) ListPendingRemovals() ([]*types.PendingRemoval, error) {
	return m.store.ListPendingRemovals()
}

func (m *Manager) sendNotification(job *types.Job, state types.NotificationState, message string) {
	ev := &types.NotificationEvent{
		Date:           types.DayOf(m.now()),
		Type:           types.NotificationTypeJob,
		State:          state,
		Message:        message,
		RecipientNetID: job.RequesterNetID,
	}
	if err := m.notifier.Notify(context.Background(), ev); err != nil {
		m.logger.Error().Err(err).Str("job_id", job.ID).Msg("failed to hand off notification")
	}
}

func newID() string {
	return uuid.New().String()
}
