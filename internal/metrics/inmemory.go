package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	UsersCreated uint64
	UsersUpdated uint64
	UsersDeleted uint64

	// StoreOperations counts operations by "operation/outcome".
	StoreOperations      map[string]uint64
	StoreDurationTotalNs int64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	usersCreated uint64
	usersUpdated uint64
	usersDeleted uint64

	mu                   sync.Mutex
	storeOperations      map[string]uint64
	storeDurationTotalNs int64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{storeOperations: make(map[string]uint64)}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	ops := make(map[string]uint64, len(m.storeOperations))
	for k, v := range m.storeOperations {
		ops[k] = v
	}
	total := m.storeDurationTotalNs
	m.mu.Unlock()

	return Snapshot{
		UsersCreated:         atomic.LoadUint64(&m.usersCreated),
		UsersUpdated:         atomic.LoadUint64(&m.usersUpdated),
		UsersDeleted:         atomic.LoadUint64(&m.usersDeleted),
		StoreOperations:      ops,
		StoreDurationTotalNs: total,
	}
}

// IncUserCreated increments user created counter.
func (m *InMemoryRecorder) IncUserCreated() {
	atomic.AddUint64(&m.usersCreated, 1)
}

// IncUserUpdated increments user updated counter.
func (m *InMemoryRecorder) IncUserUpdated() {
	atomic.AddUint64(&m.usersUpdated, 1)
}

// IncUserDeleted increments user deleted counter.
func (m *InMemoryRecorder) IncUserDeleted() {
	atomic.AddUint64(&m.usersDeleted, 1)
}

// ObserveStoreOperation counts the operation and accumulates its duration.
func (m *InMemoryRecorder) ObserveStoreOperation(operation, outcome string, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.storeOperations[operation+"/"+outcome]++
	m.storeDurationTotalNs += duration.Nanoseconds()
}
