package revocation

import (
	"context"
	"sync"
	"time"
)

// Memory is a process-local Store. Suitable for single-instance deployments
// and tests; revocations are lost on restart and not shared across replicas,
// so multi-instance production setups should use the Redis store instead.
type Memory struct {
	mu       sync.Mutex
	deadline map[string]time.Time

	now func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		deadline: make(map[string]time.Time),
		now:      time.Now,
	}
}

// NewMemoryAtClock builds a Memory store reading time from the given clock.
func NewMemoryAtClock(now func() time.Time) *Memory {
	m := NewMemory()
	m.now = now
	return m
}

func (m *Memory) Put(_ context.Context, jti string, ttl time.Duration) error {
	until := m.now().Add(clampTTL(ttl))

	m.mu.Lock()
	defer m.mu.Unlock()
	// Never shorten an existing entry.
	if cur, ok := m.deadline[jti]; !ok || until.After(cur) {
		m.deadline[jti] = until
	}
	return nil
}

func (m *Memory) Exists(_ context.Context, jti string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	until, ok := m.deadline[jti]
	if !ok {
		return false, nil
	}
	if m.now().After(until) {
		delete(m.deadline, jti)
		return false, nil
	}
	return true, nil
}

// Sweep drops expired entries and returns how many were removed. Call it
// periodically from a housekeeping loop; lookups already skip expired
// entries, so sweeping only bounds memory.
func (m *Memory) Sweep() int {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	var dropped int
	for jti, until := range m.deadline {
		if now.After(until) {
			delete(m.deadline, jti)
			dropped++
		}
	}
	return dropped
}

// Len reports the number of live entries, for readiness reporting.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.deadline)
}
