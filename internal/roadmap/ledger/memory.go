package ledger

import (
	"context"
	"sync"

	"github.com/skillnavigator/roadmap-service/internal/roadmap/domain"
)

// MemoryLedger keeps balances in process. Meant for development and tests.
// The zero value is an empty ledger.
type MemoryLedger struct {
	mu       sync.Mutex
	balances map[string]int64
}

// NewMemoryLedger creates a ledger seeded with the given balances.
func NewMemoryLedger(seed map[string]int64) *MemoryLedger {
	balances := make(map[string]int64, len(seed))
	for k, v := range seed {
		if v < 0 {
			v = 0
		}
		balances[k] = v
	}
	return &MemoryLedger{balances: balances}
}

func (m *MemoryLedger) Check(_ context.Context, userID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	credits, ok := m.balances[userID]
	if !ok {
		if m.balances == nil {
			m.balances = make(map[string]int64)
		}
		m.balances[userID] = 0
		return false
	}
	return credits >= 1
}

func (m *MemoryLedger) Decrement(_ context.Context, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	credits, ok := m.balances[userID]
	if !ok || credits < 1 {
		return 0, domain.ErrInsufficientCredits
	}
	credits--
	m.balances[userID] = credits
	return credits, nil
}

// Balance returns the stored balance and whether a record exists.
func (m *MemoryLedger) Balance(userID string) (int64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	credits, ok := m.balances[userID]
	return credits, ok
}
