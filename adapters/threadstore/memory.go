package threadstore

import (
	"context"
	"sync"

	"github.com/vasifvortex/azercell-project3/domain"
)

type Memory struct {
	mu      sync.RWMutex
	order   []string
	threads map[string][]domain.Turn
}

func NewMemory() *Memory {
	return &Memory{threads: make(map[string][]domain.Turn)}
}

func (m *Memory) Append(_ context.Context, threadID string, turn domain.Turn) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.threads[threadID]; !ok {
		m.order = append(m.order, threadID)
	}
	m.threads[threadID] = append(m.threads[threadID], turn)
	return nil
}

func (m *Memory) Load(_ context.Context, threadID string) ([]domain.Turn, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return append([]domain.Turn(nil), m.threads[threadID]...), nil
}

func (m *Memory) List(context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return append([]string(nil), m.order...), nil
}

func (m *Memory) Delete(_ context.Context, threadID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.threads, threadID)
	for i, id := range m.order {
		if id == threadID {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *Memory) Close() error { return nil }
