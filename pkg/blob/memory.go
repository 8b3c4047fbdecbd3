package blob

import (
	"context"
	"fmt"
	"sync"
)

// Memory implements Store backed by process memory. Intended for tests and
// demos, content is lost on exit.
type Memory struct {
	mu   sync.RWMutex
	objs map[string][]byte

	// OnStore, if set, is called after every successful Store.
	OnStore func(container, name string, data []byte)
}

var _ Store = (*Memory)(nil)

// NewMemory returns an empty in-memory blob store.
func NewMemory() *Memory {
	return &Memory{objs: map[string][]byte{}}
}

func (m *Memory) Driver() Driver { return DriverMemory }

func (m *Memory) Fetch(_ context.Context, container, name string) ([]byte, error) {
	m.mu.RLock()
	b, ok := m.objs[memKey(container, name)]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%s/%s: %w", container, name, ErrNotExist)
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

func (m *Memory) Store(_ context.Context, container, name string, data []byte) error {
	cp := make([]byte, len(data))
	copy(cp, data)

	m.mu.Lock()
	m.objs[memKey(container, name)] = cp
	m.mu.Unlock()

	if m.OnStore != nil {
		m.OnStore(container, name, cp)
	}
	return nil
}

func memKey(container, name string) string {
	return container + "\x00" + name
}
