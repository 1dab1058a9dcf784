package storage

import (
	"context"
	"sync"
)

// MemoryBackend keeps the last saved state in process memory. It backs the
// "memory" storage option and engine tests.
type MemoryBackend struct {
	mu    sync.Mutex
	state *State
	saves int
}

// NewMemoryBackend returns an empty MemoryBackend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

// NewMemoryBackendWith returns a MemoryBackend that loads st.
func NewMemoryBackendWith(st State) *MemoryBackend {
	c := st.Clone()
	return &MemoryBackend{state: &c}
}

// Name returns "memory".
func (b *MemoryBackend) Name() string { return "memory" }

func (b *MemoryBackend) Load(ctx context.Context) (State, error) {
	if err := ctx.Err(); err != nil {
		return State{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == nil {
		return EmptyState(), nil
	}
	return b.state.Clone(), nil
}

func (b *MemoryBackend) Save(ctx context.Context, st State) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	c := st.Clone()
	b.state = &c
	b.saves++
	return nil
}

// Saves reports how many times Save succeeded.
func (b *MemoryBackend) Saves() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.saves
}

// Last returns the most recently saved state and whether one exists.
func (b *MemoryBackend) Last() (State, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == nil {
		return State{}, false
	}
	return b.state.Clone(), true
}
