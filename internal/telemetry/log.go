// Package telemetry keeps the append-only healing event log and derives
// locator update suggestions from it.
package telemetry

import (
	"context"
	"io"
	"sync"

	"github.com/mj1618/locator-cli/internal/model"
)

// Log is an append-only store of healing events. Events returns them in
// append order. Implementations must be safe for concurrent Append.
type Log interface {
	Append(ctx context.Context, ev model.HealingEvent) error
	Events(ctx context.Context) ([]model.HealingEvent, error)
}

// Close releases l if it holds resources.
func Close(l Log) error {
	if c, ok := l.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// MemoryLog keeps events in process memory.
type MemoryLog struct {
	mu     sync.Mutex
	events []model.HealingEvent
}

func NewMemoryLog() *MemoryLog {
	return &MemoryLog{}
}

func (m *MemoryLog) Append(_ context.Context, ev model.HealingEvent) error {
	m.mu.Lock()
	m.events = append(m.events, ev)
	m.mu.Unlock()
	return nil
}

// Events returns a copy; later appends do not affect it.
func (m *MemoryLog) Events(_ context.Context) ([]model.HealingEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.HealingEvent, len(m.events))
	copy(out, m.events)
	return out, nil
}

func (m *MemoryLog) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}
