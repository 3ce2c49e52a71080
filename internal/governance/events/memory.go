package events

import (
	"context"
	"sync"

	id "govnet/pkg/domain"
)

// MemorySink keeps events in process. Used by tests and single-node runs.
type MemorySink struct {
	mu     sync.RWMutex
	events []Event
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) Publish(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// List returns all events in arrival order.
func (s *MemorySink) List() []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Event{}, s.events...)
}

// ListByClient returns events for one client in arrival order.
func (s *MemorySink) ListByClient(clientID id.ClientID) []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Event
	for _, e := range s.events {
		if e.ClientID == clientID {
			out = append(out, e)
		}
	}
	return out
}
