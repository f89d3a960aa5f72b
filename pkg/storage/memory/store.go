package memory

import "github.com/finsight/marketcal/pkg/storage"

// store contains all memory-based sub-stores for managing the persistent models
type store struct {
	events *eventStore
}

// NewStore creates a new memory-based Storage interface
func NewStore() storage.Interface {
	return &store{
		events: newEventStore(),
	}
}

// Events returns a sub-store for managing the Event model
func (s *store) Events() storage.EventStore {
	return s.events
}
