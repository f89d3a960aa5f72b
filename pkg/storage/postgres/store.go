package postgres

import (
	"github.com/jmoiron/sqlx"
	// PostgreSQL driver registration
	_ "github.com/lib/pq"

	"github.com/finsight/marketcal/pkg/storage"
)

// store contains all PostgreSQL based sub-stores for managing the models
type store struct {
	events *eventStore
}

// NewStore creates a new PostgreSQL based Storage interface
func NewStore(db *sqlx.DB) storage.Interface {
	return &store{
		events: newEventStore(db),
	}
}

// Events returns a sub-store for managing the Event model
func (s *store) Events() storage.EventStore {
	return s.events
}
