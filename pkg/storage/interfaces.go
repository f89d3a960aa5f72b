package storage

import (
	"time"

	"github.com/finsight/marketcal/pkg/model"
)

// Interface is implemented by the storage
type Interface interface {
	Events() EventStore
}

// EventStore is responsible for managing the Event model
type EventStore interface {
	FetchAll() ([]model.Event, error)
	FetchByTicker(ticker string) ([]model.Event, error)
	FindByID(id int64) (*model.Event, error)
	FindByNaturalKey(ticker string, eventDate time.Time) (*model.Event, error)
	Create(m *model.Event) error

	// UpdateByID applies the non-nil overlay fields to an existing event
	// and returns the updated row. It fails with ErrNotFound for an
	// unknown id.
	UpdateByID(id int64, u model.EventUpdate) (*model.Event, error)

	// Upsert inserts m or, when a row with the same (ticker, eventDate)
	// natural key exists, updates that row in place. The operation is
	// atomic with respect to concurrent callers on the same key. Overlay
	// fields left nil on m never overwrite stored overlay values. The
	// returned flag is true when a new row was created. On return m
	// carries the stored row's id.
	Upsert(m *model.Event) (created bool, err error)
}
