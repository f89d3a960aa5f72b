package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/finsight/marketcal/pkg/model"
	"github.com/finsight/marketcal/pkg/storage"
)

type eventStore struct {
	store  map[int64]model.Event
	byKey  map[string]int64
	nextID int64
	sync.RWMutex
}

func newEventStore() *eventStore {
	return &eventStore{
		store:  make(map[int64]model.Event),
		byKey:  make(map[string]int64),
		nextID: 1,
	}
}

// naturalKey builds the map key for the (ticker, eventDate) pair. Dates are
// normalized to UTC so the same instant never yields two keys.
func naturalKey(ticker string, eventDate time.Time) string {
	return ticker + "|" + eventDate.UTC().Format(time.RFC3339Nano)
}

func (s *eventStore) FetchAll() ([]model.Event, error) {
	s.RLock()
	defer s.RUnlock()

	models := make([]model.Event, 0, len(s.store))
	for _, m := range s.store {
		models = append(models, m)
	}
	sort.Slice(models, func(i, j int) bool { return models[i].ID < models[j].ID })

	return models, nil
}

func (s *eventStore) FetchByTicker(ticker string) ([]model.Event, error) {
	s.RLock()
	defer s.RUnlock()

	models := make([]model.Event, 0)
	for _, m := range s.store {
		if m.Ticker == ticker {
			models = append(models, m)
		}
	}
	sort.Slice(models, func(i, j int) bool { return models[i].ID < models[j].ID })

	return models, nil
}

func (s *eventStore) FindByID(id int64) (*model.Event, error) {
	s.RLock()
	defer s.RUnlock()
	if m, ok := s.store[id]; ok {
		return &m, nil
	}

	return nil, storage.ErrNotFound
}

func (s *eventStore) FindByNaturalKey(ticker string, eventDate time.Time) (*model.Event, error) {
	s.RLock()
	defer s.RUnlock()
	if id, ok := s.byKey[naturalKey(ticker, eventDate)]; ok {
		m := s.store[id]
		return &m, nil
	}

	return nil, storage.ErrNotFound
}

func (s *eventStore) Create(m *model.Event) error {
	s.Lock()
	defer s.Unlock()

	s.create(m)

	return nil
}

func (s *eventStore) UpdateByID(id int64, u model.EventUpdate) (*model.Event, error) {
	s.Lock()
	defer s.Unlock()

	m, ok := s.store[id]
	if !ok {
		return nil, storage.ErrNotFound
	}

	applyOverlays(&m, u)
	m.UpdatedAt = time.Now().Round(time.Second).UTC()
	s.store[id] = m

	return &m, nil
}

func (s *eventStore) Upsert(m *model.Event) (bool, error) {
	s.Lock()
	defer s.Unlock()

	id, ok := s.byKey[naturalKey(m.Ticker, m.EventDate)]
	if !ok {
		s.create(m)
		return true, nil
	}

	existing := s.store[id]
	existing.EventName = m.EventName
	existing.EventType = m.EventType
	existing.Impact = m.Impact
	existing.Details = m.Details
	applyOverlays(&existing, model.EventUpdate{
		CleanImpliedVol: m.CleanImpliedVol,
		DirtyVolume:     m.DirtyVolume,
		TotalImpliedVol: m.TotalImpliedVol,
		Vol:             m.Vol,
	})
	existing.UpdatedAt = time.Now().Round(time.Second).UTC()
	s.store[id] = existing
	m.ID = id

	return false, nil
}

// create must be called with the write lock held.
func (s *eventStore) create(m *model.Event) {
	m.ID = s.getNextID()
	m.CreatedAt = time.Now().Round(time.Second).UTC()
	m.UpdatedAt = m.CreatedAt

	s.store[m.ID] = *m
	s.byKey[naturalKey(m.Ticker, m.EventDate)] = m.ID
}

func (s *eventStore) getNextID() int64 {
	id := s.nextID
	s.nextID++
	return id
}

// applyOverlays copies only the overlay fields the update actually carries,
// so re-ingestion never erases analyst-entered values.
func applyOverlays(m *model.Event, u model.EventUpdate) {
	if u.CleanImpliedVol != nil {
		m.CleanImpliedVol = u.CleanImpliedVol
	}
	if u.DirtyVolume != nil {
		m.DirtyVolume = u.DirtyVolume
	}
	if u.TotalImpliedVol != nil {
		m.TotalImpliedVol = u.TotalImpliedVol
	}
	if u.Vol != nil {
		m.Vol = u.Vol
	}
}
