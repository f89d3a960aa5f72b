package ingest_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/finsight/marketcal/pkg/ingest"
	"github.com/finsight/marketcal/pkg/model"
	"github.com/finsight/marketcal/pkg/storage"
	"github.com/finsight/marketcal/pkg/storage/memory"
)

func candidate(ticker string, date time.Time, name string) model.Event {
	return model.Event{
		Ticker:    ticker,
		EventDate: date,
		EventName: name,
		EventType: model.EventTypeEconomic,
		Impact:    model.ImpactHigh,
		Details:   `{"event":"` + name + `"}`,
	}
}

func TestMergeIdempotent(t *testing.T) {
	store := memory.NewStore()
	r := ingest.NewReconciler(store, nil)

	date := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	batch := []model.Event{
		candidate("TSLA", date, "CPI Release"),
		candidate("AAPL", date, "CPI Release"),
	}

	stats := r.Merge(batch)
	if stats.Created != 2 || stats.Updated != 0 || stats.Failed != 0 {
		t.Fatalf("first merge stats = %+v, want 2 created", stats)
	}

	stats = r.Merge(batch)
	if stats.Created != 0 || stats.Updated != 2 || stats.Failed != 0 {
		t.Fatalf("second merge stats = %+v, want 2 updated", stats)
	}

	all, err := store.Events().FetchAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Fatalf("expected exactly 2 stored events after double merge, got %d", len(all))
	}
	for _, e := range all {
		if e.EventName != "CPI Release" {
			t.Errorf("eventName = %s, want CPI Release", e.EventName)
		}
	}
}

func TestMergePreservesOverlays(t *testing.T) {
	store := memory.NewStore()
	r := ingest.NewReconciler(store, nil)

	date := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	r.Merge([]model.Event{candidate("TSLA", date, "CPI Release")})

	stored, err := store.Events().FindByNaturalKey("TSLA", date)
	if err != nil {
		t.Fatal(err)
	}

	// Analyst sets vol by hand.
	vol := 12.5
	if _, err := store.Events().UpdateByID(stored.ID, model.EventUpdate{Vol: &vol}); err != nil {
		t.Fatal(err)
	}

	// Re-ingestion without vol must not erase it.
	r.Merge([]model.Event{candidate("TSLA", date, "CPI Release (revised)")})

	stored, err = store.Events().FindByNaturalKey("TSLA", date)
	if err != nil {
		t.Fatal(err)
	}
	if stored.EventName != "CPI Release (revised)" {
		t.Errorf("eventName = %s, want revised name", stored.EventName)
	}
	if stored.Vol == nil || *stored.Vol != 12.5 {
		t.Fatalf("vol = %v, want preserved 12.5", stored.Vol)
	}

	// A candidate that explicitly carries vol replaces it.
	newVol := 9.0
	c := candidate("TSLA", date, "CPI Release (revised)")
	c.Vol = &newVol
	r.Merge([]model.Event{c})

	stored, err = store.Events().FindByNaturalKey("TSLA", date)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Vol == nil || *stored.Vol != 9.0 {
		t.Fatalf("vol = %v, want 9.0", stored.Vol)
	}
}

func TestMergeConcurrentSameKey(t *testing.T) {
	store := memory.NewStore()
	date := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r := ingest.NewReconciler(store, nil)
			r.Merge([]model.Event{candidate("TSLA", date, "CPI Release")})
		}()
	}
	wg.Wait()

	all, err := store.Events().FetchAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 {
		t.Fatalf("expected exactly 1 row for the natural key after concurrent merges, got %d", len(all))
	}
}

// failingStore fails every upsert for one specific ticker.
type failingStore struct {
	inner      storage.Interface
	failTicker string
}

type failingEventStore struct {
	storage.EventStore
	failTicker string
}

func (s *failingStore) Events() storage.EventStore {
	return &failingEventStore{EventStore: s.inner.Events(), failTicker: s.failTicker}
}

func (s *failingEventStore) Upsert(m *model.Event) (bool, error) {
	if m.Ticker == s.failTicker {
		return false, errors.New("storage unavailable")
	}
	return s.EventStore.Upsert(m)
}

func TestMergeContinuesAfterFailure(t *testing.T) {
	store := &failingStore{inner: memory.NewStore(), failTicker: "BAD"}
	r := ingest.NewReconciler(store, nil)

	date := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	stats := r.Merge([]model.Event{
		candidate("BAD", date, "Doomed"),
		candidate("TSLA", date, "CPI Release"),
	})

	if stats.Failed != 1 {
		t.Errorf("failed = %d, want 1", stats.Failed)
	}
	if stats.Created != 1 {
		t.Errorf("created = %d, want 1 (batch must continue past failures)", stats.Created)
	}
}
