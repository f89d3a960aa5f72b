package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/finsight/marketcal/pkg/model"
)

func newTestClient(handler http.Handler) (*FMPClient, func()) {
	srv := httptest.NewServer(handler)
	c := NewFMPClient(srv.URL, "test-key", 5*time.Second, 4)
	return c, srv.Close
}

func TestFetchInstrumentsFiltersIncomplete(t *testing.T) {
	c, done := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/stock/list" {
			http.NotFound(w, r)
			return
		}
		if r.URL.Query().Get("apikey") != "test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`[
			{"symbol":"TSLA","currency":"usd"},
			{"symbol":"","currency":"USD"},
			{"symbol":"SAP","currency":""},
			{"symbol":"VOD","currency":" gbp "}
		]`))
	}))
	defer done()

	instruments := c.FetchInstruments(context.Background())
	if len(instruments) != 2 {
		t.Fatalf("instruments = %d, want 2", len(instruments))
	}
	if instruments[0].Symbol != "TSLA" || instruments[0].Currency != "USD" {
		t.Errorf("instrument[0] = %+v, want TSLA/USD", instruments[0])
	}
	if instruments[1].Symbol != "VOD" || instruments[1].Currency != "GBP" {
		t.Errorf("instrument[1] = %+v, want VOD/GBP (trimmed, uppercased)", instruments[1])
	}
}

func TestFetchInstrumentsUpstreamError(t *testing.T) {
	c, done := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer done()

	if instruments := c.FetchInstruments(context.Background()); len(instruments) != 0 {
		t.Fatalf("expected empty result on non-2xx, got %d", len(instruments))
	}
}

func TestFetchMacroEventsCountsMalformed(t *testing.T) {
	c, done := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"date":"2025-03-14 12:30:00","event":"CPI Release","currency":"USD","impact":"High"},
			{"date":"14/03/2025","event":"Broken Row","currency":"USD"},
			{"date":"2025-03-15 08:00:00","event":"Retail Sales","country":"EUR","importance":2}
		]`))
	}))
	defer done()

	events, malformed := c.FetchMacroEvents(context.Background())
	if malformed != 1 {
		t.Errorf("malformed = %d, want 1", malformed)
	}
	if len(events) != 2 {
		t.Fatalf("events = %d, want 2", len(events))
	}
	if events[1].Currency != "EUR" {
		t.Errorf("currency fallback to country failed: %s", events[1].Currency)
	}
	if events[1].Importance != "2" {
		t.Errorf("importance = %q, want \"2\"", events[1].Importance)
	}
}

func TestFetchActionsIsolatesFailures(t *testing.T) {
	c, done := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/historical/stock_dividend/TSLA":
			w.Write([]byte(`{"symbol":"TSLA","historical":[{"date":"2025-02-10","dividend":0.25}]}`))
		case "/historical/earnings_calendar/TSLA":
			// Earnings feed is down; must not affect siblings.
			w.WriteHeader(http.StatusInternalServerError)
		case "/stock_split_calendar/TSLA":
			w.Write([]byte(`[]`))
		case "/merger_acquisition":
			w.Write([]byte(`[
				{"symbol":"TSLA","transactionDate":"2025-04-01","title":"TSLA acquires XYZ"},
				{"symbol":"AAPL","transactionDate":"2025-04-02","title":"AAPL acquires ABC"}
			]`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer done()

	set := c.FetchActions(context.Background(), model.Instrument{Symbol: "TSLA", Currency: "USD"})

	if len(set.Dividends) != 1 {
		t.Errorf("dividends = %d, want 1", len(set.Dividends))
	}
	if set.Dividends[0].Symbol != "TSLA" {
		t.Errorf("dividend symbol = %s, want TSLA (filled from request)", set.Dividends[0].Symbol)
	}
	if len(set.Earnings) != 0 {
		t.Errorf("earnings = %d, want 0 (failed feed degrades to empty)", len(set.Earnings))
	}
	if len(set.Mergers) != 1 || set.Mergers[0].Symbol != "TSLA" {
		t.Errorf("mergers = %+v, want only the TSLA record", set.Mergers)
	}
}

func TestFetchAllActionsFansOut(t *testing.T) {
	var mergerCalls int64
	c, done := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/merger_acquisition" {
			atomic.AddInt64(&mergerCalls, 1)
		}
		w.Write([]byte(`[]`))
	}))
	defer done()

	instruments := []model.Instrument{
		{Symbol: "TSLA", Currency: "USD"},
		{Symbol: "AAPL", Currency: "USD"},
		{Symbol: "NVDA", Currency: "USD"},
	}
	out := c.FetchAllActions(context.Background(), instruments)

	if len(out) != 3 {
		t.Fatalf("expected action sets for 3 instruments, got %d", len(out))
	}
	if n := atomic.LoadInt64(&mergerCalls); n != 1 {
		t.Errorf("merger feed fetched %d times, want once per batch", n)
	}
}
