package ingest

import (
	"testing"
	"time"

	"github.com/finsight/marketcal/pkg/model"
)

func TestNormalizeMacroEvent(t *testing.T) {
	inst := model.Instrument{Symbol: "TSLA", Currency: "USD"}
	macro := []model.RawMacroEvent{
		{Currency: "USD", Date: "2025-03-14", Name: "CPI Release", Impact: "High"},
	}

	events := NormalizeBatch(inst, macro, model.ActionSet{})
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}

	e := events[0]
	if e.Ticker != "TSLA" {
		t.Errorf("ticker = %s, want TSLA", e.Ticker)
	}
	want := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	if !e.EventDate.Equal(want) {
		t.Errorf("eventDate = %s, want %s", e.EventDate, want)
	}
	if e.EventName != "CPI Release" {
		t.Errorf("eventName = %s, want CPI Release", e.EventName)
	}
	if e.EventType != model.EventTypeEconomic {
		t.Errorf("eventType = %s, want Economic", e.EventType)
	}
	if e.Impact != model.ImpactHigh {
		t.Errorf("impact = %s, want High", e.Impact)
	}
}

func TestNormalizeMacroCurrencyFilter(t *testing.T) {
	inst := model.Instrument{Symbol: "TSLA", Currency: "USD"}
	macro := []model.RawMacroEvent{
		{Currency: "EUR", Date: "2025-03-14", Name: "ECB Rate Decision", Impact: "High"},
	}

	events := NormalizeBatch(inst, macro, model.ActionSet{})
	if len(events) != 0 {
		t.Fatalf("expected 0 events for non-matching currency, got %d", len(events))
	}
}

func TestNormalizeMacroDefaults(t *testing.T) {
	inst := model.Instrument{Symbol: "TSLA", Currency: "USD"}
	macro := []model.RawMacroEvent{
		{Currency: "USD", Date: "2025-03-14", Importance: "0.7"},
	}

	events := NormalizeBatch(inst, macro, model.ActionSet{})
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].EventName != "Unnamed Event" {
		t.Errorf("eventName = %s, want Unnamed Event", events[0].EventName)
	}
	if events[0].Impact != model.ImpactMedium {
		t.Errorf("impact = %s, want Medium", events[0].Impact)
	}
}

func TestNormalizeDropsUnparseableDates(t *testing.T) {
	inst := model.Instrument{Symbol: "TSLA", Currency: "USD"}
	macro := []model.RawMacroEvent{
		{Currency: "USD", Date: "not-a-date", Name: "CPI Release"},
	}
	actions := model.ActionSet{
		Dividends: []model.RawDividend{{Symbol: "TSLA", Date: "bogus", Dividend: 0.5}},
	}

	events := NormalizeBatch(inst, macro, actions)
	if len(events) != 0 {
		t.Fatalf("expected all invalid records dropped, got %d events", len(events))
	}
}

func TestNormalizeDividend(t *testing.T) {
	inst := model.Instrument{Symbol: "AAPL", Currency: "USD"}
	actions := model.ActionSet{
		Dividends: []model.RawDividend{{Symbol: "AAPL", Date: "2025-02-10", Dividend: 0.25}},
	}

	events := NormalizeBatch(inst, nil, actions)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].EventName != "Dividend Payment: 0.25" {
		t.Errorf("eventName = %s, want Dividend Payment: 0.25", events[0].EventName)
	}
	if events[0].EventType != model.EventTypeDividend {
		t.Errorf("eventType = %s, want Dividend", events[0].EventType)
	}
	if events[0].Impact != model.ImpactLow {
		t.Errorf("impact = %s, want Low", events[0].Impact)
	}
}

func TestNormalizeEarnings(t *testing.T) {
	inst := model.Instrument{Symbol: "AAPL", Currency: "USD"}
	actions := model.ActionSet{
		Earnings: []model.RawEarnings{{
			Symbol: "AAPL", Date: "2025-01-30",
			EPS: 2.4, EPSEstimated: 1.1,
		}},
	}

	events := NormalizeBatch(inst, nil, actions)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].EventName != "Earnings Report" {
		t.Errorf("eventName = %s, want Earnings Report", events[0].EventName)
	}
	// 2.4 - 1.1 exceeds the High threshold
	if events[0].Impact != model.ImpactHigh {
		t.Errorf("impact = %s, want High", events[0].Impact)
	}
}

func TestNormalizeSplit(t *testing.T) {
	inst := model.Instrument{Symbol: "NVDA", Currency: "USD"}
	actions := model.ActionSet{
		Splits: []model.RawSplit{{Symbol: "NVDA", Date: "2025-06-01", Numerator: 4, Denominator: 1}},
	}

	events := NormalizeBatch(inst, nil, actions)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].EventName != "Stock Split 4:1" {
		t.Errorf("eventName = %s, want Stock Split 4:1", events[0].EventName)
	}
	if events[0].Impact != model.ImpactHigh {
		t.Errorf("impact = %s, want High", events[0].Impact)
	}
}

func TestNormalizeMerger(t *testing.T) {
	inst := model.Instrument{Symbol: "XYZ", Currency: "USD"}
	actions := model.ActionSet{
		Mergers: []model.RawMerger{
			{Symbol: "XYZ", Date: "2025-04-01", Title: "XYZ acquires ABC"},
			{Symbol: "XYZ", Date: "2025-04-02"}, // missing title, dropped
		},
	}

	events := NormalizeBatch(inst, nil, actions)
	if len(events) != 1 {
		t.Fatalf("expected 1 event (empty-title merger dropped), got %d", len(events))
	}
	if events[0].EventName != "XYZ acquires ABC" {
		t.Errorf("eventName = %s, want XYZ acquires ABC", events[0].EventName)
	}
	if events[0].Impact != model.ImpactHigh {
		t.Errorf("merger impact = %s, want unconditional High", events[0].Impact)
	}
}
