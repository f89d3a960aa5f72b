package ingest

import (
	"encoding/json"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/finsight/marketcal/pkg/model"
)

// dateLayouts are the timestamp formats accepted from the upstream feeds.
var dateLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02",
	"01-02-2006",
}

func parseEventDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// NormalizeBatch maps the raw feeds of one instrument into canonical event
// candidates. It is pure apart from debug logging: records with unparseable
// dates or missing required labels are dropped, never persisted with
// placeholder values.
func NormalizeBatch(inst model.Instrument, macro []model.RawMacroEvent, actions model.ActionSet) []model.Event {
	events := make([]model.Event, 0)

	for _, raw := range macro {
		if raw.Currency != inst.Currency {
			continue
		}
		if e, ok := normalizeMacro(inst, raw); ok {
			events = append(events, e)
		}
	}

	for _, raw := range actions.Dividends {
		if e, ok := normalizeDividend(inst, raw); ok {
			events = append(events, e)
		}
	}
	for _, raw := range actions.Earnings {
		if e, ok := normalizeEarnings(inst, raw); ok {
			events = append(events, e)
		}
	}
	for _, raw := range actions.Splits {
		if e, ok := normalizeSplit(inst, raw); ok {
			events = append(events, e)
		}
	}
	for _, raw := range actions.Mergers {
		if e, ok := normalizeMerger(inst, raw); ok {
			events = append(events, e)
		}
	}

	return events
}

func normalizeMacro(inst model.Instrument, raw model.RawMacroEvent) (model.Event, bool) {
	date, ok := parseEventDate(raw.Date)
	if !ok {
		dropRecord(inst.Symbol, "economic", raw.Date)
		return model.Event{}, false
	}

	name := raw.Name
	if name == "" {
		name = "Unnamed Event"
	}

	// A source-supplied impact label is stored verbatim; the classifier
	// only runs when the label is absent.
	impact := model.Impact(raw.Impact)
	if raw.Impact == "" {
		impact = classifySignal(raw.Importance)
	}

	return model.Event{
		Ticker:    inst.Symbol,
		EventDate: date,
		EventName: name,
		EventType: model.EventTypeEconomic,
		Impact:    impact,
		Details: marshalDetails(map[string]string{
			"currency": inst.Currency,
			"event":    name,
		}),
	}, true
}

func normalizeDividend(inst model.Instrument, raw model.RawDividend) (model.Event, bool) {
	date, ok := parseEventDate(raw.Date)
	if !ok {
		dropRecord(inst.Symbol, "dividend", raw.Date)
		return model.Event{}, false
	}

	return model.Event{
		Ticker:    inst.Symbol,
		EventDate: date,
		EventName: "Dividend Payment: " + formatAmount(raw.Dividend),
		EventType: model.EventTypeDividend,
		Impact:    Classify(raw.Dividend),
		Details:   marshalDetails(raw),
	}, true
}

func normalizeEarnings(inst model.Instrument, raw model.RawEarnings) (model.Event, bool) {
	date, ok := parseEventDate(raw.Date)
	if !ok {
		dropRecord(inst.Symbol, "earnings", raw.Date)
		return model.Event{}, false
	}

	return model.Event{
		Ticker:    inst.Symbol,
		EventDate: date,
		EventName: "Earnings Report",
		EventType: model.EventTypeEarnings,
		Impact:    Classify(raw.EPS - raw.EPSEstimated),
		Details: marshalDetails(map[string]float64{
			"eps":              raw.EPS,
			"epsEstimated":     raw.EPSEstimated,
			"revenue":          raw.Revenue,
			"revenueEstimated": raw.RevenueEstimated,
		}),
	}, true
}

func normalizeSplit(inst model.Instrument, raw model.RawSplit) (model.Event, bool) {
	date, ok := parseEventDate(raw.Date)
	if !ok {
		dropRecord(inst.Symbol, "split", raw.Date)
		return model.Event{}, false
	}

	return model.Event{
		Ticker:    inst.Symbol,
		EventDate: date,
		EventName: "Stock Split " + formatAmount(raw.Numerator) + ":" + formatAmount(raw.Denominator),
		EventType: model.EventTypeSplit,
		Impact:    Classify(raw.Numerator / raw.Denominator),
		Details:   marshalDetails(raw),
	}, true
}

func normalizeMerger(inst model.Instrument, raw model.RawMerger) (model.Event, bool) {
	date, ok := parseEventDate(raw.Date)
	if !ok {
		dropRecord(inst.Symbol, "merger", raw.Date)
		return model.Event{}, false
	}
	if raw.Title == "" {
		log.WithFields(log.Fields{
			"ticker": inst.Symbol,
			"feed":   "merger",
		}).Debug("ingest: dropped record with empty title")
		return model.Event{}, false
	}

	return model.Event{
		Ticker:    inst.Symbol,
		EventDate: date,
		EventName: raw.Title,
		EventType: model.EventTypeMerger,
		// Deal announcements move prices regardless of size.
		Impact:  model.ImpactHigh,
		Details: marshalDetails(raw),
	}, true
}

func dropRecord(symbol, feed, date string) {
	log.WithFields(log.Fields{
		"ticker": symbol,
		"feed":   feed,
		"date":   date,
	}).Debug("ingest: dropped record with unparseable date")
}

func formatAmount(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func marshalDetails(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(data)
}
