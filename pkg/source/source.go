// Package source holds the upstream feed adapters. Adapters isolate
// transient network and parse failures: they log and return empty results
// instead of propagating errors, so one failing feed never aborts a
// reconciliation run.
package source

import (
	"context"

	"github.com/finsight/marketcal/pkg/model"
)

// Directory looks up the instrument universe (symbol and quote currency).
type Directory interface {
	// FetchInstruments returns the known instruments, or an empty slice
	// when the upstream call fails. Callers treat empty as "try later".
	FetchInstruments(ctx context.Context) []model.Instrument
}

// MacroCalendar fetches the macro-economic event calendar. Two
// interchangeable strategies exist: the live API and a local CSV extract.
type MacroCalendar interface {
	// FetchMacroEvents returns the calendar rows together with the number
	// of rows that were skipped because their date did not match the
	// source's expected format.
	FetchMacroEvents(ctx context.Context) (events []model.RawMacroEvent, malformed int)
}

// CorporateActions fetches the per-instrument corporate action feeds.
type CorporateActions interface {
	// FetchActions issues the four sub-fetches for one instrument
	// concurrently. Each feed independently degrades to empty on failure.
	FetchActions(ctx context.Context, inst model.Instrument) model.ActionSet

	// FetchAllActions fans out over all instruments, bounded by the
	// configured concurrency cap. The merger feed is global and fetched
	// once for the whole batch.
	FetchAllActions(ctx context.Context, instruments []model.Instrument) map[string]model.ActionSet
}
