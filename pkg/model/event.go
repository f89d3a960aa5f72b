package model

import "time"

// EventType names the upstream feed category an event belongs to.
type EventType string

const (
	EventTypeEconomic EventType = "Economic"
	EventTypeDividend EventType = "Dividend"
	EventTypeEarnings EventType = "Earnings"
	EventTypeSplit    EventType = "Split"
	EventTypeMerger   EventType = "M&A"
)

// Impact is the coarse market-impact bucket of an event.
type Impact string

const (
	ImpactHigh    Impact = "High"
	ImpactMedium  Impact = "Medium"
	ImpactLow     Impact = "Low"
	ImpactUnknown Impact = "Unknown"
)

// Event is a model of the persistency layer. The pair (Ticker, EventDate) is
// a natural key: at most one event row exists per pair.
type Event struct {
	ID        int64
	Ticker    string
	EventDate time.Time
	EventName string
	EventType EventType
	Impact    Impact
	Details   string

	// Analyst-entered overlays. They are only written through the manual
	// edit path and must survive re-ingestion of the same natural key.
	CleanImpliedVol *float64
	DirtyVolume     *float64
	TotalImpliedVol *float64
	Vol             *float64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// EventUpdate carries the overlay fields of a manual edit. Nil fields are
// left untouched by the store.
type EventUpdate struct {
	CleanImpliedVol *float64
	DirtyVolume     *float64
	TotalImpliedVol *float64
	Vol             *float64
}

// Empty reports whether the update carries no overlay field at all.
func (u EventUpdate) Empty() bool {
	return u.CleanImpliedVol == nil && u.DirtyVolume == nil &&
		u.TotalImpliedVol == nil && u.Vol == nil
}
