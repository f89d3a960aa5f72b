package resource

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/finsight/marketcal/pkg/model"
)

type EventResource struct {
	ID              int64       `json:"id"`
	Ticker          string      `json:"ticker"`
	EventDate       time.Time   `json:"eventDate"`
	EventName       string      `json:"eventName"`
	EventType       string      `json:"eventType"`
	Impact          string      `json:"impact"`
	Details         interface{} `json:"details,omitempty"`
	CleanImpliedVol *float64    `json:"cleanImpliedVol,omitempty"`
	DirtyVolume     *float64    `json:"dirtyVolume,omitempty"`
	TotalImpliedVol *float64    `json:"totalImpliedVol,omitempty"`
	Vol             *float64    `json:"vol,omitempty"`
	CreatedAt       *time.Time  `json:"createdAt,omitempty"`
	UpdatedAt       *time.Time  `json:"updatedAt,omitempty"`
}

type EventListResource struct {
	Events []*EventResource `json:"events"`
}

func NewEvent(m *model.Event) (out *EventResource) {
	out = &EventResource{
		ID:              m.ID,
		Ticker:          m.Ticker,
		EventDate:       m.EventDate,
		EventName:       m.EventName,
		EventType:       string(m.EventType),
		Impact:          string(m.Impact),
		CleanImpliedVol: m.CleanImpliedVol,
		DirtyVolume:     m.DirtyVolume,
		TotalImpliedVol: m.TotalImpliedVol,
		Vol:             m.Vol,
	}

	var details interface{}
	if err := json.Unmarshal([]byte(m.Details), &details); err == nil {
		out.Details = details
	}

	if !m.CreatedAt.IsZero() {
		out.CreatedAt = &time.Time{}
		*out.CreatedAt = m.CreatedAt.Round(time.Second)
	}
	if !m.UpdatedAt.IsZero() {
		out.UpdatedAt = &time.Time{}
		*out.UpdatedAt = m.UpdatedAt.Round(time.Second)
	}

	return // out
}

func NewEventList(m []model.Event) (out *EventListResource) {
	out = &EventListResource{
		Events: make([]*EventResource, 0, len(m)),
	}

	for i := range m {
		out.Events = append(out.Events, NewEvent(&m[i]))
	}

	// Default sort by ID
	sort.Slice(out.Events, func(i, j int) bool {
		return out.Events[i].ID < out.Events[j].ID
	})

	return // out
}

// UpdateEventResource is the manual overlay edit payload. Clients may send a
// whole event object; only the four overlay fields are honored.
type UpdateEventResource struct {
	CleanImpliedVol *float64 `json:"cleanImpliedVol"`
	DirtyVolume     *float64 `json:"dirtyVolume"`
	TotalImpliedVol *float64 `json:"totalImpliedVol"`
	Vol             *float64 `json:"vol"`
}

// Update maps the resource onto the storage update type.
func (r *UpdateEventResource) Update() model.EventUpdate {
	return model.EventUpdate{
		CleanImpliedVol: r.CleanImpliedVol,
		DirtyVolume:     r.DirtyVolume,
		TotalImpliedVol: r.TotalImpliedVol,
		Vol:             r.Vol,
	}
}
