// Package notify publishes reconciliation results so dashboard processes can
// refresh without polling the database.
package notify

import (
	"time"

	"github.com/finsight/marketcal/pkg/model"
)

// RunSummary describes one completed reconciliation run.
type RunSummary struct {
	Scope         string        `json:"scope"`
	Instruments   int           `json:"instruments"`
	Candidates    int           `json:"candidates"`
	Created       int           `json:"created"`
	Updated       int           `json:"updated"`
	Failed        int           `json:"failed"`
	MalformedRows int           `json:"malformedRows"`
	StartedAt     time.Time     `json:"startedAt"`
	Duration      time.Duration `json:"duration"`
}

// Publisher is notified about reconciliation outcomes. Implementations must
// never fail the ingestion path; publish errors are logged and swallowed.
type Publisher interface {
	RunCompleted(s RunSummary)
	EventChanged(action string, m *model.Event)
}

type nopPublisher struct{}

// NewNop returns a publisher that discards everything. Used when no broker
// is configured.
func NewNop() Publisher {
	return nopPublisher{}
}

func (nopPublisher) RunCompleted(RunSummary)           {}
func (nopPublisher) EventChanged(string, *model.Event) {}
