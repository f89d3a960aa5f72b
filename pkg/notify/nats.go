package notify

import (
	"encoding/json"
	"time"

	nats "github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"

	"github.com/finsight/marketcal/pkg/model"
)

const (
	subjectRuns        = "marketcal.ingest.v1.runs"
	subjectEventPrefix = "marketcal.ingest.v1.events."
)

type natsPublisher struct {
	nc *nats.Conn
}

// NewNATS wraps a connected NATS client. The connection lifecycle belongs to
// the caller.
func NewNATS(nc *nats.Conn) Publisher {
	return &natsPublisher{nc: nc}
}

func (p *natsPublisher) RunCompleted(s RunSummary) {
	p.publish(subjectRuns, s)
}

type eventNotice struct {
	Action    string    `json:"action"`
	ID        int64     `json:"id"`
	Ticker    string    `json:"ticker"`
	EventDate time.Time `json:"eventDate"`
	EventType string    `json:"eventType"`
	Impact    string    `json:"impact"`
}

func (p *natsPublisher) EventChanged(action string, m *model.Event) {
	p.publish(subjectEventPrefix+action, eventNotice{
		Action:    action,
		ID:        m.ID,
		Ticker:    m.Ticker,
		EventDate: m.EventDate,
		EventType: string(m.EventType),
		Impact:    string(m.Impact),
	})
}

func (p *natsPublisher) publish(subject string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Error("notify: failed to marshal message: ", err)
		return
	}
	if err := p.nc.Publish(subject, data); err != nil {
		log.Error("notify: failed to publish to ", subject, ": ", err)
	}
}
