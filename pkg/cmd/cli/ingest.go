package cli

import (
	"context"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	nats "github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/finsight/marketcal/config"
	"github.com/finsight/marketcal/pkg/ingest"
	"github.com/finsight/marketcal/pkg/notify"
	"github.com/finsight/marketcal/pkg/source"
	"github.com/finsight/marketcal/pkg/storage/postgres"
)

// IngestHandler runs a one-shot reconciliation cycle, full universe or a
// single ticker. It is the command behind periodic cron invocations.
type IngestHandler struct {
	c *config.Config

	// Ticker is bound to the --ticker flag.
	Ticker string
}

func newIngestHandler(c *config.Config) *IngestHandler {
	return &IngestHandler{c: c}
}

func (h *IngestHandler) Run(cmd *cobra.Command, args []string) {
	db, err := sqlx.Open("postgres", h.c.DatabaseURL)
	if err != nil {
		log.Error("failed to open database: ", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Error("failed to connect to database: ", err)
		os.Exit(1)
	}

	store := postgres.NewStore(db)

	publisher := notify.NewNop()
	if h.c.NATSServerURL != "" {
		nc, err := nats.Connect(h.c.NATSServerURL)
		if err != nil {
			log.Warn("failed to connect to NATS, notifications disabled: ", err)
		} else {
			defer nc.Drain()
			publisher = notify.NewNATS(nc)
		}
	}

	fmp := source.NewFMPClient(h.c.FMPBaseURL, h.c.FMPAPIKey,
		time.Duration(h.c.FetchTimeoutSeconds)*time.Second, h.c.FetchConcurrency)

	var macro source.MacroCalendar = fmp
	if h.c.CalendarCSVPath != "" {
		macro = source.NewCalendarFile(h.c.CalendarCSVPath)
	}

	svc := ingest.NewService(fmp, macro, fmp, store, publisher)

	ctx := context.Background()
	if h.Ticker != "" {
		svc.RunTicker(ctx, h.Ticker)
		return
	}
	svc.RunFull(ctx)
}
