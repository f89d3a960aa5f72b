package ingest

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/finsight/marketcal/pkg/model"
	"github.com/finsight/marketcal/pkg/notify"
	"github.com/finsight/marketcal/pkg/source"
	"github.com/finsight/marketcal/pkg/storage"
)

// Service runs reconciliation cycles: fetch the upstream feeds, normalize
// them and merge the candidates into the store.
type Service struct {
	directory  source.Directory
	macro      source.MacroCalendar
	actions    source.CorporateActions
	reconciler *Reconciler
	publisher  notify.Publisher
}

func NewService(directory source.Directory, macro source.MacroCalendar,
	actions source.CorporateActions, store storage.Interface,
	publisher notify.Publisher) *Service {

	if publisher == nil {
		publisher = notify.NewNop()
	}
	return &Service{
		directory:  directory,
		macro:      macro,
		actions:    actions,
		reconciler: NewReconciler(store, publisher),
		publisher:  publisher,
	}
}

// RunFull runs one reconciliation cycle over the whole instrument universe.
// An empty universe or an empty candidate batch short-circuits the run with
// a warning; it is not an error.
func (s *Service) RunFull(ctx context.Context) notify.RunSummary {
	started := time.Now()
	summary := notify.RunSummary{Scope: "full", StartedAt: started.UTC()}

	instruments := s.directory.FetchInstruments(ctx)
	if len(instruments) == 0 {
		log.Warn("ingest: no instruments fetched, skipping run")
		summary.Duration = time.Since(started)
		return summary
	}
	summary.Instruments = len(instruments)

	var (
		wg        sync.WaitGroup
		macro     []model.RawMacroEvent
		malformed int
		actions   map[string]model.ActionSet
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		macro, malformed = s.macro.FetchMacroEvents(ctx)
	}()
	go func() {
		defer wg.Done()
		actions = s.actions.FetchAllActions(ctx, instruments)
	}()
	wg.Wait()
	summary.MalformedRows = malformed

	candidates := make([]model.Event, 0)
	for _, inst := range instruments {
		candidates = append(candidates, NormalizeBatch(inst, macro, actions[inst.Symbol])...)
	}
	summary.Candidates = len(candidates)

	if len(candidates) == 0 {
		log.Warn("ingest: no candidate events after normalization")
		summary.Duration = time.Since(started)
		s.publisher.RunCompleted(summary)
		return summary
	}

	stats := s.reconciler.Merge(candidates)
	summary.Created = stats.Created
	summary.Updated = stats.Updated
	summary.Failed = stats.Failed
	summary.Duration = time.Since(started)

	log.WithFields(log.Fields{
		"instruments": summary.Instruments,
		"candidates":  summary.Candidates,
		"created":     summary.Created,
		"updated":     summary.Updated,
		"failed":      summary.Failed,
		"malformed":   summary.MalformedRows,
		"duration":    summary.Duration.String(),
	}).Info("ingest: run completed")

	s.publisher.RunCompleted(summary)
	return summary
}

// RunTicker runs an on-demand cycle scoped to a single ticker. It is used by
// the read path to lazily populate a never-before-seen ticker.
func (s *Service) RunTicker(ctx context.Context, ticker string) notify.RunSummary {
	started := time.Now()
	summary := notify.RunSummary{Scope: ticker, StartedAt: started.UTC()}

	inst, ok := s.lookupInstrument(ctx, ticker)
	if !ok {
		// Unknown to the directory: corporate actions can still be
		// fetched by symbol, macro matching just finds nothing.
		log.WithField("ticker", ticker).Warn("ingest: ticker not in instrument directory")
		inst = model.Instrument{Symbol: ticker}
	}
	summary.Instruments = 1

	var (
		wg        sync.WaitGroup
		macro     []model.RawMacroEvent
		malformed int
		actions   model.ActionSet
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		macro, malformed = s.macro.FetchMacroEvents(ctx)
	}()
	go func() {
		defer wg.Done()
		actions = s.actions.FetchActions(ctx, inst)
	}()
	wg.Wait()
	summary.MalformedRows = malformed

	candidates := NormalizeBatch(inst, macro, actions)
	summary.Candidates = len(candidates)

	stats := s.reconciler.Merge(candidates)
	summary.Created = stats.Created
	summary.Updated = stats.Updated
	summary.Failed = stats.Failed
	summary.Duration = time.Since(started)

	log.WithFields(log.Fields{
		"ticker":     ticker,
		"candidates": summary.Candidates,
		"created":    summary.Created,
		"updated":    summary.Updated,
		"failed":     summary.Failed,
	}).Info("ingest: on-demand run completed")

	s.publisher.RunCompleted(summary)
	return summary
}

func (s *Service) lookupInstrument(ctx context.Context, ticker string) (model.Instrument, bool) {
	for _, inst := range s.directory.FetchInstruments(ctx) {
		if inst.Symbol == ticker {
			return inst, true
		}
	}
	return model.Instrument{}, false
}
