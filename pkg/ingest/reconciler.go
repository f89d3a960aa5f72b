package ingest

import (
	log "github.com/sirupsen/logrus"

	"github.com/finsight/marketcal/pkg/model"
	"github.com/finsight/marketcal/pkg/notify"
	"github.com/finsight/marketcal/pkg/storage"
)

// Reconciler merges normalized event candidates into the store under the
// natural-key uniqueness invariant.
type Reconciler struct {
	store     storage.Interface
	publisher notify.Publisher
}

func NewReconciler(store storage.Interface, publisher notify.Publisher) *Reconciler {
	if publisher == nil {
		publisher = notify.NewNop()
	}
	return &Reconciler{
		store:     store,
		publisher: publisher,
	}
}

// MergeStats counts the outcomes of one batch merge.
type MergeStats struct {
	Created int
	Updated int
	Failed  int
}

// Merge upserts every candidate by its (ticker, eventDate) natural key. A
// storage failure on one candidate is logged and counted; the rest of the
// batch still runs.
func (r *Reconciler) Merge(candidates []model.Event) MergeStats {
	var stats MergeStats

	for i := range candidates {
		e := &candidates[i]

		created, err := r.store.Events().Upsert(e)
		if err != nil {
			stats.Failed++
			log.WithFields(log.Fields{
				"ticker":    e.Ticker,
				"eventDate": e.EventDate,
			}).Error("ingest: failed to merge candidate: ", err)
			continue
		}

		if created {
			stats.Created++
			r.publisher.EventChanged("created", e)
		} else {
			stats.Updated++
			r.publisher.EventChanged("updated", e)
		}
	}

	return stats
}
