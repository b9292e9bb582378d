package index

import (
	"context"
	"errors"
	"fmt"

	"github.com/meghashyamc/notefind/db/docstore"
	"github.com/meghashyamc/notefind/errs"
	"github.com/meghashyamc/notefind/logger"
)

const repairBatchSize = 100

// SearchIndex is the part of the full-text index that repair rewrites.
type SearchIndex interface {
	IDs() ([]docstore.ID, error)
	BuildIndex(documents []docstore.Document) error
	DeleteDocuments(ids []docstore.ID) error
}

type DocumentStore interface {
	IDs() ([]docstore.ID, error)
	Get(id docstore.ID) (docstore.Document, error)
}

type RepairReport struct {
	Pruned     []docstore.ID `json:"pruned"`
	Backfilled []docstore.ID `json:"backfilled"`
	Reindexed  int           `json:"reindexed"`
}

// Consistent reports whether the repair found nothing to fix.
func (r RepairReport) Consistent() bool {
	return len(r.Pruned) == 0 && len(r.Backfilled) == 0
}

type Phase string

const (
	PhaseCompared Phase = "compared"
	PhasePruned   Phase = "pruned"
	PhaseIndexed  Phase = "indexed"
)

type Progress struct {
	Phase Phase
	Done  int
	Total int
}

type repairOptions struct {
	fullReindex bool
	progress    func(Progress)
}

type RepairOption func(*repairOptions)

// WithFullReindex rewrites the entry of every live document, which also
// refreshes entries left stale by a failed update.
func WithFullReindex() RepairOption {
	return func(o *repairOptions) { o.fullReindex = true }
}

func WithProgress(fn func(Progress)) RepairOption {
	return func(o *repairOptions) { o.progress = fn }
}

type Repairer struct {
	logger logger.Logger
	store  DocumentStore
	index  SearchIndex
}

func NewRepairer(logger logger.Logger, store DocumentStore, index SearchIndex) *Repairer {
	return &Repairer{logger: logger, store: store, index: index}
}

// Repair makes the index ids equal the live store ids: entries without a
// document are pruned and documents without an entry are indexed. Running it
// on a consistent pair changes nothing.
func (r *Repairer) Repair(ctx context.Context, opts ...RepairOption) (RepairReport, error) {
	options := repairOptions{progress: func(Progress) {}}
	for _, opt := range opts {
		opt(&options)
	}

	var report RepairReport

	storeIDs, err := r.store.IDs()
	if err != nil {
		r.logger.Error("failed to list store ids", "err", err.Error())
		return report, fmt.Errorf("failed to list store ids: %w", err)
	}
	indexIDs, err := r.index.IDs()
	if err != nil {
		r.logger.Error("failed to list index ids", "err", err.Error())
		return report, fmt.Errorf("failed to list index ids: %w", err)
	}

	orphans, err := r.confirmOrphans(difference(indexIDs, storeIDs))
	if err != nil {
		return report, err
	}
	missing := difference(storeIDs, indexIDs)
	toIndex := missing
	if options.fullReindex {
		toIndex = storeIDs
	}
	options.progress(Progress{Phase: PhaseCompared, Total: len(toIndex)})

	if err := ctx.Err(); err != nil {
		return report, errs.Cancelled("repair", err)
	}

	if len(orphans) > 0 {
		r.logger.Info("pruning orphan index entries", "count", len(orphans))
		if err := r.index.DeleteDocuments(orphans); err != nil {
			r.logger.Error("failed to prune orphan index entries", "err", err.Error())
			return report, fmt.Errorf("failed to prune orphan index entries: %w", err)
		}
		report.Pruned = orphans
	}
	options.progress(Progress{Phase: PhasePruned, Total: len(toIndex)})

	isMissing := make(map[docstore.ID]struct{}, len(missing))
	for _, id := range missing {
		isMissing[id] = struct{}{}
	}

	for start := 0; start < len(toIndex); start += repairBatchSize {
		if err := ctx.Err(); err != nil {
			return report, errs.Cancelled("repair", err)
		}

		batch := toIndex[start:min(start+repairBatchSize, len(toIndex))]
		documents, err := r.loadDocuments(batch)
		if err != nil {
			return report, err
		}

		if err := r.index.BuildIndex(documents); err != nil {
			r.logger.Error("failed to backfill index", "err", err.Error())
			return report, fmt.Errorf("failed to backfill index: %w", err)
		}

		for _, doc := range documents {
			if _, ok := isMissing[doc.ID]; ok {
				report.Backfilled = append(report.Backfilled, doc.ID)
			}
		}
		report.Reindexed += len(documents)
		options.progress(Progress{Phase: PhaseIndexed, Done: start + len(batch), Total: len(toIndex)})
	}

	r.logger.Info("index repair finished", "pruned", len(report.Pruned), "backfilled", len(report.Backfilled), "reindexed", report.Reindexed)
	return report, nil
}

// confirmOrphans drops the ids that have a document again. A document created
// after the store ids were listed shows up in the index listing alone.
func (r *Repairer) confirmOrphans(ids []docstore.ID) ([]docstore.ID, error) {
	var orphans []docstore.ID
	for _, id := range ids {
		_, err := r.store.Get(id)
		if errors.Is(err, errs.ErrNotFound) {
			orphans = append(orphans, id)
			continue
		}
		if err != nil {
			r.logger.Error("failed to check orphan index entry", "id", id, "err", err.Error())
			return nil, fmt.Errorf("failed to check orphan index entry %d: %w", id, err)
		}
		r.logger.Info("index entry has a live document, keeping it", "id", id)
	}
	return orphans, nil
}

// loadDocuments skips ids deleted since they were listed.
func (r *Repairer) loadDocuments(ids []docstore.ID) ([]docstore.Document, error) {
	documents := make([]docstore.Document, 0, len(ids))
	for _, id := range ids {
		doc, err := r.store.Get(id)
		if errors.Is(err, errs.ErrNotFound) {
			continue
		}
		if err != nil {
			r.logger.Error("failed to load document for repair", "id", id, "err", err.Error())
			return nil, fmt.Errorf("failed to load document %d: %w", id, err)
		}
		documents = append(documents, doc)
	}
	return documents, nil
}

// difference returns the ids of a that are not in b, in the order of a.
func difference(a []docstore.ID, b []docstore.ID) []docstore.ID {
	present := make(map[docstore.ID]struct{}, len(b))
	for _, id := range b {
		present[id] = struct{}{}
	}

	var out []docstore.ID
	for _, id := range a {
		if _, ok := present[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}
