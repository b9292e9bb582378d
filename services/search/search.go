package search

import (
	"context"

	"github.com/meghashyamc/notefind/db/docstore"
	"github.com/meghashyamc/notefind/errs"
	"github.com/meghashyamc/notefind/logger"
	"github.com/meghashyamc/notefind/metrics"
)

// Store is the document store a search reads from.
type Store interface {
	List(predicate docstore.Predicate) ([]docstore.Document, error)
	SaveSearch(query string) error
	RecentSearches(limit int) ([]docstore.HistoryEntry, error)
}

type Service struct {
	logger  logger.Logger
	store   Store
	planner *Planner
}

func New(logger logger.Logger, store Store, index FullTextIndex) *Service {
	return &Service{
		logger:  logger,
		store:   store,
		planner: NewPlanner(index),
	}
}

// Search returns the documents matching query and filter, most recently
// updated first, ties by id descending.
func (s *Service) Search(ctx context.Context, query string, filter Filter) ([]docstore.Document, error) {
	predicate, err := s.planner.Plan(query, filter)
	if err != nil {
		s.logger.Debug("search rejected", "query", query, "err", err.Error())
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, errs.Cancelled("search", err)
	}

	documents, err := s.store.List(predicate)
	if err != nil {
		s.logger.Error("failed to list documents for search", "err", err.Error())
		return nil, err
	}
	metrics.SearchesTotal.WithLabelValues(filter.TextMatch().String()).Inc()

	if err := s.store.SaveSearch(query); err != nil {
		s.logger.Warn("search succeeded but was not recorded in history", "err", err.Error())
	}

	return documents, nil
}

// History returns the most recent searches, newest first.
func (s *Service) History(limit int) ([]docstore.HistoryEntry, error) {
	return s.store.RecentSearches(limit)
}
