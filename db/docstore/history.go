package docstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/meghashyamc/notefind/db/kvdb"
)

const DefaultHistoryLimit = 10

var errHistoryLimitReached = errors.New("history limit reached")

// SaveSearch records a non-blank query in the search history.
func (s *BoltStore) SaveSearch(query string) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	seq, err := s.db.NextSequence(kvdb.HistoryBucket)
	if err != nil {
		return fmt.Errorf("failed to allocate history entry: %w", err)
	}

	data, err := json.Marshal(HistoryEntry{Query: query, SearchedAt: s.now().UTC()})
	if err != nil {
		return fmt.Errorf("failed to marshal history entry: %w", err)
	}

	if err := s.db.Set(kvdb.HistoryBucket, fmt.Sprintf("%020d", seq), string(data)); err != nil {
		s.logger.Error("failed to save search history", "err", err.Error())
		return fmt.Errorf("failed to save search history: %w", err)
	}

	return nil
}

// RecentSearches returns up to limit history entries, newest first. A limit
// below one means DefaultHistoryLimit.
func (s *BoltStore) RecentSearches(limit int) ([]HistoryEntry, error) {
	if limit < 1 {
		limit = DefaultHistoryLimit
	}

	entries := make([]HistoryEntry, 0, limit)
	err := s.db.ForEachReverse(kvdb.HistoryBucket, func(_ string, value string) error {
		var entry HistoryEntry
		if err := json.Unmarshal([]byte(value), &entry); err != nil {
			return fmt.Errorf("failed to unmarshal history entry: %w", err)
		}
		entries = append(entries, entry)
		if len(entries) >= limit {
			return errHistoryLimitReached
		}
		return nil
	})
	if err != nil && !errors.Is(err, errHistoryLimitReached) {
		return nil, err
	}

	return entries, nil
}
