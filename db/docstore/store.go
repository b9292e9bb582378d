package docstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/meghashyamc/notefind/db/kvdb"
	"github.com/meghashyamc/notefind/errs"
	"github.com/meghashyamc/notefind/logger"
	"github.com/meghashyamc/notefind/textproc"
)

var ErrEmptyTitle = errors.New("title cannot be empty")

// Indexer is the full-text index the store keeps in step with its commits.
type Indexer interface {
	Index(doc Document) error
	Remove(id ID) error
}

type BoltStore struct {
	db      kvdb.DB
	logger  logger.Logger
	indexer Indexer
	now     func() time.Time

	onInconsistency func(op string)
}

type Option func(*BoltStore)

// WithIndexer makes every create, update and delete call the index before
// returning. Without it the store is unindexed.
func WithIndexer(indexer Indexer) Option {
	return func(s *BoltStore) { s.indexer = indexer }
}

func WithClock(now func() time.Time) Option {
	return func(s *BoltStore) { s.now = now }
}

// WithInconsistencyObserver registers a callback run once per write whose
// index update failed.
func WithInconsistencyObserver(fn func(op string)) Option {
	return func(s *BoltStore) { s.onInconsistency = fn }
}

func New(logger logger.Logger, db kvdb.DB, opts ...Option) *BoltStore {
	store := &BoltStore{
		db:     db,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

func (s *BoltStore) Create(draft Draft) (Commit, error) {
	if strings.TrimSpace(draft.Title) == "" {
		return Commit{}, ErrEmptyTitle
	}

	seq, err := s.db.NextSequence(kvdb.DocumentsBucket)
	if err != nil {
		s.logger.Error("failed to allocate document id", "err", err.Error())
		return Commit{}, fmt.Errorf("failed to allocate document id: %w", err)
	}

	now := s.now().UTC()
	doc := Document{
		ID:        ID(seq),
		CreatedAt: now,
		UpdatedAt: now,
	}
	applyDraft(&doc, draft)

	if err := s.put(doc); err != nil {
		return Commit{}, err
	}

	return Commit{Document: doc, Warning: s.syncIndexed("create", doc)}, nil
}

func (s *BoltStore) Update(id ID, draft Draft) (Commit, error) {
	if strings.TrimSpace(draft.Title) == "" {
		return Commit{}, ErrEmptyTitle
	}

	doc, err := s.Get(id)
	if err != nil {
		return Commit{}, err
	}

	doc.UpdatedAt = s.now().UTC()
	applyDraft(&doc, draft)

	if err := s.put(doc); err != nil {
		return Commit{}, err
	}

	return Commit{Document: doc, Warning: s.syncIndexed("update", doc)}, nil
}

func (s *BoltStore) Delete(id ID) (Commit, error) {
	doc, err := s.Get(id)
	if err != nil {
		return Commit{}, err
	}

	if err := s.db.Delete(kvdb.DocumentsBucket, documentKey(id)); err != nil {
		s.logger.Error("failed to delete document", "doc_id", id, "err", err.Error())
		return Commit{}, fmt.Errorf("failed to delete document %d: %w", id, err)
	}

	return Commit{Document: doc, Warning: s.syncRemoved(id)}, nil
}

func (s *BoltStore) Get(id ID) (Document, error) {
	value, err := s.db.Get(kvdb.DocumentsBucket, documentKey(id))
	if err != nil {
		if errors.Is(err, kvdb.ErrNotFound) {
			return Document{}, &errs.NotFoundError{ID: uint64(id)}
		}
		return Document{}, fmt.Errorf("failed to read document %d: %w", id, err)
	}

	return decodeDocument(value)
}

// List returns the documents selected by predicate, most recently updated
// first and, for equal update times, highest id first.
func (s *BoltStore) List(predicate Predicate) ([]Document, error) {
	var documents []Document
	err := s.db.ForEach(kvdb.DocumentsBucket, func(_ string, value string) error {
		doc, err := decodeDocument(value)
		if err != nil {
			return err
		}
		if predicate == nil || predicate(doc) {
			documents = append(documents, doc)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("failed to list documents", "err", err.Error())
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	SortByRecency(documents)
	return documents, nil
}

// CountContaining is the number of documents whose plain text contains term,
// after both are width folded and lowercased.
func (s *BoltStore) CountContaining(term string) (int, error) {
	needle := textproc.Normalize(term)
	count := 0
	err := s.db.ForEach(kvdb.DocumentsBucket, func(_ string, value string) error {
		doc, err := decodeDocument(value)
		if err != nil {
			return err
		}
		if strings.Contains(textproc.Normalize(doc.PlainText()), needle) {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count documents containing %q: %w", term, err)
	}

	return count, nil
}

func (s *BoltStore) Size() (int, error) {
	return s.db.Count(kvdb.DocumentsBucket)
}

// IDs returns every live document id in ascending order.
func (s *BoltStore) IDs() ([]ID, error) {
	keys, err := s.db.GetAllKeys(kvdb.DocumentsBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to list document ids: %w", err)
	}

	ids := make([]ID, 0, len(keys))
	for _, key := range keys {
		id, err := strconv.ParseUint(key, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed document key %q: %w", key, err)
		}
		ids = append(ids, ID(id))
	}

	return ids, nil
}

// SortByRecency orders documents by update time descending, then id
// descending.
func SortByRecency(documents []Document) {
	sort.SliceStable(documents, func(i, j int) bool {
		if !documents[i].UpdatedAt.Equal(documents[j].UpdatedAt) {
			return documents[i].UpdatedAt.After(documents[j].UpdatedAt)
		}
		return documents[i].ID > documents[j].ID
	})
}

func (s *BoltStore) put(doc Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		s.logger.Error("failed to marshal document", "doc_id", doc.ID, "err", err.Error())
		return fmt.Errorf("failed to marshal document %d: %w", doc.ID, err)
	}

	if err := s.db.Set(kvdb.DocumentsBucket, documentKey(doc.ID), string(data)); err != nil {
		s.logger.Error("failed to write document", "doc_id", doc.ID, "err", err.Error())
		return fmt.Errorf("failed to write document %d: %w", doc.ID, err)
	}

	return nil
}

func (s *BoltStore) syncIndexed(op string, doc Document) error {
	if s.indexer == nil {
		return nil
	}
	if err := s.indexer.Index(doc); err != nil {
		return s.inconsistency(op, doc.ID, err)
	}
	return nil
}

func (s *BoltStore) syncRemoved(id ID) error {
	if s.indexer == nil {
		return nil
	}
	if err := s.indexer.Remove(id); err != nil {
		return s.inconsistency("delete", id, err)
	}
	return nil
}

func (s *BoltStore) inconsistency(op string, id ID, cause error) error {
	s.logger.Warn("document committed but index update failed", "op", op, "doc_id", id, "err", cause.Error())
	if s.onInconsistency != nil {
		s.onInconsistency(op)
	}
	return &errs.IndexInconsistencyError{Op: op, DocID: uint64(id), Err: cause}
}

func applyDraft(doc *Document, draft Draft) {
	doc.Title = strings.TrimSpace(draft.Title)
	doc.Content = draft.Content
	doc.Format = draft.Format
	doc.CategoryID = draft.CategoryID
	doc.Tags = normalizeTags(draft.Tags)
	applyDerivedCounts(doc)
}

func decodeDocument(value string) (Document, error) {
	var doc Document
	if err := json.Unmarshal([]byte(value), &doc); err != nil {
		return Document{}, fmt.Errorf("failed to unmarshal document: %w", err)
	}
	return doc, nil
}

// Zero padding keeps bolt's byte ordering equal to numeric ordering.
func documentKey(id ID) string {
	return fmt.Sprintf("%020d", uint64(id))
}
