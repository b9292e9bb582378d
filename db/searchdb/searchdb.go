package searchdb

import "github.com/meghashyamc/notefind/db/docstore"

type DB interface {
	Index(doc docstore.Document) error
	Remove(id docstore.ID) error
	BuildIndex(documents []docstore.Document) error
	DeleteDocuments(ids []docstore.ID) error
	// Query returns the ids matching a full-text expression: space separated
	// terms are ANDed and "quoted phrases" must match adjacently.
	Query(expression string) (map[docstore.ID]struct{}, error)
	IDs() ([]docstore.ID, error)
	GetDocCount() (uint64, error)
	Close() error
}
