package searchdb

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/meghashyamc/notefind/db/docstore"
	"github.com/meghashyamc/notefind/logger"
	"github.com/meghashyamc/notefind/textproc"
)

const indexingBatchSize = 100
const resultPageSize = 1000

const (
	indexFieldTitle   = "title"
	indexFieldContent = "content"
)

type BleveDB struct {
	indexPath string
	logger    logger.Logger
	index     bleve.Index
}

// New opens the index at indexPath, creating it on first use.
func New(logger logger.Logger, indexPath string) (*BleveDB, error) {
	indexMapping, err := createIndexMapping()
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(indexPath), 0o755); err != nil {
		logger.Error("could not create index directory", "err", err.Error())
		return nil, err
	}

	index, err := bleve.New(indexPath, indexMapping)
	if err != nil {
		index, err = bleve.Open(indexPath)
		if err != nil {
			logger.Error("could not open index", "err", err.Error())
			return nil, err
		}
	}
	return &BleveDB{indexPath: indexPath, logger: logger, index: index}, nil
}

// NewInMemory builds an index that lives only as long as the process.
func NewInMemory(logger logger.Logger) (*BleveDB, error) {
	indexMapping, err := createIndexMapping()
	if err != nil {
		return nil, err
	}

	index, err := bleve.NewMemOnly(indexMapping)
	if err != nil {
		logger.Error("could not create in-memory index", "err", err.Error())
		return nil, err
	}
	return &BleveDB{logger: logger, index: index}, nil
}

func createIndexMapping() (mapping.IndexMapping, error) {
	indexMapping := bleve.NewIndexMapping()
	if err := textproc.RegisterAnalyzer(indexMapping); err != nil {
		return nil, err
	}
	indexMapping.DefaultAnalyzer = textproc.AnalyzerName

	docMapping := bleve.NewDocumentMapping()
	docMapping.Dynamic = false

	titleFieldMapping := bleve.NewTextFieldMapping()
	titleFieldMapping.Analyzer = textproc.AnalyzerName
	titleFieldMapping.Store = false
	titleFieldMapping.IncludeTermVectors = true
	docMapping.AddFieldMappingsAt(indexFieldTitle, titleFieldMapping)

	// Content is indexed with term vectors so phrases can be matched, but not
	// stored: the document store holds the text.
	contentFieldMapping := bleve.NewTextFieldMapping()
	contentFieldMapping.Analyzer = textproc.AnalyzerName
	contentFieldMapping.Store = false
	contentFieldMapping.IncludeTermVectors = true
	docMapping.AddFieldMappingsAt(indexFieldContent, contentFieldMapping)

	indexMapping.DefaultMapping = docMapping

	return indexMapping, nil
}

// Index adds doc or replaces its previous entry.
func (b *BleveDB) Index(doc docstore.Document) error {
	if err := b.index.Index(entryKey(doc.ID), newEntry(doc)); err != nil {
		b.logger.Error("could not index document", "id", doc.ID, "err", err.Error())
		return err
	}
	return nil
}

func (b *BleveDB) Remove(id docstore.ID) error {
	if err := b.index.Delete(entryKey(id)); err != nil {
		b.logger.Error("could not remove document from index", "id", id, "err", err.Error())
		return err
	}
	return nil
}

func (b *BleveDB) BuildIndex(documents []docstore.Document) error {

	batch := b.index.NewBatch()

	for i, doc := range documents {

		err := batch.Index(entryKey(doc.ID), newEntry(doc))
		if err != nil {
			b.logger.Error("could not index document", "err", err.Error())
			return err
		}

		if (i+1)%indexingBatchSize == 0 {
			err = b.index.Batch(batch)
			if err != nil {
				return err
			}
			batch = b.index.NewBatch()
		}
	}

	if batch.Size() > 0 {
		if err := b.index.Batch(batch); err != nil {
			b.logger.Error("could not index document", "err", err.Error())
			return err
		}
	}

	return nil
}

func (b *BleveDB) DeleteDocuments(documentIDs []docstore.ID) error {
	batch := b.index.NewBatch()

	for i, docID := range documentIDs {
		batch.Delete(entryKey(docID))

		if (i+1)%indexingBatchSize == 0 {
			err := b.index.Batch(batch)
			if err != nil {
				return err
			}
			batch = b.index.NewBatch()
		}
	}

	if batch.Size() > 0 {
		if err := b.index.Batch(batch); err != nil {
			b.logger.Error("could not delete documents", "err", err.Error())
			return err
		}
	}

	return nil
}

func (b *BleveDB) Query(expression string) (map[docstore.ID]struct{}, error) {
	searchQuery, err := buildQuery(expression)
	if err != nil {
		return nil, err
	}

	ids, err := b.collectIDs(searchQuery)
	if err != nil {
		return nil, err
	}

	matches := make(map[docstore.ID]struct{}, len(ids))
	for _, id := range ids {
		matches[id] = struct{}{}
	}
	return matches, nil
}

// IDs lists every indexed document id in ascending order.
func (b *BleveDB) IDs() ([]docstore.ID, error) {
	ids, err := b.collectIDs(bleve.NewMatchAllQuery())
	if err != nil {
		return nil, err
	}
	slices.Sort(ids)
	return ids, nil
}

func (b *BleveDB) collectIDs(searchQuery query.Query) ([]docstore.ID, error) {
	var ids []docstore.ID

	for from := 0; ; from += resultPageSize {
		searchRequest := bleve.NewSearchRequestOptions(searchQuery, resultPageSize, from, false)
		searchRequest.SortBy([]string{"_id"})

		searchResult, err := b.index.Search(searchRequest)
		if err != nil {
			b.logger.Error("search failed", "err", err.Error())
			return nil, fmt.Errorf("search failed: %w", err)
		}

		for _, hit := range searchResult.Hits {
			id, err := parseEntryKey(hit.ID)
			if err != nil {
				b.logger.Warn("skipping malformed index key", "key", hit.ID)
				continue
			}
			ids = append(ids, id)
		}

		if len(searchResult.Hits) < resultPageSize {
			return ids, nil
		}
	}
}

func (b *BleveDB) GetDocCount() (uint64, error) {
	return b.index.DocCount()
}

func (b *BleveDB) Close() error {

	if b.index != nil {
		if err := b.index.Close(); err != nil {
			b.logger.Error("could not close search index", "err", err.Error())
			return err
		}
	}
	return nil
}
