package searchdb

import (
	"strconv"

	"github.com/meghashyamc/notefind/db/docstore"
)

// newEntry is what the index holds for one document. Only the analyzed terms
// are kept; the store remains the source of the text.
func newEntry(doc docstore.Document) map[string]interface{} {
	return map[string]interface{}{
		indexFieldTitle:   doc.Title,
		indexFieldContent: doc.PlainText(),
	}
}

func entryKey(id docstore.ID) string {
	return strconv.FormatUint(uint64(id), 10)
}

func parseEntryKey(key string) (docstore.ID, error) {
	id, err := strconv.ParseUint(key, 10, 64)
	if err != nil {
		return 0, err
	}
	return docstore.ID(id), nil
}
