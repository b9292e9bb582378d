package docstore

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/meghashyamc/notefind/db/kvdb"
	"github.com/meghashyamc/notefind/errs"
	"github.com/meghashyamc/notefind/logger"
	"github.com/stretchr/testify/require"
)

type recordingIndexer struct {
	indexed map[ID]Document
	failing bool
}

func newRecordingIndexer() *recordingIndexer {
	return &recordingIndexer{indexed: make(map[ID]Document)}
}

func (r *recordingIndexer) Index(doc Document) error {
	if r.failing {
		return errors.New("index unavailable")
	}
	r.indexed[doc.ID] = doc
	return nil
}

func (r *recordingIndexer) Remove(id ID) error {
	if r.failing {
		return errors.New("index unavailable")
	}
	delete(r.indexed, id)
	return nil
}

type stepClock struct {
	current time.Time
}

func (c *stepClock) now() time.Time {
	c.current = c.current.Add(time.Minute)
	return c.current
}

func newTestStore(t *testing.T, opts ...Option) *BoltStore {
	db, err := kvdb.New(logger.Discard(), filepath.Join(t.TempDir(), "notes.db"))
	require.NoError(t, err, "could not open bolt database")
	t.Cleanup(func() { require.NoError(t, db.Close()) })
	return New(logger.Discard(), db, opts...)
}

func TestCreateAssignsIDAndDerivedCounts(t *testing.T) {
	assert := require.New(t)
	indexer := newRecordingIndexer()
	store := newTestStore(t, WithIndexer(indexer))

	commit, err := store.Create(Draft{Title: "  学习 Go ", Content: "Go语言 is fun", Tags: []string{"go", " lang", "go", ""}})
	assert.NoError(err)
	assert.NoError(commit.Warning)

	doc := commit.Document
	assert.Equal(ID(1), doc.ID)
	assert.Equal("学习 Go", doc.Title)
	assert.Equal([]string{"go", "lang"}, doc.Tags)
	assert.Equal(11, doc.WordCount)
	assert.Equal(2, doc.ChineseCount)
	assert.Equal(3, doc.EnglishCount)
	assert.False(doc.CreatedAt.IsZero())
	assert.Contains(indexer.indexed, doc.ID, "create must reach the index before returning")

	stored, err := store.Get(doc.ID)
	assert.NoError(err)
	assert.Equal(doc.Title, stored.Title)
	assert.True(stored.HasTag("lang"))
	assert.False(stored.HasTag("rust"))
}

func TestCreateRejectsEmptyTitle(t *testing.T) {
	assert := require.New(t)
	store := newTestStore(t)

	_, err := store.Create(Draft{Title: "   "})
	assert.ErrorIs(err, ErrEmptyTitle)
}

func TestUpdateRecomputesAndKeepsCreatedAt(t *testing.T) {
	assert := require.New(t)
	clock := &stepClock{current: time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)}
	indexer := newRecordingIndexer()
	store := newTestStore(t, WithIndexer(indexer), WithClock(clock.now))

	created, err := store.Create(Draft{Title: "draft", Content: "short"})
	assert.NoError(err)

	updated, err := store.Update(created.Document.ID, Draft{Title: "final", Content: "<p>你好 world</p>", Format: FormatHTML})
	assert.NoError(err)
	assert.NoError(updated.Warning)

	doc := updated.Document
	assert.Equal(created.Document.CreatedAt, doc.CreatedAt)
	assert.True(doc.UpdatedAt.After(doc.CreatedAt))
	assert.Equal("你好 world", doc.PlainText())
	assert.Equal(8, doc.WordCount)
	assert.Equal(2, doc.ChineseCount)
	assert.Equal("final", indexer.indexed[doc.ID].Title)
}

func TestUpdateAndDeleteMissingDocument(t *testing.T) {
	assert := require.New(t)
	store := newTestStore(t)

	_, err := store.Update(42, Draft{Title: "x"})
	assert.ErrorIs(err, errs.ErrNotFound)

	_, err = store.Delete(42)
	assert.ErrorIs(err, errs.ErrNotFound)

	_, err = store.Get(42)
	var notFoundErr *errs.NotFoundError
	assert.True(errors.As(err, &notFoundErr))
	assert.Equal(uint64(42), notFoundErr.ID)
}

func TestDeleteRemovesFromIndexAndNeverReusesID(t *testing.T) {
	assert := require.New(t)
	indexer := newRecordingIndexer()
	store := newTestStore(t, WithIndexer(indexer))

	first, err := store.Create(Draft{Title: "first"})
	assert.NoError(err)
	_, err = store.Delete(first.Document.ID)
	assert.NoError(err)
	assert.NotContains(indexer.indexed, first.Document.ID)

	second, err := store.Create(Draft{Title: "second"})
	assert.NoError(err)
	assert.Greater(second.Document.ID, first.Document.ID)

	size, err := store.Size()
	assert.NoError(err)
	assert.Equal(1, size)
}

func TestIndexFailureIsWarningNotError(t *testing.T) {
	assert := require.New(t)
	indexer := newRecordingIndexer()
	indexer.failing = true
	var observed []string
	store := newTestStore(t, WithIndexer(indexer), WithInconsistencyObserver(func(op string) {
		observed = append(observed, op)
	}))

	commit, err := store.Create(Draft{Title: "kept", Content: "durable"})
	assert.NoError(err, "the primary write must succeed")
	assert.ErrorIs(commit.Warning, errs.ErrIndexInconsistency)

	_, err = store.Get(commit.Document.ID)
	assert.NoError(err, "content must not be lost to keep the index clean")

	deleted, err := store.Delete(commit.Document.ID)
	assert.NoError(err)
	assert.ErrorIs(deleted.Warning, errs.ErrIndexInconsistency)
	assert.Equal([]string{"create", "delete"}, observed)
}

func TestListOrdering(t *testing.T) {
	assert := require.New(t)
	same := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store := newTestStore(t, WithClock(func() time.Time { return same }))

	for _, title := range []string{"a", "b", "c"} {
		_, err := store.Create(Draft{Title: title})
		assert.NoError(err)
	}

	documents, err := store.List(nil)
	assert.NoError(err)
	assert.Len(documents, 3)
	assert.Equal([]ID{3, 2, 1}, idsOf(documents), "equal update times fall back to id descending")

	filtered, err := store.List(func(doc Document) bool { return doc.Title != "b" })
	assert.NoError(err)
	assert.Equal([]ID{3, 1}, idsOf(filtered))

	ids, err := store.IDs()
	assert.NoError(err)
	assert.Equal([]ID{1, 2, 3}, ids)
}

func TestCountContaining(t *testing.T) {
	assert := require.New(t)
	store := newTestStore(t)

	for _, content := range []string{"猫喜欢鱼", "狗喜欢鱼", "Hello World", "<b>hello</b>"} {
		format := FormatPlain
		if content[0] == '<' {
			format = FormatHTML
		}
		_, err := store.Create(Draft{Title: "t", Content: content, Format: format})
		assert.NoError(err)
	}

	count, err := store.CountContaining("喜欢")
	assert.NoError(err)
	assert.Equal(2, count)

	count, err = store.CountContaining("hello")
	assert.NoError(err)
	assert.Equal(2, count, "containment is case-insensitive and sees HTML text only")

	count, err = store.CountContaining("b>")
	assert.NoError(err)
	assert.Equal(0, count)
}

func TestCountContainingFoldsFullwidth(t *testing.T) {
	assert := require.New(t)
	store := newTestStore(t)

	_, err := store.Create(Draft{Title: "t", Content: "ＡＢＣ会议"})
	assert.NoError(err)
	_, err = store.Create(Draft{Title: "t", Content: "abc plain"})
	assert.NoError(err)

	for _, term := range []string{"abc", "ａｂｃ"} {
		count, err := store.CountContaining(term)
		assert.NoError(err)
		assert.Equal(2, count, "term %q", term)
	}
}

func TestSearchHistory(t *testing.T) {
	assert := require.New(t)
	store := newTestStore(t)

	for _, query := range []string{"first", "  ", "second", "third"} {
		assert.NoError(store.SaveSearch(query))
	}

	entries, err := store.RecentSearches(2)
	assert.NoError(err)
	assert.Len(entries, 2)
	assert.Equal("third", entries[0].Query)
	assert.Equal("second", entries[1].Query)

	all, err := store.RecentSearches(0)
	assert.NoError(err)
	assert.Len(all, 3)
}

func TestContentFormatText(t *testing.T) {
	assert := require.New(t)

	format, err := ParseContentFormat("Markdown")
	assert.NoError(err)
	assert.Equal(FormatMarkdown, format)

	format, err = ParseContentFormat("")
	assert.NoError(err)
	assert.Equal(FormatPlain, format)

	_, err = ParseContentFormat("wysiwyg")
	assert.Error(err)

	text, err := FormatHTML.MarshalText()
	assert.NoError(err)
	assert.Equal("html", string(text))
}

func idsOf(documents []Document) []ID {
	ids := make([]ID, len(documents))
	for i, doc := range documents {
		ids[i] = doc.ID
	}
	return ids
}
