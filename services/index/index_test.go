package index

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/meghashyamc/notefind/db/docstore"
	"github.com/meghashyamc/notefind/db/kvdb"
	"github.com/meghashyamc/notefind/db/searchdb"
	"github.com/meghashyamc/notefind/errs"
	"github.com/meghashyamc/notefind/logger"
	"github.com/stretchr/testify/require"
)

type switchableIndex struct {
	*searchdb.BleveDB
	offline bool
}

func (s *switchableIndex) Index(doc docstore.Document) error {
	if s.offline {
		return errors.New("index offline")
	}
	return s.BleveDB.Index(doc)
}

func (s *switchableIndex) Remove(id docstore.ID) error {
	if s.offline {
		return errors.New("index offline")
	}
	return s.BleveDB.Remove(id)
}

type fixture struct {
	kv    *kvdb.BoltDB
	store *docstore.BoltStore
	index *switchableIndex
}

func newFixture(t *testing.T) *fixture {
	kv, err := kvdb.New(logger.Discard(), filepath.Join(t.TempDir(), "repair.db"))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, kv.Close()) })

	bleveDB, err := searchdb.NewInMemory(logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, bleveDB.Close()) })

	index := &switchableIndex{BleveDB: bleveDB}
	return &fixture{
		kv:    kv,
		store: docstore.New(logger.Discard(), kv, docstore.WithIndexer(index)),
		index: index,
	}
}

func (f *fixture) create(t *testing.T, title string) docstore.ID {
	commit, err := f.store.Create(docstore.Draft{Title: title, Content: title + " content"})
	require.NoError(t, err)
	return commit.Document.ID
}

func TestRepairPrunesAndBackfills(t *testing.T) {
	assert := require.New(t)
	f := newFixture(t)
	repairer := NewRepairer(logger.Discard(), f.store, f.index)

	indexed := f.create(t, "indexed")
	f.index.offline = true
	unindexed := f.create(t, "unindexed")
	f.index.offline = false
	assert.NoError(f.index.BleveDB.Index(docstore.Document{ID: 99, Title: "orphan"}))

	var phases []Phase
	report, err := repairer.Repair(context.Background(), WithProgress(func(p Progress) {
		phases = append(phases, p.Phase)
	}))
	assert.NoError(err)
	assert.Equal([]docstore.ID{99}, report.Pruned)
	assert.Equal([]docstore.ID{unindexed}, report.Backfilled)
	assert.Equal([]Phase{PhaseCompared, PhasePruned, PhaseIndexed}, phases)

	ids, err := f.index.IDs()
	assert.NoError(err)
	assert.Equal([]docstore.ID{indexed, unindexed}, ids)

	again, err := repairer.Repair(context.Background())
	assert.NoError(err)
	assert.True(again.Consistent(), "a second repair must be a no-op")
	assert.Zero(again.Reindexed)
}

// racingIndex runs beforeList ahead of every id listing, once.
type racingIndex struct {
	*switchableIndex
	beforeList func()
}

func (r *racingIndex) IDs() ([]docstore.ID, error) {
	if r.beforeList != nil {
		r.beforeList()
		r.beforeList = nil
	}
	return r.switchableIndex.IDs()
}

func TestRepairKeepsEntryOfDocumentCreatedDuringListing(t *testing.T) {
	assert := require.New(t)
	f := newFixture(t)
	f.create(t, "existing")

	var created docstore.ID
	index := &racingIndex{switchableIndex: f.index, beforeList: func() {
		created = f.create(t, "concurrent")
	}}
	repairer := NewRepairer(logger.Discard(), f.store, index)

	report, err := repairer.Repair(context.Background())
	assert.NoError(err)
	assert.Empty(report.Pruned, "a live document is never pruned")

	storeIDs, err := f.store.IDs()
	assert.NoError(err)
	indexIDs, err := f.index.IDs()
	assert.NoError(err)
	assert.Contains(indexIDs, created)
	assert.Equal(storeIDs, indexIDs)
}

func TestRepairAfterDeleteIsNoOp(t *testing.T) {
	assert := require.New(t)
	f := newFixture(t)
	repairer := NewRepairer(logger.Discard(), f.store, f.index)

	id := f.create(t, "temporary")
	f.create(t, "kept")
	_, err := f.store.Delete(id)
	assert.NoError(err)

	matches, err := f.index.Query("temporary")
	assert.NoError(err)
	assert.NotContains(matches, id)

	report, err := repairer.Repair(context.Background())
	assert.NoError(err)
	assert.True(report.Consistent())
}

func TestRepairFullReindexRefreshesStaleEntries(t *testing.T) {
	assert := require.New(t)
	f := newFixture(t)
	repairer := NewRepairer(logger.Discard(), f.store, f.index)

	id := f.create(t, "before")
	f.index.offline = true
	commit, err := f.store.Update(id, docstore.Draft{Title: "after"})
	assert.NoError(err)
	assert.ErrorIs(commit.Warning, errs.ErrIndexInconsistency)
	f.index.offline = false

	report, err := repairer.Repair(context.Background(), WithFullReindex())
	assert.NoError(err)
	assert.True(report.Consistent())
	assert.Equal(1, report.Reindexed)

	matches, err := f.index.Query("after")
	assert.NoError(err)
	assert.Contains(matches, id)
}

func TestRepairHonoursCancellation(t *testing.T) {
	f := newFixture(t)
	f.create(t, "note")
	repairer := NewRepairer(logger.Discard(), f.store, f.index)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repairer.Repair(ctx)
	require.ErrorIs(t, err, errs.ErrCancelled)
}

type blockingRepairer struct {
	release chan struct{}
}

func (b *blockingRepairer) Repair(ctx context.Context, opts ...RepairOption) (RepairReport, error) {
	<-b.release
	return RepairReport{Pruned: []docstore.ID{4}}, nil
}

func TestServiceRepairWaitsForSession(t *testing.T) {
	assert := require.New(t)
	f := newFixture(t)
	f.create(t, "note")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var session sync.Mutex
	service := New(ctx, logger.Discard(), NewRepairer(logger.Discard(), f.store, f.index), f.kv, WithSession(&session))

	session.Lock()
	assert.Eventually(func() bool {
		return service.Start("held", false) == nil
	}, time.Second, 10*time.Millisecond)

	assert.Never(func() bool {
		status, err := service.GetStatus("held")
		return err == nil && status.Progress != ProgressStatusQueued
	}, 100*time.Millisecond, 10*time.Millisecond, "repair must not run while a writer holds the session")

	session.Unlock()
	assert.Eventually(func() bool {
		status, err := service.GetStatus("held")
		return err == nil && status.Progress == ProgressStatusComplete
	}, time.Second, 10*time.Millisecond)
}

func TestServiceRunsOneRepairAtATime(t *testing.T) {
	assert := require.New(t)
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repairer := &blockingRepairer{release: make(chan struct{})}
	service := New(ctx, logger.Discard(), repairer, f.kv)

	assert.Eventually(func() bool {
		return service.Start("first", false) == nil
	}, time.Second, 10*time.Millisecond)

	assert.ErrorIs(service.Start("second", false), ErrRepairInProgress)
	_, err := service.GetStatus("second")
	assert.Error(err, "a rejected request leaves no status behind")

	close(repairer.release)
	assert.Eventually(func() bool {
		status, err := service.GetStatus("first")
		return err == nil && status.Progress == ProgressStatusComplete
	}, time.Second, 10*time.Millisecond)

	status, err := service.GetStatus("first")
	assert.NoError(err)
	assert.Equal([]docstore.ID{4}, status.Report.Pruned)
}

func TestServiceReportsFailure(t *testing.T) {
	assert := require.New(t)
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f.create(t, "note")
	failing := NewRepairer(logger.Discard(), f.store, failingIndex{})
	service := New(ctx, logger.Discard(), failing, f.kv)

	assert.Eventually(func() bool {
		return service.Start("doomed", true) == nil
	}, time.Second, 10*time.Millisecond)

	assert.Eventually(func() bool {
		status, err := service.GetStatus("doomed")
		return err == nil && status.Progress == ProgressStatusFailed && status.Error != ""
	}, time.Second, 10*time.Millisecond)
}

type failingIndex struct{}

func (failingIndex) IDs() ([]docstore.ID, error)          { return nil, nil }
func (failingIndex) BuildIndex([]docstore.Document) error { return errors.New("disk full") }
func (failingIndex) DeleteDocuments([]docstore.ID) error  { return nil }

var progressTestCases = []struct {
	name     string
	progress Progress
	expected int
}{
	{name: "compared", progress: Progress{Phase: PhaseCompared, Total: 10}, expected: ProgressStatusStep1},
	{name: "pruned", progress: Progress{Phase: PhasePruned, Total: 10}, expected: ProgressStatusStep2},
	{name: "half indexed", progress: Progress{Phase: PhaseIndexed, Done: 5, Total: 10}, expected: 59},
	{name: "fully indexed", progress: Progress{Phase: PhaseIndexed, Done: 10, Total: 10}, expected: 99},
}

func TestProgressOf(t *testing.T) {
	for _, testCase := range progressTestCases {
		t.Run(testCase.name, func(t *testing.T) {
			require.Equal(t, testCase.expected, progressOf(testCase.progress))
		})
	}
}
