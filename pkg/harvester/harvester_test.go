package harvester

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"liscraper/pkg/checkpoint"
	"liscraper/pkg/config"
	errs "liscraper/pkg/errors"
	"liscraper/pkg/fingerprint"
	"liscraper/pkg/logger"
	"liscraper/pkg/models"
)

// fakeDriver simulates an infinite-scroll listing backed by a fixed item set.
// TriggerLoadMore reveals chunkSize more items until the set is exhausted;
// the page height tracks the visible count.
type fakeDriver struct {
	items      []models.RawItem
	visible    int
	chunkSize  int
	extractErr map[int]error
	probeFails int
	loadMores  int
}

func (d *fakeDriver) Navigate(ctx context.Context, url string) error { return nil }

func (d *fakeDriver) Login(ctx context.Context, email, password string) error { return nil }

func (d *fakeDriver) WaitForListing(ctx context.Context, timeout time.Duration) error { return nil }

func (d *fakeDriver) ItemCount(ctx context.Context) (int, error) { return d.visible, nil }

func (d *fakeDriver) ProbeItems(ctx context.Context, from int) ([]models.RawItem, error) {
	if d.probeFails > 0 {
		d.probeFails--
		return nil, errors.New("probe query failed")
	}
	var out []models.RawItem
	for i := from; i < d.visible; i++ {
		item := d.items[i]
		out = append(out, models.RawItem{
			Name:        item.Name,
			Occupation:  item.Occupation,
			LinkedInURL: item.LinkedInURL,
		})
	}
	return out, nil
}

func (d *fakeDriver) ExtractItem(ctx context.Context, index int) (models.RawItem, error) {
	if err := d.extractErr[index]; err != nil {
		return models.RawItem{}, err
	}
	if index < 0 || index >= d.visible {
		return models.RawItem{}, fmt.Errorf("index %d out of range", index)
	}
	return d.items[index], nil
}

func (d *fakeDriver) TriggerLoadMore(ctx context.Context) error {
	d.loadMores++
	d.visible += d.chunkSize
	if d.visible > len(d.items) {
		d.visible = len(d.items)
	}
	return nil
}

func (d *fakeDriver) Height(ctx context.Context) (float64, error) {
	return float64(d.visible) * 100, nil
}

// fakeSink collects appended records in memory.
type fakeSink struct {
	name      string
	rows      []models.Record
	failNext  int
	appendErr error
}

func (s *fakeSink) Filename() string { return s.name }

func (s *fakeSink) Append(records []models.Record) error {
	if s.failNext > 0 {
		s.failNext--
		if s.appendErr == nil {
			return errors.New("disk full")
		}
		return s.appendErr
	}
	s.rows = append(s.rows, records...)
	return nil
}

type fakeSinkStore struct {
	sinks   map[string]*fakeSink
	created int
	opened  int
}

func newFakeSinkStore() *fakeSinkStore {
	return &fakeSinkStore{sinks: make(map[string]*fakeSink)}
}

func (st *fakeSinkStore) Create() (Sink, error) {
	st.created++
	s := &fakeSink{name: fmt.Sprintf("out_%d.csv", st.created)}
	st.sinks[s.name] = s
	return s, nil
}

func (st *fakeSinkStore) Open(filename string) (Sink, error) {
	s, ok := st.sinks[filename]
	if !ok {
		return nil, errors.New("sink file missing")
	}
	st.opened++
	return s, nil
}

func (st *fakeSinkStore) Exists(filename string) bool {
	_, ok := st.sinks[filename]
	return ok
}

func makeItems(n int) []models.RawItem {
	items := make([]models.RawItem, n)
	for i := range items {
		items[i] = models.RawItem{
			Name:        fmt.Sprintf("Person %d", i),
			Occupation:  "Engineer",
			Location:    "Berlin",
			LinkedInURL: fmt.Sprintf("https://linkedin.com/in/person-%d", i),
		}
	}
	return items
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Site.TargetURL = "https://example.com/people"
	cfg.Scroll.Delay = time.Millisecond
	cfg.Scroll.Jitter = 0
	cfg.Scroll.StallThreshold = 2
	cfg.Checkpoint.Path = filepath.Join(t.TempDir(), "checkpoint.json")
	return cfg
}

func newTestHarvester(t *testing.T, driver *fakeDriver, store *fakeSinkStore) *Harvester {
	t.Helper()
	logger.SetLogger(logger.NewTestLogger())
	return New(driver, store, testConfig(t))
}

func singleSink(t *testing.T, store *fakeSinkStore) *fakeSink {
	t.Helper()
	require.Len(t, store.sinks, 1)
	for _, s := range store.sinks {
		return s
	}
	return nil
}

func TestRunHarvestsEntireListing(t *testing.T) {
	driver := &fakeDriver{items: makeItems(23), visible: 10, chunkSize: 10}
	store := newFakeSinkStore()
	h := newTestHarvester(t, driver, store)

	require.NoError(t, h.Run(context.Background()))

	sink := singleSink(t, store)
	require.Len(t, sink.rows, 23)
	// Listing order is preserved.
	for i, row := range sink.rows {
		assert.Equal(t, fmt.Sprintf("Person %d", i), row.Name)
	}

	// A converged run leaves no checkpoint behind.
	_, err := os.Stat(h.config.Checkpoint.Path)
	assert.True(t, os.IsNotExist(err))
}

func TestRunIsIdempotentAcrossProbes(t *testing.T) {
	// Item count never grows past the first page, so the same ten items are
	// visible on every iteration until convergence. Each must be appended
	// exactly once.
	driver := &fakeDriver{items: makeItems(10), visible: 10, chunkSize: 0}
	store := newFakeSinkStore()
	h := newTestHarvester(t, driver, store)

	require.NoError(t, h.Run(context.Background()))

	sink := singleSink(t, store)
	require.Len(t, sink.rows, 10)
	seen := make(map[string]bool)
	for _, row := range sink.rows {
		key := fingerprint.ForRecord(row)
		assert.False(t, seen[key], "duplicate row for %s", row.Name)
		seen[key] = true
	}
}

func TestRunIsolatesExtractionFailures(t *testing.T) {
	driver := &fakeDriver{
		items:      makeItems(10),
		visible:    10,
		chunkSize:  0,
		extractErr: map[int]error{5: errors.New("card vanished mid-extraction")},
	}
	store := newFakeSinkStore()
	h := newTestHarvester(t, driver, store)

	require.NoError(t, h.Run(context.Background()))

	sink := singleSink(t, store)
	require.Len(t, sink.rows, 10)
	assert.Equal(t, "Error_Profile_5", sink.rows[5].Name)
	assert.True(t, sink.rows[5].IsPlaceholder())
	assert.Equal(t, "Person 4", sink.rows[4].Name)
	assert.Equal(t, "Person 6", sink.rows[6].Name)
}

func TestRunRecommitsBatchAfterSinkFailure(t *testing.T) {
	// The first append fails. The batch must not be marked processed, and a
	// later iteration must re-discover and deliver it in full, exactly once.
	driver := &fakeDriver{items: makeItems(10), visible: 10, chunkSize: 0}
	store := newFakeSinkStore()
	h := newTestHarvester(t, driver, store)
	h.sinks = &failingAppendStore{fakeSinkStore: store, failures: 1}

	require.NoError(t, h.Run(context.Background()))

	sink := singleSink(t, store)
	require.Len(t, sink.rows, 10, "failed batch must be re-discovered and committed once")
	for i, row := range sink.rows {
		assert.Equal(t, fmt.Sprintf("Person %d", i), row.Name)
	}
}

// failingAppendStore hands out sinks whose first n appends fail.
type failingAppendStore struct {
	*fakeSinkStore
	failures int
}

func (st *failingAppendStore) Create() (Sink, error) {
	s, err := st.fakeSinkStore.Create()
	if err != nil {
		return nil, err
	}
	s.(*fakeSink).failNext = st.failures
	return s, nil
}

func TestRunFailsWhenSinkKeepsRejecting(t *testing.T) {
	// A sink that never recovers must not look like an exhausted listing:
	// the run has to end with an error and an intact checkpoint, never as a
	// clean convergence with zero records persisted.
	driver := &fakeDriver{items: makeItems(10), visible: 10, chunkSize: 0}
	store := newFakeSinkStore()
	h := newTestHarvester(t, driver, store)
	h.sinks = &failingAppendStore{fakeSinkStore: store, failures: 1 << 20}

	err := h.Run(context.Background())
	require.Error(t, err)

	var typed *errs.Error
	require.ErrorAs(t, err, &typed)
	assert.Equal(t, errs.ErrorTypeSinkIO, typed.Type)

	sink := singleSink(t, store)
	assert.Empty(t, sink.rows)

	// Nothing was durably appended, so the saved checkpoint must carry no
	// fingerprints and the default index, but it must still exist and keep
	// its sink binding for the next run.
	mgr, mgrErr := checkpoint.NewManager(h.config.Checkpoint.Path)
	require.NoError(t, mgrErr)
	assert.True(t, mgr.Exists())
	cp, loadErr := mgr.Load()
	require.NoError(t, loadErr)
	assert.Equal(t, 0, cp.ProcessedCount())
	assert.Equal(t, -1, cp.LastProfileIndex)
	assert.NotEmpty(t, cp.CSVFilename)
}

func TestCatchUpSkippedWhenScrollBudgetZero(t *testing.T) {
	tl := logger.NewTestLogger()
	logger.SetLogger(tl)

	items := makeItems(12)
	driver := &fakeDriver{items: items, visible: 12, chunkSize: 0}
	store := newFakeSinkStore()
	cfg := testConfig(t)
	cfg.Scroll.CatchUpMaxScrolls = 0
	h := New(driver, store, cfg)

	existing := &fakeSink{name: "resume.csv"}
	for i := 0; i < 10; i++ {
		existing.rows = append(existing.rows, models.FromRaw(items[i]))
	}
	store.sinks[existing.name] = existing

	mgr, err := checkpoint.NewManager(cfg.Checkpoint.Path)
	require.NoError(t, err)
	cp := checkpoint.New()
	cp.CSVFilename = existing.name
	cp.AdvanceIndex(9)
	for i := 0; i < 10; i++ {
		cp.MarkProcessed(fingerprint.ForRaw(items[i]))
	}
	require.NoError(t, mgr.Save(cp))

	require.NoError(t, h.Run(context.Background()))

	assert.False(t, tl.HasMessage("warn", "Catch-up scroll budget exhausted, resuming scan anyway"))
	require.Len(t, existing.rows, 12)
}

func TestRunResumesIntoExistingSink(t *testing.T) {
	items := makeItems(23)
	driver := &fakeDriver{items: items, visible: 10, chunkSize: 10}
	store := newFakeSinkStore()
	h := newTestHarvester(t, driver, store)

	// Seed the state a crashed run would have left: ten committed records,
	// their fingerprints checkpointed, the sink file still present.
	existing := &fakeSink{name: "resume.csv"}
	for i := 0; i < 10; i++ {
		existing.rows = append(existing.rows, models.FromRaw(items[i]))
	}
	store.sinks[existing.name] = existing

	mgr, err := checkpoint.NewManager(h.config.Checkpoint.Path)
	require.NoError(t, err)
	cp := checkpoint.New()
	cp.CSVFilename = existing.name
	cp.AdvanceIndex(9)
	for i := 0; i < 10; i++ {
		cp.MarkProcessed(fingerprint.ForRaw(items[i]))
	}
	require.NoError(t, mgr.Save(cp))

	require.NoError(t, h.Run(context.Background()))

	// The run appended only the unseen items, in order, to the same sink.
	assert.Equal(t, 0, store.created)
	assert.Equal(t, 1, store.opened)
	require.Len(t, existing.rows, 23)
	assert.Equal(t, "Person 10", existing.rows[10].Name)
	assert.Equal(t, "Person 22", existing.rows[22].Name)

	_, statErr := os.Stat(h.config.Checkpoint.Path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRunStartsFreshWhenSinkVanished(t *testing.T) {
	items := makeItems(12)
	driver := &fakeDriver{items: items, visible: 12, chunkSize: 0}
	store := newFakeSinkStore()
	h := newTestHarvester(t, driver, store)

	mgr, err := checkpoint.NewManager(h.config.Checkpoint.Path)
	require.NoError(t, err)
	cp := checkpoint.New()
	cp.CSVFilename = "deleted_by_user.csv"
	cp.AdvanceIndex(9)
	for i := 0; i < 10; i++ {
		cp.MarkProcessed(fingerprint.ForRaw(items[i]))
	}
	require.NoError(t, mgr.Save(cp))

	require.NoError(t, h.Run(context.Background()))

	// Stale checkpoint discarded: everything is re-collected into a new sink.
	assert.Equal(t, 1, store.created)
	sink := singleSink(t, store)
	assert.Len(t, sink.rows, 12)
}

func TestRunSurvivesProbeFailure(t *testing.T) {
	driver := &fakeDriver{items: makeItems(10), visible: 10, chunkSize: 0, probeFails: 1}
	store := newFakeSinkStore()
	h := newTestHarvester(t, driver, store)

	require.NoError(t, h.Run(context.Background()))

	sink := singleSink(t, store)
	assert.Len(t, sink.rows, 10, "items behind a failed probe must be picked up next iteration")
}

func TestRunSavesCheckpointOnCancellation(t *testing.T) {
	driver := &fakeDriver{items: makeItems(10), visible: 10, chunkSize: 0}
	store := newFakeSinkStore()
	h := newTestHarvester(t, driver, store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := h.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)

	// The sink binding was checkpointed before the loop observed the cancel.
	mgr, mgrErr := checkpoint.NewManager(h.config.Checkpoint.Path)
	require.NoError(t, mgrErr)
	cp, loadErr := mgr.Load()
	require.NoError(t, loadErr)
	assert.NotEmpty(t, cp.CSVFilename)
	assert.True(t, store.Exists(cp.CSVFilename))
}

func TestSaveProgressBeforeRunIsNoop(t *testing.T) {
	h := newTestHarvester(t, &fakeDriver{}, newFakeSinkStore())
	assert.NoError(t, h.SaveProgress())
}

func TestRunEmitsProgress(t *testing.T) {
	driver := &fakeDriver{items: makeItems(10), visible: 10, chunkSize: 0}
	store := newFakeSinkStore()
	h := newTestHarvester(t, driver, store)

	var snapshots []Progress
	h.OnProgress(func(p Progress) { snapshots = append(snapshots, p) })

	require.NoError(t, h.Run(context.Background()))

	require.NotEmpty(t, snapshots)
	last := snapshots[len(snapshots)-1]
	assert.True(t, last.Done)
	assert.Equal(t, 10, last.TotalRecords)
}
