package session

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pindl/internal/domain"
	"pindl/internal/storage"
)

type reply struct {
	result *domain.DownloadResult
	err    error
}

// gatedExtractor blocks every Extract call until the test releases that URL,
// so completion order is decided by the test rather than the scheduler.
type gatedExtractor struct {
	mu    sync.Mutex
	gates map[string]chan reply
	calls []string
}

func newGatedExtractor() *gatedExtractor {
	return &gatedExtractor{gates: make(map[string]chan reply)}
}

func (e *gatedExtractor) gate(url string) chan reply {
	e.mu.Lock()
	defer e.mu.Unlock()
	g, ok := e.gates[url]
	if !ok {
		g = make(chan reply, 1)
		e.gates[url] = g
	}
	return g
}

func (e *gatedExtractor) Extract(ctx context.Context, url string) (*domain.DownloadResult, error) {
	e.mu.Lock()
	e.calls = append(e.calls, url)
	e.mu.Unlock()

	select {
	case r := <-e.gate(url):
		return r.result, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (e *gatedExtractor) succeed(url string, result *domain.DownloadResult) {
	e.gate(url) <- reply{result: result}
}

func (e *gatedExtractor) fail(url string, err error) {
	e.gate(url) <- reply{err: err}
}

func (e *gatedExtractor) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.calls)
}

// fixedClock advances one second per call.
func fixedClock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2024, 3, 7, 14, 5, 9, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func resultFor(url string) *domain.DownloadResult {
	return &domain.DownloadResult{
		Type:         domain.MediaImage,
		URLs:         []domain.MediaURL{{URL: url + "/1.jpg"}},
		DownloadLink: url + "/1.jpg",
		Metadata:     domain.Metadata{Title: "T", Source: url},
	}
}

func newMachine(t *testing.T, opts ...Option) (*Machine, *gatedExtractor, *storage.MemoryStore) {
	t.Helper()
	ext := newGatedExtractor()
	store := storage.NewMemoryStore(quietLogger())
	opts = append([]Option{WithClock(fixedClock())}, opts...)
	m := New(context.Background(), ext, store, quietLogger(), opts...)
	return m, ext, store
}

func wait(t *testing.T, task *Task) Outcome {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	out, err := task.Wait(ctx)
	require.NoError(t, err, "task did not resolve")
	return out
}

func TestMachine_InitialState(t *testing.T) {
	m, _, _ := newMachine(t)
	v := m.Snapshot()
	assert.Equal(t, StatusIdle, v.Status)
	assert.Empty(t, v.Input)
	assert.Nil(t, v.Result)
	assert.Nil(t, v.Err)
	assert.Empty(t, v.History)
	assert.Equal(t, domain.DefaultStats(), v.Stats)
}

func TestMachine_BlankSubmitIsValidationError(t *testing.T) {
	m, ext, store := newMachine(t)
	updates, unsubscribe := m.Subscribe()
	defer unsubscribe()

	for _, input := range []string{"", "  ", "\n\t"} {
		task := m.Submit(context.Background(), input)
		out := wait(t, task)

		var ve *domain.ValidationError
		require.ErrorAs(t, out.Err, &ve)
		assert.Equal(t, "Please enter a Pinterest URL", ve.Message)

		v := <-updates
		assert.Equal(t, StatusFailed, v.Status, "must go straight to failed, never loading")
		assert.Equal(t, "Please enter a Pinterest URL", v.ErrorMessage())
	}

	assert.Zero(t, ext.callCount(), "blank input must not reach the extractor")
	assert.Zero(t, store.Saves())
}

// Scenario: a successful extraction lands in history and bumps the counter.
func TestMachine_SuccessScenario(t *testing.T) {
	m, ext, store := newMachine(t)
	const url = "https://pin.it/3WDQvZszP"
	want := &domain.DownloadResult{
		Type:         domain.MediaImage,
		URLs:         []domain.MediaURL{{URL: "https://img/1.jpg"}},
		DownloadLink: "https://img/1.jpg",
		Metadata:     domain.Metadata{Title: "T", Source: url},
	}

	task := m.Submit(context.Background(), url)
	assert.Equal(t, StatusLoading, m.Snapshot().Status)
	assert.Equal(t, 1, m.Snapshot().Pending)

	ext.succeed(url, want)
	out := wait(t, task)
	require.NoError(t, out.Err)
	require.NotNil(t, out.Entry)

	v := m.Snapshot()
	assert.Equal(t, StatusSuccess, v.Status)
	assert.Equal(t, want, v.Result)
	assert.Zero(t, v.Pending)
	require.Len(t, v.History, 1)
	assert.Equal(t, *want, v.History[0].DownloadResult)
	assert.Equal(t, url, v.History[0].URL)
	assert.Equal(t, "2:05:10 PM", v.History[0].Timestamp)
	assert.Equal(t, "3/7/2024", v.History[0].Date)
	assert.Equal(t, 1, v.Stats.TotalDownloads)

	persisted := store.Load(context.Background())
	assert.Equal(t, v.History, persisted.History)
	assert.Equal(t, v.Stats, persisted.Stats)
}

// Scenario: {"status":"error"} leaves history and stats untouched.
func TestMachine_FailureScenario(t *testing.T) {
	m, ext, store := newMachine(t)

	task := m.Submit(context.Background(), "https://pin.it/bad")
	ext.fail("https://pin.it/bad", &domain.ExtractionError{Message: domain.MsgExtractFailed})
	out := wait(t, task)
	require.Error(t, out.Err)

	v := m.Snapshot()
	assert.Equal(t, StatusFailed, v.Status)
	assert.Equal(t, "Failed to fetch media. Please check the URL.", v.ErrorMessage())
	assert.Nil(t, v.Result)
	assert.Empty(t, v.History)
	assert.Equal(t, domain.DefaultStats(), v.Stats)
	assert.Zero(t, store.Saves())

	// The displayed success rate is not computed from outcomes.
	assert.Equal(t, 98, v.Stats.SuccessRate)
}

func TestMachine_HistoryBoundedAndCounted(t *testing.T) {
	for _, n := range []int{1, 4, 5, 6, 12} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			m, ext, _ := newMachine(t)

			for i := 0; i < n; i++ {
				url := fmt.Sprintf("https://pin.it/%d", i)
				task := m.Submit(context.Background(), url)
				ext.succeed(url, resultFor(url))
				wait(t, task)
			}

			v := m.Snapshot()
			require.Len(t, v.History, min(n, domain.MaxHistory))
			assert.Equal(t, n, v.Stats.TotalDownloads)
			for i, e := range v.History {
				assert.Equal(t, fmt.Sprintf("https://pin.it/%d", n-1-i), e.URL, "most recent first")
				if i > 0 {
					assert.Greater(t, v.History[i-1].ID, e.ID)
				}
			}
		})
	}
}

func TestMachine_RemoveEntry(t *testing.T) {
	m, ext, store := newMachine(t)
	for i := 0; i < 4; i++ {
		url := fmt.Sprintf("https://pin.it/%d", i)
		task := m.Submit(context.Background(), url)
		ext.succeed(url, resultFor(url))
		wait(t, task)
	}
	before := m.Snapshot().History
	target := before[1].ID

	require.True(t, m.RemoveEntry(context.Background(), target))

	after := m.Snapshot()
	require.Len(t, after.History, 3)
	assert.Equal(t, []domain.HistoryEntry{before[0], before[2], before[3]}, after.History)
	assert.Equal(t, 4, after.Stats.TotalDownloads, "removal never decrements the counter")
	assert.Equal(t, after.History, store.Load(context.Background()).History)

	assert.False(t, m.RemoveEntry(context.Background(), target), "already removed")
	assert.Len(t, m.Snapshot().History, 3)
}

func TestMachine_ClearHistory(t *testing.T) {
	m, ext, store := newMachine(t)
	for i := 0; i < 3; i++ {
		url := fmt.Sprintf("https://pin.it/%d", i)
		task := m.Submit(context.Background(), url)
		ext.succeed(url, resultFor(url))
		wait(t, task)
	}

	m.ClearHistory(context.Background())

	v := m.Snapshot()
	assert.Empty(t, v.History)
	assert.Equal(t, 3, v.Stats.TotalDownloads)
	assert.False(t, store.Has(storage.KeyHistory))
	assert.True(t, store.Has(storage.KeyStats))
	assert.Equal(t, 3, store.Load(context.Background()).Stats.TotalDownloads)
}

// Two submissions in flight: the one that resolves last wins, even if it was submitted first.
func TestMachine_LastResolvedWins(t *testing.T) {
	m, ext, _ := newMachine(t)
	const first, second = "https://pin.it/first", "https://pin.it/second"

	taskFirst := m.Submit(context.Background(), first)
	taskSecond := m.Submit(context.Background(), second)
	assert.Equal(t, 2, m.Snapshot().Pending, "no mutual exclusion between submissions")

	ext.succeed(second, resultFor(second))
	wait(t, taskSecond)
	v := m.Snapshot()
	assert.Equal(t, StatusSuccess, v.Status)
	assert.Equal(t, second, v.Result.Metadata.Source)

	ext.succeed(first, resultFor(first))
	wait(t, taskFirst)
	v = m.Snapshot()
	assert.Equal(t, StatusSuccess, v.Status)
	assert.Equal(t, first, v.Result.Metadata.Source, "late arrival overwrites the earlier resolution")

	require.Len(t, v.History, 2)
	assert.Equal(t, first, v.History[0].URL)
	assert.Equal(t, second, v.History[1].URL)
	assert.Equal(t, 2, v.Stats.TotalDownloads)
}

func TestMachine_LateFailureOverwritesSuccess(t *testing.T) {
	m, ext, _ := newMachine(t)
	const first, second = "https://pin.it/first", "https://pin.it/second"

	taskFirst := m.Submit(context.Background(), first)
	taskSecond := m.Submit(context.Background(), second)

	ext.succeed(second, resultFor(second))
	wait(t, taskSecond)
	ext.fail(first, &domain.ExtractionError{Message: domain.MsgUnexpectedError})
	wait(t, taskFirst)

	v := m.Snapshot()
	assert.Equal(t, StatusFailed, v.Status)
	assert.Nil(t, v.Result)
	require.Len(t, v.History, 1, "the earlier success stays in history")
	assert.Equal(t, 1, v.Stats.TotalDownloads)
}

func TestMachine_ResubmitClearsPreviousResult(t *testing.T) {
	m, ext, _ := newMachine(t)
	const url = "https://pin.it/a"

	task := m.Submit(context.Background(), url)
	ext.succeed(url, resultFor(url))
	wait(t, task)
	require.NotNil(t, m.Snapshot().Result)

	task = m.Submit(context.Background(), url)
	v := m.Snapshot()
	assert.Equal(t, StatusLoading, v.Status)
	assert.Nil(t, v.Result)
	assert.Nil(t, v.Err)

	ext.succeed(url, resultFor(url))
	wait(t, task)
	h := m.Snapshot().History
	require.Len(t, h, 2)
	assert.NotEqual(t, h[0].ID, h[1].ID, "ids stay unique for the same url")
}

func TestMachine_CancelledTaskIsDropped(t *testing.T) {
	m, _, store := newMachine(t)

	task := m.Submit(context.Background(), "https://pin.it/slow")
	task.Cancel()
	out := wait(t, task)

	assert.True(t, out.Cancelled)
	assert.ErrorIs(t, out.Err, context.Canceled)

	v := m.Snapshot()
	assert.Equal(t, StatusIdle, v.Status)
	assert.Empty(t, v.History)
	assert.Zero(t, store.Saves())
}

func TestMachine_PersistenceFailureIsSwallowed(t *testing.T) {
	m, ext, store := newMachine(t)
	store.SetFailing(true)
	const url = "https://pin.it/a"

	task := m.Submit(context.Background(), url)
	ext.succeed(url, resultFor(url))
	out := wait(t, task)
	require.NoError(t, out.Err)

	v := m.Snapshot()
	assert.Equal(t, StatusSuccess, v.Status)
	assert.Len(t, v.History, 1, "in-memory state stays authoritative")
	assert.Equal(t, 1, v.Stats.TotalDownloads)

	m.ClearHistory(context.Background())
	assert.Empty(t, m.Snapshot().History)
}

func TestMachine_RestoresFromStore(t *testing.T) {
	store := storage.NewMemoryStore(quietLogger())
	history := []domain.HistoryEntry{{ID: 9_000_000_000_000, URL: "https://pin.it/old"}}
	require.NoError(t, store.Save(context.Background(), history, domain.Stats{TotalDownloads: 11, SuccessRate: 98}))

	ext := newGatedExtractor()
	m := New(context.Background(), ext, store, quietLogger(), WithClock(fixedClock()))
	v := m.Snapshot()
	assert.Equal(t, history, v.History)
	assert.Equal(t, 11, v.Stats.TotalDownloads)

	// The clock is behind the stored id; new ids must still be unique and increasing.
	task := m.Submit(context.Background(), "https://pin.it/new")
	ext.succeed("https://pin.it/new", resultFor("https://pin.it/new"))
	out := wait(t, task)
	assert.Greater(t, out.Entry.ID, int64(9_000_000_000_000))
	assert.Equal(t, 12, m.Snapshot().Stats.TotalDownloads)
}

func TestMachine_InputAndExample(t *testing.T) {
	m, ext, _ := newMachine(t)

	m.FillExample()
	assert.Equal(t, "https://pin.it/3WDQvZszP", m.Snapshot().Input)

	task := m.SubmitInput(context.Background())
	assert.Equal(t, domain.ExampleURL, task.URL())
	ext.succeed(domain.ExampleURL, resultFor(domain.ExampleURL))
	wait(t, task)

	m.SetInput("   ")
	out := wait(t, m.SubmitInput(context.Background()))
	assert.ErrorIs(t, out.Err, domain.ErrEmptyURL)
}

func TestMachine_SubscribeDeliversLatest(t *testing.T) {
	m, _, _ := newMachine(t)
	updates, unsubscribe := m.Subscribe()

	m.SetInput("a")
	m.SetInput("b")
	m.SetInput("c")

	v := <-updates
	assert.Equal(t, "c", v.Input, "slow readers get the newest view")

	unsubscribe()
	_, open := <-updates
	assert.False(t, open)
	m.SetInput("d") // must not panic after unsubscribe
}
