package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"pindl/internal/domain"
	"pindl/internal/extractor"
	"pindl/internal/storage"
)

// Machine is the single state container for submissions, history and stats.
//
// Submissions are not mutually exclusive. Each runs in its own goroutine and
// its outcome is applied when it resolves, so the submission that resolves
// last decides the final state (last-write-wins by completion order).
type Machine struct {
	extractor extractor.Extractor
	store     storage.Store
	log       logrus.FieldLogger
	now       func() time.Time

	mu      sync.Mutex
	status  Status
	input   string
	result  *domain.DownloadResult
	err     error
	pending int
	history []domain.HistoryEntry
	stats   domain.Stats
	lastID  int64

	subs   map[int]chan View
	nextSu int

	wg sync.WaitGroup
}

// Option configures a Machine.
type Option func(*Machine)

// WithClock replaces time.Now, which stamps history entries and seeds their ids.
func WithClock(now func() time.Time) Option {
	return func(m *Machine) { m.now = now }
}

// New builds a machine and loads the persisted history and stats.
func New(ctx context.Context, ext extractor.Extractor, store storage.Store, logger logrus.FieldLogger, opts ...Option) *Machine {
	m := &Machine{
		extractor: ext,
		store:     store,
		log:       logger.WithField("component", "session"),
		now:       time.Now,
		status:    StatusIdle,
		subs:      make(map[int]chan View),
	}
	for _, opt := range opts {
		opt(m)
	}

	snap := store.Load(ctx)
	m.history = snap.History
	m.stats = snap.Stats
	for _, e := range m.history {
		if e.ID > m.lastID {
			m.lastID = e.ID
		}
	}

	m.log.WithFields(logrus.Fields{
		"history_count":   len(m.history),
		"total_downloads": m.stats.TotalDownloads,
	}).Debug("Session restored")
	return m
}

// Submit starts an extraction of url. Blank input fails immediately with a
// validation error and never enters StatusLoading. Any other input moves the
// machine to StatusLoading, even if earlier submissions are still running.
func (m *Machine) Submit(ctx context.Context, url string) *Task {
	trimmed := strings.TrimSpace(url)

	m.mu.Lock()
	defer m.mu.Unlock()

	if trimmed == "" {
		err := domain.NewEmptyURLError()
		m.status = StatusFailed
		m.result = nil
		m.err = err
		m.notifyLocked()
		return resolvedTask(trimmed, Outcome{Err: err})
	}

	m.status = StatusLoading
	m.result = nil
	m.err = nil
	m.pending++

	task := newTask(ctx, trimmed)
	m.wg.Add(1)
	go m.run(task)

	m.log.WithFields(logrus.Fields{"url": trimmed, "pending": m.pending}).Info("Submission started")
	m.notifyLocked()
	return task
}

// SubmitInput submits the current pending input text.
func (m *Machine) SubmitInput(ctx context.Context) *Task {
	m.mu.Lock()
	input := m.input
	m.mu.Unlock()
	return m.Submit(ctx, input)
}

func (m *Machine) run(task *Task) {
	defer m.wg.Done()
	result, err := m.extractor.Extract(task.ctx, task.url)
	task.finish(m.complete(task, result, err))
}

// complete applies a resolved extraction.
func (m *Machine) complete(task *Task, result *domain.DownloadResult, err error) Outcome {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.pending--
	log := m.log.WithField("url", task.url)

	if task.cancelled.Load() {
		// A cancelled task leaves no trace; only a machine left waiting on it goes back to idle.
		if m.pending == 0 && m.status == StatusLoading {
			m.status = StatusIdle
		}
		log.Info("Submission cancelled")
		m.notifyLocked()
		return Outcome{Err: context.Canceled, Cancelled: true}
	}

	if err != nil {
		m.status = StatusFailed
		m.result = nil
		m.err = err
		log.WithError(err).Info("Submission failed")
		m.notifyLocked()
		return Outcome{Err: err}
	}

	at := m.now()
	entry := domain.NewHistoryEntry(*result, m.nextIDLocked(at), task.url, at)

	m.status = StatusSuccess
	m.result = result
	m.err = nil
	m.history = domain.PrependHistory(m.history, entry)
	m.stats.TotalDownloads++
	m.persistLocked()

	log.WithFields(logrus.Fields{
		"id":              entry.ID,
		"total_downloads": m.stats.TotalDownloads,
	}).Info("Submission succeeded")
	m.notifyLocked()
	return Outcome{Result: result, Entry: &entry}
}

// nextIDLocked returns a millisecond timestamp id, bumped when the clock has not advanced.
func (m *Machine) nextIDLocked(at time.Time) int64 {
	id := at.UnixMilli()
	if id <= m.lastID {
		id = m.lastID + 1
	}
	m.lastID = id
	return id
}

// RemoveEntry deletes the history entry with the given id. Stats are unchanged.
func (m *Machine) RemoveEntry(ctx context.Context, id int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	history, found := domain.RemoveHistory(m.history, id)
	if !found {
		m.log.WithField("id", id).Debug("No history entry to remove")
		return false
	}
	m.history = history
	m.persistCtxLocked(ctx)
	m.log.WithField("id", id).Info("History entry removed")
	m.notifyLocked()
	return true
}

// ClearHistory empties the history and removes it from storage. Stats are unchanged.
func (m *Machine) ClearHistory(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.history = []domain.HistoryEntry{}
	if err := m.store.Clear(ctx); err != nil {
		m.log.WithError(err).Warn("Failed to clear stored history, keeping in-memory state")
	}
	m.log.Info("History cleared")
	m.notifyLocked()
}

// SetInput replaces the pending input text.
func (m *Machine) SetInput(s string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.input = s
	m.notifyLocked()
}

// FillExample sets the pending input to the sample pin URL.
func (m *Machine) FillExample() {
	m.SetInput(domain.ExampleURL)
}

// Snapshot returns a copy of the current state.
func (m *Machine) Snapshot() View {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.viewLocked()
}

// Subscribe returns a channel that receives the latest View after every change.
// Slow readers only miss intermediate views, never the latest one.
func (m *Machine) Subscribe() (<-chan View, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextSu
	m.nextSu++
	ch := make(chan View, 1)
	m.subs[id] = ch

	return ch, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if c, ok := m.subs[id]; ok {
			delete(m.subs, id)
			close(c)
		}
	}
}

// Wait blocks until every submitted task has resolved.
func (m *Machine) Wait() {
	m.wg.Wait()
}

func (m *Machine) viewLocked() View {
	history := make([]domain.HistoryEntry, len(m.history))
	copy(history, m.history)
	return View{
		Status:  m.status,
		Input:   m.input,
		Result:  m.result,
		Err:     m.err,
		Pending: m.pending,
		History: history,
		Stats:   m.stats,
	}
}

func (m *Machine) notifyLocked() {
	if len(m.subs) == 0 {
		return
	}
	v := m.viewLocked()
	for _, ch := range m.subs {
		// Drop a stale unread view so the send below cannot block.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- v:
		default:
		}
	}
}

func (m *Machine) persistLocked() {
	m.persistCtxLocked(context.Background())
}

// Persistence is best-effort: a failed write is logged and the in-memory state stays authoritative.
func (m *Machine) persistCtxLocked(ctx context.Context) {
	if err := m.store.Save(ctx, m.history, m.stats); err != nil {
		m.log.WithError(err).Warn("Failed to persist state, keeping in-memory state")
	}
}
