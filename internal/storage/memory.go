package storage

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"pindl/internal/domain"
)

// ErrStorageUnavailable is returned by a MemoryStore that was told to fail.
var ErrStorageUnavailable = errors.New("storage unavailable")

// MemoryStore keeps the serialized state in a map, the same bytes a disk store would hold.
// It is used for tests and for STORE_DRIVER=memory.
type MemoryStore struct {
	mu     sync.Mutex
	data   map[string][]byte
	failed bool
	saves  int
	log    logrus.FieldLogger
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore(logger logrus.FieldLogger) *MemoryStore {
	return &MemoryStore{
		data: make(map[string][]byte),
		log:  logger.WithField("component", "store"),
	}
}

// SetFailing makes every later write fail, like a full or disabled storage.
func (s *MemoryStore) SetFailing(failing bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed = failing
}

// Put stores raw bytes under key, bypassing encoding.
func (s *MemoryStore) Put(key string, value []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
}

// Has reports whether key is present.
func (s *MemoryStore) Has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.data[key]
	return ok
}

// Saves counts successful Save calls.
func (s *MemoryStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

func (s *MemoryStore) Load(ctx context.Context) Snapshot {
	s.mu.Lock()
	historyJSON, statsJSON := s.data[KeyHistory], s.data[KeyStats]
	s.mu.Unlock()
	return decodeSnapshot(historyJSON, statsJSON, s.log)
}

func (s *MemoryStore) Save(ctx context.Context, history []domain.HistoryEntry, stats domain.Stats) error {
	historyJSON, statsJSON, err := encodeSnapshot(history, stats)
	if err != nil {
		return persistErr("save", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failed {
		return persistErr("save", ErrStorageUnavailable)
	}
	s.data[KeyHistory] = historyJSON
	s.data[KeyStats] = statsJSON
	s.saves++
	return nil
}

func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failed {
		return persistErr("clear", ErrStorageUnavailable)
	}
	delete(s.data, KeyHistory)
	return nil
}

func (s *MemoryStore) Close() error { return nil }
