package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"

	"pindl/internal/domain"
)

// BadgerStore implements the Store interface using BadgerDB.
type BadgerStore struct {
	db  *badger.DB
	log logrus.FieldLogger
}

var _ Store = (*BadgerStore)(nil)

// NewBadgerStore opens (or creates) a BadgerDB database at dbPath.
func NewBadgerStore(dbPath string, logger logrus.FieldLogger) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dbPath)
	opts.Logger = &badgerLogger{logger.WithField("component", "badgerdb")}

	db, err := badger.Open(opts)
	if err != nil {
		logger.WithError(err).Error("Failed to open BadgerDB")
		return nil, fmt.Errorf("failed to open badger db at %s: %w", dbPath, err)
	}
	logger.WithField("path", dbPath).Info("BadgerDB opened")

	return &BadgerStore{
		db:  db,
		log: logger.WithField("component", "store"),
	}, nil
}

// Close closes the BadgerDB database.
func (s *BadgerStore) Close() error {
	if err := s.db.Close(); err != nil {
		s.log.WithError(err).Error("Error closing BadgerDB")
		return err
	}
	s.log.Debug("BadgerDB closed")
	return nil
}

// Load reads both keys in one read-only transaction.
func (s *BadgerStore) Load(ctx context.Context) Snapshot {
	var historyJSON, statsJSON []byte

	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		if historyJSON, err = getValue(txn, KeyHistory); err != nil {
			return err
		}
		statsJSON, err = getValue(txn, KeyStats)
		return err
	})
	if err != nil {
		// Unreadable storage is treated the same as empty storage.
		s.log.WithError(persistErr("load", err)).Warn("Failed to read stored state")
		return decodeSnapshot(nil, nil, s.log)
	}

	snap := decodeSnapshot(historyJSON, statsJSON, s.log)
	s.log.WithFields(logrus.Fields{
		"history_count":   len(snap.History),
		"total_downloads": snap.Stats.TotalDownloads,
	}).Debug("State loaded")
	return snap
}

// getValue returns a copy of the value stored under key, or nil when the key is absent.
func getValue(txn *badger.Txn, key string) ([]byte, error) {
	item, err := txn.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return item.ValueCopy(nil)
}

// Save overwrites both keys in a single transaction.
func (s *BadgerStore) Save(ctx context.Context, history []domain.HistoryEntry, stats domain.Stats) error {
	historyJSON, statsJSON, err := encodeSnapshot(history, stats)
	if err != nil {
		return persistErr("save", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.SetEntry(badger.NewEntry([]byte(KeyHistory), historyJSON)); err != nil {
			return err
		}
		return txn.SetEntry(badger.NewEntry([]byte(KeyStats), statsJSON))
	})
	if err != nil {
		s.log.WithError(err).Error("Failed to save state to BadgerDB")
		return persistErr("save", err)
	}

	s.log.WithField("history_count", min(len(history), domain.MaxHistory)).Debug("State saved")
	return nil
}

// Clear deletes the history key. Delete is idempotent.
func (s *BadgerStore) Clear(ctx context.Context) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(KeyHistory))
	})
	if err != nil {
		s.log.WithError(err).Error("Failed to clear history in BadgerDB")
		return persistErr("clear", err)
	}
	s.log.Debug("History cleared")
	return nil
}

// badgerLogger adapts logrus.FieldLogger to Badger's logger interface.
type badgerLogger struct {
	logger logrus.FieldLogger
}

func (l *badgerLogger) Errorf(f string, v ...interface{}) {
	l.logger.Errorf(f, v...)
}
func (l *badgerLogger) Warningf(f string, v ...interface{}) {
	l.logger.Warningf(f, v...)
}
func (l *badgerLogger) Infof(f string, v ...interface{}) {
	l.logger.Debugf(f, v...)
}
func (l *badgerLogger) Debugf(f string, v ...interface{}) {
	l.logger.Debugf(f, v...)
}
