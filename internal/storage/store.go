package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"

	"pindl/internal/domain"
)

// Keys of the persisted state.
const (
	KeyHistory = "history"
	KeyStats   = "stats"
)

// Snapshot is everything the store persists.
type Snapshot struct {
	History []domain.HistoryEntry
	Stats   domain.Stats
}

// Store defines the persistence port for the history list and stats.
// Implementations are swappable (BadgerDB, SQLite, memory) without touching the session logic.
type Store interface {
	// Load reads the persisted state. Missing or unparsable data yields empty
	// history and default stats; it never fails.
	Load(ctx context.Context) Snapshot

	// Save overwrites both the history and the stats.
	Save(ctx context.Context, history []domain.HistoryEntry, stats domain.Stats) error

	// Clear removes the history key. Stats are left alone.
	Clear(ctx context.Context) error

	// Close gracefully shuts down the underlying storage.
	Close() error
}

// encodeSnapshot serializes the two keys, truncating history to domain.MaxHistory.
func encodeSnapshot(history []domain.HistoryEntry, stats domain.Stats) (historyJSON, statsJSON []byte, err error) {
	if len(history) > domain.MaxHistory {
		history = history[:domain.MaxHistory]
	}
	if history == nil {
		history = []domain.HistoryEntry{}
	}
	historyJSON, err = json.Marshal(history)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal history: %w", err)
	}
	statsJSON, err = json.Marshal(stats)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal stats: %w", err)
	}
	return historyJSON, statsJSON, nil
}

// decodeSnapshot parses each key independently. A key that is absent (nil) or
// does not parse falls back to its default.
func decodeSnapshot(historyJSON, statsJSON []byte, log logrus.FieldLogger) Snapshot {
	snap := Snapshot{History: []domain.HistoryEntry{}, Stats: domain.DefaultStats()}

	if historyJSON != nil {
		var history []domain.HistoryEntry
		if err := json.Unmarshal(historyJSON, &history); err != nil {
			log.WithError(err).WithField("key", KeyHistory).Warn("Stored history is unparsable, starting empty")
		} else if history != nil {
			if len(history) > domain.MaxHistory {
				history = history[:domain.MaxHistory]
			}
			snap.History = history
		}
	}

	if statsJSON != nil {
		var stats domain.Stats
		if err := json.Unmarshal(statsJSON, &stats); err != nil {
			log.WithError(err).WithField("key", KeyStats).Warn("Stored stats are unparsable, using defaults")
		} else {
			snap.Stats = stats
		}
	}

	return snap
}

func persistErr(op string, err error) error {
	return &domain.PersistenceError{Op: op, Err: err}
}
