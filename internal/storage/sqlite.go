package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"

	"pindl/internal/domain"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteFile is the database file name inside the store directory.
const SQLiteFile = "pindl.db"

// SQLiteStore implements the Store interface on a single SQLite key/value table.
type SQLiteStore struct {
	db  *sqlx.DB
	log logrus.FieldLogger
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens dataDir/pindl.db and applies pending migrations.
func NewSQLiteStore(dataDir string, logger logrus.FieldLogger) (*SQLiteStore, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, SQLiteFile)
	sqlDB, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := runMigrations(sqlDB); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db := sqlx.NewDb(sqlDB, "sqlite3")
	// SQLite has a single writer.
	db.SetMaxOpenConns(1)

	logger.WithField("path", dbPath).Info("SQLite store opened")
	return &SQLiteStore{db: db, log: logger.WithField("component", "store")}, nil
}

func runMigrations(db *sql.DB) error {
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type kvRow struct {
	Key   string `db:"key"`
	Value string `db:"value"`
}

// Load reads both keys.
func (s *SQLiteStore) Load(ctx context.Context) Snapshot {
	var rows []kvRow
	query := `SELECT key, value FROM kv WHERE key IN (?, ?)`
	if err := s.db.SelectContext(ctx, &rows, query, KeyHistory, KeyStats); err != nil {
		s.log.WithError(persistErr("load", err)).Warn("Failed to read stored state")
		return decodeSnapshot(nil, nil, s.log)
	}

	var historyJSON, statsJSON []byte
	for _, row := range rows {
		switch row.Key {
		case KeyHistory:
			historyJSON = []byte(row.Value)
		case KeyStats:
			statsJSON = []byte(row.Value)
		}
	}
	return decodeSnapshot(historyJSON, statsJSON, s.log)
}

// Save upserts both keys in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, history []domain.HistoryEntry, stats domain.Stats) error {
	historyJSON, statsJSON, err := encodeSnapshot(history, stats)
	if err != nil {
		return persistErr("save", err)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return persistErr("save", fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback()

	query := `
		INSERT INTO kv (key, value, updated_at)
		VALUES (:key, :value, strftime('%s', 'now'))
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	for _, row := range []kvRow{
		{Key: KeyHistory, Value: string(historyJSON)},
		{Key: KeyStats, Value: string(statsJSON)},
	} {
		if _, err := tx.NamedExecContext(ctx, query, row); err != nil {
			s.log.WithError(err).WithField("key", row.Key).Error("Failed to upsert key")
			return persistErr("save", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return persistErr("save", fmt.Errorf("commit: %w", err))
	}
	return nil
}

// Clear deletes the history row.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, KeyHistory); err != nil {
		return persistErr("clear", err)
	}
	return nil
}
