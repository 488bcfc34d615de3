package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS kv (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);`

// SQLite stores the snapshot as rows in a key-value table.
type SQLite struct {
	db *sql.DB
}

var _ Store = (*SQLite)(nil)

// OpenSQLite opens or creates the database at path. Use ":memory:" for a
// throwaway database.
func OpenSQLite(path string) (*SQLite, error) {
	if path == "" {
		return nil, errors.New("sqlite path is empty")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, errors.Wrap(err, "failed to create store directory")
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open sqlite")
	}
	// One connection, so that ":memory:" is a single database and writers
	// never contend.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to migrate sqlite")
	}

	return &SQLite{db: db}, nil
}

// Save implements Store.
func (s *SQLite) Save(ctx context.Context, snap Snapshot) error {
	sched, err := encodeSchedule(snap.Schedule)
	if err != nil {
		return err
	}
	if snap.SavedAt.IsZero() {
		snap.SavedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	values := [][2]string{
		{keyInput, snap.Input},
		{keySchedule, sched},
		{keySavedAt, snap.SavedAt.Format(time.RFC3339Nano)},
	}
	for _, kv := range values {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO kv(key, value) VALUES(?, ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
			kv[0], kv[1])
		if err != nil {
			return errors.Wrapf(err, "failed to save %s", kv[0])
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit snapshot")
	}
	return nil
}

// Load implements Store.
func (s *SQLite) Load(ctx context.Context) (Snapshot, bool, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, value FROM kv WHERE key IN (?, ?, ?)`,
		keyInput, keySchedule, keySavedAt)
	if err != nil {
		return Snapshot{}, false, errors.Wrap(err, "failed to query snapshot")
	}
	defer rows.Close()

	values := make(map[string]string, 3)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return Snapshot{}, false, errors.Wrap(err, "failed to scan snapshot")
		}
		values[k] = v
	}
	if err := rows.Err(); err != nil {
		return Snapshot{}, false, errors.Wrap(err, "failed to read snapshot")
	}

	snap := Snapshot{Input: values[keyInput]}
	snap.SavedAt = decodeSavedAt(ctx, values[keySavedAt])

	snap.Schedule, err = decodeSchedule(values[keySchedule])
	if err != nil {
		return snap, !snap.IsZero(), err
	}

	return snap, !snap.IsZero(), nil
}

// Clear implements Store.
func (s *SQLite) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM kv WHERE key IN (?, ?, ?)`,
		keyInput, keySchedule, keySavedAt)
	if err != nil {
		return errors.Wrap(err, "failed to clear snapshot")
	}
	return nil
}

// Close implements Store.
func (s *SQLite) Close() error {
	return s.db.Close()
}
