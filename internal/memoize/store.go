package memoize

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Store is an opt-in disk-backed cache of scalar evaluation results,
// keyed by the same structural call keys as the in-memory cache. It lets
// the CLI reuse results across runs; the in-process engine never touches
// disk unless a store is attached explicitly.
type Store struct {
	db *sql.DB
}

// OpenStore opens (creating if needed) the cache database at path.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("memoize: open store %s: %w", path, err)
	}
	const schema = `CREATE TABLE IF NOT EXISTS memo (
		key   TEXT PRIMARY KEY,
		value REAL NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("memoize: init store %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Get looks up a persisted result.
func (s *Store) Get(key string) (float64, bool, error) {
	var value float64
	err := s.db.QueryRow(`SELECT value FROM memo WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("memoize: store get: %w", err)
	}
	return value, true, nil
}

// Put records a result, replacing any prior entry for the key.
func (s *Store) Put(key string, value float64) error {
	_, err := s.db.Exec(
		`INSERT INTO memo (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("memoize: store put: %w", err)
	}
	return nil
}

// Len reports the number of persisted entries.
func (s *Store) Len() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM memo`).Scan(&n); err != nil {
		return 0, fmt.Errorf("memoize: store len: %w", err)
	}
	return n, nil
}

func (s *Store) Close() error { return s.db.Close() }
