package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
)

// SettingsStore implements domain.SettingsStore. Get has no error return,
// so the settings table is mirrored into memory at construction and kept
// current on every Set; there is no polling or invalidation beyond that —
// a setting changed directly in the database is not picked up until the
// process restarts.
type SettingsStore struct {
	db *sql.DB

	mu    sync.RWMutex
	cache map[string]string
}

// NewSettingsStore loads every row from the settings table into memory and
// returns a store backed by db for subsequent writes.
func NewSettingsStore(ctx context.Context, db *sql.DB) (*SettingsStore, error) {
	s := &SettingsStore{db: db, cache: map[string]string{}}
	if err := s.reload(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SettingsStore) reload(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM settings`)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	defer rows.Close()

	cache := map[string]string{}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return fmt.Errorf("scan setting: %w", err)
		}
		cache[key] = value
	}
	if err := rows.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	s.cache = cache
	s.mu.Unlock()
	return nil
}

// Get returns the in-memory cached value for key.
func (s *SettingsStore) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.cache[key]
	return v, ok
}

// Set upserts key/value in Postgres and the in-memory cache.
func (s *SettingsStore) Set(key, value string) error {
	_, err := s.db.ExecContext(context.Background(), `
		INSERT INTO settings (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = $2
	`, key, value)
	if err != nil {
		return fmt.Errorf("set setting %q: %w", key, err)
	}

	s.mu.Lock()
	s.cache[key] = value
	s.mu.Unlock()
	return nil
}
