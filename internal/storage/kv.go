package storage

import "database/sql"

// KV is the key/value persistence surface backed by the kv table. Reads are
// defensive: any failure yields the caller's default, matching the fail-open
// contract of the persistence boundary.
type KV struct {
	db *DB
}

// NewKV creates a key/value store over db.
func NewKV(db *DB) *KV {
	return &KV{db: db}
}

// Get returns the stored value for key, or def when the key is absent or the
// read fails.
func (s *KV) Get(key, def string) string {
	if s == nil || s.db == nil {
		return def
	}
	var value string
	err := s.db.conn.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if err != sql.ErrNoRows {
			// Read failures fall back to the default; the in-memory state
			// stays authoritative for the session.
			return def
		}
		return def
	}
	return value
}

// Set stores value under key, replacing any previous value.
func (s *KV) Set(key, value string) error {
	if s == nil || s.db == nil {
		return nil
	}
	_, err := s.db.conn.Exec(
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, datetime('now'))
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value)
	return err
}

// Delete removes key if present.
func (s *KV) Delete(key string) error {
	if s == nil || s.db == nil {
		return nil
	}
	_, err := s.db.conn.Exec(`DELETE FROM kv WHERE key = ?`, key)
	return err
}
