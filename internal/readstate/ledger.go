package readstate

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"
)

// ledgerKey is the fixed persistence key for the serialized ledger.
const ledgerKey = "readstate"

// DefaultMaxEntries bounds how many read markers survive a flush.
const DefaultMaxEntries = 5000

// Mark selects what a marking operation does to an entry.
type Mark int

const (
	MarkRead   Mark = iota // set or refresh the timestamp
	MarkUnread             // delete the entry
	ToggleRead             // present -> delete, absent -> set
)

// KV is the host key/value persistence boundary. Get returns def when the key
// is absent or the read fails; Set persists a string value.
type KV interface {
	Get(key, def string) string
	Set(key, value string) error
}

// RemoteStore is an optional best-effort sync point for the ledger blob.
type RemoteStore interface {
	GetBlob(ctx context.Context, key string) ([]byte, error)
	PutBlob(ctx context.Context, key string, data []byte) error
}

// Ledger tracks which items have been seen, keyed by stable ID. It is loaded
// once at startup, mutated for the whole session, and trimmed to the
// most-recent-N entries on every flush. Remote sync runs off the update loop,
// so all entry access goes through mu; network I/O never runs under the lock.
type Ledger struct {
	mu         sync.Mutex
	entries    map[string]time.Time
	maxEntries int
	kv         KV
	dirty      bool
	now        func() time.Time
}

// Load reads the persisted ledger from kv. Absent or unparseable data yields
// an empty ledger rather than an error; the in-memory state is authoritative
// for the session either way.
func Load(kv KV, maxEntries int) *Ledger {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	l := &Ledger{
		entries:    make(map[string]time.Time),
		maxEntries: maxEntries,
		kv:         kv,
		now:        time.Now,
	}
	if kv == nil {
		return l
	}
	raw := kv.Get(ledgerKey, "")
	if raw == "" {
		return l
	}
	var entries map[string]time.Time
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		// Fail open: a corrupt ledger starts the session empty.
		return l
	}
	l.entries = entries
	return l
}

// IsRead reports whether id has a read marker.
func (l *Ledger) IsRead(id string) bool {
	if id == "" {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.entries[id]
	return ok
}

// LastSeen returns the read timestamp for id, if any.
func (l *Ledger) LastSeen(id string) (time.Time, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	t, ok := l.entries[id]
	return t, ok
}

// Mark applies a marking operation to id. An empty id is an untrackable item
// and the call is a no-op.
func (l *Ledger) Mark(id string, m Mark) {
	if id == "" {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	switch m {
	case MarkRead:
		l.entries[id] = l.now()
		l.dirty = true
	case MarkUnread:
		if _, ok := l.entries[id]; ok {
			delete(l.entries, id)
			l.dirty = true
		}
	case ToggleRead:
		if _, ok := l.entries[id]; ok {
			delete(l.entries, id)
		} else {
			l.entries[id] = l.now()
		}
		l.dirty = true
	}
}

// Len returns the number of read markers currently held.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Dirty reports whether there are unflushed mutations.
func (l *Ledger) Dirty() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dirty
}

// Flush trims the ledger to the most-recent-N entries by timestamp and
// persists it. Safe to call from any of the flush triggers (idle timer,
// shutdown, manual save); the trim and write complete under the lock.
func (l *Ledger) Flush() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.trim()
	if l.kv == nil {
		return nil
	}
	data, err := json.Marshal(l.entries)
	if err != nil {
		return err
	}
	if err := l.kv.Set(ledgerKey, string(data)); err != nil {
		return err
	}
	l.dirty = false
	return nil
}

// trim evicts all but the maxEntries most recently seen markers. The caller
// holds mu.
func (l *Ledger) trim() {
	if len(l.entries) <= l.maxEntries {
		return
	}
	type entry struct {
		id string
		at time.Time
	}
	all := make([]entry, 0, len(l.entries))
	for id, at := range l.entries {
		all = append(all, entry{id, at})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].at.After(all[j].at) })
	for _, e := range all[l.maxEntries:] {
		delete(l.entries, e.id)
	}
}

// SyncRemote merges the ledger with a remote blob and writes the result back.
// Newest timestamp wins per entry. Any failure leaves the local ledger
// untouched; callers treat sync as best-effort. The network calls run outside
// the lock so marking stays responsive during a slow sync.
func (l *Ledger) SyncRemote(ctx context.Context, remote RemoteStore) error {
	data, err := remote.GetBlob(ctx, ledgerKey)
	if err != nil {
		return err
	}
	var theirs map[string]time.Time
	if len(data) > 0 {
		if err := json.Unmarshal(data, &theirs); err != nil {
			// An unreadable remote blob is treated as empty and overwritten.
			theirs = nil
		}
	}
	merged, err := l.mergeRemote(theirs)
	if err != nil {
		return err
	}
	return remote.PutBlob(ctx, ledgerKey, merged)
}

// mergeRemote folds remote markers in atomically with respect to local
// marking and returns the serialized merged ledger. A merge that changed
// anything dirties the ledger so the next flush persists it locally.
func (l *Ledger) mergeRemote(theirs map[string]time.Time) ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for id, at := range theirs {
		if id == "" {
			continue
		}
		if cur, ok := l.entries[id]; !ok || at.After(cur) {
			l.entries[id] = at
			l.dirty = true
		}
	}
	l.trim()
	return json.Marshal(l.entries)
}
